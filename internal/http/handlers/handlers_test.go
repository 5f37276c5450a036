package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/summitgear/internal/account"
	"github.com/hongminglow/summitgear/internal/auth"
	"github.com/hongminglow/summitgear/internal/booking"
	"github.com/hongminglow/summitgear/internal/catalog"
	"github.com/hongminglow/summitgear/internal/middleware"
	"github.com/hongminglow/summitgear/internal/models"
	"github.com/hongminglow/summitgear/internal/storage/memory"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	t        *testing.T
	handler  http.Handler
	accounts *account.Service
	store    *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.New()
	tokens := auth.NewTokenManager("handler-secret", "summitgear-test", time.Hour)
	accounts := account.NewService(store, auth.NewPasswordHasher(bcrypt.MinCost), tokens)
	denylist := auth.NewMemoryDenylist()
	gate := middleware.NewGate(tokens, denylist)
	guards := Guards{
		Authenticated: gate.Authenticate,
		Admin: func(next http.Handler) http.Handler {
			return gate.Authenticate(middleware.RequireRole(models.RoleAdmin)(next))
		},
	}

	r := mux.NewRouter()
	NewHealthHandler(time.Now(), store).Register(r)
	NewAuthHandler(accounts, denylist).Register(r, guards)
	NewCatalogHandler(catalog.NewService(store)).Register(r, guards)
	NewBookingHandler(booking.NewService(store, store)).Register(r, guards)

	return &testAPI{t: t, handler: r, accounts: accounts, store: store}
}

func (a *testAPI) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (a *testAPI) login(email, password string) string {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, status, env.Message)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	return out.Token
}

func (a *testAPI) adminToken() string {
	a.t.Helper()
	_, _, err := a.accounts.EnsureAdmin(context.Background(), "Root", "admin@summitgear.test", "adminpw")
	require.NoError(a.t, err)
	return a.login("admin@summitgear.test", "adminpw")
}

func (a *testAPI) customerToken(name, email string) string {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{"name": name, "email": email, "password": "pw123"})
	require.Equal(a.t, http.StatusCreated, status, env.Message)
	return a.login(email, "pw123")
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
