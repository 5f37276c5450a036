package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/summitgear/internal/auth"
	"github.com/hongminglow/summitgear/internal/models"
)

func newTestGate(t *testing.T) (*Gate, *auth.TokenManager, *auth.MemoryDenylist) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", "summitgear-test", time.Hour)
	denylist := auth.NewMemoryDenylist()
	return NewGate(tokens, denylist), tokens, denylist
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(id.UserID + "|" + string(id.Role)))
	})
}

func TestAuthenticate(t *testing.T) {
	gate, tokens, _ := newTestGate(t)
	valid, err := tokens.Generate(models.User{ID: "u1", Email: "alice@x.com", Role: models.RoleCustomer})
	require.NoError(t, err)
	forged, err := auth.NewTokenManager("other-secret", "summitgear-test", time.Hour).
		Generate(models.User{ID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"foreign signature", "Bearer " + forged, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/bookings/my-bookings", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			gate.Authenticate(whoAmI()).ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, rec))
			} else {
				assert.Equal(t, "u1|CUSTOMER", rec.Body.String())
			}
		})
	}
}

func TestAuthenticateRejectsRevokedToken(t *testing.T) {
	gate, tokens, denylist := newTestGate(t)
	raw, err := tokens.Generate(models.User{ID: "u1", Role: models.RoleCustomer})
	require.NoError(t, err)
	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	require.NoError(t, denylist.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	gate.Authenticate(whoAmI()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
}

func TestRequireRole(t *testing.T) {
	adminOnly := RequireRole(models.RoleAdmin)(whoAmI())

	rec := httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	customer := httptest.NewRequest(http.MethodGet, "/", nil)
	customer = customer.WithContext(WithIdentity(customer.Context(), Identity{UserID: "u1", Role: models.RoleCustomer}))
	rec = httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, customer)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	admin := httptest.NewRequest(http.MethodGet, "/", nil)
	admin = admin.WithContext(WithIdentity(admin.Context(), Identity{UserID: "a1", Role: models.RoleAdmin}))
	rec = httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a1|ADMIN", rec.Body.String())
}
