package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hongminglow/summitgear/internal/account"
	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/auth"
	"github.com/hongminglow/summitgear/internal/http/respond"
	"github.com/hongminglow/summitgear/internal/logging"
	"github.com/hongminglow/summitgear/internal/middleware"
	"github.com/hongminglow/summitgear/internal/models/dto"
)

// AuthHandler owns registration, login, logout and profile endpoints.
type AuthHandler struct {
	accounts *account.Service
	denylist auth.Denylist
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts *account.Service, denylist auth.Denylist) *AuthHandler {
	return &AuthHandler{accounts: accounts, denylist: denylist}
}

// Register attaches auth and user routes to the router.
func (h *AuthHandler) Register(r *mux.Router, g Guards) {
	g = g.withDefaults()
	r.Handle("/api/auth/register", g.Limited(http.HandlerFunc(h.handleRegister))).Methods(http.MethodPost)
	r.Handle("/api/auth/login", g.Limited(http.HandlerFunc(h.handleLogin))).Methods(http.MethodPost)
	r.Handle("/api/auth/logout", g.Authenticated(http.HandlerFunc(h.handleLogout))).Methods(http.MethodPost)
	r.Handle("/api/users", g.Admin(http.HandlerFunc(h.handleListUsers))).Methods(http.MethodGet)
	r.Handle("/api/users/profile", g.Authenticated(http.HandlerFunc(h.handleUpdateProfile))).Methods(http.MethodPatch)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Failure(w, r, err)
		return
	}
	created, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	logging.FromContext(r.Context()).WithField("user_id", created.ID).Info("user registered")
	respond.JSON(w, r, http.StatusCreated, "User created successfully", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Failure(w, r, err)
		return
	}
	token, user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindInvalidCredentials) {
			logging.FromContext(r.Context()).WithField("remote", middleware.ClientIP(r)).Info("login rejected")
		}
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.denylist.Revoke(r.Context(), id.TokenID, id.ExpiresAt); err != nil {
		respond.Failure(w, r, apperr.Internal(err))
		return
	}
	respond.JSON(w, r, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "users", users)
}

func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Failure(w, r, err)
		return
	}
	updated, err := h.accounts.UpdateProfile(r.Context(), id.UserID, req.Name, req.Password)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "profile updated", updated)
}
