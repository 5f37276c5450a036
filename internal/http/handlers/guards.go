package handlers

import (
	"net/http"

	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/http/respond"
	"github.com/hongminglow/summitgear/internal/middleware"
)

// Guards are the access wrappers applied per route.
type Guards struct {
	// Authenticated requires a valid bearer token.
	Authenticated func(http.Handler) http.Handler
	// Admin requires a valid bearer token with the ADMIN role.
	Admin func(http.Handler) http.Handler
	// Limited throttles unauthenticated credential endpoints.
	Limited func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

// deny stands in for a protected guard that was never configured.
func deny(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Failure(w, r, apperr.Unauthenticated("authentication required"))
	})
}

// withDefaults leaves unset protected guards closed; only Limited may be absent.
func (g Guards) withDefaults() Guards {
	if g.Authenticated == nil {
		g.Authenticated = deny
	}
	if g.Admin == nil {
		g.Admin = deny
	}
	if g.Limited == nil {
		g.Limited = passthrough
	}
	return g
}

func identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.Failure(w, r, apperr.Unauthenticated("authentication required"))
	}
	return id, ok
}
