package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/auth"
	"github.com/hongminglow/summitgear/internal/http/respond"
	"github.com/hongminglow/summitgear/internal/logging"
	"github.com/hongminglow/summitgear/internal/models"
)

type identityKey struct{}

// Identity is the verified caller attached to the request context.
type Identity struct {
	UserID    string
	Email     string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity set by Gate.Authenticate.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Gate verifies bearer tokens without touching the user store.
type Gate struct {
	tokens   *auth.TokenManager
	denylist auth.Denylist
}

// NewGate returns a Gate verifying tokens issued by tokens and checked against denylist.
func NewGate(tokens *auth.TokenManager, denylist auth.Denylist) *Gate {
	return &Gate{tokens: tokens, denylist: denylist}
}

// Authenticate rejects requests without a valid, unrevoked bearer token.
// A missing header and a bad token are reported with different codes.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			respond.Failure(w, r, apperr.Unauthenticated("authorization header is required"))
			return
		}
		raw, ok := bearerToken(header)
		if !ok {
			respond.Failure(w, r, apperr.InvalidToken(fmt.Errorf("%w: malformed authorization header", auth.ErrInvalidToken)))
			return
		}
		claims, err := g.tokens.Parse(raw)
		if err != nil {
			respond.Failure(w, r, apperr.InvalidToken(err))
			return
		}
		revoked, err := g.denylist.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			respond.Failure(w, r, apperr.Internal(fmt.Errorf("check revocation: %w", err)))
			return
		}
		if revoked {
			respond.Failure(w, r, apperr.InvalidToken(fmt.Errorf("%w: revoked", auth.ErrInvalidToken)))
			return
		}

		id := Identity{
			UserID:  claims.Subject,
			Email:   claims.Email,
			Role:    claims.Role,
			TokenID: claims.ID,
		}
		if claims.ExpiresAt != nil {
			id.ExpiresAt = claims.ExpiresAt.Time
		}
		ctx := WithIdentity(r.Context(), id)
		ctx = logging.WithEntry(ctx, logging.FromContext(ctx).WithField("user_id", id.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits only identities holding one of roles. It must run after
// Authenticate.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				respond.Failure(w, r, apperr.Unauthenticated("authentication required"))
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respond.Failure(w, r, apperr.Forbidden("insufficient role"))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
