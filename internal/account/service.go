// Package account owns registration, login and profile changes.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/auth"
	"github.com/hongminglow/summitgear/internal/models"
	"github.com/hongminglow/summitgear/internal/storage"
)

// Service implements the credential store operations.
type Service struct {
	store  storage.UserStore
	hasher auth.PasswordHasher
	tokens *auth.TokenManager
	now    func() time.Time
}

// NewService constructs the service.
func NewService(store storage.UserStore, hasher auth.PasswordHasher, tokens *auth.TokenManager) *Service {
	return &Service{store: store, hasher: hasher, tokens: tokens, now: time.Now}
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a CUSTOMER account. The returned user never carries the hash
// outside this process because PasswordHash is not serialized.
func (s *Service) Register(ctx context.Context, name, email, password string) (models.User, error) {
	return s.create(ctx, name, email, password, models.RoleCustomer)
}

// EnsureAdmin creates the bootstrap administrator unless the email is taken.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (models.User, bool, error) {
	existing, err := s.store.FindUserByEmail(ctx, NormalizeEmail(email))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return models.User{}, false, apperr.Internal(fmt.Errorf("find admin: %w", err))
	}
	created, err := s.create(ctx, name, email, password, models.RoleAdmin)
	if err != nil {
		return models.User{}, false, err
	}
	return created, true, nil
}

func (s *Service) create(ctx context.Context, name, email, password string, role models.Role) (models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || strings.TrimSpace(password) == "" {
		return models.User{}, apperr.Validation("name, email, and password are required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}

	created, err := s.store.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, apperr.Conflict("email already exists")
		}
		return models.User{}, apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	return created, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", models.User{}, apperr.Validation("email and password are required")
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", models.User{}, apperr.InvalidCredentials()
		}
		return "", models.User{}, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return "", models.User{}, apperr.InvalidCredentials()
		}
		return "", models.User{}, apperr.Internal(fmt.Errorf("compare password: %w", err))
	}
	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", models.User{}, apperr.Internal(fmt.Errorf("generate token: %w", err))
	}
	return token, user, nil
}

// UpdateProfile changes the caller's name and, when non-empty, password.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, apperr.Validation("name is required")
	}
	var hash *string
	if strings.TrimSpace(password) != "" {
		h, err := s.hasher.Hash(password)
		if err != nil {
			return models.User{}, apperr.Internal(fmt.Errorf("hash password: %w", err))
		}
		hash = &h
	}
	updated, err := s.store.UpdateUserProfile(ctx, userID, name, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, apperr.NotFound("user")
		}
		return models.User{}, apperr.Internal(fmt.Errorf("update profile: %w", err))
	}
	return updated, nil
}

// ListUsers returns every account, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}
