package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{InvalidDuration("short"), http.StatusBadRequest},
		{InsufficientStock("Tent", 2, 1), http.StatusBadRequest},
		{GearNotFound("x"), http.StatusBadRequest},
		{InvalidCredentials(), http.StatusBadRequest},
		{Unauthenticated("missing"), http.StatusUnauthorized},
		{InvalidToken(nil), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gear"), http.StatusNotFound},
		{BookingNotFound(), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{InvalidTransition("PAID", "CANCELLED"), http.StatusConflict},
		{RateLimited(), http.StatusTooManyRequests},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.HTTPStatus(), tc.err.Code)
	}
}

func TestFromWrapsUnknownAsInternal(t *testing.T) {
	cause := errors.New("connection refused")
	got := From(cause)
	require.Equal(t, KindInternal, got.Kind)
	require.Equal(t, "internal server error", got.Message)
	require.ErrorIs(t, got, cause)
}

func TestFromFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("create booking: %w", InsufficientStock("Tent", 3, 2))
	got := From(wrapped)
	require.Equal(t, KindInsufficientStock, got.Kind)
	require.Contains(t, got.Message, "Tent")
	require.True(t, Is(wrapped, KindInsufficientStock))
	require.False(t, Is(wrapped, KindGearNotFound))
}

func TestUnauthenticatedAndInvalidTokenAreDistinct(t *testing.T) {
	require.NotEqual(t, Unauthenticated("x").Code, InvalidToken(nil).Code)
}
