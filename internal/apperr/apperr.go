// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidCredentials
	KindInvalidDuration
	KindInsufficientStock
	KindGearNotFound
	KindUnauthenticated
	KindInvalidToken
	KindForbidden
	KindNotFound
	KindBookingNotFound
	KindConflict
	KindInvalidTransition
	KindRateLimited
)

// Error is an application error carrying a stable code and a client-safe message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindInvalidCredentials, KindInvalidDuration, KindInsufficientStock, KindGearNotFound:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidToken:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound, KindBookingNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(message string) *Error {
	return newError(KindValidation, "VALIDATION_ERROR", message)
}

func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func InvalidCredentials() *Error {
	return newError(KindInvalidCredentials, "INVALID_CREDENTIALS", "invalid email or password")
}

func InvalidDuration(message string) *Error {
	return newError(KindInvalidDuration, "INVALID_DURATION", message)
}

// InsufficientStock names the gear whose stock cannot cover the request.
func InsufficientStock(gearName string, requested, available int) *Error {
	return newError(KindInsufficientStock, "INSUFFICIENT_STOCK",
		fmt.Sprintf("stock for %s is not enough: requested %d, available %d", gearName, requested, available))
}

func GearNotFound(gearID string) *Error {
	return newError(KindGearNotFound, "GEAR_NOT_FOUND", fmt.Sprintf("gear with id %s not found", gearID))
}

func Unauthenticated(message string) *Error {
	return newError(KindUnauthenticated, "UNAUTHENTICATED", message)
}

// InvalidToken wraps the verification failure; the cause is never sent to clients.
func InvalidToken(cause error) *Error {
	e := newError(KindInvalidToken, "INVALID_TOKEN", "invalid or expired token")
	e.Err = cause
	return e
}

func Forbidden(message string) *Error {
	return newError(KindForbidden, "FORBIDDEN", message)
}

func NotFound(what string) *Error {
	return newError(KindNotFound, "NOT_FOUND", what+" not found")
}

func BookingNotFound() *Error {
	return newError(KindBookingNotFound, "BOOKING_NOT_FOUND", "booking not found")
}

func Conflict(message string) *Error {
	return newError(KindConflict, "CONFLICT", message)
}

func InvalidTransition(from, to string) *Error {
	return newError(KindInvalidTransition, "INVALID_TRANSITION",
		fmt.Sprintf("cannot change booking status from %s to %s", from, to))
}

func RateLimited() *Error {
	return newError(KindRateLimited, "RATE_LIMITED", "too many requests")
}

// Internal hides cause behind a generic message.
func Internal(cause error) *Error {
	e := newError(KindInternal, "INTERNAL_ERROR", "internal server error")
	e.Err = cause
	return e
}

// From returns err as an *Error, treating anything unclassified as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
