package apperrors

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Caller sent malformed input
	ErrValidation = errors.New("validation error")

	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")

	// Reset code (or bearer token on logout) lifecycle
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("token is expired")

	// Notification could not be delivered
	// Never returned to request handlers: the dispatcher logs it
	ErrTransport = errors.New("notification transport error")

	ErrCacheMiss = errors.New("cache key not found")

	ErrPropertyNotFound = errors.New("property not found")
	ErrFavoriteExists   = errors.New("property already in favorites")
	ErrFavoriteNotFound = errors.New("favorite not found")
)

// ValidationError carries per-field messages
// errors.Is(err, ErrValidation) is true for it
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
