package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	t.Run("matches ErrValidation even wrapped", func(t *testing.T) {
		err := fmt.Errorf("sign up: %w", NewValidationError(map[string]string{"email": "Invalid value"}))

		require.ErrorIs(t, err, ErrValidation)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		require.Equal(t, "Invalid value", vErr.Fields["email"])
	})

	t.Run("message lists fields in stable order", func(t *testing.T) {
		err := NewValidationError(map[string]string{
			"password": "too short",
			"email":    "invalid",
		})

		require.Equal(t, "validation error: email: invalid, password: too short", err.Error())
	})

	t.Run("no fields", func(t *testing.T) {
		require.Equal(t, "validation error", NewValidationError(nil).Error())
	})

	t.Run("does not match other kinds", func(t *testing.T) {
		require.NotErrorIs(t, NewValidationError(nil), ErrInvalidCredentials)
	})
}
