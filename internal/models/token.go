package models

import (
	"time"

	"github.com/google/uuid"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// One-time password reset code
// Lives in the shared cache only, never in the database
type ResetToken struct {
	Code      string    `json:"-"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Code is valid strictly within lifetime since creation
func (t ResetToken) ExpiredAt(now time.Time, lifetime time.Duration) bool {
	return now.Sub(t.CreatedAt) > lifetime
}
