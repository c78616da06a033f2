package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	HashedPassword string
	FirstName      string
	LastName       string
	IsStaff        bool
}

// Profile fields are opaque for auth: stored on sign up, changed by the user only
type Profile struct {
	FirstName string
	LastName  string
}
