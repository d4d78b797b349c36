package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the sign-in credential behind a user record
type Identity struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose in JSON
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty" db:"last_sign_in_at"`
}

// NewIdentity creates a new Identity with a fresh ID
func NewIdentity(email, passwordHash string) *Identity {
	return &Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}
