package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role stored on a user record
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents an application user. ID equals the ID of the identity that signs the user in.
// LastLoginAt and LastLogoutAt define the session epoch: tokens issued before the later of
// the two are no longer accepted.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	FullName     string     `json:"full_name" db:"full_name"`
	Role         UserRole   `json:"role" db:"role"`
	Avatar       *string    `json:"avatar" db:"avatar"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	LastLogoutAt *time.Time `json:"last_logout_at,omitempty" db:"last_logout_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// NewUser creates a new User with the default role
func NewUser(id uuid.UUID, username, fullName string) *User {
	return &User{
		ID:        id,
		Username:  username,
		FullName:  fullName,
		Role:      RoleUser,
		CreatedAt: time.Now().UTC(),
	}
}
