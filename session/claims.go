package session

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token uses carried in the token_use claim
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims is the payload of an access or refresh token. Role is informational;
// authorization always uses the role stored on the user record.
type Claims struct {
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	TokenUse string `json:"token_use,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject as a user ID
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// IssuedAtMillis returns iat in milliseconds, or false when iat is absent
func (c *Claims) IssuedAtMillis() (int64, bool) {
	if c.IssuedAt == nil {
		return 0, false
	}
	return c.IssuedAt.Unix() * 1000, true
}
