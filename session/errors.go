package session

import "errors"

var (
	// ErrUnauthorized is returned when the Authorization header is missing or is not a bearer header
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken is returned when the token fails verification or lacks required claims
	ErrInvalidToken = errors.New("invalid token")

	// ErrUserNotFound is returned when the token subject has no user record
	ErrUserNotFound = errors.New("user not found")

	// ErrLookupFailed is returned when the user store could not be read
	ErrLookupFailed = errors.New("user lookup failed")

	// ErrTokenExpired is returned when the token predates the user's session epoch
	ErrTokenExpired = errors.New("token expired")

	// ErrForbidden is returned when the user's role is not allowed
	ErrForbidden = errors.New("forbidden")
)
