package services

import (
	"errors"

	"github.com/upb/property-listings/session"
)

// FromSessionError maps a session check failure to the domain error reported to clients
func FromSessionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrUnauthorized):
		return ErrUnauthorized.Wrap(err)
	case errors.Is(err, session.ErrInvalidToken):
		return ErrInvalidToken.Wrap(err)
	case errors.Is(err, session.ErrUserNotFound):
		return ErrSessionUserMissing.Wrap(err)
	case errors.Is(err, session.ErrTokenExpired):
		return ErrTokenExpired.Wrap(err)
	case errors.Is(err, session.ErrForbidden):
		return ErrForbidden.Wrap(err)
	default:
		return WrapInternal("failed to verify session", err)
	}
}

// SessionOutcome labels a session check result for metrics
func SessionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, session.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, session.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, session.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, session.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, session.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
