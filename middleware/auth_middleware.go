package middleware

import (
	"context"
	"net/http"

	"github.com/upb/property-listings/internal/observability"
	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/services"
	"github.com/upb/property-listings/session"
	"github.com/upb/property-listings/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SessionChecker validates a bearer header against the user's session epoch and role
type SessionChecker interface {
	CheckUser(ctx context.Context, authorization string, allowedRoles []string) (*session.Claims, *models.User, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	checker SessionChecker
	logger  *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(checker SessionChecker, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		checker: checker,
		logger:  logger,
	}
}

// RequireSession admits requests whose bearer token passes the session check
// and whose user holds one of roles. Claims and the user record are added to
// the request context.
func (m *AuthMiddleware) RequireSession(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			claims, user, err := m.checker.CheckUser(ctx, r.Header.Get("Authorization"), roles)
			outcome := services.SessionOutcome(err)
			observability.SessionChecksTotal.WithLabelValues(outcome).Inc()
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("session.outcome", outcome))
			if err != nil {
				m.reject(w, requestID, observability.TraceID(ctx), err)
				return
			}

			ctx = WithClaims(ctx, claims)
			ctx = WithUser(ctx, user)

			m.logger.Debug("session check passed",
				zap.String("request_id", requestID),
				zap.String("user_id", user.ID.String()),
				zap.String("role", string(user.Role)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, requestID, traceID string, err error) {
	domainErr := services.FromSessionError(err)
	message := services.GetErrorMessage(domainErr)

	switch services.GetErrorType(domainErr) {
	case services.ErrorTypeUnauthorized:
		m.logger.Warn("session check failed",
			zap.String("request_id", requestID),
			zap.String("trace_id", traceID),
			zap.Error(err))
		_ = utils.WriteUnauthorized(w, message)
	case services.ErrorTypeForbidden:
		m.logger.Warn("insufficient permissions",
			zap.String("request_id", requestID),
			zap.String("trace_id", traceID),
			zap.Error(err))
		_ = utils.WriteForbidden(w, message)
	default:
		m.logger.Error("session check error",
			zap.String("request_id", requestID),
			zap.String("trace_id", traceID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "internal server error")
	}
}
