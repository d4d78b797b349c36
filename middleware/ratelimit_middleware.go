package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/upb/property-listings/internal/observability"
	"github.com/upb/property-listings/services"
	"github.com/upb/property-listings/services/ratelimit"
	"github.com/upb/property-listings/utils"
	"go.uber.org/zap"
)

// RateLimiter takes a token from the bucket for scope and subject
type RateLimiter interface {
	CheckLimit(ctx context.Context, scope, subject string, bucket ratelimit.Bucket) (*ratelimit.RateLimitResult, error)
}

// RateLimitMiddleware limits requests per client address
type RateLimitMiddleware struct {
	limiter RateLimiter
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates a new RateLimitMiddleware
func NewRateLimitMiddleware(limiter RateLimiter, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// PerClient limits requests under scope by client address. Run it after
// chi's RealIP so proxies are accounted for. Limiter errors let the request through.
func (m *RateLimitMiddleware) PerClient(scope string, bucket ratelimit.Bucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m.limiter == nil || !bucket.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			result, err := m.limiter.CheckLimit(ctx, scope, clientAddr(r), bucket)
			if err != nil {
				m.logger.Warn("rate limiter unavailable",
					zap.String("request_id", GetRequestIDFromContext(ctx)),
					zap.String("scope", scope),
					zap.Error(err))
			}
			if result != nil && !result.Allowed {
				observability.RateLimitedTotal.WithLabelValues(scope).Inc()
				_ = utils.WriteTooManyRequests(w, services.ErrRateLimitExceeded.Message, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
