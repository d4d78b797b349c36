package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/property-listings/services/ratelimit"
	"go.uber.org/zap"
)

type failingLimiter struct{}

func (failingLimiter) CheckLimit(ctx context.Context, scope, subject string, bucket ratelimit.Bucket) (*ratelimit.RateLimitResult, error) {
	return &ratelimit.RateLimitResult{Allowed: true}, errors.New("redis down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestPerClient_BlocksAfterBurst(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mw := NewRateLimitMiddleware(ratelimit.NewRateLimitService(rdb, zap.NewNop()), zap.NewNop())
	handler := mw.PerClient("login", ratelimit.Bucket{RequestsPerMinute: 1, BurstSize: 2})(okHandler())

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusNoContent, do("10.0.0.1:5001").Code)

	blocked := do("10.0.0.1:5002")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, do("10.0.0.2:5000").Code, "other clients keep their own bucket")
}

func TestPerClient_FailsOpen(t *testing.T) {
	mw := NewRateLimitMiddleware(failingLimiter{}, zap.NewNop())
	handler := mw.PerClient("login", ratelimit.Bucket{RequestsPerMinute: 1, BurstSize: 1})(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestPerClient_Disabled(t *testing.T) {
	next := okHandler()

	mw := NewRateLimitMiddleware(nil, zap.NewNop())
	assert.NotNil(t, mw.PerClient("login", ratelimit.Bucket{RequestsPerMinute: 1, BurstSize: 1})(next))

	mw = NewRateLimitMiddleware(failingLimiter{}, zap.NewNop())
	w := httptest.NewRecorder()
	mw.PerClient("login", ratelimit.Bucket{})(next).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestClientAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:443"
	assert.Equal(t, "192.168.1.5", clientAddr(req))

	req.RemoteAddr = "192.168.1.5"
	assert.Equal(t, "192.168.1.5", clientAddr(req))
}
