package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "listings:rl"

// Bucket configures a token bucket: steady refill per minute plus a burst capacity
type Bucket struct {
	RequestsPerMinute int
	BurstSize         int
}

// Enabled reports whether the bucket limits anything
func (b Bucket) Enabled() bool {
	return b.RequestsPerMinute > 0 && b.BurstSize > 0
}

// RateLimitResult represents the result of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimitService applies token buckets stored in Redis. A nil client
// disables limiting, and Redis failures let the request through.
type RateLimitService struct {
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimitService creates a new RateLimitService instance
func NewRateLimitService(rdb *redis.Client, logger *zap.Logger) *RateLimitService {
	return &RateLimitService{
		rdb:    rdb,
		logger: logger,
		now:    time.Now,
	}
}

// NewRedisClient opens a client for addr and verifies it with PING
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local tokens = tonumber(redis.call("HGET", key, "tokens"))
local ts = tonumber(redis.call("HGET", key, "ts"))
if not tokens then tokens = capacity end
if not ts or now < ts then ts = now end

tokens = math.min(capacity, tokens + (now - ts) * (rate / 1000.0))

local allowed = 0
local retry_after_s = 0
if tokens >= 1.0 then
  allowed = 1
  tokens = tokens - 1.0
else
  retry_after_s = math.max(1, math.ceil((1.0 - tokens) / rate))
end

redis.call("HSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, ttl_ms)
return {allowed, retry_after_s}
`)

// CheckLimit takes one token from the bucket identified by scope and subject
func (s *RateLimitService) CheckLimit(ctx context.Context, scope, subject string, bucket Bucket) (*RateLimitResult, error) {
	if s == nil || s.rdb == nil || !bucket.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}

	key := s.buildScopeKey(scope, subject)
	ratePerSec := float64(bucket.RequestsPerMinute) / 60.0
	capacity := float64(bucket.BurstSize)

	res, err := tokenBucketScript.Run(ctx, s.rdb, []string{key},
		ratePerSec, capacity, s.now().UTC().UnixMilli(), ttlMillis(ratePerSec, capacity)).Result()
	if err != nil {
		s.logger.Warn("rate limit check failed, allowing request", zap.String("scope", scope), zap.Error(err))
		return &RateLimitResult{Allowed: true}, fmt.Errorf("rate limit script: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return &RateLimitResult{Allowed: true}, fmt.Errorf("unexpected redis ratelimit response: %T", res)
	}

	allowed, _ := vals[0].(int64)
	if allowed == 1 {
		return &RateLimitResult{Allowed: true}, nil
	}

	retryAfter, _ := vals[1].(int64)
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return &RateLimitResult{Allowed: false, RetryAfter: time.Duration(retryAfter) * time.Second}, nil
}

// buildScopeKey hashes the subject so client addresses are not stored in clear
func (s *RateLimitService) buildScopeKey(scope, subject string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		scope = "default"
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "unknown"
	}
	sum := sha256.Sum256([]byte(subject))
	return fmt.Sprintf("%s:%s:%s", keyPrefix, scope, hex.EncodeToString(sum[:]))
}

// ttlMillis keeps bucket state for about two refill cycles, clamped to [30s, 1h]
func ttlMillis(ratePerSec, capacity float64) int64 {
	const minTTL = 30 * time.Second
	const maxTTL = time.Hour

	ttl := time.Duration(math.Ceil(capacity/ratePerSec*2))*time.Second + 5*time.Second
	if ttl < minTTL {
		ttl = minTTL
	}
	if ttl > maxTTL {
		ttl = maxTTL
	}
	return ttl.Milliseconds()
}
