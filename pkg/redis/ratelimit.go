package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements sliding window rate limiting using Redis
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
	seq    atomic.Uint64
	now    func() time.Time
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // 엔드포인트 식별자 (e.g., "analysis")
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	-- Remove old entries outside the window
	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	else
		return {0, 0}
	end
`)

// Allow checks if a request from subject is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig, subject string) (bool, int, error) {
	if !r.client.Enabled() || cfg.Limit <= 0 {
		// Redis 비활성 시 모두 허용
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s:%s", r.prefix, cfg.Key, subject)
	now := r.now().UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()
	// 같은 밀리초 요청도 별도 멤버로 집계
	member := strconv.FormatInt(now, 10) + "-" + strconv.FormatUint(r.seq.Add(1), 10)

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
		member,
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("rate limit script returned %d values", len(result))
	}

	allowed, _ := result[0].(int64)
	remaining, _ := result[1].(int64)
	return allowed == 1, int(remaining), nil
}

// Wait blocks until a request is allowed or context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig, subject string) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg, subject)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// AnalysisRateLimit bounds on-demand analysis requests per client
func AnalysisRateLimit(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Key:    "analysis",
		Limit:  limit,
		Window: window,
	}
}
