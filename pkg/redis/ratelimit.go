package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow keeps one sorted-set member per request inside the window.
// ARGV: now_ms, window_ms, limit, member
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
	return {0, 0}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, limit - count - 1}
`)

// RateLimitConfig is one provider quota shared by every process
type RateLimitConfig struct {
	Key    string
	Limit  int
	Window time.Duration
}

// backoff is the poll interval of Wait: one request slot, bounded to [50ms, 1s]
func (c RateLimitConfig) backoff() time.Duration {
	if c.Limit <= 0 {
		return time.Second
	}
	d := c.Window / time.Duration(c.Limit)
	switch {
	case d < 50*time.Millisecond:
		return 50 * time.Millisecond
	case d > time.Second:
		return time.Second
	}
	return d
}

// RateLimiter enforces provider quotas across processes with a Redis sliding window
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// NewRateLimiter creates a limiter; a disabled client allows everything
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix}
}

// Allow takes one slot if available and returns the remaining slots
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	res, err := slidingWindow.Run(ctx, r.client.rdb,
		[]string{r.client.key(r.prefix, "ratelimit", cfg.Key)},
		time.Now().UnixMilli(),
		cfg.Window.Milliseconds(),
		cfg.Limit,
		uuid.NewString(), // 같은 ms 요청도 개별 카운트
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit %s: unexpected reply %v", cfg.Key, res)
	}
	return res[0] == 1, int(res[1]), nil
}

// Wait blocks until a slot is taken or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	ticker := time.NewTicker(cfg.backoff())
	defer ticker.Stop()

	for {
		ok, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Provider quotas
var (
	// FinMind: 시간당 600회 (토큰 사용 시)
	FinMindRateLimit = RateLimitConfig{Key: "finmind", Limit: 600, Window: time.Hour}

	// Alpha Vantage free tier: 분당 5회
	AlphaVantageRateLimit = RateLimitConfig{Key: "alpha_vantage", Limit: 5, Window: time.Minute}

	// SEC EDGAR fair access: 초당 10회
	SECRateLimit = RateLimitConfig{Key: "sec_edgar", Limit: 10, Window: time.Second}

	// TWSE/MOPS: 5초당 3회 (초과 시 IP 차단)
	TWSERateLimit = RateLimitConfig{Key: "twse", Limit: 3, Window: 5 * time.Second}
)
