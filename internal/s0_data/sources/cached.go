package sources

import (
	"context"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/redis"
)

// Cached serves a source's MetricSet from Redis while it is fresh.
// 빈 결과는 캐시하지 않음 (다음 주기에 재시도)
type Cached struct {
	source contracts.MetricSource
	cache  *redis.Cache
	ttl    time.Duration
}

// NewCached wraps source; ttl <= 0 uses redis.TTLMetrics
func NewCached(source contracts.MetricSource, cache *redis.Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = redis.TTLMetrics
	}
	return &Cached{source: source, cache: cache, ttl: ttl}
}

// ID implements contracts.MetricSource
func (c *Cached) ID() contracts.Source {
	return c.source.ID()
}

// Unwrap returns the wrapped source
func (c *Cached) Unwrap() contracts.MetricSource {
	return c.source
}

// Fetch implements contracts.MetricSource
func (c *Cached) Fetch(ctx context.Context, ticker string) contracts.MetricSet {
	key := redis.MetricsKey(string(c.source.ID()), ticker)

	var cached contracts.MetricSet
	if found, err := c.cache.Get(ctx, key, &cached); err == nil && found && cached.Source() == c.source.ID() {
		return cached
	}

	set := c.source.Fetch(ctx, ticker)
	if !set.IsEmpty() {
		_ = c.cache.Set(ctx, key, set, c.ttl)
	}
	return set
}

// Invalidate drops the cached set of ticker (forced refresh)
func (c *Cached) Invalidate(ctx context.Context, ticker string) error {
	return c.cache.Delete(ctx, redis.MetricsKey(string(c.source.ID()), ticker))
}

// CachedProfile serves company profiles from Redis for redis.TTLProfile.
// 이름 없는 프로필은 캐시하지 않음
type CachedProfile struct {
	source contracts.ProfileSource
	cache  *redis.Cache
}

// NewCachedProfile wraps a profile source
func NewCachedProfile(source contracts.ProfileSource, cache *redis.Cache) *CachedProfile {
	return &CachedProfile{source: source, cache: cache}
}

// ID implements contracts.ProfileSource
func (c *CachedProfile) ID() contracts.Source {
	return c.source.ID()
}

// FetchProfile implements contracts.ProfileSource
func (c *CachedProfile) FetchProfile(ctx context.Context, ticker string) contracts.CompanyProfile {
	key := redis.ProfileKey(string(c.source.ID()) + ":" + ticker)

	var cached contracts.CompanyProfile
	if found, err := c.cache.Get(ctx, key, &cached); err == nil && found {
		return cached
	}

	profile := c.source.FetchProfile(ctx, ticker)
	if profile.Name != "" {
		_ = c.cache.Set(ctx, key, profile, redis.TTLProfile)
	}
	return profile
}
