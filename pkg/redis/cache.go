package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON values under "<prefix>:cache:<key>"
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache; a disabled client always misses
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Get decodes key into dest. Missing key = (false, nil)
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.rdb.Get(ctx, c.client.key(c.prefix, "cache", key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value for ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.set(ctx, key, data, ttl)
}

func (c *Cache) set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.rdb.Set(ctx, c.client.key(c.prefix, "cache", key), data, ttl).Err()
}

// Delete removes key
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.rdb.Del(ctx, c.client.key(c.prefix, "cache", key)).Err()
}

// GetOrSet fills dest from the cache, or from load on a miss.
// Redis 오류는 miss로 취급, 저장 실패는 무시
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() (interface{}, error)) error {
	if found, err := c.Get(ctx, key, dest); err == nil && found {
		return nil
	}

	value, err := load()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	_ = c.set(ctx, key, data, ttl)
	return json.Unmarshal(data, dest)
}

// TTLs
const (
	TTLMetrics = 30 * time.Minute // 소스별 지표
	TTLProfile = 6 * time.Hour    // 회사 프로필
	TTLDaily   = 24 * time.Hour   // CIK 매핑, 월매출
)

// MetricsKey is the cache key of one source's metric set for a ticker
func MetricsKey(source, ticker string) string {
	return fmt.Sprintf("metrics:%s:%s", source, ticker)
}

// ProfileKey is the cache key of a company profile
func ProfileKey(ticker string) string {
	return "profile:" + ticker
}

// CIKMapKey is the cache key of the SEC ticker to CIK table
func CIKMapKey() string {
	return "sec:cik_map"
}

// RevenueKey is the cache key of a monthly revenue page (ROC year)
func RevenueKey(rocYear, month int) string {
	return fmt.Sprintf("revenue:%d:%02d", rocYear, month)
}
