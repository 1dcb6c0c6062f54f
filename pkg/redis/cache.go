package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed JSON caching under a key prefix
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value; a missing key is a miss, not an error
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	return c.client.Redis().Del(ctx, c.key(key)).Err()
}

// GetOrSet retrieves from cache or calls fn to populate it.
// A failed write still returns the computed value.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}

	_ = c.Set(ctx, key, value, ttl)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // 분봉
	TTLMedium = 10 * time.Minute // 분석 결과
	TTLLong   = 1 * time.Hour    // 섹터 태그
	TTLDaily  = 24 * time.Hour   // 일봉
)

// BarsKey identifies a fetched bar series
func BarsKey(code, timeframe, asOf string) string {
	return fmt.Sprintf("bars:%s:%s:%s", timeframe, code, asOf)
}

// ResultKey identifies a cached analysis result.
// version is the rules hash; only its first 12 characters are used.
func ResultKey(code, style, version string) string {
	if style == "" {
		style = "default"
	}
	if version == "" {
		return fmt.Sprintf("analysis:%s:%s", style, code)
	}
	if len(version) > 12 {
		version = version[:12]
	}
	return fmt.Sprintf("analysis:%s@%s:%s", style, version, code)
}

// FlowKey identifies fetched investor flow rows
func FlowKey(code, asOf string) string {
	return fmt.Sprintf("flow:%s:%s", code, asOf)
}
