package external

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/mlhealth/riskview/internal/domain"
)

// ResponseCache stores successful prediction responses keyed by request.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Stats() CacheStats
	Close() error
}

// CacheStats represents cache performance statistics
type CacheStats struct {
	Backend string `json:"backend"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Errors  int64  `json:"errors"`
}

type cacheCounters struct {
	hits, misses, errors atomic.Int64
}

func (c *cacheCounters) snapshot(backend string) CacheStats {
	return CacheStats{
		Backend: backend,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Errors:  c.errors.Load(),
	}
}

// CacheKey derives the cache key for a request body sent to endpoint.
func CacheKey(prefix, endpoint string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write(body)
	return prefix + hex.EncodeToString(h.Sum(nil))
}

// NewResponseCache builds the cache selected by config. The "none" backend
// yields a nil cache, which the prediction client treats as disabled.
func NewResponseCache(config domain.CacheConfig) (ResponseCache, error) {
	switch config.Backend {
	case "", domain.CacheBackendNone:
		return nil, nil
	case domain.CacheBackendMemory:
		return NewMemoryCache(config.MaxItems, config.TTL), nil
	case domain.CacheBackendRedis:
		c, err := NewRedisCache(config)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", config.Backend)
	}
}

// MemoryCache is an in-process LRU with per-entry expiry.
type MemoryCache struct {
	lru *expirable.LRU[string, []byte]
	cacheCounters
}

// NewMemoryCache creates a memory cache holding at most size entries for ttl.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns a cached response.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := m.lru.Get(key)
	if !ok {
		m.misses.Add(1)
		return nil, false, nil
	}
	m.hits.Add(1)
	return val, true, nil
}

// Set stores a copy of value.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	m.lru.Add(key, buf)
	return nil
}

// Len reports the number of live entries.
func (m *MemoryCache) Len() int {
	return m.lru.Len()
}

// Stats returns hit and miss counters.
func (m *MemoryCache) Stats() CacheStats {
	return m.snapshot(domain.CacheBackendMemory)
}

// Close drops all entries.
func (m *MemoryCache) Close() error {
	m.lru.Purge()
	return nil
}

// RedisCache wraps a Redis client so several processes share responses.
type RedisCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
	cacheCounters
}

// cachedResponse represents a cached response with metadata
type cachedResponse struct {
	Data      json.RawMessage `json:"data"`
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NewRedisCache connects to the configured Redis URL and pings it.
func NewRedisCache(config domain.CacheConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisCacheWithClient(client, config.TTL), nil
}

func newRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{redis: client, defaultTTL: ttl}
}

// Get retrieves a cached response. Corrupt or stale entries are removed and
// reported as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		c.errors.Add(1)
		return nil, false, fmt.Errorf("failed to get cached response: %w", err)
	}

	var cached cachedResponse
	if err := json.Unmarshal(val, &cached); err != nil {
		c.redis.Del(ctx, key)
		c.misses.Add(1)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		c.misses.Add(1)
		return nil, false, nil
	}

	c.hits.Add(1)
	return cached.Data, true, nil
}

// Set caches a response for the default TTL. value must be valid JSON.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	cached := cachedResponse{
		Data:      json.RawMessage(value),
		CachedAt:  now,
		ExpiresAt: now.Add(c.defaultTTL),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		c.errors.Add(1)
		return fmt.Errorf("failed to marshal cached response: %w", err)
	}

	if err := c.redis.Set(ctx, key, data, c.defaultTTL).Err(); err != nil {
		c.errors.Add(1)
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

// Stats returns hit and miss counters.
func (c *RedisCache) Stats() CacheStats {
	return c.snapshot(domain.CacheBackendRedis)
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
