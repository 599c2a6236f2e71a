package cache

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ===============================
// CACHE INTERFACE
// ===============================

// Cache defines the caching interface used for feed page caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// DeletePattern removes all keys matching a glob pattern. Used to
	// invalidate every cached page of a listing after a write.
	DeletePattern(ctx context.Context, pattern string) error

	Health(ctx context.Context) error
	Close() error
}

// ===============================
// MEMORY CACHE IMPLEMENTATION
// ===============================

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

type memoryCache struct {
	mu     sync.RWMutex
	items  map[string]memoryItem
	logger *zap.Logger
	stopCh chan struct{}
}

// NewMemoryCache creates an in-memory cache with periodic expiry cleanup.
func NewMemoryCache(logger *zap.Logger) Cache {
	c := &memoryCache{
		items:  make(map[string]memoryItem),
		logger: logger,
		stopCh: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memoryItem{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if matched, _ := path.Match(pattern, key); matched {
			delete(c.items, key)
		}
	}
	return nil
}

func (c *memoryCache) Health(ctx context.Context) error { return nil }

func (c *memoryCache) Close() error {
	close(c.stopCh)
	return nil
}

func (c *memoryCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// ===============================
// REDIS CACHE IMPLEMENTATION
// ===============================

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed cache from a redis:// URL.
func NewRedisCache(redisURL string, logger *zap.Logger) (Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis cache connected", zap.String("addr", opts.Addr))
	return &redisCache{client: client, logger: logger}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return value, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

// ===============================
// PROVIDER SELECTION
// ===============================

// New creates a cache for the configured provider, falling back to the
// in-memory cache when Redis is unavailable.
func New(provider, redisURL string, logger *zap.Logger) Cache {
	if provider == "redis" {
		c, err := NewRedisCache(redisURL, logger)
		if err == nil {
			return c
		}
		logger.Warn("redis unavailable, falling back to memory cache", zap.Error(err))
	}
	return NewMemoryCache(logger)
}
