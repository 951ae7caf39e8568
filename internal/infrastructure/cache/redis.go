package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"uraniborg-lab/internal/config"
	"uraniborg-lab/pkg/logger"
)

// ErrMiss is returned when a key does not exist
var ErrMiss = errors.New("cache miss")

// RedisCache wraps the Redis client with typed operations
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *logger.Logger
}

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	log = log.WithComponent("redis")
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info().Msg("connected to Redis successfully")

	return NewRedisWithClient(client, cfg.KeyPrefix, log), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client, keyPrefix string, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    log,
	}
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	c.logger.Info().Msg("closing Redis connection")
	return c.client.Close()
}

// key prepends the namespace prefix to a key
func (c *RedisCache) key(k string) string {
	return c.keyPrefix + k
}

// Get retrieves a value from cache. A missing key yields ErrMiss.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%s: %w", c.key(key), ErrMiss)
	}
	return val, err
}

// GetBytes retrieves a raw value from cache
func (c *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	val, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return []byte(val), nil
}

// Set stores a value in cache with optional TTL
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// SetJSON marshals and stores a value in cache
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.Set(ctx, key, string(data), ttl)
}

// Exists checks if a key exists
func (c *RedisCache) Exists(ctx context.Context, keys ...string) (int64, error) {
	prefixedKeys := make([]string, len(keys))
	for i, k := range keys {
		prefixedKeys[i] = c.key(k)
	}
	return c.client.Exists(ctx, prefixedKeys...).Result()
}

// Cache key constants
const (
	// KeyBaselinePrefix namespaces baseline documents, keyed by dataset name
	KeyBaselinePrefix = "baseline:"
)

// BaselineKey returns the unprefixed key of a baseline dataset
func BaselineKey(dataset string) string {
	return KeyBaselinePrefix + dataset
}

// GetBaseline retrieves a raw baseline document
func (c *RedisCache) GetBaseline(ctx context.Context, dataset string) ([]byte, error) {
	return c.GetBytes(ctx, BaselineKey(dataset))
}

// HasBaseline reports whether a dataset has been published
func (c *RedisCache) HasBaseline(ctx context.Context, dataset string) (bool, error) {
	n, err := c.Exists(ctx, BaselineKey(dataset))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PutBaseline publishes a baseline document without expiry
func (c *RedisCache) PutBaseline(ctx context.Context, dataset string, doc any) error {
	return c.SetJSON(ctx, BaselineKey(dataset), doc, 0)
}
