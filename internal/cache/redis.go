package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"nbasync/ingestion/internal/metrics"
)

// Config holds Redis connection configuration
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache caches store row-id lookups (team display name → row id)
// so repeated link resolution within and across runs avoids a store
// round trip. The cache is strictly optional: a nil *RedisCache is a
// valid no-op cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Msg("Successfully connected to Redis")

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

// Get returns the cached value for key, or false on a miss
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}

	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.RecordCacheMiss()
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		metrics.RecordCacheMiss()
		return "", false
	}

	metrics.RecordCacheHit()
	return val, true
}

// Set stores a value under key with the configured TTL. Failures are
// logged and swallowed; the cache is never load-bearing.
func (c *RedisCache) Set(ctx context.Context, key, value string) {
	if c == nil {
		return
	}

	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
