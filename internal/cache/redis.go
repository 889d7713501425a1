package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/metrics"
)

// RedisCache is a Redis-backed Cache, for deployments running more than one
// instance of this service sharing one buffer-config/manifest cache.
type RedisCache struct {
	name   string
	client *redis.Client
	logger zerolog.Logger
}

// RedisConfig holds the connection parameters for a RedisCache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache dials addr and verifies connectivity with a Ping before
// returning, so misconfiguration fails at startup rather than on first use.
func NewRedisCache(name string, cfg RedisConfig, logger zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis connection failed: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Str("cache", name).Msg("connected to redis cache")
	return &RedisCache{name: name, client: client, logger: logger}, nil
}

func (c *RedisCache) Get(key string) (any, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.RecordCacheResult(c.name, false)
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		metrics.RecordCacheResult(c.name, false)
		return nil, false
	}

	var val any
	if err := json.Unmarshal(raw, &val); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis cache value unmarshal failed")
		metrics.RecordCacheResult(c.name, false)
		return nil, false
	}
	metrics.RecordCacheResult(c.name, true)
	return val, true
}

func (c *RedisCache) Set(key string, value any, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis cache value marshal failed")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

func (c *RedisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
	}
}

// Close closes the underlying Redis connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }

// Ping reports whether Redis is reachable, for use as a health.Checker.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
