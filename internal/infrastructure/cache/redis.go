package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"seniorguard/internal/config"
	"seniorguard/internal/domain/models"
	"seniorguard/pkg/logger"
)

const (
	keyVerdictPrefix   = "verdict:"
	keyRateLimitPrefix = "rate_limit:"
)

// RedisCache stores verdicts and rate limit counters in Redis
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *logger.Logger
}

// NewRedis connects to Redis and verifies the connection
func NewRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	log = log.WithComponent("redis")
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info().Msg("connected to Redis successfully")
	return NewRedisWithClient(client, cfg.KeyPrefix, log), nil
}

// NewRedisWithClient wraps an existing client. The caller keeps ownership of its lifecycle.
func NewRedisWithClient(client *redis.Client, keyPrefix string, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    log,
	}
}

// Ping checks the connection, for readiness probes
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	c.logger.Info().Msg("closing Redis connection")
	return c.client.Close()
}

func (c *RedisCache) key(k string) string {
	return c.keyPrefix + k
}

// Get returns the verdict stored under key. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) (*models.ThreatVerdict, bool, error) {
	data, err := c.client.Get(ctx, c.key(keyVerdictPrefix+key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var v models.ThreatVerdict
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal verdict: %w", err)
	}
	return &v, true, nil
}

// Set stores a verdict with a TTL
func (c *RedisCache) Set(ctx context.Context, key string, v *models.ThreatVerdict, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}
	return c.client.Set(ctx, c.key(keyVerdictPrefix+key), data, ttl).Err()
}

// CheckRateLimit counts a request against a fixed window.
// Returns (allowed, remaining, resetTime, error)
func (c *RedisCache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	now := time.Now()
	slot := now.Unix() / max(int64(window.Seconds()), 1)
	windowKey := c.key(fmt.Sprintf("%s%s:%d", keyRateLimitPrefix, key, slot))

	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := incr.Val()
	remaining := max(limit-count, 0)
	return count <= limit, remaining, now.Add(window), nil
}
