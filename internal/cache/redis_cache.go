package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

// ErrCacheMiss is returned when a key is not present
var ErrCacheMiss = errors.New("not found in cache")

// RedisCache caches IAI results and upstream odds payloads in Redis
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	oddsTTL time.Duration
	logger  zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string        // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // IAI results, e.g., 6 * time.Hour
	OddsTTL  time.Duration // source payloads, e.g., 10 * time.Minute
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client:  client,
		ttl:     config.TTL,
		oddsTTL: config.OddsTTL,
		logger:  logger.With().Str("component", "redis_cache").Logger(),
	}
}

// SetResult caches the latest IAI result for an event
func (c *RedisCache) SetResult(ctx context.Context, result *models.IAIResult) error {
	// Create Redis key: iai:{event_id}
	key := resultKey(result.EventID)

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Dur("ttl", c.ttl).
		Msg("cached IAI result")

	return nil
}

// GetResult retrieves the latest IAI result for an event
func (c *RedisCache) GetResult(ctx context.Context, eventID string) (*models.IAIResult, error) {
	var result models.IAIResult
	if err := c.get(ctx, resultKey(eventID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetOdds caches one source fetch under key
func (c *RedisCache) SetOdds(ctx context.Context, key string, odds []models.NormalizedOdds) error {
	data, err := json.Marshal(odds)
	if err != nil {
		return fmt.Errorf("failed to marshal odds: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.oddsTTL).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Int("count", len(odds)).
		Dur("ttl", c.oddsTTL).
		Msg("cached source odds")

	return nil
}

// GetOdds retrieves a cached source fetch
func (c *RedisCache) GetOdds(ctx context.Context, key string) ([]models.NormalizedOdds, error) {
	var odds []models.NormalizedOdds
	if err := c.get(ctx, key, &odds); err != nil {
		return nil, err
	}
	return odds, nil
}

func (c *RedisCache) get(ctx context.Context, key string, out interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return fmt.Errorf("%w: %s", ErrCacheMiss, key)
	} else if err != nil {
		return fmt.Errorf("failed to get from Redis: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func resultKey(eventID string) string {
	return fmt.Sprintf("iai:%s", eventID)
}
