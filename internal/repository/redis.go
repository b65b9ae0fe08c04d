package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"travelagent/internal/config"
	"travelagent/internal/model"

	"github.com/redis/go-redis/v9"
)

const geocodeKeyPrefix = "geocode:"

// RedisCache stores geocoding results so repeated lookups of the same place
// do not hit the geocoding service
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisCacheFromClient(client, cfg.GeocodeTTL), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// GeocodeKey normalizes a lookup into a cache key
func GeocodeKey(name string, hints ...string) string {
	parts := []string{strings.ToLower(strings.TrimSpace(name))}
	for _, h := range hints {
		parts = append(parts, strings.ToLower(strings.TrimSpace(h)))
	}
	return geocodeKeyPrefix + strings.Join(parts, "|")
}

// GetLocation returns a cached location. A miss is reported with ok=false
// and no error.
func (c *RedisCache) GetLocation(ctx context.Context, key string) (*model.GeoLocation, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get from cache: %w", err)
	}

	var loc model.GeoLocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached location: %w", err)
	}
	return &loc, true, nil
}

// SetLocation caches a location for the configured TTL
func (c *RedisCache) SetLocation(ctx context.Context, key string, loc *model.GeoLocation) error {
	raw, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to encode location: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Ping verifies the connection to Redis
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
