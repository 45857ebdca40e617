package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores resolved cities in Redis keyed by rounded coordinates.
// All cache failures are non-fatal; lookups fall through to the API.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache wraps a Redis client. A nil client or zero ttl disables caching.
func NewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(latitude, longitude float64) string {
	return fmt.Sprintf("geocode:%.6f,%.6f", latitude, longitude)
}

// Get returns a cached city for the coordinates, if present.
func (c *Cache) Get(ctx context.Context, latitude, longitude float64) (string, bool) {
	if c == nil {
		return "", false
	}
	city, err := c.client.Get(ctx, cacheKey(latitude, longitude)).Result()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Debug("geocode cache read failed", zap.Error(err))
		}
		return "", false
	}
	return city, true
}

// Set stores a resolved city for the coordinates.
func (c *Cache) Set(ctx context.Context, latitude, longitude float64, city string) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(latitude, longitude), city, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Debug("geocode cache write failed", zap.Error(err))
	}
}
