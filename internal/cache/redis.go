package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/backstage/foodshare/config"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// Cache errors
var (
	ErrCacheMiss     = errors.New("key not found in cache")
	ErrCacheDisabled = errors.New("cache is disabled")
)

const generationKey = "foodshare:generation"

// RedisCache provides report result caching using Redis
type RedisCache struct {
	client  *redis.Client
	enabled bool
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  client,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache is backed by a Redis connection
func (c *RedisCache) Enabled() bool { return c.enabled }

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string, value interface{}) error {
	if !c.enabled {
		return ErrCacheDisabled
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return errors.Wrap(ErrCacheMiss, key)
		}
		return errors.Wrap(err, "failed to get value from Redis")
	}

	if err := json.Unmarshal(data, value); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached value")
	}

	return nil
}

// Set stores a value in cache with optional expiration
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.enabled {
		return ErrCacheDisabled
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for caching")
	}

	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return errors.Wrap(err, "failed to set value in Redis")
	}

	return nil
}

// Generation returns the current write generation. Cached report keys
// embed it so that every write makes older entries unreachable.
func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	if !c.enabled {
		return 0, ErrCacheDisabled
	}

	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to read cache generation")
	}
	return gen, nil
}

// BumpGeneration advances the write generation
func (c *RedisCache) BumpGeneration(ctx context.Context) error {
	if !c.enabled {
		return ErrCacheDisabled
	}

	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return errors.Wrap(err, "failed to bump cache generation")
	}
	return nil
}

// GetReportCacheKey generates a cache key for one report run
func GetReportCacheKey(generation int64, id int, today, city string, days int) string {
	return fmt.Sprintf("foodshare:report:%d:%d:%s:%q:%d", generation, id, today, city, days)
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}

	return c.client.Close()
}
