package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ratehub/internal/http-api/models"

	"github.com/redis/go-redis/v9"
)

// AggregateCache is the transient side-cache for item aggregates. It is never
// authoritative: entries are filled from the store and removed on submit, and
// a missing or failing cache always falls back to a store read.
type AggregateCache interface {
	// Get returns the cached aggregate or nil when the key is absent.
	Get(ctx context.Context, itemID string) (*models.RatingAggregate, error)
	Set(ctx context.Context, itemID string, agg models.RatingAggregate, ttl time.Duration) error
	Delete(ctx context.Context, itemID string) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection before
// returning the cache.
func NewRedisCache(addr, password string) (AggregateCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisCache{client: rdb}, nil
}

func cacheKey(itemID string) string {
	return "rating:agg:" + itemID
}

func (c *redisCache) Get(ctx context.Context, itemID string) (*models.RatingAggregate, error) {
	raw, err := c.client.Get(ctx, cacheKey(itemID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var agg models.RatingAggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

func (c *redisCache) Set(ctx context.Context, itemID string, agg models.RatingAggregate, ttl time.Duration) error {
	raw, err := json.Marshal(agg)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(itemID), raw, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, itemID string) error {
	return c.client.Del(ctx, cacheKey(itemID)).Err()
}
