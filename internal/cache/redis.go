package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisProductListCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisProductListCache(client *redis.Client, ttl time.Duration, log *zap.Logger) ProductListCache {
	if ttl <= 0 {
		ttl = defaultProductListTTL
	}
	return &redisProductListCache{
		client: client,
		ttl:    ttl,
		log:    log.Named("cache.products"),
	}
}

func (c *redisProductListCache) Get(ctx context.Context, key ListKey) ([]byte, int64, bool) {
	version, err := c.version(ctx)
	if err != nil {
		c.log.Debug("cache version unavailable", zap.Error(err))
		return nil, 0, false
	}

	payload, err := c.client.Get(ctx, listCacheKey(version, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", zap.Error(err))
		}
		return nil, version, false
	}
	return payload, version, true
}

// Set writes under the version returned by Get, even if it has been retired
// since. Retired versions are never read and expire with the ttl.
func (c *redisProductListCache) Set(ctx context.Context, version int64, key ListKey, payload []byte) {
	if version <= 0 {
		return
	}
	if err := c.client.Set(ctx, listCacheKey(version, key), payload, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.Error(err))
	}
}

func (c *redisProductListCache) Invalidate(ctx context.Context) error {
	version, err := c.client.Incr(ctx, productListVersionKey).Result()
	if err != nil {
		return fmt.Errorf("invalidate product list cache: %w", err)
	}
	c.log.Debug("product list cache invalidated", zap.Int64("version", version))
	return nil
}

func (c *redisProductListCache) Backend() string { return "redis" }

// version returns the current list version, seeding it to 1 on first use.
func (c *redisProductListCache) version(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, productListVersionKey).Int64()
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, err
	}
	if err := c.client.SetNX(ctx, productListVersionKey, 1, 0).Err(); err != nil {
		return 0, err
	}
	return c.client.Get(ctx, productListVersionKey).Int64()
}
