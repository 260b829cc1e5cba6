package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/catalog/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cache",
	fx.Provide(NewProductListCache),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

// NewProductListCache uses Redis when REDIS_ADDR is set and process memory otherwise.
func NewProductListCache(p Params) ProductListCache {
	ttl := time.Duration(p.Config.CacheTTLSec) * time.Second
	if p.Config.RedisAddr == "" {
		p.Log.Info("product list cache using process memory")
		return NewMemoryProductListCache(ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Config.RedisAddr,
		Password: p.Config.RedisPassword,
		DB:       p.Config.RedisDB,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				p.Log.Warn("redis unreachable, list cache degraded", zap.String("addr", p.Config.RedisAddr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return NewRedisProductListCache(client, ttl, p.Log)
}
