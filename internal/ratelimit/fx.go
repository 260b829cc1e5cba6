package ratelimit

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/catalog/internal/config"
	"github.com/smallbiznis/catalog/pkg/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewLoginLimiter),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
	Clock     clock.Clock
}

// NewLoginLimiter shares buckets through Redis when REDIS_ADDR is set.
func NewLoginLimiter(p Params) Limiter {
	perMin := p.Config.LoginRatePerMin
	if perMin <= 0 {
		perMin = 10
	}
	burst := p.Config.LoginRateBurst
	if burst <= 0 {
		burst = 5
	}
	perSecond := float64(perMin) / 60

	if p.Config.RedisAddr == "" {
		return NewLocal(perSecond, burst, p.Clock)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Config.RedisAddr,
		Password: p.Config.RedisPassword,
		DB:       p.Config.RedisDB,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	p.Log.Info("login rate limiter using redis", zap.String("addr", p.Config.RedisAddr))
	return NewTokenBucket(client, perSecond, burst)
}
