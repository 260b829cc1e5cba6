// Package ratelimit throttles login attempts per client key.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/catalog/pkg/clock"
	"golang.org/x/time/rate"
)

const keyPrefix = "catalog:ratelimit:"

type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Local keeps one token bucket per key in process memory.
type Local struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	clock   clock.Clock
}

func NewLocal(perSecond float64, burst int, clk clock.Clock) *Local {
	if clk == nil {
		clk = clock.System{}
	}
	return &Local{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clock:   clk,
	}
}

func (l *Local) Allow(_ context.Context, key string) (Result, error) {
	now := l.clock.Now()
	lim := l.limiter(key)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return Result{Allowed: false}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Result{Allowed: false, RetryAfter: delay}, nil
	}
	return Result{Allowed: true, Remaining: int(lim.TokensAt(now))}, nil
}

func (l *Local) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.buckets[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.buckets[key] = lim
	return lim
}
