package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freekieb7/go-newsgate/internal/cache"
)

// Counter is the slice of the cache service a shared limiter needs.
type Counter interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string, dest any) error
	DeletePattern(ctx context.Context, pattern string) error
}

// CounterRateLimiter is a fixed-window limiter whose counts live in a shared
// store, so every replica behind a balancer enforces the same budget.
type CounterRateLimiter struct {
	counter Counter
	now     func() time.Time
}

func NewCounterRateLimiter(counter Counter) *CounterRateLimiter {
	return &CounterRateLimiter{counter: counter, now: time.Now}
}

func (rl *CounterRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return false, fmt.Errorf("invalid rate limit %d per %s", limit, window)
	}

	count, err := rl.counter.Increment(ctx, rl.windowKey(key, window), window)
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

func (rl *CounterRateLimiter) GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	var count int64
	err := rl.counter.Get(ctx, rl.windowKey(key, window), &count)
	if errors.Is(err, cache.ErrCacheMiss) {
		return limit, nil
	}
	if err != nil {
		return 0, err
	}
	return max(0, limit-int(count)), nil
}

func (rl *CounterRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.counter.DeletePattern(ctx, "ratelimit:"+key+"|*")
}

func (rl *CounterRateLimiter) windowKey(key string, window time.Duration) string {
	start := rl.now().Truncate(window).Unix()
	return fmt.Sprintf("ratelimit:%s|%s|%d", key, window, start)
}
