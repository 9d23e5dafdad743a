package middleware

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// RateLimiter decides whether a keyed caller may make another request.
type RateLimiter interface {
	// Allow consumes one request for key and reports whether it was permitted.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// GetRemaining returns the number of requests key may still make.
	GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)

	// Reset clears the rate limit data for key.
	Reset(ctx context.Context, key string) error
}

// TokenBucket refills capacity tokens evenly over window.
type TokenBucket struct {
	tokens   int
	capacity int
	refillAt time.Time
	window   time.Duration
	now      func() time.Time
	mutex    sync.Mutex
}

func NewTokenBucket(capacity int, window time.Duration) *TokenBucket {
	return newTokenBucket(capacity, window, time.Now)
}

func newTokenBucket(capacity int, window time.Duration, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:   capacity,
		capacity: capacity,
		refillAt: now(),
		window:   window,
		now:      now,
	}
}

// Take attempts to take a token from the bucket
func (tb *TokenBucket) Take() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Tokens returns the current number of available tokens
func (tb *TokenBucket) Tokens() int {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	return tb.tokens
}

func (tb *TokenBucket) idleSince(now time.Time) time.Duration {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return now.Sub(tb.refillAt)
}

func (tb *TokenBucket) refill() {
	now := tb.now()

	if !now.Before(tb.refillAt.Add(tb.window)) {
		tb.tokens = tb.capacity
		tb.refillAt = now
		return
	}

	elapsed := now.Sub(tb.refillAt)
	tokensToAdd := int(elapsed.Nanoseconds() * int64(tb.capacity) / tb.window.Nanoseconds())
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.refillAt = now
	}
}

// InMemoryRateLimiter implements RateLimiter using in-memory token buckets
type InMemoryRateLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.Mutex
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewInMemoryRateLimiter creates a limiter whose idle buckets are swept every
// five minutes until Close is called.
func NewInMemoryRateLimiter() *InMemoryRateLimiter {
	rl := &InMemoryRateLimiter{
		buckets: make(map[string]*TokenBucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go rl.janitor(5 * time.Minute)

	return rl
}

func (rl *InMemoryRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return false, fmt.Errorf("invalid rate limit %d per %s", limit, window)
	}

	rl.mutex.Lock()
	bucket, exists := rl.buckets[bucketKey(key, limit, window)]
	if !exists {
		bucket = newTokenBucket(limit, window, rl.now)
		rl.buckets[bucketKey(key, limit, window)] = bucket
	}
	rl.mutex.Unlock()

	return bucket.Take(), nil
}

func (rl *InMemoryRateLimiter) GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	rl.mutex.Lock()
	bucket, exists := rl.buckets[bucketKey(key, limit, window)]
	rl.mutex.Unlock()

	if !exists {
		return limit, nil
	}
	return bucket.Tokens(), nil
}

// Reset removes every bucket held for key, whatever its limit and window.
func (rl *InMemoryRateLimiter) Reset(ctx context.Context, key string) error {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	prefix := key + "|"
	for k := range rl.buckets {
		if strings.HasPrefix(k, prefix) {
			delete(rl.buckets, k)
		}
	}
	return nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *InMemoryRateLimiter) Close() error {
	rl.once.Do(func() { close(rl.stop) })
	return nil
}

func (rl *InMemoryRateLimiter) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// cleanup drops buckets idle for more than two windows.
func (rl *InMemoryRateLimiter) cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, bucket := range rl.buckets {
		if bucket.idleSince(now) > bucket.window*2 {
			delete(rl.buckets, key)
		}
	}
}

func (rl *InMemoryRateLimiter) size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.buckets)
}

func bucketKey(key string, limit int, window time.Duration) string {
	return fmt.Sprintf("%s|%d|%s", key, limit, window)
}
