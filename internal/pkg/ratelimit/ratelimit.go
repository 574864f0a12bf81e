// Package ratelimit implements fixed-window request counting.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result is the outcome of one counted request
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts requests per key
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter shares counters between instances through redis INCR/EXPIRE
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a limiter backed by client
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "campusmesh:ratelimit:"}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now()
	start := now.Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, start.Unix())

	// the key is scoped to its window, so refreshing the expiry is harmless
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("error counting request: %w", err)
	}

	return result(int(incr.Val()), l.limit, start.Add(l.window).Sub(now)), nil
}

// MemoryLimiter keeps counters in process memory
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*bucket
}

type bucket struct {
	start time.Time
	count int
}

// NewMemoryLimiter creates an in-process limiter
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := now.Truncate(l.window)
	b, ok := l.buckets[key]
	if !ok || !b.start.Equal(start) {
		b = &bucket{start: start}
		l.buckets[key] = b
		l.evict(start)
	}
	b.count++

	return result(b.count, l.limit, start.Add(l.window).Sub(now)), nil
}

// evict drops buckets of past windows; must be called with mu held
func (l *MemoryLimiter) evict(current time.Time) {
	for k, b := range l.buckets {
		if b.start.Before(current) {
			delete(l.buckets, k)
		}
	}
}

func result(count, limit int, resetIn time.Duration) Result {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count <= limit, Remaining: remaining, ResetIn: resetIn}
}
