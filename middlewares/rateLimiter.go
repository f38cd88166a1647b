package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qws941/safetywallet-sub003/config"
)

// RateLimiter is the check/record interface the submission routes consume.
// CheckLimit returns false when the caller has used up the window.
type RateLimiter interface {
	CheckLimit(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string)
	ResetFailures(ctx context.Context, key string)
}

var errRedisUnavailable = errors.New("redis unavailable")

// redisRateLimiter counts hits in a fixed redis window shared across
// instances.
type redisRateLimiter struct {
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(limit int, window time.Duration) RateLimiter {
	return &redisRateLimiter{limit: limit, window: window}
}

func (r *redisRateLimiter) CheckLimit(ctx context.Context, key string) (bool, error) {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return false, errRedisUnavailable
	}
	counterKey := "rate:" + key
	n, err := rdb.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		rdb.Expire(ctx, counterKey, r.window)
	}
	return n <= int64(r.limit), nil
}

func (r *redisRateLimiter) RecordFailure(ctx context.Context, key string) {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return
	}
	failKey := "ratefail:" + key
	if n, err := rdb.Incr(ctx, failKey).Result(); err == nil && n == 1 {
		rdb.Expire(ctx, failKey, r.window)
	}
}

func (r *redisRateLimiter) ResetFailures(ctx context.Context, key string) {
	if rdb := config.GetRedisDB(); rdb != nil {
		rdb.Del(ctx, "ratefail:"+key)
	}
}

// memoryRateLimiter is the per-instance fallback used when redis reads fail.
// Each instance counts independently, so the effective global limit is at
// most instances * limit.
type memoryRateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	hits     map[string]*windowCount
	failures map[string]int
}

type windowCount struct {
	start time.Time
	count int
}

func NewMemoryRateLimiter(limit int, window time.Duration) RateLimiter {
	return &memoryRateLimiter{
		limit:    limit,
		window:   window,
		hits:     map[string]*windowCount{},
		failures: map[string]int{},
	}
}

func (m *memoryRateLimiter) CheckLimit(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	w, ok := m.hits[key]
	if !ok || now.Sub(w.start) >= m.window {
		m.hits[key] = &windowCount{start: now, count: 1}
		return true, nil
	}
	w.count++
	return w.count <= m.limit, nil
}

func (m *memoryRateLimiter) RecordFailure(ctx context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key]++
}

func (m *memoryRateLimiter) ResetFailures(ctx context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, key)
}

// fallbackRateLimiter prefers the shared limiter and degrades to the local
// one on error, never blocking the request on limiter availability.
type fallbackRateLimiter struct {
	primary  RateLimiter
	fallback RateLimiter
}

func NewFallbackRateLimiter(primary, fallback RateLimiter) RateLimiter {
	return &fallbackRateLimiter{primary: primary, fallback: fallback}
}

func (f *fallbackRateLimiter) CheckLimit(ctx context.Context, key string) (bool, error) {
	ok, err := f.primary.CheckLimit(ctx, key)
	if err != nil {
		return f.fallback.CheckLimit(ctx, key)
	}
	return ok, nil
}

func (f *fallbackRateLimiter) RecordFailure(ctx context.Context, key string) {
	f.primary.RecordFailure(ctx, key)
}

func (f *fallbackRateLimiter) ResetFailures(ctx context.Context, key string) {
	f.primary.ResetFailures(ctx, key)
}

// RateLimitMiddleware keys on client IP and route. Disabled instances (flag
// off) skip the check entirely.
func RateLimitMiddleware(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.RateLimitEnabled() {
			c.Next()
			return
		}
		key := fmt.Sprintf("%s:%s", c.ClientIP(), c.FullPath())
		ok, err := limiter.CheckLimit(c.Request.Context(), key)
		if err != nil {
			config.LogError(config.GetLogger(), "rateLimiter.go", "RateLimitMiddleware", "CheckLimit", key, err)
			c.Next()
			return
		}
		if !ok {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
