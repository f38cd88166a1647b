package middlewares

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingLimiter struct{}

func (failingLimiter) CheckLimit(ctx context.Context, key string) (bool, error) {
	return false, errors.New("redis timeout")
}
func (failingLimiter) RecordFailure(ctx context.Context, key string) {}
func (failingLimiter) ResetFailures(ctx context.Context, key string) {}

func TestMemoryRateLimiter(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := limiter.CheckLimit(ctx, "worker")
		if err != nil || !ok {
			t.Fatalf("hit %d should pass: ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, err := limiter.CheckLimit(ctx, "worker")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("fourth hit in the window should be limited")
	}

	// A different key has its own window.
	if ok, _ := limiter.CheckLimit(ctx, "other"); !ok {
		t.Fatal("unrelated key should pass")
	}
}

func TestFallbackRateLimiterDegradesToLocal(t *testing.T) {
	ctx := context.Background()
	limiter := NewFallbackRateLimiter(failingLimiter{}, NewMemoryRateLimiter(1, time.Minute))

	if ok, err := limiter.CheckLimit(ctx, "k"); err != nil || !ok {
		t.Fatalf("first hit should pass via fallback: ok=%v err=%v", ok, err)
	}
	ok, err := limiter.CheckLimit(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("fallback limiter should enforce its own limit")
	}
}
