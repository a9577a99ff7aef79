package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryRateLimiter keeps one token bucket per key in process memory.
// The bucket refills limit tokens per window and bursts up to limit.
type MemoryRateLimiter struct {
	limiters sync.Map
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{}
}

func (r *MemoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return false, nil
	}
	return r.getLimiter(key, limit, window).Allow(), nil
}

func (r *MemoryRateLimiter) getLimiter(key string, limit int, window time.Duration) *rate.Limiter {
	k := fmt.Sprintf("%s|%d|%s", key, limit, window)
	if v, ok := r.limiters.Load(k); ok {
		return v.(*rate.Limiter)
	}

	lim := rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
	actual, _ := r.limiters.LoadOrStore(k, lim)
	return actual.(*rate.Limiter)
}
