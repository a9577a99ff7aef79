package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gigbook/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverRateLimiter prefers the shared primary and falls back to the local limiter
// while the primary is failing. The primary is retried once per recoveryInterval.
type FailoverRateLimiter struct {
	primary   domain.RateLimiter
	fallback  domain.RateLimiter
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimiter, logger *zerolog.Logger) *FailoverRateLimiter {
	return &FailoverRateLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() || r.shouldRetry() {
		allowed, err := r.primary.Allow(ctx, key, limit, window)
		if err == nil {
			if r.isDown.Swap(false) {
				r.logger.Info().Msg("Primary rate limiter recovered")
			}
			return allowed, nil
		}
		if !r.isDown.Swap(true) {
			r.logger.Error().Err(err).Msg("Primary rate limiter failed, falling back to memory")
		}
		r.markChecked()
	}

	return r.fallback.Allow(ctx, key, limit, window)
}

func (r *FailoverRateLimiter) shouldRetry() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Sub(r.lastCheck) > recoveryInterval
}

func (r *FailoverRateLimiter) markChecked() {
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
}
