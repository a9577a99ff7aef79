package repository

import (
	"context"
	"testing"
	"time"

	"gigbook/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimiter(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer Close(client)

	ctx := context.Background()
	require.NoError(t, Ping(ctx, client))

	limiter := NewRedisRateLimiter(client)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "hit %d", i+1)
	}

	allowed, err := limiter.Allow(ctx, "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Keys are independent.
	allowed, err = limiter.Allow(ctx, "user:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Greater(t, s.TTL("gigbook:rate_limit:user:1"), time.Duration(0))

	s.FastForward(2 * time.Minute)
	allowed, err = limiter.Allow(ctx, "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Down(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()
	s.Close()

	_, err = NewRedisRateLimiter(client).Allow(context.Background(), "k", 1, time.Second)
	assert.Error(t, err)

	_, err = NewRedisRateLimiter(nil).Allow(context.Background(), "k", 1, time.Second)
	assert.Error(t, err)
}
