package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestTokenBucketDeniesAfterBurst(t *testing.T) {
	bucket := NewTokenBucket(newTestClient(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := bucket.Allow(ctx, "k", 0.01, 3)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := bucket.Allow(ctx, "k", 0.01, 3)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	other, err := bucket.Allow(ctx, "other", 0.01, 3)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "buckets are per key")
}

func TestTokenBucketValidatesInput(t *testing.T) {
	bucket := NewTokenBucket(newTestClient(t))
	ctx := context.Background()

	_, err := bucket.Allow(ctx, "", 1, 1)
	assert.Error(t, err)
	_, err = bucket.Allow(ctx, "k", 0, 1)
	assert.Error(t, err)
	_, err = bucket.Allow(ctx, "k", 1, 0)
	assert.Error(t, err)

	var nilBucket *TokenBucket
	_, err = nilBucket.Allow(ctx, "k", 1, 1)
	assert.Error(t, err)
}

func TestAuthLimiterUsesHolderLimits(t *testing.T) {
	holder, err := config.NewRateLimitHolder(config.Config{
		RateLimit: config.RateLimitConfig{AuthRate: 0.01, AuthBurst: 1},
	}, zap.NewNop())
	require.NoError(t, err)

	limiter := NewAuthLimiterWithClient(newTestClient(t), holder)
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "/api/auth/login", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "/api/auth/login", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = limiter.Allow(ctx, "/api/auth/login", "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestDisabledLimiterAllows(t *testing.T) {
	var limiter *AuthLimiter
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "/api/auth/login", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
