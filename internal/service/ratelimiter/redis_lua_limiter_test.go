package ratelimiter

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLuaLimiter(t *testing.T) (*RedisLuaLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLuaLimiter(rdb, nil), mr
}

func TestNewBucketConfigFromPerMinute(t *testing.T) {
	cfg := NewBucketConfigFromPerMinute(60)
	assert.Equal(t, int64(60), cfg.Capacity)
	assert.InDelta(t, 1.0, cfg.RefillRate, 1e-9)
	assert.Equal(t, BucketConfig{}, NewBucketConfigFromPerMinute(0))
}

func TestNewRedisLuaLimiter_NilClient(t *testing.T) {
	assert.Nil(t, NewRedisLuaLimiter(nil, nil))
}

func TestAllow_NilLimiter_FailOpen(t *testing.T) {
	var limiter *RedisLuaLimiter
	allowed, retryAfter, err := limiter.Allow(context.Background(), "any", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
	limiter.SetBucketConfig("k", BucketConfig{Capacity: 1, RefillRate: 1})
}

func TestAllow_NoBucketConfig_FailOpen(t *testing.T) {
	limiter, _ := newTestRedisLuaLimiter(t)
	allowed, retryAfter, err := limiter.Allow(context.Background(), "unknown", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}

func TestAllow_RespectsCapacityAndRetryAfter(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newTestRedisLuaLimiter(t)
	limiter.SetBucketConfig("gemini", BucketConfig{Capacity: 3, RefillRate: 0.5})

	for i := 0; i < 3; i++ {
		allowed, retryAfter, err := limiter.Allow(ctx, "gemini", 1)
		require.NoError(t, err)
		assert.True(t, allowed, "call %d", i)
		assert.Zero(t, retryAfter)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "gemini", 1)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, 2*time.Second)

	assert.True(t, mr.Exists("interview:ratelimit:gemini"))
	assert.Greater(t, mr.TTL("interview:ratelimit:gemini"), time.Duration(0))
}

func TestAllow_BucketsAreIndependent(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestRedisLuaLimiter(t)
	limiter.SetBucketConfig("a", BucketConfig{Capacity: 1, RefillRate: 0.001})
	limiter.SetBucketConfig("b", BucketConfig{Capacity: 1, RefillRate: 0.001})

	ok, _, _ := limiter.Allow(ctx, "a", 1)
	assert.True(t, ok)
	ok, _, _ = limiter.Allow(ctx, "a", 1)
	assert.False(t, ok)
	ok, _, _ = limiter.Allow(ctx, "b", 0)
	assert.True(t, ok)
}

func TestAllow_RedisDown_FailsOpenWithError(t *testing.T) {
	limiter, mr := newTestRedisLuaLimiter(t)
	limiter.SetBucketConfig("k", BucketConfig{Capacity: 1, RefillRate: 1})
	mr.Close()

	allowed, _, err := limiter.Allow(context.Background(), "k", 1)
	assert.Error(t, err)
	assert.True(t, allowed)
}

func TestToFloat64(t *testing.T) {
	assert.InDelta(t, 1.5, toFloat64("1.5"), 1e-9)
	assert.InDelta(t, 2.0, toFloat64(int64(2)), 1e-9)
	assert.True(t, toFloat64("x") != toFloat64("x"), "NaN for garbage")
	assert.Equal(t, int64(1), toInt64(int64(1)))
	assert.Equal(t, int64(0), toInt64("1"))
}
