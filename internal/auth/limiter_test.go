package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const (
	testWindow = 15 * time.Minute
	testLock   = 10 * time.Minute
)

func newTestLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLimiter(rdb, 5, testWindow, testLock), mr
}

func TestRedisLimiterLocksAfterMaxAttempts(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for want := 4; want >= 0; want-- {
		remaining, err := l.Fail(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.Equal(t, want, remaining)
	}

	wait, err := l.Check(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Greater(t, wait, time.Duration(0))
	require.LessOrEqual(t, wait, testLock)

	// 他のクライアントには影響しない
	wait, err = l.Check(ctx, "10.0.0.2")
	require.NoError(t, err)
	require.Zero(t, wait)
}

func TestRedisLimiterAttemptsExpire(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	_, err := l.Fail(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, testWindow, mr.TTL(attemptKeyPrefix+"10.0.0.1"))

	// 2回目以降の失敗でも期限は延長されない
	mr.FastForward(time.Minute)
	_, err = l.Fail(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, testWindow-time.Minute, mr.TTL(attemptKeyPrefix+"10.0.0.1"))

	mr.FastForward(testWindow)
	require.False(t, mr.Exists(attemptKeyPrefix+"10.0.0.1"))

	remaining, err := l.Fail(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, 4, remaining)
}

func TestRedisLimiterLockExpires(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.Fail(ctx, "10.0.0.1")
		require.NoError(t, err)
	}
	require.False(t, mr.Exists(attemptKeyPrefix+"10.0.0.1"))

	mr.FastForward(testLock)
	wait, err := l.Check(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Zero(t, wait)
}

func TestRedisLimiterReset(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.Fail(ctx, "10.0.0.1")
		require.NoError(t, err)
	}
	_, err := l.Fail(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, mr.Exists(lockKeyPrefix+"10.0.0.1"))
	require.True(t, mr.Exists(attemptKeyPrefix+"10.0.0.1"))

	require.NoError(t, l.Reset(ctx, "10.0.0.1"))
	require.False(t, mr.Exists(lockKeyPrefix+"10.0.0.1"))
	require.False(t, mr.Exists(attemptKeyPrefix+"10.0.0.1"))

	wait, err := l.Check(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Zero(t, wait)

	remaining, err := l.Fail(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, 4, remaining)
}
