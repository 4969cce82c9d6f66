package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter はログイン失敗回数を数え、一定回数を超えたクライアントを締め出します。
type Limiter interface {
	// Check はロック中なら残り時間を返します。
	Check(ctx context.Context, key string) (time.Duration, error)
	// Fail は失敗を記録し、ロックまでの残り回数を返します。
	Fail(ctx context.Context, key string) (int, error)
	// Reset はログイン成功時に記録を消します。
	Reset(ctx context.Context, key string) error
}

const (
	attemptKeyPrefix = "login:attempts:"
	lockKeyPrefix    = "login:lock:"
)

// RedisLimiter は試行回数とロックを Redis に保存します。
// プロセス内に状態を持たないので複数インスタンスで共有できます。
type RedisLimiter struct {
	rdb         *redis.Client
	maxAttempts int
	window      time.Duration
	lock        time.Duration
}

// NewRedisLimiter は RedisLimiter を作成します。
func NewRedisLimiter(rdb *redis.Client, maxAttempts int, window, lock time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		window:      window,
		lock:        lock,
	}
}

func (l *RedisLimiter) Check(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	// キーが無い場合は負の値が返る
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (l *RedisLimiter) Fail(ctx context.Context, key string) (int, error) {
	attemptKey := attemptKeyPrefix + key
	// 期限付きで初期化してから加算する。INCR は TTL を保持する
	pipe := l.rdb.TxPipeline()
	pipe.SetNX(ctx, attemptKey, 0, l.window)
	incr := pipe.Incr(ctx, attemptKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count %s: %w", key, err)
	}
	count := incr.Val()

	if int(count) >= l.maxAttempts {
		lockPipe := l.rdb.TxPipeline()
		lockPipe.Set(ctx, lockKeyPrefix+key, "1", l.lock)
		lockPipe.Del(ctx, attemptKey)
		if _, err := lockPipe.Exec(ctx); err != nil {
			return 0, fmt.Errorf("lock %s: %w", key, err)
		}
		return 0, nil
	}
	return l.maxAttempts - int(count), nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, attemptKeyPrefix+key, lockKeyPrefix+key).Err()
}

// NopLimiter は制限を行いません。REDIS_URL が未設定の場合に使います。
type NopLimiter struct{}

func (NopLimiter) Check(context.Context, string) (time.Duration, error) { return 0, nil }
func (NopLimiter) Fail(context.Context, string) (int, error)            { return 1, nil }
func (NopLimiter) Reset(context.Context, string) error                  { return nil }
