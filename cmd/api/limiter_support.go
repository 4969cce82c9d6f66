package main

import (
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/fm-kanban/internal/auth"
	"github.com/yourusername/fm-kanban/internal/config"
)

// setupLimiter は REDIS_URL が設定されていればログイン試行制限を Redis で構成します。
func setupLimiter(cfg *config.Config) (auth.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		return auth.NopLimiter{}, func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	redisClient := redis.NewClient(opt)
	limiter := auth.NewRedisLimiter(redisClient, cfg.LoginMaxAttempts, cfg.LoginWindow, cfg.LoginLock)
	return limiter, func() { _ = redisClient.Close() }, nil
}
