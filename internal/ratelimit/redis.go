package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "login_attempts:"

// RedisLimiter counts attempts in Redis so the window survives restarts and
// is shared between instances. The counter key expires with the window.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
}

func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg}
}

func (l *RedisLimiter) Admit(ctx context.Context, key string) (bool, error) {
	redisKey := redisKeyPrefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.cfg.Window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.cfg.MaxAttempts), nil
}
