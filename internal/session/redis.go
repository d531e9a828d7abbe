package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jackrayallday/uniproj/internal/model"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis so multiple instances share one table.
// Keys expire with the session, which bounds memory without a sweep.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, sess model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+sess.TokenHash, data, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, tokenHash string) (model.Session, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, ErrNoSession
	}
	if err != nil {
		return model.Session{}, err
	}
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, tokenHash string) error {
	return s.client.Del(ctx, redisKeyPrefix+tokenHash).Err()
}
