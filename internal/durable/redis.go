package durable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arguesurvey/internal/survey"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps snapshots under survey:<clientID>:<key>.
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend connects and pings the server.
func NewRedisBackend(addr, password string, db int) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisBackend{rdb: rdb}, nil
}

func (b *RedisBackend) For(clientID string) (survey.DurableStore, error) {
	if err := checkClientID(clientID); err != nil {
		return nil, err
	}
	return &redisStore{rdb: b.rdb, clientID: clientID}, nil
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}

func redisKey(clientID, key string) string {
	return fmt.Sprintf("survey:%s:%s", clientID, key)
}

type redisStore struct {
	rdb      *redis.Client
	clientID string
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, redisKey(s.clientID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, true, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, redisKey(s.clientID, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
