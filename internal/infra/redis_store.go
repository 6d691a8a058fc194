package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

const redisOpTimeout = 2 * time.Second

// RedisStore implements domain.Store on a locally running Redis.
// SET and RPUSH are atomic per command, which is all the two contexts need.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(addr, namespace string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  redisOpTimeout,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}

	if namespace == "" {
		namespace = "appgate"
	}
	return &RedisStore{client: client, namespace: namespace}, nil
}

func (s *RedisStore) key(k string) string {
	return s.namespace + ":" + k
}

// Get returns the value stored under key.
func (s *RedisStore) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set replaces the value.
func (s *RedisStore) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

// SetIfAbsent uses SETNX.
func (s *RedisStore) SetIfAbsent(key string, value []byte) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.SetNX(ctx, s.key(key), value, 0).Result()
}

// Remove deletes the key.
func (s *RedisStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.Del(ctx, s.key(key)).Err()
}

// Append pushes a record onto the log list.
func (s *RedisStore) Append(log string, record []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.RPush(ctx, s.key(log), record).Err()
}

// Entries returns the whole log list in append order.
func (s *RedisStore) Entries(log string) ([][]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	values, err := s.client.LRange(ctx, s.key(log), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	records := make([][]byte, len(values))
	for i, v := range values {
		records[i] = []byte(v)
	}
	return records, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements domain.Store.
var _ domain.Store = (*RedisStore)(nil)
