package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	CartKey  = "cart"
	TokenKey = "token"
)

// RedisStore holds the persisted cart and the auth token under fixed keys,
// optionally prefixed by a namespace.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: namespace,
	}
}

func (s *RedisStore) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + ":" + name
}

func (s *RedisStore) get(ctx context.Context, name string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", s.key(name), err)
	}
	return value, true, nil
}

func (s *RedisStore) LoadCart(ctx context.Context) (string, bool, error) {
	return s.get(ctx, CartKey)
}

func (s *RedisStore) Token(ctx context.Context) (string, bool, error) {
	return s.get(ctx, TokenKey)
}

// SaveCart is used by the cart-building flow and test fixtures.
func (s *RedisStore) SaveCart(ctx context.Context, raw string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(CartKey), raw, ttl).Err()
}

func (s *RedisStore) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(TokenKey), token, ttl).Err()
}
