package tokenredis

// Package tokenredis provides Redis-backed durable key-value storage
// for deployments where the client runs headless and local files are
// not durable (kiosks, remote shells).

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/webui-auth/internal/ports"
)

// Storage stores each key under prefix+key. Reads and writes use a
// bounded timeout so a slow Redis never blocks a session mutation.
type Storage struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

var (
	_ ports.TokenStorage    = (*Storage)(nil)
	_ ports.KeyValueStorage = (*Storage)(nil)
)

const (
	defaultPrefix  = "webui:"
	defaultTimeout = 2 * time.Second
	tokenKey       = "token"
)

// New creates a Redis storage with the default key prefix.
func New(client redis.UniversalClient) *Storage {
	return NewWithPrefix(client, defaultPrefix)
}

// NewWithPrefix creates a Redis storage with a custom key prefix.
func NewWithPrefix(client redis.UniversalClient, prefix string) *Storage {
	return &Storage{
		client:  client,
		prefix:  prefix,
		timeout: defaultTimeout,
	}
}

func (s *Storage) Load() (string, bool, error) {
	return s.Get(tokenKey)
}

func (s *Storage) Save(token string) error {
	return s.Set(tokenKey, token)
}

func (s *Storage) Clear() error {
	return s.Delete(tokenKey)
}

func (s *Storage) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *Storage) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *Storage) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+key).Err()
}
