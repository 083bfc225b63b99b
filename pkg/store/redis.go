package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces map keys.
const DefaultRedisPrefix = "mindmap:"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string // defaults to localhost:6379
	Password string
	DB       int
	Prefix   string // defaults to DefaultRedisPrefix
}

// RedisStore keeps each map in a string key and the names in a set.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultRedisPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

func (s *RedisStore) key(name string) string { return s.prefix + "map:" + name }
func (s *RedisStore) index() string          { return s.prefix + "names" }

func (s *RedisStore) Save(ctx context.Context, name string, data []byte) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(name), data, 0)
		p.SAdd(ctx, s.index(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return data, nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.index()).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, s.key(name))
		p.SRem(ctx, s.index(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("del: %w", err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
