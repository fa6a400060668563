package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	goredis "github.com/redis/go-redis/v9"
)

// Noop is a Backend that stores nothing. Concurrent identical calls are
// still collapsed by the ResultCache.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (Noop) Set(context.Context, string, []byte) error { return nil }

// LRU is a bounded in-process Backend evicting the least recently used entry.
type LRU struct {
	cache *lru.Cache[string, []byte]
}

// NewLRU creates an LRU holding at most capacity entries.
func NewLRU(capacity int) (*LRU, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("lru capacity must be positive, got %d", capacity)
	}
	c, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &LRU{cache: c}, nil
}

// Get returns the entry and marks it recently used.
func (l *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.cache.Get(key)
	return v, ok, nil
}

// Set stores the entry, evicting the oldest one when full.
func (l *LRU) Set(_ context.Context, key string, value []byte) error {
	l.cache.Add(key, value)
	return nil
}

// Len returns the number of stored entries.
func (l *LRU) Len() int { return l.cache.Len() }

// Redis is a Backend shared between processes.
type Redis struct {
	rdb    goredis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis backend. Keys are prefixed with prefix.
// A zero ttl stores entries without expiry.
func NewRedis(rdb goredis.Cmdable, prefix string, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Get returns the entry stored under prefix+key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores the entry under prefix+key.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// RedisConfig holds the connection settings of the Redis backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

// Compile-time interface checks.
var (
	_ Backend = Noop{}
	_ Backend = (*LRU)(nil)
	_ Backend = (*Redis)(nil)
)
