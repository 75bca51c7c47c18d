package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares cached reads and the data version between service replicas.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// DialRedis connects to cfg.RedisAddr and checks the connection.
func DialRedis(ctx context.Context, cfg Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return NewRedis(client, cfg), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, cfg Config) *Redis {
	return &Redis{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}
}

func (r *Redis) versionKey() string {
	return r.prefix + "version"
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, r.ttl).Err()
}

func (r *Redis) Version(ctx context.Context) (uint64, error) {
	v, err := r.client.Get(ctx, r.versionKey()).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *Redis) Bump(ctx context.Context) (uint64, error) {
	v, err := r.client.Incr(ctx, r.versionKey()).Uint64()
	if err != nil {
		return 0, fmt.Errorf("failed to bump cache version: %w", err)
	}
	return v, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
