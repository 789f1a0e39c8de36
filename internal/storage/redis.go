package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisOptions holds the connection parameters of a Redis server
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisClient is a KVClient backed by plain Redis strings
type RedisClient struct {
	rdb *redis.Client
}

// NewRedisClient creates a client for the given server. No connection is made until the first command.
func NewRedisClient(opts RedisOptions) *RedisClient {
	return &RedisClient{
		rdb: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

// Method Get is a KVClient implementation for reading a key with GET.
func (c *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Method Set is a KVClient implementation for writing a key with SET and no expiry.
func (c *RedisClient) Set(ctx context.Context, key string, value string) error {
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Method Ping is a KVClient implementation for checking the Redis connection.
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Method Close is a KVClient implementation for closing the connection pool.
func (c *RedisClient) Close() error {
	return c.rdb.Close()
}
