// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"homebuyer-workers/internal/common/config"
)

// RedisClient holds the connection backing the evaluation result cache.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis returns nil when no address is configured, which disables caching.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	if cfg.Address == "" {
		return nil
	}
	return &RedisClient{
		Client: redis.NewClient(&redis.Options{
			Addr:         cfg.Address,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			PoolSize:     10,
			MinIdleConns: 2,
		}),
	}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Raw returns the underlying client, or nil when caching is disabled.
func (c *RedisClient) Raw() *redis.Client {
	if c == nil {
		return nil
	}
	return c.Client
}

func (c *RedisClient) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
