package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"syncvault/internal/platform/config"
)

// New creates a connected go-redis client from the provided configuration.
func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	// Apply configuration overrides
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout.Duration
	opts.ReadTimeout = cfg.ReadTimeout.Duration
	opts.WriteTimeout = cfg.WriteTimeout.Duration

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
