// Package redis owns the shared Redis connection used by the presence
// store. The rest of the code never touches connection setup.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client embeds the go-redis client so callers pass it straight to the
// stores that need one.
type Client struct {
	*redis.Client
}

// New connects to the Redis at url and verifies the connection with a
// ping. An empty url returns nil, meaning presence falls back to the
// in-process store.
func New(ctx context.Context, url string) (*Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	// Presence traffic is a handful of SADD/SREM per session; a small
	// pool with tight timeouts keeps a slow Redis from backing up joins.
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{Client: client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
