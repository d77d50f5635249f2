package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long match keys live after their last write.
const DefaultTTL = time.Hour

// Client wraps the Redis client for live match state.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a Redis client from a connection URL. Keys it writes
// expire ttl after the last write; a non-positive ttl uses DefaultTTL.
func NewClient(redisURL string, ttl time.Duration) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewClientFromPool(rdb, ttl), nil
}

// NewClientFromPool wraps an existing redis.Client for use in tests.
func NewClientFromPool(rdb *redis.Client, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Client{rdb: rdb, ttl: ttl}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Underlying returns the raw redis client for pub/sub subscribers.
func (c *Client) Underlying() *redis.Client {
	return c.rdb
}
