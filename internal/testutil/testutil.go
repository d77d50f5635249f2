// Package testutil provides helpers for integration tests that run against
// a real Redis instance. Those tests are skipped unless REDIS_TEST_URL is set.
package testutil

import (
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

// SetupRedis connects to the test Redis named by REDIS_TEST_URL, skipping the
// test when it is unset, and registers cleanup.
func SetupRedis(t *testing.T) *redis.Client {
	t.Helper()

	redisURL := os.Getenv("REDIS_TEST_URL")
	if redisURL == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis URL: %v", err)
	}
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })

	if err := rdb.Ping(t.Context()).Err(); err != nil {
		t.Fatalf("ping test redis: %v", err)
	}
	CleanupRedis(t, rdb)
	return rdb
}

// CleanupRedis flushes the test Redis database between tests.
func CleanupRedis(t *testing.T, rdb *redis.Client) {
	t.Helper()
	if err := rdb.FlushDB(t.Context()).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
}
