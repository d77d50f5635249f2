package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// EventChannelPattern matches every match's event channel.
const EventChannelPattern = "match:*:events"

// Key patterns for Redis match state.
func stateKey(matchID string) string     { return "match:" + matchID + ":state" }
func eventChannel(matchID string) string { return "match:" + matchID + ":events" }

// MatchIDFromChannel extracts the match ID from an event channel name.
func MatchIDFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, "match:") || !strings.HasSuffix(channel, ":events") {
		return "", false
	}
	parts := strings.SplitN(channel, ":", 3)
	if len(parts) != 3 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// SetSnapshot stores the latest match snapshot, refreshing its TTL.
func (c *Client) SetSnapshot(ctx context.Context, matchID string, state json.RawMessage) error {
	if err := c.rdb.Set(ctx, stateKey(matchID), []byte(state), c.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the cached snapshot, or nil if it is absent or expired.
func (c *Client) GetSnapshot(ctx context.Context, matchID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return json.RawMessage(data), nil
}

// PublishEvent publishes a serialized event envelope on the match channel.
func (c *Client) PublishEvent(ctx context.Context, matchID string, event json.RawMessage) error {
	if err := c.rdb.Publish(ctx, eventChannel(matchID), []byte(event)).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// DeleteMatchData removes all Redis data for a match.
func (c *Client) DeleteMatchData(ctx context.Context, matchID string) error {
	return c.rdb.Del(ctx, stateKey(matchID)).Err()
}
