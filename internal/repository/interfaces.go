package repository

import (
	"context"
	"encoding/json"
)

// MatchCache defines live match state operations (Redis). Entries expire on
// their own; nothing is read back to restore a match after a restart.
type MatchCache interface {
	SetSnapshot(ctx context.Context, matchID string, state json.RawMessage) error
	GetSnapshot(ctx context.Context, matchID string) (json.RawMessage, error)
	// PublishEvent fans a serialized event envelope out to every subscriber
	// of the match's event channel.
	PublishEvent(ctx context.Context, matchID string, event json.RawMessage) error
	DeleteMatchData(ctx context.Context, matchID string) error
}
