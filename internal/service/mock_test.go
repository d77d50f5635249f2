package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// mockCache implements repository.MatchCache for testing. Calls arrive from
// session goroutines, so every field is guarded.
type mockCache struct {
	mu         sync.Mutex
	states     map[string]json.RawMessage
	published  map[string][]eventEnvelopeJSON
	deleted    []string
	publishErr error
}

type eventEnvelopeJSON struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newMockCache() *mockCache {
	return &mockCache{
		states:    make(map[string]json.RawMessage),
		published: make(map[string][]eventEnvelopeJSON),
	}
}

func (c *mockCache) SetSnapshot(_ context.Context, matchID string, state json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[matchID] = state
	return nil
}

func (c *mockCache) GetSnapshot(_ context.Context, matchID string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[matchID], nil
}

func (c *mockCache) PublishEvent(_ context.Context, matchID string, event json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	var env eventEnvelopeJSON
	if err := json.Unmarshal(event, &env); err != nil {
		return errors.New("malformed envelope")
	}
	c.published[matchID] = append(c.published[matchID], env)
	return nil
}

func (c *mockCache) DeleteMatchData(_ context.Context, matchID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, matchID)
	c.deleted = append(c.deleted, matchID)
	return nil
}

func (c *mockCache) types(matchID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.published[matchID] {
		out = append(out, e.Type)
	}
	return out
}

func (c *mockCache) snapshot(matchID string) json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[matchID]
}

// mockBroadcaster records every local broadcast.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []broadcastCall
}

type broadcastCall struct {
	matchID   string
	eventType string
	data      any
}

func (b *mockBroadcaster) BroadcastMatchEvent(matchID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastCall{matchID, eventType, data})
}

func (b *mockBroadcaster) types(matchID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.events {
		if e.matchID == matchID {
			out = append(out, e.eventType)
		}
	}
	return out
}
