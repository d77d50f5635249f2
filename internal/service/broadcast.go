package service

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastMatchEvent(matchID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastMatchEvent(string, string, any) {}

// eventEnvelope is the form match events take on the Redis event channel.
type eventEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
