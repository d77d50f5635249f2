package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// Event types sent over WebSocket.
const (
	EventConnected  = "connected"
	EventState      = "state"
	EventEvents     = "events"
	EventMatchEnded = "match_ended"
	EventError      = "error"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id"`
	Data    any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action string `json:"action"`
}

// ActionState asks the server to push a fresh snapshot.
const ActionState = "state"

// WSConn wraps a WebSocket connection with the match and faction its token
// grants.
type WSConn struct {
	conn    *websocket.Conn
	matchID string
	faction conquest.FactionID
	send    chan []byte
}

// Hub manages WebSocket connections and match-channel subscriptions.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	matches     map[string]map[*WSConn]bool // matchID -> set of connections
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		matches:     make(map[string]map[*WSConn]bool),
	}
}

// Register adds a connection to the hub and subscribes it to its match.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
	if h.matches[c.matchID] == nil {
		h.matches[c.matchID] = make(map[*WSConn]bool)
	}
	h.matches[c.matchID][c] = true
}

// Unregister removes a connection from the hub and its match channel.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	delete(h.connections, c)
	if conns, ok := h.matches[c.matchID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.matches, c.matchID)
		}
	}
	close(c.send)
}

// BroadcastToMatch sends an event to all connections watching a match.
func (h *Hub) BroadcastToMatch(matchID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("matchId", matchID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.matches[matchID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("faction", string(c.faction)).Str("matchId", matchID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// sendTo queues an event for one connection if it is still registered.
func (h *Hub) sendTo(c *WSConn, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("matchId", c.matchID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.connections[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// MatchSubscriberCount returns the number of connections watching a match.
func (h *Hub) MatchSubscriberCount(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.matches[matchID])
}
