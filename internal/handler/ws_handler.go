package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/internal/auth"
	"github.com/freeeve/age-of-conquest/internal/service"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub    *Hub
	svc    *service.MatchService
	jwtMgr *auth.JWTManager
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(hub *Hub, svc *service.MatchService, jwtMgr *auth.JWTManager) *WSHandler {
	return &WSHandler{hub: hub, svc: svc, jwtMgr: jwtMgr}
}

// ServeWS handles GET /api/v1/ws: upgrades to WebSocket and streams the
// token's match. Auth via ?token= query parameter (WebSocket can't send headers).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing token parameter")
		return
	}
	claims, err := h.jwtMgr.ValidateToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	// Resolve the match before upgrading so a stale token gets a plain 404.
	state, err := h.svc.State(r.Context(), claims.MatchID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("matchId", claims.MatchID).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSConn{
		conn:    conn,
		matchID: claims.MatchID,
		faction: claims.Faction,
		send:    make(chan []byte, sendBufSize),
	}
	h.hub.Register(client)

	// The welcome is followed by the current state so a client can render
	// without a separate request.
	h.hub.sendTo(client, WSEvent{Type: EventConnected, MatchID: claims.MatchID, Data: map[string]any{"faction": claims.Faction}})
	h.hub.sendTo(client, WSEvent{Type: EventState, MatchID: claims.MatchID, Data: state})

	go h.writePump(client)
	go h.readPump(client)

	log.Info().Str("matchId", claims.MatchID).Int("total", h.hub.ConnectionCount()).Msg("WebSocket client connected")
}

// readPump reads messages from the WebSocket connection.
func (h *WSHandler) readPump(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("matchId", c.matchID).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("matchId", c.matchID).Msg("WebSocket unexpected close")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.hub.sendTo(c, WSEvent{Type: EventError, MatchID: c.matchID, Data: map[string]string{"error": "malformed message"}})
			continue
		}
		switch msg.Action {
		case ActionState:
			h.pushState(c)
		default:
			log.Debug().Str("matchId", c.matchID).Str("action", msg.Action).Msg("Ignoring unknown WebSocket action")
		}
	}
}

func (h *WSHandler) pushState(c *WSConn) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	state, err := h.svc.State(ctx, c.matchID)
	if err != nil {
		h.hub.sendTo(c, WSEvent{Type: EventError, MatchID: c.matchID, Data: map[string]string{"error": err.Error()}})
		return
	}
	h.hub.sendTo(c, WSEvent{Type: EventState, MatchID: c.matchID, Data: state})
}

// writePump writes messages to the WebSocket connection, one JSON document
// per line.
func (h *WSHandler) writePump(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain queued messages into the same write
			n := len(c.send)
			for range n {
				w.Write([]byte("\n"))
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
