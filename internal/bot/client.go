package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/internal/model"
	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// WSEvent mirrors handler.WSEvent for client-side deserialization. Data is
// left encoded; its shape depends on Type.
type WSEvent struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id"`
	Data    json.RawMessage `json:"data"`
}

// APIError is a non-2xx response from the match API.
type APIError struct {
	Method    string
	Path      string
	Status    int
	Rejection model.Rejection
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Rejection.Error)
}

// Client is an HTTP+WebSocket client for one faction of one hosted match.
type Client struct {
	baseURL  string
	token    string
	matchID  string
	faction  conquest.FactionID
	wsConn   *websocket.Conn
	events   chan WSEvent
	httpC    *http.Client
	mu       sync.Mutex
	closedWS bool
}

// NewClient creates a new client targeting the given server URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		events:  make(chan WSEvent, 64),
		httpC:   &http.Client{Timeout: 30 * time.Second},
	}
}

// MatchID returns the match the client is attached to.
func (c *Client) MatchID() string { return c.matchID }

// Faction returns the faction the client commands.
func (c *Client) Faction() conquest.FactionID { return c.faction }

// CreateMatch starts a match and attaches the client to it.
func (c *Client) CreateMatch(ctx context.Context, req model.CreateMatchRequest) (*conquest.Snapshot, error) {
	var created model.MatchCreated
	if err := c.do(ctx, http.MethodPost, "/api/v1/matches", req, &created); err != nil {
		return nil, err
	}
	c.matchID, c.token, c.faction = created.ID, created.Token, created.State.Player
	log.Debug().Str("matchId", c.matchID).Str("faction", string(c.faction)).Msg("Match created")
	return &created.State, nil
}

// Attach points the client at an existing match using its token.
func (c *Client) Attach(matchID, token string, faction conquest.FactionID) {
	c.matchID, c.token, c.faction = matchID, token, faction
}

func (c *Client) matchPath(suffix string) string {
	return "/api/v1/matches/" + c.matchID + suffix
}

// State fetches the current snapshot.
func (c *Client) State(ctx context.Context) (*conquest.Snapshot, error) {
	var s conquest.Snapshot
	if err := c.do(ctx, http.MethodGet, c.matchPath(""), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Move orders a unit to a destination.
func (c *Client) Move(ctx context.Context, unit conquest.UnitID, to conquest.Coord) (*model.CommandResponse[conquest.MoveResult], error) {
	var resp model.CommandResponse[conquest.MoveResult]
	if err := c.do(ctx, http.MethodPost, c.matchPath("/moves"), model.MoveRequest{Unit: unit, To: to}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Purchase buys a unit.
func (c *Client) Purchase(ctx context.Context, a conquest.Archetype) (*model.CommandResponse[conquest.Unit], error) {
	var resp model.CommandResponse[conquest.Unit]
	if err := c.do(ctx, http.MethodPost, c.matchPath("/purchases"), model.PurchaseRequest{Archetype: a}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upgrade improves a territory.
func (c *Client) Upgrade(ctx context.Context, at conquest.Coord) (*model.CommandResponse[conquest.Territory], error) {
	var resp model.CommandResponse[conquest.Territory]
	if err := c.do(ctx, http.MethodPost, c.matchPath("/upgrades"), model.UpgradeRequest{At: at}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdvanceTurn ends the turn; the response carries every opponent turn.
func (c *Client) AdvanceTurn(ctx context.Context) (*model.CommandResponse[model.TurnResult], error) {
	var resp model.CommandResponse[model.TurnResult]
	if err := c.do(ctx, http.MethodPost, c.matchPath("/turn"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// End stops the match session on the server.
func (c *Client) End(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, c.matchPath(""), nil, nil)
}

// ConnectWS opens a WebSocket connection and starts listening for events.
func (c *Client) ConnectWS(ctx context.Context) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/v1/ws?token=" + url.QueryEscape(c.token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	c.wsConn = conn

	go c.readWSLoop()
	return nil
}

// RequestState asks the server to push a fresh snapshot over the socket.
func (c *Client) RequestState() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wsConn.WriteJSON(map[string]string{"action": "state"})
}

// Events returns the channel of incoming WebSocket events.
func (c *Client) Events() <-chan WSEvent { return c.events }

// CloseWS closes the WebSocket connection.
func (c *Client) CloseWS() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn != nil && !c.closedWS {
		c.closedWS = true
		c.wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wsConn.Close()
	}
}

// readWSLoop decodes frames into events. The server batches queued events
// into one frame, one JSON document per line.
func (c *Client) readWSLoop() {
	defer close(c.events)
	for {
		_, msg, err := c.wsConn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closedWS
			c.mu.Unlock()
			if !closed {
				log.Debug().Err(err).Str("matchId", c.matchID).Msg("WS read error")
			}
			return
		}
		for _, line := range bytes.Split(msg, []byte("\n")) {
			var event WSEvent
			if err := json.Unmarshal(line, &event); err != nil {
				continue
			}
			select {
			case c.events <- event:
			default:
				log.Debug().Str("type", event.Type).Msg("Event buffer full, dropping")
			}
		}
	}
}

// do sends a JSON request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpC.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
		if json.Unmarshal(data, &apiErr.Rejection) != nil || apiErr.Rejection.Error == "" {
			apiErr.Rejection.Error = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
