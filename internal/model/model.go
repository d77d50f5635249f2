// Package model holds the JSON shapes exchanged between the HTTP handlers,
// the match service and the bot client.
package model

import (
	"encoding/json"
	"time"

	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// CreateMatchRequest is the body of POST /api/v1/matches. Zero dimensions and
// an empty faction list fall back to the server defaults.
type CreateMatchRequest struct {
	Width     int                           `json:"width,omitempty"`
	Height    int                           `json:"height,omitempty"`
	CellSize  int                           `json:"cell_size,omitempty"`
	Factions  []conquest.FactionID          `json:"factions,omitempty"`
	Player    conquest.FactionID            `json:"player,omitempty"`
	Opponents map[conquest.FactionID]string `json:"opponents,omitempty"` // faction -> bot difficulty
	Rules     json.RawMessage               `json:"rules,omitempty"`     // partial rule set laid over the server defaults
}

// MatchCreated is returned once a match is live. Token authorises every
// other match route and the websocket.
type MatchCreated struct {
	ID    string            `json:"id"`
	Token string            `json:"token"`
	State conquest.Snapshot `json:"state"`
}

// Match describes a live match session.
type Match struct {
	ID         string             `json:"id"`
	Player     conquest.FactionID `json:"player"`
	Turn       int                `json:"turn"`
	Outcome    conquest.Outcome   `json:"outcome"`
	CreatedAt  time.Time          `json:"created_at"`
	LastActive time.Time          `json:"last_active"`
}

// MoveRequest orders a unit to a destination.
type MoveRequest struct {
	Unit conquest.UnitID `json:"unit"`
	To   conquest.Coord  `json:"to"`
}

// PurchaseRequest buys a unit of the given archetype.
type PurchaseRequest struct {
	Archetype conquest.Archetype `json:"archetype"`
}

// UpgradeRequest improves the territory at a coordinate.
type UpgradeRequest struct {
	At conquest.Coord `json:"at"`
}

// SelectResponse answers GET /matches/{id}/select.
type SelectResponse struct {
	Unit         *conquest.Unit   `json:"unit,omitempty"`
	Destinations []conquest.Coord `json:"destinations,omitempty"`
}

// TurnResult reports who holds control after a turn command.
type TurnResult struct {
	Active conquest.FactionID `json:"active"`
}

// CommandResponse is returned by every accepted mutating command: the
// command's own result, the journal entries it produced (including whole
// opponent turns) and the state afterwards.
type CommandResponse[T any] struct {
	Result T                 `json:"result"`
	Events []conquest.Event  `json:"events"`
	State  conquest.Snapshot `json:"state"`
}

// Rejection is the error body for a refused command.
type Rejection struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
