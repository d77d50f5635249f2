package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/internal/auth"
	"github.com/freeeve/age-of-conquest/internal/model"
	"github.com/freeeve/age-of-conquest/internal/service"
	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// MatchHandler handles the match command endpoints.
type MatchHandler struct {
	svc    *service.MatchService
	jwtMgr *auth.JWTManager
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(svc *service.MatchService, jwtMgr *auth.JWTManager) *MatchHandler {
	return &MatchHandler{svc: svc, jwtMgr: jwtMgr}
}

// CreateMatch handles POST /api/v1/matches. An empty body creates a match
// with the server defaults.
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req model.CreateMatchRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, state, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	token, err := h.jwtMgr.GenerateMatchToken(id, state.Player)
	if err != nil {
		log.Error().Err(err).Str("matchId", id).Msg("Failed to sign match token")
		_ = h.svc.End(r.Context(), id)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusCreated, model.MatchCreated{ID: id, Token: token, State: state})
}

// authorize checks that the bearer's token was issued for the match in the
// path, returning the match ID and the faction the bearer commands.
func authorize(w http.ResponseWriter, r *http.Request) (string, conquest.FactionID, bool) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing match token")
		return "", "", false
	}
	matchID := r.PathValue("id")
	if claims.MatchID != matchID {
		writeError(w, http.StatusForbidden, "token is not valid for this match")
		return "", "", false
	}
	return matchID, claims.Faction, true
}

// GetState handles GET /api/v1/matches/{id}
func (h *MatchHandler) GetState(w http.ResponseWriter, r *http.Request) {
	matchID, _, ok := authorize(w, r)
	if !ok {
		return
	}
	state, err := h.svc.State(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetInfo handles GET /api/v1/matches/{id}/info
func (h *MatchHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	matchID, _, ok := authorize(w, r)
	if !ok {
		return
	}
	info, err := h.svc.Info(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// SelectUnit handles GET /api/v1/matches/{id}/select?col=&row=
func (h *MatchHandler) SelectUnit(w http.ResponseWriter, r *http.Request) {
	matchID, _, ok := authorize(w, r)
	if !ok {
		return
	}
	col, err1 := strconv.Atoi(r.URL.Query().Get("col"))
	row, err2 := strconv.Atoi(r.URL.Query().Get("row"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "col and row must be integers")
		return
	}
	sel, err := h.svc.SelectUnit(r.Context(), matchID, conquest.Coord{Col: col, Row: row})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// Destinations handles GET /api/v1/matches/{id}/units/{unitId}/destinations
func (h *MatchHandler) Destinations(w http.ResponseWriter, r *http.Request) {
	matchID, _, ok := authorize(w, r)
	if !ok {
		return
	}
	unitID, err := strconv.Atoi(r.PathValue("unitId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unit id must be an integer")
		return
	}
	dests, err := h.svc.Destinations(r.Context(), matchID, conquest.UnitID(unitID))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if dests == nil {
		dests = []conquest.Coord{}
	}
	writeJSON(w, http.StatusOK, dests)
}

// Move handles POST /api/v1/matches/{id}/moves
func (h *MatchHandler) Move(w http.ResponseWriter, r *http.Request) {
	matchID, faction, ok := authorize(w, r)
	if !ok {
		return
	}
	var req model.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.Move(r.Context(), matchID, faction, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Purchase handles POST /api/v1/matches/{id}/purchases
func (h *MatchHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	matchID, faction, ok := authorize(w, r)
	if !ok {
		return
	}
	var req model.PurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.Purchase(r.Context(), matchID, faction, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Upgrade handles POST /api/v1/matches/{id}/upgrades
func (h *MatchHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	matchID, faction, ok := authorize(w, r)
	if !ok {
		return
	}
	var req model.UpgradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.Upgrade(r.Context(), matchID, faction, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AdvanceTurn handles POST /api/v1/matches/{id}/turn
func (h *MatchHandler) AdvanceTurn(w http.ResponseWriter, r *http.Request) {
	matchID, faction, ok := authorize(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.AdvanceTurn(r.Context(), matchID, faction)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// EndMatch handles DELETE /api/v1/matches/{id}
func (h *MatchHandler) EndMatch(w http.ResponseWriter, r *http.Request) {
	matchID, _, ok := authorize(w, r)
	if !ok {
		return
	}
	if err := h.svc.End(r.Context(), matchID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
