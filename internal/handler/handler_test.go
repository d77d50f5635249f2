package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/freeeve/age-of-conquest/internal/auth"
	"github.com/freeeve/age-of-conquest/internal/model"
	"github.com/freeeve/age-of-conquest/internal/service"
	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// testEnv is a full router backed by a real match service.
type testEnv struct {
	svc    *service.MatchService
	hub    *Hub
	jwtMgr *auth.JWTManager
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	settings := service.DefaultSettings()
	settings.Width, settings.Height = 300, 300
	settings.Opponent = "hold"
	settings.Rules.Seed = 5
	settings.Rules.TreasureChance = 0

	hub := NewHub()
	svc := service.NewMatchService(nil, hub, settings)
	t.Cleanup(svc.Shutdown)
	jwtMgr := auth.NewJWTManager("test-secret")
	router := NewRouter(NewMatchHandler(svc, jwtMgr), NewWSHandler(hub, svc, jwtMgr), jwtMgr, "*")
	return &testEnv{svc: svc, hub: hub, jwtMgr: jwtMgr, router: router}
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) create(t *testing.T) model.MatchCreated {
	t.Helper()
	rec := e.do(http.MethodPost, "/api/v1/matches", "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created model.MatchCreated
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return created
}

func decodeRejection(t *testing.T, rec *httptest.ResponseRecorder) model.Rejection {
	t.Helper()
	var rej model.Rejection
	if err := json.Unmarshal(rec.Body.Bytes(), &rej); err != nil {
		t.Fatalf("decode rejection: %v (%s)", err, rec.Body.String())
	}
	return rej
}

func TestCreateMatchIssuesToken(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t)

	if created.ID == "" || created.Token == "" {
		t.Fatalf("expected id and token, got %+v", created)
	}
	claims, err := env.jwtMgr.ValidateToken(created.Token)
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	if claims.MatchID != created.ID || claims.Faction != "country1" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if created.State.Cols != 10 || created.State.Player != "country1" {
		t.Errorf("unexpected initial state: cols=%d player=%s", created.State.Cols, created.State.Player)
	}
}

func TestCreateMatchRejectsBadBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/matches", "", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/v1/matches", "", `{"cell_size":-5}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid config, got %d", rec.Code)
	}
	if rej := decodeRejection(t, rec); rej.Reason != "invalid_config" {
		t.Errorf("expected invalid_config, got %q", rej.Reason)
	}
}

func TestMatchRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t)
	other := env.create(t)

	rec := env.do(http.MethodGet, "/api/v1/matches/"+created.ID, "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/api/v1/matches/"+created.ID, other.Token, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 with another match's token, got %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/api/v1/matches/"+created.ID, created.Token, "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with own token, got %d", rec.Code)
	}
}

func TestGetInfo(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t)

	rec := env.do(http.MethodGet, "/api/v1/matches/"+created.ID+"/info", created.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var info model.Match
	json.Unmarshal(rec.Body.Bytes(), &info)
	if info.ID != created.ID || info.Outcome != conquest.OutcomeRunning {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestSelectAndMove(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t)
	base := "/api/v1/matches/" + created.ID

	var unit conquest.Unit
	var dests []conquest.Coord
	for _, u := range created.State.Units {
		if u.Faction != "country1" {
			continue
		}
		rec := env.do(http.MethodGet, fmt.Sprintf("%s/select?col=%d&row=%d", base, u.Location.Col, u.Location.Row), created.Token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("select: expected 200, got %d", rec.Code)
		}
		var sel model.SelectResponse
		json.Unmarshal(rec.Body.Bytes(), &sel)
		if sel.Unit == nil || sel.Unit.ID != u.ID {
			t.Fatalf("select returned %+v for unit %d", sel.Unit, u.ID)
		}
		if len(sel.Destinations) > 0 {
			unit, dests = u, sel.Destinations
			break
		}
	}
	if unit.ID == 0 {
		t.Fatal("no movable player unit")
	}

	rec := env.do(http.MethodGet, fmt.Sprintf("%s/units/%d/destinations", base, unit.ID), created.Token, "")
	var listed []conquest.Coord
	json.Unmarshal(rec.Body.Bytes(), &listed)
	if len(listed) != len(dests) {
		t.Errorf("destinations endpoint returned %d, select returned %d", len(listed), len(dests))
	}

	body, _ := json.Marshal(model.MoveRequest{Unit: unit.ID, To: dests[0]})
	rec = env.do(http.MethodPost, base+"/moves", created.Token, string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("move: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp model.CommandResponse[conquest.MoveResult]
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Result.Unit != unit.ID || resp.Result.From != unit.Location || len(resp.Events) == 0 {
		t.Errorf("unexpected move response %+v", resp.Result)
	}
}

func TestRejectionStatuses(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t)
	base := "/api/v1/matches/" + created.ID

	var unit conquest.Unit
	for _, u := range created.State.Units {
		if u.Faction == "country1" {
			unit = u
			break
		}
	}
	farCol := unit.Location.Col + 5
	if farCol >= created.State.Cols {
		farCol = unit.Location.Col - 5
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		reason string
	}{
		{"move too far", http.MethodPost, base + "/moves",
			fmt.Sprintf(`{"unit":%d,"to":{"col":%d,"row":%d}}`, unit.ID, farCol, unit.Location.Row),
			http.StatusUnprocessableEntity, "illegal_move"},
		{"move off grid", http.MethodPost, base + "/moves",
			fmt.Sprintf(`{"unit":%d,"to":{"col":-1,"row":0}}`, unit.ID),
			http.StatusBadRequest, "invalid_selection"},
		{"unknown unit", http.MethodGet, base + "/units/999/destinations", "", http.StatusBadRequest, "invalid_selection"},
		{"too expensive", http.MethodPost, base + "/purchases", `{"archetype":"heavy"}`, http.StatusPaymentRequired, "insufficient_funds"},
		{"upgrade unowned", http.MethodPost, base + "/upgrades", `{"at":{"col":-3,"row":-3}}`, http.StatusBadRequest, "invalid_selection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Heavy costs more than the starting treasury once a light is bought.
			if tt.reason == "insufficient_funds" {
				env.do(http.MethodPost, base+"/purchases", created.Token, `{"archetype":"light"}`)
			}
			rec := env.do(tt.method, tt.path, created.Token, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if rej := decodeRejection(t, rec); rej.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, rej.Reason)
			}
		})
	}
}

func TestBadRequestBodies(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t)
	base := "/api/v1/matches/" + created.ID

	for _, path := range []string{"/moves", "/purchases", "/upgrades"} {
		rec := env.do(http.MethodPost, base+path, created.Token, "nope")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
	rec := env.do(http.MethodGet, base+"/select?col=a&row=1", created.Token, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("select: expected 400, got %d", rec.Code)
	}
	rec = env.do(http.MethodPost, base+"/purchases", created.Token, `{"archetype":"dragon"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown archetype: expected 400, got %d", rec.Code)
	}
}

func TestAdvanceTurnAndEnd(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t)
	base := "/api/v1/matches/" + created.ID

	rec := env.do(http.MethodPost, base+"/turn", created.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("turn: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp model.CommandResponse[model.TurnResult]
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Result.Active != "country1" || resp.State.Turn != created.State.Turn+3 {
		t.Errorf("unexpected turn result: active=%s turn=%d", resp.Result.Active, resp.State.Turn)
	}

	rec = env.do(http.MethodDelete, base, created.Token, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("end: expected 204, got %d", rec.Code)
	}
	rec = env.do(http.MethodGet, base, created.Token, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after end, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected healthz response %d %s", rec.Code, rec.Body.String())
	}
}
