package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/internal/bot"
	"github.com/freeeve/age-of-conquest/internal/logger"
	"github.com/freeeve/age-of-conquest/internal/model"
	"github.com/freeeve/age-of-conquest/internal/repository"
	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// ErrMatchNotFound is returned for unknown or already ended match IDs.
var ErrMatchNotFound = errors.New("match not found")

// Settings are the values a create request falls back to.
type Settings struct {
	Width    int
	Height   int
	CellSize int
	Factions []conquest.FactionID
	Player   conquest.FactionID
	Opponent string // bot difficulty for factions the request leaves unset
	Rules    conquest.Rules
}

// DefaultSettings returns the standard 1000x700 board with three factions.
func DefaultSettings() Settings {
	return Settings{
		Width:    1000,
		Height:   700,
		CellSize: 30,
		Factions: []conquest.FactionID{"country1", "country2", "country3"},
		Player:   "country1",
		Opponent: "easy",
		Rules:    conquest.DefaultRules(),
	}
}

// MatchService hosts live matches. Each match runs behind its own command
// queue; the service only guards the registry.
type MatchService struct {
	mu       sync.RWMutex
	sessions map[string]*session

	cache       repository.MatchCache // nil disables caching and pub/sub
	broadcaster Broadcaster
	defaults    Settings
	now         func() time.Time
}

// NewMatchService creates a MatchService. cache may be nil.
func NewMatchService(cache repository.MatchCache, broadcaster Broadcaster, defaults Settings) *MatchService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &MatchService{
		sessions:    make(map[string]*session),
		cache:       cache,
		broadcaster: broadcaster,
		defaults:    defaults,
		now:         time.Now,
	}
}

// Create starts a new match and returns its ID with the initial state.
func (s *MatchService) Create(ctx context.Context, req model.CreateMatchRequest) (string, conquest.Snapshot, error) {
	cfg, err := s.matchConfig(req)
	if err != nil {
		return "", conquest.Snapshot{}, err
	}
	m, err := conquest.NewMatch(cfg)
	if err != nil {
		return "", conquest.Snapshot{}, err
	}
	for _, f := range cfg.Factions {
		if f == cfg.Player {
			continue
		}
		difficulty := req.Opponents[f]
		if difficulty == "" {
			difficulty = s.defaults.Opponent
		}
		if !slices.Contains(bot.Difficulties(), difficulty) {
			return "", conquest.Snapshot{}, fmt.Errorf("%w: unknown difficulty %q for %s", conquest.ErrInvalidConfig, difficulty, f)
		}
		if err := m.SetOpponent(f, bot.StrategyForDifficulty(difficulty)); err != nil {
			return "", conquest.Snapshot{}, err
		}
	}

	id := uuid.NewString()
	sess := newSession(id, m, s.now())
	events := m.DrainEvents()
	state := m.Snapshot()

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	go sess.run(s.onChange)

	l := logger.ForMatch(ctx, id)
	l.Info().Int("cols", state.Cols).Int("rows", state.Rows).
		Str("player", string(state.Player)).Str("generator", string(state.Rules.Generator)).
		Msg("Match created")
	s.onChange(id, events, state)
	return id, state, nil
}

// matchConfig resolves a create request against the defaults. Rule fields
// present in the request replace the default's; absent ones keep it.
func (s *MatchService) matchConfig(req model.CreateMatchRequest) (conquest.Config, error) {
	d := s.defaults
	cfg := conquest.Config{
		Width:    orDefault(req.Width, d.Width),
		Height:   orDefault(req.Height, d.Height),
		CellSize: orDefault(req.CellSize, d.CellSize),
		Factions: req.Factions,
		Player:   req.Player,
		Rules:    d.Rules,
	}
	if len(cfg.Factions) == 0 {
		cfg.Factions = slices.Clone(d.Factions)
	}
	if cfg.Player == "" {
		cfg.Player = d.Player
	}
	cfg.Rules.StartingUnits = slices.Clone(d.Rules.StartingUnits)
	if len(req.Rules) > 0 {
		if err := json.Unmarshal(req.Rules, &cfg.Rules); err != nil {
			return conquest.Config{}, fmt.Errorf("%w: rules: %v", conquest.ErrInvalidConfig, err)
		}
	}
	return cfg, nil
}

// orDefault returns v, or def when v is zero.
func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// Info describes a live match.
func (s *MatchService) Info(ctx context.Context, id string) (*model.Match, error) {
	state, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return &model.Match{
		ID:         id,
		Player:     sess.player,
		Turn:       state.Turn,
		Outcome:    state.Outcome,
		CreatedAt:  sess.createdAt,
		LastActive: sess.idleSince(),
	}, nil
}

// State returns the current snapshot of a match.
func (s *MatchService) State(ctx context.Context, id string) (conquest.Snapshot, error) {
	r, err := s.do(ctx, id, false, func(*conquest.Match) (any, error) { return nil, nil })
	if err != nil {
		return conquest.Snapshot{}, err
	}
	return r.state, nil
}

// SelectUnit returns the unit garrisoning c, if any, with its legal destinations.
func (s *MatchService) SelectUnit(ctx context.Context, id string, c conquest.Coord) (*model.SelectResponse, error) {
	r, err := s.do(ctx, id, false, func(m *conquest.Match) (any, error) {
		u, ok := m.SelectUnitAt(c)
		if !ok {
			return &model.SelectResponse{}, nil
		}
		return &model.SelectResponse{Unit: &u, Destinations: m.LegalDestinations(u.ID)}, nil
	})
	if err != nil {
		return nil, err
	}
	return r.result.(*model.SelectResponse), nil
}

// Destinations lists where a unit may currently move.
func (s *MatchService) Destinations(ctx context.Context, id string, unit conquest.UnitID) ([]conquest.Coord, error) {
	r, err := s.do(ctx, id, false, func(m *conquest.Match) (any, error) {
		if _, ok := m.Unit(unit); !ok {
			return nil, fmt.Errorf("%w: no unit %d", conquest.ErrInvalidSelection, unit)
		}
		return m.LegalDestinations(unit), nil
	})
	if err != nil {
		return nil, err
	}
	return r.result.([]conquest.Coord), nil
}

// Move orders one of the caller's units to a destination.
func (s *MatchService) Move(ctx context.Context, id string, faction conquest.FactionID, req model.MoveRequest) (*model.CommandResponse[conquest.MoveResult], error) {
	return execute(ctx, s, id, func(m *conquest.Match) (conquest.MoveResult, error) {
		if u, ok := m.Unit(req.Unit); ok && u.Faction != faction {
			return conquest.MoveResult{}, &conquest.RejectedError{
				Reason: conquest.ErrInvalidSelection,
				Detail: fmt.Sprintf("unit %d does not belong to %q", req.Unit, faction),
			}
		}
		return m.RequestMove(req.Unit, req.To)
	})
}

// Purchase buys a unit for the caller's faction.
func (s *MatchService) Purchase(ctx context.Context, id string, faction conquest.FactionID, req model.PurchaseRequest) (*model.CommandResponse[conquest.Unit], error) {
	return execute(ctx, s, id, func(m *conquest.Match) (conquest.Unit, error) {
		return m.RequestPurchaseUnit(faction, req.Archetype)
	})
}

// Upgrade improves one of the caller's territories.
func (s *MatchService) Upgrade(ctx context.Context, id string, faction conquest.FactionID, req model.UpgradeRequest) (*model.CommandResponse[conquest.Territory], error) {
	return execute(ctx, s, id, func(m *conquest.Match) (conquest.Territory, error) {
		return m.RequestUpgrade(req.At, faction)
	})
}

// AdvanceTurn ends the caller's turn and plays every opponent turn that
// follows. The response journal carries those turns in order.
func (s *MatchService) AdvanceTurn(ctx context.Context, id string, faction conquest.FactionID) (*model.CommandResponse[model.TurnResult], error) {
	return execute(ctx, s, id, func(m *conquest.Match) (model.TurnResult, error) {
		if m.Outcome() == conquest.OutcomeRunning && m.Active() != faction {
			return model.TurnResult{Active: m.Active()}, &conquest.RejectedError{
				Reason: conquest.ErrInvalidSelection,
				Detail: fmt.Sprintf("%q is not the active faction", faction),
			}
		}
		active, err := m.AdvanceTurn()
		return model.TurnResult{Active: active}, err
	})
}

// End stops a match session and drops its cached state.
func (s *MatchService) End(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrMatchNotFound
	}
	sess.close()

	if s.cache != nil {
		if err := s.cache.DeleteMatchData(ctx, id); err != nil {
			log.Warn().Err(err).Str("matchId", id).Msg("Failed to delete cached match")
		}
	}
	s.publish(ctx, id, "match_ended", map[string]string{"matchId": id})
	l := logger.ForMatch(ctx, id)
	l.Info().Msg("Match ended")
	return nil
}

// ReapIdle ends every match whose last command is older than cutoff and
// returns how many were ended.
func (s *MatchService) ReapIdle(ctx context.Context, cutoff time.Time) int {
	s.mu.RLock()
	var idle []string
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()

	n := 0
	for _, id := range idle {
		if err := s.End(ctx, id); err == nil {
			n++
		}
	}
	return n
}

// Count returns the number of live matches.
func (s *MatchService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown stops every session goroutine.
func (s *MatchService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.close()
		delete(s.sessions, id)
	}
}

func (s *MatchService) session(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return sess, nil
}

// do queues fn on the match's command queue and waits for its reply.
func (s *MatchService) do(ctx context.Context, id string, mutates bool, fn func(*conquest.Match) (any, error)) (commandReply, error) {
	sess, err := s.session(id)
	if err != nil {
		return commandReply{}, err
	}
	cmd := command{run: fn, mutates: mutates, reply: make(chan commandReply, 1)}
	select {
	case sess.cmds <- cmd:
	case <-sess.done:
		return commandReply{}, ErrMatchNotFound
	case <-ctx.Done():
		return commandReply{}, ctx.Err()
	}
	sess.touch(s.now())

	select {
	case r := <-cmd.reply:
		return r, r.err
	case <-ctx.Done():
		return commandReply{}, ctx.Err()
	}
}

// execute runs a mutating command and packages its typed result with the
// journal it produced.
func execute[T any](ctx context.Context, s *MatchService, id string, fn func(*conquest.Match) (T, error)) (*model.CommandResponse[T], error) {
	r, err := s.do(ctx, id, true, func(m *conquest.Match) (any, error) { return fn(m) })
	l := logger.ForMatch(ctx, id)
	if err != nil {
		l.Debug().Err(err).Msg("Command rejected")
		return nil, err
	}
	l.Debug().Int("events", len(r.events)).Int("turn", r.state.Turn).Msg("Command accepted")
	events := r.events
	if events == nil {
		events = []conquest.Event{}
	}
	return &model.CommandResponse[T]{Result: r.result.(T), Events: events, State: r.state}, nil
}

// onChange caches the new state and fans out the command's journal.
func (s *MatchService) onChange(id string, events []conquest.Event, state conquest.Snapshot) {
	ctx := context.Background()
	if s.cache != nil {
		if data, err := json.Marshal(state); err != nil {
			log.Error().Err(err).Str("matchId", id).Msg("Failed to marshal snapshot")
		} else if err := s.cache.SetSnapshot(ctx, id, data); err != nil {
			log.Warn().Err(err).Str("matchId", id).Msg("Failed to cache snapshot")
		}
	}
	if len(events) > 0 {
		s.publish(ctx, id, "events", events)
	}
	s.publish(ctx, id, "state", state)
	if state.Outcome != conquest.OutcomeRunning && concluded(events) {
		log.Info().Str("matchId", id).Str("outcome", string(state.Outcome)).Msg("Match concluded")
	}
}

func concluded(events []conquest.Event) bool {
	return slices.ContainsFunc(events, func(e conquest.Event) bool {
		return e.Type == conquest.EventMatchConcluded
	})
}

// publish sends an event through Redis pub/sub when a cache is configured so
// every server instance relays it; otherwise, or if publishing fails, it is
// broadcast locally.
func (s *MatchService) publish(ctx context.Context, id, eventType string, data any) {
	if s.cache != nil {
		payload, err := json.Marshal(eventEnvelope{Type: eventType, Data: data})
		if err == nil {
			if err = s.cache.PublishEvent(ctx, id, payload); err == nil {
				return
			}
		}
		log.Warn().Err(err).Str("matchId", id).Str("type", eventType).Msg("Publish failed, broadcasting locally")
	}
	s.broadcaster.BroadcastMatchEvent(id, eventType, data)
}
