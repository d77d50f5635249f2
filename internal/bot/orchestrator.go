package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/internal/model"
	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// Orchestrator plays the player faction of a hosted match through a Client,
// using the same destination scoring as the tactical strategy but working
// only from snapshots the server returns.
type Orchestrator struct {
	client   *Client
	maxTurns int
}

// NewOrchestrator creates an Orchestrator. maxTurns caps how many of its own
// turns it plays before ending the match; zero means no cap.
func NewOrchestrator(client *Client, maxTurns int) *Orchestrator {
	return &Orchestrator{client: client, maxTurns: maxTurns}
}

// Result summarises a finished run.
type Result struct {
	MatchID     string
	Outcome     conquest.Outcome
	Turns       int // own turns played
	Territories int
	Treasury    int
}

// Run creates a match, plays it until it concludes, the turn cap is hit or
// ctx is cancelled, then ends the session.
func (o *Orchestrator) Run(ctx context.Context, req model.CreateMatchRequest) (*Result, error) {
	state, err := o.client.CreateMatch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	log.Info().Str("matchId", o.client.MatchID()).Str("faction", string(o.client.Faction())).
		Int("cols", state.Cols).Int("rows", state.Rows).Msg("Match created")

	if err := o.client.ConnectWS(ctx); err != nil {
		log.Warn().Err(err).Msg("WebSocket unavailable, playing without event stream")
	} else {
		defer o.client.CloseWS()
		go o.watch(ctx)
	}
	defer func() {
		if err := o.client.End(context.Background()); err != nil {
			log.Debug().Err(err).Msg("End match")
		}
	}()

	res := &Result{MatchID: o.client.MatchID()}
	for state.Outcome == conquest.OutcomeRunning {
		if o.maxTurns > 0 && res.Turns >= o.maxTurns {
			log.Info().Int("turns", res.Turns).Msg("Turn cap reached")
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		state, err = o.playTurn(ctx, state)
		if err != nil {
			return res, err
		}
		res.Turns++
		o.summarise(res, state)
		log.Info().Int("turn", state.Turn).Int("territories", res.Territories).
			Int("treasury", res.Treasury).Str("outcome", string(state.Outcome)).Msg("Turn played")
	}
	o.summarise(res, state)
	return res, nil
}

func (o *Orchestrator) summarise(res *Result, s *conquest.Snapshot) {
	f := o.client.Faction()
	res.Outcome = s.Outcome
	res.Treasury = s.Treasuries[f]
	res.Territories = 0
	for _, tv := range s.Territories {
		if tv.Owner == f {
			res.Territories++
		}
	}
}

// playTurn spends, moves every unit and ends the turn.
func (o *Orchestrator) playTurn(ctx context.Context, state *conquest.Snapshot) (*conquest.Snapshot, error) {
	f := o.client.Faction()
	state, err := o.spend(ctx, state)
	if err != nil {
		return nil, err
	}

	for _, u := range unitsOf(state, f) {
		for state.Outcome == conquest.OutcomeRunning {
			cur, alive := unitByID(state, u.ID)
			if !alive {
				break
			}
			dest, ok := bestDestination(newSnapshotBoard(state), cur)
			if !ok {
				break
			}
			resp, err := o.client.Move(ctx, cur.ID, dest)
			if err != nil {
				if isRejection(err) {
					log.Debug().Err(err).Int("unit", int(cur.ID)).Msg("Move rejected")
					break
				}
				return nil, err
			}
			state = &resp.State
			if !resp.Result.Moved {
				break
			}
		}
	}
	if state.Outcome != conquest.OutcomeRunning {
		return state, nil
	}

	resp, err := o.client.AdvanceTurn(ctx)
	if err != nil {
		return nil, fmt.Errorf("advance turn: %w", err)
	}
	log.Debug().Int("events", len(resp.Events)).Str("active", string(resp.Result.Active)).Msg("Opponents played")
	return &resp.State, nil
}

// spend buys units until the faction fields one per three territories.
func (o *Orchestrator) spend(ctx context.Context, state *conquest.Snapshot) (*conquest.Snapshot, error) {
	f := o.client.Faction()
	owned := 0
	for _, tv := range state.Territories {
		if tv.Owner == f {
			owned++
		}
	}
	for len(unitsOf(state, f)) < unitTarget(owned) {
		a, ok := pickArchetype(state.Treasuries[f])
		if !ok {
			break
		}
		resp, err := o.client.Purchase(ctx, a)
		if err != nil {
			if isRejection(err) {
				break
			}
			return nil, err
		}
		state = &resp.State
	}
	return state, nil
}

// watch logs what arrives on the event stream.
func (o *Orchestrator) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-o.client.Events():
			if !ok {
				return
			}
			switch ev.Type {
			case "events":
				var journal []conquest.Event
				if err := json.Unmarshal(ev.Data, &journal); err == nil {
					log.Debug().Int("count", len(journal)).Msg("Journal received")
				}
			case "match_ended":
				log.Info().Str("matchId", ev.MatchID).Msg("Match ended")
			default:
				log.Trace().Str("type", ev.Type).Msg("Event")
			}
		}
	}
}

// isRejection reports whether err is the server refusing a command, as
// opposed to a transport failure.
func isRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status < 500 && apiErr.Status != 401 && apiErr.Status != 403 && apiErr.Status != 404
}

func unitsOf(s *conquest.Snapshot, f conquest.FactionID) []conquest.Unit {
	var out []conquest.Unit
	for _, u := range s.Units {
		if u.Faction == f {
			out = append(out, u)
		}
	}
	return out
}

func unitByID(s *conquest.Snapshot, id conquest.UnitID) (conquest.Unit, bool) {
	for _, u := range s.Units {
		if u.ID == id {
			return u, true
		}
	}
	return conquest.Unit{}, false
}
