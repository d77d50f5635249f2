package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// ArenaConfig configures a single bot-vs-bot match played in process.
type ArenaConfig struct {
	Name       string
	Width      int
	Height     int
	CellSize   int
	Factions   []conquest.FactionID
	Strategies map[conquest.FactionID]string // faction -> difficulty level
	MaxTurns   int                           // turn cap; 0 means 500
	Rules      conquest.Rules
}

// ArenaResult describes the outcome of an arena match.
type ArenaResult struct {
	Name        string                     `json:"name"`
	Seed        int64                      `json:"seed"`
	Outcome     conquest.Outcome           `json:"outcome"`
	Turns       int                        `json:"turns"`
	Leader      conquest.FactionID         `json:"leader"` // most territories at the end, first faction on ties
	Territories map[conquest.FactionID]int `json:"territories"`
	Treasuries  map[conquest.FactionID]int `json:"treasuries"`
	Units       map[conquest.FactionID]int `json:"units"`
}

// RunArena plays a match to completion with a strategy on every faction,
// the player included. The player's strategy is driven between Steps; the
// others play inside Step as ordinary opponents.
func RunArena(ctx context.Context, cfg ArenaConfig) (*ArenaResult, error) {
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = 500
	}
	if len(cfg.Factions) == 0 {
		return nil, fmt.Errorf("%w: arena needs factions", conquest.ErrInvalidConfig)
	}
	player := cfg.Factions[0]

	m, err := conquest.NewMatch(conquest.Config{
		Width:    cfg.Width,
		Height:   cfg.Height,
		CellSize: cfg.CellSize,
		Factions: cfg.Factions,
		Player:   player,
		Rules:    cfg.Rules,
	})
	if err != nil {
		return nil, err
	}
	m.DisableJournal()

	strategies := make(map[conquest.FactionID]conquest.Opponent, len(cfg.Factions))
	for _, f := range cfg.Factions {
		strategies[f] = StrategyForDifficulty(cfg.Strategies[f])
		if f != player {
			if err := m.SetOpponent(f, strategies[f]); err != nil {
				return nil, err
			}
		}
	}

	for m.Outcome() == conquest.OutcomeRunning && m.Turn() < cfg.MaxTurns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m.Active() == player {
			strategies[player].TakeTurn(m, player)
			if m.Outcome() != conquest.OutcomeRunning {
				break
			}
		}
		if _, err := m.Step(); err != nil {
			return nil, fmt.Errorf("step at turn %d: %w", m.Turn(), err)
		}
	}

	res := &ArenaResult{
		Name:        cfg.Name,
		Seed:        m.Rules().Seed,
		Outcome:     m.Outcome(),
		Turns:       m.Turn(),
		Territories: make(map[conquest.FactionID]int),
		Treasuries:  make(map[conquest.FactionID]int),
		Units:       make(map[conquest.FactionID]int),
	}
	for _, f := range cfg.Factions {
		res.Territories[f] = m.TerritoryCount(f)
		res.Treasuries[f] = m.Treasury(f)
		res.Units[f] = len(m.UnitsOf(f))
		if res.Leader == "" || res.Territories[f] > res.Territories[res.Leader] {
			res.Leader = f
		}
	}
	log.Debug().Str("name", cfg.Name).Str("outcome", string(res.Outcome)).
		Int("turns", res.Turns).Str("leader", string(res.Leader)).Msg("Arena match finished")
	return res, nil
}

// ParseStrategyConfig parses "country1=medium,*=random" into a difficulty
// for every listed faction. "*" sets the default, which is otherwise easy.
func ParseStrategyConfig(s string, factions []conquest.FactionID) map[conquest.FactionID]string {
	cfg := make(map[conquest.FactionID]string)
	defaultDiff := "easy"
	for _, part := range strings.Split(s, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		if key == "*" {
			defaultDiff = val
		} else {
			cfg[conquest.FactionID(key)] = val
		}
	}
	for _, f := range factions {
		if _, ok := cfg[f]; !ok {
			cfg[f] = defaultDiff
		}
	}
	return cfg
}
