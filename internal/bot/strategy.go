package bot

import (
	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// Difficulties lists the strategy names StrategyForDifficulty understands.
func Difficulties() []string {
	return []string{"easy", "medium", "random", "hold"}
}

// StrategyForDifficulty returns the opponent strategy for a difficulty level.
// Unknown levels fall back to the engine's preference routine.
func StrategyForDifficulty(difficulty string) conquest.Opponent {
	switch difficulty {
	case "medium":
		return &TacticalStrategy{}
	case "random":
		return RandomStrategy{}
	case "hold":
		return HoldStrategy{}
	case "easy", "", "preference":
		return conquest.PreferenceOpponent{}
	default:
		log.Warn().Str("difficulty", difficulty).Msg("Unknown bot difficulty, using easy")
		return conquest.PreferenceOpponent{}
	}
}

// --- HoldStrategy ---

// HoldStrategy passes every turn.
type HoldStrategy struct{}

func (HoldStrategy) Name() string { return "hold" }

func (HoldStrategy) TakeTurn(*conquest.Match, conquest.FactionID) {}

// --- RandomStrategy ---

// RandomStrategy orders every unit, in random order, to a uniformly random
// adjacent territory whoever owns it. Rejected moves are passes.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) TakeTurn(m *conquest.Match, f conquest.FactionID) {
	units := m.UnitsOf(f)
	botShuffle(len(units), func(i, j int) { units[i], units[j] = units[j], units[i] })
	for _, u := range units {
		if m.Outcome() != conquest.OutcomeRunning {
			return
		}
		if _, alive := m.Unit(u.ID); !alive {
			continue
		}
		adj := m.Neighbors(u.Location)
		if len(adj) == 0 {
			continue
		}
		_, _ = m.RequestMove(u.ID, adj[botIntn(len(adj))])
	}
}
