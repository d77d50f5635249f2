package conquest

import "fmt"

// Opponent plays the turn of a non-player faction. TakeTurn is called
// synchronously by Step while that faction is active and must issue its
// commands through the Match's public command methods.
type Opponent interface {
	Name() string
	TakeTurn(m *Match, f FactionID)
}

// SetOpponent replaces the strategy used for a non-player faction.
func (m *Match) SetOpponent(f FactionID, o Opponent) error {
	if !m.isFaction(f) || f == m.player {
		return fmt.Errorf("%w: %q is not an opponent faction", ErrInvalidConfig, f)
	}
	m.opponents[f] = o
	return nil
}

// OpponentName returns the name of the strategy driving f.
func (m *Match) OpponentName(f FactionID) string {
	if f == m.player {
		return ""
	}
	return m.opponentFor(f).Name()
}

func (m *Match) opponentFor(f FactionID) Opponent {
	if o, ok := m.opponents[f]; ok && o != nil {
		return o
	}
	return PreferenceOpponent{}
}

// PreferenceOpponent moves every unit once per turn, in creation order, to a
// random adjacent territory: hostile if any, else neutral, else any.
type PreferenceOpponent struct{}

func (PreferenceOpponent) Name() string { return "preference" }

func (PreferenceOpponent) TakeTurn(m *Match, f FactionID) {
	for _, u := range m.UnitsOf(f) {
		if m.outcome != OutcomeRunning {
			return
		}
		if _, alive := m.units[u.ID]; !alive {
			continue
		}
		dest, ok := m.PreferredDestination(u.ID)
		if !ok {
			continue
		}
		// A rejected move (friendly garrison, no allowance) is a pass.
		_, _ = m.RequestMove(u.ID, dest)
	}
}

// PreferredDestination picks an adjacent territory for a unit using the
// hostile > neutral > any preference, choosing uniformly within a tier with
// the match's random source.
func (m *Match) PreferredDestination(id UnitID) (Coord, bool) {
	u, ok := m.units[id]
	if !ok {
		return Coord{}, false
	}
	adjacent := m.grid.Neighbors(u.Location)
	if len(adjacent) == 0 {
		return Coord{}, false
	}
	var hostile, neutral []Coord
	for _, c := range adjacent {
		switch owner := m.grid.At(c).Owner; {
		case owner == Neutral:
			neutral = append(neutral, c)
		case owner != u.Faction:
			hostile = append(hostile, c)
		}
	}
	switch {
	case len(hostile) > 0:
		return hostile[m.rng.Intn(len(hostile))], true
	case len(neutral) > 0:
		return neutral[m.rng.Intn(len(neutral))], true
	default:
		return adjacent[m.rng.Intn(len(adjacent))], true
	}
}
