package bot

import (
	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// TacticalStrategy spends its treasury before moving: one upgrade of its
// weakest frontier territory when it can keep a reserve, then units until
// it fields one per three territories. Each unit then takes the best scored
// destination it can reach, repeatedly while it has movement left, and
// never attacks a defender that would win under attrition.
type TacticalStrategy struct{}

func (TacticalStrategy) Name() string { return "medium" }

func (s TacticalStrategy) TakeTurn(m *conquest.Match, f conquest.FactionID) {
	s.spend(m, f)

	b := matchBoard{m: m}
	for _, u := range m.UnitsOf(f) {
		for m.Outcome() == conquest.OutcomeRunning {
			cur, alive := m.Unit(u.ID)
			if !alive {
				break
			}
			dest, ok := bestDestination(b, cur)
			if !ok {
				break
			}
			res, err := m.RequestMove(cur.ID, dest)
			if err != nil || !res.Moved {
				break
			}
		}
	}
}

// spend issues upgrade and purchase commands. Rejections end spending.
func (TacticalStrategy) spend(m *conquest.Match, f conquest.FactionID) {
	rules := m.Rules()
	reserve := conquest.Light.Stats().Cost
	if c, ok := weakestFrontier(m, f); ok && m.Treasury(f) >= rules.UpgradeCost+reserve {
		_, _ = m.RequestUpgrade(c, f)
	}

	for len(m.UnitsOf(f)) < unitTarget(m.TerritoryCount(f)) {
		a, ok := pickArchetype(m.Treasury(f))
		if !ok {
			return
		}
		if _, err := m.RequestPurchaseUnit(f, a); err != nil {
			return
		}
	}
}

func unitTarget(territories int) int {
	return max(1, territories/3)
}

// pickArchetype chooses what to buy with the given funds.
func pickArchetype(treasury int) (conquest.Archetype, bool) {
	switch {
	case treasury >= conquest.Heavy.Stats().Cost && botFloat64() < 0.5:
		return conquest.Heavy, true
	case treasury >= conquest.Scout.Stats().Cost && botFloat64() < 0.3:
		return conquest.Scout, true
	case treasury >= conquest.Light.Stats().Cost:
		return conquest.Light, true
	}
	return 0, false
}

// weakestFrontier returns the least improved territory of f that borders
// another faction, first in row-major order on ties.
func weakestFrontier(m *conquest.Match, f conquest.FactionID) (conquest.Coord, bool) {
	var best conquest.Coord
	bestLevel := -1
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			here := conquest.Coord{Col: c, Row: r}
			t, _ := m.Territory(here)
			if t.Owner != f || !bordersEnemy(m, f, here) {
				continue
			}
			if bestLevel < 0 || t.Improvement < bestLevel {
				best, bestLevel = here, t.Improvement
			}
		}
	}
	return best, bestLevel >= 0
}

func bordersEnemy(m *conquest.Match, f conquest.FactionID, c conquest.Coord) bool {
	for _, n := range m.Neighbors(c) {
		if t, _ := m.Territory(n); t.Owner != f && t.Owner != conquest.Neutral {
			return true
		}
	}
	return false
}
