package bot

import "github.com/freeeve/age-of-conquest/pkg/conquest"

// Destination scoring weights.
const (
	scoreHostile     = 30
	scoreNeutral     = 20
	scoreTreasure    = 15
	scoreImprovement = 5
	scoreKill        = 10
)

// board is the read surface shared by a live match and a snapshot fetched
// from a server.
type board interface {
	territory(c conquest.Coord) (conquest.Territory, bool)
	unitAt(c conquest.Coord) (conquest.Unit, bool)
	combat() conquest.CombatPolicy
}

type matchBoard struct{ m *conquest.Match }

func (b matchBoard) territory(c conquest.Coord) (conquest.Territory, bool) { return b.m.Territory(c) }
func (b matchBoard) unitAt(c conquest.Coord) (conquest.Unit, bool)         { return b.m.SelectUnitAt(c) }
func (b matchBoard) combat() conquest.CombatPolicy                         { return b.m.Rules().Combat }

type snapshotBoard struct {
	s     *conquest.Snapshot
	units map[conquest.UnitID]conquest.Unit
}

func newSnapshotBoard(s *conquest.Snapshot) snapshotBoard {
	b := snapshotBoard{s: s, units: make(map[conquest.UnitID]conquest.Unit, len(s.Units))}
	for _, u := range s.Units {
		b.units[u.ID] = u
	}
	return b
}

func (b snapshotBoard) territory(c conquest.Coord) (conquest.Territory, bool) {
	tv, ok := b.s.TerritoryAt(c)
	return tv.Territory, ok
}

func (b snapshotBoard) unitAt(c conquest.Coord) (conquest.Unit, bool) {
	tv, ok := b.s.TerritoryAt(c)
	if !ok || tv.Garrison == 0 {
		return conquest.Unit{}, false
	}
	u, ok := b.units[tv.Garrison]
	return u, ok
}

func (b snapshotBoard) combat() conquest.CombatPolicy { return b.s.Rules.Combat }

// attackEliminates predicts whether an attrition attack removes the defender.
func attackEliminates(att, def conquest.Unit) bool {
	pa, pd := att.Power(), def.Power()
	if pa <= pd {
		return false
	}
	return (2*(pa-pd)+99)/100 >= def.Health
}

// scoreDestination rates a move of u to dest. The second result is false for
// destinations not worth ordering: own territory, friendly garrisons and,
// under attrition, defenders at least as strong as u.
func scoreDestination(b board, u conquest.Unit, dest conquest.Coord) (int, bool) {
	t, ok := b.territory(dest)
	if !ok || dest == u.Location {
		return 0, false
	}
	if t.Owner == u.Faction {
		return 0, false
	}

	score := scoreNeutral
	if t.Owner != conquest.Neutral {
		score = scoreHostile
	}
	if t.Treasure {
		score += scoreTreasure
	}
	score += scoreImprovement * t.Improvement

	if def, held := b.unitAt(dest); held {
		if def.Faction == u.Faction {
			return 0, false
		}
		if b.combat() == conquest.CombatAttrition {
			if def.Power() >= u.Power() {
				return 0, false
			}
			if !attackEliminates(u, def) {
				// The attack only wounds; the territory stays theirs this turn.
				score /= 2
			} else {
				score += scoreKill
			}
		} else {
			score += scoreKill
		}
	}
	return score - (conquest.Distance(u.Location, dest) - 1), true
}

// reachable lists every on-board cell within the unit's remaining movement.
func reachable(b board, u conquest.Unit) []conquest.Coord {
	var out []conquest.Coord
	for dr := -u.Movement; dr <= u.Movement; dr++ {
		for dc := -u.Movement; dc <= u.Movement; dc++ {
			c := conquest.Coord{Col: u.Location.Col + dc, Row: u.Location.Row + dr}
			if c == u.Location || conquest.Distance(u.Location, c) > u.Movement {
				continue
			}
			if _, ok := b.territory(c); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// bestDestination picks the highest scoring reachable cell, breaking ties
// at random.
func bestDestination(b board, u conquest.Unit) (conquest.Coord, bool) {
	if u.Movement <= 0 {
		return conquest.Coord{}, false
	}
	best := -1
	var ties []conquest.Coord
	for _, c := range reachable(b, u) {
		s, ok := scoreDestination(b, u, c)
		if !ok {
			continue
		}
		switch {
		case s > best:
			best = s
			ties = append(ties[:0], c)
		case s == best:
			ties = append(ties, c)
		}
	}
	if len(ties) == 0 {
		return conquest.Coord{}, false
	}
	return ties[botIntn(len(ties))], true
}
