package conquest

// evaluate settles the outcome after a state change. Once the outcome leaves
// running it never changes again.
func (m *Match) evaluate() {
	if m.outcome != OutcomeRunning {
		return
	}
	switch {
	case m.playerHasWon():
		m.conclude(OutcomeVictory)
	case m.playerIsEliminated():
		m.conclude(OutcomeDefeat)
	}
}

func (m *Match) playerHasWon() bool {
	owned := m.grid.OwnedBy(m.player)
	if m.rules.Victory == VictoryAllTerritories {
		return owned == m.grid.Size()
	}
	if owned == 0 {
		return false
	}
	for _, f := range m.factions {
		if f != m.player && m.grid.OwnedBy(f) > 0 {
			return false
		}
	}
	return true
}

func (m *Match) playerIsEliminated() bool {
	if m.grid.OwnedBy(m.player) > 0 {
		return false
	}
	for _, u := range m.units {
		if u.Faction == m.player {
			return false
		}
	}
	return true
}

func (m *Match) conclude(o Outcome) {
	m.outcome = o
	m.record(Event{Type: EventMatchConcluded, Faction: m.player, Outcome: o})
}
