package conquest

// Step performs one turn transition: the next faction becomes active, every
// faction is credited its income, every unit's movement allowance is
// restored, a treasure may appear on a neutral territory, and if the new
// active faction is an opponent its strategy plays its turn to completion.
// Step returns the faction that became active.
func (m *Match) Step() (FactionID, error) {
	if m.outcome != OutcomeRunning {
		return m.Active(), reject(ErrMatchConcluded, "outcome is %s", m.outcome)
	}

	m.active = (m.active + 1) % len(m.factions)
	m.turn++
	m.creditIncome()
	for _, id := range m.order {
		u := m.units[id]
		u.Movement = u.Archetype.Stats().Movement
	}
	m.maybeSpawnTreasure()

	active := m.Active()
	m.record(Event{Type: EventTurnStarted, Faction: active})
	if active != m.player {
		m.opponentFor(active).TakeTurn(m, active)
	}
	return active, nil
}

// AdvanceTurn ends the current turn and resolves every opponent turn that
// follows, returning once control is back with the player or the match has
// concluded.
func (m *Match) AdvanceTurn() (FactionID, error) {
	if m.outcome != OutcomeRunning {
		return m.Active(), reject(ErrMatchConcluded, "outcome is %s", m.outcome)
	}
	for {
		active, err := m.Step()
		if err != nil {
			return active, err
		}
		if active == m.player || m.outcome != OutcomeRunning {
			return active, nil
		}
	}
}

func (m *Match) maybeSpawnTreasure() {
	if m.rng.Float64() >= m.rules.TreasureChance {
		return
	}
	cells := m.grid.filter(func(t *Territory) bool { return t.Owner == Neutral && !t.Treasure })
	if len(cells) == 0 {
		return
	}
	c := cells[m.rng.Intn(len(cells))]
	m.grid.At(c).Treasure = true
	m.record(Event{Type: EventTreasureSpawned, To: coordPtr(c)})
}
