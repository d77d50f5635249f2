package conquest

// MoveResult describes an accepted move command.
type MoveResult struct {
	Unit              UnitID         `json:"unit"`
	From              Coord          `json:"from"`
	To                Coord          `json:"to"`
	Moved             bool           `json:"moved"` // false when an attack did not clear the destination
	OwnershipChanged  bool           `json:"ownership_changed"`
	PreviousOwner     FactionID      `json:"previous_owner,omitempty"`
	Income            int            `json:"income,omitempty"`
	TreasureCollected bool           `json:"treasure_collected,omitempty"`
	Combat            *CombatOutcome `json:"combat,omitempty"`
}

// RequestMove orders a unit of the active faction to dest. Moving onto an
// enemy garrison resolves combat first; the mover only advances if the
// defender is eliminated. Rejected moves leave the match untouched.
func (m *Match) RequestMove(id UnitID, dest Coord) (MoveResult, error) {
	if m.outcome != OutcomeRunning {
		return MoveResult{}, reject(ErrMatchConcluded, "outcome is %s", m.outcome)
	}
	u, ok := m.units[id]
	if !ok {
		return MoveResult{}, reject(ErrInvalidSelection, "no unit %d", id)
	}
	if u.Faction != m.Active() {
		return MoveResult{}, reject(ErrInvalidSelection, "unit %d belongs to %q but %q is active", id, u.Faction, m.Active())
	}
	if err := m.checkMove(u, dest); err != nil {
		return MoveResult{}, err
	}

	res := MoveResult{Unit: id, From: u.Location, To: dest}
	u.Movement -= Distance(u.Location, dest)

	if defID, occupied := m.garrison[dest]; occupied {
		def := m.units[defID]
		outcome := m.resolveCombat(u, def)
		res.Combat = &outcome
		m.record(Event{Type: EventCombat, Faction: u.Faction, Unit: u.ID,
			From: coordPtr(res.From), To: coordPtr(dest), Combat: &outcome})

		switch outcome.Eliminated {
		case def.ID:
			m.eliminate(def)
		case u.ID:
			m.eliminate(u)
			m.evaluate()
			return res, nil
		default:
			m.evaluate()
			return res, nil
		}
	}

	m.relocate(u, dest)
	res.Moved = true
	m.record(Event{Type: EventMoved, Faction: u.Faction, Unit: u.ID, From: coordPtr(res.From), To: coordPtr(dest)})
	m.capture(u.Faction, dest, &res)
	m.evaluate()
	return res, nil
}

func (m *Match) checkMove(u *Unit, dest Coord) error {
	if !m.grid.InBounds(dest) {
		return reject(ErrInvalidSelection, "no territory at %s", dest)
	}
	if dest == u.Location {
		return reject(ErrIllegalMove, "unit %d is already at %s", u.ID, dest)
	}
	if u.Movement <= 0 {
		return reject(ErrIllegalMove, "unit %d has no movement left", u.ID)
	}
	if d := Distance(u.Location, dest); d > u.Movement {
		return reject(ErrIllegalMove, "%s is %d cells from %s, unit %d has %d movement left",
			dest, d, u.Location, u.ID, u.Movement)
	}
	if occ, ok := m.garrison[dest]; ok && m.units[occ].Faction == u.Faction {
		return reject(ErrIllegalMove, "%s is garrisoned by friendly unit %d", dest, occ)
	}
	return nil
}

// capture transfers dest to f when it belonged to someone else and credits
// the capture bonus, improvement bonus and any treasure.
func (m *Match) capture(f FactionID, dest Coord, res *MoveResult) {
	t := m.grid.At(dest)
	if t.Owner == f {
		return
	}
	res.OwnershipChanged = true
	res.PreviousOwner = t.Owner

	income := m.rules.CaptureBonus + m.rules.ImprovementBonus*t.Improvement
	if t.Treasure {
		income += m.rules.TreasureBonus
		t.Treasure = false
		res.TreasureCollected = true
		m.record(Event{Type: EventTreasureCollected, Faction: f, To: coordPtr(dest), Amount: m.rules.TreasureBonus})
	}
	t.Owner = f
	m.treasury[f] += income
	res.Income = income
	m.record(Event{Type: EventCaptured, Faction: f, To: coordPtr(dest), Amount: income})
}

func (m *Match) eliminate(u *Unit) {
	m.record(Event{Type: EventUnitEliminated, Faction: u.Faction, Unit: u.ID, From: coordPtr(u.Location)})
	m.remove(u)
}

// LegalDestinations lists every territory the unit may currently be ordered
// to, in row-major order. It ignores whose turn it is.
func (m *Match) LegalDestinations(id UnitID) []Coord {
	u, ok := m.units[id]
	if !ok || m.outcome != OutcomeRunning || u.Movement <= 0 {
		return nil
	}
	var out []Coord
	for r := u.Location.Row - u.Movement; r <= u.Location.Row+u.Movement; r++ {
		for c := u.Location.Col - u.Movement; c <= u.Location.Col+u.Movement; c++ {
			dest := Coord{Col: c, Row: r}
			if m.checkMove(u, dest) == nil {
				out = append(out, dest)
			}
		}
	}
	return out
}
