package conquest

// Income returns what a faction earns on each turn transition: a fixed rate
// per owned territory plus the optional passive improvement income.
func (m *Match) Income(f FactionID) int {
	income := m.grid.OwnedBy(f) * m.rules.IncomePerTerritory
	if m.rules.ImprovementIncome > 0 {
		income += m.grid.ImprovementsOf(f) * m.rules.ImprovementIncome
	}
	return income
}

func (m *Match) creditIncome() {
	for _, f := range m.factions {
		m.treasury[f] += m.Income(f)
	}
}

// RequestPurchaseUnit buys a unit for the active faction and places it on a
// random owned, ungarrisoned territory. New units cannot move until their
// faction's next turn. The treasury is only charged when placement succeeds.
func (m *Match) RequestPurchaseUnit(f FactionID, a Archetype) (Unit, error) {
	if err := m.checkActing(f); err != nil {
		return Unit{}, err
	}
	if !a.Valid() {
		return Unit{}, reject(ErrInvalidSelection, "unknown archetype %d", a)
	}
	cost := a.Stats().Cost
	if m.treasury[f] < cost {
		return Unit{}, reject(ErrInsufficientFunds, "%s costs %d, treasury is %d", a, cost, m.treasury[f])
	}
	free := m.freeTerritories(f)
	if len(free) == 0 {
		return Unit{}, reject(ErrNoEligibleTarget, "%q has no ungarrisoned territory", f)
	}

	m.treasury[f] -= cost
	u := m.spawn(f, a, free[m.rng.Intn(len(free))], 0)
	m.record(Event{Type: EventUnitPurchased, Faction: f, Unit: u.ID, To: coordPtr(u.Location), Amount: cost})
	return *u, nil
}

// RequestUpgrade raises the improvement level of a territory the active
// faction owns.
func (m *Match) RequestUpgrade(c Coord, f FactionID) (Territory, error) {
	if err := m.checkActing(f); err != nil {
		return Territory{}, err
	}
	t := m.grid.At(c)
	if t == nil {
		return Territory{}, reject(ErrInvalidSelection, "no territory at %s", c)
	}
	if t.Owner != f {
		return Territory{}, reject(ErrInvalidSelection, "%s is not owned by %q", c, f)
	}
	if m.treasury[f] < m.rules.UpgradeCost {
		return Territory{}, reject(ErrInsufficientFunds, "upgrade costs %d, treasury is %d", m.rules.UpgradeCost, m.treasury[f])
	}

	m.treasury[f] -= m.rules.UpgradeCost
	t.Improvement++
	m.record(Event{Type: EventUpgraded, Faction: f, To: coordPtr(c), Amount: t.Improvement})
	return *t, nil
}

// checkActing rejects commands after the match ends and commands from
// factions other than the active one.
func (m *Match) checkActing(f FactionID) error {
	if m.outcome != OutcomeRunning {
		return reject(ErrMatchConcluded, "outcome is %s", m.outcome)
	}
	if !m.isFaction(f) {
		return reject(ErrInvalidSelection, "unknown faction %q", f)
	}
	if f != m.Active() {
		return reject(ErrInvalidSelection, "%q is not the active faction", f)
	}
	return nil
}
