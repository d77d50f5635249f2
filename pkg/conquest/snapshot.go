package conquest

// TerritoryView is a territory together with its garrison, as rendered.
type TerritoryView struct {
	Territory
	Garrison UnitID `json:"garrison,omitempty"`
}

// Snapshot is a read-only copy of the whole match state. Mutating it has no
// effect on the match.
type Snapshot struct {
	Cols        int                  `json:"cols"`
	Rows        int                  `json:"rows"`
	CellSize    int                  `json:"cell_size"`
	Territories []TerritoryView      `json:"territories"`
	Units       []Unit               `json:"units"`
	Factions    []FactionID          `json:"factions"`
	Player      FactionID            `json:"player"`
	Treasuries  map[FactionID]int    `json:"treasuries"`
	Income      map[FactionID]int    `json:"income"`
	Opponents   map[FactionID]string `json:"opponents,omitempty"`
	Active      FactionID            `json:"active"`
	Turn        int                  `json:"turn"`
	Outcome     Outcome              `json:"outcome"`
	Rules       Rules                `json:"rules"`
}

// Snapshot copies the current state for presentation.
func (m *Match) Snapshot() Snapshot {
	s := Snapshot{
		Cols:       m.grid.Cols,
		Rows:       m.grid.Rows,
		CellSize:   m.grid.CellSize,
		Units:      m.Units(),
		Factions:   m.Factions(),
		Player:     m.player,
		Treasuries: make(map[FactionID]int, len(m.factions)),
		Income:     make(map[FactionID]int, len(m.factions)),
		Opponents:  make(map[FactionID]string, len(m.factions)-1),
		Active:     m.Active(),
		Turn:       m.turn,
		Outcome:    m.outcome,
		Rules:      m.Rules(),
	}
	s.Territories = make([]TerritoryView, 0, m.grid.Size())
	for _, t := range m.grid.cells {
		s.Territories = append(s.Territories, TerritoryView{Territory: t, Garrison: m.garrison[t.Coord]})
	}
	for _, f := range m.factions {
		s.Treasuries[f] = m.treasury[f]
		s.Income[f] = m.Income(f)
		if f != m.player {
			s.Opponents[f] = m.opponentFor(f).Name()
		}
	}
	return s
}

// TerritoryAt returns the view of the territory at c.
func (s *Snapshot) TerritoryAt(c Coord) (TerritoryView, bool) {
	if c.Col < 0 || c.Col >= s.Cols || c.Row < 0 || c.Row >= s.Rows {
		return TerritoryView{}, false
	}
	return s.Territories[c.Row*s.Cols+c.Col], true
}
