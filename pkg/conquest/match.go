// Package conquest is a turn-based territorial conquest engine: grid
// generation, movement and combat, economy, turn sequencing and victory.
package conquest

import (
	"fmt"
	"math/rand"
	"slices"
)

// Outcome is the match result flag.
type Outcome string

const (
	OutcomeRunning Outcome = "running"
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
)

// Config describes a new match. Width and Height are in presentation pixels;
// the grid covers them in CellSize steps.
type Config struct {
	Width    int
	Height   int
	CellSize int
	Factions []FactionID
	Player   FactionID
	Rules    Rules
}

// Match owns the full simulation state. It is not safe for concurrent use;
// hosts must serialise every call.
type Match struct {
	rules    Rules
	grid     *Grid
	factions []FactionID
	player   FactionID
	active   int
	turn     int
	outcome  Outcome
	treasury map[FactionID]int

	units    map[UnitID]*Unit
	garrison map[Coord]UnitID
	order    []UnitID // creation order
	nextID   UnitID

	opponents map[FactionID]Opponent
	rng       *rand.Rand
	events    []Event
	noJournal bool
}

// NewMatch generates a fresh match.
func NewMatch(cfg Config) (*Match, error) {
	if cfg.CellSize <= 0 || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: width, height and cell size must be positive", ErrInvalidConfig)
	}
	cols, rows := gridDimension(cfg.Width, cfg.CellSize), gridDimension(cfg.Height, cfg.CellSize)
	if err := checkGridSize(cols, rows); err != nil {
		return nil, err
	}
	m, err := newMatch(cfg.Factions, cfg.Player, withDefaults(cfg.Rules), cols, rows, cfg.CellSize)
	if err != nil {
		return nil, err
	}
	m.generate()
	m.deployStartingUnits()
	m.record(Event{Type: EventTurnStarted, Faction: m.Active()})
	return m, nil
}

// Layout is an explicit starting position, used instead of random generation
// for scripted scenarios and tests.
type Layout struct {
	Cols         int
	Rows         int
	Owners       map[Coord]FactionID
	Improvements map[Coord]int
	Treasure     []Coord
	Units        []Placement
	Treasuries   map[FactionID]int // factions absent here start with Rules.StartingTreasury
}

// Placement positions one unit in a Layout. Zero Health means full health.
type Placement struct {
	Faction   FactionID
	Archetype Archetype
	At        Coord
	Health    int
}

// NewMatchFromLayout builds a match from an explicit layout. Units are created
// in Placement order with their full movement allowance.
func NewMatchFromLayout(factions []FactionID, player FactionID, rules Rules, l Layout) (*Match, error) {
	if l.Cols <= 0 || l.Rows <= 0 {
		return nil, fmt.Errorf("%w: layout dimensions must be positive", ErrInvalidConfig)
	}
	if err := checkGridSize(l.Cols, l.Rows); err != nil {
		return nil, err
	}
	m, err := newMatch(factions, player, withDefaults(rules), l.Cols, l.Rows, 1)
	if err != nil {
		return nil, err
	}
	for c, f := range l.Owners {
		t := m.grid.At(c)
		if t == nil || (f != Neutral && !m.isFaction(f)) {
			return nil, fmt.Errorf("%w: bad owner %q at %s", ErrInvalidConfig, f, c)
		}
		t.Owner = f
	}
	for c, lvl := range l.Improvements {
		t := m.grid.At(c)
		if t == nil || lvl < 0 {
			return nil, fmt.Errorf("%w: bad improvement at %s", ErrInvalidConfig, c)
		}
		t.Improvement = lvl
	}
	for _, c := range l.Treasure {
		t := m.grid.At(c)
		if t == nil {
			return nil, fmt.Errorf("%w: treasure off grid at %s", ErrInvalidConfig, c)
		}
		t.Treasure = true
	}
	for _, p := range l.Units {
		if !m.grid.InBounds(p.At) || !m.isFaction(p.Faction) || !p.Archetype.Valid() {
			return nil, fmt.Errorf("%w: bad placement %+v", ErrInvalidConfig, p)
		}
		if _, taken := m.garrison[p.At]; taken {
			return nil, fmt.Errorf("%w: two units at %s", ErrInvalidConfig, p.At)
		}
		u := m.spawn(p.Faction, p.Archetype, p.At, p.Archetype.Stats().Movement)
		if p.Health > 0 {
			u.Health = min(p.Health, MaxHealth)
		}
	}
	for f, amount := range l.Treasuries {
		if !m.isFaction(f) || amount < 0 {
			return nil, fmt.Errorf("%w: bad treasury for %q", ErrInvalidConfig, f)
		}
		m.treasury[f] = amount
	}
	return m, nil
}

func newMatch(factions []FactionID, player FactionID, rules Rules, cols, rows, cellSize int) (*Match, error) {
	if err := rules.validate(); err != nil {
		return nil, err
	}
	if len(factions) == 0 {
		return nil, fmt.Errorf("%w: at least one faction is required", ErrInvalidConfig)
	}
	seen := make(map[FactionID]bool, len(factions))
	playerIdx := -1
	for i, f := range factions {
		if f == Neutral {
			return nil, fmt.Errorf("%w: faction id must not be empty", ErrInvalidConfig)
		}
		if seen[f] {
			return nil, fmt.Errorf("%w: duplicate faction %q", ErrInvalidConfig, f)
		}
		seen[f] = true
		if f == player {
			playerIdx = i
		}
	}
	if playerIdx < 0 {
		return nil, fmt.Errorf("%w: player faction %q is not in the faction list", ErrInvalidConfig, player)
	}

	seed := rules.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	m := &Match{
		rules:     rules,
		grid:      NewGrid(cols, rows, cellSize),
		factions:  slices.Clone(factions),
		player:    player,
		active:    playerIdx,
		turn:      1,
		outcome:   OutcomeRunning,
		treasury:  make(map[FactionID]int, len(factions)),
		units:     make(map[UnitID]*Unit),
		garrison:  make(map[Coord]UnitID),
		opponents: make(map[FactionID]Opponent),
		rng:       rand.New(rand.NewSource(seed)),
	}
	for _, f := range factions {
		m.treasury[f] = rules.StartingTreasury
	}
	return m, nil
}

// checkGridSize rejects grids over MaxCells. Dimensions are positive.
func checkGridSize(cols, rows int) error {
	if cols > MaxCells/rows {
		return fmt.Errorf("%w: %dx%d grid exceeds %d cells", ErrInvalidConfig, cols, rows, MaxCells)
	}
	return nil
}

// withDefaults returns DefaultRules, keeping the seed, when r is the zero
// Rules value apart from Seed. Any other rule set is used as given, with
// only the empty enumerations filled in.
func withDefaults(r Rules) Rules {
	if r.isZero() {
		def := DefaultRules()
		def.Seed = r.Seed
		return def
	}
	def := DefaultRules()
	if r.Generator == "" {
		r.Generator = def.Generator
	}
	if r.Combat == "" {
		r.Combat = def.Combat
	}
	if r.Victory == "" {
		r.Victory = def.Victory
	}
	return r
}

// --- read accessors ---

// Rules returns a copy of the match's rule set.
func (m *Match) Rules() Rules {
	r := m.rules
	r.StartingUnits = slices.Clone(r.StartingUnits)
	return r
}

// Cols returns the grid width in cells.
func (m *Match) Cols() int { return m.grid.Cols }

// Rows returns the grid height in cells.
func (m *Match) Rows() int { return m.grid.Rows }

// CoordAt maps a pixel position to a territory coordinate.
func (m *Match) CoordAt(x, y int) (Coord, bool) { return m.grid.CoordAt(x, y) }

// Player returns the human-controlled faction.
func (m *Match) Player() FactionID { return m.player }

// Factions returns the turn order.
func (m *Match) Factions() []FactionID { return slices.Clone(m.factions) }

// Active returns the faction whose turn it is.
func (m *Match) Active() FactionID { return m.factions[m.active] }

// Turn returns the global turn counter, starting at 1.
func (m *Match) Turn() int { return m.turn }

// Outcome returns the current match result flag.
func (m *Match) Outcome() Outcome { return m.outcome }

// Treasury returns a faction's balance.
func (m *Match) Treasury(f FactionID) int { return m.treasury[f] }

// Territory returns a copy of the territory at c.
func (m *Match) Territory(c Coord) (Territory, bool) {
	t := m.grid.At(c)
	if t == nil {
		return Territory{}, false
	}
	return *t, true
}

// Neighbors returns the on-grid orthogonal neighbours of c.
func (m *Match) Neighbors(c Coord) []Coord { return m.grid.Neighbors(c) }

// TerritoryCount returns how many territories a faction owns.
func (m *Match) TerritoryCount(f FactionID) int { return m.grid.OwnedBy(f) }

// Unit returns a copy of the unit with the given id.
func (m *Match) Unit(id UnitID) (Unit, bool) {
	u, ok := m.units[id]
	if !ok {
		return Unit{}, false
	}
	return *u, true
}

// SelectUnitAt returns the unit garrisoning c, if any.
func (m *Match) SelectUnitAt(c Coord) (Unit, bool) {
	id, ok := m.garrison[c]
	if !ok {
		return Unit{}, false
	}
	return m.Unit(id)
}

// Units returns copies of every live unit in creation order.
func (m *Match) Units() []Unit {
	out := make([]Unit, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.units[id])
	}
	return out
}

// UnitsOf returns copies of a faction's live units in creation order.
func (m *Match) UnitsOf(f FactionID) []Unit {
	var out []Unit
	for _, id := range m.order {
		if u := m.units[id]; u.Faction == f {
			out = append(out, *u)
		}
	}
	return out
}

func (m *Match) isFaction(f FactionID) bool {
	return f != Neutral && slices.Contains(m.factions, f)
}

// --- garrison bookkeeping; the only code that edits units/garrison ---

func (m *Match) spawn(f FactionID, a Archetype, at Coord, movement int) *Unit {
	m.nextID++
	u := &Unit{
		ID:        m.nextID,
		Faction:   f,
		Archetype: a,
		Movement:  movement,
		Health:    MaxHealth,
		Location:  at,
	}
	m.units[u.ID] = u
	m.garrison[at] = u.ID
	m.order = append(m.order, u.ID)
	return u
}

// relocate moves u to an ungarrisoned destination, clearing the old garrison
// and setting the new one in one step.
func (m *Match) relocate(u *Unit, to Coord) {
	delete(m.garrison, u.Location)
	m.garrison[to] = u.ID
	u.Location = to
}

func (m *Match) remove(u *Unit) {
	if m.garrison[u.Location] == u.ID {
		delete(m.garrison, u.Location)
	}
	delete(m.units, u.ID)
	m.order = slices.DeleteFunc(m.order, func(id UnitID) bool { return id == u.ID })
}

// verify checks the bidirectional garrison invariant.
func (m *Match) verify() error {
	if len(m.garrison) != len(m.units) || len(m.order) != len(m.units) {
		return fmt.Errorf("garrison=%d units=%d order=%d", len(m.garrison), len(m.units), len(m.order))
	}
	for c, id := range m.garrison {
		u, ok := m.units[id]
		if !ok {
			return fmt.Errorf("garrison at %s references dead unit %d", c, id)
		}
		if u.Location != c {
			return fmt.Errorf("unit %d at %s garrisons %s", id, u.Location, c)
		}
		if !m.grid.InBounds(c) {
			return fmt.Errorf("unit %d off grid at %s", id, c)
		}
		if u.Health <= 0 {
			return fmt.Errorf("unit %d alive with health %d", id, u.Health)
		}
	}
	for f, v := range m.treasury {
		if v < 0 {
			return fmt.Errorf("treasury of %q negative: %d", f, v)
		}
	}
	return nil
}
