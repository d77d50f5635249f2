package conquest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	red  FactionID = "red"
	blue FactionID = "blue"
	gold FactionID = "gold"
)

// testRules returns default rules with randomness pinned and treasure
// spawning disabled so scenarios are exact.
func testRules() Rules {
	r := DefaultRules()
	r.Seed = 7
	r.TreasureChance = 0
	return r
}

// scenario builds a two-faction match (red is the player) from a layout.
func scenario(t *testing.T, rules Rules, l Layout) *Match {
	t.Helper()
	m, err := NewMatchFromLayout([]FactionID{red, blue}, red, rules, l)
	require.NoError(t, err)
	require.NoError(t, m.verify())
	return m
}

// unitAt returns the id of the unit at c, failing the test if there is none.
func unitAt(t *testing.T, m *Match, c Coord) UnitID {
	t.Helper()
	u, ok := m.SelectUnitAt(c)
	require.True(t, ok, "no unit at %s", c)
	return u.ID
}

func TestNewMatch_Dimensions(t *testing.T) {
	m, err := NewMatch(Config{
		Width: 1000, Height: 700, CellSize: 30,
		Factions: []FactionID{red, blue, gold},
		Player:   red,
		Rules:    testRules(),
	})
	require.NoError(t, err)
	assert.Equal(t, 34, m.Cols())
	assert.Equal(t, 24, m.Rows())
	assert.Equal(t, red, m.Active())
	assert.Equal(t, 1, m.Turn())
	assert.Equal(t, OutcomeRunning, m.Outcome())
	assert.Equal(t, []FactionID{red, blue, gold}, m.Factions())
	require.NoError(t, m.verify())
}

func TestNewMatch_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero cell size", Config{Width: 10, Height: 10, CellSize: 0, Factions: []FactionID{red}, Player: red}},
		{"no factions", Config{Width: 10, Height: 10, CellSize: 1, Player: red}},
		{"player missing", Config{Width: 10, Height: 10, CellSize: 1, Factions: []FactionID{blue}, Player: red}},
		{"duplicate faction", Config{Width: 10, Height: 10, CellSize: 1, Factions: []FactionID{red, red}, Player: red}},
		{"neutral faction", Config{Width: 10, Height: 10, CellSize: 1, Factions: []FactionID{red, Neutral}, Player: red}},
		{"bad generator", Config{Width: 10, Height: 10, CellSize: 1, Factions: []FactionID{red}, Player: red,
			Rules: Rules{Generator: "spiral"}}},
		{"bad treasure chance", Config{Width: 10, Height: 10, CellSize: 1, Factions: []FactionID{red}, Player: red,
			Rules: func() Rules { r := DefaultRules(); r.TreasureChance = 2; return r }()}},
		{"overflowing grid", Config{Width: 1 << 32, Height: 1 << 32, CellSize: 1, Factions: []FactionID{red}, Player: red}},
		{"huge grid", Config{Width: 200000, Height: 200000, CellSize: 1, Factions: []FactionID{red}, Player: red}},
		{"one row too long", Config{Width: MaxCells + 1, Height: 1, CellSize: 1, Factions: []FactionID{red}, Player: red}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatch(tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestCheckGridSize(t *testing.T) {
	assert.NoError(t, checkGridSize(MaxCells, 1))
	assert.NoError(t, checkGridSize(512, 512))
	assert.ErrorIs(t, checkGridSize(513, 512), ErrInvalidConfig)
	assert.ErrorIs(t, checkGridSize(1, MaxCells+1), ErrInvalidConfig)
	assert.ErrorIs(t, checkGridSize(1<<40, 1<<40), ErrInvalidConfig)
}

func TestNewMatchFromLayout_RejectsOversizedGrid(t *testing.T) {
	_, err := NewMatchFromLayout([]FactionID{red, blue}, red, testRules(), Layout{Cols: 1 << 20, Rows: 1 << 20})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWithDefaults(t *testing.T) {
	zero := withDefaults(Rules{Seed: 9})
	want := DefaultRules()
	want.Seed = 9
	assert.Equal(t, want, zero)

	partial := withDefaults(Rules{IncomePerTerritory: 7})
	assert.Equal(t, 7, partial.IncomePerTerritory)
	assert.Equal(t, GenRandomWalk, partial.Generator)
	assert.Equal(t, CombatAttrition, partial.Combat)
	assert.Equal(t, VictoryAllClaimed, partial.Victory)
	assert.Zero(t, partial.UpgradeCost)

	noUnits := withDefaults(Rules{StartingUnits: []Archetype{}})
	assert.Empty(t, noUnits.StartingUnits)
	assert.Zero(t, noUnits.StartingTreasury)
}

func TestNewMatchFromLayout_RejectsDoubleGarrison(t *testing.T) {
	_, err := NewMatchFromLayout([]FactionID{red, blue}, red, testRules(), Layout{
		Cols: 2, Rows: 2,
		Units: []Placement{
			{Faction: red, Archetype: Light, At: Coord{0, 0}},
			{Faction: blue, Archetype: Light, At: Coord{0, 0}},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSelectUnitAt(t *testing.T) {
	m := scenario(t, testRules(), Layout{
		Cols: 3, Rows: 3,
		Owners: map[Coord]FactionID{{0, 0}: red, {2, 2}: blue},
		Units:  []Placement{{Faction: red, Archetype: Heavy, At: Coord{0, 0}}},
	})

	u, ok := m.SelectUnitAt(Coord{0, 0})
	require.True(t, ok)
	assert.Equal(t, red, u.Faction)
	assert.Equal(t, Heavy, u.Archetype)
	assert.Equal(t, 100, u.Strength())
	assert.Equal(t, MaxHealth, u.Health)

	_, ok = m.SelectUnitAt(Coord{1, 1})
	assert.False(t, ok)
	_, ok = m.SelectUnitAt(Coord{9, 9})
	assert.False(t, ok)

	// The returned unit is a copy.
	u.Health = 1
	again, _ := m.SelectUnitAt(Coord{0, 0})
	assert.Equal(t, MaxHealth, again.Health)
}

func TestSnapshot_IsDetached(t *testing.T) {
	m := scenario(t, testRules(), Layout{
		Cols: 2, Rows: 1,
		Owners: map[Coord]FactionID{{0, 0}: red, {1, 0}: blue},
		Units:  []Placement{{Faction: red, Archetype: Light, At: Coord{0, 0}}},
	})
	s := m.Snapshot()
	require.Len(t, s.Territories, 2)
	require.Len(t, s.Units, 1)

	tv, ok := s.TerritoryAt(Coord{0, 0})
	require.True(t, ok)
	assert.Equal(t, red, tv.Owner)
	assert.Equal(t, s.Units[0].ID, tv.Garrison)
	assert.Equal(t, map[FactionID]string{blue: "preference"}, s.Opponents)

	s.Territories[0].Owner = blue
	s.Units[0].Health = 1
	s.Treasuries[red] = 0
	s.Rules.StartingUnits = append(s.Rules.StartingUnits[:0], Heavy)

	fresh := m.Snapshot()
	assert.Equal(t, red, fresh.Territories[0].Owner)
	assert.Equal(t, MaxHealth, fresh.Units[0].Health)
	assert.Equal(t, 100, fresh.Treasuries[red])
	assert.Equal(t, []Archetype{Light, Light, Scout}, fresh.Rules.StartingUnits)
}

func TestParseArchetype(t *testing.T) {
	a, err := ParseArchetype("scout")
	require.NoError(t, err)
	assert.Equal(t, Scout, a)
	assert.Equal(t, 2, a.Stats().Movement)

	_, err = ParseArchetype("dragon")
	assert.Error(t, err)
	assert.False(t, Archetype(9).Valid())
}
