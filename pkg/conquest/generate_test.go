package conquest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerated(t *testing.T, gen Generator, cols, rows int, seed int64, factions ...FactionID) *Match {
	t.Helper()
	rules := DefaultRules()
	rules.Generator = gen
	rules.Seed = seed
	m, err := NewMatch(Config{Width: cols, Height: rows, CellSize: 1, Factions: factions, Player: factions[0], Rules: rules})
	require.NoError(t, err)
	require.NoError(t, m.verify())
	return m
}

func TestGenerate_SeedCellCounts(t *testing.T) {
	for _, gen := range []Generator{GenSampling, GenNoise} {
		t.Run(string(gen), func(t *testing.T) {
			m := newGenerated(t, gen, 20, 20, 3, red, blue, gold)
			for _, f := range m.Factions() {
				assert.Equal(t, m.Rules().SeedCells, m.TerritoryCount(f), "faction %s", f)
			}
		})
	}

	t.Run(string(GenRandomWalk), func(t *testing.T) {
		m := newGenerated(t, GenRandomWalk, 30, 30, 3, red, blue)
		for _, f := range m.Factions() {
			n := m.TerritoryCount(f)
			assert.GreaterOrEqual(t, n, 1)
			assert.LessOrEqual(t, n, m.Rules().WalkSteps+1)
		}
	})
}

func TestGenerate_StartingPosition(t *testing.T) {
	for _, gen := range []Generator{GenRandomWalk, GenSampling, GenNoise} {
		t.Run(string(gen), func(t *testing.T) {
			m := newGenerated(t, gen, 15, 10, 11, red, blue)
			s := m.Snapshot()
			rules := m.Rules()

			treasure, improved := 0, 0
			for _, tv := range s.Territories {
				if tv.Treasure {
					treasure++
					assert.Equal(t, Neutral, tv.Owner, "treasure at %s", tv.Coord)
				}
				if tv.Improvement > 0 {
					improved++
					assert.Equal(t, 1, tv.Improvement)
				}
			}
			assert.Equal(t, rules.TreasureCount, treasure)
			assert.Equal(t, rules.PreUpgraded, improved)

			for _, f := range m.Factions() {
				units := m.UnitsOf(f)
				assert.Len(t, units, len(rules.StartingUnits))
				for i, u := range units {
					assert.Equal(t, rules.StartingUnits[i], u.Archetype)
					assert.Equal(t, u.Archetype.Stats().Movement, u.Movement)
					tv, _ := m.Territory(u.Location)
					assert.Equal(t, f, tv.Owner)
				}
			}
		})
	}
}

func TestGenerate_TinyGridsStayBounded(t *testing.T) {
	for _, gen := range []Generator{GenRandomWalk, GenSampling, GenNoise} {
		for _, size := range [][2]int{{1, 1}, {2, 1}, {1, 3}, {3, 3}} {
			t.Run(fmt.Sprintf("%s/%dx%d", gen, size[0], size[1]), func(t *testing.T) {
				m := newGenerated(t, gen, size[0], size[1], 5, red, blue, gold)
				owned := 0
				for _, f := range m.Factions() {
					owned += m.TerritoryCount(f)
					assert.LessOrEqual(t, len(m.UnitsOf(f)), m.TerritoryCount(f))
				}
				assert.LessOrEqual(t, owned, size[0]*size[1])
			})
		}
	}
}

func TestGenerate_DeterministicBySeed(t *testing.T) {
	for _, gen := range []Generator{GenRandomWalk, GenSampling, GenNoise} {
		t.Run(string(gen), func(t *testing.T) {
			a := newGenerated(t, gen, 25, 18, 99, red, blue)
			b := newGenerated(t, gen, 25, 18, 99, red, blue)
			assert.Equal(t, a.Snapshot(), b.Snapshot())

			for range 5 {
				_, errA := a.AdvanceTurn()
				_, errB := b.AdvanceTurn()
				assert.Equal(t, errA, errB)
			}
			assert.Equal(t, a.Snapshot(), b.Snapshot())
			assert.Equal(t, a.DrainEvents(), b.DrainEvents())
		})
	}
}

// walkMatch builds an ungenerated match whose grid is claimed by red wherever
// claim returns true.
func walkMatch(t *testing.T, cols, rows int, seed int64, claim func(Coord) bool) *Match {
	t.Helper()
	rules := DefaultRules()
	rules.Seed = seed
	rules.WalkSteps = 2000
	m, err := newMatch([]FactionID{red, blue}, red, rules, cols, rows, 1)
	require.NoError(t, err)
	for r := range rows {
		for c := range cols {
			if at := (Coord{Col: c, Row: r}); claim(at) {
				m.grid.At(at).Owner = red
			}
		}
	}
	return m
}

func TestRandomWalk_CrossesClaimedCells(t *testing.T) {
	wall := func(c Coord) bool { return c.Col == 2 }
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			m := walkMatch(t, 5, 3, seed, wall)
			m.seedRandomWalk(blue)

			west, east := 0, 0
			for _, tv := range m.Snapshot().Territories {
				switch {
				case wall(tv.Coord):
					assert.Equal(t, red, tv.Owner, "wall cell %s changed hands", tv.Coord)
				case tv.Owner == blue && tv.Coord.Col < 2:
					west++
				case tv.Owner == blue && tv.Coord.Col > 2:
					east++
				}
			}
			assert.Positive(t, west, "walk never claimed west of the wall")
			assert.Positive(t, east, "walk never claimed east of the wall")
		})
	}
}

func TestRandomWalk_SkipsFactionOnFullGrid(t *testing.T) {
	m := walkMatch(t, 4, 4, 3, func(Coord) bool { return true })
	m.seedRandomWalk(blue)

	assert.Equal(t, 0, m.TerritoryCount(blue))
	assert.Equal(t, 16, m.TerritoryCount(red))
}
