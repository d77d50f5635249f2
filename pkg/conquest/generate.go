package conquest

import (
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// maxSeedAttempts bounds the search for a neutral start cell in the
// random-walk generator before the faction is skipped.
const maxSeedAttempts = 64

// noiseFrequency scales cell coordinates before sampling the noise field;
// lower values give larger blobs.
const noiseFrequency = 0.15

func (m *Match) generate() {
	for _, f := range m.factions {
		switch m.rules.Generator {
		case GenSampling:
			m.seedSampling(f)
		case GenNoise:
			m.seedNoise(f)
		default:
			m.seedRandomWalk(f)
		}
	}
	m.scatterTreasure(m.rules.TreasureCount)
	m.preUpgrade(m.rules.PreUpgraded)
}

// seedRandomWalk claims a neutral start cell, then walks WalkSteps random
// orthogonal steps, claiming each neutral cell the cursor enters. Steps that
// would leave the grid are discarded.
func (m *Match) seedRandomWalk(f FactionID) {
	var cursor Coord
	found := false
	for range maxSeedAttempts {
		c := Coord{Col: m.rng.Intn(m.grid.Cols), Row: m.rng.Intn(m.grid.Rows)}
		if m.grid.At(c).Owner == Neutral {
			cursor, found = c, true
			break
		}
	}
	if !found {
		return
	}
	m.grid.At(cursor).Owner = f

	for range m.rules.WalkSteps {
		d := neighborOffsets[m.rng.Intn(len(neighborOffsets))]
		next := Coord{Col: cursor.Col + d.Col, Row: cursor.Row + d.Row}
		t := m.grid.At(next)
		if t == nil {
			continue
		}
		if t.Owner == Neutral {
			t.Owner = f
		}
		cursor = next
	}
}

// seedSampling claims SeedCells uniformly random neutral cells.
func (m *Match) seedSampling(f FactionID) {
	neutral := m.grid.filter(func(t *Territory) bool { return t.Owner == Neutral })
	for i := 0; i < m.rules.SeedCells && len(neutral) > 0; i++ {
		j := m.rng.Intn(len(neutral))
		m.grid.At(neutral[j]).Owner = f
		neutral[j] = neutral[len(neutral)-1]
		neutral = neutral[:len(neutral)-1]
	}
}

// seedNoise samples a faction-specific simplex field and claims the
// SeedCells neutral cells with the highest values.
func (m *Match) seedNoise(f FactionID) {
	field := opensimplex.NewNormalized(m.rng.Int63())
	neutral := m.grid.filter(func(t *Territory) bool { return t.Owner == Neutral })
	score := make(map[Coord]float64, len(neutral))
	for _, c := range neutral {
		score[c] = field.Eval2(float64(c.Col)*noiseFrequency, float64(c.Row)*noiseFrequency)
	}
	sort.SliceStable(neutral, func(i, j int) bool { return score[neutral[i]] > score[neutral[j]] })
	for i := 0; i < m.rules.SeedCells && i < len(neutral); i++ {
		m.grid.At(neutral[i]).Owner = f
	}
}

func (m *Match) scatterTreasure(n int) {
	cells := m.grid.filter(func(t *Territory) bool { return t.Owner == Neutral && !t.Treasure })
	m.rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })
	for i := 0; i < n && i < len(cells); i++ {
		m.grid.At(cells[i]).Treasure = true
	}
}

func (m *Match) preUpgrade(n int) {
	cells := m.grid.filter(func(t *Territory) bool { return t.Improvement == 0 })
	m.rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })
	for i := 0; i < n && i < len(cells); i++ {
		m.grid.At(cells[i]).Improvement = 1
	}
}

func (m *Match) deployStartingUnits() {
	for _, f := range m.factions {
		for _, a := range m.rules.StartingUnits {
			free := m.freeTerritories(f)
			if len(free) == 0 {
				break
			}
			m.spawn(f, a, free[m.rng.Intn(len(free))], a.Stats().Movement)
		}
	}
}

// freeTerritories lists a faction's ungarrisoned territories.
func (m *Match) freeTerritories(f FactionID) []Coord {
	return m.grid.filter(func(t *Territory) bool {
		if t.Owner != f {
			return false
		}
		_, taken := m.garrison[t.Coord]
		return !taken
	})
}
