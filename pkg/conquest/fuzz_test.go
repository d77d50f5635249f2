package conquest

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRandomCommands throws arbitrary, mostly illegal commands at generated
// matches. The garrison stays consistent after every command and a rejected
// command never changes observable state.
func TestRandomCommands(t *testing.T) {
	for seed := int64(1); seed <= 12; seed++ {
		gen := []Generator{GenRandomWalk, GenSampling, GenNoise}[seed%3]
		rules := DefaultRules()
		rules.Generator = gen
		rules.Seed = seed
		if seed%2 == 0 {
			rules.Combat = CombatTakeover
		}
		m, err := NewMatch(Config{Width: 8, Height: 6, CellSize: 1, Factions: []FactionID{red, blue, gold}, Player: red, Rules: rules})
		require.NoError(t, err)
		m.DisableJournal()

		rng := rand.New(rand.NewSource(seed))
		factions := m.Factions()
		for i := 0; i < 400; i++ {
			before := m.Snapshot()
			var err error
			switch rng.Intn(10) {
			case 0:
				_, err = m.AdvanceTurn()
			case 1:
				_, err = m.Step()
			case 2:
				_, err = m.RequestPurchaseUnit(factions[rng.Intn(len(factions))], Archetype(rng.Intn(4)))
			case 3:
				c := Coord{Col: rng.Intn(10) - 1, Row: rng.Intn(8) - 1}
				_, err = m.RequestUpgrade(c, factions[rng.Intn(len(factions))])
			default:
				id := UnitID(rng.Intn(int(m.nextID) + 2))
				dest := Coord{Col: rng.Intn(10) - 1, Row: rng.Intn(8) - 1}
				if u, ok := m.Unit(id); ok && rng.Intn(2) == 0 {
					if legal := m.LegalDestinations(id); len(legal) > 0 {
						dest = legal[rng.Intn(len(legal))]
					} else {
						dest = u.Location
					}
				}
				_, err = m.RequestMove(id, dest)
			}

			require.NoError(t, m.verify(), "seed %d step %d", seed, i)
			if err != nil {
				var rej *RejectedError
				require.True(t, errors.As(err, &rej), "unexpected error type %T: %v", err, err)
				assert.Equal(t, before, m.Snapshot(), "seed %d step %d: rejected %v changed state", seed, i, err)
			}
			if m.Outcome() != OutcomeRunning {
				break
			}
		}
	}
}
