package conquest

import (
	"fmt"
	"reflect"
)

// Generator selects how seed territories are assigned at match start.
type Generator string

const (
	GenRandomWalk Generator = "random_walk"
	GenSampling   Generator = "sampling"
	GenNoise      Generator = "noise"
)

// CombatPolicy selects how an attack on a garrisoned territory resolves.
type CombatPolicy string

const (
	// CombatAttrition compares health-scaled strength and subtracts damage.
	CombatAttrition CombatPolicy = "attrition"
	// CombatTakeover removes the defender without damaging the mover.
	CombatTakeover CombatPolicy = "takeover"
)

// VictoryRule selects what the player must control to win.
type VictoryRule string

const (
	// VictoryAllClaimed requires that no other faction owns any territory.
	VictoryAllClaimed VictoryRule = "all_claimed"
	// VictoryAllTerritories requires the player to own every territory.
	VictoryAllTerritories VictoryRule = "all_territories"
)

// Rules are the tunable constants of a match.
type Rules struct {
	Generator     Generator   `json:"generator"`
	WalkSteps     int         `json:"walk_steps"`
	SeedCells     int         `json:"seed_cells"`
	TreasureCount int         `json:"treasure_count"`
	PreUpgraded   int         `json:"pre_upgraded"`
	StartingUnits []Archetype `json:"starting_units"`

	Combat  CombatPolicy `json:"combat"`
	Victory VictoryRule  `json:"victory"`

	StartingTreasury   int     `json:"starting_treasury"`
	IncomePerTerritory int     `json:"income_per_territory"`
	ImprovementIncome  int     `json:"improvement_income"`
	CaptureBonus       int     `json:"capture_bonus"`
	ImprovementBonus   int     `json:"improvement_bonus"`
	TreasureBonus      int     `json:"treasure_bonus"`
	TreasureChance     float64 `json:"treasure_chance"`
	UpgradeCost        int     `json:"upgrade_cost"`

	// Seed fixes the match's random source. Zero picks a random seed.
	Seed int64 `json:"seed"`
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		Generator:     GenRandomWalk,
		WalkSteps:     100,
		SeedCells:     10,
		TreasureCount: 5,
		PreUpgraded:   5,
		StartingUnits: []Archetype{Light, Light, Scout},

		Combat:  CombatAttrition,
		Victory: VictoryAllClaimed,

		StartingTreasury:   100,
		IncomePerTerritory: 2,
		CaptureBonus:       10,
		ImprovementBonus:   15,
		TreasureBonus:      50,
		TreasureChance:     0.1,
		UpgradeCost:        40,
	}
}

func (r Rules) validate() error {
	switch r.Generator {
	case GenRandomWalk, GenSampling, GenNoise:
	default:
		return fmt.Errorf("%w: unknown generator %q", ErrInvalidConfig, r.Generator)
	}
	switch r.Combat {
	case CombatAttrition, CombatTakeover:
	default:
		return fmt.Errorf("%w: unknown combat policy %q", ErrInvalidConfig, r.Combat)
	}
	switch r.Victory {
	case VictoryAllClaimed, VictoryAllTerritories:
	default:
		return fmt.Errorf("%w: unknown victory rule %q", ErrInvalidConfig, r.Victory)
	}
	for _, a := range r.StartingUnits {
		if !a.Valid() {
			return fmt.Errorf("%w: unknown starting archetype %d", ErrInvalidConfig, a)
		}
	}
	if r.WalkSteps < 0 || r.SeedCells < 0 || r.TreasureCount < 0 || r.PreUpgraded < 0 {
		return fmt.Errorf("%w: generation counts must be non-negative", ErrInvalidConfig)
	}
	if r.StartingTreasury < 0 || r.UpgradeCost < 0 {
		return fmt.Errorf("%w: costs and treasury must be non-negative", ErrInvalidConfig)
	}
	if r.TreasureChance < 0 || r.TreasureChance > 1 {
		return fmt.Errorf("%w: treasure chance must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}

// isZero reports whether every field other than Seed is unset. An empty but
// non-nil StartingUnits counts as set.
func (r Rules) isZero() bool {
	r.Seed = 0
	return reflect.DeepEqual(r, Rules{})
}
