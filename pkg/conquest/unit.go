package conquest

import (
	"encoding/json"
	"fmt"
)

// Archetype is the closed set of unit kinds.
type Archetype int

const (
	Light Archetype = iota // Cheap line unit
	Scout                  // Fast, fragile
	Heavy                  // Slow, strong, expensive
)

// ArchetypeStats are the fixed parameters of an archetype.
type ArchetypeStats struct {
	Movement int // Allowance restored at the start of each turn
	Strength int // Combat strength at full health
	Cost     int // Purchase price
}

var archetypeStats = map[Archetype]ArchetypeStats{
	Light: {Movement: 1, Strength: 50, Cost: 30},
	Scout: {Movement: 2, Strength: 30, Cost: 40},
	Heavy: {Movement: 1, Strength: 100, Cost: 80},
}

// AllArchetypes returns every archetype in declaration order.
func AllArchetypes() []Archetype {
	return []Archetype{Light, Scout, Heavy}
}

// Stats returns the archetype's fixed parameters. Unknown archetypes return
// the zero value.
func (a Archetype) Stats() ArchetypeStats {
	return archetypeStats[a]
}

// Valid reports whether a is a member of the closed set.
func (a Archetype) Valid() bool {
	_, ok := archetypeStats[a]
	return ok
}

func (a Archetype) String() string {
	switch a {
	case Light:
		return "light"
	case Scout:
		return "scout"
	case Heavy:
		return "heavy"
	default:
		return "unknown"
	}
}

// ParseArchetype converts a name such as "heavy" to an Archetype.
func ParseArchetype(s string) (Archetype, error) {
	for _, a := range AllArchetypes() {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown archetype %q", s)
}

func (a Archetype) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Archetype) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseArchetype(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// UnitID uniquely identifies a unit within a match.
type UnitID int

// MaxHealth is the health every unit starts with.
const MaxHealth = 100

// Unit is a mobile combatant. Location is kept consistent with the match's
// garrison map by the relocation helpers in match.go.
type Unit struct {
	ID        UnitID    `json:"id"`
	Faction   FactionID `json:"faction"`
	Archetype Archetype `json:"archetype"`
	Movement  int       `json:"movement"`
	Health    int       `json:"health"`
	Location  Coord     `json:"location"`
}

// Strength returns the archetype strength rating.
func (u *Unit) Strength() int {
	return u.Archetype.Stats().Strength
}

// Power is strength scaled by remaining health, in hundredths so combat
// arithmetic stays in integers.
func (u *Unit) Power() int {
	return u.Strength() * u.Health
}
