package conquest

// EventType classifies journal entries.
type EventType string

const (
	EventTurnStarted       EventType = "turn_started"
	EventMoved             EventType = "moved"
	EventCombat            EventType = "combat"
	EventUnitEliminated    EventType = "unit_eliminated"
	EventCaptured          EventType = "captured"
	EventTreasureCollected EventType = "treasure_collected"
	EventTreasureSpawned   EventType = "treasure_spawned"
	EventUnitPurchased     EventType = "unit_purchased"
	EventUpgraded          EventType = "upgraded"
	EventMatchConcluded    EventType = "match_concluded"
)

// Event is one entry of the match journal. Presentation layers replay the
// journal to animate what happened during a command, including opponent turns.
type Event struct {
	Type    EventType      `json:"type"`
	Turn    int            `json:"turn"`
	Faction FactionID      `json:"faction,omitempty"`
	Unit    UnitID         `json:"unit,omitempty"`
	From    *Coord         `json:"from,omitempty"`
	To      *Coord         `json:"to,omitempty"`
	Amount  int            `json:"amount,omitempty"`
	Combat  *CombatOutcome `json:"combat,omitempty"`
	Outcome Outcome        `json:"outcome,omitempty"`
}

// DisableJournal stops recording events. Headless batch runs that never
// drain the journal use it to keep memory flat.
func (m *Match) DisableJournal() {
	m.noJournal = true
	m.events = nil
}

// DrainEvents returns the events recorded since the last drain and clears
// the journal.
func (m *Match) DrainEvents() []Event {
	out := m.events
	m.events = nil
	return out
}

func (m *Match) record(e Event) {
	if m.noJournal {
		return
	}
	e.Turn = m.turn
	m.events = append(m.events, e)
}

func coordPtr(c Coord) *Coord {
	return &c
}
