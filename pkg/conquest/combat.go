package conquest

// CombatOutcome describes one resolved attack.
type CombatOutcome struct {
	Policy        CombatPolicy `json:"policy"`
	Attacker      UnitID       `json:"attacker"`
	Defender      UnitID       `json:"defender"`
	AttackerPower float64      `json:"attacker_power"`
	DefenderPower float64      `json:"defender_power"`
	Damage        int          `json:"damage"`
	Winner        UnitID       `json:"winner,omitempty"`     // zero on a tie
	Eliminated    UnitID       `json:"eliminated,omitempty"` // zero when both survive
}

// resolveCombat applies damage to the loser and reports who, if anyone, must
// be removed. It does not touch the garrison.
func (m *Match) resolveCombat(att, def *Unit) CombatOutcome {
	out := CombatOutcome{
		Policy:        m.rules.Combat,
		Attacker:      att.ID,
		Defender:      def.ID,
		AttackerPower: float64(att.Power()) / 100,
		DefenderPower: float64(def.Power()) / 100,
	}

	if m.rules.Combat == CombatTakeover {
		out.Damage = def.Health
		def.Health = 0
		out.Winner = att.ID
		out.Eliminated = def.ID
		return out
	}

	pa, pd := att.Power(), def.Power()
	var winner, loser *Unit
	switch {
	case pa > pd:
		winner, loser = att, def
	case pd > pa:
		winner, loser = def, att
	default:
		// Tie: the defender holds and nobody is hurt.
		return out
	}

	// Damage is twice the power differential, rounded up so any strict
	// advantage costs the loser health.
	diff := abs(pa - pd)
	out.Damage = (2*diff + 99) / 100
	loser.Health -= out.Damage
	out.Winner = winner.ID
	if loser.Health <= 0 {
		loser.Health = 0
		out.Eliminated = loser.ID
	}
	return out
}
