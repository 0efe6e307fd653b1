package conquest

// CombatOutcome reports one resolved attack. AttackerNewQ/R are set
// only when the attacker advanced into the defender's tile.
type CombatOutcome struct {
	AttackerHP       int
	DefenderHP       int
	DamageToAttacker int
	DamageToDefender int
	AttackerDied     bool
	DefenderDied     bool
	AttackerNewQ     *int
	AttackerNewR     *int
	CapturedCity     *City
	EliminatedPlayer string
}

// IsUnitGarrisoned reports whether the unit stands on a city it owns.
func (g *Game) IsUnitGarrisoned(u *Unit) bool {
	city := g.CityAt(u.Q, u.R)
	return city != nil && city.OwnerID == u.OwnerID
}

// EffectiveDefense is the unit's defense with the garrison bonus of
// half again applied when it holds one of its own cities.
func (g *Game) EffectiveDefense(u *Unit) int {
	d := u.Defense()
	if g.IsUnitGarrisoned(u) {
		d += d / 2
	}
	return d
}

// ResolveCombat resolves a melee attack between adjacent units. The
// defender takes full damage scaled down by its effective defense; the
// attacker takes half damage back. Attacking consumes all remaining
// movement. If only the defender dies the attacker advances into the
// vacated tile and captures any city there.
func (g *Game) ResolveCombat(attackerID, defenderID string) (CombatOutcome, error) {
	attacker := g.UnitByID(attackerID)
	if attacker == nil {
		return CombatOutcome{}, ErrAttackerNotFound
	}
	defender := g.UnitByID(defenderID)
	if defender == nil {
		return CombatOutcome{}, ErrDefenderNotFound
	}

	if HexDistance(attacker.Q, attacker.R, defender.Q, defender.R) != 1 {
		return CombatOutcome{}, ErrAttackNotAdjacent
	}
	if attacker.MovementRemaining <= 0 {
		return CombatOutcome{}, ErrNoAttackMovement
	}

	defDefense := g.EffectiveDefense(defender)
	damageToDefender := attacker.Attack() * 30 / (30 + defDefense)
	damageToAttacker := defender.Attack() * 30 / (30 + attacker.Defense()) / 2

	defender.HP = max(defender.HP-damageToDefender, 0)
	attacker.HP = max(attacker.HP-damageToAttacker, 0)
	attacker.MovementRemaining = 0

	outcome := CombatOutcome{
		AttackerHP:       attacker.HP,
		DefenderHP:       defender.HP,
		DamageToAttacker: damageToAttacker,
		DamageToDefender: damageToDefender,
		AttackerDied:     attacker.HP == 0,
		DefenderDied:     defender.HP == 0,
	}

	defQ, defR := defender.Q, defender.R
	attackerOwner := attacker.OwnerID

	if outcome.DefenderDied {
		g.removeUnit(defenderID)
	}
	if outcome.AttackerDied {
		g.removeUnit(attackerID)
	}

	if outcome.DefenderDied && !outcome.AttackerDied {
		attacker = g.UnitByID(attackerID)
		attacker.Q = defQ
		attacker.R = defR
		q, r := defQ, defR
		outcome.AttackerNewQ = &q
		outcome.AttackerNewR = &r

		outcome.CapturedCity, outcome.EliminatedPlayer = g.tryCapture(defQ, defR, attackerOwner)
	}

	return outcome, nil
}

func (g *Game) removeUnit(id string) {
	for i := range g.Units {
		if g.Units[i].ID == id {
			g.Units = append(g.Units[:i], g.Units[i+1:]...)
			return
		}
	}
}
