// Package combat implements damage, dodge, crit, luck, counter-attack and
// kamikaze resolution (spec §4.6), plus the end-of-match winner check.
package combat

import (
	"github.com/stormhaven/arena/internal/arena"
	"github.com/stormhaven/arena/internal/board"
	"github.com/stormhaven/arena/internal/catalog"
)

// AttackOutcome is one damage pass: either the original attack or the
// (optional) reverse counter-attack pass. It mirrors the structured
// payload spec §4.5 requires an `attack` event to carry.
type AttackOutcome struct {
	AttackerID int
	TargetID   int

	Damage int
	Crit   bool
	Lucky  bool
	Dodge  bool

	Killed               int
	TargetSurvivingCount int
	TargetSurvivingHP    int

	// Counter is the reverse damage pass triggered by the defender, or
	// nil if no counter-attack was attempted or rolled.
	Counter *AttackOutcome
}

// ResolveAttack resolves one attack action: the primary damage pass, an
// optional counter-attack, and the kamikaze self-decrement. attacker and
// target are mutated in place.
func ResolveAttack(st *arena.State, rng Source, attacker, target *arena.Stack) *AttackOutcome {
	attackerType, _ := st.UnitType(attacker)
	targetType, _ := st.UnitType(target)

	out := applyDamagePass(rng, attackerType, attacker, targetType, target)
	out.AttackerID = attacker.ID
	out.TargetID = target.ID

	// The kamikaze decrement follows the primary pass and precedes the
	// counter-attack, so an attacker it destroys cannot be countered.
	if attackerType.Kamikaze && attacker.Count > 0 {
		attacker.Count--
		if attacker.Count == 0 {
			attacker.RemainingHP = 0
		}
	}

	melee := board.Chebyshev(attacker.Pos, target.Pos) == 1
	if melee && target.Alive() && attacker.Alive() && !target.CounterAttackedThisRound {
		k := rng.Float64()
		if k < targetType.CounterAttackChance {
			target.CounterAttackedThisRound = true
			counter := applyDamagePass(rng, targetType, target, attackerType, attacker)
			counter.AttackerID = target.ID
			counter.TargetID = attacker.ID
			out.Counter = counter
		}
	}

	// Record the target's figures as they stand once the whole exchange
	// is resolved.
	out.TargetSurvivingCount = target.Count
	out.TargetSurvivingHP = target.RemainingHP

	return out
}

// applyDamagePass resolves one directional damage roll: dodge, base
// damage, effectiveness, crit, luck, defense, and application to the
// target's creatures. It never triggers a nested counter-attack — the
// caller is responsible for that.
func applyDamagePass(rng Source, attackerType catalog.UnitType, attacker *arena.Stack, targetType catalog.UnitType, target *arena.Stack) *AttackOutcome {
	if rng.Float64() < targetType.DodgeChance {
		return &AttackOutcome{
			Dodge:                true,
			TargetSurvivingCount: target.Count,
			TargetSurvivingHP:    target.RemainingHP,
		}
	}

	damage := float64(attackerType.BaseDamage * attacker.Count)
	if attackerType.EffectiveAgainst != 0 && attackerType.EffectiveAgainst == targetType.ID {
		damage *= 1.5
	}

	crit := rng.Float64() < attackerType.CritChance
	if crit {
		damage *= 2
	}

	lucky := rng.Float64() < attackerType.Luck
	if lucky {
		damage *= 1.25
	}

	effective := damage - float64(targetType.Defense*target.Count)
	if effective < 0 {
		effective = 0
	}

	killed := applyDamageToStack(target, targetType, int(effective))

	return &AttackOutcome{
		Damage:               int(effective),
		Crit:                 crit,
		Lucky:                lucky,
		Killed:               killed,
		TargetSurvivingCount: target.Count,
		TargetSurvivingHP:    target.RemainingHP,
	}
}

// applyDamageToStack applies damage to target's front creature, spilling
// remainder to subsequent creatures at full max HP each (spec §4.6
// "Application to target"). Returns the number of creatures killed.
func applyDamageToStack(target *arena.Stack, targetType catalog.UnitType, damage int) int {
	count := target.Count
	hp := target.RemainingHP
	killed := 0

	for damage > 0 && count > 0 {
		if damage < hp {
			hp -= damage
			damage = 0
			continue
		}
		damage -= hp
		killed++
		count--
		if count > 0 {
			hp = targetType.MaxHP
		} else {
			hp = 0
		}
	}

	target.Count = count
	target.RemainingHP = hp
	return killed
}
