// Package initiative orders stack activations within a round (spec §4.4).
package initiative

import (
	"sort"

	"github.com/stormhaven/arena/internal/arena"
)

// Order returns the living stacks of st in activation order for the
// current round:
//  1. unit_type.initiative descending,
//  2. unit_type.identifier ascending (stable tiebreak),
//  3. stack.identifier ascending (stable tiebreak).
//
// Deferred stacks are moved to the end, in their original relative order,
// except that if every remaining stack has deferred this round the one
// earliest in the original order acts next — defer never deadlocks.
func Order(st *arena.State) []*arena.Stack {
	living := st.LivingStacks()

	base := make([]*arena.Stack, len(living))
	copy(base, living)
	sort.SliceStable(base, func(i, j int) bool {
		a, b := base[i], base[j]
		uaInit, uaID := initiativeOf(st, a)
		ubInit, ubID := initiativeOf(st, b)
		if uaInit != ubInit {
			return uaInit > ubInit
		}
		if uaID != ubID {
			return uaID < ubID
		}
		return a.ID < b.ID
	})

	notDeferred := make([]*arena.Stack, 0, len(base))
	deferred := make([]*arena.Stack, 0, len(base))
	for _, s := range base {
		if s.Deferred {
			deferred = append(deferred, s)
		} else {
			notDeferred = append(notDeferred, s)
		}
	}

	// Both slices preserve the stable original-order partition of base, so
	// when every not-yet-acted stack happens to be deferred, the earliest
	// of them in original order still surfaces first here — defer cannot
	// deadlock the round.
	return append(notDeferred, deferred...)
}

func initiativeOf(st *arena.State, s *arena.Stack) (initiative int, unitTypeID int) {
	ut, ok := st.UnitType(s)
	if !ok {
		return 0, s.UnitTypeID
	}
	return ut.Initiative, ut.ID
}

// Current returns the next stack that has not yet acted this round, in
// activation order, and the player who owns it. Reports ok=false when
// every living stack has acted (the round is over).
func Current(st *arena.State) (stack *arena.Stack, ok bool) {
	for _, s := range Order(st) {
		if !s.HasActed {
			return s, true
		}
	}
	return nil, false
}

// RoundComplete reports whether no living stack remains to act this round.
func RoundComplete(st *arena.State) bool {
	_, ok := Current(st)
	return !ok
}

// StartRound clears HasActed, Deferred and CounterAttackedThisRound on
// every living stack, and advances the round counter. Called when a round
// boundary is crossed (spec §4.4 "Round advancement").
func StartRound(st *arena.State) {
	st.Match.RoundNumber++
	for _, s := range st.LivingStacks() {
		s.HasActed = false
		s.Deferred = false
		s.CounterAttackedThisRound = false
	}
}

// Defer moves stack to the end of the current round's remaining queue by
// setting its Deferred flag. Refused by the caller (Action Resolver) if
// the stack is already deferred.
func Defer(s *arena.Stack) {
	s.Deferred = true
}

// Skip marks stack as having acted without movement or combat.
func Skip(s *arena.Stack) {
	s.HasActed = true
}
