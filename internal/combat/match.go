package combat

import "github.com/stormhaven/arena/internal/arena"

// SafetyCapRounds is the default round-count ceiling after which a match
// is force-completed (spec §4.6 "End-of-match check").
const SafetyCapRounds = 200

// TotalRemainingHP sums the remaining hit points of every living stack
// owned by playerID: the front creature's remaining_hp plus a full
// max_hp for every other living creature in the stack.
func TotalRemainingHP(st *arena.State, playerID int) int {
	total := 0
	for _, s := range st.StacksOf(playerID) {
		if !s.Alive() {
			continue
		}
		ut, _ := st.UnitType(s)
		total += s.RemainingHP + (s.Count-1)*ut.MaxHP
	}
	return total
}

// CheckEndOfMatch reports whether st should terminate, and if so who won.
// draw is true when neither side has a living stack left, or when the
// safety-cap tie-breaker finds exactly equal total remaining HP on both
// sides — a documented, tested design decision (spec §9 "Open
// questions" — round-cap tie-breaker).
func CheckEndOfMatch(st *arena.State) (ended bool, winnerID *int, draw bool) {
	p1Alive, p2Alive := 0, 0
	for _, s := range st.LivingStacks() {
		switch s.PlayerID {
		case st.Match.Player1ID:
			p1Alive++
		case st.Match.Player2ID:
			p2Alive++
		}
	}

	switch {
	case p1Alive == 0 && p2Alive == 0:
		return true, nil, true
	case p1Alive == 0:
		winner := st.Match.Player2ID
		return true, &winner, false
	case p2Alive == 0:
		winner := st.Match.Player1ID
		return true, &winner, false
	}

	if st.Match.RoundNumber >= SafetyCapRounds {
		p1HP := TotalRemainingHP(st, st.Match.Player1ID)
		p2HP := TotalRemainingHP(st, st.Match.Player2ID)
		switch {
		case p1HP > p2HP:
			winner := st.Match.Player1ID
			return true, &winner, false
		case p2HP > p1HP:
			winner := st.Match.Player2ID
			return true, &winner, false
		default:
			return true, nil, true
		}
	}

	return false, nil, false
}

// Surrender returns the winner when surrenderingPlayer surrenders: the
// other player of the match. It only computes the winner; st is not
// modified.
func Surrender(st *arena.State, surrenderingPlayer int) int {
	if surrenderingPlayer == st.Match.Player1ID {
		return st.Match.Player2ID
	}
	return st.Match.Player1ID
}
