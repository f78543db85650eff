// Package action is the sole mutator of match state (spec §4.5). It
// validates one of four action variants against the Board and Initiative
// Scheduler, invokes Combat Math for attacks, and appends events for
// every successful transition.
package action

import (
	"github.com/stormhaven/arena/internal/apierr"
	"github.com/stormhaven/arena/internal/arena"
	"github.com/stormhaven/arena/internal/board"
	"github.com/stormhaven/arena/internal/combat"
	"github.com/stormhaven/arena/internal/eventlog"
	"github.com/stormhaven/arena/internal/initiative"
)

// Kind names the four action variants spec §4.5 accepts.
type Kind string

const (
	KindMove   Kind = "move"
	KindAttack Kind = "attack"
	KindSkip   Kind = "skip"
	KindDefer  Kind = "defer"
)

// Request is one submitted action (spec §6's action request body).
type Request struct {
	PlayerID int
	StackID  int
	Kind     Kind

	// RequestID is an optional client-supplied passthrough. Neither the
	// resolver nor the Session Registry reads it, nothing deduplicates on
	// it, and it is not echoed in the response.
	RequestID string

	TargetX  int
	TargetY  int
	TargetID int
}

// Result is a successful resolution: the match state has been mutated in
// place and new events appended to the log.
type Result struct {
	Events          []eventlog.Event
	TurnSwitched    bool
	MatchEnded      bool
	WinnerID        *int
	Draw            bool
	CurrentPlayerID int
}

// Resolve validates req against st and, if legal, applies it. On success
// it mutates st in place and appends events to log; on failure it returns
// a typed *apierr.Error and leaves st untouched.
func Resolve(st *arena.State, log *eventlog.Log, rng combat.Source, req Request) (*Result, error) {
	if st.Match.Status != arena.StatusActive {
		return nil, apierr.IllegalAction("match is not active")
	}
	if req.PlayerID != st.Match.CurrentActorID {
		return nil, apierr.Forbidden("caller is not the current actor")
	}

	stack, ok := st.StackByID(req.StackID)
	if !ok {
		return nil, apierr.NotFound("stack not found")
	}
	if stack.PlayerID != req.PlayerID {
		return nil, apierr.Forbidden("caller does not own the stack")
	}
	if !stack.Alive() {
		return nil, apierr.IllegalAction("stack has no living creatures")
	}
	if stack.HasActed {
		return nil, apierr.IllegalAction("stack has already acted this round")
	}

	var err error
	switch req.Kind {
	case KindMove:
		err = resolveMove(st, log, stack, req)
	case KindAttack:
		err = resolveAttack(st, log, rng, stack, req)
	case KindSkip:
		err = resolveSkip(st, log, stack)
	case KindDefer:
		err = resolveDefer(st, log, stack)
	default:
		return nil, apierr.IllegalAction("unknown action kind")
	}
	if err != nil {
		return nil, err
	}

	result := &Result{}

	// A wipeout is checked immediately, before the scheduler advances the
	// cursor onto a stack that may no longer have a legal actor.
	if ended, winnerID, draw := combat.CheckEndOfMatch(st); ended {
		if err := endMatch(st, log, result, winnerID, draw); err != nil {
			return nil, err
		}
		return result, nil
	}

	result.TurnSwitched = advanceScheduler(st, log)

	// Advancing the scheduler may have crossed the round-cap safety
	// threshold (spec §4.6); re-check now that the round number reflects
	// any boundary just crossed.
	if ended, winnerID, draw := combat.CheckEndOfMatch(st); ended {
		if err := endMatch(st, log, result, winnerID, draw); err != nil {
			return nil, err
		}
		return result, nil
	}

	result.Events = log.Events()
	result.CurrentPlayerID = st.Match.CurrentActorID
	return result, nil
}

func endMatch(st *arena.State, log *eventlog.Log, result *Result, winnerID *int, draw bool) error {
	st.Match.Status = arena.StatusCompleted
	st.Match.WinnerID = winnerID
	st.Match.Draw = draw

	if _, err := log.Append(eventlog.KindMatchEnded, "match ended", eventlog.MatchEndedPayload{
		WinnerID: winnerID,
		Draw:     draw,
	}); err != nil {
		return apierr.Internal("append match_ended event", err)
	}

	result.Events = log.Events()
	result.MatchEnded = true
	result.WinnerID = winnerID
	result.Draw = draw
	result.CurrentPlayerID = st.Match.CurrentActorID
	return nil
}

func resolveMove(st *arena.State, log *eventlog.Log, stack *arena.Stack, req Request) error {
	ut, ok := st.UnitType(stack)
	if !ok {
		return apierr.Internal("unit type not found for stack", nil)
	}

	target := board.Position{X: req.TargetX, Y: req.TargetY}
	if !st.Board.InBounds(target) {
		return apierr.IllegalAction("target is out of bounds")
	}
	if st.Board.IsOccupied(target) {
		return apierr.IllegalAction("target cell is occupied")
	}
	if !ut.Flying && st.Board.IsObstacle(target) {
		return apierr.IllegalAction("target cell is an obstacle")
	}

	reachable := st.Board.Reach(stack.Pos, ut.MovementRange, ut.Flying)
	if !containsPosition(reachable, target) {
		return apierr.IllegalAction("target is outside the stack's reach")
	}

	from := stack.Pos
	stack.Pos = target
	stack.HasActed = true

	_, err := log.Append(eventlog.KindMove, "stack moved", eventlog.MovePayload{
		StackID: stack.ID,
		FromX:   from.X,
		FromY:   from.Y,
		ToX:     target.X,
		ToY:     target.Y,
	})
	return err
}

func resolveAttack(st *arena.State, log *eventlog.Log, rng combat.Source, stack *arena.Stack, req Request) error {
	target, ok := st.StackByID(req.TargetID)
	if !ok {
		return apierr.NotFound("target stack not found")
	}
	if target.PlayerID == stack.PlayerID {
		return apierr.IllegalAction("cannot attack own stack")
	}
	if !target.Alive() {
		return apierr.IllegalAction("target stack has no living creatures")
	}

	attackerType, ok := st.UnitType(stack)
	if !ok {
		return apierr.Internal("unit type not found for attacker", nil)
	}
	if !board.InAttackRange(stack.Pos, target.Pos, attackerType.AttackRange) {
		return apierr.IllegalAction("target is out of attack range")
	}

	out := combat.ResolveAttack(st, rng, stack, target)
	stack.HasActed = true

	payload := eventlog.AttackPayload{
		AttackerID:           out.AttackerID,
		TargetID:             out.TargetID,
		Damage:               out.Damage,
		Crit:                 out.Crit,
		Lucky:                out.Lucky,
		Dodge:                out.Dodge,
		Killed:               out.Killed,
		TargetSurvivingCount: out.TargetSurvivingCount,
		TargetSurvivingHP:    out.TargetSurvivingHP,
		AttackerKamikazeDead: attackerType.Kamikaze && stack.Count == 0,
	}
	if out.Counter != nil {
		payload.Counter = &eventlog.AttackCounterPayload{
			AttackerID:           out.Counter.AttackerID,
			TargetID:             out.Counter.TargetID,
			Damage:               out.Counter.Damage,
			Crit:                 out.Counter.Crit,
			Lucky:                out.Counter.Lucky,
			Dodge:                out.Counter.Dodge,
			Killed:               out.Counter.Killed,
			TargetSurvivingCount: out.Counter.TargetSurvivingCount,
			TargetSurvivingHP:    out.Counter.TargetSurvivingHP,
		}
	}

	_, err := log.Append(eventlog.KindAttack, "attack resolved", payload)
	return err
}

func resolveSkip(st *arena.State, log *eventlog.Log, stack *arena.Stack) error {
	initiative.Skip(stack)
	_, err := log.Append(eventlog.KindSkip, "stack skipped", eventlog.SkipPayload{StackID: stack.ID})
	return err
}

func resolveDefer(st *arena.State, log *eventlog.Log, stack *arena.Stack) error {
	if stack.Deferred {
		return apierr.IllegalAction("stack has already deferred this round")
	}
	initiative.Defer(stack)
	_, err := log.Append(eventlog.KindDefer, "stack deferred", eventlog.DeferPayload{StackID: stack.ID})
	return err
}

// advanceScheduler advances the current actor cursor, emitting
// round_advanced if the round just ended, and returns whether the
// current-actor player changed.
func advanceScheduler(st *arena.State, log *eventlog.Log) bool {
	previousActor := st.Match.CurrentActorID
	roundRolled := false

	if initiative.RoundComplete(st) {
		initiative.StartRound(st)
		roundRolled = true
		_, _ = log.Append(eventlog.KindRoundAdvanced, "round advanced", eventlog.RoundAdvancedPayload{
			RoundNumber: st.Match.RoundNumber,
		})
	}

	next, ok := initiative.Current(st)
	if ok {
		st.Match.CurrentActorID = next.PlayerID
	}

	if !roundRolled && ok {
		_, _ = log.Append(eventlog.KindTurnAdvanced, "turn advanced", eventlog.TurnAdvancedPayload{
			NextStackID:  next.ID,
			NextPlayerID: next.PlayerID,
		})
	}

	return st.Match.CurrentActorID != previousActor
}

func containsPosition(positions []board.Position, target board.Position) bool {
	for _, p := range positions {
		if p.Equals(target) {
			return true
		}
	}
	return false
}
