// Package arena is the in-memory Match State (spec §3, §4.3): a pure
// value type assembled from persisted rows, with read-only accessors. It
// has no mutating methods; the Action Resolver (internal/action) sets
// fields directly and appends an event for each change it makes.
package arena

import (
	"strconv"
	"time"

	"github.com/stormhaven/arena/internal/board"
	"github.com/stormhaven/arena/internal/catalog"
)

// Status is the lifecycle phase of a Match.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Stack is a group of identical creatures belonging to one player on one
// cell (spec §3 "Stack (battle unit)").
type Stack struct {
	ID         int
	PlayerID   int
	UnitTypeID int
	Pos        board.Position
	Count      int
	RemainingHP int

	HasActed bool
	Deferred bool

	// CounterAttackedThisRound gates the once-per-round counter-attack
	// rule (spec §4.6); cleared at every round boundary alongside
	// HasActed and Deferred.
	CounterAttackedThisRound bool

	// Morale and Fatigue are opaque accumulators: read and persisted
	// unchanged, with no effect on combat (spec §9).
	Morale  int
	Fatigue int
}

// Alive reports whether the stack still has living creatures.
func (s *Stack) Alive() bool {
	return s.Count > 0
}

// Match is a single battle between two players (spec §3 "Match").
type Match struct {
	ID            string
	Player1ID     int
	Player2ID     int
	FieldName     string
	Width         int
	Height        int
	Status        Status
	CurrentActorID int
	WinnerID      *int
	Draw          bool
	RoundNumber   int
	// Seed is the per-match PRNG seed, persisted once at activation and
	// never regenerated; replay determinism (P4) depends on reusing it.
	Seed int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// State is the full in-memory snapshot the Action Resolver, Initiative
// Scheduler and Combat Math operate against. It is discarded at the end
// of every request — nothing here survives beyond one critical section.
type State struct {
	Match     Match
	Stacks    []*Stack
	Obstacles []board.Position
	Board     *board.Board
	Catalog   *catalog.Catalog

	// NextOrdinal is the ordinal the next appended event will receive
	// (spec §3 "Event": ordinals are strictly increasing per match).
	NextOrdinal int
}

// NewState builds a State from already-loaded rows and wires up the
// geometry the Board needs to answer reach/occupancy queries.
func NewState(match Match, stacks []*Stack, obstacles []board.Position, cat *catalog.Catalog, nextOrdinal int) *State {
	occupants := make(map[board.Position]string, len(stacks))
	for _, s := range stacks {
		if s.Alive() {
			occupants[s.Pos] = stackKey(s.ID)
		}
	}

	return &State{
		Match:       match,
		Stacks:      stacks,
		Obstacles:   obstacles,
		Board:       board.NewBoard(match.Width, match.Height, obstacles, occupants),
		Catalog:     cat,
		NextOrdinal: nextOrdinal,
	}
}

func stackKey(id int) string {
	return "stack:" + strconv.Itoa(id)
}

// StackByID returns the stack with the given id, if present.
func (st *State) StackByID(id int) (*Stack, bool) {
	for _, s := range st.Stacks {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// StacksOf returns every stack — living or dead — owned by playerID.
func (st *State) StacksOf(playerID int) []*Stack {
	out := make([]*Stack, 0, len(st.Stacks))
	for _, s := range st.Stacks {
		if s.PlayerID == playerID {
			out = append(out, s)
		}
	}
	return out
}

// StackAt returns the living stack occupying cell pos, if any.
func (st *State) StackAt(pos board.Position) (*Stack, bool) {
	for _, s := range st.Stacks {
		if s.Alive() && s.Pos.Equals(pos) {
			return s, true
		}
	}
	return nil, false
}

// LivingStacks returns every stack with Count > 0.
func (st *State) LivingStacks() []*Stack {
	out := make([]*Stack, 0, len(st.Stacks))
	for _, s := range st.Stacks {
		if s.Alive() {
			out = append(out, s)
		}
	}
	return out
}

// OpposingStacks returns the living stacks NOT owned by playerID.
func (st *State) OpposingStacks(playerID int) []*Stack {
	out := make([]*Stack, 0, len(st.Stacks))
	for _, s := range st.Stacks {
		if s.Alive() && s.PlayerID != playerID {
			out = append(out, s)
		}
	}
	return out
}

// UnitType resolves a stack's catalog entry.
func (st *State) UnitType(s *Stack) (catalog.UnitType, bool) {
	return st.Catalog.LookupUnitType(s.UnitTypeID)
}
