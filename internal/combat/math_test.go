package combat

import (
	"database/sql"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/require"

	"github.com/stormhaven/arena/internal/arena"
	"github.com/stormhaven/arena/internal/board"
	"github.com/stormhaven/arena/internal/catalog"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE units (
			id INTEGER PRIMARY KEY, name TEXT NOT NULL, base_damage INTEGER NOT NULL,
			defense INTEGER NOT NULL, max_hp INTEGER NOT NULL, movement_range INTEGER NOT NULL,
			attack_range INTEGER NOT NULL, initiative INTEGER NOT NULL, flying INTEGER NOT NULL,
			kamikaze INTEGER NOT NULL, dodge_chance REAL NOT NULL, crit_chance REAL NOT NULL,
			luck REAL NOT NULL, counter_attack_chance REAL NOT NULL, effective_against INTEGER
		);
		CREATE TABLE fields (name TEXT PRIMARY KEY, width INTEGER NOT NULL, height INTEGER NOT NULL);
	`)
	require.NoError(t, err)
	return db
}

func insertUnitType(t *testing.T, db *sql.DB, ut catalog.UnitType) {
	t.Helper()
	var effectiveAgainst any
	if ut.EffectiveAgainst != 0 {
		effectiveAgainst = ut.EffectiveAgainst
	}
	_, err := db.Exec(`INSERT INTO units (
		id, name, base_damage, defense, max_hp, movement_range, attack_range,
		initiative, flying, kamikaze, dodge_chance, crit_chance, luck,
		counter_attack_chance, effective_against
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ut.ID, ut.Name, ut.BaseDamage, ut.Defense, ut.MaxHP, ut.MovementRange,
		ut.AttackRange, ut.Initiative, ut.Flying, ut.Kamikaze, ut.DodgeChance,
		ut.CritChance, ut.Luck, ut.CounterAttackChance, effectiveAgainst)
	require.NoError(t, err)
}

func newCatalog(t *testing.T, types ...catalog.UnitType) *catalog.Catalog {
	t.Helper()
	db := openTestDB(t)
	for _, ut := range types {
		insertUnitType(t, db, ut)
	}
	c := catalog.New(db)
	require.NoError(t, c.Refresh(t.Context()))
	return c
}

// fakeRNG always returns the same draw, so every Bernoulli check in the
// package under test (d < chance) is forced to a known outcome.
type fakeRNG float64

func (f fakeRNG) Float64() float64 { return float64(f) }

// alwaysFailRNG never satisfies `draw < chance` for any chance in [0,1].
func alwaysFailRNG() Source { return fakeRNG(1.0) }

// alwaysSucceedRNG satisfies `draw < chance` for any chance > 0.
func alwaysSucceedRNG() Source { return fakeRNG(0.0) }

func TestScenarioA_MeleeKillNoCounter(t *testing.T) {
	cat := newCatalog(t,
		catalog.UnitType{ID: 1, Name: "Swordsman", BaseDamage: 10, MaxHP: 10, Initiative: 8},
		catalog.UnitType{ID: 2, Name: "Archer", BaseDamage: 1, Defense: 0, MaxHP: 5, Initiative: 1},
	)
	attacker := &arena.Stack{ID: 1, PlayerID: 1, UnitTypeID: 1, Count: 5, RemainingHP: 10, Pos: board.Position{X: 1, Y: 1}}
	target := &arena.Stack{ID: 2, PlayerID: 2, UnitTypeID: 2, Count: 1, RemainingHP: 5, Pos: board.Position{X: 2, Y: 1}}
	match := arena.Match{ID: "m", Player1ID: 1, Player2ID: 2, Width: 5, Height: 5}
	st := arena.NewState(match, []*arena.Stack{attacker, target}, nil, cat, 1)

	out := ResolveAttack(st, alwaysFailRNG(), attacker, target)

	require.False(t, out.Dodge)
	require.False(t, out.Crit)
	require.Equal(t, 1, out.Killed)
	require.Equal(t, 0, target.Count)
	require.Nil(t, out.Counter)
}

func TestScenarioB_Dodge(t *testing.T) {
	cat := newCatalog(t,
		catalog.UnitType{ID: 1, Name: "Swordsman", BaseDamage: 10, MaxHP: 10},
		catalog.UnitType{ID: 2, Name: "Archer", MaxHP: 5, DodgeChance: 1.0},
	)
	attacker := &arena.Stack{ID: 1, PlayerID: 1, UnitTypeID: 1, Count: 5, RemainingHP: 10, Pos: board.Position{X: 1, Y: 1}}
	target := &arena.Stack{ID: 2, PlayerID: 2, UnitTypeID: 2, Count: 1, RemainingHP: 5, Pos: board.Position{X: 2, Y: 1}}
	match := arena.Match{ID: "m", Player1ID: 1, Player2ID: 2, Width: 5, Height: 5}
	st := arena.NewState(match, []*arena.Stack{attacker, target}, nil, cat, 1)

	out := ResolveAttack(st, alwaysSucceedRNG(), attacker, target)

	require.True(t, out.Dodge)
	require.Equal(t, 0, out.Damage)
	require.Equal(t, 0, out.Killed)
	require.Equal(t, 1, target.Count)
}

func TestScenarioC_CounterSkippedWhenTargetDies(t *testing.T) {
	cat := newCatalog(t,
		catalog.UnitType{ID: 1, Name: "A", BaseDamage: 10, MaxHP: 10},
		catalog.UnitType{ID: 2, Name: "B", BaseDamage: 10, MaxHP: 10, CounterAttackChance: 1.0},
	)
	attacker := &arena.Stack{ID: 1, PlayerID: 1, UnitTypeID: 1, Count: 3, RemainingHP: 10, Pos: board.Position{X: 1, Y: 1}}
	target := &arena.Stack{ID: 2, PlayerID: 2, UnitTypeID: 2, Count: 3, RemainingHP: 10, Pos: board.Position{X: 2, Y: 1}}
	match := arena.Match{ID: "m", Player1ID: 1, Player2ID: 2, Width: 5, Height: 5}
	st := arena.NewState(match, []*arena.Stack{attacker, target}, nil, cat, 1)

	out := ResolveAttack(st, alwaysFailRNG(), attacker, target)

	require.Equal(t, 3, out.Killed, "30 damage against hp 10 x3 kills all three")
	require.Equal(t, 0, target.Count)
	require.Nil(t, out.Counter, "target has count 0 when counter would resolve")
}

func TestScenarioE_KamikazeSelfDestructs(t *testing.T) {
	cat := newCatalog(t,
		catalog.UnitType{ID: 1, Name: "Bomb", BaseDamage: 1, MaxHP: 1, Kamikaze: true},
		catalog.UnitType{ID: 2, Name: "Target", Defense: 100, MaxHP: 10},
	)
	attacker := &arena.Stack{ID: 1, PlayerID: 1, UnitTypeID: 1, Count: 1, RemainingHP: 1, Pos: board.Position{X: 1, Y: 1}}
	target := &arena.Stack{ID: 2, PlayerID: 2, UnitTypeID: 2, Count: 5, RemainingHP: 10, Pos: board.Position{X: 2, Y: 1}}
	match := arena.Match{ID: "m", Player1ID: 1, Player2ID: 2, Width: 5, Height: 5}
	st := arena.NewState(match, []*arena.Stack{attacker, target}, nil, cat, 1)

	ResolveAttack(st, alwaysFailRNG(), attacker, target)

	require.Equal(t, 0, attacker.Count)
}

func TestKamikazeCannotReceiveCounterAfterSelfDestruct(t *testing.T) {
	cat := newCatalog(t,
		catalog.UnitType{ID: 1, Name: "Bomb", BaseDamage: 10, MaxHP: 1, Kamikaze: true},
		catalog.UnitType{ID: 2, Name: "Target", MaxHP: 10, CounterAttackChance: 1.0},
	)
	attacker := &arena.Stack{ID: 1, PlayerID: 1, UnitTypeID: 1, Count: 1, RemainingHP: 1, Pos: board.Position{X: 1, Y: 1}}
	target := &arena.Stack{ID: 2, PlayerID: 2, UnitTypeID: 2, Count: 1, RemainingHP: 10, Pos: board.Position{X: 2, Y: 1}}
	match := arena.Match{ID: "m", Player1ID: 1, Player2ID: 2, Width: 5, Height: 5}
	st := arena.NewState(match, []*arena.Stack{attacker, target}, nil, cat, 1)

	out := ResolveAttack(st, alwaysFailRNG(), attacker, target)

	require.Equal(t, 0, target.Count, "the attack itself kills the lone defender")
	require.Nil(t, out.Counter, "a dead target cannot counter-attack")
	require.Equal(t, 0, attacker.Count, "kamikaze decrement still fires and must not go negative")
}

func TestEndOfMatch_OneSideWipedOut(t *testing.T) {
	match := arena.Match{ID: "m", Player1ID: 1, Player2ID: 2, Width: 5, Height: 5, RoundNumber: 1}
	stacks := []*arena.Stack{
		{ID: 1, PlayerID: 1, Count: 0},
		{ID: 2, PlayerID: 2, Count: 3, RemainingHP: 5},
	}
	st := arena.NewState(match, stacks, nil, nil, 1)

	ended, winner, draw := CheckEndOfMatch(st)
	require.True(t, ended)
	require.False(t, draw)
	require.NotNil(t, winner)
	require.Equal(t, 2, *winner)
}

func TestEndOfMatch_RoundCapTieBreakerByTotalHP(t *testing.T) {
	cat := newCatalog(t, catalog.UnitType{ID: 1, Name: "X", MaxHP: 10})
	match := arena.Match{ID: "m", Player1ID: 1, Player2ID: 2, Width: 5, Height: 5, RoundNumber: SafetyCapRounds}
	stacks := []*arena.Stack{
		{ID: 1, PlayerID: 1, UnitTypeID: 1, Count: 2, RemainingHP: 10},
		{ID: 2, PlayerID: 2, UnitTypeID: 1, Count: 1, RemainingHP: 5},
	}
	st := arena.NewState(match, stacks, nil, cat, 1)

	ended, winner, draw := CheckEndOfMatch(st)
	require.True(t, ended)
	require.False(t, draw)
	require.Equal(t, 1, *winner, "player 1 has 20 total remaining hp vs player 2's 5")
}

func TestEndOfMatch_RoundCapExactTieIsDraw(t *testing.T) {
	cat := newCatalog(t, catalog.UnitType{ID: 1, Name: "X", MaxHP: 10})
	match := arena.Match{ID: "m", Player1ID: 1, Player2ID: 2, Width: 5, Height: 5, RoundNumber: SafetyCapRounds}
	stacks := []*arena.Stack{
		{ID: 1, PlayerID: 1, UnitTypeID: 1, Count: 1, RemainingHP: 7},
		{ID: 2, PlayerID: 2, UnitTypeID: 1, Count: 1, RemainingHP: 7},
	}
	st := arena.NewState(match, stacks, nil, cat, 1)

	ended, winner, draw := CheckEndOfMatch(st)
	require.True(t, ended)
	require.True(t, draw)
	require.Nil(t, winner)
}
