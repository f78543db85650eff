package initiative

import (
	"database/sql"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/require"

	"github.com/stormhaven/arena/internal/catalog"
)

func openCatalogTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE units (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			base_damage INTEGER NOT NULL,
			defense INTEGER NOT NULL,
			max_hp INTEGER NOT NULL,
			movement_range INTEGER NOT NULL,
			attack_range INTEGER NOT NULL,
			initiative INTEGER NOT NULL,
			flying INTEGER NOT NULL,
			kamikaze INTEGER NOT NULL,
			dodge_chance REAL NOT NULL,
			crit_chance REAL NOT NULL,
			luck REAL NOT NULL,
			counter_attack_chance REAL NOT NULL,
			effective_against INTEGER
		);
		CREATE TABLE fields (
			name TEXT PRIMARY KEY,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL
		);
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
	_, err := db.Exec(`
		INSERT INTO units (
			id, name, base_damage, defense, max_hp, movement_range,
			attack_range, initiative, flying, kamikaze, dodge_chance,
			crit_chance, luck, counter_attack_chance, effective_against
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ut.ID, ut.Name, ut.BaseDamage, ut.Defense, ut.MaxHP, ut.MovementRange,
		ut.AttackRange, ut.Initiative, ut.Flying, ut.Kamikaze, ut.DodgeChance,
		ut.CritChance, ut.Luck, ut.CounterAttackChance, effectiveAgainst,
	)
	require.NoError(t, err)
}
