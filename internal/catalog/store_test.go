package catalog

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/require"

	"github.com/stormhaven/arena/internal/catalog/seed"
)

func openTestDB(t *testing.T) *sql.DB {
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

func TestCatalog(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, seed.Load(ctx, db))

	c := New(db)
	require.NoError(t, c.Refresh(ctx))

	t.Run("lookup unit type by id", func(t *testing.T) {
		ut, ok := c.LookupUnitType(1)
		require.True(t, ok)
		require.Equal(t, "Militia", ut.Name)
		require.Greater(t, ut.MaxHP, 0)
	})

	t.Run("unknown unit type is absent", func(t *testing.T) {
		_, ok := c.LookupUnitType(9999)
		require.False(t, ok)
	})

	t.Run("lookup field preset by name", func(t *testing.T) {
		f, ok := c.LookupField("5x5")
		require.True(t, ok)
		require.Equal(t, 5, f.Width)
		require.Equal(t, 5, f.Height)
	})

	t.Run("effective against reference resolves", func(t *testing.T) {
		giant, ok := c.LookupUnitType(5)
		require.True(t, ok)
		require.Equal(t, 1, giant.EffectiveAgainst)

		militia, ok := c.LookupUnitType(1)
		require.True(t, ok)
		require.Equal(t, 0, militia.EffectiveAgainst)
	})

	t.Run("refresh reloads without duplication", func(t *testing.T) {
		require.NoError(t, c.Refresh(ctx))
		ut, ok := c.LookupUnitType(1)
		require.True(t, ok)
		require.Equal(t, "Militia", ut.Name)
	})
}
