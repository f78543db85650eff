package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/stormhaven/arena/pkg/dbx"
)

// Catalog is the process-wide, read-only lookup for unit types and field
// presets (spec §4.1). Rows are loaded once from the database and cached —
// they are immutable for the lifetime of a match, so nothing here is
// reloaded on the request path.
type Catalog struct {
	db *sql.DB

	mu        sync.RWMutex
	unitTypes map[int]UnitType
	fields    map[string]FieldPreset
}

// New constructs a Catalog bound to db. Call Refresh once before serving
// traffic to populate the cache.
func New(db *sql.DB) *Catalog {
	return &Catalog{
		db:        db,
		unitTypes: make(map[int]UnitType),
		fields:    make(map[string]FieldPreset),
	}
}

// LookupUnitType returns the catalog entry for id.
func (c *Catalog) LookupUnitType(id int) (UnitType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ut, ok := c.unitTypes[id]
	return ut, ok
}

// LookupField returns the named field preset.
func (c *Catalog) LookupField(name string) (FieldPreset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.fields[name]
	return f, ok
}

// Refresh reloads both tables from the database, replacing the cache
// atomically. Intended for test setup and for forcing a reload after the
// seed loader runs; the hot request path never calls this.
func (c *Catalog) Refresh(ctx context.Context) error {
	unitTypes, err := c.loadUnitTypes(ctx)
	if err != nil {
		return fmt.Errorf("catalog: load unit types: %w", err)
	}
	fields, err := c.loadFields(ctx)
	if err != nil {
		return fmt.Errorf("catalog: load fields: %w", err)
	}

	c.mu.Lock()
	c.unitTypes = unitTypes
	c.fields = fields
	c.mu.Unlock()
	return nil
}

func (c *Catalog) loadUnitTypes(ctx context.Context) (map[int]UnitType, error) {
	query, args, err := dbx.ST.Select(
		"id", "name", "base_damage", "defense", "max_hp", "movement_range",
		"attack_range", "initiative", "flying", "kamikaze", "dodge_chance",
		"crit_chance", "luck", "counter_attack_chance", "effective_against",
	).From("units").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]UnitType)
	for rows.Next() {
		var ut UnitType
		var effectiveAgainst sql.NullInt64
		if err := rows.Scan(
			&ut.ID, &ut.Name, &ut.BaseDamage, &ut.Defense, &ut.MaxHP,
			&ut.MovementRange, &ut.AttackRange, &ut.Initiative, &ut.Flying,
			&ut.Kamikaze, &ut.DodgeChance, &ut.CritChance, &ut.Luck,
			&ut.CounterAttackChance, &effectiveAgainst,
		); err != nil {
			return nil, err
		}
		if effectiveAgainst.Valid {
			ut.EffectiveAgainst = int(effectiveAgainst.Int64)
		}
		out[ut.ID] = ut
	}
	return out, rows.Err()
}

func (c *Catalog) loadFields(ctx context.Context) (map[string]FieldPreset, error) {
	query, args, err := dbx.ST.Select("name", "width", "height").From("fields").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]FieldPreset)
	for rows.Next() {
		var f FieldPreset
		if err := rows.Scan(&f.Name, &f.Width, &f.Height); err != nil {
			return nil, err
		}
		out[f.Name] = f
	}
	return out, rows.Err()
}
