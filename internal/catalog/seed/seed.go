// Package seed carries the catalog's default roster of unit types and
// field presets as an embedded JSON fixture, and loads it into the
// database the first time a deployment runs.
package seed

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stormhaven/arena/pkg/dbx"
)

//go:embed seed.json
var raw []byte

type unitTypeRow struct {
	ID                  int     `json:"id"`
	Name                string  `json:"name"`
	BaseDamage          int     `json:"base_damage"`
	Defense             int     `json:"defense"`
	MaxHP               int     `json:"max_hp"`
	MovementRange       int     `json:"movement_range"`
	AttackRange         int     `json:"attack_range"`
	Initiative          int     `json:"initiative"`
	Flying              bool    `json:"flying"`
	Kamikaze            bool    `json:"kamikaze"`
	DodgeChance         float64 `json:"dodge_chance"`
	CritChance          float64 `json:"crit_chance"`
	Luck                float64 `json:"luck"`
	CounterAttackChance float64 `json:"counter_attack_chance"`
	EffectiveAgainst    int     `json:"effective_against"`
}

type fieldRow struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type fixture struct {
	UnitTypes []unitTypeRow `json:"unit_types"`
	Fields    []fieldRow    `json:"fields"`
}

var (
	parsed     *fixture
	parseOnce  sync.Once
	parseError error
)

func parse() (*fixture, error) {
	parseOnce.Do(func() {
		var f fixture
		if err := json.Unmarshal(raw, &f); err != nil {
			parseError = fmt.Errorf("seed: parse embedded fixture: %w", err)
			return
		}
		parsed = &f
	})
	return parsed, parseError
}

// Load inserts the embedded default catalog into db. It is idempotent:
// rows that already exist (by primary key) are left untouched, so it is
// safe to call on every startup after migrations run.
func Load(ctx context.Context, db *sql.DB) error {
	f, err := parse()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	for _, ut := range f.UnitTypes {
		var effectiveAgainst any
		if ut.EffectiveAgainst != 0 {
			effectiveAgainst = ut.EffectiveAgainst
		}

		query, args, err := dbx.ST.Insert("units").
			Columns(
				"id", "name", "base_damage", "defense", "max_hp", "movement_range",
				"attack_range", "initiative", "flying", "kamikaze", "dodge_chance",
				"crit_chance", "luck", "counter_attack_chance", "effective_against",
			).
			Values(
				ut.ID, ut.Name, ut.BaseDamage, ut.Defense, ut.MaxHP, ut.MovementRange,
				ut.AttackRange, ut.Initiative, ut.Flying, ut.Kamikaze, ut.DodgeChance,
				ut.CritChance, ut.Luck, ut.CounterAttackChance, effectiveAgainst,
			).
			Suffix("ON CONFLICT (id) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("seed: build unit type insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed: insert unit type %d: %w", ut.ID, err)
		}
	}

	for _, f := range f.Fields {
		query, args, err := dbx.ST.Insert("fields").
			Columns("name", "width", "height").
			Values(f.Name, f.Width, f.Height).
			Suffix("ON CONFLICT (name) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("seed: build field insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed: insert field %q: %w", f.Name, err)
		}
	}

	return tx.Commit()
}
