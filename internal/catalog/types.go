// Package catalog is the read-only lookup for unit types and field presets
// (spec §3, §4.1). Rows are immutable during a match and cached
// process-wide once loaded.
package catalog

// UnitType is an immutable catalog entry describing one kind of creature.
type UnitType struct {
	ID                  int
	Name                string
	BaseDamage          int
	Defense             int
	MaxHP               int
	MovementRange       int
	AttackRange         int
	Initiative          int
	Flying              bool
	Kamikaze            bool
	DodgeChance         float64
	CritChance          float64
	Luck                float64
	CounterAttackChance float64
	// EffectiveAgainst is the ID of another unit type this one deals
	// x1.5 damage to, or 0 if none.
	EffectiveAgainst int
}

// FieldPreset is a named, immutable battlefield rectangle.
type FieldPreset struct {
	Name   string
	Width  int
	Height int
}
