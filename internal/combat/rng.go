package combat

import (
	"fmt"
	"math/rand/v2"
)

// Source is anything that can draw a uniform float in [0,1); every
// Bernoulli draw in this package (dodge, crit, luck, counter-attack) goes
// through it. Production code uses RNG; tests pin outcomes with a fake.
type Source interface {
	Float64() float64
}

// RNG is the per-match pseudo-random source (spec §4.6, §5, §9). Its
// state is persisted after every action and restored before the next one
// (internal/persistence.Gateway, internal/session.Registry), so the draw
// sequence advances exactly once per match rather than restarting from
// the activation seed on every request — resuming from the same fixed
// seed every time would make every action's first draw identical. Never
// share one RNG across matches either, or replay stops being
// deterministic per match (P4).
type RNG struct {
	pcg *rand.PCG
	r   *rand.Rand
}

// NewRNG seeds a brand-new generator from seed. Call this only once, at
// match activation (internal/lobby.Accept); every action after that
// resumes the existing generator via RestoreRNG instead of reseeding.
func NewRNG(seed int64) *RNG {
	pcg := rand.NewPCG(uint64(seed), uint64(seed>>32)|1)
	return &RNG{pcg: pcg, r: rand.New(pcg)}
}

// RestoreRNG resumes a generator from state previously returned by State,
// continuing the same draw sequence instead of restarting it.
func RestoreRNG(state []byte) (*RNG, error) {
	pcg := &rand.PCG{}
	if err := pcg.UnmarshalBinary(state); err != nil {
		return nil, fmt.Errorf("restore rng state: %w", err)
	}
	return &RNG{pcg: pcg, r: rand.New(pcg)}, nil
}

// State marshals the generator's current position in its draw sequence.
// The caller persists this after the action that used the RNG commits,
// so the next action resumes from here rather than from the seed.
func (g *RNG) State() ([]byte, error) {
	return g.pcg.MarshalBinary()
}

// Float64 draws a uniform value in [0,1).
func (g *RNG) Float64() float64 {
	return g.r.Float64()
}
