// Package session is the Session Registry (spec §4.9, SPEC_FULL C9): the
// only component that holds a lock across I/O. It serializes every action
// submitted against a given match id, loads state through the Persistence
// Gateway, runs it through the Action Resolver, and saves the result back,
// retrying a bounded number of times on an optimistic-concurrency conflict.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jaevor/go-nanoid"

	"github.com/stormhaven/arena/internal/action"
	"github.com/stormhaven/arena/internal/apierr"
	"github.com/stormhaven/arena/internal/combat"
	"github.com/stormhaven/arena/internal/eventlog"
	"github.com/stormhaven/arena/internal/persistence"
)

// DefaultLockTimeout is how long Submit waits to acquire a match's lock
// before giving up with apierr.KindBusy (spec §4.9).
const DefaultLockTimeout = 5 * time.Second

// DefaultMaxRetries bounds the load/resolve/save retry loop a version
// conflict triggers (spec §4.8's "bounded retry").
const DefaultMaxRetries = 3

// Registry owns one exclusive lock per in-flight match and the Gateway
// every Submit call drives.
type Registry struct {
	gateway     *persistence.Gateway
	locks       sync.Map // match id -> chan struct{} (capacity 1)
	lockTimeout time.Duration
	maxRetries  int
	traceID     func() string
}

// New builds a Registry backed by gateway, using the spec's default lock
// timeout and retry bound.
func New(gateway *persistence.Gateway) *Registry {
	gen, err := nanoid.Standard(21)
	if err != nil {
		panic(err)
	}
	return &Registry{
		gateway:     gateway,
		lockTimeout: DefaultLockTimeout,
		maxRetries:  DefaultMaxRetries,
		traceID:     gen,
	}
}

// WithLockTimeout overrides the default 5s acquisition timeout. The
// arenad binary does not call it and has no flag for it.
func (r *Registry) WithLockTimeout(d time.Duration) *Registry {
	r.lockTimeout = d
	return r
}

// WithMaxRetries overrides the default conflict-retry bound.
func (r *Registry) WithMaxRetries(n int) *Registry {
	r.maxRetries = n
	return r
}

// lockFor returns matchID's mutex channel, creating it on first use.
// sync.Map.LoadOrStore makes first-touch creation race-safe without a
// second mutex guarding the map itself.
func (r *Registry) lockFor(matchID string) chan struct{} {
	lock, _ := r.locks.LoadOrStore(matchID, make(chan struct{}, 1))
	return lock.(chan struct{})
}

// acquire takes matchID's lock and reports whether the request had to
// wait for another holder to release it first. A non-contended
// acquisition means this request is the only one touching the match right
// now, so any precondition failure it hits is genuine; a contended one
// means a sibling request for the same match ran first while this one
// queued, which is exactly the race Submit's stale_state retry covers.
func (r *Registry) acquire(ctx context.Context, matchID string) (lock chan struct{}, contended bool, err error) {
	lock = r.lockFor(matchID)
	select {
	case lock <- struct{}{}:
		return lock, false, nil
	default:
	}

	select {
	case lock <- struct{}{}:
		return lock, true, nil
	case <-ctx.Done():
		return nil, false, apierr.Busy("match is locked by another request")
	}
}

func (r *Registry) release(lock chan struct{}) {
	<-lock
}

// Submit runs req against matchID under the match's exclusive lock: load,
// resolve, save, retrying on a version conflict up to maxRetries times.
// An illegal_action that surfaces only after a contended acquisition gets
// one extra attempt before being surfaced as stale_state (spec §7:
// "Precondition held at read time but not inside the lock... retried
// internally once; if it recurs it is surfaced").
func (r *Registry) Submit(ctx context.Context, matchID string, req action.Request) (*action.Result, error) {
	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	lock, contended, err := r.acquire(lockCtx, matchID)
	if err != nil {
		return nil, err
	}
	defer r.release(lock)

	result, err := r.submitWithRetries(ctx, matchID, req)
	if err == nil || !contended || apierr.KindOf(err) != apierr.KindIllegalAction {
		return result, err
	}

	result, err = r.submitWithRetries(ctx, matchID, req)
	if err != nil && apierr.KindOf(err) == apierr.KindIllegalAction {
		return nil, apierr.StaleState(err.Error())
	}
	return result, err
}

// submitWithRetries runs one load/resolve/save cycle, retrying up to
// maxRetries times if Save reports an optimistic-concurrency conflict.
func (r *Registry) submitWithRetries(ctx context.Context, matchID string, req action.Request) (*action.Result, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		result, err := r.submitOnce(ctx, matchID, req)
		if err == nil {
			return result, nil
		}
		if apierr.KindOf(err) != apierr.KindConflict {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (r *Registry) submitOnce(ctx context.Context, matchID string, req action.Request) (*action.Result, error) {
	st, version, rngState, err := r.gateway.Load(ctx, matchID)
	if err != nil {
		return nil, err
	}

	log := eventlog.NewLog(matchID, st.NextOrdinal)

	// rngState is only empty for a match row written before the combat
	// RNG's state was persisted (e.g. a fixture inserted directly into
	// the database); falling back to the activation seed keeps those
	// working without masking the real bug this guards against: reseeding
	// from st.Match.Seed on every request would replay the same draw
	// every action.
	var rng *combat.RNG
	if len(rngState) == 0 {
		rng = combat.NewRNG(st.Match.Seed)
	} else {
		rng, err = combat.RestoreRNG(rngState)
		if err != nil {
			return nil, apierr.Internal("restore combat rng state", err)
		}
	}

	result, err := action.Resolve(st, log, rng, req)
	if err != nil {
		return nil, err
	}

	newRNGState, err := rng.State()
	if err != nil {
		return nil, apierr.Internal("marshal combat rng state", err)
	}

	if err := r.gateway.Save(ctx, st, version, result.Events, newRNGState); err != nil {
		return nil, err
	}
	return result, nil
}

// TraceID mints a fresh per-request trace id for logging correlation
// (spec's Registry-owned "per-request trace IDs").
func (r *Registry) TraceID() string {
	return r.traceID()
}
