// Package apierr defines the engine's error taxonomy (spec §7). Every
// error the Action Resolver, Persistence Gateway and Session Registry can
// return to a caller is one of a small set of Kinds, carried on a typed
// Error value rather than a gRPC-style numeric code.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is a stable, client-facing error classification (spec §7).
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindForbidden     Kind = "forbidden"
	KindIllegalAction Kind = "illegal_action"
	KindStaleState    Kind = "stale_state"
	KindBusy          Kind = "busy"
	KindConflict      Kind = "conflict"
	KindInternal      Kind = "internal"
)

// Error pairs a Kind with a human-readable message. Construct one with
// New or the Kind-specific helpers below rather than a bare fmt.Errorf,
// so callers can always recover the Kind via As.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New constructs an Error of the given Kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given Kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// NotFound, Forbidden, IllegalAction, StaleState, Busy, Conflict and
// Internal are the per-Kind convenience constructors used throughout the
// engine.
func NotFound(message string) *Error      { return New(KindNotFound, message) }
func Forbidden(message string) *Error     { return New(KindForbidden, message) }
func IllegalAction(message string) *Error { return New(KindIllegalAction, message) }
func StaleState(message string) *Error    { return New(KindStaleState, message) }
func Busy(message string) *Error          { return New(KindBusy, message) }
func Conflict(message string) *Error      { return New(KindConflict, message) }
func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, message, cause)
}

// KindOf extracts the Kind from err, defaulting to KindInternal for any
// error that isn't one of ours. The HTTP layer (internal/api writeError)
// sends a generic message for internal errors; it does not log them.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
