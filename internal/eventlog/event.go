// Package eventlog is the append-only record of every legal transition a
// match goes through (spec §3 "Event", §4.7). The structured payload is
// stored as MessagePack internally (via pkg/codec); Decode turns a stored
// payload back into its typed Go value. The JSON state snapshot the HTTP
// layer returns lists each event's ordinal, kind and summary only, not
// its payload (spec §6).
package eventlog

import (
	"time"

	"github.com/stormhaven/arena/pkg/codec"
)

// Kind names the event variants spec §3 enumerates.
type Kind string

const (
	KindMatchStarted  Kind = "match_started"
	KindMove          Kind = "move"
	KindAttack        Kind = "attack"
	KindSkip          Kind = "skip"
	KindDefer         Kind = "defer"
	KindTurnAdvanced  Kind = "turn_advanced"
	KindRoundAdvanced Kind = "round_advanced"
	KindMatchEnded    Kind = "match_ended"
)

// Event is one row of the log: `(match_id, ordinal, kind, summary_text,
// structured_payload, timestamp)`. Ordinals are strictly increasing per
// match with no gaps (P2).
type Event struct {
	MatchID    string
	Ordinal    int
	Kind       Kind
	Summary    string
	Payload    []byte // MessagePack-encoded structured_payload
	OccurredAt time.Time
}

// MatchStartedPayload is the structured_payload of the `match_started`
// event a match's activation writes (spec §3 "Lifecycle").
type MatchStartedPayload struct {
	FieldName string `msgpack:"field_name"`
	Seed      int64  `msgpack:"seed"`
}

// MovePayload is the structured_payload of a `move` event.
type MovePayload struct {
	StackID int `msgpack:"stack_id"`
	FromX   int `msgpack:"from_x"`
	FromY   int `msgpack:"from_y"`
	ToX     int `msgpack:"to_x"`
	ToY     int `msgpack:"to_y"`
}

// AttackCounterPayload is the nested counter-attack sub-record of an
// `attack` event; nil when no counter-attack occurred.
type AttackCounterPayload struct {
	AttackerID           int  `msgpack:"attacker_id"`
	TargetID             int  `msgpack:"target_id"`
	Damage               int  `msgpack:"damage"`
	Crit                 bool `msgpack:"crit"`
	Lucky                bool `msgpack:"lucky"`
	Dodge                bool `msgpack:"dodge"`
	Killed               int  `msgpack:"killed"`
	TargetSurvivingCount int  `msgpack:"target_surviving_count"`
	TargetSurvivingHP    int  `msgpack:"target_surviving_hp"`
}

// AttackPayload is the structured_payload of an `attack` event (spec
// §4.5: "attacker id, target id, rolled damage, crit flag, dodge flag,
// count killed, counter-attack sub-record (may be null), target
// surviving count/hp").
type AttackPayload struct {
	AttackerID           int                   `msgpack:"attacker_id"`
	TargetID             int                   `msgpack:"target_id"`
	Damage               int                   `msgpack:"damage"`
	Crit                 bool                  `msgpack:"crit"`
	Lucky                bool                  `msgpack:"lucky"`
	Dodge                bool                  `msgpack:"dodge"`
	Killed               int                   `msgpack:"killed"`
	TargetSurvivingCount int                   `msgpack:"target_surviving_count"`
	TargetSurvivingHP    int                   `msgpack:"target_surviving_hp"`
	Counter              *AttackCounterPayload `msgpack:"counter"`
	AttackerKamikazeDead bool                  `msgpack:"attacker_kamikaze_dead"`
}

// SkipPayload is the structured_payload of a `skip` event.
type SkipPayload struct {
	StackID int `msgpack:"stack_id"`
}

// DeferPayload is the structured_payload of a `defer` event.
type DeferPayload struct {
	StackID int `msgpack:"stack_id"`
}

// RoundAdvancedPayload is the structured_payload of a `round_advanced`
// event.
type RoundAdvancedPayload struct {
	RoundNumber int `msgpack:"round_number"`
}

// TurnAdvancedPayload is the structured_payload of a `turn_advanced`
// event: the cursor moved to a new stack without crossing a round
// boundary.
type TurnAdvancedPayload struct {
	NextStackID  int `msgpack:"next_stack_id"`
	NextPlayerID int `msgpack:"next_player_id"`
}

// MatchEndedPayload is the structured_payload of a `match_ended` event.
type MatchEndedPayload struct {
	WinnerID *int `msgpack:"winner_id"`
	Draw     bool `msgpack:"draw"`
}

// Encode MessagePack-encodes payload for storage on an Event.
func Encode(payload any) ([]byte, error) {
	return codec.Default.Encode(payload)
}

// Decode MessagePack-decodes an Event's stored payload into target, which
// must be a pointer to one of the *Payload types above.
func Decode(data []byte, target any) error {
	return codec.Default.Decode(data, target)
}
