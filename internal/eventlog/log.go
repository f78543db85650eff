package eventlog

// Log accumulates the events produced by a single Action Resolver call.
// It is discarded after the Persistence Gateway writes it through; the
// database is the system of record for ordinals, not this type.
type Log struct {
	matchID     string
	nextOrdinal int
	events      []Event
}

// NewLog starts a Log whose first appended event receives nextOrdinal.
func NewLog(matchID string, nextOrdinal int) *Log {
	return &Log{matchID: matchID, nextOrdinal: nextOrdinal}
}

// Append encodes payload and records a new event, assigning it the next
// ordinal in sequence.
func (l *Log) Append(kind Kind, summary string, payload any) (Event, error) {
	data, err := Encode(payload)
	if err != nil {
		return Event{}, err
	}

	ev := Event{
		MatchID: l.matchID,
		Ordinal: l.nextOrdinal,
		Kind:    kind,
		Summary: summary,
		Payload: data,
	}
	l.events = append(l.events, ev)
	l.nextOrdinal++
	return ev, nil
}

// Events returns every event appended so far, in ordinal order.
func (l *Log) Events() []Event {
	return l.events
}

// NextOrdinal returns the ordinal the next Append call will assign.
func (l *Log) NextOrdinal() int {
	return l.nextOrdinal
}
