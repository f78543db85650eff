package eventlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogOrdinalsIncreaseWithNoGaps(t *testing.T) {
	log := NewLog("m1", 1)

	ev1, err := log.Append(KindSkip, "stack 1 skips", SkipPayload{StackID: 1})
	require.NoError(t, err)
	ev2, err := log.Append(KindDefer, "stack 2 defers", DeferPayload{StackID: 2})
	require.NoError(t, err)

	require.Equal(t, 1, ev1.Ordinal)
	require.Equal(t, 2, ev2.Ordinal)
	require.Equal(t, 3, log.NextOrdinal())
	require.Len(t, log.Events(), 2)
}

func TestAttackPayloadRoundTripsThroughMsgpack(t *testing.T) {
	winner := 7
	payload := AttackPayload{
		AttackerID: 1,
		TargetID:   2,
		Damage:     12,
		Crit:       true,
		Killed:     1,
		Counter: &AttackCounterPayload{
			AttackerID: 2,
			TargetID:   1,
			Damage:     3,
		},
	}

	data, err := Encode(payload)
	require.NoError(t, err)

	var decoded AttackPayload
	require.NoError(t, Decode(data, &decoded))
	require.Equal(t, payload, decoded)

	ended := MatchEndedPayload{WinnerID: &winner}
	data2, err := Encode(ended)
	require.NoError(t, err)
	var decodedEnded MatchEndedPayload
	require.NoError(t, Decode(data2, &decodedEnded))
	require.Equal(t, winner, *decodedEnded.WinnerID)
}
