package lobby

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stormhaven/arena/internal/apierr"
	"github.com/stormhaven/arena/internal/catalog"
	"github.com/stormhaven/arena/internal/catalog/seed"
	"github.com/stormhaven/arena/internal/persistence"
)

func newTestLobby(t *testing.T) (*Lobby, *persistence.DB) {
	t.Helper()
	dir := t.TempDir()
	db, err := persistence.Open(dir + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, seed.Load(t.Context(), db.Conn()))
	_, err = db.Conn().Exec(`INSERT INTO game_users (id, name) VALUES (1, 'alice'), (2, 'bob')`)
	require.NoError(t, err)

	cat := catalog.New(db.Conn())
	require.NoError(t, cat.Refresh(t.Context()))

	return New(db, cat), db
}

func TestChallengeLifecycle(t *testing.T) {
	l, db := newTestLobby(t)

	matchID, err := l.CreateChallenge(t.Context(), 1, "bob", "5x5")
	require.NoError(t, err)
	require.NotEmpty(t, matchID)

	pending, err := l.ListPending(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, matchID, pending[0].MatchID)

	require.NoError(t, l.Accept(t.Context(), matchID))

	var status string
	var currentPlayerID, seedVal int
	require.NoError(t, db.Conn().QueryRow(
		`SELECT status, current_player_id, seed FROM games WHERE id = ?`, matchID,
	).Scan(&status, &currentPlayerID, &seedVal))
	require.Equal(t, "in_progress", status)
	require.Contains(t, []int{1, 2}, currentPlayerID)

	var stackCount int
	require.NoError(t, db.Conn().QueryRow(
		`SELECT COUNT(*) FROM battle_units WHERE game_id = ?`, matchID).Scan(&stackCount))
	require.Equal(t, len(defaultRoster)*2, stackCount)

	var eventCount int
	require.NoError(t, db.Conn().QueryRow(
		`SELECT COUNT(*) FROM game_logs WHERE game_id = ? AND kind = 'match_started'`, matchID,
	).Scan(&eventCount))
	require.Equal(t, 1, eventCount)

	stillPending, err := l.ListPending(t.Context(), 2)
	require.NoError(t, err)
	require.Empty(t, stillPending)
}

func TestCreateChallengeUnknownOpponent(t *testing.T) {
	l, _ := newTestLobby(t)
	_, err := l.CreateChallenge(t.Context(), 1, "nobody", "5x5")
	require.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestDeclineRemovesChallenge(t *testing.T) {
	l, _ := newTestLobby(t)
	matchID, err := l.CreateChallenge(t.Context(), 1, "bob", "5x5")
	require.NoError(t, err)

	require.NoError(t, l.Decline(t.Context(), matchID))

	err = l.Decline(t.Context(), matchID)
	require.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestListPlayers(t *testing.T) {
	l, _ := newTestLobby(t)
	players, err := l.ListPlayers(t.Context())
	require.NoError(t, err)
	require.Len(t, players, 2)
}
