package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/stormhaven/arena/internal/apierr"
	"github.com/stormhaven/arena/internal/arena"
	"github.com/stormhaven/arena/internal/board"
	"github.com/stormhaven/arena/internal/catalog"
	"github.com/stormhaven/arena/internal/eventlog"
	"github.com/stormhaven/arena/pkg/dbx"
)

// Gateway presents load(match_id) -> MatchState and save(match_id,
// new_state, new_events) (spec §4.8). Save is atomic: all mutated stack
// rows, the match row, and the new event rows commit together or none do
// (P5), gated by an optimistic version check on the match row.
type Gateway struct {
	db      *DB
	catalog *catalog.Catalog
}

// NewGateway binds a Gateway to db and the process-wide Catalog.
func NewGateway(db *DB, cat *catalog.Catalog) *Gateway {
	return &Gateway{db: db, catalog: cat}
}

// Load assembles the full Match State for matchID along with the match
// row's current optimistic-concurrency version and its persisted RNG
// state (the combat PRNG's position in its draw sequence, not just its
// original activation seed — see internal/combat.RNG).
func (g *Gateway) Load(ctx context.Context, matchID string) (*arena.State, int, []byte, error) {
	match, version, rngState, err := g.loadMatch(ctx, matchID)
	if err != nil {
		return nil, 0, nil, err
	}

	stacks, err := g.loadStacks(ctx, matchID)
	if err != nil {
		return nil, 0, nil, apierr.Internal("load stacks", err)
	}

	obstacles, err := g.loadObstacles(ctx, matchID)
	if err != nil {
		return nil, 0, nil, apierr.Internal("load obstacles", err)
	}

	nextOrdinal, err := g.loadNextOrdinal(ctx, matchID)
	if err != nil {
		return nil, 0, nil, apierr.Internal("load event ordinal", err)
	}

	return arena.NewState(match, stacks, obstacles, g.catalog, nextOrdinal), version, rngState, nil
}

func (g *Gateway) loadMatch(ctx context.Context, matchID string) (arena.Match, int, []byte, error) {
	query, args, err := dbx.ST.Select(
		"id", "player1_id", "player2_id", "field_name", "status",
		"current_player_id", "winner_id", "draw", "round_number", "seed",
		"rng_state", "version", "created_at", "updated_at",
	).From("games").Where("id = ?", matchID).ToSql()
	if err != nil {
		return arena.Match{}, 0, nil, apierr.Internal("build match query", err)
	}

	row := g.db.conn.QueryRowContext(ctx, query, args...)

	var m arena.Match
	var fieldName string
	var status string
	var currentPlayerID sql.NullInt64
	var winnerID sql.NullInt64
	var rngState []byte
	var version int

	if err := row.Scan(
		&m.ID, &m.Player1ID, &m.Player2ID, &fieldName, &status,
		&currentPlayerID, &winnerID, &m.Draw, &m.RoundNumber, &m.Seed,
		&rngState, &version, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return arena.Match{}, 0, nil, apierr.NotFound(fmt.Sprintf("match %q not found", matchID))
		}
		return arena.Match{}, 0, nil, apierr.Internal("scan match row", err)
	}

	m.FieldName = fieldName
	m.Status = statusFromRow(status)
	if currentPlayerID.Valid {
		m.CurrentActorID = int(currentPlayerID.Int64)
	}
	if winnerID.Valid {
		w := int(winnerID.Int64)
		m.WinnerID = &w
	}

	if field, ok := g.catalog.LookupField(fieldName); ok {
		m.Width, m.Height = field.Width, field.Height
	}

	return m, version, rngState, nil
}

func (g *Gateway) loadStacks(ctx context.Context, matchID string) ([]*arena.Stack, error) {
	query, args, err := dbx.ST.Select(
		"id", "player_id", "unit_type_id", "x", "y", "count", "remaining_hp",
		"has_acted", "deferred", "counter_attacked_this_round", "morale", "fatigue",
	).From("battle_units").Where("game_id = ?", matchID).OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := g.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stacks []*arena.Stack
	for rows.Next() {
		s := &arena.Stack{}
		if err := rows.Scan(
			&s.ID, &s.PlayerID, &s.UnitTypeID, &s.Pos.X, &s.Pos.Y, &s.Count,
			&s.RemainingHP, &s.HasActed, &s.Deferred, &s.CounterAttackedThisRound,
			&s.Morale, &s.Fatigue,
		); err != nil {
			return nil, err
		}
		stacks = append(stacks, s)
	}
	return stacks, rows.Err()
}

func (g *Gateway) loadObstacles(ctx context.Context, matchID string) ([]board.Position, error) {
	query, args, err := dbx.ST.Select("x", "y").From("obstacles").Where("game_id = ?", matchID).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := g.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obstacles []board.Position
	for rows.Next() {
		var p board.Position
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			return nil, err
		}
		obstacles = append(obstacles, p)
	}
	return obstacles, rows.Err()
}

// EventsSince returns every event for matchID with an ordinal strictly
// greater than sinceOrdinal, in ordinal order — the tail the state
// endpoint reports (spec §6 "list of events (at minimum the new tail
// since the caller's last seen ordinal)").
func (g *Gateway) EventsSince(ctx context.Context, matchID string, sinceOrdinal int) ([]eventlog.Event, error) {
	query, args, err := dbx.ST.Select("game_id", "ordinal", "kind", "summary_text", "structured_payload", "occurred_at").
		From("game_logs").
		Where("game_id = ? AND ordinal > ?", matchID, sinceOrdinal).
		OrderBy("ordinal").
		ToSql()
	if err != nil {
		return nil, apierr.Internal("build events query", err)
	}

	rows, err := g.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierr.Internal("query events", err)
	}
	defer rows.Close()

	var events []eventlog.Event
	for rows.Next() {
		var ev eventlog.Event
		var kind string
		if err := rows.Scan(&ev.MatchID, &ev.Ordinal, &kind, &ev.Summary, &ev.Payload, &ev.OccurredAt); err != nil {
			return nil, apierr.Internal("scan event row", err)
		}
		ev.Kind = eventlog.Kind(kind)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (g *Gateway) loadNextOrdinal(ctx context.Context, matchID string) (int, error) {
	query, args, err := dbx.ST.Select("COALESCE(MAX(ordinal), 0)").From("game_logs").Where("game_id = ?", matchID).ToSql()
	if err != nil {
		return 0, err
	}

	var maxOrdinal int
	if err := g.db.conn.QueryRowContext(ctx, query, args...).Scan(&maxOrdinal); err != nil {
		return 0, err
	}
	return maxOrdinal + 1, nil
}

// Save writes the mutated match row (including the combat RNG's advanced
// state, so the next action resumes the draw sequence instead of
// restarting it), every stack row, and the new event rows in a single
// transaction, conditioned on expectedVersion still matching the
// persisted games.version. A mismatch means another request committed
// first; the caller (Session Registry) sees apierr.KindConflict and may
// retry a bounded number of times.
func (g *Gateway) Save(ctx context.Context, state *arena.State, expectedVersion int, newEvents []eventlog.Event, rngState []byte) error {
	tx, err := g.db.BeginTx(ctx)
	if err != nil {
		return apierr.Internal("begin transaction", err)
	}
	defer tx.Rollback()

	if err := g.saveMatch(ctx, tx, state, expectedVersion, rngState); err != nil {
		return err
	}
	if err := g.saveStacks(ctx, tx, state); err != nil {
		return apierr.Internal("save stacks", err)
	}
	if err := g.saveEvents(ctx, tx, newEvents); err != nil {
		return apierr.Internal("save events", err)
	}

	if err := tx.Commit(); err != nil {
		return apierr.Internal("commit transaction", err)
	}
	return nil
}

func (g *Gateway) saveMatch(ctx context.Context, tx *sql.Tx, state *arena.State, expectedVersion int, rngState []byte) error {
	m := state.Match

	var winnerID any
	if m.WinnerID != nil {
		winnerID = *m.WinnerID
	}

	query, args, err := dbx.ST.Update("games").
		Set("status", statusToRow(m.Status)).
		Set("current_player_id", m.CurrentActorID).
		Set("winner_id", winnerID).
		Set("draw", m.Draw).
		Set("round_number", m.RoundNumber).
		Set("rng_state", rngState).
		Set("version", expectedVersion+1).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where("id = ? AND version = ?", m.ID, expectedVersion).
		ToSql()
	if err != nil {
		return apierr.Internal("build match update", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apierr.Internal("update match row", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apierr.Internal("read rows affected", err)
	}
	if affected == 0 {
		return apierr.Conflict("match row version changed since load")
	}
	return nil
}

func (g *Gateway) saveStacks(ctx context.Context, tx *sql.Tx, state *arena.State) error {
	for _, s := range state.Stacks {
		query, args, err := dbx.ST.Update("battle_units").
			Set("x", s.Pos.X).
			Set("y", s.Pos.Y).
			Set("count", s.Count).
			Set("remaining_hp", s.RemainingHP).
			Set("has_acted", s.HasActed).
			Set("deferred", s.Deferred).
			Set("counter_attacked_this_round", s.CounterAttackedThisRound).
			Set("morale", s.Morale).
			Set("fatigue", s.Fatigue).
			Where("id = ?", s.ID).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) saveEvents(ctx context.Context, tx *sql.Tx, events []eventlog.Event) error {
	for _, ev := range events {
		query, args, err := dbx.ST.Insert("game_logs").
			Columns("game_id", "ordinal", "kind", "summary_text", "structured_payload").
			Values(ev.MatchID, ev.Ordinal, string(ev.Kind), ev.Summary, ev.Payload).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// games.status persists a different vocabulary (waiting|in_progress|
// completed) than the in-memory arena.Status enum (pending|active|
// completed) — spec §3 and §6 name the same field with two different
// word choices; statusFromRow/statusToRow is the single place that
// reconciles them.
func statusFromRow(row string) arena.Status {
	switch row {
	case "waiting":
		return arena.StatusPending
	case "in_progress":
		return arena.StatusActive
	default:
		return arena.StatusCompleted
	}
}

func statusToRow(s arena.Status) string {
	switch s {
	case arena.StatusPending:
		return "waiting"
	case arena.StatusActive:
		return "in_progress"
	default:
		return "completed"
	}
}
