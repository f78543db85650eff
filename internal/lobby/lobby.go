// Package lobby owns the part of a match's lifecycle spec §3 describes
// but leaves to "external collaborators" for the details: issuing a
// challenge, the opponent accepting or declining it, and activation —
// placing the two default rosters on the field and writing the match's
// opening event. Once a match reaches "active" every further mutation
// flows through internal/session and internal/action instead.
package lobby

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/stormhaven/arena/internal/apierr"
	"github.com/stormhaven/arena/internal/arena"
	"github.com/stormhaven/arena/internal/board"
	"github.com/stormhaven/arena/internal/catalog"
	"github.com/stormhaven/arena/internal/combat"
	"github.com/stormhaven/arena/internal/eventlog"
	"github.com/stormhaven/arena/internal/initiative"
	"github.com/stormhaven/arena/internal/persistence"
	"github.com/stormhaven/arena/pkg/dbx"
)

// Player is one row of the challenge-UI roster (spec §6 GET /players).
type Player struct {
	ID   int
	Name string
}

// Challenge is a pending (not yet accepted) match, as returned by the
// pending-challenges listing.
type Challenge struct {
	MatchID   string
	Player1ID int
	Player2ID int
	FieldName string
	CreatedAt time.Time
}

// rosterSlot is one stack of a default army, placed relative to its
// owner's edge of the field.
type rosterSlot struct {
	UnitTypeID int
	Count      int
	Row        int // offset along the field's short edge
}

// defaultRoster is the engine's fixed starting army. Spec §1 places army
// composition/purchasing out of scope as a player-facing concern, but the
// engine still has to place *something* at activation; this roster is
// deliberately simple and the same for every match.
var defaultRoster = []rosterSlot{
	{UnitTypeID: 1, Count: 5, Row: 0}, // Militia
	{UnitTypeID: 2, Count: 3, Row: 1}, // Archer
	{UnitTypeID: 3, Count: 2, Row: 2}, // Cavalry
}

// Lobby manages challenge creation/acceptance/decline against the games
// table, ahead of a match ever reaching the Session Registry.
type Lobby struct {
	db      *persistence.DB
	catalog *catalog.Catalog
}

// New builds a Lobby bound to db and cat.
func New(db *persistence.DB, cat *catalog.Catalog) *Lobby {
	return &Lobby{db: db, catalog: cat}
}

// ListPlayers returns the full player roster (spec §6 GET /players).
func (l *Lobby) ListPlayers(ctx context.Context) ([]Player, error) {
	query, args, err := dbx.ST.Select("id", "name").From("game_users").OrderBy("name").ToSql()
	if err != nil {
		return nil, apierr.Internal("build players query", err)
	}

	rows, err := l.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierr.Internal("query players", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, apierr.Internal("scan player row", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// CreateChallenge issues a challenge from player1ID to the player named
// player2Name, on the named field preset. The match starts in
// arena.StatusPending with no stacks placed (spec §6 POST /games/create).
func (l *Lobby) CreateChallenge(ctx context.Context, player1ID int, player2Name, fieldName string) (string, error) {
	if _, ok := l.catalog.LookupField(fieldName); !ok {
		return "", apierr.IllegalAction(fmt.Sprintf("unknown field preset %q", fieldName))
	}

	var player2ID int
	err := l.db.Conn().QueryRowContext(ctx,
		`SELECT id FROM game_users WHERE name = ?`, player2Name).Scan(&player2ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", apierr.NotFound(fmt.Sprintf("player %q not found", player2Name))
		}
		return "", apierr.Internal("look up opponent", err)
	}

	matchID, err := gonanoid.New()
	if err != nil {
		return "", apierr.Internal("generate match id", err)
	}

	query, args, err := dbx.ST.Insert("games").
		Columns("id", "player1_id", "player2_id", "field_name", "status", "seed").
		Values(matchID, player1ID, player2ID, fieldName, "waiting", 0).
		ToSql()
	if err != nil {
		return "", apierr.Internal("build challenge insert", err)
	}
	if _, err := l.db.Conn().ExecContext(ctx, query, args...); err != nil {
		return "", apierr.Internal("insert challenge", err)
	}
	return matchID, nil
}

// ListPending returns challenges awaiting playerID's response (spec §6
// GET /games/pending?player_id=...).
func (l *Lobby) ListPending(ctx context.Context, playerID int) ([]Challenge, error) {
	query, args, err := dbx.ST.Select("id", "player1_id", "player2_id", "field_name", "created_at").
		From("games").
		Where("player2_id = ? AND status = ?", playerID, "waiting").
		ToSql()
	if err != nil {
		return nil, apierr.Internal("build pending query", err)
	}

	rows, err := l.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierr.Internal("query pending challenges", err)
	}
	defer rows.Close()

	var challenges []Challenge
	for rows.Next() {
		var c Challenge
		if err := rows.Scan(&c.MatchID, &c.Player1ID, &c.Player2ID, &c.FieldName, &c.CreatedAt); err != nil {
			return nil, apierr.Internal("scan pending challenge", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

// Decline deletes a pending challenge outright (spec §6 POST
// /games/{id}/decline, spec §3 "terminated when... the match being
// deleted" for the declined-challenge case).
func (l *Lobby) Decline(ctx context.Context, matchID string) error {
	query, args, err := dbx.ST.Delete("games").
		Where("id = ? AND status = ?", matchID, "waiting").
		ToSql()
	if err != nil {
		return apierr.Internal("build decline delete", err)
	}

	result, err := l.db.Conn().ExecContext(ctx, query, args...)
	if err != nil {
		return apierr.Internal("decline challenge", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apierr.Internal("read rows affected", err)
	}
	if affected == 0 {
		return apierr.NotFound(fmt.Sprintf("pending challenge %q not found", matchID))
	}
	return nil
}

// Accept places both players' default rosters on the field, seeds the
// match's PRNG, activates it, and writes the opening match_started event
// (spec §3 "activated when the opposite player accepts... stacks placed,
// initial event log entry written").
func (l *Lobby) Accept(ctx context.Context, matchID string) error {
	tx, err := l.db.BeginTx(ctx)
	if err != nil {
		return apierr.Internal("begin transaction", err)
	}
	defer tx.Rollback()

	var player1ID, player2ID int
	var fieldName, status string
	err = tx.QueryRowContext(ctx,
		`SELECT player1_id, player2_id, field_name, status FROM games WHERE id = ?`, matchID,
	).Scan(&player1ID, &player2ID, &fieldName, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return apierr.NotFound(fmt.Sprintf("match %q not found", matchID))
		}
		return apierr.Internal("load challenge", err)
	}
	if status != "waiting" {
		return apierr.IllegalAction("challenge is not awaiting acceptance")
	}

	field, ok := l.catalog.LookupField(fieldName)
	if !ok {
		return apierr.Internal("unknown field preset at activation", fmt.Errorf("field %q", fieldName))
	}

	// Seeding the match's per-battle PRNG is a one-time, non-replayed
	// choice; every downstream combat roll resumes this generator's
	// persisted state (P4), never reseeds from the original seed and
	// never touches the process-wide generator.
	seed := rand.Int64()
	rngState, err := combat.NewRNG(seed).State()
	if err != nil {
		return apierr.Internal("marshal initial combat rng state", err)
	}

	stacks, err := placeRosters(l.catalog, player1ID, player2ID, field.Width, field.Height)
	if err != nil {
		return apierr.Internal("place rosters", err)
	}
	if err := insertStacks(ctx, tx, matchID, stacks); err != nil {
		return apierr.Internal("place rosters", err)
	}

	firstActor := firstActorOf(l.catalog, stacks, field.Width, field.Height, player1ID)

	updQuery, updArgs, err := dbx.ST.Update("games").
		Set("status", "in_progress").
		Set("current_player_id", firstActor).
		Set("seed", seed).
		Set("rng_state", rngState).
		Where("id = ?", matchID).
		ToSql()
	if err != nil {
		return apierr.Internal("build activation update", err)
	}
	if _, err := tx.ExecContext(ctx, updQuery, updArgs...); err != nil {
		return apierr.Internal("activate match", err)
	}

	log := eventlog.NewLog(matchID, 1)
	if _, err := log.Append(eventlog.KindMatchStarted, "match started", eventlog.MatchStartedPayload{
		FieldName: fieldName,
		Seed:      seed,
	}); err != nil {
		return apierr.Internal("encode match_started event", err)
	}

	for _, ev := range log.Events() {
		evQuery, evArgs, err := dbx.ST.Insert("game_logs").
			Columns("game_id", "ordinal", "kind", "summary_text", "structured_payload").
			Values(ev.MatchID, ev.Ordinal, string(ev.Kind), ev.Summary, ev.Payload).
			ToSql()
		if err != nil {
			return apierr.Internal("build event insert", err)
		}
		if _, err := tx.ExecContext(ctx, evQuery, evArgs...); err != nil {
			return apierr.Internal("insert match_started event", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apierr.Internal("commit activation", err)
	}
	return nil
}

// placedStack is one roster slot resolved to a concrete board cell, with
// remaining_hp already filled in from the unit type's max HP.
type placedStack struct {
	playerID    int
	unitTypeID  int
	count       int
	remainingHP int
	x, y        int
}

// placeRosters lays player1's roster down the left edge and player2's
// roster down the right edge, one row apart, mirroring each other.
func placeRosters(cat *catalog.Catalog, player1ID, player2ID, width, height int) ([]placedStack, error) {
	var stacks []placedStack
	for _, slot := range defaultRoster {
		ut, ok := cat.LookupUnitType(slot.UnitTypeID)
		if !ok {
			return nil, fmt.Errorf("unknown default roster unit type %d", slot.UnitTypeID)
		}
		y := slot.Row
		if y >= height {
			y = height - 1
		}
		stacks = append(stacks,
			placedStack{playerID: player1ID, unitTypeID: slot.UnitTypeID, count: slot.Count, remainingHP: ut.MaxHP, x: 0, y: y},
			placedStack{playerID: player2ID, unitTypeID: slot.UnitTypeID, count: slot.Count, remainingHP: ut.MaxHP, x: width - 1, y: y},
		)
	}
	return stacks, nil
}

func insertStacks(ctx context.Context, tx *sql.Tx, matchID string, stacks []placedStack) error {
	for _, s := range stacks {
		query, args, err := dbx.ST.Insert("battle_units").
			Columns("game_id", "player_id", "unit_type_id", "x", "y", "count", "remaining_hp").
			Values(matchID, s.playerID, s.unitTypeID, s.x, s.y, s.count, s.remainingHP).
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

// firstActorOf resolves the initiative order's first entry so the match
// activates with a legal current_player_id (P3) instead of a placeholder
// that the first action precondition would immediately reject.
func firstActorOf(cat *catalog.Catalog, stacks []placedStack, width, height, fallback int) int {
	arenaStacks := make([]*arena.Stack, 0, len(stacks))
	for i, s := range stacks {
		arenaStacks = append(arenaStacks, &arena.Stack{
			ID:          i + 1,
			PlayerID:    s.playerID,
			UnitTypeID:  s.unitTypeID,
			Pos:         board.Position{X: s.x, Y: s.y},
			Count:       s.count,
			RemainingHP: s.remainingHP,
		})
	}

	match := arena.Match{Width: width, Height: height}
	st := arena.NewState(match, arenaStacks, nil, cat, 1)
	first, ok := initiative.Current(st)
	if !ok {
		return fallback
	}
	return first.PlayerID
}
