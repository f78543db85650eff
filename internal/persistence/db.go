// Package persistence is the Persistence Gateway (spec §4.8): it loads a
// match's full state from, and atomically writes it back to, the
// relational schema spec §6 names.
package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DB wraps the single-writer SQLite connection every match's critical
// section runs its load/save transaction against.
type DB struct {
	conn *sql.DB
	path string
}

// Open connects to the database at path (spec §6 "Database connection
// string supplied via environment variable"), runs pending migrations,
// enables WAL journal mode, and limits the pool to a single connection,
// since SQLite allows one writer at a time. That one connection serves
// reads and writes alike, so a read waits while a transaction holds it.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("migration failed: %w (close also failed: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.Up(db.conn, "migrations")
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the raw *sql.DB, for the Catalog and the seed loader.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the connection string Open was called with.
func (db *DB) Path() string {
	return db.path
}

// BeginTx starts a transaction for one Gateway Load/Save critical
// section.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.conn.BeginTx(ctx, nil)
}
