// Package sqlite stores the records written by save steps in a SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// MemoryPath opens a database that lives only as long as its connection.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	field TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT '',
	value_hash TEXT NOT NULL DEFAULT '',
	stored_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_model_field ON records(model, field);
CREATE INDEX IF NOT EXISTS idx_records_stored_at ON records(stored_at);
`

// DB is the record database. Open must be called before use.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB returns a DB for the file at path, or MemoryPath.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open connects, applies pragmas and ensures the records schema exists.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", db.path, err)
	}
	// One writer at a time.
	conn.SetMaxOpenConns(1)

	if err := db.init(conn); err != nil {
		conn.Close()
		return err
	}
	db.db = conn
	return nil
}

func (db *DB) init(conn *sql.DB) error {
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("connect %s: %w", db.path, err)
	}

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if db.path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the connection. Closing an unopened DB is a no-op.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}
