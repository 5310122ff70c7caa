package db

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

const driverName = "sqlite"

// Connect opens the SQLite database at path. ":memory:" keeps the journal
// in process memory; the pool is then pinned to one connection so every
// query sees the same database.
func Connect(ctx context.Context, path string) (*sqlx.DB, error) {
	pool, err := sqlx.ConnectContext(ctx, driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
	}
	if path == ":memory:" {
		pool.SetMaxOpenConns(1)
	}
	slog.InfoContext(ctx, "Connected to sqlite database", "db.path", path)
	return pool, nil
}

// InitializeSchema creates the tables used by the outcome journal.
func InitializeSchema(ctx context.Context, db *sqlx.DB) error {
	resultSchema := `
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		outcome TEXT NOT NULL,
		winner TEXT NOT NULL DEFAULT '',
		moves INTEGER NOT NULL,
		finished_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_finished_at ON results (finished_at);`

	if _, err := db.ExecContext(ctx, resultSchema); err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}

	slog.InfoContext(ctx, "DB schema verified.")
	return nil
}
