package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer runs a statement. *pgxpool.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS session_events (
		event_id    TEXT PRIMARY KEY,
		event_type  TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL,
		identifier  TEXT NOT NULL DEFAULT '',
		provider    TEXT NOT NULL DEFAULT '',
		asset       TEXT NOT NULL DEFAULT '',
		error       TEXT,
		duration_us BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS session_events_occurred_at_idx
		ON session_events (occurred_at)`,
	`CREATE INDEX IF NOT EXISTS session_events_type_idx
		ON session_events (event_type, occurred_at)`,
}

// EnsureSchema creates the session_events table and its indexes.
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
