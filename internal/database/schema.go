package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is portable DDL shared by the postgres and sqlite drivers.
// Production deployments manage postgres migrations externally; EnsureSchema
// exists for sqlite mode and integration tests.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id            INTEGER PRIMARY KEY,
		file_id       INTEGER NOT NULL,
		batch_id      INTEGER,
		received_at   TIMESTAMP,
		channel       TEXT NOT NULL DEFAULT '',
		customer_id   TEXT NOT NULL DEFAULT '',
		product_code  TEXT NOT NULL DEFAULT '',
		inquiry_type  TEXT NOT NULL DEFAULT '',
		title         TEXT NOT NULL DEFAULT '',
		body          TEXT NOT NULL DEFAULT '',
		assignee      TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT '',
		category_id   INTEGER,
		confidence    REAL,
		method        TEXT,
		keywords      TEXT,
		classified_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_file_id ON tickets (file_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_batch_id ON tickets (batch_id)`,
	`CREATE TABLE IF NOT EXISTS classification_runs (
		id           INTEGER PRIMARY KEY,
		user_id      INTEGER NOT NULL,
		file_id      INTEGER,
		batch_id     INTEGER,
		engine_name  TEXT NOT NULL,
		total_count  INTEGER NOT NULL,
		period_from  TIMESTAMP,
		period_to    TIMESTAMP,
		needs_review BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS run_category_stats (
		run_id      INTEGER NOT NULL,
		category_id INTEGER NOT NULL,
		count       INTEGER NOT NULL,
		ratio       REAL NOT NULL,
		keywords    TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS run_channel_stats (
		run_id      INTEGER NOT NULL,
		channel     TEXT NOT NULL,
		category_id INTEGER NOT NULL,
		count       INTEGER NOT NULL,
		ratio       REAL NOT NULL,
		PRIMARY KEY (run_id, channel, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS run_reliability (
		run_id         INTEGER PRIMARY KEY,
		split          TEXT NOT NULL,
		accuracy       REAL NOT NULL,
		macro_f1       REAL NOT NULL,
		micro_f1       REAL NOT NULL,
		avg_confidence REAL NOT NULL
	)`,
}

// EnsureSchema creates all tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
