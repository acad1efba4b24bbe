package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is written in the subset of SQL shared by SQLite and Postgres.
const schema = `
CREATE TABLE IF NOT EXISTS account (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL CHECK (role IN ('admin', 'member')),
	created_at TEXT NOT NULL,
	failed_logins INTEGER NOT NULL DEFAULT 0,
	locked_until TEXT
);

CREATE TABLE IF NOT EXISTS genre (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS week (
	date TEXT PRIMARY KEY,
	phase TEXT NOT NULL CHECK (phase IN ('planning', 'nomination', 'voting', 'complete')),
	genre TEXT NOT NULL DEFAULT '',
	genre_set_by TEXT NOT NULL DEFAULT '',
	winning_nomination_id TEXT,
	winning_score INTEGER,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS nomination (
	id TEXT PRIMARY KEY,
	week_date TEXT NOT NULL REFERENCES week(date),
	member_id TEXT NOT NULL,
	film_title TEXT NOT NULL,
	film_year INTEGER NOT NULL,
	external_ref TEXT NOT NULL DEFAULT '',
	poster_ref TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_nomination_week_member ON nomination (week_date, member_id);

CREATE TABLE IF NOT EXISTS ballot (
	id TEXT PRIMARY KEY,
	week_date TEXT NOT NULL REFERENCES week(date),
	member_id TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_ballot_week_member ON ballot (week_date, member_id);

CREATE TABLE IF NOT EXISTS ballot_point (
	ballot_id TEXT NOT NULL REFERENCES ballot(id),
	nomination_id TEXT NOT NULL REFERENCES nomination(id),
	points INTEGER NOT NULL CHECK (points >= 1),
	PRIMARY KEY (ballot_id, nomination_id),
	UNIQUE (ballot_id, points)
);

CREATE TABLE IF NOT EXISTS outbox (
	id TEXT PRIMARY KEY,
	action_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	status TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	max_attempts INTEGER NOT NULL DEFAULT 5,
	last_attempted_at TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	external_id TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox (status, created_at);
`

// Tables lists every table InitDB creates.
var Tables = []string{"account", "ballot", "ballot_point", "genre", "nomination", "outbox", "week"}

// InitDB creates the schema if it does not exist.
// PRE: db is a valid connection for dialect
// POST: All tables and indexes exist; SQLite is in WAL mode
func InitDB(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if dialect == DialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
