// Package storagetest opens throwaway SQLite databases for store tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"filmclub/internal/adapters/storage"
	"filmclub/internal/domain/week"
)

// Open returns a migrated database in a temp directory. A file (not
// :memory:) is used so concurrent connections share one database.
func Open(t testing.TB) *storage.TimedDB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filmclub.db")
	db, dialect, err := storage.Open("sqlite", storage.SQLiteDSN(path))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(context.Background(), db, dialect); err != nil {
		t.Fatalf("init test db: %v", err)
	}
	return storage.NewTimedDB(db, dialect, nil)
}

// SeedWeek inserts a week row directly in the given phase.
func SeedWeek(t testing.TB, db storage.SQLDB, date string, phase week.Phase, genre string) {
	t.Helper()
	ts := storage.FormatTime(time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC))
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO week (date, phase, genre, genre_set_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		date, string(phase), genre, "seed", ts, ts)
	if err != nil {
		t.Fatalf("seed week %s: %v", date, err)
	}
}

// SetPhase forces a week into phase.
func SetPhase(t testing.TB, db storage.SQLDB, date string, phase week.Phase) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `UPDATE week SET phase = ? WHERE date = ?`, string(phase), date)
	if err != nil {
		t.Fatalf("set phase %s: %v", date, err)
	}
}
