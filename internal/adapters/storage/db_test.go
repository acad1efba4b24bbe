package storage_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"testing"

	"filmclub/internal/adapters/storage"
)

func openRawDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := storage.Open("sqlite", storage.SQLiteDSN(filepath.Join(t.TempDir(), "raw.db")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TestInitDB_CreatesTables checks the schema and that re-running is harmless.
func TestInitDB_CreatesTables(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := storage.InitDB(ctx, db, storage.DialectSQLite); err != nil {
			t.Fatalf("InitDB run %d: %v", i+1, err)
		}
	}
	got := getTableNames(t, db)
	if len(got) != len(storage.Tables) {
		t.Fatalf("tables = %v, want %v", got, storage.Tables)
	}
	for i := range got {
		if got[i] != storage.Tables[i] {
			t.Errorf("table %d = %s, want %s", i, got[i], storage.Tables[i])
		}
	}
}

// TestInitDB_UniqueMemberPerWeek checks the indexes backing the one-per-member rules.
func TestInitDB_UniqueMemberPerWeek(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()
	if err := storage.InitDB(ctx, db, storage.DialectSQLite); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	mustExec := func(q string, args ...any) error {
		_, err := db.ExecContext(ctx, q, args...)
		return err
	}
	if err := mustExec(`INSERT INTO week (date, phase, created_at, updated_at) VALUES ('2026-10-12', 'nomination', 'x', 'x')`); err != nil {
		t.Fatalf("insert week: %v", err)
	}
	insertNom := `INSERT INTO nomination (id, week_date, member_id, film_title, film_year, created_at) VALUES (?, '2026-10-12', 'm1', 'Heat', 1995, 'x')`
	if err := mustExec(insertNom, "n1"); err != nil {
		t.Fatalf("first nomination: %v", err)
	}
	err := mustExec(insertNom, "n2")
	if !storage.IsUniqueViolation(err) {
		t.Errorf("second nomination error = %v, want unique violation", err)
	}

	if err := mustExec(`INSERT INTO nomination (id, week_date, member_id, film_title, film_year, created_at) VALUES ('n9', '2099-01-05', 'm1', 'Heat', 1995, 'x')`); err == nil {
		t.Error("expected foreign key failure for unknown week")
	}
	if err := mustExec(`INSERT INTO week (date, phase, created_at, updated_at) VALUES ('2026-10-19', 'closed', 'x', 'x')`); err == nil {
		t.Error("expected check constraint failure for unknown phase")
	}
}
