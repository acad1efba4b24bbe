package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"filmclub/internal/adapters/http/perf"
	"filmclub/internal/adapters/storage"
)

func openTimedTestDB(t *testing.T, collector *perf.Collector) *storage.TimedDB {
	t.Helper()
	db, dialect, err := storage.Open("sqlite", storage.SQLiteDSN(filepath.Join(t.TempDir(), "timed.db")))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return storage.NewTimedDB(db, dialect, collector)
}

// TestTimedDB_RecordsQueries verifies statements are recorded by table.
func TestTimedDB_RecordsQueries(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := openTimedTestDB(t, collector)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q", val)
	}
	if collector.Total() != 2 {
		t.Errorf("Total = %d, want 2", collector.Total())
	}
	snap := collector.Report(time.Time{}, 10)
	labels := map[string]bool{}
	for _, s := range snap.SlowestQueries {
		labels[s.Label] = true
	}
	if !labels["INSERT test"] || !labels["SELECT test"] {
		t.Errorf("query labels = %v", labels)
	}
}

// TestTimedDB_WithTx commits on success and rolls back on error.
func TestTimedDB_WithTx(t *testing.T) {
	tdb := openTimedTestDB(t, nil)
	ctx := context.Background()

	err := tdb.WithTx(ctx, func(q storage.Querier) error {
		_, err := q.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "kept", "a")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx commit: %v", err)
	}

	sentinel := errors.New("abort")
	err = tdb.WithTx(ctx, func(q storage.Querier) error {
		if _, err := q.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "dropped", "b"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx error = %v, want sentinel unchanged", err)
	}
	var pe *storage.PersistenceError
	if errors.As(err, &pe) {
		t.Error("callback error should not be wrapped as a persistence error")
	}

	var n int
	if err := tdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM test WHERE id = ?", "dropped").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Error("rolled back row is visible")
	}
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "kept").Scan(new(string)); errors.Is(err, sql.ErrNoRows) {
		t.Error("committed row is missing")
	}
}

// TestDialect_Rebind rewrites placeholders for postgres only.
func TestDialect_Rebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = '?' AND d IN (?, ?)"
	if got := storage.DialectSQLite.Rebind(q); got != q {
		t.Errorf("sqlite Rebind changed query: %s", got)
	}
	want := "SELECT a FROM t WHERE b = $1 AND c = '?' AND d IN ($2, $3)"
	if got := storage.DialectPostgres.Rebind(q); got != want {
		t.Errorf("postgres Rebind = %s, want %s", got, want)
	}
	if storage.DialectSQLite.LockForUpdate() != "" || storage.DialectPostgres.LockForUpdate() != " FOR UPDATE" {
		t.Error("unexpected lock clause")
	}
}

// TestParseDialect maps driver names.
func TestParseDialect(t *testing.T) {
	for in, want := range map[string]storage.Dialect{"": storage.DialectSQLite, "SQLite": storage.DialectSQLite, "postgresql": storage.DialectPostgres} {
		got, err := storage.ParseDialect(in)
		if err != nil || got != want {
			t.Errorf("ParseDialect(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := storage.ParseDialect("mongo"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

// TestPersistenceError wraps and unwraps.
func TestPersistenceError(t *testing.T) {
	if storage.Wrap("op", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
	err := storage.Wrap("week.get", sql.ErrConnDone)
	var pe *storage.PersistenceError
	if !errors.As(err, &pe) || pe.Op != "week.get" || !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("Wrap = %v", err)
	}
	if storage.IsUniqueViolation(err) {
		t.Error("ErrConnDone is not a unique violation")
	}
}

// TestFormatTime keeps text order equal to time order.
func TestFormatTime(t *testing.T) {
	a := time.Date(2026, 10, 12, 18, 0, 0, 0, time.UTC)
	b := a.Add(500 * time.Millisecond)
	if !(storage.FormatTime(a) < storage.FormatTime(b)) {
		t.Errorf("%s should sort before %s", storage.FormatTime(a), storage.FormatTime(b))
	}
	got, err := storage.ParseTime(storage.FormatTime(b))
	if err != nil || !got.Equal(b) {
		t.Errorf("ParseTime round trip = %v, %v", got, err)
	}
}
