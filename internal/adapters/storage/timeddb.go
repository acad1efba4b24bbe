package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"filmclub/internal/adapters/http/perf"
)

// Querier is the statement surface shared by the pool and an open transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLDB is the database interface used by all stores. Queries are written
// with '?' placeholders; implementations rebind them for the dialect.
type SQLDB interface {
	Querier
	Dialect() Dialect
	// WithTx runs fn inside one transaction, committing when fn returns nil
	// and rolling back otherwise. Errors from fn are returned unchanged.
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

var slowQueryMs int64
var slowQueryOnce sync.Once

// getSlowQueryThreshold returns the slow-query threshold in milliseconds.
func getSlowQueryThreshold() float64 {
	slowQueryOnce.Do(func() {
		ms := DefaultSlowQueryMs
		if v := os.Getenv("FILMCLUB_SLOW_QUERY_MS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				ms = n
			}
		}
		atomic.StoreInt64(&slowQueryMs, int64(ms))
	})
	return float64(atomic.LoadInt64(&slowQueryMs))
}

// TimedDB wraps a *sql.DB with placeholder rebinding, slow-query logging,
// and optional recording to a perf collector.
type TimedDB struct {
	db        *sql.DB
	dialect   Dialect
	collector *perf.Collector
	threshold float64
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db for the given dialect.
// PRE: db is a valid database connection; collector may be nil
// POST: Returns a TimedDB satisfying SQLDB
func NewTimedDB(db *sql.DB, dialect Dialect, collector *perf.Collector) *TimedDB {
	return &TimedDB{
		db:        db,
		dialect:   dialect,
		collector: collector,
		threshold: getSlowQueryThreshold(),
	}
}

// RawDB returns the underlying *sql.DB.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// Dialect returns the backend dialect.
func (t *TimedDB) Dialect() Dialect {
	return t.dialect
}

// ExecContext runs a statement on the pool.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, t.dialect.Rebind(query), args...)
	t.logQuery(queryLabel(query), start)
	return result, err
}

// QueryContext runs a query on the pool.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, t.dialect.Rebind(query), args...)
	t.logQuery(queryLabel(query), start)
	return rows, err
}

// QueryRowContext runs a single-row query on the pool.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, t.dialect.Rebind(query), args...)
	t.logQuery(queryLabel(query), start)
	return row
}

// WithTx runs fn in a transaction.
// PRE: fn does not retain q after returning
// POST: committed iff fn returned nil and commit succeeded
func (t *TimedDB) WithTx(ctx context.Context, fn func(q Querier) error) error {
	start := time.Now()
	defer t.logQuery("TX", start)

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return Wrap("begin tx", err)
	}
	if err := fn(&txQuerier{tx: tx, dialect: t.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("tx_rollback_failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return Wrap("commit tx", err)
	}
	return nil
}

// Close closes the underlying pool.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

// Ping verifies the database connection.
func (t *TimedDB) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// logQuery logs and optionally records a query timing.
func (t *TimedDB) logQuery(op string, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	if durationMs >= t.threshold {
		slog.Warn("slow_query", "op", op, "duration_ms", durationMs)
	} else {
		slog.Debug("query", "op", op, "duration_ms", durationMs)
	}

	if t.collector != nil {
		t.collector.Record(perf.Sample{
			Kind:     perf.KindQuery,
			Label:    op,
			Duration: time.Since(start),
			At:       start,
		})
	}
}

// txQuerier rebinds statements run inside a transaction.
type txQuerier struct {
	tx      *sql.Tx
	dialect Dialect
}

func (q *txQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.tx.ExecContext(ctx, q.dialect.Rebind(query), args...)
}

func (q *txQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.tx.QueryContext(ctx, q.dialect.Rebind(query), args...)
}

func (q *txQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return q.tx.QueryRowContext(ctx, q.dialect.Rebind(query), args...)
}

// queryLabel reduces a statement to "VERB table" for timing aggregation.
func queryLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "EMPTY"
	}
	verb := strings.ToUpper(fields[0])
	for i := 1; i < len(fields)-1; i++ {
		switch strings.ToUpper(fields[i]) {
		case "FROM", "INTO", "UPDATE", "TABLE":
			return fmt.Sprintf("%s %s", verb, strings.Trim(fields[i+1], "(),;"))
		}
	}
	if verb == "UPDATE" && len(fields) > 1 {
		return "UPDATE " + fields[1]
	}
	return verb
}
