package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filmclub/internal/adapters/storage"
	domain "filmclub/internal/domain/outbox"
)

const columns = "id, action_type, payload, status, attempts, max_attempts, last_attempted_at, created_at, external_id, error_message"

// ErrNotFound is returned when an entry id is unknown.
var ErrNotFound = errors.New("outbox entry not found")

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new outbox store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves an outbox entry by its ID.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM outbox WHERE id = ?`, id)
	e, err := scan(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, storage.Wrap("outbox.get", err)
}

// Save upserts an outbox entry.
func (s *SQLStore) Save(ctx context.Context, e domain.Entry) error {
	lastAttemptedAt := ""
	if !e.LastAttemptedAt.IsZero() {
		lastAttemptedAt = storage.FormatTime(e.LastAttemptedAt)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   status = excluded.status, attempts = excluded.attempts, max_attempts = excluded.max_attempts,
		   last_attempted_at = excluded.last_attempted_at, external_id = excluded.external_id,
		   error_message = excluded.error_message`,
		e.ID, e.ActionType, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		lastAttemptedAt, storage.FormatTime(e.CreatedAt), e.ExternalID, e.ErrorMessage)
	return storage.Wrap("outbox.save", err)
}

// ListRetryable returns entries that may be attempted again.
func (s *SQLStore) ListRetryable(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx, "outbox.list_retryable",
		`SELECT `+columns+` FROM outbox WHERE status IN (?, ?) ORDER BY created_at ASC LIMIT ?`,
		domain.StatusPending, domain.StatusRetrying, limit)
}

// ListFailed returns entries that exhausted their attempts.
func (s *SQLStore) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx, "outbox.list_failed",
		`SELECT `+columns+` FROM outbox WHERE status = ? ORDER BY last_attempted_at DESC LIMIT ?`,
		domain.StatusFailed, limit)
}

func (s *SQLStore) list(ctx context.Context, op, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.Wrap(op, err)
	}
	defer rows.Close()
	var out []domain.Entry
	for rows.Next() {
		e, err := scan(rows.Scan)
		if err != nil {
			return nil, storage.Wrap(op+" scan", err)
		}
		out = append(out, e)
	}
	return out, storage.Wrap(op+" rows", rows.Err())
}

func scan(scanFn func(dest ...any) error) (domain.Entry, error) {
	var e domain.Entry
	var createdAt, lastAttemptedAt string
	if err := scanFn(&e.ID, &e.ActionType, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &createdAt, &e.ExternalID, &e.ErrorMessage); err != nil {
		return domain.Entry{}, err
	}
	var err error
	if e.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Entry{}, err
	}
	if lastAttemptedAt != "" {
		if e.LastAttemptedAt, err = storage.ParseTime(lastAttemptedAt); err != nil {
			return domain.Entry{}, err
		}
	}
	return e, nil
}
