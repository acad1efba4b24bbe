package nomination

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filmclub/internal/adapters/storage"
	domain "filmclub/internal/domain/nomination"
	"filmclub/internal/domain/week"
)

const columns = "id, week_date, member_id, film_title, film_year, external_ref, poster_ref, created_at"

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new nomination store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// Create inserts the nomination in one statement guarded by the week's phase,
// so a proposal can never land after voting opens. The (week, member) unique
// index rejects a second nomination from the same member.
func (s *SQLStore) Create(ctx context.Context, n domain.Nomination) error {
	query := `INSERT INTO nomination (` + columns + `)
		SELECT ?, ?, ?, ?, CAST(? AS INTEGER), ?, ?, ?
		FROM week WHERE date = ? AND phase = ?` + s.db.Dialect().LockForShare()
	res, err := s.db.ExecContext(ctx, query,
		n.ID, n.WeekDate, n.MemberID, n.Film.Title, n.Film.Year, n.Film.ExternalRef, n.Film.PosterRef,
		storage.FormatTime(n.CreatedAt),
		n.WeekDate, string(week.PhaseNomination))
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("%w: member %s, week %s", domain.ErrDuplicateNomination, n.MemberID, n.WeekDate)
	}
	if err != nil {
		return storage.Wrap("nomination.create", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storage.Wrap("nomination.create rows", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: week %s is not accepting nominations", week.ErrPhaseMismatch, n.WeekDate)
	}
	return nil
}

// GetByID retrieves a nomination by its ID.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Nomination, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM nomination WHERE id = ?`, id)
	return scanOne(row.Scan, "nomination.get")
}

// GetByWeekAndMember retrieves a member's nomination for a week.
func (s *SQLStore) GetByWeekAndMember(ctx context.Context, weekDate, memberID string) (domain.Nomination, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM nomination WHERE week_date = ? AND member_id = ?`, weekDate, memberID)
	return scanOne(row.Scan, "nomination.get_by_member")
}

// ListByWeek returns a week's nominations ordered by creation.
func (s *SQLStore) ListByWeek(ctx context.Context, weekDate string) ([]domain.Nomination, error) {
	return QueryByWeek(ctx, s.db, weekDate)
}

// CountForWeek returns the number of nominations for a week.
func (s *SQLStore) CountForWeek(ctx context.Context, weekDate string) (int, error) {
	return CountByWeek(ctx, s.db, weekDate)
}

// Delete removes a nomination if its week still accepts nominations.
// The week row is share-locked so removal cannot interleave with opening voting.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	lock := s.db.Dialect().LockForShare()
	return s.db.WithTx(ctx, func(q storage.Querier) error {
		var weekDate, phase string
		err := q.QueryRowContext(ctx,
			`SELECT w.date, w.phase FROM week w JOIN nomination n ON n.week_date = w.date WHERE n.id = ?`+lock, id).
			Scan(&weekDate, &phase)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		if err != nil {
			return storage.Wrap("nomination.delete lookup", err)
		}
		if week.Phase(phase) != week.PhaseNomination {
			return fmt.Errorf("%w: week %s is %s", week.ErrPhaseMismatch, weekDate, phase)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM nomination WHERE id = ?`, id); err != nil {
			return storage.Wrap("nomination.delete", err)
		}
		return nil
	})
}

// QueryByWeek lists a week's nominations using q, which may be a transaction.
func QueryByWeek(ctx context.Context, q storage.Querier, weekDate string) ([]domain.Nomination, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+columns+` FROM nomination WHERE week_date = ? ORDER BY created_at ASC, id ASC`, weekDate)
	if err != nil {
		return nil, storage.Wrap("nomination.list", err)
	}
	defer rows.Close()

	var out []domain.Nomination
	for rows.Next() {
		n, err := scan(rows.Scan)
		if err != nil {
			return nil, storage.Wrap("nomination.list scan", err)
		}
		out = append(out, n)
	}
	return out, storage.Wrap("nomination.list rows", rows.Err())
}

// CountByWeek counts a week's nominations using q, which may be a transaction.
func CountByWeek(ctx context.Context, q storage.Querier, weekDate string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM nomination WHERE week_date = ?`, weekDate).Scan(&count)
	return count, storage.Wrap("nomination.count", err)
}

func scanOne(scanFn func(dest ...any) error, op string) (domain.Nomination, error) {
	n, err := scan(scanFn)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Nomination{}, domain.ErrNotFound
	}
	return n, storage.Wrap(op, err)
}

func scan(scanFn func(dest ...any) error) (domain.Nomination, error) {
	var n domain.Nomination
	var createdAt string
	err := scanFn(&n.ID, &n.WeekDate, &n.MemberID, &n.Film.Title, &n.Film.Year,
		&n.Film.ExternalRef, &n.Film.PosterRef, &createdAt)
	if err != nil {
		return domain.Nomination{}, err
	}
	n.CreatedAt, err = storage.ParseTime(createdAt)
	return n, err
}
