package ballot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filmclub/internal/adapters/storage"
	domain "filmclub/internal/domain/ballot"
	"filmclub/internal/domain/week"
)

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new ballot store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// Create stores a ballot and its point rows.
// PRE: b.ID, b.WeekDate, b.MemberID set
// POST: ballot and one ballot_point per nomination persisted, or nothing
func (s *SQLStore) Create(ctx context.Context, b domain.Ballot) error {
	lock := s.db.Dialect().LockForShare()
	return s.db.WithTx(ctx, func(q storage.Querier) error {
		var phase string
		err := q.QueryRowContext(ctx, `SELECT phase FROM week WHERE date = ?`+lock, b.WeekDate).Scan(&phase)
		if errors.Is(err, sql.ErrNoRows) {
			phase = string(week.PhasePlanning)
		} else if err != nil {
			return storage.Wrap("ballot.create phase", err)
		}
		if week.Phase(phase) != week.PhaseVoting {
			return fmt.Errorf("%w: week %s is %s, not voting", week.ErrPhaseMismatch, b.WeekDate, phase)
		}

		ids, err := nominationIDs(ctx, q, b.WeekDate)
		if err != nil {
			return err
		}
		if err := b.Validate(ids); err != nil {
			return err
		}

		_, err = q.ExecContext(ctx,
			`INSERT INTO ballot (id, week_date, member_id, created_at) VALUES (?, ?, ?, ?)`,
			b.ID, b.WeekDate, b.MemberID, storage.FormatTime(b.CreatedAt))
		if storage.IsUniqueViolation(err) {
			return fmt.Errorf("%w: member %s, week %s", domain.ErrDuplicateBallot, b.MemberID, b.WeekDate)
		}
		if err != nil {
			return storage.Wrap("ballot.create", err)
		}
		for _, nomID := range b.Ranking.Order() {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO ballot_point (ballot_id, nomination_id, points) VALUES (?, ?, ?)`,
				b.ID, nomID, b.Ranking[nomID]); err != nil {
				return storage.Wrap("ballot.create point", err)
			}
		}
		return nil
	})
}

// ListByWeek returns a week's ballots.
func (s *SQLStore) ListByWeek(ctx context.Context, weekDate string) ([]domain.Ballot, error) {
	return QueryByWeek(ctx, s.db, weekDate)
}

// CountForWeek returns the number of ballots cast for a week.
func (s *SQLStore) CountForWeek(ctx context.Context, weekDate string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ballot WHERE week_date = ?`, weekDate).Scan(&count)
	return count, storage.Wrap("ballot.count", err)
}

// GetByWeekAndMember returns a member's ballot for a week.
func (s *SQLStore) GetByWeekAndMember(ctx context.Context, weekDate, memberID string) (domain.Ballot, error) {
	ballots, err := query(ctx, s.db, `WHERE b.week_date = ? AND b.member_id = ?`, weekDate, memberID)
	if err != nil {
		return domain.Ballot{}, err
	}
	if len(ballots) == 0 {
		return domain.Ballot{}, domain.ErrNotFound
	}
	return ballots[0], nil
}

// QueryByWeek lists a week's ballots using q, which may be a transaction.
func QueryByWeek(ctx context.Context, q storage.Querier, weekDate string) ([]domain.Ballot, error) {
	return query(ctx, q, `WHERE b.week_date = ?`, weekDate)
}

// query joins ballots to their points and folds the rows back into ballots.
func query(ctx context.Context, q storage.Querier, where string, args ...any) ([]domain.Ballot, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT b.id, b.week_date, b.member_id, b.created_at, p.nomination_id, p.points
		 FROM ballot b JOIN ballot_point p ON p.ballot_id = b.id `+where+`
		 ORDER BY b.created_at ASC, b.id ASC, p.points DESC`, args...)
	if err != nil {
		return nil, storage.Wrap("ballot.list", err)
	}
	defer rows.Close()

	var out []domain.Ballot
	for rows.Next() {
		var id, weekDate, memberID, createdAt, nomID string
		var points int
		if err := rows.Scan(&id, &weekDate, &memberID, &createdAt, &nomID, &points); err != nil {
			return nil, storage.Wrap("ballot.list scan", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != id {
			ts, err := storage.ParseTime(createdAt)
			if err != nil {
				return nil, storage.Wrap("ballot.list time", err)
			}
			out = append(out, domain.Ballot{
				ID:        id,
				WeekDate:  weekDate,
				MemberID:  memberID,
				Ranking:   domain.Ranking{},
				CreatedAt: ts,
			})
		}
		out[len(out)-1].Ranking[nomID] = points
	}
	return out, storage.Wrap("ballot.list rows", rows.Err())
}

func nominationIDs(ctx context.Context, q storage.Querier, weekDate string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM nomination WHERE week_date = ?`, weekDate)
	if err != nil {
		return nil, storage.Wrap("ballot.create nominations", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storage.Wrap("ballot.create nominations scan", err)
		}
		ids = append(ids, id)
	}
	return ids, storage.Wrap("ballot.create nominations rows", rows.Err())
}
