package week

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"filmclub/internal/adapters/storage"
	ballotStore "filmclub/internal/adapters/storage/ballot"
	nominationStore "filmclub/internal/adapters/storage/nomination"
	"filmclub/internal/domain/scoring"
	domain "filmclub/internal/domain/week"
)

const columns = "date, phase, genre, genre_set_by, winning_nomination_id, winning_score, created_at, updated_at"

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new week store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByDate retrieves a week by its Monday key.
func (s *SQLStore) GetByDate(ctx context.Context, date string) (domain.Week, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM week WHERE date = ?`, date)
	w, err := scan(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Week{}, fmt.Errorf("%w: %s", domain.ErrNotFound, date)
	}
	return w, storage.Wrap("week.get", err)
}

// ListCompleted returns completed weeks, newest first.
func (s *SQLStore) ListCompleted(ctx context.Context, limit int) ([]domain.Week, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM week WHERE phase = ? ORDER BY date DESC LIMIT ?`,
		string(domain.PhaseComplete), limit)
	if err != nil {
		return nil, storage.Wrap("week.list_completed", err)
	}
	defer rows.Close()

	var out []domain.Week
	for rows.Next() {
		w, err := scan(rows.Scan)
		if err != nil {
			return nil, storage.Wrap("week.list_completed scan", err)
		}
		out = append(out, w)
	}
	return out, storage.Wrap("week.list_completed rows", rows.Err())
}

// AssignGenre sets the genre and opens nominations.
// PRE: date is a canonical Monday key
// POST: week is in nomination with genre set, or unchanged with an error
func (s *SQLStore) AssignGenre(ctx context.Context, date, genre, setBy string, now time.Time) (domain.Week, error) {
	var w domain.Week
	err := s.db.WithTx(ctx, func(q storage.Querier) error {
		ts := storage.FormatTime(now)
		if _, err := q.ExecContext(ctx,
			`INSERT INTO week (date, phase, created_at, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT (date) DO NOTHING`,
			date, string(domain.PhasePlanning), ts, ts); err != nil {
			return storage.Wrap("week.assign_genre create", err)
		}
		var err error
		if w, err = s.lock(ctx, q, date); err != nil {
			return err
		}
		if err := w.AssignGenre(genre, setBy, now); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx,
			`UPDATE week SET phase = ?, genre = ?, genre_set_by = ?, updated_at = ? WHERE date = ? AND phase = ?`,
			string(w.Phase), w.Genre, w.GenreSetBy, ts, date, string(domain.PhasePlanning))
		return expectOneRow(res, err, "week.assign_genre", date)
	})
	return w, err
}

// OpenVoting counts the week's nominations under the row lock and opens voting.
// POST: week is in voting, or unchanged with ErrPhaseMismatch / ErrQuorumNotMet
func (s *SQLStore) OpenVoting(ctx context.Context, date string, quorum int, now time.Time) (domain.Week, error) {
	var w domain.Week
	err := s.db.WithTx(ctx, func(q storage.Querier) error {
		var err error
		if w, err = s.lockOrImplicit(ctx, q, date, now); err != nil {
			return err
		}
		if err := w.RequirePhase(domain.PhaseNomination); err != nil {
			return err
		}
		count, err := nominationStore.CountByWeek(ctx, q, date)
		if err != nil {
			return err
		}
		if err := w.OpenVoting(count, quorum, now); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx,
			`UPDATE week SET phase = ?, updated_at = ? WHERE date = ? AND phase = ?`,
			string(w.Phase), storage.FormatTime(now), date, string(domain.PhaseNomination))
		return expectOneRow(res, err, "week.open_voting", date)
	})
	return w, err
}

// Finalize scores the week and records the winner.
// The phase check, tally, and winner write share one transaction, so a
// second call sees complete and fails with ErrPhaseMismatch.
func (s *SQLStore) Finalize(ctx context.Context, date string, tally TallyFunc, now time.Time) (domain.Week, scoring.Result, error) {
	var w domain.Week
	var result scoring.Result
	err := s.db.WithTx(ctx, func(q storage.Querier) error {
		var err error
		if w, err = s.lockOrImplicit(ctx, q, date, now); err != nil {
			return err
		}
		if err := w.RequirePhase(domain.PhaseVoting); err != nil {
			return err
		}
		noms, err := nominationStore.QueryByWeek(ctx, q, date)
		if err != nil {
			return err
		}
		ballots, err := ballotStore.QueryByWeek(ctx, q, date)
		if err != nil {
			return err
		}
		if result, err = tally(noms, ballots); err != nil {
			return err
		}
		if err := w.Complete(result.WinnerID, result.WinnerScore, now); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx,
			`UPDATE week SET phase = ?, winning_nomination_id = ?, winning_score = ?, updated_at = ? WHERE date = ? AND phase = ?`,
			string(w.Phase), w.WinningNominationID, w.WinningScore, storage.FormatTime(now), date, string(domain.PhaseVoting))
		return expectOneRow(res, err, "week.finalize", date)
	})
	if err != nil {
		return domain.Week{}, scoring.Result{}, err
	}
	return w, result, nil
}

// lock reads the week row, holding it until the transaction ends.
func (s *SQLStore) lock(ctx context.Context, q storage.Querier, date string) (domain.Week, error) {
	row := q.QueryRowContext(ctx, `SELECT `+columns+` FROM week WHERE date = ?`+s.db.Dialect().LockForUpdate(), date)
	w, err := scan(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Week{}, fmt.Errorf("%w: %s", domain.ErrNotFound, date)
	}
	return w, storage.Wrap("week.lock", err)
}

// lockOrImplicit treats a missing row as a week still in planning.
func (s *SQLStore) lockOrImplicit(ctx context.Context, q storage.Querier, date string, now time.Time) (domain.Week, error) {
	w, err := s.lock(ctx, q, date)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.New(date, now), nil
	}
	return w, err
}

// expectOneRow turns a zero-row compare-and-set update into ErrPhaseMismatch.
func expectOneRow(res sql.Result, err error, op, date string) error {
	if err != nil {
		return storage.Wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storage.Wrap(op+" rows", err)
	}
	if n != 1 {
		return fmt.Errorf("%w: week %s changed concurrently", domain.ErrPhaseMismatch, date)
	}
	return nil
}

func scan(scanFn func(dest ...any) error) (domain.Week, error) {
	var w domain.Week
	var phase, createdAt, updatedAt string
	var winner sql.NullString
	var score sql.NullInt64
	if err := scanFn(&w.Date, &phase, &w.Genre, &w.GenreSetBy, &winner, &score, &createdAt, &updatedAt); err != nil {
		return domain.Week{}, err
	}
	var err error
	if w.Phase, err = domain.ParsePhase(phase); err != nil {
		return domain.Week{}, err
	}
	w.WinningNominationID = winner.String
	w.WinningScore = int(score.Int64)
	if w.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Week{}, err
	}
	if w.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Week{}, err
	}
	return w, nil
}
