package genre

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filmclub/internal/adapters/storage"
	domain "filmclub/internal/domain/genre"
)

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new genre store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves a genre.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Genre, error) {
	var g domain.Genre
	var active int
	err := s.db.QueryRowContext(ctx, `SELECT id, name, active FROM genre WHERE id = ?`, id).Scan(&g.ID, &g.Name, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Genre{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Genre{}, storage.Wrap("genre.get", err)
	}
	g.Active = active == 1
	return g, nil
}

// List returns every genre by name.
func (s *SQLStore) List(ctx context.Context) ([]domain.Genre, error) {
	return s.list(ctx, `SELECT id, name, active FROM genre ORDER BY name ASC`)
}

// ListActive returns the genres eligible for a random pick.
func (s *SQLStore) ListActive(ctx context.Context) ([]domain.Genre, error) {
	return s.list(ctx, `SELECT id, name, active FROM genre WHERE active = 1 ORDER BY name ASC`)
}

// Save upserts a genre.
func (s *SQLStore) Save(ctx context.Context, g domain.Genre) error {
	active := 0
	if g.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO genre (id, name, active) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, active = excluded.active`,
		g.ID, g.Name, active)
	return storage.Wrap("genre.save", err)
}

// Count returns the catalog size.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM genre`).Scan(&n)
	return n, storage.Wrap("genre.count", err)
}

func (s *SQLStore) list(ctx context.Context, query string) ([]domain.Genre, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storage.Wrap("genre.list", err)
	}
	defer rows.Close()
	var out []domain.Genre
	for rows.Next() {
		var g domain.Genre
		var active int
		if err := rows.Scan(&g.ID, &g.Name, &active); err != nil {
			return nil, storage.Wrap("genre.list scan", err)
		}
		g.Active = active == 1
		out = append(out, g)
	}
	return out, storage.Wrap("genre.list rows", rows.Err())
}
