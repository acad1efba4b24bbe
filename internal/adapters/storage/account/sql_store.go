package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"filmclub/internal/adapters/storage"
	domain "filmclub/internal/domain/account"
)

const columns = "id, email, display_name, password_hash, role, created_at, failed_logins, locked_until"

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new account store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves an Account by its ID.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM account WHERE id = ?`, id)
	return scanOne(row.Scan, "account.get")
}

// GetByEmail retrieves an Account by email.
func (s *SQLStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM account WHERE email = ?`, normalizeEmail(email))
	return scanOne(row.Scan, "account.get_by_email")
}

// Save upserts an Account.
func (s *SQLStore) Save(ctx context.Context, a domain.Account) error {
	var lockedUntil any
	if !a.LockedUntil.IsZero() {
		lockedUntil = storage.FormatTime(a.LockedUntil)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   email = excluded.email, display_name = excluded.display_name,
		   password_hash = excluded.password_hash, role = excluded.role,
		   failed_logins = excluded.failed_logins, locked_until = excluded.locked_until`,
		a.ID, normalizeEmail(a.Email), strings.TrimSpace(a.DisplayName), a.PasswordHash, a.Role,
		storage.FormatTime(a.CreatedAt), a.FailedLogins, lockedUntil)
	return storage.Wrap("account.save", err)
}

// List returns all accounts.
func (s *SQLStore) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM account ORDER BY display_name ASC, id ASC`)
	if err != nil {
		return nil, storage.Wrap("account.list", err)
	}
	defer rows.Close()
	var out []domain.Account
	for rows.Next() {
		a, err := scan(rows.Scan)
		if err != nil {
			return nil, storage.Wrap("account.list scan", err)
		}
		out = append(out, a)
	}
	return out, storage.Wrap("account.list rows", rows.Err())
}

// Count returns the total number of accounts.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM account`).Scan(&n)
	return n, storage.Wrap("account.count", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanOne(scanFn func(dest ...any) error, op string) (domain.Account, error) {
	a, err := scan(scanFn)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, storage.Wrap(op, err)
	}
	return a, nil
}

func scan(scanFn func(dest ...any) error) (domain.Account, error) {
	var a domain.Account
	var createdAt string
	var lockedUntil sql.NullString
	if err := scanFn(&a.ID, &a.Email, &a.DisplayName, &a.PasswordHash, &a.Role,
		&createdAt, &a.FailedLogins, &lockedUntil); err != nil {
		return domain.Account{}, err
	}
	var err error
	if a.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Account{}, fmt.Errorf("account %s created_at: %w", a.ID, err)
	}
	if lockedUntil.Valid && lockedUntil.String != "" {
		if a.LockedUntil, err = storage.ParseTime(lockedUntil.String); err != nil {
			return domain.Account{}, fmt.Errorf("account %s locked_until: %w", a.ID, err)
		}
	}
	return a, nil
}
