package account

import (
	"context"

	domain "filmclub/internal/domain/account"
)

// Store defines the interface for Account persistence.
type Store interface {
	// GetByID retrieves an Account by its ID.
	// POST: Returns domain.ErrNotFound when absent
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByEmail retrieves an Account by email (case-insensitive).
	// POST: Returns domain.ErrNotFound when absent
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	// Save persists an Account (insert or update).
	// PRE: entity has been validated
	Save(ctx context.Context, a domain.Account) error

	// List returns all accounts ordered by display name.
	List(ctx context.Context) ([]domain.Account, error)

	// Count returns the total number of accounts.
	Count(ctx context.Context) (int, error)
}
