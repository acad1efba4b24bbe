package outbox

import (
	"context"

	domain "filmclub/internal/domain/outbox"
)

// Store defines the interface for outbox entry persistence.
type Store interface {
	// GetByID retrieves an outbox entry.
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an outbox entry (insert or update).
	// PRE: entry has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListRetryable returns pending and retrying entries, oldest first.
	// PRE: limit > 0
	ListRetryable(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListFailed returns permanently failed entries, most recent attempt first.
	// PRE: limit > 0
	ListFailed(ctx context.Context, limit int) ([]domain.Entry, error)
}
