package genre

import (
	"context"

	domain "filmclub/internal/domain/genre"
)

// Store defines the interface for the genre catalog.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Genre, error)
	List(ctx context.Context) ([]domain.Genre, error)
	ListActive(ctx context.Context) ([]domain.Genre, error)
	// Save inserts or updates a genre by id.
	// PRE: g has been validated
	Save(ctx context.Context, g domain.Genre) error
	Count(ctx context.Context) (int, error)
}
