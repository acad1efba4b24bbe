package nomination

import (
	"context"

	domain "filmclub/internal/domain/nomination"
)

// Store defines the interface for nomination persistence.
type Store interface {
	// Create inserts a nomination if its week is in the nomination phase.
	// PRE: n has been validated
	// POST: persisted, or week.ErrPhaseMismatch / domain.ErrDuplicateNomination
	Create(ctx context.Context, n domain.Nomination) error

	// GetByID retrieves a nomination.
	// POST: Returns domain.ErrNotFound when absent
	GetByID(ctx context.Context, id string) (domain.Nomination, error)

	// GetByWeekAndMember retrieves a member's nomination for a week.
	// POST: Returns domain.ErrNotFound when absent
	GetByWeekAndMember(ctx context.Context, weekDate, memberID string) (domain.Nomination, error)

	// ListByWeek returns a week's nominations, earliest first.
	ListByWeek(ctx context.Context, weekDate string) ([]domain.Nomination, error)

	// CountForWeek returns how many nominations a week has.
	CountForWeek(ctx context.Context, weekDate string) (int, error)

	// Delete removes a nomination while its week is still in the nomination phase.
	// POST: removed, or domain.ErrNotFound / week.ErrPhaseMismatch
	Delete(ctx context.Context, id string) error
}
