package ballot

import (
	"context"

	domain "filmclub/internal/domain/ballot"
)

// Store defines the interface for ballot persistence. Ballots are immutable:
// there is no update or delete.
type Store interface {
	// Create validates the ranking against the week's nominations and inserts
	// the ballot with its points, all in one transaction.
	// POST: persisted, or week.ErrPhaseMismatch / domain.ErrInvalidRanking /
	// domain.ErrDuplicateBallot
	Create(ctx context.Context, b domain.Ballot) error

	// ListByWeek returns a week's ballots in casting order.
	ListByWeek(ctx context.Context, weekDate string) ([]domain.Ballot, error)

	// CountForWeek returns how many ballots a week has.
	CountForWeek(ctx context.Context, weekDate string) (int, error)

	// GetByWeekAndMember returns a member's ballot for a week.
	// POST: Returns domain.ErrNotFound when absent
	GetByWeekAndMember(ctx context.Context, weekDate, memberID string) (domain.Ballot, error)
}
