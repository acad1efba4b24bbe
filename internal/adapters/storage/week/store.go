package week

import (
	"context"
	"time"

	"filmclub/internal/domain/ballot"
	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/scoring"
	domain "filmclub/internal/domain/week"
)

// TallyFunc turns a week's nominations and ballots into a result.
type TallyFunc func(noms []nomination.Nomination, ballots []ballot.Ballot) (scoring.Result, error)

// Store defines the interface for week persistence. Phase changes happen
// only through the transition methods, each in a single transaction that
// locks the week row.
type Store interface {
	// GetByDate retrieves a week.
	// POST: Returns domain.ErrNotFound when the week has no record
	GetByDate(ctx context.Context, date string) (domain.Week, error)

	// ListCompleted returns completed weeks, newest first.
	// PRE: limit > 0
	ListCompleted(ctx context.Context, limit int) ([]domain.Week, error)

	// AssignGenre creates the week if needed and moves it planning -> nomination.
	AssignGenre(ctx context.Context, date, genre, setBy string, now time.Time) (domain.Week, error)

	// OpenVoting moves the week nomination -> voting once quorum is met.
	OpenVoting(ctx context.Context, date string, quorum int, now time.Time) (domain.Week, error)

	// Finalize tallies the week's ballots and moves it voting -> complete,
	// recording the winner in the same transaction.
	Finalize(ctx context.Context, date string, tally TallyFunc, now time.Time) (domain.Week, scoring.Result, error)
}
