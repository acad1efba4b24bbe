package projections

import (
	"context"

	"filmclub/internal/domain/account"
	"filmclub/internal/domain/ballot"
	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/week"
)

// WeekStore interface for week queries.
type WeekStore interface {
	GetByDate(ctx context.Context, date string) (week.Week, error)
	ListCompleted(ctx context.Context, limit int) ([]week.Week, error)
}

// NominationStore interface for nomination queries.
type NominationStore interface {
	GetByID(ctx context.Context, id string) (nomination.Nomination, error)
	ListByWeek(ctx context.Context, date string) ([]nomination.Nomination, error)
}

// BallotStore interface for ballot queries.
type BallotStore interface {
	ListByWeek(ctx context.Context, date string) ([]ballot.Ballot, error)
	CountForWeek(ctx context.Context, date string) (int, error)
	GetByWeekAndMember(ctx context.Context, date, memberID string) (ballot.Ballot, error)
}

// AccountStore interface for resolving member display names.
type AccountStore interface {
	List(ctx context.Context) ([]account.Account, error)
}

// displayNames maps account ids to display names; unknown ids map to "".
func displayNames(ctx context.Context, store AccountStore) (map[string]string, error) {
	names := map[string]string{}
	if store == nil {
		return names, nil
	}
	accounts, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		names[a.ID] = a.DisplayName
	}
	return names, nil
}
