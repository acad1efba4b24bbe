package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"filmclub/internal/domain/ballot"
	"filmclub/internal/domain/week"
)

// BallotStoreForSubmit defines the store interface needed by SubmitBallot.
type BallotStoreForSubmit interface {
	Create(ctx context.Context, b ballot.Ballot) error
}

// SubmitBallotInput carries input for the orchestrator. Clients send
// either explicit points or an ordered list, best first.
type SubmitBallotInput struct {
	Date     string
	MemberID string
	Ranking  map[string]int
	Order    []string
}

// SubmitBallotDeps holds dependencies for SubmitBallot.
type SubmitBallotDeps struct {
	BallotStore BallotStoreForSubmit
	GenerateID  func() string
	Now         func() time.Time
}

// ErrAmbiguousBallot is returned when both or neither ranking forms are sent.
var ErrAmbiguousBallot = errors.New("send either ranking or order, not both")

// ExecuteSubmitBallot records a member's ranking for the week.
// PRE: MemberID is the session's account id
// POST: ballot stored, or ErrInvalidRanking / ErrDuplicateBallot / ErrPhaseMismatch
// INVARIANT: ballots are immutable once stored
func ExecuteSubmitBallot(ctx context.Context, input SubmitBallotInput, deps SubmitBallotDeps) (ballot.Ballot, error) {
	date, err := week.ParseDate(input.Date)
	if err != nil {
		return ballot.Ballot{}, invalid(err)
	}
	if (len(input.Ranking) == 0) == (len(input.Order) == 0) {
		return ballot.Ballot{}, invalid(ErrAmbiguousBallot)
	}

	ranking := ballot.Ranking(input.Ranking)
	if len(input.Order) > 0 {
		if ranking, err = ballot.FromOrder(input.Order); err != nil {
			return ballot.Ballot{}, err
		}
	}

	b := ballot.Ballot{
		ID:        deps.GenerateID(),
		WeekDate:  date,
		MemberID:  input.MemberID,
		Ranking:   ranking,
		CreatedAt: deps.Now(),
	}
	if err := deps.BallotStore.Create(ctx, b); err != nil {
		slog.Info("ballot_event", "event", "rejected", "week", date, "member", input.MemberID, "reason", err.Error())
		return ballot.Ballot{}, err
	}
	slog.Info("ballot_event", "event", "submitted", "week", date, "member", input.MemberID, "ballot", b.ID, "films", len(ranking))
	return b, nil
}
