package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"filmclub/internal/domain/announcement"
	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/week"
)

// WeekStoreForOpenVoting defines the store interface needed by OpenVoting.
type WeekStoreForOpenVoting interface {
	OpenVoting(ctx context.Context, date string, quorum int, now time.Time) (week.Week, error)
}

// NominationLister lists a week's nominations in creation order.
type NominationLister interface {
	ListByWeek(ctx context.Context, date string) ([]nomination.Nomination, error)
}

// OpenVotingInput carries input for the orchestrator.
type OpenVotingInput struct {
	Date    string
	ActorID string
}

// OpenVotingDeps holds dependencies for OpenVoting.
type OpenVotingDeps struct {
	WeekStore       WeekStoreForOpenVoting
	NominationStore NominationLister
	Announcer       Announcer
	Quorum          int
	Now             func() time.Time
}

// ExecuteOpenVoting moves a week from nomination to voting.
// PRE: ActorID is an admin account
// POST: week is in voting, or unchanged with ErrQuorumNotMet / ErrPhaseMismatch
func ExecuteOpenVoting(ctx context.Context, input OpenVotingInput, deps OpenVotingDeps) (week.Week, error) {
	date, err := week.ParseDate(input.Date)
	if err != nil {
		return week.Week{}, invalid(err)
	}
	w, err := deps.WeekStore.OpenVoting(ctx, date, deps.Quorum, deps.Now())
	if err != nil {
		slog.Info("week_event", "event", "open_voting_rejected", "week", date, "reason", err.Error())
		return week.Week{}, err
	}
	slog.Info("week_event", "event", "voting_opened", "week", w.Date, "by", input.ActorID)

	if deps.Announcer != nil {
		noms, err := deps.NominationStore.ListByWeek(ctx, w.Date)
		if err != nil {
			slog.Error("announcement_skipped", "week", w.Date, "kind", announcement.KindVotingOpened, "error", err)
			return w, nil
		}
		deps.Announcer.Announce(ctx, announcement.VotingOpened(w, noms))
	}
	return w, nil
}
