package orchestrators

import (
	"context"
	"log/slog"
	"time"

	weekStore "filmclub/internal/adapters/storage/week"
	"filmclub/internal/domain/announcement"
	"filmclub/internal/domain/scoring"
	"filmclub/internal/domain/week"
)

// WeekStoreForResults defines the store interface needed by CalculateResults.
type WeekStoreForResults interface {
	Finalize(ctx context.Context, date string, tally weekStore.TallyFunc, now time.Time) (week.Week, scoring.Result, error)
}

// CalculateResultsInput carries input for the orchestrator.
type CalculateResultsInput struct {
	Date    string
	ActorID string
}

// CalculateResultsDeps holds dependencies for CalculateResults.
type CalculateResultsDeps struct {
	WeekStore       WeekStoreForResults
	NominationStore NominationLister
	Announcer       Announcer
	Now             func() time.Time
}

// CalculateResultsResult is the completed week and its tally.
type CalculateResultsResult struct {
	Week   week.Week
	Result scoring.Result
}

// ExecuteCalculateResults tallies a voting week and records the winner.
// PRE: ActorID is an admin account
// POST: week is complete with winner stored, or unchanged with an error
// INVARIANT: a completed week's winner is never recomputed
func ExecuteCalculateResults(ctx context.Context, input CalculateResultsInput, deps CalculateResultsDeps) (CalculateResultsResult, error) {
	date, err := week.ParseDate(input.Date)
	if err != nil {
		return CalculateResultsResult{}, invalid(err)
	}
	w, res, err := deps.WeekStore.Finalize(ctx, date, scoring.Tally, deps.Now())
	if err != nil {
		slog.Info("week_event", "event", "results_rejected", "week", date, "reason", err.Error())
		return CalculateResultsResult{}, err
	}
	slog.Info("week_event", "event", "results_calculated", "week", w.Date, "winner", w.WinningNominationID,
		"score", w.WinningScore, "ballots", res.BallotCount, "tied", res.Tied, "by", input.ActorID)

	if deps.Announcer != nil {
		noms, err := deps.NominationStore.ListByWeek(ctx, w.Date)
		if err != nil {
			slog.Error("announcement_skipped", "week", w.Date, "kind", announcement.KindResults, "error", err)
		} else {
			deps.Announcer.Announce(ctx, announcement.Results(w, noms, res))
		}
	}
	return CalculateResultsResult{Week: w, Result: res}, nil
}
