package projections

import (
	"context"
	"fmt"

	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/scoring"
	"filmclub/internal/domain/week"
)

// GetWeekResultsQuery carries query parameters.
type GetWeekResultsQuery struct {
	Date string
}

// Winner is the chosen film.
type Winner struct {
	NominationID string `json:"nominationId"`
	FilmTitle    string `json:"filmTitle"`
	FilmYear     int    `json:"filmYear"`
	Score        int    `json:"score"`
}

// VoterContribution is the points one member gave a film.
type VoterContribution struct {
	MemberID    string `json:"memberId"`
	DisplayName string `json:"displayName,omitempty"`
	Points      int    `json:"points"`
}

// BreakdownRow is one film's line in the results table.
type BreakdownRow struct {
	NominationID       string              `json:"nominationId"`
	FilmTitle          string              `json:"filmTitle"`
	FilmYear           int                 `json:"filmYear"`
	Rank               int                 `json:"rank"`
	TotalScore         int                 `json:"totalScore"`
	VoterContributions []VoterContribution `json:"voterContributions"`
}

// WeekResults is the rendered outcome of a completed week.
type WeekResults struct {
	Week        string         `json:"week"`
	Genre       string         `json:"genre"`
	Winner      Winner         `json:"winner"`
	Breakdown   []BreakdownRow `json:"breakdown"`
	BallotCount int            `json:"ballotCount"`
	Tied        bool           `json:"tied"`
}

// GetWeekResultsDeps holds dependencies for GetWeekResults.
type GetWeekResultsDeps struct {
	WeekStore       WeekStore
	NominationStore NominationStore
	BallotStore     BallotStore
	AccountStore    AccountStore
}

// QueryGetWeekResults re-derives the breakdown of a completed week from its ballots.
// PRE: Date is a canonical Monday key
// POST: returns ErrPhaseMismatch unless the week is complete
// INVARIANT: the winner shown is the stored winner, never a recomputed one
func QueryGetWeekResults(ctx context.Context, query GetWeekResultsQuery, deps GetWeekResultsDeps) (WeekResults, error) {
	w, err := deps.WeekStore.GetByDate(ctx, query.Date)
	if err != nil {
		return WeekResults{}, err
	}
	if err := w.RequirePhase(week.PhaseComplete); err != nil {
		return WeekResults{}, err
	}

	noms, err := deps.NominationStore.ListByWeek(ctx, w.Date)
	if err != nil {
		return WeekResults{}, err
	}
	ballots, err := deps.BallotStore.ListByWeek(ctx, w.Date)
	if err != nil {
		return WeekResults{}, err
	}
	res, err := scoring.Tally(noms, ballots)
	if err != nil {
		return WeekResults{}, fmt.Errorf("re-tally week %s: %w", w.Date, err)
	}
	names, err := displayNames(ctx, deps.AccountStore)
	if err != nil {
		return WeekResults{}, err
	}

	films := make(map[string]nomination.Film, len(noms))
	for _, n := range noms {
		films[n.ID] = n.Film
	}
	winner := films[w.WinningNominationID]
	out := WeekResults{
		Week:  w.Date,
		Genre: w.Genre,
		Winner: Winner{
			NominationID: w.WinningNominationID,
			FilmTitle:    winner.Title,
			FilmYear:     winner.Year,
			Score:        w.WinningScore,
		},
		BallotCount: res.BallotCount,
		Tied:        res.Tied,
	}
	for _, s := range res.Standings {
		row := BreakdownRow{
			NominationID:       s.NominationID,
			FilmTitle:          films[s.NominationID].Title,
			FilmYear:           films[s.NominationID].Year,
			Rank:               s.Rank,
			TotalScore:         s.Total,
			VoterContributions: make([]VoterContribution, 0, len(s.Contributions)),
		}
		for _, c := range s.Contributions {
			row.VoterContributions = append(row.VoterContributions, VoterContribution{
				MemberID:    c.MemberID,
				DisplayName: names[c.MemberID],
				Points:      c.Points,
			})
		}
		out.Breakdown = append(out.Breakdown, row)
	}
	return out, nil
}
