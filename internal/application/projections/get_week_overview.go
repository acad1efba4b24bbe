package projections

import (
	"context"
	"errors"
	"time"

	"filmclub/internal/domain/ballot"
	"filmclub/internal/domain/week"
)

// GetWeekOverviewQuery carries query parameters.
type GetWeekOverviewQuery struct {
	Date     string
	ViewerID string
	Quorum   int
}

// NominationView is a nomination as shown to members.
type NominationView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Year        int       `json:"year"`
	ExternalRef string    `json:"externalRef,omitempty"`
	PosterRef   string    `json:"posterRef,omitempty"`
	NominatedBy string    `json:"nominatedBy"`
	Mine        bool      `json:"mine"`
	CreatedAt   time.Time `json:"createdAt"`
}

// WeekOverview is the state of one week from a member's point of view.
type WeekOverview struct {
	Date            string           `json:"date"`
	Phase           week.Phase       `json:"phase"`
	Genre           string           `json:"genre,omitempty"`
	Nominations     []NominationView `json:"nominations"`
	NominationCount int              `json:"nominationCount"`
	Quorum          int              `json:"quorum"`
	QuorumMet       bool             `json:"quorumMet"`
	BallotCount     int              `json:"ballotCount"`
	MyNominationID  string           `json:"myNominationId,omitempty"`
	HasVoted        bool             `json:"hasVoted"`
	WinnerID        string           `json:"winnerId,omitempty"`
}

// GetWeekOverviewDeps holds dependencies for GetWeekOverview.
type GetWeekOverviewDeps struct {
	WeekStore       WeekStore
	NominationStore NominationStore
	BallotStore     BallotStore
	AccountStore    AccountStore
}

// QueryGetWeekOverview assembles a week's phase, nominations, and the viewer's progress.
// PRE: Date is a canonical Monday key
// POST: a week with no record is reported as planning with no nominations
func QueryGetWeekOverview(ctx context.Context, query GetWeekOverviewQuery, deps GetWeekOverviewDeps) (WeekOverview, error) {
	w, err := deps.WeekStore.GetByDate(ctx, query.Date)
	if errors.Is(err, week.ErrNotFound) {
		w = week.Week{Date: query.Date, Phase: week.PhasePlanning}
	} else if err != nil {
		return WeekOverview{}, err
	}

	out := WeekOverview{
		Date:        w.Date,
		Phase:       w.Phase,
		Genre:       w.Genre,
		Nominations: []NominationView{},
		Quorum:      query.Quorum,
		WinnerID:    w.WinningNominationID,
	}
	if w.Phase == week.PhasePlanning {
		return out, nil
	}

	noms, err := deps.NominationStore.ListByWeek(ctx, w.Date)
	if err != nil {
		return WeekOverview{}, err
	}
	names, err := displayNames(ctx, deps.AccountStore)
	if err != nil {
		return WeekOverview{}, err
	}
	for _, n := range noms {
		mine := query.ViewerID != "" && n.MemberID == query.ViewerID
		if mine {
			out.MyNominationID = n.ID
		}
		out.Nominations = append(out.Nominations, NominationView{
			ID:          n.ID,
			Title:       n.Film.Title,
			Year:        n.Film.Year,
			ExternalRef: n.Film.ExternalRef,
			PosterRef:   n.Film.PosterRef,
			NominatedBy: names[n.MemberID],
			Mine:        mine,
			CreatedAt:   n.CreatedAt,
		})
	}
	out.NominationCount = len(noms)
	out.QuorumMet = out.NominationCount >= query.Quorum

	if w.Phase == week.PhaseNomination {
		return out, nil
	}
	if out.BallotCount, err = deps.BallotStore.CountForWeek(ctx, w.Date); err != nil {
		return WeekOverview{}, err
	}
	if query.ViewerID != "" {
		_, err := deps.BallotStore.GetByWeekAndMember(ctx, w.Date, query.ViewerID)
		switch {
		case err == nil:
			out.HasVoted = true
		case !errors.Is(err, ballot.ErrNotFound):
			return WeekOverview{}, err
		}
	}
	return out, nil
}
