// Package scoring tallies ranked ballots into a weekly winner.
//
// Each ballot awards N points to its first choice down to 1 point for its
// last. A nomination's total is the sum of its points across all ballots.
// Ties on total go to the nomination created first, then the smaller id.
package scoring

import (
	"fmt"
	"sort"

	"filmclub/internal/domain/ballot"
	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/week"
)

// Errors returned when no winner can be produced. Both wrap week.ErrQuorumNotMet.
var (
	ErrNoNominations = fmt.Errorf("%w: no nominations to score", week.ErrQuorumNotMet)
	ErrNoBallots     = fmt.Errorf("%w: no ballots have been cast", week.ErrQuorumNotMet)
)

// Contribution is the points one voter gave one nomination.
type Contribution struct {
	MemberID string
	Points   int
}

// Standing is a nomination's position in the tally.
type Standing struct {
	NominationID  string
	Total         int
	Rank          int
	Contributions []Contribution
}

// Result is the outcome of a tally.
type Result struct {
	WinnerID    string
	WinnerScore int
	Standings   []Standing // best first
	BallotCount int
	Tied        bool // winner shared the top total and won on tie-break
}

// Tally scores ballots against the week's nominations.
// PRE: noms are the week's nominations; ballots were cast for the same week
// POST: Standings cover every nomination; WinnerScore >= every other total
func Tally(noms []nomination.Nomination, ballots []ballot.Ballot) (Result, error) {
	if len(noms) == 0 {
		return Result{}, ErrNoNominations
	}
	if len(ballots) == 0 {
		return Result{}, ErrNoBallots
	}

	ids := nomination.IDs(noms)
	byID := make(map[string]*Standing, len(noms))
	standings := make([]Standing, len(noms))
	for i, n := range noms {
		standings[i] = Standing{NominationID: n.ID}
	}
	for i := range standings {
		byID[standings[i].NominationID] = &standings[i]
	}

	for _, b := range ballots {
		if err := ballot.ValidateRanking(b.Ranking, ids); err != nil {
			return Result{}, fmt.Errorf("ballot %s: %w", b.ID, err)
		}
		for nomID, pts := range b.Ranking {
			s := byID[nomID]
			s.Total += pts
			s.Contributions = append(s.Contributions, Contribution{MemberID: b.MemberID, Points: pts})
		}
	}

	order := make(map[string]nomination.Nomination, len(noms))
	for _, n := range noms {
		order[n.ID] = n
	}
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return nomination.Earlier(order[a.NominationID], order[b.NominationID])
	})
	for i := range standings {
		standings[i].Rank = i + 1
		sort.Slice(standings[i].Contributions, func(x, y int) bool {
			return standings[i].Contributions[x].MemberID < standings[i].Contributions[y].MemberID
		})
	}

	winner := standings[0]
	return Result{
		WinnerID:    winner.NominationID,
		WinnerScore: winner.Total,
		Standings:   standings,
		BallotCount: len(ballots),
		Tied:        len(standings) > 1 && standings[1].Total == winner.Total,
	}, nil
}
