package announcement

import (
	"fmt"
	"strings"

	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/scoring"
	"filmclub/internal/domain/week"
)

// Kind identifies which phase change produced the announcement.
type Kind string

// Kind constants
const (
	KindGenreSet     Kind = "genre_set"
	KindVotingOpened Kind = "voting_opened"
	KindResults      Kind = "results"
)

// Announcement is a club-wide message about a week's progress.
type Announcement struct {
	Kind     Kind   `json:"kind"`
	WeekDate string `json:"week_date"`
	Subject  string `json:"subject"`
	Markdown string `json:"markdown"`
}

// GenreSet announces that nominations are open.
func GenreSet(w week.Week) Announcement {
	return Announcement{
		Kind:     KindGenreSet,
		WeekDate: w.Date,
		Subject:  fmt.Sprintf("Week of %s: %s", w.Date, w.Genre),
		Markdown: fmt.Sprintf("This week's genre is **%s**.\n\nNominations are open. One film per member.", w.Genre),
	}
}

// VotingOpened lists the nominees once voting starts.
func VotingOpened(w week.Week, noms []nomination.Nomination) Announcement {
	var b strings.Builder
	fmt.Fprintf(&b, "Voting is open for the week of %s (%s).\n\n", w.Date, w.Genre)
	for _, n := range noms {
		fmt.Fprintf(&b, "- %s\n", n.Film.Label())
	}
	b.WriteString("\nRank every film. Your top pick gets the most points.")
	return Announcement{
		Kind:     KindVotingOpened,
		WeekDate: w.Date,
		Subject:  fmt.Sprintf("Voting open: %s", w.Genre),
		Markdown: b.String(),
	}
}

// Results announces the winner with the full standings.
// PRE: res was tallied from noms
func Results(w week.Week, noms []nomination.Nomination, res scoring.Result) Announcement {
	films := make(map[string]nomination.Film, len(noms))
	for _, n := range noms {
		films[n.ID] = n.Film
	}
	winner := films[res.WinnerID]

	var b strings.Builder
	fmt.Fprintf(&b, "We're watching **%s** with %d points.\n\n", winner.Label(), res.WinnerScore)
	if res.Tied {
		b.WriteString("It was a tie at the top; the earliest nomination wins.\n\n")
	}
	for _, s := range res.Standings {
		fmt.Fprintf(&b, "%d. %s: %d\n", s.Rank, films[s.NominationID].Label(), s.Total)
	}
	fmt.Fprintf(&b, "\n%d ballots cast.", res.BallotCount)
	return Announcement{
		Kind:     KindResults,
		WeekDate: w.Date,
		Subject:  fmt.Sprintf("This week's film: %s", winner.Label()),
		Markdown: b.String(),
	}
}
