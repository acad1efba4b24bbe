package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	"filmclub/internal/domain/account"
	"filmclub/internal/domain/ballot"
	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/week"
)

var created = time.Date(2026, 10, 13, 19, 0, 0, 0, time.UTC)

type mockWeeks struct {
	weeks map[string]week.Week
}

func (m *mockWeeks) GetByDate(_ context.Context, date string) (week.Week, error) {
	w, ok := m.weeks[date]
	if !ok {
		return week.Week{}, week.ErrNotFound
	}
	return w, nil
}

func (m *mockWeeks) ListCompleted(_ context.Context, limit int) ([]week.Week, error) {
	var out []week.Week
	for _, date := range []string{"2026-10-12", "2026-10-05", "2026-09-28"} {
		if w, ok := m.weeks[date]; ok && w.Phase == week.PhaseComplete && len(out) < limit {
			out = append(out, w)
		}
	}
	return out, nil
}

type mockNominations struct {
	noms []nomination.Nomination
}

func (m *mockNominations) GetByID(_ context.Context, id string) (nomination.Nomination, error) {
	for _, n := range m.noms {
		if n.ID == id {
			return n, nil
		}
	}
	return nomination.Nomination{}, nomination.ErrNotFound
}

func (m *mockNominations) ListByWeek(_ context.Context, date string) ([]nomination.Nomination, error) {
	var out []nomination.Nomination
	for _, n := range m.noms {
		if n.WeekDate == date {
			out = append(out, n)
		}
	}
	return out, nil
}

type mockBallots struct {
	ballots []ballot.Ballot
}

func (m *mockBallots) ListByWeek(_ context.Context, date string) ([]ballot.Ballot, error) {
	var out []ballot.Ballot
	for _, b := range m.ballots {
		if b.WeekDate == date {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBallots) CountForWeek(ctx context.Context, date string) (int, error) {
	bs, _ := m.ListByWeek(ctx, date)
	return len(bs), nil
}

func (m *mockBallots) GetByWeekAndMember(_ context.Context, date, memberID string) (ballot.Ballot, error) {
	for _, b := range m.ballots {
		if b.WeekDate == date && b.MemberID == memberID {
			return b, nil
		}
	}
	return ballot.Ballot{}, ballot.ErrNotFound
}

type mockAccounts struct{}

func (mockAccounts) List(context.Context) ([]account.Account, error) {
	return []account.Account{
		{ID: "m1", DisplayName: "Ada"},
		{ID: "m2", DisplayName: "Bea"},
		{ID: "m3", DisplayName: "Cy"},
	}, nil
}

func nom(id, member, title string, year, offset int) nomination.Nomination {
	return nomination.Nomination{
		ID:        id,
		WeekDate:  "2026-10-12",
		MemberID:  member,
		Film:      nomination.Film{Title: title, Year: year},
		CreatedAt: created.Add(time.Duration(offset) * time.Minute),
	}
}

func vote(member string, r ballot.Ranking) ballot.Ballot {
	return ballot.Ballot{ID: "b-" + member, WeekDate: "2026-10-12", MemberID: member, Ranking: r}
}

// fixture is a completed week where a scores 8, b 6, and c 4.
func fixture(phase week.Phase) (*mockWeeks, *mockNominations, *mockBallots) {
	w := week.Week{Date: "2026-10-12", Phase: phase, Genre: "Noir"}
	if phase == week.PhaseComplete {
		w.WinningNominationID = "a"
		w.WinningScore = 8
	}
	weeks := &mockWeeks{weeks: map[string]week.Week{w.Date: w}}
	noms := &mockNominations{noms: []nomination.Nomination{
		nom("a", "m1", "The Third Man", 1949, 0),
		nom("b", "m2", "Laura", 1944, 1),
		nom("c", "m3", "Gilda", 1946, 2),
	}}
	ballots := &mockBallots{}
	if phase == week.PhaseVoting || phase == week.PhaseComplete {
		ballots.ballots = []ballot.Ballot{
			vote("m1", ballot.Ranking{"a": 3, "b": 2, "c": 1}),
			vote("m2", ballot.Ranking{"a": 3, "c": 2, "b": 1}),
			vote("m3", ballot.Ranking{"b": 3, "a": 2, "c": 1}),
		}
	}
	return weeks, noms, ballots
}

// TestQueryGetWeekOverview_ImplicitPlanning verifies a week without a record reads as planning.
func TestQueryGetWeekOverview_ImplicitPlanning(t *testing.T) {
	weeks, noms, ballots := fixture(week.PhaseNomination)
	got, err := QueryGetWeekOverview(context.Background(), GetWeekOverviewQuery{Date: "2026-10-19", ViewerID: "m1", Quorum: 3},
		GetWeekOverviewDeps{WeekStore: weeks, NominationStore: noms, BallotStore: ballots, AccountStore: mockAccounts{}})
	if err != nil {
		t.Fatalf("QueryGetWeekOverview: %v", err)
	}
	if got.Phase != week.PhasePlanning || got.Date != "2026-10-19" {
		t.Errorf("got %s/%s, want planning/2026-10-19", got.Phase, got.Date)
	}
	if got.Nominations == nil || len(got.Nominations) != 0 {
		t.Errorf("Nominations = %v, want empty non-nil", got.Nominations)
	}
}

// TestQueryGetWeekOverview_Nomination verifies ownership flags and quorum progress.
func TestQueryGetWeekOverview_Nomination(t *testing.T) {
	weeks, noms, ballots := fixture(week.PhaseNomination)
	got, err := QueryGetWeekOverview(context.Background(), GetWeekOverviewQuery{Date: "2026-10-12", ViewerID: "m2", Quorum: 4},
		GetWeekOverviewDeps{WeekStore: weeks, NominationStore: noms, BallotStore: ballots, AccountStore: mockAccounts{}})
	if err != nil {
		t.Fatalf("QueryGetWeekOverview: %v", err)
	}
	if got.NominationCount != 3 || got.QuorumMet {
		t.Errorf("count=%d quorumMet=%v, want 3/false", got.NominationCount, got.QuorumMet)
	}
	if got.MyNominationID != "b" {
		t.Errorf("MyNominationID = %q, want b", got.MyNominationID)
	}
	for _, n := range got.Nominations {
		if n.Mine != (n.ID == "b") {
			t.Errorf("nomination %s Mine = %v", n.ID, n.Mine)
		}
	}
	if got.Nominations[0].NominatedBy != "Ada" {
		t.Errorf("NominatedBy = %q, want Ada", got.Nominations[0].NominatedBy)
	}
}

// TestQueryGetWeekOverview_Voting verifies ballot progress and the viewer's vote flag.
func TestQueryGetWeekOverview_Voting(t *testing.T) {
	weeks, noms, ballots := fixture(week.PhaseVoting)
	ballots.ballots = ballots.ballots[:2]
	deps := GetWeekOverviewDeps{WeekStore: weeks, NominationStore: noms, BallotStore: ballots, AccountStore: mockAccounts{}}

	tests := []struct {
		viewer string
		voted  bool
	}{
		{"m1", true},
		{"m3", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := QueryGetWeekOverview(context.Background(), GetWeekOverviewQuery{Date: "2026-10-12", ViewerID: tt.viewer, Quorum: 3}, deps)
		if err != nil {
			t.Fatalf("viewer %q: %v", tt.viewer, err)
		}
		if got.BallotCount != 2 {
			t.Errorf("viewer %q: BallotCount = %d, want 2", tt.viewer, got.BallotCount)
		}
		if got.HasVoted != tt.voted {
			t.Errorf("viewer %q: HasVoted = %v, want %v", tt.viewer, got.HasVoted, tt.voted)
		}
	}
}

// TestQueryGetWeekResults_Breakdown verifies totals and per-voter points are re-derived from ballots.
func TestQueryGetWeekResults_Breakdown(t *testing.T) {
	weeks, noms, ballots := fixture(week.PhaseComplete)
	got, err := QueryGetWeekResults(context.Background(), GetWeekResultsQuery{Date: "2026-10-12"},
		GetWeekResultsDeps{WeekStore: weeks, NominationStore: noms, BallotStore: ballots, AccountStore: mockAccounts{}})
	if err != nil {
		t.Fatalf("QueryGetWeekResults: %v", err)
	}
	if got.Winner.FilmTitle != "The Third Man" || got.Winner.Score != 8 {
		t.Errorf("Winner = %+v", got.Winner)
	}
	wantTotals := []struct {
		id    string
		total int
	}{{"a", 8}, {"b", 6}, {"c", 4}}
	if len(got.Breakdown) != len(wantTotals) {
		t.Fatalf("Breakdown has %d rows, want 3", len(got.Breakdown))
	}
	for i, want := range wantTotals {
		row := got.Breakdown[i]
		if row.NominationID != want.id || row.TotalScore != want.total || row.Rank != i+1 {
			t.Errorf("row %d = %s/%d/rank %d, want %s/%d", i, row.NominationID, row.TotalScore, row.Rank, want.id, want.total)
		}
		sum := 0
		for _, c := range row.VoterContributions {
			sum += c.Points
		}
		if sum != row.TotalScore {
			t.Errorf("row %s contributions sum to %d, want %d", row.NominationID, sum, row.TotalScore)
		}
	}
	if c := got.Breakdown[0].VoterContributions[0]; c.MemberID != "m1" || c.DisplayName != "Ada" || c.Points != 3 {
		t.Errorf("first contribution = %+v", c)
	}
}

// TestQueryGetWeekResults_NotComplete verifies results are hidden until the week completes.
func TestQueryGetWeekResults_NotComplete(t *testing.T) {
	weeks, noms, ballots := fixture(week.PhaseVoting)
	deps := GetWeekResultsDeps{WeekStore: weeks, NominationStore: noms, BallotStore: ballots}

	_, err := QueryGetWeekResults(context.Background(), GetWeekResultsQuery{Date: "2026-10-12"}, deps)
	if !errors.Is(err, week.ErrPhaseMismatch) {
		t.Errorf("voting week: got %v, want ErrPhaseMismatch", err)
	}
	_, err = QueryGetWeekResults(context.Background(), GetWeekResultsQuery{Date: "2026-10-19"}, deps)
	if !errors.Is(err, week.ErrNotFound) {
		t.Errorf("missing week: got %v, want ErrNotFound", err)
	}
}

// TestQueryGetHistory verifies completed weeks carry their winning film.
func TestQueryGetHistory(t *testing.T) {
	weeks, noms, _ := fixture(week.PhaseComplete)
	weeks.weeks["2026-10-05"] = week.Week{Date: "2026-10-05", Phase: week.PhaseComplete, Genre: "Western", WinningNominationID: "gone", WinningScore: 5}
	weeks.weeks["2026-09-28"] = week.Week{Date: "2026-09-28", Phase: week.PhaseVoting}

	got, err := QueryGetHistory(context.Background(), 0, GetHistoryDeps{WeekStore: weeks, NominationStore: noms})
	if err != nil {
		t.Fatalf("QueryGetHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].FilmTitle != "The Third Man" || got[0].FilmYear != 1949 || got[0].WinnerScore != 8 {
		t.Errorf("entry 0 = %+v", got[0])
	}
	if got[1].FilmTitle != "" || got[1].Genre != "Western" {
		t.Errorf("entry 1 = %+v, want Western with no film", got[1])
	}
}
