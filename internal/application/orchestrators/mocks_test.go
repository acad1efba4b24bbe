package orchestrators

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	weekStore "filmclub/internal/adapters/storage/week"
	"filmclub/internal/domain/announcement"
	"filmclub/internal/domain/ballot"
	"filmclub/internal/domain/genre"
	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/scoring"
	"filmclub/internal/domain/week"
)

var fixedTime = time.Date(2026, 10, 13, 19, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// sequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// mockClub is an in-memory week, nomination, and ballot store that applies
// the real domain transitions.
type mockClub struct {
	weeks   map[string]week.Week
	noms    map[string]nomination.Nomination
	ballots []ballot.Ballot
}

func newMockClub() *mockClub {
	return &mockClub{weeks: map[string]week.Week{}, noms: map[string]nomination.Nomination{}}
}

func (m *mockClub) weekOrNew(date string, now time.Time) week.Week {
	if w, ok := m.weeks[date]; ok {
		return w
	}
	return week.New(date, now)
}

func (m *mockClub) GetByDate(_ context.Context, date string) (week.Week, error) {
	w, ok := m.weeks[date]
	if !ok {
		return week.Week{}, week.ErrNotFound
	}
	return w, nil
}

func (m *mockClub) ListCompleted(_ context.Context, limit int) ([]week.Week, error) {
	var out []week.Week
	for _, w := range m.weeks {
		if w.Phase == week.PhaseComplete {
			out = append(out, w)
		}
	}
	slices.SortFunc(out, func(a, b week.Week) int { return -cmpStr(a.Date, b.Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockClub) AssignGenre(_ context.Context, date, g, setBy string, now time.Time) (week.Week, error) {
	w := m.weekOrNew(date, now)
	if err := w.AssignGenre(g, setBy, now); err != nil {
		return week.Week{}, err
	}
	m.weeks[date] = w
	return w, nil
}

func (m *mockClub) OpenVoting(ctx context.Context, date string, quorum int, now time.Time) (week.Week, error) {
	w := m.weekOrNew(date, now)
	if err := w.RequirePhase(week.PhaseNomination); err != nil {
		return week.Week{}, err
	}
	noms, _ := m.ListByWeek(ctx, date)
	if err := w.OpenVoting(len(noms), quorum, now); err != nil {
		return week.Week{}, err
	}
	m.weeks[date] = w
	return w, nil
}

func (m *mockClub) Finalize(ctx context.Context, date string, tally weekStore.TallyFunc, now time.Time) (week.Week, scoring.Result, error) {
	w := m.weekOrNew(date, now)
	if err := w.RequirePhase(week.PhaseVoting); err != nil {
		return week.Week{}, scoring.Result{}, err
	}
	noms, _ := m.ListByWeek(ctx, date)
	ballots, _ := m.ballotsFor(date)
	res, err := tally(noms, ballots)
	if err != nil {
		return week.Week{}, scoring.Result{}, err
	}
	if err := w.Complete(res.WinnerID, res.WinnerScore, now); err != nil {
		return week.Week{}, scoring.Result{}, err
	}
	m.weeks[date] = w
	return w, res, nil
}

// nomination store

func (m *mockClub) Create(_ context.Context, n nomination.Nomination) error {
	if w := m.weekOrNew(n.WeekDate, n.CreatedAt); !w.AcceptsNominations() {
		return week.ErrPhaseMismatch
	}
	for _, existing := range m.noms {
		if existing.WeekDate == n.WeekDate && existing.MemberID == n.MemberID {
			return nomination.ErrDuplicateNomination
		}
	}
	m.noms[n.ID] = n
	return nil
}

func (m *mockClub) GetByID(_ context.Context, id string) (nomination.Nomination, error) {
	n, ok := m.noms[id]
	if !ok {
		return nomination.Nomination{}, nomination.ErrNotFound
	}
	return n, nil
}

func (m *mockClub) Delete(_ context.Context, id string) error {
	n, ok := m.noms[id]
	if !ok {
		return nomination.ErrNotFound
	}
	if w := m.weekOrNew(n.WeekDate, fixedTime); !w.AcceptsNominations() {
		return week.ErrPhaseMismatch
	}
	delete(m.noms, id)
	return nil
}

func (m *mockClub) ListByWeek(_ context.Context, date string) ([]nomination.Nomination, error) {
	var out []nomination.Nomination
	for _, n := range m.noms {
		if n.WeekDate == date {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b nomination.Nomination) int {
		if nomination.Earlier(a, b) {
			return -1
		}
		return 1
	})
	return out, nil
}

func (m *mockClub) ballotsFor(date string) ([]ballot.Ballot, error) {
	var out []ballot.Ballot
	for _, b := range m.ballots {
		if b.WeekDate == date {
			out = append(out, b)
		}
	}
	return out, nil
}

// mockBallots adapts mockClub to the ballot store interfaces.
type mockBallots struct{ club *mockClub }

func (m mockBallots) Create(ctx context.Context, b ballot.Ballot) error {
	if w := m.club.weekOrNew(b.WeekDate, b.CreatedAt); !w.AcceptsBallots() {
		return week.ErrPhaseMismatch
	}
	noms, _ := m.club.ListByWeek(ctx, b.WeekDate)
	if err := b.Validate(nomination.IDs(noms)); err != nil {
		return err
	}
	for _, existing := range m.club.ballots {
		if existing.WeekDate == b.WeekDate && existing.MemberID == b.MemberID {
			return ballot.ErrDuplicateBallot
		}
	}
	m.club.ballots = append(m.club.ballots, b)
	return nil
}

func (m mockBallots) ListByWeek(_ context.Context, date string) ([]ballot.Ballot, error) {
	return m.club.ballotsFor(date)
}

func (m mockBallots) GetByWeekAndMember(_ context.Context, date, member string) (ballot.Ballot, error) {
	for _, b := range m.club.ballots {
		if b.WeekDate == date && b.MemberID == member {
			return b, nil
		}
	}
	return ballot.Ballot{}, ballot.ErrNotFound
}

// mockGenres is an in-memory catalog.
type mockGenres struct {
	genres []genre.Genre
}

func (m *mockGenres) GetByID(_ context.Context, id string) (genre.Genre, error) {
	for _, g := range m.genres {
		if g.ID == id {
			return g, nil
		}
	}
	return genre.Genre{}, genre.ErrNotFound
}

func (m *mockGenres) ListActive(_ context.Context) ([]genre.Genre, error) {
	var out []genre.Genre
	for _, g := range m.genres {
		if g.Active {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGenres) Count(_ context.Context) (int, error) { return len(m.genres), nil }

func (m *mockGenres) Save(_ context.Context, g genre.Genre) error {
	m.genres = append(m.genres, g)
	return nil
}

// recordingAnnouncer keeps every announcement it is given.
type recordingAnnouncer struct {
	got []announcement.Announcement
}

func (r *recordingAnnouncer) Announce(_ context.Context, a announcement.Announcement) {
	r.got = append(r.got, a)
}

func cmpStr(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
