package ballot_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ballotStore "filmclub/internal/adapters/storage/ballot"
	nominationStore "filmclub/internal/adapters/storage/nomination"
	"filmclub/internal/adapters/storage/storagetest"
	"filmclub/internal/domain/ballot"
	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/week"
)

const weekDate = "2026-10-12"

var t0 = time.Date(2026, 10, 12, 18, 0, 0, 0, time.UTC)

// setupVotingWeek creates a voting week with nominations a, b, c.
func setupVotingWeek(t *testing.T) *ballotStore.SQLStore {
	t.Helper()
	db := storagetest.Open(t)
	storagetest.SeedWeek(t, db, weekDate, week.PhaseNomination, "Noir")
	noms := nominationStore.NewSQLStore(db)
	for i, id := range []string{"a", "b", "c"} {
		err := noms.Create(context.Background(), nomination.Nomination{
			ID: id, WeekDate: weekDate, MemberID: "by-" + id,
			Film:      nomination.Film{Title: id, Year: 1980},
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("seed nomination %s: %v", id, err)
		}
	}
	storagetest.SetPhase(t, db, weekDate, week.PhaseVoting)
	return ballotStore.NewSQLStore(db)
}

func newBallot(id, member string, r ballot.Ranking) ballot.Ballot {
	return ballot.Ballot{ID: id, WeekDate: weekDate, MemberID: member, Ranking: r, CreatedAt: t0.Add(time.Hour)}
}

func TestSQLStore_CreateAndList(t *testing.T) {
	store := setupVotingWeek(t)
	ctx := context.Background()

	if err := store.Create(ctx, newBallot("b1", "m1", ballot.Ranking{"a": 3, "b": 2, "c": 1})); err != nil {
		t.Fatalf("Create b1: %v", err)
	}
	if err := store.Create(ctx, newBallot("b2", "m2", ballot.Ranking{"a": 1, "b": 3, "c": 2})); err != nil {
		t.Fatalf("Create b2: %v", err)
	}

	ballots, err := store.ListByWeek(ctx, weekDate)
	if err != nil {
		t.Fatalf("ListByWeek: %v", err)
	}
	if len(ballots) != 2 {
		t.Fatalf("ListByWeek returned %d ballots", len(ballots))
	}
	if got := ballots[1].Ranking; got["b"] != 3 || got["c"] != 2 || got["a"] != 1 {
		t.Errorf("b2 ranking = %v", got)
	}
	mine, err := store.GetByWeekAndMember(ctx, weekDate, "m1")
	if err != nil || mine.ID != "b1" || mine.Ranking["a"] != 3 {
		t.Errorf("GetByWeekAndMember = %+v, %v", mine, err)
	}
	if _, err := store.GetByWeekAndMember(ctx, weekDate, "nobody"); !errors.Is(err, ballot.ErrNotFound) {
		t.Errorf("missing ballot error = %v", err)
	}
	if n, _ := store.CountForWeek(ctx, weekDate); n != 2 {
		t.Errorf("CountForWeek = %d", n)
	}
}

func TestSQLStore_Create_Rejections(t *testing.T) {
	store := setupVotingWeek(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		b       ballot.Ballot
		wantErr error
	}{
		{name: "unknown nomination", b: newBallot("x1", "m1", ballot.Ranking{"a": 3, "b": 2, "zzz": 1}), wantErr: ballot.ErrInvalidRanking},
		{name: "missing nomination", b: newBallot("x2", "m1", ballot.Ranking{"a": 2, "b": 1}), wantErr: ballot.ErrInvalidRanking},
		{name: "repeated points", b: newBallot("x3", "m1", ballot.Ranking{"a": 3, "b": 3, "c": 1}), wantErr: ballot.ErrInvalidRanking},
		{name: "other week", b: ballot.Ballot{ID: "x4", WeekDate: "2026-10-19", MemberID: "m1", Ranking: ballot.Ranking{"a": 1}}, wantErr: week.ErrPhaseMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Create(ctx, tt.b); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if n, _ := store.CountForWeek(ctx, weekDate); n != 0 {
		t.Errorf("rejected ballots were stored: %d", n)
	}
}

func TestSQLStore_Create_Duplicate(t *testing.T) {
	store := setupVotingWeek(t)
	ctx := context.Background()
	if err := store.Create(ctx, newBallot("b1", "m1", ballot.Ranking{"a": 3, "b": 2, "c": 1})); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := store.Create(ctx, newBallot("b2", "m1", ballot.Ranking{"a": 1, "b": 2, "c": 3}))
	if !errors.Is(err, ballot.ErrDuplicateBallot) {
		t.Fatalf("second Create error = %v, want ErrDuplicateBallot", err)
	}
	mine, _ := store.GetByWeekAndMember(ctx, weekDate, "m1")
	if mine.Ranking["a"] != 3 {
		t.Errorf("original ballot changed: %v", mine.Ranking)
	}
}

func TestSQLStore_Create_ConcurrentDuplicates(t *testing.T) {
	store := setupVotingWeek(t)
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	var succeeded, duplicates atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Create(ctx, newBallot(fmt.Sprintf("b%d", i), "same-member", ballot.Ranking{"a": 3, "b": 2, "c": 1}))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ballot.ErrDuplicateBallot):
				duplicates.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded.Load() != 1 || duplicates.Load() != attempts-1 {
		t.Errorf("succeeded = %d, duplicates = %d", succeeded.Load(), duplicates.Load())
	}
	if n, _ := store.CountForWeek(ctx, weekDate); n != 1 {
		t.Errorf("stored ballots = %d, want 1", n)
	}
}
