package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"filmclub/internal/domain/announcement"
	"filmclub/internal/domain/genre"
	"filmclub/internal/domain/week"
)

// WeekStoreForSetGenre defines the store interface needed by SetGenre.
type WeekStoreForSetGenre interface {
	AssignGenre(ctx context.Context, date, genre, setBy string, now time.Time) (week.Week, error)
}

// GenreStoreForSetGenre defines the catalog interface needed by SetGenre.
type GenreStoreForSetGenre interface {
	GetByID(ctx context.Context, id string) (genre.Genre, error)
	ListActive(ctx context.Context) ([]genre.Genre, error)
}

// Announcer publishes a week announcement. Delivery failures are the
// announcer's concern and never fail the transition that triggered them.
type Announcer interface {
	Announce(ctx context.Context, a announcement.Announcement)
}

// SetGenreInput carries input for the orchestrator. Exactly one of Genre,
// GenreID, or Random selects the genre.
type SetGenreInput struct {
	Date    string
	Genre   string
	GenreID string
	Random  bool
	ActorID string
}

// SetGenreDeps holds dependencies for SetGenre.
type SetGenreDeps struct {
	WeekStore  WeekStoreForSetGenre
	GenreStore GenreStoreForSetGenre
	Announcer  Announcer
	Now        func() time.Time
	Intn       func(n int) int
}

// ErrAmbiguousGenre is returned when the input selects zero or several genre sources.
var ErrAmbiguousGenre = errors.New("choose exactly one of genre text, genre id, or random")

// ExecuteSetGenre moves a week from planning to nomination.
// PRE: ActorID is an admin account
// POST: week is in nomination with genre set; announcement published
// INVARIANT: a week past planning is never modified
func ExecuteSetGenre(ctx context.Context, input SetGenreInput, deps SetGenreDeps) (week.Week, error) {
	date, err := week.ParseDate(input.Date)
	if err != nil {
		return week.Week{}, invalid(err)
	}
	sources := 0
	for _, set := range []bool{input.Genre != "", input.GenreID != "", input.Random} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return week.Week{}, invalid(ErrAmbiguousGenre)
	}

	name := input.Genre
	switch {
	case input.GenreID != "":
		g, err := deps.GenreStore.GetByID(ctx, input.GenreID)
		if err != nil {
			return week.Week{}, err
		}
		name = g.Name
	case input.Random:
		active, err := deps.GenreStore.ListActive(ctx)
		if err != nil {
			return week.Week{}, err
		}
		intn := deps.Intn
		if intn == nil {
			intn = rand.IntN
		}
		g, err := genre.PickRandom(active, intn)
		if err != nil {
			return week.Week{}, err
		}
		name = g.Name
	}

	w, err := deps.WeekStore.AssignGenre(ctx, date, name, input.ActorID, deps.Now())
	if err != nil {
		if errors.Is(err, week.ErrEmptyGenre) || errors.Is(err, week.ErrGenreTooLong) {
			return week.Week{}, invalid(err)
		}
		return week.Week{}, err
	}

	slog.Info("week_event", "event", "genre_set", "week", w.Date, "genre", w.Genre, "set_by", input.ActorID, "random", input.Random)
	if deps.Announcer != nil {
		deps.Announcer.Announce(ctx, announcement.GenreSet(w))
	}
	return w, nil
}
