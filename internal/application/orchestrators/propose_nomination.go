package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"filmclub/internal/adapters/omdb"
	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/week"
)

// NominationStoreForPropose defines the store interface needed by ProposeNomination.
type NominationStoreForPropose interface {
	Create(ctx context.Context, n nomination.Nomination) error
}

// FilmLookup resolves film details from an external catalog.
type FilmLookup interface {
	Enabled() bool
	Lookup(ctx context.Context, ref, title string, year int) (omdb.Film, error)
}

// ProposeNominationInput carries input for the orchestrator.
type ProposeNominationInput struct {
	Date        string
	MemberID    string
	Title       string
	Year        int
	ExternalRef string
	PosterRef   string
}

// ProposeNominationDeps holds dependencies for ProposeNomination.
type ProposeNominationDeps struct {
	NominationStore NominationStoreForPropose
	Films           FilmLookup // optional
	GenerateID      func() string
	Now             func() time.Time
}

// ExecuteProposeNomination records a member's film for the week.
// PRE: MemberID is the session's account id
// POST: nomination stored, or ErrDuplicateNomination / ErrPhaseMismatch
// INVARIANT: at most one nomination per member per week
func ExecuteProposeNomination(ctx context.Context, input ProposeNominationInput, deps ProposeNominationDeps) (nomination.Nomination, error) {
	date, err := week.ParseDate(input.Date)
	if err != nil {
		return nomination.Nomination{}, invalid(err)
	}
	film := nomination.Film{
		Title:       strings.TrimSpace(input.Title),
		Year:        input.Year,
		ExternalRef: strings.TrimSpace(input.ExternalRef),
		PosterRef:   strings.TrimSpace(input.PosterRef),
	}
	if needsLookup(film) && deps.Films != nil && deps.Films.Enabled() {
		film = fillFromCatalog(ctx, deps.Films, film)
	}

	n := nomination.Nomination{
		ID:        deps.GenerateID(),
		WeekDate:  date,
		MemberID:  input.MemberID,
		Film:      film,
		CreatedAt: deps.Now(),
	}
	if err := n.Validate(); err != nil {
		return nomination.Nomination{}, invalid(err)
	}
	if err := deps.NominationStore.Create(ctx, n); err != nil {
		slog.Info("nomination_event", "event", "rejected", "week", date, "member", input.MemberID, "reason", err.Error())
		return nomination.Nomination{}, err
	}
	slog.Info("nomination_event", "event", "proposed", "week", date, "member", input.MemberID, "nomination", n.ID, "film", film.Label())
	return n, nil
}

func needsLookup(f nomination.Film) bool {
	return f.Year == 0 || f.PosterRef == "" || (f.Title == "" && f.ExternalRef != "")
}

// fillFromCatalog completes missing fields; supplied fields are kept.
// A failed lookup leaves film unchanged.
func fillFromCatalog(ctx context.Context, films FilmLookup, film nomination.Film) nomination.Film {
	found, err := films.Lookup(ctx, film.ExternalRef, film.Title, film.Year)
	if err != nil {
		slog.Warn("film_lookup_failed", "title", film.Title, "ref", film.ExternalRef, "error", err)
		return film
	}
	if film.Title == "" {
		film.Title = found.Title
	}
	if film.Year == 0 {
		film.Year = found.Year
	}
	if film.ExternalRef == "" {
		film.ExternalRef = found.IMDbID
	}
	if film.PosterRef == "" {
		film.PosterRef = found.PosterURL
	}
	return film
}
