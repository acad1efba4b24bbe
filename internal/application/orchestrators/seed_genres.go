package orchestrators

import (
	"context"
	"log/slog"

	"filmclub/internal/domain/genre"
)

// GenreStoreForSeed defines the store interface needed by SeedGenres.
type GenreStoreForSeed interface {
	Count(ctx context.Context) (int, error)
	Save(ctx context.Context, g genre.Genre) error
}

// SeedGenresDeps holds dependencies for SeedGenres.
type SeedGenresDeps struct {
	GenreStore GenreStoreForSeed
	GenerateID func() string
}

// ExecuteSeedGenres fills an empty catalog with the default genres.
// POST: catalog unchanged when it already has entries
func ExecuteSeedGenres(ctx context.Context, deps SeedGenresDeps) error {
	count, err := deps.GenreStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, name := range genre.DefaultNames {
		g := genre.Genre{ID: deps.GenerateID(), Name: name, Active: true}
		if err := g.Validate(); err != nil {
			return err
		}
		if err := deps.GenreStore.Save(ctx, g); err != nil {
			return err
		}
	}
	slog.Info("genre_event", "event", "catalog_seeded", "count", len(genre.DefaultNames))
	return nil
}
