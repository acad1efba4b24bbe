package genre

import (
	"errors"
	"strings"
)

// MaxNameLength bounds a catalog genre name.
const MaxNameLength = 100

// Domain errors
var (
	ErrEmptyName      = errors.New("genre name cannot be empty")
	ErrNameTooLong    = errors.New("genre name cannot exceed 100 characters")
	ErrNoActiveGenres = errors.New("no active genres to pick from")
	ErrNotFound       = errors.New("genre not found")
)

// DefaultNames seeds an empty catalog.
var DefaultNames = []string{
	"Action", "Animation", "Comedy", "Documentary", "Drama", "Fantasy",
	"Film Noir", "Horror", "Musical", "Mystery", "Romance", "Science Fiction",
	"Thriller", "War", "Western",
}

// Genre is a catalog entry a week's theme can be drawn from.
type Genre struct {
	ID     string
	Name   string
	Active bool
}

// Validate checks if the Genre has valid data.
// PRE: Genre struct is populated
// POST: Returns nil if valid, error otherwise
func (g *Genre) Validate() error {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// PickRandom chooses uniformly among the active genres.
// PRE: intn returns a value in [0, n)
// POST: Returns an active genre or ErrNoActiveGenres
func PickRandom(genres []Genre, intn func(n int) int) (Genre, error) {
	active := make([]Genre, 0, len(genres))
	for _, g := range genres {
		if g.Active {
			active = append(active, g)
		}
	}
	if len(active) == 0 {
		return Genre{}, ErrNoActiveGenres
	}
	return active[intn(len(active))], nil
}
