package genre_test

import (
	"errors"
	"strings"
	"testing"

	"filmclub/internal/domain/genre"
)

// TestGenre_Validate tests validation of Genre.
func TestGenre_Validate(t *testing.T) {
	tests := []struct {
		name    string
		g       genre.Genre
		wantErr error
	}{
		{name: "valid", g: genre.Genre{ID: "1", Name: "Western"}},
		{name: "blank", g: genre.Genre{ID: "2", Name: "  "}, wantErr: genre.ErrEmptyName},
		{name: "too long", g: genre.Genre{ID: "3", Name: strings.Repeat("x", 101)}, wantErr: genre.ErrNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.g.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestPickRandom only draws active genres.
func TestPickRandom(t *testing.T) {
	genres := []genre.Genre{
		{ID: "1", Name: "Horror", Active: false},
		{ID: "2", Name: "Western", Active: true},
		{ID: "3", Name: "Musical", Active: true},
	}
	var gotN int
	g, err := genre.PickRandom(genres, func(n int) int { gotN = n; return n - 1 })
	if err != nil {
		t.Fatalf("PickRandom: %v", err)
	}
	if gotN != 2 {
		t.Errorf("drew from %d genres, want 2", gotN)
	}
	if g.Name != "Musical" {
		t.Errorf("picked %s, want Musical", g.Name)
	}

	_, err = genre.PickRandom(genres[:1], func(n int) int { return 0 })
	if !errors.Is(err, genre.ErrNoActiveGenres) {
		t.Errorf("inactive-only error = %v", err)
	}
}
