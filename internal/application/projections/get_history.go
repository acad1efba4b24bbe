package projections

import (
	"context"
	"errors"

	"filmclub/internal/domain/nomination"
)

// DefaultHistoryLimit caps the history list when no limit is given.
const DefaultHistoryLimit = 52

// HistoryEntry is one completed week.
type HistoryEntry struct {
	Date        string `json:"date"`
	Genre       string `json:"genre"`
	FilmTitle   string `json:"filmTitle"`
	FilmYear    int    `json:"filmYear"`
	PosterRef   string `json:"posterRef,omitempty"`
	WinnerScore int    `json:"winnerScore"`
}

// GetHistoryDeps holds dependencies for GetHistory.
type GetHistoryDeps struct {
	WeekStore       WeekStore
	NominationStore NominationStore
}

// QueryGetHistory lists completed weeks, newest first, with their winning film.
func QueryGetHistory(ctx context.Context, limit int, deps GetHistoryDeps) ([]HistoryEntry, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	weeks, err := deps.WeekStore.ListCompleted(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(weeks))
	for _, w := range weeks {
		entry := HistoryEntry{Date: w.Date, Genre: w.Genre, WinnerScore: w.WinningScore}
		n, err := deps.NominationStore.GetByID(ctx, w.WinningNominationID)
		switch {
		case err == nil:
			entry.FilmTitle = n.Film.Title
			entry.FilmYear = n.Film.Year
			entry.PosterRef = n.Film.PosterRef
		case !errors.Is(err, nomination.ErrNotFound):
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}
