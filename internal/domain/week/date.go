package week

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical week key format.
const DateLayout = "2006-01-02"

// MondayOf returns midnight UTC on the Monday of t's ISO week.
func MondayOf(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// KeyFor returns the canonical week key for any instant in that week.
func KeyFor(t time.Time) string {
	return MondayOf(t).Format(DateLayout)
}

// ParseDate normalizes a date ("2026-10-14") or ISO week ("2026-W42")
// to the Monday key of that week.
// PRE: s is user or path input
// POST: Returns a YYYY-MM-DD Monday key, or ErrInvalidDate
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if year, wk, ok := strings.Cut(s, "-W"); ok {
		return parseISOWeek(year, wk)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return KeyFor(t), nil
}

func parseISOWeek(yearStr, weekStr string) (string, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || len(yearStr) != 4 {
		return "", fmt.Errorf("%w: year %q", ErrInvalidDate, yearStr)
	}
	wk, err := strconv.Atoi(weekStr)
	if err != nil || wk < 1 || wk > 53 {
		return "", fmt.Errorf("%w: week %q", ErrInvalidDate, weekStr)
	}
	// January 4th always falls in ISO week 1.
	monday := MondayOf(time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)).AddDate(0, 0, 7*(wk-1))
	if y, w := monday.ISOWeek(); y != year || w != wk {
		return "", fmt.Errorf("%w: %d has no week %d", ErrInvalidDate, year, wk)
	}
	return monday.Format(DateLayout), nil
}
