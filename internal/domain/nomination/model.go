package nomination

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Field limits.
const (
	MaxTitleLength = 200
	MinFilmYear    = 1888
	MaxFilmYear    = 2100
)

// Domain errors
var (
	ErrDuplicateNomination = errors.New("member has already nominated a film this week")
	ErrNotFound            = errors.New("nomination not found")
	ErrNotNominator        = errors.New("only the nominating member can retract a nomination")
	ErrEmptyTitle          = errors.New("film title cannot be empty")
	ErrTitleTooLong        = errors.New("film title cannot exceed 200 characters")
	ErrInvalidYear         = errors.New("film year must be between 1888 and 2100")
	ErrEmptyMember         = errors.New("member cannot be empty")
	ErrEmptyWeek           = errors.New("week cannot be empty")
)

// Film describes a nominated film.
type Film struct {
	Title       string
	Year        int
	ExternalRef string // catalog id, e.g. an IMDb tt-number
	PosterRef   string
}

// Nomination is one member's film proposal for one week.
type Nomination struct {
	ID        string
	WeekDate  string
	MemberID  string
	Film      Film
	CreatedAt time.Time
}

// Validate checks if the Nomination has valid data.
// PRE: Nomination struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Nomination) Validate() error {
	if n.WeekDate == "" {
		return ErrEmptyWeek
	}
	if strings.TrimSpace(n.MemberID) == "" {
		return ErrEmptyMember
	}
	return n.Film.Validate()
}

// Validate checks the film descriptor.
func (f *Film) Validate() error {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if f.Year < MinFilmYear || f.Year > MaxFilmYear {
		return ErrInvalidYear
	}
	return nil
}

// Label renders the film as "Title (Year)".
func (f Film) Label() string {
	if f.Year == 0 {
		return f.Title
	}
	return f.Title + " (" + strconv.Itoa(f.Year) + ")"
}

// CanRetract reports whether memberID may retract this nomination.
// INVARIANT: Nomination fields are not mutated
func (n *Nomination) CanRetract(memberID string, isAdmin bool) error {
	if isAdmin || n.MemberID == memberID {
		return nil
	}
	return ErrNotNominator
}

// Earlier orders nominations by creation time, then id.
func Earlier(a, b Nomination) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// IDs returns the ids of noms in order.
func IDs(noms []Nomination) []string {
	ids := make([]string, len(noms))
	for i, n := range noms {
		ids[i] = n.ID
	}
	return ids
}
