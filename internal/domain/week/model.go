package week

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Phase is the lifecycle position of a week.
type Phase string

// Phase constants, in lifecycle order.
const (
	PhasePlanning   Phase = "planning"
	PhaseNomination Phase = "nomination"
	PhaseVoting     Phase = "voting"
	PhaseComplete   Phase = "complete"
)

// DefaultQuorum is the minimum number of nominations required to open voting.
const DefaultQuorum = 3

// MaxGenreLength bounds free-text genre input.
const MaxGenreLength = 100

// Domain errors
var (
	ErrPhaseMismatch = errors.New("week is not in the required phase")
	ErrQuorumNotMet  = errors.New("not enough nominations to open voting")
	ErrNotFound      = errors.New("week not found")
	ErrEmptyGenre    = errors.New("genre cannot be empty")
	ErrGenreTooLong  = errors.New("genre cannot exceed 100 characters")
	ErrInvalidPhase  = errors.New("phase must be one of: planning, nomination, voting, complete")
	ErrInvalidDate   = errors.New("week date must be YYYY-MM-DD or YYYY-Www")
	ErrNoWinner      = errors.New("winning nomination is required")
)

var phaseOrder = map[Phase]int{
	PhasePlanning:   0,
	PhaseNomination: 1,
	PhaseVoting:     2,
	PhaseComplete:   3,
}

// ParsePhase converts a stored string into a Phase.
// PRE: s is a persisted phase value
// POST: Returns the Phase or ErrInvalidPhase
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if _, ok := phaseOrder[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, s)
	}
	return p, nil
}

// Before reports whether p comes strictly earlier in the lifecycle than other.
func (p Phase) Before(other Phase) bool {
	return phaseOrder[p] < phaseOrder[other]
}

// Week holds state for one calendar week, keyed by its Monday date.
type Week struct {
	Date                string // Monday, YYYY-MM-DD
	Phase               Phase
	Genre               string
	GenreSetBy          string
	WinningNominationID string
	WinningScore        int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// New returns the implicit planning-phase week for date.
// PRE: date is a canonical Monday key
// POST: Phase is planning, no genre or winner
func New(date string, now time.Time) Week {
	return Week{
		Date:      date,
		Phase:     PhasePlanning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RequirePhase returns ErrPhaseMismatch unless the week is in want.
// INVARIANT: Week fields are not mutated
func (w *Week) RequirePhase(want Phase) error {
	if w.Phase != want {
		return fmt.Errorf("%w: week %s is %s, need %s", ErrPhaseMismatch, w.Date, w.Phase, want)
	}
	return nil
}

// AssignGenre moves the week from planning to nomination.
// PRE: Phase is planning; genre is non-empty after trimming
// POST: Genre and GenreSetBy set, Phase is nomination
func (w *Week) AssignGenre(genre, setBy string, now time.Time) error {
	if err := w.RequirePhase(PhasePlanning); err != nil {
		return err
	}
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return ErrEmptyGenre
	}
	if len(genre) > MaxGenreLength {
		return ErrGenreTooLong
	}
	w.Genre = genre
	w.GenreSetBy = setBy
	w.Phase = PhaseNomination
	w.UpdatedAt = now
	return nil
}

// OpenVoting moves the week from nomination to voting.
// PRE: Phase is nomination; nominationCount >= quorum
// POST: Phase is voting
// INVARIANT: on error the week is unchanged
func (w *Week) OpenVoting(nominationCount, quorum int, now time.Time) error {
	if err := w.RequirePhase(PhaseNomination); err != nil {
		return err
	}
	if quorum <= 0 {
		quorum = DefaultQuorum
	}
	if nominationCount < quorum {
		return fmt.Errorf("%w: have %d, need %d", ErrQuorumNotMet, nominationCount, quorum)
	}
	w.Phase = PhaseVoting
	w.UpdatedAt = now
	return nil
}

// Complete records the winner and moves the week from voting to complete.
// PRE: Phase is voting; winnerID is non-empty
// POST: WinningNominationID and WinningScore set, Phase is complete
func (w *Week) Complete(winnerID string, score int, now time.Time) error {
	if err := w.RequirePhase(PhaseVoting); err != nil {
		return err
	}
	if winnerID == "" {
		return ErrNoWinner
	}
	w.WinningNominationID = winnerID
	w.WinningScore = score
	w.Phase = PhaseComplete
	w.UpdatedAt = now
	return nil
}

// HasResult reports whether a winner has been recorded.
func (w *Week) HasResult() bool {
	return w.Phase == PhaseComplete && w.WinningNominationID != ""
}

// AcceptsNominations reports whether nominations may be added or removed.
func (w *Week) AcceptsNominations() bool {
	return w.Phase == PhaseNomination
}

// AcceptsBallots reports whether ballots may be cast.
func (w *Week) AcceptsBallots() bool {
	return w.Phase == PhaseVoting
}

// Validate checks if the Week has valid data.
// PRE: Week struct is populated
// POST: Returns nil if valid, error otherwise
func (w *Week) Validate() error {
	if _, err := ParseDate(w.Date); err != nil {
		return err
	}
	if _, err := ParsePhase(string(w.Phase)); err != nil {
		return err
	}
	if w.Phase != PhasePlanning && strings.TrimSpace(w.Genre) == "" {
		return ErrEmptyGenre
	}
	if w.Phase == PhaseComplete && w.WinningNominationID == "" {
		return ErrNoWinner
	}
	return nil
}
