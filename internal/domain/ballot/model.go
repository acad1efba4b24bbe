package ballot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Domain errors
var (
	ErrDuplicateBallot = errors.New("member has already voted this week")
	ErrInvalidRanking  = errors.New("ranking must give each nomination a distinct score from 1 to N")
	ErrNotFound        = errors.New("ballot not found")
	ErrEmptyMember     = errors.New("member cannot be empty")
	ErrEmptyWeek       = errors.New("week cannot be empty")
)

// Ranking maps nomination id to points; N points is the top preference.
type Ranking map[string]int

// Ballot is one member's ranking of a week's nominations.
type Ballot struct {
	ID        string
	WeekDate  string
	MemberID  string
	Ranking   Ranking
	CreatedAt time.Time
}

// FromOrder builds a ranking from nomination ids listed most preferred first.
// PRE: order lists each nomination once
// POST: order[0] gets len(order) points, the last entry gets 1
func FromOrder(order []string) (Ranking, error) {
	r := make(Ranking, len(order))
	for i, id := range order {
		id = strings.TrimSpace(id)
		if _, dup := r[id]; dup {
			return nil, fmt.Errorf("%w: nomination %s listed twice", ErrInvalidRanking, id)
		}
		r[id] = len(order) - i
	}
	return r, nil
}

// Order returns the nomination ids from most to least preferred.
func (r Ranking) Order() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if r[ids[i]] != r[ids[j]] {
			return r[ids[i]] > r[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// ValidateRanking checks that r assigns the points 1..N exactly once
// over exactly the given nomination ids.
// PRE: nominationIDs is the week's current nomination set
// POST: Returns nil or an error wrapping ErrInvalidRanking
func ValidateRanking(r Ranking, nominationIDs []string) error {
	n := len(nominationIDs)
	if n == 0 {
		return fmt.Errorf("%w: week has no nominations", ErrInvalidRanking)
	}
	if len(r) != n {
		return fmt.Errorf("%w: ranked %d films, week has %d", ErrInvalidRanking, len(r), n)
	}
	known := make(map[string]bool, n)
	for _, id := range nominationIDs {
		known[id] = true
	}
	seen := make(map[int]string, n)
	for id, pts := range r {
		if !known[id] {
			return fmt.Errorf("%w: unknown nomination %s", ErrInvalidRanking, id)
		}
		if pts < 1 || pts > n {
			return fmt.Errorf("%w: %d points for %s out of range 1..%d", ErrInvalidRanking, pts, id, n)
		}
		if other, dup := seen[pts]; dup {
			return fmt.Errorf("%w: %s and %s both have %d points", ErrInvalidRanking, other, id, pts)
		}
		seen[pts] = id
	}
	return nil
}

// Validate checks if the Ballot has valid data against the week's nominations.
// PRE: Ballot struct is populated
// POST: Returns nil if valid, error otherwise
func (b *Ballot) Validate(nominationIDs []string) error {
	if b.WeekDate == "" {
		return ErrEmptyWeek
	}
	if strings.TrimSpace(b.MemberID) == "" {
		return ErrEmptyMember
	}
	return ValidateRanking(b.Ranking, nominationIDs)
}
