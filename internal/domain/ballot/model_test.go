package ballot_test

import (
	"errors"
	"testing"

	"filmclub/internal/domain/ballot"
)

var noms = []string{"a", "b", "c"}

// TestValidateRanking covers the permutation rule.
func TestValidateRanking(t *testing.T) {
	tests := []struct {
		name    string
		ranking ballot.Ranking
		wantErr bool
	}{
		{name: "valid permutation", ranking: ballot.Ranking{"a": 3, "b": 1, "c": 2}},
		{name: "missing film", ranking: ballot.Ranking{"a": 2, "b": 1}, wantErr: true},
		{name: "extra film", ranking: ballot.Ranking{"a": 3, "b": 1, "c": 2, "d": 4}, wantErr: true},
		{name: "unknown film", ranking: ballot.Ranking{"a": 3, "b": 1, "z": 2}, wantErr: true},
		{name: "duplicate points", ranking: ballot.Ranking{"a": 3, "b": 3, "c": 1}, wantErr: true},
		{name: "zero points", ranking: ballot.Ranking{"a": 0, "b": 1, "c": 2}, wantErr: true},
		{name: "points above N", ranking: ballot.Ranking{"a": 4, "b": 1, "c": 2}, wantErr: true},
		{name: "empty", ranking: ballot.Ranking{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ballot.ValidateRanking(tt.ranking, noms)
			if tt.wantErr && !errors.Is(err, ballot.ErrInvalidRanking) {
				t.Errorf("ValidateRanking() error = %v, want ErrInvalidRanking", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateRanking() unexpected error: %v", err)
			}
		})
	}
}

// TestValidateRanking_NoNominations rejects voting on an empty week.
func TestValidateRanking_NoNominations(t *testing.T) {
	if err := ballot.ValidateRanking(ballot.Ranking{}, nil); !errors.Is(err, ballot.ErrInvalidRanking) {
		t.Errorf("error = %v", err)
	}
}

// TestFromOrder converts a preference list to points.
func TestFromOrder(t *testing.T) {
	r, err := ballot.FromOrder([]string{"c", "a", "b"})
	if err != nil {
		t.Fatalf("FromOrder: %v", err)
	}
	if r["c"] != 3 || r["a"] != 2 || r["b"] != 1 {
		t.Errorf("FromOrder = %v", r)
	}
	if err := ballot.ValidateRanking(r, noms); err != nil {
		t.Errorf("converted ranking invalid: %v", err)
	}
	order := r.Order()
	if order[0] != "c" || order[2] != "b" {
		t.Errorf("Order() = %v", order)
	}
	if _, err := ballot.FromOrder([]string{"a", "a", "b"}); !errors.Is(err, ballot.ErrInvalidRanking) {
		t.Errorf("duplicate entry error = %v", err)
	}
}

// TestBallot_Validate checks identity fields before the ranking.
func TestBallot_Validate(t *testing.T) {
	b := ballot.Ballot{WeekDate: "2026-10-12", Ranking: ballot.Ranking{"a": 1, "b": 2, "c": 3}}
	if err := b.Validate(noms); !errors.Is(err, ballot.ErrEmptyMember) {
		t.Errorf("missing member error = %v", err)
	}
	b.MemberID = "m1"
	if err := b.Validate(noms); err != nil {
		t.Errorf("valid ballot: %v", err)
	}
}
