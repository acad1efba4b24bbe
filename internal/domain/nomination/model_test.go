package nomination_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"filmclub/internal/domain/nomination"
)

// TestNomination_Validate tests validation of Nomination.
func TestNomination_Validate(t *testing.T) {
	film := nomination.Film{Title: "Chinatown", Year: 1974}
	tests := []struct {
		name    string
		nom     nomination.Nomination
		wantErr error
	}{
		{name: "valid", nom: nomination.Nomination{WeekDate: "2026-10-12", MemberID: "m1", Film: film}},
		{name: "missing week", nom: nomination.Nomination{MemberID: "m1", Film: film}, wantErr: nomination.ErrEmptyWeek},
		{name: "missing member", nom: nomination.Nomination{WeekDate: "2026-10-12", Film: film}, wantErr: nomination.ErrEmptyMember},
		{name: "blank title", nom: nomination.Nomination{WeekDate: "2026-10-12", MemberID: "m1", Film: nomination.Film{Title: " ", Year: 1974}}, wantErr: nomination.ErrEmptyTitle},
		{name: "long title", nom: nomination.Nomination{WeekDate: "2026-10-12", MemberID: "m1", Film: nomination.Film{Title: strings.Repeat("a", 201), Year: 1974}}, wantErr: nomination.ErrTitleTooLong},
		{name: "year too early", nom: nomination.Nomination{WeekDate: "2026-10-12", MemberID: "m1", Film: nomination.Film{Title: "Old", Year: 1850}}, wantErr: nomination.ErrInvalidYear},
		{name: "year missing", nom: nomination.Nomination{WeekDate: "2026-10-12", MemberID: "m1", Film: nomination.Film{Title: "Old"}}, wantErr: nomination.ErrInvalidYear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nom.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestNomination_CanRetract allows the nominator and admins only.
func TestNomination_CanRetract(t *testing.T) {
	n := nomination.Nomination{ID: "n1", MemberID: "m1"}
	if err := n.CanRetract("m1", false); err != nil {
		t.Errorf("nominator: %v", err)
	}
	if err := n.CanRetract("m2", true); err != nil {
		t.Errorf("admin: %v", err)
	}
	if err := n.CanRetract("m2", false); !errors.Is(err, nomination.ErrNotNominator) {
		t.Errorf("other member error = %v", err)
	}
}

// TestEarlier orders by creation time then id.
func TestEarlier(t *testing.T) {
	t0 := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	a := nomination.Nomination{ID: "b", CreatedAt: t0}
	b := nomination.Nomination{ID: "a", CreatedAt: t0.Add(time.Second)}
	c := nomination.Nomination{ID: "a", CreatedAt: t0}
	if !nomination.Earlier(a, b) {
		t.Error("earlier timestamp should win")
	}
	if !nomination.Earlier(c, a) {
		t.Error("equal timestamps should fall back to id")
	}
	if got := (nomination.Film{Title: "Heat", Year: 1995}).Label(); got != "Heat (1995)" {
		t.Errorf("Label() = %q", got)
	}
}
