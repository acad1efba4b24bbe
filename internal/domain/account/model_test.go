package account_test

import (
	"errors"
	"testing"
	"time"

	"filmclub/internal/domain/account"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		acct    account.Account
		wantErr error
	}{
		{name: "valid member", acct: account.Account{Email: "sam@club.test", DisplayName: "Sam", Role: account.RoleMember}},
		{name: "valid admin", acct: account.Account{Email: "ada@club.test", DisplayName: "Ada", Role: account.RoleAdmin}},
		{name: "empty email", acct: account.Account{DisplayName: "Sam", Role: account.RoleMember}, wantErr: account.ErrEmptyEmail},
		{name: "no at sign", acct: account.Account{Email: "sam", DisplayName: "Sam", Role: account.RoleMember}, wantErr: account.ErrInvalidEmail},
		{name: "no display name", acct: account.Account{Email: "sam@club.test", Role: account.RoleMember}, wantErr: account.ErrEmptyDisplayName},
		{name: "bad role", acct: account.Account{Email: "sam@club.test", DisplayName: "Sam", Role: "projectionist"}, wantErr: account.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.acct.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestAccount_Password hashes and verifies passwords.
func TestAccount_Password(t *testing.T) {
	var a account.Account
	if err := a.SetPassword("short"); !errors.Is(err, account.ErrPasswordTooShort) {
		t.Errorf("short password error = %v", err)
	}
	if err := a.SetPassword("popcorn-and-projectors"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := a.CheckPassword("popcorn-and-projectors"); err != nil {
		t.Errorf("CheckPassword correct: %v", err)
	}
	if err := a.CheckPassword("wrong-password-here"); !errors.Is(err, account.ErrWrongPassword) {
		t.Errorf("CheckPassword wrong error = %v", err)
	}
}

// TestAccount_Lockout locks after repeated failures.
func TestAccount_Lockout(t *testing.T) {
	now := time.Date(2026, 10, 12, 20, 0, 0, 0, time.UTC)
	var a account.Account
	for i := 0; i < account.MaxFailedLogins-1; i++ {
		a.RecordFailedLogin(now)
	}
	if a.IsLocked(now) {
		t.Fatal("locked too early")
	}
	a.RecordFailedLogin(now)
	if !a.IsLocked(now) {
		t.Fatal("expected lock after max failures")
	}
	if a.IsLocked(now.Add(account.LockoutDuration + time.Second)) {
		t.Error("lock should expire")
	}
	a.ResetFailedLogins()
	if a.FailedLogins != 0 || a.IsLocked(now) {
		t.Errorf("reset left %+v", a)
	}
}
