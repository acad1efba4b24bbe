package outbox

import (
	"errors"
	"time"
)

// Status constants for the entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Action types for announcement deliveries.
const (
	ActionTypeEmail = "announcement_email"
	ActionTypeChat  = "announcement_chat"
)

// DefaultMaxAttempts caps retries for an entry.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType   = errors.New("action type is required")
	ErrUnknownActionType = errors.New("action type must be announcement_email or announcement_chat")
	ErrEmptyPayload      = errors.New("payload is required")
	ErrZeroCreatedAt     = errors.New("created_at must be set")
)

// Entry is an announcement delivery that failed and awaits retry.
type Entry struct {
	ID              string
	ActionType      string
	Payload         string // JSON-encoded announcement
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ExternalID      string // provider message id once delivered
	ErrorMessage    string
}

// NewEntry builds a pending entry recording the first failed attempt.
// POST: Status is pending, Attempts is 1, ErrorMessage holds cause
func NewEntry(id, actionType, payload string, cause error, now time.Time) Entry {
	e := Entry{
		ID:              id,
		ActionType:      actionType,
		Payload:         payload,
		Status:          StatusPending,
		Attempts:        1,
		MaxAttempts:     DefaultMaxAttempts,
		LastAttemptedAt: now,
		CreatedAt:       now,
	}
	if cause != nil {
		e.ErrorMessage = cause.Error()
	}
	return e
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise; MaxAttempts defaulted when unset
func (e *Entry) Validate() error {
	switch e.ActionType {
	case "":
		return ErrEmptyActionType
	case ActionTypeEmail, ActionTypeChat:
	default:
		return ErrUnknownActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrZeroCreatedAt
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry reports whether another attempt is allowed.
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying) && e.Attempts < e.MaxAttempts
}

// DueAt returns when the next attempt may run.
// Backoff doubles per attempt from base, capped at max.
func (e *Entry) DueAt(base, max time.Duration) time.Time {
	if e.LastAttemptedAt.IsZero() {
		return e.CreatedAt
	}
	delay := base << e.Attempts
	if delay <= 0 || delay > max {
		delay = max
	}
	return e.LastAttemptedAt.Add(delay)
}

// MarkAttempt records the start of a retry.
// PRE: CanRetry() is true
// POST: Attempts incremented, Status is retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess records a delivered announcement.
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records a failed attempt; the entry fails permanently once
// MaxAttempts is reached.
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// MarkAbandoned stops further retries.
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

// IsTerminal reports whether the entry will never be retried.
func (e *Entry) IsTerminal() bool {
	return e.Status == StatusDone || e.Status == StatusFailed || e.Status == StatusAbandoned
}
