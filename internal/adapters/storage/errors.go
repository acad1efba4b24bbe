package storage

import (
	"fmt"
	"time"
)

// TimeLayout is the fixed-width UTC layout used for every stored timestamp,
// so that text ordering matches time ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// PersistenceError wraps a failure of the storage backend itself, as opposed
// to a business-rule rejection.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

// Unwrap returns the driver error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Wrap returns nil for a nil err, otherwise a *PersistenceError.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored timestamp, accepting RFC 3339 variants written by
// older rows or other tools.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %q", s)
}
