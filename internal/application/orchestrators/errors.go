package orchestrators

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks request data that failed validation before any
// state was read. Domain validation errors are wrapped with it.
var ErrInvalidInput = errors.New("invalid input")

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
