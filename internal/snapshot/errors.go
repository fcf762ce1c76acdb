package snapshot

import (
	"errors"
	"fmt"
)

// ErrValidation matches every ValidationError via errors.Is.
var ErrValidation = errors.New("invalid pool reading")

// ValidationError reports a reading that indicates an upstream data fault.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", ErrValidation, e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid wraps err as a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Reason: "unusable input", Err: err}
}
