package encoding

import (
	"errors"
	"fmt"
)

// Sentinel kinds for encoding errors. InvalidFieldError matches
// ErrInvalidField and exactly one of the specific kinds.
var (
	ErrInvalidField = errors.New("invalid field")
	ErrNotNumeric   = errors.New("value is not a number")
	ErrOutOfDomain  = errors.New("value outside declared domain")
	ErrMissingField = errors.New("value is missing")
	ErrUnknownField = errors.New("unknown field")
)

// InvalidFieldError reports a caller input problem for a single field.
type InvalidFieldError struct {
	Field string
	Value string
	Kind  error
}

func (e *InvalidFieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid field %s: %v", e.Field, e.Kind)
	}
	return fmt.Sprintf("invalid field %s=%q: %v", e.Field, e.Value, e.Kind)
}

// Unwrap exposes both the generic and the specific kind to errors.Is.
func (e *InvalidFieldError) Unwrap() []error {
	return []error{ErrInvalidField, e.Kind}
}

func fieldError(field, value string, kind error) *InvalidFieldError {
	return &InvalidFieldError{Field: field, Value: value, Kind: kind}
}
