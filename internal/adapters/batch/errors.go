package batch

import "errors"

// Sentinel kinds for batch input errors.
var (
	ErrEmptyInput      = errors.New("no header row")
	ErrMalformed       = errors.New("malformed csv")
	ErrMissingColumn   = errors.New("missing column")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
)
