package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidParameters = errors.New("invalid model parameters")
	ErrUnknownActivation = errors.New("unknown activation")
	ErrNonFinite         = errors.New("non-finite value")
)
