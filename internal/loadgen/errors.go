package loadgen

import "errors"

// Sentinel kinds for load test failures.
var (
	ErrUnhealthy = errors.New("service unhealthy")
	ErrMismatch  = errors.New("responses did not match expectations")
)
