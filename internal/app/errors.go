package service

import "errors"

// Sentinel errors for service lifecycle.
var (
	ErrNoArtifacts = errors.New("no artifacts configured")
	ErrNotStarted  = errors.New("service not started")
)
