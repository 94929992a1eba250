package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for artifact loading. Every load failure matches
// ErrArtifactLoad plus one specific kind.
var (
	ErrArtifactLoad    = errors.New("artifact load failed")
	ErrArtifactMissing = errors.New("artifact file missing")
	ErrArtifactCorrupt = errors.New("artifact payload corrupt")
	ErrSchemaMismatch  = errors.New("artifact incompatible with feature schema")
)

// Artifact names used in errors and logs.
const (
	ArtifactScaler     = "scaler"
	ArtifactClassifier = "classifier"
)

// ArtifactLoadError is fatal at startup: no request may be served without
// both artifacts.
type ArtifactLoadError struct {
	Artifact string
	Path     string
	Kind     error
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s artifact %q: %v", e.Artifact, e.Path, e.Kind)
	}
	return fmt.Sprintf("load %s artifact %q: %v: %v", e.Artifact, e.Path, e.Kind, e.Err)
}

// Unwrap exposes ErrArtifactLoad, the kind and the cause.
func (e *ArtifactLoadError) Unwrap() []error {
	errs := []error{ErrArtifactLoad, e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func loadError(artifact, path string, kind, err error) *ArtifactLoadError {
	return &ArtifactLoadError{Artifact: artifact, Path: path, Kind: kind, Err: err}
}
