package inference

import (
	"errors"
	"fmt"
)

// ErrInference marks failures inside scaler or classifier application.
var ErrInference = errors.New("inference failed")

// Pipeline stages reported by InferenceError.
const (
	StageScale    = "scale"
	StageClassify = "classify"
	StageVerdict  = "verdict"
)

// InferenceError reports schema drift or a broken artifact detected while
// predicting. It is never caused by caller input.
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed at %s: %v", e.Stage, e.Err)
}

// Unwrap exposes ErrInference and the underlying cause.
func (e *InferenceError) Unwrap() []error {
	return []error{ErrInference, e.Err}
}
