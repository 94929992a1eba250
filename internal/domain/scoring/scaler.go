// Package scoring holds the fitted numeric models applied to a feature
// vector: per-feature standardization and the binary classifier.
package scoring

import (
	"fmt"
	"math"
)

// Scaler standardizes a feature vector.
type Scaler interface {
	// Transform returns a new standardized vector; x is not modified.
	Transform(x []float64) ([]float64, error)
	// Dim is the vector length the scaler was fitted on.
	Dim() int
}

// StandardScaler applies (x - mean) / scale elementwise.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// NewStandardScaler validates and copies the fitted parameters.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 || len(mean) != len(scale) {
		return nil, fmt.Errorf("%w: mean has %d values, scale has %d", ErrInvalidParameters, len(mean), len(scale))
	}
	for i := range mean {
		if !finite(mean[i]) {
			return nil, fmt.Errorf("%w: mean[%d] is not finite", ErrInvalidParameters, i)
		}
		if !finite(scale[i]) || scale[i] == 0 {
			return nil, fmt.Errorf("%w: scale[%d] must be finite and non-zero", ErrInvalidParameters, i)
		}
	}
	return &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: append([]float64(nil), scale...),
	}, nil
}

// Dim implements Scaler.
func (s *StandardScaler) Dim() int { return len(s.mean) }

// Transform implements Scaler.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrDimensionMismatch, len(s.mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	if err := checkFinite("scaled feature", out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkFinite fails on the first NaN or infinity in values.
func checkFinite(what string, values []float64) error {
	for i, v := range values {
		if !finite(v) {
			return fmt.Errorf("%w: %s %d is %v", ErrNonFinite, what, i, v)
		}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
