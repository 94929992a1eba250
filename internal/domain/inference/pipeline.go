// Package inference composes encoding, standardization and classification
// into a single verdict.
package inference

import (
	"github.com/okian/motionrisk/internal/domain/encoding"
	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/internal/domain/scoring"
)

// Artifacts provides the fitted models. Implementations must be immutable
// once handed to a Pipeline.
type Artifacts interface {
	Scaler() scoring.Scaler
	Classifier() scoring.Classifier
}

// Pipeline is safe for concurrent use; it holds no mutable state.
type Pipeline struct {
	scaler     scoring.Scaler
	classifier scoring.Classifier
}

// New binds a pipeline to loaded artifacts.
func New(artifacts Artifacts) *Pipeline {
	return &Pipeline{
		scaler:     artifacts.Scaler(),
		classifier: artifacts.Classifier(),
	}
}

// Predict encodes raw, standardizes it and classifies it. Encoding errors
// are returned unchanged; anything after encoding is an *InferenceError.
func (p *Pipeline) Predict(raw model.RawInput) (model.Verdict, error) {
	vector, err := encoding.Encode(raw)
	if err != nil {
		return 0, err
	}
	return p.PredictVector(vector)
}

// PredictVector classifies an already encoded vector.
func (p *Pipeline) PredictVector(vector model.FeatureVector) (model.Verdict, error) {
	standardized, err := p.scaler.Transform(vector.Slice())
	if err != nil {
		return 0, &InferenceError{Stage: StageScale, Err: err}
	}
	label, err := p.classifier.Predict(standardized)
	if err != nil {
		return 0, &InferenceError{Stage: StageClassify, Err: err}
	}
	verdict, err := model.VerdictFromLabel(label)
	if err != nil {
		return 0, &InferenceError{Stage: StageVerdict, Err: err}
	}
	return verdict, nil
}
