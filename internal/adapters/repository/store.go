package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/internal/domain/scoring"
)

// Info describes the loaded artifacts.
type Info struct {
	ScalerPath       string    `json:"scaler_path,omitempty"`
	ClassifierPath   string    `json:"classifier_path,omitempty"`
	LoadedAt         time.Time `json:"loaded_at"`
	Features         int       `json:"features"`
	LayerWidths      []int     `json:"layer_widths,omitempty"`
	HiddenActivation string    `json:"hidden_activation,omitempty"`
	Threshold        float64   `json:"threshold,omitempty"`
}

// Store holds the scaler and classifier for the process lifetime. It has
// no mutating methods and is safe to share between goroutines.
type Store struct {
	scaler     scoring.Scaler
	classifier scoring.Classifier
	info       Info
}

type loader struct {
	requireNames bool
	now          func() time.Time
}

// Load reads both artifacts and checks them against the feature schema.
// Any failure is an *ArtifactLoadError.
func Load(ctx context.Context, scalerPath, classifierPath string, opts ...Option) (*Store, error) {
	l := &loader{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}

	if err := ctx.Err(); err != nil {
		return nil, loadError(ArtifactScaler, scalerPath, ErrArtifactMissing, err)
	}
	scaler, err := l.loadScaler(scalerPath)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, loadError(ArtifactClassifier, classifierPath, ErrArtifactMissing, err)
	}
	classifier, err := l.loadClassifier(classifierPath)
	if err != nil {
		return nil, err
	}

	return &Store{
		scaler:     scaler,
		classifier: classifier,
		info: Info{
			ScalerPath:       scalerPath,
			ClassifierPath:   classifierPath,
			LoadedAt:         l.now(),
			Features:         scaler.Dim(),
			LayerWidths:      classifier.Widths(),
			HiddenActivation: string(classifier.HiddenActivation()),
			Threshold:        classifier.Threshold(),
		},
	}, nil
}

// NewStore wraps already constructed models. Both must match the schema width.
func NewStore(scaler scoring.Scaler, classifier scoring.Classifier) (*Store, error) {
	if scaler == nil || classifier == nil {
		return nil, fmt.Errorf("%w: scaler and classifier are required", ErrArtifactCorrupt)
	}
	if scaler.Dim() != model.FeatureCount || classifier.Dim() != model.FeatureCount {
		return nil, fmt.Errorf("%w: scaler width %d, classifier width %d, schema width %d",
			ErrSchemaMismatch, scaler.Dim(), classifier.Dim(), model.FeatureCount)
	}
	info := Info{LoadedAt: time.Now(), Features: scaler.Dim()}
	if m, ok := classifier.(*scoring.MLP); ok {
		info.LayerWidths = m.Widths()
		info.HiddenActivation = string(m.HiddenActivation())
		info.Threshold = m.Threshold()
	}
	return &Store{scaler: scaler, classifier: classifier, info: info}, nil
}

// Scaler returns the fitted scaler.
func (s *Store) Scaler() scoring.Scaler { return s.scaler }

// Classifier returns the trained classifier.
func (s *Store) Classifier() scoring.Classifier { return s.classifier }

// Info returns a copy of the artifact description.
func (s *Store) Info() Info {
	info := s.info
	info.LayerWidths = append([]int(nil), s.info.LayerWidths...)
	return info
}
