package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/internal/domain/scoring"
)

// Supported document kinds. An empty kind is accepted for either file.
const (
	kindStandardScaler = "standard_scaler"
	kindMLP            = "mlp"
)

// scalerDocument is the persisted form of a fitted standard scaler.
type scalerDocument struct {
	Kind     string    `koanf:"kind"`
	Features []string  `koanf:"features"`
	Mean     []float64 `koanf:"mean"`
	Scale    []float64 `koanf:"scale"`
}

type layerDocument struct {
	Weights [][]float64 `koanf:"weights"`
	Biases  []float64   `koanf:"biases"`
}

// classifierDocument is the persisted form of a trained MLP.
type classifierDocument struct {
	Kind             string          `koanf:"kind"`
	Features         []string        `koanf:"features"`
	HiddenActivation string          `koanf:"hidden_activation"`
	Threshold        float64         `koanf:"threshold"`
	Layers           []layerDocument `koanf:"layers"`
}

// readDocument parses a YAML (or JSON) file into out.
func readDocument(artifact, path string, out any) error {
	if path == "" {
		return loadError(artifact, path, ErrArtifactMissing, errors.New("no path configured"))
	}
	st, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return loadError(artifact, path, ErrArtifactMissing, nil)
	case err != nil:
		return loadError(artifact, path, ErrArtifactMissing, err)
	case st.IsDir():
		return loadError(artifact, path, ErrArtifactCorrupt, errors.New("path is a directory"))
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return loadError(artifact, path, ErrArtifactCorrupt, err)
	}
	if len(k.Keys()) == 0 {
		return loadError(artifact, path, ErrArtifactCorrupt, errors.New("empty document"))
	}
	if err := k.UnmarshalWithConf("", out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return loadError(artifact, path, ErrArtifactCorrupt, err)
	}
	return nil
}

func (l *loader) checkNames(artifact, path string, names []string) error {
	if len(names) == 0 {
		if l.requireNames {
			return loadError(artifact, path, ErrSchemaMismatch, errors.New("feature names required"))
		}
		return nil
	}
	if !model.MatchesSchema(names) {
		return loadError(artifact, path, ErrSchemaMismatch, fmt.Errorf("features %v do not match schema %v", names, model.FeatureNames()))
	}
	return nil
}

func (l *loader) loadScaler(path string) (*scoring.StandardScaler, error) {
	var doc scalerDocument
	if err := readDocument(ArtifactScaler, path, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != "" && doc.Kind != kindStandardScaler {
		return nil, loadError(ArtifactScaler, path, ErrArtifactCorrupt, fmt.Errorf("unsupported kind %q", doc.Kind))
	}
	if err := l.checkNames(ArtifactScaler, path, doc.Features); err != nil {
		return nil, err
	}
	if len(doc.Mean) != model.FeatureCount {
		return nil, loadError(ArtifactScaler, path, ErrSchemaMismatch,
			fmt.Errorf("fitted on %d features, schema has %d", len(doc.Mean), model.FeatureCount))
	}
	scaler, err := scoring.NewStandardScaler(doc.Mean, doc.Scale)
	if err != nil {
		return nil, loadError(ArtifactScaler, path, ErrArtifactCorrupt, err)
	}
	return scaler, nil
}

func (l *loader) loadClassifier(path string) (*scoring.MLP, error) {
	var doc classifierDocument
	if err := readDocument(ArtifactClassifier, path, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != "" && doc.Kind != kindMLP {
		return nil, loadError(ArtifactClassifier, path, ErrArtifactCorrupt, fmt.Errorf("unsupported kind %q", doc.Kind))
	}
	if err := l.checkNames(ArtifactClassifier, path, doc.Features); err != nil {
		return nil, err
	}
	activation, err := scoring.ParseActivation(doc.HiddenActivation)
	if err != nil {
		return nil, loadError(ArtifactClassifier, path, ErrArtifactCorrupt, err)
	}
	if doc.Threshold != 0 && (doc.Threshold <= 0 || doc.Threshold >= 1) {
		return nil, loadError(ArtifactClassifier, path, ErrArtifactCorrupt, fmt.Errorf("threshold %v outside (0, 1)", doc.Threshold))
	}

	layers := make([]scoring.Layer, len(doc.Layers))
	for i, ld := range doc.Layers {
		layers[i] = scoring.Layer{Weights: ld.Weights, Biases: ld.Biases}
	}
	mlp, err := scoring.NewMLP(layers,
		scoring.WithHiddenActivation(activation),
		scoring.WithThreshold(doc.Threshold),
	)
	if err != nil {
		return nil, loadError(ArtifactClassifier, path, ErrArtifactCorrupt, err)
	}
	if mlp.Dim() != model.FeatureCount {
		return nil, loadError(ArtifactClassifier, path, ErrSchemaMismatch,
			fmt.Errorf("trained on %d features, schema has %d", mlp.Dim(), model.FeatureCount))
	}
	return mlp, nil
}
