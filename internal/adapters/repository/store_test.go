package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/motionrisk/internal/adapters/repository"
	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	scalerYAML     = "testdata/scaler.yaml"
	classifierYAML = "testdata/classifier.yaml"
	scalerJSON     = "testdata/scaler.json"
	classifierJSON = "testdata/classifier.json"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func ones(n int) string {
	return "[" + strings.TrimSuffix(strings.Repeat("1, ", n), ", ") + "]"
}

func zeros(n int) string {
	return "[" + strings.TrimSuffix(strings.Repeat("0, ", n), ", ") + "]"
}

// logisticClassifier renders a single-layer classifier over n inputs with
// the given number of output units.
func logisticClassifier(n, outputs int) string {
	var b strings.Builder
	b.WriteString("kind: mlp\nlayers:\n  - weights:\n")
	for i := 0; i < n; i++ {
		b.WriteString("      - " + zeros(outputs) + "\n")
	}
	b.WriteString("    biases: " + zeros(outputs) + "\n")
	return b.String()
}

func expectLoadError(err error, kind error, artifact string) {
	So(err, ShouldNotBeNil)
	So(errors.Is(err, repository.ErrArtifactLoad), ShouldBeTrue)
	So(errors.Is(err, kind), ShouldBeTrue)
	var le *repository.ArtifactLoadError
	So(errors.As(err, &le), ShouldBeTrue)
	So(le.Artifact, ShouldEqual, artifact)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given YAML artifacts matching the schema", t, func() {
		loadedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		Convey("When loading", func() {
			store, err := repository.Load(ctx, scalerYAML, classifierYAML,
				repository.WithClock(func() time.Time { return loadedAt }))

			Convey("Then both models should be available with schema width", func() {
				So(err, ShouldBeNil)
				So(store.Scaler().Dim(), ShouldEqual, model.FeatureCount)
				So(store.Classifier().Dim(), ShouldEqual, model.FeatureCount)
			})

			Convey("And info should describe the network", func() {
				info := store.Info()
				So(info.ScalerPath, ShouldEqual, scalerYAML)
				So(info.ClassifierPath, ShouldEqual, classifierYAML)
				So(info.LoadedAt, ShouldEqual, loadedAt)
				So(info.Features, ShouldEqual, 14)
				So(info.LayerWidths, ShouldResemble, []int{14, 3, 1})
				So(info.HiddenActivation, ShouldEqual, "relu")
				So(info.Threshold, ShouldEqual, 0.5)
			})

			Convey("And info should be returned as a copy", func() {
				info := store.Info()
				info.LayerWidths[0] = 99
				So(store.Info().LayerWidths[0], ShouldEqual, 14)
			})
		})
	})

	Convey("Given JSON artifacts", t, func() {
		Convey("When loading", func() {
			store, err := repository.Load(ctx, scalerJSON, classifierJSON)

			Convey("Then JSON should be accepted as well", func() {
				So(err, ShouldBeNil)
				So(store.Info().LayerWidths, ShouldResemble, []int{14, 3, 1})
			})
		})

		Convey("When feature names are required", func() {
			_, err := repository.Load(ctx, scalerJSON, classifierJSON, repository.WithRequireFeatureNames(true))

			Convey("Then the unnamed scaler should be rejected", func() {
				expectLoadError(err, repository.ErrSchemaMismatch, repository.ArtifactScaler)
			})
		})
	})

	Convey("Given missing or unreadable artifacts", t, func() {
		Convey("Then a missing scaler file should fail", func() {
			_, err := repository.Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"), classifierYAML)
			expectLoadError(err, repository.ErrArtifactMissing, repository.ArtifactScaler)
		})

		Convey("Then an empty classifier path should fail", func() {
			_, err := repository.Load(ctx, scalerYAML, "")
			expectLoadError(err, repository.ErrArtifactMissing, repository.ArtifactClassifier)
		})

		Convey("Then a directory should fail as corrupt", func() {
			_, err := repository.Load(ctx, t.TempDir(), classifierYAML)
			expectLoadError(err, repository.ErrArtifactCorrupt, repository.ArtifactScaler)
		})

		Convey("Then a cancelled context should fail before reading", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := repository.Load(cctx, scalerYAML, classifierYAML)
			So(errors.Is(err, repository.ErrArtifactLoad), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given corrupt payloads", t, func() {
		Convey("Then unparsable YAML should fail", func() {
			path := writeFile(t, "scaler.yaml", "mean: [1, 2\nscale: ]")
			_, err := repository.Load(ctx, path, classifierYAML)
			expectLoadError(err, repository.ErrArtifactCorrupt, repository.ArtifactScaler)
		})

		Convey("Then an empty file should fail", func() {
			path := writeFile(t, "classifier.yaml", "")
			_, err := repository.Load(ctx, scalerYAML, path)
			expectLoadError(err, repository.ErrArtifactCorrupt, repository.ArtifactClassifier)
		})

		Convey("Then non-numeric parameters should fail", func() {
			path := writeFile(t, "scaler.yaml", "mean: "+strings.Replace(zeros(14), "0", "x", 1)+"\nscale: "+ones(14)+"\n")
			_, err := repository.Load(ctx, path, classifierYAML)
			expectLoadError(err, repository.ErrArtifactCorrupt, repository.ArtifactScaler)
		})

		Convey("Then a zero scale should fail", func() {
			path := writeFile(t, "scaler.yaml", "mean: "+zeros(14)+"\nscale: "+zeros(14)+"\n")
			_, err := repository.Load(ctx, path, classifierYAML)
			expectLoadError(err, repository.ErrArtifactCorrupt, repository.ArtifactScaler)
		})

		Convey("Then an unknown scaler kind should fail", func() {
			path := writeFile(t, "scaler.yaml", "kind: minmax\nmean: "+zeros(14)+"\nscale: "+ones(14)+"\n")
			_, err := repository.Load(ctx, path, classifierYAML)
			expectLoadError(err, repository.ErrArtifactCorrupt, repository.ArtifactScaler)
		})

		Convey("Then a multi-unit output layer should fail", func() {
			path := writeFile(t, "classifier.yaml", logisticClassifier(14, 2))
			_, err := repository.Load(ctx, scalerYAML, path)
			expectLoadError(err, repository.ErrArtifactCorrupt, repository.ArtifactClassifier)
		})

		Convey("Then an unknown activation should fail", func() {
			path := writeFile(t, "classifier.yaml", "hidden_activation: softsign\n"+logisticClassifier(14, 1))
			_, err := repository.Load(ctx, scalerYAML, path)
			expectLoadError(err, repository.ErrArtifactCorrupt, repository.ArtifactClassifier)
		})

		Convey("Then a threshold outside (0, 1) should fail", func() {
			path := writeFile(t, "classifier.yaml", "threshold: 1.5\n"+logisticClassifier(14, 1))
			_, err := repository.Load(ctx, scalerYAML, path)
			expectLoadError(err, repository.ErrArtifactCorrupt, repository.ArtifactClassifier)
		})
	})

	Convey("Given artifacts fitted on a different schema", t, func() {
		Convey("Then a 13-feature scaler should fail", func() {
			path := writeFile(t, "scaler.yaml", "mean: "+zeros(13)+"\nscale: "+ones(13)+"\n")
			_, err := repository.Load(ctx, path, classifierYAML)
			expectLoadError(err, repository.ErrSchemaMismatch, repository.ArtifactScaler)
		})

		Convey("Then a 15-input classifier should fail", func() {
			path := writeFile(t, "classifier.yaml", logisticClassifier(15, 1))
			_, err := repository.Load(ctx, scalerYAML, path)
			expectLoadError(err, repository.ErrSchemaMismatch, repository.ArtifactClassifier)
		})

		Convey("Then reordered feature names should fail", func() {
			names := model.FeatureNames()
			names[8], names[9] = names[9], names[8]
			doc := "features: [" + strings.Join(names, ", ") + "]\nmean: " + zeros(14) + "\nscale: " + ones(14) + "\n"
			path := writeFile(t, "scaler.yaml", doc)
			_, err := repository.Load(ctx, path, classifierYAML)
			expectLoadError(err, repository.ErrSchemaMismatch, repository.ArtifactScaler)
		})
	})
}

func TestNewStore(t *testing.T) {
	Convey("Given programmatically built models", t, func() {
		mean := make([]float64, model.FeatureCount)
		scale := make([]float64, model.FeatureCount)
		for i := range scale {
			scale[i] = 1
		}
		scaler, err := scoring.NewStandardScaler(mean, scale)
		So(err, ShouldBeNil)

		weights := make([][]float64, model.FeatureCount)
		for i := range weights {
			weights[i] = []float64{0}
		}
		classifier, err := scoring.NewMLP([]scoring.Layer{{Weights: weights, Biases: []float64{0}}})
		So(err, ShouldBeNil)

		Convey("When both match the schema width", func() {
			store, err := repository.NewStore(scaler, classifier)

			Convey("Then the store should be built", func() {
				So(err, ShouldBeNil)
				So(store.Info().LayerWidths, ShouldResemble, []int{14, 1})
			})
		})

		Convey("When the scaler is too narrow", func() {
			narrow, err := scoring.NewStandardScaler(mean[:13], scale[:13])
			So(err, ShouldBeNil)
			_, err = repository.NewStore(narrow, classifier)

			Convey("Then the store should be rejected", func() {
				So(errors.Is(err, repository.ErrSchemaMismatch), ShouldBeTrue)
			})
		})

		Convey("When a model is missing", func() {
			_, err := repository.NewStore(nil, classifier)

			Convey("Then the store should be rejected", func() {
				So(errors.Is(err, repository.ErrArtifactCorrupt), ShouldBeTrue)
			})
		})
	})
}
