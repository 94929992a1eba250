// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the terminal front end.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/motionrisk/internal/adapters/repository"
	"github.com/okian/motionrisk/internal/domain/encoding"
	"github.com/okian/motionrisk/internal/domain/inference"
	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/pkg/logger"
	"github.com/okian/motionrisk/pkg/metrics"
)

// Error kinds used as metric labels.
const (
	kindInvalidField = "invalid_field"
	kindInference    = "inference"
)

// describer is implemented by artifact sources that know where they came from.
type describer interface {
	Info() repository.Info
}

// Service runs risk assessments against one set of loaded artifacts.
type Service struct {
	mu sync.RWMutex

	artifacts inference.Artifacts
	pipeline  *inference.Pipeline
	clock     func() time.Time

	// State
	started bool

	// Counters
	assessed atomic.Int64
	atRisk   atomic.Int64
	noRisk   atomic.Int64
	invalid  atomic.Int64
	failed   atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithArtifacts sets the scaler and classifier used for every assessment.
func WithArtifacts(artifacts inference.Artifacts) Option {
	return func(s *Service) {
		s.artifacts = artifacts
	}
}

// WithClock overrides the time source used to stamp assessments.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a new Service.
func New(opts ...Option) *Service {
	s := &Service{
		clock:  time.Now,
		logger: nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start binds the inference pipeline to the configured artifacts.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.artifacts == nil {
		return ErrNoArtifacts
	}

	s.pipeline = inference.New(s.artifacts)
	s.started = true

	fields := []logger.Field{logger.Int("features", model.FeatureCount)}
	if d, ok := s.artifacts.(describer); ok {
		info := d.Info()
		fields = append(fields,
			logger.String("scaler", info.ScalerPath),
			logger.String("classifier", info.ClassifierPath),
			logger.Any("layerWidths", info.LayerWidths),
			logger.String("hiddenActivation", info.HiddenActivation),
			logger.Float64("threshold", info.Threshold),
		)
		metrics.SetArtifactInfo(info.LoadedAt, info.Features)
	}
	s.logger.Info(ctx, "assessment service started", fields...)

	return nil
}

// Stop marks the service as stopped. Calling it more than once is harmless.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "assessment service stopped",
		logger.Any("assessed", s.assessed.Load()),
	)
}

// Assess parses raw form values and classifies them.
func (s *Service) Assess(ctx context.Context, fields map[string]string) (model.Assessment, error) {
	pipeline, err := s.current()
	if err != nil {
		return model.Assessment{}, err
	}

	raw, err := encoding.ParseForm(fields)
	if err != nil {
		s.reject(ctx, err)
		return model.Assessment{}, err
	}
	return s.assess(ctx, pipeline, raw)
}

// AssessInput classifies an already parsed input.
func (s *Service) AssessInput(ctx context.Context, raw model.RawInput) (model.Assessment, error) {
	pipeline, err := s.current()
	if err != nil {
		return model.Assessment{}, err
	}
	return s.assess(ctx, pipeline, raw)
}

func (s *Service) current() (*inference.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	return s.pipeline, nil
}

func (s *Service) assess(ctx context.Context, pipeline *inference.Pipeline, raw model.RawInput) (model.Assessment, error) {
	start := time.Now()

	vector, err := encoding.Encode(raw)
	if err != nil {
		s.reject(ctx, err)
		return model.Assessment{}, err
	}

	verdict, err := pipeline.PredictVector(vector)
	if err != nil {
		s.reject(ctx, err)
		return model.Assessment{}, err
	}

	latency := float64(time.Since(start).Nanoseconds()) / 1e6
	s.assessed.Add(1)
	if verdict == model.VerdictAtRisk {
		s.atRisk.Add(1)
	} else {
		s.noRisk.Add(1)
	}
	metrics.RecordAssessment(verdict.Label(), latency)

	a := model.NewAssessment(uuid.NewString(), verdict, vector, s.clock().UTC())
	s.logger.Debug(ctx, "assessment completed",
		logger.String("id", a.ID),
		logger.String("verdict", a.Label),
		logger.Float64("latencyMs", latency),
	)
	return a, nil
}

// reject counts and logs a failed assessment. Invalid input is the caller's
// problem; anything else means the artifacts do not fit the schema.
func (s *Service) reject(ctx context.Context, err error) {
	var fieldErr *encoding.InvalidFieldError
	if errors.As(err, &fieldErr) {
		s.invalid.Add(1)
		metrics.RecordAssessmentError(kindInvalidField)
		metrics.RecordInvalidField(fieldErr.Field)
		s.logger.Warn(ctx, "rejected assessment input",
			logger.String("field", fieldErr.Field),
			logger.Error(fieldErr.Kind),
		)
		return
	}

	s.failed.Add(1)
	metrics.RecordAssessmentError(kindInference)
	stage := "unknown"
	var infErr *inference.InferenceError
	if errors.As(err, &infErr) {
		stage = infErr.Stage
	}
	s.logger.Error(ctx, "inference failed, artifacts do not match the feature schema",
		logger.String("stage", stage),
		logger.Error(err),
	)
}

// Schema returns the form catalogue and feature layout.
func (s *Service) Schema() model.Schema {
	return model.CurrentSchema()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() model.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.Stats{
		Started:  s.started,
		Assessed: s.assessed.Load(),
		AtRisk:   s.atRisk.Load(),
		NoRisk:   s.noRisk.Load(),
		Invalid:  s.invalid.Load(),
		Failed:   s.failed.Load(),
	}
	if d, ok := s.artifacts.(describer); ok {
		info := d.Info()
		stats.LoadedAt = info.LoadedAt
		stats.Widths = info.LayerWidths
		stats.Activation = info.HiddenActivation
	}
	return stats
}
