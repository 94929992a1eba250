package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/motionrisk/internal/adapters/repository"
	"github.com/okian/motionrisk/internal/domain/inference"
	"github.com/okian/motionrisk/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes a complete load test and returns its statistics. The error
// is ErrMismatch when the service answered but answered wrongly.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	logger.Get().Info(ctx, "starting load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("forms", config.NumForms),
		logger.Float64("invalidRatio", config.InvalidRatio),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
	)

	expect, err := loadPredictor(ctx, config)
	if err != nil {
		return nil, err
	}

	client := newHTTPClient(config.Timeout)
	if err := checkServiceHealth(ctx, client, config.BaseURL); err != nil {
		return nil, err
	}

	before, err := fetchStats(ctx, client, config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}

	cases, err := generateCases(ctx, config, stats)
	if err != nil {
		return nil, fmt.Errorf("form generation failed: %w", err)
	}

	if config.OutputFile != "" {
		if err := saveCasesToFile(ctx, config.OutputFile, cases); err != nil {
			logger.Get().Warn(ctx, "failed to save forms to file", logger.Error(err))
		}
	}

	replies := submitCases(ctx, config, cases, stats)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("submission interrupted: %w", err)
	}

	if after, err := fetchStats(ctx, client, config.BaseURL); err != nil {
		logger.Get().Warn(ctx, "could not read stats after run", logger.Error(err))
	} else {
		verifyCounters(ctx, before, after, stats)
	}

	verifyErr := verifyReplies(ctx, cases, replies, expect, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return stats, verifyErr
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d requests failed", stats.Failed)
	}
	return stats, nil
}

// loadPredictor builds a local pipeline when artifact paths are configured.
func loadPredictor(ctx context.Context, config *Config) (Predictor, error) {
	if config.ScalerPath == "" && config.ClassifierPath == "" {
		return nil, nil
	}
	if config.ScalerPath == "" || config.ClassifierPath == "" {
		return nil, errors.New("both scaler and classifier paths are needed to check verdicts")
	}
	store, err := repository.Load(ctx, config.ScalerPath, config.ClassifierPath)
	if err != nil {
		return nil, err
	}
	return inference.New(store), nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	// Any 200 counts; the body is Prometheus text.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveCasesToFile writes the generated forms as a JSON array.
func saveCasesToFile(ctx context.Context, filename string, cases []Case) error {
	if len(cases) == 0 {
		return errors.New("no forms to save")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cases); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write forms: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	logger.Get().Info(ctx, "forms saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, formsPerSecond float64

	if stats.Submitted > 0 {
		successRate = float64(stats.Submitted-stats.Failed-stats.Mismatches) / float64(stats.Submitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		formsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("formsGenerated", stats.FormsGenerated),
		logger.Int("formsInvalid", stats.FormsInvalid),
		logger.Int("submitted", stats.Submitted),
		logger.Int("assessed", stats.Assessed),
		logger.Int("atRisk", stats.AtRisk),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("mismatches", stats.Mismatches),
		logger.String("maxLatency", stats.MaxLatency.String()),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("formsPerSecond", formsPerSecond))
}
