// Package loadgen drives a running motion sickness risk service with random
// student forms and checks what comes back.
package loadgen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/okian/motionrisk/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends logs to w and, when logFile is set, appends them to
// that file as well. It returns a function that closes the file.
func SetupLogging(w io.Writer, logFile string, verbose bool) (func() error, error) {
	closer := func() error { return nil }
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(w, file)
		closer = file.Close
	}

	if err := logger.Init(logger.WithWriter(w)); err != nil {
		_ = closer()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		logger.SetLevel(slog.LevelDebug)
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closer, nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Motion sickness risk load generator
===================================

Posts random student forms to a running service and checks the replies.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -forms int
        Number of forms to generate and submit (default 1000)
  -invalid float
        Share of forms with one broken field (default 0.1)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -scaler string, -classifier string
        Local artifacts used to predict the expected verdicts
  -output string
        Save generated forms as JSON
  -log string
        Also append logs to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Smoke test a local service
  go run ./cmd/loadgen -forms 100

  # Check verdicts against the deployed artifacts
  go run ./cmd/loadgen -forms 5000 -scaler res/scaler.yaml -classifier res/classifier.yaml
`)
}
