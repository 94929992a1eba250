// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ScalerPath and ClassifierPath locate the trained artifacts.
	ScalerPath     string `koanf:"scaler_path"`
	ClassifierPath string `koanf:"classifier_path"`

	// RequireFeatureNames rejects artifacts that omit their feature list.
	RequireFeatureNames bool `koanf:"require_feature_names"`

	// MaxBodyBytes caps POST /assess request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// ShutdownTimeoutMS bounds graceful HTTP shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	// Batch screening settings.
	BatchWorkers   int `koanf:"batch_workers"`
	BatchQueueSize int `koanf:"batch_queue_size"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		ScalerPath:        "res/scaler.yaml",
		ClassifierPath:    "res/classifier.yaml",
		MaxBodyBytes:      64 << 10,
		ShutdownTimeoutMS: 30_000,
		BatchWorkers:      runtime.NumCPU(),
		BatchQueueSize:    1024,
	}
}
