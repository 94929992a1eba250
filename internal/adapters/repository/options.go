// Package repository loads and holds the fitted model artifacts.
package repository

import "time"

// Option applies a configuration option to Load.
type Option func(*loader)

// WithRequireFeatureNames rejects artifacts that omit their feature list.
func WithRequireFeatureNames(required bool) Option {
	return func(l *loader) {
		l.requireNames = required
	}
}

// WithClock overrides the load timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *loader) {
		if now != nil {
			l.now = now
		}
	}
}
