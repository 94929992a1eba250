package loadgen

import (
	"time"

	"github.com/okian/motionrisk/internal/domain/model"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumForms     int           // Number of forms to generate
	InvalidRatio float64       // Share of forms with one deliberately broken field
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	OutputFile   string        // Where to save generated forms, empty to skip

	// Local artifacts to predict expected verdicts. Both empty skips the check.
	ScalerPath     string
	ClassifierPath string

	Verbose bool
}

// Case is one generated form and what the service should make of it.
type Case struct {
	ID           string            `json:"id"`
	Fields       map[string]string `json:"fields"`
	InvalidField string            `json:"invalid_field,omitempty"`
}

// Reply is the service's answer to one case.
type Reply struct {
	CaseID  string
	Status  int
	Verdict model.Verdict
	Code    string
	Field   string
	Latency time.Duration
	Err     error
}

// Stats holds test statistics.
type Stats struct {
	FormsGenerated int
	FormsInvalid   int
	Submitted      int
	Assessed       int
	AtRisk         int
	Rejected       int
	Failed         int
	Mismatches     int
	MaxLatency     time.Duration
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
