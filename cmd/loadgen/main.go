// Command loadgen posts random student forms to a running service and
// verifies the replies.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/motionrisk/internal/loadgen"
)

// Default configuration constants.
const (
	defaultNumForms     = 1000
	defaultInvalidRatio = 0.1
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultTestTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numForms     = flag.Int("forms", defaultNumForms, "Number of forms to generate and submit")
		invalidRatio = flag.Float64("invalid", defaultInvalidRatio, "Share of forms with one broken field")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		scalerPath   = flag.String("scaler", "", "Local scaler artifact for expected verdicts")
		classifier   = flag.String("classifier", "", "Local classifier artifact for expected verdicts")
		outputFile   = flag.String("output", "", "Save generated forms as JSON")
		logFile      = flag.String("log", "", "Also append logs to this file")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp(os.Stdout)
		return
	}

	closeLog, err := loadgen.SetupLogging(os.Stderr, *logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:        *baseURL,
		NumForms:       *numForms,
		InvalidRatio:   *invalidRatio,
		Workers:        *workers,
		Timeout:        *timeout,
		OutputFile:     *outputFile,
		ScalerPath:     *scalerPath,
		ClassifierPath: *classifier,
		Verbose:        *verbose,
	}

	if _, err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1)
	}
}
