// Command assess runs the risk assessment form in a terminal, or screens a
// CSV file of students with -batch.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/motionrisk/internal/adapters/batch"
	"github.com/okian/motionrisk/internal/adapters/mq/worker"
	"github.com/okian/motionrisk/internal/adapters/repository"
	"github.com/okian/motionrisk/internal/adapters/terminal"
	app "github.com/okian/motionrisk/internal/app"
	"github.com/okian/motionrisk/internal/config"
	"github.com/okian/motionrisk/pkg/logger"
)

// options holds command line flags.
type options struct {
	batchFile string
	outFile   string
	workers   int
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "assess:", err)
		stop()
		os.Exit(1)
	}
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("assess", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.batchFile, "batch", "", "CSV file of students to screen; \"-\" reads stdin")
	fs.StringVar(&opts.outFile, "out", "", "Write batch results to this file instead of stdout")
	fs.IntVar(&opts.workers, "workers", 0, "Batch worker count (default from config)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintln(errOut, err)
		return options{}, err
	}
	return opts, nil
}

// run wires config, artifacts and the chosen front end. Logs go to errOut
// so they do not interleave with prompts or CSV output.
func run(ctx context.Context, opts options, in io.Reader, out, errOut io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(errOut)); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}

	store, err := repository.Load(ctx, cfg.ScalerPath, cfg.ClassifierPath,
		repository.WithRequireFeatureNames(cfg.RequireFeatureNames),
	)
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(logger.Named("service")),
		app.WithArtifacts(store),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if opts.batchFile != "" {
		return runBatch(ctx, cfg, opts, svc, in, out)
	}

	fmt.Fprintln(out, "Student motion sickness risk assessment. Press Enter to accept the value in brackets.")
	err = terminal.New(svc, terminal.WithRepeat(true)).Run(ctx, in, out)
	if errors.Is(err, terminal.ErrAborted) {
		return fmt.Errorf("form not completed: %w", err)
	}
	return err
}

func runBatch(ctx context.Context, cfg *config.Config, opts options, svc *app.Service, in io.Reader, out io.Writer) error {
	src := in
	if opts.batchFile != "-" {
		f, err := os.Open(opts.batchFile)
		if err != nil {
			return fmt.Errorf("open batch file: %w", err)
		}
		defer f.Close()
		src = f
	}

	jobs, err := batch.ReadCSV(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.batchFile, err)
	}

	workers := cfg.BatchWorkers
	if opts.workers > 0 {
		workers = opts.workers
	}
	runner := batch.NewRunner(svc,
		batch.WithWorkers(workers),
		batch.WithQueueSize(cfg.BatchQueueSize),
		batch.WithLogger(logger.Named("batch")),
	)
	results, err := runner.Run(ctx, jobs)
	if err != nil {
		return err
	}

	if opts.outFile == "" {
		return writeResults(out, results)
	}
	f, err := os.Create(opts.outFile)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := writeResults(f, results); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeResults(w io.Writer, results []worker.Result) error {
	if err := batch.WriteCSV(w, results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
