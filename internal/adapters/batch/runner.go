package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/motionrisk/internal/adapters/mq/queue"
	"github.com/okian/motionrisk/internal/adapters/mq/worker"
	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/pkg/logger"
)

const defaultQueueSize = 1024

// Summary counts a finished batch by outcome.
type Summary struct {
	Total   int `json:"total"`
	AtRisk  int `json:"at_risk"`
	NoRisk  int `json:"no_risk"`
	Invalid int `json:"invalid"`
	Failed  int `json:"failed"`
}

// Summarize tallies results.
func Summarize(results []worker.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome() {
		case worker.OutcomeOK:
			if r.Assessment.Verdict == model.VerdictAtRisk {
				s.AtRisk++
			} else {
				s.NoRisk++
			}
		case worker.OutcomeInvalid:
			s.Invalid++
		default:
			s.Failed++
		}
	}
	return s
}

// Runner assesses a batch of jobs on a worker pool.
type Runner struct {
	assessor  worker.Assessor
	workers   int
	queueSize int
	logger    logger.Logger
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithWorkers sets the pool size. Non-positive values mean one per CPU.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithQueueSize bounds how many rows wait for a worker.
func WithQueueSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

// WithLogger sets a custom logger for the runner and its pool.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner that sends every row to assessor.
func NewRunner(assessor worker.Assessor, opts ...Option) *Runner {
	r := &Runner{
		assessor:  assessor,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("batch")
	}
	return r
}

// collector is the Sink that gathers results for a single run.
type collector struct {
	mu      sync.Mutex
	results []worker.Result
}

func (c *collector) Record(_ context.Context, r worker.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

// Run assesses every job and returns the results ordered by row. Per-row
// failures are carried in the results; the error is only set when the run
// itself was cut short.
func (r *Runner) Run(ctx context.Context, jobs []queue.Job) ([]worker.Result, error) {
	start := time.Now()
	q := queue.NewInMemoryQueue(queue.WithCapacity(r.queueSize))
	sink := &collector{results: make([]worker.Result, 0, len(jobs))}
	pool := worker.NewPool(r.workers, q, r.assessor, sink, worker.WithPoolLogger(r.logger))
	pool.Start(ctx)

	for _, j := range jobs {
		if err := q.Put(ctx, j); err != nil {
			if shutdownErr := pool.Shutdown(context.Background()); shutdownErr != nil {
				r.logger.Warn(ctx, "pool shutdown failed", logger.Error(shutdownErr))
			}
			return nil, fmt.Errorf("batch interrupted at row %d: %w", j.Row, err)
		}
	}
	if err := q.Close(); err != nil {
		return nil, err
	}
	if err := pool.Wait(ctx); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	results := sink.results
	sort.Slice(results, func(i, j int) bool { return results[i].Job.Row < results[j].Job.Row })

	s := Summarize(results)
	r.logger.Info(ctx, "batch assessed",
		logger.Int("rows", s.Total),
		logger.Int("at_risk", s.AtRisk),
		logger.Int("no_risk", s.NoRisk),
		logger.Int("invalid", s.Invalid),
		logger.Int("failed", s.Failed),
		logger.Int("workers", pool.Size()),
		logger.Float64("elapsed_ms", float64(time.Since(start).Microseconds())/1000),
	)
	return results, nil
}
