// Package worker runs batch assessment jobs concurrently.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/motionrisk/internal/adapters/mq/queue"
	"github.com/okian/motionrisk/internal/domain/encoding"
	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/pkg/logger"
	"github.com/okian/motionrisk/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Row outcomes used as metric labels.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Assessor scores one set of raw form values.
type Assessor interface {
	Assess(ctx context.Context, fields map[string]string) (model.Assessment, error)
}

// Sink receives every processed job. Record is called from several workers
// at once.
type Sink interface {
	Record(ctx context.Context, r Result)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Result pairs a job with its assessment or the error that stopped it.
type Result struct {
	Job        queue.Job
	Assessment model.Assessment
	Err        error
}

// Outcome classifies the result for reporting.
func (r Result) Outcome() string {
	var fieldErr *encoding.InvalidFieldError
	switch {
	case r.Err == nil:
		return OutcomeOK
	case errors.As(r.Err, &fieldErr):
		return OutcomeInvalid
	default:
		return OutcomeFailed
	}
}

// Worker processes jobs and hands results to a Sink.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	assessor Assessor
	sink     Sink
	name     string

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	// Set by the owning pool.
	onProcessed func()

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, assessor Assessor, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		assessor: assessor,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.processJob(ctx, job)
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown stops the worker and waits for Run to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob assesses a single row. Row failures are reported through
// the sink; they never stop the worker.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) {
	assessment, err := w.assessor.Assess(ctx, job.Fields)
	r := Result{Job: job, Assessment: assessment, Err: err}

	outcome := r.Outcome()
	metrics.RecordBatchRow(outcome)
	if err != nil {
		w.logger.Debug(ctx, "row not assessed",
			logger.Int("row", job.Row),
			logger.String("id", job.ID),
			logger.String("outcome", outcome),
			logger.Error(err),
		)
	}

	if w.onProcessed != nil {
		w.onProcessed()
	}
	w.sink.Record(ctx, r)
}

// Pool manages multiple workers reading from one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once

	// Metrics tracking
	processed     atomic.Int64
	lastProcessed int64
	lastTick      time.Time
	started       time.Time

	// Logging
	logger logger.Logger
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets a custom logger for the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPool creates a new worker pool. A non-positive count means one worker
// per CPU.
func NewPool(workerCount int, q Queue, assessor Assessor, sink Sink, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(pool)
	}
	if pool.logger == nil {
		pool.logger = logger.Get().Named("worker-pool")
	}

	for i := 0; i < workerCount; i++ {
		name := "worker-" + strconv.Itoa(i)
		w := NewInMemoryWorker(q, assessor, sink,
			WithName(name),
			WithLogger(pool.logger.Named(name)),
		)
		w.onProcessed = pool.recordProcessed
		pool.workers[i] = w
	}

	metrics.UpdateWorkerThroughput(0)

	return pool
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.started = time.Now()
	p.lastTick = p.started
	for _, w := range p.workers {
		go w.Run(ctx)
	}

	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater refreshes the throughput gauge until the pool stops.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics publishes rows per second since the previous tick and the
// current queue depth.
func (p *Pool) updateMetrics() {
	if l, ok := p.queue.(interface{ Len(context.Context) int }); ok {
		metrics.UpdateQueueDepth(l.Len(context.Background()))
	}
	now := time.Now()
	count := p.processed.Load()
	if elapsed := now.Sub(p.lastTick).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerThroughput(float64(count-p.lastProcessed) / elapsed)
	}
	p.lastProcessed = count
	p.lastTick = now
}

func (p *Pool) recordProcessed() {
	p.processed.Add(1)
}

// Processed returns the number of jobs handled so far.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Wait blocks until every worker has returned, which happens once the
// queue is closed and drained or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.stopMetrics()
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerThroughput(float64(p.processed.Load()) / elapsed)
	}
	return nil
}

func (p *Pool) stopMetrics() {
	p.shutdownOnce.Do(func() { close(p.shutdown) })
}

// Shutdown closes the queue and stops every worker.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	p.stopMetrics()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			timedOut = true
		}
	}
	if timedOut {
		return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
	}

	return nil
}
