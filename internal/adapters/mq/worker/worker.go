// Package worker runs queued compile jobs on a fixed pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/geku/kutu/internal/adapters/mq/queue"
	"github.com/geku/kutu/pkg/logger"
	"github.com/geku/kutu/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Processor compiles a job's source. The compiler adapter satisfies it.
type Processor interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs and reports results on each job's Done channel.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is closed.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string
	stats     *counters

	// Shutdown control
	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

type counters struct {
	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	busy      atomic.Int64
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: processor,
		name:      "worker",
		stats:     &counters{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
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

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// processJob runs one job under its submitter's context, which is also
// cancelled when the worker's own context ends.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.RecordQueueDequeue()
	metrics.RecordQueueWaitLatency(float64(time.Since(job.EnqueuedAt).Milliseconds()))

	jobCtx := job.Ctx
	if jobCtx == nil {
		jobCtx = ctx
	}
	if err := jobCtx.Err(); err != nil {
		w.stats.skipped.Add(1)
		w.logger.Debug(ctx, "skipping abandoned job", logger.String("request_id", job.ID), logger.Error(err))
		deliver(job, queue.Result{Err: err})
		return
	}

	jobCtx, cancel := context.WithCancel(jobCtx)
	defer cancel()
	release := context.AfterFunc(ctx, cancel)
	defer release()

	log := w.logger.With(logger.String("request_id", job.ID), logger.String("kind", job.Kind))
	jobCtx = logger.WithContext(jobCtx, log)

	start := time.Now()
	w.stats.busy.Add(1)
	metrics.AddWorkerBusy(1)
	data, err := w.processor.Compile(jobCtx, job.Source)
	metrics.AddWorkerBusy(-1)
	w.stats.busy.Add(-1)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))

	w.stats.processed.Add(1)
	if err != nil {
		w.stats.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "compile_error")
		log.Error(ctx, "job failed", logger.Error(err))
	}
	deliver(job, queue.Result{Data: data, Err: err})
}

// deliver hands r to the submitter. Done has room for exactly one result.
func deliver(job queue.Job, r queue.Result) { //nolint:gocritic // hugeParam
	if job.Done == nil {
		return
	}
	select {
	case job.Done <- r:
	default:
	}
}

// Stats is a snapshot of pool activity.
type Stats struct {
	Workers   int   `json:"workers"`
	Busy      int64 `json:"busy"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *counters

	logger logger.Logger
}

// NewPool creates a new worker pool. A count below one uses runtime.NumCPU().
func NewPool(workerCount int, q Queue, processor Processor) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		stats:   &counters{},
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, processor, WithName("worker-"+strconv.Itoa(i)))
		w.stats = pool.stats
		pool.workers[i] = w
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stats returns current pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   len(p.workers),
		Busy:      p.stats.busy.Load(),
		Processed: p.stats.processed.Load(),
		Failed:    p.stats.failed.Load(),
		Skipped:   p.stats.skipped.Load(),
	}
}

// Shutdown closes the queue, lets workers drain the remaining jobs and waits
// for them. Workers still busy when ctx ends are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		for _, w := range p.workers {
			w.stop()
		}
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}

	metrics.UpdateWorkerActiveCount(0)
	return nil
}
