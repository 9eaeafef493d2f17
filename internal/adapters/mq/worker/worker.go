// Package worker drains recompute jobs, scores them and writes the result
// into the discovery directory.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/pkg/logger"
	"github.com/okian/creatorscore/pkg/metrics"
)

// DefaultWorkerCount is used when a pool is asked for fewer than one worker.
const DefaultWorkerCount = 4

// ErrShutdownTimeout is returned when workers do not drain in time.
var ErrShutdownTimeout = errors.New("worker shutdown timed out")

// Updater stores the latest score for a creator.
type Updater interface {
	Put(ctx context.Context, score model.CreatorScore) error
}

// Scorer computes a breakdown for a snapshot.
type Scorer interface {
	Compute(s model.Snapshot) model.Breakdown
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.RecomputeJob
}

// Worker processes jobs and writes score updates using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue channel is closed.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the current job to finish.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	scorer  Scorer
	updater Updater
	name    string
	clock   func() time.Time
	logger  logger.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer Scorer, updater Updater, opts ...Option) *InMemoryWorker {
	s := newSettings("worker", opts)
	return &InMemoryWorker{
		queue:   queue,
		scorer:  scorer,
		updater: updater,
		name:    s.name,
		clock:   s.clock,
		logger:  s.logger.Named(s.name),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run implements Worker.Run.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "recompute failed",
					logger.String("job_id", job.JobID),
					logger.String("creator_id", job.CreatorID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown implements Worker.Shutdown.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, job model.RecomputeJob) error { //nolint:gocritic // hugeParam: jobs travel by value through the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	computeStart := time.Now()
	b := w.scorer.Compute(job.Snapshot)
	metrics.RecordComputeLatency(float64(time.Since(computeStart).Microseconds()) / 1000)
	metrics.RecordScoreComputed("worker", b.ProfilePoints, b.EmailPoints, b.ConnectionPoints, b.AudiencePoints, b.Total)

	err := w.updater.Put(ctx, model.CreatorScore{
		CreatorID:  job.CreatorID,
		Breakdown:  b,
		ComputedAt: w.clock(),
	})
	if err != nil {
		metrics.RecordJobFailed()
		return fmt.Errorf("store score for %s: %w", job.CreatorID, err)
	}

	metrics.RecordJobProcessed()
	w.logger.Debug(ctx, "score recomputed",
		logger.String("job_id", job.JobID),
		logger.String("creator_id", job.CreatorID),
		logger.String("trigger", string(job.Trigger)),
		logger.Int("total", b.Total),
	)
	return nil
}

// Pool manages multiple workers reading from one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. Options are applied to every worker;
// worker names are derived from the pool name.
func NewPool(workerCount int, queue Queue, scorer Scorer, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = DefaultWorkerCount
	}
	s := newSettings("worker", opts)

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  s.logger.Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(queue, scorer, updater,
			WithLogger(s.logger),
			WithClock(s.clock),
			WithName(s.name+"-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and lets workers drain what is already queued.
// If ctx expires first the remaining workers are stopped and the queued jobs
// are dropped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut bool
	for i, w := range p.workers {
		if timedOut {
			w.stopOnce.Do(func() { close(w.stop) })
			continue
		}
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			timedOut = true
			w.stopOnce.Do(func() { close(w.stop) })
		}
	}
	if timedOut {
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
	p.logger.Info(ctx, "worker pool stopped")
	return nil
}
