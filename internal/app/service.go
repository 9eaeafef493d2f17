// Package service wires the scoring engine, recompute pipeline and discovery
// directory into the operations the HTTP API and CLI depend on.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	jobqueue "github.com/okian/creatorscore/internal/adapters/mq/queue"
	workerpool "github.com/okian/creatorscore/internal/adapters/mq/worker"
	repository "github.com/okian/creatorscore/internal/adapters/repository"
	"github.com/okian/creatorscore/internal/domain/dedupe"
	"github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/internal/domain/scoring"
	"github.com/okian/creatorscore/internal/domain/types"
	"github.com/okian/creatorscore/pkg/logger"
	"github.com/okian/creatorscore/pkg/metrics"
)

// Sentinel errors returned by the service.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrInvalidCreator = errors.New("creator id is required")
)

const shutdownTimeout = 10 * time.Second

// Service implements the API dependencies for the creator score system.
type Service struct {
	mu sync.RWMutex

	engine    *scoring.Engine
	directory repository.Store
	deduper   dedupe.Deduper
	jobQueue  jobqueue.Queue
	pool      *workerpool.Pool

	workerCount      int
	queueSize        int
	dedupeSize       int
	batchConcurrency int
	clock            func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the recompute queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many job ids are remembered. Zero or less keeps
// every id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithBatchConcurrency bounds the goroutines used by PreviewBatch.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngine replaces the scoring engine.
func WithEngine(e *scoring.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithDirectory replaces the discovery directory.
func WithDirectory(d repository.Store) Option {
	return func(s *Service) {
		if d != nil {
			s.directory = d
		}
	}
}

// WithClock overrides the time source used for job and score timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		engine:           scoring.NewEngine(),
		workerCount:      runtime.NumCPU(),
		queueSize:        jobqueue.DefaultCapacity,
		dedupeSize:       dedupe.DefaultMaxSize,
		batchConcurrency: runtime.NumCPU(),
		clock:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.directory == nil {
		s.directory = repository.NewTreapStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	q := jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.jobQueue = q
	s.pool = workerpool.NewPool(s.workerCount, q, s.engine, s.directory,
		workerpool.WithLogger(s.logger),
		workerpool.WithClock(s.clock),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "creator score service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop drains queued jobs and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping creator score service")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "creator score service stopped")
}

// Preview scores a snapshot without touching the directory.
func (s *Service) Preview(_ context.Context, snap model.Snapshot) model.Breakdown { //nolint:gocritic // hugeParam: snapshots are values
	start := time.Now()
	b := s.engine.Compute(snap)
	metrics.RecordComputeLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordScoreComputed("preview", b.ProfilePoints, b.EmailPoints, b.ConnectionPoints, b.AudiencePoints, b.Total)
	return b
}

// PreviewBatch scores many snapshots concurrently and returns them in
// discovery order. It does not touch the directory.
func (s *Service) PreviewBatch(ctx context.Context, items []types.BatchItem) ([]types.BatchResult, error) {
	metrics.RecordBatchSize(len(items))
	results := make([]types.BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := &items[i]
			if item.CreatorID == "" {
				return fmt.Errorf("item %d: %w", i, ErrInvalidCreator)
			}
			b := s.engine.Compute(item.Snapshot)
			metrics.RecordScoreComputed("batch", b.ProfilePoints, b.EmailPoints, b.ConnectionPoints, b.AudiencePoints, b.Total)
			results[i] = types.BatchResult{CreatorID: item.CreatorID, Breakdown: b}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	types.SortResults(results)
	return results, nil
}

// Enqueue submits a recompute job. A missing job id is replaced with a
// random one, which is returned. A job rejected by a full queue is
// forgotten by the deduper so the caller may retry it.
func (s *Service) Enqueue(ctx context.Context, job model.RecomputeJob) (types.EnqueueStatus, string, error) { //nolint:gocritic // hugeParam: jobs are values
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.EnqueueRejected, "", ErrNotStarted
	}
	if job.CreatorID == "" {
		return types.EnqueueRejected, "", ErrInvalidCreator
	}
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Trigger == "" {
		job.Trigger = model.TriggerManual
	}
	job.EnqueuedAt = s.clock()

	if s.deduper.SeenAndRecord(ctx, job.JobID) {
		metrics.RecordJobDuplicate()
		s.logger.Debug(ctx, "duplicate recompute job", logger.String("job_id", job.JobID))
		return types.EnqueueDuplicate, job.JobID, nil
	}
	if !s.jobQueue.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, job.JobID)
		s.logger.Warn(ctx, "recompute queue rejected job",
			logger.String("job_id", job.JobID),
			logger.String("creator_id", job.CreatorID),
		)
		return types.EnqueueRejected, job.JobID, nil
	}
	metrics.RecordJobEnqueued(string(job.Trigger))
	return types.EnqueueAccepted, job.JobID, nil
}

// Score returns the creator's directory entry.
func (s *Service) Score(ctx context.Context, creatorID string) (types.Entry, error) {
	d, err := s.dir()
	if err != nil {
		return types.Entry{}, err
	}
	return d.Get(ctx, creatorID)
}

// TopN returns the top n directory entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	d, err := s.dir()
	if err != nil {
		return nil, err
	}
	return d.TopN(ctx, n)
}

// Remove drops a creator from the directory.
func (s *Service) Remove(ctx context.Context, creatorID string) (bool, error) {
	d, err := s.dir()
	if err != nil {
		return false, err
	}
	return d.Remove(ctx, creatorID), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Started:       s.started,
		WorkerCount:   s.workerCount,
		QueueCapacity: s.queueSize,
	}
	if !s.started {
		return stats
	}
	stats.QueueLength = s.jobQueue.Len(ctx)
	stats.DedupeEntries = s.deduper.Size()
	stats.Directory = s.directory.Aggregate(ctx)
	return stats
}

func (s *Service) dir() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.directory, nil
}
