package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/creatorscore/internal/adapters/mq/queue"
	worker "github.com/okian/creatorscore/internal/adapters/mq/worker"
	model "github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/internal/domain/scoring"
	logging "github.com/okian/creatorscore/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockUpdater struct {
	mu     sync.Mutex
	scores map[string]model.CreatorScore
	puts   int
	fail   map[string]error
}

func newMockUpdater() *mockUpdater {
	return &mockUpdater{
		scores: make(map[string]model.CreatorScore),
		fail:   make(map[string]error),
	}
}

func (m *mockUpdater) Put(_ context.Context, cs model.CreatorScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if err, ok := m.fail[cs.CreatorID]; ok {
		return err
	}
	m.scores[cs.CreatorID] = cs
	return nil
}

func (m *mockUpdater) get(id string) (model.CreatorScore, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.scores[id]
	return cs, ok
}

func (m *mockUpdater) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// blockingScorer holds every Compute call until release is closed.
type blockingScorer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingScorer) Compute(s model.Snapshot) model.Breakdown {
	b.started <- struct{}{}
	<-b.release
	return scoring.Compute(s)
}

func verified(id string) queue.Job {
	return queue.Job{
		JobID:     "job-" + id,
		CreatorID: id,
		Trigger:   model.TriggerEmailVerified,
		Snapshot:  model.Snapshot{EmailVerified: true},
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		updater := newMockUpdater()
		fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
		w := worker.NewInMemoryWorker(q, scoring.NewEngine(), updater,
			worker.WithName("test-worker"),
			worker.WithLogger(logging.Nop()),
			worker.WithClock(func() time.Time { return fixed }),
		)
		go w.Run(ctx)

		convey.Convey("When a job is enqueued", func() {
			q.Enqueue(ctx, verified("creator-1"))

			convey.Convey("Then the score should be stored", func() {
				convey.So(waitFor(func() bool { _, ok := updater.get("creator-1"); return ok }), convey.ShouldBeTrue)
				cs, _ := updater.get("creator-1")
				convey.So(cs.Breakdown.EmailPoints, convey.ShouldEqual, 10)
				convey.So(cs.Breakdown.Total, convey.ShouldEqual, 10)
				convey.So(cs.ComputedAt.Equal(fixed), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the updater fails", func() {
			updater.mu.Lock()
			updater.fail["broken"] = errors.New("directory unavailable")
			updater.mu.Unlock()
			q.Enqueue(ctx, verified("broken"))
			q.Enqueue(ctx, verified("healthy"))

			convey.Convey("Then the worker should keep processing later jobs", func() {
				convey.So(waitFor(func() bool { _, ok := updater.get("healthy"); return ok }), convey.ShouldBeTrue)
				_, stored := updater.get("broken")
				convey.So(stored, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the queue is closed", func() {
			_ = q.Close()

			convey.Convey("Then the worker should stop", func() {
				stopped := waitFor(func() bool {
					select {
					case <-w.Done():
						return true
					default:
						return false
					}
				})
				convey.So(stopped, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it should return without error", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestInMemoryWorkerShutdownTimeout(t *testing.T) {
	convey.Convey("Given a worker stuck inside a job", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		scorer := &blockingScorer{started: make(chan struct{}, 1), release: make(chan struct{})}
		w := worker.NewInMemoryWorker(q, scorer, newMockUpdater(), worker.WithLogger(logging.Nop()))
		go w.Run(context.Background())
		q.Enqueue(context.Background(), verified("slow"))
		<-scorer.started

		convey.Convey("When shutdown has a short deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := w.Shutdown(ctx)
			close(scorer.release)

			convey.Convey("Then it should report the timeout", func() {
				convey.So(errors.Is(err, worker.ErrShutdownTimeout), convey.ShouldBeTrue)
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		updater := newMockUpdater()
		pool := worker.NewPool(4, q, scoring.NewEngine(), updater, worker.WithLogger(logging.Nop()))

		convey.Convey("When it is created", func() {
			convey.Convey("Then it should have the requested size", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When many jobs are queued and the pool is shut down", func() {
			for i := 0; i < 500; i++ {
				q.Enqueue(ctx, verified(fmt.Sprintf("creator-%d", i)))
			}
			pool.Start(ctx)
			err := pool.Shutdown(ctx)

			convey.Convey("Then every queued job should be drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(updater.count(), convey.ShouldEqual, 500)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool asked for no workers", t, func() {
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(0, q, scoring.NewEngine(), newMockUpdater(), worker.WithLogger(logging.Nop()))

		convey.Convey("Then it should fall back to the default size", func() {
			convey.So(pool.Size(), convey.ShouldEqual, worker.DefaultWorkerCount)
		})
	})

	convey.Convey("Given a pool whose only worker is stuck", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		scorer := &blockingScorer{started: make(chan struct{}, 1), release: make(chan struct{})}
		pool := worker.NewPool(1, q, scorer, newMockUpdater(), worker.WithLogger(logging.Nop()))
		pool.Start(context.Background())
		q.Enqueue(context.Background(), verified("slow"))
		<-scorer.started

		convey.Convey("When shutdown has a short deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := pool.Shutdown(ctx)
			close(scorer.release)

			convey.Convey("Then it should report the timeout", func() {
				convey.So(errors.Is(err, worker.ErrShutdownTimeout), convey.ShouldBeTrue)
			})
		})
	})
}
