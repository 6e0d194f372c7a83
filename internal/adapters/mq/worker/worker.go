// Package worker drives recap snapshot refreshes from change notices
// and a fixed-interval poller.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/lantechdigital/sinilai/internal/adapters/mq/queue"
	"github.com/lantechdigital/sinilai/pkg/logger"
	"github.com/lantechdigital/sinilai/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 2
	defaultPollInterval   = 5 * time.Second
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Refresher rebuilds the recap snapshot from the store.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Queue defines how workers receive change notices.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Notice
}

// Worker consumes change notices and triggers snapshot refreshes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// RefreshWorker implements Worker over a notice queue.
type RefreshWorker struct {
	queue     Queue
	refresher Refresher
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewRefreshWorker creates a new worker with configuration options.
func NewRefreshWorker(q Queue, refresher Refresher, opts ...Option) *RefreshWorker {
	w := &RefreshWorker{
		queue:     q,
		refresher: refresher,
		name:      "worker",
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
func (w *RefreshWorker) Run(ctx context.Context) {
	defer close(w.done)

	noticeChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-noticeChan:
			if !ok {
				return
			}
			// Drain whatever else is already queued so a burst of
			// writes collapses into one rebuild.
			drained := w.drain(noticeChan)
			if err := w.refresher.Refresh(ctx); err != nil {
				w.logger.Error(ctx, "snapshot refresh failed",
					logger.String("kind", string(n.Kind)),
					logger.String("student_id", n.StudentID),
					logger.Error(err),
				)
				continue
			}
			w.logger.Debug(ctx, "snapshot refreshed",
				logger.String("kind", string(n.Kind)),
				logger.Int("coalesced", drained),
			)
		}
	}
}

func (w *RefreshWorker) drain(noticeChan <-chan queue.Notice) int {
	drained := 0
	for {
		select {
		case _, ok := <-noticeChan:
			if !ok {
				return drained
			}
			drained++
		default:
			return drained
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *RefreshWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages the refresh workers and the interval poller.
//
// The poller is the safety net: even if every notice is dropped on
// backpressure, the snapshot is never older than the poll interval.
type Pool struct {
	workers      []*RefreshWorker
	queue        Queue
	refresher    Refresher
	pollInterval time.Duration

	// Shutdown control
	shutdown chan struct{}
	pollDone chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, refresher Refresher, pollInterval time.Duration) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	pool := &Pool{
		workers:      make([]*RefreshWorker, workerCount),
		queue:        q,
		refresher:    refresher,
		pollInterval: pollInterval,
		shutdown:     make(chan struct{}),
		pollDone:     make(chan struct{}),
		logger:       logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewRefreshWorker(
			q,
			refresher,
			WithName(fmt.Sprintf("worker-%d", i)),
		)
	}

	metrics.UpdateRefreshWorkerCount(workerCount)

	return pool
}

// Start starts all workers and the interval poller.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}

	go p.runPoller(ctx)
}

// runPoller rebuilds the snapshot on a fixed interval regardless of notices.
func (p *Pool) runPoller(ctx context.Context) {
	defer close(p.pollDone)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			if err := p.refresher.Refresh(ctx); err != nil {
				p.logger.Error(ctx, "interval refresh failed", logger.Error(err))
			}
		}
	}
}

// Stop gracefully stops all workers and the poller.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}

	select {
	case <-p.pollDone:
	case <-time.After(workerShutdownTimeout):
	}
}

// Shutdown gracefully shuts down the entire pool, closing the queue first.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateRefreshWorkerCount(0)

	return nil
}
