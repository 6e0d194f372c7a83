// Package queue carries change notices from write paths to the recap
// refresh workers.
//
// A notice is a hint, not a command: dropping one on backpressure is
// safe because the interval poller rebuilds the snapshot regardless.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/lantechdigital/sinilai/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 1024
)

// Kind labels what changed.
type Kind string

const (
	KindScoreUpserted Kind = "score_upserted"
	KindFinalized     Kind = "finalized"
	KindUnlocked      Kind = "unlocked"
	KindRosterChanged Kind = "roster_changed"
)

// Notice describes a change that may affect the recap snapshot.
type Notice struct {
	StudentID string
	EventID   string
	Kind      Kind
	At        time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a notice to the queue.
	// Returns false if the queue is full and the notice was dropped.
	Enqueue(ctx context.Context, n Notice) bool

	// Dequeue returns a channel that receives notices as they arrive.
	// The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Notice

	// Len returns the current number of queued notices.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new notices can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	notices  chan Notice
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}

	q.notices = make(chan Notice, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a notice to the queue. Never blocks: a full queue drops
// the notice and relies on the poller to pick the change up.
func (q *InMemoryQueue) Enqueue(ctx context.Context, n Notice) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordNoticeDropped()
		return false
	}

	select {
	case q.notices <- n:
		metrics.RecordQueueEnqueue()
		q.observeDepth()
		return true
	case <-ctx.Done():
		metrics.RecordNoticeDropped()
		return false
	default:
		metrics.RecordNoticeDropped()
		return false
	}
}

// Dequeue returns a channel that receives notices as they arrive.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Notice {
	out := make(chan Notice)
	go func() {
		defer close(out)
		for n := range q.notices {
			select {
			case out <- n:
				metrics.RecordQueueDequeue()
				q.observeDepth()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued notices.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observeDepth()
	return len(q.notices)
}

func (q *InMemoryQueue) observeDepth() {
	depth := len(q.notices)
	metrics.UpdateQueueSize(depth)
	metrics.UpdateQueueUtilization(float64(depth) / float64(q.capacity))
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.notices)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
