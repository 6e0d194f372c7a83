package queue

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	n1 := Notice{StudentID: "s1", EventID: "e1", Kind: KindScoreUpserted, At: time.Now()}
	if !q.Enqueue(ctx, n1) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	noticeChan := q.Dequeue(ctx)
	n := <-noticeChan
	if n.StudentID != "s1" || n.Kind != KindScoreUpserted {
		t.Errorf("unexpected notice: %+v", n)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_DropsOnBackpressure(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, Notice{StudentID: "s1", Kind: KindScoreUpserted}) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, Notice{StudentID: "s2", Kind: KindFinalized}) {
		t.Error("expected enqueue to succeed")
	}

	// Full queue drops instead of blocking.
	if q.Enqueue(ctx, Notice{StudentID: "s3", Kind: KindUnlocked}) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	numGoroutines := 10
	numNotices := 100

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numNotices; j++ {
				n := Notice{
					StudentID: fmt.Sprintf("student%d_%d", id, j),
					Kind:      KindScoreUpserted,
					At:        time.Now(),
				}
				for !q.Enqueue(ctx, n) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	consumed := make(chan string, numGoroutines*numNotices)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			for n := range q.Dequeue(ctx) {
				consumed <- n.StudentID
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	time.Sleep(100 * time.Millisecond)

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, Notice{StudentID: "s1", Kind: KindScoreUpserted}) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, Notice{StudentID: "s2", Kind: KindFinalized}) {
		t.Error("expected enqueue to succeed")
	}

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if q.Enqueue(ctx, Notice{StudentID: "s3"}) {
		t.Error("expected enqueue to fail after closing")
	}

	noticeChan := q.Dequeue(ctx)

	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case _, ok := <-noticeChan:
			if !ok {
				goto channelClosed
			}
		case <-timeout:
			t.Error("expected dequeue channel to be closed within timeout")
			return
		}
	}
channelClosed:

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
