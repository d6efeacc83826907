package kernel

import (
	"context"
	"sync"
)

// Queue is a fixed-size multi-producer, single-consumer FIFO. It backs the
// log and trace paths, where producers are real-time tasks that must never
// block: a full queue drops the item.
type Queue[T any] struct {
	mu     sync.Mutex
	head   uint32
	tail   uint32
	slots  []T
	notify chan struct{}

	dropped uint64
}

func NewQueue[T any](slots int) *Queue[T] {
	if slots <= 0 {
		slots = 1
	}
	return &Queue[T]{slots: make([]T, slots), notify: make(chan struct{}, 1)}
}

// TrySend attempts to enqueue v, returning false if the queue is full.
func (q *Queue[T]) TrySend(v T) bool {
	q.mu.Lock()
	n := uint32(len(q.slots))
	if q.head-q.tail >= n {
		q.dropped++
		q.mu.Unlock()
		return false
	}
	q.slots[q.head%n] = v
	q.head++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// TryRecv attempts to dequeue one item, returning false if empty.
func (q *Queue[T]) TryRecv() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.tail == q.head {
		return zero, false
	}
	n := uint32(len(q.slots))
	v := q.slots[q.tail%n]
	q.slots[q.tail%n] = zero
	q.tail++
	return v, true
}

// Recv blocks until one item is available or ctx is done.
func (q *Queue[T]) Recv(ctx context.Context) (T, error) {
	for {
		if v, ok := q.TryRecv(); ok {
			return v, nil
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.head - q.tail)
}

// Dropped returns how many items TrySend rejected.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
