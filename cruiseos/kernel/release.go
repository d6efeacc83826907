package kernel

import (
	"context"
	"sync"
	"sync/atomic"
)

// Release is the counting signal a periodic task blocks on between
// activations. The software timer bound to the task is its only producer.
type Release struct {
	mu      sync.Mutex
	pending uint32
	wake    chan struct{}

	total atomic.Uint64
}

func NewRelease() *Release {
	return &Release{wake: make(chan struct{}, 1)}
}

// Signal records one release. It never blocks and is safe to call from the
// tick path.
func (r *Release) Signal() {
	r.mu.Lock()
	if r.pending < ^uint32(0) {
		r.pending++
	}
	r.mu.Unlock()
	r.total.Add(1)

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Wait consumes one release, blocking until one is pending or ctx is done.
func (r *Release) Wait(ctx context.Context) error {
	for {
		if r.take() {
			return nil
		}
		select {
		case <-r.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Pending returns the number of releases not yet consumed.
func (r *Release) Pending() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Total returns the number of releases signalled since creation.
func (r *Release) Total() uint64 { return r.total.Load() }

func (r *Release) take() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == 0 {
		return false
	}
	r.pending--
	return true
}
