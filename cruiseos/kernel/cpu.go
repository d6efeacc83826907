package kernel

import (
	"context"
	"sync"
)

// processor models the single CPU of the target. Exactly one task owns it at a
// time; when it is released the most urgent waiting task gets it, FIFO among
// equal priorities.
//
// Preemption is deferred to the running task's next suspension or preemption
// point (Context.Preempt).
type processor struct {
	mu    sync.Mutex
	owner *taskState
	ready []*taskState
	seq   uint64
}

func (p *processor) acquire(ctx context.Context, t *taskState) error {
	p.mu.Lock()
	if p.owner == nil && len(p.ready) == 0 {
		p.owner = t
		p.mu.Unlock()
		return nil
	}
	p.enqueue(t)
	if p.owner == nil {
		p.handoff()
	}
	p.mu.Unlock()
	return p.await(ctx, t)
}

func (p *processor) release(t *taskState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owner != t {
		return
	}
	p.owner = nil
	p.handoff()
}

// preempt hands the processor to a strictly more urgent ready task, if any,
// and blocks until t is scheduled again.
func (p *processor) preempt(ctx context.Context, t *taskState) error {
	p.mu.Lock()
	if p.owner != t {
		p.mu.Unlock()
		return nil
	}
	i := p.best()
	if i < 0 || p.ready[i].priority >= t.priority {
		p.mu.Unlock()
		return nil
	}
	p.enqueue(t)
	p.owner = nil
	p.handoff()
	p.mu.Unlock()
	return p.await(ctx, t)
}

func (p *processor) await(ctx context.Context, t *taskState) error {
	select {
	case <-t.grant:
		return nil
	case <-ctx.Done():
	}

	p.mu.Lock()
	if p.owner == t {
		p.mu.Unlock()
		<-t.grant
		return nil
	}
	p.remove(t)
	p.mu.Unlock()
	return ctx.Err()
}

// ownerName returns the task holding the processor, or "".
func (p *processor) ownerName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owner == nil {
		return ""
	}
	return p.owner.name
}

func (p *processor) enqueue(t *taskState) {
	p.seq++
	t.seq = p.seq
	p.ready = append(p.ready, t)
}

func (p *processor) remove(t *taskState) {
	for i, r := range p.ready {
		if r == t {
			p.ready = append(p.ready[:i], p.ready[i+1:]...)
			return
		}
	}
}

func (p *processor) best() int {
	idx := -1
	for i, r := range p.ready {
		if idx < 0 {
			idx = i
			continue
		}
		b := p.ready[idx]
		if r.priority < b.priority || (r.priority == b.priority && r.seq < b.seq) {
			idx = i
		}
	}
	return idx
}

// handoff must be called with p.mu held and p.owner == nil.
func (p *processor) handoff() {
	i := p.best()
	if i < 0 {
		return
	}
	next := p.ready[i]
	p.ready = append(p.ready[:i], p.ready[i+1:]...)
	p.owner = next
	next.grant <- struct{}{}
}
