package kernel

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Context provides task-local access to kernel operations.
//
// A nil *Context is valid and runs detached from the kernel: releases are
// granted immediately, suspension does not touch the processor and log lines
// are dropped. Tests use this to drive a single Step.
type Context struct {
	k   *Kernel
	st  *taskState
	ctx context.Context
}

// TaskID returns the current task ID.
func (c *Context) TaskID() TaskID {
	if c == nil || c.st == nil {
		return 0
	}
	return c.st.id
}

// Name returns the current task name.
func (c *Context) Name() string {
	if c == nil || c.st == nil {
		return ""
	}
	return c.st.name
}

// Err reports whether the task set is shutting down.
func (c *Context) Err() error {
	if c == nil || c.ctx == nil {
		return nil
	}
	return c.ctx.Err()
}

// NowTick returns the number of hardware ticks processed so far.
func (c *Context) NowTick() uint64 {
	if c == nil || c.k == nil {
		return 0
	}
	return c.k.timers.Now()
}

// WaitRelease blocks until the task's software timer releases it again. It
// returns false when the task set is shutting down or the task has no timer.
func (c *Context) WaitRelease() bool {
	if c == nil || c.k == nil {
		return true
	}
	if c.st.release == nil {
		return false
	}
	err := c.Suspend(func(ctx context.Context) error {
		return c.st.release.Wait(ctx)
	})
	if err != nil {
		return false
	}
	if c.k.metrics != nil {
		c.k.metrics.TaskReleased(c.st.name)
	}
	return true
}

// Suspend gives up the processor, runs wait, and re-acquires the processor
// before returning. wait must return promptly once its context is done.
func (c *Context) Suspend(wait func(context.Context) error) error {
	if c == nil || c.k == nil {
		return wait(context.Background())
	}
	c.k.cpu.release(c.st)
	werr := wait(c.ctx)
	if err := c.k.cpu.acquire(c.ctx, c.st); err != nil {
		return err
	}
	return werr
}

// Preempt is a preemption point: if a more urgent task is ready it runs first.
// It never yields to a task of equal or lower priority.
func (c *Context) Preempt() {
	if c == nil || c.k == nil {
		return
	}
	_ = c.k.cpu.preempt(c.ctx, c.st)
}

// Busy occupies the processor for d without suspending. Only more urgent
// tasks may run in the meantime, and the time they take counts towards d.
func (c *Context) Busy(d time.Duration) {
	now := time.Now
	if c != nil && c.k != nil {
		now = c.k.now
	}
	start := now()
	for now().Sub(start) < d {
		if c.Err() != nil {
			return
		}
		c.Preempt()
		runtime.Gosched()
	}
}

// Logf posts a best-effort log line; it is dropped when the log queue is full.
func (c *Context) Logf(format string, args ...any) {
	if c == nil || c.k == nil {
		return
	}
	c.k.log.TrySend(fmt.Sprintf(format, args...))
}
