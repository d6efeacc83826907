package kernel

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

var (
	// ErrEmpty is returned by a NoWait receive when nothing is held.
	ErrEmpty = errors.New("mailbox empty")
	// ErrTimeout is returned when a Timeout or UntilTick receive expires.
	ErrTimeout = errors.New("mailbox receive timed out")
)

type waitMode uint8

const (
	waitNone waitMode = iota
	waitForever
	waitTimeout
	waitTick
)

// Wait selects how a receive behaves on an empty mailbox.
type Wait struct {
	mode waitMode
	d    time.Duration
	tick uint64
}

var (
	// NoWait returns ErrEmpty immediately.
	NoWait = Wait{mode: waitNone}
	// Forever suspends until a value is sent.
	Forever = Wait{mode: waitForever}
)

// Timeout suspends for at most d, then returns ErrTimeout.
func Timeout(d time.Duration) Wait {
	return Wait{mode: waitTimeout, d: d}
}

// UntilTick suspends until hardware tick t is processed, then returns
// ErrTimeout. The deadline is taken on the tick path before the releases of
// tick t, so a value sent by a task released on tick t does not satisfy it.
// Outside the task set there is no tick source and an empty mailbox times
// out at once.
func UntilTick(t uint64) Wait {
	return Wait{mode: waitTick, tick: t}
}

func (w Wait) String() string {
	switch w.mode {
	case waitNone:
		return "no-wait"
	case waitForever:
		return "forever"
	case waitTick:
		return "until-tick(" + strconv.FormatUint(w.tick, 10) + ")"
	default:
		return "timeout(" + w.d.String() + ")"
	}
}

// Mailbox is a typed single-slot channel. Send never blocks and overwrites an
// unconsumed value; a receiver only ever sees the most recent value.
//
// The design allows one writer role and one reader role per mailbox; that is
// a usage rule, not enforced here.
type Mailbox[T any] struct {
	mu     sync.Mutex
	val    T
	full   bool
	seq    uint64
	notify chan struct{}

	sent        uint64
	overwritten uint64
}

func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{notify: make(chan struct{}, 1)}
}

// Send stores v, replacing any held value.
func (m *Mailbox[T]) Send(v T) {
	m.mu.Lock()
	if m.full {
		m.overwritten++
	}
	m.val = v
	m.full = true
	m.sent++
	m.seq = m.sent
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// TryRecv consumes the held value without blocking.
func (m *Mailbox[T]) TryRecv() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if !m.full {
		return zero, false
	}
	v := m.val
	m.val = zero
	m.full = false
	return v, true
}

// Recv consumes the held value. On an empty mailbox it behaves according to
// w. A suspended receive gives up the processor while it waits.
//
// ctx may be nil for callers outside the task set.
func (m *Mailbox[T]) Recv(ctx *Context, w Wait) (T, error) {
	if w.mode == waitTick {
		return m.recvUntil(ctx, w.tick)
	}
	if v, ok := m.TryRecv(); ok {
		return v, nil
	}
	var zero T
	if w.mode == waitNone {
		return zero, ErrEmpty
	}
	if w.mode == waitTimeout && w.d <= 0 {
		return zero, ErrTimeout
	}

	var out T
	err := ctx.Suspend(func(cctx context.Context) error {
		var expired <-chan time.Time
		if w.mode == waitTimeout {
			t := time.NewTimer(w.d)
			defer t.Stop()
			expired = t.C
		}
		for {
			if v, ok := m.TryRecv(); ok {
				out = v
				return nil
			}
			select {
			case <-m.notify:
			case <-expired:
				if v, ok := m.TryRecv(); ok {
					out = v
					return nil
				}
				return ErrTimeout
			case <-cctx.Done():
				return cctx.Err()
			}
		}
	})
	if err != nil {
		return zero, err
	}
	return out, nil
}

// tickDeadline is the state of one UntilTick receive. limit is the send count
// at the deadline; values sent later belong to the next period.
type tickDeadline struct {
	expired chan struct{}
	limit   uint64
}

func (m *Mailbox[T]) recvUntil(ctx *Context, tick uint64) (T, error) {
	var zero T
	if ctx == nil || ctx.k == nil {
		if v, ok := m.TryRecv(); ok {
			return v, nil
		}
		return zero, ErrTimeout
	}

	dl := &tickDeadline{expired: make(chan struct{}), limit: ^uint64(0)}
	cancel := ctx.k.timers.At(tick, func() {
		m.mu.Lock()
		dl.limit = m.sent
		m.mu.Unlock()
		close(dl.expired)
	})
	defer cancel()

	var out T
	err := ctx.Suspend(func(cctx context.Context) error {
		for {
			if v, ok := m.recvSentBy(dl); ok {
				out = v
				return nil
			}
			select {
			case <-dl.expired:
				if v, ok := m.recvSentBy(dl); ok {
					out = v
					return nil
				}
				return ErrTimeout
			default:
			}
			select {
			case <-m.notify:
			case <-dl.expired:
			case <-cctx.Done():
				return cctx.Err()
			}
		}
	})
	if err != nil {
		return zero, err
	}
	return out, nil
}

// recvSentBy consumes the held value if it was sent before the deadline.
func (m *Mailbox[T]) recvSentBy(dl *tickDeadline) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if !m.full || m.seq > dl.limit {
		return zero, false
	}
	v := m.val
	m.val = zero
	m.full = false
	return v, true
}

// Stats reports how many values were sent and how many of those replaced an
// unconsumed value.
func (m *Mailbox[T]) Stats() (sent, overwritten uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent, m.overwritten
}
