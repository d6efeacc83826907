// Package overload implements the synthetic load generator and the
// heartbeat watchdog that detects the deadline misses it causes.
package overload

import (
	"errors"
	"sync/atomic"
	"time"

	"cruise/cruiseos/kernel"
	"cruise/cruiseos/proto"
)

// Token is the heartbeat liveness token; it carries the sender's count.
type Token uint32

// Observer is notified of injections and deadline misses.
type Observer interface {
	ObserveOverload(proto.OverloadSample)
	DeadlineMiss(tick uint64)
}

// Injector occupies the processor for a share of every hyperperiod chosen by
// the overload selector.
type Injector struct {
	Field       *kernel.Mailbox[uint16]
	Hyperperiod time.Duration
	Observer    Observer

	field uint16
}

// BusyTime returns the processor time injected for a selector field.
func BusyTime(field uint16, hyperperiod time.Duration) time.Duration {
	return hyperperiod * time.Duration(proto.OverloadPercent(field)) / 100
}

func (in *Injector) Step(c *kernel.Context) {
	if !c.WaitRelease() {
		return
	}
	if f, err := in.Field.Recv(c, kernel.NoWait); err == nil {
		in.field = f
	}

	pct := proto.OverloadPercent(in.field)
	d := BusyTime(in.field, in.Hyperperiod)
	if pct > 0 {
		c.Logf("overload: injection %d%%", pct)
	}
	if in.Observer != nil {
		in.Observer.ObserveOverload(proto.OverloadSample{Tick: c.NowTick(), Percent: pct, BusyNanos: int64(d)})
	}
	c.Busy(d)
}

// Heartbeat posts one liveness token per release.
type Heartbeat struct {
	Out *kernel.Mailbox[Token]

	n Token
}

func (h *Heartbeat) Step(c *kernel.Context) {
	if !c.WaitRelease() {
		return
	}
	h.n++
	h.Out.Send(h.n)
}

// Watchdog checks that one heartbeat token arrives in every heartbeat
// period and reports a deadline miss for each period without one. Periods
// are counted on the hardware tick, so they line up with the heartbeat's
// releases. It never stops on a miss.
type Watchdog struct {
	In *kernel.Mailbox[Token]
	// Period is the heartbeat period in hardware ticks (0 = proto.PeriodTicks).
	Period   uint32
	Observer Observer
	// Alarm is called once per miss, e.g. to sound the annunciator.
	Alarm func()

	// deadline closes the current period; the token released at
	// deadline-Period must arrive before it.
	deadline uint64
	fed      bool
	misses   atomic.Uint64
}

// Misses returns the number of deadline misses reported.
func (w *Watchdog) Misses() uint64 { return w.misses.Load() }

func (w *Watchdog) Step(c *kernel.Context) {
	if w.Period == 0 {
		w.Period = proto.PeriodTicks
	}
	p := uint64(w.Period)
	if w.deadline == 0 {
		w.deadline = (c.NowTick()/p + 2) * p
	}

	_, err := w.In.Recv(c, kernel.UntilTick(w.deadline))
	switch {
	case err == nil:
		// Further tokens before the deadline belong to the same period.
		w.fed = true
	case errors.Is(err, kernel.ErrTimeout):
		if !w.fed {
			w.miss(c)
		}
		w.fed = false
		w.deadline += p
	}
}

func (w *Watchdog) miss(c *kernel.Context) {
	w.misses.Add(1)
	c.Logf("watchdog: OVERLOAD")
	if w.Observer != nil {
		w.Observer.DeadlineMiss(c.NowTick())
	}
	if w.Alarm != nil {
		w.Alarm()
	}
}
