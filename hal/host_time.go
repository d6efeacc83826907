//go:build !tinygo

package hal

import "time"

type hostTime struct {
	ch     chan uint64
	seq    uint64
	period time.Duration

	last time.Time
	acc  time.Duration
}

func newHostTime(period time.Duration) *hostTime {
	return &hostTime{ch: make(chan uint64, 64), period: period}
}

func (t *hostTime) Ticks() <-chan uint64  { return t.ch }
func (t *hostTime) Period() time.Duration { return t.period }

// step converts the wall time elapsed since the previous call into ticks.
// It returns the number of ticks emitted.
func (t *hostTime) step() uint64 {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		return 0
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / t.period)
	if ticks == 0 {
		return 0
	}
	t.acc = t.acc % t.period
	t.stepN(ticks)
	return ticks
}

// stepN emits n ticks. A full channel drops the value; the consumer catches
// up from the next sequence number it sees.
func (t *hostTime) stepN(n uint64) {
	for i := uint64(0); i < n; i++ {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}
