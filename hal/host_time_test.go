//go:build !tinygo

package hal

import (
	"testing"
	"time"
)

func TestHostTimeDropsWhenFull(t *testing.T) {
	ht := newHostTime(time.Millisecond)
	ht.stepN(uint64(cap(ht.ch) + 10))

	var last uint64
	for {
		select {
		case seq := <-ht.Ticks():
			if seq <= last {
				t.Fatalf("tick %d after %d", seq, last)
			}
			last = seq
			continue
		default:
		}
		break
	}
	if last != uint64(cap(ht.ch)) {
		t.Fatalf("last buffered tick = %d, want %d", last, cap(ht.ch))
	}
	if ht.seq != uint64(cap(ht.ch)+10) {
		t.Fatalf("seq = %d, want %d", ht.seq, cap(ht.ch)+10)
	}
}

func TestVirtualTick(t *testing.T) {
	v := NewVirtual(0)
	if got := v.Time().Period(); got != DefaultTickPeriod {
		t.Fatalf("Period() = %v, want %v", got, DefaultTickPeriod)
	}
	v.Tick(3)
	for want := uint64(1); want <= 3; want++ {
		if got := <-v.Time().Ticks(); got != want {
			t.Fatalf("tick = %d, want %d", got, want)
		}
	}
	v.Logger().WriteLineString("hello")
	v.Audio().Beep(880, time.Millisecond)
	if lines := v.Lines(); len(lines) != 1 || lines[0] != "hello" {
		t.Fatalf("Lines() = %q", lines)
	}
	if v.Beeps() != 1 {
		t.Fatalf("Beeps() = %d, want 1", v.Beeps())
	}
}
