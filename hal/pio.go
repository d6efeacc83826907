package hal

import (
	"sync"
	"sync/atomic"
)

// memRegister is a register backed by memory. When led is set, bit 0 is
// mirrored onto it.
type memRegister struct {
	name string
	v    atomic.Uint32

	mu  sync.Mutex
	led LED
	lit bool
}

func newMemRegister(name string, initial uint32) *memRegister {
	r := &memRegister{name: name}
	r.v.Store(initial)
	return r
}

func (r *memRegister) Name() string { return r.name }
func (r *memRegister) Read() uint32 { return r.v.Load() }

func (r *memRegister) Write(v uint32) {
	r.v.Store(v)
	if r.led == nil {
		return
	}

	on := v&1 != 0
	r.mu.Lock()
	defer r.mu.Unlock()
	if on == r.lit {
		return
	}
	r.lit = on
	if on {
		r.led.High()
	} else {
		r.led.Low()
	}
}

// Pin is a single digital pin. machine.Pin satisfies it.
type Pin interface {
	Get() bool
	Set(high bool)
}

// pinRegister maps register bit i onto pins[i]. Nil pins are skipped; bits
// without a pin read from fill.
type pinRegister struct {
	pins   []Pin
	output bool
	fill   uint32
}

func newPinRegister(pins []Pin, output bool, fill uint32) *pinRegister {
	return &pinRegister{pins: pins, output: output, fill: fill}
}

func (r *pinRegister) Read() uint32 {
	v := r.fill
	for i, p := range r.pins {
		if p == nil {
			continue
		}
		bit := uint32(1) << uint(i)
		if p.Get() {
			v |= bit
		} else {
			v &^= bit
		}
	}
	return v
}

func (r *pinRegister) Write(v uint32) {
	if !r.output {
		return
	}
	for i, p := range r.pins {
		if p == nil {
			continue
		}
		p.Set(v&(uint32(1)<<uint(i)) != 0)
	}
}

type pioBank struct {
	keys    Register
	toggles Register
	hexLow  Register
	hexHigh Register
	red     Register
	green   Register
}

// newMemPIO returns a bank held entirely in memory with no key pressed.
// Red LED 0 is mirrored onto led when it is non-nil.
func newMemPIO(led LED) *pioBank {
	red := newMemRegister("LEDR", 0)
	red.led = led
	return &pioBank{
		keys:    newMemRegister("KEY", ^uint32(0)),
		toggles: newMemRegister("SW", 0),
		hexLow:  newMemRegister("HEX_LOW", 0),
		hexHigh: newMemRegister("HEX_HIGH", 0),
		red:     red,
		green:   newMemRegister("LEDG", 0),
	}
}

func (b *pioBank) Keys() Register      { return b.keys }
func (b *pioBank) Toggles() Register   { return b.toggles }
func (b *pioBank) HexLow() Register    { return b.hexLow }
func (b *pioBank) HexHigh() Register   { return b.hexHigh }
func (b *pioBank) RedLEDs() Register   { return b.red }
func (b *pioBank) GreenLEDs() Register { return b.green }
