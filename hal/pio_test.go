package hal

import "testing"

type fakePin struct {
	level bool
	sets  int
}

func (p *fakePin) Get() bool     { return p.level }
func (p *fakePin) Set(high bool) { p.level = high; p.sets++ }

type countLED struct{ high, low int }

func (l *countLED) High() { l.high++ }
func (l *countLED) Low()  { l.low++ }

func TestPinRegisterRead(t *testing.T) {
	pins := []Pin{&fakePin{level: true}, nil, &fakePin{level: false}, &fakePin{level: true}}
	r := newPinRegister(pins, false, ^uint32(0))

	got := r.Read()
	want := ^uint32(0) &^ (1 << 2)
	if got != want {
		t.Fatalf("Read() = %#x, want %#x", got, want)
	}

	r.Write(0)
	if pins[0].(*fakePin).sets != 0 {
		t.Fatalf("Write() on input register drove a pin")
	}
}

func TestPinRegisterWrite(t *testing.T) {
	a, b := &fakePin{}, &fakePin{}
	r := newPinRegister([]Pin{a, b}, true, 0)

	r.Write(0x2)
	if a.level || !b.level {
		t.Fatalf("pins = (%v, %v), want (false, true)", a.level, b.level)
	}
	if got := r.Read(); got != 0x2 {
		t.Fatalf("Read() = %#x, want 0x2", got)
	}
}

func TestMemRegisterMirrorsLED(t *testing.T) {
	led := &countLED{}
	bank := newMemPIO(led)

	bank.RedLEDs().Write(0x1)
	bank.RedLEDs().Write(0x3)
	bank.RedLEDs().Write(0x2)
	if led.high != 1 || led.low != 1 {
		t.Fatalf("led high/low = %d/%d, want 1/1", led.high, led.low)
	}
	if got := bank.Keys().Read(); got != ^uint32(0) {
		t.Fatalf("idle keys = %#x, want all released", got)
	}
}
