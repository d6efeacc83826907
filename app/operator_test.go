package app

import (
	"testing"

	"cruise/cruiseos/proto"
	"cruise/hal"
)

func TestOperatorHoldsButtons(t *testing.T) {
	pio := hal.NewVirtual(0).PIO()
	op := NewOperator(pio)

	op.Apply(hal.KeyEvent{Press: true, Rune: 'g'})
	op.Apply(hal.KeyEvent{Press: true, Rune: 'C'})
	b := proto.DecodeButtons(pio.Keys().Read())
	if !b.Gas.IsOn() || !b.Cruise.IsOn() || b.Brake.IsOn() {
		t.Fatalf("buttons while held = %+v", b)
	}

	op.Apply(hal.KeyEvent{Press: false, Rune: 'g'})
	b = proto.DecodeButtons(pio.Keys().Read())
	if b.Gas.IsOn() || !b.Cruise.IsOn() {
		t.Fatalf("buttons after gas release = %+v", b)
	}
}

func TestOperatorTogglesSwitches(t *testing.T) {
	pio := hal.NewVirtual(0).PIO()
	op := NewOperator(pio)

	op.Apply(hal.KeyEvent{Press: true, Rune: 'e'})
	op.Apply(hal.KeyEvent{Press: false, Rune: 'e'})
	op.Apply(hal.KeyEvent{Press: true, Rune: 't'})
	s := proto.DecodeSwitches(pio.Toggles().Read())
	if !s.Engine.IsOn() || !s.TopGear.IsOn() {
		t.Fatalf("switches = %+v", s)
	}

	op.Apply(hal.KeyEvent{Press: true, Rune: 'e'})
	if s := proto.DecodeSwitches(pio.Toggles().Read()); s.Engine.IsOn() || !s.TopGear.IsOn() {
		t.Fatalf("switches after second e = %+v", s)
	}
}

func TestOperatorOverloadDigits(t *testing.T) {
	pio := hal.NewVirtual(0).PIO()
	op := NewOperator(pio)
	op.Apply(hal.KeyEvent{Press: true, Rune: 'e'})

	cases := []struct {
		r     rune
		field uint16
	}{
		{'0', 0},
		{'3', 21},
		{'9', 63},
		{'1', 7},
	}
	for _, tc := range cases {
		op.Apply(hal.KeyEvent{Press: true, Rune: tc.r})
		s := proto.DecodeSwitches(pio.Toggles().Read())
		if s.Overload != tc.field {
			t.Fatalf("digit %c: field = %d, want %d", tc.r, s.Overload, tc.field)
		}
		if !s.Engine.IsOn() {
			t.Fatalf("digit %c cleared the engine switch", tc.r)
		}
	}
}

func TestOperatorEscapeStops(t *testing.T) {
	v := hal.NewVirtual(0)
	op := NewOperator(v.PIO())

	v.Key(hal.KeyEvent{Press: true, Rune: 'b'})
	if op.Drain(v.Input().Keyboard()) {
		t.Fatalf("brake key stopped the unit")
	}
	if b := proto.DecodeButtons(v.PIO().Keys().Read()); !b.Brake.IsOn() {
		t.Fatalf("brake not held after drain")
	}

	v.Key(hal.KeyEvent{Code: hal.KeyEscape, Press: true})
	if !op.Drain(v.Input().Keyboard()) {
		t.Fatalf("escape did not stop the unit")
	}
	if op.Drain(nil) {
		t.Fatalf("nil keyboard stopped the unit")
	}
}
