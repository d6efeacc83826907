package app

import (
	"unicode"

	"cruise/cruiseos/proto"
	"cruise/hal"
)

// overloadStep scales a digit key to the 6-bit overload selector, so 9 selects
// the full field.
const overloadStep = 7

// Operator maps keyboard events onto the button and switch registers. G, B
// and C are held like the pedals and the cruise button, E and T flip the
// engine and top-gear switches, and a digit selects the overload level.
type Operator struct {
	keys    hal.Register
	toggles hal.Register
	held    uint32
}

func NewOperator(pio hal.PIO) *Operator {
	return &Operator{keys: pio.Keys(), toggles: pio.Toggles()}
}

// Apply updates the registers for ev. It reports whether the operator asked
// to stop the unit.
func (o *Operator) Apply(ev hal.KeyEvent) (stop bool) {
	if ev.Code == hal.KeyEscape {
		return ev.Press
	}

	r := unicode.ToLower(ev.Rune)
	switch r {
	case 'g':
		o.hold(proto.ButtonGas, ev.Press)
	case 'b':
		o.hold(proto.ButtonBrake, ev.Press)
	case 'c':
		o.hold(proto.ButtonCruise, ev.Press)
	case 'e':
		if ev.Press {
			o.toggles.Write(o.toggles.Read() ^ proto.SwitchEngine)
		}
	case 't':
		if ev.Press {
			o.toggles.Write(o.toggles.Read() ^ proto.SwitchTopGear)
		}
	default:
		if ev.Press && r >= '0' && r <= '9' {
			field := uint16(r-'0') * overloadStep
			v := o.toggles.Read() &^ proto.SwitchOverload
			o.toggles.Write(v | proto.OverloadSwitches(field))
		}
	}
	return false
}

func (o *Operator) hold(bit uint32, press bool) {
	if press {
		o.held |= bit
	} else {
		o.held &^= bit
	}
	o.keys.Write(proto.RawKeys(o.held))
}

// Drain applies every pending event from kbd without blocking.
func (o *Operator) Drain(kbd hal.Keyboard) (stop bool) {
	if kbd == nil {
		return false
	}
	ch := kbd.Events()
	for {
		select {
		case ev := <-ch:
			if o.Apply(ev) {
				stop = true
			}
		default:
			return stop
		}
	}
}
