package proto

// Button register bits, after inverting the active-low raw value.
const (
	ButtonCruise uint32 = 0x02
	ButtonBrake  uint32 = 0x04
	ButtonGas    uint32 = 0x08
)

// Switch register bits.
const (
	SwitchEngine   uint32 = 0x001
	SwitchTopGear  uint32 = 0x002
	SwitchOverload uint32 = 0x3F0

	overloadShift = 4
)

// Buttons is the decoded push-button state.
type Buttons struct {
	Gas    Active
	Brake  Active
	Cruise Active
}

// Switches is the decoded toggle-switch state.
type Switches struct {
	Engine  Active
	TopGear Active
	// Overload is the raw 6-bit load selector field.
	Overload uint16
}

// PressedButtons converts the raw active-low key register into active bits.
func PressedButtons(raw uint32) uint32 {
	return ^raw
}

// RawKeys is the inverse of PressedButtons: the register value seen while
// exactly the buttons in pressed are held.
func RawKeys(pressed uint32) uint32 {
	return ^pressed
}

// DecodeButtons decodes a raw active-low key register.
func DecodeButtons(raw uint32) Buttons {
	b := PressedButtons(raw)
	return Buttons{
		Gas:    ActiveOf(b&ButtonGas != 0),
		Brake:  ActiveOf(b&ButtonBrake != 0),
		Cruise: ActiveOf(b&ButtonCruise != 0),
	}
}

// DecodeSwitches decodes the toggle-switch register.
//
// Layout:
//   - bit 0: engine
//   - bit 1: top gear
//   - bits 4..9: overload selector
func DecodeSwitches(s uint32) Switches {
	return Switches{
		Engine:   ActiveOf(s&SwitchEngine != 0),
		TopGear:  ActiveOf(s&SwitchTopGear != 0),
		Overload: uint16((s & SwitchOverload) >> overloadShift),
	}
}

// OverloadSwitches returns the register bits that select overload field f.
func OverloadSwitches(f uint16) uint32 {
	return (uint32(f) << overloadShift) & SwitchOverload
}

// OverloadPercent scales the selector field to a load percentage, capped at 100.
func OverloadPercent(field uint16) uint8 {
	p := 2 * uint32(field)
	if p > 100 {
		p = 100
	}
	return uint8(p)
}
