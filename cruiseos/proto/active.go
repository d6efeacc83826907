package proto

// Active is a two-valued on/off flag. The zero value is invalid so an
// uninitialised flag is never mistaken for Off.
type Active uint8

const (
	Off Active = 1
	On  Active = 2
)

// ActiveOf converts b to On or Off.
func ActiveOf(b bool) Active {
	if b {
		return On
	}
	return Off
}

func (a Active) IsOn() bool { return a == On }

// Valid reports whether a is On or Off.
func (a Active) Valid() bool { return a == On || a == Off }

func (a Active) String() string {
	switch a {
	case On:
		return "on"
	case Off:
		return "off"
	default:
		return "invalid"
	}
}
