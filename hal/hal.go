package hal

import (
	"errors"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var (
	ErrNotImplemented = errors.New("not implemented")
	// ErrStop is returned by an app step to end a host run cleanly.
	ErrStop = errors.New("stop requested")
)

// Register is a 32-bit parallel IO data register.
//
// Writes to an input register are ignored by hardware backends; the host
// backend accepts them so an operator or a scenario can drive the inputs.
type Register interface {
	Read() uint32
	Write(v uint32)
}

// PIO groups the parallel IO registers of the unit.
//
// Keys is active-low: a pressed button reads as a cleared bit.
type PIO interface {
	Keys() Register
	Toggles() Register
	HexLow() Register
	HexHigh() Register
	RedLEDs() Register
	GreenLEDs() Register
}

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyEscape
)

// KeyEvent is a keyboard event. Printable keys carry Rune and report both
// press and release.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
}

// Keyboard provides key events (best-effort on each platform).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Input provides access to input devices (if available).
type Input interface {
	Keyboard() Keyboard
}

// Audio drives the annunciator.
type Audio interface {
	// Beep sounds a tone without blocking the caller.
	Beep(freqHz uint32, d time.Duration)
}

// Time provides the hardware tick stream.
//
// Tick sequence numbers start at 1 and increase by one per tick. A slow
// consumer may miss values; it must catch up to the latest sequence.
type Time interface {
	Ticks() <-chan uint64
	Period() time.Duration
}

// HAL provides the only contact point between the unit and the outside world.
type HAL interface {
	Logger() Logger
	LED() LED
	PIO() PIO
	Display() Display
	Input() Input
	Audio() Audio
	Time() Time
}
