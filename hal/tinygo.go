//go:build tinygo && baremetal

package hal

import (
	"machine"
	"time"
)

type tinyGoHAL struct {
	logger *uartLogger
	led    *pinLED
	pio    *pioBank
	fb     Framebuffer
	kbd    Keyboard
	t      *tinyGoTime
	audio  Audio
}

// New returns a Pico 2 (RP2350) HAL implementation.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// Keys: GP10..GP13, active-low with pull-ups.
// Switches: GP14 engine, GP15 top gear, GP18..GP21 overload bits 4..7.
// LEDs: on-board LED is red LED 0 (engine), GP16 red LED 1, GP17 green LED 1.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led := &pinLED{pin: ledPin}

	keys := inputPins(machine.PinInputPullup, machine.GP10, machine.GP11, machine.GP12, machine.GP13)
	sw := inputPins(machine.PinInputPulldown, machine.GP14, machine.GP15, machine.GP18, machine.GP19, machine.GP20, machine.GP21)
	red := outputPins(ledPin, machine.GP16)
	green := outputPins(machine.NoPin, machine.GP17)

	return &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		led:    led,
		pio: &pioBank{
			keys:    newPinRegister(keys, false, ^uint32(0)),
			toggles: newPinRegister([]Pin{sw[0], sw[1], nil, nil, sw[2], sw[3], sw[4], sw[5]}, false, 0),
			hexLow:  newMemRegister("HEX_LOW", 0),
			hexHigh: newMemRegister("HEX_HIGH", 0),
			red:     newPinRegister(red, true, 0),
			green:   newPinRegister(green, true, 0),
		},
		fb:    &stubFramebuffer{w: 320, h: 240, format: PixelFormatRGB565},
		kbd:   &stubKeyboard{},
		t:     newTinyGoTime(DefaultTickPeriod),
		audio: newTinyGoAudio(),
	}
}

// DefaultTickPeriod is the hardware timer period of the unit.
const DefaultTickPeriod = 100 * time.Millisecond

func inputPins(mode machine.PinMode, pins ...machine.Pin) []Pin {
	out := make([]Pin, len(pins))
	for i, p := range pins {
		p.Configure(machine.PinConfig{Mode: mode})
		out[i] = p
	}
	return out
}

func outputPins(pins ...machine.Pin) []Pin {
	out := make([]Pin, len(pins))
	for i, p := range pins {
		if p == machine.NoPin {
			continue
		}
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		out[i] = p
	}
	return out
}

func (h *tinyGoHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHAL) LED() LED         { return h.led }
func (h *tinyGoHAL) PIO() PIO         { return h.pio }
func (h *tinyGoHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }
func (h *tinyGoHAL) Input() Input     { return tinyGoInput{kbd: h.kbd} }
func (h *tinyGoHAL) Time() Time       { return h.t }
func (h *tinyGoHAL) Audio() Audio     { return h.audio }
