//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// DefaultTickPeriod is the hardware timer period of the unit.
const DefaultTickPeriod = 100 * time.Millisecond

type hostHAL struct {
	logger *hostLogger
	led    *hostLED
	pio    *pioBank
	fb     *hostFramebuffer
	kbd    *hostKeyboard
	t      *hostTime
	aud    Audio
}

// New returns a host HAL implementation ticking at DefaultTickPeriod.
func New() HAL {
	return newHostHAL(DefaultTickPeriod)
}

func newHostHAL(period time.Duration) *hostHAL {
	if period <= 0 {
		period = DefaultTickPeriod
	}
	logger := &hostLogger{w: os.Stdout}
	led := &hostLED{logger: logger}
	return &hostHAL{
		logger: logger,
		led:    led,
		pio:    newMemPIO(led),
		fb:     newHostFramebuffer(320, 240),
		kbd:    newHostKeyboard(),
		t:      newHostTime(period),
		aud:    newHostAudio(),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) LED() LED         { return h.led }
func (h *hostHAL) PIO() PIO         { return h.pio }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input     { return hostInput{kbd: h.kbd} }
func (h *hostHAL) Audio() Audio     { return h.aud }
func (h *hostHAL) Time() Time       { return h.t }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostInput struct {
	kbd *hostKeyboard
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

// hostLED stands in for the engine lamp.
type hostLED struct {
	mu     sync.Mutex
	on     bool
	logger *hostLogger
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = true
	l.logger.WriteLineString("led: engine on")
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = false
	l.logger.WriteLineString("led: engine off")
}
