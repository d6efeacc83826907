//go:build !tinygo

package hal

import (
	"sync"
	"time"
)

// Virtual is an in-memory HAL whose ticks are generated on demand. It backs
// tests and scripted runs that must not depend on wall time.
type Virtual struct {
	logger *MemLogger
	pio    *pioBank
	fb     *hostFramebuffer
	kbd    *hostKeyboard
	t      *hostTime
	aud    *countingAudio
}

// NewVirtual returns a virtual HAL with the given tick period.
func NewVirtual(period time.Duration) *Virtual {
	if period <= 0 {
		period = DefaultTickPeriod
	}
	return &Virtual{
		logger: &MemLogger{},
		pio:    newMemPIO(nil),
		fb:     newHostFramebuffer(320, 240),
		kbd:    newHostKeyboard(),
		t:      newHostTime(period),
		aud:    &countingAudio{},
	}
}

func (v *Virtual) Logger() Logger   { return v.logger }
func (v *Virtual) LED() LED         { return nopLED{} }
func (v *Virtual) PIO() PIO         { return v.pio }
func (v *Virtual) Display() Display { return hostDisplay{fb: v.fb} }
func (v *Virtual) Input() Input     { return hostInput{kbd: v.kbd} }
func (v *Virtual) Audio() Audio     { return v.aud }
func (v *Virtual) Time() Time       { return v.t }

// Tick emits n hardware ticks.
func (v *Virtual) Tick(n int) {
	if n > 0 {
		v.t.stepN(uint64(n))
	}
}

// Lines returns every line written to the logger.
func (v *Virtual) Lines() []string { return v.logger.Lines() }

// Beeps returns how many annunciator tones were requested.
func (v *Virtual) Beeps() int { return v.aud.count() }

// MemLogger records log lines in memory.
type MemLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *MemLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *MemLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *MemLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

type nopLED struct{}

func (nopLED) High() {}
func (nopLED) Low()  {}

type countingAudio struct {
	mu sync.Mutex
	n  int
}

func (a *countingAudio) Beep(uint32, time.Duration) {
	a.mu.Lock()
	a.n++
	a.mu.Unlock()
}

func (a *countingAudio) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}

// Key queues a keyboard event as if the operator had typed it. Events beyond
// the keyboard buffer are dropped.
func (v *Virtual) Key(ev KeyEvent) {
	select {
	case v.kbd.ch <- ev:
	default:
	}
}
