// Package dashboard renders the unit's front panel into the framebuffer:
// both seven-segment banks, the LED rows, a status line and a console pane
// fed by the logger service.
package dashboard

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"cruise/cruiseos/proto"
	"cruise/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

const (
	fontHeight = 10
	fontOffset = 6

	digitW   = 14
	digitH   = 28
	segThick = 3
	digitGap = 6

	ledSize = 8
	ledGap  = 3

	redLEDs   = 18
	greenLEDs = 9

	consoleTop = 140

	// overloadHold keeps the OVERLOAD banner visible after a miss.
	overloadHold = 2 * time.Second
)

var (
	bg       = color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xFF}
	fg       = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	segOn    = color.RGBA{R: 0xFF, G: 0x30, B: 0x20, A: 0xFF}
	segOff   = color.RGBA{R: 0x30, G: 0x18, B: 0x18, A: 0xFF}
	redOn    = color.RGBA{R: 0xFF, G: 0x20, B: 0x20, A: 0xFF}
	greenOn  = color.RGBA{R: 0x20, G: 0xE0, B: 0x40, A: 0xFF}
	ledOff   = color.RGBA{R: 0x38, G: 0x38, B: 0x38, A: 0xFF}
	alarmCol = color.RGBA{R: 0xFF, G: 0xC0, B: 0x00, A: 0xFF}
)

// Dashboard is safe for concurrent use: tasks feed it samples, the logger
// service writes console lines and the host loop calls Render.
//
// Samples live under their own lock, which is only held to copy them, so a
// task never waits for a redraw.
type Dashboard struct {
	// mu guards the framebuffer and the console.
	mu sync.Mutex

	fb     hal.Framebuffer
	pio    hal.PIO
	screen *fbDisplay
	pane   *fbDisplay
	term   *tinyterm.Terminal
	font   tinyfont.Fonter
	title  string
	now    func() time.Time
	dirty  bool

	samplesMu sync.Mutex
	samples   samples
}

type samples struct {
	vehicle  proto.VehicleSample
	control  proto.ControlSample
	overload proto.OverloadSample
	misses   uint64
	lastMiss time.Time
}

// New returns a dashboard drawing into fb from the registers of pio. A nil
// or headless framebuffer makes every method a no-op apart from sampling.
func New(fb hal.Framebuffer, pio hal.PIO, title string) *Dashboard {
	d := &Dashboard{fb: fb, pio: pio, title: title, font: &proggy.TinySZ8pt7b, now: time.Now}
	if fb == nil {
		return d
	}
	d.screen = newFBDisplay(fb, 0, 0, fb.Width(), consoleTop)
	d.pane = newFBDisplay(fb, 0, consoleTop, fb.Width(), fb.Height()-consoleTop)
	fb.ClearRGB(bg.R, bg.G, bg.B)
	if w, _ := d.pane.Size(); w > 0 {
		d.term = tinyterm.NewTerminal(d.pane)
		d.term.Configure(&tinyterm.Config{
			Font:              d.font,
			FontHeight:        fontHeight,
			FontOffset:        fontOffset,
			UseSoftwareScroll: true,
		})
	}
	return d
}

func (d *Dashboard) ObserveVehicle(s proto.VehicleSample) {
	d.samplesMu.Lock()
	d.samples.vehicle = s
	d.samplesMu.Unlock()
}

func (d *Dashboard) ObserveControl(s proto.ControlSample) {
	d.samplesMu.Lock()
	d.samples.control = s
	d.samplesMu.Unlock()
}

func (d *Dashboard) ObserveOverload(s proto.OverloadSample) {
	d.samplesMu.Lock()
	d.samples.overload = s
	d.samplesMu.Unlock()
}

func (d *Dashboard) DeadlineMiss(uint64) {
	now := d.now()
	d.samplesMu.Lock()
	d.samples.misses++
	d.samples.lastMiss = now
	d.samplesMu.Unlock()
}

func (d *Dashboard) snapshot() samples {
	d.samplesMu.Lock()
	defer d.samplesMu.Unlock()
	return d.samples
}

// WriteLineString appends a line to the console pane.
func (d *Dashboard) WriteLineString(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.term == nil {
		return
	}
	_, _ = d.term.Write([]byte(s))
	_, _ = d.term.Write([]byte("\r\n"))
	d.dirty = true
}

func (d *Dashboard) WriteLineBytes(b []byte) { d.WriteLineString(string(b)) }

// Latest returns the most recent samples and the deadline miss count.
func (d *Dashboard) Latest() (proto.VehicleSample, proto.ControlSample, uint64) {
	s := d.snapshot()
	return s.vehicle, s.control, s.misses
}

// StatusLine formats the latest samples as one line of text.
func (d *Dashboard) StatusLine() string {
	return d.snapshot().status()
}

func (s samples) status() string {
	return fmt.Sprintf("pos %4dm vel %3dm/s acc %4d thr %2d load %3d%% miss %d",
		s.vehicle.Position, s.vehicle.Velocity, s.vehicle.Acceleration,
		s.vehicle.Throttle, s.overload.Percent, s.misses)
}

// Render redraws the panel from a snapshot of the samples and presents the
// framebuffer.
func (d *Dashboard) Render() error {
	snap := d.snapshot()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.screen == nil {
		return nil
	}
	if w, _ := d.screen.Size(); w == 0 {
		return nil
	}

	scr := d.screen
	_ = scr.FillRectangle(0, 0, int16(d.fb.Width()), consoleTop, bg)
	tinyfont.WriteLine(scr, d.font, 4, 10, d.title, fg)

	tinyfont.WriteLine(scr, d.font, 8, 24, "TARGET", fg)
	tinyfont.WriteLine(scr, d.font, 168, 24, "VELOCITY", fg)
	if d.pio != nil {
		d.drawWord(8, 30, d.pio.HexHigh().Read())
		d.drawWord(168, 30, d.pio.HexLow().Read())
		d.drawLEDs(8, 72, redLEDs, d.pio.RedLEDs().Read(), redOn)
		d.drawLEDs(8, 86, greenLEDs, d.pio.GreenLEDs().Read(), greenOn)
	}

	engaged := "off"
	if snap.control.Engaged.IsOn() {
		engaged = fmt.Sprintf("on @ %d m/s", snap.control.Target)
	}
	tinyfont.WriteLine(scr, d.font, 4, 110, snap.status(), fg)
	tinyfont.WriteLine(scr, d.font, 4, 122, "cruise "+engaged, fg)
	if !snap.lastMiss.IsZero() && d.now().Sub(snap.lastMiss) < overloadHold {
		tinyfont.WriteLine(scr, d.font, 200, 122, "OVERLOAD", alarmCol)
	}

	if d.term != nil && d.dirty {
		d.term.Display()
		d.dirty = false
	}
	return d.fb.Present()
}

// drawWord draws the four digits of a HEX register word, most significant
// first.
func (d *Dashboard) drawWord(x, y int16, word uint32) {
	for i, seg := range proto.Digits(word) {
		d.drawDigit(x+int16(i)*(digitW+digitGap), y, seg)
	}
}

// drawDigit draws one active-low seven-segment pattern.
//
// Segment bits: 0 top, 1 upper right, 2 lower right, 3 bottom, 4 lower left,
// 5 upper left, 6 middle.
func (d *Dashboard) drawDigit(x, y int16, seg uint8) {
	half := int16(digitH / 2)
	rects := [7][4]int16{
		{x, y, digitW, segThick},
		{x + digitW - segThick, y, segThick, half},
		{x + digitW - segThick, y + half, segThick, half},
		{x, y + digitH - segThick, digitW, segThick},
		{x, y + half, segThick, half},
		{x, y, segThick, half},
		{x, y + half - segThick/2, digitW, segThick},
	}
	for i, r := range rects {
		c := segOff
		if seg&(1<<uint(i)) == 0 {
			c = segOn
		}
		_ = d.screen.FillRectangle(r[0], r[1], r[2], r[3], c)
	}
}

// drawLEDs draws n LEDs, highest bit on the left as on the board.
func (d *Dashboard) drawLEDs(x, y int16, n int, bits uint32, on color.RGBA) {
	for i := 0; i < n; i++ {
		bit := n - 1 - i
		c := ledOff
		if bits&(1<<uint(bit)) != 0 {
			c = on
		}
		_ = d.screen.FillRectangle(x+int16(i)*(ledSize+ledGap), y, ledSize, ledSize, c)
	}
}
