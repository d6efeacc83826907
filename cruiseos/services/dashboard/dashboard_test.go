package dashboard

import (
	"strings"
	"testing"
	"time"

	"cruise/cruiseos/proto"
	"cruise/hal"
)

func pixelAt(fb hal.Framebuffer, x, y int) uint16 {
	buf := fb.Buffer()
	off := y*fb.StrideBytes() + x*2
	return uint16(buf[off]) | uint16(buf[off+1])<<8
}

func TestRenderDrawsSegmentsAndLEDs(t *testing.T) {
	v := hal.NewVirtual(0)
	fb := v.Display().Framebuffer()
	pio := v.PIO()
	d := New(fb, pio, "cruise test")

	pio.HexLow().Write(proto.EncodeSigned(88))
	pio.RedLEDs().Write(1 << 17)
	if err := d.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Top segment of the ones digit of the velocity bank.
	x := 168 + 3*(digitW+digitGap) + digitW/2
	if got, want := pixelAt(fb, x, 31), rgb565From888(segOn.R, segOn.G, segOn.B); got != want {
		t.Fatalf("segment pixel = %#x, want %#x", got, want)
	}
	// Leftmost red LED is bit 17.
	if got, want := pixelAt(fb, 10, 74), rgb565From888(redOn.R, redOn.G, redOn.B); got != want {
		t.Fatalf("LED pixel = %#x, want %#x", got, want)
	}
	if got, want := pixelAt(fb, 10+ledSize+ledGap, 74), rgb565From888(ledOff.R, ledOff.G, ledOff.B); got != want {
		t.Fatalf("unlit LED pixel = %#x, want %#x", got, want)
	}
}

func TestStatusLine(t *testing.T) {
	d := New(nil, nil, "")
	d.ObserveVehicle(proto.VehicleSample{Position: 1234, Velocity: 20, Acceleration: -3, Throttle: 12})
	d.ObserveOverload(proto.OverloadSample{Percent: 50})
	d.DeadlineMiss(9)

	line := d.StatusLine()
	for _, want := range []string{"pos 1234m", "vel  20m/s", "thr 12", "load  50%", "miss 1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("StatusLine() = %q, missing %q", line, want)
		}
	}
	if err := d.Render(); err != nil {
		t.Fatalf("Render without framebuffer: %v", err)
	}
	d.WriteLineString("dropped without a console")
}

func TestConsoleMarksDirty(t *testing.T) {
	v := hal.NewVirtual(0)
	d := New(v.Display().Framebuffer(), v.PIO(), "")
	d.now = func() time.Time { return time.Unix(100, 0) }

	d.WriteLineString("vehicle: position 0 m")
	if !d.dirty {
		t.Fatalf("console write did not mark the pane dirty")
	}
	if err := d.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if d.dirty {
		t.Fatalf("Render did not flush the console pane")
	}
}

// slowFB holds Present until release is closed.
type slowFB struct {
	hal.Framebuffer
	presenting chan struct{}
	release    chan struct{}
}

func (f *slowFB) Present() error {
	close(f.presenting)
	<-f.release
	return f.Framebuffer.Present()
}

func TestObserveDuringRender(t *testing.T) {
	v := hal.NewVirtual(0)
	fb := &slowFB{Framebuffer: v.Display().Framebuffer(), presenting: make(chan struct{}), release: make(chan struct{})}
	d := New(fb, v.PIO(), "")

	rendered := make(chan error, 1)
	go func() { rendered <- d.Render() }()
	<-fb.presenting

	observed := make(chan struct{})
	go func() {
		d.ObserveVehicle(proto.VehicleSample{Velocity: 21})
		d.ObserveControl(proto.ControlSample{Engaged: proto.On, Target: 20})
		d.ObserveOverload(proto.OverloadSample{Percent: 10})
		d.DeadlineMiss(3)
		close(observed)
	}()
	select {
	case <-observed:
	case <-time.After(time.Second):
		t.Fatalf("observers blocked behind Render")
	}
	if veh, ctl, misses := d.Latest(); veh.Velocity != 21 || !ctl.Engaged.IsOn() || misses != 1 {
		t.Fatalf("Latest() = %+v, %+v, %d", veh, ctl, misses)
	}

	close(fb.release)
	if err := <-rendered; err != nil {
		t.Fatalf("Render: %v", err)
	}
}
