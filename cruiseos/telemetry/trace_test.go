package telemetry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"cruise/cruiseos/proto"

	"github.com/google/uuid"
)

func writeTrace(t *testing.T, fill func(r *Recorder)) (*bytes.Buffer, *Recorder) {
	t.Helper()
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, proto.TickPeriod, time.Unix(100, 0))
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	fill(rec)
	if err := rec.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return &buf, rec
}

func TestTraceRoundTrip(t *testing.T) {
	buf, rec := writeTrace(t, func(r *Recorder) {
		r.ObserveVehicle(proto.VehicleSample{Tick: 3, Position: 6, Velocity: 20})
		r.ObserveControl(proto.ControlSample{Tick: 3, Throttle: 4, Engaged: proto.On})
		r.ObserveOverload(proto.OverloadSample{Tick: 3, Percent: 28})
		r.DeadlineMiss(6)
	})
	if rec.Written() != 4 {
		t.Fatalf("written = %d, want 4", rec.Written())
	}

	rd, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	h := rd.Header()
	if h.TickNanos != int64(proto.TickPeriod) || h.Started != time.Unix(100, 0).UnixNano() {
		t.Fatalf("header = %+v", h)
	}
	if id, err := uuid.Parse(h.RunID); err != nil || id != rec.RunID() {
		t.Fatalf("run id = %q, want %s", h.RunID, rec.RunID())
	}

	wantKinds := []Kind{KindVehicle, KindControl, KindOverload, KindDeadlineMiss}
	for i, want := range wantKinds {
		got, err := rd.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if got.Kind != want {
			t.Fatalf("record %d kind = %s, want %s", i, got.Kind, want)
		}
		switch got.Kind {
		case KindVehicle:
			if got.Vehicle == nil || got.Vehicle.Velocity != 20 || got.Vehicle.Position != 6 {
				t.Fatalf("vehicle payload = %+v", got.Vehicle)
			}
		case KindControl:
			if got.Control == nil || got.Control.Throttle != 4 || !got.Control.Engaged.IsOn() {
				t.Fatalf("control payload = %+v", got.Control)
			}
		case KindOverload:
			if got.Overload == nil || got.Overload.Percent != 28 {
				t.Fatalf("overload payload = %+v", got.Overload)
			}
		case KindDeadlineMiss:
			if got.Tick != 6 {
				t.Fatalf("miss tick = %d, want 6", got.Tick)
			}
		}
	}
	if _, err := rd.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("end of stream err = %v, want io.EOF", err)
	}
}

func TestTraceRejectsForeignStream(t *testing.T) {
	if _, err := NewReader(bytes.NewReader(nil)); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("empty stream err = %v, want ErrBadMagic", err)
	}

	var buf bytes.Buffer
	if err := writeFrame(&buf, Header{Magic: "XXXX", Version: traceVersion}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	if _, err := NewReader(&buf); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("foreign magic err = %v, want ErrBadMagic", err)
	}

	buf.Reset()
	if err := writeFrame(&buf, Header{Magic: traceMagic, Version: 9}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	if _, err := NewReader(&buf); !errors.Is(err, ErrBadVersion) {
		t.Fatalf("version err = %v, want ErrBadVersion", err)
	}
}

func TestTraceTruncatedFrame(t *testing.T) {
	buf, _ := writeTrace(t, func(r *Recorder) {
		r.ObserveVehicle(proto.VehicleSample{Tick: 3})
	})
	cut := buf.Bytes()[:buf.Len()-2]

	rd, err := NewReader(bytes.NewReader(cut))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := rd.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("truncated err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestTraceOversizedFrame(t *testing.T) {
	buf, _ := writeTrace(t, func(*Recorder) {})
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})

	rd, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := rd.Next(); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("oversized err = %v, want ErrFrameTooLarge", err)
	}
}

func TestRecorderRunDrainsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, proto.TickPeriod, time.Now())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()

	for i := 0; i < 10; i++ {
		rec.ObserveVehicle(proto.VehicleSample{Tick: uint64(i)})
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if rec.Written() != 10 {
		t.Fatalf("written = %d, want 10", rec.Written())
	}
}

func TestSummarize(t *testing.T) {
	buf, _ := writeTrace(t, func(r *Recorder) {
		r.ObserveVehicle(proto.VehicleSample{Tick: 3, Position: 2390, Velocity: 18})
		r.ObserveControl(proto.ControlSample{Tick: 3, Throttle: 40})
		r.ObserveVehicle(proto.VehicleSample{Tick: 6, Position: 5, Velocity: 22})
		r.ObserveControl(proto.ControlSample{Tick: 6, Throttle: 9, Engaged: proto.On})
		r.ObserveOverload(proto.OverloadSample{Tick: 6, Percent: 100})
		r.DeadlineMiss(9)
	})
	rd, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	s, err := Summarize(rd)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	want := Summary{
		Records: 6, FirstTick: 3, LastTick: 9,
		VehicleCycles: 2, MinVelocity: 18, MaxVelocity: 22, Laps: 1,
		ControlCycles: 2, EngagedCycles: 1, MaxThrottle: 40,
		Injections: 1, MaxOverload: 100, DeadlineMisses: 1,
	}
	if s != want {
		t.Fatalf("summary = %+v, want %+v", s, want)
	}
}

func TestFanoutSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, proto.TickPeriod, time.Now())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	f := NewFanout(nil, rec, nil)
	if len(f) != 1 {
		t.Fatalf("fanout len = %d, want 1", len(f))
	}
	f.ObserveVehicle(proto.VehicleSample{})
	f.ObserveControl(proto.ControlSample{})
	f.ObserveOverload(proto.OverloadSample{})
	f.DeadlineMiss(1)
	if err := rec.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if rec.Written() != 4 {
		t.Fatalf("written = %d, want 4", rec.Written())
	}
}
