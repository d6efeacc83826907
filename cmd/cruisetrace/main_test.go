package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cruise/cruiseos/proto"
	"cruise/cruiseos/telemetry"
)

func sampleTrace(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	rec, err := telemetry.NewRecorder(&buf, proto.TickPeriod, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	rec.ObserveVehicle(proto.VehicleSample{Tick: 3, Position: 6, Velocity: 20, Brake: proto.Off, Engine: proto.On})
	rec.ObserveControl(proto.ControlSample{Tick: 3, Velocity: 20, Target: 20, Engaged: proto.On})
	rec.DeadlineMiss(6)
	if err := rec.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return &buf
}

func TestDumpFiltersKinds(t *testing.T) {
	rd, err := telemetry.NewReader(sampleTrace(t))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	var out bytes.Buffer
	if err := dump(&out, rd, []string{"Deadline-Miss"}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "OVERLOAD") {
		t.Fatalf("miss record missing:\n%s", got)
	}
	if strings.Contains(got, "pos=") {
		t.Fatalf("vehicle record not filtered:\n%s", got)
	}
}

func TestFormatRecord(t *testing.T) {
	line := formatRecord(telemetry.Record{
		Kind:     telemetry.KindOverload,
		Tick:     9,
		Overload: &proto.OverloadSample{Percent: 40, BusyNanos: int64(120 * time.Millisecond)},
	})
	if !strings.Contains(line, "load=40%") || !strings.Contains(line, "busy=120ms") {
		t.Fatalf("line = %q", line)
	}
	if got := formatRecord(telemetry.Record{Kind: telemetry.KindVehicle}); !strings.HasSuffix(got, "(empty)") {
		t.Fatalf("empty vehicle record = %q", got)
	}
}

func TestPrintSummary(t *testing.T) {
	rd, err := telemetry.NewReader(sampleTrace(t))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	s, err := telemetry.Summarize(rd)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	var out bytes.Buffer
	if err := printSummary(&out, rd.Header(), s); err != nil {
		t.Fatalf("printSummary: %v", err)
	}
	for _, want := range []string{"records:", "3", "1 engaged", "deadline misses:"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("summary missing %q:\n%s", want, out.String())
		}
	}
}
