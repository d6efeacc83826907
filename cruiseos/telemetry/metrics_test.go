package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cruise/cruiseos/proto"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordKernel(t *testing.T) {
	reg := prom.NewRegistry()
	m, err := NewMetrics("cruise", reg, MetricsOptions{})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.TaskReleased(proto.TaskVehicle)
	m.TaskReleased(proto.TaskVehicle)
	m.TaskReleased("")
	m.TaskStep(proto.TaskControl, 2*time.Millisecond)

	if got := testutil.ToFloat64(m.releases.WithLabelValues(proto.TaskVehicle)); got != 2 {
		t.Fatalf("vehicle releases = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.releases.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("unlabelled releases = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.stepSeconds); got != 1 {
		t.Fatalf("step series = %d, want 1", got)
	}
}

func TestMetricsObserveSamples(t *testing.T) {
	reg := prom.NewRegistry()
	m, err := NewMetrics("", reg, MetricsOptions{})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.ObserveVehicle(proto.VehicleSample{Position: 1200, Velocity: 21, Acceleration: -3})
	m.ObserveControl(proto.ControlSample{Throttle: 12, Target: 20, Engaged: proto.On})
	m.ObserveOverload(proto.OverloadSample{Percent: 40})
	m.DeadlineMiss(9)
	m.DeadlineMiss(12)

	cases := []struct {
		name string
		c    prom.Collector
		want float64
	}{
		{"position", m.position, 1200},
		{"velocity", m.velocity, 21},
		{"acceleration", m.acceleration, -3},
		{"throttle", m.throttle, 12},
		{"target", m.target, 20},
		{"engaged", m.engaged, 1},
		{"overload", m.overloadShare, 40},
		{"misses", m.deadlineMiss, 2},
	}
	for _, tc := range cases {
		if got := testutil.ToFloat64(tc.c); got != tc.want {
			t.Fatalf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}

	m.ObserveControl(proto.ControlSample{Engaged: proto.Off})
	if got := testutil.ToFloat64(m.engaged); got != 0 {
		t.Fatalf("engaged after disengage = %v, want 0", got)
	}
}

func TestMetricsAlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetrics("cruise", reg, MetricsOptions{})
	if err != nil {
		t.Fatalf("first NewMetrics: %v", err)
	}
	second, err := NewMetrics("cruise", reg, MetricsOptions{})
	if err != nil {
		t.Fatalf("second NewMetrics: %v", err)
	}

	first.DeadlineMiss(3)
	second.DeadlineMiss(6)
	if got := testutil.ToFloat64(first.deadlineMiss); got != 2 {
		t.Fatalf("shared miss counter = %v, want 2", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.TaskReleased("x")
	m.TaskStep("x", time.Second)
	m.ObserveVehicle(proto.VehicleSample{})
	m.ObserveControl(proto.ControlSample{})
	m.ObserveOverload(proto.OverloadSample{})
	m.DeadlineMiss(1)
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	m, err := NewMetrics("cruise", reg, MetricsOptions{})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.ObserveVehicle(proto.VehicleSample{Velocity: 17})

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "cruise_vehicle_velocity_mps 17") {
		t.Fatalf("velocity gauge missing from:\n%s", body)
	}
}
