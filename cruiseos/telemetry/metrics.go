// Package telemetry exports what the task set does: Prometheus metrics for
// the kernel and the vehicle, and a msgpack trace of every cycle.
package telemetry

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"cruise/cruiseos/kernel"
	"cruise/cruiseos/proto"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsOptions controls collector configuration.
type MetricsOptions struct {
	StepBuckets []float64
}

// Metrics adapts kernel and task observations to Prometheus collectors.
type Metrics struct {
	releases      *prom.CounterVec
	stepSeconds   *prom.HistogramVec
	deadlineMiss  prom.Counter
	position      prom.Gauge
	velocity      prom.Gauge
	acceleration  prom.Gauge
	throttle      prom.Gauge
	target        prom.Gauge
	engaged       prom.Gauge
	overloadShare prom.Gauge
}

var _ kernel.Metrics = (*Metrics)(nil)

// NewMetrics creates and registers the collectors under namespace.
func NewMetrics(namespace string, reg prom.Registerer, opts MetricsOptions) (*Metrics, error) {
	if namespace == "" {
		namespace = "cruise"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.StepBuckets
	if len(buckets) == 0 {
		// Steps range from microseconds to a full busy hyperperiod.
		buckets = prom.ExponentialBuckets(0.00001, 4, 10)
	}

	m := &Metrics{
		releases: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_releases_total",
			Help:      "Releases consumed per task.",
		}, []string{"task"}),
		stepSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_step_seconds",
			Help:      "Wall time of one task iteration, suspensions included.",
			Buckets:   buckets,
		}, []string{"task"}),
		deadlineMiss: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "deadline_misses_total",
			Help:      "Heartbeat periods the watchdog saw no token in.",
		}),
		position:      gauge(namespace, "vehicle_position_meters", "Position on the track."),
		velocity:      gauge(namespace, "vehicle_velocity_mps", "Vehicle velocity."),
		acceleration:  gauge(namespace, "vehicle_acceleration_mps2", "Last computed acceleration."),
		throttle:      gauge(namespace, "throttle_volts", "Throttle commanded by the control law."),
		target:        gauge(namespace, "cruise_target_mps", "Cruise target velocity, zero when disengaged."),
		engaged:       gauge(namespace, "cruise_engaged", "One while cruise control is engaged."),
		overloadShare: gauge(namespace, "overload_percent", "Share of the hyperperiod taken by the injector."),
	}

	var err error
	if m.releases, err = registerCollector(reg, m.releases); err != nil {
		return nil, err
	}
	if m.stepSeconds, err = registerCollector(reg, m.stepSeconds); err != nil {
		return nil, err
	}
	if m.deadlineMiss, err = registerCollector(reg, m.deadlineMiss); err != nil {
		return nil, err
	}
	for _, g := range []*prom.Gauge{&m.position, &m.velocity, &m.acceleration, &m.throttle, &m.target, &m.engaged, &m.overloadShare} {
		if *g, err = registerCollector(reg, *g); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func gauge(namespace, name, help string) prom.Gauge {
	return prom.NewGauge(prom.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

// Handler serves the metrics gathered by g.
func Handler(g prom.Gatherer) http.Handler {
	if g == nil {
		g = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) TaskReleased(task string) {
	if m == nil {
		return
	}
	m.releases.WithLabelValues(normalizeLabel(task)).Inc()
}

func (m *Metrics) TaskStep(task string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepSeconds.WithLabelValues(normalizeLabel(task)).Observe(d.Seconds())
}

func (m *Metrics) ObserveVehicle(s proto.VehicleSample) {
	if m == nil {
		return
	}
	m.position.Set(float64(s.Position))
	m.velocity.Set(float64(s.Velocity))
	m.acceleration.Set(float64(s.Acceleration))
}

func (m *Metrics) ObserveControl(s proto.ControlSample) {
	if m == nil {
		return
	}
	m.throttle.Set(float64(s.Throttle))
	m.target.Set(float64(s.Target))
	if s.Engaged.IsOn() {
		m.engaged.Set(1)
	} else {
		m.engaged.Set(0)
	}
}

func (m *Metrics) ObserveOverload(s proto.OverloadSample) {
	if m == nil {
		return
	}
	m.overloadShare.Set(float64(s.Percent))
}

func (m *Metrics) DeadlineMiss(uint64) {
	if m == nil {
		return
	}
	m.deadlineMiss.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prom.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}
	return collector, err
}
