package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cruise/cruiseos/kernel"
	"cruise/cruiseos/proto"
	"cruise/cruiseos/scenario"
	"cruise/cruiseos/services/dashboard"
	"cruise/cruiseos/services/logger"
	"cruise/cruiseos/tasks/buttons"
	"cruise/cruiseos/tasks/control"
	"cruise/cruiseos/tasks/overload"
	"cruise/cruiseos/tasks/switches"
	"cruise/cruiseos/tasks/vehicle"
	"cruise/cruiseos/telemetry"
	"cruise/hal"
	"cruise/internal/buildinfo"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	alarmFreqHz = 880
	alarmLength = 150 * time.Millisecond
)

// Config selects the optional parts of the unit.
type Config struct {
	Title string
	// Scenario drives the input registers when non-nil.
	Scenario *scenario.Scenario
	// Trace receives one msgpack record per cycle when non-nil.
	Trace io.Writer
	// Registry receives the unit's metrics when non-nil.
	Registry prom.Registerer
}

// System is a running cruise-control unit.
type System struct {
	h    hal.HAL
	k    *kernel.Kernel
	ind  proto.Indicators
	dash *dashboard.Dashboard
	op   *Operator

	mb      mailboxes
	player  *scenario.Player
	rec     *telemetry.Recorder
	metrics *telemetry.Metrics
	poller  *telemetry.KernelPoller

	svc    *errgroup.Group
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// mailboxes are the kernel objects the tasks talk through.
type mailboxes struct {
	velocity     *kernel.Mailbox[int16]
	gas          *kernel.Mailbox[proto.Active]
	brake        *kernel.Mailbox[proto.Active]
	brakeVehicle *kernel.Mailbox[proto.Active]
	cruise       *kernel.Mailbox[proto.Active]
	topGear      *kernel.Mailbox[proto.Active]
	engine       *kernel.Mailbox[proto.Active]
	throttle     *kernel.Mailbox[int]
	engineOut    *kernel.Mailbox[proto.Active]
	overload     *kernel.Mailbox[uint16]
	heartbeat    *kernel.Mailbox[overload.Token]
}

// stats lists the traffic of every mailbox by name.
func (mb mailboxes) stats() []telemetry.MailboxStats {
	named := []struct {
		name string
		box  interface{ Stats() (uint64, uint64) }
	}{
		{"velocity", mb.velocity},
		{"gas", mb.gas},
		{"brake", mb.brake},
		{"brake-vehicle", mb.brakeVehicle},
		{"cruise", mb.cruise},
		{"top-gear", mb.topGear},
		{"engine", mb.engine},
		{"throttle", mb.throttle},
		{"engine-out", mb.engineOut},
		{"overload", mb.overload},
		{"heartbeat", mb.heartbeat},
	}
	out := make([]telemetry.MailboxStats, 0, len(named))
	for _, n := range named {
		sent, over := n.box.Stats()
		out = append(out, telemetry.MailboxStats{Name: n.name, Sent: sent, Overwritten: over})
	}
	return out
}

func newMailboxes() mailboxes {
	return mailboxes{
		velocity:     kernel.NewMailbox[int16](),
		gas:          kernel.NewMailbox[proto.Active](),
		brake:        kernel.NewMailbox[proto.Active](),
		brakeVehicle: kernel.NewMailbox[proto.Active](),
		cruise:       kernel.NewMailbox[proto.Active](),
		topGear:      kernel.NewMailbox[proto.Active](),
		engine:       kernel.NewMailbox[proto.Active](),
		throttle:     kernel.NewMailbox[int](),
		engineOut:    kernel.NewMailbox[proto.Active](),
		overload:     kernel.NewMailbox[uint16](),
		heartbeat:    kernel.NewMailbox[overload.Token](),
	}
}

// New builds the task set on h and starts it. It fails with a wrapped
// kernel.ErrNoTickSource when h has no hardware tick; no task runs then.
func New(h hal.HAL, cfg Config) (*System, error) {
	if cfg.Title == "" {
		cfg.Title = "Cruise Control " + buildinfo.Short()
	}
	installPanicHandler(h)
	bootScreen(h, "creating kernel objects")

	s := &System{h: h}
	if l := h.Logger(); l != nil {
		l.WriteLineString("Lab: Cruise Control (" + buildinfo.Short() + ")")
	}

	var km kernel.Metrics
	if cfg.Registry != nil {
		m, err := telemetry.NewMetrics("cruise", cfg.Registry, telemetry.MetricsOptions{})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		s.metrics = m
		km = m
	}

	period := hal.DefaultTickPeriod
	var ticks <-chan uint64
	if t := h.Time(); t != nil {
		if p := t.Period(); p > 0 {
			period = p
		}
		ticks = t.Ticks()
	}

	if cfg.Trace != nil {
		rec, err := telemetry.NewRecorder(cfg.Trace, period, time.Now())
		if err != nil {
			return nil, err
		}
		s.rec = rec
	}

	var fb hal.Framebuffer
	if d := h.Display(); d != nil {
		fb = d.Framebuffer()
	}
	pio := h.PIO()
	s.dash = dashboard.New(fb, pio, cfg.Title)
	s.op = NewOperator(pio)
	if cfg.Scenario != nil {
		s.player = scenario.NewPlayer(cfg.Scenario, pio)
	}

	obs := telemetry.NewFanout(s.dash)
	if s.metrics != nil {
		obs = append(obs, s.metrics)
	}
	if s.rec != nil {
		obs = append(obs, s.rec)
	}

	s.k = kernel.New(kernel.Config{Metrics: km})
	if err := s.addTasks(pio, obs, period); err != nil {
		return nil, err
	}
	if cfg.Registry != nil {
		p, err := telemetry.NewKernelPoller("cruise", cfg.Registry, proto.PeriodTicks*period, s)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		s.poller = p
	}
	s.k.Logf("All tasks and kernel objects generated")
	if s.rec != nil {
		s.k.Logf("trace: run %s", s.rec.RunID())
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	svc, sctx := errgroup.WithContext(ctx)
	s.svc = svc
	logSvc := logger.New(s.k.LogQueue(), h.Logger(), s.dash)
	svc.Go(func() error { return logSvc.Run(sctx) })
	if s.rec != nil {
		svc.Go(func() error { return s.rec.Run(sctx) })
	}
	if s.poller != nil {
		svc.Go(func() error { return s.poller.Run(sctx) })
	}

	bootScreen(h, "starting tasks")
	if err := s.k.Start(ctx, ticks); err != nil {
		cancel()
		_ = svc.Wait()
		err = fmt.Errorf("kernel start: %w", err)
		if l := h.Logger(); l != nil {
			l.WriteLineString("fatal: " + err.Error())
		}
		return nil, err
	}
	return s, nil
}

func (s *System) addTasks(pio hal.PIO, obs telemetry.Observer, period time.Duration) error {
	s.mb = newMailboxes()
	mb := s.mb
	hyperperiod := proto.PeriodTicks * period

	alarm := func() {
		if a := s.h.Audio(); a != nil {
			a.Beep(alarmFreqHz, alarmLength)
		}
	}

	specs := []kernel.Spec{
		{Name: proto.TaskWatchdog, Priority: proto.PrioWatchdog, Task: &overload.Watchdog{
			In: mb.heartbeat, Period: proto.PeriodTicks, Observer: obs, Alarm: alarm,
		}},
		{Name: proto.TaskButtons, Priority: proto.PrioButtons, Period: proto.PeriodTicks, Task: buttons.New(buttons.Config{
			Keys: pio.Keys(), Gas: mb.gas, Brake: mb.brake, BrakeVehicle: mb.brakeVehicle, Cruise: mb.cruise,
			Indicators: &s.ind,
		})},
		{Name: proto.TaskSwitches, Priority: proto.PrioSwitches, Period: proto.PeriodTicks, Task: switches.New(switches.Config{
			Toggles: pio.Toggles(), Engine: mb.engine, TopGear: mb.topGear, Overload: mb.overload,
			Indicators: &s.ind,
		})},
		{Name: proto.TaskVehicle, Priority: proto.PrioVehicle, Period: proto.PeriodTicks, Task: vehicle.New(vehicle.Config{
			Velocity: mb.velocity, Throttle: mb.throttle, Brake: mb.brakeVehicle, Engine: mb.engineOut,
			HexLow: pio.HexLow(), RedLEDs: pio.RedLEDs(), GreenLEDs: pio.GreenLEDs(),
			Indicators: &s.ind, Observer: obs,
		})},
		{Name: proto.TaskControl, Priority: proto.PrioControl, Period: proto.PeriodTicks, Task: control.New(control.Config{
			Velocity: mb.velocity, Gas: mb.gas, Brake: mb.brake, TopGear: mb.topGear, Engine: mb.engine, Cruise: mb.cruise,
			Throttle: mb.throttle, EngineOut: mb.engineOut,
			HexHigh: pio.HexHigh(), Indicators: &s.ind, Observer: obs,
		})},
		{Name: proto.TaskOverloadInject, Priority: proto.PrioOverloadInject, Period: proto.PeriodTicks, Task: &overload.Injector{
			Field: mb.overload, Hyperperiod: hyperperiod, Observer: obs,
		}},
		{Name: proto.TaskOverloadSignal, Priority: proto.PrioOverloadSignal, Period: proto.PeriodTicks, Task: &overload.Heartbeat{
			Out: mb.heartbeat,
		}},
	}
	for _, spec := range specs {
		if _, err := s.k.AddTask(spec); err != nil {
			return fmt.Errorf("add task %s: %w", spec.Name, err)
		}
	}
	return nil
}

// Step runs the host side of one hardware tick. It applies operator input
// and the scenario, then redraws the dashboard. It returns hal.ErrStop when
// the run is over.
func (s *System) Step() error {
	var kbd hal.Keyboard
	if in := s.h.Input(); in != nil {
		kbd = in.Keyboard()
	}
	if s.op.Drain(kbd) {
		return hal.ErrStop
	}
	if s.player != nil {
		s.player.Advance(s.k.Timers().Now())
		if s.player.Finished() {
			return hal.ErrStop
		}
	}
	return s.dash.Render()
}

// Close stops the task set and the services, flushing logs and the trace.
// It returns the first task or service error.
func (s *System) Close() error {
	s.closeOnce.Do(func() {
		kerr := s.k.Stop()
		s.cancel()
		serr := s.svc.Wait()

		_, _, misses := s.dash.Latest()
		if l := s.h.Logger(); l != nil {
			l.WriteLineString(fmt.Sprintf("stopped after %d ticks, %d deadline misses", s.k.Timers().Now(), misses))
			if s.rec != nil {
				l.WriteLineString(fmt.Sprintf("trace: %d records, %d dropped", s.rec.Written(), s.rec.Dropped()))
			}
		}
		if kerr != nil {
			s.closeErr = kerr
		} else {
			s.closeErr = serr
		}
	})
	return s.closeErr
}

// KernelStats snapshots the timers, the release backlog, the mailboxes and
// the trace for the metrics poller.
func (s *System) KernelStats() telemetry.KernelStats {
	var st telemetry.KernelStats
	timers := s.k.Timers()
	for _, name := range timers.Timers() {
		st.Timers = append(st.Timers, telemetry.TimerStats{Name: name, Expiries: timers.Expiries(name)})
	}
	for _, r := range s.k.Releases() {
		st.Tasks = append(st.Tasks, telemetry.TaskStats{Name: r.Task, Pending: r.Pending})
	}
	st.Mailboxes = s.mb.stats()
	if s.rec != nil {
		st.TraceWritten = s.rec.Written()
		st.TraceDropped = s.rec.Dropped()
	}
	return st
}

// Kernel returns the kernel running the task set.
func (s *System) Kernel() *kernel.Kernel { return s.k }

// Dashboard returns the front panel.
func (s *System) Dashboard() *dashboard.Dashboard { return s.dash }

// Run builds the unit on h and steps it once per hardware tick until it stops.
// It never returns.
func Run(h hal.HAL) {
	s, err := New(h, Config{})
	if err != nil {
		select {}
	}
	period := hal.DefaultTickPeriod
	if t := h.Time(); t != nil && t.Period() > 0 {
		period = t.Period()
	}
	t := time.NewTicker(period)
	for range t.C {
		if err := s.Step(); errors.Is(err, hal.ErrStop) {
			break
		}
	}
	t.Stop()
	_ = s.Close()
	select {}
}
