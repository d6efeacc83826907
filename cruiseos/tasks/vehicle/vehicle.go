// Package vehicle integrates the vehicle model once per release and owns the
// indicator flush.
package vehicle

import (
	"cruise/cruiseos/kernel"
	"cruise/cruiseos/proto"
	"cruise/hal"
)

// Observer receives one sample per integration cycle.
type Observer interface {
	ObserveVehicle(proto.VehicleSample)
}

// Config wires the task to its mailboxes and outputs.
type Config struct {
	Velocity *kernel.Mailbox[int16]
	Throttle *kernel.Mailbox[int]
	Brake    *kernel.Mailbox[proto.Active]
	Engine   *kernel.Mailbox[proto.Active]

	HexLow     hal.Register
	RedLEDs    hal.Register
	GreenLEDs  hal.Register
	Indicators *proto.Indicators
	Observer   Observer
}

// Task is the vehicle dynamics task.
type Task struct {
	cfg Config
	dyn Dynamics

	throttle int
	brake    proto.Active
	engine   proto.Active
}

func New(cfg Config) *Task {
	return &Task{cfg: cfg, brake: proto.Off, engine: proto.Off}
}

// State returns the current integrator state.
func (t *Task) State() Dynamics { return t.dyn }

// Step publishes the current velocity, waits for the next release and
// integrates one period using the latest actuator values.
func (t *Task) Step(c *kernel.Context) {
	t.cfg.Velocity.Send(t.dyn.Velocity)

	if !c.WaitRelease() {
		return
	}

	if v, err := t.cfg.Throttle.Recv(c, kernel.NoWait); err == nil {
		t.throttle = v
	}
	if v, err := t.cfg.Brake.Recv(c, kernel.NoWait); err == nil {
		t.brake = v
	}
	if v, err := t.cfg.Engine.Recv(c, kernel.NoWait); err == nil {
		t.engine = v
	}

	pos, vel := t.dyn.Position, t.dyn.Velocity
	res := t.dyn.Step(Inputs{Throttle: t.throttle, Brake: t.brake, Engine: t.engine})

	c.Logf("vehicle: position %d m, velocity %d m/s, accel %d m/s2, throttle %d V", pos, vel, res.Acceleration, res.Throttle)

	if t.cfg.HexLow != nil {
		t.cfg.HexLow.Write(proto.EncodeSigned(int8(t.dyn.Velocity)))
	}
	t.cfg.Indicators.Red(proto.PositionLED(t.dyn.Position))
	red, green := t.cfg.Indicators.Flush()
	if t.cfg.RedLEDs != nil {
		t.cfg.RedLEDs.Write(red)
	}
	if t.cfg.GreenLEDs != nil {
		t.cfg.GreenLEDs.Write(uint32(green))
	}

	if t.cfg.Observer != nil {
		t.cfg.Observer.ObserveVehicle(proto.VehicleSample{
			Tick:         c.NowTick(),
			Position:     t.dyn.Position,
			Velocity:     t.dyn.Velocity,
			Acceleration: res.Acceleration,
			Throttle:     res.Throttle,
			Brake:        t.brake,
			Engine:       t.engine,
			Red:          red,
			Green:        green,
		})
	}
}
