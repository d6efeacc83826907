// Package control runs the cruise-control law once per release.
package control

import (
	"cruise/cruiseos/kernel"
	"cruise/cruiseos/proto"
	"cruise/hal"
)

// Observer receives one sample per control cycle.
type Observer interface {
	ObserveControl(proto.ControlSample)
}

// Config wires the task to its mailboxes and outputs.
type Config struct {
	Velocity *kernel.Mailbox[int16]
	Gas      *kernel.Mailbox[proto.Active]
	Brake    *kernel.Mailbox[proto.Active]
	TopGear  *kernel.Mailbox[proto.Active]
	Engine   *kernel.Mailbox[proto.Active]
	Cruise   *kernel.Mailbox[proto.Active]

	Throttle  *kernel.Mailbox[int]
	EngineOut *kernel.Mailbox[proto.Active]

	HexHigh    hal.Register
	Indicators *proto.Indicators
	Observer   Observer
}

// Task is the control task.
type Task struct {
	cfg Config
	law Law
}

func New(cfg Config) *Task {
	return &Task{cfg: cfg, law: Law{Engaged: proto.Off}}
}

// Law returns a copy of the controller state.
func (t *Task) Law() Law { return t.law }

// Step waits for the velocity and every input flag, runs the law, publishes
// throttle and engine state, then waits for the next release.
func (t *Task) Step(c *kernel.Context) {
	var in Inputs
	var err error
	if in.Velocity, err = t.cfg.Velocity.Recv(c, kernel.Forever); err != nil {
		return
	}
	flags := []struct {
		mb  *kernel.Mailbox[proto.Active]
		dst *proto.Active
	}{
		{t.cfg.Gas, &in.Gas},
		{t.cfg.Brake, &in.Brake},
		{t.cfg.TopGear, &in.TopGear},
		{t.cfg.Engine, &in.Engine},
		{t.cfg.Cruise, &in.Cruise},
	}
	for _, f := range flags {
		if *f.dst, err = f.mb.Recv(c, kernel.Forever); err != nil {
			return
		}
	}

	out := t.law.Step(in)

	if out.Holding {
		t.cfg.Indicators.Green(proto.GreenCruise)
	}
	if t.law.Engaged.IsOn() {
		t.cfg.Indicators.Green(proto.GreenCruiseActive)
	}
	if out.Engine.IsOn() {
		t.cfg.Indicators.Red(proto.RedEngine)
	}
	if out.Override {
		t.cfg.Indicators.Green(proto.GreenGas)
	}

	t.cfg.Throttle.Send(out.Throttle)
	t.cfg.EngineOut.Send(out.Engine)
	if t.cfg.HexHigh != nil {
		t.cfg.HexHigh.Write(proto.EncodeUnsigned(out.Target))
	}

	if out.Holding {
		c.Logf("control: holding %d m/s, throttle %d", out.Target, out.Throttle)
	}
	if t.cfg.Observer != nil {
		t.cfg.Observer.ObserveControl(proto.ControlSample{
			Tick:     c.NowTick(),
			Velocity: in.Velocity,
			Target:   out.Target,
			Integral: t.law.Integral,
			Throttle: out.Throttle,
			Engaged:  t.law.Engaged,
			Holding:  out.Holding,
			Engine:   out.Engine,
			Gas:      in.Gas,
			Brake:    in.Brake,
			TopGear:  in.TopGear,
		})
	}

	c.WaitRelease()
}
