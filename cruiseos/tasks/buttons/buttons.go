// Package buttons samples the push buttons once per release.
package buttons

import (
	"cruise/cruiseos/kernel"
	"cruise/cruiseos/proto"
	"cruise/hal"
)

// Config wires the task to its input register and mailboxes. The brake is
// published twice: once for the control law, once for the vehicle.
type Config struct {
	Keys hal.Register

	Gas          *kernel.Mailbox[proto.Active]
	Brake        *kernel.Mailbox[proto.Active]
	BrakeVehicle *kernel.Mailbox[proto.Active]
	Cruise       *kernel.Mailbox[proto.Active]

	Indicators *proto.Indicators
}

type Task struct {
	cfg  Config
	last proto.Buttons
}

func New(cfg Config) *Task {
	return &Task{cfg: cfg}
}

func (t *Task) Step(c *kernel.Context) {
	if !c.WaitRelease() {
		return
	}

	b := proto.DecodeButtons(t.cfg.Keys.Read())
	if b.Brake.IsOn() {
		t.cfg.Indicators.Green(proto.GreenBrake)
	}
	if b != t.last {
		c.Logf("buttons: gas %v, brake %v, cruise %v", b.Gas, b.Brake, b.Cruise)
		t.last = b
	}

	t.cfg.Gas.Send(b.Gas)
	t.cfg.Brake.Send(b.Brake)
	if t.cfg.BrakeVehicle != nil {
		t.cfg.BrakeVehicle.Send(b.Brake)
	}
	t.cfg.Cruise.Send(b.Cruise)
}
