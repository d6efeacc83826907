// Package switches samples the toggle switches once per release.
package switches

import (
	"cruise/cruiseos/kernel"
	"cruise/cruiseos/proto"
	"cruise/hal"
)

type Config struct {
	Toggles hal.Register

	Engine   *kernel.Mailbox[proto.Active]
	TopGear  *kernel.Mailbox[proto.Active]
	Overload *kernel.Mailbox[uint16]

	Indicators *proto.Indicators
}

type Task struct {
	cfg  Config
	last proto.Switches
}

func New(cfg Config) *Task {
	return &Task{cfg: cfg}
}

func (t *Task) Step(c *kernel.Context) {
	if !c.WaitRelease() {
		return
	}

	raw := t.cfg.Toggles.Read()
	s := proto.DecodeSwitches(raw)
	if s.TopGear.IsOn() {
		t.cfg.Indicators.Red(proto.RedTopGear)
	}
	// The overload selector is mirrored on the red LEDs above it.
	t.cfg.Indicators.Red(raw & proto.SwitchOverload)

	if s != t.last {
		c.Logf("switches: engine %v, top gear %v, overload %d", s.Engine, s.TopGear, s.Overload)
		t.last = s
	}

	t.cfg.Overload.Send(s.Overload)
	t.cfg.Engine.Send(s.Engine)
	t.cfg.TopGear.Send(s.TopGear)
}
