package control

import (
	"testing"

	"cruise/cruiseos/kernel"
	"cruise/cruiseos/proto"
)

type reg struct{ v uint32 }

func (r *reg) Read() uint32   { return r.v }
func (r *reg) Write(v uint32) { r.v = v }

func newTestConfig() Config {
	return Config{
		Velocity:   kernel.NewMailbox[int16](),
		Gas:        kernel.NewMailbox[proto.Active](),
		Brake:      kernel.NewMailbox[proto.Active](),
		TopGear:    kernel.NewMailbox[proto.Active](),
		Engine:     kernel.NewMailbox[proto.Active](),
		Cruise:     kernel.NewMailbox[proto.Active](),
		Throttle:   kernel.NewMailbox[int](),
		EngineOut:  kernel.NewMailbox[proto.Active](),
		HexHigh:    &reg{},
		Indicators: &proto.Indicators{},
	}
}

func feed(cfg Config, v int16, gas, brake, gear, engine, cruise proto.Active) {
	cfg.Velocity.Send(v)
	cfg.Gas.Send(gas)
	cfg.Brake.Send(brake)
	cfg.TopGear.Send(gear)
	cfg.Engine.Send(engine)
	cfg.Cruise.Send(cruise)
}

func TestTaskEngagesFromCruiseButton(t *testing.T) {
	cfg := newTestConfig()
	task := New(cfg)

	raw := proto.RawKeys(proto.ButtonCruise)
	b := proto.DecodeButtons(raw)
	feed(cfg, 20, b.Gas, b.Brake, proto.On, proto.On, b.Cruise)
	task.Step(nil)

	law := task.Law()
	if law.Engaged != proto.On || law.Target != 20 {
		t.Fatalf("law = %+v, want engaged at 20", law)
	}
	thr, err := cfg.Throttle.Recv(nil, kernel.NoWait)
	if err != nil || thr != 0 {
		t.Fatalf("throttle = %d, %v; want 0", thr, err)
	}
	if got, ok := proto.DecodeWord(cfg.HexHigh.Read()); !ok || got != 20 {
		t.Fatalf("target display = %d, %v; want 20", got, ok)
	}
	red, green := cfg.Indicators.Flush()
	if red&proto.RedEngine == 0 || green&proto.GreenCruise == 0 {
		t.Fatalf("indicators = %#x %#x", red, green)
	}
}

func TestTaskOverridePublishes80(t *testing.T) {
	cfg := newTestConfig()
	task := New(cfg)

	feed(cfg, 30, proto.Off, proto.Off, proto.On, proto.On, proto.On)
	task.Step(nil)
	feed(cfg, 25, proto.On, proto.Off, proto.On, proto.On, proto.On)
	task.Step(nil)

	thr, err := cfg.Throttle.Recv(nil, kernel.NoWait)
	if err != nil || thr != 80 {
		t.Fatalf("throttle = %d, %v; want 80", thr, err)
	}
	eng, err := cfg.EngineOut.Recv(nil, kernel.NoWait)
	if err != nil || eng != proto.On {
		t.Fatalf("engine = %v, %v; want on", eng, err)
	}
	if _, green := cfg.Indicators.Flush(); green&proto.GreenGas == 0 {
		t.Fatalf("gas LED not lit: %#x", green)
	}
}
