package buttons

import (
	"testing"

	"cruise/cruiseos/kernel"
	"cruise/cruiseos/proto"
)

type reg struct{ v uint32 }

func (r *reg) Read() uint32   { return r.v }
func (r *reg) Write(v uint32) { r.v = v }

func TestButtonsDecodeAndPublish(t *testing.T) {
	keys := &reg{v: proto.RawKeys(proto.ButtonBrake | proto.ButtonCruise)}
	cfg := Config{
		Keys:         keys,
		Gas:          kernel.NewMailbox[proto.Active](),
		Brake:        kernel.NewMailbox[proto.Active](),
		BrakeVehicle: kernel.NewMailbox[proto.Active](),
		Cruise:       kernel.NewMailbox[proto.Active](),
		Indicators:   &proto.Indicators{},
	}
	New(cfg).Step(nil)

	want := map[string]struct {
		mb   *kernel.Mailbox[proto.Active]
		want proto.Active
	}{
		"gas":           {cfg.Gas, proto.Off},
		"brake":         {cfg.Brake, proto.On},
		"brake vehicle": {cfg.BrakeVehicle, proto.On},
		"cruise":        {cfg.Cruise, proto.On},
	}
	for name, w := range want {
		got, err := w.mb.Recv(nil, kernel.NoWait)
		if err != nil || got != w.want {
			t.Fatalf("%s = %v, %v; want %v", name, got, err, w.want)
		}
	}
	if _, green := cfg.Indicators.Flush(); green != proto.GreenBrake {
		t.Fatalf("green = %#x, want brake LED", green)
	}
}
