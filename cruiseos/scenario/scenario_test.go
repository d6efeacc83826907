package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cruise/cruiseos/proto"
	"cruise/hal"
)

const engage = `
name: engage
stop_after: 4
steps:
  - at: 0
    switches: [engine]
    press: [gas]
  - at: 2
    switches: [engine, TopGear]
    press: [cruise]
    overload: 5
`

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(engage))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.Name != "engage" || sc.StopAfter != 4 || len(sc.Steps) != 2 {
		t.Fatalf("scenario = %+v", sc)
	}

	first := sc.Steps[0]
	if b := proto.DecodeButtons(first.Keys()); !b.Gas.IsOn() || b.Brake.IsOn() || b.Cruise.IsOn() {
		t.Fatalf("step 0 buttons = %+v", b)
	}
	second := sc.Steps[1]
	s := proto.DecodeSwitches(second.Toggles())
	if !s.Engine.IsOn() || !s.TopGear.IsOn() || s.Overload != 5 {
		t.Fatalf("step 1 switches = %+v", s)
	}
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"button", "steps:\n  - at: 0\n    press: [horn]\n", ErrUnknownButton},
		{"switch", "steps:\n  - at: 0\n    switches: [wipers]\n", ErrUnknownSwitch},
		{"overload", "steps:\n  - at: 0\n    overload: 64\n", ErrOverloadRange},
		{"order", "steps:\n  - at: 3\n  - at: 3\n", ErrStepOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.src)); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := Parse([]byte("steps: {")); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engage.yaml")
	if err := os.WriteFile(path, []byte(engage), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sc.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(sc.Steps))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v, want os.ErrNotExist", err)
	}
}

func TestPlayerAdvance(t *testing.T) {
	sc, err := Parse([]byte(engage))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v := hal.NewVirtual(proto.TickPeriod)
	pio := v.PIO()
	p := NewPlayer(sc, pio)

	p.Advance(0)
	if p.Applied() != 1 {
		t.Fatalf("applied at tick 0 = %d, want 1", p.Applied())
	}
	if b := proto.DecodeButtons(pio.Keys().Read()); !b.Gas.IsOn() {
		t.Fatalf("gas not held after step 0")
	}

	p.Advance(5)
	if p.Applied() != 1 {
		t.Fatalf("step 1 applied early at tick 5")
	}
	p.Advance(6)
	if p.Applied() != 2 {
		t.Fatalf("applied at tick 6 = %d, want 2", p.Applied())
	}
	b := proto.DecodeButtons(pio.Keys().Read())
	if b.Gas.IsOn() || !b.Cruise.IsOn() {
		t.Fatalf("buttons after step 1 = %+v", b)
	}
	if s := proto.DecodeSwitches(pio.Toggles().Read()); s.Overload != 5 || !s.TopGear.IsOn() {
		t.Fatalf("switches after step 1 = %+v", s)
	}

	if p.Finished() {
		t.Fatalf("finished before stop_after")
	}
	p.Advance(12)
	if !p.Finished() {
		t.Fatalf("not finished at tick 12")
	}
}

func TestPlayerWithoutStop(t *testing.T) {
	p := NewPlayer(&Scenario{}, hal.NewVirtual(0).PIO())
	p.Advance(1 << 20)
	if p.Finished() {
		t.Fatalf("scenario without stop_after finished")
	}
}
