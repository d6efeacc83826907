// Package scenario scripts operator input for headless runs. A scenario is a
// YAML list of steps; each step sets the button and switch registers from a
// given hyperperiod on.
//
//	name: engage
//	stop_after: 40
//	steps:
//	  - at: 0
//	    switches: [engine]
//	    press: [gas]
//	  - at: 8
//	    switches: [engine, topgear]
//	    press: [cruise]
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"cruise/cruiseos/proto"
	"cruise/hal"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownButton = errors.New("unknown button")
	ErrUnknownSwitch = errors.New("unknown switch")
	ErrOverloadRange = errors.New("overload field out of range")
	ErrStepOrder     = errors.New("steps must be in increasing order")
)

// Scenario is a parsed script.
type Scenario struct {
	Name string `yaml:"name"`
	// StopAfter ends the run after this many hyperperiods; zero runs forever.
	StopAfter uint64 `yaml:"stop_after"`
	Steps     []Step `yaml:"steps"`
}

// Step is the full operator state from hyperperiod At on.
type Step struct {
	At       uint64   `yaml:"at"`
	Press    []string `yaml:"press"`
	Switches []string `yaml:"switches"`
	// Overload is the 6-bit load selector field.
	Overload uint16 `yaml:"overload"`
}

var buttonBits = map[string]uint32{
	"cruise": proto.ButtonCruise,
	"brake":  proto.ButtonBrake,
	"gas":    proto.ButtonGas,
}

var switchBits = map[string]uint32{
	"engine":  proto.SwitchEngine,
	"topgear": proto.SwitchTopGear,
}

// Keys returns the raw active-low key register for the step.
func (s Step) Keys() uint32 {
	var pressed uint32
	for _, b := range s.Press {
		pressed |= buttonBits[strings.ToLower(b)]
	}
	return proto.RawKeys(pressed)
}

// Toggles returns the switch register for the step.
func (s Step) Toggles() uint32 {
	var v uint32
	for _, sw := range s.Switches {
		v |= switchBits[strings.ToLower(sw)]
	}
	return v | proto.OverloadSwitches(s.Overload)
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := Validate(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

func Validate(sc *Scenario) error {
	maxField := uint16(proto.SwitchOverload >> 4)
	for i, st := range sc.Steps {
		if i > 0 && st.At <= sc.Steps[i-1].At {
			return fmt.Errorf("step %d at %d: %w", i, st.At, ErrStepOrder)
		}
		for _, b := range st.Press {
			if _, ok := buttonBits[strings.ToLower(b)]; !ok {
				return fmt.Errorf("step %d: %w %q", i, ErrUnknownButton, b)
			}
		}
		for _, sw := range st.Switches {
			if _, ok := switchBits[strings.ToLower(sw)]; !ok {
				return fmt.Errorf("step %d: %w %q", i, ErrUnknownSwitch, sw)
			}
		}
		if st.Overload > maxField {
			return fmt.Errorf("step %d: %w: %d > %d", i, ErrOverloadRange, st.Overload, maxField)
		}
	}
	return nil
}

// Player applies a scenario to the input registers as hardware ticks pass.
type Player struct {
	mu    sync.Mutex
	sc    *Scenario
	pio   hal.PIO
	next  int
	ticks uint64
}

func NewPlayer(sc *Scenario, pio hal.PIO) *Player {
	steps := append([]Step(nil), sc.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].At < steps[j].At })
	cp := *sc
	cp.Steps = steps
	return &Player{sc: &cp, pio: pio}
}

// Advance applies every step due at tick. Steps land on hyperperiod
// boundaries; when several are due only the register writes of the last
// survive, as on the board.
func (p *Player) Advance(tick uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks = tick
	hp := tick / proto.PeriodTicks
	for p.next < len(p.sc.Steps) && p.sc.Steps[p.next].At <= hp {
		st := p.sc.Steps[p.next]
		p.pio.Keys().Write(st.Keys())
		p.pio.Toggles().Write(st.Toggles())
		p.next++
	}
}

// Applied returns how many steps have been written.
func (p *Player) Applied() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}

// Finished reports whether the scenario's stop point has been reached. A
// scenario without stop_after never finishes.
func (p *Player) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sc.StopAfter > 0 && p.ticks >= p.sc.StopAfter*proto.PeriodTicks
}
