package control

import "cruise/cruiseos/proto"

const proportionalGain = 3

// Inputs are the values sampled by one control cycle.
type Inputs struct {
	Velocity int16
	Gas      proto.Active
	Brake    proto.Active
	TopGear  proto.Active
	Engine   proto.Active
	Cruise   proto.Active
}

// Output is the command produced by one control cycle.
type Output struct {
	// Throttle is not clamped; the vehicle limits it.
	Throttle int
	Engine   proto.Active
	Target   uint8
	// Holding reports that cruise control commanded the throttle.
	Holding bool
	// Override reports that the gas pedal replaced the throttle.
	Override bool
}

// Law is the cruise-control state machine. Engaged, Target and Integral are
// reset together whenever the hold condition fails.
type Law struct {
	Engaged  proto.Active
	Target   uint8
	Integral int16
}

// Step runs one control cycle.
func (l *Law) Step(in Inputs) Output {
	if !l.Engaged.Valid() {
		l.Engaged = proto.Off
	}
	throttle := 0

	if in.Cruise.IsOn() && !l.Engaged.IsOn() {
		l.Engaged = proto.On
		l.Target = uint8(in.Velocity)
	}

	engine := in.Engine
	if !engine.IsOn() && in.Velocity > 0 {
		engine = proto.On
	}
	if !engine.Valid() {
		engine = proto.Off
	}

	holding := in.TopGear.IsOn() &&
		in.Velocity >= proto.CruiseMinVelocity &&
		!in.Gas.IsOn() &&
		!in.Brake.IsOn() &&
		l.Engaged.IsOn()
	if holding {
		e := int16(l.Target) - in.Velocity
		l.Integral += e
		throttle = proportionalGain*int(e) + int(l.Integral)
	} else {
		l.Engaged = proto.Off
		l.Target = 0
		l.Integral = 0
	}

	override := in.Gas.IsOn() && engine.IsOn()
	if override {
		if in.TopGear.IsOn() {
			throttle = proto.ManualThrottleTop
		} else {
			throttle = proto.ManualThrottleLower
		}
	}

	return Output{
		Throttle: throttle,
		Engine:   engine,
		Target:   l.Target,
		Holding:  holding,
		Override: override,
	}
}
