package vehicle

import "cruise/cruiseos/proto"

const (
	windFactor  = 1
	brakeFactor = 4

	// dtMillis is the integration step, one release period.
	dtMillis = 300
)

// Dynamics is the integrator state of the vehicle.
type Dynamics struct {
	Position uint16
	Velocity int16
}

// Inputs are the actuator values applied during one cycle.
type Inputs struct {
	// Throttle is the raw command; it is clamped before use.
	Throttle int
	Brake    proto.Active
	Engine   proto.Active
}

// Result reports one integration step.
type Result struct {
	Throttle     uint8
	Acceleration int16
}

// ClampThrottle limits a throttle command to [0, MaxThrottle].
func ClampThrottle(t int) uint8 {
	switch {
	case t < 0:
		return 0
	case t > proto.MaxThrottle:
		return proto.MaxThrottle
	default:
		return uint8(t)
	}
}

// Acceleration applies the wind, throttle and terrain rule. Braking ignores
// throttle and terrain.
func Acceleration(position uint16, velocity int16, throttle uint8, brake, engine proto.Active) int16 {
	v := int(velocity)
	if brake.IsOn() {
		return int16(-brakeFactor * v)
	}

	a := -windFactor * v
	if engine.IsOn() {
		a += int(throttle)
	}
	switch {
	case position >= 400 && position < 800:
		a -= 2
	case position >= 800 && position < 1200:
		a -= 4
	case position >= 1600 && position < 2000:
		a += 4
	case position >= 2000:
		a += 2
	}
	return int16(a)
}

// Step advances the vehicle by one period. Velocity is updated first and the
// new velocity moves the vehicle. Position resets to 0 when it leaves
// [0, TrackLength).
func (d *Dynamics) Step(in Inputs) Result {
	thr := ClampThrottle(in.Throttle)
	acc := Acceleration(d.Position, d.Velocity, thr, in.Brake, in.Engine)

	// v + a*dt, truncated toward zero as a whole.
	v := (int(d.Velocity)*1000 + int(acc)*dtMillis) / 1000
	d.Velocity = int16(v)

	p := int(d.Position) + int(d.Velocity)*dtMillis/1000
	if p < 0 || p >= proto.TrackLength {
		p = 0
	}
	d.Position = uint16(p)

	return Result{Throttle: thr, Acceleration: acc}
}
