package telemetry

import (
	"errors"
	"io"
	"math"
)

// Summary aggregates a trace.
type Summary struct {
	Records   uint64
	FirstTick uint64
	LastTick  uint64

	VehicleCycles uint64
	MinVelocity   int16
	MaxVelocity   int16
	Laps          uint64

	ControlCycles uint64
	EngagedCycles uint64
	MaxThrottle   int

	Injections     uint64
	MaxOverload    uint8
	DeadlineMisses uint64
}

// Summarize reads r to the end of the stream.
func Summarize(r *Reader) (Summary, error) {
	s := Summary{MinVelocity: math.MaxInt16, MaxVelocity: math.MinInt16}
	var lastPos uint16
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s, err
		}
		s.add(rec, &lastPos)
	}
	if s.VehicleCycles == 0 {
		s.MinVelocity, s.MaxVelocity = 0, 0
	}
	return s, nil
}

func (s *Summary) add(rec Record, lastPos *uint16) {
	if s.Records == 0 {
		s.FirstTick = rec.Tick
	}
	s.Records++
	if rec.Tick > s.LastTick {
		s.LastTick = rec.Tick
	}

	switch rec.Kind {
	case KindVehicle:
		if rec.Vehicle == nil {
			return
		}
		v := rec.Vehicle
		s.VehicleCycles++
		if v.Velocity < s.MinVelocity {
			s.MinVelocity = v.Velocity
		}
		if v.Velocity > s.MaxVelocity {
			s.MaxVelocity = v.Velocity
		}
		// A forward wrap resets the position below where it was.
		if s.VehicleCycles > 1 && v.Position < *lastPos && v.Velocity > 0 {
			s.Laps++
		}
		*lastPos = v.Position
	case KindControl:
		if rec.Control == nil {
			return
		}
		s.ControlCycles++
		if rec.Control.Engaged.IsOn() {
			s.EngagedCycles++
		}
		if rec.Control.Throttle > s.MaxThrottle {
			s.MaxThrottle = rec.Control.Throttle
		}
	case KindOverload:
		if rec.Overload == nil {
			return
		}
		s.Injections++
		if rec.Overload.Percent > s.MaxOverload {
			s.MaxOverload = rec.Overload.Percent
		}
	case KindDeadlineMiss:
		s.DeadlineMisses++
	}
}
