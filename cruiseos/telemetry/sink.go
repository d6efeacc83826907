package telemetry

import "cruise/cruiseos/proto"

// Observer receives every sample the task set produces. Implementations are
// called from real-time tasks and must not block.
type Observer interface {
	ObserveVehicle(proto.VehicleSample)
	ObserveControl(proto.ControlSample)
	ObserveOverload(proto.OverloadSample)
	DeadlineMiss(tick uint64)
}

// Fanout forwards each sample to every observer in order.
type Fanout []Observer

var _ Observer = Fanout(nil)

func NewFanout(obs ...Observer) Fanout {
	var f Fanout
	for _, o := range obs {
		if o != nil {
			f = append(f, o)
		}
	}
	return f
}

func (f Fanout) ObserveVehicle(s proto.VehicleSample) {
	for _, o := range f {
		o.ObserveVehicle(s)
	}
}

func (f Fanout) ObserveControl(s proto.ControlSample) {
	for _, o := range f {
		o.ObserveControl(s)
	}
}

func (f Fanout) ObserveOverload(s proto.OverloadSample) {
	for _, o := range f {
		o.ObserveOverload(s)
	}
}

func (f Fanout) DeadlineMiss(tick uint64) {
	for _, o := range f {
		o.DeadlineMiss(tick)
	}
}
