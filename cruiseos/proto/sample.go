package proto

// VehicleSample is the state of one vehicle integration cycle.
type VehicleSample struct {
	Tick         uint64 `msgpack:"tick"`
	Position     uint16 `msgpack:"pos"`
	Velocity     int16  `msgpack:"vel"`
	Acceleration int16  `msgpack:"acc"`
	Throttle     uint8  `msgpack:"thr"`
	Brake        Active `msgpack:"brake"`
	Engine       Active `msgpack:"engine"`
	Red          uint32 `msgpack:"red"`
	Green        uint16 `msgpack:"green"`
}

// ControlSample is the outcome of one control cycle.
type ControlSample struct {
	Tick     uint64 `msgpack:"tick"`
	Velocity int16  `msgpack:"vel"`
	Target   uint8  `msgpack:"target"`
	Integral int16  `msgpack:"integral"`
	Throttle int    `msgpack:"thr"`
	Engaged  Active `msgpack:"engaged"`
	Holding  bool   `msgpack:"holding"`
	Engine   Active `msgpack:"engine"`
	Gas      Active `msgpack:"gas"`
	Brake    Active `msgpack:"brake"`
	TopGear  Active `msgpack:"gear"`
}

// OverloadSample records one overload injection.
type OverloadSample struct {
	Tick    uint64 `msgpack:"tick"`
	Percent uint8  `msgpack:"pct"`
	// BusyNanos is the processor time requested from the kernel.
	BusyNanos int64 `msgpack:"busy_ns"`
}
