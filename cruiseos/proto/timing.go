package proto

import "time"

// Timing of the unit. The hardware tick drives every software timer.
const (
	TickPeriod = 100 * time.Millisecond

	// PeriodTicks is the release period of every periodic task.
	PeriodTicks = 3
	Hyperperiod = PeriodTicks * TickPeriod
)

// Static task priorities. Lower values are more urgent.
const (
	PrioWatchdog       = 7
	PrioButtons        = 8
	PrioSwitches       = 9
	PrioVehicle        = 10
	PrioControl        = 12
	PrioOverloadInject = 15
	PrioOverloadSignal = 18
)

// Task names used in logs, metrics and traces.
const (
	TaskWatchdog       = "watchdog"
	TaskButtons        = "buttons"
	TaskSwitches       = "switches"
	TaskVehicle        = "vehicle"
	TaskControl        = "control"
	TaskOverloadInject = "overload-inject"
	TaskOverloadSignal = "overload-signal"
)

// Vehicle model limits.
const (
	TrackLength = 2400
	MaxThrottle = 80

	CruiseMinVelocity   = 20
	ManualThrottleTop   = 80
	ManualThrottleLower = 40
)
