package proto

import "sync/atomic"

// Red LED bits.
const (
	RedEngine  uint32 = 0x00000001
	RedTopGear uint32 = 0x00000002

	// RedPosition is the LED for the first 400 m band; later bands shift left.
	RedPosition  uint32 = 1 << 12
	positionBand        = 400
)

// Green LED bits.
const (
	GreenCruiseActive uint16 = 0x0001
	GreenCruise       uint16 = 0x0002
	GreenBrake        uint16 = 0x0010
	GreenGas          uint16 = 0x0040
)

// PositionLED returns the red LED marking the 400 m band of position.
func PositionLED(position uint16) uint32 {
	return RedPosition << (position / positionBand)
}

// Indicators is the LED state accumulated by several tasks within one
// hyperperiod. Contributions are OR-ed in; exactly one owner flushes and
// clears it per hyperperiod.
type Indicators struct {
	red   atomic.Uint32
	green atomic.Uint32
}

// Red sets bits in the red LED aggregate.
func (in *Indicators) Red(bits uint32) {
	if in == nil || bits == 0 {
		return
	}
	orUint32(&in.red, bits)
}

// Green sets bits in the green LED aggregate.
func (in *Indicators) Green(bits uint16) {
	if in == nil || bits == 0 {
		return
	}
	orUint32(&in.green, uint32(bits))
}

// Flush returns the accumulated bits and clears them.
func (in *Indicators) Flush() (red uint32, green uint16) {
	if in == nil {
		return 0, 0
	}
	return in.red.Swap(0), uint16(in.green.Swap(0))
}

func orUint32(v *atomic.Uint32, bits uint32) {
	for {
		old := v.Load()
		if old&bits == bits || v.CompareAndSwap(old, old|bits) {
			return
		}
	}
}
