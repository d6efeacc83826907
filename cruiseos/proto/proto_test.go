package proto

import (
	"sync"
	"testing"
)

func TestDecodeButtonsActiveLow(t *testing.T) {
	cases := []struct {
		raw  uint32
		want Buttons
	}{
		{raw: 0xFFFFFFFF, want: Buttons{Gas: Off, Brake: Off, Cruise: Off}},
		{raw: RawKeys(ButtonCruise), want: Buttons{Gas: Off, Brake: Off, Cruise: On}},
		{raw: RawKeys(ButtonGas | ButtonBrake), want: Buttons{Gas: On, Brake: On, Cruise: Off}},
		{raw: 0xFFFFFFF1, want: Buttons{Gas: On, Brake: On, Cruise: On}},
	}
	for _, tc := range cases {
		if got := DecodeButtons(tc.raw); got != tc.want {
			t.Fatalf("DecodeButtons(%#x) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestDecodeSwitches(t *testing.T) {
	s := SwitchEngine | OverloadSwitches(25)
	got := DecodeSwitches(s)
	if got.Engine != On || got.TopGear != Off || got.Overload != 25 {
		t.Fatalf("DecodeSwitches(%#x) = %+v", s, got)
	}
	if got := DecodeSwitches(0xFFFFF); got.Overload != 63 || got.TopGear != On {
		t.Fatalf("DecodeSwitches(all) = %+v", got)
	}
}

func TestOverloadPercent(t *testing.T) {
	cases := map[uint16]uint8{0: 0, 1: 2, 25: 50, 50: 100, 63: 100}
	for field, want := range cases {
		if got := OverloadPercent(field); got != want {
			t.Fatalf("OverloadPercent(%d) = %d, want %d", field, got, want)
		}
	}
}

func TestActive(t *testing.T) {
	var zero Active
	if zero.Valid() || zero.IsOn() {
		t.Fatalf("zero Active must be invalid and not on")
	}
	if ActiveOf(true) != On || ActiveOf(false) != Off {
		t.Fatalf("ActiveOf mismatch")
	}
	if On.String() != "on" || Off.String() != "off" {
		t.Fatalf("String() = %q/%q", On.String(), Off.String())
	}
}

func TestPositionLED(t *testing.T) {
	cases := map[uint16]uint32{0: 1 << 12, 399: 1 << 12, 400: 1 << 13, 1999: 1 << 16, 2399: 1 << 17}
	for pos, want := range cases {
		if got := PositionLED(pos); got != want {
			t.Fatalf("PositionLED(%d) = %#x, want %#x", pos, got, want)
		}
	}
}

func TestIndicatorsFlushClears(t *testing.T) {
	var in Indicators
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in.Red(1 << i)
			in.Green(uint16(1 << i))
		}(i)
	}
	wg.Wait()

	red, green := in.Flush()
	if red != 0xFF || green != 0xFF {
		t.Fatalf("Flush() = (%#x, %#x), want (0xff, 0xff)", red, green)
	}
	red, green = in.Flush()
	if red != 0 || green != 0 {
		t.Fatalf("second Flush() = (%#x, %#x), want zero", red, green)
	}
}

func TestSevenSegment(t *testing.T) {
	w := EncodeSigned(-25)
	d := Digits(w)
	if d[0] != 0x40 || d[1] != 0x3F || d[2] != 0x24 || d[3] != 0x12 {
		t.Fatalf("Digits(EncodeSigned(-25)) = %#x", d)
	}
	if w != 0x40<<21|0x3F<<14|0x24<<7|0x12 {
		t.Fatalf("EncodeSigned(-25) = %#x", w)
	}

	for _, v := range []int8{0, 7, 20, -1, -99, 42} {
		got, ok := DecodeWord(EncodeSigned(v))
		if !ok || got != int(v) {
			t.Fatalf("DecodeWord(EncodeSigned(%d)) = %d, %v", v, got, ok)
		}
	}
	if got, _ := DecodeWord(EncodeSigned(-128)); got != -99 {
		t.Fatalf("EncodeSigned(-128) shows %d, want -99", got)
	}
	if got, _ := DecodeWord(EncodeUnsigned(200)); got != 99 {
		t.Fatalf("EncodeUnsigned(200) shows %d, want 99", got)
	}
	if _, ok := DecodeWord(0x7F); ok {
		t.Fatalf("DecodeWord(blank) ok = true")
	}
}
