package proto

// Seven-segment patterns for the digits 0-9 followed by the dash used as a
// minus sign. Segments are active-low.
var sevenSeg = [11]uint8{0x40, 0x79, 0x24, 0x30, 0x19, 0x12, 0x02, 0x78, 0x00, 0x18, 0x3F}

const (
	segDash   = 10
	segMask   = 0x7F
	maxShown  = 99
	wordWidth = 7
)

// Segment returns the pattern for digit d (0-9) or the dash (10).
func Segment(d int) uint8 {
	if d < 0 || d >= len(sevenSeg) {
		return sevenSeg[segDash]
	}
	return sevenSeg[d]
}

// EncodeSigned renders v as a four-digit HEX word.
//
// Layout (7 bits per digit, most significant first):
//   - digit 3: always 0
//   - digit 2: 0, or dash when v is negative
//   - digit 1: tens
//   - digit 0: ones
//
// Magnitudes above 99 show as 99.
func EncodeSigned(v int8) uint32 {
	n := int(v)
	sign := 0
	if n < 0 {
		sign = segDash
		n = -n
	}
	return encode(sign, n)
}

// EncodeUnsigned renders v in the same layout as EncodeSigned, never with a
// sign.
func EncodeUnsigned(v uint8) uint32 {
	return encode(0, int(v))
}

func encode(sign, n int) uint32 {
	if n > maxShown {
		n = maxShown
	}
	return uint32(Segment(0))<<(3*wordWidth) |
		uint32(Segment(sign))<<(2*wordWidth) |
		uint32(Segment(n/10))<<wordWidth |
		uint32(Segment(n%10))
}

// DecodeDigit maps one 7-bit pattern back to its digit, 10 for the dash.
func DecodeDigit(seg uint8) (int, bool) {
	seg &= segMask
	for i, s := range sevenSeg {
		if s == seg {
			return i, true
		}
	}
	return 0, false
}

// Digits splits a HEX word into its four patterns, most significant first.
func Digits(word uint32) [4]uint8 {
	return [4]uint8{
		uint8(word>>(3*wordWidth)) & segMask,
		uint8(word>>(2*wordWidth)) & segMask,
		uint8(word>>wordWidth) & segMask,
		uint8(word) & segMask,
	}
}

// DecodeWord returns the value shown by a word produced by EncodeSigned or
// EncodeUnsigned.
func DecodeWord(word uint32) (int, bool) {
	d := Digits(word)
	sign, ok1 := DecodeDigit(d[1])
	tens, ok2 := DecodeDigit(d[2])
	ones, ok3 := DecodeDigit(d[3])
	if !ok1 || !ok2 || !ok3 || tens == segDash || ones == segDash {
		return 0, false
	}
	n := tens*10 + ones
	if sign == segDash {
		n = -n
	}
	return n, true
}
