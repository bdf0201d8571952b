package ir

import (
	"fmt"
	"strings"
)

// Logic is a four-state bit value.
type Logic byte

const (
	L0 Logic = '0'
	L1 Logic = '1'
	LX Logic = 'x'
	LZ Logic = 'z'
)

// Bits is a four-state vector; index 0 is the least significant bit.
type Bits []Logic

// ParseBits parses an MSB-first string of 0/1/x/z characters. Underscores
// are ignored.
func ParseBits(s string) (Bits, error) {
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return nil, fmt.Errorf("empty bit string")
	}
	out := make(Bits, len(s))
	for i := 0; i < len(s); i++ {
		var b Logic
		switch s[i] {
		case '0':
			b = L0
		case '1':
			b = L1
		case 'x', 'X':
			b = LX
		case 'z', 'Z', '?':
			b = LZ
		default:
			return nil, fmt.Errorf("invalid bit %q in %q", s[i], s)
		}
		out[len(s)-1-i] = b
	}
	return out, nil
}

// MustBits is ParseBits for literals known to be valid.
func MustBits(s string) Bits {
	b, err := ParseBits(s)
	if err != nil {
		panic(err)
	}
	return b
}

// BitsFromUint returns the low width bits of v.
func BitsFromUint(v uint64, width int) Bits {
	out := make(Bits, width)
	for i := 0; i < width; i++ {
		if i < 64 && v&(1<<uint(i)) != 0 {
			out[i] = L1
		} else {
			out[i] = L0
		}
	}
	return out
}

// BitsFromInt returns the two's complement of v in width bits.
func BitsFromInt(v int64, width int) Bits {
	out := BitsFromUint(uint64(v), width)
	if v < 0 {
		for i := 64; i < width; i++ {
			out[i] = L1
		}
	}
	return out
}

// String renders the vector MSB first.
func (b Bits) String() string {
	var sb strings.Builder
	for i := len(b) - 1; i >= 0; i-- {
		sb.WriteByte(byte(b[i]))
	}
	return sb.String()
}

// IsDefined reports whether every bit is 0 or 1.
func (b Bits) IsDefined() bool {
	for _, v := range b {
		if v != L0 && v != L1 {
			return false
		}
	}
	return true
}

// All reports whether every bit equals v.
func (b Bits) All(v Logic) bool {
	if len(b) == 0 {
		return false
	}
	for _, bit := range b {
		if bit != v {
			return false
		}
	}
	return true
}

// Uint64 returns the unsigned value when it is defined and fits.
func (b Bits) Uint64() (uint64, bool) {
	if !b.IsDefined() {
		return 0, false
	}
	var v uint64
	for i, bit := range b {
		if bit != L1 {
			continue
		}
		if i >= 64 {
			return 0, false
		}
		v |= 1 << uint(i)
	}
	return v, true
}

// Int64 returns the value interpreted with the given signedness when it is
// defined and representable.
func (b Bits) Int64(signed bool) (int64, bool) {
	if !b.IsDefined() || len(b) == 0 {
		return 0, false
	}
	if !signed || b[len(b)-1] == L0 {
		u, ok := b.Uint64()
		if !ok || u > 1<<63-1 {
			return 0, false
		}
		return int64(u), true
	}
	// Negative: every bit at or above 63 must be a sign copy.
	for i := 63; i < len(b); i++ {
		if b[i] != L1 {
			return 0, false
		}
	}
	var v int64 = -1
	for i := 0; i < len(b) && i < 63; i++ {
		if b[i] == L0 {
			v &^= 1 << uint(i)
		}
	}
	return v, true
}

// Resize zero- or sign-extends or truncates the vector to width bits.
func (b Bits) Resize(width int, signed bool) Bits {
	out := make(Bits, width)
	fill := L0
	if signed && len(b) > 0 {
		fill = b[len(b)-1]
	}
	for i := 0; i < width; i++ {
		if i < len(b) {
			out[i] = b[i]
		} else {
			out[i] = fill
		}
	}
	return out
}
