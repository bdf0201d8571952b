// Package numfmt renders four-state vectors, reals and delays as
// Verilog-1995 literals.
package numfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"vlog95/internal/ir"
)

// MaxLiteralWidth is the widest sized literal the output dialect accepts.
const MaxLiteralWidth = 1 << 16

// Problem describes why a literal could not be rendered exactly. The
// accompanying text is still a usable best-effort rendering.
type Problem struct {
	// Unsupported is set when the literal needs a construct the dialect
	// lacks; otherwise the literal is too wide.
	Unsupported bool
	Msg         string
}

func (p *Problem) Error() string { return p.Msg }

// Format renders bits (LSB at index 0) as a literal. A signed vector is
// only rendered with the 's' base prefix when allowSigned is set; without
// it a Problem is returned together with the unsigned rendering.
func Format(bits ir.Bits, signed, allowSigned bool) (string, error) {
	width := len(bits)
	if width == 0 {
		return "", &Problem{Msg: "zero width literal"}
	}
	if width > MaxLiteralWidth {
		return fmt.Sprintf("%d'bx", width), &Problem{Msg: fmt.Sprintf("%d bit literal exceeds the maximum literal width (%d)", width, MaxLiteralWidth)}
	}

	if signed && width == 32 {
		if v, ok := bits.Int64(true); ok {
			if v == math.MinInt32 {
				return "(-2147483647-1)", nil
			}
			return strconv.FormatInt(v, 10), nil
		}
		if bits.All(ir.LX) && !allowSigned {
			// A signed 32 bit all-x value from an integer division.
			return "(1/0)", nil
		}
	}

	var problem error
	prefix := fmt.Sprintf("%d'", width)
	if signed {
		if allowSigned {
			prefix += "s"
		} else {
			problem = &Problem{Unsupported: true, Msg: fmt.Sprintf("signed %d bit literal requires signed support", width)}
		}
	}

	switch {
	case bits.All(ir.LX):
		return prefix + "bx", problem
	case bits.All(ir.LZ):
		return prefix + "bz", problem
	case !bits.IsDefined() || width == 1:
		return prefix + "b" + trimBinary(bits), problem
	default:
		return prefix + "h" + hexDigits(bits), problem
	}
}

// trimBinary drops leading digits the literal padding rules restore: a
// zero before a defined bit, or an x/z before an identical bit.
func trimBinary(bits ir.Bits) string {
	n := len(bits)
	for n > 1 {
		msb, next := bits[n-1], bits[n-2]
		if msb == ir.L0 && (next == ir.L0 || next == ir.L1) {
			n--
			continue
		}
		if (msb == ir.LX || msb == ir.LZ) && next == msb {
			n--
			continue
		}
		break
	}
	return bits[:n].String()
}

func hexDigits(bits ir.Bits) string {
	digits := (len(bits) + 3) / 4
	var sb strings.Builder
	started := false
	for d := digits - 1; d >= 0; d-- {
		v := 0
		for b := 3; b >= 0; b-- {
			i := d*4 + b
			v <<= 1
			if i < len(bits) && bits[i] == ir.L1 {
				v |= 1
			}
		}
		if v == 0 && !started && d > 0 {
			continue
		}
		started = true
		sb.WriteByte("0123456789abcdef"[v])
	}
	return sb.String()
}

// FormatReal renders a real value. Non-finite values and negative zero use
// arithmetic idioms since the dialect has no literal for them.
func FormatReal(v float64) string {
	switch {
	case math.IsNaN(v):
		return "(0.0/0.0)"
	case math.IsInf(v, 1):
		return "(1.0/0.0)"
	case math.IsInf(v, -1):
		return "(-1.0/0.0)"
	case v == 0 && math.Signbit(v):
		return "(-0.0)"
	case v == 0:
		return "0.0"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	if mant, exp, ok := strings.Cut(s, "e"); ok && !strings.Contains(mant, ".") {
		// Keep a fraction so the literal never reads as an integer.
		s = mant + ".0e" + exp
	}
	if v < 0 {
		return "(" + s + ")"
	}
	return s
}

// ScaledDelay renders ticks of the design precision (10**precision s) in
// the time unit of a scope (10**unit s), with a decimal fraction when the
// value is not a whole number of units.
func ScaledDelay(ticks uint64, unit, precision int) string {
	digits := strconv.FormatUint(ticks, 10)
	shift := unit - precision
	if shift <= 0 {
		if ticks == 0 {
			return "0"
		}
		return digits + strings.Repeat("0", -shift)
	}
	if len(digits) <= shift {
		digits = strings.Repeat("0", shift-len(digits)+1) + digits
	}
	whole, frac := digits[:len(digits)-shift], strings.TrimRight(digits[len(digits)-shift:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// TimeLiteral renders a time exponent as a `timescale magnitude, e.g. -8
// is "10ns".
func TimeLiteral(exp int) string {
	units := []string{"s", "ms", "us", "ns", "ps", "fs"}
	idx := 0
	base := 0
	for base > exp && idx < len(units)-1 {
		base -= 3
		idx++
	}
	mag := exp - base
	if mag < 0 {
		mag = 0
	}
	return strconv.Itoa(int(math.Pow10(mag))) + units[idx]
}
