package numfmt

import (
	"errors"
	"math"
	"math/big"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"vlog95/internal/ir"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		bits        string
		signed      bool
		allowSigned bool
		want        string
		problem     bool
	}{
		{"11111111", false, false, "8'hff", false},
		{"00000001", false, false, "8'h1", false},
		{"000100000000", false, false, "12'h100", false},
		{"1", false, false, "1'b1", false},
		{"0", false, false, "1'b0", false},
		{"00x1", false, false, "4'b0x1", false},
		{"xxx0", false, false, "4'bx0", false},
		{"0x01", false, false, "4'b0x01", false},
		{"zzz1", false, false, "4'bz1", false},
		{"1x", false, false, "2'b1x", false},
		{"xxxx", false, false, "4'bx", false},
		{"zzzz", false, false, "4'bz", false},
		{strings.Repeat("1", 32), true, false, "-1", false},
		{"0" + strings.Repeat("1", 31), true, false, "2147483647", false},
		{"1" + strings.Repeat("0", 31), true, false, "(-2147483647-1)", false},
		{strings.Repeat("x", 32), true, false, "(1/0)", false},
		{strings.Repeat("x", 32), true, true, "32'sbx", false},
		{"11110000", true, true, "8'shf0", false},
		{"11110000", true, false, "8'hf0", true},
		{"1x", true, true, "2'sb1x", false},
	}
	for _, tt := range tests {
		got, err := Format(ir.MustBits(tt.bits), tt.signed, tt.allowSigned)
		if got != tt.want {
			t.Errorf("Format(%s, signed=%v, allow=%v) = %q, want %q", tt.bits, tt.signed, tt.allowSigned, got, tt.want)
		}
		var p *Problem
		if gotProblem := errors.As(err, &p); gotProblem != tt.problem {
			t.Errorf("Format(%s) problem = %v, want %v", tt.bits, err, tt.problem)
		} else if gotProblem && !p.Unsupported {
			t.Errorf("Format(%s) problem should be an unsupported construct: %v", tt.bits, err)
		}
	}
}

func TestFormatTooWide(t *testing.T) {
	bits := make(ir.Bits, MaxLiteralWidth+1)
	for i := range bits {
		bits[i] = ir.L1
	}
	_, err := Format(bits, false, false)
	var p *Problem
	if !errors.As(err, &p) || p.Unsupported {
		t.Fatalf("expected width problem, got %v", err)
	}
}

// parseLiteral reads the literal forms Format produces, applying the
// dialect's padding rules, and returns the resulting vector.
func parseLiteral(t *testing.T, lit string) ir.Bits {
	t.Helper()
	if lit == "(-2147483647-1)" {
		return ir.BitsFromInt(math.MinInt32, 32)
	}
	if !strings.Contains(lit, "'") {
		v, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			t.Fatalf("bad decimal literal %q: %v", lit, err)
		}
		return ir.BitsFromInt(v, 32)
	}
	size, rest, _ := strings.Cut(lit, "'")
	width, err := strconv.Atoi(size)
	if err != nil {
		t.Fatalf("bad size in %q", lit)
	}
	rest = strings.TrimPrefix(rest, "s")
	base, digits := rest[0], rest[1:]
	var msbFirst string
	switch base {
	case 'b':
		msbFirst = digits
	case 'h':
		n, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			t.Fatalf("bad hex digits in %q", lit)
		}
		msbFirst = n.Text(2)
	default:
		t.Fatalf("unexpected base in %q", lit)
	}
	if len(msbFirst) > width {
		t.Fatalf("literal %q has more digits than its width", lit)
	}
	pad := "0"
	if c := msbFirst[0]; c == 'x' || c == 'z' {
		pad = string(c)
	}
	return ir.MustBits(strings.Repeat(pad, width-len(msbFirst)) + msbFirst)
}

func TestFormatRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1995))
	for width := 1; width <= 256; width++ {
		samples := []ir.Bits{
			ir.BitsFromUint(0, width),
			ir.BitsFromInt(-1, width),
			ir.BitsFromUint(1, width),
		}
		for i := 0; i < 8; i++ {
			b := make(ir.Bits, width)
			for j := range b {
				if rng.Intn(2) == 1 {
					b[j] = ir.L1
				} else {
					b[j] = ir.L0
				}
			}
			samples = append(samples, b)
		}
		for _, v := range samples {
			for _, signed := range []bool{false, true} {
				for _, allow := range []bool{false, true} {
					lit, _ := Format(v, signed, allow)
					got := parseLiteral(t, lit)
					if diff := cmp.Diff(v.String(), got.String()); diff != "" {
						t.Fatalf("width %d signed=%v allow=%v literal %q does not round trip (-want +got):\n%s", width, signed, allow, lit, diff)
					}
				}
			}
		}
	}
}

func TestFormatReal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{math.NaN(), "(0.0/0.0)"},
		{math.Inf(1), "(1.0/0.0)"},
		{math.Inf(-1), "(-1.0/0.0)"},
		{math.Copysign(0, -1), "(-0.0)"},
		{0, "0.0"},
		{3, "3.0"},
		{0.1, "0.1"},
		{-2.5, "(-2.5)"},
		{1e21, "1.0e+21"},
		{1.5e-7, "1.5e-07"},
	}
	for _, tt := range tests {
		if got := FormatReal(tt.in); got != tt.want {
			t.Errorf("FormatReal(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	for _, v := range []float64{0.1, 1.0 / 3, 123456.789, 6.02214076e23} {
		s := FormatReal(v)
		got, err := strconv.ParseFloat(s, 64)
		if err != nil || got != v {
			t.Errorf("FormatReal(%v) = %q does not round trip", v, s)
		}
	}
}

func TestScaledDelay(t *testing.T) {
	tests := []struct {
		ticks           uint64
		unit, precision int
		want            string
	}{
		{5, -9, -9, "5"},
		{5000, -9, -12, "5"},
		{1500, -9, -12, "1.5"},
		{15, -9, -12, "0.015"},
		{0, -9, -12, "0"},
		{7, -12, -9, "7000"},
		{10, -8, -9, "1"},
	}
	for _, tt := range tests {
		if got := ScaledDelay(tt.ticks, tt.unit, tt.precision); got != tt.want {
			t.Errorf("ScaledDelay(%d, %d, %d) = %q, want %q", tt.ticks, tt.unit, tt.precision, got, tt.want)
		}
	}
}

func TestTimeLiteral(t *testing.T) {
	got := []string{TimeLiteral(0), TimeLiteral(-8), TimeLiteral(-9), TimeLiteral(-10), TimeLiteral(-12), TimeLiteral(-15)}
	want := []string{"1s", "10ns", "1ns", "100ps", "1ps", "1fs"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("TimeLiteral mismatch (-want +got):\n%s", diff)
	}
}
