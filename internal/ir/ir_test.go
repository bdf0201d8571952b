package ir

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBitsRoundTrip(t *testing.T) {
	b := MustBits("1x0_z")
	if got := b.String(); got != "1x0z" {
		t.Fatalf("String() = %q, want 1x0z", got)
	}
	if b[0] != LZ || b[3] != L1 {
		t.Fatalf("bits stored MSB first: %v", []Logic(b))
	}
	if b.IsDefined() {
		t.Fatalf("IsDefined() = true for %s", b)
	}
	if _, err := ParseBits("102"); err == nil {
		t.Fatalf("expected error for invalid digit")
	}
}

func TestBitsIntegers(t *testing.T) {
	tests := []struct {
		bits   string
		signed bool
		want   int64
		ok     bool
	}{
		{"1111", true, -1, true},
		{"1111", false, 15, true},
		{"0111", true, 7, true},
		{"1000", true, -8, true},
		{"10x0", false, 0, false},
	}
	for _, tt := range tests {
		got, ok := MustBits(tt.bits).Int64(tt.signed)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Int64(%s, %v) = %d, %v; want %d, %v", tt.bits, tt.signed, got, ok, tt.want, tt.ok)
		}
	}
	if got := BitsFromInt(-2, 70).String(); got != strings.Repeat("1", 69)+"0" {
		t.Fatalf("BitsFromInt(-2, 70) = %s", got)
	}
	if got := MustBits("10").Resize(4, true).String(); got != "1110" {
		t.Fatalf("sign extension = %s", got)
	}
	if got := MustBits("10").Resize(4, false).String(); got != "0010" {
		t.Fatalf("zero extension = %s", got)
	}
}

func TestBuilderAttachesTerminals(t *testing.T) {
	b := NewBuilder(-9)
	top := b.Module(0, "top", "top")
	r := b.Reg(top, "r", 4)
	w := b.Wire(top, "w", 4)
	pu := b.Wire(top, "pu", 1)
	b.AddDevice(&Device{Kind: GateBuf, Scope: top, Width: 4, Output: b.Design().Signal(w).Nexus[0], Inputs: b.Design().Signal(r).Nexus})
	b.AddDevice(&Device{Kind: GatePullup, Scope: top, Width: 1, Output: b.Design().Signal(pu).Nexus[0]})

	d := b.Design()
	if diff := cmp.Diff([]ScopeID{top}, d.Roots); diff != "" {
		t.Fatalf("roots mismatch (-want +got):\n%s", diff)
	}
	wn := d.Nexus(d.Signal(w).Nexus[0])
	want := []Terminal{
		{Kind: TermSignal, Signal: w},
		{Kind: TermDevice, Device: 1, Role: PinOutput, Drive0: StrengthStrong, Drive1: StrengthStrong},
	}
	if diff := cmp.Diff(want, wn.Terminals); diff != "" {
		t.Fatalf("wire nexus terminals mismatch (-want +got):\n%s", diff)
	}
	rn := d.Nexus(d.Signal(r).Nexus[0])
	if len(rn.Terminals) != 2 || !rn.Terminals[0].IsDriver() || rn.Terminals[1].Role != PinInput {
		t.Fatalf("reg nexus terminals = %+v", rn.Terminals)
	}
	pull := d.Device(2)
	if pull.Drive0 != StrengthHiZ || pull.Drive1 != StrengthPull {
		t.Fatalf("pullup strengths = %v/%v", pull.Drive0, pull.Drive1)
	}
}

func TestBuilderArrayWords(t *testing.T) {
	b := NewBuilder(0)
	top := b.Module(0, "top", "top")
	mem := b.AddSignal(&Signal{Name: "mem", Scope: top, MSB: 7, Array: &ArrayInfo{Dims: 1, Count: 4}})
	if got := len(b.Design().Signal(mem).Nexus); got != 4 {
		t.Fatalf("array words = %d, want 4", got)
	}
	if got := b.Design().Nexus(b.Design().Signal(mem).Nexus[3]).Terminals[0].Word; got != 3 {
		t.Fatalf("word index = %d, want 3", got)
	}
}

const sampleDesign = `{
  "precision": -12,
  "scopes": [
    {"kind": "module", "name": "top", "timeUnit": -9, "timePrecision": -12, "file": "top.v", "line": 1},
    {"kind": "task", "name": "t", "parent": 1}
  ],
  "nexuses": [{"width": 1}],
  "signals": [
    {"name": "a", "scope": 1, "kind": "wire", "port": "input", "nexus": [1]},
    {"name": "y", "scope": 1, "kind": "wire", "port": "output"},
    {"name": "q", "scope": 1, "kind": "reg", "msb": 7, "signed": true}
  ],
  "devices": [
    {"kind": "not", "scope": 1, "width": 1, "output": 2, "inputs": [1], "delays": [{"value": 5000}]}
  ],
  "params": [{"scope": 1, "name": "W", "value": {"kind": "number", "bits": "1000"}}],
  "processes": [
    {"scope": 1, "kind": "initial", "body": {"kind": "block", "stmts": [
      {"kind": "assign", "line": 3, "lvals": [{"signal": 3}], "rval": {"kind": "number", "bits": "11111111", "signed": true}},
      {"kind": "delay", "ticks": 1000, "body": {"kind": "systask", "name": "$finish"}}
    ]}}
  ]
}`

func TestDecode(t *testing.T) {
	d, err := Decode(strings.NewReader(sampleDesign))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	top := d.Scope(1)
	if top.TimeUnit != -9 || top.TimePrecision != -12 {
		t.Fatalf("time units = %d/%d", top.TimeUnit, top.TimePrecision)
	}
	task := d.Scope(2)
	if task.TimeUnit != -9 || task.Parent != 1 {
		t.Fatalf("task scope = %+v", task)
	}
	if diff := cmp.Diff([]SignalID{1, 2}, top.Ports); diff != "" {
		t.Fatalf("ports mismatch (-want +got):\n%s", diff)
	}
	if got := d.Signal(3).Width(); got != 8 {
		t.Fatalf("q width = %d", got)
	}
	dev := d.Device(1)
	if dev.Kind != GateNot || dev.Delays[0].Value != 5000 {
		t.Fatalf("device = %+v", dev)
	}
	body, ok := top.Processes[0].Body.(*BlockStmt)
	if !ok || len(body.Stmts) != 2 {
		t.Fatalf("process body = %#v", top.Processes[0].Body)
	}
	assign := body.Stmts[0].(*AssignStmt)
	if assign.Position().Line != 3 || assign.RVal.Info().Width != 8 || !assign.RVal.Info().Signed {
		t.Fatalf("assign = %+v", assign)
	}
	if p := top.Params[0]; p.Name != "W" || p.Value.Info().Width != 4 {
		t.Fatalf("param = %+v", p)
	}
}

func TestDecodeRejectsUnknownKinds(t *testing.T) {
	tests := []string{
		`{"scopes": [{"kind": "entity", "name": "x"}]}`,
		`{"scopes": [{"kind": "module", "name": "x"}], "devices": [{"kind": "frob", "scope": 1}]}`,
		`{"bogus": 1}`,
		`{"scopes": [{"kind": "module", "name": "x", "parent": 1}]}`,
	}
	for _, src := range tests {
		if _, err := Decode(strings.NewReader(src)); err == nil {
			t.Errorf("Decode(%s) succeeded, want error", src)
		}
	}
}

func TestDump(t *testing.T) {
	d, err := Decode(strings.NewReader(sampleDesign))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var buf bytes.Buffer
	Dump(d, &buf)
	out := buf.String()
	for _, want := range []string{"module top (top)", "task t", "W = 4'b1000", "d1 not", "process 0 initial"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
