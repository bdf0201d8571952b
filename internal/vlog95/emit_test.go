package vlog95

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"vlog95/internal/diag"
	"vlog95/internal/ir"
)

type emitResult struct {
	out   string
	log   string
	count int
	err   error
	rep   *diag.Reporter
}

func emitDesign(t *testing.T, d *ir.Design, opts Options) emitResult {
	t.Helper()
	var out, log bytes.Buffer
	rep := diag.NewReporter(&log, "text")
	count, err := Emit(d, &out, opts, rep)
	return emitResult{out: out.String(), log: log.String(), count: count, err: err, rep: rep}
}

func mustClean(t *testing.T, r emitResult) {
	t.Helper()
	if r.err != nil {
		t.Fatalf("Emit failed: %v", r.err)
	}
	if r.count != 0 {
		t.Fatalf("expected no errors, got %d:\n%s\noutput:\n%s", r.count, r.log, r.out)
	}
}

func nexusOf(d *ir.Design, id ir.SignalID) ir.NexusID {
	return d.Signal(id).Nexus[0]
}

func at(line int) ir.StmtInfo {
	return ir.StmtInfo{Pos: ir.Pos{File: "t.v", Line: line}}
}

func assign(target ir.SignalID, rval ir.Expr, line int) *ir.AssignStmt {
	return &ir.AssignStmt{StmtInfo: at(line), LVals: []ir.LValue{{Signal: target}}, RVal: rval}
}

func TestHeaderAndEmptyModule(t *testing.T) {
	b := ir.NewBuilder(-9)
	b.Module(0, "top", "top")
	r := emitDesign(t, b.Design(), Options{Version: "1.2.3"})
	mustClean(t, r)

	want := strings.Join([]string{
		"/*",
		" * 1364-1995 Verilog generated by vlog95 version 1.2.3",
		" *",
		" *   Delay selection: TYPICAL",
		" *   Signed constructs and sign extension: not allowed",
		" */",
		"",
		"`timescale 1ns/1ns",
		"module top;",
		"endmodule",
		"",
		"",
	}, "\n")
	if diff := cmp.Diff(want, r.out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDelayedAssignIsReconstructed(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	a := b.Reg(top, "a", 8)
	tmp := b.AddSignal(&ir.Signal{Name: "tmp", Scope: top, Kind: ir.KindReg, MSB: 7, Local: true})
	d := b.Design()

	body := &ir.BlockStmt{StmtInfo: at(10), Stmts: []ir.Stmt{
		assign(tmp, ir.Num("11111111"), 10),
		&ir.DelayStmt{StmtInfo: at(10), Delay: 5, Body: assign(a, b.Ref(tmp), 10)},
	}}
	b.AddProcess(top, &ir.Process{Kind: ir.ProcInitial, Body: body})

	r := emitDesign(t, d, Options{})
	mustClean(t, r)
	if !strings.Contains(r.out, "  initial a = #5 8'hff;\n") {
		t.Fatalf("expected reconstructed assignment, got:\n%s", r.out)
	}
	if strings.Contains(r.out, "tmp") {
		t.Fatalf("compiler temporary leaked into the output:\n%s", r.out)
	}
	if strings.Count(r.out, ";") != 3 { // reg a; the assignment; module header
		t.Fatalf("expected exactly one statement, got:\n%s", r.out)
	}
}

func TestDelayedAssignNeedsOneLine(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	a := b.Reg(top, "a", 8)
	tmp := b.AddSignal(&ir.Signal{Name: "tmp", Scope: top, Kind: ir.KindReg, MSB: 7, Local: true})
	d := b.Design()

	body := &ir.BlockStmt{StmtInfo: at(10), Stmts: []ir.Stmt{
		assign(tmp, ir.Num("11111111"), 10),
		&ir.DelayStmt{StmtInfo: at(11), Delay: 5, Body: assign(a, b.Ref(tmp), 11)},
	}}
	b.AddProcess(top, &ir.Process{Kind: ir.ProcInitial, Body: body})

	r := emitDesign(t, d, Options{})
	mustClean(t, r)
	for _, want := range []string{"reg [7:0] tmp;", "tmp = 8'hff;", "#5 a = tmp;"} {
		if !strings.Contains(r.out, want) {
			t.Errorf("expected %q in:\n%s", want, r.out)
		}
	}
}

func TestStoragePrimitivesAreMemoized(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	clk := b.Wire(top, "clk", 1)
	data := b.Reg(top, "d", 1)
	d := b.Design()
	for i, neg := range []bool{false, false, true} {
		q := b.Wire(top, "q"+string(rune('1'+i)), 1)
		b.AddDevice(&ir.Device{
			Kind:    ir.LPMFF,
			Scope:   top,
			Width:   1,
			Output:  nexusOf(d, q),
			Inputs:  []ir.NexusID{nexusOf(d, data)},
			Clock:   nexusOf(d, clk),
			Negedge: neg,
		})
	}

	r := emitDesign(t, d, Options{})
	mustClean(t, r)
	if got := strings.Count(r.out, "primitive VLOG95_DFF_"); got != 2 {
		t.Fatalf("expected 2 synthesized primitives, got %d:\n%s", got, r.out)
	}
	for _, want := range []string{
		"  VLOG95_DFF_POS (q1, d, clk);\n",
		"  VLOG95_DFF_POS (q2, d, clk);\n",
		"  VLOG95_DFF_NEG (q3, d, clk);\n",
		"primitive VLOG95_DFF_POS(q, d, clk);",
		"primitive VLOG95_DFF_NEG(q, d, clk);",
	} {
		if !strings.Contains(r.out, want) {
			t.Errorf("expected %q in:\n%s", want, r.out)
		}
	}
	if strings.Index(r.out, "primitive VLOG95_DFF_POS") < strings.Index(r.out, "endmodule") {
		t.Errorf("primitives must follow the modules:\n%s", r.out)
	}
	if got := strings.Count(r.out, " * This generated primitive carries no license terms of its own and\n"); got != 2 {
		t.Errorf("expected a license block per primitive, got %d:\n%s", got, r.out)
	}
	if !strings.Contains(r.out, "/*\n * VLOG95_DFF_NEG was generated by vlog95 version devel\n"+
		" * to model a negative edge triggered D flip-flop. It is not part of the input design.\n") {
		t.Errorf("missing attribution for VLOG95_DFF_NEG:\n%s", r.out)
	}
}

func TestStorageTable(t *testing.T) {
	ports, rows := storageTable(storageKind{enable: true, clear: true})
	if diff := cmp.Diff([]string{"q", "d", "clk", "en", "clr"}, ports); diff != "" {
		t.Fatalf("ports mismatch (-want +got):\n%s", diff)
	}
	want := [][]string{
		{"0", "(01)", "1", "0", "?", "0"},
		{"1", "(01)", "1", "0", "?", "1"},
		{"1", "(0?)", "1", "0", "1", "1"},
		{"0", "(0?)", "1", "0", "0", "0"},
		{"?", "(?0)", "?", "?", "?", "-"},
		{"*", "?", "?", "?", "?", "-"},
		{"?", "(01)", "0", "?", "?", "-"},
		{"?", "?", "*", "?", "?", "-"},
		{"?", "?", "?", "1", "?", "0"},
		{"?", "?", "?", "(?0)", "?", "-"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestConstRangeAscending(t *testing.T) {
	tests := []struct {
		off, width int
		want       string
	}{
		{0, 3, "[5:7]"},
		{1, 3, "[4:6]"},
		{4, 3, "[1:3]"},
		{2, 1, "[5]"},
	}
	for _, tt := range tests {
		if got := constRange(0, 7, tt.off, tt.width); got != tt.want {
			t.Errorf("constRange(0, 7, %d, %d) = %q, want %q", tt.off, tt.width, got, tt.want)
		}
	}
	if got := constRange(7, 0, 1, 3); got != "[3:1]" {
		t.Errorf("descending select = %q, want [3:1]", got)
	}
}

func TestSelectsOfAscendingVector(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	sig := b.AddSignal(&ir.Signal{Name: "sig", Scope: top, Kind: ir.KindReg, MSB: 0, LSB: 7})
	k := b.Reg(top, "k", 3)
	r1 := b.Reg(top, "r1", 1)
	r3 := b.Reg(top, "r3", 3)
	d := b.Design()

	body := &ir.BlockStmt{Stmts: []ir.Stmt{
		assign(r3, ir.Select(b.Ref(sig), ir.Int(1, 32, false), 3), 1),
		assign(r1, ir.Select(b.Ref(sig), b.Ref(k), 1), 2),
	}}
	b.AddProcess(top, &ir.Process{Kind: ir.ProcInitial, Body: body})

	r := emitDesign(t, d, Options{})
	mustClean(t, r)
	for _, want := range []string{"reg [0:7] sig;", "r3 = sig[4:6];", "r1 = sig[7 - k];"} {
		if !strings.Contains(r.out, want) {
			t.Errorf("expected %q in:\n%s", want, r.out)
		}
	}
}

func TestVariablePartSelectOfAscendingVector(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	sig := b.AddSignal(&ir.Signal{Name: "sig", Scope: top, Kind: ir.KindReg, MSB: 0, LSB: 7})
	k := b.Reg(top, "k", 3)
	r3 := b.Reg(top, "r3", 3)
	d := b.Design()
	b.AddProcess(top, &ir.Process{Kind: ir.ProcInitial, Body: assign(r3, ir.Select(b.Ref(sig), b.Ref(k), 3), 1)})

	r := emitDesign(t, d, Options{})
	mustClean(t, r)
	const want = "r3 = {sig[5 - k], sig[6 - k], sig[7 - k]};"
	if !strings.Contains(r.out, want) {
		t.Fatalf("expected %q in:\n%s", want, r.out)
	}

	// Evaluated at k, the bit selects name the bits a constant select at
	// offset k names, most significant first.
	re := regexp.MustCompile(`sig\[(\d+) - k\]`)
	matches := re.FindAllStringSubmatch(want, -1)
	for _, kv := range []int{0, 1, 4} {
		var idx []int
		for _, m := range matches {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				t.Fatal(err)
			}
			idx = append(idx, n-kv)
		}
		got := fmt.Sprintf("[%d:%d]", idx[0], idx[len(idx)-1])
		if wantRange := constRange(0, 7, kv, 3); got != wantRange {
			t.Errorf("k=%d: variable select covers %s, constant select %s", kv, got, wantRange)
		}
	}
}

func TestMuxTreeIsBalanced(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	s := b.Port(top, "s", ir.PortInput, ir.KindWire, 3)
	var ins []ir.NexusID
	for i := 0; i < 8; i++ {
		in := b.Port(top, fmt.Sprintf("i%d", i), ir.PortInput, ir.KindWire, 1)
		ins = append(ins, nexusOf(b.Design(), in))
	}
	y := b.Port(top, "y", ir.PortOutput, ir.KindWire, 1)
	d := b.Design()
	b.AddDevice(&ir.Device{Kind: ir.LPMMux, Scope: top, Width: 1, Output: nexusOf(d, y),
		Inputs: ins, Select: nexusOf(d, s), SelectWidth: 3})

	r := emitDesign(t, d, Options{})
	mustClean(t, r)
	want := "  assign y = s[2] ? (s[1] ? (s[0] ? i7 : i6) : (s[0] ? i5 : i4)) : " +
		"(s[1] ? (s[0] ? i3 : i2) : (s[0] ? i1 : i0));\n"
	if !strings.Contains(r.out, want) {
		t.Fatalf("expected\n%s\nin:\n%s", want, r.out)
	}
}

func TestUnsignedCastsAreMinimal(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	i1 := b.AddSignal(&ir.Signal{Name: "i1", Scope: top, Kind: ir.KindReg, MSB: 31, Signed: true, Integer: true})
	i2 := b.AddSignal(&ir.Signal{Name: "i2", Scope: top, Kind: ir.KindReg, MSB: 31, Signed: true, Integer: true})
	u := b.Reg(top, "u", 32)
	d := b.Design()

	sum := func() ir.Expr { return ir.Binary(ir.OpAdd, b.Ref(i1), b.Ref(i2), 32, false) }
	body := &ir.BlockStmt{Stmts: []ir.Stmt{
		assign(u, sum(), 1),
		assign(u, ir.Binary(ir.OpAdd, sum(), b.Ref(u), 32, false), 2),
	}}
	b.AddProcess(top, &ir.Process{Kind: ir.ProcInitial, Body: body})

	tests := []struct {
		allowSigned bool
		cast        string
		token       string
	}{
		{true, "u = $unsigned((i1 + i2));", "$unsigned"},
		{false, "u = {(i1 + i2)};", "{"},
	}
	for _, tt := range tests {
		r := emitDesign(t, d, Options{AllowSigned: tt.allowSigned})
		mustClean(t, r)
		if !strings.Contains(r.out, tt.cast) {
			t.Errorf("allowSigned=%v: expected %q in:\n%s", tt.allowSigned, tt.cast, r.out)
		}
		// An unsigned sibling already makes the sum unsigned.
		if !strings.Contains(r.out, "u = (i1 + i2) + u;") {
			t.Errorf("allowSigned=%v: sibling operand needs no cast:\n%s", tt.allowSigned, r.out)
		}
		if got := strings.Count(r.out, tt.token); got != 1 {
			t.Errorf("allowSigned=%v: expected one %q, got %d:\n%s", tt.allowSigned, tt.token, got, r.out)
		}
	}
}

func TestUnsupportedTypeCountsErrors(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	b.AddSignal(&ir.Signal{Name: "dyn", Scope: top, Kind: ir.KindReg, Type: ir.TypeDArray})
	b.Reg(top, "keep", 4)

	r := emitDesign(t, b.Design(), Options{})
	if r.err != nil {
		t.Fatalf("unexpected abort: %v", r.err)
	}
	if r.count != 1 || r.rep.ErrorCount() != r.count {
		t.Fatalf("expected 1 reported error, got count %d, reporter %d", r.count, r.rep.ErrorCount())
	}
	for _, want := range []string{
		"reg dyn;",
		"reg [3:0] keep;",
		"<<< vlog95 generation failed with 1 error(s) >>>",
	} {
		if !strings.Contains(r.out, want) {
			t.Errorf("expected %q in:\n%s", want, r.out)
		}
	}
	if !strings.Contains(r.log, "darray variable dyn") {
		t.Errorf("expected diagnostic for dyn, got %q", r.log)
	}
}

func TestSignCastsAreMinimal(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	s1 := b.AddSignal(&ir.Signal{Name: "s1", Scope: top, Kind: ir.KindReg, MSB: 7, Signed: true})
	s2 := b.AddSignal(&ir.Signal{Name: "s2", Scope: top, Kind: ir.KindReg, MSB: 7, Signed: true})
	u1 := b.Reg(top, "u1", 8)
	u2 := b.Reg(top, "u2", 8)
	y := b.AddSignal(&ir.Signal{Name: "y", Scope: top, Kind: ir.KindReg, MSB: 7, Signed: true})
	d := b.Design()

	body := &ir.BlockStmt{Stmts: []ir.Stmt{
		assign(y, ir.Binary(ir.OpAdd, b.Ref(s1), b.Ref(s2), 8, true), 1),
		assign(y, ir.Binary(ir.OpAdd, b.Ref(u1), b.Ref(u2), 8, true), 2),
	}}
	b.AddProcess(top, &ir.Process{Kind: ir.ProcInitial, Body: body})

	r := emitDesign(t, d, Options{AllowSigned: true})
	mustClean(t, r)
	if !strings.Contains(r.out, "y = s1 + s2;") {
		t.Errorf("signed operands need no cast:\n%s", r.out)
	}
	if !strings.Contains(r.out, "y = $signed((u1 + u2));") {
		t.Errorf("expected a cast on the unsigned sum:\n%s", r.out)
	}
	if got := strings.Count(r.out, "$signed"); got != 1 {
		t.Errorf("expected exactly one $signed, got %d:\n%s", got, r.out)
	}
	if !strings.Contains(r.out, "reg signed [7:0] y;") {
		t.Errorf("expected signed declaration:\n%s", r.out)
	}

	r = emitDesign(t, d, Options{})
	if r.count == 0 {
		t.Fatalf("signed constructs must be reported without signed support:\n%s", r.out)
	}
}

func TestDevicesInlineIntoNamedNet(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	a := b.Port(top, "a", ir.PortInput, ir.KindWire, 4)
	bb := b.Port(top, "b", ir.PortInput, ir.KindWire, 4)
	c := b.Port(top, "c", ir.PortInput, ir.KindWire, 4)
	y := b.Port(top, "y", ir.PortOutput, ir.KindWire, 4)
	d := b.Design()
	sum := b.AddNexus(4)
	b.AddDevice(&ir.Device{Kind: ir.LPMAdd, Scope: top, Width: 4, Output: sum,
		Inputs: []ir.NexusID{nexusOf(d, a), nexusOf(d, bb)}})
	b.AddDevice(&ir.Device{Kind: ir.LPMSub, Scope: top, Width: 4, Output: nexusOf(d, y),
		Inputs: []ir.NexusID{sum, nexusOf(d, c)}})

	r := emitDesign(t, d, Options{})
	mustClean(t, r)
	want := strings.Join([]string{
		"`timescale 1ns/1ns",
		"module top(a, b, c, y);",
		"  input [3:0] a;",
		"  input [3:0] b;",
		"  input [3:0] c;",
		"  output [3:0] y;",
		"",
		"  assign y = (a + b) - c;",
		"endmodule",
	}, "\n")
	if !strings.Contains(r.out, want) {
		t.Fatalf("expected\n%s\nin:\n%s", want, r.out)
	}
	if strings.Contains(r.out, "_vlog95_n") {
		t.Fatalf("inlined nexus must not be named:\n%s", r.out)
	}
}

func TestLocalityIsMemoized(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	a := b.Wire(top, "a", 1)
	y := b.Wire(top, "y", 1)
	d := b.Design()
	mid := b.AddNexus(1)
	b.AddDevice(&ir.Device{Kind: ir.GateNot, Scope: top, Width: 1, Output: mid, Inputs: []ir.NexusID{nexusOf(d, a)}})
	b.AddDevice(&ir.Device{Kind: ir.GateBuf, Scope: top, Width: 1, Output: nexusOf(d, y), Inputs: []ir.NexusID{mid}})

	p := newPrinter(d, Options{Indent: 2}, diag.NewReporter(nil, "text"), nil)
	for i := 0; i < 2; i++ {
		if !p.IsLocal(top, mid) {
			t.Fatalf("call %d: unnamed single-driver nexus should be local", i)
		}
		if p.IsLocal(top, nexusOf(d, y)) {
			t.Fatalf("call %d: named nexus should not be local", i)
		}
	}
	if got := len(p.locality); got != 2 {
		t.Fatalf("expected 2 memoized entries, got %d", got)
	}
}

func TestMultipleDriversForceName(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	a := b.Wire(top, "a", 1)
	c := b.Wire(top, "c", 1)
	y := b.Wire(top, "y", 1)
	d := b.Design()
	mid := b.AddNexus(1)
	b.AddDevice(&ir.Device{Kind: ir.GateBufif1, Scope: top, Width: 1, Output: mid,
		Inputs: []ir.NexusID{nexusOf(d, a), nexusOf(d, c)}})
	b.AddDevice(&ir.Device{Kind: ir.GateBufif0, Scope: top, Width: 1, Output: mid,
		Inputs: []ir.NexusID{nexusOf(d, a), nexusOf(d, c)}})
	b.AddDevice(&ir.Device{Kind: ir.GateBuf, Scope: top, Width: 1, Output: nexusOf(d, y), Inputs: []ir.NexusID{mid}})

	r := emitDesign(t, d, Options{})
	mustClean(t, r)
	name := "_vlog95_n" + "4"
	for _, want := range []string{
		"wire " + name + ";",
		"assign " + name + " = c ? a : 1'bz;",
		"assign " + name + " = c ? 1'bz : a;",
		"assign y = " + name + ";",
	} {
		if !strings.Contains(r.out, want) {
			t.Errorf("expected %q in:\n%s", want, r.out)
		}
	}
}

func TestGenerateScopesAreFlattened(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	gen := b.SubScope(ir.ScopeGenerate, top, "gen")
	b.Wire(gen, "y", 1)

	r := emitDesign(t, b.Design(), Options{})
	mustClean(t, r)
	if !strings.Contains(r.out, "  wire \\gen.y ;\n") {
		t.Fatalf("expected escaped generate name:\n%s", r.out)
	}
}

func TestIdenticalInstancesShareDefinition(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	w := b.Wire(top, "w", 1)
	d := b.Design()
	for _, name := range []string{"u1", "u2"} {
		inst := b.Module(top, name, "sub")
		b.AddSignal(&ir.Signal{Name: "i", Scope: inst, Kind: ir.KindWire, Port: ir.PortInput, Nexus: []ir.NexusID{nexusOf(d, w)}})
	}

	r := emitDesign(t, d, Options{})
	mustClean(t, r)
	for _, want := range []string{"  sub u1(.i(w));\n", "  sub u2(.i(w));\n", "module sub(i);\n  input i;\nendmodule\n"} {
		if !strings.Contains(r.out, want) {
			t.Errorf("expected %q in:\n%s", want, r.out)
		}
	}
	if got := strings.Count(r.out, "module sub("); got != 1 {
		t.Fatalf("expected one definition of sub, got %d", got)
	}
}

func TestFunctionWithoutPortsAborts(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	r1 := b.Reg(top, "r", 1)
	fn := b.SubScope(ir.ScopeFunction, top, "f")
	d := b.Design()
	call := &ir.CallExpr{ExprInfo: ir.ExprInfo{Width: 1}, Func: fn}
	b.AddProcess(top, &ir.Process{Kind: ir.ProcInitial, Body: assign(r1, call, 3)})

	r := emitDesign(t, d, Options{})
	if r.err == nil {
		t.Fatalf("expected an invariant error, output:\n%s", r.out)
	}
	var inv *InvariantError
	if !errors.As(r.err, &inv) {
		t.Fatalf("expected *InvariantError, got %T: %v", errors.Cause(r.err), r.err)
	}
	if !strings.Contains(inv.Msg, "function f has no port list") {
		t.Fatalf("unexpected message %q", inv.Msg)
	}
	diags := r.rep.Diagnostics()
	if len(diags) != 1 || diags[0].Category != diag.Invariant {
		t.Fatalf("expected one invariant diagnostic, got %+v", diags)
	}
}

func TestEmitIsDeterministic(t *testing.T) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	clk := b.Wire(top, "clk", 1)
	en := b.Wire(top, "en", 1)
	q := b.Wire(top, "q", 4)
	data := b.Reg(top, "d", 4)
	d := b.Design()
	mid := b.AddNexus(4)
	b.AddDevice(&ir.Device{Kind: ir.GateNot, Scope: top, Width: 4, Output: mid, Inputs: []ir.NexusID{nexusOf(d, data)}})
	b.AddDevice(&ir.Device{Kind: ir.LPMFF, Scope: top, Width: 4, Output: nexusOf(d, q),
		Inputs: []ir.NexusID{mid}, Clock: nexusOf(d, clk), Enable: nexusOf(d, en)})

	outs := make([]string, 4)
	var wg sync.WaitGroup
	for i := range outs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var buf bytes.Buffer
			if _, err := Emit(d, &buf, Options{}, diag.NewReporter(nil, "text")); err != nil {
				t.Errorf("run %d: %v", i, err)
			}
			outs[i] = buf.String()
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(outs); i++ {
		if diff := cmp.Diff(outs[0], outs[i]); diff != "" {
			t.Fatalf("run %d differs (-first +run):\n%s", i, diff)
		}
	}
	if !strings.Contains(outs[0], "VLOG95_DFF_POS_EN (q[3], _vlog95_n") {
		t.Fatalf("expected per-bit storage instances:\n%s", outs[0])
	}
}

func TestTop(t *testing.T) {
	p := &printer{}
	tests := map[string]string{
		"(a + b)":         "a + b",
		"(a) + (b)":       "(a) + (b)",
		"a":               "a",
		`(")" == s)`:      `")" == s`,
		"((a + b) - c)":   "(a + b) - c",
		"$signed((a+b))":  "$signed((a+b))",
		"(a + b) * (c)":   "(a + b) * (c)",
		"(c ? a : (b))":   "c ? a : (b)",
		"((a) ? (b) : c)": "(a) ? (b) : c",
	}
	for in, want := range tests {
		if got := p.top(in); got != want {
			t.Errorf("top(%q) = %q, want %q", in, got, want)
		}
	}
}
