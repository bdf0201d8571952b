package backend

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"vlog95/internal/config"
	"vlog95/internal/diag"
	"vlog95/internal/ir"
	"vlog95/internal/vlog95"
)

func testBuilder() (*ir.Builder, ir.ScopeID) {
	b := ir.NewBuilder(-9)
	top := b.Module(0, "top", "top")
	r := b.Reg(top, "r", 4)
	b.AddProcess(top, &ir.Process{Kind: ir.ProcInitial, Body: &ir.AssignStmt{
		LVals: []ir.LValue{{Signal: r}},
		RVal:  &ir.NumberExpr{ExprInfo: ir.ExprInfo{Width: 4}, Bits: ir.MustBits("1010")},
	}})
	return b, top
}

func testDesign() *ir.Design {
	b, _ := testBuilder()
	return b.Design()
}

func TestEmitVerilogWritesOutputAndDump(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "gen", "out.v")
	dump := filepath.Join(tmp, "gen", "design.txt")

	res, err := EmitVerilog(testDesign(), out, Options{DumpIRPath: dump})
	if err != nil {
		t.Fatalf("EmitVerilog failed: %v", err)
	}
	want := Result{MainPath: out, AuxPaths: []string{dump}}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "module top;\n  reg [3:0] r;\n\n  initial r = 4'ha;\nendmodule\n") {
		t.Fatalf("unexpected output:\n%s", data)
	}
	listing, err := os.ReadFile(dump)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if !strings.Contains(string(listing), "module top (top)") {
		t.Fatalf("unexpected dump:\n%s", listing)
	}
}

func TestEmitVerilogToStdout(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Stdout: &buf, Emit: vlog95.Options{Indent: 4, Version: "9.9.9"}}
	res, err := EmitVerilog(testDesign(), "-", opts)
	if err != nil {
		t.Fatalf("EmitVerilog failed: %v", err)
	}
	if res.MainPath != "" {
		t.Fatalf("expected no main path, got %q", res.MainPath)
	}
	text := buf.String()
	if !strings.Contains(text, "vlog95 version 9.9.9") || !strings.Contains(text, "\n    initial r = 4'ha;\n") {
		t.Fatalf("unexpected output:\n%s", text)
	}
}

func TestEmitVerilogCountsUnsupportedConstructs(t *testing.T) {
	b, top := testBuilder()
	b.AddSignal(&ir.Signal{Name: "q", Scope: top, Type: ir.TypeQueue})
	d := b.Design()

	var log bytes.Buffer
	rep := diag.NewReporter(&log, "json")
	out := filepath.Join(t.TempDir(), "out.v")
	res, err := EmitVerilog(d, out, Options{Reporter: rep})
	if err != nil {
		t.Fatalf("EmitVerilog failed: %v", err)
	}
	if res.Errors != 1 || res.ExitStatus() != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(log.String(), `"category":"unsupported"`) {
		t.Fatalf("unexpected log:\n%s", log.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasSuffix(string(data), "<<< vlog95 generation failed with 1 error(s) >>>\n") {
		t.Fatalf("missing trailer:\n%s", data)
	}
}

func TestEmitVerilogStopsOnContractViolation(t *testing.T) {
	d := testDesign()
	d.Nexuses[0].Terminals = append(d.Nexuses[0].Terminals, ir.Terminal{
		Kind: ir.TermConst, Value: ir.MustBits("0000"), Drive0: ir.StrengthStrong, Drive1: ir.StrengthStrong,
	})
	out := filepath.Join(t.TempDir(), "out.v")
	rep := diag.NewReporter(nil, "text")
	_, err := EmitVerilog(d, out, Options{Reporter: rep})
	if err == nil || !strings.Contains(err.Error(), "drivers") {
		t.Fatalf("expected a driver error, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("output should not exist, stat returned %v", statErr)
	}
	if rep.ErrorCount() != 1 {
		t.Fatalf("expected one diagnostic, got %v", rep.Diagnostics())
	}
}

func TestEmitVerilogReportsIOErrors(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	rep := diag.NewReporter(nil, "text")
	_, err := EmitVerilog(testDesign(), filepath.Join(blocker, "out.v"), Options{Reporter: rep})
	if err == nil {
		t.Fatalf("expected an error")
	}
	diags := rep.Diagnostics()
	if len(diags) != 1 || diags[0].Category != diag.IO {
		t.Fatalf("expected one io diagnostic, got %v", diags)
	}
}

func TestCheckRunsContractPasses(t *testing.T) {
	if err := Check(testDesign(), diag.NewReporter(nil, "text")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Check(nil, nil); err == nil {
		t.Fatalf("expected an error for a nil design")
	}
}

func TestExitStatusIsClamped(t *testing.T) {
	tests := []struct {
		errors int
		want   int
	}{
		{0, 0},
		{7, 7},
		{255, 255},
		{300, 255},
	}
	for _, tt := range tests {
		if got := (Result{Errors: tt.errors}).ExitStatus(); got != tt.want {
			t.Errorf("ExitStatus(%d) = %d, want %d", tt.errors, got, tt.want)
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{Indent: 3, FileLine: true, AllowSigned: true, DiagFormat: "json"}
	got := FromConfig(cfg, "1.0.0")
	want := Options{Emit: vlog95.Options{Indent: 3, FileLine: true, AllowSigned: true, Version: "1.0.0"}}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(diag.Reporter{})); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if def := FromConfig(nil, ""); def.Emit.Indent != 2 {
		t.Fatalf("default indent = %d", def.Emit.Indent)
	}
}
