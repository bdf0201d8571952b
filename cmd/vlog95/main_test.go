package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vlog95/internal/backend"
	"vlog95/internal/ir"
)

const counterDesign = `{
  "nexuses": [{"width": 4}],
  "scopes": [{"kind": "module", "name": "top", "file": "top.v", "line": 1}],
  "signals": [{"name": "q", "scope": 1, "kind": "reg", "msb": 3, "nexus": [1], "file": "top.v", "line": 2}],
  "processes": [{"scope": 1, "kind": "initial", "file": "top.v", "line": 3, "body":
    {"kind": "assign", "file": "top.v", "line": 3, "lvals": [{"signal": 1}], "rval": {"kind": "number", "bits": "0001"}}}]
}`

const queueDesign = `{
  "scopes": [{"kind": "module", "name": "top"}],
  "signals": [{"name": "fifo", "scope": 1, "type": "queue", "file": "top.v", "line": 4}]
}`

const conflictDesign = `{
  "nexuses": [{"width": 1}],
  "scopes": [{"kind": "module", "name": "top"}],
  "signals": [{"name": "r", "scope": 1, "kind": "reg", "nexus": [1]}],
  "consts": [{"nexus": 1, "value": "1"}]
}`

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (int, string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code, err := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String(), err
}

func stubEmitVerilog(t *testing.T, res backend.Result) {
	t.Helper()
	orig := emitVerilog
	emitVerilog = func(*ir.Design, string, backend.Options) (backend.Result, error) {
		return res, nil
	}
	t.Cleanup(func() { emitVerilog = orig })
}

func TestRunRejectsMissingAndUnknownCommands(t *testing.T) {
	code, _, stderr, err := runCommand(t)
	if code != 1 || err == nil || err.Error() != "missing command" {
		t.Fatalf("unexpected result %d, %v", code, err)
	}
	if !strings.Contains(stderr, "Commands:") {
		t.Fatalf("expected usage, got %q", stderr)
	}
	code, _, _, err = runCommand(t, "frobnicate")
	if code != 1 || err == nil || !strings.Contains(err.Error(), "unknown command: frobnicate") {
		t.Fatalf("unexpected result %d, %v", code, err)
	}
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _, err := runCommand(t, "version")
	if code != 0 || err != nil {
		t.Fatalf("unexpected result %d, %v", code, err)
	}
	if stdout != "vlog95 version "+version+"\n" {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestEmitWritesOutputFile(t *testing.T) {
	tmp := t.TempDir()
	design := writeFile(t, tmp, "design.json", counterDesign)
	out := filepath.Join(tmp, "out.v")

	code, _, stderr, err := runCommand(t, "emit", "-o", out, "-indent", "4", "-fileline", design)
	if code != 0 || err != nil {
		t.Fatalf("emit failed with %d: %v\n%s", code, err, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"vlog95 version " + version,
		"    reg [3:0] q; // top.v:2\n",
		"    initial q = 4'h1; // top.v:3\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output is missing %q:\n%s", want, text)
		}
	}
}

func TestEmitFlagsOverrideConfigFile(t *testing.T) {
	tmp := t.TempDir()
	design := writeFile(t, tmp, "design.json", counterDesign)
	cfg := writeFile(t, tmp, "vlog95.json", `{"version": "1.0", "indent": 3}`)

	code, stdout, _, err := runCommand(t, "emit", "-config", cfg, design)
	if code != 0 || err != nil {
		t.Fatalf("emit failed with %d: %v", code, err)
	}
	if !strings.Contains(stdout, "\n   initial q = 4'h1;\n") {
		t.Fatalf("config indent not applied:\n%s", stdout)
	}

	code, stdout, _, err = runCommand(t, "emit", "-config", cfg, "-indent", "1", design)
	if code != 0 || err != nil {
		t.Fatalf("emit failed with %d: %v", code, err)
	}
	if !strings.Contains(stdout, "\n initial q = 4'h1;\n") {
		t.Fatalf("flag did not override config:\n%s", stdout)
	}

	bad := writeFile(t, tmp, "bad.json", `{"indent": "wide"}`)
	if code, _, _, err = runCommand(t, "emit", "-config", bad, design); code != 1 || err == nil {
		t.Fatalf("expected a config error, got %d, %v", code, err)
	}
}

func TestEmitExitStatusCountsErrors(t *testing.T) {
	tmp := t.TempDir()
	design := writeFile(t, tmp, "design.json", queueDesign)

	code, stdout, stderr, err := runCommand(t, "emit", design)
	if err != nil {
		t.Fatalf("emit aborted: %v", err)
	}
	if code != 1 {
		t.Fatalf("expected exit status 1, got %d", code)
	}
	if !strings.Contains(stderr, "top.v:4: vlog95 error: queue variable fifo") {
		t.Fatalf("unexpected diagnostics:\n%s", stderr)
	}
	if !strings.Contains(stdout, "<<< vlog95 generation failed with 1 error(s) >>>") {
		t.Fatalf("missing trailer:\n%s", stdout)
	}
}

func TestEmitExitStatusIsClamped(t *testing.T) {
	stubEmitVerilog(t, backend.Result{Errors: 300})
	design := writeFile(t, t.TempDir(), "design.json", counterDesign)
	code, _, _, err := runCommand(t, "emit", design)
	if err != nil || code != 255 {
		t.Fatalf("expected status 255, got %d, %v", code, err)
	}
}

func TestEmitStopsOnContractViolation(t *testing.T) {
	design := writeFile(t, t.TempDir(), "design.json", conflictDesign)
	code, stdout, stderr, err := runCommand(t, "emit", design)
	if code == 0 || err == nil {
		t.Fatalf("expected a failure, got %d, %v", code, err)
	}
	if stdout != "" {
		t.Fatalf("nothing should be written, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "2 drivers including variable r") {
		t.Fatalf("unexpected diagnostics:\n%s", stderr)
	}
}

func TestDumpAndCheckCommands(t *testing.T) {
	tmp := t.TempDir()
	design := writeFile(t, tmp, "design.json", counterDesign)

	code, stdout, _, err := runCommand(t, "dump", design)
	if code != 0 || err != nil {
		t.Fatalf("dump failed with %d: %v", code, err)
	}
	if !strings.Contains(stdout, "module top (top)") {
		t.Fatalf("unexpected dump:\n%s", stdout)
	}

	if code, _, _, err = runCommand(t, "check", design); code != 0 || err != nil {
		t.Fatalf("check failed with %d: %v", code, err)
	}
	conflict := writeFile(t, tmp, "conflict.json", conflictDesign)
	code, _, stderr, err := runCommand(t, "check", "-diag-format", "json", conflict)
	if code != 1 || err == nil {
		t.Fatalf("expected check to fail, got %d, %v", code, err)
	}
	if !strings.Contains(stderr, `"category":"invariant"`) {
		t.Fatalf("unexpected diagnostics:\n%s", stderr)
	}

	if code, _, _, err = runCommand(t, "dump", filepath.Join(tmp, "missing.json")); code != 1 || err == nil {
		t.Fatalf("expected an error for a missing design, got %d, %v", code, err)
	}
}
