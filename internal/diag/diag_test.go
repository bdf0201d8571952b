package diag

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestReporterTextFormat(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "text")
	r.Unsupportedf(Pos{File: "top.v", Line: 12}, "queues are not supported (%s)", "q")
	r.Warning(Pos{}, "2-state type converted")
	r.Errorf("no position %d", 1)

	if got := r.ErrorCount(); got != 2 {
		t.Fatalf("expected 2 errors, got %d", got)
	}
	if got := r.WarningCount(); got != 1 {
		t.Fatalf("expected 1 warning, got %d", got)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"top.v:12: vlog95 error: queues are not supported (q)",
		"vlog95 warning: 2-state type converted",
		"vlog95 error: no position 1",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %q", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestReporterJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "json")
	r.Unsupportedf(Pos{File: "a.v", Line: 3}, "power operator")

	var got map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("decode json diagnostic: %v", err)
	}
	if got["category"] != "unsupported" || got["severity"] != "error" {
		t.Fatalf("unexpected diagnostic: %v", got)
	}
	if got["line"].(float64) != 3 {
		t.Fatalf("expected line 3, got %v", got["line"])
	}
	if !r.HasErrors() {
		t.Fatalf("expected HasErrors")
	}
}

func TestNilReporterIsSafe(t *testing.T) {
	var r *Reporter
	r.Error(Pos{}, "ignored")
	if r.HasErrors() || r.ErrorCount() != 0 || r.Diagnostics() != nil {
		t.Fatalf("nil reporter should be inert")
	}
}
