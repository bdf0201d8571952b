package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOverridesDefaults(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Config
	}{
		{
			name: "empty",
			data: `{}`,
			want: Config{Version: "1.0", Indent: 2, DiagFormat: "text"},
		},
		{
			name: "all fields",
			data: `{"version": "1.2.0", "indent": 4, "fileLine": true, "allowSigned": true, "diagFormat": "json"}`,
			want: Config{Version: "1.2.0", Indent: 4, FileLine: true, AllowSigned: true, DiagFormat: "json"},
		},
		{
			name: "indent capped",
			data: `{"indent": 40}`,
			want: Config{Version: "1.0", Indent: MaxIndent, DiagFormat: "text"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if diff := cmp.Diff(tt.want, *got); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "unknown field", data: `{"indnt": 2}`, want: "schema validation failed"},
		{name: "bad format", data: `{"diagFormat": "xml"}`, want: "schema validation failed"},
		{name: "zero indent", data: `{"indent": 0}`, want: "schema validation failed"},
		{name: "wrong type", data: `{"fileLine": "yes"}`, want: "schema validation failed"},
		{name: "future version", data: `{"version": "2.0"}`, want: "is not supported"},
		{name: "bad version", data: `{"version": "one"}`, want: `version "one"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	if _, ok := Find(dir); ok {
		t.Fatalf("found a config in an empty directory")
	}
	hidden := filepath.Join(dir, ".vlog95.json")
	if err := os.WriteFile(hidden, []byte(`{"indent": 3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	path, ok := Find(dir)
	if !ok || path != hidden {
		t.Fatalf("Find = %q, %v", path, ok)
	}
	visible := filepath.Join(dir, "vlog95.json")
	if err := os.WriteFile(visible, []byte(`{"indent": 5}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if path, _ = Find(dir); path != visible {
		t.Fatalf("Find preferred %q", path)
	}

	cfg, err := Load(visible)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Indent != 5 || cfg.Path != visible {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
