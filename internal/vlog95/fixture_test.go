package vlog95

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"vlog95/internal/ir"
)

// Each testdata archive holds a design.json, optional options and errors
// sections, and one or more contains* sections that must appear verbatim
// in the generated text.
func TestFixtures(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no fixtures found")
	}
	for _, file := range files {
		file := file
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			sections := make(map[string][]byte)
			for _, f := range ar.Files {
				sections[f.Name] = f.Data
			}
			design, err := ir.Decode(bytes.NewReader(sections["design.json"]))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			var opts Options
			if data, ok := sections["options"]; ok {
				if err := json.Unmarshal(data, &opts); err != nil {
					t.Fatalf("options: %v", err)
				}
			}
			wantErrors := 0
			if data, ok := sections["errors"]; ok {
				if wantErrors, err = strconv.Atoi(strings.TrimSpace(string(data))); err != nil {
					t.Fatalf("errors section: %v", err)
				}
			}

			r := emitDesign(t, design, opts)
			if r.err != nil {
				t.Fatalf("Emit failed: %v\n%s", r.err, r.log)
			}
			if r.count != wantErrors {
				t.Errorf("got %d errors, want %d:\n%s", r.count, wantErrors, r.log)
			}
			for _, f := range ar.Files {
				if !strings.HasPrefix(f.Name, "contains") {
					continue
				}
				if !strings.Contains(r.out, string(f.Data)) {
					t.Errorf("section %s not found in output:\n%s\noutput:\n%s", f.Name, f.Data, r.out)
				}
			}
		})
	}
}
