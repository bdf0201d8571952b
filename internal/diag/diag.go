package diag

import (
	"encoding/json"
	"fmt"
	"io"
)

// Pos is the source provenance carried by IR nodes.
type Pos struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// IsValid reports whether the position names a file.
func (p Pos) IsValid() bool {
	return p.File != ""
}

func (p Pos) String() string {
	if !p.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Severity orders diagnostics; only errors contribute to the exit status.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Category classifies why a diagnostic was raised.
type Category string

const (
	// Unsupported marks source constructs the 1995 dialect cannot express.
	Unsupported Category = "unsupported"
	// Invariant marks a broken contract between the front end and the backend.
	Invariant Category = "invariant"
	// IO marks file-system failures.
	IO Category = "io"
	// General is used for diagnostics without a more specific class.
	General Category = "general"
)

// Diagnostic is one reported message.
type Diagnostic struct {
	Severity Severity
	Category Category
	Pos      Pos
	Message  string
}

// Reporter collects diagnostics and streams them to w in the configured
// format ("text" or "json").
type Reporter struct {
	w        io.Writer
	format   string
	diags    []Diagnostic
	errors   int
	warnings int
}

// NewReporter creates a reporter. Unknown formats fall back to text.
func NewReporter(w io.Writer, format string) *Reporter {
	if w == nil {
		w = io.Discard
	}
	if format != "json" {
		format = "text"
	}
	return &Reporter{w: w, format: format}
}

// Error reports an error at pos.
func (r *Reporter) Error(pos Pos, msg string) {
	r.report(Diagnostic{Severity: SeverityError, Category: General, Pos: pos, Message: msg})
}

// Errorf reports an error without a source position.
func (r *Reporter) Errorf(format string, args ...interface{}) {
	r.report(Diagnostic{Severity: SeverityError, Category: General, Message: fmt.Sprintf(format, args...)})
}

// Warning reports a non-counting diagnostic at pos.
func (r *Reporter) Warning(pos Pos, msg string) {
	r.report(Diagnostic{Severity: SeverityWarning, Category: General, Pos: pos, Message: msg})
}

// Unsupportedf reports a construct that has no 1995 rendering.
func (r *Reporter) Unsupportedf(pos Pos, format string, args ...interface{}) {
	r.report(Diagnostic{Severity: SeverityError, Category: Unsupported, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Report records an already built diagnostic.
func (r *Reporter) Report(d Diagnostic) {
	r.report(d)
}

func (r *Reporter) report(d Diagnostic) {
	if r == nil {
		return
	}
	r.diags = append(r.diags, d)
	if d.Severity == SeverityError {
		r.errors++
	} else {
		r.warnings++
	}
	r.write(d)
}

type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

func (r *Reporter) write(d Diagnostic) {
	if r.format == "json" {
		data, err := json.Marshal(jsonDiagnostic{
			Severity: d.Severity.String(),
			Category: string(d.Category),
			File:     d.Pos.File,
			Line:     d.Pos.Line,
			Message:  d.Message,
		})
		if err != nil {
			return
		}
		fmt.Fprintf(r.w, "%s\n", data)
		return
	}
	if d.Pos.IsValid() {
		fmt.Fprintf(r.w, "%s: vlog95 %s: %s\n", d.Pos, d.Severity, d.Message)
		return
	}
	fmt.Fprintf(r.w, "vlog95 %s: %s\n", d.Severity, d.Message)
}

// HasErrors reports whether any error-class diagnostic was recorded.
func (r *Reporter) HasErrors() bool {
	return r != nil && r.errors > 0
}

// ErrorCount returns the number of error-class diagnostics.
func (r *Reporter) ErrorCount() int {
	if r == nil {
		return 0
	}
	return r.errors
}

// WarningCount returns the number of warnings.
func (r *Reporter) WarningCount() int {
	if r == nil {
		return 0
	}
	return r.warnings
}

// Diagnostics returns every recorded diagnostic in report order.
func (r *Reporter) Diagnostics() []Diagnostic {
	if r == nil {
		return nil
	}
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}
