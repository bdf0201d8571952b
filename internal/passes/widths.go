package passes

import (
	"fmt"

	"vlog95/internal/diag"
	"vlog95/internal/ir"
)

// Widths checks that every nexus is as wide as the signal words and
// vector cells attached to it.
type Widths struct {
	reporter *diag.Reporter
	errors   int
}

// NewWidths constructs the pass. reporter is optional but recommended
// so the pass can surface precise diagnostics.
func NewWidths(reporter *diag.Reporter) *Widths {
	return &Widths{reporter: reporter}
}

// Name implements the Pass interface.
func (w *Widths) Name() string {
	return "widths"
}

// Run executes the pass over the entire design.
func (w *Widths) Run(design *ir.Design) error {
	if design == nil {
		return fmt.Errorf("width check requires a non-nil design")
	}
	w.errors = 0
	for _, sig := range design.Signals {
		if sig.Type != ir.TypeLogic && sig.Type != ir.TypeBool {
			continue
		}
		for word, id := range sig.Nexus {
			nex := design.Nexus(id)
			if nex == nil || nex.Width == sig.Width() {
				continue
			}
			w.report(sig.Pos, fmt.Sprintf("word %d of %s is %d bits wide but its nexus carries %d",
				word, signalLabel(sig), sig.Width(), nex.Width))
		}
	}
	for _, dev := range design.Devices {
		if !vectorCell(dev.Kind) || dev.Width == 0 {
			continue
		}
		nex := design.Nexus(dev.Output)
		if nex == nil || nex.Width == dev.Width {
			continue
		}
		w.report(dev.Pos, fmt.Sprintf("%s cell produces %d bits into a %d-bit nexus", dev.Kind, dev.Width, nex.Width))
	}
	if w.errors > 0 {
		return fmt.Errorf("%d width mismatch(es)", w.errors)
	}
	return nil
}

func vectorCell(kind ir.DeviceKind) bool {
	switch kind {
	case ir.LPMAdd, ir.LPMSub, ir.LPMMult, ir.LPMDiv, ir.LPMMod, ir.LPMMux:
		return true
	}
	return false
}

func (w *Widths) report(pos ir.Pos, msg string) {
	w.errors++
	if w.reporter != nil {
		w.reporter.Report(diag.Diagnostic{Severity: diag.SeverityError, Category: diag.Invariant, Pos: pos, Message: msg})
	}
}

func signalLabel(sig *ir.Signal) string {
	if sig == nil || sig.Name == "" {
		return "value"
	}
	return fmt.Sprintf("signal %q", sig.Name)
}
