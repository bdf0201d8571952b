package passes

import (
	"fmt"

	"vlog95/internal/diag"
	"vlog95/internal/ir"
)

// Drivers rejects nexuses where a variable or a constant shares the net
// with another driver. Several gates driving one resolved net are legal,
// but a warning is raised when more than one of them always drives strong.
type Drivers struct {
	reporter *diag.Reporter
	errors   int
}

// NewDrivers constructs the pass.
func NewDrivers(reporter *diag.Reporter) *Drivers {
	return &Drivers{reporter: reporter}
}

// Name implements the Pass interface.
func (d *Drivers) Name() string {
	return "drivers"
}

// Run executes the pass over the entire design.
func (d *Drivers) Run(design *ir.Design) error {
	if design == nil {
		return fmt.Errorf("driver check requires a non-nil design")
	}
	d.errors = 0
	for _, nex := range design.Nexuses {
		d.visitNexus(design, nex)
	}
	if d.errors > 0 {
		return fmt.Errorf("%d nexus(es) with conflicting drivers", d.errors)
	}
	return nil
}

func (d *Drivers) visitNexus(design *ir.Design, nex *ir.Nexus) {
	count, strong := 0, 0
	var strict []string
	var pos ir.Pos
	for _, t := range nex.Terminals {
		if !t.IsDriver() {
			continue
		}
		switch t.Kind {
		case ir.TermSignal:
			sig := design.Signal(t.Signal)
			if sig == nil || sig.IsNet() {
				continue
			}
			strict = append(strict, "variable "+sig.Name)
			pos = sig.Pos
		case ir.TermDevice:
			if t.Role != ir.PinOutput {
				continue
			}
			if dev := design.Device(t.Device); dev != nil && alwaysStrong(dev, t) {
				strong++
				pos = dev.Pos
			}
		case ir.TermConst:
			strict = append(strict, "constant "+t.Value.String())
		}
		count++
	}
	if count < 2 {
		return
	}
	if len(strict) == 0 {
		if strong > 1 && d.reporter != nil {
			d.reporter.Warning(pos, fmt.Sprintf("nexus %d has %d strong drivers that are never high impedance", nex.ID, strong))
		}
		return
	}
	d.errors++
	if d.reporter == nil {
		return
	}
	d.reporter.Report(diag.Diagnostic{
		Severity: diag.SeverityError,
		Category: diag.Invariant,
		Pos:      pos,
		Message:  fmt.Sprintf("nexus %d has %d drivers including %s", nex.ID, count, describe(strict)),
	})
}

func describe(list []string) string {
	if len(list) == 1 {
		return list[0]
	}
	return fmt.Sprintf("%s and %d more", list[0], len(list)-1)
}

// alwaysStrong reports whether the output pin t of dev drives both levels
// at strong strength and has no high impedance state.
func alwaysStrong(dev *ir.Device, t ir.Terminal) bool {
	if t.Drive0 != ir.StrengthStrong || t.Drive1 != ir.StrengthStrong {
		return false
	}
	switch {
	case dev.Kind >= ir.GateBufif0 && dev.Kind <= ir.GateRcmos:
		return false
	case dev.Kind.IsSwitch(), dev.Kind == ir.GatePullup, dev.Kind == ir.GatePulldown:
		return false
	}
	return true
}
