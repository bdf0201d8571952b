package passes

import (
	"fmt"

	"vlog95/internal/diag"
	"vlog95/internal/ir"
)

// Structure checks the shape of the arena: IDs in range, symmetric
// parent/child links and the port lists of tasks and functions.
type Structure struct {
	reporter *diag.Reporter
	errors   int
}

// NewStructure constructs the pass.
func NewStructure(reporter *diag.Reporter) *Structure {
	return &Structure{reporter: reporter}
}

// Name implements the Pass interface.
func (s *Structure) Name() string {
	return "structure"
}

// Run executes the pass over the entire design.
func (s *Structure) Run(design *ir.Design) error {
	if design == nil {
		return fmt.Errorf("structure check requires a non-nil design")
	}
	s.errors = 0
	for _, id := range design.Roots {
		if sc := design.Scope(id); sc == nil || sc.Parent != 0 {
			s.report(ir.Pos{}, fmt.Sprintf("root %d is not a top-level scope", id))
		}
	}
	for _, sc := range design.Scopes {
		s.visitScope(design, sc)
	}
	for _, sig := range design.Signals {
		if design.Scope(sig.Scope) == nil {
			s.report(sig.Pos, fmt.Sprintf("signal %s belongs to unknown scope %d", sig.Name, sig.Scope))
		}
		for _, nex := range sig.Nexus {
			if design.Nexus(nex) == nil {
				s.report(sig.Pos, fmt.Sprintf("signal %s references unknown nexus %d", sig.Name, nex))
			}
		}
	}
	for _, dev := range design.Devices {
		for _, pin := range dev.Pins() {
			if design.Nexus(pin.Nexus) == nil {
				s.report(dev.Pos, fmt.Sprintf("%s device references unknown nexus %d", dev.Kind, pin.Nexus))
			}
		}
		if dev.Kind == ir.GateUDP && design.UDP(dev.UDP) == nil {
			s.report(dev.Pos, fmt.Sprintf("primitive instance references unknown definition %d", dev.UDP))
		}
	}
	if s.errors > 0 {
		return fmt.Errorf("%d structural issue(s)", s.errors)
	}
	return nil
}

func (s *Structure) visitScope(design *ir.Design, sc *ir.Scope) {
	if sc.Parent != 0 {
		parent := design.Scope(sc.Parent)
		if parent == nil || !containsScope(parent.Children, sc.ID) {
			s.report(sc.Pos, fmt.Sprintf("scope %s is not listed by its parent", sc.Name))
		}
	}
	for _, child := range sc.Children {
		c := design.Scope(child)
		if c == nil || c.Parent != sc.ID {
			s.report(sc.Pos, fmt.Sprintf("scope %s lists child %d that does not name it as parent", sc.Name, child))
		}
	}
	for _, id := range sc.Signals {
		if sig := design.Signal(id); sig == nil || sig.Scope != sc.ID {
			s.report(sc.Pos, fmt.Sprintf("scope %s lists signal %d it does not own", sc.Name, id))
		}
	}
	if sc.Kind != ir.ScopeTask && sc.Kind != ir.ScopeFunction {
		return
	}
	if sc.Kind == ir.ScopeFunction && len(sc.Ports) == 0 {
		s.report(sc.Pos, fmt.Sprintf("function %s has no port list", sc.Name))
		return
	}
	for i, id := range sc.Ports {
		sig := design.Signal(id)
		switch {
		case sig == nil || sig.Scope != sc.ID:
			s.report(sc.Pos, fmt.Sprintf("%s %s port %d is not owned by it", sc.Kind, sc.Name, id))
		case i == 0 && sc.Kind == ir.ScopeFunction && sig.Port == ir.PortInput:
			s.report(sig.Pos, fmt.Sprintf("function %s must list its return value first", sc.Name))
		}
	}
}

func (s *Structure) report(pos ir.Pos, msg string) {
	s.errors++
	if s.reporter != nil {
		s.reporter.Report(diag.Diagnostic{Severity: diag.SeverityError, Category: diag.Invariant, Pos: pos, Message: msg})
	}
}

func containsScope(list []ir.ScopeID, id ir.ScopeID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
