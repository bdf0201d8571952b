package vlog95

import (
	"strings"

	"vlog95/internal/ir"
	"vlog95/internal/numfmt"
)

// emitSpecify renders the module path delays of a module.
func (p *printer) emitSpecify(s *ir.Scope) {
	if len(s.Paths) == 0 {
		return
	}
	p.line(ir.Pos{}, "specify")
	p.indent++
	for _, path := range s.Paths {
		src := p.design.Signal(path.Source)
		dst := p.design.Signal(path.Dest)
		if src == nil || dst == nil {
			p.fatalf(path.Pos, "module path between unknown signals")
		}
		if len(path.Delays) == 0 {
			p.fatalf(path.Pos, "module path without delays")
		}
		arrow := "=>"
		if path.Full {
			arrow = "*>"
		}
		delays := make([]string, len(path.Delays))
		for i, d := range path.Delays {
			delays[i] = numfmt.ScaledDelay(d, s.TimeUnit, p.design.Precision)
		}
		value := delays[0]
		if len(delays) > 1 {
			value = "(" + strings.Join(delays, ", ") + ")"
		}
		cond := ""
		if path.Cond != nil {
			cond = "if (" + p.cond(s.ID, path.Cond) + ") "
		}
		p.line(path.Pos, "%s(%s %s %s) = %s;", cond, p.signalName(s.ID, src), arrow, p.signalName(s.ID, dst), value)
	}
	p.indent--
	p.line(ir.Pos{}, "endspecify")
}
