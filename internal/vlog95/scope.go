package vlog95

import (
	"fmt"
	"strconv"
	"strings"

	"vlog95/internal/ir"
	"vlog95/internal/names"
	"vlog95/internal/numfmt"
)

func (p *printer) emitRoot(id ir.ScopeID) {
	s := p.design.Scope(id)
	if s == nil {
		p.fatalf(ir.Pos{}, "unknown root scope %d", id)
	}
	switch s.Kind {
	case ir.ScopeModule, ir.ScopePackage:
		p.emitModuleTree(id)
	case ir.ScopeClass:
		p.unsupported(s.Pos, "class %s", s.Name)
	default:
		p.unsupported(s.Pos, "%s %s outside of a module", s.Kind, s.Name)
	}
}

// emitModuleTree emits the module definition of instance id and then the
// definitions of every module instantiated below it.
func (p *printer) emitModuleTree(id ir.ScopeID) {
	p.emitModule(id)
	for _, item := range p.bodyScopes(id) {
		for _, child := range p.design.Scope(item).Children {
			if c := p.design.Scope(child); c.IsModuleLike() {
				p.emitModuleTree(child)
			}
		}
	}
}

// bodyScopes lists the module and its generate scopes, which are
// flattened into the module body, in depth-first order.
func (p *printer) bodyScopes(id ir.ScopeID) []ir.ScopeID {
	out := []ir.ScopeID{id}
	for _, child := range p.design.Scope(id).Children {
		if c := p.design.Scope(child); c != nil && c.Kind == ir.ScopeGenerate {
			out = append(out, p.bodyScopes(child)...)
		}
	}
	return out
}

func (p *printer) emitModule(id ir.ScopeID) {
	s := p.design.Scope(id)
	name := p.names.ModuleName(id)
	if p.emitted[name] {
		return
	}
	p.emitted[name] = true
	items := p.bodyScopes(id)
	p.mod = &moduleState{scope: id, consts: make(map[ir.NexusID]bool)}
	defer func() { p.mod = nil }()
	p.indent = 1

	body := p.capture(func() {
		p.emitConstDrivers(items)
		for _, sc := range items {
			for _, did := range p.design.Scope(sc).Devices {
				dev := p.design.Device(did)
				if dev == nil {
					p.fatalf(s.Pos, "scope %s lists unknown device %d", s.Name, did)
				}
				p.emitDevice(sc, dev)
			}
		}
		for _, sc := range items {
			for _, child := range p.design.Scope(sc).Children {
				c := p.design.Scope(child)
				switch {
				case c.IsModuleLike():
					p.emitInstance(sc, c)
				case c.Kind == ir.ScopeClass:
					p.unsupported(c.Pos, "class %s", c.Name)
				}
			}
		}
		p.emitProcesses(items)
		p.emitTaskFuncs(items)
		p.emitSpecify(s)
	})
	decls := p.capture(func() {
		p.declarePorts(s)
		p.declareParams(items)
		p.declareVars(items)
		p.declareNets(items)
		p.declareEvents(items)
	})

	fmt.Fprintf(p.out, "`timescale %s/%s\n", numfmt.TimeLiteral(s.TimeUnit), numfmt.TimeLiteral(s.TimePrecision))
	if len(s.Ports) == 0 {
		fmt.Fprintf(p.out, "module %s;\n", name)
	} else {
		ports := make([]string, len(s.Ports))
		for i, pid := range s.Ports {
			ports[i] = p.names.LocalName(id, p.design.Signal(pid).Name)
		}
		fmt.Fprintf(p.out, "module %s(%s);\n", name, strings.Join(ports, ", "))
	}
	p.out.WriteString(decls)
	if decls != "" && body != "" {
		p.out.WriteString("\n")
	}
	p.out.WriteString(body)
	fmt.Fprintf(p.out, "endmodule\n\n")
	p.indent = 0
}

// signature keys module instances whose bodies are identical: instances
// of one type with equal parameter overrides.
func (p *printer) signature(s *ir.Scope) string {
	var sb strings.Builder
	for _, prm := range s.Params {
		if prm.Local {
			continue
		}
		fmt.Fprintf(&sb, "%s=%s;", prm.Name, constKey(prm.Value))
	}
	return sb.String()
}

func constKey(e ir.Expr) string {
	switch v := e.(type) {
	case *ir.NumberExpr:
		return fmt.Sprintf("%t:%s", v.Signed, v.Bits)
	case *ir.RealExpr:
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case *ir.StringExpr:
		return strconv.Quote(v.Value)
	case *ir.ParamExpr:
		if v.Value != nil {
			return constKey(v.Value)
		}
	}
	// Unknown shapes never compare equal.
	return fmt.Sprintf("%p", e)
}

func (p *printer) rangeText(sig *ir.Signal) string {
	if sig.MSB == 0 && sig.LSB == 0 {
		return ""
	}
	return fmt.Sprintf(" [%d:%d]", sig.MSB, sig.LSB)
}

// signedText returns the signed keyword for sig, or reports once that the
// declaration loses its signedness.
func (p *printer) signedText(sig *ir.Signal) string {
	if !sig.Signed || sig.Integer || sig.Type == ir.TypeReal {
		return ""
	}
	if p.opts.AllowSigned {
		return " signed"
	}
	if !p.signedDone[sig.ID] {
		p.signedDone[sig.ID] = true
		p.unsupported(sig.Pos, "signed declaration of %s needs signed support", sig.Name)
	}
	return ""
}

func (p *printer) arrayText(sig *ir.Signal) string {
	if !sig.IsArray() {
		return ""
	}
	a := sig.Array
	if a.Dims > 1 {
		p.unsupported(sig.Pos, "multi-dimensional array %s", sig.Name)
	}
	lo, hi := a.Base, a.Base+a.Count-1
	if a.Swapped {
		return fmt.Sprintf(" [%d:%d]", hi, lo)
	}
	return fmt.Sprintf(" [%d:%d]", lo, hi)
}

func (p *printer) declarePorts(s *ir.Scope) {
	for _, pid := range s.Ports {
		sig := p.design.Signal(pid)
		if sig == nil {
			p.fatalf(s.Pos, "scope %s lists unknown port %d", s.Name, pid)
		}
		if sig.IsArray() {
			p.unsupported(sig.Pos, "array port %s", sig.Name)
		}
		p.line(sig.Pos, "%s%s%s %s;", sig.Port, p.signedText(sig), p.rangeText(sig), p.names.LocalName(s.ID, sig.Name))
	}
}

func (p *printer) declareParams(scopes []ir.ScopeID) {
	for _, id := range scopes {
		for _, prm := range p.design.Scope(id).Params {
			if prm.Value == nil {
				p.fatalf(prm.Pos, "parameter %s has no value", prm.Name)
			}
			p.line(prm.Pos, "parameter %s = %s;", p.names.LocalName(id, prm.Name), p.top(p.expr(id, prm.Value, exprCtx{})))
		}
	}
}

// typedPort reports whether a port needs a variable declaration besides
// its direction in a task or function.
func typedPort(sig *ir.Signal) bool {
	return sig.Integer || sig.Time || sig.Type == ir.TypeReal
}

// declareVars declares the variables of scopes. Compiler-generated
// variables are declared only when something referenced them.
func (p *printer) declareVars(scopes []ir.ScopeID) {
	for _, id := range scopes {
		s := p.design.Scope(id)
		for _, sid := range s.Signals {
			sig := p.design.Signal(sid)
			if sig == nil || sig.IsNet() {
				continue
			}
			if sig.Local && !p.used[sig.ID] {
				continue
			}
			if sig.Port != ir.PortNone && !s.IsModuleLike() {
				if !typedPort(sig) || (s.Kind == ir.ScopeFunction && len(s.Ports) > 0 && s.Ports[0] == sid) {
					continue
				}
			}
			p.declareVar(id, sig)
		}
	}
}

func (p *printer) declareVar(scope ir.ScopeID, sig *ir.Signal) {
	name := p.names.LocalName(scope, sig.Name)
	switch sig.Type {
	case ir.TypeString, ir.TypeClass, ir.TypeDArray, ir.TypeQueue, ir.TypeVoid:
		p.unsupported(sig.Pos, "%s variable %s", sig.Type, sig.Name)
		p.line(sig.Pos, "reg %s;", name)
		return
	case ir.TypeReal:
		if sig.IsArray() {
			p.unsupported(sig.Pos, "real array %s", sig.Name)
		}
		p.line(sig.Pos, "real %s;", name)
		return
	case ir.TypeBool:
		p.warn(sig.Pos, "2-state variable %s is emitted as a 4-state reg", sig.Name)
	}
	array := p.arrayText(sig)
	switch {
	case sig.Integer:
		p.line(sig.Pos, "integer %s%s;", name, array)
	case sig.Time:
		p.line(sig.Pos, "time %s%s;", name, array)
	default:
		p.line(sig.Pos, "reg%s%s %s%s;", p.signedText(sig), p.rangeText(sig), name, array)
	}
}

// declareNets declares the nets of scopes followed by the nets the
// module body synthesized.
func (p *printer) declareNets(scopes []ir.ScopeID) {
	for _, id := range scopes {
		for _, sid := range p.design.Scope(id).Signals {
			sig := p.design.Signal(sid)
			if sig == nil || !sig.IsNet() {
				continue
			}
			if sig.Local && !p.used[sig.ID] {
				continue
			}
			if sig.Port != ir.PortNone && (sig.Kind == ir.KindWire || sig.Kind == ir.KindTri) {
				continue
			}
			kw := sig.Kind.Keyword()
			if sig.Kind == ir.KindUwire {
				p.unsupported(sig.Pos, "uwire net %s", sig.Name)
				kw = "wire"
			}
			if sig.Type == ir.TypeReal {
				p.unsupported(sig.Pos, "real net %s", sig.Name)
			}
			if sig.IsArray() {
				p.unsupported(sig.Pos, "net array %s", sig.Name)
			}
			p.line(sig.Pos, "%s%s%s %s;", kw, p.signedText(sig), p.rangeText(sig), p.names.LocalName(id, sig.Name))
		}
	}
	if p.mod == nil {
		return
	}
	for _, nex := range p.mod.nets {
		name := p.nexusNames[localKey{module: p.mod.scope, nexus: nex}]
		if w := p.design.Nexus(nex).Width; w > 1 {
			p.line(ir.Pos{}, "wire [%d:0] %s;", w-1, name)
		} else {
			p.line(ir.Pos{}, "wire %s;", name)
		}
	}
}

// emitConstDrivers assigns constants that drive named nexuses of the
// module. A constant on an input port belongs to the instantiating
// module, and one on the output of a child instance to the child.
func (p *printer) emitConstDrivers(items []ir.ScopeID) {
	visit := func(scope ir.ScopeID, nex ir.NexusID) {
		if nex == 0 || p.mod.consts[nex] {
			return
		}
		p.mod.consts[nex] = true
		drv, count := p.ResolveDriver(nex)
		if count != 1 || drv.Kind != DriverConst || p.IsLocal(scope, nex) || !p.ownsConst(nex) {
			return
		}
		target := p.namedNexus(scope, nex).text
		p.line(ir.Pos{}, "assign%s %s = %s;", p.strength(drv.Drive0, drv.Drive1), target, p.literal(drv.Value, false, ir.Pos{}))
	}
	for _, sc := range items {
		s := p.design.Scope(sc)
		for _, sid := range s.Signals {
			for _, nex := range p.design.Signal(sid).Nexus {
				visit(sc, nex)
			}
		}
		for _, did := range s.Devices {
			for _, pin := range p.design.Device(did).Pins() {
				visit(sc, pin.Nexus)
			}
		}
		for _, child := range s.Children {
			c := p.design.Scope(child)
			if !c.IsModuleLike() {
				continue
			}
			for _, pid := range c.Ports {
				for _, nex := range p.design.Signal(pid).Nexus {
					visit(sc, nex)
				}
			}
		}
	}
}

func (p *printer) ownsConst(nex ir.NexusID) bool {
	for _, t := range p.design.Nexus(nex).Terminals {
		if t.Kind != ir.TermSignal {
			continue
		}
		sig := p.design.Signal(t.Signal)
		if sig == nil || sig.Port == ir.PortNone {
			continue
		}
		mod := p.names.Module(sig.Scope)
		if mod == p.mod.scope && sig.Port == ir.PortInput && p.design.Scope(sig.Scope).IsModuleLike() {
			return false
		}
		if mod != p.mod.scope && sig.Port != ir.PortInput && p.within(mod, p.mod.scope) {
			return false
		}
	}
	return true
}

// within reports whether scope id lies strictly below anc.
func (p *printer) within(id, anc ir.ScopeID) bool {
	for s := p.design.Scope(id); s != nil; s = p.design.Scope(s.Parent) {
		if s.Parent == anc {
			return true
		}
	}
	return false
}

// touchedOutside reports whether anything outside the subtree of child, or
// a constant, is attached to nex.
func (p *printer) touchedOutside(child ir.ScopeID, nex ir.NexusID) bool {
	for _, t := range p.design.Nexus(nex).Terminals {
		var owner ir.ScopeID
		switch t.Kind {
		case ir.TermConst:
			return true
		case ir.TermSignal:
			owner = p.design.Signal(t.Signal).Scope
		case ir.TermDevice:
			owner = p.design.Device(t.Device).Scope
		}
		if owner != child && !p.within(owner, child) {
			return true
		}
	}
	return false
}

// emitInstance renders the instantiation of module instance c inside the
// body scope of its parent.
func (p *printer) emitInstance(scope ir.ScopeID, c *ir.Scope) {
	conns := make([]string, 0, len(c.Ports))
	for _, pid := range c.Ports {
		sig := p.design.Signal(pid)
		if sig == nil || len(sig.Nexus) == 0 {
			p.fatalf(c.Pos, "instance %s has an unknown port %d", c.Name, pid)
		}
		nex := sig.Nexus[0]
		text := ""
		if p.touchedOutside(c.ID, nex) {
			if sig.Port == ir.PortInput {
				text = p.top(p.nexusText(scope, nex))
			} else {
				text = p.namedNexus(scope, nex).text
			}
		}
		conns = append(conns, fmt.Sprintf(".%s(%s)", names.Escape(sig.Name), text))
	}
	p.line(c.Pos, "%s %s(%s);", p.names.ModuleName(c.ID), p.names.ScopeName(c.ID), strings.Join(conns, ", "))
}

func (p *printer) emitProcesses(items []ir.ScopeID) {
	for _, sc := range items {
		for _, proc := range p.design.Scope(sc).Processes {
			kw := "initial"
			switch proc.Kind {
			case ir.ProcAlways:
				kw = "always"
			case ir.ProcAlwaysComb, ir.ProcAlwaysFF, ir.ProcAlwaysLatch:
				p.warn(proc.Pos, "%s is emitted as always", proc.Kind)
				kw = "always"
			case ir.ProcFinal:
				p.unsupported(proc.Pos, "final block")
				p.line(proc.Pos, "// final block omitted")
				continue
			}
			p.stmtAfter(sc, kw, proc.Body, proc.Pos)
		}
	}
}

func (p *printer) emitTaskFuncs(items []ir.ScopeID) {
	for _, sc := range items {
		for _, child := range p.design.Scope(sc).Children {
			c := p.design.Scope(child)
			if c.Kind == ir.ScopeTask || c.Kind == ir.ScopeFunction {
				p.emitTaskFunc(c)
			}
		}
	}
}

func (p *printer) emitTaskFunc(s *ir.Scope) {
	if s.Automatic {
		p.unsupported(s.Pos, "automatic %s %s", s.Kind, s.Name)
	}
	name := p.names.ScopeName(s.ID)
	ports := s.Ports
	end := "endtask"
	if s.Kind == ir.ScopeFunction {
		if len(ports) == 0 {
			p.fatalf(s.Pos, "function %s has no port list", s.Name)
		}
		p.line(s.Pos, "function%s %s;", p.returnType(p.design.Signal(ports[0])), name)
		ports = ports[1:]
		end = "endfunction"
	} else {
		p.line(s.Pos, "task %s;", name)
	}
	p.indent++
	body := p.capture(func() { p.stmt(s.ID, s.Body) })
	for _, pid := range ports {
		sig := p.design.Signal(pid)
		p.line(sig.Pos, "%s%s%s %s;", sig.Port, p.signedText(sig), p.rangeText(sig), p.names.LocalName(s.ID, sig.Name))
	}
	p.declareParams([]ir.ScopeID{s.ID})
	p.declareVars([]ir.ScopeID{s.ID})
	p.declareEvents([]ir.ScopeID{s.ID})
	p.buf.WriteString(body)
	p.indent--
	p.line(ir.Pos{}, "%s", end)
}

func (p *printer) returnType(ret *ir.Signal) string {
	if ret == nil {
		return ""
	}
	switch {
	case ret.Type == ir.TypeVoid:
		p.unsupported(ret.Pos, "void function %s", ret.Name)
		return ""
	case ret.Type == ir.TypeReal:
		return " real"
	case ret.Integer:
		return " integer"
	}
	return p.signedText(ret) + p.rangeText(ret)
}
