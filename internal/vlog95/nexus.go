package vlog95

import (
	"fmt"

	"vlog95/internal/ir"
	"vlog95/internal/numfmt"
)

// DriverKind classifies what asserts the value of a nexus.
type DriverKind int

const (
	DriverNone DriverKind = iota
	DriverDevice
	DriverConst
	DriverSignal
)

// Driver is the single driver of a nexus.
type Driver struct {
	Kind   DriverKind
	Device *ir.Device
	Value  ir.Bits
	Signal *ir.Signal
	Word   int
	Drive0 ir.Strength
	Drive1 ir.Strength
}

// ResolveDriver returns the driver of nex and the number of drivers found.
// The constant drive a net asserts through its own declaration (supply
// and pull nets) does not count. More than one driver is an invariant
// violation when a variable or a constant is among them; several devices
// may legitimately drive a resolved net.
func (p *printer) ResolveDriver(nex ir.NexusID) (Driver, int) {
	n := p.design.Nexus(nex)
	if n == nil {
		p.fatalf(ir.Pos{}, "reference to unknown nexus %d", nex)
	}
	var drv Driver
	count := 0
	strict := false
	for _, t := range n.Terminals {
		if !t.IsDriver() {
			continue
		}
		var d Driver
		switch t.Kind {
		case ir.TermSignal:
			sig := p.design.Signal(t.Signal)
			if sig == nil || sig.IsNet() {
				continue
			}
			d = Driver{Kind: DriverSignal, Signal: sig, Word: t.Word}
			strict = true
		case ir.TermDevice:
			if t.Role != ir.PinOutput {
				continue
			}
			d = Driver{Kind: DriverDevice, Device: p.design.Device(t.Device)}
		case ir.TermConst:
			d = Driver{Kind: DriverConst, Value: t.Value}
			strict = true
		}
		d.Drive0, d.Drive1 = t.Drive0, t.Drive1
		if count == 0 {
			drv = d
		}
		count++
	}
	if count > 1 && strict {
		p.fatalf(ir.Pos{}, "nexus %d has %d drivers including a variable or constant", nex, count)
	}
	if count > 1 {
		return Driver{}, count
	}
	return drv, count
}

// pinNeedsName reports whether the pin of dev must be connected to an
// identifier rather than an arbitrary expression.
func pinNeedsName(dev *ir.Device, role ir.PinRole) bool {
	switch dev.Kind {
	case ir.LPMFF, ir.LPMLatch:
		return true
	case ir.LPMMux:
		return role == ir.PinSelect && dev.SelectWidth > 1
	case ir.LPMPartVP, ir.LPMSignExt, ir.LPMSubstitute, ir.LPMAbs:
		return role == ir.PinInput
	case ir.LPMPartPV:
		return role == ir.PinOutput
	}
	if dev.Kind.IsSwitch() {
		return true
	}
	// Primitive instances need a net on their output terminal.
	return role == ir.PinOutput && !exprForm(dev)
}

// exprForm reports whether dev is rendered as an expression rather than
// as an instance.
func exprForm(dev *ir.Device) bool {
	switch {
	case dev.Kind.IsSwitch():
		return false
	case dev.Kind == ir.GateUDP, dev.Kind == ir.GatePullup, dev.Kind == ir.GatePulldown:
		return false
	case dev.Kind >= ir.GateNmos && dev.Kind <= ir.GateRcmos:
		return false
	case dev.Kind == ir.GateBufz:
		return true
	case dev.Kind.IsGate():
		return dev.Local || dev.Name == ""
	case dev.Kind == ir.LPMFF, dev.Kind == ir.LPMLatch, dev.Kind == ir.LPMPartPV:
		return false
	}
	return true
}

// inlinable reports whether the device can be folded into the expression
// that reads its output.
func inlinable(dev *ir.Device) bool {
	return exprForm(dev) && len(dev.Delays) == 0 &&
		dev.Drive0 == ir.StrengthStrong && dev.Drive1 == ir.StrengthStrong
}

// IsLocal reports whether nex can be rendered without a name inside the
// module that encloses scope: no named signal of the module sits on it,
// every driver lives in the module, there is at most one driver and that
// driver can be inlined.
func (p *printer) IsLocal(scope ir.ScopeID, nex ir.NexusID) bool {
	mod := p.names.Module(scope)
	key := localKey{module: mod, nexus: nex}
	if v, ok := p.locality[key]; ok {
		return v
	}
	v := p.computeLocal(mod, nex)
	p.locality[key] = v
	return v
}

func (p *printer) computeLocal(mod ir.ScopeID, nex ir.NexusID) bool {
	n := p.design.Nexus(nex)
	if n == nil {
		p.fatalf(ir.Pos{}, "reference to unknown nexus %d", nex)
	}
	for _, t := range n.Terminals {
		switch t.Kind {
		case ir.TermSignal:
			sig := p.design.Signal(t.Signal)
			if sig == nil {
				continue
			}
			here := p.names.Module(sig.Scope) == mod
			if here && !sig.Local {
				return false
			}
			if !here && t.IsDriver() {
				return false
			}
		case ir.TermDevice:
			dev := p.design.Device(t.Device)
			if dev == nil {
				continue
			}
			here := p.names.Module(dev.Scope) == mod
			if dev.Kind.IsSwitch() && here {
				return false
			}
			if here && pinNeedsName(dev, t.Role) {
				return false
			}
			if !here && t.IsDriver() {
				return false
			}
		}
	}
	drv, count := p.ResolveDriver(nex)
	if count > 1 {
		return false
	}
	if drv.Kind == DriverDevice && !inlinable(drv.Device) {
		return false
	}
	if drv.Kind == DriverConst && (drv.Drive0 != ir.StrengthStrong || drv.Drive1 != ir.StrengthStrong) {
		return false
	}
	return true
}

// nexusRef is the identifier a nexus is known by in a module.
type nexusRef struct {
	text  string
	sig   *ir.Signal
	word  int
	synth bool
	width int
}

// namedSignal finds a non-local signal of the module enclosing scope on
// nex, preferring one declared in scope itself.
func (p *printer) namedSignal(scope ir.ScopeID, nex ir.NexusID, local bool) (*ir.Signal, int, bool) {
	n := p.design.Nexus(nex)
	if n == nil {
		return nil, 0, false
	}
	mod := p.names.Module(scope)
	var best *ir.Signal
	bestWord := 0
	for _, t := range n.Terminals {
		if t.Kind != ir.TermSignal {
			continue
		}
		sig := p.design.Signal(t.Signal)
		if sig == nil || sig.Local != local || p.names.Module(sig.Scope) != mod {
			continue
		}
		if !p.inModuleBody(sig.Scope) {
			continue
		}
		if sig.Scope == scope {
			return sig, t.Word, true
		}
		if best == nil {
			best, bestWord = sig, t.Word
		}
	}
	return best, bestWord, best != nil
}

// inModuleBody reports whether items of scope are declared at module level
// (the module itself or a flattened generate scope).
func (p *printer) inModuleBody(scope ir.ScopeID) bool {
	s := p.design.Scope(scope)
	return s != nil && (s.IsModuleLike() || s.Kind == ir.ScopeGenerate)
}

func (p *printer) signalNexusRef(scope ir.ScopeID, sig *ir.Signal, word int) nexusRef {
	text := p.signalName(scope, sig)
	if sig.IsArray() {
		text = fmt.Sprintf("%s[%d]", text, sig.Array.Base+word)
	}
	return nexusRef{text: text, sig: sig, word: word, width: sig.Width()}
}

// namedNexus returns an identifier for nex in the module enclosing scope,
// synthesizing and declaring a net when nothing suitable exists.
func (p *printer) namedNexus(scope ir.ScopeID, nex ir.NexusID) nexusRef {
	if sig, word, ok := p.namedSignal(scope, nex, false); ok {
		return p.signalNexusRef(scope, sig, word)
	}
	if sig, word, ok := p.namedSignal(scope, nex, true); ok {
		return p.signalNexusRef(scope, sig, word)
	}
	return p.synthNet(nex)
}

// synthNet returns the memoized synthesized net name of nex and makes
// sure the module being emitted declares it.
func (p *printer) synthNet(nex ir.NexusID) nexusRef {
	n := p.design.Nexus(nex)
	if n == nil {
		p.fatalf(ir.Pos{}, "reference to unknown nexus %d", nex)
	}
	key := localKey{nexus: nex}
	if p.mod != nil {
		key.module = p.mod.scope
	}
	name, ok := p.nexusNames[key]
	if !ok {
		name = fmt.Sprintf("_vlog95_n%d", nex)
		p.nexusNames[key] = name
		if p.mod != nil {
			p.mod.nets = append(p.mod.nets, nex)
		}
	}
	return nexusRef{text: name, synth: true, width: n.Width}
}

// nexusText renders nex as a right-hand side in the module enclosing
// scope: a name where one exists, otherwise the inlined driver.
func (p *printer) nexusText(scope ir.ScopeID, nex ir.NexusID) string {
	if sig, word, ok := p.namedSignal(scope, nex, false); ok {
		return p.signalNexusRef(scope, sig, word).text
	}
	if p.mod != nil {
		if name, ok := p.nexusNames[localKey{module: p.mod.scope, nexus: nex}]; ok {
			return name
		}
	}
	if p.IsLocal(scope, nex) {
		return p.inlineDriver(scope, nex)
	}
	return p.namedNexus(scope, nex).text
}

func (p *printer) inlineDriver(scope ir.ScopeID, nex ir.NexusID) string {
	drv, _ := p.ResolveDriver(nex)
	switch drv.Kind {
	case DriverDevice:
		if p.inlining[nex] {
			p.fatalf(drv.Device.Pos, "combinational loop through unnamed nexus %d", nex)
		}
		p.inlining[nex] = true
		text := p.deviceExpr(scope, drv.Device)
		delete(p.inlining, nex)
		return text
	case DriverConst:
		return p.literal(drv.Value, false, ir.Pos{})
	case DriverSignal:
		return p.signalNexusRef(scope, drv.Signal, drv.Word).text
	}
	if sig, word, ok := p.namedSignal(scope, nex, true); ok {
		return p.signalNexusRef(scope, sig, word).text
	}
	return fmt.Sprintf("%d'bz", p.design.Nexus(nex).Width)
}

// nexusSelect renders width bits of nex starting at normalized bit off.
func (p *printer) nexusSelect(scope ir.ScopeID, nex ir.NexusID, off, width int, pos ir.Pos) string {
	ref := p.namedNexus(scope, nex)
	if off == 0 && width == ref.width {
		return ref.text
	}
	if ref.sig != nil && ref.sig.IsArray() {
		p.unsupported(pos, "bit or part select of array word %s", ref.text)
		return ref.text
	}
	msb, lsb := ref.width-1, 0
	if ref.sig != nil {
		msb, lsb = ref.sig.MSB, ref.sig.LSB
	}
	return ref.text + constRange(msb, lsb, off, width)
}

// literal renders bits through the number formatter, reporting any
// problem at pos.
func (p *printer) literal(bits ir.Bits, signed bool, pos ir.Pos) string {
	text, err := numfmt.Format(bits, signed, p.opts.AllowSigned)
	if err != nil {
		p.unsupported(pos, "%s", err.Error())
	}
	return text
}
