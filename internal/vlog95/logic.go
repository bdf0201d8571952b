package vlog95

import (
	"fmt"
	"math"
	"strings"

	"vlog95/internal/ir"
	"vlog95/internal/names"
	"vlog95/internal/numfmt"
)

// emitDevice renders one device of the module body: instances for
// primitives and storage, a continuous assignment for an expression whose
// output needs a name, nothing for a device inlined at its readers.
func (p *printer) emitDevice(scope ir.ScopeID, dev *ir.Device) {
	switch {
	case dev.Kind == ir.LPMFF || dev.Kind == ir.LPMLatch:
		p.emitStorage(scope, dev)
	case dev.Kind == ir.LPMPartPV:
		p.emitPartPV(scope, dev)
	case !exprForm(dev):
		p.emitPrimitive(scope, dev)
	default:
		if dev.Output == 0 || p.IsLocal(scope, dev.Output) {
			return
		}
		target := p.namedNexus(scope, dev.Output).text
		p.line(dev.Pos, "assign%s%s %s = %s;", p.strength(dev.Drive0, dev.Drive1),
			p.delays(scope, dev.Delays), target, p.top(p.deviceExpr(scope, dev)))
	}
}

func (p *printer) input(dev *ir.Device, i int) ir.NexusID {
	if i >= len(dev.Inputs) || dev.Inputs[i] == 0 {
		p.fatalf(dev.Pos, "%s device is missing input %d", dev.Kind, i)
	}
	return dev.Inputs[i]
}

func (p *printer) inputText(scope ir.ScopeID, dev *ir.Device, i int) string {
	return p.nexusText(scope, p.input(dev, i))
}

func (p *printer) inputTexts(scope ir.ScopeID, dev *ir.Device) []string {
	out := make([]string, len(dev.Inputs))
	for i := range dev.Inputs {
		out[i] = p.inputText(scope, dev, i)
	}
	return out
}

var gateOps = map[ir.DeviceKind]string{
	ir.GateAnd: " & ", ir.GateNand: " & ",
	ir.GateOr: " | ", ir.GateNor: " | ",
	ir.GateXor: " ^ ", ir.GateXnor: " ^ ",
}

var lpmOps = map[ir.DeviceKind]string{
	ir.LPMAdd: "+", ir.LPMSub: "-", ir.LPMMult: "*", ir.LPMDiv: "/",
	ir.LPMMod: "%", ir.LPMPow: "**", ir.LPMCmpEq: "==", ir.LPMCmpNe: "!=",
	ir.LPMCmpEEq: "===", ir.LPMCmpNEE: "!==", ir.LPMCmpWEq: "==",
	ir.LPMCmpWNe: "!=", ir.LPMCmpGt: ">", ir.LPMCmpGe: ">=",
	ir.LPMShiftL: "<<", ir.LPMShiftR: ">>",
}

var reduceOps = map[ir.DeviceKind]string{
	ir.LPMReduceAnd: "&", ir.LPMReduceNand: "~&", ir.LPMReduceOr: "|",
	ir.LPMReduceNor: "~|", ir.LPMReduceXor: "^", ir.LPMReduceXnor: "~^",
}

// deviceExpr renders an expression-form device.
func (p *printer) deviceExpr(scope ir.ScopeID, dev *ir.Device) string {
	if op, ok := gateOps[dev.Kind]; ok {
		text := "(" + strings.Join(p.inputTexts(scope, dev), op) + ")"
		if dev.Kind == ir.GateNand || dev.Kind == ir.GateNor || dev.Kind == ir.GateXnor {
			text = "(~" + text + ")"
		}
		return text
	}
	if op, ok := lpmOps[dev.Kind]; ok {
		return p.lpmBinary(scope, dev, op)
	}
	if op, ok := reduceOps[dev.Kind]; ok {
		return "(" + op + p.inputText(scope, dev, 0) + ")"
	}

	switch dev.Kind {
	case ir.GateBuf, ir.GateBufz:
		return p.inputText(scope, dev, 0)
	case ir.GateNot:
		return "(~" + p.inputText(scope, dev, 0) + ")"
	case ir.GateBufif0, ir.GateBufif1, ir.GateNotif0, ir.GateNotif1:
		data := p.inputText(scope, dev, 0)
		if dev.Kind == ir.GateNotif0 || dev.Kind == ir.GateNotif1 {
			data = "(~" + data + ")"
		}
		ctrl := p.inputText(scope, dev, 1)
		z := fmt.Sprintf("%d'bz", dev.Width)
		if dev.Kind == ir.GateBufif0 || dev.Kind == ir.GateNotif0 {
			return fmt.Sprintf("(%s ? %s : %s)", ctrl, z, data)
		}
		return fmt.Sprintf("(%s ? %s : %s)", ctrl, data, z)

	case ir.LPMMux:
		return p.mux(scope, dev)
	case ir.LPMPartVP:
		in := p.input(dev, 0)
		return p.nexusSelect(scope, in, dev.Base, dev.Width, dev.Pos)
	case ir.LPMConcat:
		ins := p.inputTexts(scope, dev)
		for i, j := 0, len(ins)-1; i < j; i, j = i+1, j-1 {
			ins[i], ins[j] = ins[j], ins[i]
		}
		return "{" + strings.Join(ins, ", ") + "}"
	case ir.LPMRepeat:
		return fmt.Sprintf("{%d{%s}}", dev.Count, p.inputText(scope, dev, 0))
	case ir.LPMSignExt:
		in := p.input(dev, 0)
		n := p.design.Nexus(in).Width
		if dev.Width <= n {
			return p.nexusSelect(scope, in, 0, dev.Width, dev.Pos)
		}
		msb := p.nexusSelect(scope, in, n-1, 1, dev.Pos)
		return fmt.Sprintf("{{%d{%s}}, %s}", dev.Width-n, msb, p.nexusSelect(scope, in, 0, n, dev.Pos))
	case ir.LPMSubstitute:
		return p.substitute(scope, dev)
	case ir.LPMArray:
		sig := p.design.Signal(dev.Array)
		if sig == nil || !sig.IsArray() {
			p.fatalf(dev.Pos, "array read of a non-array signal")
		}
		addr := p.inputText(scope, dev, 0)
		return fmt.Sprintf("%s[%s]", p.signalName(scope, sig), addConst(addr, int64(sig.Array.Base)))
	case ir.LPMUFunc:
		fn := p.design.Scope(dev.Func)
		if fn == nil || len(fn.Ports) == 0 {
			p.fatalf(dev.Pos, "function device without a port list")
		}
		return p.names.ScopeRef(scope, dev.Func) + "(" + strings.Join(p.inputTexts(scope, dev), ", ") + ")"
	case ir.LPMSFunc:
		name := dev.SysName
		if !strings.HasPrefix(name, "$") {
			name = "$" + name
		}
		if len(dev.Inputs) == 0 {
			return name
		}
		return name + "(" + strings.Join(p.inputTexts(scope, dev), ", ") + ")"
	case ir.LPMCastInt:
		return "$rtoi(" + p.inputText(scope, dev, 0) + ")"
	case ir.LPMCastReal:
		return "$itor(" + p.inputText(scope, dev, 0) + ")"
	case ir.LPMAbs:
		in := p.input(dev, 0)
		n := p.design.Nexus(in).Width
		x := p.nexusSelect(scope, in, 0, n, dev.Pos)
		return fmt.Sprintf("(%s ? -%s : %s)", p.nexusSelect(scope, in, n-1, 1, dev.Pos), x, x)
	}
	p.fatalf(dev.Pos, "%s device has no expression form", dev.Kind)
	return ""
}

// signSensitive lists the structural operators whose result depends on
// operand signedness at equal widths.
func signSensitive(k ir.DeviceKind) bool {
	switch k {
	case ir.LPMDiv, ir.LPMMod, ir.LPMCmpGt, ir.LPMCmpGe, ir.LPMShiftR:
		return true
	}
	return false
}

func (p *printer) lpmBinary(scope ir.ScopeID, dev *ir.Device, op string) string {
	switch dev.Kind {
	case ir.LPMPow:
		p.unsupported(dev.Pos, "power operator (**)")
	case ir.LPMCmpWEq, ir.LPMCmpWNe:
		p.unsupported(dev.Pos, "wildcard equality operator (%s?)", op)
	}
	a := p.inputText(scope, dev, 0)
	b := p.inputText(scope, dev, 1)
	if dev.Signed && signSensitive(dev.Kind) {
		if !p.opts.AllowSigned {
			p.unsupported(dev.Pos, "signed %s needs signed support", dev.Kind)
		} else {
			a = "$signed(" + a + ")"
			if dev.Kind == ir.LPMShiftR {
				op = ">>>"
			} else {
				b = "$signed(" + b + ")"
			}
		}
	}
	return fmt.Sprintf("(%s %s %s)", a, op, b)
}

// mux renders a multiplexer. A multi-bit select becomes a balanced tree
// of conditionals on the select bits, most significant first; inputs the
// device lacks read as x.
func (p *printer) mux(scope ir.ScopeID, dev *ir.Device) string {
	if dev.Select == 0 {
		p.fatalf(dev.Pos, "mux without a select input")
	}
	if dev.SelectWidth <= 1 {
		sel := p.nexusText(scope, dev.Select)
		hi := p.placeholder(dev.Width)
		if len(dev.Inputs) > 1 {
			hi = p.inputText(scope, dev, 1)
		}
		return fmt.Sprintf("(%s ? %s : %s)", sel, hi, p.inputText(scope, dev, 0))
	}
	return p.muxTree(scope, dev, 0, dev.SelectWidth-1)
}

func (p *printer) muxTree(scope ir.ScopeID, dev *ir.Device, lo, bit int) string {
	if lo >= len(dev.Inputs) {
		return p.placeholder(dev.Width)
	}
	if bit < 0 {
		return p.inputText(scope, dev, lo)
	}
	sel := p.nexusSelect(scope, dev.Select, bit, 1, dev.Pos)
	mid := lo + 1<<uint(bit)
	return fmt.Sprintf("(%s ? %s : %s)", sel, p.muxTree(scope, dev, mid, bit-1), p.muxTree(scope, dev, lo, bit-1))
}

// substitute renders a vector with bits [Base, Base+w) replaced.
func (p *printer) substitute(scope ir.ScopeID, dev *ir.Device) string {
	base := p.input(dev, 0)
	sub := p.input(dev, 1)
	total := p.design.Nexus(base).Width
	w := p.design.Nexus(sub).Width
	var parts []string
	if hi := dev.Base + w; hi < total {
		parts = append(parts, p.nexusSelect(scope, base, hi, total-hi, dev.Pos))
	}
	parts = append(parts, p.nexusText(scope, sub))
	if dev.Base > 0 {
		parts = append(parts, p.nexusSelect(scope, base, 0, dev.Base, dev.Pos))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// emitPartPV drives a slice of a named vector.
func (p *printer) emitPartPV(scope ir.ScopeID, dev *ir.Device) {
	in := p.input(dev, 0)
	w := p.design.Nexus(in).Width
	target := p.nexusSelect(scope, dev.Output, dev.Base, w, dev.Pos)
	p.line(dev.Pos, "assign%s%s %s = %s;", p.strength(dev.Drive0, dev.Drive1),
		p.delays(scope, dev.Delays), target, p.top(p.nexusText(scope, in)))
}

// emitPrimitive renders a gate, switch or user primitive instance.
func (p *printer) emitPrimitive(scope ir.ScopeID, dev *ir.Device) {
	keyword := dev.Kind.String()
	var pins []string
	strength := p.strength(dev.Drive0, dev.Drive1)
	delays := p.delays(scope, dev.Delays)

	switch {
	case dev.Kind == ir.GateUDP:
		udp := p.design.UDP(dev.UDP)
		if udp == nil {
			p.fatalf(dev.Pos, "instance of unknown primitive %d", dev.UDP)
		}
		p.useUDP(udp.ID)
		keyword = names.Escape(udp.Name)
		pins = append(pins, p.namedNexus(scope, dev.Output).text)
		pins = append(pins, p.inputTexts(scope, dev)...)
	case dev.Kind == ir.GatePullup:
		strength = ""
		if dev.Drive1 != ir.StrengthPull && dev.Drive1 != ir.StrengthHiZ {
			strength = fmt.Sprintf(" (%s1)", dev.Drive1.Name())
		}
		pins = append(pins, p.namedNexus(scope, dev.Output).text)
	case dev.Kind == ir.GatePulldown:
		strength = ""
		if dev.Drive0 != ir.StrengthPull && dev.Drive0 != ir.StrengthHiZ {
			strength = fmt.Sprintf(" (%s0)", dev.Drive0.Name())
		}
		pins = append(pins, p.namedNexus(scope, dev.Output).text)
	case dev.Kind.IsSwitch():
		strength = ""
		if dev.Kind == ir.SwitchTran || dev.Kind == ir.SwitchRtran {
			if delays != "" {
				p.unsupported(dev.Pos, "%s switches cannot carry a delay", keyword)
			}
			delays = ""
		}
		pins = append(pins, p.namedNexus(scope, dev.Output).text)
		for _, in := range dev.Inputs {
			pins = append(pins, p.namedNexus(scope, in).text)
		}
		if dev.Enable != 0 {
			pins = append(pins, p.nexusText(scope, dev.Enable))
		}
	default:
		if dev.Kind >= ir.GateNmos && dev.Kind <= ir.GateRcmos {
			strength = ""
		}
		pins = append(pins, p.namedNexus(scope, dev.Output).text)
		pins = append(pins, p.inputTexts(scope, dev)...)
	}

	name := ""
	switch {
	case dev.Name != "":
		name = " " + p.names.LocalName(scope, dev.Name)
	case dev.Width > 1:
		name = fmt.Sprintf(" _vlog95_d%d", dev.ID)
	}
	if dev.Width > 1 {
		name += fmt.Sprintf(" [%d:0]", dev.Width-1)
	}
	p.line(dev.Pos, "%s%s%s%s (%s);", keyword, strength, delays, name, strings.Join(pins, ", "))
}

// strength renders a drive strength pair; the default pair is omitted.
func (p *printer) strength(d0, d1 ir.Strength) string {
	if d0 == ir.StrengthStrong && d1 == ir.StrengthStrong {
		return ""
	}
	if d0 == ir.StrengthHiZ && d1 == ir.StrengthHiZ {
		return ""
	}
	return fmt.Sprintf(" (%s0, %s1)", d0.Name(), d1.Name())
}

// delays renders a rise/fall/decay delay list.
func (p *printer) delays(scope ir.ScopeID, ds []ir.Delay) string {
	if len(ds) == 0 {
		return ""
	}
	parts := make([]string, len(ds))
	same := true
	for i, d := range ds {
		if d.Expr != nil {
			parts[i] = p.delayValue(scope, d.Expr)
		} else {
			parts[i] = numfmt.ScaledDelay(d.Value, p.unit(scope), p.design.Precision)
		}
		if parts[i] != parts[0] {
			same = false
		}
	}
	if same {
		parts = parts[:1]
	}
	if len(parts) == 1 && isUnsignedNumber(parts[0]) {
		return " #" + parts[0]
	}
	return " #(" + strings.Join(parts, ", ") + ")"
}

func isUnsignedNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// delayValue renders a computed delay in the time unit of scope. The
// front end multiplies such delays into simulation precision; the scaling
// factor is removed again when it is recognizable.
func (p *printer) delayValue(scope ir.ScopeID, e ir.Expr) string {
	if d, ok := e.(*ir.DelayExpr); ok {
		return numfmt.ScaledDelay(d.Value, p.unit(scope), p.design.Precision)
	}
	shift := p.unit(scope) - p.design.Precision
	if shift <= 0 {
		return p.top(p.expr(scope, e, exprCtx{}))
	}
	scale := math.Pow10(shift)
	if b, ok := e.(*ir.BinaryExpr); ok && b.Op == ir.OpMul {
		if isConstValue(b.Right, scale) {
			return p.top(p.expr(scope, b.Left, exprCtx{}))
		}
		if isConstValue(b.Left, scale) {
			return p.top(p.expr(scope, b.Right, exprCtx{}))
		}
	}
	return fmt.Sprintf("%s / %s", p.expr(scope, e, exprCtx{}), numfmt.FormatReal(scale))
}

func isConstValue(e ir.Expr, v float64) bool {
	switch c := e.(type) {
	case *ir.NumberExpr:
		u, ok := c.Bits.Uint64()
		return ok && float64(u) == v
	case *ir.RealExpr:
		return c.Value == v
	}
	return false
}
