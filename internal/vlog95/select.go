package vlog95

import (
	"fmt"
	"strings"

	"vlog95/internal/ir"
)

// direction is +1 for a [msb:lsb] declaration with msb >= lsb and -1 for
// an ascending declaration.
func direction(msb, lsb int) int {
	if msb >= lsb {
		return 1
	}
	return -1
}

// constRange renders the select of width bits at normalized offset off of
// a vector declared [msb:lsb], in the order the declaration uses.
func constRange(msb, lsb, off, width int) string {
	dir := direction(msb, lsb)
	first := lsb + dir*off
	last := lsb + dir*(off+width-1)
	if width == 1 {
		return fmt.Sprintf("[%d]", first)
	}
	return fmt.Sprintf("[%d:%d]", last, first)
}

// constOffset returns the value of a constant select offset.
func constOffset(e ir.Expr) (int64, bool) {
	switch v := e.(type) {
	case *ir.NumberExpr:
		return v.Bits.Int64(v.Signed)
	case *ir.ParamExpr:
		if v.Value != nil {
			return constOffset(v.Value)
		}
	}
	return 0, false
}

// addConst renders text + n with the sign folded into the operator.
func addConst(text string, n int64) string {
	switch {
	case n == 0:
		return text
	case n > 0:
		return fmt.Sprintf("%s + %d", text, n)
	default:
		return fmt.Sprintf("%s - %d", text, -n)
	}
}

// indexer renders the declared index of bit j of a variable select whose
// normalized base is off, for a vector declared [msb:lsb]. The front end
// normalizes a source index x into x - lsb (or lsb - x for ascending
// ranges); that rewrite is undone so the output reads like the source.
func (p *printer) indexer(scope ir.ScopeID, msb, lsb int, off ir.Expr) func(j int) string {
	dir := direction(msb, lsb)
	if b, ok := off.(*ir.BinaryExpr); ok && b.Op == ir.OpSub {
		if c, ok := constOffset(b.Right); ok && dir > 0 {
			x := p.expr(scope, b.Left, exprCtx{})
			return func(j int) string {
				return addConst(x, int64(lsb)-c+int64(j))
			}
		}
		if c, ok := constOffset(b.Left); ok && dir < 0 {
			x := p.expr(scope, b.Right, exprCtx{})
			return func(j int) string {
				return addConst(x, int64(lsb)-c-int64(j))
			}
		}
	}
	k := p.expr(scope, off, exprCtx{})
	if dir > 0 {
		return func(j int) string {
			return addConst(k, int64(lsb+j))
		}
	}
	return func(j int) string {
		return fmt.Sprintf("%d - %s", lsb-j, k)
	}
}

// selectText renders width bits of a vector declared [msb:lsb] and known
// as base, starting at normalized offset off.
func (p *printer) selectText(scope ir.ScopeID, base string, msb, lsb int, off ir.Expr, width int) string {
	if k, ok := constOffset(off); ok {
		total := msb - lsb
		if total < 0 {
			total = -total
		}
		if k == 0 && width == total+1 {
			return base
		}
		return base + constRange(msb, lsb, int(k), width)
	}
	idx := p.indexer(scope, msb, lsb, off)
	if width == 1 {
		return fmt.Sprintf("%s[%s]", base, idx(0))
	}
	// A variable part select is a 2001 construct: spell it as a
	// concatenation of bit selects, most significant first.
	bits := make([]string, width)
	for j := 0; j < width; j++ {
		bits[width-1-j] = fmt.Sprintf("%s[%s]", base, idx(j))
	}
	return "{" + strings.Join(bits, ", ") + "}"
}

// wordText renders the declared address of an array word expression.
func (p *printer) wordText(scope ir.ScopeID, sig *ir.Signal, word ir.Expr) string {
	base := int64(sig.Array.Base)
	if c, ok := constOffset(word); ok {
		return fmt.Sprint(base + c)
	}
	if b, ok := word.(*ir.BinaryExpr); ok && b.Op == ir.OpSub {
		if c, ok := constOffset(b.Right); ok && c == base {
			return p.expr(scope, b.Left, exprCtx{})
		}
	}
	return addConst(p.expr(scope, word, exprCtx{}), base)
}

// signalRef renders a (possibly word selected) signal reference.
func (p *printer) signalRef(scope ir.ScopeID, sig *ir.Signal, word ir.Expr) string {
	text := p.signalName(scope, sig)
	if word != nil {
		if !sig.IsArray() {
			p.fatalf(sig.Pos, "word select of non-array signal %s", sig.Name)
		}
		text = fmt.Sprintf("%s[%s]", text, p.wordText(scope, sig, word))
	}
	return text
}

// signalName renders the identifier of sig as seen from scope and marks
// it used.
func (p *printer) signalName(scope ir.ScopeID, sig *ir.Signal) string {
	p.used[sig.ID] = true
	return p.names.Ref(scope, sig.Scope, sig.Name)
}

// partSelect renders a select expression with a non-nil offset.
func (p *printer) partSelect(scope ir.ScopeID, e *ir.SelectExpr) string {
	width := e.Width
	switch op := e.Operand.(type) {
	case *ir.SignalExpr:
		sig := p.design.Signal(op.Signal)
		if sig == nil {
			p.fatalf(e.Pos, "select of unknown signal %d", op.Signal)
		}
		base := p.signalRef(scope, sig, op.Word)
		if op.Word != nil {
			p.unsupported(e.Pos, "bit or part select of array word %s", base)
			return base
		}
		if sig.Type == ir.TypeReal {
			p.unsupported(e.Pos, "bit or part select of real %s", base)
			return base
		}
		return p.selectText(scope, base, sig.MSB, sig.LSB, e.Offset, width)
	case *ir.NumberExpr:
		if k, ok := constOffset(e.Offset); ok && k >= 0 {
			bits := make(ir.Bits, width)
			for i := range bits {
				bits[i] = ir.LX
				if int(k)+i < len(op.Bits) {
					bits[i] = op.Bits[int(k)+i]
				}
			}
			return p.literal(bits, false, e.Pos)
		}
	case *ir.ParamExpr:
		name := p.expr(scope, op, exprCtx{})
		return p.selectText(scope, name, op.Width-1, 0, e.Offset, width)
	}
	p.unsupported(e.Pos, "part select of a compound expression")
	return p.expr(scope, e.Operand, exprCtx{})
}
