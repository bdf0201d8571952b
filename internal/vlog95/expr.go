package vlog95

import (
	"fmt"
	"strings"

	"vlog95/internal/ir"
	"vlog95/internal/numfmt"
)

// exprCtx is what the position an expression is rendered in imposes on it.
type exprCtx struct {
	// width is the context width; 0 marks a self-determined position.
	width int
	// lval is set for the right-hand side of an assignment, where the
	// target truncates the result.
	lval bool
	// skipUnsigned is set when a sibling operand is already unsigned, so
	// the operator is unsigned whatever this operand renders as.
	skipUnsigned bool
}

// expr renders e. Casts are inserted only where the implicit promotion of
// the output dialect would disagree with the signedness the front end
// computed for the node.
func (p *printer) expr(scope ir.ScopeID, e ir.Expr, c exprCtx) string {
	if e == nil {
		return ""
	}
	info := e.Info()
	text, oprSign := p.exprBody(scope, e, c)
	if info.Type != ir.TypeLogic && info.Type != ir.TypeBool {
		return text
	}
	text, cast := p.signCast(text, info, oprSign, c)
	return p.fitWidth(text, e, c, cast)
}

func (p *printer) signCast(text string, info *ir.ExprInfo, oprSign bool, c exprCtx) (string, bool) {
	switch {
	case info.Signed && !oprSign:
		if p.opts.AllowSigned {
			return "$signed(" + text + ")", true
		}
		p.unsupported(info.Pos, "signed expression %s needs $signed() (signed support is disabled)", text)
	case !info.Signed && oprSign && !c.skipUnsigned:
		if p.opts.AllowSigned {
			return "$unsigned(" + text + ")", true
		}
		return "{" + text + "}", true
	}
	return text, false
}

// fitWidth keeps an operation from being evaluated at a wider context
// width than the front end evaluated it at.
func (p *printer) fitWidth(text string, e ir.Expr, c exprCtx, cast bool) string {
	info := e.Info()
	if cast || c.width <= info.Width || !widthSensitive(e) {
		return text
	}
	if info.Signed {
		if p.opts.AllowSigned {
			return "$signed({" + text + "})"
		}
		p.unsupported(info.Pos, "signed %d bit result in a %d bit context needs $signed()", info.Width, c.width)
	}
	return "{" + text + "}"
}

// widthSensitive reports whether evaluating e at a wider width than its
// own changes its low bits.
func widthSensitive(e ir.Expr) bool {
	switch v := e.(type) {
	case *ir.BinaryExpr:
		switch v.Op {
		case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpPow, ir.OpShl, ir.OpAShl,
			ir.OpXnor, ir.OpNand, ir.OpNor:
			return true
		case ir.OpShr, ir.OpAShr:
			return widthSensitive(v.Left)
		case ir.OpDiv, ir.OpMod, ir.OpAnd, ir.OpOr, ir.OpXor:
			return widthSensitive(v.Left) || widthSensitive(v.Right)
		}
	case *ir.UnaryExpr:
		return v.Op == ir.UnaryNeg || v.Op == ir.UnaryNot
	case *ir.TernaryExpr:
		return widthSensitive(v.True) || widthSensitive(v.False)
	case *ir.SelectExpr:
		if v.Offset == nil && v.Operand != nil && v.Operand.Info().Width == v.Width {
			return widthSensitive(v.Operand)
		}
	}
	return false
}

// exprBody renders the node itself and returns the signedness the output
// dialect gives the rendering.
func (p *printer) exprBody(scope ir.ScopeID, e ir.Expr, c exprCtx) (string, bool) {
	switch v := e.(type) {
	case *ir.NumberExpr:
		bits := v.Bits
		if v.Width > 0 && len(bits) != v.Width {
			bits = bits.Resize(v.Width, v.Signed)
		}
		return p.literal(bits, v.Signed, v.Pos), v.Signed
	case *ir.RealExpr:
		return numfmt.FormatReal(v.Value), true
	case *ir.StringExpr:
		return quote(v.Value), false
	case *ir.DelayExpr:
		return numfmt.ScaledDelay(v.Value, p.unit(scope), p.design.Precision), false
	case *ir.SignalExpr:
		sig := p.design.Signal(v.Signal)
		if sig == nil {
			p.fatalf(v.Pos, "reference to unknown signal %d", v.Signal)
		}
		return p.signalRef(scope, sig, v.Word), sig.Signed || sig.Integer
	case *ir.ParamExpr:
		sign := v.Signed
		if v.Value != nil {
			sign = v.Value.Info().Signed
		}
		if v.Scope == 0 {
			return p.names.LocalName(0, v.Name), sign
		}
		return p.names.Ref(scope, v.Scope, v.Name), sign
	case *ir.UnaryExpr:
		return p.unary(scope, v)
	case *ir.BinaryExpr:
		return p.binary(scope, v)
	case *ir.TernaryExpr:
		cond := p.expr(scope, v.Cond, exprCtx{})
		t := p.expr(scope, v.True, exprCtx{width: v.Width, skipUnsigned: !v.False.Info().Signed})
		f := p.expr(scope, v.False, exprCtx{width: v.Width, skipUnsigned: !v.True.Info().Signed})
		return fmt.Sprintf("(%s ? %s : %s)", cond, t, f), v.True.Info().Signed && v.False.Info().Signed
	case *ir.ConcatExpr:
		parts := make([]string, len(v.Parts))
		for i, part := range v.Parts {
			parts[i] = p.top(p.expr(scope, part, exprCtx{}))
		}
		text := "{" + strings.Join(parts, ", ") + "}"
		if v.Repeat > 1 {
			text = fmt.Sprintf("{%d%s}", v.Repeat, text)
		}
		return text, false
	case *ir.SelectExpr:
		if v.Offset == nil {
			return p.resize(scope, v, c)
		}
		return p.partSelect(scope, v), false
	case *ir.CallExpr:
		return p.call(scope, v)
	case *ir.PropertyExpr:
		p.unsupported(v.Pos, "class property access (.%s)", v.Property)
		return p.placeholder(v.Width), v.Signed
	case *ir.NewExpr:
		p.unsupported(v.Pos, "new allocation")
		return p.placeholder(v.Width), v.Signed
	case *ir.NullExpr:
		p.unsupported(v.Pos, "null class handle")
		return p.placeholder(v.Width), v.Signed
	case *ir.EventExpr:
		ev := p.design.Event(v.Event)
		if ev == nil {
			p.fatalf(v.Pos, "reference to unknown event %d", v.Event)
		}
		return p.names.Ref(scope, ev.Scope, ev.Name), false
	case *ir.ScopeExpr:
		return p.names.ScopeRef(scope, v.Scope), false
	}
	p.fatalf(e.Info().Pos, "unknown expression %T", e)
	return "", false
}

// placeholder stands in for a value the dialect cannot compute.
func (p *printer) placeholder(width int) string {
	if width <= 0 {
		width = 1
	}
	return fmt.Sprintf("%d'bx", width)
}

func (p *printer) unary(scope ir.ScopeID, v *ir.UnaryExpr) (string, bool) {
	op := v.Operand.Info()
	switch v.Op {
	case ir.UnaryNeg, ir.UnaryNot:
		x := p.expr(scope, v.Operand, exprCtx{width: v.Width})
		sep := ""
		if strings.HasPrefix(x, "-") {
			sep = " "
		}
		return "(" + v.Op.Token() + sep + x + ")", op.Signed
	case ir.UnaryCastReal:
		return "$itor(" + p.top(p.expr(scope, v.Operand, exprCtx{})) + ")", true
	case ir.UnaryCastInt:
		return "$rtoi(" + p.top(p.expr(scope, v.Operand, exprCtx{})) + ")", true
	case ir.UnaryCast2State:
		p.warn(v.Pos, "cast to a 2-state type is emitted as a 4-state value")
		return p.expr(scope, v.Operand, exprCtx{width: v.Width}), op.Signed
	case ir.UnaryPreInc, ir.UnaryPostInc, ir.UnaryPreDec, ir.UnaryPostDec:
		p.unsupported(v.Pos, "increment/decrement operator (%s)", v.Op.Token())
		x := p.expr(scope, v.Operand, exprCtx{width: v.Width})
		if v.Op == ir.UnaryPreInc || v.Op == ir.UnaryPostInc {
			return "(" + x + " + 1)", op.Signed
		}
		return "(" + x + " - 1)", op.Signed
	}
	x := p.expr(scope, v.Operand, exprCtx{})
	return "(" + v.Op.Token() + x + ")", false
}

func isCompare(op ir.BinaryOp) bool {
	switch op {
	case ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe, ir.OpEq, ir.OpNe,
		ir.OpCaseEq, ir.OpCaseNe, ir.OpWildEq, ir.OpWildNe:
		return true
	}
	return false
}

func (p *printer) binary(scope ir.ScopeID, v *ir.BinaryExpr) (string, bool) {
	l, r := v.Left.Info(), v.Right.Info()
	isReal := l.Type == ir.TypeReal || r.Type == ir.TypeReal
	tok := v.Op.Token()
	switch v.Op {
	case ir.OpPow:
		p.unsupported(v.Pos, "power operator (**)")
	case ir.OpWildEq, ir.OpWildNe:
		p.unsupported(v.Pos, "wildcard equality operator (%s)", tok)
		tok = strings.TrimSuffix(tok, "?")
	case ir.OpDiv, ir.OpMod:
		if isReal {
			p.unsupported(v.Pos, "real operands to %s", tok)
		}
	case ir.OpAShl:
		tok = "<<"
	case ir.OpAShr:
		if !l.Signed {
			tok = ">>"
		} else if !p.opts.AllowSigned {
			p.unsupported(v.Pos, "arithmetic right shift (>>>) needs signed support")
			tok = ">>"
		}
	}

	var lc, rc exprCtx
	switch {
	case isCompare(v.Op):
		w := l.Width
		if r.Width > w {
			w = r.Width
		}
		lc = exprCtx{width: w, skipUnsigned: !r.Signed}
		rc = exprCtx{width: w, skipUnsigned: !l.Signed}
	case v.Op == ir.OpLogAnd || v.Op == ir.OpLogOr:
	case v.Op == ir.OpShl || v.Op == ir.OpShr || v.Op == ir.OpAShl || v.Op == ir.OpAShr || v.Op == ir.OpPow:
		lc = exprCtx{width: v.Width}
		rc = exprCtx{skipUnsigned: true}
	default:
		lc = exprCtx{width: v.Width, skipUnsigned: !r.Signed}
		rc = exprCtx{width: v.Width, skipUnsigned: !l.Signed}
	}
	if isReal {
		lc.width, rc.width = 0, 0
	}
	text := fmt.Sprintf("(%s %s %s)", p.expr(scope, v.Left, lc), tok, p.expr(scope, v.Right, rc))

	switch {
	case isCompare(v.Op), v.Op == ir.OpLogAnd, v.Op == ir.OpLogOr:
		return text, false
	case v.Op == ir.OpShl || v.Op == ir.OpShr || v.Op == ir.OpAShl || v.Op == ir.OpAShr || v.Op == ir.OpPow:
		return text, l.Signed
	}
	return text, l.Signed && r.Signed
}

// resize renders a select with no offset: a pad or truncation of the
// operand to the width of the node.
func (p *printer) resize(scope ir.ScopeID, v *ir.SelectExpr, c exprCtx) (string, bool) {
	x := v.Operand
	xi := x.Info()
	W, w := v.Width, xi.Width
	if xi.Type == ir.TypeReal || v.Type == ir.TypeReal {
		return p.expr(scope, x, c), true
	}

	if n, ok := x.(*ir.NumberExpr); ok {
		bits := n.Bits.Resize(w, n.Signed).Resize(W, n.Signed)
		return p.literal(bits, v.Signed, v.Pos), v.Signed
	}

	switch {
	case W == w:
		return p.expr(scope, x, exprCtx{width: W, skipUnsigned: c.skipUnsigned}), xi.Signed

	case W > w:
		if v.Signed == xi.Signed && c.width >= W {
			// The context extends the operand by its own signedness.
			return p.expr(scope, x, exprCtx{width: W}), xi.Signed
		}
		text := p.top(p.expr(scope, x, exprCtx{}))
		n := W - w
		if !xi.Signed {
			if n == 1 {
				return fmt.Sprintf("{1'b0, %s}", text), false
			}
			return fmt.Sprintf("{{%d{1'b0}}, %s}", n, text), false
		}
		msb, ok := p.msbText(scope, x)
		if !ok {
			p.unsupported(v.Pos, "sign extension of a compound expression to %d bits", W)
			return fmt.Sprintf("{{%d{1'b0}}, %s}", n, text), false
		}
		return fmt.Sprintf("{{%d{%s}}, %s}", n, msb, text), false

	default:
		if c.lval && c.width == W {
			return p.expr(scope, x, exprCtx{width: w}), xi.Signed
		}
		switch op := x.(type) {
		case *ir.SignalExpr:
			sig := p.design.Signal(op.Signal)
			if sig != nil && op.Word == nil && sig.Type != ir.TypeReal {
				return p.signalName(scope, sig) + constRange(sig.MSB, sig.LSB, 0, W), false
			}
		case *ir.ParamExpr:
			name, _ := p.exprBody(scope, op, exprCtx{})
			return name + constRange(w-1, 0, 0, W), false
		}
		p.unsupported(v.Pos, "truncation of a compound expression to %d bits", W)
		return p.expr(scope, x, exprCtx{}), xi.Signed
	}
}

// msbText renders the most significant bit of a primary expression.
func (p *printer) msbText(scope ir.ScopeID, x ir.Expr) (string, bool) {
	switch op := x.(type) {
	case *ir.SignalExpr:
		sig := p.design.Signal(op.Signal)
		if sig == nil || op.Word != nil || sig.Type == ir.TypeReal {
			return "", false
		}
		if sig.Width() == 1 {
			return p.signalName(scope, sig), true
		}
		return p.signalName(scope, sig) + constRange(sig.MSB, sig.LSB, sig.Width()-1, 1), true
	case *ir.ParamExpr:
		name, _ := p.exprBody(scope, op, exprCtx{})
		return fmt.Sprintf("%s[%d]", name, op.Width-1), true
	}
	return "", false
}

// sysFuncSign lists system functions whose result signedness is fixed.
var sysFuncSign = map[string]bool{
	"$signed":         true,
	"$unsigned":       false,
	"$random":         true,
	"$rtoi":           true,
	"$time":           false,
	"$stime":          false,
	"$realtobits":     false,
	"$fopen":          false,
	"$feof":           true,
	"$fgetc":          true,
	"$test$plusargs":  false,
	"$value$plusargs": false,
}

func (p *printer) call(scope ir.ScopeID, v *ir.CallExpr) (string, bool) {
	if v.Func == 0 {
		if (v.Name == "$signed" || v.Name == "$unsigned") && !p.opts.AllowSigned {
			p.unsupported(v.Pos, "%s() needs signed support", v.Name)
		}
		sign, ok := sysFuncSign[v.Name]
		if !ok {
			sign = v.Signed
		}
		if len(v.Args) == 0 {
			return v.Name, sign
		}
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			if a != nil {
				args[i] = p.top(p.expr(scope, a, exprCtx{}))
			}
		}
		return v.Name + "(" + strings.Join(args, ", ") + ")", sign
	}

	fn := p.design.Scope(v.Func)
	if fn == nil || fn.Kind != ir.ScopeFunction {
		p.fatalf(v.Pos, "call of %d which is not a function", v.Func)
	}
	if len(fn.Ports) == 0 {
		p.fatalf(v.Pos, "function %s has no port list", fn.Name)
	}
	ret := p.design.Signal(fn.Ports[0])
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		ctx := exprCtx{}
		if i+1 < len(fn.Ports) {
			if port := p.design.Signal(fn.Ports[i+1]); port != nil {
				ctx = exprCtx{width: port.Width(), lval: true}
			}
		}
		args[i] = p.top(p.expr(scope, a, ctx))
	}
	name := p.names.ScopeRef(scope, v.Func)
	return name + "(" + strings.Join(args, ", ") + ")", ret != nil && (ret.Signed || ret.Integer)
}

// top strips the outermost parentheses of an expression rendering.
func (p *printer) top(text string) string {
	if len(text) < 2 || text[0] != '(' || text[len(text)-1] != ')' {
		return text
	}
	depth := 0
	inString := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(text)-1 {
				return text
			}
		}
	}
	return text[1 : len(text)-1]
}

// quote renders s as a string literal.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\\':
			sb.WriteString(`\\`)
		case ch == '"':
			sb.WriteString(`\"`)
		case ch == '\n':
			sb.WriteString(`\n`)
		case ch == '\t':
			sb.WriteString(`\t`)
		case ch < 0x20 || ch >= 0x7f:
			fmt.Fprintf(&sb, `\%03o`, ch)
		default:
			sb.WriteByte(ch)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
