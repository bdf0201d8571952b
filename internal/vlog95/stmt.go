package vlog95

import (
	"fmt"
	"strings"

	"vlog95/internal/ir"
	"vlog95/internal/numfmt"
)

// join prefixes text with a statement header when there is one.
func join(header, text string) string {
	if header == "" {
		return text
	}
	return header + " " + text
}

// delayControl renders #value, parenthesizing values that are not plain
// unsigned numbers.
func delayControl(value string) string {
	if isUnsignedNumber(value) {
		return "#" + value
	}
	return "#(" + value + ")"
}

// stmtAfter renders body as the sub-statement of header.
func (p *printer) stmtAfter(scope ir.ScopeID, header string, body ir.Stmt, pos ir.Pos) {
	switch b := body.(type) {
	case nil:
		p.line(pos, "%s;", header)
	case *ir.NoopStmt:
		p.line(b.Pos, "%s;", header)
	case *ir.BlockStmt:
		p.block(scope, header, b)
	case *ir.ForkStmt:
		p.fork(scope, header, b)
	case *ir.DelayStmt, *ir.DelayXStmt, *ir.WaitStmt:
		ctrl, inner := p.control(scope, b)
		p.timed(scope, header, ctrl, inner, pos)
	case *ir.AssignStmt, *ir.TriggerStmt, *ir.TaskCallStmt, *ir.SysTaskStmt, *ir.DisableStmt, *ir.ReleaseStmt:
		p.sameLine(scope, header, b)
	default:
		p.nested(scope, header, body, pos)
	}
}

// timed renders body after a timing control.
func (p *printer) timed(scope ir.ScopeID, header, ctrl string, body ir.Stmt, pos ir.Pos) {
	p.stmtAfter(scope, join(header, ctrl), body, pos)
}

// control splits a delay or event control statement into the control
// text and the statement it guards.
func (p *printer) control(scope ir.ScopeID, s ir.Stmt) (string, ir.Stmt) {
	switch v := s.(type) {
	case *ir.DelayStmt:
		return delayControl(numfmt.ScaledDelay(v.Delay, p.unit(scope), p.design.Precision)), v.Body
	case *ir.DelayXStmt:
		return "#(" + p.delayValue(scope, v.Delay) + ")", v.Body
	case *ir.WaitStmt:
		return "@(" + p.eventList(scope, v.Events, v.Pos) + ")", v.Body
	}
	p.fatalf(s.Position(), "%T is not a timing control", s)
	return "", nil
}

func (p *printer) nested(scope ir.ScopeID, header string, body ir.Stmt, pos ir.Pos) {
	p.line(pos, "%s", header)
	p.indent++
	p.stmt(scope, body)
	p.indent--
}

// sameLine renders a one-line statement after header.
func (p *printer) sameLine(scope ir.ScopeID, header string, body ir.Stmt) {
	saved := p.indent
	text := p.capture(func() {
		p.indent = 0
		p.stmt(scope, body)
	})
	p.indent = saved
	p.buf.WriteString(strings.Repeat(" ", p.indent*p.opts.Indent))
	p.buf.WriteString(join(header, text))
}

func (p *printer) stmt(scope ir.ScopeID, s ir.Stmt) {
	switch v := s.(type) {
	case nil:
		p.line(ir.Pos{}, ";")
	case *ir.NoopStmt:
		p.line(v.Pos, ";")
	case *ir.AssignStmt:
		p.line(v.Pos, "%s;", p.assignText(scope, v))
	case *ir.ReleaseStmt:
		kw := "deassign"
		if v.Kind == ir.ReleaseRelease {
			kw = "release"
		}
		lval, _ := p.lvalsText(scope, v.LVals, v.Pos)
		p.line(v.Pos, "%s %s;", kw, lval)
	case *ir.BlockStmt:
		p.block(scope, "", v)
	case *ir.ForkStmt:
		p.fork(scope, "", v)
	case *ir.IfStmt:
		p.ifStmt(scope, "if", v)
	case *ir.CaseStmt:
		p.caseStmt(scope, v)
	case *ir.WhileStmt:
		p.stmtAfter(scope, fmt.Sprintf("while (%s)", p.cond(scope, v.Cond)), v.Body, v.Pos)
	case *ir.DoWhileStmt:
		p.doWhile(scope, v)
	case *ir.ForeverStmt:
		p.stmtAfter(scope, "forever", v.Body, v.Pos)
	case *ir.RepeatStmt:
		p.stmtAfter(scope, fmt.Sprintf("repeat (%s)", p.cond(scope, v.Count)), v.Body, v.Pos)
	case *ir.ForStmt:
		p.forStmt(scope, v)
	case *ir.DelayStmt, *ir.DelayXStmt, *ir.WaitStmt:
		ctrl, inner := p.control(scope, v)
		p.timed(scope, "", ctrl, inner, v.Position())
	case *ir.TriggerStmt:
		ev := p.design.Event(v.Event)
		if ev == nil {
			p.fatalf(v.Pos, "trigger of unknown event %d", v.Event)
		}
		p.line(v.Pos, "-> %s;", p.names.Ref(scope, ev.Scope, ev.Name))
	case *ir.TaskCallStmt:
		p.line(v.Pos, "%s;", p.names.ScopeRef(scope, v.Task))
	case *ir.SysTaskStmt:
		p.line(v.Pos, "%s;", p.sysTask(scope, v))
	case *ir.DisableStmt:
		if v.Scope == 0 {
			p.unsupported(v.Pos, "disable fork")
			p.line(v.Pos, "; // disable fork")
			return
		}
		p.line(v.Pos, "disable %s;", p.names.ScopeRef(scope, v.Scope))
	case *ir.BreakStmt:
		p.unsupported(v.Pos, "break statement")
		p.line(v.Pos, "; // break")
	case *ir.ContinueStmt:
		p.unsupported(v.Pos, "continue statement")
		p.line(v.Pos, "; // continue")
	case *ir.ReturnStmt:
		p.unsupported(v.Pos, "return statement")
		p.line(v.Pos, "; // return")
	default:
		p.fatalf(s.Position(), "unknown statement %T", s)
	}
}

// cond renders a self-determined control expression.
func (p *printer) cond(scope ir.ScopeID, e ir.Expr) string {
	return p.top(p.expr(scope, e, exprCtx{}))
}

func (p *printer) sysTask(scope ir.ScopeID, v *ir.SysTaskStmt) string {
	if len(v.Args) == 0 {
		return v.Name
	}
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		if a != nil {
			args[i] = p.top(p.expr(scope, a, exprCtx{}))
		}
	}
	return v.Name + "(" + strings.Join(args, ", ") + ")"
}

func (p *printer) block(scope ir.ScopeID, header string, v *ir.BlockStmt) {
	if v.Scope == 0 {
		if r := p.reconstruct(scope, v); r != nil {
			p.emitReconstructed(scope, header, r)
			return
		}
		p.line(v.Pos, "%s", join(header, "begin"))
		p.indent++
		for _, s := range v.Stmts {
			p.stmt(scope, s)
		}
		p.indent--
		p.line(ir.Pos{}, "end")
		return
	}
	p.line(v.Pos, "%s : %s", join(header, "begin"), p.names.ScopeName(v.Scope))
	p.scopedBody(v.Scope, v.Stmts)
	p.line(ir.Pos{}, "end")
}

func (p *printer) fork(scope ir.ScopeID, header string, v *ir.ForkStmt) {
	if v.Join != ir.JoinAll {
		kind := "join_any"
		if v.Join == ir.JoinNone {
			kind = "join_none"
		}
		p.unsupported(v.Pos, "fork/%s", kind)
	}
	if v.Scope == 0 {
		p.line(v.Pos, "%s", join(header, "fork"))
		p.indent++
		for _, s := range v.Stmts {
			p.stmt(scope, s)
		}
		p.indent--
	} else {
		p.line(v.Pos, "%s : %s", join(header, "fork"), p.names.ScopeName(v.Scope))
		p.scopedBody(v.Scope, v.Stmts)
	}
	p.line(ir.Pos{}, "join")
}

// scopedBody renders the statements of a named block followed by the
// declarations they turned out to need, declarations first.
func (p *printer) scopedBody(scope ir.ScopeID, stmts []ir.Stmt) {
	p.indent++
	body := p.capture(func() {
		for _, s := range stmts {
			p.stmt(scope, s)
		}
	})
	p.declareParams([]ir.ScopeID{scope})
	p.declareVars([]ir.ScopeID{scope})
	p.declareEvents([]ir.ScopeID{scope})
	p.buf.WriteString(body)
	p.indent--
}

func (p *printer) ifStmt(scope ir.ScopeID, header string, v *ir.IfStmt) {
	header = fmt.Sprintf("%s (%s)", header, p.cond(scope, v.Cond))
	if v.Else == nil {
		p.stmtAfter(scope, header, v.Then, v.Pos)
		return
	}
	if _, dangling := v.Then.(*ir.IfStmt); dangling {
		// Keep the else from binding to the inner if.
		p.line(v.Pos, "%s begin", header)
		p.indent++
		p.stmt(scope, v.Then)
		p.indent--
		p.line(ir.Pos{}, "end")
	} else {
		p.stmtAfter(scope, header, v.Then, v.Pos)
	}
	if elif, ok := v.Else.(*ir.IfStmt); ok {
		p.ifStmt(scope, "else if", elif)
		return
	}
	p.stmtAfter(scope, "else", v.Else, v.Pos)
}

func (p *printer) caseStmt(scope ir.ScopeID, v *ir.CaseStmt) {
	if v.Quality != ir.QualityNone {
		p.unsupported(v.Pos, "%s case", v.Quality)
	}
	kw := "case"
	switch v.Kind {
	case ir.CaseX:
		kw = "casex"
	case ir.CaseZ:
		kw = "casez"
	}
	width := v.Expr.Info().Width
	for _, item := range v.Items {
		for _, g := range item.Guards {
			if w := g.Info().Width; w > width {
				width = w
			}
		}
	}
	ctx := exprCtx{width: width}
	if v.Kind == ir.CaseReal {
		ctx = exprCtx{}
	}
	p.line(v.Pos, "%s (%s)", kw, p.top(p.expr(scope, v.Expr, ctx)))
	p.indent++
	for _, item := range v.Items {
		label := "default"
		if len(item.Guards) > 0 {
			guards := make([]string, len(item.Guards))
			for i, g := range item.Guards {
				guards[i] = p.top(p.expr(scope, g, ctx))
			}
			label = strings.Join(guards, ", ")
		}
		p.stmtAfter(scope, label+":", item.Body, v.Pos)
	}
	p.indent--
	p.line(ir.Pos{}, "endcase")
}

// hasNamedScope reports whether s declares a named block or fork.
func hasNamedScope(s ir.Stmt) bool {
	found := false
	walkStmt(s, func(s ir.Stmt) {
		switch v := s.(type) {
		case *ir.BlockStmt:
			found = found || v.Scope != 0
		case *ir.ForkStmt:
			found = found || v.Scope != 0
		}
	})
	return found
}

// doWhile rewrites do/while as the body followed by a while loop.
func (p *printer) doWhile(scope ir.ScopeID, v *ir.DoWhileStmt) {
	header := fmt.Sprintf("while (%s)", p.cond(scope, v.Cond))
	if hasNamedScope(v.Body) {
		p.unsupported(v.Pos, "do/while loop whose body declares a named scope")
		p.stmtAfter(scope, header, v.Body, v.Pos)
		return
	}
	p.line(v.Pos, "begin")
	p.indent++
	p.stmt(scope, v.Body)
	p.muted++
	p.stmtAfter(scope, header, v.Body, v.Pos)
	p.muted--
	p.indent--
	p.line(ir.Pos{}, "end")
}

// simpleAssign returns s when it is a plain blocking assignment.
func simpleAssign(s ir.Stmt) (*ir.AssignStmt, bool) {
	a, ok := s.(*ir.AssignStmt)
	if !ok || a.Kind != ir.AssignBlocking || a.Delay != nil || len(a.Events) != 0 || a.Count != nil {
		return nil, false
	}
	return a, true
}

func (p *printer) forStmt(scope ir.ScopeID, v *ir.ForStmt) {
	init, ok1 := simpleAssign(v.Init)
	step, ok2 := simpleAssign(v.Step)
	if ok1 && ok2 {
		header := fmt.Sprintf("for (%s; %s; %s)", p.assignText(scope, init), p.cond(scope, v.Cond), p.assignText(scope, step))
		p.stmtAfter(scope, header, v.Body, v.Pos)
		return
	}
	p.unsupported(v.Pos, "for loop with a complex initialization or step")
	p.line(v.Pos, "begin")
	p.indent++
	if v.Init != nil {
		p.stmt(scope, v.Init)
	}
	p.line(v.Pos, "while (%s) begin", p.cond(scope, v.Cond))
	p.indent++
	if v.Body != nil {
		p.stmt(scope, v.Body)
	}
	if v.Step != nil {
		p.stmt(scope, v.Step)
	}
	p.indent--
	p.line(ir.Pos{}, "end")
	p.indent--
	p.line(ir.Pos{}, "end")
}

// assignText renders an assignment without its terminating semicolon.
func (p *printer) assignText(scope ir.ScopeID, a *ir.AssignStmt) string {
	lval, width := p.lvalsText(scope, a.LVals, a.Pos)
	rval := a.RVal
	if rval == nil {
		p.fatalf(a.Pos, "assignment without a value")
	}
	if a.Op != ir.OpNone {
		if len(a.LVals) != 1 {
			p.fatalf(a.Pos, "compound assignment to a concatenation")
		}
		cur := p.lvalExpr(a.LVals[0])
		ci, ri := cur.Info(), rval.Info()
		typ := ci.Type
		if ri.Type == ir.TypeReal {
			typ = ir.TypeReal
		}
		rval = &ir.BinaryExpr{
			ExprInfo: ir.ExprInfo{Width: width, Signed: ci.Signed && ri.Signed, Type: typ, Pos: a.Pos},
			Op:       a.Op,
			Left:     cur,
			Right:    rval,
		}
	}
	ctx := exprCtx{width: width, lval: true}
	if ir.IsReal(rval) {
		ctx = exprCtx{}
	}
	r := p.top(p.expr(scope, rval, ctx))
	switch a.Kind {
	case ir.AssignNonBlocking:
		return lval + " <= " + p.timing(scope, a) + r
	case ir.AssignProcedural:
		return "assign " + lval + " = " + r
	case ir.AssignForce:
		return "force " + lval + " = " + r
	}
	return lval + " = " + p.timing(scope, a) + r
}

// timing renders intra-assignment timing with a trailing space.
func (p *printer) timing(scope ir.ScopeID, a *ir.AssignStmt) string {
	switch {
	case a.Count != nil:
		return fmt.Sprintf("repeat (%s) @(%s) ", p.cond(scope, a.Count), p.eventList(scope, a.Events, a.Pos))
	case len(a.Events) > 0:
		return "@(" + p.eventList(scope, a.Events, a.Pos) + ") "
	case a.Delay != nil:
		return delayControl(p.delayValue(scope, a.Delay)) + " "
	}
	return ""
}

func (p *printer) lvalSignal(lv ir.LValue, pos ir.Pos) *ir.Signal {
	sig := p.design.Signal(lv.Signal)
	if sig == nil {
		p.fatalf(pos, "assignment to unknown signal %d", lv.Signal)
	}
	return sig
}

func lvalWidth(sig *ir.Signal, lv ir.LValue) int {
	if lv.Width > 0 {
		return lv.Width
	}
	return sig.Width()
}

// lvalExpr reads an assignment target back as an expression.
func (p *printer) lvalExpr(lv ir.LValue) ir.Expr {
	sig := p.lvalSignal(lv, ir.Pos{})
	var e ir.Expr = &ir.SignalExpr{
		ExprInfo: ir.ExprInfo{Width: sig.Width(), Signed: sig.Signed || sig.Integer, Type: sig.Type},
		Signal:   sig.ID,
		Word:     lv.Word,
	}
	if lv.Offset != nil {
		e = &ir.SelectExpr{ExprInfo: ir.ExprInfo{Width: lv.Width}, Operand: e, Offset: lv.Offset}
	}
	return e
}

func (p *printer) lvalsText(scope ir.ScopeID, lvals []ir.LValue, pos ir.Pos) (string, int) {
	if len(lvals) == 0 {
		p.fatalf(pos, "assignment without a target")
	}
	parts := make([]string, len(lvals))
	width := 0
	for i, lv := range lvals {
		sig := p.lvalSignal(lv, pos)
		parts[i] = p.lvalText(scope, sig, lv, pos)
		width += lvalWidth(sig, lv)
	}
	if len(parts) == 1 {
		return parts[0], width
	}
	return "{" + strings.Join(parts, ", ") + "}", width
}

func (p *printer) lvalText(scope ir.ScopeID, sig *ir.Signal, lv ir.LValue, pos ir.Pos) string {
	base := p.signalRef(scope, sig, lv.Word)
	width := lvalWidth(sig, lv)
	if lv.Offset == nil && width == sig.Width() {
		return base
	}
	if lv.Word != nil {
		p.unsupported(pos, "bit or part select of array word %s", base)
		return base
	}
	if lv.Offset == nil {
		return base + constRange(sig.MSB, sig.LSB, 0, width)
	}
	return p.selectText(scope, base, sig.MSB, sig.LSB, lv.Offset, width)
}

// walkStmt calls fn for s and every statement nested in it.
func walkStmt(s ir.Stmt, fn func(ir.Stmt)) {
	if s == nil {
		return
	}
	fn(s)
	switch v := s.(type) {
	case *ir.BlockStmt:
		for _, c := range v.Stmts {
			walkStmt(c, fn)
		}
	case *ir.ForkStmt:
		for _, c := range v.Stmts {
			walkStmt(c, fn)
		}
	case *ir.IfStmt:
		walkStmt(v.Then, fn)
		walkStmt(v.Else, fn)
	case *ir.CaseStmt:
		for _, item := range v.Items {
			walkStmt(item.Body, fn)
		}
	case *ir.WhileStmt:
		walkStmt(v.Body, fn)
	case *ir.DoWhileStmt:
		walkStmt(v.Body, fn)
	case *ir.ForeverStmt:
		walkStmt(v.Body, fn)
	case *ir.RepeatStmt:
		walkStmt(v.Body, fn)
	case *ir.ForStmt:
		walkStmt(v.Init, fn)
		walkStmt(v.Step, fn)
		walkStmt(v.Body, fn)
	case *ir.DelayStmt:
		walkStmt(v.Body, fn)
	case *ir.DelayXStmt:
		walkStmt(v.Body, fn)
	case *ir.WaitStmt:
		walkStmt(v.Body, fn)
	}
}
