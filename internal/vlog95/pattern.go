package vlog95

import (
	"fmt"
	"strings"

	"vlog95/internal/ir"
)

// reconstructed is a source statement rebuilt from the statement sequence
// the front end lowered it into. It is either one complete line (text) or
// a header that controls body.
type reconstructed struct {
	text   string
	header string
	body   ir.Stmt
	pos    ir.Pos
}

// reconstruct tries each recognizer in priority order.
func (p *printer) reconstruct(scope ir.ScopeID, b *ir.BlockStmt) *reconstructed {
	for _, match := range []func(ir.ScopeID, *ir.BlockStmt) (*reconstructed, bool){
		p.matchDelayedAssign,
		p.matchRepeatAssign,
		p.matchWait,
		p.matchTaskCall,
	} {
		if r, ok := match(scope, b); ok {
			return r
		}
	}
	return nil
}

func (p *printer) emitReconstructed(scope ir.ScopeID, header string, r *reconstructed) {
	if r.body == nil {
		p.line(r.pos, "%s", join(header, r.text))
		return
	}
	p.timed(scope, header, r.header, r.body, r.pos)
}

// wholeTarget returns the signal a simple assignment writes as a whole.
func (p *printer) wholeTarget(a *ir.AssignStmt) (*ir.Signal, bool) {
	if len(a.LVals) != 1 || a.Op != ir.OpNone {
		return nil, false
	}
	lv := a.LVals[0]
	sig := p.design.Signal(lv.Signal)
	if sig == nil || lv.Word != nil || lv.Offset != nil || (lv.Width != 0 && lv.Width != sig.Width()) {
		return nil, false
	}
	return sig, true
}

// readsWhole reports whether e is a plain reference to all of sig.
func readsWhole(e ir.Expr, sig *ir.Signal) bool {
	ref, ok := e.(*ir.SignalExpr)
	return ok && ref.Signal == sig.ID && ref.Word == nil
}

func writes(a *ir.AssignStmt, sig *ir.Signal) bool {
	for _, lv := range a.LVals {
		if lv.Signal == sig.ID {
			return true
		}
	}
	return false
}

func onOneLine(stmts ...ir.Stmt) bool {
	for _, s := range stmts[1:] {
		if s.Position().Line != stmts[0].Position().Line {
			return false
		}
	}
	return true
}

// matchDelayedAssign recognizes {tmp = r; <timing> lval = tmp;} with all
// statements on one source line, the lowering of lval = <timing> r. Only a
// compiler temporary qualifies since the write to tmp disappears.
func (p *printer) matchDelayedAssign(scope ir.ScopeID, b *ir.BlockStmt) (*reconstructed, bool) {
	if len(b.Stmts) != 2 {
		return nil, false
	}
	first, ok := simpleAssign(b.Stmts[0])
	if !ok {
		return nil, false
	}
	tmp, ok := p.wholeTarget(first)
	if !ok || !tmp.Local {
		return nil, false
	}
	var inner ir.Stmt
	switch s := b.Stmts[1].(type) {
	case *ir.DelayStmt:
		inner = s.Body
	case *ir.DelayXStmt:
		inner = s.Body
	case *ir.WaitStmt:
		inner = s.Body
	default:
		return nil, false
	}
	second, ok := simpleAssign(inner)
	if !ok || second.Op != ir.OpNone || !readsWhole(second.RVal, tmp) || writes(second, tmp) {
		return nil, false
	}
	if !onOneLine(first, b.Stmts[1], second) {
		return nil, false
	}

	control, _ := p.control(scope, b.Stmts[1])
	lval, _ := p.lvalsText(scope, second.LVals, second.Pos)
	rval := p.top(p.expr(scope, first.RVal, exprCtx{width: tmp.Width(), lval: true}))
	return &reconstructed{text: fmt.Sprintf("%s = %s %s;", lval, control, rval), pos: first.Pos}, true
}

// matchRepeatAssign recognizes {tmp = r; repeat (n) @(e); lval = tmp;},
// the lowering of lval = repeat (n) @(e) r, for a compiler temporary tmp.
func (p *printer) matchRepeatAssign(scope ir.ScopeID, b *ir.BlockStmt) (*reconstructed, bool) {
	if len(b.Stmts) != 3 {
		return nil, false
	}
	first, ok := simpleAssign(b.Stmts[0])
	if !ok {
		return nil, false
	}
	tmp, ok := p.wholeTarget(first)
	if !ok || !tmp.Local {
		return nil, false
	}
	rep, ok := b.Stmts[1].(*ir.RepeatStmt)
	if !ok {
		return nil, false
	}
	wait, ok := rep.Body.(*ir.WaitStmt)
	if !ok || !emptyStmt(wait.Body) {
		return nil, false
	}
	last, ok := simpleAssign(b.Stmts[2])
	if !ok || last.Op != ir.OpNone || !readsWhole(last.RVal, tmp) || writes(last, tmp) {
		return nil, false
	}
	if !onOneLine(first, rep, last) {
		return nil, false
	}
	count := p.cond(scope, rep.Count)
	events := p.eventList(scope, wait.Events, wait.Pos)
	lval, _ := p.lvalsText(scope, last.LVals, last.Pos)
	rval := p.top(p.expr(scope, first.RVal, exprCtx{width: tmp.Width(), lval: true}))
	return &reconstructed{text: fmt.Sprintf("%s = repeat (%s) @(%s) %s;", lval, count, events, rval), pos: first.Pos}, true
}

func emptyStmt(s ir.Stmt) bool {
	if s == nil {
		return true
	}
	_, ok := s.(*ir.NoopStmt)
	return ok
}

// matchWait recognizes {while (x !== 1) @(...); [stmt]}, the lowering of
// wait (x) [stmt].
func (p *printer) matchWait(scope ir.ScopeID, b *ir.BlockStmt) (*reconstructed, bool) {
	if len(b.Stmts) != 1 && len(b.Stmts) != 2 {
		return nil, false
	}
	loop, ok := b.Stmts[0].(*ir.WhileStmt)
	if !ok {
		return nil, false
	}
	cmp, ok := loop.Cond.(*ir.BinaryExpr)
	if !ok || cmp.Op != ir.OpCaseNe {
		return nil, false
	}
	one, ok := cmp.Right.(*ir.NumberExpr)
	if !ok {
		return nil, false
	}
	if v, ok := one.Bits.Uint64(); !ok || v != 1 {
		return nil, false
	}
	wait, ok := loop.Body.(*ir.WaitStmt)
	if !ok || !emptyStmt(wait.Body) {
		return nil, false
	}
	header := fmt.Sprintf("wait (%s)", p.cond(scope, cmp.Left))
	if len(b.Stmts) == 1 {
		return &reconstructed{text: header + ";", pos: loop.Pos}, true
	}
	return &reconstructed{header: header, body: b.Stmts[1], pos: loop.Pos}, true
}

// matchTaskCall recognizes {in_port = arg; ...; call; arg = out_port; ...}
// on the line of the block, the lowering of a task call with arguments.
func (p *printer) matchTaskCall(scope ir.ScopeID, b *ir.BlockStmt) (*reconstructed, bool) {
	idx := -1
	for i, s := range b.Stmts {
		if _, ok := s.(*ir.TaskCallStmt); ok {
			if idx >= 0 {
				return nil, false
			}
			idx = i
		}
	}
	if idx < 0 || len(b.Stmts) < 2 {
		return nil, false
	}
	call := b.Stmts[idx].(*ir.TaskCallStmt)
	task := p.design.Scope(call.Task)
	if task == nil || task.Kind != ir.ScopeTask {
		return nil, false
	}
	line := b.Pos.Line
	if line == 0 {
		line = call.Pos.Line
	}
	for _, s := range b.Stmts {
		if s.Position().Line != line {
			return nil, false
		}
	}

	dirs := make(map[ir.SignalID]ir.PortDir, len(task.Ports))
	for _, id := range task.Ports {
		if sig := p.design.Signal(id); sig != nil {
			dirs[id] = sig.Port
		}
	}
	pre := make(map[ir.SignalID]*ir.AssignStmt)
	for _, s := range b.Stmts[:idx] {
		a, ok := simpleAssign(s)
		if !ok {
			return nil, false
		}
		sig, ok := p.wholeTarget(a)
		if !ok || pre[sig.ID] != nil {
			return nil, false
		}
		if d := dirs[sig.ID]; d != ir.PortInput && d != ir.PortInout {
			return nil, false
		}
		pre[sig.ID] = a
	}
	post := make(map[ir.SignalID]*ir.AssignStmt)
	for _, s := range b.Stmts[idx+1:] {
		a, ok := simpleAssign(s)
		if !ok || a.Op != ir.OpNone {
			return nil, false
		}
		ref, ok := a.RVal.(*ir.SignalExpr)
		if !ok || ref.Word != nil || post[ref.Signal] != nil {
			return nil, false
		}
		if d := dirs[ref.Signal]; d != ir.PortOutput && d != ir.PortInout {
			return nil, false
		}
		post[ref.Signal] = a
	}

	for _, id := range task.Ports {
		switch dirs[id] {
		case ir.PortInput:
			if pre[id] == nil {
				return nil, false
			}
		case ir.PortOutput, ir.PortInout:
			if post[id] == nil {
				return nil, false
			}
		default:
			return nil, false
		}
	}

	args := make([]string, 0, len(task.Ports))
	for _, id := range task.Ports {
		if dirs[id] == ir.PortInput {
			port := p.design.Signal(id)
			args = append(args, p.top(p.expr(scope, pre[id].RVal, exprCtx{width: port.Width(), lval: true})))
			continue
		}
		a := post[id]
		lval, _ := p.lvalsText(scope, a.LVals, a.Pos)
		args = append(args, lval)
	}
	name := p.names.ScopeRef(scope, call.Task)
	return &reconstructed{text: name + "(" + strings.Join(args, ", ") + ");", pos: call.Pos}, true
}
