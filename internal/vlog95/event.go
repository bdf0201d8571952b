package vlog95

import (
	"strings"

	"vlog95/internal/ir"
)

// eventList renders the event control list of a wait statement.
func (p *printer) eventList(scope ir.ScopeID, ids []ir.EventID, pos ir.Pos) string {
	var parts []string
	for _, id := range ids {
		ev := p.design.Event(id)
		if ev == nil {
			p.fatalf(pos, "reference to unknown event %d", id)
		}
		if ev.IsNamed() {
			parts = append(parts, p.names.Ref(scope, ev.Scope, ev.Name))
			continue
		}
		for _, n := range ev.AnyEdge {
			parts = append(parts, p.top(p.nexusText(scope, n)))
		}
		for _, n := range ev.Posedge {
			parts = append(parts, "posedge "+p.top(p.nexusText(scope, n)))
		}
		for _, n := range ev.Negedge {
			parts = append(parts, "negedge "+p.top(p.nexusText(scope, n)))
		}
	}
	if len(parts) == 0 {
		p.fatalf(pos, "event control without any event")
	}
	return strings.Join(parts, " or ")
}

// declareEvents declares the named events of scopes.
func (p *printer) declareEvents(scopes []ir.ScopeID) {
	for _, id := range scopes {
		s := p.design.Scope(id)
		for _, eid := range s.Events {
			ev := p.design.Event(eid)
			if ev == nil || !ev.IsNamed() {
				continue
			}
			p.line(ev.Pos, "event %s;", p.names.LocalName(id, ev.Name))
		}
	}
}
