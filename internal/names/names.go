// Package names computes Verilog-1995 identifiers and hierarchical
// references for objects of an elaborated design.
package names

import (
	"strings"

	"vlog95/internal/ir"
)

// keywords holds the reserved words of IEEE 1364-1995 and the words later
// revisions reserved, so the output also reads cleanly with newer tools.
var keywords = map[string]bool{}

func init() {
	for _, kw := range strings.Fields(`
		always and assign begin buf bufif0 bufif1 case casex casez cmos
		deassign default defparam disable edge else end endcase endfunction
		endmodule endprimitive endspecify endtable endtask event for force
		forever fork function highz0 highz1 if ifnone initial inout input
		integer join large macromodule medium module nand negedge nmos nor
		not notif0 notif1 or output parameter pmos posedge primitive pull0
		pull1 pulldown pullup rcmos real realtime reg release repeat rnmos
		rpmos rtran rtranif0 rtranif1 scalared small specify specparam
		strong0 strong1 supply0 supply1 table task time tran tranif0 tranif1
		tri tri0 tri1 triand trior trireg vectored wait wand weak0 weak1
		while wire wor xnor xor
		automatic cell config design endconfig endgenerate generate genvar
		incdir include instance liblist library localparam noshowcancelled
		pulsestyle_ondetect pulsestyle_onevent showcancelled signed unsigned
		use uwire`) {
		keywords[kw] = true
	}
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	return keywords[name]
}

// Escape returns name as a legal identifier: simple identifiers are
// returned unchanged, everything else becomes an escaped identifier
// terminated by a space.
func Escape(name string) string {
	if isSimple(name) && !keywords[name] {
		return name
	}
	var sb strings.Builder
	sb.WriteByte('\\')
	for _, r := range name {
		if r <= ' ' || r == 0x7f {
			sb.WriteByte('_')
			continue
		}
		sb.WriteRune(r)
	}
	sb.WriteByte(' ')
	return sb.String()
}

func isSimple(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case i > 0 && (c >= '0' && c <= '9' || c == '$'):
		default:
			return false
		}
	}
	return true
}

// Resolver answers naming questions for one design. Generate scopes are
// flattened into their module, so items declared in them carry the
// generate path in an escaped name.
type Resolver struct {
	design    *ir.Design
	signature func(*ir.Scope) string

	moduleNames map[ir.ScopeID]string
	byType      map[string]map[string]string
}

// NewResolver creates a resolver. signature returns a key that is equal
// for two module instances exactly when their bodies are identical; nil
// treats every instance of a type as identical.
func NewResolver(design *ir.Design, signature func(*ir.Scope) string) *Resolver {
	if signature == nil {
		signature = func(*ir.Scope) string { return "" }
	}
	return &Resolver{
		design:      design,
		signature:   signature,
		moduleNames: make(map[ir.ScopeID]string),
		byType:      make(map[string]map[string]string),
	}
}

// Module returns the syntactic module enclosing id: the nearest module or
// package scope at or above it.
func (r *Resolver) Module(id ir.ScopeID) ir.ScopeID {
	for s := r.design.Scope(id); s != nil; s = r.design.Scope(s.Parent) {
		if s.IsModuleLike() {
			return s.ID
		}
	}
	return 0
}

// generatePrefix returns the dotted path of the generate scopes that
// directly enclose items of scope id (id itself included).
func (r *Resolver) generatePrefix(id ir.ScopeID) string {
	var parts []string
	for s := r.design.Scope(id); s != nil && s.Kind == ir.ScopeGenerate; s = r.design.Scope(s.Parent) {
		parts = append(parts, s.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// LocalName is the identifier of an item called name declared in scope.
func (r *Resolver) LocalName(scope ir.ScopeID, name string) string {
	if prefix := r.generatePrefix(scope); prefix != "" {
		return Escape(prefix + "." + name)
	}
	return Escape(name)
}

// ScopeName is the identifier a scope is declared with in its parent.
func (r *Resolver) ScopeName(id ir.ScopeID) string {
	s := r.design.Scope(id)
	if s == nil {
		return ""
	}
	return r.LocalName(s.Parent, s.Name)
}

func (r *Resolver) isAncestorOrSelf(anc, id ir.ScopeID) bool {
	for s := r.design.Scope(id); s != nil; s = r.design.Scope(s.Parent) {
		if s.ID == anc {
			return true
		}
	}
	return false
}

// path lists the scope components leading from stop (exclusive) down to
// id (inclusive). Generate scopes fold into the next component.
func (r *Resolver) path(stop, id ir.ScopeID) []string {
	var comps []string
	for s := r.design.Scope(id); s != nil && s.ID != stop; s = r.design.Scope(s.Parent) {
		if s.Kind == ir.ScopeGenerate {
			continue
		}
		comps = append(comps, r.ScopeName(s.ID))
	}
	for i, j := 0, len(comps)-1; i < j; i, j = i+1, j-1 {
		comps[i], comps[j] = comps[j], comps[i]
	}
	return comps
}

// commonAncestor returns the deepest scope enclosing both a and b.
func (r *Resolver) commonAncestor(a, b ir.ScopeID) ir.ScopeID {
	for s := r.design.Scope(a); s != nil; s = r.design.Scope(s.Parent) {
		if r.isAncestorOrSelf(s.ID, b) {
			return s.ID
		}
	}
	return 0
}

// nonGenerate skips generate scopes upward; they are not hierarchy levels
// in the output.
func (r *Resolver) nonGenerate(id ir.ScopeID) ir.ScopeID {
	s := r.design.Scope(id)
	for s != nil && s.Kind == ir.ScopeGenerate {
		s = r.design.Scope(s.Parent)
	}
	if s == nil {
		return 0
	}
	return s.ID
}

// Ref returns the shortest reference from code in scope use to the item
// name declared in scope owner:
//   - a bare name when owner encloses use,
//   - a path relative to their common scope inside one module,
//   - a path relative to use's module for items of descendant modules,
//   - otherwise a path starting at the instance name of the nearest common
//     module (the root when there is none).
func (r *Resolver) Ref(use, owner ir.ScopeID, name string) string {
	item := r.LocalName(owner, name)
	um, tm := r.Module(use), r.Module(owner)
	var comps []string
	switch {
	case um == tm && r.isAncestorOrSelf(r.nonGenerate(owner), use):
		return item
	case um == tm:
		common := r.nonGenerate(r.commonAncestor(use, owner))
		comps = r.path(common, owner)
	case um != 0 && r.isAncestorOrSelf(um, tm):
		comps = r.path(um, owner)
	default:
		common := r.Module(r.commonAncestor(um, tm))
		if common == 0 {
			common = r.root(tm)
		}
		comps = append([]string{r.ScopeName(common)}, r.path(common, owner)...)
	}
	return joinPath(append(comps, item))
}

// ScopeRef returns the reference from use to the scope target, as used by
// task calls, disable statements and scope arguments of system tasks.
func (r *Resolver) ScopeRef(use, target ir.ScopeID) string {
	s := r.design.Scope(target)
	if s == nil {
		return ""
	}
	if s.Parent == 0 {
		return r.ScopeName(target)
	}
	return r.Ref(use, s.Parent, s.Name)
}

func (r *Resolver) root(id ir.ScopeID) ir.ScopeID {
	s := r.design.Scope(id)
	for s != nil && s.Parent != 0 {
		s = r.design.Scope(s.Parent)
	}
	if s == nil {
		return 0
	}
	return s.ID
}

func joinPath(comps []string) string {
	var sb strings.Builder
	for i, c := range comps {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(c)
	}
	return sb.String()
}

// ModuleName returns the module definition name emitted for the module
// instance id. Instances of one type share the type name until an
// instance with a different signature appears; it gets the alias
// type__instance_path. Results are memoized per instance.
func (r *Resolver) ModuleName(id ir.ScopeID) string {
	if name, ok := r.moduleNames[id]; ok {
		return name
	}
	s := r.design.Scope(id)
	if s == nil {
		return ""
	}
	sig := r.signature(s)
	seen := r.byType[s.TypeName]
	if seen == nil {
		seen = make(map[string]string)
		r.byType[s.TypeName] = seen
	}
	name, ok := seen[sig]
	if !ok {
		if len(seen) == 0 {
			name = Escape(s.TypeName)
		} else {
			name = Escape(s.TypeName + "__" + r.instancePath(id))
		}
		seen[sig] = name
	}
	r.moduleNames[id] = name
	return name
}

func (r *Resolver) instancePath(id ir.ScopeID) string {
	var parts []string
	for s := r.design.Scope(id); s != nil; s = r.design.Scope(s.Parent) {
		parts = append(parts, s.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.NewReplacer(".", "_", "[", "_", "]", "_").Replace(strings.Join(parts, "_"))
}
