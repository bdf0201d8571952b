package ir

import "fmt"

// Builder assembles a Design arena. The front end (or the JSON decoder and
// tests) uses it so that IDs, ownership lists and nexus terminals stay
// consistent.
type Builder struct {
	design *Design
}

// NewBuilder starts an empty design at the given time precision.
func NewBuilder(precision int) *Builder {
	return &Builder{design: &Design{Precision: precision}}
}

// Design returns the design built so far.
func (b *Builder) Design() *Design {
	return b.design
}

// AddScope registers s under s.Parent (or as a root) and returns its ID.
func (b *Builder) AddScope(s *Scope) ScopeID {
	d := b.design
	s.ID = ScopeID(len(d.Scopes) + 1)
	d.Scopes = append(d.Scopes, s)
	if parent := d.Scope(s.Parent); parent != nil {
		parent.Children = append(parent.Children, s.ID)
	} else {
		s.Parent = 0
		d.Roots = append(d.Roots, s.ID)
	}
	return s.ID
}

// Module adds a module instance scope using the design precision as both
// time unit and precision.
func (b *Builder) Module(parent ScopeID, name, typeName string) ScopeID {
	return b.AddScope(&Scope{
		Kind:          ScopeModule,
		Name:          name,
		TypeName:      typeName,
		Parent:        parent,
		TimeUnit:      b.design.Precision,
		TimePrecision: b.design.Precision,
	})
}

// SubScope adds a task, function, named block, fork or generate scope that
// inherits the time units of its parent.
func (b *Builder) SubScope(kind ScopeKind, parent ScopeID, name string) ScopeID {
	s := &Scope{Kind: kind, Name: name, TypeName: name, Parent: parent}
	if p := b.design.Scope(parent); p != nil {
		s.TimeUnit = p.TimeUnit
		s.TimePrecision = p.TimePrecision
	}
	return b.AddScope(s)
}

// AddNexus creates an empty nexus.
func (b *Builder) AddNexus(width int) NexusID {
	d := b.design
	id := NexusID(len(d.Nexuses) + 1)
	d.Nexuses = append(d.Nexuses, &Nexus{ID: id, Width: width})
	return id
}

// Attach adds a terminal to a nexus.
func (b *Builder) Attach(nex NexusID, t Terminal) {
	n := b.design.Nexus(nex)
	if n == nil {
		panic(fmt.Sprintf("attach to unknown nexus %d", nex))
	}
	n.Terminals = append(n.Terminals, t)
}

// AddSignal registers sig in its scope. A nexus is created for every word
// that does not already name one, and the signal terminal is attached with
// the strengths the storage class asserts.
func (b *Builder) AddSignal(sig *Signal) SignalID {
	d := b.design
	sig.ID = SignalID(len(d.Signals) + 1)
	d.Signals = append(d.Signals, sig)
	if scope := d.Scope(sig.Scope); scope != nil {
		scope.Signals = append(scope.Signals, sig.ID)
		if sig.Port != PortNone {
			scope.Ports = append(scope.Ports, sig.ID)
		}
	}
	words := 1
	if sig.Array != nil && sig.Array.Count > 0 {
		words = sig.Array.Count
	}
	for len(sig.Nexus) < words {
		sig.Nexus = append(sig.Nexus, b.AddNexus(sig.Width()))
	}
	d0, d1 := SignalDrive(sig)
	for word, nex := range sig.Nexus {
		b.Attach(nex, Terminal{Kind: TermSignal, Signal: sig.ID, Word: word, Drive0: d0, Drive1: d1})
	}
	return sig.ID
}

// Reg adds an unsigned [width-1:0] variable.
func (b *Builder) Reg(scope ScopeID, name string, width int) SignalID {
	return b.AddSignal(&Signal{Name: name, Scope: scope, Kind: KindReg, MSB: width - 1})
}

// Wire adds an unsigned [width-1:0] wire.
func (b *Builder) Wire(scope ScopeID, name string, width int) SignalID {
	return b.AddSignal(&Signal{Name: name, Scope: scope, Kind: KindWire, MSB: width - 1})
}

// Port adds a [width-1:0] port signal of the given storage class.
func (b *Builder) Port(scope ScopeID, name string, dir PortDir, kind SignalKind, width int) SignalID {
	return b.AddSignal(&Signal{Name: name, Scope: scope, Kind: kind, MSB: width - 1, Port: dir})
}

// AddDevice registers dev in its scope and attaches its pins. Unset output
// strengths default to strong, or to pull for pull devices.
func (b *Builder) AddDevice(dev *Device) DeviceID {
	d := b.design
	dev.ID = DeviceID(len(d.Devices) + 1)
	d.Devices = append(d.Devices, dev)
	if scope := d.Scope(dev.Scope); scope != nil {
		scope.Devices = append(scope.Devices, dev.ID)
	}
	if dev.Drive0 == StrengthHiZ && dev.Drive1 == StrengthHiZ {
		switch dev.Kind {
		case GatePullup:
			dev.Drive1 = StrengthPull
		case GatePulldown:
			dev.Drive0 = StrengthPull
		case SwitchTran, SwitchTranif0, SwitchTranif1, SwitchRtran, SwitchRtranif0, SwitchRtranif1:
		default:
			dev.Drive0, dev.Drive1 = StrengthStrong, StrengthStrong
		}
	}
	for _, pin := range dev.Pins() {
		t := Terminal{Kind: TermDevice, Device: dev.ID, Role: pin.Role, Index: pin.Index}
		if pin.Role == PinOutput {
			t.Drive0, t.Drive1 = dev.Drive0, dev.Drive1
		}
		b.Attach(pin.Nexus, t)
	}
	return dev.ID
}

// Drive attaches a constant driver to nex.
func (b *Builder) Drive(nex NexusID, value Bits, drive0, drive1 Strength) {
	b.Attach(nex, Terminal{Kind: TermConst, Value: value, Drive0: drive0, Drive1: drive1})
}

// AddEvent registers an event in its scope.
func (b *Builder) AddEvent(ev *Event) EventID {
	d := b.design
	ev.ID = EventID(len(d.Events) + 1)
	d.Events = append(d.Events, ev)
	if scope := d.Scope(ev.Scope); scope != nil && ev.IsNamed() {
		scope.Events = append(scope.Events, ev.ID)
	}
	return ev.ID
}

// AddUDP registers a user-defined primitive definition.
func (b *Builder) AddUDP(u *UDPDef) UDPID {
	d := b.design
	u.ID = UDPID(len(d.UDPs) + 1)
	d.UDPs = append(d.UDPs, u)
	return u.ID
}

// AddProcess appends an initial/always process to a scope.
func (b *Builder) AddProcess(scope ScopeID, p *Process) {
	if s := b.design.Scope(scope); s != nil {
		s.Processes = append(s.Processes, p)
	}
}

// Ref builds a whole-signal reference.
func (b *Builder) Ref(id SignalID) *SignalExpr {
	sig := b.design.Signal(id)
	if sig == nil {
		panic(fmt.Sprintf("reference to unknown signal %d", id))
	}
	return &SignalExpr{ExprInfo: ExprInfo{Width: sig.Width(), Signed: sig.Signed, Type: sig.Type}, Signal: id}
}

// Num builds an unsigned literal from an MSB-first bit string.
func Num(bits string) *NumberExpr {
	v := MustBits(bits)
	return &NumberExpr{ExprInfo: ExprInfo{Width: len(v)}, Bits: v}
}

// Int builds a defined literal of the given width and signedness.
func Int(v int64, width int, signed bool) *NumberExpr {
	return &NumberExpr{ExprInfo: ExprInfo{Width: width, Signed: signed}, Bits: BitsFromInt(v, width)}
}

// Real builds a real literal.
func Real(v float64) *RealExpr {
	return &RealExpr{ExprInfo: ExprInfo{Width: 1, Signed: true, Type: TypeReal}, Value: v}
}

// Str builds a string literal.
func Str(s string) *StringExpr {
	return &StringExpr{ExprInfo: ExprInfo{Width: 8 * len(s), Type: TypeString}, Value: s}
}

// Binary builds a binary expression with an explicit result type.
func Binary(op BinaryOp, left, right Expr, width int, signed bool) *BinaryExpr {
	return &BinaryExpr{ExprInfo: ExprInfo{Width: width, Signed: signed}, Op: op, Left: left, Right: right}
}

// Unary builds a unary expression with an explicit result type.
func Unary(op UnaryOp, operand Expr, width int, signed bool) *UnaryExpr {
	return &UnaryExpr{ExprInfo: ExprInfo{Width: width, Signed: signed}, Op: op, Operand: operand}
}

// Select builds a width-bit select at a normalized offset.
func Select(operand, offset Expr, width int) *SelectExpr {
	return &SelectExpr{ExprInfo: ExprInfo{Width: width}, Operand: operand, Offset: offset}
}

// Resize pads or truncates operand to width bits.
func Resize(operand Expr, width int, signed bool) *SelectExpr {
	return &SelectExpr{ExprInfo: ExprInfo{Width: width, Signed: signed}, Operand: operand}
}
