package ir

import "vlog95/internal/diag"

// Pos records where an IR node came from in the original source.
type Pos = diag.Pos

// Arena references. Every ID is 1-based; the zero value means "none".
type (
	ScopeID  int
	SignalID int
	NexusID  int
	DeviceID int
	EventID  int
	UDPID    int
)

// Design is the elaborated, read-only description handed to the backend.
// Objects live in the arena tables and reference each other by ID so that
// scope/child and nexus/terminal cycles can be walked without ownership
// questions.
type Design struct {
	Roots   []ScopeID
	Scopes  []*Scope
	Signals []*Signal
	Nexuses []*Nexus
	Devices []*Device
	Events  []*Event
	UDPs    []*UDPDef

	// Precision is the simulation time precision exponent (-9 is 1ns).
	// Every delay stored in the IR is expressed in these units.
	Precision      int
	DelaySelection DelaySelection
}

// DelaySelection records which of min:typ:max the front end picked.
type DelaySelection int

const (
	DelayTypical DelaySelection = iota
	DelayMinimum
	DelayMaximum
)

func (d DelaySelection) String() string {
	switch d {
	case DelayMinimum:
		return "MINIMUM"
	case DelayMaximum:
		return "MAXIMUM"
	default:
		return "TYPICAL"
	}
}

// Scope returns the scope with the given ID or nil.
func (d *Design) Scope(id ScopeID) *Scope {
	if d == nil || id <= 0 || int(id) > len(d.Scopes) {
		return nil
	}
	return d.Scopes[id-1]
}

// Signal returns the signal with the given ID or nil.
func (d *Design) Signal(id SignalID) *Signal {
	if d == nil || id <= 0 || int(id) > len(d.Signals) {
		return nil
	}
	return d.Signals[id-1]
}

// Nexus returns the nexus with the given ID or nil.
func (d *Design) Nexus(id NexusID) *Nexus {
	if d == nil || id <= 0 || int(id) > len(d.Nexuses) {
		return nil
	}
	return d.Nexuses[id-1]
}

// Device returns the device with the given ID or nil.
func (d *Design) Device(id DeviceID) *Device {
	if d == nil || id <= 0 || int(id) > len(d.Devices) {
		return nil
	}
	return d.Devices[id-1]
}

// Event returns the event with the given ID or nil.
func (d *Design) Event(id EventID) *Event {
	if d == nil || id <= 0 || int(id) > len(d.Events) {
		return nil
	}
	return d.Events[id-1]
}

// UDP returns the user-defined primitive with the given ID or nil.
func (d *Design) UDP(id UDPID) *UDPDef {
	if d == nil || id <= 0 || int(id) > len(d.UDPs) {
		return nil
	}
	return d.UDPs[id-1]
}

// ScopeKind enumerates the hierarchical scope flavours.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeTask
	ScopeFunction
	ScopeBlock
	ScopeFork
	ScopeGenerate
	ScopePackage
	ScopeClass
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeTask:
		return "task"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "begin"
	case ScopeFork:
		return "fork"
	case ScopeGenerate:
		return "generate"
	case ScopePackage:
		return "package"
	case ScopeClass:
		return "class"
	default:
		return "?"
	}
}

// Scope is one node of the hierarchical naming tree.
type Scope struct {
	ID       ScopeID
	Kind     ScopeKind
	Name     string
	TypeName string
	Parent   ScopeID
	Children []ScopeID

	TimeUnit      int
	TimePrecision int

	Signals []SignalID
	// Ports lists module ports in header order, or task/function
	// arguments in declaration order. A function's first port is its
	// return value.
	Ports     []SignalID
	Params    []*Param
	Devices   []DeviceID
	Events    []EventID
	Processes []*Process
	// Body is the statement of a task or function.
	Body      Stmt
	Automatic bool
	Paths     []*ModPath
	Pos       Pos
}

// IsModuleLike reports whether the scope is emitted as its own module.
func (s *Scope) IsModuleLike() bool {
	return s != nil && (s.Kind == ScopeModule || s.Kind == ScopePackage)
}

// Param is a parameter owned by a scope.
type Param struct {
	Name  string
	Value Expr
	Local bool
	Pos   Pos
}

// PortDir is the direction of a port signal.
type PortDir int

const (
	PortNone PortDir = iota
	PortInput
	PortOutput
	PortInout
)

func (p PortDir) String() string {
	switch p {
	case PortInput:
		return "input"
	case PortOutput:
		return "output"
	case PortInout:
		return "inout"
	default:
		return ""
	}
}

// SignalKind is the storage class: a variable or one of the net types.
type SignalKind int

const (
	KindReg SignalKind = iota
	KindWire
	KindTri
	KindTri0
	KindTri1
	KindWand
	KindTriand
	KindWor
	KindTrior
	KindTrireg
	KindSupply0
	KindSupply1
	KindUwire
)

// Keyword returns the declaration keyword of the storage class.
func (k SignalKind) Keyword() string {
	switch k {
	case KindReg:
		return "reg"
	case KindWire:
		return "wire"
	case KindTri:
		return "tri"
	case KindTri0:
		return "tri0"
	case KindTri1:
		return "tri1"
	case KindWand:
		return "wand"
	case KindTriand:
		return "triand"
	case KindWor:
		return "wor"
	case KindTrior:
		return "trior"
	case KindTrireg:
		return "trireg"
	case KindSupply0:
		return "supply0"
	case KindSupply1:
		return "supply1"
	case KindUwire:
		return "uwire"
	default:
		return "wire"
	}
}

// DataType is the base value type of signals and expressions.
type DataType int

const (
	TypeLogic DataType = iota
	TypeBool
	TypeReal
	TypeString
	TypeClass
	TypeDArray
	TypeQueue
	TypeVoid
)

func (t DataType) String() string {
	switch t {
	case TypeLogic:
		return "logic"
	case TypeBool:
		return "bool"
	case TypeReal:
		return "real"
	case TypeString:
		return "string"
	case TypeClass:
		return "class"
	case TypeDArray:
		return "darray"
	case TypeQueue:
		return "queue"
	case TypeVoid:
		return "void"
	default:
		return "?"
	}
}

// ArrayInfo describes an unpacked array. Normalized word i is declared
// address Base+i; Swapped means the source declared [max:min].
type ArrayInfo struct {
	Dims    int
	Count   int
	Base    int
	Swapped bool
}

// Signal is a named net or variable owned by exactly one scope.
type Signal struct {
	ID     SignalID
	Name   string
	Scope  ScopeID
	Kind   SignalKind
	Type   DataType
	MSB    int
	LSB    int
	Signed bool
	Port   PortDir
	// Integer and Time select the integer/time variable keywords.
	Integer bool
	Time    bool
	Array   *ArrayInfo
	// Local marks compiler-synthesized signals that stay unnamed when the
	// backend can avoid naming them.
	Local bool
	// Nexus holds one entry per array word (one for plain vectors).
	Nexus []NexusID
	Pos   Pos
}

// Width returns the packed width of the signal.
func (s *Signal) Width() int {
	if s.MSB >= s.LSB {
		return s.MSB - s.LSB + 1
	}
	return s.LSB - s.MSB + 1
}

// IsNet reports whether the signal is a net rather than a variable.
func (s *Signal) IsNet() bool {
	return s.Kind != KindReg
}

// IsArray reports whether the signal is an unpacked array.
func (s *Signal) IsArray() bool {
	return s.Array != nil
}

// Strength is a Verilog drive strength. StrengthHiZ marks a receiver.
type Strength int

const (
	StrengthHiZ Strength = iota
	StrengthSmall
	StrengthMedium
	StrengthWeak
	StrengthLarge
	StrengthPull
	StrengthStrong
	StrengthSupply
)

// Name returns the strength keyword stem ("strong", "pull", ...).
func (s Strength) Name() string {
	switch s {
	case StrengthHiZ:
		return "highz"
	case StrengthSmall:
		return "small"
	case StrengthMedium:
		return "medium"
	case StrengthWeak:
		return "weak"
	case StrengthLarge:
		return "large"
	case StrengthPull:
		return "pull"
	case StrengthStrong:
		return "strong"
	case StrengthSupply:
		return "supply"
	default:
		return "?"
	}
}

// SignalDrive returns the strengths a signal asserts onto its own nexus:
// variables drive strongly, supply and pull nets drive their constant and
// every other net is a pure receiver.
func SignalDrive(sig *Signal) (drive0, drive1 Strength) {
	switch sig.Kind {
	case KindReg:
		return StrengthStrong, StrengthStrong
	case KindSupply0:
		return StrengthSupply, StrengthHiZ
	case KindSupply1:
		return StrengthHiZ, StrengthSupply
	case KindTri0:
		return StrengthPull, StrengthHiZ
	case KindTri1:
		return StrengthHiZ, StrengthPull
	default:
		return StrengthHiZ, StrengthHiZ
	}
}

// Nexus is the electrical union of every terminal tied to one net.
type Nexus struct {
	ID        NexusID
	Width     int
	Terminals []Terminal
}

// TerminalKind says what owns a terminal.
type TerminalKind int

const (
	TermSignal TerminalKind = iota
	TermDevice
	TermConst
)

// PinRole names which pin of a device a terminal is.
type PinRole int

const (
	PinOutput PinRole = iota
	PinInput
	PinSelect
	PinClock
	PinEnable
	PinClear
	PinSet
	PinInout
)

// Terminal is one attachment to a nexus.
type Terminal struct {
	Kind TerminalKind

	Signal SignalID
	Word   int

	Device DeviceID
	Role   PinRole
	Index  int

	Value Bits

	Drive0 Strength
	Drive1 Strength
}

// IsDriver reports whether the terminal asserts a value.
func (t Terminal) IsDriver() bool {
	return t.Drive0 != StrengthHiZ || t.Drive1 != StrengthHiZ
}

// ProcessKind enumerates the structured procedures of a module.
type ProcessKind int

const (
	ProcInitial ProcessKind = iota
	ProcAlways
	ProcAlwaysComb
	ProcAlwaysFF
	ProcAlwaysLatch
	ProcFinal
)

func (k ProcessKind) String() string {
	switch k {
	case ProcInitial:
		return "initial"
	case ProcAlways:
		return "always"
	case ProcAlwaysComb:
		return "always_comb"
	case ProcAlwaysFF:
		return "always_ff"
	case ProcAlwaysLatch:
		return "always_latch"
	case ProcFinal:
		return "final"
	default:
		return "?"
	}
}

// Process is an initial/always/final block.
type Process struct {
	Kind ProcessKind
	Body Stmt
	Pos  Pos
}

// Event is a named event or an anonymous edge list used by wait statements.
type Event struct {
	ID      EventID
	Name    string
	Scope   ScopeID
	Local   bool
	AnyEdge []NexusID
	Posedge []NexusID
	Negedge []NexusID
	Pos     Pos
}

// IsNamed reports whether the event is a declared named event.
func (e *Event) IsNamed() bool {
	return !e.Local && len(e.AnyEdge) == 0 && len(e.Posedge) == 0 && len(e.Negedge) == 0
}

// UDPRow is one row of a UDP truth table. Inputs hold table symbols such
// as "0", "?", "r" or "(01)".
type UDPRow struct {
	Inputs  []string
	Current string
	Output  string
}

// UDPDef is a user-defined primitive definition.
type UDPDef struct {
	ID         UDPID
	Name       string
	Sequential bool
	// Ports lists the output name followed by the input names.
	Ports []string
	// Init is the initial output of a sequential UDP ('x' for none).
	Init Logic
	Rows []UDPRow
	Pos  Pos
}

// ModPath is a specify-block module path delay.
type ModPath struct {
	Source SignalID
	Dest   SignalID
	Full   bool
	Cond   Expr
	Delays []uint64
	Pos    Pos
}
