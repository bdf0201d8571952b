package ir

// DeviceKind tags a primitive device.
type DeviceKind int

const (
	GateAnd DeviceKind = iota
	GateNand
	GateOr
	GateNor
	GateXor
	GateXnor
	GateBuf
	GateNot
	GateBufz
	GateBufif0
	GateBufif1
	GateNotif0
	GateNotif1
	GateNmos
	GatePmos
	GateRnmos
	GateRpmos
	GateCmos
	GateRcmos
	GatePullup
	GatePulldown
	GateUDP

	SwitchTran
	SwitchTranif0
	SwitchTranif1
	SwitchRtran
	SwitchRtranif0
	SwitchRtranif1

	LPMAdd
	LPMSub
	LPMMult
	LPMDiv
	LPMMod
	LPMPow
	LPMCmpEq
	LPMCmpNe
	LPMCmpEEq
	LPMCmpNEE
	LPMCmpWEq
	LPMCmpWNe
	LPMCmpGt
	LPMCmpGe
	LPMMux
	LPMPartVP
	LPMPartPV
	LPMConcat
	LPMRepeat
	LPMReduceAnd
	LPMReduceNand
	LPMReduceOr
	LPMReduceNor
	LPMReduceXor
	LPMReduceXnor
	LPMShiftL
	LPMShiftR
	LPMSignExt
	LPMSubstitute
	LPMFF
	LPMLatch
	LPMArray
	LPMUFunc
	LPMSFunc
	LPMCastInt
	LPMCastReal
	LPMAbs
)

var deviceNames = map[DeviceKind]string{
	GateAnd: "and", GateNand: "nand", GateOr: "or", GateNor: "nor",
	GateXor: "xor", GateXnor: "xnor", GateBuf: "buf", GateNot: "not",
	GateBufz: "bufz", GateBufif0: "bufif0", GateBufif1: "bufif1",
	GateNotif0: "notif0", GateNotif1: "notif1", GateNmos: "nmos",
	GatePmos: "pmos", GateRnmos: "rnmos", GateRpmos: "rpmos",
	GateCmos: "cmos", GateRcmos: "rcmos", GatePullup: "pullup",
	GatePulldown: "pulldown", GateUDP: "udp",
	SwitchTran: "tran", SwitchTranif0: "tranif0", SwitchTranif1: "tranif1",
	SwitchRtran: "rtran", SwitchRtranif0: "rtranif0", SwitchRtranif1: "rtranif1",
	LPMAdd: "add", LPMSub: "sub", LPMMult: "mult", LPMDiv: "div", LPMMod: "mod",
	LPMPow: "pow", LPMCmpEq: "cmp_eq", LPMCmpNe: "cmp_ne", LPMCmpEEq: "cmp_eeq",
	LPMCmpNEE: "cmp_nee", LPMCmpWEq: "cmp_weq", LPMCmpWNe: "cmp_wne",
	LPMCmpGt: "cmp_gt", LPMCmpGe: "cmp_ge", LPMMux: "mux", LPMPartVP: "part_vp",
	LPMPartPV: "part_pv", LPMConcat: "concat", LPMRepeat: "repeat",
	LPMReduceAnd: "reduce_and", LPMReduceNand: "reduce_nand",
	LPMReduceOr: "reduce_or", LPMReduceNor: "reduce_nor",
	LPMReduceXor: "reduce_xor", LPMReduceXnor: "reduce_xnor",
	LPMShiftL: "shiftl", LPMShiftR: "shiftr", LPMSignExt: "sign_ext",
	LPMSubstitute: "substitute", LPMFF: "ff", LPMLatch: "latch",
	LPMArray: "array", LPMUFunc: "ufunc", LPMSFunc: "sfunc",
	LPMCastInt: "cast_int", LPMCastReal: "cast_real", LPMAbs: "abs",
}

func (k DeviceKind) String() string {
	if name, ok := deviceNames[k]; ok {
		return name
	}
	return "?"
}

// ParseDeviceKind maps a device name back to its kind.
func ParseDeviceKind(name string) (DeviceKind, bool) {
	for k, n := range deviceNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// IsGate reports whether the device is an elementary logic gate.
func (k DeviceKind) IsGate() bool {
	return k >= GateAnd && k <= GateUDP
}

// IsSwitch reports whether the device is a bidirectional pass switch.
func (k DeviceKind) IsSwitch() bool {
	return k >= SwitchTran && k <= SwitchRtranif1
}

// IsLPM reports whether the device is a structural (LPM) unit.
func (k DeviceKind) IsLPM() bool {
	return k >= LPMAdd
}

// Delay is either a constant in simulation precision units or an
// expression.
type Delay struct {
	Value uint64
	Expr  Expr
}

// Device is one structural unit. Output is the driven nexus; Inputs hold
// the data operands in the order of the device (least significant first
// for concatenations, data 0..n-1 for multiplexers).
type Device struct {
	ID    DeviceID
	Kind  DeviceKind
	Name  string
	Local bool
	Scope ScopeID

	Width  int
	Signed bool

	Output NexusID
	Inputs []NexusID

	Select      NexusID
	SelectWidth int
	Clock       NexusID
	Enable      NexusID
	Clear       NexusID
	Set         NexusID
	Negedge     bool

	// Base is the constant offset of part selects and substitutes.
	Base int
	// Count is the repeat count of LPMRepeat.
	Count int

	Array   SignalID
	Func    ScopeID
	SysName string
	UDP     UDPID

	Delays []Delay
	Drive0 Strength
	Drive1 Strength
	Pos    Pos
}

// Pins lists every (role, index, nexus) the device attaches to.
func (d *Device) Pins() []DevicePin {
	var pins []DevicePin
	if d.Output != 0 {
		role := PinOutput
		if d.Kind.IsSwitch() {
			role = PinInout
		}
		pins = append(pins, DevicePin{Role: role, Nexus: d.Output})
	}
	for i, in := range d.Inputs {
		role := PinInput
		if d.Kind.IsSwitch() {
			role = PinInout
		}
		pins = append(pins, DevicePin{Role: role, Index: i, Nexus: in})
	}
	for _, p := range []DevicePin{
		{Role: PinSelect, Nexus: d.Select},
		{Role: PinClock, Nexus: d.Clock},
		{Role: PinEnable, Nexus: d.Enable},
		{Role: PinClear, Nexus: d.Clear},
		{Role: PinSet, Nexus: d.Set},
	} {
		if p.Nexus != 0 {
			pins = append(pins, p)
		}
	}
	return pins
}

// DevicePin is one attachment point of a device.
type DevicePin struct {
	Role  PinRole
	Index int
	Nexus NexusID
}
