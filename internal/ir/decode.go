package ir

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// The JSON form mirrors the arena: every table is a list whose 1-based
// position is the object's ID. Expressions and statements are tagged by
// "kind".

type designJSON struct {
	Precision      int           `json:"precision"`
	DelaySelection string        `json:"delaySelection"`
	Nexuses        []nexusJSON   `json:"nexuses"`
	Scopes         []scopeJSON   `json:"scopes"`
	Signals        []signalJSON  `json:"signals"`
	Events         []eventJSON   `json:"events"`
	UDPs           []udpJSON     `json:"udps"`
	Devices        []deviceJSON  `json:"devices"`
	Consts         []constJSON   `json:"consts"`
	Bodies         []bodyJSON    `json:"bodies"`
	Paths          []modPathJSON `json:"paths"`
	Processes      []processJSON `json:"processes"`
	Params         []paramJSON   `json:"params"`
}

type nexusJSON struct {
	Width int `json:"width"`
}

type scopeJSON struct {
	Kind          string `json:"kind"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Parent        int    `json:"parent"`
	TimeUnit      *int   `json:"timeUnit"`
	TimePrecision *int   `json:"timePrecision"`
	Automatic     bool   `json:"automatic"`
	File          string `json:"file"`
	Line          int    `json:"line"`
}

type paramJSON struct {
	Scope int       `json:"scope"`
	Name  string    `json:"name"`
	Value *exprJSON `json:"value"`
	Local bool      `json:"local"`
	File  string    `json:"file"`
	Line  int       `json:"line"`
}

type arrayJSON struct {
	Dims    int  `json:"dims"`
	Count   int  `json:"count"`
	Base    int  `json:"base"`
	Swapped bool `json:"swapped"`
}

type signalJSON struct {
	Name    string     `json:"name"`
	Scope   int        `json:"scope"`
	Kind    string     `json:"kind"`
	Type    string     `json:"type"`
	MSB     int        `json:"msb"`
	LSB     int        `json:"lsb"`
	Signed  bool       `json:"signed"`
	Port    string     `json:"port"`
	Integer bool       `json:"integer"`
	Time    bool       `json:"time"`
	Array   *arrayJSON `json:"array"`
	Local   bool       `json:"local"`
	Nexus   []int      `json:"nexus"`
	File    string     `json:"file"`
	Line    int        `json:"line"`
}

type eventJSON struct {
	Name    string `json:"name"`
	Scope   int    `json:"scope"`
	Local   bool   `json:"local"`
	AnyEdge []int  `json:"anyedge"`
	Posedge []int  `json:"posedge"`
	Negedge []int  `json:"negedge"`
	File    string `json:"file"`
	Line    int    `json:"line"`
}

type udpRowJSON struct {
	Inputs  []string `json:"inputs"`
	Current string   `json:"current"`
	Output  string   `json:"output"`
}

type udpJSON struct {
	Name       string       `json:"name"`
	Sequential bool         `json:"sequential"`
	Ports      []string     `json:"ports"`
	Init       string       `json:"init"`
	Rows       []udpRowJSON `json:"rows"`
	File       string       `json:"file"`
	Line       int          `json:"line"`
}

type delayJSON struct {
	Value uint64    `json:"value"`
	Expr  *exprJSON `json:"expr"`
}

type deviceJSON struct {
	Kind        string      `json:"kind"`
	Name        string      `json:"name"`
	Local       bool        `json:"local"`
	Scope       int         `json:"scope"`
	Width       int         `json:"width"`
	Signed      bool        `json:"signed"`
	Output      int         `json:"output"`
	Inputs      []int       `json:"inputs"`
	Select      int         `json:"select"`
	SelectWidth int         `json:"selectWidth"`
	Clock       int         `json:"clock"`
	Enable      int         `json:"enable"`
	Clear       int         `json:"clear"`
	Set         int         `json:"set"`
	Negedge     bool        `json:"negedge"`
	Base        int         `json:"base"`
	Count       int         `json:"count"`
	Array       int         `json:"array"`
	Func        int         `json:"func"`
	SysName     string      `json:"sysName"`
	UDP         int         `json:"udp"`
	Delays      []delayJSON `json:"delays"`
	Drive0      string      `json:"drive0"`
	Drive1      string      `json:"drive1"`
	File        string      `json:"file"`
	Line        int         `json:"line"`
}

type constJSON struct {
	Nexus  int    `json:"nexus"`
	Value  string `json:"value"`
	Drive0 string `json:"drive0"`
	Drive1 string `json:"drive1"`
}

type bodyJSON struct {
	Scope int       `json:"scope"`
	Body  *stmtJSON `json:"body"`
}

type processJSON struct {
	Scope int       `json:"scope"`
	Kind  string    `json:"kind"`
	Body  *stmtJSON `json:"body"`
	File  string    `json:"file"`
	Line  int       `json:"line"`
}

type modPathJSON struct {
	Scope  int       `json:"scope"`
	Source int       `json:"source"`
	Dest   int       `json:"dest"`
	Full   bool      `json:"full"`
	Cond   *exprJSON `json:"cond"`
	Delays []uint64  `json:"delays"`
	File   string    `json:"file"`
	Line   int       `json:"line"`
}

type exprJSON struct {
	Kind   string `json:"kind"`
	Width  int    `json:"width"`
	Signed bool   `json:"signed"`
	Type   string `json:"type"`
	File   string `json:"file"`
	Line   int    `json:"line"`

	Bits     string      `json:"bits"`
	Real     float64     `json:"real"`
	String   string      `json:"string"`
	Ticks    uint64      `json:"ticks"`
	Signal   int         `json:"signal"`
	Word     *exprJSON   `json:"word"`
	Scope    int         `json:"scope"`
	Name     string      `json:"name"`
	Value    *exprJSON   `json:"value"`
	Op       string      `json:"op"`
	Operand  *exprJSON   `json:"operand"`
	Left     *exprJSON   `json:"left"`
	Right    *exprJSON   `json:"right"`
	Cond     *exprJSON   `json:"cond"`
	True     *exprJSON   `json:"true"`
	False    *exprJSON   `json:"false"`
	Parts    []*exprJSON `json:"parts"`
	Repeat   int         `json:"repeat"`
	Offset   *exprJSON   `json:"offset"`
	Func     int         `json:"func"`
	Args     []*exprJSON `json:"args"`
	Object   *exprJSON   `json:"object"`
	Property string      `json:"property"`
	Size     *exprJSON   `json:"size"`
	Init     *exprJSON   `json:"init"`
	Event    int         `json:"event"`
}

type lvalJSON struct {
	Signal int       `json:"signal"`
	Word   *exprJSON `json:"word"`
	Offset *exprJSON `json:"offset"`
	Width  int       `json:"width"`
}

type caseItemJSON struct {
	Guards []*exprJSON `json:"guards"`
	Body   *stmtJSON   `json:"body"`
}

type stmtJSON struct {
	Kind string `json:"kind"`
	File string `json:"file"`
	Line int    `json:"line"`

	LVals   []lvalJSON     `json:"lvals"`
	RVal    *exprJSON      `json:"rval"`
	Op      string         `json:"op"`
	Delay   *exprJSON      `json:"delay"`
	Events  []int          `json:"events"`
	Count   *exprJSON      `json:"count"`
	Scope   int            `json:"scope"`
	Join    string         `json:"join"`
	Stmts   []*stmtJSON    `json:"stmts"`
	Cond    *exprJSON      `json:"cond"`
	Then    *stmtJSON      `json:"then"`
	Else    *stmtJSON      `json:"else"`
	Case    string         `json:"case"`
	Quality string         `json:"quality"`
	Expr    *exprJSON      `json:"expr"`
	Items   []caseItemJSON `json:"items"`
	Body    *stmtJSON      `json:"body"`
	Init    *stmtJSON      `json:"init"`
	Step    *stmtJSON      `json:"step"`
	Ticks   uint64         `json:"ticks"`
	Event   int            `json:"event"`
	Task    int            `json:"task"`
	Name    string         `json:"name"`
	Args    []*exprJSON    `json:"args"`
	Value   *exprJSON      `json:"value"`
}

// ReadFile decodes a JSON design from path.
func ReadFile(path string) (*Design, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	design, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return design, nil
}

// Decode reads a JSON design. Objects are created through a Builder so
// the terminal lists of every nexus are rebuilt from the signal, device
// and constant tables.
func Decode(r io.Reader) (*Design, error) {
	var raw designJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode design: %w", err)
	}
	d := &decoder{b: NewBuilder(raw.Precision)}
	if err := d.design(&raw); err != nil {
		return nil, err
	}
	return d.b.Design(), nil
}

type decoder struct {
	b *Builder
}

func (d *decoder) design(raw *designJSON) error {
	design := d.b.Design()
	switch strings.ToUpper(raw.DelaySelection) {
	case "", "TYPICAL":
		design.DelaySelection = DelayTypical
	case "MINIMUM":
		design.DelaySelection = DelayMinimum
	case "MAXIMUM":
		design.DelaySelection = DelayMaximum
	default:
		return fmt.Errorf("unknown delay selection %q", raw.DelaySelection)
	}
	for _, n := range raw.Nexuses {
		d.b.AddNexus(n.Width)
	}
	for i, s := range raw.Scopes {
		if err := d.scope(i+1, s); err != nil {
			return err
		}
	}
	for i, s := range raw.Signals {
		if err := d.signal(i+1, s); err != nil {
			return err
		}
	}
	for i, ev := range raw.Events {
		if err := d.event(i+1, ev); err != nil {
			return err
		}
	}
	for i, u := range raw.UDPs {
		if err := d.udp(i+1, u); err != nil {
			return err
		}
	}
	for _, p := range raw.Params {
		scope := design.Scope(ScopeID(p.Scope))
		if scope == nil {
			return fmt.Errorf("param %s: unknown scope %d", p.Name, p.Scope)
		}
		value, err := d.expr(p.Value)
		if err != nil {
			return fmt.Errorf("param %s: %w", p.Name, err)
		}
		scope.Params = append(scope.Params, &Param{Name: p.Name, Value: value, Local: p.Local, Pos: Pos{File: p.File, Line: p.Line}})
	}
	for i, dev := range raw.Devices {
		if err := d.device(i+1, dev); err != nil {
			return err
		}
	}
	for i, c := range raw.Consts {
		if err := d.constant(i+1, c); err != nil {
			return err
		}
	}
	for _, body := range raw.Bodies {
		scope := design.Scope(ScopeID(body.Scope))
		if scope == nil {
			return fmt.Errorf("body: unknown scope %d", body.Scope)
		}
		stmt, err := d.stmt(body.Body)
		if err != nil {
			return fmt.Errorf("body of %s: %w", scope.Name, err)
		}
		scope.Body = stmt
	}
	for _, proc := range raw.Processes {
		if design.Scope(ScopeID(proc.Scope)) == nil {
			return fmt.Errorf("process: unknown scope %d", proc.Scope)
		}
		kind, ok := processKinds[proc.Kind]
		if !ok {
			return fmt.Errorf("process: unknown kind %q", proc.Kind)
		}
		body, err := d.stmt(proc.Body)
		if err != nil {
			return fmt.Errorf("%s process: %w", proc.Kind, err)
		}
		d.b.AddProcess(ScopeID(proc.Scope), &Process{Kind: kind, Body: body, Pos: Pos{File: proc.File, Line: proc.Line}})
	}
	for _, p := range raw.Paths {
		scope := design.Scope(ScopeID(p.Scope))
		if scope == nil {
			return fmt.Errorf("path: unknown scope %d", p.Scope)
		}
		cond, err := d.expr(p.Cond)
		if err != nil {
			return fmt.Errorf("path condition: %w", err)
		}
		scope.Paths = append(scope.Paths, &ModPath{
			Source: SignalID(p.Source),
			Dest:   SignalID(p.Dest),
			Full:   p.Full,
			Cond:   cond,
			Delays: p.Delays,
			Pos:    Pos{File: p.File, Line: p.Line},
		})
	}
	return nil
}

var scopeKinds = map[string]ScopeKind{
	"module": ScopeModule, "task": ScopeTask, "function": ScopeFunction,
	"begin": ScopeBlock, "block": ScopeBlock, "fork": ScopeFork,
	"generate": ScopeGenerate, "package": ScopePackage, "class": ScopeClass,
}

var processKinds = map[string]ProcessKind{
	"initial": ProcInitial, "always": ProcAlways, "always_comb": ProcAlwaysComb,
	"always_ff": ProcAlwaysFF, "always_latch": ProcAlwaysLatch, "final": ProcFinal,
}

func (d *decoder) scope(id int, s scopeJSON) error {
	kind, ok := scopeKinds[s.Kind]
	if !ok {
		return fmt.Errorf("scope %d: unknown kind %q", id, s.Kind)
	}
	if s.Parent >= id {
		return fmt.Errorf("scope %d: parent %d must precede it", id, s.Parent)
	}
	typeName := s.Type
	if typeName == "" {
		typeName = s.Name
	}
	scope := &Scope{
		Kind:      kind,
		Name:      s.Name,
		TypeName:  typeName,
		Parent:    ScopeID(s.Parent),
		Automatic: s.Automatic,
		Pos:       Pos{File: s.File, Line: s.Line},
	}
	precision := d.b.Design().Precision
	scope.TimeUnit, scope.TimePrecision = precision, precision
	if parent := d.b.Design().Scope(scope.Parent); parent != nil {
		scope.TimeUnit, scope.TimePrecision = parent.TimeUnit, parent.TimePrecision
	}
	if s.TimeUnit != nil {
		scope.TimeUnit = *s.TimeUnit
	}
	if s.TimePrecision != nil {
		scope.TimePrecision = *s.TimePrecision
	}
	d.b.AddScope(scope)
	return nil
}

var signalKinds = map[string]SignalKind{
	"reg": KindReg, "wire": KindWire, "tri": KindTri, "tri0": KindTri0,
	"tri1": KindTri1, "wand": KindWand, "triand": KindTriand, "wor": KindWor,
	"trior": KindTrior, "trireg": KindTrireg, "supply0": KindSupply0,
	"supply1": KindSupply1, "uwire": KindUwire,
}

var dataTypes = map[string]DataType{
	"": TypeLogic, "logic": TypeLogic, "bool": TypeBool, "real": TypeReal,
	"string": TypeString, "class": TypeClass, "darray": TypeDArray,
	"queue": TypeQueue, "void": TypeVoid,
}

var portDirs = map[string]PortDir{
	"": PortNone, "input": PortInput, "output": PortOutput, "inout": PortInout,
}

func (d *decoder) signal(id int, s signalJSON) error {
	kind, ok := signalKinds[s.Kind]
	if s.Kind == "" {
		kind, ok = KindReg, true
	}
	if !ok {
		return fmt.Errorf("signal %s: unknown kind %q", s.Name, s.Kind)
	}
	typ, ok := dataTypes[s.Type]
	if !ok {
		return fmt.Errorf("signal %s: unknown type %q", s.Name, s.Type)
	}
	port, ok := portDirs[s.Port]
	if !ok {
		return fmt.Errorf("signal %s: unknown port direction %q", s.Name, s.Port)
	}
	if d.b.Design().Scope(ScopeID(s.Scope)) == nil {
		return fmt.Errorf("signal %s: unknown scope %d", s.Name, s.Scope)
	}
	sig := &Signal{
		Name:    s.Name,
		Scope:   ScopeID(s.Scope),
		Kind:    kind,
		Type:    typ,
		MSB:     s.MSB,
		LSB:     s.LSB,
		Signed:  s.Signed,
		Port:    port,
		Integer: s.Integer,
		Time:    s.Time,
		Local:   s.Local,
		Pos:     Pos{File: s.File, Line: s.Line},
	}
	if s.Array != nil {
		sig.Array = &ArrayInfo{Dims: s.Array.Dims, Count: s.Array.Count, Base: s.Array.Base, Swapped: s.Array.Swapped}
		if sig.Array.Dims == 0 {
			sig.Array.Dims = 1
		}
	}
	for _, n := range s.Nexus {
		if d.b.Design().Nexus(NexusID(n)) == nil {
			return fmt.Errorf("signal %s: unknown nexus %d", s.Name, n)
		}
		sig.Nexus = append(sig.Nexus, NexusID(n))
	}
	if got := d.b.AddSignal(sig); int(got) != id {
		return fmt.Errorf("signal %s: id mismatch %d != %d", s.Name, got, id)
	}
	return nil
}

func (d *decoder) event(id int, e eventJSON) error {
	if d.b.Design().Scope(ScopeID(e.Scope)) == nil {
		return fmt.Errorf("event %d: unknown scope %d", id, e.Scope)
	}
	ev := &Event{Name: e.Name, Scope: ScopeID(e.Scope), Local: e.Local, Pos: Pos{File: e.File, Line: e.Line}}
	var err error
	if ev.AnyEdge, err = d.nexusList(e.AnyEdge); err != nil {
		return fmt.Errorf("event %d: %w", id, err)
	}
	if ev.Posedge, err = d.nexusList(e.Posedge); err != nil {
		return fmt.Errorf("event %d: %w", id, err)
	}
	if ev.Negedge, err = d.nexusList(e.Negedge); err != nil {
		return fmt.Errorf("event %d: %w", id, err)
	}
	d.b.AddEvent(ev)
	return nil
}

func (d *decoder) udp(id int, u udpJSON) error {
	if len(u.Ports) < 2 {
		return fmt.Errorf("udp %s: needs an output and at least one input", u.Name)
	}
	def := &UDPDef{Name: u.Name, Sequential: u.Sequential, Ports: u.Ports, Init: LX, Pos: Pos{File: u.File, Line: u.Line}}
	switch u.Init {
	case "", "x", "X":
	case "0":
		def.Init = L0
	case "1":
		def.Init = L1
	default:
		return fmt.Errorf("udp %s: bad initial value %q", u.Name, u.Init)
	}
	for _, row := range u.Rows {
		if len(row.Inputs) != len(u.Ports)-1 {
			return fmt.Errorf("udp %s: row has %d inputs, want %d", u.Name, len(row.Inputs), len(u.Ports)-1)
		}
		def.Rows = append(def.Rows, UDPRow{Inputs: row.Inputs, Current: row.Current, Output: row.Output})
	}
	d.b.AddUDP(def)
	return nil
}

var strengths = map[string]Strength{
	"highz": StrengthHiZ, "small": StrengthSmall, "medium": StrengthMedium,
	"weak": StrengthWeak, "large": StrengthLarge, "pull": StrengthPull,
	"strong": StrengthStrong, "supply": StrengthSupply,
}

func parseStrength(s string, def Strength) (Strength, error) {
	if s == "" {
		return def, nil
	}
	v, ok := strengths[s]
	if !ok {
		return 0, fmt.Errorf("unknown strength %q", s)
	}
	return v, nil
}

func (d *decoder) nexusList(ids []int) ([]NexusID, error) {
	var out []NexusID
	for _, n := range ids {
		if d.b.Design().Nexus(NexusID(n)) == nil {
			return nil, fmt.Errorf("unknown nexus %d", n)
		}
		out = append(out, NexusID(n))
	}
	return out, nil
}

func (d *decoder) optNexus(id int) (NexusID, error) {
	if id == 0 {
		return 0, nil
	}
	if d.b.Design().Nexus(NexusID(id)) == nil {
		return 0, fmt.Errorf("unknown nexus %d", id)
	}
	return NexusID(id), nil
}

func (d *decoder) device(id int, dj deviceJSON) error {
	kind, ok := ParseDeviceKind(dj.Kind)
	if !ok {
		return fmt.Errorf("device %d: unknown kind %q", id, dj.Kind)
	}
	if d.b.Design().Scope(ScopeID(dj.Scope)) == nil {
		return fmt.Errorf("device %d: unknown scope %d", id, dj.Scope)
	}
	dev := &Device{
		Kind:        kind,
		Name:        dj.Name,
		Local:       dj.Local,
		Scope:       ScopeID(dj.Scope),
		Width:       dj.Width,
		Signed:      dj.Signed,
		SelectWidth: dj.SelectWidth,
		Negedge:     dj.Negedge,
		Base:        dj.Base,
		Count:       dj.Count,
		Array:       SignalID(dj.Array),
		Func:        ScopeID(dj.Func),
		SysName:     dj.SysName,
		UDP:         UDPID(dj.UDP),
		Pos:         Pos{File: dj.File, Line: dj.Line},
	}
	var err error
	fail := func(err error) error { return fmt.Errorf("device %d (%s): %w", id, dj.Kind, err) }
	if dev.Output, err = d.optNexus(dj.Output); err != nil {
		return fail(err)
	}
	if dev.Inputs, err = d.nexusList(dj.Inputs); err != nil {
		return fail(err)
	}
	for _, pin := range []struct {
		dst *NexusID
		src int
	}{
		{&dev.Select, dj.Select}, {&dev.Clock, dj.Clock}, {&dev.Enable, dj.Enable},
		{&dev.Clear, dj.Clear}, {&dev.Set, dj.Set},
	} {
		if *pin.dst, err = d.optNexus(pin.src); err != nil {
			return fail(err)
		}
	}
	if dev.Drive0, err = parseStrength(dj.Drive0, StrengthHiZ); err != nil {
		return fail(err)
	}
	if dev.Drive1, err = parseStrength(dj.Drive1, StrengthHiZ); err != nil {
		return fail(err)
	}
	for _, dl := range dj.Delays {
		e, err := d.expr(dl.Expr)
		if err != nil {
			return fail(err)
		}
		dev.Delays = append(dev.Delays, Delay{Value: dl.Value, Expr: e})
	}
	d.b.AddDevice(dev)
	return nil
}

func (d *decoder) constant(id int, c constJSON) error {
	nex, err := d.optNexus(c.Nexus)
	if err != nil || nex == 0 {
		return fmt.Errorf("const %d: bad nexus %d", id, c.Nexus)
	}
	bits, err := ParseBits(c.Value)
	if err != nil {
		return fmt.Errorf("const %d: %w", id, err)
	}
	d0, err := parseStrength(c.Drive0, StrengthStrong)
	if err != nil {
		return fmt.Errorf("const %d: %w", id, err)
	}
	d1, err := parseStrength(c.Drive1, StrengthStrong)
	if err != nil {
		return fmt.Errorf("const %d: %w", id, err)
	}
	d.b.Drive(nex, bits, d0, d1)
	return nil
}

var unaryOps = map[string]UnaryOp{
	"-": UnaryNeg, "~": UnaryNot, "!": UnaryLogNot, "&": UnaryAnd,
	"~&": UnaryNand, "|": UnaryOr, "~|": UnaryNor, "^": UnaryXor,
	"~^": UnaryXnor, "real": UnaryCastReal, "int": UnaryCastInt,
	"2state": UnaryCast2State, "++x": UnaryPreInc, "--x": UnaryPreDec,
	"x++": UnaryPostInc, "x--": UnaryPostDec,
}

var binaryOps = func() map[string]BinaryOp {
	m := make(map[string]BinaryOp)
	for op := OpAdd; op <= OpAShr; op++ {
		m[op.Token()] = op
	}
	return m
}()

func (d *decoder) expr(e *exprJSON) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	typ, ok := dataTypes[e.Type]
	if !ok {
		return nil, fmt.Errorf("expression: unknown type %q", e.Type)
	}
	info := ExprInfo{Width: e.Width, Signed: e.Signed, Type: typ, Pos: Pos{File: e.File, Line: e.Line}}
	sub := func(list ...*exprJSON) ([]Expr, error) {
		out := make([]Expr, len(list))
		for i, x := range list {
			v, err := d.expr(x)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	switch e.Kind {
	case "number":
		bits, err := ParseBits(e.Bits)
		if err != nil {
			return nil, err
		}
		if info.Width == 0 {
			info.Width = len(bits)
		}
		return &NumberExpr{ExprInfo: info, Bits: bits.Resize(info.Width, info.Signed)}, nil
	case "real":
		info.Type = TypeReal
		if info.Width == 0 {
			info.Width = 1
		}
		return &RealExpr{ExprInfo: info, Value: e.Real}, nil
	case "string":
		info.Type = TypeString
		if info.Width == 0 {
			info.Width = 8 * len(e.String)
		}
		return &StringExpr{ExprInfo: info, Value: e.String}, nil
	case "delay":
		if info.Width == 0 {
			info.Width = 64
		}
		return &DelayExpr{ExprInfo: info, Value: e.Ticks}, nil
	case "signal":
		sig := d.b.Design().Signal(SignalID(e.Signal))
		if sig == nil {
			return nil, fmt.Errorf("expression: unknown signal %d", e.Signal)
		}
		if info.Width == 0 {
			info.Width, info.Signed = sig.Width(), sig.Signed
			if e.Type == "" {
				info.Type = sig.Type
			}
		}
		word, err := d.expr(e.Word)
		if err != nil {
			return nil, err
		}
		return &SignalExpr{ExprInfo: info, Signal: sig.ID, Word: word}, nil
	case "param":
		value, err := d.expr(e.Value)
		if err != nil {
			return nil, err
		}
		return &ParamExpr{ExprInfo: info, Scope: ScopeID(e.Scope), Name: e.Name, Value: value}, nil
	case "unary":
		op, ok := unaryOps[e.Op]
		if !ok {
			return nil, fmt.Errorf("expression: unknown unary operator %q", e.Op)
		}
		x, err := sub(e.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{ExprInfo: info, Op: op, Operand: x[0]}, nil
	case "binary":
		op, ok := binaryOps[e.Op]
		if !ok {
			return nil, fmt.Errorf("expression: unknown binary operator %q", e.Op)
		}
		x, err := sub(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{ExprInfo: info, Op: op, Left: x[0], Right: x[1]}, nil
	case "ternary":
		x, err := sub(e.Cond, e.True, e.False)
		if err != nil {
			return nil, err
		}
		return &TernaryExpr{ExprInfo: info, Cond: x[0], True: x[1], False: x[2]}, nil
	case "concat":
		parts, err := sub(e.Parts...)
		if err != nil {
			return nil, err
		}
		return &ConcatExpr{ExprInfo: info, Parts: parts, Repeat: e.Repeat}, nil
	case "select":
		x, err := sub(e.Operand, e.Offset)
		if err != nil {
			return nil, err
		}
		return &SelectExpr{ExprInfo: info, Operand: x[0], Offset: x[1]}, nil
	case "call":
		args, err := sub(e.Args...)
		if err != nil {
			return nil, err
		}
		return &CallExpr{ExprInfo: info, Name: e.Name, Func: ScopeID(e.Func), Args: args}, nil
	case "property":
		obj, err := d.expr(e.Object)
		if err != nil {
			return nil, err
		}
		return &PropertyExpr{ExprInfo: info, Object: obj, Property: e.Property}, nil
	case "new":
		x, err := sub(e.Size, e.Init)
		if err != nil {
			return nil, err
		}
		return &NewExpr{ExprInfo: info, Size: x[0], Init: x[1]}, nil
	case "event":
		return &EventExpr{ExprInfo: info, Event: EventID(e.Event)}, nil
	case "scope":
		return &ScopeExpr{ExprInfo: info, Scope: ScopeID(e.Scope)}, nil
	case "null":
		return &NullExpr{ExprInfo: info}, nil
	default:
		return nil, fmt.Errorf("expression: unknown kind %q", e.Kind)
	}
}

var assignKinds = map[string]AssignKind{
	"assign": AssignBlocking, "nbassign": AssignNonBlocking,
	"passign": AssignProcedural, "force": AssignForce,
}

var caseKinds = map[string]CaseKind{
	"": CaseExact, "case": CaseExact, "casex": CaseX, "casez": CaseZ, "casereal": CaseReal,
}

var caseQualities = map[string]CaseQuality{
	"": QualityNone, "unique": QualityUnique, "unique0": QualityUnique0, "priority": QualityPriority,
}

var joinKinds = map[string]JoinKind{
	"": JoinAll, "join": JoinAll, "join_any": JoinAny, "join_none": JoinNone,
}

func (d *decoder) lvals(list []lvalJSON) ([]LValue, error) {
	out := make([]LValue, 0, len(list))
	for _, lv := range list {
		if d.b.Design().Signal(SignalID(lv.Signal)) == nil {
			return nil, fmt.Errorf("lvalue: unknown signal %d", lv.Signal)
		}
		word, err := d.expr(lv.Word)
		if err != nil {
			return nil, err
		}
		off, err := d.expr(lv.Offset)
		if err != nil {
			return nil, err
		}
		out = append(out, LValue{Signal: SignalID(lv.Signal), Word: word, Offset: off, Width: lv.Width})
	}
	return out, nil
}

func (d *decoder) stmts(list []*stmtJSON) ([]Stmt, error) {
	out := make([]Stmt, 0, len(list))
	for _, s := range list {
		st, err := d.stmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func eventIDs(ids []int) []EventID {
	out := make([]EventID, len(ids))
	for i, id := range ids {
		out[i] = EventID(id)
	}
	return out
}

func (d *decoder) stmt(s *stmtJSON) (Stmt, error) {
	if s == nil {
		return nil, nil
	}
	info := StmtInfo{Pos: Pos{File: s.File, Line: s.Line}}
	fail := func(err error) (Stmt, error) {
		if s.Line > 0 {
			return nil, fmt.Errorf("%s statement at line %d: %w", s.Kind, s.Line, err)
		}
		return nil, fmt.Errorf("%s statement: %w", s.Kind, err)
	}
	switch s.Kind {
	case "assign", "nbassign", "passign", "force":
		lvals, err := d.lvals(s.LVals)
		if err != nil {
			return fail(err)
		}
		rval, err := d.expr(s.RVal)
		if err != nil {
			return fail(err)
		}
		op := OpNone
		if s.Op != "" {
			var ok bool
			if op, ok = binaryOps[s.Op]; !ok {
				return fail(fmt.Errorf("unknown operator %q", s.Op))
			}
		}
		delay, err := d.expr(s.Delay)
		if err != nil {
			return fail(err)
		}
		count, err := d.expr(s.Count)
		if err != nil {
			return fail(err)
		}
		return &AssignStmt{StmtInfo: info, Kind: assignKinds[s.Kind], LVals: lvals, RVal: rval, Op: op, Delay: delay, Events: eventIDs(s.Events), Count: count}, nil
	case "deassign", "release":
		lvals, err := d.lvals(s.LVals)
		if err != nil {
			return fail(err)
		}
		kind := ReleaseDeassign
		if s.Kind == "release" {
			kind = ReleaseRelease
		}
		return &ReleaseStmt{StmtInfo: info, Kind: kind, LVals: lvals}, nil
	case "block", "fork":
		list, err := d.stmts(s.Stmts)
		if err != nil {
			return nil, err
		}
		if s.Kind == "block" {
			return &BlockStmt{StmtInfo: info, Scope: ScopeID(s.Scope), Stmts: list}, nil
		}
		join, ok := joinKinds[s.Join]
		if !ok {
			return fail(fmt.Errorf("unknown join %q", s.Join))
		}
		return &ForkStmt{StmtInfo: info, Scope: ScopeID(s.Scope), Join: join, Stmts: list}, nil
	case "if":
		cond, err := d.expr(s.Cond)
		if err != nil {
			return fail(err)
		}
		then, err := d.stmt(s.Then)
		if err != nil {
			return nil, err
		}
		els, err := d.stmt(s.Else)
		if err != nil {
			return nil, err
		}
		return &IfStmt{StmtInfo: info, Cond: cond, Then: then, Else: els}, nil
	case "case":
		kind, ok := caseKinds[s.Case]
		if !ok {
			return fail(fmt.Errorf("unknown case kind %q", s.Case))
		}
		quality, ok := caseQualities[s.Quality]
		if !ok {
			return fail(fmt.Errorf("unknown case quality %q", s.Quality))
		}
		expr, err := d.expr(s.Expr)
		if err != nil {
			return fail(err)
		}
		cs := &CaseStmt{StmtInfo: info, Kind: kind, Quality: quality, Expr: expr}
		for _, item := range s.Items {
			var guards []Expr
			for _, g := range item.Guards {
				ge, err := d.expr(g)
				if err != nil {
					return fail(err)
				}
				guards = append(guards, ge)
			}
			body, err := d.stmt(item.Body)
			if err != nil {
				return nil, err
			}
			cs.Items = append(cs.Items, CaseItem{Guards: guards, Body: body})
		}
		return cs, nil
	case "while", "dowhile", "forever", "repeat":
		cond, err := d.expr(s.Cond)
		if err != nil {
			return fail(err)
		}
		body, err := d.stmt(s.Body)
		if err != nil {
			return nil, err
		}
		switch s.Kind {
		case "while":
			return &WhileStmt{StmtInfo: info, Cond: cond, Body: body}, nil
		case "dowhile":
			return &DoWhileStmt{StmtInfo: info, Cond: cond, Body: body}, nil
		case "forever":
			return &ForeverStmt{StmtInfo: info, Body: body}, nil
		}
		count, err := d.expr(s.Count)
		if err != nil {
			return fail(err)
		}
		return &RepeatStmt{StmtInfo: info, Count: count, Body: body}, nil
	case "for":
		init, err := d.stmt(s.Init)
		if err != nil {
			return nil, err
		}
		cond, err := d.expr(s.Cond)
		if err != nil {
			return fail(err)
		}
		step, err := d.stmt(s.Step)
		if err != nil {
			return nil, err
		}
		body, err := d.stmt(s.Body)
		if err != nil {
			return nil, err
		}
		return &ForStmt{StmtInfo: info, Init: init, Cond: cond, Step: step, Body: body}, nil
	case "delay":
		body, err := d.stmt(s.Body)
		if err != nil {
			return nil, err
		}
		return &DelayStmt{StmtInfo: info, Delay: s.Ticks, Body: body}, nil
	case "delayx":
		delay, err := d.expr(s.Delay)
		if err != nil {
			return fail(err)
		}
		body, err := d.stmt(s.Body)
		if err != nil {
			return nil, err
		}
		return &DelayXStmt{StmtInfo: info, Delay: delay, Body: body}, nil
	case "wait":
		body, err := d.stmt(s.Body)
		if err != nil {
			return nil, err
		}
		return &WaitStmt{StmtInfo: info, Events: eventIDs(s.Events), Body: body}, nil
	case "trigger":
		return &TriggerStmt{StmtInfo: info, Event: EventID(s.Event)}, nil
	case "call":
		return &TaskCallStmt{StmtInfo: info, Task: ScopeID(s.Task)}, nil
	case "systask":
		args := make([]Expr, len(s.Args))
		for i, a := range s.Args {
			e, err := d.expr(a)
			if err != nil {
				return fail(err)
			}
			args[i] = e
		}
		return &SysTaskStmt{StmtInfo: info, Name: s.Name, Args: args}, nil
	case "disable":
		return &DisableStmt{StmtInfo: info, Scope: ScopeID(s.Scope)}, nil
	case "noop":
		return &NoopStmt{StmtInfo: info}, nil
	case "break":
		return &BreakStmt{StmtInfo: info}, nil
	case "continue":
		return &ContinueStmt{StmtInfo: info}, nil
	case "return":
		value, err := d.expr(s.Value)
		if err != nil {
			return fail(err)
		}
		return &ReturnStmt{StmtInfo: info, Value: value}, nil
	default:
		return fail(fmt.Errorf("unknown kind"))
	}
}
