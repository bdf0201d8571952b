package ir

// Stmt is implemented by every statement variant.
type Stmt interface {
	Position() Pos
	isStmt()
}

// StmtInfo carries the source provenance of a statement.
type StmtInfo struct {
	Pos Pos
}

// Position implements Stmt.
func (s *StmtInfo) Position() Pos { return s.Pos }

// LValue is one assignment target. Offset is the normalized part-select
// base and Width the part width; a nil Offset with Width 0 targets the
// whole signal (or array word).
type LValue struct {
	Signal SignalID
	Word   Expr
	Offset Expr
	Width  int
}

// AssignKind distinguishes the assignment statement flavours.
type AssignKind int

const (
	AssignBlocking AssignKind = iota
	AssignNonBlocking
	AssignProcedural
	AssignForce
)

// AssignStmt assigns RVal to LVals (most significant first when more than
// one target forms a concatenation). Op is a compound operator (a += b).
// Delay, Events and Count describe intra-assignment timing for
// non-blocking assignments.
type AssignStmt struct {
	StmtInfo
	Kind   AssignKind
	LVals  []LValue
	RVal   Expr
	Op     BinaryOp
	Delay  Expr
	Events []EventID
	Count  Expr
}

// ReleaseKind selects deassign or release.
type ReleaseKind int

const (
	ReleaseDeassign ReleaseKind = iota
	ReleaseRelease
)

// ReleaseStmt is deassign or release.
type ReleaseStmt struct {
	StmtInfo
	Kind  ReleaseKind
	LVals []LValue
}

// BlockStmt is begin/end; Scope is set for named blocks.
type BlockStmt struct {
	StmtInfo
	Scope ScopeID
	Stmts []Stmt
}

// JoinKind selects how a fork completes.
type JoinKind int

const (
	JoinAll JoinKind = iota
	JoinAny
	JoinNone
)

// ForkStmt is fork/join; Scope is set for named forks.
type ForkStmt struct {
	StmtInfo
	Scope ScopeID
	Join  JoinKind
	Stmts []Stmt
}

// IfStmt is if/else; either branch may be nil.
type IfStmt struct {
	StmtInfo
	Cond Expr
	Then Stmt
	Else Stmt
}

// CaseKind selects case, casex, casez or a real-valued case.
type CaseKind int

const (
	CaseExact CaseKind = iota
	CaseX
	CaseZ
	CaseReal
)

// CaseQuality records SystemVerilog unique/priority qualifiers.
type CaseQuality int

const (
	QualityNone CaseQuality = iota
	QualityUnique
	QualityUnique0
	QualityPriority
)

func (q CaseQuality) String() string {
	switch q {
	case QualityUnique:
		return "unique"
	case QualityUnique0:
		return "unique0"
	case QualityPriority:
		return "priority"
	default:
		return ""
	}
}

// CaseItem is one case arm; no guards means default.
type CaseItem struct {
	Guards []Expr
	Body   Stmt
}

// CaseStmt is a case statement.
type CaseStmt struct {
	StmtInfo
	Kind    CaseKind
	Quality CaseQuality
	Expr    Expr
	Items   []CaseItem
}

// WhileStmt is while (Cond) Body.
type WhileStmt struct {
	StmtInfo
	Cond Expr
	Body Stmt
}

// DoWhileStmt is do Body while (Cond).
type DoWhileStmt struct {
	StmtInfo
	Cond Expr
	Body Stmt
}

// ForeverStmt is forever Body.
type ForeverStmt struct {
	StmtInfo
	Body Stmt
}

// RepeatStmt is repeat (Count) Body.
type RepeatStmt struct {
	StmtInfo
	Count Expr
	Body  Stmt
}

// ForStmt is for (Init; Cond; Step) Body.
type ForStmt struct {
	StmtInfo
	Init Stmt
	Cond Expr
	Step Stmt
	Body Stmt
}

// DelayStmt is #Delay Body with Delay in simulation precision units.
type DelayStmt struct {
	StmtInfo
	Delay uint64
	Body  Stmt
}

// DelayXStmt is #(Delay) Body for a computed delay.
type DelayXStmt struct {
	StmtInfo
	Delay Expr
	Body  Stmt
}

// WaitStmt is @(Events) Body.
type WaitStmt struct {
	StmtInfo
	Events []EventID
	Body   Stmt
}

// TriggerStmt is -> Event.
type TriggerStmt struct {
	StmtInfo
	Event EventID
}

// TaskCallStmt calls a user task; arguments were lowered into port
// assignments around the call.
type TaskCallStmt struct {
	StmtInfo
	Task ScopeID
}

// SysTaskStmt calls a system task. A nil argument is an empty slot.
type SysTaskStmt struct {
	StmtInfo
	Name string
	Args []Expr
}

// DisableStmt disables Scope; a zero Scope is disable fork.
type DisableStmt struct {
	StmtInfo
	Scope ScopeID
}

// NoopStmt is the null statement.
type NoopStmt struct {
	StmtInfo
}

// BreakStmt, ContinueStmt and ReturnStmt are SystemVerilog jumps.
type BreakStmt struct {
	StmtInfo
}

type ContinueStmt struct {
	StmtInfo
}

type ReturnStmt struct {
	StmtInfo
	Value Expr
}

func (*AssignStmt) isStmt()   {}
func (*ReleaseStmt) isStmt()  {}
func (*BlockStmt) isStmt()    {}
func (*ForkStmt) isStmt()     {}
func (*IfStmt) isStmt()       {}
func (*CaseStmt) isStmt()     {}
func (*WhileStmt) isStmt()    {}
func (*DoWhileStmt) isStmt()  {}
func (*ForeverStmt) isStmt()  {}
func (*RepeatStmt) isStmt()   {}
func (*ForStmt) isStmt()      {}
func (*DelayStmt) isStmt()    {}
func (*DelayXStmt) isStmt()   {}
func (*WaitStmt) isStmt()     {}
func (*TriggerStmt) isStmt()  {}
func (*TaskCallStmt) isStmt() {}
func (*SysTaskStmt) isStmt()  {}
func (*DisableStmt) isStmt()  {}
func (*NoopStmt) isStmt()     {}
func (*BreakStmt) isStmt()    {}
func (*ContinueStmt) isStmt() {}
func (*ReturnStmt) isStmt()   {}
