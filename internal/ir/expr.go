package ir

// ExprInfo carries the width, signedness and value type the front end
// computed for an expression node.
type ExprInfo struct {
	Width  int
	Signed bool
	Type   DataType
	Pos    Pos
}

// Expr is implemented by every expression variant.
type Expr interface {
	Info() *ExprInfo
	isExpr()
}

// Info implements Expr.
func (e *ExprInfo) Info() *ExprInfo { return e }

// IsReal reports whether the expression is real valued.
func IsReal(e Expr) bool {
	return e != nil && e.Info().Type == TypeReal
}

// NumberExpr is a four-state vector literal.
type NumberExpr struct {
	ExprInfo
	Bits Bits
}

// RealExpr is a real literal.
type RealExpr struct {
	ExprInfo
	Value float64
}

// StringExpr is a string literal.
type StringExpr struct {
	ExprInfo
	Value string
}

// DelayExpr is a delay value already scaled to simulation precision.
type DelayExpr struct {
	ExprInfo
	Value uint64
}

// SignalExpr references a signal, optionally one word of an array.
type SignalExpr struct {
	ExprInfo
	Signal SignalID
	Word   Expr
}

// ParamExpr references a parameter; Value is its elaborated value.
type ParamExpr struct {
	ExprInfo
	Scope ScopeID
	Name  string
	Value Expr
}

// UnaryOp enumerates unary operators and casts.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
	UnaryLogNot
	UnaryAnd
	UnaryNand
	UnaryOr
	UnaryNor
	UnaryXor
	UnaryXnor
	UnaryCastReal
	UnaryCastInt
	UnaryCast2State
	UnaryPreInc
	UnaryPreDec
	UnaryPostInc
	UnaryPostDec
)

// Token returns the operator text for operators that have one.
func (op UnaryOp) Token() string {
	switch op {
	case UnaryNeg:
		return "-"
	case UnaryNot:
		return "~"
	case UnaryLogNot:
		return "!"
	case UnaryAnd:
		return "&"
	case UnaryNand:
		return "~&"
	case UnaryOr:
		return "|"
	case UnaryNor:
		return "~|"
	case UnaryXor:
		return "^"
	case UnaryXnor:
		return "~^"
	case UnaryPreInc, UnaryPostInc:
		return "++"
	case UnaryPreDec, UnaryPostDec:
		return "--"
	default:
		return ""
	}
}

// UnaryExpr applies a unary operator.
type UnaryExpr struct {
	ExprInfo
	Op      UnaryOp
	Operand Expr
}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpNone BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpCaseEq
	OpCaseNe
	OpWildEq
	OpWildNe
	OpAnd
	OpOr
	OpXor
	OpXnor
	OpNand
	OpNor
	OpLogAnd
	OpLogOr
	OpShl
	OpShr
	OpAShl
	OpAShr
)

// Token returns the operator text.
func (op BinaryOp) Token() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpPow:
		return "**"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpCaseEq:
		return "==="
	case OpCaseNe:
		return "!=="
	case OpWildEq:
		return "==?"
	case OpWildNe:
		return "!=?"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	case OpXnor:
		return "~^"
	case OpNand:
		return "~&"
	case OpNor:
		return "~|"
	case OpLogAnd:
		return "&&"
	case OpLogOr:
		return "||"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpAShl:
		return "<<<"
	case OpAShr:
		return ">>>"
	default:
		return ""
	}
}

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	ExprInfo
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// TernaryExpr is cond ? t : f.
type TernaryExpr struct {
	ExprInfo
	Cond  Expr
	True  Expr
	False Expr
}

// ConcatExpr concatenates Parts (most significant first), repeated Repeat
// times when Repeat > 1.
type ConcatExpr struct {
	ExprInfo
	Parts  []Expr
	Repeat int
}

// SelectExpr selects Info().Width bits of Operand starting at the
// normalized (zero-based, LSB-relative) Offset. A nil Offset pads or
// truncates Operand to Info().Width.
type SelectExpr struct {
	ExprInfo
	Operand Expr
	Offset  Expr
}

// CallExpr calls a system function (Name starts with '$') or the user
// function scope Func.
type CallExpr struct {
	ExprInfo
	Name string
	Func ScopeID
	Args []Expr
}

// PropertyExpr reads a class property.
type PropertyExpr struct {
	ExprInfo
	Object   Expr
	Property string
}

// NewExpr allocates a dynamic array or class object.
type NewExpr struct {
	ExprInfo
	Size Expr
	Init Expr
}

// EventExpr references an event.
type EventExpr struct {
	ExprInfo
	Event EventID
}

// ScopeExpr references a scope, as in $dumpvars(0, top).
type ScopeExpr struct {
	ExprInfo
	Scope ScopeID
}

// NullExpr is the class null handle.
type NullExpr struct {
	ExprInfo
}

func (*NumberExpr) isExpr()   {}
func (*RealExpr) isExpr()     {}
func (*StringExpr) isExpr()   {}
func (*DelayExpr) isExpr()    {}
func (*SignalExpr) isExpr()   {}
func (*ParamExpr) isExpr()    {}
func (*UnaryExpr) isExpr()    {}
func (*BinaryExpr) isExpr()   {}
func (*TernaryExpr) isExpr()  {}
func (*ConcatExpr) isExpr()   {}
func (*SelectExpr) isExpr()   {}
func (*CallExpr) isExpr()     {}
func (*PropertyExpr) isExpr() {}
func (*NewExpr) isExpr()      {}
func (*EventExpr) isExpr()    {}
func (*ScopeExpr) isExpr()    {}
func (*NullExpr) isExpr()     {}
