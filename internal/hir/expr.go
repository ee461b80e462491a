package hir

import (
	"dol/internal/source"
	"dol/internal/types"
)

// ExprKind enumerates HIR expression kinds. The frontend has already
// desugared surface syntax down to this vocabulary and annotated every node
// with a resolved type; the backend rejects anything outside it.
type ExprKind uint8

const (
	// ExprLiteral represents literals (int, float, bool, char, string).
	ExprLiteral ExprKind = iota
	// ExprVarRef represents a reference to a parameter or let binding.
	ExprVarRef
	// ExprUnary represents unary operators (-, !).
	ExprUnary
	// ExprBinary represents binary operators (+, -, *, /, %, comparisons, &&, ||).
	ExprBinary
	// ExprCall represents a call to a free function.
	ExprCall
	// ExprMethodCall represents a call to a gene method; the receiver address
	// becomes the implicit first argument.
	ExprMethodCall
	// ExprFieldAccess represents field access (expr.field).
	ExprFieldAccess
	// ExprStructLit represents gene construction (Gene { field = value, ... }).
	ExprStructLit
	// ExprIf represents a conditional expression.
	ExprIf
	// ExprBlock represents a block expression with an optional trailing value.
	ExprBlock
	// ExprMatch represents pattern matching over a scrutinee.
	ExprMatch
)

func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVarRef:
		return "VarRef"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprCall:
		return "Call"
	case ExprMethodCall:
		return "MethodCall"
	case ExprFieldAccess:
		return "FieldAccess"
	case ExprStructLit:
		return "StructLit"
	case ExprIf:
		return "If"
	case ExprBlock:
		return "Block"
	case ExprMatch:
		return "Match"
	default:
		return "Unknown"
	}
}

// Expr is one typed expression node. Type is always resolved before the
// backend sees the node; NoTypeID means the expression produces no value.
type Expr struct {
	Kind ExprKind
	Type types.TypeID
	Span source.Span
	Data any
}

// LitKind discriminates literal payloads.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitChar
	LitString
)

// LiteralData is the payload of ExprLiteral.
type LiteralData struct {
	Kind  LitKind
	Int   int64
	Float float64
	Bool  bool
	Char  rune
	Str   string
}

// VarRefData is the payload of ExprVarRef.
type VarRefData struct {
	Name string
}

// UnOp enumerates unary operators.
type UnOp uint8

const (
	UnNeg UnOp = iota
	UnNot
)

// UnaryData is the payload of ExprUnary.
type UnaryData struct {
	Op      UnOp
	Operand *Expr
}

// BinOp enumerates binary operators.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
)

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinRem:
		return "%"
	case BinEq:
		return "=="
	case BinNe:
		return "!="
	case BinLt:
		return "<"
	case BinLe:
		return "<="
	case BinGt:
		return ">"
	case BinGe:
		return ">="
	case BinAnd:
		return "&&"
	case BinOr:
		return "||"
	default:
		return "?"
	}
}

// BinaryData is the payload of ExprBinary.
type BinaryData struct {
	Op    BinOp
	Left  *Expr
	Right *Expr
}

// CallData is the payload of ExprCall.
type CallData struct {
	Callee string
	Args   []*Expr
}

// MethodCallData is the payload of ExprMethodCall.
type MethodCallData struct {
	Recv   *Expr
	Gene   string
	Method string
	Args   []*Expr
}

// FieldAccessData is the payload of ExprFieldAccess.
type FieldAccessData struct {
	Base  *Expr
	Field string
}

// FieldInit is one initializer inside a struct literal.
type FieldInit struct {
	Name  string
	Value *Expr
}

// StructLitData is the payload of ExprStructLit. Fields the literal omits
// are zero-initialized by the constructor.
type StructLitData struct {
	Gene   string
	Fields []FieldInit
}

// IfExprData is the payload of ExprIf. Both blocks carry trailing values of
// the expression's type.
type IfExprData struct {
	Cond *Expr
	Then *Block
	Else *Block
}

// BlockExprData is the payload of ExprBlock.
type BlockExprData struct {
	Block *Block
}

// PatKind discriminates the supported pattern forms. Anything richer is an
// unsupported-pattern error at the boundary.
type PatKind uint8

const (
	// PatWildcard matches anything without binding.
	PatWildcard PatKind = iota
	// PatBind matches anything and binds the scrutinee to a name.
	PatBind
	// PatLiteral matches by literal equality.
	PatLiteral
)

// Pattern is one match-arm pattern.
type Pattern struct {
	Kind PatKind
	Name string       // for PatBind
	Lit  *LiteralData // for PatLiteral
	Span source.Span
}

// MatchArm pairs a pattern with its arm body.
type MatchArm struct {
	Pattern Pattern
	Body    *Expr
	Span    source.Span
}

// MatchData is the payload of ExprMatch.
type MatchData struct {
	Scrutinee *Expr
	Arms      []MatchArm
}
