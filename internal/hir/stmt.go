package hir

import (
	"dol/internal/source"
	"dol/internal/types"
)

// StmtKind enumerates HIR statement kinds.
type StmtKind uint8

const (
	// StmtLet represents variable declaration (let x = ...).
	StmtLet StmtKind = iota
	// StmtAssign represents assignment (lhs = rhs).
	StmtAssign
	// StmtReturn represents return (always explicit in HIR).
	StmtReturn
	// StmtBreak represents break out of the nearest breakable region.
	StmtBreak
	// StmtContinue represents continue of the nearest loop.
	StmtContinue
	// StmtIf represents an if/else statement (no result value).
	StmtIf
	// StmtWhile represents a while loop.
	StmtWhile
	// StmtLoop represents an infinite loop.
	StmtLoop
	// StmtFor represents a range-based for loop; the emitter desugars it to
	// the while pattern.
	StmtFor
	// StmtBlock represents a nested scope block.
	StmtBlock
	// StmtExpr represents an expression evaluated for side effects.
	StmtExpr
)

func (k StmtKind) String() string {
	switch k {
	case StmtLet:
		return "Let"
	case StmtAssign:
		return "Assign"
	case StmtReturn:
		return "Return"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtLoop:
		return "Loop"
	case StmtFor:
		return "For"
	case StmtBlock:
		return "Block"
	case StmtExpr:
		return "Expr"
	default:
		return "Unknown"
	}
}

// Stmt is one statement node.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data any
}

// Block is an ordered statement list with an optional trailing value
// expression (block-as-expression position).
type Block struct {
	Stmts []Stmt
	Tail  *Expr
	Span  source.Span
}

// LetData is the payload of StmtLet.
type LetData struct {
	Name  string
	Type  types.TypeID
	Value *Expr
}

// AssignData is the payload of StmtAssign. Target is restricted to a bare
// VarRef or a FieldAccess; anything else is an unsupported construct.
type AssignData struct {
	Target *Expr
	Value  *Expr
}

// ReturnData is the payload of StmtReturn. Value is nil for bare returns.
type ReturnData struct {
	Value *Expr
}

// BreakData is the payload of StmtBreak. Label targets a named loop, empty
// for the nearest breakable region.
type BreakData struct {
	Label string
}

// ContinueData is the payload of StmtContinue.
type ContinueData struct {
	Label string
}

// IfData is the payload of StmtIf.
type IfData struct {
	Cond *Expr
	Then *Block
	Else *Block
}

// WhileData is the payload of StmtWhile.
type WhileData struct {
	Label string
	Cond  *Expr
	Body  *Block
}

// LoopData is the payload of StmtLoop.
type LoopData struct {
	Label string
	Body  *Block
}

// ForData is the payload of StmtFor: `for v in from..to { body }`. The end
// expression is evaluated exactly once, before the loop.
type ForData struct {
	Label   string
	Var     string
	VarType types.TypeID
	From    *Expr
	To      *Expr
	Body    *Block
}

// BlockData is the payload of StmtBlock.
type BlockData struct {
	Block *Block
}

// ExprStmtData is the payload of StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}
