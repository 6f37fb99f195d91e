package ast

import "sable/internal/types"

// Expr is implemented by every expression node. Every expression knows
// its resolved type.
type Expr interface {
	Node
	ExprType() types.Type
	isExpr()
}

// BinOp enumerates binary operators after overload resolution.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Rem
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

var binOpNames = [...]string{
	"+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>",
	"==", "!=", "<", "<=", ">", ">=",
}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "?"
}

// UnOp enumerates unary operators.
type UnOp int

const (
	Neg UnOp = iota
	Not
)

func (op UnOp) String() string {
	if op == Neg {
		return "-"
	}
	return "!"
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
	Type  types.Type
	Span  Span
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
	Span  Span
}

// StrLit is a string literal.
type StrLit struct {
	Value string
	Span  Span
}

// UnitLit is the unit value.
type UnitLit struct {
	Span Span
}

// VarRef is a resolved reference to a local or parameter.
type VarRef struct {
	Name string
	Type types.Type
	Span Span
}

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
	Type  types.Type
	Span  Span
}

// UnaryExpr applies a unary operator.
type UnaryExpr struct {
	Op   UnOp
	X    Expr
	Type types.Type
	Span Span
}

// CallExpr invokes a resolved function by name.
type CallExpr struct {
	Callee string
	Args   []Expr
	Type   types.Type
	Span   Span
}

// RefExpr takes a shared or exclusive borrow of a place expression.
// Example: "&x", "&mut v.field"
type RefExpr struct {
	Target  Expr
	Mutable bool
	Type    types.Type
	Span    Span
}

// DerefExpr reads through a reference or pointer.
type DerefExpr struct {
	X    Expr
	Type types.Type
	Span Span
}

// FieldExpr projects a struct or tuple field by index.
type FieldExpr struct {
	X     Expr
	Index uint32
	Type  types.Type
	Span  Span
}

// IndexExpr projects an array element.
type IndexExpr struct {
	X     Expr
	Index Expr
	Type  types.Type
	Span  Span
}

// MoveExpr is an explicit ownership transfer out of a place.
// Example: "move(x)". Reads of Move-class places move implicitly; this
// node exists so the front-end can force a move on a Copy-class place
// or make one explicit in source.
type MoveExpr struct {
	X    Expr
	Span Span
}

// CastExpr converts between numeric types.
type CastExpr struct {
	X    Expr
	Type types.Type
	Span Span
}

// TupleExpr constructs a tuple value.
type TupleExpr struct {
	Elems []Expr
	Type  types.Type
	Span  Span
}

// StructExpr constructs a struct value with fields in declaration order.
type StructExpr struct {
	Name   string
	Fields []Expr
	Type   types.Type
	Span   Span
}

func (e *IntLit) NodeSpan() Span     { return e.Span }
func (e *BoolLit) NodeSpan() Span    { return e.Span }
func (e *StrLit) NodeSpan() Span     { return e.Span }
func (e *UnitLit) NodeSpan() Span    { return e.Span }
func (e *VarRef) NodeSpan() Span     { return e.Span }
func (e *BinaryExpr) NodeSpan() Span { return e.Span }
func (e *UnaryExpr) NodeSpan() Span  { return e.Span }
func (e *CallExpr) NodeSpan() Span   { return e.Span }
func (e *RefExpr) NodeSpan() Span    { return e.Span }
func (e *DerefExpr) NodeSpan() Span  { return e.Span }
func (e *FieldExpr) NodeSpan() Span  { return e.Span }
func (e *IndexExpr) NodeSpan() Span  { return e.Span }
func (e *MoveExpr) NodeSpan() Span   { return e.Span }
func (e *CastExpr) NodeSpan() Span   { return e.Span }
func (e *TupleExpr) NodeSpan() Span  { return e.Span }
func (e *StructExpr) NodeSpan() Span { return e.Span }

func (e *IntLit) ExprType() types.Type     { return e.Type }
func (e *BoolLit) ExprType() types.Type    { return &types.Bool{} }
func (e *StrLit) ExprType() types.Type     { return &types.Str{} }
func (e *UnitLit) ExprType() types.Type    { return &types.Unit{} }
func (e *VarRef) ExprType() types.Type     { return e.Type }
func (e *BinaryExpr) ExprType() types.Type { return e.Type }
func (e *UnaryExpr) ExprType() types.Type  { return e.Type }
func (e *CallExpr) ExprType() types.Type   { return e.Type }
func (e *RefExpr) ExprType() types.Type    { return e.Type }
func (e *DerefExpr) ExprType() types.Type  { return e.Type }
func (e *FieldExpr) ExprType() types.Type  { return e.Type }
func (e *IndexExpr) ExprType() types.Type  { return e.Type }
func (e *MoveExpr) ExprType() types.Type   { return e.X.ExprType() }
func (e *CastExpr) ExprType() types.Type   { return e.Type }
func (e *TupleExpr) ExprType() types.Type  { return e.Type }
func (e *StructExpr) ExprType() types.Type { return e.Type }

func (*IntLit) isExpr()     {}
func (*BoolLit) isExpr()    {}
func (*StrLit) isExpr()     {}
func (*UnitLit) isExpr()    {}
func (*VarRef) isExpr()     {}
func (*BinaryExpr) isExpr() {}
func (*UnaryExpr) isExpr()  {}
func (*CallExpr) isExpr()   {}
func (*RefExpr) isExpr()    {}
func (*DerefExpr) isExpr()  {}
func (*FieldExpr) isExpr()  {}
func (*IndexExpr) isExpr()  {}
func (*MoveExpr) isExpr()   {}
func (*CastExpr) isExpr()   {}
func (*TupleExpr) isExpr()  {}
func (*StructExpr) isExpr() {}

// IsPlace reports whether an expression denotes an addressable
// location (a local plus projections) rather than a temporary.
func IsPlace(e Expr) bool {
	switch e := e.(type) {
	case *VarRef:
		return true
	case *DerefExpr:
		return IsPlace(e.X) || types.IsRef(e.X.ExprType())
	case *FieldExpr:
		return IsPlace(e.X)
	case *IndexExpr:
		return IsPlace(e.X)
	default:
		return false
	}
}
