package mir

import (
	"fmt"
	"strings"

	"sable/internal/types"
)

// ConstKind tags the constant union.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstBool
	ConstStr
	ConstUnit
)

// Constant is a compile-time value.
type Constant struct {
	Kind ConstKind
	Int  int64
	Bool bool
	Str  string
}

func IntConst(v int64) Constant  { return Constant{Kind: ConstInt, Int: v} }
func BoolConst(v bool) Constant  { return Constant{Kind: ConstBool, Bool: v} }
func StrConst(v string) Constant { return Constant{Kind: ConstStr, Str: v} }
func UnitConst() Constant        { return Constant{Kind: ConstUnit} }

func (c Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstBool:
		return fmt.Sprintf("%t", c.Bool)
	case ConstStr:
		return fmt.Sprintf("%q", c.Str)
	default:
		return "()"
	}
}

// AsSwitchValue maps the constant onto a switch discriminant value.
func (c Constant) AsSwitchValue() (int64, bool) {
	switch c.Kind {
	case ConstInt:
		return c.Int, true
	case ConstBool:
		if c.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// OperandKind tags how an operand accesses its place.
type OperandKind uint8

const (
	// OperandCopy duplicates the value; valid only for Copy-class types.
	OperandCopy OperandKind = iota
	// OperandMove transfers ownership out of the place.
	OperandMove
	// OperandConst is an inline constant.
	OperandConst
)

// Operand is a statement input: a copied place, a moved place, or a
// constant.
type Operand struct {
	Kind  OperandKind
	Place Place
	Const Constant
}

func CopyOperand(p Place) Operand { return Operand{Kind: OperandCopy, Place: p} }
func MoveOperand(p Place) Operand { return Operand{Kind: OperandMove, Place: p} }
func ConstOperand(c Constant) Operand {
	return Operand{Kind: OperandConst, Const: c}
}

// IsConst reports whether the operand is a constant, returning it.
func (o Operand) IsConst() (Constant, bool) {
	if o.Kind == OperandConst {
		return o.Const, true
	}
	return Constant{}, false
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandCopy:
		return "copy " + o.Place.String()
	case OperandMove:
		return "move " + o.Place.String()
	default:
		return "const " + o.Const.String()
	}
}

// BinOp enumerates MIR binary operators.
type BinOp uint8

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
	"Add", "Sub", "Mul", "Div", "Rem", "BitAnd", "BitOr", "BitXor",
	"Shl", "Shr", "Eq", "Ne", "Lt", "Le", "Gt", "Ge",
}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "?"
}

// UnOp enumerates MIR unary operators.
type UnOp uint8

const (
	Neg UnOp = iota
	Not
)

func (op UnOp) String() string {
	if op == Neg {
		return "Neg"
	}
	return "Not"
}

// AggKind tags aggregate construction.
type AggKind uint8

const (
	AggTuple AggKind = iota
	AggArray
	AggStruct
)

// Rvalue is the right-hand side of an Assign.
type Rvalue interface {
	String() string
	isRvalue()
}

// Use passes an operand through unchanged.
type Use struct {
	X Operand
}

// BinaryOp computes a binary operation.
type BinaryOp struct {
	Op   BinOp
	L, R Operand
}

// UnaryOp computes a unary operation.
type UnaryOp struct {
	Op UnOp
	X  Operand
}

// Ref takes a borrow of a place. Lowering emits it only inside Borrow
// statements, but constant folding must still treat it as opaque.
type Ref struct {
	Place Place
	Kind  BorrowKind
}

// Aggregate builds a tuple, array, or struct value.
type Aggregate struct {
	Kind  AggKind
	Name  string // struct name for AggStruct
	Elems []Operand
}

// Cast converts an operand to a target type.
type Cast struct {
	X  Operand
	To types.Type
}

// Len reads the length of an array or string place.
type Len struct {
	Place Place
}

func (r *Use) String() string      { return r.X.String() }
func (r *BinaryOp) String() string { return fmt.Sprintf("%s(%s, %s)", r.Op, r.L, r.R) }
func (r *UnaryOp) String() string  { return fmt.Sprintf("%s(%s)", r.Op, r.X) }
func (r *Ref) String() string      { return r.Kind.Sigil() + r.Place.String() }
func (r *Cast) String() string     { return fmt.Sprintf("%s as %s", r.X, r.To) }
func (r *Len) String() string      { return fmt.Sprintf("len(%s)", r.Place) }

func (r *Aggregate) String() string {
	parts := make([]string, len(r.Elems))
	for i, e := range r.Elems {
		parts[i] = e.String()
	}
	switch r.Kind {
	case AggTuple:
		return "(" + strings.Join(parts, ", ") + ")"
	case AggArray:
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return r.Name + " { " + strings.Join(parts, ", ") + " }"
	}
}

func (*Use) isRvalue()       {}
func (*BinaryOp) isRvalue()  {}
func (*UnaryOp) isRvalue()   {}
func (*Ref) isRvalue()       {}
func (*Aggregate) isRvalue() {}
func (*Cast) isRvalue()      {}
func (*Len) isRvalue()       {}

// RvalueOperands returns the operands an rvalue reads. Place-reading
// rvalues (Ref, Len) are not included; callers that need full place
// usage go through UsedPlaces.
func RvalueOperands(r Rvalue) []Operand {
	switch r := r.(type) {
	case *Use:
		return []Operand{r.X}
	case *BinaryOp:
		return []Operand{r.L, r.R}
	case *UnaryOp:
		return []Operand{r.X}
	case *Aggregate:
		return r.Elems
	case *Cast:
		return []Operand{r.X}
	default:
		return nil
	}
}
