package mir

import (
	"fmt"
	"strings"

	"sable/internal/ast"
)

// Terminator ends a basic block with a control transfer.
type Terminator interface {
	Span() ast.Span
	String() string
	Successors() []BlockID
	isTerminator()
}

// Goto jumps unconditionally.
type Goto struct {
	Target BlockID
	Sp     ast.Span
}

// Branch is a two-way boolean branch.
type Branch struct {
	Cond  Operand
	True  BlockID
	False BlockID
	Sp    ast.Span
}

// SwitchCase is one value arm of a Switch.
type SwitchCase struct {
	Value  int64
	Target BlockID
}

// Switch is a multi-way integer dispatch with a mandatory otherwise
// edge.
type Switch struct {
	Disc      Operand
	Cases     []SwitchCase
	Otherwise BlockID
	Sp        ast.Span
}

// Return leaves the function; the result lives in _0.
type Return struct {
	Sp ast.Span
}

// Call invokes a function and continues at Target. Calls terminate
// their block because they are side-effecting control transfers.
type Call struct {
	Func   string
	Args   []Operand
	Dst    Place
	Target BlockID
	Sp     ast.Span
}

// Unreachable marks a block control flow can never reach.
type Unreachable struct {
	Sp ast.Span
}

func (t *Goto) Span() ast.Span        { return t.Sp }
func (t *Branch) Span() ast.Span      { return t.Sp }
func (t *Switch) Span() ast.Span      { return t.Sp }
func (t *Return) Span() ast.Span      { return t.Sp }
func (t *Call) Span() ast.Span        { return t.Sp }
func (t *Unreachable) Span() ast.Span { return t.Sp }

func (t *Goto) Successors() []BlockID   { return []BlockID{t.Target} }
func (t *Branch) Successors() []BlockID { return []BlockID{t.True, t.False} }

func (t *Switch) Successors() []BlockID {
	succs := make([]BlockID, 0, len(t.Cases)+1)
	for _, c := range t.Cases {
		succs = append(succs, c.Target)
	}
	return append(succs, t.Otherwise)
}

func (t *Return) Successors() []BlockID      { return nil }
func (t *Call) Successors() []BlockID        { return []BlockID{t.Target} }
func (t *Unreachable) Successors() []BlockID { return nil }

func (t *Goto) String() string {
	return fmt.Sprintf("goto -> %s", t.Target)
}

func (t *Branch) String() string {
	return fmt.Sprintf("branch(%s) -> [true: %s, false: %s]", t.Cond, t.True, t.False)
}

func (t *Switch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "switchInt(%s) -> [", t.Disc)
	for _, c := range t.Cases {
		fmt.Fprintf(&sb, "%d: %s, ", c.Value, c.Target)
	}
	fmt.Fprintf(&sb, "otherwise: %s]", t.Otherwise)
	return sb.String()
}

func (t *Return) String() string { return "return" }

func (t *Call) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s = %s(%s) -> %s", t.Dst, t.Func, strings.Join(parts, ", "), t.Target)
}

func (t *Unreachable) String() string { return "unreachable" }

func (*Goto) isTerminator()        {}
func (*Branch) isTerminator()      {}
func (*Switch) isTerminator()      {}
func (*Return) isTerminator()      {}
func (*Call) isTerminator()        {}
func (*Unreachable) isTerminator() {}
