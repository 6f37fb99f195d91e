package mir

// MIR is the control-flow-graph form of a function body: an arena of
// basic blocks addressed by integer ids, so cyclic structure (loops,
// back edges) never needs pointer-graph ownership. Blocks hold plain
// statements and exactly one terminator.

import (
	"fmt"

	"sable/internal/ast"
	"sable/internal/types"
)

// Local identifies a slot in the function's local table. _0 is the
// return place; _1.._n are the parameters.
type Local uint32

// ReturnLocal is the slot the function's result is written into.
const ReturnLocal Local = 0

func (l Local) String() string {
	return fmt.Sprintf("_%d", uint32(l))
}

// BlockID is a stable basic-block id. The entry block is always 0.
type BlockID uint32

// Entry is the id of the entry block.
const Entry BlockID = 0

func (b BlockID) String() string {
	return fmt.Sprintf("bb%d", uint32(b))
}

// Location is a CFG point: a statement index within a block. An index
// equal to len(Stmts) designates the block's terminator.
type Location struct {
	Block BlockID
	Stmt  int
}

func (l Location) String() string {
	return fmt.Sprintf("%s[%d]", l.Block, l.Stmt)
}

// Before reports whether l precedes other in the diagnostic ordering
// (block id, then statement index).
func (l Location) Before(other Location) bool {
	if l.Block != other.Block {
		return l.Block < other.Block
	}
	return l.Stmt < other.Stmt
}

// LocalDecl describes one slot of the local table.
type LocalDecl struct {
	Name    string // source name, empty for temporaries
	Type    types.Type
	Class   types.Class
	Mutable bool
}

// BasicBlock is a straight-line statement sequence with one terminator.
type BasicBlock struct {
	ID    BlockID
	Stmts []Statement
	Term  Terminator
}

// Function is a lowered MIR body.
type Function struct {
	Name   string
	Params int // locals 1..Params are parameters
	Locals []LocalDecl
	Blocks []*BasicBlock
	Span   ast.Span
}

// Block returns the block with the given id, or nil if out of range.
func (f *Function) Block(id BlockID) *BasicBlock {
	if int(id) >= len(f.Blocks) {
		return nil
	}
	return f.Blocks[id]
}

// Local returns the declaration for a slot.
func (f *Function) Local(l Local) *LocalDecl {
	return &f.Locals[l]
}

// LocalName returns the source name of a local, falling back to its
// slot notation for temporaries.
func (f *Function) LocalName(l Local) string {
	if int(l) < len(f.Locals) && f.Locals[l].Name != "" {
		return f.Locals[l].Name
	}
	return l.String()
}

// SpanAt resolves a CFG point back to its source span through the
// statement-level location table maintained by lowering.
func (f *Function) SpanAt(loc Location) ast.Span {
	b := f.Block(loc.Block)
	if b == nil {
		return f.Span
	}
	if loc.Stmt < len(b.Stmts) {
		return b.Stmts[loc.Stmt].Span()
	}
	if b.Term != nil {
		return b.Term.Span()
	}
	return f.Span
}

// InvalidCFGError reports a broken structural invariant: a compiler
// bug, never a user diagnostic. It is returned, not panicked, so the
// driver and tests can assert on it without unwinding.
type InvalidCFGError struct {
	Fn    string
	Block BlockID
	Msg   string
}

func (e *InvalidCFGError) Error() string {
	return fmt.Sprintf("invalid CFG in %s at %s: %s", e.Fn, e.Block, e.Msg)
}

// Validate checks the structural invariants every pass relies on:
// block ids match their arena index, every block has exactly one
// terminator, and every edge targets an existing block.
func (f *Function) Validate() error {
	if len(f.Blocks) == 0 {
		return &InvalidCFGError{Fn: f.Name, Block: Entry, Msg: "function has no blocks"}
	}
	for i, b := range f.Blocks {
		if b.ID != BlockID(i) {
			return &InvalidCFGError{Fn: f.Name, Block: b.ID, Msg: fmt.Sprintf("block id does not match arena index %d", i)}
		}
		if b.Term == nil {
			return &InvalidCFGError{Fn: f.Name, Block: b.ID, Msg: "block has no terminator"}
		}
		for _, succ := range b.Term.Successors() {
			if int(succ) >= len(f.Blocks) {
				return &InvalidCFGError{Fn: f.Name, Block: b.ID, Msg: fmt.Sprintf("edge to missing block %s", succ)}
			}
		}
	}
	return nil
}
