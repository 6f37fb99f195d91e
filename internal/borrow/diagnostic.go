package borrow

import (
	"fmt"

	"sable/internal/ast"
	"sable/internal/mir"
)

// Kind classifies a borrow diagnostic.
type Kind int

const (
	// UseAfterMove is any read, write projection base read, borrow or
	// re-move of a value whose ownership already left, including use
	// after drop.
	UseAfterMove Kind = iota

	// BorrowConflict is an aliasing violation: overlapping loans that
	// exclusivity forbids, or a write or move touching a borrowed
	// place.
	BorrowConflict

	// DanglingReference is a loan whose region outlives the borrowed
	// place's owner.
	DanglingReference
)

func (k Kind) String() string {
	switch k {
	case UseAfterMove:
		return "use-after-move"
	case BorrowConflict:
		return "borrow-conflict"
	case DanglingReference:
		return "dangling-reference"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Related points at the earlier program point a diagnostic blames:
// the move for a use-after-move, the first loan for a conflict, the
// borrow for a dangling reference.
type Related struct {
	Loc  mir.Location
	Span ast.Span
	Note string
}

// Diagnostic is one borrow-check failure, positioned in both MIR
// (block and statement) and source (span).
type Diagnostic struct {
	Kind Kind
	Fn   string
	Msg  string
	Loc  mir.Location
	Span ast.Span

	Related []Related
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s at %s: %s", d.Fn, d.Kind, d.Loc, d.Msg)
}
