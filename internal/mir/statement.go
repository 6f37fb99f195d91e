package mir

import (
	"fmt"

	"sable/internal/ast"
)

// BorrowKind distinguishes shared from exclusive borrows.
type BorrowKind uint8

const (
	BorrowShared BorrowKind = iota
	BorrowExclusive
)

func (k BorrowKind) String() string {
	if k == BorrowShared {
		return "shared"
	}
	return "exclusive"
}

// Sigil returns the source-level spelling of the borrow.
func (k BorrowKind) Sigil() string {
	if k == BorrowShared {
		return "&"
	}
	return "&mut "
}

// Statement is one non-terminating MIR instruction. Every statement
// carries the source span lowering resolved for it.
type Statement interface {
	Span() ast.Span
	String() string
	isStatement()
}

// Assign computes an rvalue into a place.
type Assign struct {
	Dst Place
	Src Rvalue
	Sp  ast.Span
}

// Load reads a (possibly projected) place into a destination, either
// copying or moving depending on the operand mode.
type Load struct {
	Dst Place
	Src Operand
	Sp  ast.Span
}

// Store writes an operand through a projected place.
type Store struct {
	Dst Place
	Src Operand
	Sp  ast.Span
}

// Borrow starts a loan: dst becomes a reference to src. The loan's
// region is derived later from liveness of the destination local.
type Borrow struct {
	Dst  Place
	Src  Place
	Kind BorrowKind
	Sp   ast.Span
}

// EndBorrow is a lexical kill for the reference held in a local,
// emitted at scope exit. Regions computed from liveness usually end
// loans earlier; this is the hard upper bound.
type EndBorrow struct {
	Ref Local
	Sp  ast.Span
}

// Drop ends the lifetime of an owned value.
type Drop struct {
	Place Place
	Sp    ast.Span
}

// Nop holds a source location without any effect.
type Nop struct {
	Sp ast.Span
}

func (s *Assign) Span() ast.Span    { return s.Sp }
func (s *Load) Span() ast.Span      { return s.Sp }
func (s *Store) Span() ast.Span     { return s.Sp }
func (s *Borrow) Span() ast.Span    { return s.Sp }
func (s *EndBorrow) Span() ast.Span { return s.Sp }
func (s *Drop) Span() ast.Span      { return s.Sp }
func (s *Nop) Span() ast.Span       { return s.Sp }

func (s *Assign) String() string {
	return fmt.Sprintf("%s = %s", s.Dst, s.Src)
}

func (s *Load) String() string {
	return fmt.Sprintf("%s = %s", s.Dst, s.Src)
}

func (s *Store) String() string {
	return fmt.Sprintf("%s = %s", s.Dst, s.Src)
}

func (s *Borrow) String() string {
	return fmt.Sprintf("%s = %s%s", s.Dst, s.Kind.Sigil(), s.Src)
}

func (s *EndBorrow) String() string {
	return fmt.Sprintf("endborrow(%s)", s.Ref)
}

func (s *Drop) String() string {
	return fmt.Sprintf("drop(%s)", s.Place)
}

func (s *Nop) String() string { return "nop" }

func (*Assign) isStatement()    {}
func (*Load) isStatement()      {}
func (*Store) isStatement()     {}
func (*Borrow) isStatement()    {}
func (*EndBorrow) isStatement() {}
func (*Drop) isStatement()      {}
func (*Nop) isStatement()       {}
