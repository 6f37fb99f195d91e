package ast

import "sable/internal/types"

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	isStmt()
}

// LetStmt declares a new local binding.
// Example: "let mut total: i64 = 0;"
type LetStmt struct {
	Name    string
	Type    types.Type
	Mutable bool
	Value   Expr
	Span    Span
}

// AssignStmt writes to an existing place expression.
// Example: "total = total + x;" or "*p = 1;"
type AssignStmt struct {
	Target Expr
	Value  Expr
	Span   Span
}

// ExprStmt evaluates an expression for its effects.
type ExprStmt struct {
	Expr Expr
	Span Span
}

// ReturnStmt exits the function, optionally with a value.
type ReturnStmt struct {
	Value Expr
	Span  Span
}

// IfStmt branches on a boolean condition.
type IfStmt struct {
	Cond Expr
	Then *Block
	Else Stmt // *Block or *IfStmt, nil if absent
	Span Span
}

// WhileStmt loops while the condition holds.
type WhileStmt struct {
	Cond Expr
	Body *Block
	Span Span
}

// LoopStmt loops forever until break.
type LoopStmt struct {
	Body *Block
	Span Span
}

// BreakStmt exits the innermost loop.
type BreakStmt struct {
	Span Span
}

// ContinueStmt jumps to the innermost loop's latch.
type ContinueStmt struct {
	Span Span
}

// MatchStmt dispatches on an integer discriminant. The type checker
// guarantees arm values are distinct and the default arm exists when
// the match is not exhaustive.
type MatchStmt struct {
	Disc    Expr
	Arms    []*MatchArm
	Default *Block // nil when the arms are exhaustive
	Span    Span
}

// MatchArm is one literal-valued case of a MatchStmt.
type MatchArm struct {
	Value int64
	Body  *Block
	Span  Span
}

func (s *LetStmt) NodeSpan() Span      { return s.Span }
func (s *AssignStmt) NodeSpan() Span   { return s.Span }
func (s *ExprStmt) NodeSpan() Span     { return s.Span }
func (s *ReturnStmt) NodeSpan() Span   { return s.Span }
func (s *IfStmt) NodeSpan() Span       { return s.Span }
func (s *WhileStmt) NodeSpan() Span    { return s.Span }
func (s *LoopStmt) NodeSpan() Span     { return s.Span }
func (s *BreakStmt) NodeSpan() Span    { return s.Span }
func (s *ContinueStmt) NodeSpan() Span { return s.Span }
func (s *MatchStmt) NodeSpan() Span    { return s.Span }
func (a *MatchArm) NodeSpan() Span     { return a.Span }

func (*LetStmt) isStmt()      {}
func (*AssignStmt) isStmt()   {}
func (*ExprStmt) isStmt()     {}
func (*ReturnStmt) isStmt()   {}
func (*IfStmt) isStmt()       {}
func (*WhileStmt) isStmt()    {}
func (*LoopStmt) isStmt()     {}
func (*BreakStmt) isStmt()    {}
func (*ContinueStmt) isStmt() {}
func (*MatchStmt) isStmt()    {}
func (*Block) isStmt()        {}
