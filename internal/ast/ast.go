package ast

import "sable/internal/types"

// The typed AST is the middle-end's input contract: every expression
// carries its resolved concrete type, and name resolution has already
// bound every identifier. Nothing in this package performs inference.

// Position tracks location information for error reporting and tooling
type Position struct {
	Filename string `json:"filename,omitempty"`
	Offset   int    `json:"offset"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Span is a half-open source range attached to every node.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Node is implemented by every typed AST node.
type Node interface {
	NodeSpan() Span
}

// Module is one compilation unit after type checking: functions in
// declaration order plus the struct classes the checker resolved.
type Module struct {
	Name      string
	Structs   []*StructDecl
	Functions []*Function
}

// StructDecl carries the Copy/Move classification the type checker
// assigned to a nominal type.
type StructDecl struct {
	Name string
	Copy bool
	Span Span
}

// Function is a fully typed function body ready for lowering.
type Function struct {
	Name   string
	Params []*Param
	Return types.Type
	Body   *Block
	Span   Span
}

// Param is a typed function parameter.
type Param struct {
	Name    string
	Type    types.Type
	Mutable bool
	Span    Span
}

// Block is a brace-delimited statement sequence with its own scope.
type Block struct {
	Stmts []Stmt
	Span  Span
}

func (d *StructDecl) NodeSpan() Span { return d.Span }
func (f *Function) NodeSpan() Span   { return f.Span }
func (p *Param) NodeSpan() Span      { return p.Span }
func (b *Block) NodeSpan() Span      { return b.Span }

// Registry builds the shared type table for a module: struct classes
// are declared up front so every worker sees the same read-only view.
func (m *Module) Registry() *types.Registry {
	reg := types.NewRegistry()
	for _, s := range m.Structs {
		class := types.ClassMove
		if s.Copy {
			class = types.ClassCopy
		}
		reg.DeclareStruct(s.Name, class)
	}
	return reg
}
