package types

import (
	"fmt"
	"strings"
)

// Type is a fully resolved concrete type as produced by the type
// checker. The middle-end never infers types; it only consumes them.
type Type interface {
	String() string
}

// Int covers all fixed-width integer types.
type Int struct {
	Bits   int
	Signed bool
}

type Bool struct{}

type Str struct{}

type Unit struct{}

// Never is the type of expressions that do not produce a value
// (diverging calls, break, continue).
type Never struct{}

// Ref is a borrow type. Shared references copy freely; exclusive
// references are move-only.
type Ref struct {
	Elem    Type
	Mutable bool
}

// Pointer is a raw pointer. It carries no ownership.
type Pointer struct {
	Elem Type
}

type Array struct {
	Elem Type
}

type Tuple struct {
	Elems []Type
}

// Struct is a nominal user-defined type. Its Copy/Move class comes
// from the registry, not from the type itself.
type Struct struct {
	Name string
}

type Func struct {
	Params []Type
	Ret    Type
}

func (t *Int) String() string {
	if t.Signed {
		return fmt.Sprintf("i%d", t.Bits)
	}
	return fmt.Sprintf("u%d", t.Bits)
}

func (t *Bool) String() string  { return "bool" }
func (t *Str) String() string   { return "str" }
func (t *Unit) String() string  { return "()" }
func (t *Never) String() string { return "!" }

func (t *Ref) String() string {
	if t.Mutable {
		return "&mut " + t.Elem.String()
	}
	return "&" + t.Elem.String()
}

func (t *Pointer) String() string { return "*" + t.Elem.String() }
func (t *Array) String() string   { return "[" + t.Elem.String() + "]" }

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t *Struct) String() string { return t.Name }

func (t *Func) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return "fn(" + strings.Join(parts, ", ") + ") -> " + t.Ret.String()
}

// Equal reports whether two resolved types are structurally identical.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// IsUnit reports whether t is the unit type.
func IsUnit(t Type) bool {
	_, ok := t.(*Unit)
	return ok
}

// IsRef reports whether t is a reference type.
func IsRef(t Type) bool {
	_, ok := t.(*Ref)
	return ok
}
