package lower

import (
	"fmt"

	"sable/internal/ast"
)

// Error is a lowering invariant failure: an AST shape that the type
// checker should have made impossible (break outside a loop, a place
// expression that is not a place). It is a compiler bug surface, never
// a user diagnostic, and halts only the affected function.
type Error struct {
	Fn   string
	Msg  string
	Span ast.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("lowering %s: %s", e.Fn, e.Msg)
}
