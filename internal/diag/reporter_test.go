package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sable/internal/ast"
	"sable/internal/borrow"
	"sable/internal/mir"
)

func TestReporterFormat(t *testing.T) {
	source := `fn take(s: str) {
    let t = s;
    let u = s;
}`

	reporter := NewReporter("take.sb", source)

	entry := Entry{
		Level:    Error,
		Code:     ErrorUseAfterMove,
		Message:  "use of moved value `s`",
		Function: "take",
		Position: ast.Position{Line: 3, Column: 13},
		Length:   1,
		Notes: []SpanNote{
			{Position: ast.Position{Line: 2, Column: 13}, Message: "value moved here"},
		},
		HelpText: "a value can only be used while it still owns its contents",
	}
	formatted := reporter.Format(entry)

	// Should contain error level and code
	assert.Contains(t, formatted, "error["+ErrorUseAfterMove+"]")
	assert.Contains(t, formatted, "use of moved value")

	// Should contain location and the offending line
	assert.Contains(t, formatted, "take.sb:3:13")
	assert.Contains(t, formatted, "let u = s;")

	// Should carry the blame note with its own location
	assert.Contains(t, formatted, "value moved here")
	assert.Contains(t, formatted, "take.sb:2:13")

	assert.Contains(t, formatted, "help:")
	assert.Contains(t, formatted, "in function `take`")
}

func TestFromBorrowMapsCodes(t *testing.T) {
	cases := []struct {
		kind borrow.Kind
		code string
	}{
		{borrow.UseAfterMove, ErrorUseAfterMove},
		{borrow.BorrowConflict, ErrorBorrowConflict},
		{borrow.DanglingReference, ErrorDanglingReference},
	}
	for _, tc := range cases {
		d := &borrow.Diagnostic{
			Kind: tc.kind,
			Fn:   "f",
			Msg:  "boom",
			Loc:  mir.Location{Block: 1, Stmt: 2},
			Span: ast.Span{
				Start: ast.Position{Line: 4, Column: 5},
				End:   ast.Position{Line: 4, Column: 8},
			},
			Related: []borrow.Related{
				{Span: ast.Span{Start: ast.Position{Line: 2, Column: 1}}, Note: "earlier"},
			},
		}
		e := FromBorrow(d)
		assert.Equal(t, tc.code, e.Code)
		assert.Equal(t, Error, e.Level)
		assert.Equal(t, 4, e.Position.Line)
		assert.Equal(t, 3, e.Length)
		assert.Len(t, e.Notes, 1)
		assert.NotEmpty(t, e.HelpText)
	}
}

func TestFormatWithoutSourceLine(t *testing.T) {
	reporter := NewReporter("gen.sb", "")
	entry := Entry{
		Level:    Error,
		Code:     ErrorBorrowConflict,
		Message:  "cannot assign to `x` while it is borrowed",
		Position: ast.Position{Line: 40, Column: 2},
	}
	formatted := reporter.Format(entry)
	assert.Contains(t, formatted, "gen.sb:40:2")
	assert.Contains(t, formatted, "cannot assign")
}
