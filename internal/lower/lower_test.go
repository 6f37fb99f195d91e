package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sable/internal/ast"
	"sable/internal/mir"
	"sable/internal/types"
)

var (
	i64T  = &types.Int{Bits: 64, Signed: true}
	boolT = &types.Bool{}
	strT  = &types.Str{}
	unitT = &types.Unit{}
)

func intLit(v int64) *ast.IntLit { return &ast.IntLit{Value: v, Type: i64T} }

func varRef(name string, t types.Type) *ast.VarRef {
	return &ast.VarRef{Name: name, Type: t}
}

func lowerFn(t *testing.T, fn *ast.Function) *mir.Function {
	t.Helper()
	f, err := Function(fn, types.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, f.Validate())
	return f
}

func TestLowerStraightLine(t *testing.T) {
	fn := &ast.Function{
		Name:   "add_one",
		Params: []*ast.Param{{Name: "x", Type: i64T}},
		Return: i64T,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: "y", Type: i64T, Value: &ast.BinaryExpr{
				Op: ast.Add, Left: varRef("x", i64T), Right: intLit(1), Type: i64T,
			}},
			&ast.ReturnStmt{Value: varRef("y", i64T)},
		}},
	}
	f := lowerFn(t, fn)

	assert.Equal(t, 1, f.Params)
	// _0 return, _1 param x, _2 temp for x+1, _3 y.
	require.Len(t, f.Locals, 4)
	assert.Equal(t, "x", f.Locals[1].Name)
	assert.Equal(t, "y", f.Locals[3].Name)

	entry := f.Block(mir.Entry)
	require.NotNil(t, entry)
	_, ok := entry.Term.(*mir.Return)
	assert.True(t, ok, "straight-line body returns from the entry block")
}

func TestLowerIfElseShape(t *testing.T) {
	fn := &ast.Function{
		Name:   "abs_sign",
		Params: []*ast.Param{{Name: "x", Type: i64T}},
		Return: i64T,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.IfStmt{
				Cond: &ast.BinaryExpr{Op: ast.Lt, Left: varRef("x", i64T), Right: intLit(0), Type: boolT},
				Then: &ast.Block{Stmts: []ast.Stmt{
					&ast.ReturnStmt{Value: intLit(-1)},
				}},
				Else: &ast.Block{Stmts: []ast.Stmt{
					&ast.ReturnStmt{Value: intLit(1)},
				}},
			},
		}},
	}
	f := lowerFn(t, fn)

	br, ok := f.Block(mir.Entry).Term.(*mir.Branch)
	require.True(t, ok)
	assert.NotEqual(t, br.True, br.False)

	_, ok = f.Block(br.True).Term.(*mir.Return)
	assert.True(t, ok)
	_, ok = f.Block(br.False).Term.(*mir.Return)
	assert.True(t, ok)
}

func TestLowerWhileQuartet(t *testing.T) {
	// let mut i = 0; while i < n { i = i + 1; } return i;
	fn := &ast.Function{
		Name:   "count_to",
		Params: []*ast.Param{{Name: "n", Type: i64T}},
		Return: i64T,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: "i", Type: i64T, Mutable: true, Value: intLit(0)},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: ast.Lt, Left: varRef("i", i64T), Right: varRef("n", i64T), Type: boolT},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.AssignStmt{Target: varRef("i", i64T), Value: &ast.BinaryExpr{
						Op: ast.Add, Left: varRef("i", i64T), Right: intLit(1), Type: i64T,
					}},
				}},
			},
			&ast.ReturnStmt{Value: varRef("i", i64T)},
		}},
	}
	f := lowerFn(t, fn)

	entryGoto, ok := f.Block(mir.Entry).Term.(*mir.Goto)
	require.True(t, ok)
	header := f.Block(entryGoto.Target)

	br, ok := header.Term.(*mir.Branch)
	require.True(t, ok, "loop header branches on the condition")

	// The body reaches the latch, and the latch carries the single
	// back edge to the header.
	body := f.Block(br.True)
	bodyGoto, ok := body.Term.(*mir.Goto)
	require.True(t, ok)
	latch := f.Block(bodyGoto.Target)
	latchGoto, ok := latch.Term.(*mir.Goto)
	require.True(t, ok)
	assert.Equal(t, header.ID, latchGoto.Target)

	_, ok = f.Block(br.False).Term.(*mir.Return)
	assert.True(t, ok, "exit block falls through to the return")
}

func TestLowerBreakContinueTargets(t *testing.T) {
	fn := &ast.Function{
		Name:   "spin",
		Return: unitT,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LoopStmt{Body: &ast.Block{Stmts: []ast.Stmt{
				&ast.IfStmt{
					Cond: &ast.BoolLit{Value: true},
					Then: &ast.Block{Stmts: []ast.Stmt{&ast.BreakStmt{}}},
				},
				&ast.ContinueStmt{},
			}}},
		}},
	}
	f := lowerFn(t, fn)

	entryGoto := f.Block(mir.Entry).Term.(*mir.Goto)
	header := f.Block(entryGoto.Target)
	headerGoto := header.Term.(*mir.Goto)
	body := f.Block(headerGoto.Target)

	var latchID, exitID mir.BlockID
	for _, blk := range f.Blocks {
		if g, ok := blk.Term.(*mir.Goto); ok && g.Target == header.ID && blk.ID != mir.Entry {
			latchID = blk.ID
		}
	}
	require.NotZero(t, latchID, "latch with back edge exists")

	// break jumps past the latch; continue jumps to it.
	br := body.Term.(*mir.Branch)
	breakGoto, ok := f.Block(br.True).Term.(*mir.Goto)
	require.True(t, ok)
	exitID = breakGoto.Target
	assert.NotEqual(t, latchID, exitID)

	continueGoto, ok := f.Block(br.False).Term.(*mir.Goto)
	require.True(t, ok)
	assert.Equal(t, latchID, continueGoto.Target)
}

func TestLowerMatchSwitch(t *testing.T) {
	fn := &ast.Function{
		Name:   "classify",
		Params: []*ast.Param{{Name: "x", Type: i64T}},
		Return: i64T,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.MatchStmt{
				Disc: varRef("x", i64T),
				Arms: []*ast.MatchArm{
					{Value: 0, Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: intLit(10)}}}},
					{Value: 1, Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: intLit(20)}}}},
				},
				Default: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: intLit(30)}}},
			},
		}},
	}
	f := lowerFn(t, fn)

	sw, ok := f.Block(mir.Entry).Term.(*mir.Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 2)
	assert.Equal(t, int64(0), sw.Cases[0].Value)
	assert.Equal(t, int64(1), sw.Cases[1].Value)
	assert.NotEqual(t, sw.Cases[0].Target, sw.Cases[1].Target)
	assert.NotEqual(t, sw.Cases[0].Target, sw.Otherwise)
}

func TestLowerCallTerminatesBlock(t *testing.T) {
	fn := &ast.Function{
		Name:   "twice",
		Params: []*ast.Param{{Name: "x", Type: i64T}},
		Return: i64T,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: "a", Type: i64T, Value: &ast.CallExpr{
				Callee: "helper", Args: []ast.Expr{varRef("x", i64T)}, Type: i64T,
			}},
			&ast.ReturnStmt{Value: varRef("a", i64T)},
		}},
	}
	f := lowerFn(t, fn)

	call, ok := f.Block(mir.Entry).Term.(*mir.Call)
	require.True(t, ok, "a call ends its block")
	assert.Equal(t, "helper", call.Func)
	require.Len(t, call.Args, 1)

	_, ok = f.Block(call.Target).Term.(*mir.Return)
	assert.True(t, ok)
}

func TestLowerBorrowLandsInNamedLocal(t *testing.T) {
	fn := &ast.Function{
		Name:   "read_through",
		Params: []*ast.Param{{Name: "x", Type: i64T, Mutable: true}},
		Return: i64T,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: "r", Type: &types.Ref{Elem: i64T}, Value: &ast.RefExpr{
				Target: varRef("x", i64T), Type: &types.Ref{Elem: i64T},
			}},
			&ast.ReturnStmt{Value: &ast.DerefExpr{X: varRef("r", &types.Ref{Elem: i64T}), Type: i64T}},
		}},
	}
	f := lowerFn(t, fn)

	var borrow *mir.Borrow
	for _, blk := range f.Blocks {
		for _, s := range blk.Stmts {
			if bw, ok := s.(*mir.Borrow); ok {
				borrow = bw
			}
		}
	}
	require.NotNil(t, borrow)
	assert.True(t, borrow.Dst.IsLocal())
	assert.Equal(t, "r", f.LocalName(borrow.Dst.Local), "the loan lives in the named reference, not a temp")
	assert.Equal(t, mir.BorrowShared, borrow.Kind)
}

func TestLowerScopeExitEmitsDropsInReverseOrder(t *testing.T) {
	reg := types.NewRegistry()
	fn := &ast.Function{
		Name:   "consume",
		Return: unitT,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: "a", Type: strT, Value: &ast.StrLit{Value: "first"}},
			&ast.LetStmt{Name: "b", Type: strT, Value: &ast.StrLit{Value: "second"}},
		}},
	}
	f, err := Function(fn, reg)
	require.NoError(t, err)

	var dropped []string
	for _, blk := range f.Blocks {
		for _, s := range blk.Stmts {
			if d, ok := s.(*mir.Drop); ok {
				dropped = append(dropped, f.LocalName(d.Place.Local))
			}
		}
	}
	assert.Equal(t, []string{"b", "a"}, dropped)
}

func TestLowerUnitFallThroughReturns(t *testing.T) {
	fn := &ast.Function{
		Name:   "noop",
		Return: unitT,
		Body:   &ast.Block{Stmts: nil},
	}
	f := lowerFn(t, fn)
	_, ok := f.Block(mir.Entry).Term.(*mir.Return)
	assert.True(t, ok)
}

func TestLowerDeterministic(t *testing.T) {
	build := func() *ast.Function {
		return &ast.Function{
			Name:   "mix",
			Params: []*ast.Param{{Name: "n", Type: i64T}},
			Return: i64T,
			Body: &ast.Block{Stmts: []ast.Stmt{
				&ast.LetStmt{Name: "i", Type: i64T, Mutable: true, Value: intLit(0)},
				&ast.WhileStmt{
					Cond: &ast.BinaryExpr{Op: ast.Lt, Left: varRef("i", i64T), Right: varRef("n", i64T), Type: boolT},
					Body: &ast.Block{Stmts: []ast.Stmt{
						&ast.AssignStmt{Target: varRef("i", i64T), Value: &ast.BinaryExpr{
							Op: ast.Add, Left: varRef("i", i64T), Right: intLit(1), Type: i64T,
						}},
					}},
				},
				&ast.ReturnStmt{Value: varRef("i", i64T)},
			}},
		}
	}
	a := lowerFn(t, build())
	b := lowerFn(t, build())
	assert.Equal(t, mir.Print(a), mir.Print(b))
}

func TestLowerRejectsUnboundVariable(t *testing.T) {
	fn := &ast.Function{
		Name:   "broken",
		Return: i64T,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: varRef("nope", i64T)},
		}},
	}
	_, err := Function(fn, types.NewRegistry())
	require.Error(t, err)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Msg, "nope")
}

func TestLowerRejectsUnknownBinaryOperator(t *testing.T) {
	fn := &ast.Function{
		Name:   "broken",
		Return: i64T,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{
				Op:    ast.BinOp(99),
				Left:  &ast.IntLit{Value: 1, Type: i64T},
				Right: &ast.IntLit{Value: 2, Type: i64T},
				Type:  i64T,
			}},
		}},
	}
	_, err := Function(fn, types.NewRegistry())
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Msg, "binary operator")
}
