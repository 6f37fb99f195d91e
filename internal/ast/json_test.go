package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sable/internal/types"
)

var i64 = &types.Int{Bits: 64, Signed: true}

func TestModuleJSONRoundTrip(t *testing.T) {
	m := &Module{
		Name:    "demo",
		Structs: []*StructDecl{{Name: "Point", Copy: true}},
		Functions: []*Function{{
			Name:   "clamp",
			Params: []*Param{{Name: "x", Type: i64}},
			Return: i64,
			Body: &Block{Stmts: []Stmt{
				&IfStmt{
					Cond: &BinaryExpr{Op: Lt, Left: &VarRef{Name: "x", Type: i64}, Right: &IntLit{Value: 0, Type: i64}, Type: &types.Bool{}},
					Then: &Block{Stmts: []Stmt{
						&ReturnStmt{Value: &IntLit{Value: 0, Type: i64}},
					}},
				},
				&ReturnStmt{Value: &VarRef{Name: "x", Type: i64}},
			}},
		}},
	}

	data, err := EncodeModule(m)
	require.NoError(t, err)

	decoded, err := DecodeModule(data)
	require.NoError(t, err)

	require.Len(t, decoded.Functions, 1)
	fn := decoded.Functions[0]
	assert.Equal(t, "clamp", fn.Name)
	require.Len(t, fn.Params, 1)
	assert.True(t, types.Equal(i64, fn.Params[0].Type))
	require.Len(t, fn.Body.Stmts, 2)

	ifStmt, ok := fn.Body.Stmts[0].(*IfStmt)
	require.True(t, ok)
	cond, ok := ifStmt.Cond.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, Lt, cond.Op)
}

func TestLoopAndBorrowStmtsRoundTrip(t *testing.T) {
	refType := &types.Ref{Elem: i64}
	m := &Module{
		Name: "loops",
		Functions: []*Function{{
			Name:   "spin",
			Return: &types.Unit{},
			Body: &Block{Stmts: []Stmt{
				&LetStmt{Name: "x", Type: i64, Mutable: true, Value: &IntLit{Value: 1, Type: i64}},
				&LetStmt{Name: "r", Type: refType, Value: &RefExpr{Target: &VarRef{Name: "x", Type: i64}, Type: refType}},
				&WhileStmt{
					Cond: &BoolLit{Value: true},
					Body: &Block{Stmts: []Stmt{&BreakStmt{}}},
				},
				&ExprStmt{Expr: &MoveExpr{X: &VarRef{Name: "x", Type: i64}}},
			}},
		}},
	}

	data, err := EncodeModule(m)
	require.NoError(t, err)

	decoded, err := DecodeModule(data)
	require.NoError(t, err)

	fn := decoded.Functions[0]
	require.Len(t, fn.Body.Stmts, 4)

	let, ok := fn.Body.Stmts[1].(*LetStmt)
	require.True(t, ok)
	ref, ok := let.Value.(*RefExpr)
	require.True(t, ok)
	assert.False(t, ref.Mutable)
	assert.True(t, types.Equal(refType, ref.Type))

	_, ok = fn.Body.Stmts[3].(*ExprStmt)
	require.True(t, ok)
}

func TestDecodeRejectsUnknownKinds(t *testing.T) {
	_, err := DecodeModule([]byte(`{"name":"bad","functions":[{"name":"f","return":{"kind":"unit"},"body":{"kind":"block","items":[{"kind":"teleport"}]},"span":{}}]}`))
	assert.Error(t, err)
}

func TestIsPlace(t *testing.T) {
	x := &VarRef{Name: "x", Type: i64}

	assert.True(t, IsPlace(x))
	assert.True(t, IsPlace(&FieldExpr{X: x, Index: 0, Type: i64}))
	assert.True(t, IsPlace(&DerefExpr{X: &VarRef{Name: "r", Type: &types.Ref{Elem: i64}}, Type: i64}))
	assert.False(t, IsPlace(&IntLit{Value: 3, Type: i64}))
	assert.False(t, IsPlace(&BinaryExpr{Op: Add, Left: x, Right: x, Type: i64}))
}
