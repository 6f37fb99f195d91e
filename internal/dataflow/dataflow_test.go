package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sable/internal/mir"
	"sable/internal/types"
)

var i64T = &types.Int{Bits: 64, Signed: true}

// testFn builds a function skeleton with n int64 locals past the
// return slot.
func testFn(n int) *mir.Function {
	f := &mir.Function{Name: "t"}
	f.Locals = append(f.Locals, mir.LocalDecl{Type: i64T, Class: types.ClassCopy})
	for i := 0; i < n; i++ {
		f.Locals = append(f.Locals, mir.LocalDecl{Type: i64T, Class: types.ClassCopy})
	}
	return f
}

func addBlock(f *mir.Function) *mir.BasicBlock {
	b := &mir.BasicBlock{ID: mir.BlockID(len(f.Blocks))}
	f.Blocks = append(f.Blocks, b)
	return b
}

func loadConst(l mir.Local, v int64) *mir.Load {
	return &mir.Load{Dst: mir.PlaceOf(l), Src: mir.ConstOperand(mir.IntConst(v))}
}

func loadCopy(dst, src mir.Local) *mir.Load {
	return &mir.Load{Dst: mir.PlaceOf(dst), Src: mir.CopyOperand(mir.PlaceOf(src))}
}

func addOf(dst, a, b mir.Local) *mir.Assign {
	return &mir.Assign{Dst: mir.PlaceOf(dst), Src: &mir.BinaryOp{
		Op: mir.Add,
		L:  mir.CopyOperand(mir.PlaceOf(a)),
		R:  mir.CopyOperand(mir.PlaceOf(b)),
	}}
}

// diamond builds:
//
//	bb0: _1 = 1; _2 = 2; branch _1 -> bb1, bb2
//	bb1: _0 = _1 + _2; goto bb3
//	bb2: _0 = _1;      goto bb3
//	bb3: return
func diamond() *mir.Function {
	f := testFn(2)
	b0 := addBlock(f)
	b1 := addBlock(f)
	b2 := addBlock(f)
	b3 := addBlock(f)

	b0.Stmts = []mir.Statement{loadConst(1, 1), loadConst(2, 2)}
	b0.Term = &mir.Branch{Cond: mir.CopyOperand(mir.PlaceOf(1)), True: b1.ID, False: b2.ID}
	b1.Stmts = []mir.Statement{addOf(mir.ReturnLocal, 1, 2)}
	b1.Term = &mir.Goto{Target: b3.ID}
	b2.Stmts = []mir.Statement{loadCopy(mir.ReturnLocal, 1)}
	b2.Term = &mir.Goto{Target: b3.ID}
	b3.Term = &mir.Return{}
	return f
}

// loop builds:
//
//	bb0: _1 = 0; goto bb1
//	bb1: branch _1 -> bb2, bb4
//	bb2: _1 = _1 + _1; goto bb3
//	bb3: goto bb1
//	bb4: _0 = _1; return
func loopFn() *mir.Function {
	f := testFn(1)
	b0 := addBlock(f)
	b1 := addBlock(f)
	b2 := addBlock(f)
	b3 := addBlock(f)
	b4 := addBlock(f)

	b0.Stmts = []mir.Statement{loadConst(1, 0)}
	b0.Term = &mir.Goto{Target: b1.ID}
	b1.Term = &mir.Branch{Cond: mir.CopyOperand(mir.PlaceOf(1)), True: b2.ID, False: b4.ID}
	b2.Stmts = []mir.Statement{addOf(1, 1, 1)}
	b2.Term = &mir.Goto{Target: b3.ID}
	b3.Term = &mir.Goto{Target: b1.ID}
	b4.Stmts = []mir.Statement{loadCopy(mir.ReturnLocal, 1)}
	b4.Term = &mir.Return{}
	return f
}

func TestBitSetBasics(t *testing.T) {
	s := NewBitSet(130)
	s.Set(0)
	s.Set(64)
	s.Set(129)
	assert.True(t, s.Has(0))
	assert.True(t, s.Has(64))
	assert.True(t, s.Has(129))
	assert.False(t, s.Has(1))
	assert.Equal(t, 3, s.Count())

	o := s.Clone()
	o.Clear(64)
	assert.True(t, s.Has(64), "clone does not alias")

	changed := o.UnionWith(s)
	assert.True(t, changed)
	assert.True(t, o.Equal(s))
	assert.False(t, o.UnionWith(s), "union with subset is a no-op")

	var got []int
	s.ForEach(func(i int) { got = append(got, i) })
	assert.Equal(t, []int{0, 64, 129}, got)
	assert.Equal(t, "{0, 64, 129}", s.String())
}

func TestLivenessDiamond(t *testing.T) {
	f := diamond()
	require.NoError(t, f.Validate())
	lv := ComputeLiveness(f)

	// Both branch targets read _1; only bb1 reads _2.
	assert.True(t, lv.In[1].Has(1))
	assert.True(t, lv.In[1].Has(2))
	assert.True(t, lv.In[2].Has(1))
	assert.False(t, lv.In[2].Has(2))

	// The return slot is live into the exit block, nothing else is.
	assert.True(t, lv.In[3].Has(0))
	assert.False(t, lv.In[3].Has(1))
}

func TestLivenessAroundBackEdge(t *testing.T) {
	f := loopFn()
	require.NoError(t, f.Validate())
	lv := ComputeLiveness(f)

	// _1 is read in the header and redefined in the body, so it stays
	// live around the back edge.
	assert.True(t, lv.In[1].Has(1))
	assert.True(t, lv.Out[3].Has(1))
	assert.True(t, lv.In[2].Has(1))
}

func TestLivenessPerStatement(t *testing.T) {
	f := diamond()
	lv := ComputeLiveness(f)

	// Before bb0[0], nothing is defined yet and nothing is live-in.
	assert.False(t, lv.LiveBefore(1, mir.Location{Block: 0, Stmt: 0}))
	// After _1's def, before _2's, _1 is live.
	assert.True(t, lv.LiveBefore(1, mir.Location{Block: 0, Stmt: 1}))

	points := lv.BlockPoints(0)
	require.Len(t, points, 3)
	assert.False(t, points[0].Has(1))
	assert.True(t, points[1].Has(1))
	assert.True(t, points[2].Has(1), "live before the branch that reads it")
}

func TestReachingDefsMerge(t *testing.T) {
	// bb0: _1 = 1; branch -> bb1, bb2
	// bb1: _1 = 2; goto bb3
	// bb2: goto bb3
	// bb3: _0 = _1; return
	f := testFn(1)
	b0 := addBlock(f)
	b1 := addBlock(f)
	b2 := addBlock(f)
	b3 := addBlock(f)
	b0.Stmts = []mir.Statement{loadConst(1, 1)}
	b0.Term = &mir.Branch{Cond: mir.CopyOperand(mir.PlaceOf(1)), True: b1.ID, False: b2.ID}
	b1.Stmts = []mir.Statement{loadConst(1, 2)}
	b1.Term = &mir.Goto{Target: b3.ID}
	b2.Term = &mir.Goto{Target: b3.ID}
	b3.Stmts = []mir.Statement{loadCopy(mir.ReturnLocal, 1)}
	b3.Term = &mir.Return{}
	require.NoError(t, f.Validate())

	rd := ComputeReachingDefs(f)
	require.Len(t, rd.Sites, 3)

	// At the merge both defs of _1 reach.
	defs := rd.DefsAt(1, mir.Location{Block: 3, Stmt: 0})
	require.Len(t, defs, 2)
	assert.Equal(t, mir.BlockID(0), defs[0].Loc.Block)
	assert.Equal(t, mir.BlockID(1), defs[1].Loc.Block)

	// Inside bb1, the redefinition kills the entry def.
	defs = rd.DefsAt(1, mir.Location{Block: 1, Stmt: 1})
	require.Len(t, defs, 1)
	assert.Equal(t, mir.BlockID(1), defs[0].Loc.Block)
}

func TestReachingDefsCallSite(t *testing.T) {
	// bb0: call helper() -> _1, goto bb1
	// bb1: _0 = _1; return
	f := testFn(1)
	b0 := addBlock(f)
	b1 := addBlock(f)
	b0.Term = &mir.Call{Func: "helper", Dst: mir.PlaceOf(1), Target: b1.ID}
	b1.Stmts = []mir.Statement{loadCopy(mir.ReturnLocal, 1)}
	b1.Term = &mir.Return{}

	rd := ComputeReachingDefs(f)
	defs := rd.DefsAt(1, mir.Location{Block: 1, Stmt: 0})
	require.Len(t, defs, 1)
	assert.Equal(t, mir.Location{Block: 0, Stmt: 0}, defs[0].Loc)
}

func TestEngineConvergesQuickly(t *testing.T) {
	f := loopFn()
	p := &livenessProblem{fn: f, n: len(f.Locals)}
	res := Run[*BitSet](f, p)
	assert.LessOrEqual(t, res.Rounds, 4, "ordered worklist settles fast on a single loop")
}

func TestFactsInvalidate(t *testing.T) {
	f := loopFn()
	facts := NewFacts(f)

	lv := facts.Liveness()
	assert.Same(t, lv, facts.Liveness(), "cached until invalidated")

	facts.Invalidate()
	assert.NotSame(t, lv, facts.Liveness())
	assert.NotNil(t, facts.Dominators())
	assert.Len(t, facts.Loops(), 1)
}
