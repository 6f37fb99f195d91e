package dataflow

import (
	"sable/internal/mir"
)

// Liveness holds per-block live-variable facts. A local is live at a
// point when some path from that point reads it before overwriting
// it. Loan regions and dead-code elimination both key off this.
type Liveness struct {
	fn *mir.Function

	// In and Out are the live sets at block entry and exit.
	In  []*BitSet
	Out []*BitSet
}

type livenessProblem struct {
	fn *mir.Function
	n  int // locals
}

func (p *livenessProblem) Direction() Direction { return Backward }
func (p *livenessProblem) Boundary() *BitSet    { return NewBitSet(p.n) }
func (p *livenessProblem) Top() *BitSet         { return NewBitSet(p.n) }

func (p *livenessProblem) Meet(a, b *BitSet) *BitSet {
	m := a.Clone()
	m.UnionWith(b)
	return m
}

func (p *livenessProblem) Equal(a, b *BitSet) bool { return a.Equal(b) }

func (p *livenessProblem) Transfer(blk *mir.BasicBlock, out *BitSet) *BitSet {
	live := out.Clone()
	stepTermBackward(blk.Term, live)
	for i := len(blk.Stmts) - 1; i >= 0; i-- {
		stepStmtBackward(blk.Stmts[i], live)
	}
	return live
}

func stepStmtBackward(s mir.Statement, live *BitSet) {
	if def, ok := mir.StmtDef(s); ok {
		live.Clear(int(def))
	}
	mir.VisitStmtUses(s, func(l mir.Local) { live.Set(int(l)) })
}

func stepTermBackward(t mir.Terminator, live *BitSet) {
	if t == nil {
		return
	}
	if def, ok := mir.TermDef(t); ok {
		live.Clear(int(def))
	}
	mir.VisitTermUses(t, func(l mir.Local) { live.Set(int(l)) })
	if _, ok := t.(*mir.Return); ok {
		live.Set(int(mir.ReturnLocal))
	}
}

// ComputeLiveness solves live variables for f.
func ComputeLiveness(f *mir.Function) *Liveness {
	p := &livenessProblem{fn: f, n: len(f.Locals)}
	res := Run[*BitSet](f, p)
	return &Liveness{fn: f, In: res.In, Out: res.Out}
}

// LiveBefore reports whether local is live immediately before the
// statement at loc. loc.Stmt == len(Stmts) addresses the terminator.
func (lv *Liveness) LiveBefore(local mir.Local, loc mir.Location) bool {
	blk := lv.fn.Block(loc.Block)
	live := lv.Out[loc.Block].Clone()
	stepTermBackward(blk.Term, live)
	for i := len(blk.Stmts) - 1; i >= loc.Stmt; i-- {
		stepStmtBackward(blk.Stmts[i], live)
	}
	return live.Has(int(local))
}

// BlockPoints returns the live set before each statement and before
// the terminator, len(Stmts)+1 entries, computed by one backward walk.
func (lv *Liveness) BlockPoints(id mir.BlockID) []*BitSet {
	blk := lv.fn.Block(id)
	points := make([]*BitSet, len(blk.Stmts)+1)
	live := lv.Out[id].Clone()
	stepTermBackward(blk.Term, live)
	points[len(blk.Stmts)] = live.Clone()
	for i := len(blk.Stmts) - 1; i >= 0; i-- {
		stepStmtBackward(blk.Stmts[i], live)
		points[i] = live.Clone()
	}
	return points
}
