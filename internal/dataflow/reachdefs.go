package dataflow

import (
	"sable/internal/mir"
)

// DefSite is one full definition of a local: a statement or call
// terminator that overwrites the whole slot.
type DefSite struct {
	Loc   mir.Location
	Local mir.Local
}

// ReachingDefs holds per-block reaching-definition facts. A def site
// reaches a point when some path from the def arrives there without
// an intervening redefinition of the same local.
type ReachingDefs struct {
	fn    *mir.Function
	Sites []DefSite

	// In and Out are sets over site indices.
	In  []*BitSet
	Out []*BitSet

	byLocal map[mir.Local][]int
	siteAt  map[mir.Location]int
}

type reachProblem struct {
	n    int
	gen  []*BitSet
	kill []*BitSet
}

func (p *reachProblem) Direction() Direction { return Forward }
func (p *reachProblem) Boundary() *BitSet    { return NewBitSet(p.n) }
func (p *reachProblem) Top() *BitSet         { return NewBitSet(p.n) }

func (p *reachProblem) Meet(a, b *BitSet) *BitSet {
	m := a.Clone()
	m.UnionWith(b)
	return m
}

func (p *reachProblem) Equal(a, b *BitSet) bool { return a.Equal(b) }

func (p *reachProblem) Transfer(blk *mir.BasicBlock, in *BitSet) *BitSet {
	out := in.Clone()
	for i, w := range p.kill[blk.ID].words {
		out.words[i] &^= w
	}
	out.UnionWith(p.gen[blk.ID])
	return out
}

// ComputeReachingDefs solves reaching definitions for f.
func ComputeReachingDefs(f *mir.Function) *ReachingDefs {
	rd := &ReachingDefs{
		fn:      f,
		byLocal: make(map[mir.Local][]int),
		siteAt:  make(map[mir.Location]int),
	}
	for _, blk := range f.Blocks {
		for si, s := range blk.Stmts {
			if local, ok := mir.StmtDef(s); ok {
				rd.addSite(mir.Location{Block: blk.ID, Stmt: si}, local)
			}
		}
		if local, ok := mir.TermDef(blk.Term); ok {
			rd.addSite(mir.Location{Block: blk.ID, Stmt: len(blk.Stmts)}, local)
		}
	}

	n := len(rd.Sites)
	p := &reachProblem{
		n:    n,
		gen:  make([]*BitSet, len(f.Blocks)),
		kill: make([]*BitSet, len(f.Blocks)),
	}
	for _, blk := range f.Blocks {
		gen := NewBitSet(n)
		kill := NewBitSet(n)
		apply := func(loc mir.Location, local mir.Local) {
			for _, site := range rd.byLocal[local] {
				kill.Set(site)
				gen.Clear(site)
			}
			site := rd.siteAt[loc]
			gen.Set(site)
			kill.Clear(site)
		}
		for si, s := range blk.Stmts {
			if local, ok := mir.StmtDef(s); ok {
				apply(mir.Location{Block: blk.ID, Stmt: si}, local)
			}
		}
		if local, ok := mir.TermDef(blk.Term); ok {
			apply(mir.Location{Block: blk.ID, Stmt: len(blk.Stmts)}, local)
		}
		p.gen[blk.ID] = gen
		p.kill[blk.ID] = kill
	}

	res := Run[*BitSet](f, p)
	rd.In = res.In
	rd.Out = res.Out
	return rd
}

func (rd *ReachingDefs) addSite(loc mir.Location, local mir.Local) {
	idx := len(rd.Sites)
	rd.Sites = append(rd.Sites, DefSite{Loc: loc, Local: local})
	rd.byLocal[local] = append(rd.byLocal[local], idx)
	rd.siteAt[loc] = idx
}

// DefsAt returns the def sites of local that reach the point just
// before loc, in site order.
func (rd *ReachingDefs) DefsAt(local mir.Local, loc mir.Location) []DefSite {
	reach := rd.In[loc.Block].Clone()
	blk := rd.fn.Block(loc.Block)
	for si := 0; si < loc.Stmt && si < len(blk.Stmts); si++ {
		if def, ok := mir.StmtDef(blk.Stmts[si]); ok {
			for _, site := range rd.byLocal[def] {
				reach.Clear(site)
			}
			reach.Set(rd.siteAt[mir.Location{Block: blk.ID, Stmt: si}])
		}
	}

	var out []DefSite
	reach.ForEach(func(i int) {
		if rd.Sites[i].Local == local {
			out = append(out, rd.Sites[i])
		}
	})
	return out
}
