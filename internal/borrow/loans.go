package borrow

import (
	"sable/internal/ast"
	"sable/internal/dataflow"
	"sable/internal/mir"
)

// Loan is one borrow: a reference local, the place it points at, and
// the exclusivity it claims. Its region is not lexical; a loan is
// active at a point when the borrow reaches it and the reference
// local is still live there.
type Loan struct {
	ID    int
	Ref   mir.Local
	Place mir.Place
	Kind  mir.BorrowKind
	Start mir.Location
	Span  ast.Span
}

// Loans holds every loan of a function plus the per-block "borrow
// reaches" facts.
type Loans struct {
	fn    *mir.Function
	All   []*Loan
	byRef map[mir.Local][]int

	// In[b] is the set of loan ids reaching the entry of block b,
	// before the liveness cut.
	In []*dataflow.BitSet
}

// collectLoans scans the function for Borrow statements and solves
// the reaching-borrows problem. Lowering materializes every borrow
// into a bare local first, so a loan's reference is always a local.
func collectLoans(f *mir.Function) *Loans {
	ls := &Loans{fn: f, byRef: make(map[mir.Local][]int)}
	for _, blk := range f.Blocks {
		for si, s := range blk.Stmts {
			bw, ok := s.(*mir.Borrow)
			if !ok || !bw.Dst.IsLocal() {
				continue
			}
			loan := &Loan{
				ID:    len(ls.All),
				Ref:   bw.Dst.Local,
				Place: bw.Src,
				Kind:  bw.Kind,
				Start: mir.Location{Block: blk.ID, Stmt: si},
				Span:  bw.Sp,
			}
			ls.All = append(ls.All, loan)
			ls.byRef[loan.Ref] = append(ls.byRef[loan.Ref], loan.ID)
		}
	}

	res := dataflow.Run[*dataflow.BitSet](f, &loanProblem{loans: ls})
	ls.In = res.In
	return ls
}

// stepLoc applies one statement's effect to a reaching-borrows set:
// a borrow starts the loan anchored at loc, and any full redefinition
// of a reference local or an explicit end kills that local's loans.
func (ls *Loans) stepLoc(loc mir.Location, s mir.Statement, set *dataflow.BitSet) {
	if def, ok := mir.StmtDef(s); ok {
		for _, id := range ls.byRef[def] {
			set.Clear(id)
		}
	}
	switch s := s.(type) {
	case *mir.Borrow:
		if s.Dst.IsLocal() {
			for _, id := range ls.byRef[s.Dst.Local] {
				if ls.All[id].Start == loc {
					set.Set(id)
				}
			}
		}
	case *mir.EndBorrow:
		for _, id := range ls.byRef[s.Ref] {
			set.Clear(id)
		}
	}
}

func (ls *Loans) stepTerm(t mir.Terminator, set *dataflow.BitSet) {
	if def, ok := mir.TermDef(t); ok {
		for _, id := range ls.byRef[def] {
			set.Clear(id)
		}
	}
}

type loanProblem struct {
	loans *Loans
}

func (p *loanProblem) Direction() dataflow.Direction { return dataflow.Forward }

func (p *loanProblem) Boundary() *dataflow.BitSet {
	return dataflow.NewBitSet(len(p.loans.All))
}

func (p *loanProblem) Top() *dataflow.BitSet {
	return dataflow.NewBitSet(len(p.loans.All))
}

func (p *loanProblem) Meet(a, b *dataflow.BitSet) *dataflow.BitSet {
	m := a.Clone()
	m.UnionWith(b)
	return m
}

func (p *loanProblem) Equal(a, b *dataflow.BitSet) bool { return a.Equal(b) }

func (p *loanProblem) Transfer(blk *mir.BasicBlock, in *dataflow.BitSet) *dataflow.BitSet {
	set := in.Clone()
	for si, s := range blk.Stmts {
		p.loans.stepLoc(mir.Location{Block: blk.ID, Stmt: si}, s, set)
	}
	p.loans.stepTerm(blk.Term, set)
	return set
}
