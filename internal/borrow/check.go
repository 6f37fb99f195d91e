package borrow

import (
	"fmt"
	"sort"

	"sable/internal/dataflow"
	"sable/internal/mir"
)

// Check verifies ownership and aliasing for one function and returns
// every violation it can find, ordered by program point. The walk
// never stops at the first fault; later checks run against the facts
// as if earlier faults had not happened.
func Check(f *mir.Function, mode Mode) []*Diagnostic {
	c := &checker{
		fn:    f,
		mode:  mode,
		loans: collectLoans(f),
		live:  dataflow.ComputeLiveness(f),
	}
	ownIn := dataflow.Run[*ownFact](f, &ownProblem{fn: f}).In

	reach := f.Reachable()
	for _, id := range f.ReversePostorder() {
		if !reach[id] {
			continue
		}
		c.walkBlock(f.Blocks[id], ownIn[id].clone(), c.loans.In[id].Clone())
	}

	sort.SliceStable(c.diags, func(i, j int) bool {
		a, b := c.diags[i], c.diags[j]
		if a.Loc != b.Loc {
			return a.Loc.Before(b.Loc)
		}
		return a.Kind < b.Kind
	})
	return c.diags
}

type checker struct {
	fn    *mir.Function
	mode  Mode
	loans *Loans
	live  *dataflow.Liveness
	diags []*Diagnostic
}

func (c *checker) walkBlock(blk *mir.BasicBlock, own *ownFact, loanSet *dataflow.BitSet) {
	points := c.live.BlockPoints(blk.ID)
	for si, s := range blk.Stmts {
		loc := mir.Location{Block: blk.ID, Stmt: si}
		c.checkStmt(loc, s, own, loanSet, points[si])
		stepOwn(own, loc, s)
		c.loans.stepLoc(loc, s, loanSet)
	}
	termLoc := mir.Location{Block: blk.ID, Stmt: len(blk.Stmts)}
	c.checkTerm(termLoc, blk.Term, own, loanSet, points[len(blk.Stmts)])
}

// activeLoans yields the loans in force at a point: the borrow
// reaches it and the reference local is still live, so the region has
// not ended yet.
func (c *checker) activeLoans(loanSet, live *dataflow.BitSet, fn func(*Loan)) {
	loanSet.ForEach(func(id int) {
		loan := c.loans.All[id]
		if live.Has(int(loan.Ref)) {
			fn(loan)
		}
	})
}

func (c *checker) checkStmt(loc mir.Location, s mir.Statement, own *ownFact, loanSet, live *dataflow.BitSet) {
	switch s := s.(type) {
	case *mir.Assign:
		for _, op := range mir.RvalueOperands(s.Src) {
			c.checkOperand(loc, op, own, loanSet, live)
		}
		if ref, ok := s.Src.(*mir.Ref); ok {
			c.checkRead(loc, ref.Place, own)
		}
		if ln, ok := s.Src.(*mir.Len); ok {
			c.checkRead(loc, ln.Place, own)
		}
		c.checkWrite(loc, s.Dst, own, loanSet, live)

	case *mir.Load:
		c.checkOperand(loc, s.Src, own, loanSet, live)
		c.checkWrite(loc, s.Dst, own, loanSet, live)

	case *mir.Store:
		c.checkOperand(loc, s.Src, own, loanSet, live)
		c.checkWrite(loc, s.Dst, own, loanSet, live)

	case *mir.Borrow:
		c.checkRead(loc, s.Src, own)
		c.checkNewLoan(loc, s, loanSet, live)

	case *mir.Drop:
		c.checkDrop(loc, s, own, loanSet, live)
	}
}

func (c *checker) checkTerm(loc mir.Location, t mir.Terminator, own *ownFact, loanSet, live *dataflow.BitSet) {
	switch t := t.(type) {
	case *mir.Branch:
		c.checkOperand(loc, t.Cond, own, loanSet, live)
	case *mir.Switch:
		c.checkOperand(loc, t.Disc, own, loanSet, live)
	case *mir.Call:
		for _, arg := range t.Args {
			c.checkOperand(loc, arg, own, loanSet, live)
		}
		c.checkWrite(loc, t.Dst, own, loanSet, live)
	}
}

// checkOperand validates one value read: the source must not be
// moved away, and a moving read must not leave a borrowed place.
func (c *checker) checkOperand(loc mir.Location, op mir.Operand, own *ownFact, loanSet, live *dataflow.BitSet) {
	if op.Kind == mir.OperandConst {
		return
	}
	c.checkRead(loc, op.Place, own)
	if op.Kind == mir.OperandMove {
		c.activeLoans(loanSet, live, func(loan *Loan) {
			if loan.Place.Overlaps(op.Place) {
				c.report(&Diagnostic{
					Kind: BorrowConflict,
					Fn:   c.fn.Name,
					Msg: fmt.Sprintf("cannot move out of %s while it is borrowed",
						c.describe(op.Place)),
					Loc:  loc,
					Span: c.fn.SpanAt(loc),
					Related: []Related{{
						Loc: loan.Start, Span: loan.Span,
						Note: fmt.Sprintf("%s borrow of %s taken here", kindNoun(loan.Kind), c.describe(loan.Place)),
					}},
				})
			}
		})
	} else {
		c.activeLoans(loanSet, live, func(loan *Loan) {
			if loan.Kind == mir.BorrowExclusive && loan.Place.Overlaps(op.Place) {
				c.report(&Diagnostic{
					Kind: BorrowConflict,
					Fn:   c.fn.Name,
					Msg: fmt.Sprintf("cannot read %s while it is exclusively borrowed",
						c.describe(op.Place)),
					Loc:  loc,
					Span: c.fn.SpanAt(loc),
					Related: []Related{{
						Loc: loan.Start, Span: loan.Span,
						Note: "exclusive borrow taken here",
					}},
				})
			}
		})
	}
}

// checkRead reports a use of a place whose base may already be moved
// or dropped.
func (c *checker) checkRead(loc mir.Location, p mir.Place, own *ownFact) {
	base := p.Local
	if !own.mask[base].maybeGone() {
		return
	}
	var rel Related
	if own.mask[base]&stMoved != 0 {
		rel = Related{Loc: own.moveLoc[base], Span: own.moveSpan[base], Note: "value moved here"}
	} else {
		rel = Related{Loc: own.dropLoc[base], Span: own.dropSpan[base], Note: "value dropped here"}
	}
	c.report(&Diagnostic{
		Kind:    UseAfterMove,
		Fn:      c.fn.Name,
		Msg:     fmt.Sprintf("use of moved value %s", c.describe(mir.PlaceOf(base))),
		Loc:     loc,
		Span:    c.fn.SpanAt(loc),
		Related: []Related{rel},
	})
}

// checkWrite reports a store into a place an active loan still
// covers. Writes through the loan's own reference have the reference
// as their base and do not overlap the borrowed place.
func (c *checker) checkWrite(loc mir.Location, dst mir.Place, own *ownFact, loanSet, live *dataflow.BitSet) {
	if !dst.IsLocal() {
		// A projected write keeps the rest of the value: the base must
		// still be owned.
		c.checkRead(loc, dst, own)
	}
	c.activeLoans(loanSet, live, func(loan *Loan) {
		if loan.Ref == dst.Local && dst.IsLocal() {
			// Overwriting the reference itself ends the loan.
			return
		}
		if loan.Place.Overlaps(dst) {
			c.report(&Diagnostic{
				Kind: BorrowConflict,
				Fn:   c.fn.Name,
				Msg: fmt.Sprintf("cannot assign to %s while it is borrowed",
					c.describe(dst)),
				Loc:  loc,
				Span: c.fn.SpanAt(loc),
				Related: []Related{{
					Loc: loan.Start, Span: loan.Span,
					Note: "borrow taken here",
				}},
			})
		}
	})
}

// checkNewLoan enforces exclusivity between an incoming borrow and
// the loans already in force on an overlapping place.
func (c *checker) checkNewLoan(loc mir.Location, bw *mir.Borrow, loanSet, live *dataflow.BitSet) {
	c.activeLoans(loanSet, live, func(loan *Loan) {
		if !loan.Place.Overlaps(bw.Src) {
			return
		}
		if loan.Kind == mir.BorrowShared && bw.Kind == mir.BorrowShared {
			return
		}
		if c.mode == ModePermissive && loan.Kind != bw.Kind {
			// Shared alongside exclusive is tolerated here; only
			// exclusive-exclusive overlap remains fatal.
			return
		}
		c.report(&Diagnostic{
			Kind: BorrowConflict,
			Fn:   c.fn.Name,
			Msg: fmt.Sprintf("cannot borrow %s as %s while a %s borrow is active",
				c.describe(bw.Src), kindNoun(bw.Kind), kindNoun(loan.Kind)),
			Loc:  loc,
			Span: bw.Sp,
			Related: []Related{{
				Loc: loan.Start, Span: loan.Span,
				Note: fmt.Sprintf("%s borrow taken here", kindNoun(loan.Kind)),
			}},
		})
	})
}

// checkDrop reports loans that outlive the value they borrow. A drop
// of a maybe-moved local is a no-op and checks nothing.
func (c *checker) checkDrop(loc mir.Location, d *mir.Drop, own *ownFact, loanSet, live *dataflow.BitSet) {
	if !d.Place.IsLocal() {
		return
	}
	if own.mask[d.Place.Local]&stMoved != 0 {
		return
	}
	c.activeLoans(loanSet, live, func(loan *Loan) {
		if !loan.Place.Overlaps(d.Place) {
			return
		}
		c.report(&Diagnostic{
			Kind: DanglingReference,
			Fn:   c.fn.Name,
			Msg: fmt.Sprintf("%s does not live long enough: %s is still in use when it is dropped",
				c.describe(d.Place), c.describe(mir.PlaceOf(loan.Ref))),
			Loc:  loc,
			Span: d.Sp,
			Related: []Related{{
				Loc: loan.Start, Span: loan.Span,
				Note: "borrowed here",
			}},
		})
	})
}

func (c *checker) report(d *Diagnostic) {
	c.diags = append(c.diags, d)
}

// describe renders a place with source names where they exist.
func (c *checker) describe(p mir.Place) string {
	s := "`" + c.fn.LocalName(p.Local)
	for _, proj := range p.Proj {
		switch proj.Kind {
		case mir.ProjDeref:
			s = "`*" + s[1:]
		case mir.ProjField:
			s += fmt.Sprintf(".%d", proj.Field)
		case mir.ProjIndex:
			s += "[" + c.fn.LocalName(proj.Index) + "]"
		}
	}
	return s + "`"
}

func kindNoun(k mir.BorrowKind) string {
	if k == mir.BorrowExclusive {
		return "exclusive"
	}
	return "shared"
}
