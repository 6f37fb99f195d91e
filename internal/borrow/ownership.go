package borrow

import (
	"sable/internal/ast"
	"sable/internal/dataflow"
	"sable/internal/mir"
)

// ownState is a bitmask of the states a local may be in at a program
// point. Paths that disagree union their masks, so "maybe moved" is
// stOwned|stMoved.
type ownState uint8

const (
	stUninit ownState = 1 << iota
	stOwned
	stMoved
	stDropped
)

func (s ownState) maybeGone() bool { return s&(stMoved|stDropped) != 0 }

// ownFact is the per-local ownership mask plus the blame sites used
// in diagnostics. Blame merges toward the earliest site so reports
// stay deterministic across merge orders.
type ownFact struct {
	mask     []ownState
	moveLoc  []mir.Location
	moveSpan []ast.Span
	dropLoc  []mir.Location
	dropSpan []ast.Span
}

func newOwnFact(n int) *ownFact {
	return &ownFact{
		mask:     make([]ownState, n),
		moveLoc:  make([]mir.Location, n),
		moveSpan: make([]ast.Span, n),
		dropLoc:  make([]mir.Location, n),
		dropSpan: make([]ast.Span, n),
	}
}

func (f *ownFact) clone() *ownFact {
	c := newOwnFact(len(f.mask))
	copy(c.mask, f.mask)
	copy(c.moveLoc, f.moveLoc)
	copy(c.moveSpan, f.moveSpan)
	copy(c.dropLoc, f.dropLoc)
	copy(c.dropSpan, f.dropSpan)
	return c
}

func (f *ownFact) markMoved(l mir.Local, loc mir.Location, sp ast.Span) {
	f.mask[l] = stMoved
	f.moveLoc[l] = loc
	f.moveSpan[l] = sp
}

func (f *ownFact) markOwned(l mir.Local) {
	f.mask[l] = stOwned
}

func (f *ownFact) markDropped(l mir.Local, loc mir.Location, sp ast.Span) {
	if f.mask[l]&stOwned != 0 {
		f.mask[l] &^= stOwned
		f.mask[l] |= stDropped
		f.dropLoc[l] = loc
		f.dropSpan[l] = sp
	}
}

type ownProblem struct {
	fn *mir.Function
}

func (p *ownProblem) Direction() dataflow.Direction { return dataflow.Forward }

func (p *ownProblem) Boundary() *ownFact {
	f := newOwnFact(len(p.fn.Locals))
	for l := range f.mask {
		f.mask[l] = stUninit
	}
	for i := 1; i <= p.fn.Params; i++ {
		f.mask[i] = stOwned
	}
	return f
}

func (p *ownProblem) Top() *ownFact {
	// Zero masks: the fact of a path not yet seen, identity for Meet.
	return newOwnFact(len(p.fn.Locals))
}

func (p *ownProblem) Meet(a, b *ownFact) *ownFact {
	m := a.clone()
	for l := range m.mask {
		m.mask[l] |= b.mask[l]
		if b.mask[l]&stMoved != 0 {
			if a.mask[l]&stMoved == 0 || b.moveLoc[l].Before(a.moveLoc[l]) {
				m.moveLoc[l] = b.moveLoc[l]
				m.moveSpan[l] = b.moveSpan[l]
			}
		}
		if b.mask[l]&stDropped != 0 {
			if a.mask[l]&stDropped == 0 || b.dropLoc[l].Before(a.dropLoc[l]) {
				m.dropLoc[l] = b.dropLoc[l]
				m.dropSpan[l] = b.dropSpan[l]
			}
		}
	}
	return m
}

func (p *ownProblem) Equal(a, b *ownFact) bool {
	for l := range a.mask {
		if a.mask[l] != b.mask[l] {
			return false
		}
		if a.mask[l]&stMoved != 0 && a.moveLoc[l] != b.moveLoc[l] {
			return false
		}
		if a.mask[l]&stDropped != 0 && a.dropLoc[l] != b.dropLoc[l] {
			return false
		}
	}
	return true
}

func (p *ownProblem) Transfer(blk *mir.BasicBlock, in *ownFact) *ownFact {
	f := in.clone()
	for si, s := range blk.Stmts {
		stepOwn(f, mir.Location{Block: blk.ID, Stmt: si}, s)
	}
	stepOwnTerm(f, mir.Location{Block: blk.ID, Stmt: len(blk.Stmts)}, blk.Term)
	return f
}

// stepOwn applies a statement's ownership effects: moves leave, full
// definitions (re)initialize, drops end lifetimes. A drop of a
// maybe-moved local stays a no-op on the moved paths.
func stepOwn(f *ownFact, loc mir.Location, s mir.Statement) {
	forEachOperand(s, func(op mir.Operand) {
		if op.Kind == mir.OperandMove {
			f.markMoved(op.Place.Local, loc, stmtSpan(s))
		}
	})
	if def, ok := mir.StmtDef(s); ok {
		f.markOwned(def)
	}
	if d, ok := s.(*mir.Drop); ok && d.Place.IsLocal() {
		f.markDropped(d.Place.Local, loc, d.Sp)
	}
}

func stepOwnTerm(f *ownFact, loc mir.Location, t mir.Terminator) {
	if t == nil {
		return
	}
	if call, ok := t.(*mir.Call); ok {
		for _, arg := range call.Args {
			if arg.Kind == mir.OperandMove {
				f.markMoved(arg.Place.Local, loc, call.Sp)
			}
		}
	}
	if def, ok := mir.TermDef(t); ok {
		f.markOwned(def)
	}
}

// forEachOperand visits the value operands a statement consumes.
func forEachOperand(s mir.Statement, fn func(mir.Operand)) {
	switch s := s.(type) {
	case *mir.Assign:
		for _, op := range mir.RvalueOperands(s.Src) {
			fn(op)
		}
	case *mir.Load:
		fn(s.Src)
	case *mir.Store:
		fn(s.Src)
	}
}

func stmtSpan(s mir.Statement) ast.Span {
	return s.Span()
}
