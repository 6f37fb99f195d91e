package opt

import (
	"sable/internal/dataflow"
	"sable/internal/mir"
)

// ConstProp replaces a copy of a local with the constant it must
// hold: every definition reaching the use loads the same constant.
type ConstProp struct{}

func (ConstProp) Name() string { return "const-prop" }

func (ConstProp) Run(f *mir.Function, facts *dataflow.Facts) bool {
	rd := facts.ReachingDefs()
	changed := false

	rewrite := func(loc mir.Location) func(*mir.Operand) {
		return func(op *mir.Operand) {
			if op.Kind != mir.OperandCopy || !op.Place.IsLocal() {
				return
			}
			c, ok := uniqueConst(f, rd, op.Place.Local, loc)
			if !ok {
				return
			}
			*op = mir.ConstOperand(c)
			changed = true
		}
	}

	for _, blk := range f.Blocks {
		for si, s := range blk.Stmts {
			rewriteStmtOperands(s, rewrite(mir.Location{Block: blk.ID, Stmt: si}))
		}
		rewriteTermOperands(blk.Term, rewrite(mir.Location{Block: blk.ID, Stmt: len(blk.Stmts)}))
	}

	if changed {
		facts.Invalidate()
	}
	return changed
}

// uniqueConst reports the single constant value local must hold at
// loc, if all reaching definitions agree on one.
func uniqueConst(f *mir.Function, rd *dataflow.ReachingDefs, local mir.Local, loc mir.Location) (mir.Constant, bool) {
	defs := rd.DefsAt(local, loc)
	if len(defs) == 0 {
		return mir.Constant{}, false
	}
	var c mir.Constant
	for i, d := range defs {
		blk := f.Block(d.Loc.Block)
		if d.Loc.Stmt >= len(blk.Stmts) {
			return mir.Constant{}, false
		}
		load, ok := blk.Stmts[d.Loc.Stmt].(*mir.Load)
		if !ok {
			return mir.Constant{}, false
		}
		dc, ok := load.Src.IsConst()
		if !ok {
			return mir.Constant{}, false
		}
		if i == 0 {
			c = dc
		} else if dc != c {
			return mir.Constant{}, false
		}
	}
	return c, true
}

// rewriteStmtOperands passes every value operand of s to fn by
// pointer so fn may replace it in place.
func rewriteStmtOperands(s mir.Statement, fn func(*mir.Operand)) {
	switch s := s.(type) {
	case *mir.Assign:
		rewriteRvalueOperands(s.Src, fn)
	case *mir.Load:
		fn(&s.Src)
	case *mir.Store:
		fn(&s.Src)
	}
}

func rewriteRvalueOperands(rv mir.Rvalue, fn func(*mir.Operand)) {
	switch rv := rv.(type) {
	case *mir.Use:
		fn(&rv.X)
	case *mir.BinaryOp:
		fn(&rv.L)
		fn(&rv.R)
	case *mir.UnaryOp:
		fn(&rv.X)
	case *mir.Cast:
		fn(&rv.X)
	case *mir.Aggregate:
		for i := range rv.Elems {
			fn(&rv.Elems[i])
		}
	}
}

func rewriteTermOperands(t mir.Terminator, fn func(*mir.Operand)) {
	switch t := t.(type) {
	case *mir.Branch:
		fn(&t.Cond)
	case *mir.Switch:
		fn(&t.Disc)
	case *mir.Call:
		for i := range t.Args {
			fn(&t.Args[i])
		}
	}
}
