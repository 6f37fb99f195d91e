package opt

import (
	"sable/internal/dataflow"
	"sable/internal/mir"
)

// ConstFold evaluates operations whose operands are all constant and
// rewrites constant-condition branches into gotos.
type ConstFold struct{}

func (ConstFold) Name() string { return "const-fold" }

func (ConstFold) Run(f *mir.Function, facts *dataflow.Facts) bool {
	changed := false
	for _, blk := range f.Blocks {
		for si, s := range blk.Stmts {
			a, ok := s.(*mir.Assign)
			if !ok {
				continue
			}
			c, ok := foldRvalue(a.Src)
			if !ok {
				continue
			}
			blk.Stmts[si] = &mir.Load{Dst: a.Dst, Src: mir.ConstOperand(c), Sp: a.Sp}
			changed = true
		}

		switch t := blk.Term.(type) {
		case *mir.Branch:
			if t.Cond.Kind == mir.OperandConst && t.Cond.Const.Kind == mir.ConstBool {
				target := t.False
				if t.Cond.Const.Bool {
					target = t.True
				}
				blk.Term = &mir.Goto{Target: target, Sp: t.Sp}
				changed = true
			}
		case *mir.Switch:
			if t.Disc.Kind == mir.OperandConst && t.Disc.Const.Kind == mir.ConstInt {
				target := t.Otherwise
				for _, c := range t.Cases {
					if c.Value == t.Disc.Const.Int {
						target = c.Target
						break
					}
				}
				blk.Term = &mir.Goto{Target: target, Sp: t.Sp}
				changed = true
			}
		}
	}
	if changed {
		facts.Invalidate()
	}
	return changed
}

func foldRvalue(rv mir.Rvalue) (mir.Constant, bool) {
	switch rv := rv.(type) {
	case *mir.BinaryOp:
		l, lok := rv.L.IsConst()
		r, rok := rv.R.IsConst()
		if !lok || !rok {
			return mir.Constant{}, false
		}
		return foldBinary(rv.Op, l, r)
	case *mir.UnaryOp:
		x, ok := rv.X.IsConst()
		if !ok {
			return mir.Constant{}, false
		}
		return foldUnary(rv.Op, x)
	case *mir.Use:
		if c, ok := rv.X.IsConst(); ok {
			return c, true
		}
	}
	return mir.Constant{}, false
}

func foldBinary(op mir.BinOp, l, r mir.Constant) (mir.Constant, bool) {
	if l.Kind == mir.ConstBool && r.Kind == mir.ConstBool {
		switch op {
		case mir.Eq:
			return mir.BoolConst(l.Bool == r.Bool), true
		case mir.Ne:
			return mir.BoolConst(l.Bool != r.Bool), true
		}
		return mir.Constant{}, false
	}
	if l.Kind != mir.ConstInt || r.Kind != mir.ConstInt {
		return mir.Constant{}, false
	}
	a, b := l.Int, r.Int
	switch op {
	case mir.Add:
		return mir.IntConst(a + b), true
	case mir.Sub:
		return mir.IntConst(a - b), true
	case mir.Mul:
		return mir.IntConst(a * b), true
	case mir.Div:
		// Division faults stay runtime behavior; folding them away
		// would change what the program does.
		if b == 0 || (a == -1<<63 && b == -1) {
			return mir.Constant{}, false
		}
		return mir.IntConst(a / b), true
	case mir.Rem:
		if b == 0 || (a == -1<<63 && b == -1) {
			return mir.Constant{}, false
		}
		return mir.IntConst(a % b), true
	case mir.BitAnd:
		return mir.IntConst(a & b), true
	case mir.BitOr:
		return mir.IntConst(a | b), true
	case mir.BitXor:
		return mir.IntConst(a ^ b), true
	case mir.Shl:
		if b < 0 || b > 63 {
			return mir.Constant{}, false
		}
		return mir.IntConst(a << uint(b)), true
	case mir.Shr:
		if b < 0 || b > 63 {
			return mir.Constant{}, false
		}
		return mir.IntConst(a >> uint(b)), true
	case mir.Eq:
		return mir.BoolConst(a == b), true
	case mir.Ne:
		return mir.BoolConst(a != b), true
	case mir.Lt:
		return mir.BoolConst(a < b), true
	case mir.Le:
		return mir.BoolConst(a <= b), true
	case mir.Gt:
		return mir.BoolConst(a > b), true
	case mir.Ge:
		return mir.BoolConst(a >= b), true
	}
	return mir.Constant{}, false
}

func foldUnary(op mir.UnOp, x mir.Constant) (mir.Constant, bool) {
	switch {
	case op == mir.Neg && x.Kind == mir.ConstInt:
		return mir.IntConst(-x.Int), true
	case op == mir.Not && x.Kind == mir.ConstBool:
		return mir.BoolConst(!x.Bool), true
	}
	return mir.Constant{}, false
}
