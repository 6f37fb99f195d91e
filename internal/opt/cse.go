package opt

import (
	"fmt"
	"strings"

	"sable/internal/dataflow"
	"sable/internal/mir"
	"sable/internal/types"
)

// LocalCSE reuses the result of an identical pure computation earlier
// in the same block. It only rewrites Copy-class destinations, since
// replaying a Move-class value would duplicate ownership.
type LocalCSE struct{}

func (LocalCSE) Name() string { return "local-cse" }

type cseEntry struct {
	key  string
	deps []mir.Local
	val  mir.Local
}

func (LocalCSE) Run(f *mir.Function, facts *dataflow.Facts) bool {
	changed := false
	for _, blk := range f.Blocks {
		var avail []cseEntry
		for si, s := range blk.Stmts {
			var pending *cseEntry
			if a, ok := s.(*mir.Assign); ok && a.Dst.IsLocal() {
				if key, deps, ok := rvalueKey(a.Src); ok &&
					f.Local(a.Dst.Local).Class == types.ClassCopy {
					if prev, hit := lookup(avail, key); hit {
						blk.Stmts[si] = &mir.Load{
							Dst: a.Dst,
							Src: mir.CopyOperand(mir.PlaceOf(prev)),
							Sp:  a.Sp,
						}
						changed = true
					} else {
						pending = &cseEntry{key: key, deps: deps, val: a.Dst.Local}
					}
				}
			}
			if def, ok := mir.StmtDef(blk.Stmts[si]); ok {
				avail = dropClobbered(avail, def)
				if pending != nil && contains(pending.deps, def) {
					// Self-referential, the operand value is gone.
					pending = nil
				}
			}
			if pending != nil {
				avail = append(avail, *pending)
			}
		}
	}
	if changed {
		facts.Invalidate()
	}
	return changed
}

func lookup(avail []cseEntry, key string) (mir.Local, bool) {
	for _, e := range avail {
		if e.key == key {
			return e.val, true
		}
	}
	return 0, false
}

func dropClobbered(avail []cseEntry, def mir.Local) []cseEntry {
	kept := avail[:0]
	for _, e := range avail {
		if e.val == def || contains(e.deps, def) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func contains(ls []mir.Local, l mir.Local) bool {
	for _, x := range ls {
		if x == l {
			return true
		}
	}
	return false
}

// rvalueKey builds a structural key for a pure computation whose
// operands are constants or plain copies. Anything else, moves
// included, is not a CSE candidate.
func rvalueKey(rv mir.Rvalue) (string, []mir.Local, bool) {
	var b strings.Builder
	var deps []mir.Local

	operand := func(op mir.Operand) bool {
		switch op.Kind {
		case mir.OperandConst:
			fmt.Fprintf(&b, "c(%s)", op.Const)
		case mir.OperandCopy:
			if !op.Place.IsLocal() {
				return false
			}
			fmt.Fprintf(&b, "l(%d)", op.Place.Local)
			deps = append(deps, op.Place.Local)
		default:
			return false
		}
		return true
	}

	switch rv := rv.(type) {
	case *mir.BinaryOp:
		fmt.Fprintf(&b, "bin:%s:", rv.Op)
		if !operand(rv.L) || !operand(rv.R) {
			return "", nil, false
		}
	case *mir.UnaryOp:
		fmt.Fprintf(&b, "un:%s:", rv.Op)
		if !operand(rv.X) {
			return "", nil, false
		}
	case *mir.Cast:
		fmt.Fprintf(&b, "cast:%s:", rv.To)
		if !operand(rv.X) {
			return "", nil, false
		}
	default:
		return "", nil, false
	}
	return b.String(), deps, true
}
