package opt

import (
	"sable/internal/dataflow"
	"sable/internal/mir"
)

// DeadCode removes statements that define a local nothing reads. Only
// pure defining statements go; drops and borrow ends carry semantics
// of their own and stay. A drop counts as a use of its place, so the
// pass never strips the construction of a value that still gets
// dropped.
type DeadCode struct{}

func (DeadCode) Name() string { return "dead-code" }

func (DeadCode) Run(f *mir.Function, facts *dataflow.Facts) bool {
	changed := false
	for {
		lv := facts.Liveness()
		removed := false
		for _, blk := range f.Blocks {
			points := lv.BlockPoints(blk.ID)
			kept := blk.Stmts[:0]
			for si, s := range blk.Stmts {
				if removableStmt(s, points[si+1]) {
					removed = true
					continue
				}
				kept = append(kept, s)
			}
			blk.Stmts = kept
		}
		if !removed {
			break
		}
		changed = true
		facts.Invalidate()
	}
	return changed
}

// removableStmt reports whether s is pure and its result is dead.
func removableStmt(s mir.Statement, liveAfter *dataflow.BitSet) bool {
	if _, ok := s.(*mir.Nop); ok {
		return true
	}
	switch s.(type) {
	case *mir.Assign, *mir.Load, *mir.Borrow:
	case *mir.Store:
		// Only a full overwrite of a dead local; projected stores
		// mutate a live base and StmtDef rejects them below.
	default:
		return false
	}
	def, ok := mir.StmtDef(s)
	return ok && !liveAfter.Has(int(def))
}
