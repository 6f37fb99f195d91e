package opt

import (
	"sable/internal/dataflow"
	"sable/internal/mir"
)

// UnreachableBlocks deletes blocks no path from entry reaches and
// renumbers the survivors so block ids stay dense arena indices.
type UnreachableBlocks struct{}

func (UnreachableBlocks) Name() string { return "unreachable-blocks" }

func (UnreachableBlocks) Run(f *mir.Function, facts *dataflow.Facts) bool {
	reach := f.Reachable()

	remap := make([]mir.BlockID, len(f.Blocks))
	kept := f.Blocks[:0]
	for _, blk := range f.Blocks {
		if !reach[blk.ID] {
			continue
		}
		remap[blk.ID] = mir.BlockID(len(kept))
		kept = append(kept, blk)
	}
	if len(kept) == len(remap) {
		return false
	}
	f.Blocks = kept

	for _, blk := range f.Blocks {
		blk.ID = remap[blk.ID]
		switch t := blk.Term.(type) {
		case *mir.Goto:
			t.Target = remap[t.Target]
		case *mir.Branch:
			t.True = remap[t.True]
			t.False = remap[t.False]
		case *mir.Switch:
			for i := range t.Cases {
				t.Cases[i].Target = remap[t.Cases[i].Target]
			}
			t.Otherwise = remap[t.Otherwise]
		case *mir.Call:
			t.Target = remap[t.Target]
		}
	}

	facts.Invalidate()
	return true
}
