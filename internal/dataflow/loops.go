package dataflow

import (
	"sort"

	"sable/internal/mir"
)

// Loop is one natural loop: a back edge's target plus every block
// that can reach the edge's source without leaving through the header.
type Loop struct {
	Header mir.BlockID
	Latch  mir.BlockID

	// Blocks is the loop body including header and latch, ascending.
	Blocks []mir.BlockID

	// Depth is 1 for outermost loops and grows inward.
	Depth int
}

func (l *Loop) Contains(b mir.BlockID) bool {
	i := sort.Search(len(l.Blocks), func(i int) bool { return l.Blocks[i] >= b })
	return i < len(l.Blocks) && l.Blocks[i] == b
}

// FindLoops discovers the natural loops of f from the back edges of
// its dominator tree, ordered by header id then latch id. Nesting
// depth is derived from body containment.
func FindLoops(f *mir.Function, doms *DomTree) []*Loop {
	preds := f.Predecessors()

	var loops []*Loop
	for _, blk := range f.Blocks {
		if blk.Term == nil {
			continue
		}
		for _, succ := range blk.Term.Successors() {
			if doms.Dominates(succ, blk.ID) {
				loops = append(loops, collectLoop(succ, blk.ID, preds))
			}
		}
	}
	sort.Slice(loops, func(i, j int) bool {
		if loops[i].Header != loops[j].Header {
			return loops[i].Header < loops[j].Header
		}
		return loops[i].Latch < loops[j].Latch
	})

	for _, l := range loops {
		l.Depth = 1
		for _, outer := range loops {
			if outer != l && outer.Contains(l.Header) && outer.Contains(l.Latch) {
				l.Depth++
			}
		}
	}
	return loops
}

func collectLoop(header, latch mir.BlockID, preds [][]mir.BlockID) *Loop {
	in := map[mir.BlockID]bool{header: true}
	stack := []mir.BlockID{latch}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if in[b] {
			continue
		}
		in[b] = true
		stack = append(stack, preds[b]...)
	}

	blocks := make([]mir.BlockID, 0, len(in))
	for b := range in {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })
	return &Loop{Header: header, Latch: latch, Blocks: blocks}
}
