package dataflow

import (
	"sable/internal/mir"
)

// Direction orients a dataflow problem along or against control flow.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Problem is a monotone dataflow problem over a function's CFG. Run
// iterates its transfer function to a fixed point; termination relies
// on Meet being monotone over a finite-height lattice, which every
// problem in this package satisfies.
type Problem[F any] interface {
	Direction() Direction

	// Boundary is the fact entering the CFG: at the entry block for
	// forward problems, at every exit block for backward ones.
	Boundary() F

	// Top is the optimistic initial fact for all other blocks.
	Top() F

	// Meet combines facts where control-flow edges join. It must not
	// mutate its arguments.
	Meet(a, b F) F

	// Transfer pushes a fact through one block.
	Transfer(blk *mir.BasicBlock, in F) F

	Equal(a, b F) bool
}

// Result holds the per-block fixed-point facts. In is the fact on
// entry to the block, Out the fact on exit, regardless of direction.
type Result[F any] struct {
	In  []F
	Out []F

	// Rounds counts full worklist passes until the fixed point.
	Rounds int
}

// Run solves a dataflow problem with a deterministic worklist:
// reverse postorder for forward problems, postorder for backward
// ones, so most facts settle in few passes.
func Run[F any](f *mir.Function, p Problem[F]) *Result[F] {
	n := len(f.Blocks)
	res := &Result[F]{In: make([]F, n), Out: make([]F, n)}

	var order []mir.BlockID
	if p.Direction() == Forward {
		order = f.ReversePostorder()
	} else {
		order = f.Postorder()
	}
	preds := f.Predecessors()

	for i := range f.Blocks {
		res.In[i] = p.Top()
		res.Out[i] = p.Top()
	}

	pos := make(map[mir.BlockID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	inWork := make([]bool, n)
	work := make([]mir.BlockID, len(order))
	copy(work, order)
	for _, id := range order {
		inWork[id] = true
	}

	for len(work) > 0 {
		res.Rounds++
		var next []mir.BlockID
		for _, id := range work {
			inWork[id] = false
			blk := f.Blocks[id]

			if p.Direction() == Forward {
				in := boundaryOrMeet(p, id == mir.Entry, preds[id], res.Out)
				out := p.Transfer(blk, in)
				res.In[id] = in
				if !p.Equal(out, res.Out[id]) {
					res.Out[id] = out
					for _, s := range blk.Term.Successors() {
						if !inWork[s] {
							inWork[s] = true
							next = append(next, s)
						}
					}
				}
			} else {
				succs := blk.Term.Successors()
				out := boundaryOrMeet(p, len(succs) == 0, succs, res.In)
				in := p.Transfer(blk, out)
				res.Out[id] = out
				if !p.Equal(in, res.In[id]) {
					res.In[id] = in
					for _, pr := range preds[id] {
						if !inWork[pr] {
							inWork[pr] = true
							next = append(next, pr)
						}
					}
				}
			}
		}
		sortByOrder(next, pos)
		work = next
	}
	return res
}

func boundaryOrMeet[F any](p Problem[F], atBoundary bool, edges []mir.BlockID, facts []F) F {
	if atBoundary {
		return p.Boundary()
	}
	acc := p.Top()
	for _, e := range edges {
		acc = p.Meet(acc, facts[e])
	}
	return acc
}

func sortByOrder(ids []mir.BlockID, pos map[mir.BlockID]int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && pos[ids[j]] < pos[ids[j-1]]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
