package dataflow

import (
	"sable/internal/mir"
)

// DomTree is the dominator tree of a function's CFG. Block a dominates
// block b when every path from entry to b passes through a.
type DomTree struct {
	// Idom[b] is the immediate dominator of b. Entry's idom is entry
	// itself; unreachable blocks hold InvalidIdom.
	Idom []mir.BlockID

	// Children[a] lists the blocks immediately dominated by a, in
	// ascending id order.
	Children [][]mir.BlockID

	// pre/post numbering of the dominator tree for O(1) queries.
	pre  []int
	post []int
}

// InvalidIdom marks blocks with no immediate dominator, meaning the
// block is unreachable from entry.
const InvalidIdom = ^mir.BlockID(0)

// ComputeDominators builds the dominator tree with the iterative
// algorithm of Cooper, Harvey and Kennedy, which converges in a couple
// of passes over reverse postorder on real CFGs.
func ComputeDominators(f *mir.Function) *DomTree {
	n := len(f.Blocks)
	rpo := f.ReversePostorder()
	preds := f.Predecessors()

	rpoPos := make([]int, n)
	for i := range rpoPos {
		rpoPos[i] = -1
	}
	for i, id := range rpo {
		rpoPos[id] = i
	}

	idom := make([]mir.BlockID, n)
	for i := range idom {
		idom[i] = InvalidIdom
	}
	idom[mir.Entry] = mir.Entry

	intersect := func(a, b mir.BlockID) mir.BlockID {
		for a != b {
			for rpoPos[a] > rpoPos[b] {
				a = idom[a]
			}
			for rpoPos[b] > rpoPos[a] {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for _, id := range rpo {
			if id == mir.Entry {
				continue
			}
			newIdom := InvalidIdom
			for _, p := range preds[id] {
				if idom[p] == InvalidIdom {
					continue
				}
				if newIdom == InvalidIdom {
					newIdom = p
				} else {
					newIdom = intersect(newIdom, p)
				}
			}
			if newIdom != InvalidIdom && idom[id] != newIdom {
				idom[id] = newIdom
				changed = true
			}
		}
	}

	t := &DomTree{
		Idom:     idom,
		Children: make([][]mir.BlockID, n),
		pre:      make([]int, n),
		post:     make([]int, n),
	}
	for id := range idom {
		b := mir.BlockID(id)
		if b == mir.Entry || idom[b] == InvalidIdom {
			continue
		}
		t.Children[idom[b]] = append(t.Children[idom[b]], b)
	}
	t.number()
	return t
}

// number assigns pre/post intervals by an iterative DFS over the tree.
func (t *DomTree) number() {
	for i := range t.pre {
		t.pre[i] = -1
		t.post[i] = -1
	}
	clock := 0
	type frame struct {
		b    mir.BlockID
		next int
	}
	stack := []frame{{b: mir.Entry}}
	t.pre[mir.Entry] = clock
	clock++
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		kids := t.Children[top.b]
		if top.next < len(kids) {
			child := kids[top.next]
			top.next++
			t.pre[child] = clock
			clock++
			stack = append(stack, frame{b: child})
			continue
		}
		t.post[top.b] = clock
		clock++
		stack = stack[:len(stack)-1]
	}
}

// Dominates reports whether a dominates b. Every block dominates
// itself. Unreachable blocks dominate nothing and are dominated by
// nothing.
func (t *DomTree) Dominates(a, b mir.BlockID) bool {
	if t.pre[a] < 0 || t.pre[b] < 0 {
		return false
	}
	return t.pre[a] <= t.pre[b] && t.post[b] <= t.post[a]
}

// StrictlyDominates reports Dominates(a, b) with a != b.
func (t *DomTree) StrictlyDominates(a, b mir.BlockID) bool {
	return a != b && t.Dominates(a, b)
}
