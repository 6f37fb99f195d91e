package mir

// Graph helpers over the block arena. All of these treat the CFG as
// edges between integer ids; none of them allocate per-block objects.

// Predecessors returns, for each block id, the ids of blocks with an
// edge into it.
func (f *Function) Predecessors() [][]BlockID {
	preds := make([][]BlockID, len(f.Blocks))
	for _, b := range f.Blocks {
		if b.Term == nil {
			continue
		}
		for _, succ := range b.Term.Successors() {
			preds[succ] = append(preds[succ], b.ID)
		}
	}
	return preds
}

// Postorder returns reachable block ids in depth-first postorder
// starting from entry. Successor order is the terminator's edge order,
// so the result is deterministic.
func (f *Function) Postorder() []BlockID {
	visited := make([]bool, len(f.Blocks))
	order := make([]BlockID, 0, len(f.Blocks))

	var visit func(id BlockID)
	visit = func(id BlockID) {
		visited[id] = true
		if term := f.Blocks[id].Term; term != nil {
			for _, succ := range term.Successors() {
				if !visited[succ] {
					visit(succ)
				}
			}
		}
		order = append(order, id)
	}

	if len(f.Blocks) > 0 {
		visit(Entry)
	}
	return order
}

// ReversePostorder returns reachable block ids in reverse postorder,
// the canonical iteration order for forward dataflow.
func (f *Function) ReversePostorder() []BlockID {
	post := f.Postorder()
	rpo := make([]BlockID, len(post))
	for i, id := range post {
		rpo[len(post)-1-i] = id
	}
	return rpo
}

// Reachable returns the set of block ids reachable from entry.
func (f *Function) Reachable() []bool {
	reachable := make([]bool, len(f.Blocks))
	for _, id := range f.Postorder() {
		reachable[id] = true
	}
	return reachable
}

// StatementCount returns the total number of statements across all
// blocks, terminator excluded.
func (f *Function) StatementCount() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Stmts)
	}
	return n
}
