package dataflow

import (
	"sable/internal/mir"
)

// Facts lazily computes and caches the analyses for one function.
// Passes that edit statements in place may keep using cached facts;
// passes that reshape the CFG must call Invalidate.
type Facts struct {
	fn *mir.Function

	liveness *Liveness
	reach    *ReachingDefs
	doms     *DomTree
	loops    []*Loop
	hasLoops bool
}

func NewFacts(f *mir.Function) *Facts {
	return &Facts{fn: f}
}

func (c *Facts) Function() *mir.Function { return c.fn }

func (c *Facts) Liveness() *Liveness {
	if c.liveness == nil {
		c.liveness = ComputeLiveness(c.fn)
	}
	return c.liveness
}

func (c *Facts) ReachingDefs() *ReachingDefs {
	if c.reach == nil {
		c.reach = ComputeReachingDefs(c.fn)
	}
	return c.reach
}

func (c *Facts) Dominators() *DomTree {
	if c.doms == nil {
		c.doms = ComputeDominators(c.fn)
	}
	return c.doms
}

func (c *Facts) Loops() []*Loop {
	if !c.hasLoops {
		c.loops = FindLoops(c.fn, c.Dominators())
		c.hasLoops = true
	}
	return c.loops
}

// Invalidate drops every cached result. Statement-level edits make
// liveness and reaching defs stale; block-level edits stale the
// dominator tree and loops too, so everything goes.
func (c *Facts) Invalidate() {
	c.liveness = nil
	c.reach = nil
	c.doms = nil
	c.loops = nil
	c.hasLoops = false
}
