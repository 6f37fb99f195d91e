package opt

import (
	"sable/internal/dataflow"
	"sable/internal/mir"
)

// Pass is one rewrite over a function. A pass reports whether it
// changed anything and must call facts.Invalidate itself when it
// reshapes the CFG or edits statements the cached analyses cover.
type Pass interface {
	Name() string
	Run(f *mir.Function, facts *dataflow.Facts) bool
}

// DefaultMaxRounds bounds pipeline iteration. The standard passes
// reach their combined fixed point well inside this on real input;
// the cap only guards against a pass pair that keeps toggling.
const DefaultMaxRounds = 4

// Pipeline runs passes in order, repeatedly, until a full round
// changes nothing or MaxRounds is hit.
type Pipeline struct {
	Passes    []Pass
	MaxRounds int
}

// Standard returns the default pipeline: folding and propagation
// first so dead-code and unreachable elimination see their results.
func Standard() *Pipeline {
	return &Pipeline{
		Passes: []Pass{
			ConstFold{},
			ConstProp{},
			LocalCSE{},
			DeadCode{},
			UnreachableBlocks{},
		},
		MaxRounds: DefaultMaxRounds,
	}
}

// Run optimizes one function to a fixed point and returns the number
// of rounds that changed something.
func (p *Pipeline) Run(f *mir.Function) int {
	max := p.MaxRounds
	if max <= 0 {
		max = DefaultMaxRounds
	}
	facts := dataflow.NewFacts(f)
	rounds := 0
	for ; rounds < max; rounds++ {
		changed := false
		for _, pass := range p.Passes {
			if pass.Run(f, facts) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return rounds
}
