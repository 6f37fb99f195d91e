package pipeline

import (
	"context"
	"runtime"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"sable/internal/ast"
	"sable/internal/borrow"
	"sable/internal/dataflow"
	"sable/internal/lower"
	"sable/internal/mir"
	"sable/internal/opt"
	"sable/internal/types"
)

// Result is the outcome for one function, in declaration order.
type Result struct {
	Name string

	// MIR is the lowered (and, on success, optimized) function. Nil
	// when lowering itself failed.
	MIR *mir.Function

	// Diags holds the borrow-check failures, ordered by program point.
	Diags []*borrow.Diagnostic

	// Err is an internal fault: malformed input reached lowering or
	// validation. Distinct from user-facing Diags.
	Err error

	// OptRounds counts optimizer rounds that changed the function.
	OptRounds int
}

// Output is the outcome of a whole-module run.
type Output struct {
	Results []Result
}

// Failed reports whether any function produced diagnostics or an
// internal error.
func (o *Output) Failed() bool {
	for _, r := range o.Results {
		if len(r.Diags) > 0 || r.Err != nil {
			return true
		}
	}
	return false
}

// Diagnostics flattens per-function diagnostics in declaration order.
// Within a function they are already ordered by program point.
func (o *Output) Diagnostics() []*borrow.Diagnostic {
	var out []*borrow.Diagnostic
	for _, r := range o.Results {
		out = append(out, r.Diags...)
	}
	return out
}

// Driver runs the middle end over a module: lower each function to
// MIR, compute its facts, borrow-check it, and optimize the ones that
// check clean. Functions are independent, so they run on a bounded
// worker pool.
type Driver struct {
	cfg *Config
	log commonlog.Logger
}

func New(cfg *Config) *Driver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Driver{
		cfg: cfg,
		log: commonlog.GetLogger("sable.pipeline"),
	}
}

// RunModule processes every function of m. The returned error is only
// for cancellation; per-function faults land in the Output.
func (d *Driver) RunModule(ctx context.Context, m *ast.Module) (*Output, error) {
	reg := m.Registry()
	out := &Output{Results: make([]Result, len(m.Functions))}

	jobs := d.cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	d.log.Infof("checking module %s: %d functions, %d workers, %s mode",
		m.Name, len(m.Functions), jobs, d.cfg.Mode())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, fn := range m.Functions {
		i, fn := i, fn
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out.Results[i] = d.runFunction(fn, reg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Driver) runFunction(fn *ast.Function, reg *types.Registry) Result {
	res := Result{Name: fn.Name}

	f, err := lower.Function(fn, reg)
	if err != nil {
		d.log.Errorf("lowering %s failed: %s", fn.Name, err)
		res.Err = err
		return res
	}
	res.MIR = f

	// Warm the facts the checker shares; the checker recomputes its
	// own liveness, the dominator tree stays useful for debugging.
	facts := dataflow.NewFacts(f)
	facts.Dominators()
	d.log.Debugf("%s: %d blocks, %d statements, %d loops",
		fn.Name, len(f.Blocks), f.StatementCount(), len(facts.Loops()))

	res.Diags = borrow.Check(f, d.cfg.Mode())
	if len(res.Diags) > 0 {
		d.log.Infof("%s: %d borrow diagnostics", fn.Name, len(res.Diags))
		return res
	}

	if d.cfg.Opt.Enabled {
		p := opt.Standard()
		p.MaxRounds = d.cfg.Opt.MaxRounds
		res.OptRounds = p.Run(f)
		d.log.Debugf("%s: optimized in %d rounds", fn.Name, res.OptRounds)
	}
	return res
}
