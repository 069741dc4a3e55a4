// Package optimizer splits functions that exceed the backend size limit
// into smaller functions connected by calls.
//
// Candidate ranges end at a list or record constructor and start at the
// definition of its size or type descriptor operand. Each accepted range is
// moved into a generated function and replaced by a call. A generated
// function that is still too large and offers no candidate is split into
// fixed-size chunks that stage the aggregate's entries in a runtime
// container.
package optimizer

import (
	"golang.org/x/sync/errgroup"

	"methodsplit/internal/config"
	"methodsplit/internal/log"
	"methodsplit/internal/mir"
	"methodsplit/internal/types"
)

// Optimizer runs the function-size pass.
type Optimizer struct {
	cfg     config.Optimizer
	tbl     *types.Table
	log     log.Logger
	workers int
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger. The root logger is used by default.
func WithLogger(l log.Logger) Option {
	return func(o *Optimizer) { o.log = l }
}

// WithWorkers bounds the number of functions scanned concurrently. Zero
// leaves it unbounded.
func WithWorkers(n int) Option {
	return func(o *Optimizer) { o.workers = n }
}

// New creates an optimizer. tbl supplies the types of synthesized
// temporaries and return values.
func New(cfg config.Optimizer, tbl *types.Table, opts ...Option) *Optimizer {
	o := &Optimizer{cfg: cfg, tbl: tbl, log: log.Root()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// pass is one invocation over a module. It owns the name counters.
type pass struct {
	cfg   config.Optimizer
	tbl   *types.Table
	log   log.Logger
	namer *Namer
}

func (o *Optimizer) newPass(mod *mir.Module) *pass {
	return &pass{cfg: o.cfg, tbl: o.tbl, log: o.log, namer: NewNamer(mod)}
}

// SplitModule splits every function and attached function of mod whose
// instruction count reaches the threshold. Generated functions are appended
// to mod.Functions and returned in creation order.
//
// Functions are scanned concurrently; rewriting happens in declaration
// order so generated names do not depend on scheduling.
func (o *Optimizer) SplitModule(mod *mir.Module) ([]*mir.Function, error) {
	p := o.newPass(mod)
	fns := mod.AllFunctions()
	plans := make([][]*Split, len(fns))
	scanned := make([]bool, len(fns))

	var g errgroup.Group
	if o.workers > 0 {
		g.SetLimit(o.workers)
	}
	for i, fn := range fns {
		if mir.InstructionCount(fn) < o.cfg.FunctionInstructionThreshold {
			continue
		}
		i, fn := i, fn
		scanned[i] = true
		g.Go(func() error {
			plans[i] = FindSplits(fn, o.cfg, o.log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var created []*mir.Function
	for i, fn := range fns {
		if !scanned[i] {
			continue
		}
		out, err := p.split(fn, plans[i])
		if err != nil {
			return nil, err
		}
		created = append(created, out...)
	}
	mod.Functions = append(mod.Functions, created...)
	return created, nil
}

// SplitFunction splits fn, which belongs to mod, regardless of its size.
// The generated functions are returned but not added to mod.
func (o *Optimizer) SplitFunction(mod *mir.Module, fn *mir.Function) ([]*mir.Function, error) {
	p := o.newPass(mod)
	return p.split(fn, FindSplits(fn, o.cfg, o.log))
}

// split materializes splits in fn and recursively splits the generated
// functions flagged for it.
func (p *pass) split(fn *mir.Function, splits []*Split) ([]*mir.Function, error) {
	if len(splits) == 0 {
		if IsGenerated(fn.Name) && mir.InstructionCount(fn) >= p.cfg.FunctionInstructionThreshold {
			return p.periodic(fn)
		}
		p.log.Trace("No split candidate", "function", fn.Name)
		return nil, nil
	}

	rw := newRewriter(fn, p.tbl)
	exts, err := rw.extractAll(splits)
	if err != nil {
		return nil, err
	}

	var created []*mir.Function
	for _, ext := range exts {
		name := p.namer.Func()
		ext.child.Name = name
		ext.call.Callee = name
		for _, t := range ext.temps {
			t.Name = p.namer.Temp()
		}
		if err := finalize(ext.child); err != nil {
			return nil, err
		}
		p.log.Debug("Split function created", "name", name, "parent", fn.Name,
			"blocks", len(ext.child.Blocks), "instructions", mir.InstructionCount(ext.child),
			"params", len(ext.child.Params))
		created = append(created, ext.child)

		if ext.split.SplitFurther {
			more, err := p.split(ext.child, FindSplits(ext.child, p.cfg, p.log))
			if err != nil {
				return nil, err
			}
			created = append(created, more...)
		}
	}
	if err := finalize(fn); err != nil {
		return nil, err
	}
	return created, nil
}
