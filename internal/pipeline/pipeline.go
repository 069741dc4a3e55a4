package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"methodsplit/colors"
	"methodsplit/internal/context_v2"
	"methodsplit/internal/diagnostics"
	"methodsplit/internal/log"
	"methodsplit/internal/mir"
	"methodsplit/internal/optimizer"
	"methodsplit/internal/phase"
)

// Pipeline drives every registered module through the optimizer phases
type Pipeline struct {
	ctx *context_v2.CompilerContext
	opt *optimizer.Optimizer
	log log.Logger
}

// New creates a new pipeline over the modules registered in ctx
func New(ctx *context_v2.CompilerContext) *Pipeline {
	logger := log.Root()
	return &Pipeline{
		ctx: ctx,
		opt: optimizer.New(ctx.Config.Optimizer, ctx.Types,
			optimizer.WithLogger(logger),
			optimizer.WithWorkers(ctx.Config.Driver.Workers)),
		log: logger,
	}
}

// Run executes the full pipeline. A module that fails a phase stays at its
// last good phase and is skipped by the phases after it; the failure is
// reported to the diagnostic bag.
func (p *Pipeline) Run() error {
	if err := p.ctx.Config.Validate(); err != nil {
		p.ctx.Diagnostics.Add(diagnostics.NewError(err.Error()).WithCode(diagnostics.ErrInvalidConfig))
		return fmt.Errorf("invalid configuration: %w", err)
	}

	steps := []struct {
		name string
		run  func()
	}{
		{"Lower", p.runLowerPhase},
		{"Verify", p.runVerifyPhase},
		{"Split", p.runSplitPhase},
		{"Renumber", p.runRenumberPhase},
		{"Ready", p.runReadyPhase},
	}
	for i, step := range steps {
		if p.ctx.Debug {
			colors.CYAN.Printf("\n[Phase %d] %s\n", i+1, step.name)
		}
		step.run()
	}

	if p.ctx.HasErrors() {
		return fmt.Errorf("optimization failed with errors")
	}

	if p.ctx.Debug {
		colors.GREEN.Printf("\n✓ Optimization successful! (%d modules)\n", p.ctx.ModuleCount())
	}
	return nil
}

// forEachModule runs step on every module ready for target and advances
// the modules step succeeds on.
func (p *Pipeline) forEachModule(target phase.ModulePhase, step func(*context_v2.Module, *mir.Module) bool) {
	for _, name := range p.ctx.GetModuleNames() {
		if !p.ctx.CanProcessPhase(name, target) {
			continue
		}

		module, exists := p.ctx.GetModule(name)
		if !exists {
			continue
		}

		irMod := mir.ModuleFromModule(module)
		if irMod == nil {
			p.ctx.ReportError(fmt.Sprintf("IR module missing for %s during %s", name, target), nil)
			continue
		}

		if !step(module, irMod) {
			if p.ctx.Debug {
				colors.RED.Printf("  ✗ %s\n", name)
			}
			continue
		}

		if !p.ctx.AdvanceModulePhase(name, target) {
			p.ctx.ReportError(fmt.Sprintf("cannot advance module %s to Phase%s", name, target), nil)
			continue
		}

		if p.ctx.Debug {
			colors.PURPLE.Printf("  ✓ %s\n", name)
		}
	}
}

// reportSplitError turns an optimizer failure into a diagnostic.
func (p *Pipeline) reportSplitError(module string, err error) {
	if ie, ok := optimizer.AsInternal(err); ok {
		p.ctx.Diagnostics.Add(diagnostics.InternalError(module, ie.Function, ie.Location, err))
		p.log.Error("Internal optimizer error", "module", module, "function", ie.Function, "err", err)
		p.log.Debug("Internal optimizer error trace", "trace", fmt.Sprintf("%+v", err))
		return
	}
	p.ctx.Diagnostics.Add(diagnostics.InternalError(module, "", nil, err))
	p.log.Error("Optimizer failed", "module", module, "err", err)
}

// dump writes irMod to <DumpDir>/<module>.<stage>.ir when IR dumps are on.
func (p *Pipeline) dump(module *context_v2.Module, irMod *mir.Module, stage string) {
	drv := p.ctx.Config.Driver
	if !drv.DumpIR {
		return
	}

	path := filepath.Join(drv.DumpDir, dumpFileName(module.Name, stage))
	if err := os.MkdirAll(drv.DumpDir, 0755); err != nil {
		p.ctx.Diagnostics.Add(diagnostics.DumpFailed(module.Name, path, err))
		return
	}
	if err := mir.WriteModuleFile(irMod, path); err != nil {
		p.ctx.Diagnostics.Add(diagnostics.DumpFailed(module.Name, path, err))
		return
	}
	p.log.Debug("Wrote IR dump", "module", module.Name, "stage", stage, "path", path)
}

// dumpFileName flattens module names containing path separators.
func dumpFileName(module, stage string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(module)
	return fmt.Sprintf("%s.%s.ir", name, stage)
}
