package pipeline

import (
	"methodsplit/internal/context_v2"
	"methodsplit/internal/diagnostics"
	"methodsplit/internal/mir"
	"methodsplit/internal/optimizer"
	"methodsplit/internal/phase"
)

// runLowerPhase accepts every module that carries an IR module.
func (p *Pipeline) runLowerPhase() {
	p.forEachModule(phase.PhaseLowered, func(module *context_v2.Module, irMod *mir.Module) bool {
		p.log.Trace("Module lowered", "module", module.Name, "functions", len(irMod.AllFunctions()))
		return true
	})
}

// runVerifyPhase dumps the input and checks it with the IR verifier.
func (p *Pipeline) runVerifyPhase() {
	p.forEachModule(phase.PhaseVerified, func(module *context_v2.Module, irMod *mir.Module) bool {
		p.dump(module, irMod, "before")
		if !p.ctx.Config.Driver.Verify {
			return true
		}
		return p.verifyModule(module, irMod, "before")
	})
}

// runSplitPhase splits oversized functions and records what was created.
func (p *Pipeline) runSplitPhase() {
	p.forEachModule(phase.PhaseSplit, func(module *context_v2.Module, irMod *mir.Module) bool {
		created, err := p.opt.SplitModule(irMod)
		if err != nil {
			p.reportSplitError(module.Name, err)
			return false
		}

		names := make([]string, len(created))
		for i, fn := range created {
			names[i] = fn.Name
		}
		module.Mu.Lock()
		module.Generated = names
		module.Mu.Unlock()

		if len(created) > 0 {
			p.log.Info("Module split", "module", module.Name, "created", len(created))
		}
		return true
	})
}

// runRenumberPhase makes block ids dense in layout order for every
// function, including the ones the split phase left untouched.
func (p *Pipeline) runRenumberPhase() {
	p.forEachModule(phase.PhaseRenumbered, func(module *context_v2.Module, irMod *mir.Module) bool {
		ok := true
		for _, fn := range irMod.AllFunctions() {
			if err := mir.Renumber(fn); err != nil {
				p.ctx.Diagnostics.Add(diagnostics.RenumberFailed(module.Name, fn.Name, err))
				ok = false
			}
		}
		return ok
	})
}

// runReadyPhase verifies the output, warns about functions still above
// the threshold and dumps the result.
func (p *Pipeline) runReadyPhase() {
	threshold := p.ctx.Config.Optimizer.FunctionInstructionThreshold
	p.forEachModule(phase.PhaseReady, func(module *context_v2.Module, irMod *mir.Module) bool {
		if p.ctx.Config.Driver.Verify && !p.verifyModule(module, irMod, "after") {
			return false
		}
		for _, fn := range irMod.AllFunctions() {
			size := mir.InstructionCount(fn)
			if size < threshold {
				continue
			}
			if optimizer.IsGenerated(fn.Name) {
				p.ctx.Diagnostics.Add(diagnostics.StillOversized(module.Name, fn.Name, size, threshold))
			} else {
				p.ctx.Diagnostics.Add(diagnostics.NoCandidate(module.Name, fn.Name, size, threshold))
			}
			p.log.Warn("Function still oversized", "module", module.Name, "function", fn.Name,
				"instructions", size, "threshold", threshold)
		}
		p.dump(module, irMod, "after")
		return true
	})
}

// verifyModule runs the verifier on every function and reports each
// rejected one.
func (p *Pipeline) verifyModule(module *context_v2.Module, irMod *mir.Module, stage string) bool {
	ok := true
	for _, fn := range irMod.AllFunctions() {
		if err := mir.Verify(fn); err != nil {
			p.ctx.Diagnostics.Add(diagnostics.InvalidIR(module.Name, fn.Name, stage, err))
			ok = false
		}
	}
	return ok
}
