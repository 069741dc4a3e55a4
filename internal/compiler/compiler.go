package compiler

import (
	"fmt"
	"io"
	"os"

	"methodsplit/colors"
	"methodsplit/internal/config"
	"methodsplit/internal/context_v2"
	"methodsplit/internal/mir"
	"methodsplit/internal/phase"
	"methodsplit/internal/pipeline"
)

type FORMAT int

const (
	ANSI FORMAT = iota
	PLAIN
)

// Options for an optimizer run
type Options struct {
	// Modules to optimize, processed in this order
	Modules []*mir.Module
	// Settings; nil selects the defaults
	Config *config.Config
	// TOML file read on top of Config, if set
	ConfigFile string
	// Debug output
	Debug bool
	// Output format: ANSI writes diagnostics to Output, PLAIN returns them
	// without escape codes in Result.Output
	LogFormat FORMAT
	// Destination of ANSI diagnostics (default: stderr)
	Output io.Writer
}

// Result of an optimizer run
type Result struct {
	Success   bool
	Output    string
	Generated []string
	Stats     []pipeline.FunctionStats
}

// Compile registers the modules, runs the split pipeline over them and
// returns the result
func Compile(opts *Options) Result {
	cfg := config.DefaultConfig()
	if opts.Config != nil {
		copied := *opts.Config
		cfg = &copied
	}
	if opts.ConfigFile != "" {
		if err := config.Load(opts.ConfigFile, cfg); err != nil {
			return Result{Success: false, Output: fmt.Sprintf("Failed to load config: %v", err)}
		}
	}

	ctx := context_v2.New(cfg, opts.Debug)

	for i, irMod := range opts.Modules {
		if irMod == nil || irMod.Name == "" {
			ctx.ReportError(fmt.Sprintf("module %d has no name", i), nil)
			continue
		}
		module := &context_v2.Module{}
		if err := ctx.AddModule(irMod.Name, module); err != nil {
			ctx.ReportError(err.Error(), &irMod.Location)
			continue
		}
		mir.StoreModule(module, irMod)
	}

	// Registration errors leave the modules that did register untouched
	if !ctx.HasErrors() {
		p := pipeline.New(ctx)
		p.Run()
	}

	result := Result{
		Success:   !ctx.HasErrors() && allReady(ctx),
		Stats:     pipeline.CollectStats(ctx),
		Generated: generated(ctx),
	}

	if opts.LogFormat == PLAIN {
		result.Output = colors.StripANSI(ctx.Diagnostics.EmitAllToString())
		return result
	}

	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	ctx.EmitDiagnostics(w)
	return result
}

func allReady(ctx *context_v2.CompilerContext) bool {
	for _, name := range ctx.GetModuleNames() {
		if ctx.GetModulePhase(name) != phase.PhaseReady {
			return false
		}
	}
	return true
}

func generated(ctx *context_v2.CompilerContext) []string {
	var names []string
	for _, name := range ctx.GetModuleNames() {
		module, _ := ctx.GetModule(name)
		module.Mu.Lock()
		names = append(names, module.Generated...)
		module.Mu.Unlock()
	}
	return names
}
