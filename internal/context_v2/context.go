// Package context_v2 provides the central state of one optimizer run.
//
// Every IR module handed to the optimizer is registered here under its
// name and progresses through the pipeline phases independently. Results of
// each phase are attached to the module as artifacts so later phases and
// the driver can pick them up without the context knowing their types.
package context_v2

import (
	"fmt"
	"io"
	"sync"

	"methodsplit/internal/config"
	"methodsplit/internal/diagnostics"
	"methodsplit/internal/phase"
	"methodsplit/internal/source"
	"methodsplit/internal/types"
)

// Module is a single IR module with its pipeline state
type Module struct {
	Name     string // Module name, unique within a run
	FilePath string // File the IR was read from, empty for in-memory modules

	// Compilation state
	Phase phase.ModulePhase

	// Artifacts holds per-phase results keyed by the producing package
	Artifacts map[string]any

	// Generated lists the names of functions created by the split phase
	Generated []string

	// Concurrency control
	Mu sync.Mutex
}

// CompilerContext is the central state manager of an optimizer run
type CompilerContext struct {
	// Module registry: name -> Module
	Modules map[string]*Module
	mu      sync.RWMutex // protects Modules and order

	// Registration order, used as processing order
	order []string

	// Types used for synthesized temporaries
	Types *types.Table

	// Diagnostics: centralized error collection
	Diagnostics *diagnostics.DiagnosticBag

	// Configuration
	Config *config.Config

	// Debug mode
	Debug bool
}

// New creates a new context. A nil config selects the defaults.
func New(cfg *config.Config, debug bool) *CompilerContext {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &CompilerContext{
		Modules:     make(map[string]*Module),
		order:       []string{},
		Types:       types.Builtins(),
		Diagnostics: diagnostics.NewDiagnosticBag(),
		Config:      cfg,
		Debug:       debug,
	}
}

// AddModule registers a module in the context. Registering a second module
// under the same name is an error.
func (ctx *CompilerContext) AddModule(name string, module *Module) error {
	if module == nil {
		panic(fmt.Sprintf("cannot add nil module for %q", name))
	}

	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if _, exists := ctx.Modules[name]; exists {
		return fmt.Errorf("module %q is already registered", name)
	}

	module.Name = name
	ctx.Modules[name] = module
	ctx.order = append(ctx.order, name)
	return nil
}

// GetModule retrieves a module by name
func (ctx *CompilerContext) GetModule(name string) (*Module, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	module, exists := ctx.Modules[name]
	return module, exists
}

// HasModule checks if a module exists in the context
func (ctx *CompilerContext) HasModule(name string) bool {
	_, exists := ctx.GetModule(name)
	return exists
}

// GetModulePhase returns the current phase of a module
func (ctx *CompilerContext) GetModulePhase(name string) phase.ModulePhase {
	module, exists := ctx.GetModule(name)
	if !exists {
		return phase.PhaseNotStarted
	}
	module.Mu.Lock()
	defer module.Mu.Unlock()
	return module.Phase
}

// SetModulePhase updates the phase of a module
func (ctx *CompilerContext) SetModulePhase(name string, p phase.ModulePhase) {
	if module, exists := ctx.GetModule(name); exists {
		module.Mu.Lock()
		module.Phase = p
		module.Mu.Unlock()
	}
}

// AdvanceModulePhase advances a module to the next phase with validation
// Returns false if the phase transition is invalid (prerequisites not met)
func (ctx *CompilerContext) AdvanceModulePhase(name string, target phase.ModulePhase) bool {
	if !ctx.CanProcessPhase(name, target) {
		return false
	}
	ctx.SetModulePhase(name, target)
	return true
}

// CanProcessPhase checks if a module is ready for a specific phase
func (ctx *CompilerContext) CanProcessPhase(name string, target phase.ModulePhase) bool {
	prerequisite, exists := phase.PhasePrerequisites[target]
	if !exists || !ctx.HasModule(name) {
		return false
	}
	return ctx.GetModulePhase(name) == prerequisite
}

// HasErrors returns true if any errors have been reported
func (ctx *CompilerContext) HasErrors() bool {
	return ctx.Diagnostics.HasErrors()
}

// ReportError adds an error diagnostic
func (ctx *CompilerContext) ReportError(message string, location *source.Location) {
	diag := diagnostics.NewError(message)
	if !location.IsSynthetic() {
		diag.WithPrimaryLabel(location, "")
	}
	ctx.Diagnostics.Add(diag)
}

// EmitDiagnostics outputs all collected diagnostics
func (ctx *CompilerContext) EmitDiagnostics(w io.Writer) {
	ctx.Diagnostics.EmitAll(w)
}

// ModuleCount returns the number of modules in the context
func (ctx *CompilerContext) ModuleCount() int {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return len(ctx.Modules)
}

// GetModuleNames returns all module names in registration order
func (ctx *CompilerContext) GetModuleNames() []string {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	names := make([]string, len(ctx.order))
	copy(names, ctx.order)
	return names
}
