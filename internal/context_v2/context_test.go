package context_v2

import (
	"strings"
	"sync"
	"testing"

	"methodsplit/internal/config"
	"methodsplit/internal/phase"
)

func TestNewContext(t *testing.T) {
	ctx := New(nil, false)

	if ctx == nil {
		t.Fatal("Expected non-nil context")
	}

	if ctx.Config.Optimizer.FunctionInstructionThreshold != config.Defaults.Optimizer.FunctionInstructionThreshold {
		t.Errorf("Expected default threshold, got %d", ctx.Config.Optimizer.FunctionInstructionThreshold)
	}

	if ctx.Types == nil || ctx.Types.Error == nil {
		t.Fatal("Expected type table to be initialized")
	}

	if ctx.Diagnostics == nil {
		t.Fatal("Expected diagnostic bag to be initialized")
	}
}

func TestAddModule(t *testing.T) {
	ctx := New(nil, false)

	module := &Module{FilePath: "/test/module.ir"}
	if err := ctx.AddModule("test", module); err != nil {
		t.Fatalf("Expected module to be registered, got %v", err)
	}

	if !ctx.HasModule("test") {
		t.Error("Expected module to be registered")
	}

	retrieved, ok := ctx.GetModule("test")
	if !ok {
		t.Fatal("Expected to retrieve module")
	}

	if retrieved.Name != "test" {
		t.Errorf("Expected name 'test', got '%s'", retrieved.Name)
	}

	if retrieved.Phase != phase.PhaseNotStarted {
		t.Errorf("Expected phase PhaseNotStarted, got %v", retrieved.Phase)
	}
}

func TestAddModuleRejectsDuplicate(t *testing.T) {
	ctx := New(nil, false)

	if err := ctx.AddModule("dup", &Module{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ctx.AddModule("dup", &Module{})
	if err == nil {
		t.Fatal("Expected error for duplicate module")
	}
	if !strings.Contains(err.Error(), "already registered") {
		t.Errorf("Expected 'already registered' in error message, got: %v", err)
	}
	if ctx.ModuleCount() != 1 {
		t.Errorf("Expected 1 module, got %d", ctx.ModuleCount())
	}
}

func TestModulePhaseTracking(t *testing.T) {
	ctx := New(nil, false)
	ctx.AddModule("m", &Module{})

	phases := []phase.ModulePhase{
		phase.PhaseNotStarted,
		phase.PhaseLowered,
		phase.PhaseVerified,
		phase.PhaseSplit,
		phase.PhaseRenumbered,
		phase.PhaseReady,
	}

	for i, p := range phases {
		if current := ctx.GetModulePhase("m"); current != p {
			t.Errorf("Expected phase %v, got %v", p, current)
		}

		if i < len(phases)-1 {
			next := phases[i+1]
			if !ctx.CanProcessPhase("m", next) {
				t.Errorf("Expected to be able to process next phase %v", next)
			}
			if !ctx.AdvanceModulePhase("m", next) {
				t.Errorf("Expected to advance to %v", next)
			}
		}
	}
}

func TestAdvanceModulePhaseRejectsSkips(t *testing.T) {
	ctx := New(nil, false)
	ctx.AddModule("m", &Module{})

	if ctx.AdvanceModulePhase("m", phase.PhaseSplit) {
		t.Error("Expected skipping Lowered and Verified to fail")
	}
	if ctx.GetModulePhase("m") != phase.PhaseNotStarted {
		t.Errorf("Expected phase to stay NotStarted, got %v", ctx.GetModulePhase("m"))
	}
	if ctx.AdvanceModulePhase("missing", phase.PhaseLowered) {
		t.Error("Expected unknown module not to advance")
	}
}

func TestGetModuleNamesKeepsRegistrationOrder(t *testing.T) {
	ctx := New(nil, false)
	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		ctx.AddModule(name, &Module{})
	}

	got := ctx.GetModuleNames()
	if strings.Join(got, ",") != strings.Join(names, ",") {
		t.Errorf("Expected %v, got %v", names, got)
	}

	// The returned slice is a copy.
	got[0] = "changed"
	if ctx.GetModuleNames()[0] != "zeta" {
		t.Error("Expected GetModuleNames to return a copy")
	}
}

func TestReportError(t *testing.T) {
	ctx := New(nil, false)
	if ctx.HasErrors() {
		t.Fatal("Expected no errors on a fresh context")
	}

	ctx.ReportError("boom", nil)

	if !ctx.HasErrors() {
		t.Fatal("Expected error to be recorded")
	}
	diags := ctx.Diagnostics.Diagnostics()
	if len(diags) != 1 || diags[0].Message != "boom" {
		t.Errorf("Unexpected diagnostics: %+v", diags)
	}
	if len(diags[0].Labels) != 0 {
		t.Errorf("Expected no label without a location, got %d", len(diags[0].Labels))
	}
}

func TestConcurrentPhaseUpdates(t *testing.T) {
	ctx := New(nil, false)
	for _, name := range []string{"a", "b", "c", "d"} {
		ctx.AddModule(name, &Module{})
	}

	var wg sync.WaitGroup
	for _, name := range ctx.GetModuleNames() {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.AdvanceModulePhase(name, phase.PhaseLowered)
			ctx.AdvanceModulePhase(name, phase.PhaseVerified)
		}()
	}
	wg.Wait()

	for _, name := range ctx.GetModuleNames() {
		if ctx.GetModulePhase(name) != phase.PhaseVerified {
			t.Errorf("Expected %s at PhaseVerified, got %v", name, ctx.GetModulePhase(name))
		}
	}
}

func TestModulePhaseString(t *testing.T) {
	tests := []struct {
		phase phase.ModulePhase
		want  string
	}{
		{phase.PhaseNotStarted, "NotStarted"},
		{phase.PhaseLowered, "Lowered"},
		{phase.PhaseVerified, "Verified"},
		{phase.PhaseSplit, "Split"},
		{phase.PhaseRenumbered, "Renumbered"},
		{phase.PhaseReady, "Ready"},
		{phase.ModulePhase(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("ModulePhase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
