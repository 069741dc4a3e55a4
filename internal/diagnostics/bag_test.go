package diagnostics

import (
	"strings"
	"sync"
	"testing"

	"methodsplit/colors"
)

func TestNewDiagnosticBag(t *testing.T) {
	bag := NewDiagnosticBag()

	if bag.ErrorCount() != 0 {
		t.Errorf("Expected 0 errors, got %d", bag.ErrorCount())
	}

	if bag.WarningCount() != 0 {
		t.Errorf("Expected 0 warnings, got %d", bag.WarningCount())
	}

	if bag.HasErrors() {
		t.Error("Expected HasErrors() to be false for empty bag")
	}
}

func TestDiagnosticBag_MultipleDiagnostics(t *testing.T) {
	bag := NewDiagnosticBag()

	bag.Add(NewError("error 1"))
	bag.Add(NewWarning("warning 1"))
	bag.Add(NewError("error 2"))
	bag.Add(NewWarning("warning 2"))
	bag.Add(NewInfo("info"))

	if bag.ErrorCount() != 2 {
		t.Errorf("Expected 2 errors, got %d", bag.ErrorCount())
	}

	if bag.WarningCount() != 2 {
		t.Errorf("Expected 2 warnings, got %d", bag.WarningCount())
	}

	if len(bag.Diagnostics()) != 5 {
		t.Errorf("Expected 5 diagnostics, got %d", len(bag.Diagnostics()))
	}

	bag.Clear()
	if bag.HasErrors() || len(bag.Diagnostics()) != 0 {
		t.Error("Expected an empty bag after Clear")
	}
}

func TestDiagnosticBag_DiagnosticsCopy(t *testing.T) {
	bag := NewDiagnosticBag()

	bag.Add(NewError("error 1"))
	diags1 := bag.Diagnostics()
	bag.Add(NewError("error 2"))

	if len(diags1) != 1 {
		t.Errorf("Expected first copy to have 1 diagnostic, got %d", len(diags1))
	}
}

func TestDiagnosticBag_ThreadSafety(t *testing.T) {
	bag := NewDiagnosticBag()

	var wg sync.WaitGroup
	numGoroutines := 10
	diagnosticsPerGoroutine := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < diagnosticsPerGoroutine; j++ {
				if j%2 == 0 {
					bag.Add(NewError("concurrent error"))
				} else {
					bag.Add(NewWarning("concurrent warning"))
				}
			}
		}()
	}

	wg.Wait()

	expected := numGoroutines * diagnosticsPerGoroutine / 2
	if bag.ErrorCount() != expected {
		t.Errorf("Expected %d errors, got %d", expected, bag.ErrorCount())
	}

	if bag.WarningCount() != expected {
		t.Errorf("Expected %d warnings, got %d", expected, bag.WarningCount())
	}
}

func TestDiagnosticBag_Summary(t *testing.T) {
	prev := colors.Enabled()
	colors.SetEnabled(false)
	defer colors.SetEnabled(prev)

	bag := NewDiagnosticBag()
	bag.Add(StillOversized("app", "main", 2000, 1000))
	out := bag.EmitAllToString()
	if !strings.Contains(out, "Optimization succeeded with 1 warning(s)") {
		t.Errorf("Unexpected summary:\n%s", out)
	}

	bag.Add(NewError("broken"))
	out = bag.EmitAllToString()
	if !strings.Contains(out, "Optimization failed with 1 error(s) and 1 warning(s)") {
		t.Errorf("Unexpected summary:\n%s", out)
	}
}
