package diagnostics

import (
	"errors"
	"strings"
	"testing"

	"methodsplit/colors"
	"methodsplit/internal/source"
)

func loc(line, col int) *source.Location {
	l := source.NewLocation("big.lit", source.Position{Line: line, Column: col}, source.Position{Line: line, Column: col + 4})
	return &l
}

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		expected string
	}{
		{Error, "error"},
		{Warning, "warning"},
		{Info, "info"},
		{Hint, "hint"},
		{Severity(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.severity.String(); got != tt.expected {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.severity, got, tt.expected)
		}
	}
}

func TestNewError(t *testing.T) {
	diag := NewError("test error message")

	if diag.Severity != Error {
		t.Errorf("Expected severity Error, got %v", diag.Severity)
	}

	if diag.Message != "test error message" {
		t.Errorf("Expected message 'test error message', got %q", diag.Message)
	}

	if diag.Labels == nil {
		t.Error("Labels should be initialized, not nil")
	}

	if diag.Notes == nil {
		t.Error("Notes should be initialized, not nil")
	}
}

func TestDiagnostic_In(t *testing.T) {
	diag := NewWarning("too big").In("app", "$split$method$_3")

	if diag.Module != "app" || diag.Function != "$split$method$_3" {
		t.Errorf("Expected app::$split$method$_3, got %s::%s", diag.Module, diag.Function)
	}
}

func TestDiagnostic_Labels(t *testing.T) {
	diag := NewError("type mismatch").
		WithPrimaryLabel(loc(1, 5), "used here").
		WithSecondaryLabel(loc(5, 1), "defined here").
		WithPrimaryLabel(loc(9, 1), "ignored")

	if len(diag.Labels) != 2 {
		t.Fatalf("Expected 2 labels, got %d", len(diag.Labels))
	}

	if diag.Labels[0].Style != Primary {
		t.Error("First label should be Primary")
	}

	if diag.Labels[1].Style != Secondary {
		t.Error("Second label should be Secondary")
	}

	if diag.Labels[1].Location.Start.Line != 5 {
		t.Errorf("Expected secondary label on line 5, got %d", diag.Labels[1].Location.Start.Line)
	}
}

func TestDiagnostic_SecondaryWithoutPrimary_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when adding secondary label without primary")
		}
	}()

	NewError("test").WithSecondaryLabel(loc(1, 1), "invalid")
}

func TestDiagnostic_BuilderPattern(t *testing.T) {
	diag := NewError("cannot split").
		WithCode(ErrInternal).
		WithNote("first").
		WithNote("second").
		WithHelp("report it")

	if diag.Code != ErrInternal {
		t.Errorf("Expected code %q, got %q", ErrInternal, diag.Code)
	}

	if len(diag.Notes) != 2 {
		t.Errorf("Expected 2 notes, got %d", len(diag.Notes))
	}

	if diag.Help != "report it" {
		t.Errorf("Expected help message to be set, got %q", diag.Help)
	}
}

func TestBuilders(t *testing.T) {
	ice := InternalError("app", "main", nil, errors.New("temp %3 owned twice"))
	if ice.Severity != Error || ice.Code != ErrInternal {
		t.Errorf("Unexpected internal error diagnostic: %+v", ice)
	}
	if len(ice.Labels) != 0 {
		t.Errorf("Synthetic location should not produce a label, got %d", len(ice.Labels))
	}

	withLoc := InternalError("app", "main", loc(3, 2), errors.New("x"))
	if len(withLoc.Labels) != 1 {
		t.Errorf("Expected a primary label, got %d", len(withLoc.Labels))
	}

	warn := StillOversized("app", "main", 1200, 1000)
	if warn.Severity != Warning || warn.Code != WarnStillOversized {
		t.Errorf("Unexpected oversize diagnostic: %+v", warn)
	}
	if !strings.Contains(warn.Message, "1200") {
		t.Errorf("Expected size in message, got %q", warn.Message)
	}

	none := NoCandidate("app", "main", 1500, 1000)
	if none.Severity != Warning || none.Code != WarnNoCandidate {
		t.Errorf("Unexpected no-candidate diagnostic: %+v", none)
	}
	if len(none.Notes) != 1 {
		t.Errorf("Expected one note, got %d", len(none.Notes))
	}
}

func TestEmitter(t *testing.T) {
	prev := colors.Enabled()
	colors.SetEnabled(false)
	defer colors.SetEnabled(prev)

	var sb strings.Builder
	NewEmitter(&sb).Emit(InternalError("app", "main", loc(2, 7), errors.New("boom")))
	out := sb.String()

	for _, want := range []string{
		"error[O0001]: internal optimizer error: boom",
		"--> app::main",
		"^ big.lit:2:7: while splitting this instruction",
		"= help: this is a bug",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}
