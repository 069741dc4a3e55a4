package compiler

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"methodsplit/internal/config"
	"methodsplit/internal/literal"
	"methodsplit/internal/mir"
)

func literalModule(t *testing.T, name string, n int) *mir.Module {
	t.Helper()
	fn, err := literal.ArrayFunction("build", n, literal.Options{})
	if err != nil {
		t.Fatalf("Failed to build literal: %v", err)
	}
	return &mir.Module{Name: name, Functions: []*mir.Function{fn}}
}

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Optimizer.FunctionInstructionThreshold = 100
	cfg.Optimizer.MinSplitInstructions = 5
	cfg.Optimizer.PeriodicSplitInterval = 40
	return cfg
}

func TestCompile_SmallModule(t *testing.T) {
	result := Compile(&Options{
		Modules:   []*mir.Module{literalModule(t, "main", 2)},
		LogFormat: PLAIN,
	})

	if !result.Success {
		t.Fatalf("Expected success, got output:\n%s", result.Output)
	}
	if len(result.Generated) != 0 {
		t.Errorf("Expected no generated functions, got %v", result.Generated)
	}
	if len(result.Stats) != 1 {
		t.Errorf("Expected 1 function row, got %d", len(result.Stats))
	}
}

func TestCompile_SplitsLargeModule(t *testing.T) {
	result := Compile(&Options{
		Modules:   []*mir.Module{literalModule(t, "main", 300)},
		Config:    smallConfig(),
		LogFormat: PLAIN,
	})

	if !result.Success {
		t.Fatalf("Expected success, got output:\n%s", result.Output)
	}
	if len(result.Generated) == 0 {
		t.Fatal("Expected generated functions")
	}
	for _, s := range result.Stats {
		if s.Instructions >= 100 {
			t.Errorf("Function %s has %d instructions", s.Name, s.Instructions)
		}
	}
}

func TestCompile_DoesNotModifyConfig(t *testing.T) {
	cfg := smallConfig()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[Optimizer]\nMinSplitInstructions = 7\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	result := Compile(&Options{
		Modules:    []*mir.Module{literalModule(t, "main", 2)},
		Config:     cfg,
		ConfigFile: path,
		LogFormat:  PLAIN,
	})

	if !result.Success {
		t.Fatalf("Expected success, got output:\n%s", result.Output)
	}
	if cfg.Optimizer.MinSplitInstructions != 5 {
		t.Errorf("Expected caller config untouched, got MinSplitInstructions=%d", cfg.Optimizer.MinSplitInstructions)
	}
}

func TestCompile_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[Optimizer]\nNoSuchField = 1\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	result := Compile(&Options{
		Modules:    []*mir.Module{literalModule(t, "main", 2)},
		ConfigFile: path,
		LogFormat:  PLAIN,
	})

	if result.Success {
		t.Fatal("Expected failure for unknown config field")
	}
	if !strings.Contains(result.Output, "Failed to load config") {
		t.Errorf("Unexpected output: %s", result.Output)
	}
}

func TestCompile_DuplicateModuleNames(t *testing.T) {
	result := Compile(&Options{
		Modules: []*mir.Module{
			literalModule(t, "dup", 2),
			literalModule(t, "dup", 2),
		},
		LogFormat: PLAIN,
	})

	if result.Success {
		t.Fatal("Expected failure for duplicate module names")
	}
	if !strings.Contains(result.Output, "already registered") {
		t.Errorf("Expected duplicate error in output, got:\n%s", result.Output)
	}
}

func TestCompile_PlainOutputHasNoEscapes(t *testing.T) {
	fn, err := literal.ArrayFunction("build", 150, literal.Options{Shared: true})
	if err != nil {
		t.Fatalf("Failed to build literal: %v", err)
	}
	result := Compile(&Options{
		Modules:   []*mir.Module{{Name: "shared", Functions: []*mir.Function{fn}}},
		Config:    smallConfig(),
		LogFormat: PLAIN,
	})

	if !result.Success {
		t.Fatalf("Warnings must not fail the run:\n%s", result.Output)
	}
	if !strings.Contains(result.Output, "W0001") {
		t.Errorf("Expected still-oversized warning, got:\n%s", result.Output)
	}
	if strings.Contains(result.Output, "\x1b[") {
		t.Error("Expected no ANSI escapes in plain output")
	}
}

func TestCompile_ANSIWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	result := Compile(&Options{
		Modules: []*mir.Module{{Name: ""}},
		Output:  &buf,
	})

	if result.Success {
		t.Fatal("Expected failure for unnamed module")
	}
	if result.Output != "" {
		t.Errorf("Expected empty Output in ANSI mode, got %q", result.Output)
	}
	if !strings.Contains(buf.String(), "has no name") {
		t.Errorf("Expected diagnostic in writer, got:\n%s", buf.String())
	}
}
