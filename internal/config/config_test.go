package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestDefaultConfigIsACopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Optimizer.MaxSplitArgs = 1
	assert.Equal(t, 250, Defaults.Optimizer.MaxSplitArgs)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"zero threshold", func(c *Config) { c.Optimizer.FunctionInstructionThreshold = 0 }, "FunctionInstructionThreshold"},
		{"zero min split", func(c *Config) { c.Optimizer.MinSplitInstructions = 0 }, "MinSplitInstructions"},
		{"zero args", func(c *Config) { c.Optimizer.MaxSplitArgs = 0 }, "MaxSplitArgs"},
		{"tiny interval", func(c *Config) { c.Optimizer.PeriodicSplitInterval = 2 }, "at least 3"},
		{"interval above threshold", func(c *Config) { c.Optimizer.PeriodicSplitInterval = 1000 }, "must be below"},
		{"negative workers", func(c *Config) { c.Driver.Workers = -1 }, "Workers"},
		{"dump without dir", func(c *Config) { c.Driver.DumpIR = true }, "DumpDir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "split.toml")
	data := "[Optimizer]\nFunctionInstructionThreshold = 40\nPeriodicSplitInterval = 12\n\n[Driver]\nWorkers = 2\n"
	require.NoError(t, os.WriteFile(file, []byte(data), 0644))

	cfg := DefaultConfig()
	require.NoError(t, Load(file, cfg))
	assert.Equal(t, 40, cfg.Optimizer.FunctionInstructionThreshold)
	assert.Equal(t, 12, cfg.Optimizer.PeriodicSplitInterval)
	assert.Equal(t, 25, cfg.Optimizer.MinSplitInstructions)
	assert.Equal(t, 2, cfg.Driver.Workers)
	assert.True(t, cfg.Driver.Verify)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Optimizer]\nThreshold = 1\n"), 0644))

	err := Load(file, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Threshold")
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Optimizer.MaxSplitArgs = 7
	out, err := Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "MaxSplitArgs = 7")

	file := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, os.WriteFile(file, out, 0644))
	loaded := &Config{}
	require.NoError(t, Load(file, loaded))
	assert.Equal(t, *cfg, *loaded)
}
