package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"methodsplit/internal/literal"
	"methodsplit/internal/mir"
)

func TestLiteralCommandChecksEquivalence(t *testing.T) {
	dir := t.TempDir()
	err := newApp().Run([]string{"methodsplit", "--verbosity", "0", "literal",
		"--elements", "300", "--arg-every", "9", "--fallible",
		"--threshold", "100", "--interval", "40", "--min-split", "5",
		"--dump", dir, "--check"})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "literal.after.ir"))
	assert.NoError(t, err)
}

func TestLiteralCommandRejectsUnknownKind(t *testing.T) {
	err := newApp().Run([]string{"methodsplit", "--verbosity", "0", "literal", "--kind", "set", "--elements", "3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown literal kind")
}

func TestConfigCommandValidatesOverrides(t *testing.T) {
	err := newApp().Run([]string{"methodsplit", "--verbosity", "0", "config", "--threshold", "10", "--interval", "20"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PeriodicSplitInterval")
}

func TestCompareDetectsDifferences(t *testing.T) {
	build := func(n int) *mir.Module {
		fn, err := literal.ArrayFunction("build", n, literal.Options{})
		require.NoError(t, err)
		return &mir.Module{Name: "m", Functions: []*mir.Function{fn}}
	}

	assert.NoError(t, compare(build(4), build(4), nil))

	err := compare(build(4), build(5), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result mismatch")
}

func TestArgumentSets(t *testing.T) {
	assert.Len(t, argumentSets(10, literal.Options{}), 1)
	assert.Len(t, argumentSets(10, literal.Options{Fallible: true, Guarded: true}), 3)
}
