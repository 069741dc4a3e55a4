package literal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"methodsplit/internal/mir"
	"methodsplit/internal/mir/interp"
)

func run(t *testing.T, fn *mir.Function, args ...interp.Value) (interp.Value, error) {
	t.Helper()
	mod := &mir.Module{Name: "lit", Functions: []*mir.Function{fn}}
	return interp.New(mod).Call(fn.Name, args...)
}

func TestArrayFunction(t *testing.T) {
	fn, err := ArrayFunction("arr", 4, Options{})
	require.NoError(t, err)
	require.Len(t, fn.Blocks, 2)

	first := fn.Blocks[0].Instrs[0].(*mir.ConstLoad)
	assert.Equal(t, int64(4), first.Value)

	v, err := run(t, fn)
	require.NoError(t, err)
	assert.Equal(t, "[0, 2, 4, 6]", interp.Format(v))
}

func TestArrayFunctionWithArguments(t *testing.T) {
	opts := Options{ArgEvery: 2}
	fn, err := ArrayFunction("arr", 4, opts)
	require.NoError(t, err)
	require.Len(t, fn.Params, 2)

	v, err := run(t, fn, Args(4, opts, 0, nil)...)
	require.NoError(t, err)
	assert.Equal(t, "[0, 1001, 4, 1003]", interp.Format(v))
}

func TestFallibleArray(t *testing.T) {
	opts := Options{Fallible: true}
	fn, err := ArrayFunction("arr", 4, opts)
	require.NoError(t, err)

	tests := []struct {
		name string
		seed int64
		want string
	}{
		{"ok", 7, "[0, 2, 7, 6]"},
		{"error", -1, `error("negative value")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := run(t, fn, Args(4, opts, tt.seed, nil)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, interp.Format(v))
		})
	}
}

func TestGuardedArray(t *testing.T) {
	opts := Options{Guarded: true}
	fn, err := ArrayFunction("arr", 6, opts)
	require.NoError(t, err)
	require.Len(t, fn.ErrorTable, 1)

	v, err := run(t, fn, Args(6, opts, 0, int64(5))...)
	require.NoError(t, err)
	assert.Equal(t, "[0, 2, 5, 6, 8, 10]", interp.Format(v))

	v, err = run(t, fn, Args(6, opts, 0, "five")...)
	require.NoError(t, err)
	assert.Contains(t, interp.Format(v), "TypeCastError")
}

func TestSharedArray(t *testing.T) {
	fn, err := ArrayFunction("arr", 4, Options{Shared: true})
	require.NoError(t, err)

	v, err := run(t, fn)
	require.NoError(t, err)
	assert.Equal(t, "[0, 2, 4, 3]", interp.Format(v))
}

func TestRecordFunction(t *testing.T) {
	fn, err := RecordFunction("rec", 3, Options{ArgEvery: 3})
	require.NoError(t, err)

	_, isTypeDesc := fn.Blocks[0].Instrs[0].(*mir.NewTypeDesc)
	assert.True(t, isTypeDesc)

	v, err := run(t, fn, Args(3, Options{ArgEvery: 3}, 0, nil)...)
	require.NoError(t, err)
	assert.Equal(t, `{"f0": 0, "f1": 2, "f2": 1002}`, interp.Format(v))
}

func TestInvalidCount(t *testing.T) {
	_, err := ArrayFunction("arr", 0, Options{})
	assert.Error(t, err)
}
