package interp

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"methodsplit/internal/mir"
	"methodsplit/internal/types"
)

func module(fns ...*mir.Function) *mir.Module {
	return &mir.Module{Name: "test", Functions: fns}
}

func TestArithmeticAndArrays(t *testing.T) {
	b := mir.NewBuilder("f", types.NewArray(types.TypeInt))
	x := b.Param("x", types.TypeInt)
	size := b.Temp(types.TypeInt)
	one := b.Temp(types.TypeInt)
	sum := b.Temp(types.TypeInt)
	arr := b.Temp(types.NewArray(types.TypeInt))
	b.Const(size, 2)
	b.Const(one, int64(1))
	b.Binary(sum, mir.OpAdd, x, one)
	b.NewArray(arr, types.NewArray(types.TypeInt), size, x, sum)
	b.Move(b.Return(), arr)
	b.Goto(b.Exit())
	fn := b.MustFinish()

	v, err := New(module(fn)).Call("f", int64(41))
	require.NoError(t, err)
	assert.Equal(t, "[41, 42]", Format(v))
}

func TestUncaughtPanicEscapes(t *testing.T) {
	b := mir.NewBuilder("f", types.TypeNil)
	msg := b.Temp(types.TypeString)
	b.Const(msg, "bad")
	b.Foreign(nil, Fail, msg)
	b.Goto(b.Exit())
	fn := b.MustFinish()

	_, err := New(module(fn)).Call("f")
	var p *Panic
	require.True(t, errors.As(err, &p), "got %v", err)
	assert.Equal(t, `error("bad")`, Format(p.Value))
}

func TestTrapCatchesCalleePanic(t *testing.T) {
	callee := mir.NewBuilder("boom", types.TypeNil)
	msg := callee.Temp(types.TypeString)
	callee.Const(msg, "bad")
	callee.Foreign(nil, Fail, msg)
	callee.Goto(callee.Exit())
	boom := callee.MustFinish()

	b := mir.NewBuilder("f", types.TypeString)
	body := b.NewBlock()
	handler := b.NewBlock()
	errVar := b.Temp(types.TypeError)
	b.Goto(body)
	b.SetBlock(body)
	b.Call(nil, "boom", b.Exit())
	b.SetBlock(handler)
	caught := b.Temp(types.TypeString)
	b.Const(caught, "caught")
	b.Move(b.Return(), caught)
	b.Goto(b.Exit())
	b.Trap(body, body, handler, errVar)
	fn := b.MustFinish()

	v, err := New(module(fn, boom)).Call("f")
	require.NoError(t, err)
	assert.Equal(t, "caught", v)
}

func TestUnassignedReadFails(t *testing.T) {
	b := mir.NewBuilder("f", types.TypeInt)
	tmp := b.Temp(types.TypeInt)
	b.Move(b.Return(), tmp)
	b.Goto(b.Exit())
	fn := b.MustFinish()

	_, err := New(module(fn)).Call("f")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unassigned")
}

func TestLargeAggregates(t *testing.T) {
	b := mir.NewBuilder("f", types.TypeAny)
	size := b.Temp(types.TypeInt)
	h := b.Temp(types.TypeHandle)
	idx := b.Temp(types.TypeInt)
	val := b.Temp(types.TypeInt)
	list := b.Temp(types.NewArray(types.TypeInt))
	b.Const(size, 2)
	b.Foreign(h, mir.ListEntryArray, size)
	b.Const(idx, 1)
	b.Const(val, 20)
	b.Foreign(nil, mir.SetExpression, h, val, idx)
	b.Const(idx, 0)
	b.Const(val, 10)
	b.Foreign(nil, mir.SetExpression, h, val, idx)
	b.Emit(&mir.NewLargeArray{Dest: mir.Op(list), Type: types.NewArray(types.TypeInt), Size: mir.Op(size), Handle: mir.Op(h)})
	b.Move(b.Return(), list)
	b.Goto(b.Exit())
	fn := b.MustFinish()

	v, err := New(module(fn)).Call("f")
	require.NoError(t, err)
	assert.Equal(t, "[10, 20]", Format(v))
}

func TestRecordConstruction(t *testing.T) {
	recType := types.NewRecord("R", []types.RecordField{{Name: "a", Type: types.TypeInt}})
	b := mir.NewBuilder("f", recType)
	td := b.Temp(types.NewTypeDesc(recType))
	k := b.Temp(types.TypeString)
	v := b.Temp(types.TypeInt)
	rec := b.Temp(recType)
	b.TypeDesc(td, recType)
	b.Const(k, "a")
	b.Const(v, 7)
	b.NewRecord(rec, td, k, v)
	b.Move(b.Return(), rec)
	b.Goto(b.Exit())
	fn := b.MustFinish()

	out, err := New(module(fn)).Call("f")
	require.NoError(t, err)
	assert.Equal(t, `{"a": 7}`, Format(out))
}

func TestCheckedValueAndObserve(t *testing.T) {
	b := mir.NewBuilder("f", types.WithError(types.TypeInt))
	x := b.Param("x", types.TypeInt)
	res := b.Temp(types.WithError(types.TypeInt))
	b.Foreign(nil, Observe, x)
	b.Foreign(res, CheckedValue, x)
	b.Move(b.Return(), res)
	b.Goto(b.Exit())
	fn := b.MustFinish()

	it := New(module(fn))
	v, err := it.Call("f", int64(-1))
	require.NoError(t, err)
	assert.Equal(t, `error("negative value")`, Format(v))
	assert.Equal(t, []Value{int64(-1)}, it.Trace)
}

func TestStepLimit(t *testing.T) {
	b := mir.NewBuilder("loop", types.TypeNil)
	body := b.NewBlock()
	b.Goto(body)
	b.SetBlock(body)
	b.Goto(body)
	fn := b.MustFinish()

	_, err := New(module(fn), WithStepLimit(100)).Call("loop")
	assert.ErrorIs(t, err, ErrStepLimit)
}

func TestConforms(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		typ   types.SemType
		want  bool
	}{
		{"int", int64(1), types.TypeInt, true},
		{"int as string", int64(1), types.TypeString, false},
		{"nil", nil, types.TypeNil, true},
		{"error in any", &ErrorValue{}, types.TypeAny, false},
		{"error in any|error", &ErrorValue{}, types.TypeAnyOrError, true},
		{"array", &ArrayValue{Elems: []Value{int64(1)}}, types.NewArray(types.TypeInt), true},
		{"array element mismatch", &ArrayValue{Elems: []Value{"x"}}, types.NewArray(types.TypeInt), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Conforms(tt.value, tt.typ))
		})
	}
}
