// Package literal builds functions shaped like front-end output for large
// list and mapping constructor expressions. They are the workloads the
// function-size optimizer exists for.
package literal

import (
	"fmt"

	"github.com/pkg/errors"

	"methodsplit/internal/mir"
	"methodsplit/internal/mir/interp"
	"methodsplit/internal/types"
)

// Options shape the generated function.
type Options struct {
	// ArgEvery makes every n-th element a parameter of the function instead
	// of a computed temporary. Zero disables argument elements.
	ArgEvery int

	// Fallible computes the middle element with checkedValue(seed) and
	// returns early with the error when it fails. Adds a "seed" parameter.
	Fallible bool

	// Guarded computes the element at one third with a cast of the "raw"
	// parameter inside an error region whose handler returns the error.
	Guarded bool

	// Shared makes the last element the first element plus its index, so
	// the temporary holding the first element stays live while every other
	// element is computed.
	Shared bool
}

// ArrayFunction returns a function building an int list of n elements.
// Element i evaluates to 2*i unless Options turn it into a parameter.
func ArrayFunction(name string, n int, opts Options) (*mir.Function, error) {
	g, err := newGen(name, n, types.NewArray(types.TypeInt), opts)
	if err != nil {
		return nil, err
	}

	size := g.b.Temp(types.TypeInt)
	g.b.Const(size, int64(n))

	values := make([]*mir.VarDecl, n)
	for i := 0; i < n; i++ {
		values[i] = g.element(i)
	}

	tmp := g.b.Temp(g.aggregate)
	g.b.NewArray(tmp, g.aggregate, size, values...)
	return g.finish(tmp)
}

// RecordFunction returns a function building a record with fields f0..fn-1.
func RecordFunction(name string, n int, opts Options) (*mir.Function, error) {
	recType := types.NewRecord(name+"Record", nil)
	g, err := newGen(name, n, recType, opts)
	if err != nil {
		return nil, err
	}

	td := g.b.Temp(types.NewTypeDesc(recType))
	g.b.TypeDesc(td, recType)

	kv := make([]*mir.VarDecl, 0, 2*n)
	for i := 0; i < n; i++ {
		key := g.b.Temp(types.TypeString)
		g.b.Const(key, fmt.Sprintf("f%d", i))
		kv = append(kv, key, g.element(i))
	}

	tmp := g.b.Temp(recType)
	g.b.NewRecord(tmp, td, kv...)
	return g.finish(tmp)
}

type gen struct {
	b         *mir.Builder
	opts      Options
	n         int
	aggregate types.SemType

	args  []*mir.VarDecl
	seed  *mir.VarDecl
	raw   *mir.VarDecl
	first *mir.VarDecl
}

func newGen(name string, n int, aggregate types.SemType, opts Options) (*gen, error) {
	if n <= 0 {
		return nil, errors.Errorf("literal %s: element count must be positive, got %d", name, n)
	}
	if opts.ArgEvery < 0 {
		return nil, errors.Errorf("literal %s: negative argument interval %d", name, opts.ArgEvery)
	}

	ret := aggregate
	if opts.Fallible || opts.Guarded {
		ret = types.WithError(aggregate)
	}
	g := &gen{b: mir.NewBuilder(name, ret), opts: opts, n: n, aggregate: aggregate}

	if opts.ArgEvery > 0 {
		for i := 0; i < n; i++ {
			if g.isArg(i) {
				g.args = append(g.args, g.b.Param(fmt.Sprintf("a%d", i), types.TypeInt))
			}
		}
	}
	if opts.Fallible {
		g.seed = g.b.Param("seed", types.TypeInt)
	}
	if opts.Guarded {
		g.raw = g.b.Param("raw", types.TypeAny)
	}
	return g, nil
}

func (g *gen) isArg(i int) bool {
	return g.opts.ArgEvery > 0 && i%g.opts.ArgEvery == g.opts.ArgEvery-1
}

func (g *gen) fallibleAt() int { return g.n / 2 }
func (g *gen) guardedAt() int  { return g.n / 3 }

// element emits the code computing element i and returns the variable
// holding it.
func (g *gen) element(i int) *mir.VarDecl {
	v := g.compute(i)
	if i == 0 {
		g.first = v
	}
	return v
}

func (g *gen) compute(i int) *mir.VarDecl {
	switch {
	case g.opts.Guarded && i == g.guardedAt():
		return g.guarded()
	case g.opts.Fallible && i == g.fallibleAt():
		return g.fallible()
	case g.isArg(i):
		return g.args[i/g.opts.ArgEvery]
	}
	c := g.b.Temp(types.TypeInt)
	e := g.b.Temp(types.TypeInt)
	g.b.Const(c, int64(i))
	if g.opts.Shared && i > 0 && i == g.n-1 {
		g.b.Binary(e, mir.OpAdd, g.first, c)
		return e
	}
	g.b.Binary(e, mir.OpAdd, c, c)
	return e
}

// fallible emits:
//
//	%r = checkedValue(seed); %isErr = %r is error; branch %isErr
//	  err: %0 = <error>%r; goto exit
//	  ok:  %v = <int>%r
func (g *gen) fallible() *mir.VarDecl {
	b := g.b
	res := b.Temp(types.WithError(types.TypeInt))
	isErr := b.Temp(types.TypeBoolean)
	b.Foreign(res, interp.CheckedValue, g.seed)
	b.Test(isErr, res, types.TypeError)

	errBlk := b.NewBlock()
	okBlk := b.NewBlock()
	b.Branch(isErr, errBlk, okBlk)

	b.SetBlock(errBlk)
	castErr := b.Temp(types.TypeError)
	b.Cast(castErr, res, types.TypeError)
	b.Move(b.Return(), castErr)
	b.Goto(b.Exit())

	b.SetBlock(okBlk)
	v := b.Temp(types.TypeInt)
	b.Cast(v, res, types.TypeInt)
	return v
}

// guarded emits a block casting raw to int, covered by an error region
// whose handler returns the caught error.
func (g *gen) guarded() *mir.VarDecl {
	b := g.b
	guard := b.NewBlock()
	handler := b.NewBlock()
	cont := b.NewBlock()
	b.Goto(guard)

	b.SetBlock(guard)
	v := b.Temp(types.TypeInt)
	b.Cast(v, g.raw, types.TypeInt)
	b.Goto(cont)

	b.SetBlock(handler)
	caught := b.Temp(types.TypeError)
	b.Move(b.Return(), caught)
	b.Goto(b.Exit())
	b.Trap(guard, guard, handler, caught)

	b.SetBlock(cont)
	return v
}

// finish stores the aggregate into a surface local and returns it.
func (g *gen) finish(tmp *mir.VarDecl) (*mir.Function, error) {
	b := g.b
	local := b.Local("value", g.aggregate)
	b.Scope(local, b.Current(), b.Current())
	b.Move(local, tmp)
	b.Move(b.Return(), local)
	b.Goto(b.Exit())
	return b.Finish()
}

// Args returns call arguments for a function built with opts: argument
// element i gets 1000+i, seed and raw get the given values.
func Args(n int, opts Options, seed int64, raw interp.Value) []interp.Value {
	var args []interp.Value
	if opts.ArgEvery > 0 {
		for i := 0; i < n; i++ {
			if i%opts.ArgEvery == opts.ArgEvery-1 {
				args = append(args, int64(1000+i))
			}
		}
	}
	if opts.Fallible {
		args = append(args, seed)
	}
	if opts.Guarded {
		args = append(args, raw)
	}
	return args
}
