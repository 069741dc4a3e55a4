// Package interp executes IR modules. It exists to check that a rewritten
// module computes the same results, raises the same panics and performs the
// same observable side effects as the module it was derived from.
package interp

import (
	"github.com/pkg/errors"

	"methodsplit/internal/mir"
)

var (
	ErrStepLimit  = errors.New("step limit exceeded")
	ErrDepthLimit = errors.New("call depth limit exceeded")
)

const (
	defaultStepLimit  = 50_000_000
	defaultDepthLimit = 4096
)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStepLimit bounds the number of executed instructions and terminators.
func WithStepLimit(n int) Option {
	return func(it *Interpreter) { it.stepLimit = n }
}

// WithForeign registers or overrides a runtime helper.
func WithForeign(name string, fn Foreign) Option {
	return func(it *Interpreter) { it.foreign[name] = fn }
}

// WithGlobal sets the initial value of a module-level declaration.
func WithGlobal(decl *mir.VarDecl, v Value) Option {
	return func(it *Interpreter) { it.globals[decl] = v }
}

// Interpreter runs functions of a single module.
type Interpreter struct {
	mod     *mir.Module
	foreign map[string]Foreign
	globals map[*mir.VarDecl]Value

	stepLimit int
	steps     int
	depth     int

	// Trace records the arguments passed to the observe helper, in order.
	Trace []Value
}

// New creates an interpreter for mod with the default runtime helpers.
func New(mod *mir.Module, opts ...Option) *Interpreter {
	it := &Interpreter{
		mod:       mod,
		foreign:   defaultForeign(),
		globals:   make(map[*mir.VarDecl]Value),
		stepLimit: defaultStepLimit,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Steps returns the number of instructions and terminators executed so far.
func (it *Interpreter) Steps() int { return it.steps }

// Call runs the named function. A panic escaping the function is returned as
// a *Panic error.
func (it *Interpreter) Call(name string, args ...Value) (Value, error) {
	fn := it.mod.LookupFunction(name)
	if fn == nil {
		return nil, errors.Errorf("unknown function %q", name)
	}
	return it.invoke(fn, args)
}

type frame struct {
	fn   *mir.Function
	vals map[*mir.VarDecl]Value
}

func (it *Interpreter) invoke(fn *mir.Function, args []Value) (Value, error) {
	if len(args) != len(fn.Params) {
		return nil, errors.Errorf("%s: expected %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}
	if it.depth >= defaultDepthLimit {
		return nil, ErrDepthLimit
	}
	it.depth++
	defer func() { it.depth-- }()

	fr := &frame{fn: fn, vals: make(map[*mir.VarDecl]Value, len(fn.Locals)+len(fn.Params)+1)}
	for i, p := range fn.Params {
		fr.vals[p] = args[i]
	}
	fr.vals[fn.ReturnVar] = nil

	index := fn.BlockIndex()
	pc := 0
	for {
		blk := fn.Blocks[pc]
		next, done, err := it.runBlock(fr, blk)
		if err != nil {
			var p *Panic
			if errors.As(err, &p) {
				if entry := trapFor(fn, index, pc); entry != nil {
					fr.vals[entry.ErrOp.Var] = p.Value
					pc = index[entry.Target]
					continue
				}
			}
			return nil, err
		}
		if done {
			return fr.vals[fn.ReturnVar], nil
		}
		target, ok := index[next]
		if !ok {
			return nil, errors.Errorf("%s: jump to unknown block b%d", fn.Name, next)
		}
		pc = target
	}
}

// trapFor returns the innermost error entry covering the block at layout
// position pc. Among entries of equal width the first one wins.
func trapFor(fn *mir.Function, index map[mir.BlockID]int, pc int) *mir.ErrorEntry {
	var best *mir.ErrorEntry
	bestWidth := -1
	for _, entry := range fn.ErrorTable {
		start, end := index[entry.Start], index[entry.End]
		if pc < start || pc > end {
			continue
		}
		if width := end - start; best == nil || width < bestWidth {
			best, bestWidth = entry, width
		}
	}
	return best
}

func (it *Interpreter) step() error {
	it.steps++
	if it.stepLimit > 0 && it.steps > it.stepLimit {
		return ErrStepLimit
	}
	return nil
}

func (it *Interpreter) runBlock(fr *frame, blk *mir.Block) (mir.BlockID, bool, error) {
	for _, instr := range blk.Instrs {
		if err := it.step(); err != nil {
			return 0, false, err
		}
		if err := it.exec(fr, instr); err != nil {
			return 0, false, errors.WithMessagef(err, "%s b%d", fr.fn.Name, blk.ID)
		}
	}
	if err := it.step(); err != nil {
		return 0, false, err
	}
	return it.terminate(fr, blk.Term)
}

func (it *Interpreter) read(fr *frame, op mir.Operand) (Value, error) {
	if op.Var == nil {
		return nil, errors.New("read of empty operand")
	}
	if op.Var.Kind.IsModuleLevel() {
		v, ok := it.globals[op.Var]
		if !ok {
			return nil, errors.Errorf("read of uninitialized %s %s", op.Var.Kind, op.Var.Name)
		}
		return v, nil
	}
	v, ok := fr.vals[op.Var]
	if !ok {
		return nil, errors.Errorf("read of unassigned %s %s", op.Var.Kind, op.Var.Name)
	}
	return v, nil
}

func (it *Interpreter) write(fr *frame, op mir.Operand, v Value) {
	if op.Var == nil {
		return
	}
	if op.Var.Kind.IsModuleLevel() {
		it.globals[op.Var] = v
		return
	}
	fr.vals[op.Var] = v
}

func (it *Interpreter) readAll(fr *frame, ops []mir.Operand) ([]Value, error) {
	vals := make([]Value, len(ops))
	for i, op := range ops {
		v, err := it.read(fr, op)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (it *Interpreter) exec(fr *frame, instr mir.Instr) error {
	switch in := instr.(type) {
	case *mir.ConstLoad:
		v, err := constValue(in.Value)
		if err != nil {
			return err
		}
		it.write(fr, in.Dest, v)

	case *mir.Move:
		v, err := it.read(fr, in.Src)
		if err != nil {
			return err
		}
		it.write(fr, in.Dest, v)

	case *mir.BinaryOp:
		x, err := it.read(fr, in.X)
		if err != nil {
			return err
		}
		y, err := it.read(fr, in.Y)
		if err != nil {
			return err
		}
		v, err := binary(in.Op, x, y)
		if err != nil {
			return err
		}
		it.write(fr, in.Dest, v)

	case *mir.TypeCast:
		v, err := it.read(fr, in.Src)
		if err != nil {
			return err
		}
		if !Conforms(v, in.Type) {
			return &Panic{Value: &ErrorValue{Message: "TypeCastError: " + Format(v) + " is not " + in.Type.String()}}
		}
		it.write(fr, in.Dest, v)

	case *mir.TypeTest:
		v, err := it.read(fr, in.Src)
		if err != nil {
			return err
		}
		it.write(fr, in.Dest, Conforms(v, in.Type))

	case *mir.NewTypeDesc:
		it.write(fr, in.Dest, &TypeDescValue{Type: in.Type})

	case *mir.NewArray:
		if _, err := it.read(fr, in.Size); err != nil {
			return err
		}
		arr := &ArrayValue{Type: in.Type}
		for _, entry := range in.Values {
			v, err := it.read(fr, entry.Value)
			if err != nil {
				return err
			}
			if err := appendEntry(arr, v, entry.Kind == mir.EntrySpread); err != nil {
				return err
			}
		}
		it.write(fr, in.Dest, arr)

	case *mir.NewRecord:
		td, err := it.typeDesc(fr, in.TypeDesc)
		if err != nil {
			return err
		}
		rec := newRecord(td.Type)
		for _, f := range in.Fields {
			k, err := it.read(fr, f.Key)
			if err != nil {
				return err
			}
			v, err := it.read(fr, f.Value)
			if err != nil {
				return err
			}
			key, ok := k.(string)
			if !ok {
				return errors.Errorf("record key %s is not a string", Format(k))
			}
			rec.set(key, v)
		}
		it.write(fr, in.Dest, rec)

	case *mir.NewLargeArray:
		if _, err := it.read(fr, in.Size); err != nil {
			return err
		}
		h, err := it.handle(fr, in.Handle, HandleList)
		if err != nil {
			return err
		}
		arr := &ArrayValue{Type: in.Type}
		for i, slot := range h.slots {
			if !slot.set {
				return errors.Errorf("list entry %d was never set", i)
			}
			if err := appendEntry(arr, slot.value, slot.spread); err != nil {
				return err
			}
		}
		it.write(fr, in.Dest, arr)

	case *mir.NewLargeRecord:
		td, err := it.typeDesc(fr, in.TypeDesc)
		if err != nil {
			return err
		}
		h, err := it.handle(fr, in.Handle, HandleMapping)
		if err != nil {
			return err
		}
		rec := newRecord(td.Type)
		for i, slot := range h.slots {
			if !slot.set {
				return errors.Errorf("mapping entry %d was never set", i)
			}
			key, ok := slot.key.(string)
			if !ok {
				return errors.Errorf("record key %s is not a string", Format(slot.key))
			}
			rec.set(key, slot.value)
		}
		it.write(fr, in.Dest, rec)

	case *mir.FieldGet:
		base, err := it.read(fr, in.Base)
		if err != nil {
			return err
		}
		key, err := it.read(fr, in.Key)
		if err != nil {
			return err
		}
		v, err := fieldGet(base, key)
		if err != nil {
			return err
		}
		it.write(fr, in.Dest, v)

	case *mir.FieldSet:
		vals, err := it.readAll(fr, []mir.Operand{in.Base, in.Key, in.Value})
		if err != nil {
			return err
		}
		return fieldSet(vals[0], vals[1], vals[2])

	case *mir.ForeignCall:
		fn, ok := it.foreign[in.Name]
		if !ok {
			return errors.Errorf("unknown foreign function %q", in.Name)
		}
		args, err := it.readAll(fr, in.Args)
		if err != nil {
			return err
		}
		v, err := fn(it, args)
		if err != nil {
			return err
		}
		it.write(fr, in.Dest, v)

	default:
		return errors.Errorf("unsupported instruction %T", instr)
	}
	return nil
}

func (it *Interpreter) terminate(fr *frame, term mir.Term) (mir.BlockID, bool, error) {
	switch t := term.(type) {
	case *mir.Goto:
		return t.Target, false, nil

	case *mir.Branch:
		c, err := it.read(fr, t.Cond)
		if err != nil {
			return 0, false, err
		}
		cond, ok := c.(bool)
		if !ok {
			return 0, false, errors.Errorf("branch condition %s is not boolean", Format(c))
		}
		if cond {
			return t.Then, false, nil
		}
		return t.Else, false, nil

	case *mir.Call:
		callee := it.mod.LookupFunction(t.Callee)
		if callee == nil {
			return 0, false, errors.Errorf("call to unknown function %q", t.Callee)
		}
		args, err := it.readAll(fr, t.Args)
		if err != nil {
			return 0, false, err
		}
		v, err := it.invoke(callee, args)
		if err != nil {
			return 0, false, err
		}
		it.write(fr, t.Dest, v)
		return t.Next, false, nil

	case *mir.Return:
		return 0, true, nil

	case *mir.Panic:
		v, err := it.read(fr, t.Err)
		if err != nil {
			return 0, false, err
		}
		return 0, false, &Panic{Value: v}

	case *mir.Lock:
		return t.Next, false, nil

	case *mir.Unlock:
		return t.Next, false, nil

	default:
		return 0, false, errors.Errorf("unsupported terminator %T", term)
	}
}

func (it *Interpreter) typeDesc(fr *frame, op mir.Operand) (*TypeDescValue, error) {
	v, err := it.read(fr, op)
	if err != nil {
		return nil, err
	}
	td, ok := v.(*TypeDescValue)
	if !ok {
		return nil, errors.Errorf("%s is not a type descriptor", Format(v))
	}
	return td, nil
}

func (it *Interpreter) handle(fr *frame, op mir.Operand, kind HandleKind) (*Handle, error) {
	v, err := it.read(fr, op)
	if err != nil {
		return nil, err
	}
	h, ok := v.(*Handle)
	if !ok || h.Kind != kind {
		return nil, errors.Errorf("%s is not a matching handle", Format(v))
	}
	return h, nil
}

func constValue(v any) (Value, error) {
	switch c := v.(type) {
	case nil, int64, bool, string:
		return c, nil
	case int:
		return int64(c), nil
	default:
		return nil, errors.Errorf("unsupported constant %T", v)
	}
}

func appendEntry(arr *ArrayValue, v Value, spread bool) error {
	if !spread {
		arr.Elems = append(arr.Elems, v)
		return nil
	}
	src, ok := v.(*ArrayValue)
	if !ok {
		return errors.Errorf("spread of non-list %s", Format(v))
	}
	arr.Elems = append(arr.Elems, src.Elems...)
	return nil
}

func binary(op mir.BinaryKind, x, y Value) (Value, error) {
	if op == mir.OpEqual {
		return equalValues(x, y), nil
	}
	if xs, ok := x.(string); ok && op == mir.OpAdd {
		ys, ok := y.(string)
		if !ok {
			return nil, errors.Errorf("cannot add %s to a string", Format(y))
		}
		return xs + ys, nil
	}
	xi, okX := x.(int64)
	yi, okY := y.(int64)
	if !okX || !okY {
		return nil, errors.Errorf("%s needs int operands, got %s and %s", op, Format(x), Format(y))
	}
	switch op {
	case mir.OpAdd:
		return xi + yi, nil
	case mir.OpSub:
		return xi - yi, nil
	case mir.OpMul:
		return xi * yi, nil
	case mir.OpLess:
		return xi < yi, nil
	default:
		return nil, errors.Errorf("unsupported binary operator %s", op)
	}
}

func fieldGet(base, key Value) (Value, error) {
	switch b := base.(type) {
	case *ArrayValue:
		i, ok := key.(int64)
		if !ok || i < 0 || int(i) >= len(b.Elems) {
			return nil, &Panic{Value: &ErrorValue{Message: "IndexOutOfRange: " + Format(key)}}
		}
		return b.Elems[i], nil
	case *RecordValue:
		k, ok := key.(string)
		if !ok {
			return nil, errors.Errorf("record key %s is not a string", Format(key))
		}
		return b.Fields[k], nil
	default:
		return nil, errors.Errorf("field access on %s", Format(base))
	}
}

func fieldSet(base, key, v Value) error {
	switch b := base.(type) {
	case *ArrayValue:
		i, ok := key.(int64)
		if !ok || i < 0 || int(i) > len(b.Elems) {
			return &Panic{Value: &ErrorValue{Message: "IndexOutOfRange: " + Format(key)}}
		}
		if int(i) == len(b.Elems) {
			b.Elems = append(b.Elems, v)
		} else {
			b.Elems[i] = v
		}
		return nil
	case *RecordValue:
		k, ok := key.(string)
		if !ok {
			return errors.Errorf("record key %s is not a string", Format(key))
		}
		b.set(k, v)
		return nil
	default:
		return errors.Errorf("field update on %s", Format(base))
	}
}
