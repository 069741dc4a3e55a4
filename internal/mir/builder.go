package mir

import (
	"fmt"

	"methodsplit/internal/source"
	"methodsplit/internal/types"
)

// Builder assembles a Function block by block. Instructions are appended to
// the current block; terminators close it. The exit block is created up front
// and moved to the end of the layout by Finish.
type Builder struct {
	fn    *Function
	cur   *Block
	exit  *Block
	temps int
	loc   source.Location
}

// NewBuilder starts a function with an entry block and an exit block that
// returns the return variable.
func NewBuilder(name string, ret types.SemType) *Builder {
	fn := &Function{
		Name:       name,
		ReturnType: ret,
		ReturnVar:  &VarDecl{Name: "%0", Type: ret, Kind: KindReturn},
	}
	entry := &Block{ID: 0}
	exit := &Block{ID: 1, Term: &Return{}}
	fn.Blocks = []*Block{entry, exit}
	return &Builder{fn: fn, cur: entry, exit: exit}
}

// Func returns the function under construction.
func (b *Builder) Func() *Function { return b.fn }

// Attached marks the function as bound to a type definition.
func (b *Builder) Attached() *Builder {
	b.fn.Attached = true
	return b
}

// Generated marks the function as compiler generated.
func (b *Builder) Generated() *Builder {
	b.fn.Generated = true
	return b
}

// At sets the location attached to subsequently emitted code.
func (b *Builder) At(loc source.Location) *Builder {
	b.loc = loc
	return b
}

// Param declares a parameter.
func (b *Builder) Param(name string, t types.SemType) *VarDecl {
	v := &VarDecl{Name: name, Type: t, Kind: KindArg}
	b.fn.Params = append(b.fn.Params, v)
	return v
}

// Self declares the receiver parameter of an attached function.
func (b *Builder) Self(name string, t types.SemType) *VarDecl {
	v := &VarDecl{Name: name, Type: t, Kind: KindSelf}
	b.fn.Params = append(b.fn.Params, v)
	return v
}

// Local declares a surface-visible local scoped to the current block. Use
// Scope to widen it.
func (b *Builder) Local(name string, t types.SemType) *VarDecl {
	v := &VarDecl{Name: name, Type: t, Kind: KindLocal, Scope: &VarScope{Start: b.cur.ID, End: b.cur.ID}}
	b.fn.Locals = append(b.fn.Locals, v)
	return v
}

// Scope sets the debug range of a local.
func (b *Builder) Scope(v *VarDecl, start, end *Block) {
	v.Scope = &VarScope{Start: start.ID, End: end.ID}
}

// Temp declares a fresh compiler temporary.
func (b *Builder) Temp(t types.SemType) *VarDecl {
	b.temps++
	v := &VarDecl{Name: fmt.Sprintf("%%%d", b.temps), Type: t, Kind: KindTemp}
	b.fn.Locals = append(b.fn.Locals, v)
	return v
}

// Synthetic declares a compiler variable with a surface counterpart.
func (b *Builder) Synthetic(name string, t types.SemType) *VarDecl {
	v := &VarDecl{Name: name, Type: t, Kind: KindSynthetic}
	b.fn.Locals = append(b.fn.Locals, v)
	return v
}

// Ignored declares a placeholder whose value is never read.
func (b *Builder) Ignored(t types.SemType) *VarDecl {
	v := &VarDecl{Name: "_", Type: t, Kind: KindLocal, Ignored: true}
	b.fn.Locals = append(b.fn.Locals, v)
	return v
}

// Return is the function's return variable.
func (b *Builder) Return() *VarDecl { return b.fn.ReturnVar }

// Entry returns the entry block.
func (b *Builder) Entry() *Block { return b.fn.Blocks[0] }

// Exit returns the exit block.
func (b *Builder) Exit() *Block { return b.exit }

// Current returns the block instructions are appended to.
func (b *Builder) Current() *Block { return b.cur }

// NewBlock adds an empty block to the layout, placed before the exit block.
// The current block is unchanged.
func (b *Builder) NewBlock() *Block {
	blk := &Block{ID: b.fn.NextBlockID()}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return blk
}

// SetBlock makes blk the current block.
func (b *Builder) SetBlock(blk *Block) *Builder {
	b.cur = blk
	return b
}

// Emit appends instr to the current block.
func (b *Builder) Emit(instr Instr) {
	*instr.Loc() = b.loc
	b.cur.Instrs = append(b.cur.Instrs, instr)
}

func (b *Builder) Const(dest *VarDecl, value any) {
	b.Emit(&ConstLoad{Dest: Op(dest), Value: value})
}

func (b *Builder) Move(dest, src *VarDecl) {
	b.Emit(&Move{Dest: Op(dest), Src: Op(src)})
}

func (b *Builder) Binary(dest *VarDecl, op BinaryKind, x, y *VarDecl) {
	b.Emit(&BinaryOp{Dest: Op(dest), Op: op, X: Op(x), Y: Op(y)})
}

func (b *Builder) Cast(dest, src *VarDecl, t types.SemType) {
	b.Emit(&TypeCast{Dest: Op(dest), Src: Op(src), Type: t})
}

func (b *Builder) Test(dest, src *VarDecl, t types.SemType) {
	b.Emit(&TypeTest{Dest: Op(dest), Src: Op(src), Type: t})
}

func (b *Builder) TypeDesc(dest *VarDecl, t types.SemType) {
	b.Emit(&NewTypeDesc{Dest: Op(dest), Type: t})
}

// NewArray emits a list constructor whose entries are plain expressions.
func (b *Builder) NewArray(dest *VarDecl, t types.SemType, size *VarDecl, values ...*VarDecl) {
	entries := make([]ListEntry, len(values))
	for i, v := range values {
		entries[i] = ListEntry{Kind: EntryExpr, Value: Op(v)}
	}
	b.Emit(&NewArray{Dest: Op(dest), Type: t, Size: Op(size), Values: entries})
}

// NewRecord emits a record constructor; kv alternates keys and values.
func (b *Builder) NewRecord(dest, typeDesc *VarDecl, kv ...*VarDecl) {
	if len(kv)%2 != 0 {
		panic("mir: NewRecord needs key/value pairs")
	}
	fields := make([]MappingEntry, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields = append(fields, MappingEntry{Key: Op(kv[i]), Value: Op(kv[i+1])})
	}
	b.Emit(&NewRecord{Dest: Op(dest), TypeDesc: Op(typeDesc), Fields: fields})
}

func (b *Builder) FieldGet(dest, base, key *VarDecl) {
	b.Emit(&FieldGet{Dest: Op(dest), Base: Op(base), Key: Op(key)})
}

func (b *Builder) FieldSet(base, key, value *VarDecl) {
	b.Emit(&FieldSet{Base: Op(base), Key: Op(key), Value: Op(value)})
}

// Foreign emits a runtime helper call. dest may be nil.
func (b *Builder) Foreign(dest *VarDecl, name string, args ...*VarDecl) {
	b.Emit(&ForeignCall{Dest: Op(dest), Name: name, Args: operands(args)})
}

// Goto closes the current block with a jump to target.
func (b *Builder) Goto(target *Block) {
	b.cur.Term = &Goto{Target: target.ID, Location: b.loc}
}

// Branch closes the current block with a conditional jump.
func (b *Builder) Branch(cond *VarDecl, then, els *Block) {
	b.cur.Term = &Branch{Cond: Op(cond), Then: then.ID, Else: els.ID, Location: b.loc}
}

// Call closes the current block with a call continuing in next. dest may be nil.
func (b *Builder) Call(dest *VarDecl, callee string, next *Block, args ...*VarDecl) {
	b.cur.Term = &Call{Callee: callee, Args: operands(args), Dest: Op(dest), Next: next.ID, Location: b.loc}
}

// Panic closes the current block by raising err.
func (b *Builder) Panic(err *VarDecl) {
	b.cur.Term = &Panic{Err: Op(err), Location: b.loc}
}

// Trap adds an error entry covering start..end that stores into errOp and
// resumes at target.
func (b *Builder) Trap(start, end, target *Block, errOp *VarDecl) {
	b.fn.ErrorTable = append(b.fn.ErrorTable, &ErrorEntry{
		Start:  start.ID,
		End:    end.ID,
		Target: target.ID,
		ErrOp:  Op(errOp),
	})
}

// Finish moves the exit block last, renumbers the function and verifies it.
func (b *Builder) Finish() (*Function, error) {
	blocks := make([]*Block, 0, len(b.fn.Blocks))
	for _, blk := range b.fn.Blocks {
		if blk != b.exit {
			blocks = append(blocks, blk)
		}
	}
	b.fn.Blocks = append(blocks, b.exit)

	if err := Renumber(b.fn); err != nil {
		return nil, err
	}
	if err := Verify(b.fn); err != nil {
		return nil, err
	}
	return b.fn, nil
}

// MustFinish is Finish for statically known shapes.
func (b *Builder) MustFinish() *Function {
	fn, err := b.Finish()
	if err != nil {
		panic(err)
	}
	return fn
}

func operands(vars []*VarDecl) []Operand {
	ops := make([]Operand, len(vars))
	for i, v := range vars {
		ops[i] = Op(v)
	}
	return ops
}
