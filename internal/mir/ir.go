package mir

import (
	"methodsplit/internal/source"
	"methodsplit/internal/types"
)

// BlockID identifies a basic block within a function.
type BlockID uint32

// VarKind classifies a variable declaration. The kind decides whether the
// declaration may cross a function boundary without being passed as an
// argument.
type VarKind int

const (
	KindArg       VarKind = iota // Function parameter
	KindLocal                    // Surface-visible local variable
	KindTemp                     // Compiler temporary
	KindSynthetic                // Compiler-introduced variable with a surface counterpart
	KindSelf                     // Receiver of an attached function
	KindReturn                   // The function's return slot
	KindGlobal                   // Module-level variable
	KindConstant                 // Module-level constant
)

func (k VarKind) String() string {
	switch k {
	case KindArg:
		return "arg"
	case KindLocal:
		return "local"
	case KindTemp:
		return "temp"
	case KindSynthetic:
		return "synthetic"
	case KindSelf:
		return "self"
	case KindReturn:
		return "return"
	case KindGlobal:
		return "global"
	case KindConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// IsModuleLevel reports whether declarations of this kind are visible from
// every function of the module.
func (k VarKind) IsModuleLevel() bool {
	return k == KindGlobal || k == KindConstant
}

// IsTempOrSynthetic reports whether the kind is compiler generated.
func (k VarKind) IsTempOrSynthetic() bool {
	return k == KindTemp || k == KindSynthetic
}

// VarScope is the debug range of a local variable.
type VarScope struct {
	Start BlockID
	End   BlockID
}

// VarDecl declares a variable. Operands point at declarations and several
// operands may share one declaration.
type VarDecl struct {
	Name    string
	Type    types.SemType
	Kind    VarKind
	Ignored bool // placeholder such as "_" whose value is never read

	// Scope is only set for KindLocal.
	Scope *VarScope
	// SingleBlock is true when every reference lives in one block.
	SingleBlock bool
}

// Operand references a variable declaration. Operands are stored by value
// inside instructions, so rebinding one never affects another.
type Operand struct {
	Var *VarDecl
}

// Op builds an operand for v.
func Op(v *VarDecl) Operand {
	return Operand{Var: v}
}

// Valid reports whether the operand references a declaration.
func (o Operand) Valid() bool {
	return o.Var != nil
}

// Type returns the static type of the referenced declaration.
func (o Operand) Type() types.SemType {
	if o.Var == nil {
		return nil
	}
	return o.Var.Type
}

// ErrorEntry is an exception region. A panic raised in any block from Start
// to End (inclusive, layout order) is stored into ErrOp and control resumes
// at Target.
type ErrorEntry struct {
	Start  BlockID
	End    BlockID
	Target BlockID
	ErrOp  Operand
}

// Module is the IR root for a single source module.
type Module struct {
	Name      string
	Globals   []*VarDecl
	Functions []*Function
	TypeDefs  []*TypeDef
	Location  source.Location
}

// TypeDef is a named type and the functions attached to it.
type TypeDef struct {
	Name          string
	Type          types.SemType
	AttachedFuncs []*Function
}

// Function is a block-structured IR function. Blocks are kept in layout
// order: the entry block first and the sole exit block last.
type Function struct {
	Name       string
	Params     []*VarDecl
	ReturnVar  *VarDecl
	ReturnType types.SemType
	Locals     []*VarDecl
	Blocks     []*Block
	ErrorTable []*ErrorEntry

	// Attached marks a function bound to a type definition.
	Attached bool
	// Generated marks a function produced by the compiler.
	Generated bool

	Location source.Location
}

// Block is a basic block with a list of instructions and a terminator.
type Block struct {
	ID     BlockID
	Name   string
	Instrs []Instr
	Term   Term
}

// LookupFunction finds a function or attached function by name.
func (m *Module) LookupFunction(name string) *Function {
	if m == nil {
		return nil
	}
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	for _, td := range m.TypeDefs {
		for _, fn := range td.AttachedFuncs {
			if fn.Name == name {
				return fn
			}
		}
	}
	return nil
}

// AllFunctions returns module functions followed by attached functions.
func (m *Module) AllFunctions() []*Function {
	if m == nil {
		return nil
	}
	out := make([]*Function, 0, len(m.Functions))
	out = append(out, m.Functions...)
	for _, td := range m.TypeDefs {
		out = append(out, td.AttachedFuncs...)
	}
	return out
}

// ExitBlock returns the last block in layout order.
func (f *Function) ExitBlock() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[len(f.Blocks)-1]
}

// BlockIndex maps block ids to their layout position.
func (f *Function) BlockIndex() map[BlockID]int {
	index := make(map[BlockID]int, len(f.Blocks))
	for i, b := range f.Blocks {
		index[b.ID] = i
	}
	return index
}

// Block returns the block with the given id, or nil.
func (f *Function) Block(id BlockID) *Block {
	for _, b := range f.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// NextBlockID returns an id not used by any block of the function.
func (f *Function) NextBlockID() BlockID {
	var next BlockID
	for _, b := range f.Blocks {
		if b.ID >= next {
			next = b.ID + 1
		}
	}
	return next
}

// Declares reports whether v belongs to this function's declaration lists.
func (f *Function) Declares(v *VarDecl) bool {
	if v == nil {
		return false
	}
	if v == f.ReturnVar {
		return true
	}
	for _, p := range f.Params {
		if p == v {
			return true
		}
	}
	for _, l := range f.Locals {
		if l == v {
			return true
		}
	}
	return false
}

// InstructionCount returns the number of non-terminator instructions, the
// size metric the backend limit is expressed in.
func InstructionCount(fn *Function) int {
	count := 0
	for _, b := range fn.Blocks {
		count += len(b.Instrs)
	}
	return count
}
