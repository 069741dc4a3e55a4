package mir

import (
	"methodsplit/internal/source"
	"methodsplit/internal/types"
)

// Instr is the base interface for non-terminating instructions.
//
// Every instruction reports its destination through Lhs (nil when it has
// none) and its sources through Rhs. The returned pointers alias the
// instruction's own fields so passes can rebind operands in place.
type Instr interface {
	mirInstr()
	Loc() *source.Location
	Lhs() *Operand
	Rhs() []*Operand
}

// BinaryKind selects the operator of a BinaryOp.
type BinaryKind int

const (
	OpAdd BinaryKind = iota
	OpSub
	OpMul
	OpEqual
	OpLess
)

func (k BinaryKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpEqual:
		return "eq"
	case OpLess:
		return "lt"
	default:
		return "unknown"
	}
}

// ListEntryKind distinguishes plain list members from spread members.
type ListEntryKind int

const (
	EntryExpr ListEntryKind = iota
	EntrySpread
)

// ListEntry is one initializer of a list constructor.
type ListEntry struct {
	Kind  ListEntryKind
	Value Operand
}

// MappingEntry is one key/value initializer of a record constructor.
type MappingEntry struct {
	Key   Operand
	Value Operand
}

// ConstLoad loads a literal. Value is int64, bool, string or nil.
type ConstLoad struct {
	Dest     Operand
	Value    any
	Location source.Location
}

func (c *ConstLoad) mirInstr()             {}
func (c *ConstLoad) Loc() *source.Location { return &c.Location }
func (c *ConstLoad) Lhs() *Operand         { return &c.Dest }
func (c *ConstLoad) Rhs() []*Operand       { return nil }

// Move copies Src into Dest.
type Move struct {
	Dest     Operand
	Src      Operand
	Location source.Location
}

func (m *Move) mirInstr()             {}
func (m *Move) Loc() *source.Location { return &m.Location }
func (m *Move) Lhs() *Operand         { return &m.Dest }
func (m *Move) Rhs() []*Operand       { return []*Operand{&m.Src} }

// BinaryOp applies Op to X and Y.
type BinaryOp struct {
	Dest     Operand
	Op       BinaryKind
	X        Operand
	Y        Operand
	Location source.Location
}

func (b *BinaryOp) mirInstr()             {}
func (b *BinaryOp) Loc() *source.Location { return &b.Location }
func (b *BinaryOp) Lhs() *Operand         { return &b.Dest }
func (b *BinaryOp) Rhs() []*Operand       { return []*Operand{&b.X, &b.Y} }

// TypeCast converts Src to Type, panicking at runtime when it does not conform.
type TypeCast struct {
	Dest     Operand
	Src      Operand
	Type     types.SemType
	Location source.Location
}

func (c *TypeCast) mirInstr()             {}
func (c *TypeCast) Loc() *source.Location { return &c.Location }
func (c *TypeCast) Lhs() *Operand         { return &c.Dest }
func (c *TypeCast) Rhs() []*Operand       { return []*Operand{&c.Src} }

// TypeTest stores whether Src conforms to Type.
type TypeTest struct {
	Dest     Operand
	Src      Operand
	Type     types.SemType
	Location source.Location
}

func (t *TypeTest) mirInstr()             {}
func (t *TypeTest) Loc() *source.Location { return &t.Location }
func (t *TypeTest) Lhs() *Operand         { return &t.Dest }
func (t *TypeTest) Rhs() []*Operand       { return []*Operand{&t.Src} }

// NewTypeDesc materializes a runtime descriptor of Type.
type NewTypeDesc struct {
	Dest     Operand
	Type     types.SemType
	Location source.Location
}

func (n *NewTypeDesc) mirInstr()             {}
func (n *NewTypeDesc) Loc() *source.Location { return &n.Location }
func (n *NewTypeDesc) Lhs() *Operand         { return &n.Dest }
func (n *NewTypeDesc) Rhs() []*Operand       { return nil }

// NewArray constructs a list from its entries. Size is the anchor operand.
type NewArray struct {
	Dest     Operand
	Type     types.SemType
	Size     Operand
	Values   []ListEntry
	Location source.Location
}

func (n *NewArray) mirInstr()             {}
func (n *NewArray) Loc() *source.Location { return &n.Location }
func (n *NewArray) Lhs() *Operand         { return &n.Dest }
func (n *NewArray) Rhs() []*Operand {
	ops := make([]*Operand, 0, len(n.Values)+1)
	ops = append(ops, &n.Size)
	for i := range n.Values {
		ops = append(ops, &n.Values[i].Value)
	}
	return ops
}

// NewRecord constructs a record from its entries. TypeDesc is the anchor operand.
type NewRecord struct {
	Dest     Operand
	TypeDesc Operand
	Fields   []MappingEntry
	Location source.Location
}

func (n *NewRecord) mirInstr()             {}
func (n *NewRecord) Loc() *source.Location { return &n.Location }
func (n *NewRecord) Lhs() *Operand         { return &n.Dest }
func (n *NewRecord) Rhs() []*Operand {
	ops := make([]*Operand, 0, 2*len(n.Fields)+1)
	ops = append(ops, &n.TypeDesc)
	for i := range n.Fields {
		ops = append(ops, &n.Fields[i].Key, &n.Fields[i].Value)
	}
	return ops
}

// NewLargeArray constructs a list whose entries were staged in Handle.
type NewLargeArray struct {
	Dest     Operand
	Type     types.SemType
	Size     Operand
	Handle   Operand
	Location source.Location
}

func (n *NewLargeArray) mirInstr()             {}
func (n *NewLargeArray) Loc() *source.Location { return &n.Location }
func (n *NewLargeArray) Lhs() *Operand         { return &n.Dest }
func (n *NewLargeArray) Rhs() []*Operand       { return []*Operand{&n.Size, &n.Handle} }

// NewLargeRecord constructs a record whose entries were staged in Handle.
type NewLargeRecord struct {
	Dest     Operand
	TypeDesc Operand
	Handle   Operand
	Location source.Location
}

func (n *NewLargeRecord) mirInstr()             {}
func (n *NewLargeRecord) Loc() *source.Location { return &n.Location }
func (n *NewLargeRecord) Lhs() *Operand         { return &n.Dest }
func (n *NewLargeRecord) Rhs() []*Operand       { return []*Operand{&n.TypeDesc, &n.Handle} }

// FieldGet reads Key from a record or list.
type FieldGet struct {
	Dest     Operand
	Base     Operand
	Key      Operand
	Location source.Location
}

func (f *FieldGet) mirInstr()             {}
func (f *FieldGet) Loc() *source.Location { return &f.Location }
func (f *FieldGet) Lhs() *Operand         { return &f.Dest }
func (f *FieldGet) Rhs() []*Operand       { return []*Operand{&f.Base, &f.Key} }

// FieldSet stores Value at Key of a record or list. The base is mutated in
// place, so it is a source operand and the instruction has no destination.
type FieldSet struct {
	Base     Operand
	Key      Operand
	Value    Operand
	Location source.Location
}

func (f *FieldSet) mirInstr()             {}
func (f *FieldSet) Loc() *source.Location { return &f.Location }
func (f *FieldSet) Lhs() *Operand         { return nil }
func (f *FieldSet) Rhs() []*Operand       { return []*Operand{&f.Base, &f.Key, &f.Value} }

// ForeignCall invokes a runtime helper. Dest is optional.
type ForeignCall struct {
	Dest     Operand
	Name     string
	Args     []Operand
	Location source.Location
}

func (f *ForeignCall) mirInstr()             {}
func (f *ForeignCall) Loc() *source.Location { return &f.Location }
func (f *ForeignCall) Lhs() *Operand {
	if !f.Dest.Valid() {
		return nil
	}
	return &f.Dest
}
func (f *ForeignCall) Rhs() []*Operand {
	ops := make([]*Operand, len(f.Args))
	for i := range f.Args {
		ops[i] = &f.Args[i]
	}
	return ops
}

// AnchorOperand returns the operand whose definition opens an aggregate
// constructor's input range, and whether instr is an aggregate constructor.
func AnchorOperand(instr Instr) (*Operand, bool) {
	switch i := instr.(type) {
	case *NewArray:
		return &i.Size, true
	case *NewRecord:
		return &i.TypeDesc, true
	default:
		return nil, false
	}
}
