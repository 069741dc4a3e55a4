package types

import (
	"strings"
)

// SemType is the semantic representation of a type carried by IR variables.
//
// Design principles:
// - Types are immutable after creation
// - SemType equality is structural (deep comparison)
// - All types can be displayed as strings
type SemType interface {
	// String returns a human-readable representation of the type
	String() string

	// Equals checks structural equality with another type
	Equals(other SemType) bool

	// Size returns the size in bytes of the runtime slot holding the value.
	// Returns -1 for types without known size.
	Size() int

	// isType is a marker method to prevent external implementation
	isType()
}

// PrimitiveType represents built-in scalar types (int, string, boolean, ...)
type PrimitiveType struct {
	name TYPE_NAME
	size int
}

func NewPrimitive(name TYPE_NAME) *PrimitiveType {
	return &PrimitiveType{name: name, size: getPrimitiveSize(name)}
}

func (p *PrimitiveType) String() string { return string(p.name) }
func (p *PrimitiveType) Size() int      { return p.size }
func (p *PrimitiveType) isType()        {}
func (p *PrimitiveType) Equals(other SemType) bool {
	if o, ok := other.(*PrimitiveType); ok {
		return p.name == o.name
	}
	return false
}

// GetName returns the primitive type name
func (p *PrimitiveType) GetName() TYPE_NAME {
	return p.name
}

func getPrimitiveSize(name TYPE_NAME) int {
	switch name {
	case TYPE_INT, TYPE_FLOAT:
		return 8
	case TYPE_BOOLEAN, TYPE_BYTE:
		return 1
	case TYPE_NIL:
		return 0
	case TYPE_STRING, TYPE_ERROR, TYPE_ANY, TYPE_HANDLE:
		return 16
	default:
		return -1
	}
}

// ArrayType represents a list type with a single element type
type ArrayType struct {
	Element SemType
}

func NewArray(element SemType) *ArrayType {
	return &ArrayType{Element: element}
}

func (a *ArrayType) String() string {
	if _, ok := a.Element.(*UnionType); ok {
		return "(" + a.Element.String() + ")[]"
	}
	return a.Element.String() + "[]"
}

func (a *ArrayType) Size() int { return 16 }
func (a *ArrayType) isType()   {}

func (a *ArrayType) Equals(other SemType) bool {
	if o, ok := other.(*ArrayType); ok {
		return a.Element.Equals(o.Element)
	}
	return false
}

// RecordField is a named record member
type RecordField struct {
	Name string
	Type SemType
}

// RecordType represents a mapping type with a fixed set of named fields
type RecordType struct {
	Name   string
	Fields []RecordField
}

func NewRecord(name string, fields []RecordField) *RecordType {
	return &RecordType{Name: name, Fields: fields}
}

func (r *RecordType) String() string {
	if r.Name != "" {
		return r.Name
	}
	var b strings.Builder
	b.WriteString("record {")
	for i, field := range r.Fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" ")
		b.WriteString(field.Type.String())
		b.WriteString(" ")
		b.WriteString(field.Name)
	}
	b.WriteString(" }")
	return b.String()
}

func (r *RecordType) Size() int { return 16 }
func (r *RecordType) isType()   {}

func (r *RecordType) Equals(other SemType) bool {
	o, ok := other.(*RecordType)
	if !ok {
		return false
	}
	if r.Name != o.Name || len(r.Fields) != len(o.Fields) {
		return false
	}
	for i := range r.Fields {
		if r.Fields[i].Name != o.Fields[i].Name || !r.Fields[i].Type.Equals(o.Fields[i].Type) {
			return false
		}
	}
	return true
}

// UnionType represents a value that may belong to any of its members
type UnionType struct {
	Members []SemType
}

// NewUnion flattens nested unions and drops duplicate members.
// A union of a single member collapses to that member.
func NewUnion(members ...SemType) SemType {
	flat := make([]SemType, 0, len(members))
	var add func(t SemType)
	add = func(t SemType) {
		if u, ok := t.(*UnionType); ok {
			for _, m := range u.Members {
				add(m)
			}
			return
		}
		for _, existing := range flat {
			if existing.Equals(t) {
				return
			}
		}
		flat = append(flat, t)
	}
	for _, m := range members {
		if m != nil {
			add(m)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &UnionType{Members: flat}
}

func (u *UnionType) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, "|")
}

func (u *UnionType) Size() int { return 16 }
func (u *UnionType) isType()   {}

func (u *UnionType) Equals(other SemType) bool {
	o, ok := other.(*UnionType)
	if !ok || len(u.Members) != len(o.Members) {
		return false
	}
	for _, m := range u.Members {
		found := false
		for _, om := range o.Members {
			if m.Equals(om) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TypeDescType is the type of a runtime type descriptor value
type TypeDescType struct {
	Described SemType
}

func NewTypeDesc(described SemType) *TypeDescType {
	return &TypeDescType{Described: described}
}

func (t *TypeDescType) String() string { return "typedesc<" + t.Described.String() + ">" }
func (t *TypeDescType) Size() int      { return 16 }
func (t *TypeDescType) isType()        {}

func (t *TypeDescType) Equals(other SemType) bool {
	if o, ok := other.(*TypeDescType); ok {
		return t.Described.Equals(o.Described)
	}
	return false
}

// Built-in type instances
var (
	TypeInt     = NewPrimitive(TYPE_INT)
	TypeFloat   = NewPrimitive(TYPE_FLOAT)
	TypeBoolean = NewPrimitive(TYPE_BOOLEAN)
	TypeByte    = NewPrimitive(TYPE_BYTE)
	TypeString  = NewPrimitive(TYPE_STRING)
	TypeNil     = NewPrimitive(TYPE_NIL)
	TypeError   = NewPrimitive(TYPE_ERROR)
	TypeAny     = NewPrimitive(TYPE_ANY)
	TypeHandle  = NewPrimitive(TYPE_HANDLE)
	TypeUnknown = NewPrimitive(TYPE_UNKNOWN)

	TypeAnyOrError = NewUnion(TypeAny, TypeError)
)

var primitiveTypes map[TYPE_NAME]SemType

func init() {
	primitiveTypes = map[TYPE_NAME]SemType{
		TYPE_INT:     TypeInt,
		TYPE_FLOAT:   TypeFloat,
		TYPE_BOOLEAN: TypeBoolean,
		TYPE_BYTE:    TypeByte,
		TYPE_STRING:  TypeString,
		TYPE_NIL:     TypeNil,
		TYPE_ERROR:   TypeError,
		TYPE_ANY:     TypeAny,
		TYPE_HANDLE:  TypeHandle,
	}
}

// FromTypeName returns the built-in type for a name, or TypeUnknown.
func FromTypeName(name TYPE_NAME) SemType {
	if t, ok := primitiveTypes[name]; ok {
		return t
	}
	return TypeUnknown
}

// IsPrimitive reports whether t is a built-in scalar type
func IsPrimitive(t SemType) bool {
	_, ok := t.(*PrimitiveType)
	return ok
}

// IsError reports whether t is exactly the error type
func IsError(t SemType) bool {
	p, ok := t.(*PrimitiveType)
	return ok && p.name == TYPE_ERROR
}

// ContainsError reports whether a value of type t may be an error
func ContainsError(t SemType) bool {
	if IsError(t) {
		return true
	}
	if u, ok := t.(*UnionType); ok {
		for _, m := range u.Members {
			if ContainsError(m) {
				return true
			}
		}
	}
	return false
}

// WithError returns the union of t and error
func WithError(t SemType) SemType {
	return NewUnion(t, TypeError)
}
