package types

type TYPE_NAME string

const (
	TYPE_INT     TYPE_NAME = "int"
	TYPE_FLOAT   TYPE_NAME = "float"
	TYPE_BOOLEAN TYPE_NAME = "boolean"
	TYPE_BYTE    TYPE_NAME = "byte"
	TYPE_STRING  TYPE_NAME = "string"
	TYPE_NIL     TYPE_NAME = "()"
	TYPE_ERROR   TYPE_NAME = "error"
	TYPE_ANY     TYPE_NAME = "any"
	TYPE_HANDLE  TYPE_NAME = "handle"

	TYPE_UNKNOWN TYPE_NAME = "unknown"
)

// Table is the set of canonical types the optimizer needs when it
// synthesizes temporaries and return types.
type Table struct {
	Int        SemType
	Boolean    SemType
	AnyOrError SemType
	Error      SemType
	Nil        SemType
	Handle     SemType
}

// Builtins returns the canonical table backed by the built-in instances.
func Builtins() *Table {
	return &Table{
		Int:        TypeInt,
		Boolean:    TypeBoolean,
		AnyOrError: TypeAnyOrError,
		Error:      TypeError,
		Nil:        TypeNil,
		Handle:     TypeHandle,
	}
}
