package interp

import (
	"fmt"
	"strconv"
	"strings"

	"methodsplit/internal/types"
)

// Value is a runtime value: int64, bool, string, nil, *ErrorValue,
// *ArrayValue, *RecordValue, *TypeDescValue or *Handle.
type Value any

// ErrorValue is a first-class error value.
type ErrorValue struct {
	Message string
}

func (e *ErrorValue) String() string { return "error(" + strconv.Quote(e.Message) + ")" }

// ArrayValue is a list.
type ArrayValue struct {
	Type  types.SemType
	Elems []Value
}

// RecordValue is a mapping with string keys kept in insertion order.
type RecordValue struct {
	Type   types.SemType
	Keys   []string
	Fields map[string]Value
}

func newRecord(t types.SemType) *RecordValue {
	return &RecordValue{Type: t, Fields: make(map[string]Value)}
}

func (r *RecordValue) set(key string, v Value) {
	if _, ok := r.Fields[key]; !ok {
		r.Keys = append(r.Keys, key)
	}
	r.Fields[key] = v
}

// TypeDescValue is a runtime type descriptor.
type TypeDescValue struct {
	Type types.SemType
}

// HandleKind tells which constructor a staging handle feeds.
type HandleKind int

const (
	HandleList HandleKind = iota
	HandleMapping
)

type handleSlot struct {
	set    bool
	spread bool
	key    Value
	value  Value
}

// Handle is an opaque staging area filled entry by entry and consumed by
// NewLargeArray or NewLargeRecord.
type Handle struct {
	Kind  HandleKind
	slots []handleSlot
}

// Panic is the error raised by a Panic terminator, a failed cast or a failing
// runtime helper. It is trapped by the innermost covering error entry.
type Panic struct {
	Value Value
}

func (p *Panic) Error() string { return "panic: " + Format(p.Value) }

// Format renders a value deterministically. It is used to compare the
// results of two executions.
func Format(v Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		b.WriteString("()")
	case string:
		b.WriteString(strconv.Quote(x))
	case *ErrorValue:
		b.WriteString(x.String())
	case *ArrayValue:
		b.WriteString("[")
		for i, e := range x.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, e)
		}
		b.WriteString("]")
	case *RecordValue:
		b.WriteString("{")
		for i, k := range x.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			writeValue(b, x.Fields[k])
		}
		b.WriteString("}")
	case *TypeDescValue:
		b.WriteString("typedesc ")
		b.WriteString(x.Type.String())
	case *Handle:
		fmt.Fprintf(b, "handle(%d)", len(x.slots))
	default:
		fmt.Fprint(b, x)
	}
}

// Conforms reports whether v belongs to t.
func Conforms(v Value, t types.SemType) bool {
	switch tt := t.(type) {
	case *types.PrimitiveType:
		switch tt.GetName() {
		case types.TYPE_INT, types.TYPE_BYTE:
			_, ok := v.(int64)
			return ok
		case types.TYPE_BOOLEAN:
			_, ok := v.(bool)
			return ok
		case types.TYPE_STRING:
			_, ok := v.(string)
			return ok
		case types.TYPE_NIL:
			return v == nil
		case types.TYPE_ERROR:
			_, ok := v.(*ErrorValue)
			return ok
		case types.TYPE_HANDLE:
			_, ok := v.(*Handle)
			return ok
		case types.TYPE_ANY:
			_, isErr := v.(*ErrorValue)
			return !isErr
		case types.TYPE_UNKNOWN:
			return true
		}
		return false
	case *types.UnionType:
		for _, m := range tt.Members {
			if Conforms(v, m) {
				return true
			}
		}
		return false
	case *types.ArrayType:
		arr, ok := v.(*ArrayValue)
		if !ok {
			return false
		}
		for _, e := range arr.Elems {
			if !Conforms(e, tt.Element) {
				return false
			}
		}
		return true
	case *types.RecordType:
		_, ok := v.(*RecordValue)
		return ok
	case *types.TypeDescType:
		_, ok := v.(*TypeDescValue)
		return ok
	default:
		return false
	}
}

func equalValues(a, b Value) bool {
	return Format(a) == Format(b)
}
