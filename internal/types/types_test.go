package types

import (
	"testing"
)

func TestPrimitiveTypeString(t *testing.T) {
	tests := []struct {
		typ  SemType
		want string
	}{
		{TypeInt, "int"},
		{TypeString, "string"},
		{TypeBoolean, "boolean"},
		{TypeNil, "()"},
		{TypeHandle, "handle"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("Type.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPrimitiveTypeEquals(t *testing.T) {
	tests := []struct {
		t1    SemType
		t2    SemType
		equal bool
	}{
		{TypeInt, TypeInt, true},
		{TypeInt, TypeFloat, false},
		{TypeString, TypeString, true},
		{TypeBoolean, TypeInt, false},
		{TypeError, NewPrimitive(TYPE_ERROR), true},
	}

	for _, tt := range tests {
		if got := tt.t1.Equals(tt.t2); got != tt.equal {
			t.Errorf("%s.Equals(%s) = %v, want %v", tt.t1, tt.t2, got, tt.equal)
		}
	}
}

func TestArrayType(t *testing.T) {
	arr := NewArray(TypeInt)
	if got := arr.String(); got != "int[]" {
		t.Errorf("ArrayType.String() = %q, want %q", got, "int[]")
	}

	nested := NewArray(NewArray(TypeString))
	if got := nested.String(); got != "string[][]" {
		t.Errorf("Nested ArrayType.String() = %q, want %q", got, "string[][]")
	}

	unionElem := NewArray(NewUnion(TypeInt, TypeString))
	if got := unionElem.String(); got != "(int|string)[]" {
		t.Errorf("ArrayType.String() = %q, want %q", got, "(int|string)[]")
	}

	if !arr.Equals(NewArray(TypeInt)) {
		t.Errorf("int[] should equal int[]")
	}
	if arr.Equals(NewArray(TypeString)) {
		t.Errorf("int[] should not equal string[]")
	}
}

func TestRecordType(t *testing.T) {
	rec := NewRecord("", []RecordField{
		{Name: "a", Type: TypeInt},
		{Name: "b", Type: TypeString},
	})
	if got := rec.String(); got != "record { int a, string b }" {
		t.Errorf("RecordType.String() = %q", got)
	}

	same := NewRecord("", []RecordField{
		{Name: "a", Type: TypeInt},
		{Name: "b", Type: TypeString},
	})
	if !rec.Equals(same) {
		t.Errorf("structurally identical records should be equal")
	}

	reordered := NewRecord("", []RecordField{
		{Name: "b", Type: TypeString},
		{Name: "a", Type: TypeInt},
	})
	if rec.Equals(reordered) {
		t.Errorf("records with different field order should not be equal")
	}

	named := NewRecord("Person", nil)
	if got := named.String(); got != "Person" {
		t.Errorf("named RecordType.String() = %q, want %q", got, "Person")
	}
}

func TestNewUnion(t *testing.T) {
	tests := []struct {
		name    string
		members []SemType
		want    string
	}{
		{"single member collapses", []SemType{TypeInt}, "int"},
		{"duplicates dropped", []SemType{TypeInt, TypeInt, TypeError}, "int|error"},
		{"nested flattened", []SemType{NewUnion(TypeInt, TypeString), TypeError}, "int|string|error"},
		{"nil members ignored", []SemType{nil, TypeBoolean}, "boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewUnion(tt.members...).String(); got != tt.want {
				t.Errorf("NewUnion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnionEqualsIgnoresOrder(t *testing.T) {
	u1 := NewUnion(TypeInt, TypeError)
	u2 := NewUnion(TypeError, TypeInt)
	if !u1.Equals(u2) {
		t.Errorf("%s should equal %s", u1, u2)
	}
	if u1.Equals(NewUnion(TypeInt, TypeString)) {
		t.Errorf("%s should not equal int|string", u1)
	}
}

func TestContainsError(t *testing.T) {
	tests := []struct {
		typ  SemType
		want bool
	}{
		{TypeError, true},
		{TypeInt, false},
		{TypeAnyOrError, true},
		{WithError(NewArray(TypeInt)), true},
		{NewArray(TypeError), false},
	}

	for _, tt := range tests {
		if got := ContainsError(tt.typ); got != tt.want {
			t.Errorf("ContainsError(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestBuiltinsTable(t *testing.T) {
	table := Builtins()
	if !table.Int.Equals(TypeInt) || !table.Boolean.Equals(TypeBoolean) {
		t.Errorf("unexpected scalar types in table")
	}
	if !table.AnyOrError.Equals(NewUnion(TypeAny, TypeError)) {
		t.Errorf("AnyOrError = %s, want any|error", table.AnyOrError)
	}
	if FromTypeName("nope") != TypeUnknown {
		t.Errorf("FromTypeName should fall back to unknown")
	}
}
