package ir

import (
	"fmt"
	"strings"
)

// FieldType is the recursive type expression attached to fields, variants,
// aliases, and constants.
type FieldType interface {
	isFieldType()
	// String renders the type in source-language notation for error messages
	String() string
}

// ScalarKind enumerates the abstract scalar types the IR understands.
type ScalarKind string

// Scalar kinds.
const (
	Unit     ScalarKind = "unit"
	Bool     ScalarKind = "bool"
	Char     ScalarKind = "char"
	String   ScalarKind = "string"
	I8       ScalarKind = "i8"
	I16      ScalarKind = "i16"
	I32      ScalarKind = "i32"
	I64      ScalarKind = "i64"
	U8       ScalarKind = "u8"
	U16      ScalarKind = "u16"
	U32      ScalarKind = "u32"
	U64      ScalarKind = "u64"
	ISize    ScalarKind = "isize"
	USize    ScalarKind = "usize"
	F32      ScalarKind = "f32"
	F64      ScalarKind = "f64"
	I54      ScalarKind = "i54"
	U53      ScalarKind = "u53"
	DateTime ScalarKind = "datetime"
	Bytes    ScalarKind = "bytes"
)

// Is64Bit reports whether the kind cannot be represented exactly by a
// JSON-number-backed runtime. Pointer-sized integers are treated as 64-bit.
func (k ScalarKind) Is64Bit() bool {
	switch k {
	case I64, U64, ISize, USize:
		return true
	}
	return false
}

// IsStringLike reports whether values of the kind serialize as JSON strings,
// making them usable as map keys everywhere.
func (k ScalarKind) IsStringLike() bool {
	return k == String || k == Char
}

// IsInteger reports whether the kind is any integer width.
func (k ScalarKind) IsInteger() bool {
	switch k {
	case I8, I16, I32, I64, U8, U16, U32, U64, ISize, USize, I54, U53:
		return true
	}
	return false
}

// KnownScalar reports whether k is one of the declared scalar kinds.
func KnownScalar(k ScalarKind) bool {
	switch k {
	case Unit, Bool, Char, String,
		I8, I16, I32, I64, U8, U16, U32, U64,
		ISize, USize, F32, F64, I54, U53, DateTime, Bytes:
		return true
	}
	return false
}

// Scalar is a primitive type.
type Scalar struct {
	K ScalarKind `json:"kind"`
}

// Sequence is an ordered growable container of Elem.
type Sequence struct {
	Elem FieldType `json:"elem"`
}

// FixedArray is a fixed-length array of Elem.
type FixedArray struct {
	Elem FieldType `json:"elem"`
	Len  int       `json:"len"`
}

// Map is an associative container.
type Map struct {
	Key   FieldType `json:"key"`
	Value FieldType `json:"value"`
}

// Optional marks a value that may be absent.
type Optional struct {
	Inner FieldType `json:"inner"`
}

// Reference names another declared type, with generic arguments if any.
type Reference struct {
	ID   TypeID      `json:"id"`
	Args []FieldType `json:"args,omitempty"`
}

// Generic refers to an enclosing declaration's generic parameter by name.
type Generic struct {
	Name string `json:"name"`
}

func (Scalar) isFieldType()     {}
func (Sequence) isFieldType()   {}
func (FixedArray) isFieldType() {}
func (Map) isFieldType()        {}
func (Optional) isFieldType()   {}
func (Reference) isFieldType()  {}
func (Generic) isFieldType()    {}

func (s Scalar) String() string { return string(s.K) }

func (s Sequence) String() string { return fmt.Sprintf("Vec<%s>", s.Elem) }

func (a FixedArray) String() string { return fmt.Sprintf("[%s; %d]", a.Elem, a.Len) }

func (m Map) String() string { return fmt.Sprintf("HashMap<%s, %s>", m.Key, m.Value) }

func (o Optional) String() string { return fmt.Sprintf("Option<%s>", o.Inner) }

func (r Reference) String() string {
	if len(r.Args) == 0 {
		return r.ID.Name
	}
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", r.ID.Name, strings.Join(args, ", "))
}

func (g Generic) String() string { return g.Name }

// IsOptional reports whether ft is Optional at the top level.
func IsOptional(ft FieldType) bool {
	_, ok := ft.(Optional)
	return ok
}

// IsDoubleOptional reports whether ft is Optional(Optional(T)). Targets
// that can express it must distinguish "absent" from "present-but-null".
func IsDoubleOptional(ft FieldType) bool {
	outer, ok := ft.(Optional)
	if !ok {
		return false
	}
	_, ok = outer.Inner.(Optional)
	return ok
}

// ContainsGeneric reports whether ft mentions the generic parameter name
// anywhere in its structure.
func ContainsGeneric(ft FieldType, name string) bool {
	found := false
	Walk(ft, func(t FieldType) {
		if g, ok := t.(Generic); ok && g.Name == name {
			found = true
		}
	})
	return found
}

// Walk visits ft and every nested type, depth first.
func Walk(ft FieldType, visit func(FieldType)) {
	visit(ft)
	switch t := ft.(type) {
	case Sequence:
		Walk(t.Elem, visit)
	case FixedArray:
		Walk(t.Elem, visit)
	case Map:
		Walk(t.Key, visit)
		Walk(t.Value, visit)
	case Optional:
		Walk(t.Inner, visit)
	case Reference:
		for _, a := range t.Args {
			Walk(a, visit)
		}
	}
}

// ReferenceEdge is one outgoing type reference found while walking a
// FieldType, with the indirection context it was reached through.
type ReferenceEdge struct {
	Target TypeID
	// Soft is true when the reference passes through Optional, Sequence, or
	// Map. Soft edges never make a containment cycle illegal. A fixed-length
	// array is direct value containment and keeps the surrounding context.
	Soft bool
}

// References collects every type reference reachable from ft.
func References(ft FieldType) []ReferenceEdge {
	var edges []ReferenceEdge
	collectRefs(ft, false, &edges)
	return edges
}

func collectRefs(ft FieldType, soft bool, edges *[]ReferenceEdge) {
	switch t := ft.(type) {
	case Reference:
		*edges = append(*edges, ReferenceEdge{Target: t.ID, Soft: soft})
		// generic arguments are value positions of the referenced type;
		// they inherit the current indirection context
		for _, a := range t.Args {
			collectRefs(a, soft, edges)
		}
	case Sequence:
		collectRefs(t.Elem, true, edges)
	case FixedArray:
		collectRefs(t.Elem, soft, edges)
	case Map:
		collectRefs(t.Key, true, edges)
		collectRefs(t.Value, true, edges)
	case Optional:
		collectRefs(t.Inner, true, edges)
	}
}
