package types

import (
	"fmt"
	"strings"
)

var primNames = map[Kind]string{
	KindBool: "Bool", KindInt8: "Int8", KindInt16: "Int16", KindInt32: "Int32", KindInt64: "Int64",
	KindUInt8: "UInt8", KindUInt16: "UInt16", KindUInt32: "UInt32", KindUInt64: "UInt64",
	KindFloat32: "Float32", KindFloat64: "Float64", KindVoid: "Void",
}

// Name renders a type the way its source-level constructor application
// would read (e.g. "Pointer[Int32]", "Array[Int32, 10]"), used for
// diagnostics and for the round-trip property: formatting a type and
// re-evaluating its printed name via the name-lookup path yields the same
// type.
func Name(t *Type) string {
	if t == nil {
		return "<nil type>"
	}
	switch t.Kind {
	case KindPointer:
		return fmt.Sprintf("Pointer[%s]", Name(t.Elem))
	case KindArray:
		return fmt.Sprintf("Array[%s, %d]", Name(t.Elem), t.ArrayLen)
	case KindTuple:
		parts := make([]string, len(t.TupleElems))
		for i, e := range t.TupleElems {
			parts[i] = Name(e)
		}
		return fmt.Sprintf("Tuple[%s]", strings.Join(parts, ", "))
	case KindRecord:
		if t.RecordDecl == nil {
			return "<record>"
		}
		return recordLikeName(t.RecordDecl.Name.Name, t.Params)
	case KindVariant:
		if t.VariantDecl == nil {
			return "<variant>"
		}
		return recordLikeName(t.VariantDecl.Name.Name, t.Params)
	case KindEnum:
		if t.EnumDecl == nil {
			return "<enum>"
		}
		return t.EnumDecl.Name.Name
	case KindCodePointer:
		parts := make([]string, len(t.ArgTypes))
		for i, a := range t.ArgTypes {
			parts[i] = Name(a)
		}
		return fmt.Sprintf("CodePointer[%s]", strings.Join(parts, ", "))
	case KindCCodePointer:
		parts := make([]string, len(t.ArgTypes))
		for i, a := range t.ArgTypes {
			parts[i] = Name(a)
		}
		return fmt.Sprintf("CCodePointer[%s]", strings.Join(parts, ", "))
	case KindStatic:
		return fmt.Sprintf("Static(%v)", t.StaticObj)
	default:
		if n, ok := primNames[t.Kind]; ok {
			return n
		}
		return "<unknown type>"
	}
}

func recordLikeName(name string, params []any) string {
	if len(params) == 0 {
		return name
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%v", p)
	}
	return fmt.Sprintf("%s[%s]", name, strings.Join(parts, ", "))
}

// SizeOf returns the byte size of t on a 64-bit target, matching the
// layout the code generator actually emits (so TypeSize, a compile-time
// primop, agrees with the LLVM datalayout the generator assumes — this
// backs the TypeSize/TypeAlignment reflective primops).
func SizeOf(t *Type) int64 {
	switch t.Kind {
	case KindBool, KindInt8, KindUInt8:
		return 1
	case KindInt16, KindUInt16:
		return 2
	case KindInt32, KindUInt32, KindFloat32:
		return 4
	case KindInt64, KindUInt64, KindFloat64:
		return 8
	case KindVoid:
		return 0
	case KindPointer, KindCodePointer, KindCCodePointer:
		return 8
	case KindArray:
		return SizeOf(t.Elem) * t.ArrayLen
	case KindTuple:
		var total int64
		for _, e := range t.TupleElems {
			total = align(total, AlignOf(e)) + SizeOf(e)
		}
		return align(total, AlignOf(t))
	case KindRecord:
		var total int64
		for _, f := range t.fields {
			total = align(total, AlignOf(f.Type)) + SizeOf(f.Type)
		}
		return align(total, AlignOf(t))
	case KindVariant:
		var max int64
		for _, m := range t.members {
			if s := SizeOf(m); s > max {
				max = s
			}
		}
		return max + 4 // tag word
	case KindEnum:
		return 4
	case KindStatic:
		return 0
	default:
		return 8
	}
}

// AlignOf returns the alignment of t, matching the natural alignment rule
// (max member alignment for aggregates).
func AlignOf(t *Type) int64 {
	switch t.Kind {
	case KindTuple:
		var max int64 = 1
		for _, e := range t.TupleElems {
			if a := AlignOf(e); a > max {
				max = a
			}
		}
		return max
	case KindRecord:
		var max int64 = 1
		for _, f := range t.fields {
			if a := AlignOf(f.Type); a > max {
				max = a
			}
		}
		return max
	case KindVariant:
		var max int64 = 4
		for _, m := range t.members {
			if a := AlignOf(m); a > max {
				max = a
			}
		}
		return max
	default:
		s := SizeOf(t)
		if s == 0 {
			return 1
		}
		return s
	}
}

func align(offset, alignment int64) int64 {
	if alignment <= 1 {
		return offset
	}
	rem := offset % alignment
	if rem == 0 {
		return offset
	}
	return offset + (alignment - rem)
}
