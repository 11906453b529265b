package env

import (
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/types"
)

// primitiveTypeNames is the fixed catalog of built-in scalar types bound
// into `__primitives__`. Order matches types.Kind's declaration order
// through KindVoid.
var primitiveTypeNames = []struct {
	name string
	kind types.Kind
}{
	{"Bool", types.KindBool},
	{"Int8", types.KindInt8}, {"Int16", types.KindInt16}, {"Int32", types.KindInt32}, {"Int64", types.KindInt64},
	{"UInt8", types.KindUInt8}, {"UInt16", types.KindUInt16}, {"UInt32", types.KindUInt32}, {"UInt64", types.KindUInt64},
	{"Float32", types.KindFloat32}, {"Float64", types.KindFloat64},
	{"Void", types.KindVoid},
}

// primopNames is the fixed catalog of primitive-operation identifiers bound
// into `__primitives__`, resolved at call sites by internal/primop's
// classification table rather than by any user-written overload.
var primopNames = []string{
	"TypeP", "TypeSize", "TypeAlignment", "CallDefinedP",
	"primitiveCopy",
	"boolNot",
	"numericEqualsP", "numericLesserP",
	"numericAdd", "numericSubtract", "numericMultiply", "numericDivide", "numericNegate",
	"integerRemainder", "integerShiftLeft", "integerShiftRight",
	"integerBitwiseAnd", "integerBitwiseOr", "integerBitwiseXor", "integerBitwiseNot",
	"numericConvert",
	"Pointer", "addressOf", "pointerDereference", "pointerEqualsP", "pointerLesserP",
	"pointerOffset", "pointerToInt", "intToPointer",
	"CodePointer", "CodePointerP", "makeCodePointer",
	"CCodePointer", "CCodePointerP", "makeCCodePointer",
	"pointerCast",
	"Array", "arrayRef",
	"Tuple", "TupleElementCount", "tupleRef", "tupleElements",
	"RecordP", "RecordFieldCount", "RecordFieldName", "recordFieldRef", "recordFieldRefByName", "recordFields",
	"VariantP", "VariantMemberIndex", "VariantMemberCount", "variantRepr",
	"Static", "StaticName", "staticIntegers",
	"EnumP", "enumToInt", "intToEnum",
	"IdentifierSize", "IdentifierConcat", "IdentifierSlice",
}

// primopHolder is the Object bound to a primop name: the types package has
// no business knowing about primop semantics (leaf-package discipline), so
// this is just a marker the analyzer/codegen switch on by Name.
type primopHolder struct{ Name string }

// NewPrimitivesModule synthesizes `__primitives__`: every scalar type
// name bound to its canonical *types.Type, and every primop name bound to
// a primopHolder marker, all public.
func NewPrimitivesModule(reg *types.Registry) *ModuleHolder {
	m := newModuleHolder("__primitives__", &ast.Module{DottedName: "__primitives__"})
	for _, p := range primitiveTypeNames {
		m.BindPrivate(p.name, reg.Primitive(p.kind), true)
	}
	for _, name := range primopNames {
		m.BindPrivate(name, &primopHolder{Name: name}, true)
	}
	m.loaded = true
	return m
}

// PrimopName reports the primop name obj refers to, if it is one.
func PrimopName(obj Object) (string, bool) {
	p, ok := obj.(*primopHolder)
	if !ok {
		return "", false
	}
	return p.Name, true
}
