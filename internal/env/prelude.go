package env

import "github.com/clayc/clay/internal/ast"

// Operator desugaring targets: binary/unary/indexing surface forms stand
// for calls against one of these names, which resolve through the ordinary
// overload-resolution path like any other call, matching the source's own
// prelude-driven approach to operator overloading. Of these, the analyzer
// and codegen themselves issue only the FieldRef rewrite (PreludeFieldRef).
const (
	PreludeAdd          = "prelude_expr_add"
	PreludeSubtract     = "prelude_expr_subtract"
	PreludeMultiply     = "prelude_expr_multiply"
	PreludeDivide       = "prelude_expr_divide"
	PreludeRemainder    = "prelude_expr_remainder"
	PreludeNegate       = "prelude_expr_negate"
	PreludeEquals       = "prelude_expr_equalsP"
	PreludeNotEquals    = "prelude_expr_notEqualsP"
	PreludeLesser       = "prelude_expr_lesserP"
	PreludeLesserEq     = "prelude_expr_lesserEqualsP"
	PreludeGreater      = "prelude_expr_greaterP"
	PreludeGreaterEq    = "prelude_expr_greaterEqualsP"
	PreludeFieldRef     = "prelude_expr_fieldRef"
	PreludeIndex        = "prelude_expr_index"
	PreludeDereference  = "prelude_expr_dereference"
	PreludeAddressOf    = "prelude_expr_addressOf"
	PreludeNot          = "prelude_expr_not"
	PreludeAssign       = "prelude_expr_assign"
	PreludeDestroy      = "prelude_expr_destroy"
	PreludeInit         = "prelude_expr_init"
	PreludeInitCopy     = "prelude_expr_initCopy"
)

// PreludeByRef and PreludeStringConstant are the two non-operator prelude
// names called out by name: ByRef[T] is the record the analyzer wraps a
// `ref`-declared return type in, and StringConstant is the record a string
// literal is lowered to.
const (
	PreludeByRef           = "ByRef"
	PreludeStringConstant  = "StringConstant"
)

// binaryOperatorDesugar maps a surface binary operator spelling to its
// prelude call target; it is exposed through BinaryOperatorTarget, which
// internal/analyzer does not call.
var binaryOperatorDesugar = map[string]string{
	"+": PreludeAdd, "-": PreludeSubtract, "*": PreludeMultiply, "/": PreludeDivide, "%": PreludeRemainder,
	"==": PreludeEquals, "!=": PreludeNotEquals,
	"<": PreludeLesser, "<=": PreludeLesserEq, ">": PreludeGreater, ">=": PreludeGreaterEq,
}

// BinaryOperatorTarget reports the prelude call name a binary operator
// spelling desugars to.
func BinaryOperatorTarget(op string) (string, bool) {
	name, ok := binaryOperatorDesugar[op]
	return name, ok
}

// NewSyntheticPrelude builds a minimal in-memory prelude module sufficient
// for tests that exercise import resolution and operator desugaring
// without going through a real parser: every desugaring target name and
// ByRef/StringConstant bound to placeholder declarations. A real build
// loads `prelude.clay` through Loader instead, which shadows these with
// the genuine implementations.
func NewSyntheticPrelude() *ModuleHolder {
	m := newModuleHolder("prelude", &ast.Module{DottedName: "prelude"})

	names := []string{
		PreludeAdd, PreludeSubtract, PreludeMultiply, PreludeDivide, PreludeRemainder, PreludeNegate,
		PreludeEquals, PreludeNotEquals, PreludeLesser, PreludeLesserEq, PreludeGreater, PreludeGreaterEq,
		PreludeFieldRef, PreludeIndex, PreludeDereference, PreludeAddressOf, PreludeNot,
		PreludeAssign, PreludeDestroy, PreludeInit, PreludeInitCopy,
	}
	for _, name := range names {
		ident := &ast.Ident{Name: name}
		m.BindPrivate(name, &ast.ProcedureDef{Name: ident, Overloadable: true}, true)
	}

	byRefParam := &ast.Ident{Name: "T"}
	byRef := &ast.RecordDef{
		Name: &ast.Ident{Name: PreludeByRef},
		Params: []ast.Parameter{{Name: byRefParam, IsStatic: true}},
		Fields: []ast.FieldDef{{Name: &ast.Ident{Name: "ptr"}}},
	}
	m.BindPrivate(PreludeByRef, byRef, true)

	stringConstant := &ast.RecordDef{
		Name:   &ast.Ident{Name: PreludeStringConstant},
		Fields: []ast.FieldDef{{Name: &ast.Ident{Name: "data"}}, {Name: &ast.Ident{Name: "size"}}},
	}
	m.BindPrivate(PreludeStringConstant, stringConstant, true)

	m.loaded = true
	return m
}
