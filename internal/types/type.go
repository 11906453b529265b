// Package types implements the type registry: hash-consed
// constructors for every member of Clay's closed type sum, lazy
// field/member enumeration for records and variants, and LLVM type
// memoization.
package types

import (
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
)

// Kind discriminates the closed type sum.
type Kind int

const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindVoid
	KindPointer
	KindArray
	KindTuple
	KindRecord
	KindVariant
	KindEnum
	KindCodePointer
	KindCCodePointer
	KindStatic
)

func (k Kind) IsPrimitive() bool { return k <= KindVoid }

func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUInt64
}

func (k Kind) IsFloat() bool { return k == KindFloat32 || k == KindFloat64 }

func (k Kind) IsSigned() bool {
	return k == KindInt8 || k == KindInt16 || k == KindInt32 || k == KindInt64
}

// Type is a single, hash-consed instance of one member of the closed type
// sum. Two types with identical structure are pointer-identical: callers
// must only ever obtain *Type values from a Registry constructor, never
// by composite-literal construction.
type Type struct {
	Kind Kind

	// Pointer / Array
	Elem     *Type
	ArrayLen int64

	// Tuple
	TupleElems []*Type

	// Record / Variant — lazily resolved
	RecordDecl   *ast.RecordDef
	VariantDecl  *ast.VariantDef
	Params       []any // captured pattern-variable bindings, compared by ObjectEquals
	resolved     bool
	fields       []FieldInfo
	fieldIndex   map[string]int
	members      []*Type

	// Enum
	EnumDecl *ast.EnumDef

	// CodePointer
	ArgTypes    []*Type
	ReturnIsRef []bool
	ReturnTypes []*Type

	// CCodePointer
	Conv       ast.CallConv
	VarArgs    bool
	ReturnType *Type // nil for void

	// Static(obj)
	StaticObj any

	// Overloads attached to this type at construction time: every
	// user overload whose target pattern could name a type is unified
	// against each newly constructed type; matches are prepended here
	// (most-recently-added wins).
	AttachedOverloads []*ast.OverloadDef

	// cached LLVM lowering, filled in by internal/codegen on first use.
	LLVM any
}

// FieldInfo is one resolved record field.
type FieldInfo struct {
	Name string
	Type *Type
}

// EnsureFields resolves Fields/Members for a Record or Variant type on
// first query, by binding the declaration's pattern parameters to the
// captured Params in a fresh environment and evaluating each field or
// member type expression in it. resolve is supplied by the caller
// (internal/ceval, which knows how to bind an environment and evaluate a
// type expression) to avoid types importing ceval/env and creating an
// import cycle — the type registry only owns the cache, not the
// evaluation machinery.
func (t *Type) EnsureFields(at diag.Pos, resolve func() ([]FieldInfo, []*Type, error)) error {
	if t.resolved {
		return nil
	}
	if t.Kind != KindRecord && t.Kind != KindVariant {
		return diag.Internal(at, "EnsureFields called on non-record/variant type")
	}
	fields, members, err := resolve()
	if err != nil {
		return err
	}
	t.fields = fields
	t.members = members
	t.fieldIndex = make(map[string]int, len(fields))
	for i, f := range fields {
		t.fieldIndex[f.Name] = i
	}
	t.resolved = true
	return nil
}

// Fields returns a record's fields in declaration order. EnsureFields must
// have been called first.
func (t *Type) Fields() []FieldInfo { return t.fields }

// FieldIndex returns the declaration-order index of name, and whether it
// exists.
func (t *Type) FieldIndex(name string) (int, bool) {
	i, ok := t.fieldIndex[name]
	return i, ok
}

// Members returns a variant's ordered member types. EnsureFields must have
// been called first.
func (t *Type) Members() []*Type { return t.members }
