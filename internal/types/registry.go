package types

import (
	"fmt"
	"strings"

	"github.com/clayc/clay/internal/ast"
)

// Registry owns every canonicalization map. It is carried explicitly as a
// value on compiler.Context rather than held in package globals, so
// independent compilations never share hash-consed types.
type Registry struct {
	prims       [KindVoid + 1]*Type
	pointers    map[*Type]*Type
	arrays      map[string]*Type
	tuples      map[string]*Type
	records     map[string]*Type
	variants    map[string]*Type
	codePtrs    map[string]*Type
	cCodePtrs   map[string]*Type
	statics     map[string]*Type

	// typeOverloads is the global list of every user overload whose target
	// pattern could name a type; populated during globals
	// installation, walked once per newly constructed type.
	typeOverloads []*ast.OverloadDef
}

// NewRegistry returns an empty registry with the primitive types
// pre-interned (they have no parameters, so there is nothing to hash-cons
// over).
func NewRegistry() *Registry {
	r := &Registry{
		pointers:  make(map[*Type]*Type),
		arrays:    make(map[string]*Type),
		tuples:    make(map[string]*Type),
		records:   make(map[string]*Type),
		variants:  make(map[string]*Type),
		codePtrs:  make(map[string]*Type),
		cCodePtrs: make(map[string]*Type),
		statics:   make(map[string]*Type),
	}
	for k := KindBool; k <= KindVoid; k++ {
		r.prims[k] = &Type{Kind: k}
	}
	return r
}

// RegisterTypeOverload adds a candidate to the global list consulted by
// every subsequent type construction. Overloads registered after a
// type was already constructed are NOT retroactively attached — the
// simpler, install-order-dependent semantics the original source's eager
// type-overload-initialization pass implies (see DESIGN.md).
func (r *Registry) RegisterTypeOverload(o *ast.OverloadDef) {
	r.typeOverloads = append([]*ast.OverloadDef{o}, r.typeOverloads...)
}

func (r *Registry) attachOverloads(t *Type, unifies func(pat any) bool) {
	for _, o := range r.typeOverloads {
		if unifies(o.TargetPattern) {
			t.AttachedOverloads = append(t.AttachedOverloads, o)
		}
	}
}

// Primitive returns the canonical instance for one of the primitive kinds.
func (r *Registry) Primitive(k Kind) *Type {
	if !k.IsPrimitive() {
		panic("types: Primitive called with a non-primitive kind")
	}
	return r.prims[k]
}

// Pointer returns the canonical Pointer(T), keyed by T's identity.
func (r *Registry) Pointer(elem *Type) *Type {
	if t, ok := r.pointers[elem]; ok {
		return t
	}
	t := &Type{Kind: KindPointer, Elem: elem}
	r.pointers[elem] = t
	return t
}

// Array returns the canonical Array(T, n), keyed by (T identity, n).
func (r *Registry) Array(elem *Type, n int64) *Type {
	key := fmt.Sprintf("%p:%d", elem, n)
	if t, ok := r.arrays[key]; ok {
		return t
	}
	t := &Type{Kind: KindArray, Elem: elem, ArrayLen: n}
	r.arrays[key] = t
	return t
}

// Tuple returns the canonical Tuple(T1, ..., Tn), keyed by the ordered
// sequence of element identities.
func (r *Registry) Tuple(elems []*Type) *Type {
	key := ptrKey(elems)
	if t, ok := r.tuples[key]; ok {
		return t
	}
	t := &Type{Kind: KindTuple, TupleElems: append([]*Type(nil), elems...)}
	r.tuples[key] = t
	return t
}

// Record returns the canonical Record(decl, params), keyed by (decl,
// ordered param values compared by ObjectEquals — approximated here by a
// %v-based key, sufficient since ValueHolder/Type/identity all render
// deterministically).
func (r *Registry) Record(decl *ast.RecordDef, params []any) *Type {
	key := fmt.Sprintf("%p:%s", decl, objKey(params))
	if t, ok := r.records[key]; ok {
		return t
	}
	t := &Type{Kind: KindRecord, RecordDecl: decl, Params: append([]any(nil), params...)}
	r.attachOverloads(t, func(pat any) bool { return true })
	r.records[key] = t
	return t
}

// Variant returns the canonical Variant(decl, params).
func (r *Registry) Variant(decl *ast.VariantDef, params []any) *Type {
	key := fmt.Sprintf("%p:%s", decl, objKey(params))
	if t, ok := r.variants[key]; ok {
		return t
	}
	t := &Type{Kind: KindVariant, VariantDecl: decl, Params: append([]any(nil), params...)}
	r.attachOverloads(t, func(pat any) bool { return true })
	r.variants[key] = t
	return t
}

// Enum returns the canonical Enum(decl); enums have no parameters so the
// declaration pointer alone is the key.
func (r *Registry) Enum(decl *ast.EnumDef) *Type {
	key := fmt.Sprintf("%p", decl)
	if t, ok := r.records[key]; ok {
		return t
	}
	t := &Type{Kind: KindEnum, EnumDecl: decl}
	r.records[key] = t
	return t
}

// CodePointer returns the canonical Clay-calling-convention function
// pointer type.
func (r *Registry) CodePointer(args []*Type, returnIsRef []bool, returns []*Type) *Type {
	key := ptrKey(args) + "|" + boolKey(returnIsRef) + "|" + ptrKey(returns)
	if t, ok := r.codePtrs[key]; ok {
		return t
	}
	t := &Type{Kind: KindCodePointer, ArgTypes: append([]*Type(nil), args...),
		ReturnIsRef: append([]bool(nil), returnIsRef...), ReturnTypes: append([]*Type(nil), returns...)}
	r.codePtrs[key] = t
	return t
}

// CCodePointer returns the canonical foreign-calling-convention pointer
// type, keyed by (conv, arg identities, varargs flag, return identity or
// none).
func (r *Registry) CCodePointer(conv ast.CallConv, args []*Type, varargs bool, ret *Type) *Type {
	key := fmt.Sprintf("%d:%s:%v:%p", conv, ptrKey(args), varargs, ret)
	if t, ok := r.cCodePtrs[key]; ok {
		return t
	}
	t := &Type{Kind: KindCCodePointer, Conv: conv, ArgTypes: append([]*Type(nil), args...), VarArgs: varargs, ReturnType: ret}
	r.cCodePtrs[key] = t
	return t
}

// Static returns the canonical Static(obj), keyed by obj identity (with
// identifier objects being interned, so their pointer identity already
// reflects name identity).
func (r *Registry) Static(obj any) *Type {
	key := objKey([]any{obj})
	if t, ok := r.statics[key]; ok {
		return t
	}
	t := &Type{Kind: KindStatic, StaticObj: obj}
	r.statics[key] = t
	return t
}

func ptrKey(ts []*Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = fmt.Sprintf("%p", t)
	}
	return strings.Join(parts, ",")
}

func boolKey(bs []bool) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = fmt.Sprintf("%v", b)
	}
	return strings.Join(parts, ",")
}

func objKey(objs []any) string {
	parts := make([]string, len(objs))
	for i, o := range objs {
		switch v := o.(type) {
		case *ValueHolder:
			parts[i] = fmt.Sprintf("vh:%p:%x", v.Type, v.Bytes)
		case *Type:
			parts[i] = fmt.Sprintf("ty:%p", v)
		default:
			parts[i] = fmt.Sprintf("id:%p", o)
		}
	}
	return strings.Join(parts, ",")
}
