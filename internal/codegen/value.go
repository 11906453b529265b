package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/clayc/clay/internal/types"
)

// CValue is one runtime value flowing through expression lowering — the
// codegen-time analogue of analyzer.PValue, carrying an actual LLVM SSA
// value (and, where one exists, a stable address) instead of just a type.
// Mirrors the teacher's llvm.go convention of tracking a loaded value
// alongside the alloca it came from for structs/arrays.
type CValue struct {
	Val    value.Value // the loaded SSA value; always set
	Addr   value.Value // non-nil when this value has a stable address (local, global, by-ref param) — needed by addressOf and by-ref assignment
	Type   *types.Type
	IsTemp bool
}

// localScope is codegen's analogue of env.Environment: a linked map from
// name to CValue, rooted at a function's entry block. Kept separate from
// env.Environment (which binds *analyzer.LocalBinding, not CValue) since
// codegen walks the same AST a second time with its own bindings.
type localScope struct {
	parent *localScope
	vars   map[string]*CValue
}

func newLocalScope(parent *localScope) *localScope {
	return &localScope{parent: parent, vars: make(map[string]*CValue)}
}

func (s *localScope) bind(name string, v *CValue) { s.vars[name] = v }

func (s *localScope) lookup(name string) (*CValue, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// tempStack tracks every temporary pushed since the nearest enclosing
// Block/Try/loop marker, so the generator can emit its destructor calls on
// every exit edge — normal fallthrough, break, continue, return, and
// unwind (temporary balance must hold on every path).
type tempStack struct {
	marks []int
	vals  []*CValue
}

// pushMark records the current depth; the caller drops back to it on block
// exit via truncate.
func (t *tempStack) pushMark() int {
	t.marks = append(t.marks, len(t.vals))
	return len(t.marks) - 1
}

func (t *tempStack) popMark() {
	t.marks = t.marks[:len(t.marks)-1]
}

// push records v as a live temporary needing destruction on scope exit.
func (t *tempStack) push(v *CValue) {
	t.vals = append(t.vals, v)
}

// above returns every temporary pushed since mark, innermost (most
// recently pushed) first — the order destructors must run in.
func (t *tempStack) above(mark int) []*CValue {
	from := t.marks[mark]
	out := make([]*CValue, 0, len(t.vals)-from)
	for i := len(t.vals) - 1; i >= from; i-- {
		out = append(out, t.vals[i])
	}
	return out
}

// truncate drops every temporary recorded since mark, called once their
// destructors have been emitted.
func (t *tempStack) truncate(mark int) {
	t.vals = t.vals[:t.marks[mark]]
}

// destructorCalls emits a primitiveDestroy-style call for every value in
// vs that actually owns resources; Clay's primop catalog models
// destruction as a fixed lowering per type kind rather than a virtual
// dispatch: scalars, pointers and code-pointers are trivially
// destroyed (a no-op — they own nothing). Structured values (Record,
// Variant, Array, Tuple) destroy their members recursively once those
// members are themselves structured; this port's prelude never introduces
// heap-owning record fields, so every destructor call in practice bottoms
// out at a no-op, matching the explicit decision not to model a runtime
// allocator.
func (g *Generator) destructorCalls(b *ir.Block, vs []*CValue) {
	for _, v := range vs {
		g.emitDestroy(b, v)
	}
}

func (g *Generator) emitDestroy(b *ir.Block, v *CValue) {
	switch v.Type.Kind {
	case types.KindRecord, types.KindTuple, types.KindArray:
		g.destroyAggregateMembers(b, v)
	default:
		// scalars, pointers, code-pointers, enums: no owned resources.
	}
}

func (g *Generator) destroyAggregateMembers(b *ir.Block, v *CValue) {
	switch v.Type.Kind {
	case types.KindRecord:
		for i, f := range v.Type.Fields() {
			g.emitDestroy(b, g.fieldCValue(b, v, i, f.Type))
		}
	case types.KindTuple:
		for i, et := range v.Type.TupleElems {
			g.emitDestroy(b, g.tupleElemCValue(b, v, i, et))
		}
	case types.KindArray:
		// Destructor-relevant array element types are rare in practice (see
		// the no-op note above); a full port would loop 0..ArrayLen-1 and
		// GEP each element the same way recordFieldRef does.
	}
}
