// Package pattern implements Clay's pattern engine: unification
// variables ("cells"), one-shot (non-backtracking) unification of a
// pattern against a type or a compile-time value, and the machinery for
// evaluating a pattern expression that is itself a type-constructor
// application (e.g. `Pointer[T]`, `Array[T, n]`).
//
// The engine is a leaf package: it knows nothing about environments or the
// compile-time evaluator. Both are supplied by the caller as small
// interfaces (Scope, Evaluator), satisfied respectively by internal/env's
// Environment and internal/ceval's Evaluator — this is the dependency
// inversion needed to break what would otherwise be a three-way import
// cycle between pattern, env, and ceval, all of which are mutually
// recursive in the original design (the source itself threads patterns,
// environments, and evaluation through each other via raw pointers).
package pattern

import (
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/types"
)

// Cell is a unification variable, optionally with a cached bound value
//. Binding is one-shot: once Bound is set it cannot be rebound
// to a different value within the same unification attempt.
type Cell struct {
	Name  *ast.Ident
	Bound any
	isSet bool
}

// NewCell returns a fresh, unbound cell for the given declaring identifier.
func NewCell(name *ast.Ident) *Cell { return &Cell{Name: name} }

// Bind sets the cell's value if unbound, or requires ObjectEquals against
// the existing binding if already bound.
func (c *Cell) Bind(obj any) bool {
	if !c.isSet {
		c.Bound = obj
		c.isSet = true
		return true
	}
	return types.ObjectEquals(c.Bound, obj)
}

// IsBound reports whether the cell has been bound.
func (c *Cell) IsBound() bool { return c.isSet }

// Scope is the minimal read interface a pattern needs from an environment:
// name lookup through whatever lexical chain the caller maintains.
type Scope interface {
	Lookup(name string) (any, bool)
}

// Evaluator is the minimal interface the pattern engine needs from the
// compile-time evaluator to reduce a pattern expression to a type or a
// value object.
type Evaluator interface {
	EvalType(e ast.Expr, scope Scope) (*types.Type, error)
	EvalObject(e ast.Expr, scope Scope) (any, error)
}

// UnifyPatternObj binds a fresh cell to obj, or (for an already-bound cell)
// requires ObjectEquals.
func UnifyPatternObj(c *Cell, obj any) error {
	if !c.Bind(obj) {
		return diag.New(diag.KindOverload, diag.Pos{}, "pattern cell %s: conflicting binding", c.Name.Name)
	}
	return nil
}

// cellRef reports whether e is a bare reference to an unbound pattern
// cell visible in scope — the case that terminates structural recursion
// by binding rather than evaluating.
func cellRef(e ast.Expr, scope Scope) (*Cell, bool) {
	ref, ok := e.(*ast.NameRef)
	if !ok {
		return nil, false
	}
	obj, ok := scope.Lookup(ref.Name.Name)
	if !ok {
		return nil, false
	}
	cell, ok := obj.(*Cell)
	return cell, ok
}

// UnifyType evaluates pat (possibly a type-constructor application) against
// target and binds any pattern cells it contains. Unification is
// one-shot: the first structural decomposition attempted is the only one
// tried, matching the source's lack of backtracking.
func UnifyType(pat ast.Expr, target *types.Type, scope Scope, ev Evaluator) error {
	if cell, ok := cellRef(pat, scope); ok {
		return UnifyPatternObj(cell, target)
	}

	if idx, ok := pat.(*ast.IndexExpr); ok {
		if ctor, ok := idx.Object.(*ast.NameRef); ok {
			switch ctor.Name.Name {
			case "Pointer":
				if target.Kind != types.KindPointer || len(idx.Args) != 1 {
					return mismatch(pat, target)
				}
				return UnifyType(idx.Args[0], target.Elem, scope, ev)
			case "Array":
				if target.Kind != types.KindArray || len(idx.Args) != 2 {
					return mismatch(pat, target)
				}
				if err := UnifyType(idx.Args[0], target.Elem, scope, ev); err != nil {
					return err
				}
				return unifyStaticInt(idx.Args[1], target.ArrayLen, scope, ev)
			case "Tuple":
				if target.Kind != types.KindTuple || len(idx.Args) != len(target.TupleElems) {
					return mismatch(pat, target)
				}
				for i, a := range idx.Args {
					if err := UnifyType(a, target.TupleElems[i], scope, ev); err != nil {
						return err
					}
				}
				return nil
			case "Static":
				if target.Kind != types.KindStatic || len(idx.Args) != 1 {
					return mismatch(pat, target)
				}
				if cell, ok := cellRef(idx.Args[0], scope); ok {
					return UnifyPatternObj(cell, target.StaticObj)
				}
				obj, err := ev.EvalObject(idx.Args[0], scope)
				if err != nil {
					return err
				}
				if !types.ObjectEquals(obj, target.StaticObj) {
					return mismatch(pat, target)
				}
				return nil
			}
		}
	}

	// Fallback: evaluate the pattern as an ordinary expression and require
	// the resulting type to be pointer-identical to target (canonicalization
	// guarantees this is a valid equality test).
	evaluated, err := ev.EvalType(pat, scope)
	if err != nil {
		return err
	}
	if evaluated != target {
		return mismatch(pat, target)
	}
	return nil
}

// UnifyValue unifies a pattern against a concrete compile-time value or
// static object, used for `static` formal arguments.
func UnifyValue(pat ast.Expr, val any, scope Scope, ev Evaluator) error {
	if cell, ok := cellRef(pat, scope); ok {
		return UnifyPatternObj(cell, val)
	}
	obj, err := ev.EvalObject(pat, scope)
	if err != nil {
		return err
	}
	if !types.ObjectEquals(obj, val) {
		return mismatch(pat, val)
	}
	return nil
}

func unifyStaticInt(pat ast.Expr, n int64, scope Scope, ev Evaluator) error {
	if cell, ok := cellRef(pat, scope); ok {
		return UnifyPatternObj(cell, n)
	}
	obj, err := ev.EvalObject(pat, scope)
	if err != nil {
		return err
	}
	m, ok := obj.(int64)
	if !ok || m != n {
		return diag.New(diag.KindType, pat.Pos(), "expected static integer %d", n)
	}
	return nil
}

func mismatch(pat ast.Expr, target any) error {
	return diag.New(diag.KindOverload, pat.Pos(), "pattern does not unify with %v", target)
}
