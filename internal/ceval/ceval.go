// Package ceval implements the compile-time evaluator: reduction of
// a fixed subset of expression forms — literals, name references, tuple
// and type-constructor applications, alias indexing, and the
// compile-time-evaluable primop catalog — to a concrete *types.Type or
// compile-time value object, without emitting any code. It is the
// Evaluator internal/pattern's Scope-parameterized unification code calls
// back into.
package ceval

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/mewmew/float"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/pattern"
	"github.com/clayc/clay/internal/primop"
	"github.com/clayc/clay/internal/types"
)

// Evaluator reduces expressions to types or compile-time objects. It holds
// no mutable state beyond the type registry and a per-compilation memo
// cache, and is safe to share across every module of one compilation.
type Evaluator struct {
	Registry *types.Registry

	// memo caches the result of evaluating a given (expr, scope) pair,
	// keyed by pointer identity of both — cleared whenever a scope that
	// rebinds a cell (alias indexing, static-for unrolling) is entered,
	// since the same Expr node means something different in each such
	// scope (each instantiation gets a fresh environment).
	memo map[memoKey]any
}

type memoKey struct {
	expr  ast.Expr
	scope pattern.Scope
}

// NewEvaluator returns an Evaluator over reg, with an empty memo cache.
func NewEvaluator(reg *types.Registry) *Evaluator {
	return &Evaluator{Registry: reg, memo: make(map[memoKey]any)}
}

// ResetMemo drops every cached evaluation for scope and its descendants by
// clearing the whole cache — conservative, but correct: memoization here is
// an optimization over intra-scope repeat queries (e.g. a field type
// re-evaluated for each of several sibling fields sharing a scope), not a
// cross-instantiation cache, so clearing too eagerly never produces a wrong
// answer.
func (ev *Evaluator) ResetMemo() { ev.memo = make(map[memoKey]any) }

var _ pattern.Evaluator = (*Evaluator)(nil)

// EvalObject reduces e to a compile-time value: a *types.Type, a
// *types.ValueHolder, an *ast.Ident (for identifier-typed statics), an
// int64 (for a static integer or char), a bool, a float64, a string, a
// []any (for a tuple expression), or whatever object a name is bound to.
func (ev *Evaluator) EvalObject(e ast.Expr, scope pattern.Scope) (any, error) {
	if v, ok := ev.memo[memoKey{e, scope}]; ok {
		return v, nil
	}
	v, err := ev.evalObject(e, scope)
	if err != nil {
		return nil, err
	}
	ev.memo[memoKey{e, scope}] = v
	return v, nil
}

func (ev *Evaluator) evalObject(e ast.Expr, scope pattern.Scope) (any, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return ev.evalLiteral(n)
	case *ast.NameRef:
		return ev.evalNameRef(n, scope)
	case *ast.TupleExpr:
		elems := make([]any, len(n.Elements))
		for i, el := range n.Elements {
			v, err := ev.EvalObject(el, scope)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return elems, nil
	case *ast.IndexExpr:
		return ev.evalIndex(n, scope)
	case *ast.Call:
		return ev.evalCall(n, scope)
	case *ast.StaticExpr:
		return ev.EvalObject(n.Body, scope)
	default:
		return nil, diag.New(diag.KindStaticEval, e.Pos(), "expression is not compile-time evaluable")
	}
}

// EvalType reduces e to a *types.Type, erroring if it evaluates to a
// non-type compile-time object.
func (ev *Evaluator) EvalType(e ast.Expr, scope pattern.Scope) (*types.Type, error) {
	obj, err := ev.EvalObject(e, scope)
	if err != nil {
		return nil, err
	}
	t, ok := obj.(*types.Type)
	if !ok {
		return nil, diag.New(diag.KindType, e.Pos(), "expected a type, got %T", obj)
	}
	return t, nil
}

func (ev *Evaluator) evalLiteral(n *ast.Literal) (any, error) {
	switch n.Kind {
	case ast.LitBool:
		return n.Text == "true", nil
	case ast.LitChar:
		r := []rune(n.Text)
		if len(r) != 1 {
			return nil, diag.New(diag.KindStaticEval, n.Pos(), "malformed char literal %q", n.Text)
		}
		return int64(r[0]), nil
	case ast.LitString:
		return n.Text, nil
	case ast.LitInt:
		i, ok := new(big.Int).SetString(n.Text, 10)
		if !ok {
			return nil, diag.New(diag.KindStaticEval, n.Pos(), "malformed integer literal %q", n.Text)
		}
		return i.Int64(), nil
	case ast.LitFloat:
		switch n.Suffix {
		case "f32":
			f, err := float.Parse32(n.Text)
			if err != nil {
				return nil, diag.Wrap(err, diag.KindStaticEval, n.Pos(), "parsing float32 literal %q", n.Text)
			}
			return float64(f), nil
		default:
			f, err := float.Parse64(n.Text)
			if err != nil {
				return nil, diag.Wrap(err, diag.KindStaticEval, n.Pos(), "parsing float64 literal %q", n.Text)
			}
			return f, nil
		}
	default:
		return nil, diag.Internal(n.Pos(), "unknown literal kind %d", n.Kind)
	}
}

func (ev *Evaluator) evalNameRef(n *ast.NameRef, scope pattern.Scope) (any, error) {
	obj, ok := scope.Lookup(n.Name.Name)
	if !ok {
		return nil, diag.New(diag.KindName, n.Pos(), "undefined name %q", n.Name.Name)
	}
	if cell, ok := obj.(*pattern.Cell); ok {
		if !cell.IsBound() {
			return nil, diag.New(diag.KindStaticEval, n.Pos(), "pattern variable %q is unbound", n.Name.Name)
		}
		return cell.Bound, nil
	}
	if alias, ok := obj.(*ast.AliasDef); ok && len(alias.Params) == 0 {
		return ev.EvalObject(alias.Body, scope)
	}
	return obj, nil
}

// evalIndex evaluates a type-constructor or alias-indexing application,
// e.g. Pointer[T], Array[T, n], Tuple[T1, T2], or Name[args...] where Name
// is an alias, a record, or a variant declaration.
func (ev *Evaluator) evalIndex(n *ast.IndexExpr, scope pattern.Scope) (any, error) {
	ref, ok := n.Object.(*ast.NameRef)
	if !ok {
		return nil, diag.New(diag.KindStaticEval, n.Pos(), "index applied to non-constructor expression")
	}
	switch ref.Name.Name {
	case "Pointer":
		if len(n.Args) != 1 {
			return nil, diag.New(diag.KindType, n.Pos(), "Pointer takes exactly one argument")
		}
		elem, err := ev.EvalType(n.Args[0], scope)
		if err != nil {
			return nil, err
		}
		return ev.Registry.Pointer(elem), nil
	case "Array":
		if len(n.Args) != 2 {
			return nil, diag.New(diag.KindType, n.Pos(), "Array takes exactly two arguments")
		}
		elem, err := ev.EvalType(n.Args[0], scope)
		if err != nil {
			return nil, err
		}
		length, err := ev.evalStaticInt(n.Args[1], scope)
		if err != nil {
			return nil, err
		}
		return ev.Registry.Array(elem, length), nil
	case "Tuple":
		elems := make([]*types.Type, len(n.Args))
		for i, a := range n.Args {
			t, err := ev.EvalType(a, scope)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return ev.Registry.Tuple(elems), nil
	case "Static":
		if len(n.Args) != 1 {
			return nil, diag.New(diag.KindType, n.Pos(), "Static takes exactly one argument")
		}
		obj, err := ev.EvalObject(n.Args[0], scope)
		if err != nil {
			return nil, err
		}
		return ev.Registry.Static(obj), nil
	}

	obj, ok := scope.Lookup(ref.Name.Name)
	if !ok {
		return nil, diag.New(diag.KindName, n.Pos(), "undefined name %q", ref.Name.Name)
	}
	switch decl := obj.(type) {
	case *ast.AliasDef:
		return ev.evalAliasIndex(decl, n.Args, scope)
	case *ast.RecordDef:
		params, err := ev.evalParams(n.Args, scope)
		if err != nil {
			return nil, err
		}
		return ev.Registry.Record(decl, params), nil
	case *ast.VariantDef:
		params, err := ev.evalParams(n.Args, scope)
		if err != nil {
			return nil, err
		}
		return ev.Registry.Variant(decl, params), nil
	default:
		return nil, diag.New(diag.KindType, n.Pos(), "%q is not indexable", ref.Name.Name)
	}
}

func (ev *Evaluator) evalParams(args []ast.Expr, scope pattern.Scope) ([]any, error) {
	params := make([]any, len(args))
	for i, a := range args {
		v, err := ev.EvalObject(a, scope)
		if err != nil {
			return nil, err
		}
		params[i] = v
	}
	return params, nil
}

// evalAliasIndex opens a fresh environment binding decl's parameters to the
// evaluated arguments and evaluates Body in it. The caller supplies
// the enclosing scope only to resolve free names in the argument
// expressions themselves; the alias body sees only its own parameters plus
// whatever the concrete Scope implementation chains to (e.g.
// *env.Environment walking to its module).
func (ev *Evaluator) evalAliasIndex(decl *ast.AliasDef, args []ast.Expr, scope pattern.Scope) (any, error) {
	if len(args) != len(decl.Params) {
		return nil, diag.New(diag.KindType, decl.Pos(), "alias %s expects %d arguments, got %d", decl.Name.Name, len(decl.Params), len(args))
	}
	bound := make(map[string]any, len(args))
	for i, p := range decl.Params {
		v, err := ev.EvalObject(args[i], scope)
		if err != nil {
			return nil, err
		}
		bound[p.Name] = v
	}
	ev.ResetMemo()
	return ev.EvalObject(decl.Body, &aliasScope{bound: bound, parent: scope})
}

// aliasScope is always passed by pointer: pattern.Scope values end up as
// memoKey map keys, and a map-valued struct stored by value in an interface
// is not comparable.
type aliasScope struct {
	bound  map[string]any
	parent pattern.Scope
}

func (s *aliasScope) Lookup(name string) (any, bool) {
	if v, ok := s.bound[name]; ok {
		return v, true
	}
	return s.parent.Lookup(name)
}

func (ev *Evaluator) evalStaticInt(e ast.Expr, scope pattern.Scope) (int64, error) {
	obj, err := ev.EvalObject(e, scope)
	if err != nil {
		return 0, err
	}
	n, ok := obj.(int64)
	if !ok {
		return 0, diag.New(diag.KindType, e.Pos(), "expected a static integer")
	}
	return n, nil
}

// evalCall handles invocation of the compile-time-evaluable primop catalog
// — the only call form ceval itself performs; ordinary
// procedure invocation is the analyzer/resolver's job, not ceval's.
func (ev *Evaluator) evalCall(n *ast.Call, scope pattern.Scope) (any, error) {
	ref, ok := n.Callee.(*ast.NameRef)
	if !ok {
		return nil, diag.New(diag.KindStaticEval, n.Pos(), "compile-time call target must be a name")
	}
	op, ok := primop.Lookup(ref.Name.Name)
	if !ok || !op.CompileTimeEvaluable() {
		return nil, diag.New(diag.KindStaticEval, n.Pos(), "%q is not compile-time evaluable", ref.Name.Name)
	}
	args := make([]any, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.EvalObject(a, scope)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return ev.applyPrimop(n, op.Name, args)
}

func (ev *Evaluator) applyPrimop(n *ast.Call, name string, args []any) (any, error) {
	switch name {
	case "TypeP":
		_, ok := args[0].(*types.Type)
		return ok, nil
	case "TypeSize":
		t, ok := args[0].(*types.Type)
		if !ok {
			return nil, diag.New(diag.KindType, n.Pos(), "TypeSize expects a type")
		}
		return types.SizeOf(t), nil
	case "TypeAlignment":
		t, ok := args[0].(*types.Type)
		if !ok {
			return nil, diag.New(diag.KindType, n.Pos(), "TypeAlignment expects a type")
		}
		return types.AlignOf(t), nil
	case "StaticName":
		t, ok := args[0].(*types.Type)
		if ok && t.Kind == types.KindStatic {
			return nameOfStaticObj(t.StaticObj), nil
		}
		return nameOfStaticObj(args[0]), nil
	case "staticIntegers":
		lo, ok1 := args[0].(int64)
		hi, ok2 := args[1].(int64)
		if !ok1 || !ok2 {
			return nil, diag.New(diag.KindType, n.Pos(), "staticIntegers expects two static integers")
		}
		out := make([]any, 0, hi-lo)
		for i := lo; i < hi; i++ {
			out = append(out, i)
		}
		return out, nil
	case "numericAdd", "numericSubtract", "numericMultiply", "numericDivide", "numericNegate",
		"integerRemainder", "integerShiftLeft", "integerShiftRight",
		"integerBitwiseAnd", "integerBitwiseOr", "integerBitwiseXor", "integerBitwiseNot",
		"numericEqualsP", "numericLesserP", "boolNot":
		return applyArith(n, name, args)
	default:
		return nil, diag.New(diag.KindStaticEval, n.Pos(), "%q has no compile-time implementation", name)
	}
}

func nameOfStaticObj(obj any) string {
	switch v := obj.(type) {
	case *ast.Ident:
		return v.Name
	case *types.Type:
		return types.Name(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
