package analyzer

import (
	"fmt"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
	"github.com/clayc/clay/internal/pattern"
	"github.com/clayc/clay/internal/types"
)

// Resolver implements pattern-based overload resolution: for one callable
// (a procedure, or a type being invoked through its own attached
// overloads), it scans candidates in
// priority order, unifies each one's formal patterns against the argument
// shape, checks tempness and predicate guards, and memoizes the winner —
// plus its inferred return shape — in an invoke-entry keyed by (callable,
// argument shape), exactly as every other client of a resolved call
// (codegen, later invocations with the same shape) expects to find it.
type Resolver struct {
	entries map[invokeKey]*invokeEntry
}

type invokeEntry struct {
	overload  *ast.OverloadDef
	result    MultiPValue
	resolving bool
}

type invokeKey struct {
	callable any
	shape    string
}

func newResolver() *Resolver {
	return &Resolver{entries: make(map[invokeKey]*invokeEntry)}
}

func shapeKey(args []PValue) string {
	key := ""
	for _, a := range args {
		key += fmt.Sprintf("%p:%v,", a.Type, a.IsTemp)
	}
	return key
}

// ResolveByName looks up name (a prelude desugaring target, or an ordinary
// call-by-name) in scope and resolves it like any other call (every
// desugaring bottoms out here).
func (r *Resolver) ResolveByName(a *Analyzer, scope *env.Environment, name string, args []PValue, at diag.Pos) (MultiPValue, error) {
	obj, ok := scope.Lookup(name)
	if !ok {
		return nil, a.Locs.Errorf(diag.KindName, "undefined name %q", name)
	}
	proc, ok := obj.(*ast.ProcedureDef)
	if !ok {
		return nil, a.Locs.Errorf(diag.KindOverload, "%q does not name a procedure", name)
	}
	return r.Resolve(a, scope, proc, args, at)
}

// Resolve implements overload resolution for callable against args: it is a
// *ast.ProcedureDef's or *types.Type's attached overload list that supplies
// candidates, scanned in the order they are stored (most-recently-declared
// first, per ast.ProcedureDef.Overloads and Registry.attachOverloads — see
// types.Registry.RegisterTypeOverload's note on retroactivity).
func (r *Resolver) Resolve(a *Analyzer, scope *env.Environment, callable any, args []PValue, at diag.Pos) (MultiPValue, error) {
	key := invokeKey{callable: callable, shape: shapeKey(args)}
	if e, ok := r.entries[key]; ok {
		if e.resolving {
			return nil, a.Locs.Errorf(diag.KindOverload,
				"%s's return type depends on its own call — declare it explicitly", callableName(callable))
		}
		return e.result, nil
	}

	candidates := overloadsOf(callable)
	if len(candidates) == 0 {
		return nil, a.Locs.Errorf(diag.KindOverload, "%s has no overloads", callableName(callable))
	}

	var winner *ast.OverloadDef
	var candScope *env.Environment
	var lastErr error
	for _, o := range candidates {
		cs, err := tryCandidate(a, scope, o, args)
		if err != nil {
			lastErr = err
			continue
		}
		winner, candScope = o, cs
		break
	}
	if winner == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("no candidates")
		}
		return nil, a.Locs.Errorf(diag.KindOverload, "no overload of %s matches (%s): %v",
			callableName(callable), shapeDescription(args), lastErr)
	}

	entry := &invokeEntry{overload: winner, resolving: true}
	r.entries[key] = entry

	pop := a.Locs.PushFrame(diag.Frame{Callable: callableName(callable), ArgTypes: argTypeNames(args), At: at})
	result, err := resultShapeOf(a, candScope, winner)
	pop()
	if err != nil {
		delete(r.entries, key)
		return nil, err
	}
	entry.resolving = false
	entry.result = result
	return result, nil
}

// ResolvedOverload returns the overload the resolver picked the last time
// Resolve(callable, args) was called with this exact argument shape —
// codegen re-derives the same (callable, args) pair while walking the AST
// a second time and uses this to find the candidate whose body (or
// inline-LLVM template) it must emit, rather than re-deciding resolution
// itself.
func (r *Resolver) ResolvedOverload(callable any, args []PValue) (*ast.OverloadDef, bool) {
	e, ok := r.entries[invokeKey{callable: callable, shape: shapeKey(args)}]
	if !ok || e.resolving {
		return nil, false
	}
	return e.overload, true
}

func overloadsOf(callable any) []*ast.OverloadDef {
	switch v := callable.(type) {
	case *ast.ProcedureDef:
		return v.Overloads
	case *types.Type:
		return v.AttachedOverloads
	default:
		return nil
	}
}

func callableName(callable any) string {
	switch v := callable.(type) {
	case *ast.ProcedureDef:
		return v.Name.Name
	case *types.Type:
		return types.Name(v)
	default:
		return fmt.Sprintf("%v", callable)
	}
}

func argTypeNames(args []PValue) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = types.Name(a.Type)
	}
	return out
}

func shapeDescription(args []PValue) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		tense := "temp"
		if !a.IsTemp {
			tense = "lval"
		}
		s += fmt.Sprintf("%s:%s", types.Name(a.Type), tense)
	}
	return s
}

// tryCandidate attempts to unify o's formal parameters against args inside
// a fresh child of scope (pre-seeded with one unbound pattern.Cell per
// identifier o's patterns reference that scope itself cannot already
// resolve — pattern variables). It returns a non-nil error, not a
// CompileError, on an ordinary match failure: callers use it to move on to
// the next candidate rather than abort resolution.
func tryCandidate(a *Analyzer, scope *env.Environment, o *ast.OverloadDef, args []PValue) (*env.Environment, error) {
	fixed := len(o.Params)
	switch {
	case o.VarParam == nil && len(args) != fixed:
		return nil, fmt.Errorf("expects %d argument(s), got %d", fixed, len(args))
	case o.VarParam != nil && len(args) < fixed:
		return nil, fmt.Errorf("expects at least %d argument(s), got %d", fixed, len(args))
	}

	candScope := newCandidateScope(scope, o)
	for i, p := range o.Params {
		if err := bindParam(a, candScope, p, args[i]); err != nil {
			return nil, err
		}
	}
	if o.VarParam != nil {
		for _, arg := range args[fixed:] {
			if err := bindParam(a, candScope, *o.VarParam, arg); err != nil {
				return nil, err
			}
		}
	}
	if o.Predicate != nil {
		obj, err := a.Eval.EvalObject(o.Predicate, candScope)
		if err != nil {
			return nil, err
		}
		ok, isBool := obj.(bool)
		if !isBool || !ok {
			return nil, fmt.Errorf("predicate guard not satisfied")
		}
	}
	return candScope, nil
}

// newCandidateScope pre-registers a pattern.Cell for every identifier o's
// parameter/predicate/return-type patterns mention that scope cannot
// already resolve on its own — those are exactly the pattern's free
// variables; anything scope already knows (a primitive, a
// previously-declared record, a type-construction keyword like "Pointer")
// is left to resolve normally during unification.
func newCandidateScope(scope *env.Environment, o *ast.OverloadDef) *env.Environment {
	names := make(map[string]bool)
	for _, p := range o.Params {
		if p.TypePat != nil {
			collectIdentNames(p.TypePat, names)
		}
	}
	if o.VarParam != nil && o.VarParam.TypePat != nil {
		collectIdentNames(o.VarParam.TypePat, names)
	}
	if o.Predicate != nil {
		collectIdentNames(o.Predicate, names)
	}
	for _, rd := range o.ReturnDecls {
		collectIdentNames(rd.Type, names)
	}

	child := scope.Child()
	for name := range names {
		if _, ok := scope.Lookup(name); ok {
			continue
		}
		child.Bind(name, pattern.NewCell(&ast.Ident{Name: name}))
	}
	return child
}

func collectIdentNames(e ast.Expr, out map[string]bool) {
	switch n := e.(type) {
	case *ast.NameRef:
		out[n.Name.Name] = true
	case *ast.IndexExpr:
		collectIdentNames(n.Object, out)
		for _, a := range n.Args {
			collectIdentNames(a, out)
		}
	case *ast.TupleExpr:
		for _, el := range n.Elements {
			collectIdentNames(el, out)
		}
	case *ast.Call:
		collectIdentNames(n.Callee, out)
		for _, a := range n.Args {
			collectIdentNames(a, out)
		}
	case *ast.FieldRef:
		collectIdentNames(n.Object, out)
	case *ast.StaticExpr:
		collectIdentNames(n.Body, out)
	case *ast.And:
		collectIdentNames(n.Left, out)
		collectIdentNames(n.Right, out)
	case *ast.Or:
		collectIdentNames(n.Left, out)
		collectIdentNames(n.Right, out)
	case *ast.Unpack:
		collectIdentNames(n.Operand, out)
	case *ast.Dispatch:
		collectIdentNames(n.Operand, out)
	}
}

func bindParam(a *Analyzer, candScope *env.Environment, p ast.Parameter, arg PValue) error {
	if err := checkTempness(p, arg); err != nil {
		return err
	}
	if p.IsStatic {
		if arg.Type.Kind != types.KindStatic {
			return fmt.Errorf("parameter %s requires a static argument", p.Name.Name)
		}
		if p.TypePat != nil {
			if err := pattern.UnifyValue(p.TypePat, arg.Type.StaticObj, candScope, a.Eval); err != nil {
				return err
			}
		}
		candScope.Bind(p.Name.Name, arg.Type.StaticObj)
		return nil
	}
	if p.TypePat != nil {
		if err := pattern.UnifyType(p.TypePat, arg.Type, candScope, a.Eval); err != nil {
			return err
		}
	}
	candScope.Bind(p.Name.Name, &LocalBinding{Type: arg.Type, IsTemp: arg.IsTemp})
	return nil
}

func checkTempness(p ast.Parameter, arg PValue) error {
	switch p.Tempness {
	case ast.TempRValue:
		if !arg.IsTemp {
			return fmt.Errorf("parameter %s requires a temporary argument", p.Name.Name)
		}
	case ast.TempLValue:
		if arg.IsTemp {
			return fmt.Errorf("parameter %s requires a non-temporary (lvalue) argument", p.Name.Name)
		}
	}
	return nil
}

// resultShapeOf determines the overload's return shape: its declared
// ReturnDecls if any, evaluated in the bound candidate scope so pattern
// variables resolved during unification (e.g. a return type of `T` bound
// from a parameter) are visible; otherwise inferred by analyzing its body
// — required for every ordinary overload, since Clay lets a
// procedure's return type default to whatever its `return` statements
// agree on.
func resultShapeOf(a *Analyzer, candScope *env.Environment, o *ast.OverloadDef) (MultiPValue, error) {
	if len(o.ReturnDecls) > 0 {
		out := make(MultiPValue, len(o.ReturnDecls))
		for i, rd := range o.ReturnDecls {
			t, err := a.Eval.EvalType(rd.Type, candScope)
			if err != nil {
				return nil, err
			}
			out[i] = PValue{Type: t, IsTemp: !rd.ByRef}
		}
		return out, nil
	}
	if o.Body == nil {
		return nil, a.Locs.Errorf(diag.KindType, "an overload with no declared return type must have a body to infer one from")
	}
	return a.analyzeBody(o.Body, candScope)
}
