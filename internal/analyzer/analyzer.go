package analyzer

import (
	"fmt"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/ceval"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
	"github.com/clayc/clay/internal/pattern"
	"github.com/clayc/clay/internal/types"
)

// LocalBinding is what a VarStmt or Parameter binds into an Environment:
// a concrete (type, tempness) pair for an ordinary runtime value, as
// opposed to the static-object pvalue an env.ModuleHolder/type/procedure
// binding produces on lookup (the "identifier reference" rule).
type LocalBinding struct {
	Type   *types.Type
	IsTemp bool
}

// Analyzer produces, for each expression, a MultiPValue. It owns
// the per-node memoization cache and delegates every call/method
// invocation to its Resolver.
type Analyzer struct {
	Registry *types.Registry
	Eval     *ceval.Evaluator
	Locs     *diag.LocationStack
	Resolver *Resolver

	memo      map[exprMemoKey]MultiPValue
	dispatch  map[ast.Expr]bool          // nodes wrapped in `dispatch`
	closures  map[*ast.Lambda]*types.Type // lambda -> synthesized closure record type
}

type exprMemoKey struct {
	expr  ast.Expr
	scope *env.Environment
}

// New constructs an Analyzer sharing reg and ev with the rest of the
// compilation.
func New(reg *types.Registry, ev *ceval.Evaluator, locs *diag.LocationStack) *Analyzer {
	a := &Analyzer{
		Registry: reg,
		Eval:     ev,
		Locs:     locs,
		memo:     make(map[exprMemoKey]MultiPValue),
		dispatch: make(map[ast.Expr]bool),
		closures: make(map[*ast.Lambda]*types.Type),
	}
	a.Resolver = newResolver()
	return a
}

// ResetMemo drops cached analysis results, mirroring ceval's memo
// invalidation discipline for alias indexing / static-for unrolling
//.
func (a *Analyzer) ResetMemo() {
	a.memo = make(map[exprMemoKey]MultiPValue)
	a.Eval.ResetMemo()
}

// AnalyzeExpr is the single entry point for expression analysis.
func (a *Analyzer) AnalyzeExpr(e ast.Expr, scope *env.Environment) (MultiPValue, error) {
	key := exprMemoKey{e, scope}
	if v, ok := a.memo[key]; ok {
		return v, nil
	}
	v, err := a.analyzeExpr(e, scope)
	if err != nil {
		return nil, err
	}
	a.memo[key] = v
	return v, nil
}

func (a *Analyzer) analyzeExpr(e ast.Expr, scope *env.Environment) (MultiPValue, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return a.analyzeLiteral(n, scope)
	case *ast.NameRef:
		return a.analyzeNameRef(n, scope)
	case *ast.TupleExpr:
		return a.analyzeTuple(n, scope)
	case *ast.Call:
		return a.analyzeCall(n, scope)
	case *ast.FieldRef:
		return a.analyzeFieldRef(n, scope)
	case *ast.IndexExpr:
		return a.analyzeIndexingExpr(n, scope)
	case *ast.And:
		return a.analyzeAndOr(n.Left, n.Right, scope)
	case *ast.Or:
		return a.analyzeAndOr(n.Left, n.Right, scope)
	case *ast.Unpack:
		return a.AnalyzeExpr(n.Operand, scope)
	case *ast.Dispatch:
		a.dispatch[n] = true
		return a.AnalyzeExpr(n.Operand, scope)
	case *ast.StaticExpr:
		return a.analyzeStatic(n, scope)
	case *ast.Lambda:
		return a.analyzeLambda(n, scope)
	default:
		return nil, a.Locs.Errorf(diag.KindInternal, "unhandled expression form %T", e)
	}
}

// analyzeLiteral reports a primitive pvalue for every literal kind except
// string, which lowers to an instance of the prelude's StringConstant
// record — a call against its constructor overload, with the raw
// text and length packaged as static arguments, exactly like any other
// record literal.
func (a *Analyzer) analyzeLiteral(n *ast.Literal, scope *env.Environment) (MultiPValue, error) {
	var k types.Kind
	switch n.Kind {
	case ast.LitBool:
		k = types.KindBool
	case ast.LitChar:
		k = types.KindInt32
	case ast.LitString:
		return a.analyzeStringLiteral(n, scope)
	case ast.LitInt:
		k = integerKindForSuffix(n.Suffix)
	case ast.LitFloat:
		if n.Suffix == "f32" {
			k = types.KindFloat32
		} else {
			k = types.KindFloat64
		}
	default:
		return nil, a.Locs.Errorf(diag.KindInternal, "unknown literal kind %d", n.Kind)
	}
	return MultiPValue{{Type: a.Registry.Primitive(k), IsTemp: true}}, nil
}

func (a *Analyzer) analyzeStringLiteral(n *ast.Literal, scope *env.Environment) (MultiPValue, error) {
	args := []PValue{
		{Type: a.Registry.Static(n.Text), IsTemp: true},
		{Type: a.Registry.Static(int64(len(n.Text))), IsTemp: true},
	}
	return a.Resolver.ResolveByName(a, scope, env.PreludeStringConstant, args, n.Pos())
}

func integerKindForSuffix(suffix string) types.Kind {
	switch suffix {
	case "i8":
		return types.KindInt8
	case "i16":
		return types.KindInt16
	case "i32":
		return types.KindInt32
	case "i64":
		return types.KindInt64
	case "u8":
		return types.KindUInt8
	case "u16":
		return types.KindUInt16
	case "u32":
		return types.KindUInt32
	case "u64":
		return types.KindUInt64
	default:
		return types.KindInt32
	}
}

func (a *Analyzer) analyzeNameRef(n *ast.NameRef, scope *env.Environment) (MultiPValue, error) {
	obj, ok := scope.Lookup(n.Name.Name)
	if !ok {
		return nil, a.Locs.Errorf(diag.KindName, "undefined name %q", n.Name.Name)
	}
	if lb, ok := obj.(*LocalBinding); ok {
		return MultiPValue{{Type: lb.Type, IsTemp: lb.IsTemp}}, nil
	}
	if cell, ok := obj.(*pattern.Cell); ok {
		if !cell.IsBound() {
			return nil, a.Locs.Errorf(diag.KindOverload, "pattern variable %q used before it is bound", n.Name.Name)
		}
		return MultiPValue{{Type: a.Registry.Static(cell.Bound), IsTemp: true}}, nil
	}
	return MultiPValue{{Type: a.Registry.Static(obj), IsTemp: true}}, nil
}

func (a *Analyzer) analyzeTuple(n *ast.TupleExpr, scope *env.Environment) (MultiPValue, error) {
	var out MultiPValue
	for _, el := range n.Elements {
		mv, err := a.AnalyzeExpr(el, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, mv...)
	}
	return out, nil
}

func (a *Analyzer) analyzeAndOr(left, right ast.Expr, scope *env.Environment) (MultiPValue, error) {
	lmv, err := a.AnalyzeExpr(left, scope)
	if err != nil {
		return nil, err
	}
	if lv, ok := lmv.Single(); !ok || lv.Type.Kind != types.KindBool {
		return nil, a.Locs.Errorf(diag.KindType, "operand of and/or must be a single Bool value")
	}
	rmv, err := a.AnalyzeExpr(right, scope)
	if err != nil {
		return nil, err
	}
	if rv, ok := rmv.Single(); !ok || rv.Type.Kind != types.KindBool {
		return nil, a.Locs.Errorf(diag.KindType, "operand of and/or must be a single Bool value")
	}
	return MultiPValue{{Type: a.Registry.Primitive(types.KindBool), IsTemp: true}}, nil
}

func (a *Analyzer) analyzeStatic(n *ast.StaticExpr, scope *env.Environment) (MultiPValue, error) {
	obj, err := a.Eval.EvalObject(n.Body, scope)
	if err != nil {
		return nil, err
	}
	return MultiPValue{{Type: a.Registry.Static(obj), IsTemp: true}}, nil
}

// analyzeFieldRef resolves a `.field` access: statically against a module
// holder's symbol table, or by desugaring to a call against the prelude's
// `fieldRef` procedure otherwise.
func (a *Analyzer) analyzeFieldRef(n *ast.FieldRef, scope *env.Environment) (MultiPValue, error) {
	if ref, ok := n.Object.(*ast.NameRef); ok {
		if obj, ok := scope.Lookup(ref.Name.Name); ok {
			if mod, ok := obj.(*env.ModuleHolder); ok {
				resolved, err := mod.ResolveChecked(n.Pos(), n.Field.Name)
				if err != nil {
					return nil, err
				}
				if lb, ok := resolved.(*LocalBinding); ok {
					return MultiPValue{{Type: lb.Type, IsTemp: lb.IsTemp}}, nil
				}
				return MultiPValue{{Type: a.Registry.Static(resolved), IsTemp: true}}, nil
			}
		}
	}
	objMV, err := a.AnalyzeExpr(n.Object, scope)
	if err != nil {
		return nil, err
	}
	objPV, ok := objMV.Single()
	if !ok {
		return nil, a.Locs.Errorf(diag.KindType, "field reference target must be a single value")
	}
	fieldArg := PValue{Type: a.Registry.Static(n.Field), IsTemp: true}
	return a.Resolver.ResolveByName(a, scope, env.PreludeFieldRef, []PValue{objPV, fieldArg}, n.Pos())
}

// analyzeCall implements the call-analysis rules: code-pointer callees return
// their declared vector directly; Static(obj) callees dispatch on obj's
// kind through the resolver (or, for a primop, through the fixed catalog
// in analyzePrimopCall).
func (a *Analyzer) analyzeCall(n *ast.Call, scope *env.Environment) (MultiPValue, error) {
	calleeMV, err := a.AnalyzeExpr(n.Callee, scope)
	if err != nil {
		return nil, err
	}
	calleePV, ok := calleeMV.Single()
	if !ok {
		return nil, a.Locs.Errorf(diag.KindType, "call target must be a single value")
	}

	args, err := a.analyzeArgs(n.Args, scope)
	if err != nil {
		return nil, err
	}

	if calleePV.Type.Kind == types.KindCodePointer {
		return codePointerReturnVector(calleePV.Type), nil
	}
	if calleePV.Type.Kind != types.KindStatic {
		return nil, a.Locs.Errorf(diag.KindOverload, "cannot call a non-code-pointer, non-static value")
	}

	obj := calleePV.Type.StaticObj
	if name, ok := env.PrimopName(obj); ok {
		return a.analyzePrimopCall(n, name, args)
	}
	switch v := obj.(type) {
	case *ast.ProcedureDef:
		return a.Resolver.Resolve(a, scope, v, args, n.Pos())
	case *types.Type:
		return a.Resolver.Resolve(a, scope, v, args, n.Pos())
	case *ast.RecordDef:
		return a.Resolver.Resolve(a, scope, a.Registry.Record(v, nil), args, n.Pos())
	case *ast.VariantDef:
		return a.Resolver.Resolve(a, scope, a.Registry.Variant(v, nil), args, n.Pos())
	default:
		return nil, a.Locs.Errorf(diag.KindOverload, "%T is not callable", obj)
	}
}

func (a *Analyzer) analyzeArgs(exprs []ast.Expr, scope *env.Environment) ([]PValue, error) {
	var out []PValue
	for _, e := range exprs {
		mv, err := a.AnalyzeExpr(e, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, mv...)
	}
	return out, nil
}

func codePointerReturnVector(t *types.Type) MultiPValue {
	out := make(MultiPValue, len(t.ReturnTypes))
	for i, rt := range t.ReturnTypes {
		isTemp := true
		if i < len(t.ReturnIsRef) {
			isTemp = !t.ReturnIsRef[i]
		}
		out[i] = PValue{Type: rt, IsTemp: isTemp}
	}
	return out
}

// analyzeIndexingExpr handles both type-constructor application
// (Pointer[T], Array[T,n], Tuple[...], Static(x), a record/variant/alias
// name) and ordinary array/tuple indexing: the type-construction primops
// are consumed by the indexing syntax right here.
func (a *Analyzer) analyzeIndexingExpr(n *ast.IndexExpr, scope *env.Environment) (MultiPValue, error) {
	if isTypeConstructorForm(n, scope) {
		obj, err := a.Eval.EvalObject(n, scope)
		if err != nil {
			return nil, err
		}
		return MultiPValue{{Type: a.Registry.Static(obj), IsTemp: true}}, nil
	}

	objMV, err := a.AnalyzeExpr(n.Object, scope)
	if err != nil {
		return nil, err
	}
	objPV, ok := objMV.Single()
	if !ok {
		return nil, a.Locs.Errorf(diag.KindType, "index target must be a single value")
	}

	switch objPV.Type.Kind {
	case types.KindArray:
		if len(n.Args) != 1 {
			return nil, a.Locs.Errorf(diag.KindOverload, "array indexing takes exactly one argument")
		}
		idxMV, err := a.AnalyzeExpr(n.Args[0], scope)
		if err != nil {
			return nil, err
		}
		idxPV, ok := idxMV.Single()
		if !ok || !idxPV.Type.Kind.IsInteger() {
			return nil, a.Locs.Errorf(diag.KindType, "array index must be a single integer value")
		}
		return MultiPValue{{Type: objPV.Type.Elem, IsTemp: false}}, nil
	case types.KindTuple:
		if len(n.Args) != 1 {
			return nil, a.Locs.Errorf(diag.KindOverload, "tuple indexing takes exactly one argument")
		}
		idx, err := a.Eval.EvalObject(n.Args[0], scope)
		if err != nil {
			return nil, err
		}
		i, ok := idx.(int64)
		if !ok || i < 0 || int(i) >= len(objPV.Type.TupleElems) {
			return nil, a.Locs.Errorf(diag.KindType, "tuple index must be a static integer within range")
		}
		return MultiPValue{{Type: objPV.Type.TupleElems[i], IsTemp: false}}, nil
	case types.KindPointer:
		if len(n.Args) != 1 {
			return nil, a.Locs.Errorf(diag.KindOverload, "pointer indexing takes exactly one argument")
		}
		if _, err := a.AnalyzeExpr(n.Args[0], scope); err != nil {
			return nil, err
		}
		return MultiPValue{{Type: objPV.Type, IsTemp: true}}, nil
	default:
		return nil, a.Locs.Errorf(diag.KindOverload, "%s does not support indexing", types.Name(objPV.Type))
	}
}

func isTypeConstructorForm(n *ast.IndexExpr, scope *env.Environment) bool {
	ref, ok := n.Object.(*ast.NameRef)
	if !ok {
		return false
	}
	switch ref.Name.Name {
	case "Pointer", "Array", "Tuple", "Static":
		return true
	}
	obj, ok := scope.Lookup(ref.Name.Name)
	if !ok {
		return false
	}
	switch obj.(type) {
	case *ast.AliasDef, *ast.RecordDef, *ast.VariantDef:
		return true
	default:
		return false
	}
}

// analyzeLambda rewrites a lambda on first visit into a synthesized
// closure record (one field per free variable that is a local) plus a
// `call` overload whose body is the lambda's own. n.Kind is not consulted:
// block and value lambdas alike get a field of the captured local's own
// type.
func (a *Analyzer) analyzeLambda(n *ast.Lambda, scope *env.Environment) (MultiPValue, error) {
	t, ok := a.closures[n]
	if !ok {
		decl := &ast.RecordDef{Name: &ast.Ident{Name: fmt.Sprintf("$closure%d", len(a.closures))}}
		var fields []types.FieldInfo
		for _, fv := range n.FreeVars {
			obj, ok := scope.Lookup(fv.Name)
			if !ok {
				return nil, a.Locs.Errorf(diag.KindName, "free variable %q not found in enclosing scope", fv.Name)
			}
			lb, ok := obj.(*LocalBinding)
			if !ok {
				continue // captures a static object (type/proc); no storage needed
			}
			decl.Fields = append(decl.Fields, ast.FieldDef{Name: fv})
			fields = append(fields, types.FieldInfo{Name: fv.Name, Type: lb.Type})
		}
		t = a.Registry.Record(decl, nil)
		if err := t.EnsureFields(n.Pos(), func() ([]types.FieldInfo, []*types.Type, error) {
			return fields, nil, nil
		}); err != nil {
			return nil, err
		}
		call := &ast.OverloadDef{
			Params: n.Params,
			Body:   &ast.Block{Stmts: n.Body},
		}
		t.AttachedOverloads = append(t.AttachedOverloads, call)
		a.closures[n] = t
	}
	return MultiPValue{{Type: t, IsTemp: true}}, nil
}

