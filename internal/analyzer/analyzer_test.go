package analyzer

import (
	"testing"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/ceval"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
	"github.com/clayc/clay/internal/types"
)

func newTestAnalyzer(reg *types.Registry) *Analyzer {
	return New(reg, ceval.NewEvaluator(reg), diag.NewLocationStack())
}

func baseScope(reg *types.Registry) *env.Environment {
	return env.NewModuleEnv(env.NewPrimitivesModule(reg)).Child()
}

func nameRef(name string) *ast.NameRef { return &ast.NameRef{Name: &ast.Ident{Name: name}} }

func intLit(text string) *ast.Literal { return &ast.Literal{Kind: ast.LitInt, Text: text} }

func boolLit(text string) *ast.Literal { return &ast.Literal{Kind: ast.LitBool, Text: text} }

func addProcedure() *ast.ProcedureDef {
	return &ast.ProcedureDef{
		Name:         &ast.Ident{Name: "add"},
		Overloadable: true,
		Overloads: []*ast.OverloadDef{{
			Params: []ast.Parameter{
				{Name: &ast.Ident{Name: "a"}, TypePat: nameRef("Int32")},
				{Name: &ast.Ident{Name: "b"}, TypePat: nameRef("Int32")},
			},
			Body: &ast.Block{Stmts: []ast.Stmt{
				&ast.ReturnStmt{Values: []ast.Expr{
					&ast.Call{Callee: nameRef("numericAdd"), Args: []ast.Expr{nameRef("a"), nameRef("b")}},
				}},
			}},
		}},
	}
}

func TestAnalyzeCallResolvesOverloadAndInfersReturnType(t *testing.T) {
	reg := types.NewRegistry()
	scope := baseScope(reg)
	scope.Bind("add", addProcedure())
	a := newTestAnalyzer(reg)

	call := &ast.Call{Callee: nameRef("add"), Args: []ast.Expr{intLit("2"), intLit("3")}}
	mv, err := a.AnalyzeExpr(call, scope)
	if err != nil {
		t.Fatalf("AnalyzeExpr(add(2,3)) error: %v", err)
	}
	pv, ok := mv.Single()
	if !ok {
		t.Fatalf("expected a single return value, got %d", len(mv))
	}
	if pv.Type != reg.Primitive(types.KindInt32) {
		t.Errorf("add(2,3) return type = %v, want Int32", types.Name(pv.Type))
	}
	if !pv.IsTemp {
		t.Error("add(2,3) should be a temporary")
	}
}

func TestAnalyzeCallNoMatchingOverload(t *testing.T) {
	reg := types.NewRegistry()
	scope := baseScope(reg)
	scope.Bind("add", addProcedure())
	a := newTestAnalyzer(reg)

	call := &ast.Call{Callee: nameRef("add"), Args: []ast.Expr{boolLit("true"), boolLit("false")}}
	if _, err := a.AnalyzeExpr(call, scope); err == nil {
		t.Error("add(true, false) should fail to resolve against an Int32-only overload")
	}
}

func TestAnalyzeCallMemoizesInvokeEntry(t *testing.T) {
	reg := types.NewRegistry()
	scope := baseScope(reg)
	scope.Bind("add", addProcedure())
	a := newTestAnalyzer(reg)

	call1 := &ast.Call{Callee: nameRef("add"), Args: []ast.Expr{intLit("2"), intLit("3")}}
	call2 := &ast.Call{Callee: nameRef("add"), Args: []ast.Expr{intLit("10"), intLit("20")}}
	if _, err := a.AnalyzeExpr(call1, scope); err != nil {
		t.Fatalf("first call: %v", err)
	}
	entries := len(a.Resolver.entries)
	if _, err := a.AnalyzeExpr(call2, scope); err != nil {
		t.Fatalf("second call with identical argument shape: %v", err)
	}
	if got := len(a.Resolver.entries); got != entries {
		t.Errorf("second call with identical argument shape added invoke entries: %d -> %d", entries, got)
	}
}

// firstProcedure models a generic `first(arr: Array[T, n]): T` that returns
// the array's pattern-bound element type without needing a real body.
func firstProcedure() *ast.ProcedureDef {
	return &ast.ProcedureDef{
		Name: &ast.Ident{Name: "first"},
		Overloads: []*ast.OverloadDef{{
			Params: []ast.Parameter{
				{Name: &ast.Ident{Name: "arr"}, TypePat: &ast.IndexExpr{
					Object: nameRef("Array"),
					Args:   []ast.Expr{nameRef("T"), nameRef("n")},
				}},
			},
			ReturnDecls: []ast.ReturnDecl{{Type: nameRef("T")}},
		}},
	}
}

func TestAnalyzeCallGenericPatternBinding(t *testing.T) {
	reg := types.NewRegistry()
	scope := baseScope(reg)
	scope.Bind("first", firstProcedure())
	arrType := reg.Array(reg.Primitive(types.KindInt32), 3)
	scope.Bind("xs", &LocalBinding{Type: arrType, IsTemp: false})
	a := newTestAnalyzer(reg)

	call := &ast.Call{Callee: nameRef("first"), Args: []ast.Expr{nameRef("xs")}}
	mv, err := a.AnalyzeExpr(call, scope)
	if err != nil {
		t.Fatalf("AnalyzeExpr(first(xs)) error: %v", err)
	}
	pv, ok := mv.Single()
	if !ok || pv.Type != reg.Primitive(types.KindInt32) {
		t.Errorf("first(xs) = %+v, want a single Int32 pvalue", mv)
	}
}

func TestAnalyzeLambdaSynthesizesClosureRecordOnce(t *testing.T) {
	reg := types.NewRegistry()
	scope := baseScope(reg)
	scope.Bind("captured", &LocalBinding{Type: reg.Primitive(types.KindInt32), IsTemp: false})
	a := newTestAnalyzer(reg)

	lambda := &ast.Lambda{
		Params:   nil,
		Body:     []ast.Stmt{&ast.ReturnStmt{Values: []ast.Expr{nameRef("captured")}}},
		FreeVars: []*ast.Ident{{Name: "captured"}},
	}

	mv1, err := a.AnalyzeExpr(lambda, scope)
	if err != nil {
		t.Fatalf("first analysis of lambda: %v", err)
	}
	mv2, err := a.AnalyzeExpr(lambda, scope)
	if err != nil {
		t.Fatalf("second analysis of lambda: %v", err)
	}
	pv1, _ := mv1.Single()
	pv2, _ := mv2.Single()
	if pv1.Type != pv2.Type {
		t.Error("analyzing the same lambda twice should reuse the same synthesized closure type")
	}
	if pv1.Type.Kind != types.KindRecord {
		t.Errorf("lambda should analyze to a record pvalue, got %v", pv1.Type.Kind)
	}
	if len(pv1.Type.AttachedOverloads) != 1 {
		t.Errorf("closure record should carry exactly one attached call overload, got %d", len(pv1.Type.AttachedOverloads))
	}
}

func TestAnalyzeIndexingArrayElement(t *testing.T) {
	reg := types.NewRegistry()
	scope := baseScope(reg)
	arrType := reg.Array(reg.Primitive(types.KindInt32), 4)
	scope.Bind("xs", &LocalBinding{Type: arrType, IsTemp: false})
	a := newTestAnalyzer(reg)

	idx := &ast.IndexExpr{Object: nameRef("xs"), Args: []ast.Expr{intLit("0")}}
	mv, err := a.AnalyzeExpr(idx, scope)
	if err != nil {
		t.Fatalf("AnalyzeExpr(xs[0]) error: %v", err)
	}
	pv, ok := mv.Single()
	if !ok || pv.Type != reg.Primitive(types.KindInt32) || pv.IsTemp {
		t.Errorf("xs[0] = %+v, want a single non-temporary Int32 pvalue", mv)
	}
}

func TestAnalyzeAndOrRequireBoolOperands(t *testing.T) {
	reg := types.NewRegistry()
	scope := baseScope(reg)
	a := newTestAnalyzer(reg)

	ok := &ast.And{Left: boolLit("true"), Right: boolLit("false")}
	if _, err := a.AnalyzeExpr(ok, scope); err != nil {
		t.Errorf("bool and bool should analyze cleanly: %v", err)
	}

	bad := &ast.And{Left: boolLit("true"), Right: intLit("1")}
	if _, err := a.AnalyzeExpr(bad, scope); err == nil {
		t.Error("and with a non-bool operand should fail")
	}
}
