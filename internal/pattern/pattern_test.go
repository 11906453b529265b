package pattern

import (
	"testing"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/types"
)

// mapScope is a minimal Scope for tests.
type mapScope map[string]any

func (s mapScope) Lookup(name string) (any, bool) { v, ok := s[name]; return v, ok }

// stubEvaluator evaluates only bare name references, against its own
// binding table — enough to exercise UnifyType's fallback path without
// needing internal/ceval.
type stubEvaluator struct{ types map[string]*types.Type }

func (e stubEvaluator) EvalType(expr ast.Expr, _ Scope) (*types.Type, error) {
	ref, ok := expr.(*ast.NameRef)
	if !ok {
		return nil, diag.New(diag.KindType, expr.Pos(), "not a name")
	}
	t, ok := e.types[ref.Name.Name]
	if !ok {
		return nil, diag.New(diag.KindName, expr.Pos(), "undefined %q", ref.Name.Name)
	}
	return t, nil
}

func (e stubEvaluator) EvalObject(expr ast.Expr, _ Scope) (any, error) {
	return nil, diag.New(diag.KindStaticEval, expr.Pos(), "not supported in stub")
}

func nameRef(name string) *ast.NameRef {
	return &ast.NameRef{Name: &ast.Ident{Name: name}}
}

func TestUnifyTypeBindsCell(t *testing.T) {
	r := types.NewRegistry()
	i32 := r.Primitive(types.KindInt32)
	cell := NewCell(&ast.Ident{Name: "T"})
	scope := mapScope{"T": cell}

	if err := UnifyType(nameRef("T"), i32, scope, stubEvaluator{}); err != nil {
		t.Fatalf("UnifyType returned error: %v", err)
	}
	if cell.Bound != i32 {
		t.Errorf("cell bound to %v, want %v", cell.Bound, i32)
	}
}

func TestUnifyTypeRebindingRequiresEquality(t *testing.T) {
	r := types.NewRegistry()
	i32, i64 := r.Primitive(types.KindInt32), r.Primitive(types.KindInt64)
	cell := NewCell(&ast.Ident{Name: "T"})
	cell.Bind(i32)
	scope := mapScope{"T": cell}

	if err := UnifyType(nameRef("T"), i32, scope, stubEvaluator{}); err != nil {
		t.Errorf("rebinding to the same type should succeed, got %v", err)
	}
	if err := UnifyType(nameRef("T"), i64, scope, stubEvaluator{}); err == nil {
		t.Error("rebinding a bound cell to a different type should fail, got nil error")
	}
}

func TestUnifyTypeStructuralPointer(t *testing.T) {
	r := types.NewRegistry()
	i32 := r.Primitive(types.KindInt32)
	ptr := r.Pointer(i32)
	cell := NewCell(&ast.Ident{Name: "T"})
	scope := mapScope{"T": cell}

	pat := &ast.IndexExpr{Object: nameRef("Pointer"), Args: []ast.Expr{nameRef("T")}}
	if err := UnifyType(pat, ptr, scope, stubEvaluator{}); err != nil {
		t.Fatalf("UnifyType(Pointer[T], Pointer[Int32]) returned error: %v", err)
	}
	if cell.Bound != i32 {
		t.Errorf("cell bound to %v, want %v", cell.Bound, i32)
	}
}

func TestUnifyTypeStructuralPointerMismatch(t *testing.T) {
	r := types.NewRegistry()
	i32 := r.Primitive(types.KindInt32)
	cell := NewCell(&ast.Ident{Name: "T"})
	scope := mapScope{"T": cell}

	pat := &ast.IndexExpr{Object: nameRef("Pointer"), Args: []ast.Expr{nameRef("T")}}
	if err := UnifyType(pat, i32, scope, stubEvaluator{}); err == nil {
		t.Error("Pointer[T] should not unify against a non-pointer type")
	}
}

func TestUnifyTypeFallbackEvaluatesAndComparesIdentity(t *testing.T) {
	r := types.NewRegistry()
	i32 := r.Primitive(types.KindInt32)
	ev := stubEvaluator{types: map[string]*types.Type{"Int32Alias": i32}}
	scope := mapScope{}

	if err := UnifyType(nameRef("Int32Alias"), i32, scope, ev); err != nil {
		t.Fatalf("UnifyType fallback returned error: %v", err)
	}
	if err := UnifyType(nameRef("Int32Alias"), r.Primitive(types.KindInt64), scope, ev); err == nil {
		t.Error("UnifyType fallback should reject a mismatched identity")
	}
}
