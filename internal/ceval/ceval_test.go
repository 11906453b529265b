package ceval

import (
	"testing"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/types"
)

type mapScope map[string]any

func (s mapScope) Lookup(name string) (any, bool) { v, ok := s[name]; return v, ok }

func lit(kind ast.LiteralKind, text, suffix string) *ast.Literal {
	return &ast.Literal{Kind: kind, Text: text, Suffix: suffix}
}

func nameRef(name string) *ast.NameRef { return &ast.NameRef{Name: &ast.Ident{Name: name}} }

func TestEvalLiteralInt(t *testing.T) {
	ev := NewEvaluator(types.NewRegistry())
	v, err := ev.EvalObject(lit(ast.LitInt, "42", ""), mapScope{})
	if err != nil {
		t.Fatalf("EvalObject(42) error: %v", err)
	}
	if v != int64(42) {
		t.Errorf("EvalObject(42) = %v, want int64(42)", v)
	}
}

func TestEvalLiteralBool(t *testing.T) {
	ev := NewEvaluator(types.NewRegistry())
	v, err := ev.EvalObject(lit(ast.LitBool, "true", ""), mapScope{})
	if err != nil {
		t.Fatalf("EvalObject(true) error: %v", err)
	}
	if v != true {
		t.Errorf("EvalObject(true) = %v, want true", v)
	}
}

func TestEvalPointerConstructor(t *testing.T) {
	reg := types.NewRegistry()
	ev := NewEvaluator(reg)
	pat := &ast.IndexExpr{Object: nameRef("Pointer"), Args: []ast.Expr{nameRef("Int32")}}
	scope := mapScope{"Int32": reg.Primitive(types.KindInt32)}

	got, err := ev.EvalType(pat, scope)
	if err != nil {
		t.Fatalf("EvalType(Pointer[Int32]) error: %v", err)
	}
	want := reg.Pointer(reg.Primitive(types.KindInt32))
	if got != want {
		t.Errorf("EvalType(Pointer[Int32]) = %v, want the canonical pointer type", got)
	}
}

func TestEvalArrayConstructor(t *testing.T) {
	reg := types.NewRegistry()
	ev := NewEvaluator(reg)
	scope := mapScope{"Int32": reg.Primitive(types.KindInt32)}
	pat := &ast.IndexExpr{Object: nameRef("Array"), Args: []ast.Expr{nameRef("Int32"), lit(ast.LitInt, "10", "")}}

	got, err := ev.EvalType(pat, scope)
	if err != nil {
		t.Fatalf("EvalType(Array[Int32,10]) error: %v", err)
	}
	if got.ArrayLen != 10 {
		t.Errorf("ArrayLen = %d, want 10", got.ArrayLen)
	}
}

func TestEvalAliasIndexing(t *testing.T) {
	reg := types.NewRegistry()
	ev := NewEvaluator(reg)
	// alias IntPtr[T] = Pointer[T]
	alias := &ast.AliasDef{
		Name:   &ast.Ident{Name: "IntPtr"},
		Params: []*ast.Ident{{Name: "T"}},
		Body:   &ast.IndexExpr{Object: nameRef("Pointer"), Args: []ast.Expr{nameRef("T")}},
	}
	scope := mapScope{"IntPtr": alias, "Int32": reg.Primitive(types.KindInt32)}
	use := &ast.IndexExpr{Object: nameRef("IntPtr"), Args: []ast.Expr{nameRef("Int32")}}

	got, err := ev.EvalType(use, scope)
	if err != nil {
		t.Fatalf("EvalType(IntPtr[Int32]) error: %v", err)
	}
	want := reg.Pointer(reg.Primitive(types.KindInt32))
	if got != want {
		t.Errorf("EvalType(IntPtr[Int32]) = %v, want %v", got, want)
	}
}

func TestEvalCallCompileTimeArithmetic(t *testing.T) {
	ev := NewEvaluator(types.NewRegistry())
	call := &ast.Call{Callee: nameRef("numericAdd"), Args: []ast.Expr{lit(ast.LitInt, "2", ""), lit(ast.LitInt, "3", "")}}

	got, err := ev.EvalObject(call, mapScope{})
	if err != nil {
		t.Fatalf("EvalObject(numericAdd(2,3)) error: %v", err)
	}
	if got != int64(5) {
		t.Errorf("numericAdd(2,3) = %v, want 5", got)
	}
}

func TestEvalCallTypeSize(t *testing.T) {
	reg := types.NewRegistry()
	ev := NewEvaluator(reg)
	scope := mapScope{"Int32": reg.Primitive(types.KindInt32)}
	call := &ast.Call{Callee: nameRef("TypeSize"), Args: []ast.Expr{nameRef("Int32")}}

	got, err := ev.EvalObject(call, scope)
	if err != nil {
		t.Fatalf("EvalObject(TypeSize(Int32)) error: %v", err)
	}
	if got != int64(4) {
		t.Errorf("TypeSize(Int32) = %v, want 4", got)
	}
}

func TestEvalNameRefUndefined(t *testing.T) {
	ev := NewEvaluator(types.NewRegistry())
	if _, err := ev.EvalObject(nameRef("nope"), mapScope{}); err == nil {
		t.Error("EvalObject on an undefined name should error")
	}
}
