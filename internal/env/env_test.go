package env

import (
	"testing"

	"github.com/clayc/clay/internal/ast"
)

func TestEnvironmentLookupWalksParentChain(t *testing.T) {
	m := newModuleHolder("m", &ast.Module{DottedName: "m"})
	m.BindPrivate("moduleVar", 1, true)

	root := NewModuleEnv(m)
	root.Bind("x", "root-x")
	child := root.Child()
	child.Bind("y", "child-y")

	if v, ok := child.Lookup("y"); !ok || v != "child-y" {
		t.Errorf("Lookup(y) = %v, %v; want child-y, true", v, ok)
	}
	if v, ok := child.Lookup("x"); !ok || v != "root-x" {
		t.Errorf("Lookup(x) through parent = %v, %v; want root-x, true", v, ok)
	}
	if v, ok := child.Lookup("moduleVar"); !ok || v != 1 {
		t.Errorf("Lookup(moduleVar) falling through to module = %v, %v; want 1, true", v, ok)
	}
	if _, ok := child.Lookup("nope"); ok {
		t.Error("Lookup(nope) found a binding that should not exist")
	}
}

func TestEnvironmentShadowing(t *testing.T) {
	m := newModuleHolder("m", &ast.Module{DottedName: "m"})
	root := NewModuleEnv(m)
	root.Bind("x", "outer")
	child := root.Child()
	child.Bind("x", "inner")

	if v, _ := child.Lookup("x"); v != "inner" {
		t.Errorf("Lookup(x) = %v, want inner (shadowing outer)", v)
	}
	if v, _ := root.Lookup("x"); v != "outer" {
		t.Errorf("outer Lookup(x) = %v, want outer (unaffected by child binding)", v)
	}
}

func TestEnvironmentModule(t *testing.T) {
	m := newModuleHolder("m", &ast.Module{DottedName: "m"})
	root := NewModuleEnv(m)
	child := root.Child().Child()
	if child.Module() != m {
		t.Error("Module() did not walk up to the root module")
	}
}
