package env

import (
	"testing"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
)

func TestModuleHolderResolvePrivate(t *testing.T) {
	m := newModuleHolder("m", &ast.Module{DottedName: "m"})
	m.BindPrivate("foo", 1, false)

	if v, ok := m.Resolve("foo"); !ok || v != 1 {
		t.Errorf("Resolve(foo) = %v, %v; want 1, true", v, ok)
	}
	if m.Public("foo") {
		t.Error("foo should not be public")
	}
}

func TestModuleHolderApplyImportStarAmbiguity(t *testing.T) {
	a := newModuleHolder("a", &ast.Module{DottedName: "a"})
	a.BindPrivate("shared", "from-a", true)
	b := newModuleHolder("b", &ast.Module{DottedName: "b"})
	b.BindPrivate("shared", "from-b", true)

	m := newModuleHolder("m", &ast.Module{DottedName: "m"})
	at := diag.Pos{File: "m.clay", Line: 1, Col: 1}
	if err := m.ApplyImport(at, &ast.ImportDef{Form: ast.ImportStar}, a); err != nil {
		t.Fatalf("ApplyImport(a) error: %v", err)
	}
	if err := m.ApplyImport(at, &ast.ImportDef{Form: ast.ImportStar}, b); err != nil {
		t.Fatalf("ApplyImport(b) error: %v", err)
	}

	if _, err := m.ResolveChecked(at, "shared"); err == nil {
		t.Error("ResolveChecked(shared) should report ambiguity between a and b")
	}
}

func TestModuleHolderApplyImportMembers(t *testing.T) {
	a := newModuleHolder("a", &ast.Module{DottedName: "a"})
	a.BindPrivate("foo", 42, true)

	m := newModuleHolder("m", &ast.Module{DottedName: "m"})
	at := diag.Pos{}
	decl := &ast.ImportDef{
		Form: ast.ImportMembers,
		Members: []ast.ImportMember{
			{Name: &ast.Ident{Name: "foo"}, Alias: &ast.Ident{Name: "bar"}},
		},
	}
	if err := m.ApplyImport(at, decl, a); err != nil {
		t.Fatalf("ApplyImport error: %v", err)
	}
	if v, ok := m.Resolve("bar"); !ok || v != 42 {
		t.Errorf("Resolve(bar) = %v, %v; want 42, true", v, ok)
	}
	if _, ok := m.Resolve("foo"); ok {
		t.Error("unaliased name foo should not be visible, only its alias bar")
	}
}

func TestModuleHolderApplyImportMembersRejectsPrivate(t *testing.T) {
	a := newModuleHolder("a", &ast.Module{DottedName: "a"})
	a.BindPrivate("secret", 1, false)

	m := newModuleHolder("m", &ast.Module{DottedName: "m"})
	decl := &ast.ImportDef{Form: ast.ImportMembers, Members: []ast.ImportMember{{Name: &ast.Ident{Name: "secret"}}}}
	if err := m.ApplyImport(diag.Pos{}, decl, a); err == nil {
		t.Error("importing a private member should fail")
	}
}
