package env

import (
	"testing"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/types"
)

type fakeParser struct {
	files map[string]*ast.Module
}

func (p *fakeParser) ParseFile(path, dotted string) (*ast.Module, error) {
	if m, ok := p.files[path]; ok {
		return m, nil
	}
	return nil, errNotFound(path)
}

type errNotFound string

func (e errNotFound) Error() string { return "not found: " + string(e) }

func withFakeFS(t *testing.T, files map[string]bool) {
	t.Helper()
	prev := readFileFunc
	readFileFunc = func(path string) ([]byte, error) {
		if files[path] {
			return []byte{}, nil
		}
		return nil, errNotFound(path)
	}
	t.Cleanup(func() { readFileFunc = prev })
}

func TestLoaderFindsPlatformSuffixedFile(t *testing.T) {
	withFakeFS(t, map[string]bool{
		"/src/foo.linux.64.clay": true,
	})
	parser := &fakeParser{files: map[string]*ast.Module{
		"/src/foo.linux.64.clay": {DottedName: "foo"},
	}}
	l := NewLoader(parser, []string{"/src"}, "linux", "64")

	m, err := l.Load("foo")
	if err != nil {
		t.Fatalf("Load(foo) error: %v", err)
	}
	if m.DottedName != "foo" {
		t.Errorf("DottedName = %q, want foo", m.DottedName)
	}
}

func TestLoaderFallsBackToBareSuffix(t *testing.T) {
	withFakeFS(t, map[string]bool{"/src/foo.clay": true})
	parser := &fakeParser{files: map[string]*ast.Module{"/src/foo.clay": {DottedName: "foo"}}}
	l := NewLoader(parser, []string{"/src"}, "linux", "64")

	if _, err := l.Load("foo"); err != nil {
		t.Fatalf("Load(foo) error: %v", err)
	}
}

func TestLoaderDetectsImportCycle(t *testing.T) {
	withFakeFS(t, map[string]bool{"/src/a.clay": true, "/src/b.clay": true})
	a := &ast.Module{DottedName: "a", Items: []ast.Item{&ast.ImportDef{Form: ast.ImportModule, ModulePath: "b"}}}
	b := &ast.Module{DottedName: "b", Items: []ast.Item{&ast.ImportDef{Form: ast.ImportModule, ModulePath: "a"}}}
	parser := &fakeParser{files: map[string]*ast.Module{"/src/a.clay": a, "/src/b.clay": b}}
	l := NewLoader(parser, []string{"/src"}, "linux", "64")

	if _, err := l.Load("a"); err == nil {
		t.Error("Load(a) should fail on the a -> b -> a import cycle")
	}
}

func TestLoaderCachesLoadedModules(t *testing.T) {
	withFakeFS(t, map[string]bool{"/src/a.clay": true})
	parser := &fakeParser{files: map[string]*ast.Module{"/src/a.clay": {DottedName: "a"}}}
	l := NewLoader(parser, []string{"/src"}, "linux", "64")

	m1, err := l.Load("a")
	if err != nil {
		t.Fatalf("first Load(a) error: %v", err)
	}
	m2, err := l.Load("a")
	if err != nil {
		t.Fatalf("second Load(a) error: %v", err)
	}
	if m1 != m2 {
		t.Error("Load(a) twice returned distinct ModuleHolders, want the cached instance")
	}
}

func TestLoaderNotFound(t *testing.T) {
	withFakeFS(t, map[string]bool{})
	parser := &fakeParser{files: map[string]*ast.Module{}}
	l := NewLoader(parser, []string{"/src"}, "linux", "64")

	if _, err := l.Load("missing"); err == nil {
		t.Error("Load(missing) should fail when no candidate file exists")
	}
}

func TestLoaderAttachesOverloadToOwnProcedure(t *testing.T) {
	withFakeFS(t, map[string]bool{"/src/a.clay": true})
	proc := &ast.ProcedureDef{Name: &ast.Ident{Name: "identity"}, Overloadable: true}
	first := &ast.OverloadDef{TargetPattern: &ast.NameRef{Name: &ast.Ident{Name: "identity"}}}
	second := &ast.OverloadDef{TargetPattern: &ast.NameRef{Name: &ast.Ident{Name: "identity"}}}
	mod := &ast.Module{DottedName: "a", Items: []ast.Item{proc, first, second}}
	parser := &fakeParser{files: map[string]*ast.Module{"/src/a.clay": mod}}
	l := NewLoader(parser, []string{"/src"}, "linux", "64")

	m, err := l.Load("a")
	if err != nil {
		t.Fatalf("Load(a) error: %v", err)
	}
	obj, ok := m.Resolve("identity")
	if !ok {
		t.Fatalf("identity not bound after load")
	}
	got := obj.(*ast.ProcedureDef)
	if len(got.Overloads) != 2 {
		t.Fatalf("Overloads = %d, want 2", len(got.Overloads))
	}
	if got.Overloads[0] != second || got.Overloads[1] != first {
		t.Error("later-declared overload should be prepended ahead of earlier ones")
	}
}

func TestLoaderRoutesUnresolvedOverloadToRegistry(t *testing.T) {
	withFakeFS(t, map[string]bool{"/src/a.clay": true})
	ov := &ast.OverloadDef{TargetPattern: &ast.NameRef{Name: &ast.Ident{Name: "area"}}}
	mod := &ast.Module{DottedName: "a", Items: []ast.Item{ov}}
	parser := &fakeParser{files: map[string]*ast.Module{"/src/a.clay": mod}}
	l := NewLoader(parser, []string{"/src"}, "linux", "64")
	reg := types.NewRegistry()
	l.Registry = reg

	if _, err := l.Load("a"); err != nil {
		t.Fatalf("Load(a) error: %v", err)
	}
	// area never resolved to a declared procedure, so it should have landed
	// in the registry's type-overload list and attach to the next type
	// constructed from it.
	rec := reg.Record(&ast.RecordDef{Name: &ast.Ident{Name: "Square"}}, nil)
	if len(rec.AttachedOverloads) != 1 || rec.AttachedOverloads[0] != ov {
		t.Errorf("expected area's overload to attach to the constructed record, got %v", rec.AttachedOverloads)
	}
}
