package env

import (
	"fmt"
	"path/filepath"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/types"
)

// Parser is the out-of-scope collaborator that turns file contents into an
// *ast.Module ("the lexer/parser ... treated as external collaborators").
// cmd/clayc wires a real one; tests wire a fake that returns canned ASTs.
type Parser interface {
	ParseFile(path string, dottedName string) (*ast.Module, error)
}

// FileSystem abstracts file search so the loader is testable without a real
// filesystem, generalizing the teacher's *FileModuleLoader (which hardcodes
// os.ReadFile) into an injected dependency.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// Loader resolves a dotted module name to a loaded, globals-installed
// ModuleHolder, searching platform-suffixed variants under each configured
// search path, detecting import cycles, and always loading `prelude` first
//.
type Loader struct {
	SearchPaths []string
	OS          string // e.g. "linux", "darwin" — platform suffix variant
	Bits        string // e.g. "32", "64"
	Parser      Parser

	// FS resolves findFile's existence probes and, indirectly, the bytes
	// handed to Parser.ParseFile. Left nil by NewLoader (tests instead
	// override the package-level readFileFunc var directly, as
	// loader_test.go already does); a real CLI wiring (cmd/clayc) sets this
	// to an os.ReadFile-backed FileSystem.
	FS FileSystem

	// Registry receives every top-level overload whose target pattern
	// resolves to a type rather than a procedure, via RegisterTypeOverload.
	// Left nil by NewLoader for callers that only care about the symbol
	// tables (loader_test.go never constructs types); compiler.NewContext
	// sets this to the Context's own Registry so a loaded module's
	// type-attached overloads are visible to type construction later.
	Registry *types.Registry

	loaded  map[string]*ModuleHolder
	loading map[string]bool
}

// NewLoader constructs a Loader over the given search paths.
func NewLoader(parser Parser, searchPaths []string, osName, bits string) *Loader {
	return &Loader{
		SearchPaths: searchPaths,
		OS:          osName,
		Bits:        bits,
		Parser:      parser,
		loaded:      make(map[string]*ModuleHolder),
		loading:     make(map[string]bool),
	}
}

// candidateSuffixes returns the ordered suffix variants to try for a given
// base name, most specific first: <os>.<bits>.clay, <os>.clay, <bits>.clay,
// .clay.
func (l *Loader) candidateSuffixes() []string {
	return []string{
		fmt.Sprintf(".%s.%s.clay", l.OS, l.Bits),
		fmt.Sprintf(".%s.clay", l.OS),
		fmt.Sprintf(".%s.clay", l.Bits),
		".clay",
	}
}

func (l *Loader) findFile(dotted string) (string, error) {
	rel := filepath.Join(filepathSplitDotted(dotted)...)
	for _, dir := range l.SearchPaths {
		for _, suffix := range l.candidateSuffixes() {
			candidate := filepath.Join(dir, rel+suffix)
			if _, err := l.readFile(candidate); err == nil {
				return candidate, nil
			}
		}
	}
	return "", diag.New(diag.KindName, diag.Pos{}, "module %q not found in search paths", dotted)
}

// readFile is a thin indirection point kept separate from the Parser
// interface so the "does this file exist" probe in findFile does not
// require re-parsing; a real CLI wiring uses os.ReadFile/os.Stat here.
var readFileFunc = func(path string) ([]byte, error) { return nil, fmt.Errorf("no filesystem wired") }

func (l *Loader) readFile(path string) ([]byte, error) {
	if l.FS != nil {
		return l.FS.ReadFile(path)
	}
	return readFileFunc(path)
}

func filepathSplitDotted(dotted string) []string {
	var parts []string
	cur := ""
	for _, r := range dotted {
		if r == '.' {
			parts = append(parts, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	parts = append(parts, cur)
	return parts
}

// Load resolves dotted, detecting cycles, and returns the fully-loaded
// ModuleHolder (imports applied, globals installed as private/public
// tables, overloads attached). It does not run analysis — that happens
// per-callable, lazily, from internal/analyzer.
func (l *Loader) Load(dotted string) (*ModuleHolder, error) {
	if m, ok := l.loaded[dotted]; ok {
		return m, nil
	}
	if l.loading[dotted] {
		return nil, diag.New(diag.KindName, diag.Pos{}, "import cycle detected loading module %q", dotted)
	}
	l.loading[dotted] = true
	defer delete(l.loading, dotted)

	holder, astMod, err := l.loadBody(dotted)
	if err != nil {
		return nil, err
	}
	l.attachOverloads(holder, astMod)
	holder.loaded = true
	l.loaded[dotted] = holder
	return holder, nil
}

// loadBody parses dotted, installs its globals, and applies its explicit
// imports — everything Load does except attaching overloads. LoadProgram
// calls this directly for the entry module so it can wire the implicit
// prelude import-star on before any of the entry module's own overload
// declarations try to resolve their target names.
func (l *Loader) loadBody(dotted string) (*ModuleHolder, *ast.Module, error) {
	path, err := l.findFile(dotted)
	if err != nil {
		return nil, nil, err
	}
	astMod, err := l.Parser.ParseFile(path, dotted)
	if err != nil {
		return nil, nil, diag.Wrap(err, diag.KindParse, diag.Pos{File: path}, "parsing module %q", dotted)
	}

	holder := newModuleHolder(dotted, astMod)
	if err := installGlobals(holder, astMod); err != nil {
		return nil, nil, err
	}

	for _, item := range astMod.Items {
		imp, ok := item.(*ast.ImportDef)
		if !ok {
			continue
		}
		target, err := l.Load(imp.ModulePath)
		if err != nil {
			return nil, nil, diag.Wrap(err, diag.KindName, imp.Pos(), "resolving import %q", imp.ModulePath)
		}
		if err := holder.ApplyImport(imp.Pos(), imp, target); err != nil {
			return nil, nil, err
		}
	}
	return holder, astMod, nil
}

// attachOverloads routes every top-level overload declaration in astMod
// against m's now-complete symbol tables (its own globals plus whatever
// its imports brought in) — a standalone `overload foo(...)` commonly
// targets a procedure declared in an imported module (prelude's own
// overloadable procedures, most of all), not one of this module's own
// bindings, so this only makes sense once imports are applied.
func (l *Loader) attachOverloads(m *ModuleHolder, astMod *ast.Module) {
	for _, item := range astMod.Items {
		ov, ok := item.(*ast.OverloadDef)
		if !ok {
			continue
		}
		l.attachOverload(m, ov)
	}
}

// LoadProgram loads `prelude` first (so macros and operator-desugaring
// names resolve), then the requested entry module with prelude
// applied as an implicit import-star before entry's own overloads attach —
// the same visibility an explicit `import prelude *;` would give it, which
// every Clay module gets for free.
func (l *Loader) LoadProgram(entry string) (prelude, program *ModuleHolder, err error) {
	prelude, err = l.Load("prelude")
	if err != nil {
		return nil, nil, diag.Wrap(err, diag.KindName, diag.Pos{}, "loading prelude")
	}
	if entry == "prelude" {
		return prelude, prelude, nil
	}
	if m, ok := l.loaded[entry]; ok {
		return prelude, m, nil
	}
	if l.loading[entry] {
		return nil, nil, diag.New(diag.KindName, diag.Pos{}, "import cycle detected loading module %q", entry)
	}
	l.loading[entry] = true
	defer delete(l.loading, entry)

	program, astMod, err := l.loadBody(entry)
	if err != nil {
		return nil, nil, err
	}
	star := &ast.ImportDef{Form: ast.ImportStar}
	if err := program.ApplyImport(diag.Pos{}, star, prelude); err != nil {
		return nil, nil, err
	}
	l.attachOverloads(program, astMod)
	program.loaded = true
	l.loaded[entry] = program
	return prelude, program, nil
}

// installGlobals binds every top-level item's declared name into the
// module's private table. Top-level bindings are public by default;
// a module that wants a private helper gives it a name no importer asks
// for by name — Clay, like the source it was distilled from, has no
// separate private-declaration syntax at the top level.
//
// A standalone *ast.OverloadDef carries no name of its own to bind — it
// modifies an existing procedure's Overloads list or the registry's
// type-overload list instead — so it has no case here; attachOverload
// handles it in a later pass, once imports are resolved too.
func installGlobals(m *ModuleHolder, astMod *ast.Module) error {
	for _, item := range astMod.Items {
		name, obj := bindingFor(item)
		if name == "" {
			continue
		}
		m.BindPrivate(name, obj, true)
	}
	return nil
}

func bindingFor(item ast.Item) (string, Object) {
	switch it := item.(type) {
	case *ast.RecordDef:
		return it.Name.Name, it
	case *ast.VariantDef:
		return it.Name.Name, it
	case *ast.EnumDef:
		return it.Name.Name, it
	case *ast.ProcedureDef:
		return it.Name.Name, it
	case *ast.VarDef:
		return it.Name.Name, it
	case *ast.ExternalDef:
		return it.Name.Name, it
	case *ast.StaticDef:
		return it.Name.Name, it
	case *ast.AliasDef:
		return it.Name.Name, it
	default:
		return "", nil
	}
}

// attachOverload routes one top-level `overload` declaration to where it
// belongs: a bare target name that resolves to an
// already-declared procedure gets the overload prepended to that
// procedure's Overloads (later declarations are tried first, so prepending
// in source order gives the right precedence without a second sort pass);
// anything else — a target naming a record/variant/enum, a generic
// application or indexed pattern more complex than a bare name, or a name
// this module can't resolve at all — goes into the registry's
// type-overload list, the fallback for every user-declared overload whose
// target pattern could name a type: it is unified against each type at
// construction time rather than matched by name up front.
func (l *Loader) attachOverload(m *ModuleHolder, ov *ast.OverloadDef) {
	if name, ok := bareTargetName(ov.TargetPattern); ok {
		if obj, found := m.Resolve(name); found {
			if proc, ok := obj.(*ast.ProcedureDef); ok {
				proc.Overloads = append([]*ast.OverloadDef{ov}, proc.Overloads...)
				return
			}
		}
	}
	if l.Registry != nil {
		l.Registry.RegisterTypeOverload(ov)
	}
}

// bareTargetName reports the identifier a target pattern names when it is
// nothing more than a bare name reference — the only shape attachOverload
// can resolve against the symbol tables directly. Anything else (a pattern
// with type-variable cells, an indexed/generic application, ...) is left
// to the registry's unify-at-construction fallback.
func bareTargetName(e ast.Expr) (string, bool) {
	nr, ok := e.(*ast.NameRef)
	if !ok {
		return "", false
	}
	return nr.Name.Name, true
}
