package env

import (
	"fmt"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
)

// ModuleHolder is a loaded module's symbol tables: a private table (every
// top-level binding) and a public subset, plus the resolved import map used
// to fall back on for names not found privately.
type ModuleHolder struct {
	DottedName string
	AST        *ast.Module

	private map[string]Object
	public  map[string]bool

	// imports maps a visible name to the object it resolves to, recording
	// which imported module contributed it (for ambiguity detection).
	imports        map[string]importedName
	importedStars  []*ModuleHolder // import-star modules, consulted in order

	loading bool
	loaded  bool
}

type importedName struct {
	obj    Object
	source string // dotted name of the contributing module, for diagnostics
}

func newModuleHolder(dotted string, m *ast.Module) *ModuleHolder {
	return &ModuleHolder{
		DottedName: dotted,
		AST:        m,
		private:    make(map[string]Object),
		public:     make(map[string]bool),
		imports:    make(map[string]importedName),
	}
}

// BindPrivate installs a top-level name, optionally marking it public
// (exported).
func (m *ModuleHolder) BindPrivate(name string, obj Object, public bool) {
	m.private[name] = obj
	if public {
		m.public[name] = true
	}
}

// Public reports whether name is in the module's public set.
func (m *ModuleHolder) Public(name string) bool { return m.public[name] }

// Resolve looks up name in the private table, then the explicit import map,
// then every import-star module in order ("On lookup ambiguity among
// imports for the same name (different objects), signals an error" — here
// surfaced as a panic-free second return since Resolve has no error
// channel; callers that need the error use ResolveChecked).
func (m *ModuleHolder) Resolve(name string) (Object, bool) {
	obj, _, ok := m.resolveChecked(name)
	return obj, ok
}

// ResolveChecked is Resolve plus ambiguity detection across import-star
// modules.
func (m *ModuleHolder) ResolveChecked(at diag.Pos, name string) (Object, error) {
	obj, ambiguous, ok := m.resolveChecked(name)
	if ambiguous {
		return nil, diag.New(diag.KindName, at, "ambiguous import of %q", name)
	}
	if !ok {
		return nil, diag.New(diag.KindName, at, "undefined name %q", name)
	}
	return obj, nil
}

func (m *ModuleHolder) resolveChecked(name string) (obj Object, ambiguous bool, ok bool) {
	if v, present := m.private[name]; present {
		return v, false, true
	}
	if im, present := m.imports[name]; present {
		return im.obj, false, true
	}
	var found Object
	var foundFrom string
	count := 0
	for _, star := range m.importedStars {
		if star.Public(name) {
			if v, present := star.private[name]; present {
				if count == 0 {
					found, foundFrom = v, star.DottedName
				} else if v != found {
					return nil, true, true
				}
				count++
			}
		}
	}
	_ = foundFrom
	if count > 0 {
		return found, false, true
	}
	return nil, false, false
}

// ApplyImport installs the bindings an ImportDef requests, per its form
//.
func (m *ModuleHolder) ApplyImport(at diag.Pos, decl *ast.ImportDef, target *ModuleHolder) error {
	switch decl.Form {
	case ast.ImportModule:
		name := target.DottedName
		if decl.Alias != nil {
			name = decl.Alias.Name
		}
		m.imports[name] = importedName{obj: target, source: target.DottedName}
	case ast.ImportStar:
		m.importedStars = append(m.importedStars, target)
	case ast.ImportMembers:
		for _, mem := range decl.Members {
			if !target.Public(mem.Name.Name) {
				return diag.New(diag.KindName, at, "module %s does not export %q", target.DottedName, mem.Name.Name)
			}
			obj, _ := target.private[mem.Name.Name]
			local := mem.Name.Name
			if mem.Alias != nil {
				local = mem.Alias.Name
			}
			if existing, present := m.imports[local]; present && existing.obj != obj {
				return diag.New(diag.KindName, at, "ambiguous import of %q", local)
			}
			m.imports[local] = importedName{obj: obj, source: target.DottedName}
		}
	default:
		return diag.Internal(at, "unknown import form %d", decl.Form)
	}
	return nil
}

func (m *ModuleHolder) String() string { return fmt.Sprintf("module(%s)", m.DottedName) }
