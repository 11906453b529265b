// Package env implements environments and the module loader.
package env

import "github.com/clayc/clay/internal/pattern"

// Object is the closed sum an environment binds a name to: expression,
// multi-expression list, type, procedure, record, variant, primop,
// module-holder, identifier, value-holder, pattern-cell, or pvalue.
// Go represents this the same way the language itself does — no single
// interface can usefully span "a *types.Type" and "a *pattern.Cell" without
// either a marker method every one of those packages would have to import
// env to implement (creating the cycle this package exists to avoid) or
// reflection; a type switch on `any` at each consumption site is the
// idiomatic alternative, and is exactly how the teacher's own environment-
// adjacent code (e.g. `internal/interpreter`'s value representation)
// resolves the same tension.
type Object = any

// Environment is a linked map name -> Object. A chain terminates at a
// module; name lookup walks the chain, then falls back to the module's
// all-symbols table (private + imported).
type Environment struct {
	parent *Environment
	vars   map[string]Object
	module *ModuleHolder
}

// NewModuleEnv creates the root environment for a module body.
func NewModuleEnv(m *ModuleHolder) *Environment {
	return &Environment{vars: make(map[string]Object), module: m}
}

// Child creates a nested scope (e.g. for a function body, an overload's
// bound pattern cells, or an alias expansion).
func (e *Environment) Child() *Environment {
	return &Environment{parent: e, vars: make(map[string]Object)}
}

// Bind introduces or overwrites a name in this scope only.
func (e *Environment) Bind(name string, obj Object) {
	e.vars[name] = obj
}

// Lookup walks the parent chain, then the owning module's all-symbols
// table.
func (e *Environment) Lookup(name string) (Object, bool) {
	for s := e; s != nil; s = s.parent {
		if obj, ok := s.vars[name]; ok {
			return obj, true
		}
		if s.module != nil {
			return s.module.Resolve(name)
		}
	}
	return nil, false
}

// Module returns the module this environment chain is rooted in.
func (e *Environment) Module() *ModuleHolder {
	for s := e; s != nil; s = s.parent {
		if s.module != nil {
			return s.module
		}
	}
	return nil
}

var _ pattern.Scope = (*Environment)(nil)
