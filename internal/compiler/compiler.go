// Package compiler wires the loader, analyzer, and codegen packages into
// the compiler's three top-level operations: loadProgram, codegenExe, and
// codegenSharedLib. It plays the role the teacher's own top-level driver
// (cmd/alas-compile/main.go's linear parse -> validate -> codegen -> write
// sequence) plays there, generalized from a single-file JSON-AST pipeline
// into Clay's multi-module, search-path-driven one.
package compiler

import (
	"github.com/llir/llvm/ir"

	"github.com/clayc/clay/internal/analyzer"
	"github.com/clayc/clay/internal/ceval"
	"github.com/clayc/clay/internal/codegen"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
	"github.com/clayc/clay/internal/types"
)

// Context bundles one compilation's shared state: the type registry and
// compile-time evaluator backing both analysis and codegen, the analyzer
// (and the resolver memo it owns), the module loader, and — once
// LoadProgram has run — the loaded prelude/program modules and the root
// environment codegen walks.
type Context struct {
	Registry *types.Registry
	Eval     *ceval.Evaluator
	Analyzer *analyzer.Analyzer
	Locs     *diag.LocationStack
	Loader   *env.Loader

	Prelude *env.ModuleHolder
	Program *env.ModuleHolder

	// Scope is the root environment GenerateModule/EmitEntryPoint walk: a
	// module env rooted at Program, with Prelude applied as an import-star
	// (see LoadProgram) so macros and operator-desugaring names are visible
	// to program code that never explicitly imports prelude, the same way
	// every Clay module implicitly sees it.
	Scope *env.Environment
}

// NewContext constructs a Context ready to LoadProgram. parser and
// searchPaths are threaded straight to env.Loader; osName/bits select
// platform-suffixed module variants (candidateSuffixes).
func NewContext(parser env.Parser, searchPaths []string, osName, bits string) *Context {
	reg := types.NewRegistry()
	ev := ceval.NewEvaluator(reg)
	locs := diag.NewLocationStack()
	an := analyzer.New(reg, ev, locs)
	loader := env.NewLoader(parser, searchPaths, osName, bits)
	loader.Registry = reg
	return &Context{
		Registry: reg,
		Eval:     ev,
		Analyzer: an,
		Locs:     locs,
		Loader:   loader,
	}
}

// LoadProgram loads `prelude` and entry; the loader itself wires
// prelude as an implicit import-star of entry's module, so prelude names
// resolve from program scope without an explicit import declaration.
func (c *Context) LoadProgram(entry string) error {
	prelude, program, err := c.Loader.LoadProgram(entry)
	if err != nil {
		return err
	}
	c.Prelude = prelude
	c.Program = program
	c.Scope = env.NewModuleEnv(program)
	return nil
}

// newGenerator builds a fresh codegen.Generator over this Context's
// registry/evaluator/analyzer, resetting the analyzer's expression memo
// (and the evaluator's) first. The resolver's invoke entries are kept;
// they record overloads and return shapes only, while the *ir.Func
// instantiations live in each Generator's own function table.
func (c *Context) newGenerator(moduleName string) *codegen.Generator {
	c.Analyzer.ResetMemo()
	return codegen.NewGenerator(c.Registry, c.Eval, c.Analyzer, c.Locs, moduleName)
}

// CodegenExe emits every module-level global/external declaration, then
// the synthesized executable entry point, which is what actually
// drives the lazy, call-site-triggered instantiation of every procedure
// overload reachable from main — and finally closes out the accumulated
// llvm.global_ctors list.
func (c *Context) CodegenExe() (*ir.Module, error) {
	g := c.newGenerator(c.Program.DottedName)
	if err := g.GenerateModule(c.Program.AST, c.Scope); err != nil {
		return nil, err
	}
	if err := g.EmitEntryPoint(c.Scope); err != nil {
		return nil, err
	}
	g.FinalizeCtors()
	return g.Module, nil
}

// CodegenSharedLib emits every module-level global/external declaration
// and every externally-visible function's overloads, but no synthesized
// main ("For a shared library, only the user's externally-visible
// functions are emitted"). Since getOrDeclareFunc instantiates an overload
// lazily from its call sites (module.go's GenerateModule doc comment), a
// shared library's exported procedures are the ones driving instantiation
// here, each resolved and emitted with no runtime arguments bound beyond
// its own declared parameters — exactly the call a C caller linking
// against the library will make.
func (c *Context) CodegenSharedLib() (*ir.Module, error) {
	g := c.newGenerator(c.Program.DottedName)
	if err := g.GenerateModule(c.Program.AST, c.Scope); err != nil {
		return nil, err
	}
	if err := g.EmitExportedProcedures(c.Scope, c.Program.AST); err != nil {
		return nil, err
	}
	g.FinalizeCtors()
	return g.Module, nil
}
