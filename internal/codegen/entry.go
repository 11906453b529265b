package codegen

import (
	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/clayc/clay/internal/analyzer"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
	"github.com/clayc/clay/internal/types"
)

// EmitEntryPoint synthesizes the executable's C main(argc, argv) -> i32:
// it calls the prelude's initializeCommandLine(argc, argv) if the loaded
// prelude declares one, then dispatches to the user's own main — through
// callMain if the prelude declares that name, falling back to calling main
// directly otherwise. No concrete prelude source ships with this port to
// pin down initializeCommandLine/callMain's exact signatures, so both are
// found by ordinary overload resolution against whatever the loaded prelude
// actually
// declares rather than hardcoded to one assumed shape: an absent prelude
// name only narrows the synthesized main, it is not an error. callMain is
// invoked with main passed as a static argument (the same mechanism an
// ordinary call to a generic/static-parameter procedure already uses, see
// analyzer/resolver.go's candidate binding), not as a runtime CodePointer
// value — this avoids depending on makeCodePointer, whose codegen-side
// lowering this port does not implement (see DESIGN.md).
func (g *Generator) EmitEntryPoint(scope *env.Environment) error {
	argvT := irtypes.NewPointer(irtypes.NewPointer(irtypes.I8))
	fn := g.Module.NewFunc("main", irtypes.I32, ir.NewParam("argc", irtypes.I32), ir.NewParam("argv", argvT))
	entry := fn.NewBlock("entry")
	fc := &fnCtx{gen: g, fn: fn, block: entry, ascope: scope, lscope: newLocalScope(nil), temps: &tempStack{}}
	fc.temps.pushMark()

	intT := g.Registry.Primitive(types.KindInt32)
	charPtrPtrT := g.Registry.Pointer(g.Registry.Pointer(g.Registry.Primitive(types.KindInt8)))
	argcCV := &CValue{Val: fn.Params[0], Type: intT}
	argvCV := &CValue{Val: fn.Params[1], Type: charPtrPtrT}
	argPVs := []analyzer.PValue{{Type: intT}, {Type: charPtrPtrT}}

	if _, err := fc.resolveAndCallByName("initializeCommandLine", argPVs, []*CValue{argcCV, argvCV}); err != nil {
		return err
	}

	mainObj, ok := scope.Lookup("main")
	if !ok {
		return diag.Internal(noPos, "codegen: program defines no main procedure")
	}
	mainCallable, err := callableFor(noPos, g, mainObj)
	if err != nil {
		return err
	}

	var status value.Value
	if callMainObj, ok := scope.Lookup("callMain"); ok {
		callMainCallable, err := callableFor(noPos, g, callMainObj)
		if err != nil {
			return err
		}
		mainArg := analyzer.PValue{Type: g.Registry.Static(mainCallable), IsTemp: true}
		out, err := fc.resolveAndCall(callMainCallable, []analyzer.PValue{mainArg}, nil)
		if err != nil {
			return err
		}
		if len(out) > 0 {
			status = out[0].Val
		}
	} else {
		out, err := fc.resolveAndCall(mainCallable, nil, nil)
		if err != nil {
			return err
		}
		if len(out) > 0 {
			status = out[0].Val
		}
	}
	if status == nil {
		status = i32const(0)
	}
	fc.block.NewRet(status)
	return nil
}

// resolveAndCallByName looks callable up in scope by name and calls it via
// resolveAndCall, or silently does nothing if scope has no such binding —
// used for prelude hooks a loaded prelude names but never requires to
// exist.
func (c *fnCtx) resolveAndCallByName(name string, argPVs []analyzer.PValue, runtimeArgs []*CValue) ([]*CValue, error) {
	obj, ok := c.ascope.Lookup(name)
	if !ok {
		return nil, nil
	}
	callable, err := callableFor(noPos, c.gen, obj)
	if err != nil {
		return nil, err
	}
	return c.resolveAndCall(callable, argPVs, runtimeArgs)
}

// resolveAndCall resolves callable against argPVs fresh (Resolver.Resolve,
// not ResolvedOverload: this call site has no corresponding AST Call node
// for an earlier analysis pass to have already memoized) and emits it.
func (c *fnCtx) resolveAndCall(callable any, argPVs []analyzer.PValue, runtimeArgs []*CValue) ([]*CValue, error) {
	retShape, err := c.gen.Analyzer.Resolver.Resolve(c.gen.Analyzer, c.ascope, callable, argPVs, noPos)
	if err != nil {
		return nil, err
	}
	overload, ok := c.gen.Analyzer.Resolver.ResolvedOverload(callable, argPVs)
	if !ok {
		return nil, diag.Internal(noPos, "codegen: resolver did not memoize its own Resolve call")
	}
	return c.emitDirectCallAt(noPos, callable, overload, argPVs, runtimeArgsFor(overload, runtimeArgs), retShape)
}
