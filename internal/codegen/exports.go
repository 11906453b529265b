package codegen

import (
	"github.com/clayc/clay/internal/analyzer"
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/env"
)

// EmitExportedProcedures instantiates and emits every top-level procedure
// overload resolvable from its own declared parameter types with no call
// site at all — the shared-library build's "codegenSharedLib" half
// ("only the user's externally-visible functions are emitted"). A
// procedure reached this way keeps its plain declared name as its LLVM
// symbol, instead of getOrDeclareFunc's per-instantiation `$N` suffix: that
// suffix exists to disambiguate multiple monomorphizations of the same
// generic callable reached through different call-site argument shapes, a
// concern that does not apply to an export resolved exactly once, up
// front, against its own signature.
//
// A procedure with any static parameter, a variadic tail, or only
// overloads whose TargetPattern/Predicate does not match its own declared
// argument types cannot be instantiated without a call site supplying the
// missing information and so is not exported — the same reasoning
// module.go's generateItem already applies to records/variants/generic
// procedures never having a standalone runtime representation of their
// own. This is this port's documented resolution of an otherwise
// unspecified corner of shared-library export (see DESIGN.md); the
// teacher's own driver never faced the question, since alas-compile has no
// shared-library output at all.
func (g *Generator) EmitExportedProcedures(scope *env.Environment, m *ast.Module) error {
	for _, item := range m.Items {
		pd, ok := item.(*ast.ProcedureDef)
		if !ok {
			continue
		}
		if err := g.emitExportedProcedure(scope, pd); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) emitExportedProcedure(scope *env.Environment, pd *ast.ProcedureDef) error {
	for _, overload := range pd.Overloads {
		argPVs, ok, err := exportableArgPVs(g, scope, overload)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		retShape, err := g.Analyzer.Resolver.Resolve(g.Analyzer, scope, pd, argPVs, pd.Pos())
		if err != nil {
			// This overload's TargetPattern/Predicate rejects its own
			// declared argument types (e.g. a type-attached method overload
			// whose receiver pattern expects something no bare parameter
			// list can supply) — not every overload of an overloadable
			// procedure is meant to be reachable this way.
			continue
		}
		matched, ok := g.Analyzer.Resolver.ResolvedOverload(pd, argPVs)
		if !ok || matched != overload {
			// A different overload of the same procedure won resolution
			// against these exact argument types; exporting follows
			// resolution's own decision, not declaration order.
			continue
		}
		if _, err := g.declareNamedFunc(pd.Name.Name, pd, overload, scope, argPVs, retShape); err != nil {
			return err
		}
		return nil
	}
	return nil
}

// exportableArgPVs evaluates overload's declared parameter types with no
// call-site information at all, failing (ok=false, not an error) for any
// shape an export can't be built from: a static parameter (bound by
// pattern unification at a call site, never at a standalone declaration),
// a variadic tail, or a parameter with no declared type to evaluate.
func exportableArgPVs(g *Generator, scope *env.Environment, overload *ast.OverloadDef) ([]analyzer.PValue, bool, error) {
	if overload.VarParam != nil {
		return nil, false, nil
	}
	argPVs := make([]analyzer.PValue, len(overload.Params))
	for i, p := range overload.Params {
		if p.IsStatic || p.TypePat == nil {
			return nil, false, nil
		}
		t, err := g.Eval.EvalType(p.TypePat, scope)
		if err != nil {
			return nil, false, nil
		}
		argPVs[i] = analyzer.PValue{Type: t}
	}
	return argPVs, true, nil
}
