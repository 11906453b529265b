package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/clayc/clay/internal/analyzer"
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
)

// callableName mirrors analyzer/resolver.go's private callableName well
// enough for function-name mangling purposes: a readable tag per callable
// kind, not a guarantee of global uniqueness on its own (funcKey's shape
// component carries that).
func callableName(callable any) string {
	switch v := callable.(type) {
	case *ast.ProcedureDef:
		return v.Name.Name
	default:
		return fmt.Sprintf("%T", v)
	}
}

func runtimeShapeKey(args []analyzer.PValue) string {
	key := ""
	for _, a := range args {
		key += fmt.Sprintf("%p:%v,", a.Type, a.IsTemp)
	}
	return key
}

// getOrDeclareFunc returns the *ir.Func for one (callable, overload,
// argument-shape) instantiation, declaring and emitting its body on first
// request. A generic overload reached through two different argument
// shapes gets two distinct functions — mirroring the resolver's own
// per-shape invoke-entry (internal/analyzer/resolver.go) — so funcKey
// carries the same shape string the resolver keys its memo on. retShape is
// the resolver's already-memoized return shape for this exact call: no
// re-derivation, just replaying the earlier decision.
func (g *Generator) getOrDeclareFunc(at diag.Pos, callable any, overload *ast.OverloadDef, callerScope *env.Environment, argPVs []analyzer.PValue, retShape analyzer.MultiPValue) (*ir.Func, error) {
	key := funcKey{callable: callable, overload: overload, shape: runtimeShapeKey(argPVs)}
	if fn, ok := g.funcs[key]; ok {
		return fn, nil
	}
	name := fmt.Sprintf("%s$%d", callableName(callable), len(g.funcs))
	return g.instantiateFunc(key, name, overload, callerScope, argPVs, retShape, at)
}

// declareNamedFunc is getOrDeclareFunc for a call site that needs a
// specific, stable LLVM symbol name instead of the usual `$N` disambiguator
// (exports.go's shared-library export path, where the name is the
// procedure's own declared name rather than an internal instantiation
// tag). Still registers under the ordinary funcKey cache, so an internal
// call site reaching the same (callable, overload, shape) later reuses
// this same *ir.Func rather than declaring a second copy.
func (g *Generator) declareNamedFunc(name string, callable any, overload *ast.OverloadDef, callerScope *env.Environment, argPVs []analyzer.PValue, retShape analyzer.MultiPValue) (*ir.Func, error) {
	key := funcKey{callable: callable, overload: overload, shape: runtimeShapeKey(argPVs)}
	if fn, ok := g.funcs[key]; ok {
		return fn, nil
	}
	return g.instantiateFunc(key, name, overload, callerScope, argPVs, retShape, noPos)
}

// instantiateFunc declares name as a fresh *ir.Func for overload bound
// against argPVs/retShape, lowers its body, and registers it under key —
// the shared machinery behind both getOrDeclareFunc's per-call-site
// monomorphization and declareNamedFunc's fixed-name export path.
func (g *Generator) instantiateFunc(key funcKey, name string, overload *ast.OverloadDef, callerScope *env.Environment, argPVs []analyzer.PValue, retShape analyzer.MultiPValue, at diag.Pos) (*ir.Func, error) {
	// candScope mirrors internal/analyzer/resolver.go's tryCandidate: a
	// child of the call-site scope (not of the overload's home module
	// environment) with each
	// parameter bound the same way bindParam did. Resolution already
	// verified these bindings are consistent with overload's TypePat
	// patterns, so codegen just replays the bindings rather than
	// re-running pattern.UnifyType/UnifyValue.
	candScope := callerScope.Child()
	ai := 0
	for _, p := range overload.Params {
		if ai >= len(argPVs) {
			break
		}
		if p.IsStatic {
			candScope.Bind(p.Name.Name, argPVs[ai].Type.StaticObj)
		} else {
			candScope.Bind(p.Name.Name, &analyzer.LocalBinding{Type: argPVs[ai].Type, IsTemp: argPVs[ai].IsTemp})
		}
		ai++
	}

	params := make([]*ir.Param, 0, len(overload.Params)+len(retShape))
	paramCValues := make([]*CValue, 0, len(overload.Params))
	ai = 0
	for _, p := range overload.Params {
		if ai >= len(argPVs) {
			break
		}
		pv := argPVs[ai]
		ai++
		if p.IsStatic {
			continue
		}
		lt, err := g.LLVMType(at, pv.Type)
		if err != nil {
			return nil, err
		}
		param := ir.NewParam(p.Name.Name, lt)
		params = append(params, param)
		paramCValues = append(paramCValues, &CValue{Val: param, Type: pv.Type, IsTemp: pv.IsTemp})
	}
	retParams := make([]*ir.Param, len(retShape))
	for i, rt := range retShape {
		lt, err := g.LLVMType(at, rt.Type)
		if err != nil {
			return nil, err
		}
		retParams[i] = ir.NewParam(fmt.Sprintf("$ret%d", i), irtypes.NewPointer(lt))
		params = append(params, retParams[i])
	}

	fn := g.Module.NewFunc(name, irtypes.I32, params...)
	g.funcs[key] = fn

	entry := fn.NewBlock("entry")
	lscope := newLocalScope(nil)
	ai = 0
	for _, p := range overload.Params {
		if p.IsStatic || ai >= len(paramCValues) {
			continue
		}
		lscope.bind(p.Name.Name, paramCValues[ai])
		ai++
	}

	retSlots := make([]value.Value, len(retParams))
	for i, p := range retParams {
		retSlots[i] = p
	}
	fc := &fnCtx{gen: g, fn: fn, block: entry, ascope: candScope, lscope: lscope, temps: &tempStack{}, retSlots: retSlots}
	mark := fc.temps.pushMark()
	fc.retTempMark = mark
	if err := fc.lowerBlock(overload.Body); err != nil {
		return nil, err
	}
	fc.gen.destructorCalls(fc.block, fc.temps.above(mark))
	fc.temps.truncate(mark)
	if fc.block.Term == nil {
		fc.block.NewRet(i32const(statusOK))
	}
	return fn, nil
}

// emitUnwindExit runs every live temporary's destructor and returns
// statusUnwinding: the default behavior at a checkUnwind site, used
// unless the call sits inside a TryStmt (stmt.go's lowerTryStmt installs
// its own unwind target instead).
func (c *fnCtx) emitUnwindExit(block *ir.Block, at diag.Pos) {
	c.gen.destructorCalls(block, c.temps.above(0))
	block.NewRet(i32const(statusUnwinding))
}
