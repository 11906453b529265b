package codegen

import (
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"

	"github.com/clayc/clay/internal/analyzer"
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
	"github.com/clayc/clay/internal/types"
)

func (c *fnCtx) lowerCall(n *ast.Call) ([]*CValue, error) {
	calleeMV, err := c.analyze(n.Callee)
	if err != nil {
		return nil, err
	}
	calleePV, _ := calleeMV.Single()

	args, err := c.lowerArgs(n.Args)
	if err != nil {
		return nil, err
	}

	if calleePV.Type.Kind == types.KindCodePointer {
		fnVal, err := c.one(n.Callee)
		if err != nil {
			return nil, err
		}
		return c.emitIndirectCall(n, fnVal, args, calleePV.Type)
	}
	if calleePV.Type.Kind != types.KindStatic {
		return nil, diag.Internal(n.Pos(), "codegen: call target is not a code-pointer or static object")
	}

	obj := calleePV.Type.StaticObj
	if name, ok := env.PrimopName(obj); ok {
		return c.lowerPrimopCall(n, name, args)
	}

	argPVs, err := c.analyzeArgPValues(n.Args)
	if err != nil {
		return nil, err
	}

	callable, err := callableFor(n.Pos(), c.gen, obj)
	if err != nil {
		return nil, err
	}
	return c.lowerResolvedCall(n.Pos(), callable, argPVs, args)
}

func callableFor(at diag.Pos, g *Generator, obj any) (any, error) {
	switch v := obj.(type) {
	case *ast.ProcedureDef:
		return v, nil
	case *types.Type:
		return v, nil
	case *ast.RecordDef:
		return g.Registry.Record(v, nil), nil
	case *ast.VariantDef:
		return g.Registry.Variant(v, nil), nil
	default:
		return nil, diag.Internal(at, "codegen: %T is not callable", obj)
	}
}

// lowerResolvedCall looks up the invoke-entry the resolver already
// memoized for (callable, argPVs) during analysis and emits it:
// runtimeArgs supplies the CValues for its non-static parameters (in the
// same declared order), argPVs the full shape (including static
// parameters) used to key the resolver's memo.
func (c *fnCtx) lowerResolvedCall(at diag.Pos, callable any, argPVs []analyzer.PValue, runtimeArgs []*CValue) ([]*CValue, error) {
	overload, ok := c.gen.Analyzer.Resolver.ResolvedOverload(callable, argPVs)
	if !ok {
		return nil, diag.Internal(at, "codegen: no resolved overload recorded for this call (analysis must run before codegen)")
	}
	// Re-running Resolve against the exact same (callable, argPVs) pair
	// hits the resolver's own memo (internal/analyzer/resolver.go) and
	// returns the already-computed return shape without re-deriving it —
	// codegen never makes its own resolution decision, only replays it.
	retShape, err := c.gen.Analyzer.Resolver.Resolve(c.gen.Analyzer, c.ascope, callable, argPVs, at)
	if err != nil {
		return nil, err
	}
	return c.emitDirectCallAt(at, callable, overload, argPVs, runtimeArgsFor(overload, runtimeArgs), retShape)
}

// lowerResolvedCallByName is lowerResolvedCall for a prelude desugaring
// reached by name (FieldRef -> env.PreludeFieldRef) rather than through an
// ordinary Call node.
func (c *fnCtx) lowerResolvedCallByName(at diag.Pos, procName string, argPVs []analyzer.PValue, runtimeArgs []*CValue) ([]*CValue, error) {
	obj, ok := c.ascope.Lookup(procName)
	if !ok {
		return nil, diag.Internal(at, "codegen: undefined prelude name %q", procName)
	}
	proc, ok := obj.(*ast.ProcedureDef)
	if !ok {
		return nil, diag.Internal(at, "codegen: %q does not name a procedure", procName)
	}
	return c.lowerResolvedCall(at, proc, argPVs, runtimeArgs)
}

// runtimeArgsFor drops any CValue whose corresponding declared parameter is
// static: a static parameter is bound by pattern unification at
// resolution time, not passed at runtime, so it never occupies a slot in
// the emitted function's signature. Extra args beyond the declared
// parameter list (absorbed by a VarParam) are assumed runtime.
func runtimeArgsFor(overload *ast.OverloadDef, args []*CValue) []*CValue {
	out := make([]*CValue, 0, len(args))
	for i, a := range args {
		if i < len(overload.Params) && overload.Params[i].IsStatic {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (c *fnCtx) lowerArgs(exprs []ast.Expr) ([]*CValue, error) {
	var out []*CValue
	for _, e := range exprs {
		vs, err := c.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
		for _, v := range vs {
			if v.IsTemp {
				c.temps.push(v)
			}
		}
	}
	return out, nil
}

func (c *fnCtx) analyzeArgPValues(exprs []ast.Expr) ([]analyzer.PValue, error) {
	var out []analyzer.PValue
	for _, e := range exprs {
		mv, err := c.analyze(e)
		if err != nil {
			return nil, err
		}
		out = append(out, mv...)
	}
	return out, nil
}

// emitIndirectCall calls through a CodePointer value: callee's own
// convention returns a 32-bit status plus one sret-style pointer argument
// per declared return — the caller allocas a slot per return value,
// passes its address, and checks the status with checkUnwind, so a non-zero
// status takes the same unwind path as a direct call's.
func (c *fnCtx) emitIndirectCall(n *ast.Call, fnVal *CValue, args []*CValue, sig *types.Type) ([]*CValue, error) {
	callArgs := make([]value.Value, 0, len(args)+len(sig.ReturnTypes))
	for _, a := range args {
		callArgs = append(callArgs, a.Val)
	}
	retSlots := make([]*CValue, len(sig.ReturnTypes))
	for i, rt := range sig.ReturnTypes {
		lt, err := c.gen.LLVMType(n.Pos(), rt)
		if err != nil {
			return nil, err
		}
		slot := c.block.NewAlloca(lt)
		callArgs = append(callArgs, slot)
		retSlots[i] = &CValue{Addr: slot, Type: rt, IsTemp: !sig.ReturnIsRef[i]}
	}
	status := c.block.NewCall(fnVal.Val, callArgs...)
	c.checkUnwind(n.Pos(), status)

	out := make([]*CValue, len(retSlots))
	for i, slot := range retSlots {
		lt, err := c.gen.LLVMType(n.Pos(), slot.Type)
		if err != nil {
			return nil, err
		}
		out[i] = &CValue{Val: c.block.NewLoad(lt, slot.Addr), Addr: slot.Addr, Type: slot.Type, IsTemp: slot.IsTemp}
	}
	return out, nil
}

// emitDirectCallAt resolves callable/overload to (or lazily creates) its
// *ir.Func and calls it, unless the overload is declared inline/macro, in
// which case its body is emitted directly at the call site with its
// parameters bound to args (inlined-procedure body-at-call-site emission).
// retShape is the resolver's own memoized result for this
// exact (callable, argPVs) pair — codegen never infers a return shape
// itself, only replays what analysis already decided.
func (c *fnCtx) emitDirectCallAt(at diag.Pos, callable any, overload *ast.OverloadDef, argPVs []analyzer.PValue, args []*CValue, retShape analyzer.MultiPValue) ([]*CValue, error) {
	if overload.InlineLLVM != "" {
		return c.emitInlineLLVM(at, overload, args)
	}
	if overload.Inline || overload.Macro {
		return c.emitInlineBody(at, overload, argPVs, args, retShape)
	}

	fn, err := c.gen.getOrDeclareFunc(at, callable, overload, c.ascope, argPVs, retShape)
	if err != nil {
		return nil, err
	}

	callArgs := make([]value.Value, 0, len(args)+len(retShape))
	for _, a := range args {
		callArgs = append(callArgs, a.Val)
	}
	retSlots := make([]*CValue, len(retShape))
	for i, rt := range retShape {
		lt, err := c.gen.LLVMType(at, rt.Type)
		if err != nil {
			return nil, err
		}
		slot := c.block.NewAlloca(lt)
		callArgs = append(callArgs, slot)
		retSlots[i] = &CValue{Addr: slot, Type: rt.Type, IsTemp: rt.IsTemp}
	}
	status := c.block.NewCall(fn, callArgs...)
	c.checkUnwind(at, status)

	out := make([]*CValue, len(retSlots))
	for i, slot := range retSlots {
		lt, err := c.gen.LLVMType(at, slot.Type)
		if err != nil {
			return nil, err
		}
		out[i] = &CValue{Val: c.block.NewLoad(lt, slot.Addr), Addr: slot.Addr, Type: slot.Type, IsTemp: slot.IsTemp}
	}
	return out, nil
}

// checkUnwind implements the status-code propagation protocol: if status !=
// statusOK, control transfers along the unwind path (see raiseUnwind) —
// to the nearest enclosing TryStmt's dispatch block when one is active,
// or otherwise to this function's own status-returning exit.
func (c *fnCtx) checkUnwind(at diag.Pos, status value.Value) {
	okBlock := c.fn.NewBlock("")
	unwindBlock := c.fn.NewBlock("")
	isOK := c.block.NewICmp(enum.IPredEQ, status, i32const(statusOK))
	c.block.NewCondBr(isOK, okBlock, unwindBlock)
	c.block = unwindBlock
	c.raiseUnwind(at)
	c.block = okBlock
}
