package codegen

import (
	"github.com/llir/llvm/ir/value"

	"github.com/clayc/clay/internal/analyzer"
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
)

// emitInlineBody splices overload's Body directly into the caller's block
// (inline/macro procedures), rather than calling a separate *ir.Func:
// its non-static Params are bound to args the same way getOrDeclareFunc
// binds an ordinary overload's parameters, but ReturnStmt inside Body ends
// the callee by branching to a fresh continuation block instead of emitting
// a function-level `ret` — inlining introduces no new call boundary, so a
// Clay-level return here must not also return from the enclosing real
// function. An unhandled throw from inside the body is unaffected: it still
// propagates to the nearest enclosing TryStmt, or the enclosing real
// function's own status-returning exit, exactly as if the call had not been
// inlined (raiseUnwind/emitUnwindExit, except.go).
func (c *fnCtx) emitInlineBody(at diag.Pos, overload *ast.OverloadDef, argPVs []analyzer.PValue, args []*CValue, retShape analyzer.MultiPValue) ([]*CValue, error) {
	// argPVs carries one entry per declared parameter, including static
	// ones; args has already had static parameters dropped
	// (runtimeArgsFor, call.go), so the two are walked with independent
	// counters — mirroring getOrDeclareFunc's own two-counter parameter
	// binding below it in func.go.
	scope := c.ascope.Child()
	lscope := newLocalScope(c.lscope)
	pi, ri := 0, 0
	for _, p := range overload.Params {
		if pi >= len(argPVs) {
			break
		}
		pv := argPVs[pi]
		pi++
		if p.IsStatic {
			scope.Bind(p.Name.Name, pv.Type.StaticObj)
			continue
		}
		if ri >= len(args) {
			return nil, diag.Internal(at, "codegen: inline call is missing a runtime argument for %q", p.Name.Name)
		}
		lscope.bind(p.Name.Name, args[ri])
		scope.Bind(p.Name.Name, &analyzer.LocalBinding{Type: pv.Type, IsTemp: pv.IsTemp})
		ri++
	}

	retSlots := make([]value.Value, len(retShape))
	for i, rt := range retShape {
		lt, err := c.gen.LLVMType(at, rt.Type)
		if err != nil {
			return nil, err
		}
		retSlots[i] = c.block.NewAlloca(lt)
	}

	endBlock := c.fn.NewBlock("inline.end")
	bc := &fnCtx{
		gen: c.gen, fn: c.fn, block: c.block, ascope: scope, lscope: lscope, temps: c.temps,
		retSlots: retSlots, unwindTarget: c.unwindTarget, loop: nil, inlineExit: endBlock,
	}
	mark := bc.temps.pushMark()
	bc.retTempMark = mark
	if err := bc.lowerBlock(overload.Body); err != nil {
		return nil, err
	}
	if bc.block.Term == nil {
		bc.gen.destructorCalls(bc.block, bc.temps.above(mark))
		bc.block.NewBr(endBlock)
	}
	bc.temps.truncate(mark)

	c.block = endBlock
	out := make([]*CValue, len(retShape))
	for i, rt := range retShape {
		lt, err := c.gen.LLVMType(at, rt.Type)
		if err != nil {
			return nil, err
		}
		loaded := c.block.NewLoad(lt, retSlots[i])
		out[i] = &CValue{Val: loaded, Addr: retSlots[i], Type: rt.Type, IsTemp: rt.IsTemp}
	}
	return out, nil
}

// emitInlineLLVM would splice an overload's raw-LLVM-template body
// (OverloadDef.InlineLLVM, a textual IR fragment) directly into the
// caller's block. Doing that faithfully needs an LLVM IR text parser to
// turn the template into instructions against this function's live
// value.Values — github.com/llir/llvm (this port's only LLVM dependency,
// grounded on the teacher's own llvm.go) is an IR *builder*, not a parser,
// and no other example in the pack carries one either. Rather than
// hand-rolling a parser for a rarely-used escape hatch, this is left
// unimplemented and fails loudly instead of silently mis-lowering.
func (c *fnCtx) emitInlineLLVM(at diag.Pos, overload *ast.OverloadDef, args []*CValue) ([]*CValue, error) {
	return nil, diag.Internal(at, "codegen: raw-LLVM-template overloads (inline_llvm) are not supported by this backend")
}
