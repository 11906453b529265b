package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"

	"github.com/clayc/clay/internal/analyzer"
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/types"
)

// lowerBlock lowers b's statements into a fresh lexical scope (a child of
// c's ascope/lscope, mirroring analyzer/stmt.go's analyzeBlock), pushing
// one temp-stack marker and destroying everything above it on every exit
// edge. The block's final IR position (which may differ from
// c.block if a nested construct branched) is written back to c.block.
func (c *fnCtx) lowerBlock(b *ast.Block) error {
	bc := c.childScope(c.block)
	mark := bc.temps.pushMark()
	for _, s := range b.Stmts {
		if err := bc.lowerStmt(s); err != nil {
			return err
		}
		if bc.block.Term != nil {
			break
		}
	}
	if bc.block.Term == nil {
		bc.gen.destructorCalls(bc.block, bc.temps.above(mark))
	}
	bc.temps.truncate(mark)
	c.block = bc.block
	return nil
}

func (c *fnCtx) lowerStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.VarStmt:
		return c.lowerVarStmt(n)
	case *ast.ExprStmt:
		vs, err := c.lowerExpr(n.Value)
		if err != nil {
			return err
		}
		for _, v := range vs {
			if v.IsTemp {
				c.temps.push(v)
			}
		}
		return nil
	case *ast.AssignStmt:
		return c.lowerAssignStmt(n)
	case *ast.IfStmt:
		return c.lowerIfStmt(n)
	case *ast.WhileStmt:
		return c.lowerWhileStmt(n)
	case *ast.ForStmt:
		return c.lowerForStmt(n)
	case *ast.ReturnStmt:
		return c.lowerReturnStmt(n)
	case *ast.BreakStmt:
		return c.lowerBreakStmt(n)
	case *ast.ContinueStmt:
		return c.lowerContinueStmt(n)
	case *ast.TryStmt:
		return c.lowerTryStmt(n)
	case *ast.ThrowStmt:
		return c.lowerThrowStmt(n)
	default:
		return diag.Internal(s.Pos(), "codegen: unhandled statement form %T", s)
	}
}

// lowerVarStmt mirrors analyzer/stmt.go's analyzeVarStmt: an explicit
// Type is evaluated directly; an omitted one is inferred from Init's
// lowered CValue. The variable gets a real stack slot (rather than a bare
// SSA binding) so a later AssignStmt or addressOf can target it.
func (c *fnCtx) lowerVarStmt(n *ast.VarStmt) error {
	var initCV *CValue
	if n.Init != nil {
		cv, err := c.one(n.Init)
		if err != nil {
			return err
		}
		initCV = cv
	}

	var t *types.Type
	if n.Type != nil {
		ty, err := c.gen.Eval.EvalType(n.Type, c.ascope)
		if err != nil {
			return err
		}
		t = ty
	} else {
		t = initCV.Type
	}

	lt, err := c.gen.LLVMType(n.Pos(), t)
	if err != nil {
		return err
	}
	slot := c.block.NewAlloca(lt)
	if initCV != nil {
		c.block.NewStore(initCV.Val, slot)
	} else {
		c.block.NewStore(zeroValue(lt), slot)
	}

	c.ascope.Bind(n.Name.Name, &analyzer.LocalBinding{Type: t, IsTemp: false})
	c.lscope.bind(n.Name.Name, &CValue{Addr: slot, Type: t, IsTemp: false})
	return nil
}

// lowerAssignStmt stores Value into Target's address; Target is lowered
// the same way any other expression is (mirroring analyzeStmt's AssignStmt
// case), so it must resolve to a CValue with a stable Addr — true of a
// VarStmt local, a record/tuple/array element, or a pointer dereference.
func (c *fnCtx) lowerAssignStmt(n *ast.AssignStmt) error {
	targetCV, err := c.one(n.Target)
	if err != nil {
		return err
	}
	if targetCV.Addr == nil {
		return diag.Internal(n.Pos(), "codegen: assignment target has no address")
	}
	valCV, err := c.one(n.Value)
	if err != nil {
		return err
	}
	c.block.NewStore(valCV.Val, targetCV.Addr)
	return nil
}

func (c *fnCtx) lowerIfStmt(n *ast.IfStmt) error {
	condCV, err := c.one(n.Cond)
	if err != nil {
		return err
	}

	thenBlock := c.fn.NewBlock("if.then")
	elseBlock := c.fn.NewBlock("if.else")
	endBlock := c.fn.NewBlock("if.end")
	c.block.NewCondBr(condCV.Val, thenBlock, elseBlock)

	thenCtx := c.child(thenBlock)
	if err := thenCtx.lowerBlock(n.Then); err != nil {
		return err
	}
	thenFalls := thenCtx.block.Term == nil
	if thenFalls {
		thenCtx.block.NewBr(endBlock)
	}

	elseCtx := c.child(elseBlock)
	elseFalls := true
	if n.Else != nil {
		if err := elseCtx.lowerBlock(n.Else); err != nil {
			return err
		}
		elseFalls = elseCtx.block.Term == nil
	}
	if elseFalls {
		elseCtx.block.NewBr(endBlock)
	}

	c.block = endBlock
	if !thenFalls && !elseFalls {
		// Both arms already terminated (return/throw/break/continue): the
		// join block is unreachable but still needs a terminator.
		endBlock.NewUnreachable()
	}
	return nil
}

func (c *fnCtx) lowerWhileStmt(n *ast.WhileStmt) error {
	condBlock := c.fn.NewBlock("while.cond")
	bodyBlock := c.fn.NewBlock("while.body")
	endBlock := c.fn.NewBlock("while.end")
	c.block.NewBr(condBlock)

	condCtx := c.child(condBlock)
	condCV, err := condCtx.one(n.Cond)
	if err != nil {
		return err
	}
	condCtx.block.NewCondBr(condCV.Val, bodyBlock, endBlock)

	mark := c.temps.pushMark()
	bodyCtx := c.child(bodyBlock)
	bodyCtx.loop = &loopFrame{continueBlock: condBlock, breakBlock: endBlock, tempMark: mark}
	if err := bodyCtx.lowerBlock(n.Body); err != nil {
		return err
	}
	if bodyCtx.block.Term == nil {
		bodyCtx.gen.destructorCalls(bodyCtx.block, bodyCtx.temps.above(mark))
		bodyCtx.block.NewBr(condBlock)
	}
	c.temps.truncate(mark)

	c.block = endBlock
	return nil
}

// lowerForStmt handles both an ordinary runtime loop over an Array (the
// well-defined case analyzer/stmt.go's analyzeForStmt type-checks) and the
// `static for` form, which unrolls at codegen time per actual element
// rather than per distinct element type (analysis only needs the latter
// to type-check every instantiation; codegen must emit each one).
func (c *fnCtx) lowerForStmt(n *ast.ForStmt) error {
	if n.IsStaticFor {
		return c.lowerStaticFor(n)
	}

	overCV, err := c.one(n.Over)
	if err != nil {
		return err
	}

	if overCV.Type.Kind != types.KindArray {
		// A non-array source runs its body once, mirroring the analyzer's
		// fallback binding: there is no multi-element shape to iterate at
		// either analysis or codegen time (internal/analyzer/stmt.go's
		// analyzeForStmt else-branch).
		bc := c.childScope(c.block)
		bc.ascope.Bind(n.Var.Name, &analyzer.LocalBinding{Type: overCV.Type, IsTemp: overCV.IsTemp})
		bc.lscope.bind(n.Var.Name, overCV)
		if err := bc.lowerBlock(n.Body); err != nil {
			return err
		}
		c.block = bc.block
		return nil
	}

	elemT := overCV.Type.Elem
	idxSlot := c.block.NewAlloca(irtypes.I64)
	c.block.NewStore(constant.NewInt(irtypes.I64, 0), idxSlot)

	condBlock := c.fn.NewBlock("for.cond")
	bodyBlock := c.fn.NewBlock("for.body")
	endBlock := c.fn.NewBlock("for.end")
	c.block.NewBr(condBlock)

	idxVal := condBlock.NewLoad(irtypes.I64, idxSlot)
	lenConst := constant.NewInt(irtypes.I64, int64(overCV.Type.ArrayLen))
	cond := condBlock.NewICmp(enum.IPredSLT, idxVal, lenConst)
	condBlock.NewCondBr(cond, bodyBlock, endBlock)

	mark := c.temps.pushMark()
	bc := c.childScope(bodyBlock)
	bc.loop = &loopFrame{continueBlock: condBlock, breakBlock: endBlock, tempMark: mark}
	elemCV := c.gen.arrayElemCValue(bodyBlock, overCV, idxVal)
	bc.ascope.Bind(n.Var.Name, &analyzer.LocalBinding{Type: elemT, IsTemp: false})
	bc.lscope.bind(n.Var.Name, elemCV)
	if err := bc.lowerBlock(n.Body); err != nil {
		return err
	}
	if bc.block.Term == nil {
		bc.gen.destructorCalls(bc.block, bc.temps.above(mark))
		nextIdx := bc.block.NewAdd(idxVal, constant.NewInt(irtypes.I64, 1))
		bc.block.NewStore(nextIdx, idxSlot)
		bc.block.NewBr(condBlock)
	}
	c.temps.truncate(mark)

	c.block = endBlock
	return nil
}

func (c *fnCtx) lowerStaticFor(n *ast.ForStmt) error {
	overCV, err := c.one(n.Over)
	if err != nil {
		return err
	}
	switch overCV.Type.Kind {
	case types.KindTuple:
		for i, et := range overCV.Type.TupleElems {
			elemCV := c.gen.tupleElemCValue(c.block, overCV, i, et)
			bc := c.childScope(c.block)
			bc.ascope.Bind(n.Var.Name, &analyzer.LocalBinding{Type: et, IsTemp: false})
			bc.lscope.bind(n.Var.Name, elemCV)
			if err := bc.lowerBlock(n.Body); err != nil {
				return err
			}
			c.block = bc.block
		}
		return nil
	case types.KindVariant:
		return c.lowerStaticForVariant(n, overCV)
	default:
		return diag.Internal(n.Pos(), "codegen: static for requires a tuple or variant source")
	}
}

// lowerStaticForVariant unrolls once per possible member type, guarding
// each unrolled copy of the body with a runtime check of the variant's
// tag — only one member is ever actually live, so unlike the tuple case
// this cannot just read every "element" unconditionally. Member i's tag
// is assumed to be i, the same fixed declaration-order convention
// primop.go's enumToInt/intToEnum already use for Enum.
func (c *fnCtx) lowerStaticForVariant(n *ast.ForStmt, overCV *CValue) error {
	members := overCV.Type.Members()
	if len(members) == 0 {
		return nil
	}
	overAddr := c.gen.addr(c.block, overCV)
	overLT, err := c.gen.LLVMType(n.Pos(), overCV.Type)
	if err != nil {
		return err
	}
	tagPtr := c.block.NewGetElementPtr(overLT, overAddr, i32const(0), i32const(0))
	tagVal := c.block.NewLoad(irtypes.I32, tagPtr)
	dataPtr := c.block.NewGetElementPtr(overLT, overAddr, i32const(0), i32const(1))

	endBlock := c.fn.NewBlock("staticfor.end")
	cur := c.block
	for i, mt := range members {
		caseBlock := c.fn.NewBlock("staticfor.case")
		nextBlock := c.fn.NewBlock("staticfor.next")
		eq := cur.NewICmp(enum.IPredEQ, tagVal, i32const(int64(i)))
		cur.NewCondBr(eq, caseBlock, nextBlock)

		mlt, err := c.gen.LLVMType(n.Pos(), mt)
		if err != nil {
			return err
		}
		typed := caseBlock.NewBitCast(dataPtr, irtypes.NewPointer(mlt))
		loaded := caseBlock.NewLoad(mlt, typed)
		elemCV := &CValue{Val: loaded, Addr: typed, Type: mt, IsTemp: false}

		bc := c.childScope(caseBlock)
		bc.ascope.Bind(n.Var.Name, &analyzer.LocalBinding{Type: mt, IsTemp: false})
		bc.lscope.bind(n.Var.Name, elemCV)
		if err := bc.lowerBlock(n.Body); err != nil {
			return err
		}
		if bc.block.Term == nil {
			bc.block.NewBr(endBlock)
		}
		cur = nextBlock
	}
	cur.NewBr(endBlock)
	c.block = endBlock
	return nil
}

// lowerReturnStmt stores each returned value into this function's
// sret-style retSlots and returns statusOK. Kind (ReturnValue /
// ReturnRef / ReturnForward) only affects whether analysis treated the
// returned PValues as temporaries (analyzer/stmt.go's analyzeReturn
// clears IsTemp for ReturnRef); codegen's own lowering of the return
// expressions already reflects that, so no Kind-specific branch is needed
// here beyond that.
func (c *fnCtx) lowerReturnStmt(n *ast.ReturnStmt) error {
	for i, e := range n.Values {
		cv, err := c.one(e)
		if err != nil {
			return err
		}
		if i >= len(c.retSlots) {
			return diag.Internal(n.Pos(), "codegen: return statement has more values than the function declares")
		}
		c.block.NewStore(cv.Val, c.retSlots[i])
	}
	c.gen.destructorCalls(c.block, c.temps.above(c.retTempMark))
	if c.inlineExit != nil {
		// An inline/macro body's return ends the callee, not the enclosing
		// real function: branch to the call site's continuation instead of
		// emitting a function-level `ret` (see expr.go's inlineExit).
		c.block.NewBr(c.inlineExit)
		return nil
	}
	c.block.NewRet(i32const(statusOK))
	return nil
}

func (c *fnCtx) lowerBreakStmt(n *ast.BreakStmt) error {
	if c.loop == nil {
		return diag.Internal(n.Pos(), "codegen: break outside of a loop")
	}
	c.gen.destructorCalls(c.block, c.temps.above(c.loop.tempMark))
	c.block.NewBr(c.loop.breakBlock)
	return nil
}

func (c *fnCtx) lowerContinueStmt(n *ast.ContinueStmt) error {
	if c.loop == nil {
		return diag.Internal(n.Pos(), "codegen: continue outside of a loop")
	}
	c.gen.destructorCalls(c.block, c.temps.above(c.loop.tempMark))
	c.block.NewBr(c.loop.continueBlock)
	return nil
}

// lowerThrowStmt stores the thrown value's type tag and a pointer to its
// storage into the generator's exception side-channel (except.go) and
// raises an unwind.
func (c *fnCtx) lowerThrowStmt(n *ast.ThrowStmt) error {
	cv, err := c.one(n.Value)
	if err != nil {
		return err
	}
	tagSlot, dataSlot := c.gen.excSlots()
	addr := c.gen.addr(c.block, cv)
	casted := c.block.NewBitCast(addr, irtypes.NewPointer(irtypes.I8))
	c.block.NewStore(constant.NewInt(irtypes.I32, int64(c.gen.typeTag(cv.Type))), tagSlot)
	c.block.NewStore(casted, dataSlot)
	c.gen.destructorCalls(c.block, c.temps.above(0))
	c.raiseUnwind(n.Pos())
	return nil
}

// lowerTryStmt routes every unwind raised inside Body (a local ThrowStmt,
// or a propagated non-OK status from a call checkUnwind sees) to a
// dispatch block that reads the pending exception's type tag and
// branches to the first Catches clause whose ExcType matches, in
// declaration order; a clause with ExcType == nil matches unconditionally
// and is assumed last. No match re-raises to the try's own enclosing
// unwind target (or the function's own exit, if there is none).
func (c *fnCtx) lowerTryStmt(n *ast.TryStmt) error {
	dispatchBlock := c.fn.NewBlock("try.dispatch")
	endBlock := c.fn.NewBlock("try.end")

	bodyCtx := c.child(c.block)
	bodyCtx.unwindTarget = dispatchBlock
	mark := bodyCtx.temps.pushMark()
	if err := bodyCtx.lowerBlock(n.Body); err != nil {
		return err
	}
	if bodyCtx.block.Term == nil {
		bodyCtx.gen.destructorCalls(bodyCtx.block, bodyCtx.temps.above(mark))
		bodyCtx.block.NewBr(endBlock)
	}
	bodyCtx.temps.truncate(mark)

	tagSlot, dataSlot := c.gen.excSlots()
	tagVal := dispatchBlock.NewLoad(irtypes.I32, tagSlot)

	cur := dispatchBlock
	caughtAll := false
	for _, cc := range n.Catches {
		catchBlock := c.fn.NewBlock("try.catch")
		if cc.ExcType == nil {
			cur.NewBr(catchBlock)
			caughtAll = true
		} else {
			excT, err := c.gen.Eval.EvalType(cc.ExcType, c.ascope)
			if err != nil {
				return err
			}
			nextBlock := c.fn.NewBlock("try.dispatch")
			eq := cur.NewICmp(enum.IPredEQ, tagVal, i32const(int64(c.gen.typeTag(excT))))
			cur.NewCondBr(eq, catchBlock, nextBlock)
			cur = nextBlock
		}
		if err := c.lowerCatchBody(cc, catchBlock, dataSlot, endBlock); err != nil {
			return err
		}
		if caughtAll {
			break
		}
	}
	if !caughtAll {
		missCtx := c.child(cur)
		missCtx.raiseUnwind(n.Pos())
	}

	c.block = endBlock
	return nil
}

func (c *fnCtx) lowerCatchBody(cc ast.CatchClause, block *ir.Block, dataSlot *ir.Global, endBlock *ir.Block) error {
	catchCtx := c.childScope(block)
	if cc.Var != nil && cc.ExcType != nil {
		excT, err := c.gen.Eval.EvalType(cc.ExcType, c.ascope)
		if err != nil {
			return err
		}
		lt, err := c.gen.LLVMType(cc.At, excT)
		if err != nil {
			return err
		}
		dataPtr := block.NewLoad(irtypes.NewPointer(irtypes.I8), dataSlot)
		typed := block.NewBitCast(dataPtr, irtypes.NewPointer(lt))
		loaded := block.NewLoad(lt, typed)
		catchCtx.ascope.Bind(cc.Var.Name, &analyzer.LocalBinding{Type: excT, IsTemp: false})
		catchCtx.lscope.bind(cc.Var.Name, &CValue{Val: loaded, Addr: typed, Type: excT, IsTemp: false})
	}
	mark := catchCtx.temps.pushMark()
	if err := catchCtx.lowerBlock(cc.Body); err != nil {
		return err
	}
	if catchCtx.block.Term == nil {
		catchCtx.gen.destructorCalls(catchCtx.block, catchCtx.temps.above(mark))
		catchCtx.block.NewBr(endBlock)
	}
	catchCtx.temps.truncate(mark)
	return nil
}
