package codegen

import (
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/clayc/clay/internal/analyzer"
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
	"github.com/clayc/clay/internal/types"
)

// fnCtx threads the per-function state expression/statement lowering
// needs: the block being appended to (reassigned whenever control flow
// splits), the analyzer scope used to re-derive MultiPValue shapes, the
// codegen scope mapping names to CValues, and this function's live
// temporary stack.
type fnCtx struct {
	gen    *Generator
	fn     *ir.Func
	block  *ir.Block
	ascope *env.Environment // analyzer-side scope, for re-deriving PValue shapes
	lscope *localScope
	temps  *tempStack

	// retSlots are this function's sret-style return-value destinations, one
	// per declared return — ReturnStmt lowering stores into these
	// before exiting. For an ordinary function these are its *ir.Param
	// return pointers; emitInlineBody instead allocas its own same-length
	// slots local to the call site, since an inlined body shares its
	// caller's *ir.Func rather than getting one of its own.
	retSlots []value.Value

	// retTempMark is the temp-stack depth a ReturnStmt destroys back down
	// to before exiting — 0 for an ordinary function (a fresh tempStack
	// rooted at 0), or the mark captured when emitInlineBody started
	// lowering its body (its temps are pushed onto the *caller's* shared
	// stack, so only what the inline body itself added may be unwound).
	retTempMark int

	// inlineExit, when non-nil, is the continuation block a ReturnStmt
	// branches to instead of emitting a function-level `ret`: set only
	// while lowering an inline/macro body spliced into the caller's own
	// control flow (emitInlineBody), where a Clay-level return ends the
	// callee, not the enclosing real function.
	inlineExit *ir.Block

	// unwindTarget, when non-nil, is the block a ThrowStmt or propagated
	// unwind inside the nearest enclosing TryStmt's Body branches to
	// instead of this function's own emitUnwindExit. Unaffected by
	// inlineExit: an unhandled exception inside an
	// inlined body still exits the real enclosing function, since inlining
	// introduces no new call boundary for it to stop at.
	unwindTarget *ir.Block

	// loop is the nearest enclosing loop's break/continue targets and the
	// temp-stack depth at its entry, or nil outside any loop.
	loop *loopFrame
}

// loopFrame is BreakStmt/ContinueStmt's view of the nearest enclosing
// WhileStmt/ForStmt: where to jump, and how far back up the temp stack to
// destroy before jumping.
type loopFrame struct {
	continueBlock *ir.Block
	breakBlock    *ir.Block
	tempMark      int
}

func (c *fnCtx) child(block *ir.Block) *fnCtx {
	return &fnCtx{gen: c.gen, fn: c.fn, block: block, ascope: c.ascope, lscope: c.lscope, temps: c.temps,
		retSlots: c.retSlots, retTempMark: c.retTempMark, inlineExit: c.inlineExit,
		unwindTarget: c.unwindTarget, loop: c.loop}
}

// childScope is child plus a fresh lexical scope: used wherever a
// construct introduces its own bindings (a Block's statement scope, a
// for-loop's element variable, a catch clause's exception variable) —
// mirroring the analyzer's own scope.Child() at each of those points.
func (c *fnCtx) childScope(block *ir.Block) *fnCtx {
	bc := c.child(block)
	bc.ascope = c.ascope.Child()
	bc.lscope = newLocalScope(c.lscope)
	return bc
}

// analyze returns the MultiPValue e analyzes to in c's analyzer scope,
// through Analyzer.AnalyzeExpr: a memo hit for (e, c.ascope) is returned
// as is, otherwise analysis runs again, with its calls answered from the
// resolver's invoke-entry cache where the same shape was already resolved.
func (c *fnCtx) analyze(e ast.Expr) (analyzer.MultiPValue, error) {
	return c.gen.Analyzer.AnalyzeExpr(e, c.ascope)
}

// lowerExpr emits e's value(s), pushing every synthesized temporary onto
// the live temp stack and returning one CValue per MultiPValue
// entry analysis found for e.
func (c *fnCtx) lowerExpr(e ast.Expr) ([]*CValue, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return c.lowerLiteral(n)
	case *ast.NameRef:
		return c.lowerNameRef(n)
	case *ast.TupleExpr:
		return c.lowerTuple(n)
	case *ast.Call:
		return c.lowerCall(n)
	case *ast.FieldRef:
		return c.lowerFieldRef(n)
	case *ast.IndexExpr:
		return c.lowerIndex(n)
	case *ast.And:
		return c.lowerAndOr(n.Left, n.Right, true)
	case *ast.Or:
		return c.lowerAndOr(n.Left, n.Right, false)
	case *ast.Unpack:
		return c.lowerExpr(n.Operand)
	case *ast.Dispatch:
		return c.lowerExpr(n.Operand)
	case *ast.StaticExpr:
		return c.lowerStatic(n)
	default:
		return nil, diag.Internal(e.Pos(), "codegen: unhandled expression form %T", e)
	}
}

// one is the common case: an expression analysis shows to be single-valued.
func (c *fnCtx) one(e ast.Expr) (*CValue, error) {
	vs, err := c.lowerExpr(e)
	if err != nil {
		return nil, err
	}
	if len(vs) != 1 {
		return nil, diag.Internal(e.Pos(), "codegen: expected a single value, got %d", len(vs))
	}
	return vs[0], nil
}

func (c *fnCtx) lowerLiteral(n *ast.Literal) ([]*CValue, error) {
	mv, err := c.analyze(n)
	if err != nil {
		return nil, err
	}
	pv, _ := mv.Single()
	lt, err := c.gen.LLVMType(n.Pos(), pv.Type)
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case ast.LitBool:
		b := int64(0)
		if n.Text == "true" {
			b = 1
		}
		return []*CValue{{Val: constant.NewInt(lt.(*irtypes.IntType), b), Type: pv.Type, IsTemp: true}}, nil
	case ast.LitInt, ast.LitChar:
		v, perr := strconv.ParseInt(n.Text, 0, 64)
		if perr != nil {
			return nil, diag.Wrap(perr, diag.KindParse, n.Pos(), "invalid integer literal %q", n.Text)
		}
		return []*CValue{{Val: constant.NewInt(lt.(*irtypes.IntType), v), Type: pv.Type, IsTemp: true}}, nil
	case ast.LitFloat:
		v, perr := strconv.ParseFloat(n.Text, 64)
		if perr != nil {
			return nil, diag.Wrap(perr, diag.KindParse, n.Pos(), "invalid float literal %q", n.Text)
		}
		return []*CValue{{Val: constant.NewFloat(lt.(*irtypes.FloatType), v), Type: pv.Type, IsTemp: true}}, nil
	case ast.LitString:
		return c.lowerStringLiteral(n, pv)
	default:
		return nil, diag.Internal(n.Pos(), "codegen: unhandled literal kind %d", n.Kind)
	}
}

// lowerStringLiteral emits a private global char array for n's text and
// constructs the prelude StringConstant record around a pointer to it,
// mirroring the teacher's constant.NewCharArrayFromString + NewGlobalDef
// idiom for string data.
func (c *fnCtx) lowerStringLiteral(n *ast.Literal, pv analyzer.PValue) ([]*CValue, error) {
	data := constant.NewCharArrayFromString(n.Text + "\x00")
	g := c.gen.Module.NewGlobalDef(c.gen.nextStringName(), data)
	ptr := c.block.NewGetElementPtr(data.Type(), g, i32const(0), i32const(0))
	lenT, err := c.gen.LLVMType(n.Pos(), c.gen.Registry.Primitive(types.KindInt64))
	if err != nil {
		return nil, err
	}
	members := []*CValue{
		{Val: ptr, Type: c.gen.Registry.Pointer(c.gen.Registry.Primitive(types.KindUInt8))},
		{Val: constant.NewInt(lenT.(*irtypes.IntType), int64(len(n.Text))), Type: c.gen.Registry.Primitive(types.KindInt64)},
	}
	return []*CValue{c.gen.buildAggregate(c.block, pv.Type, members)}, nil
}

func (g *Generator) nextStringName() string {
	g.strCount++
	return "$str" + strconv.Itoa(g.strCount)
}

func (c *fnCtx) lowerNameRef(n *ast.NameRef) ([]*CValue, error) {
	return c.lowerName(n.Pos(), n.Name.Name)
}

// lowerName is lowerNameRef's logic keyed on a bare name, shared with
// lowerFieldRef's module-qualified branch: a module is a flat compile-time
// namespace over the same global/procedure names (analyzer.go's
// analyzeFieldRef resolves a module-holder field through
// ModuleHolder.ResolveChecked, which names the very same binding an
// unqualified reference to it would), so both paths resolve through this
// one local/global lookup.
func (c *fnCtx) lowerName(at diag.Pos, name string) ([]*CValue, error) {
	if v, ok := c.lscope.lookup(name); ok {
		// A binding with an address (a VarStmt local, a loop variable spilled
		// for addressOf, ...) is reloaded on every reference so an
		// intervening AssignStmt's store is visible; a parameter or other
		// addressless binding's Val is already the current SSA value.
		if v.Addr == nil {
			return []*CValue{v}, nil
		}
		lt, err := c.gen.LLVMType(at, v.Type)
		if err != nil {
			return nil, err
		}
		loaded := c.block.NewLoad(lt, v.Addr)
		return []*CValue{{Val: loaded, Addr: v.Addr, Type: v.Type, IsTemp: false}}, nil
	}
	if g, ok := c.gen.globalByName(name); ok {
		lt, err := c.gen.LLVMType(at, g.cvType)
		if err != nil {
			return nil, err
		}
		loaded := c.block.NewLoad(lt, g.ref)
		return []*CValue{{Val: loaded, Addr: g.ref, Type: g.cvType, IsTemp: false}}, nil
	}
	// A name that resolves to a static object (type, procedure, module) has
	// no runtime representation of its own; it only ever reaches lowerExpr
	// as the callee of a Call or the object of type-construction indexing,
	// both of which consume the NameRef themselves. Reaching here means a
	// static name was evaluated for its own sake, which has no CValue.
	return nil, diag.Internal(at, "codegen: name %q has no runtime value", name)
}

// lowerFieldRef mirrors analyzer.go's analyzeFieldRef: a module-qualified
// reference resolves statically to the named global/procedure; anything
// else desugars to a call against the prelude fieldRef procedure, the same
// rule analysis used to decide this FieldRef's shape in the first place.
func (c *fnCtx) lowerFieldRef(n *ast.FieldRef) ([]*CValue, error) {
	if ref, ok := n.Object.(*ast.NameRef); ok {
		if obj, ok := c.ascope.Lookup(ref.Name.Name); ok {
			if _, ok := obj.(*env.ModuleHolder); ok {
				return c.lowerName(n.Pos(), n.Field.Name)
			}
		}
	}

	objArg, err := c.analyzeArgPValues([]ast.Expr{n.Object})
	if err != nil {
		return nil, err
	}
	if len(objArg) != 1 {
		return nil, diag.Internal(n.Pos(), "codegen: field reference target must be a single value")
	}
	objCV, err := c.one(n.Object)
	if err != nil {
		return nil, err
	}
	fieldArg := analyzer.PValue{Type: c.gen.Registry.Static(n.Field), IsTemp: true}
	argPVs := append(objArg, fieldArg)
	fieldArgCV := &CValue{Val: nil, Type: fieldArg.Type, IsTemp: true}
	return c.lowerResolvedCallByName(n.Pos(), env.PreludeFieldRef, argPVs, []*CValue{objCV, fieldArgCV})
}

// lowerIndex mirrors analyzer.go's analyzeIndexingExpr: a type-constructor
// application (Array[Int,10], Pointer[T], ...) has no runtime value of its
// own (same reasoning as a bare static NameRef); ordinary array/tuple/
// pointer indexing lowers directly against the already-resolved object
// type rather than through a prelude desugar, since analysis resolves
// these kinds in analyzeIndexingExpr itself rather than delegating to the
// resolver.
func (c *fnCtx) lowerIndex(n *ast.IndexExpr) ([]*CValue, error) {
	mv, err := c.analyze(n)
	if err != nil {
		return nil, err
	}
	pv, ok := mv.Single()
	if !ok {
		return nil, diag.Internal(n.Pos(), "codegen: index expression must analyze to a single value")
	}
	if pv.Type.Kind == types.KindStatic {
		// A type-construction index (Array[T,n], Pointer[T], ...): consumed
		// by its own caller/declared-type context, never materialized.
		return nil, diag.Internal(n.Pos(), "codegen: a type-construction index has no runtime value")
	}

	objCV, err := c.one(n.Object)
	if err != nil {
		return nil, err
	}
	switch objCV.Type.Kind {
	case types.KindArray:
		idxCV, err := c.one(n.Args[0])
		if err != nil {
			return nil, err
		}
		return []*CValue{c.gen.arrayElemCValue(c.block, objCV, idxCV.Val)}, nil
	case types.KindTuple:
		i, err := c.gen.Eval.EvalObject(n.Args[0], c.ascope)
		if err != nil {
			return nil, err
		}
		idx, ok := i.(int64)
		if !ok || idx < 0 || int(idx) >= len(objCV.Type.TupleElems) {
			return nil, diag.Internal(n.Pos(), "codegen: tuple index out of range")
		}
		return []*CValue{c.gen.tupleElemCValue(c.block, objCV, int(idx), objCV.Type.TupleElems[idx])}, nil
	case types.KindPointer:
		idxCV, err := c.one(n.Args[0])
		if err != nil {
			return nil, err
		}
		lt, err := c.gen.LLVMType(n.Pos(), objCV.Type.Elem)
		if err != nil {
			return nil, err
		}
		ptr := c.block.NewGetElementPtr(lt, objCV.Val, idxCV.Val)
		return []*CValue{{Val: ptr, Type: objCV.Type, IsTemp: true}}, nil
	default:
		return nil, diag.Internal(n.Pos(), "codegen: %v does not support indexing", objCV.Type.Kind)
	}
}

func (c *fnCtx) lowerTuple(n *ast.TupleExpr) ([]*CValue, error) {
	var out []*CValue
	for _, el := range n.Elements {
		vs, err := c.lowerExpr(el)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

func (c *fnCtx) lowerAndOr(left, right ast.Expr, isAnd bool) ([]*CValue, error) {
	lv, err := c.one(left)
	if err != nil {
		return nil, err
	}
	rhsBlock := c.fn.NewBlock("")
	joinBlock := c.fn.NewBlock("")
	shortCircuitBlock := c.fn.NewBlock("")

	if isAnd {
		c.block.NewCondBr(lv.Val, rhsBlock, shortCircuitBlock)
	} else {
		c.block.NewCondBr(lv.Val, shortCircuitBlock, rhsBlock)
	}

	rc := c.child(rhsBlock)
	rv, err := rc.one(right)
	if err != nil {
		return nil, err
	}
	rhsBlock.NewBr(joinBlock)
	shortCircuitBlock.NewBr(joinBlock)

	// `and` short-circuits to `false`, `or` short-circuits to `true`.
	shortVal := constBool(!isAnd)
	phi := joinBlock.NewPhi(ir.NewIncoming(rv.Val, rhsBlock), ir.NewIncoming(shortVal, shortCircuitBlock))
	c.block = joinBlock
	return []*CValue{{Val: phi, Type: c.gen.Registry.Primitive(types.KindBool), IsTemp: true}}, nil
}

func constBool(b bool) *constant.Int {
	if b {
		return constant.NewInt(irtypes.I1, 1)
	}
	return constant.NewInt(irtypes.I1, 0)
}

func (c *fnCtx) lowerStatic(n *ast.StaticExpr) ([]*CValue, error) {
	obj, err := c.gen.Eval.EvalObject(n.Body, c.ascope)
	if err != nil {
		return nil, err
	}
	return c.staticCValue(n.Pos(), obj)
}

// staticCValue materializes a compile-time-evaluated scalar as a runtime
// constant; Static values that name a type/procedure/record rather than a
// number never flow here (their consumers handle them as Static(obj)
// pvalues without ever needing a CValue).
func (c *fnCtx) staticCValue(at diag.Pos, obj any) ([]*CValue, error) {
	switch v := obj.(type) {
	case int64:
		return []*CValue{{Val: constant.NewInt(irtypes.I64, v), Type: c.gen.Registry.Primitive(types.KindInt64), IsTemp: true}}, nil
	case bool:
		return []*CValue{{Val: constBool(v), Type: c.gen.Registry.Primitive(types.KindBool), IsTemp: true}}, nil
	case float64:
		return []*CValue{{Val: constant.NewFloat(irtypes.Double, v), Type: c.gen.Registry.Primitive(types.KindFloat64), IsTemp: true}}, nil
	default:
		return nil, diag.New(diag.KindType, at, "static value %v has no runtime representation", obj)
	}
}

