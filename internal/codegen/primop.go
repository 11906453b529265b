package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/types"
)

// lowerPrimopCall is codegen's counterpart to analyzer's
// analyzePrimopCall: a fixed lowering per primop name.
// Reflective/compile-time-only primops (TypeSize, RecordFieldCount, ...)
// were already reduced to Static values during analysis and never reach a
// runtime call site; reaching one of those names here would mean analysis
// let a compile-time-only primop flow into a runtime position.
func (c *fnCtx) lowerPrimopCall(n *ast.Call, name string, args []*CValue) ([]*CValue, error) {
	switch name {
	case "primitiveCopy":
		return nil, nil
	case "boolNot":
		v := c.block.NewXor(args[0].Val, constBool(true))
		return scalar(v, c.gen.Registry.Primitive(types.KindBool)), nil
	case "numericEqualsP", "numericLesserP":
		return c.lowerNumericCompare(name, args)
	case "pointerEqualsP", "pointerLesserP":
		return c.lowerPointerCompare(name, args)
	case "numericAdd", "numericSubtract", "numericMultiply", "numericDivide", "numericNegate":
		return c.lowerNumericArith(n, name, args)
	case "integerRemainder", "integerShiftLeft", "integerShiftRight",
		"integerBitwiseAnd", "integerBitwiseOr", "integerBitwiseXor", "integerBitwiseNot":
		return c.lowerIntegerOp(name, args)
	case "numericConvert":
		return c.lowerNumericConvert(n, args)
	case "addressOf":
		return []*CValue{{Val: c.addr(c.block, args[0]), Addr: c.addr(c.block, args[0]),
			Type: c.gen.Registry.Pointer(args[0].Type), IsTemp: true}}, nil
	case "pointerDereference":
		lt, err := c.gen.LLVMType(n.Pos(), args[0].Type.Elem)
		if err != nil {
			return nil, err
		}
		loaded := c.block.NewLoad(lt, args[0].Val)
		return []*CValue{{Val: loaded, Addr: args[0].Val, Type: args[0].Type.Elem, IsTemp: false}}, nil
	case "pointerOffset":
		elemLT, err := c.gen.LLVMType(n.Pos(), args[0].Type.Elem)
		if err != nil {
			return nil, err
		}
		offset := c.block.NewGetElementPtr(elemLT, args[0].Val, args[1].Val)
		return scalar(offset, args[0].Type), nil
	case "pointerToInt", "intToPointer", "pointerCast":
		return c.lowerBitcastLike(n, args)
	case "arrayRef":
		return []*CValue{c.arrayElemCValue(c.block, args[0], args[1].Val)}, nil
	case "tupleRef":
		mv, err := c.analyze(n.Args[1])
		if err != nil {
			return nil, err
		}
		idxPV, _ := mv.Single()
		idx, _ := idxPV.Type.StaticObj.(int64)
		return []*CValue{c.tupleElemCValue(c.block, args[0], int(idx), args[0].Type.TupleElems[idx])}, nil
	case "tupleElements":
		out := make([]*CValue, len(args[0].Type.TupleElems))
		for i, et := range args[0].Type.TupleElems {
			out[i] = c.tupleElemCValue(c.block, args[0], i, et)
		}
		return out, nil
	case "recordFieldRef", "recordFieldRefByName":
		return c.lowerRecordFieldRef(n, name, args)
	case "recordFields":
		fields := args[0].Type.Fields()
		out := make([]*CValue, len(fields))
		for i, f := range fields {
			out[i] = c.fieldCValue(c.block, args[0], i, f.Type)
		}
		return out, nil
	case "enumToInt":
		return scalar(args[0].Val, c.gen.Registry.Primitive(types.KindInt32)), nil
	case "intToEnum":
		mv, err := c.analyze(n.Args[1])
		if err != nil {
			return nil, err
		}
		tpv, _ := mv.Single()
		t, _ := tpv.Type.StaticObj.(*types.Type)
		return scalar(args[0].Val, t), nil
	default:
		return nil, diag.Internal(n.Pos(), "codegen: primop %q has no lowering", name)
	}
}

func scalar(v value.Value, t *types.Type) []*CValue {
	return []*CValue{{Val: v, Type: t, IsTemp: true}}
}

func (c *fnCtx) lowerRecordFieldRef(n *ast.Call, name string, args []*CValue) ([]*CValue, error) {
	if err := c.gen.Eval.EnsureResolved(args[0].Type, n.Pos()); err != nil {
		return nil, err
	}
	var idx int
	if name == "recordFieldRef" {
		mv, err := c.analyze(n.Args[1])
		if err != nil {
			return nil, err
		}
		pv, _ := mv.Single()
		i, _ := pv.Type.StaticObj.(int64)
		idx = int(i)
	} else {
		mv, err := c.analyze(n.Args[1])
		if err != nil {
			return nil, err
		}
		pv, _ := mv.Single()
		id, _ := pv.Type.StaticObj.(*ast.Ident)
		i, ok := args[0].Type.FieldIndex(id.Name)
		if !ok {
			return nil, diag.Internal(n.Pos(), "record has no field %q", id.Name)
		}
		idx = i
	}
	ft := args[0].Type.Fields()[idx].Type
	return []*CValue{c.fieldCValue(c.block, args[0], idx, ft)}, nil
}

func (c *fnCtx) lowerNumericCompare(name string, args []*CValue) ([]*CValue, error) {
	t := args[0].Type
	var v value.Value
	if t.Kind.IsFloat() {
		pred := enum.FPredOEQ
		if name == "numericLesserP" {
			pred = enum.FPredOLT
		}
		v = c.block.NewFCmp(pred, args[0].Val, args[1].Val)
	} else {
		pred := enum.IPredEQ
		if name == "numericLesserP" {
			if t.Kind.IsSigned() {
				pred = enum.IPredSLT
			} else {
				pred = enum.IPredULT
			}
		}
		v = c.block.NewICmp(pred, args[0].Val, args[1].Val)
	}
	return scalar(v, c.gen.Registry.Primitive(types.KindBool)), nil
}

func (c *fnCtx) lowerPointerCompare(name string, args []*CValue) ([]*CValue, error) {
	pred := enum.IPredEQ
	if name == "pointerLesserP" {
		pred = enum.IPredULT
	}
	v := c.block.NewICmp(pred, args[0].Val, args[1].Val)
	return scalar(v, c.gen.Registry.Primitive(types.KindBool)), nil
}

func (c *fnCtx) lowerNumericArith(n *ast.Call, name string, args []*CValue) ([]*CValue, error) {
	t := args[0].Type
	isFloat := t.Kind.IsFloat()
	if name == "numericNegate" {
		var v value.Value
		if isFloat {
			v = c.block.NewFSub(zeroValue(mustLLVMType(c.gen, n, t)), args[0].Val)
		} else {
			v = c.block.NewSub(constant.NewInt(mustIntType(c.gen, n, t), 0), args[0].Val)
		}
		return scalar(v, t), nil
	}
	a, b := args[0].Val, args[1].Val
	var v value.Value
	switch {
	case isFloat && name == "numericAdd":
		v = c.block.NewFAdd(a, b)
	case isFloat && name == "numericSubtract":
		v = c.block.NewFSub(a, b)
	case isFloat && name == "numericMultiply":
		v = c.block.NewFMul(a, b)
	case isFloat && name == "numericDivide":
		v = c.block.NewFDiv(a, b)
	case !isFloat && name == "numericAdd":
		v = c.block.NewAdd(a, b)
	case !isFloat && name == "numericSubtract":
		v = c.block.NewSub(a, b)
	case !isFloat && name == "numericMultiply":
		v = c.block.NewMul(a, b)
	case !isFloat && name == "numericDivide" && t.Kind.IsSigned():
		v = c.block.NewSDiv(a, b)
	case !isFloat && name == "numericDivide":
		v = c.block.NewUDiv(a, b)
	default:
		return nil, diag.Internal(n.Pos(), "codegen: unhandled numeric op %s", name)
	}
	return scalar(v, t), nil
}

func (c *fnCtx) lowerIntegerOp(name string, args []*CValue) ([]*CValue, error) {
	t := args[0].Type
	a := args[0].Val
	if name == "integerBitwiseNot" {
		v := c.block.NewXor(a, constant.NewInt(mustIntType(c.gen, nil, t), -1))
		return scalar(v, t), nil
	}
	b := args[1].Val
	var v value.Value
	switch name {
	case "integerRemainder":
		if t.Kind.IsSigned() {
			v = c.block.NewSRem(a, b)
		} else {
			v = c.block.NewURem(a, b)
		}
	case "integerShiftLeft":
		v = c.block.NewShl(a, b)
	case "integerShiftRight":
		if t.Kind.IsSigned() {
			v = c.block.NewAShr(a, b)
		} else {
			v = c.block.NewLShr(a, b)
		}
	case "integerBitwiseAnd":
		v = c.block.NewAnd(a, b)
	case "integerBitwiseOr":
		v = c.block.NewOr(a, b)
	case "integerBitwiseXor":
		v = c.block.NewXor(a, b)
	}
	return scalar(v, t), nil
}

func (c *fnCtx) lowerNumericConvert(n *ast.Call, args []*CValue) ([]*CValue, error) {
	mv, err := c.analyze(n.Args[1])
	if err != nil {
		return nil, err
	}
	pv, _ := mv.Single()
	target, _ := pv.Type.StaticObj.(*types.Type)
	from := args[0].Type
	lt, err := c.gen.LLVMType(n.Pos(), target)
	if err != nil {
		return nil, err
	}
	var v value.Value
	switch {
	case from.Kind.IsInteger() && target.Kind.IsFloat():
		if from.Kind.IsSigned() {
			v = c.block.NewSIToFP(args[0].Val, lt)
		} else {
			v = c.block.NewUIToFP(args[0].Val, lt)
		}
	case from.Kind.IsFloat() && target.Kind.IsInteger():
		if target.Kind.IsSigned() {
			v = c.block.NewFPToSI(args[0].Val, lt)
		} else {
			v = c.block.NewFPToUI(args[0].Val, lt)
		}
	case from.Kind.IsFloat() && target.Kind.IsFloat():
		if types.SizeOf(target) > types.SizeOf(from) {
			v = c.block.NewFPExt(args[0].Val, lt)
		} else {
			v = c.block.NewFPTrunc(args[0].Val, lt)
		}
	case from.Kind.IsInteger() && target.Kind.IsInteger():
		switch {
		case types.SizeOf(target) > types.SizeOf(from) && from.Kind.IsSigned():
			v = c.block.NewSExt(args[0].Val, lt)
		case types.SizeOf(target) > types.SizeOf(from):
			v = c.block.NewZExt(args[0].Val, lt)
		case types.SizeOf(target) < types.SizeOf(from):
			v = c.block.NewTrunc(args[0].Val, lt)
		default:
			v = args[0].Val
		}
	default:
		return nil, diag.Internal(n.Pos(), "codegen: unsupported numericConvert from %s to %s", types.Name(from), types.Name(target))
	}
	return scalar(v, target), nil
}

func (c *fnCtx) lowerBitcastLike(n *ast.Call, args []*CValue) ([]*CValue, error) {
	mv, err := c.analyze(n)
	if err != nil {
		return nil, err
	}
	pv, _ := mv.Single()
	lt, err := c.gen.LLVMType(n.Pos(), pv.Type)
	if err != nil {
		return nil, err
	}
	v := c.block.NewBitCast(args[0].Val, lt)
	return scalar(v, pv.Type), nil
}

func mustLLVMType(g *Generator, n *ast.Call, t *types.Type) irtypes.Type {
	at := diag.Pos{}
	if n != nil {
		at = n.Pos()
	}
	lt, _ := g.LLVMType(at, t)
	return lt
}

func mustIntType(g *Generator, n *ast.Call, t *types.Type) *irtypes.IntType {
	lt := mustLLVMType(g, n, t)
	it, _ := lt.(*irtypes.IntType)
	return it
}
