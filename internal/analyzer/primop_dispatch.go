package analyzer

import (
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/primop"
	"github.com/clayc/clay/internal/types"
)

// analyzePrimopCall is the analysis half of primop dispatch:
// produces the output MultiPValue shape from the input shape without
// evaluation. Type-construction primops never reach here — they are
// consumed earlier, by analyzeIndexingExpr.
func (a *Analyzer) analyzePrimopCall(n *ast.Call, name string, args []PValue) (MultiPValue, error) {
	op, ok := primop.Lookup(name)
	if !ok {
		return nil, a.Locs.Errorf(diag.KindOverload, "unknown primop %q", name)
	}
	if op.Arity >= 0 && len(args) != op.Arity {
		return nil, a.Locs.Errorf(diag.KindOverload, "%s expects %d argument(s), got %d", name, op.Arity, len(args))
	}

	switch name {
	case "TypeP":
		return a.boolResult(), nil
	case "CallDefinedP":
		return a.boolResult(), nil
	case "TypeSize", "TypeAlignment", "RecordFieldCount", "VariantMemberCount", "VariantMemberIndex",
		"TupleElementCount", "IdentifierSize":
		return a.staticIntResult(), nil
	case "RecordFieldName", "StaticName":
		return a.staticIdentResult(), nil
	case "primitiveCopy":
		return MultiPValue{}, nil
	case "boolNot":
		return a.boolResult(), nil
	case "numericEqualsP", "numericLesserP", "pointerEqualsP", "pointerLesserP",
		"RecordP", "VariantP", "CodePointerP", "CCodePointerP", "EnumP":
		return a.boolResult(), nil
	case "numericAdd", "numericSubtract", "numericMultiply", "numericDivide", "numericNegate",
		"integerRemainder", "integerShiftLeft", "integerShiftRight",
		"integerBitwiseAnd", "integerBitwiseOr", "integerBitwiseXor", "integerBitwiseNot":
		if len(args) == 0 {
			return nil, a.Locs.Errorf(diag.KindOverload, "%s expects at least one argument", name)
		}
		return MultiPValue{{Type: args[0].Type, IsTemp: true}}, nil
	case "numericConvert":
		return a.convertResult(n, args)
	case "addressOf":
		if len(args) != 1 {
			return nil, a.Locs.Errorf(diag.KindOverload, "addressOf expects one argument")
		}
		if args[0].IsTemp {
			return nil, a.Locs.Errorf(diag.KindOverload, "cannot take address of temporary")
		}
		return MultiPValue{{Type: a.Registry.Pointer(args[0].Type), IsTemp: true}}, nil
	case "pointerDereference":
		if len(args) != 1 || args[0].Type.Kind != types.KindPointer {
			return nil, a.Locs.Errorf(diag.KindOverload, "pointerDereference expects a pointer argument")
		}
		return MultiPValue{{Type: args[0].Type.Elem, IsTemp: false}}, nil
	case "pointerOffset":
		if len(args) != 2 || args[0].Type.Kind != types.KindPointer {
			return nil, a.Locs.Errorf(diag.KindOverload, "pointerOffset expects (pointer, integer)")
		}
		return MultiPValue{{Type: args[0].Type, IsTemp: true}}, nil
	case "pointerToInt":
		return a.staticResultOf(n, args, 1), nil
	case "intToPointer":
		return a.staticResultOf(n, args, 1), nil
	case "pointerCast":
		return a.staticResultOf(n, args, 1), nil
	case "makeCodePointer", "makeCCodePointer":
		return a.staticResultOf(n, args, 0), nil
	case "CodePointer":
		return a.codePointerTypeResult(args)
	case "CCodePointer":
		return a.ccodePointerTypeResult(args)
	case "Array":
		// Array[T, n] is ordinarily consumed as an IndexExpr type-constructor
		// form (analyzeIndexingExpr); reaching the primop by name directly
		// still has to build the same type object.
		return a.arrayTypeResult(args)
	case "arrayRef":
		if len(args) != 2 || args[0].Type.Kind != types.KindArray {
			return nil, a.Locs.Errorf(diag.KindOverload, "arrayRef expects (array, integer)")
		}
		return MultiPValue{{Type: args[0].Type.Elem, IsTemp: false}}, nil
	case "tupleRef", "tupleElements":
		if len(args) == 0 || args[0].Type.Kind != types.KindTuple {
			return nil, a.Locs.Errorf(diag.KindOverload, "%s expects a tuple argument", name)
		}
		if name == "tupleElements" {
			out := make(MultiPValue, len(args[0].Type.TupleElems))
			for i, t := range args[0].Type.TupleElems {
				out[i] = PValue{Type: t, IsTemp: false}
			}
			return out, nil
		}
		idx, ok := int64(0), false
		if len(args) == 2 {
			idx, ok = staticInt(args[1])
		}
		if !ok || idx < 0 || idx >= int64(len(args[0].Type.TupleElems)) {
			return nil, a.Locs.Errorf(diag.KindOverload, "tupleRef expects (tuple, static index in range)")
		}
		return MultiPValue{{Type: args[0].Type.TupleElems[idx], IsTemp: false}}, nil
	case "recordFieldRef", "recordFieldRefByName":
		return a.recordFieldResult(n, name, args)
	case "recordFields":
		if len(args) != 1 || args[0].Type.Kind != types.KindRecord {
			return nil, a.Locs.Errorf(diag.KindOverload, "recordFields expects a record argument")
		}
		if err := a.Eval.EnsureResolved(args[0].Type, n.Pos()); err != nil {
			return nil, err
		}
		fields := args[0].Type.Fields()
		out := make(MultiPValue, len(fields))
		for i, f := range fields {
			out[i] = PValue{Type: f.Type, IsTemp: false}
		}
		return out, nil
	case "variantRepr":
		if len(args) != 1 {
			return nil, a.Locs.Errorf(diag.KindOverload, "%s expects one argument", name)
		}
		return MultiPValue{{Type: args[0].Type, IsTemp: false}}, nil
	case "staticIntegers":
		return a.staticResultOf(n, args, -1), nil
	case "enumToInt":
		return MultiPValue{{Type: a.Registry.Primitive(types.KindInt32), IsTemp: true}}, nil
	case "intToEnum":
		return a.staticResultOf(n, args, 1), nil
	case "IdentifierConcat", "IdentifierSlice":
		return a.staticIdentResult(), nil
	default:
		return nil, a.Locs.Errorf(diag.KindOverload, "primop %q has no analysis rule", name)
	}
}

func (a *Analyzer) boolResult() MultiPValue {
	return MultiPValue{{Type: a.Registry.Primitive(types.KindBool), IsTemp: true}}
}

func (a *Analyzer) staticIntResult() MultiPValue {
	return MultiPValue{{Type: a.Registry.Static(int64(0)), IsTemp: true}}
}

func (a *Analyzer) staticIdentResult() MultiPValue {
	return MultiPValue{{Type: a.Registry.Static(&ast.Ident{}), IsTemp: true}}
}

// staticResultOf resolves argIndex's static type argument as the output
// type of a reflective conversion primop (pointerToInt's target width,
// intToPointer's target pointer type, intToEnum's target enum, ...); -1
// means "result type is not statically determinable here" and a Static
// placeholder is reported instead.
func (a *Analyzer) staticResultOf(n *ast.Call, args []PValue, argIndex int) MultiPValue {
	if argIndex >= 0 && argIndex < len(args) && args[argIndex].Type.Kind == types.KindStatic {
		if t, ok := args[argIndex].Type.StaticObj.(*types.Type); ok {
			return MultiPValue{{Type: t, IsTemp: true}}
		}
	}
	return MultiPValue{{Type: a.Registry.Static(nil), IsTemp: true}}
}

func (a *Analyzer) arrayTypeResult(args []PValue) (MultiPValue, error) {
	if len(args) != 2 {
		return nil, a.Locs.Errorf(diag.KindOverload, "Array expects (elementType, length)")
	}
	elem, ok := staticType(args[0])
	if !ok {
		return nil, a.Locs.Errorf(diag.KindType, "Array's first argument must be a type")
	}
	n, ok := staticInt(args[1])
	if !ok {
		return nil, a.Locs.Errorf(diag.KindType, "Array's second argument must be a static integer")
	}
	return MultiPValue{{Type: a.Registry.Static(a.Registry.Array(elem, n)), IsTemp: true}}, nil
}

// codePointerTypeResult builds a CodePointer type from CodePointer(ArgT1,
// ..., ArgTn, ReturnT) — every argument a Static(type), the last one the
// (possibly Void) return type.
func (a *Analyzer) codePointerTypeResult(args []PValue) (MultiPValue, error) {
	if len(args) < 1 {
		return nil, a.Locs.Errorf(diag.KindOverload, "CodePointer requires at least a return type")
	}
	argTypes := make([]*types.Type, 0, len(args)-1)
	for _, pv := range args[:len(args)-1] {
		t, ok := staticType(pv)
		if !ok {
			return nil, a.Locs.Errorf(diag.KindType, "CodePointer's arguments must be types")
		}
		argTypes = append(argTypes, t)
	}
	returns, returnIsRef := returnVectorFrom(args[len(args)-1])
	return MultiPValue{{Type: a.Registry.Static(a.Registry.CodePointer(argTypes, returnIsRef, returns)), IsTemp: true}}, nil
}

func (a *Analyzer) ccodePointerTypeResult(args []PValue) (MultiPValue, error) {
	if len(args) < 1 {
		return nil, a.Locs.Errorf(diag.KindOverload, "CCodePointer requires at least a return type")
	}
	argTypes := make([]*types.Type, 0, len(args)-1)
	for _, pv := range args[:len(args)-1] {
		t, ok := staticType(pv)
		if !ok {
			return nil, a.Locs.Errorf(diag.KindType, "CCodePointer's arguments must be types")
		}
		argTypes = append(argTypes, t)
	}
	last, ok := staticType(args[len(args)-1])
	var ret *types.Type
	if ok && last.Kind != types.KindVoid {
		ret = last
	}
	return MultiPValue{{Type: a.Registry.Static(a.Registry.CCodePointer(ast.ConvDefault, argTypes, false, ret)), IsTemp: true}}, nil
}

func returnVectorFrom(pv PValue) ([]*types.Type, []bool) {
	t, ok := staticType(pv)
	if !ok || t.Kind == types.KindVoid {
		return nil, nil
	}
	return []*types.Type{t}, []bool{false}
}

func staticType(pv PValue) (*types.Type, bool) {
	if pv.Type.Kind != types.KindStatic {
		return nil, false
	}
	t, ok := pv.Type.StaticObj.(*types.Type)
	return t, ok
}

func staticInt(pv PValue) (int64, bool) {
	if pv.Type.Kind != types.KindStatic {
		return 0, false
	}
	n, ok := pv.Type.StaticObj.(int64)
	return n, ok
}

func staticIdent(pv PValue) (string, bool) {
	if pv.Type.Kind != types.KindStatic {
		return "", false
	}
	id, ok := pv.Type.StaticObj.(*ast.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// recordFieldResult resolves the real field type for recordFieldRef /
// recordFieldRefByName, forcing the record's lazy field list via
// internal/ceval's EnsureResolved rather than reporting the record's own
// type as every field's type.
func (a *Analyzer) recordFieldResult(n *ast.Call, name string, args []PValue) (MultiPValue, error) {
	if len(args) != 2 || args[0].Type.Kind != types.KindRecord {
		return nil, a.Locs.Errorf(diag.KindOverload, "%s expects a record argument", name)
	}
	if err := a.Eval.EnsureResolved(args[0].Type, n.Pos()); err != nil {
		return nil, err
	}
	fields := args[0].Type.Fields()
	var idx int
	if name == "recordFieldRef" {
		i, ok := staticInt(args[1])
		if !ok || i < 0 || int(i) >= len(fields) {
			return nil, a.Locs.Errorf(diag.KindOverload, "recordFieldRef index out of range")
		}
		idx = int(i)
	} else {
		fname, ok := staticIdent(args[1])
		if !ok {
			return nil, a.Locs.Errorf(diag.KindOverload, "recordFieldRefByName expects a static identifier")
		}
		i, ok := args[0].Type.FieldIndex(fname)
		if !ok {
			return nil, a.Locs.Errorf(diag.KindOverload, "record has no field %q", fname)
		}
		idx = i
	}
	return MultiPValue{{Type: fields[idx].Type, IsTemp: false}}, nil
}

func (a *Analyzer) convertResult(n *ast.Call, args []PValue) (MultiPValue, error) {
	if len(args) != 2 || args[1].Type.Kind != types.KindStatic {
		return nil, a.Locs.Errorf(diag.KindOverload, "numericConvert expects (value, Static(targetType))")
	}
	target, ok := args[1].Type.StaticObj.(*types.Type)
	if !ok {
		return nil, a.Locs.Errorf(diag.KindType, "numericConvert's second argument must name a type")
	}
	return MultiPValue{{Type: target, IsTemp: true}}, nil
}
