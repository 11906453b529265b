package ceval

import "github.com/clayc/clay/internal/diag"

// applyArith implements the numeric/bitwise primop subset that is
// compile-time evaluable — used for static-context arithmetic such as an
// array-length alias expression or a `static` guard predicate.
// Operands here are already-reduced Go values (bool, int64, float64); the
// analyzer/codegen path handles the corresponding runtime instructions
// separately and does not share this code, matching the source's split
// between its evaluator's and its code generator's primop handling.
func applyArith(n interface{ Pos() diag.Pos }, name string, args []any) (any, error) {
	pos := n.Pos()
	if name == "boolNot" {
		b, ok := args[0].(bool)
		if !ok {
			return nil, diag.New(diag.KindType, pos, "boolNot expects a bool")
		}
		return !b, nil
	}
	if name == "numericNegate" || name == "integerBitwiseNot" {
		switch v := args[0].(type) {
		case int64:
			if name == "integerBitwiseNot" {
				return ^v, nil
			}
			return -v, nil
		case float64:
			if name == "integerBitwiseNot" {
				return nil, diag.New(diag.KindType, pos, "integerBitwiseNot requires an integer")
			}
			return -v, nil
		default:
			return nil, diag.New(diag.KindType, pos, "%s expects a numeric operand", name)
		}
	}

	lf, lIsFloat := args[0].(float64)
	rf, rIsFloat := args[1].(float64)
	li, lIsInt := args[0].(int64)
	ri, rIsInt := args[1].(int64)

	if lIsFloat || rIsFloat {
		if !lIsFloat {
			lf = float64(li)
		}
		if !rIsFloat {
			rf = float64(ri)
		}
		switch name {
		case "numericAdd":
			return lf + rf, nil
		case "numericSubtract":
			return lf - rf, nil
		case "numericMultiply":
			return lf * rf, nil
		case "numericDivide":
			return lf / rf, nil
		case "numericEqualsP":
			return lf == rf, nil
		case "numericLesserP":
			return lf < rf, nil
		default:
			return nil, diag.New(diag.KindType, pos, "%s is not defined for float operands", name)
		}
	}

	if !lIsInt || !rIsInt {
		return nil, diag.New(diag.KindType, pos, "%s expects numeric operands", name)
	}
	switch name {
	case "numericAdd":
		return li + ri, nil
	case "numericSubtract":
		return li - ri, nil
	case "numericMultiply":
		return li * ri, nil
	case "numericDivide":
		if ri == 0 {
			return nil, diag.New(diag.KindStaticEval, pos, "compile-time division by zero")
		}
		return li / ri, nil
	case "integerRemainder":
		if ri == 0 {
			return nil, diag.New(diag.KindStaticEval, pos, "compile-time division by zero")
		}
		return li % ri, nil
	case "integerShiftLeft":
		return li << uint64(ri), nil
	case "integerShiftRight":
		return li >> uint64(ri), nil
	case "integerBitwiseAnd":
		return li & ri, nil
	case "integerBitwiseOr":
		return li | ri, nil
	case "integerBitwiseXor":
		return li ^ ri, nil
	case "numericEqualsP":
		return li == ri, nil
	case "numericLesserP":
		return li < ri, nil
	default:
		return nil, diag.New(diag.KindType, pos, "%s is not defined for integer operands", name)
	}
}
