// Package codegen implements the code generator: it walks the same
// AST the analyzer already visited, reusing its memoized MultiPValue shapes
// and the resolver's invoke-entry cache, and emits LLVM IR via
// github.com/llir/llvm, grounded on the teacher's internal/codegen/llvm.go
// (module/builder/variable bookkeeping, convertType switch, NewAlloca/
// NewStore/NewLoad/NewGetElementPtr idioms).
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"

	"github.com/clayc/clay/internal/analyzer"
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/ceval"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
	"github.com/clayc/clay/internal/types"
)

// statusOK / statusUnwinding are the two values of the 32-bit status every
// Clay function returns ("the return value of the function is a
// 32-bit status (0 normal, 1 unwinding)").
const (
	statusOK        = 0
	statusUnwinding = 1
)

// noPos is used at the handful of call sites deep inside value construction
// (aggregate field/element access) where a type is already known-resolved
// from an earlier, positioned analysis pass — LLVMType cannot fail there in
// practice, so the error return is deliberately discarded rather than
// threading a diag.Pos through every GEP helper.
var noPos diag.Pos

// Generator holds every piece of state threaded through code emission for
// one compiler.Context (explicit state, not globals — see Design Notes) —
// the Go analogue of the teacher's LLVMCodegen struct, generalized from
// ALaS's five flat types to Clay's full closed type sum and from a single
// temporary-free function body to the temporary-stack/destructor discipline
// every Clay function body requires.
type Generator struct {
	Registry *types.Registry
	Eval     *ceval.Evaluator
	Analyzer *analyzer.Analyzer
	Locs     *diag.LocationStack

	Module *ir.Module

	funcs   map[funcKey]*ir.Func
	globals map[*ast.VarDef]*ir.Global

	// globalsByName indexes the same globals declareGlobalVar populates,
	// keyed by surface name rather than by *ast.VarDef — lowerName's global
	// lookup (expr.go) and lowerFieldRef's module-qualified branch both
	// resolve a name to a runtime value through this index.
	globalsByName map[string]*globalInfo
	externs       map[string]*ir.Func

	ctors []*ir.Func
	dtors []*ir.Func

	strCount int

	// excTagSlot / excDataSlot back the pending-exception side channel
	// ThrowStmt/TryStmt use to cross function-call boundaries —
	// created lazily by excSlots on first use.
	excTagSlot  *ir.Global
	excDataSlot *ir.Global
	excTags     map[*types.Type]int32
	nextExcTag  int32
}

// funcKey identifies one already-emitted invoke-entry: the callable, the
// overload the resolver picked for it, and the argument shape that picked
// it. The shape matters because a single overload is reachable through
// more than one argument shape (a generic `identity[T]` instantiated for
// both Int32 and Float64, say) — each instantiation needs its own *ir.Func
// with its own monomorphized signature, mirroring the resolver's own
// per-shape invoke-entry (internal/analyzer/resolver.go's invokeKey).
type funcKey struct {
	callable any
	overload *ast.OverloadDef
	shape    string
}

// NewGenerator constructs a Generator sharing reg/ev/locs with the rest of
// the compilation and an Analyzer that has already (or will, lazily) run
// over the same callables.
func NewGenerator(reg *types.Registry, ev *ceval.Evaluator, an *analyzer.Analyzer, locs *diag.LocationStack, moduleName string) *Generator {
	m := ir.NewModule()
	m.SourceFilename = moduleName
	return &Generator{
		Registry: reg,
		Eval:     ev,
		Analyzer: an,
		Locs:     locs,
		Module:   m,
		funcs:         make(map[funcKey]*ir.Func),
		globals:       make(map[*ast.VarDef]*ir.Global),
		globalsByName: make(map[string]*globalInfo),
		externs:       make(map[string]*ir.Func),
		excTags:       make(map[*types.Type]int32),
	}
}

// LLVMType lowers a Clay type to its LLVM representation, memoizing the
// result on Type.LLVM (populated here, consumed here) so repeated lowering
// of the same hash-consed *types.Type is O(1) after the first.
func (g *Generator) LLVMType(at diag.Pos, t *types.Type) (irtypes.Type, error) {
	if t.LLVM != nil {
		return t.LLVM.(irtypes.Type), nil
	}
	lt, err := g.lowerType(at, t)
	if err != nil {
		return nil, err
	}
	t.LLVM = lt
	return lt, nil
}

func (g *Generator) lowerType(at diag.Pos, t *types.Type) (irtypes.Type, error) {
	switch t.Kind {
	case types.KindBool:
		return irtypes.I1, nil
	case types.KindInt8, types.KindUInt8:
		return irtypes.I8, nil
	case types.KindInt16, types.KindUInt16:
		return irtypes.I16, nil
	case types.KindInt32, types.KindUInt32:
		return irtypes.I32, nil
	case types.KindInt64, types.KindUInt64:
		return irtypes.I64, nil
	case types.KindFloat32:
		return irtypes.Float, nil
	case types.KindFloat64:
		return irtypes.Double, nil
	case types.KindVoid:
		return irtypes.Void, nil
	case types.KindPointer:
		if t.Elem.Kind == types.KindVoid {
			return irtypes.NewPointer(irtypes.I8), nil
		}
		elem, err := g.LLVMType(at, t.Elem)
		if err != nil {
			return nil, err
		}
		return irtypes.NewPointer(elem), nil
	case types.KindArray:
		elem, err := g.LLVMType(at, t.Elem)
		if err != nil {
			return nil, err
		}
		return irtypes.NewArray(uint64(t.ArrayLen), elem), nil
	case types.KindTuple:
		fields := make([]irtypes.Type, len(t.TupleElems))
		for i, el := range t.TupleElems {
			ft, err := g.LLVMType(at, el)
			if err != nil {
				return nil, err
			}
			fields[i] = ft
		}
		return irtypes.NewStruct(fields...), nil
	case types.KindRecord:
		return g.lowerAggregate(at, t, t.Fields())
	case types.KindVariant:
		// The representation type of a variant is lazily computed the same
		// way as a record's fields ("a representation type (also lazy)");
		// this port represents it as a tagged union: an i32 discriminant plus
		// the widest member laid out as a byte array, since llir/llvm has no
		// native union type.
		members := t.Members()
		if len(members) == 0 {
			return nil, diag.Internal(at, "variant %s has no resolved members", types.Name(t))
		}
		widest := int64(0)
		for _, m := range members {
			if sz := types.SizeOf(m); sz > widest {
				widest = sz
			}
		}
		return irtypes.NewStruct(irtypes.I32, irtypes.NewArray(uint64(widest), irtypes.I8)), nil
	case types.KindEnum:
		return irtypes.I32, nil
	case types.KindCodePointer, types.KindCCodePointer:
		sig, err := g.lowerFuncSig(at, t)
		if err != nil {
			return nil, err
		}
		return irtypes.NewPointer(sig), nil
	case types.KindStatic:
		return nil, diag.New(diag.KindType, at, "a Static(%v) value has no runtime representation", t.StaticObj)
	default:
		return nil, diag.Internal(at, "unhandled type kind %d", t.Kind)
	}
}

func (g *Generator) lowerAggregate(at diag.Pos, t *types.Type, fields []types.FieldInfo) (irtypes.Type, error) {
	if fields == nil && t.Kind == types.KindRecord {
		// Fields were never resolved (lazy field enumeration,
		// ceval.EnsureResolved, never ran for this instance).
		// An empty record is a legitimate degenerate case (a marker/tag
		// record with no state), so this is not itself an error.
	}
	out := make([]irtypes.Type, len(fields))
	for i, f := range fields {
		ft, err := g.LLVMType(at, f.Type)
		if err != nil {
			return nil, err
		}
		out[i] = ft
	}
	return irtypes.NewStruct(out...), nil
}

// lowerFuncSig builds the raw LLVM function type a CodePointer/CCodePointer
// points at: argument types followed by one sret-style pointer per declared
// return for a Clay-convention CodePointer, or the plain foreign
// signature for a CCodePointer.
func (g *Generator) lowerFuncSig(at diag.Pos, t *types.Type) (*irtypes.FuncType, error) {
	args := make([]irtypes.Type, 0, len(t.ArgTypes))
	for _, a := range t.ArgTypes {
		lt, err := g.LLVMType(at, a)
		if err != nil {
			return nil, err
		}
		args = append(args, lt)
	}
	if t.Kind == types.KindCCodePointer {
		ret := irtypes.Type(irtypes.Void)
		if t.ReturnType != nil {
			lt, err := g.LLVMType(at, t.ReturnType)
			if err != nil {
				return nil, err
			}
			ret = lt
		}
		return irtypes.NewFunc(ret, args...), nil
	}
	for _, rt := range t.ReturnTypes {
		lt, err := g.LLVMType(at, rt)
		if err != nil {
			return nil, err
		}
		args = append(args, irtypes.NewPointer(lt))
	}
	return irtypes.NewFunc(irtypes.I32, args...), nil
}

// zeroValue returns the canonical zero/null constant for an LLVM type,
// generalizing the teacher's getZeroValue (global variables are emitted
// once with a null initializer).
func zeroValue(t irtypes.Type) constant.Constant {
	switch v := t.(type) {
	case *irtypes.IntType:
		return constant.NewInt(v, 0)
	case *irtypes.FloatType:
		return constant.NewFloat(v, 0)
	case *irtypes.PointerType:
		return constant.NewNull(v)
	case *irtypes.ArrayType:
		elems := make([]constant.Constant, v.Len)
		for i := range elems {
			elems[i] = zeroValue(v.ElemType)
		}
		return constant.NewArray(v, elems...)
	case *irtypes.StructType:
		fields := make([]constant.Constant, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = zeroValue(f)
		}
		return constant.NewStruct(v, fields...)
	default:
		panic(fmt.Sprintf("codegen: no zero value for %v", t))
	}
}

// primopName is a small forwarding helper to env.PrimopName; call sites
// in this package currently call env.PrimopName directly.
func primopName(obj env.Object) (string, bool) { return env.PrimopName(obj) }
