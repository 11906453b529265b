package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/clayc/clay/internal/types"
)

// addr returns v's address, materializing one via a fresh alloca+store if
// v has none yet — every GEP-based field/element access needs a pointer to
// index into, matching the teacher's "spill a loaded aggregate back to an
// alloca before indexing it" convention in llvm.go's field-access code.
func (g *Generator) addr(b *ir.Block, v *CValue) value.Value {
	if v.Addr != nil {
		return v.Addr
	}
	lt, _ := g.LLVMType(noPos, v.Type)
	slot := b.NewAlloca(lt)
	b.NewStore(v.Val, slot)
	return slot
}

// fieldCValue loads record field index i (of type ft) out of rec via GEP,
// mirroring llvm.go's field-access lowering (NewGetElementPtr with a [0,
// fieldIndex] index pair into a struct pointer, then NewLoad).
func (g *Generator) fieldCValue(b *ir.Block, rec *CValue, i int, ft *types.Type) *CValue {
	recAddr := g.addr(b, rec)
	recLT, _ := g.LLVMType(noPos, rec.Type)
	fieldPtr := b.NewGetElementPtr(recLT, recAddr, i32const(0), i32const(int64(i)))
	fieldLT, _ := g.LLVMType(noPos, ft)
	loaded := b.NewLoad(fieldLT, fieldPtr)
	return &CValue{Val: loaded, Addr: fieldPtr, Type: ft, IsTemp: false}
}

func (g *Generator) tupleElemCValue(b *ir.Block, tup *CValue, i int, et *types.Type) *CValue {
	tupAddr := g.addr(b, tup)
	tupLT, _ := g.LLVMType(noPos, tup.Type)
	elemPtr := b.NewGetElementPtr(tupLT, tupAddr, i32const(0), i32const(int64(i)))
	elemLT, _ := g.LLVMType(noPos, et)
	loaded := b.NewLoad(elemLT, elemPtr)
	return &CValue{Val: loaded, Addr: elemPtr, Type: et, IsTemp: false}
}

// arrayElemCValue indexes arr at a runtime index value, used by the
// arrayRef primop's lowering.
func (g *Generator) arrayElemCValue(b *ir.Block, arr *CValue, idx value.Value) *CValue {
	arrAddr := g.addr(b, arr)
	arrLT, _ := g.LLVMType(noPos, arr.Type)
	elemPtr := b.NewGetElementPtr(arrLT, arrAddr, i32const(0), idx)
	elemLT, _ := g.LLVMType(noPos, arr.Type.Elem)
	loaded := b.NewLoad(elemLT, elemPtr)
	return &CValue{Val: loaded, Addr: elemPtr, Type: arr.Type.Elem, IsTemp: false}
}

func i32const(n int64) *constant.Int { return constant.NewInt(irtypes.I32, n) }

// buildAggregate constructs a Record/Tuple value in registers from its
// member CValues, grounded on llvm.go's record/tuple literal construction
// (alloca the struct type, store each member via GEP, then load the whole
// thing back so the result is usable as an ordinary SSA value).
func (g *Generator) buildAggregate(b *ir.Block, t *types.Type, members []*CValue) *CValue {
	lt, _ := g.LLVMType(noPos, t)
	slot := b.NewAlloca(lt)
	for i, m := range members {
		ptr := b.NewGetElementPtr(lt, slot, i32const(0), i32const(int64(i)))
		b.NewStore(m.Val, ptr)
	}
	loaded := b.NewLoad(lt, slot)
	return &CValue{Val: loaded, Addr: slot, Type: t, IsTemp: true}
}
