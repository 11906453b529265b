package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"

	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/types"
)

// excSlots lazily creates the two module-level globals used to carry a
// pending exception across function-call boundaries: a small-integer
// type tag and an opaque pointer to the thrown value's storage. Clay's
// calling convention propagates only a status code through an
// ordinary call's return value, so a thrown value cannot ride along that
// path — these globals are the side channel a catch site reads once it
// observes statusUnwinding, the same "last pending error" convention
// several C runtimes use in place of a native unwind mechanism.
func (g *Generator) excSlots() (tag, data *ir.Global) {
	if g.excTagSlot == nil {
		g.excTagSlot = g.Module.NewGlobalDef("$exc.tag", constant.NewInt(irtypes.I32, 0))
		g.excDataSlot = g.Module.NewGlobalDef("$exc.data", constant.NewNull(irtypes.NewPointer(irtypes.I8)))
	}
	return g.excTagSlot, g.excDataSlot
}

// typeTag assigns a stable per-Type small integer on first request,
// memoized on the Generator, used to discriminate a pending exception's
// dynamic type against a CatchClause's declared ExcType without needing a
// full runtime type-descriptor representation.
func (g *Generator) typeTag(t *types.Type) int32 {
	if id, ok := g.excTags[t]; ok {
		return id
	}
	id := g.nextExcTag
	g.nextExcTag++
	g.excTags[t] = id
	return id
}

// raiseUnwind transfers control out of the current block along the
// unwind path: to the nearest enclosing TryStmt's dispatch block when one
// is active (installed by lowerTryStmt), or otherwise to this function's
// own status-returning exit.
func (c *fnCtx) raiseUnwind(at diag.Pos) {
	if c.unwindTarget != nil {
		c.block.NewBr(c.unwindTarget)
		return
	}
	unwindBlock := c.fn.NewBlock("")
	c.block.NewBr(unwindBlock)
	c.emitUnwindExit(unwindBlock, at)
}
