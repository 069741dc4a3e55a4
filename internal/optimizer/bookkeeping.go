package optimizer

import (
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slices"

	"methodsplit/internal/mir"
)

// tidy drops temporaries, synthetics and placeholders fn no longer
// references and clears SingleBlock on declarations now referenced from
// more than one block.
func tidy(fn *mir.Function) {
	referenced := mapset.NewThreadUnsafeSet[*mir.VarDecl]()
	multi := mapset.NewThreadUnsafeSet[*mir.VarDecl]()
	home := make(map[*mir.VarDecl]mir.BlockID)

	for _, blk := range fn.Blocks {
		for _, op := range blk.Operands() {
			referenced.Add(op.Var)
			if first, ok := home[op.Var]; !ok {
				home[op.Var] = blk.ID
			} else if first != blk.ID {
				multi.Add(op.Var)
			}
		}
	}
	for _, entry := range fn.ErrorTable {
		referenced.Add(entry.ErrOp.Var)
	}

	fn.Locals = slices.DeleteFunc(fn.Locals, func(v *mir.VarDecl) bool {
		removable := v.Kind.IsTempOrSynthetic() || v.Ignored
		return removable && !referenced.Contains(v)
	})
	for _, v := range fn.Locals {
		if v.SingleBlock && multi.Contains(v) {
			v.SingleBlock = false
		}
	}
}

// finalize renumbers and verifies a rewritten function.
func finalize(fn *mir.Function) error {
	tidy(fn)
	if err := mir.Renumber(fn); err != nil {
		return wrapInternal(fn, err, "renumbering failed")
	}
	if err := mir.Verify(fn); err != nil {
		return wrapInternal(fn, err, "invalid function after splitting")
	}
	return nil
}
