package mir

import (
	"github.com/pkg/errors"
)

// Operands returns every operand of a block, instructions first, in order.
func (b *Block) Operands() []*Operand {
	var ops []*Operand
	for _, instr := range b.Instrs {
		if lhs := instr.Lhs(); lhs != nil {
			ops = append(ops, lhs)
		}
		ops = append(ops, instr.Rhs()...)
	}
	if b.Term != nil {
		if lhs := b.Term.Lhs(); lhs != nil {
			ops = append(ops, lhs)
		}
		ops = append(ops, b.Term.Rhs()...)
	}
	return ops
}

// RebindOperands replaces every operand referencing a key of mapping with
// the mapped declaration.
func RebindOperands(fn *Function, mapping map[*VarDecl]*VarDecl) {
	if len(mapping) == 0 {
		return
	}
	for _, b := range fn.Blocks {
		for _, op := range b.Operands() {
			if repl, ok := mapping[op.Var]; ok {
				op.Var = repl
			}
		}
	}
	for _, entry := range fn.ErrorTable {
		if repl, ok := mapping[entry.ErrOp.Var]; ok {
			entry.ErrOp.Var = repl
		}
	}
}

// Predecessors maps each block id to the layout indexes of blocks whose
// terminator can transfer control to it.
func Predecessors(fn *Function) map[BlockID][]int {
	preds := make(map[BlockID][]int, len(fn.Blocks))
	for i, b := range fn.Blocks {
		if b.Term == nil {
			continue
		}
		for _, succ := range b.Term.Successors() {
			preds[succ] = append(preds[succ], i)
		}
	}
	return preds
}

// Renumber assigns block ids 0..n-1 in layout order and rewrites every
// successor, error entry and local scope consistently.
func Renumber(fn *Function) error {
	if fn == nil {
		return nil
	}

	mapping := make(map[BlockID]BlockID, len(fn.Blocks))
	for i, b := range fn.Blocks {
		if _, dup := mapping[b.ID]; dup {
			return errors.Errorf("function %s: duplicate block id b%d", fn.Name, b.ID)
		}
		mapping[b.ID] = BlockID(i)
	}

	var missing *BlockID
	remap := func(id BlockID) BlockID {
		if next, ok := mapping[id]; ok {
			return next
		}
		if missing == nil {
			m := id
			missing = &m
		}
		return id
	}

	for _, b := range fn.Blocks {
		if b.Term != nil {
			b.Term.Remap(remap)
		}
	}
	for _, entry := range fn.ErrorTable {
		entry.Start = remap(entry.Start)
		entry.End = remap(entry.End)
		entry.Target = remap(entry.Target)
	}
	for _, v := range fn.Locals {
		if v.Scope != nil {
			v.Scope.Start = remap(v.Scope.Start)
			v.Scope.End = remap(v.Scope.End)
		}
	}
	if missing != nil {
		return errors.Errorf("function %s: reference to unknown block b%d", fn.Name, *missing)
	}

	for i, b := range fn.Blocks {
		b.ID = BlockID(i)
	}
	return nil
}
