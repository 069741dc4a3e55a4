package mir

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// Verify checks the structural invariants of a function:
//   - block ids are unique and every successor exists
//   - the last block is the sole exit and ends in a return
//   - every operand references a declaration owned by the function or a
//     module-level declaration
//   - error entries and local scopes only reference blocks of the function
func Verify(fn *Function) error {
	if fn == nil {
		return errors.New("nil function")
	}
	if len(fn.Blocks) == 0 {
		return errors.Errorf("function %s: no blocks", fn.Name)
	}
	if fn.ReturnVar == nil {
		return errors.Errorf("function %s: missing return variable", fn.Name)
	}

	owned := DeclSet(fn)
	index := make(map[BlockID]int, len(fn.Blocks))
	for i, b := range fn.Blocks {
		if _, dup := index[b.ID]; dup {
			return errors.Errorf("function %s: duplicate block id b%d", fn.Name, b.ID)
		}
		index[b.ID] = i
	}

	last := len(fn.Blocks) - 1
	for i, b := range fn.Blocks {
		if b.Term == nil {
			return errors.Errorf("function %s: block b%d has no terminator", fn.Name, b.ID)
		}
		if _, isReturn := b.Term.(*Return); isReturn != (i == last) {
			if isReturn {
				return errors.Errorf("function %s: block b%d returns but is not the exit block", fn.Name, b.ID)
			}
			return errors.Errorf("function %s: exit block b%d does not return", fn.Name, b.ID)
		}
		for _, succ := range b.Term.Successors() {
			if _, ok := index[succ]; !ok {
				return errors.Errorf("function %s: block b%d jumps to unknown block b%d", fn.Name, b.ID, succ)
			}
		}
		for j, op := range b.Operands() {
			if err := checkOwnership(owned, op); err != nil {
				return errors.Wrapf(err, "function %s: block b%d operand %d", fn.Name, b.ID, j)
			}
		}
	}

	for i, entry := range fn.ErrorTable {
		start, okStart := index[entry.Start]
		end, okEnd := index[entry.End]
		_, okTarget := index[entry.Target]
		if !okStart || !okEnd || !okTarget {
			return errors.Errorf("function %s: error entry %d references a block outside the function", fn.Name, i)
		}
		if start > end {
			return errors.Errorf("function %s: error entry %d range b%d..b%d is reversed", fn.Name, i, entry.Start, entry.End)
		}
		if err := checkOwnership(owned, &entry.ErrOp); err != nil {
			return errors.Wrapf(err, "function %s: error entry %d", fn.Name, i)
		}
	}

	for _, v := range fn.Locals {
		if v.Scope == nil {
			continue
		}
		_, okStart := index[v.Scope.Start]
		_, okEnd := index[v.Scope.End]
		if !okStart || !okEnd {
			return errors.Errorf("function %s: scope of %s references a block outside the function", fn.Name, v.Name)
		}
	}
	return nil
}

// DeclSet returns the declarations owned by fn.
func DeclSet(fn *Function) mapset.Set[*VarDecl] {
	owned := mapset.NewThreadUnsafeSet[*VarDecl]()
	if fn.ReturnVar != nil {
		owned.Add(fn.ReturnVar)
	}
	for _, p := range fn.Params {
		owned.Add(p)
	}
	for _, l := range fn.Locals {
		owned.Add(l)
	}
	return owned
}

func checkOwnership(owned mapset.Set[*VarDecl], op *Operand) error {
	if op.Var == nil {
		return errors.New("operand without declaration")
	}
	if op.Var.Kind.IsModuleLevel() || owned.Contains(op.Var) {
		return nil
	}
	return errors.Errorf("%s %s is not declared by the function", op.Var.Kind, op.Var.Name)
}
