package optimizer

import (
	"golang.org/x/exp/slices"

	"methodsplit/internal/mir"
	"methodsplit/internal/types"
)

// extraction is one materialized split: the new function, the call that
// replaced the range in the parent and the parent temporaries introduced
// for it. Names are assigned after every split of the parent is rewritten.
type extraction struct {
	split *Split
	child *mir.Function
	call  *mir.Call
	temps []*mir.VarDecl
}

// rewriter rewrites one function in place. Splits are materialized from
// last to first so layout indexes of earlier splits stay valid.
type rewriter struct {
	fn  *mir.Function
	tbl *types.Table

	nextID mir.BlockID

	// startRename and endRename map a block id that no longer exists in the
	// parent, or that now holds only part of its former instructions, to the
	// block that takes its place as the start or end of a range. moved maps
	// blocks that went to a child to the parent block calling that child.
	startRename map[mir.BlockID]mir.BlockID
	endRename   map[mir.BlockID]mir.BlockID
	moved       map[mir.BlockID]mir.BlockID
}

func newRewriter(fn *mir.Function, tbl *types.Table) *rewriter {
	return &rewriter{
		fn:          fn,
		tbl:         tbl,
		nextID:      fn.NextBlockID(),
		startRename: make(map[mir.BlockID]mir.BlockID),
		endRename:   make(map[mir.BlockID]mir.BlockID),
		moved:       make(map[mir.BlockID]mir.BlockID),
	}
}

func (rw *rewriter) freshID() mir.BlockID {
	id := rw.nextID
	rw.nextID++
	return id
}

// temp declares an unnamed parent temporary. It is named once all splits
// of the parent are materialized.
func (rw *rewriter) temp(t types.SemType) *mir.VarDecl {
	v := &mir.VarDecl{Type: t, Kind: mir.KindTemp}
	rw.fn.Locals = append(rw.fn.Locals, v)
	return v
}

// extractAll materializes splits, which must be in forward layout order,
// and repairs the parent's block references afterwards.
func (rw *rewriter) extractAll(splits []*Split) ([]*extraction, error) {
	exts := make([]*extraction, len(splits))
	for i := len(splits) - 1; i >= 0; i-- {
		ext, err := rw.extract(splits[i])
		if err != nil {
			return nil, err
		}
		exts[i] = ext
	}
	rw.repair()
	return exts, nil
}

func (rw *rewriter) extract(split *Split) (*extraction, error) {
	fn := rw.fn
	if split.StartBlock > split.EndBlock || split.EndBlock >= len(fn.Blocks)-1 {
		return nil, internalErrorf(fn, split.StartBlock, split.FirstInstr,
			"split range b%d..b%d is not inside the function body", split.StartBlock, split.EndBlock)
	}
	startBlk := fn.Blocks[split.StartBlock]
	endBlk := fn.Blocks[split.EndBlock]
	if split.LastInstr >= len(endBlk.Instrs) || split.FirstInstr >= len(startBlk.Instrs) {
		return nil, internalErrorf(fn, split.EndBlock, split.LastInstr, "split instruction out of range")
	}
	anchor := endBlk.Instrs[split.LastInstr]
	dest := anchor.Lhs()
	if dest == nil || !dest.Valid() {
		return nil, internalErrorf(fn, split.EndBlock, split.LastInstr, "aggregate constructor without destination")
	}
	for _, arg := range split.Args {
		if !fn.Declares(arg) {
			return nil, internalErrorf(fn, split.StartBlock, split.FirstInstr,
				"needed variable %s is not declared by the function", arg.Name)
		}
	}

	result := dest.Var
	retType := result.Type
	if split.ReturnAssigned {
		retType = types.NewUnion(result.Type, rw.tbl.Error)
	}
	child, mapping := rw.newChild(split, retType)
	loc := *anchor.Loc()

	// Snapshot the parent pieces before anything is rewired.
	head := slices.Clone(startBlk.Instrs[:split.FirstInstr])
	tail := slices.Clone(endBlk.Instrs[split.LastInstr+1:])
	endTerm := endBlk.Term
	var inner []*mir.Block
	if !split.SameBlock() {
		inner = slices.Clone(fn.Blocks[split.StartBlock+1 : split.EndBlock])
	}
	parentExit := fn.ExitBlock().ID

	childExit := &mir.Block{ID: rw.freshID(), Term: &mir.Return{Location: loc}}
	if split.SameBlock() {
		entry := &mir.Block{
			ID:     rw.freshID(),
			Instrs: slices.Clone(startBlk.Instrs[split.FirstInstr : split.LastInstr+1]),
			Term:   &mir.Goto{Target: childExit.ID, Location: loc},
		}
		child.Blocks = []*mir.Block{entry, childExit}
	} else {
		entry := &mir.Block{
			ID:     rw.freshID(),
			Instrs: slices.Clone(startBlk.Instrs[split.FirstInstr:]),
			Term:   startBlk.Term,
		}
		last := &mir.Block{
			ID:     endBlk.ID,
			Name:   endBlk.Name,
			Instrs: slices.Clone(endBlk.Instrs[:split.LastInstr+1]),
			Term:   &mir.Goto{Target: childExit.ID, Location: loc},
		}
		child.Blocks = make([]*mir.Block, 0, len(inner)+3)
		child.Blocks = append(child.Blocks, entry)
		child.Blocks = append(child.Blocks, inner...)
		child.Blocks = append(child.Blocks, last, childExit)

		if split.ReturnAssigned {
			for _, blk := range child.Blocks {
				if g, ok := blk.Term.(*mir.Goto); ok && g.Target == parentExit {
					g.Target = childExit.ID
				}
			}
		}
	}
	child.ErrorTable = split.Errors

	// The constructor now defines the child's result.
	dest.Var = child.ReturnVar
	mir.RebindOperands(child, mapping)

	call := &mir.Call{Args: make([]mir.Operand, len(split.Args)), Location: loc}
	for i, arg := range split.Args {
		call.Args[i] = mir.Op(arg)
	}
	ext := &extraction{split: split, child: child, call: call}

	cont := &mir.Block{ID: rw.freshID(), Instrs: tail, Term: endTerm}
	var inserted []*mir.Block
	if split.ReturnAssigned {
		res := rw.temp(retType)
		isErr := rw.temp(rw.tbl.Boolean)
		castErr := rw.temp(rw.tbl.Error)
		ext.temps = append(ext.temps, res, isErr, castErr)

		errBlk := &mir.Block{
			ID: rw.freshID(),
			Instrs: []mir.Instr{
				&mir.TypeCast{Dest: mir.Op(castErr), Src: mir.Op(res), Type: rw.tbl.Error, Location: loc},
				&mir.Move{Dest: mir.Op(fn.ReturnVar), Src: mir.Op(castErr), Location: loc},
			},
			Term: &mir.Goto{Target: parentExit, Location: loc},
		}
		test := &mir.Block{
			ID:     rw.freshID(),
			Instrs: []mir.Instr{&mir.TypeTest{Dest: mir.Op(isErr), Src: mir.Op(res), Type: rw.tbl.Error, Location: loc}},
			Term:   &mir.Branch{Cond: mir.Op(isErr), Then: errBlk.ID, Else: cont.ID, Location: loc},
		}
		unwrap := &mir.TypeCast{Dest: mir.Op(result), Src: mir.Op(res), Type: result.Type, Location: loc}
		cont.Instrs = append([]mir.Instr{unwrap}, cont.Instrs...)

		call.Dest = mir.Op(res)
		call.Next = test.ID
		inserted = []*mir.Block{test, errBlk, cont}
	} else {
		call.Dest = mir.Op(result)
		call.Next = cont.ID
		inserted = []*mir.Block{cont}
	}
	startBlk.Instrs = head
	startBlk.Term = call

	blocks := make([]*mir.Block, 0, len(fn.Blocks)+len(inserted))
	blocks = append(blocks, fn.Blocks[:split.StartBlock+1]...)
	blocks = append(blocks, inserted...)
	blocks = append(blocks, fn.Blocks[split.EndBlock+1:]...)
	fn.Blocks = blocks

	if len(split.Errors) > 0 {
		fn.ErrorTable = slices.DeleteFunc(fn.ErrorTable, func(e *mir.ErrorEntry) bool {
			return slices.Contains(split.Errors, e)
		})
	}

	if split.SameBlock() {
		rw.renameEnd(startBlk.ID, cont.ID)
	} else {
		rw.startRename[endBlk.ID] = cont.ID
		rw.renameEnd(endBlk.ID, cont.ID)
		for _, blk := range inner {
			rw.moved[blk.ID] = startBlk.ID
		}
	}
	return ext, nil
}

// renameEnd records the last piece of a split block. Splits are rewritten
// back to front, so the first piece recorded is the last one in layout.
func (rw *rewriter) renameEnd(old, next mir.BlockID) {
	if _, ok := rw.endRename[old]; !ok {
		rw.endRename[old] = next
	}
}

// newChild creates the function receiving split and the operand mapping
// from parent declarations to child declarations.
func (rw *rewriter) newChild(split *Split, retType types.SemType) (*mir.Function, map[*mir.VarDecl]*mir.VarDecl) {
	retName := "%0"
	if rw.fn.Attached {
		retName = "%1"
	}
	child := &mir.Function{
		ReturnVar:  &mir.VarDecl{Name: retName, Type: retType, Kind: mir.KindReturn},
		ReturnType: retType,
		Generated:  true,
		Location:   rw.fn.Location,
	}
	mapping := map[*mir.VarDecl]*mir.VarDecl{rw.fn.ReturnVar: child.ReturnVar}

	// Every captured variable, the receiver included, becomes a plain
	// parameter of the child.
	for _, arg := range split.Args {
		param := &mir.VarDecl{Name: arg.Name, Type: arg.Type, Kind: mir.KindArg}
		child.Params = append(child.Params, param)
		mapping[arg] = param
	}
	for _, def := range split.Defs {
		if def.Ignored {
			clone := &mir.VarDecl{Name: def.Name, Type: def.Type, Kind: def.Kind, Ignored: true}
			mapping[def] = clone
			child.Locals = append(child.Locals, clone)
			continue
		}
		child.Locals = append(child.Locals, def)
	}
	return child, mapping
}

// repair points error entries and local scopes at the blocks that replaced
// the ones they referenced.
func (rw *rewriter) repair() {
	for _, entry := range rw.fn.ErrorTable {
		entry.Start = rw.resolve(entry.Start, rw.startRename)
		entry.End = rw.resolve(entry.End, rw.endRename)
		entry.Target = rw.resolve(entry.Target, rw.startRename)
	}
	for _, v := range rw.fn.Locals {
		if v.Scope == nil {
			continue
		}
		v.Scope.Start = rw.resolve(v.Scope.Start, rw.startRename)
		v.Scope.End = rw.resolve(v.Scope.End, rw.endRename)
	}
}

// resolve follows renames until it reaches a surviving block. Every step
// moves to an earlier block or to a fresh one, so the walk terminates.
func (rw *rewriter) resolve(id mir.BlockID, rename map[mir.BlockID]mir.BlockID) mir.BlockID {
	for {
		if next, ok := rename[id]; ok {
			id = next
			continue
		}
		if next, ok := rw.moved[id]; ok {
			id = next
			continue
		}
		return id
	}
}
