package optimizer

import (
	"methodsplit/internal/mir"
	"methodsplit/internal/source"
	"methodsplit/internal/types"
)

// storeGroupSize is the number of instructions storing one entry.
const storeGroupSize = 3

// aggregateEntry is one initializer of the constructor being staged.
type aggregateEntry struct {
	index  int
	key    mir.Operand // records only
	value  mir.Operand
	spread bool
}

// unit is an indivisible piece of a chunk: one original instruction, one
// original terminator or the group storing one entry. block is the layout
// index of the original block the unit came from.
type unit struct {
	instr mir.Instr
	term  mir.Term
	entry *aggregateEntry
	block int
}

// size counts the instructions a unit adds to a chunk. Terminators are not
// part of the size metric.
func (u unit) size() int {
	switch {
	case u.entry != nil:
		return storeGroupSize
	case u.instr != nil:
		return 1
	default:
		return 0
	}
}

// reads returns the operands a unit reads.
func (u unit) reads() []*mir.Operand {
	switch {
	case u.entry != nil:
		var ops []*mir.Operand
		if u.entry.key.Valid() {
			ops = append(ops, &u.entry.key)
		}
		return append(ops, &u.entry.value)
	case u.instr != nil:
		return u.instr.Rhs()
	default:
		return u.term.Rhs()
	}
}

// lhs returns the variable a unit writes, or nil.
func (u unit) lhs() *mir.VarDecl {
	var op *mir.Operand
	switch {
	case u.instr != nil:
		op = u.instr.Lhs()
	case u.term != nil:
		op = u.term.Lhs()
	}
	if op == nil {
		return nil
	}
	return op.Var
}

// stagedAggregate describes a generated function whose body builds one
// aggregate into its return variable: the anchor definition opens the
// first block, the constructor closes the last body block, and any other
// block that leaves for the exit stores an error into the return variable
// first.
type stagedAggregate struct {
	fn     *mir.Function
	marker mir.Instr
	anchor mir.Instr
	array  bool
	body   []*mir.Block
	exit   mir.BlockID
	index  map[mir.BlockID]int
	exits  []bool

	entries []*aggregateEntry
}

// matchStaged recognizes the shape a split of an aggregate constructor
// leaves behind.
func matchStaged(fn *mir.Function) (*stagedAggregate, bool) {
	if len(fn.Blocks) < 2 {
		return nil, false
	}
	exitID := fn.ExitBlock().ID
	body := fn.Blocks[:len(fn.Blocks)-1]
	first, last := body[0], body[len(body)-1]
	if g, ok := last.Term.(*mir.Goto); !ok || g.Target != exitID {
		return nil, false
	}
	if len(first.Instrs) == 0 || len(last.Instrs) == 0 || (first == last && len(first.Instrs) < 2) {
		return nil, false
	}
	marker, anchor := first.Instrs[0], last.Instrs[len(last.Instrs)-1]
	anchorOp, ok := mir.AnchorOperand(anchor)
	if !ok {
		return nil, false
	}
	markerDef := marker.Lhs()
	if markerDef == nil || markerDef.Var != anchorOp.Var || !markerDef.Var.Kind.IsTempOrSynthetic() {
		return nil, false
	}
	if lhs := anchor.Lhs(); lhs == nil || lhs.Var != fn.ReturnVar {
		return nil, false
	}
	for _, v := range fn.Locals {
		if v.Scope != nil {
			return nil, false
		}
	}

	sa := &stagedAggregate{
		fn:     fn,
		marker: marker,
		anchor: anchor,
		body:   body,
		exit:   exitID,
		index:  fn.BlockIndex(),
		exits:  make([]bool, len(body)),
	}
	for _, entry := range fn.ErrorTable {
		for _, id := range []mir.BlockID{entry.Start, entry.End, entry.Target} {
			if id == exitID {
				return nil, false
			}
		}
		if v := entry.ErrOp.Var; !v.Kind.IsTempOrSynthetic() {
			return nil, false
		}
	}

	for b, blk := range body {
		writesReturn := false
		for _, instr := range blk.Instrs {
			if instr == marker || instr == anchor {
				continue
			}
			for _, op := range instr.Rhs() {
				if op.Var == fn.ReturnVar {
					return nil, false
				}
			}
			lhs := instr.Lhs()
			if lhs == nil {
				continue
			}
			switch v := lhs.Var; {
			case v == fn.ReturnVar:
				if !returnFromError(instr) {
					return nil, false
				}
				writesReturn = true
			case v.Kind.IsModuleLevel(), v.Kind.IsTempOrSynthetic():
			default:
				return nil, false
			}
		}
		if blk == last {
			if writesReturn {
				return nil, false
			}
			continue
		}
		for _, op := range blk.Term.Rhs() {
			if op.Var == fn.ReturnVar {
				return nil, false
			}
		}
		if lhs := blk.Term.Lhs(); lhs != nil && !lhs.Var.Kind.IsTempOrSynthetic() {
			return nil, false
		}
		for _, succ := range blk.Term.Successors() {
			if succ == exitID {
				sa.exits[b] = true
			}
		}
		if sa.exits[b] != writesReturn {
			return nil, false
		}
	}

	switch a := anchor.(type) {
	case *mir.NewArray:
		sa.array = true
		for i, e := range a.Values {
			sa.entries = append(sa.entries, &aggregateEntry{index: i, value: e.Value, spread: e.Kind == mir.EntrySpread})
		}
	case *mir.NewRecord:
		for i, f := range a.Fields {
			sa.entries = append(sa.entries, &aggregateEntry{index: i, key: f.Key, value: f.Value})
		}
	}
	return sa, true
}

// periodicSplitter stages the entries of an aggregate in a runtime
// container and cuts the body into chunks of bounded size. Cuts fall only
// where no temporary is live, no edge other than the fall-through crosses
// and no error region is divided.
type periodicSplitter struct {
	p  *pass
	sa *stagedAggregate

	units []unit
	// start and end are the first and last unit positions of each body
	// block. A block without units starts where the next unit would go.
	start []int
	end   []int

	handle *mir.VarDecl
}

// periodic rewrites fn, which the scanner could not split, into a parent
// that allocates the container, calls each chunk in turn and constructs the
// aggregate from the container. It returns the chunk functions, or nothing
// when fn does not have the staged shape.
func (p *pass) periodic(fn *mir.Function) ([]*mir.Function, error) {
	sa, ok := matchStaged(fn)
	if !ok {
		p.log.Debug("Function not eligible for periodic splitting", "function", fn.Name,
			"instructions", mir.InstructionCount(fn))
		return nil, nil
	}
	ps := &periodicSplitter{p: p, sa: sa}
	direct, ok := ps.layout()
	if !ok {
		p.log.Debug("Body cannot be staged", "function", fn.Name)
		return nil, nil
	}
	return ps.run(direct)
}

// layout lists the units of the body in layout order, each entry's store
// group following the last definition it reads. Entries that read nothing
// defined in the body are returned for the parent to store. It fails when an
// entry reads a temporary defined more than once or an error region names a
// block left without units.
func (ps *periodicSplitter) layout() ([]*aggregateEntry, bool) {
	sa := ps.sa
	var raw []unit
	defAt := make(map[*mir.VarDecl]int)
	defs := make(map[*mir.VarDecl]int)
	last := len(sa.body) - 1
	for b, blk := range sa.body {
		for _, instr := range blk.Instrs {
			if instr == sa.marker || instr == sa.anchor {
				continue
			}
			raw = append(raw, unit{instr: instr, block: b})
		}
		if b != last {
			raw = append(raw, unit{term: blk.Term, block: b})
		}
	}
	for i, u := range raw {
		if v := u.lhs(); v != nil && v.Kind.IsTempOrSynthetic() {
			defAt[v] = i
			defs[v]++
		}
	}

	var direct []*aggregateEntry
	groups := make(map[int][]*aggregateEntry)
	for _, e := range sa.entries {
		at := -1
		for _, op := range []mir.Operand{e.key, e.value} {
			if !op.Valid() {
				continue
			}
			i, ok := defAt[op.Var]
			if !ok {
				continue
			}
			if defs[op.Var] > 1 {
				return nil, false
			}
			if i > at {
				at = i
			}
		}
		if at < 0 {
			direct = append(direct, e)
			continue
		}
		groups[at] = append(groups[at], e)
	}

	ps.start = make([]int, len(sa.body))
	ps.end = make([]int, len(sa.body))
	next := 0
	for i, u := range raw {
		for ; next <= u.block; next++ {
			ps.start[next] = len(ps.units)
		}
		ps.units = append(ps.units, u)
		for _, e := range groups[i] {
			ps.units = append(ps.units, unit{entry: e, block: u.block})
		}
	}
	for ; next < len(sa.body); next++ {
		ps.start[next] = len(ps.units)
	}
	for b := range sa.body {
		if b+1 < len(sa.body) {
			ps.end[b] = ps.start[b+1] - 1
		} else {
			ps.end[b] = len(ps.units) - 1
		}
	}
	for _, entry := range sa.fn.ErrorTable {
		for _, id := range []mir.BlockID{entry.Start, entry.End, entry.Target} {
			if b := sa.index[id]; ps.start[b] > ps.end[b] {
				return nil, false
			}
		}
	}
	return direct, true
}

func (ps *periodicSplitter) run(direct []*aggregateEntry) ([]*mir.Function, error) {
	sa, fn, tbl := ps.sa, ps.sa.fn, ps.p.tbl
	loc := *sa.anchor.Loc()

	chunks := ps.cut()
	if len(chunks) < 2 {
		ps.p.log.Debug("Body cannot be divided", "function", fn.Name, "units", len(ps.units))
		return nil, nil
	}

	size := ps.temp(fn, tbl.Int)
	ps.handle = ps.temp(fn, tbl.Handle)
	helper := mir.ListEntryArray
	if !sa.array {
		helper = mir.MappingEntryArray
	}

	var nextID mir.BlockID
	newBlock := func() *mir.Block {
		b := &mir.Block{ID: nextID}
		nextID++
		return b
	}
	exit := fn.ExitBlock()
	exit.ID = newBlock().ID

	entry := newBlock()
	entry.Instrs = []mir.Instr{
		&mir.ConstLoad{Dest: mir.Op(size), Value: int64(len(sa.entries)), Location: loc},
		&mir.ForeignCall{Dest: mir.Op(ps.handle), Name: helper, Args: []mir.Operand{mir.Op(size)}, Location: loc},
		sa.marker,
	}
	blocks := []*mir.Block{entry}

	// Chunks that can leave early share one error exit.
	var res, isErr *mir.VarDecl
	var errBlk *mir.Block
	var created []*mir.Function
	cur := entry
	for _, c := range chunks {
		child, args, fallible, err := ps.chunkFunction(c[0], c[1], loc)
		if err != nil {
			return nil, err
		}
		next := newBlock()
		call := &mir.Call{Callee: child.Name, Args: args, Next: next.ID, Location: loc}
		cur.Term = call
		if fallible {
			if errBlk == nil {
				res = ps.temp(fn, types.NewUnion(tbl.Nil, tbl.Error))
				isErr = ps.temp(fn, tbl.Boolean)
				castErr := ps.temp(fn, tbl.Error)
				errBlk = newBlock()
				errBlk.Instrs = []mir.Instr{
					&mir.TypeCast{Dest: mir.Op(castErr), Src: mir.Op(res), Type: tbl.Error, Location: loc},
					&mir.Move{Dest: mir.Op(fn.ReturnVar), Src: mir.Op(castErr), Location: loc},
				}
				errBlk.Term = &mir.Goto{Target: exit.ID, Location: loc}
			}
			test := newBlock()
			test.Instrs = []mir.Instr{&mir.TypeTest{Dest: mir.Op(isErr), Src: mir.Op(res), Type: tbl.Error, Location: loc}}
			test.Term = &mir.Branch{Cond: mir.Op(isErr), Then: errBlk.ID, Else: next.ID, Location: loc}
			call.Dest = mir.Op(res)
			call.Next = test.ID
			blocks = append(blocks, test)
		}
		blocks = append(blocks, next)
		cur = next
		created = append(created, child)
	}

	if len(direct) > 0 {
		index := ps.temp(fn, tbl.Int)
		cast := ps.temp(fn, tbl.AnyOrError)
		for _, e := range direct {
			cur.Instrs = append(cur.Instrs, ps.storeGroup(ps.handle, e, index, cast, loc)...)
		}
	}
	anchorOp, _ := mir.AnchorOperand(sa.anchor)
	if sa.array {
		cur.Instrs = append(cur.Instrs, &mir.NewLargeArray{
			Dest:     mir.Op(fn.ReturnVar),
			Type:     sa.anchor.(*mir.NewArray).Type,
			Size:     *anchorOp,
			Handle:   mir.Op(ps.handle),
			Location: loc,
		})
	} else {
		cur.Instrs = append(cur.Instrs, &mir.NewLargeRecord{
			Dest:     mir.Op(fn.ReturnVar),
			TypeDesc: *anchorOp,
			Handle:   mir.Op(ps.handle),
			Location: loc,
		})
	}
	cur.Term = &mir.Goto{Target: exit.ID, Location: loc}
	if errBlk != nil {
		blocks = append(blocks, errBlk)
	}
	fn.Blocks = append(blocks, exit)
	fn.ErrorTable = nil

	if err := finalize(fn); err != nil {
		return nil, err
	}
	ps.p.log.Debug("Periodic split applied", "function", fn.Name, "entries", len(sa.entries),
		"chunks", len(created), "direct", len(direct))
	return created, nil
}

// cut groups units into chunks of at most PeriodicSplitInterval
// instructions, counting the instruction that sets each chunk's result.
// A cut after unit c is ruled out when a temporary is live across it, when
// an edge other than one to the unit right after c crosses it, or when it
// divides an error region from its handler. Units between two allowed cuts
// form a segment that is never divided, so a segment larger than the
// interval becomes a chunk of its own. Chunks are returned as inclusive
// unit ranges.
func (ps *periodicSplitter) cut() [][2]int {
	n := len(ps.units)
	if n == 0 {
		return nil
	}
	sa := ps.sa
	blocked := make([]bool, n)
	block := func(lo, hi int) {
		if lo < 0 {
			lo = 0
		}
		if hi > n-2 {
			hi = n - 2
		}
		for c := lo; c <= hi; c++ {
			blocked[c] = true
		}
	}

	exitID := sa.exit
	for b, blk := range sa.body[:len(sa.body)-1] {
		from := ps.end[b]
		for _, succ := range blk.Term.Successors() {
			if succ == exitID {
				continue
			}
			to := ps.start[sa.index[succ]]
			if to > from {
				block(from, to-2)
			} else {
				block(to, from-1)
			}
		}
	}

	first := make(map[*mir.VarDecl]int)
	last := make(map[*mir.VarDecl]int)
	touch := func(v *mir.VarDecl, at int) {
		if f, ok := first[v]; !ok || at < f {
			first[v] = at
		}
		if l, ok := last[v]; !ok || at > l {
			last[v] = at
		}
	}
	defined := newVarSet()
	for u, un := range ps.units {
		if v := un.lhs(); v != nil && v.Kind.IsTempOrSynthetic() && !v.Ignored {
			defined.Add(v)
			touch(v, u)
		}
		for _, op := range un.reads() {
			touch(op.Var, u)
		}
	}
	for _, entry := range sa.fn.ErrorTable {
		target := sa.index[entry.Target]
		lo, hi := ps.start[sa.index[entry.Start]], ps.end[sa.index[entry.End]]
		if ps.start[target] < lo {
			lo = ps.start[target]
		}
		if ps.end[target] > hi {
			hi = ps.end[target]
		}
		block(lo, hi-1)

		defined.Add(entry.ErrOp.Var)
		touch(entry.ErrOp.Var, ps.start[target])
	}
	for _, v := range defined.Slice() {
		block(first[v], last[v]-1)
	}

	interval := ps.p.cfg.PeriodicSplitInterval
	var chunks [][2]int
	lo, chunkSize := 0, 0
	segStart, segSize := 0, 0
	for u := 0; u < n; u++ {
		segSize += ps.units[u].size()
		if u < n-1 && blocked[u] {
			continue
		}
		if segStart > lo && chunkSize+segSize+1 > interval {
			chunks = append(chunks, [2]int{lo, segStart - 1})
			lo, chunkSize = segStart, 0
		}
		chunkSize += segSize
		segStart, segSize = u+1, 0
	}
	return append(chunks, [2]int{lo, n - 1})
}

// chunkFunction builds the function running units lo..hi and returns it
// with the parent operands to call it with. fallible reports whether the
// chunk can leave early with an error, which it then returns.
func (ps *periodicSplitter) chunkFunction(lo, hi int, loc source.Location) (*mir.Function, []mir.Operand, bool, error) {
	sa, parent, tbl := ps.sa, ps.sa.fn, ps.p.tbl
	exitID := sa.exit

	fallible := false
	for pos := lo; pos <= hi; pos++ {
		if u := ps.units[pos]; u.term != nil && sa.exits[u.block] {
			fallible = true
		}
	}
	retType := tbl.Nil
	if fallible {
		retType = types.NewUnion(tbl.Nil, tbl.Error)
	}
	child := &mir.Function{
		Name:       ps.p.namer.Func(),
		ReturnVar:  &mir.VarDecl{Name: "%0", Type: retType, Kind: mir.KindReturn},
		ReturnType: retType,
		Generated:  true,
		Location:   parent.Location,
	}
	if parent.Attached {
		child.ReturnVar.Name = "%1"
	}

	var moved []*mir.ErrorEntry
	for _, e := range parent.ErrorTable {
		if s := ps.start[sa.index[e.Start]]; s >= lo && s <= hi {
			moved = append(moved, e)
		}
	}

	defined := newVarSet()
	for pos := lo; pos <= hi; pos++ {
		if v := ps.units[pos].lhs(); v != nil && v.Kind.IsTempOrSynthetic() {
			defined.Add(v)
		}
	}
	for _, e := range moved {
		defined.Add(e.ErrOp.Var)
	}
	needed := newVarSet()
	usesHandle := false
	for pos := lo; pos <= hi; pos++ {
		u := ps.units[pos]
		if u.entry != nil {
			usesHandle = true
		}
		for _, op := range u.reads() {
			v := op.Var
			if v.Ignored || v.Kind.IsModuleLevel() || defined.Contains(v) {
				continue
			}
			needed.Add(v)
		}
	}

	mapping := map[*mir.VarDecl]*mir.VarDecl{parent.ReturnVar: child.ReturnVar}
	var args []mir.Operand
	for _, v := range needed.Slice() {
		param := &mir.VarDecl{Name: v.Name, Type: v.Type, Kind: mir.KindArg}
		child.Params = append(child.Params, param)
		mapping[v] = param
		args = append(args, mir.Op(v))
	}
	var handle *mir.VarDecl
	if usesHandle {
		handle = &mir.VarDecl{Name: ps.handle.Name, Type: tbl.Handle, Kind: mir.KindArg}
		child.Params = append(child.Params, handle)
		args = append(args, mir.Op(ps.handle))
	}
	for _, v := range defined.Slice() {
		if v.Ignored {
			clone := &mir.VarDecl{Name: v.Name, Type: v.Type, Kind: v.Kind, Ignored: true}
			mapping[v] = clone
			child.Locals = append(child.Locals, clone)
			continue
		}
		child.Locals = append(child.Locals, v)
	}

	var nextID mir.BlockID
	newBlock := func() *mir.Block {
		b := &mir.Block{ID: nextID}
		nextID++
		return b
	}
	exit := newBlock()
	exit.Term = &mir.Return{Location: loc}

	// ids maps the layout index of each original block starting in the
	// chunk to its block in the child. A store group following a call gets
	// a block of its own between the call and its continuation.
	ids := make(map[int]mir.BlockID)
	type postCall struct {
		call  *mir.Call
		block *mir.Block
	}
	var posts []postCall
	var terms []mir.Term
	var cur *mir.Block
	var prev mir.Term
	open, afterTerm := false, false
	var index, cast *mir.VarDecl
	for pos := lo; pos <= hi; pos++ {
		u := ps.units[pos]
		if u.entry != nil {
			if afterTerm {
				call, ok := prev.(*mir.Call)
				if !ok {
					return nil, nil, false, internalErrorf(parent, u.block, -1, "entry stored after a terminator that defines nothing")
				}
				cur = newBlock()
				cur.Term = &mir.Goto{Target: call.Next, Location: loc}
				child.Blocks = append(child.Blocks, cur)
				terms = append(terms, cur.Term)
				posts = append(posts, postCall{call: call, block: cur})
				afterTerm = false
			}
			if index == nil {
				index = ps.temp(child, tbl.Int)
				cast = ps.temp(child, tbl.AnyOrError)
			}
			cur.Instrs = append(cur.Instrs, ps.storeGroup(handle, u.entry, index, cast, loc)...)
			continue
		}
		if pos == lo || ps.start[u.block] == pos {
			cur = newBlock()
			child.Blocks = append(child.Blocks, cur)
			if ps.start[u.block] == pos {
				ids[u.block] = cur.ID
			}
			open, afterTerm = true, false
		}
		if u.instr != nil {
			cur.Instrs = append(cur.Instrs, u.instr)
			continue
		}
		cur.Term = u.term
		terms = append(terms, u.term)
		prev = u.term
		open, afterTerm = false, true
	}

	var done *mir.Block
	var stray *mir.BlockID
	remap := func(id mir.BlockID) mir.BlockID {
		if id == exitID {
			return exit.ID
		}
		b := sa.index[id]
		if cid, ok := ids[b]; ok {
			return cid
		}
		if ps.start[b] == hi+1 {
			if done == nil {
				done = newBlock()
			}
			return done.ID
		}
		if stray == nil {
			stray = &id
		}
		return id
	}
	for _, t := range terms {
		t.Remap(remap)
	}
	if stray != nil {
		return nil, nil, false, internalErrorf(parent, sa.index[*stray], -1, "chunk %s jumps to a block outside it", child.Name)
	}
	for _, pc := range posts {
		pc.call.Next = pc.block.ID
	}

	setNil := func() mir.Instr {
		return &mir.ConstLoad{Dest: mir.Op(child.ReturnVar), Value: nil, Location: loc}
	}
	if open {
		if done == nil {
			cur.Instrs = append(cur.Instrs, setNil())
			cur.Term = &mir.Goto{Target: exit.ID, Location: loc}
		} else {
			cur.Term = &mir.Goto{Target: done.ID, Location: loc}
		}
	}
	if done != nil {
		done.Instrs = []mir.Instr{setNil()}
		done.Term = &mir.Goto{Target: exit.ID, Location: loc}
		child.Blocks = append(child.Blocks, done)
	}
	child.Blocks = append(child.Blocks, exit)

	for _, e := range moved {
		start, okStart := ids[sa.index[e.Start]]
		end, okEnd := ids[sa.index[e.End]]
		target, okTarget := ids[sa.index[e.Target]]
		if !okStart || !okEnd || !okTarget {
			return nil, nil, false, internalErrorf(parent, sa.index[e.Start], -1, "error region divided by chunk %s", child.Name)
		}
		e.Start, e.End, e.Target = start, end, target
	}
	child.ErrorTable = moved
	mir.RebindOperands(child, mapping)

	if err := finalize(child); err != nil {
		return nil, nil, false, err
	}
	ps.p.log.Trace("Periodic chunk created", "name", child.Name, "parent", parent.Name,
		"blocks", len(child.Blocks), "instructions", mir.InstructionCount(child), "params", len(child.Params))
	return child, args, fallible, nil
}

// storeGroup emits the three instructions storing e at its index:
//
//	index = const i
//	cast = <any|error> value
//	setExpressionEntry | setSpreadEntry | setKeyValueEntry
func (ps *periodicSplitter) storeGroup(handle *mir.VarDecl, e *aggregateEntry, index, cast *mir.VarDecl, loc source.Location) []mir.Instr {
	set := &mir.ForeignCall{Location: loc}
	switch {
	case e.key.Valid():
		set.Name = mir.SetKeyValue
		set.Args = []mir.Operand{mir.Op(handle), e.key, mir.Op(cast), mir.Op(index)}
	case e.spread:
		set.Name = mir.SetSpread
		set.Args = []mir.Operand{mir.Op(handle), mir.Op(cast), mir.Op(index)}
	default:
		set.Name = mir.SetExpression
		set.Args = []mir.Operand{mir.Op(handle), mir.Op(cast), mir.Op(index)}
	}
	return []mir.Instr{
		&mir.ConstLoad{Dest: mir.Op(index), Value: int64(e.index), Location: loc},
		&mir.TypeCast{Dest: mir.Op(cast), Src: e.value, Type: ps.p.tbl.AnyOrError, Location: loc},
		set,
	}
}

// temp declares a named split temporary in fn.
func (ps *periodicSplitter) temp(fn *mir.Function, t types.SemType) *mir.VarDecl {
	v := &mir.VarDecl{Name: ps.p.namer.Temp(), Type: t, Kind: mir.KindTemp}
	fn.Locals = append(fn.Locals, v)
	return v
}
