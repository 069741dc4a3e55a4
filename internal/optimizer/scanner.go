package optimizer

import (
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slices"

	"methodsplit/internal/config"
	"methodsplit/internal/log"
	"methodsplit/internal/mir"
	"methodsplit/internal/types"
)

// Split is a contiguous instruction range that can be moved into a function
// of its own. Block fields are layout indexes into the scanned function. The
// range runs from Blocks[StartBlock].Instrs[FirstInstr], the definition of
// the constructor's anchor operand, to Blocks[EndBlock].Instrs[LastInstr],
// the aggregate constructor itself.
type Split struct {
	StartBlock int
	FirstInstr int
	EndBlock   int
	LastInstr  int

	// Args are the variables read inside the range but defined outside it,
	// in the order the backward scan first met them.
	Args []*mir.VarDecl
	// Defs are the temporaries, synthetics and placeholders defined inside.
	Defs []*mir.VarDecl
	// Errors are the error entries lying strictly inside the range. They
	// move with the range.
	Errors []*mir.ErrorEntry

	// Instructions counts the instructions and terminators of the range.
	Instructions int
	// SplitFurther marks a range that is itself too large and must be split
	// again once extracted.
	SplitFurther bool
	// ReturnAssigned marks a range containing an early error return.
	ReturnAssigned bool
	// Array is true for a list constructor, false for a record constructor.
	Array bool
}

// SameBlock reports whether the range lies in a single block.
func (s *Split) SameBlock() bool {
	return s.StartBlock == s.EndBlock
}

// scanState is the state of the candidate being accumulated.
type scanState struct {
	open     bool
	marker   *mir.VarDecl
	array    bool
	endBlock int
	endInstr int
	count    int

	needed *varSet
	defs   *varSet
	// inside counts the references made from within the range.
	inside map[*mir.VarDecl]int

	returnAssigned bool
	returnBlocks   mapset.Set[int]
}

type scanner struct {
	fn     *mir.Function
	cfg    config.Optimizer
	log    log.Logger
	index  map[mir.BlockID]int
	preds  map[mir.BlockID][]int
	refs   map[*mir.VarDecl]int
	exitID mir.BlockID
}

func newScanner(fn *mir.Function, cfg config.Optimizer, logger log.Logger) *scanner {
	return &scanner{
		fn:     fn,
		cfg:    cfg,
		log:    logger,
		index:  fn.BlockIndex(),
		preds:  mir.Predecessors(fn),
		refs:   countRefs(fn),
		exitID: fn.ExitBlock().ID,
	}
}

// FindSplits returns the extractable ranges of fn in forward layout order.
//
// Blocks and instructions are walked backwards. A list or record
// constructor opens a candidate whose anchor operand is the constructor's
// size or type descriptor; the candidate closes successfully at the
// instruction defining the anchor. Assigning a surface local inside the
// range abandons the candidate.
func FindSplits(fn *mir.Function, cfg config.Optimizer, logger log.Logger) []*Split {
	if len(fn.Blocks) == 0 {
		return nil
	}
	return newScanner(fn, cfg, logger).scan()
}

func (s *scanner) scan() []*Split {
	var splits []*Split
	st := &scanState{}

	for b := len(s.fn.Blocks) - 1; b >= 0; b-- {
		blk := s.fn.Blocks[b]
		if st.open && blk.Term != nil {
			s.visitTerm(st, b, blk.Term)
		}
		for i := len(blk.Instrs) - 1; i >= 0; i-- {
			instr := blk.Instrs[i]
			lhs := instr.Lhs()
			if st.open && lhs != nil && isSurfaceLocal(lhs.Var) {
				s.abandon(st, b, i, "surface local "+lhs.Var.Name+" assigned")
			}

			if st.open {
				s.visit(st, b, i, instr)
				if st.open && lhs != nil && lhs.Var == st.marker {
					if split := s.close(st, b, i); split != nil {
						splits = append(splits, split)
					}
					st.open = false
				}
				continue
			}

			anchor, ok := mir.AnchorOperand(instr)
			if !ok || !anchor.Valid() {
				continue
			}
			if s.reextracts(b, anchor.Var) {
				continue
			}
			s.open(st, b, i, instr, anchor.Var)
		}
	}

	slices.Reverse(splits)
	return splits
}

func (s *scanner) open(st *scanState, b, i int, instr mir.Instr, marker *mir.VarDecl) {
	_, isArray := instr.(*mir.NewArray)
	*st = scanState{
		open:         true,
		marker:       marker,
		array:        isArray,
		endBlock:     b,
		endInstr:     i,
		count:        1,
		needed:       newVarSet(),
		defs:         newVarSet(),
		inside:       make(map[*mir.VarDecl]int),
		returnBlocks: mapset.NewThreadUnsafeSet[int](),
	}
	for _, op := range instr.Rhs() {
		s.use(st, op.Var)
	}
}

// reextracts reports whether a constructor anchored at marker in block b
// would rebuild the whole of an already generated split function.
func (s *scanner) reextracts(b int, marker *mir.VarDecl) bool {
	if b != len(s.fn.Blocks)-2 || !IsGenerated(s.fn.Name) {
		return false
	}
	first := s.fn.Blocks[0].Instrs
	if len(first) == 0 {
		return false
	}
	lhs := first[0].Lhs()
	return lhs != nil && lhs.Var == marker
}

func (s *scanner) visit(st *scanState, b, i int, instr mir.Instr) {
	st.count++
	if lhs := instr.Lhs(); lhs != nil {
		s.define(st, b, i, lhs.Var, returnFromError(instr))
		if !st.open {
			return
		}
	}
	for _, op := range instr.Rhs() {
		s.use(st, op.Var)
	}
}

func (s *scanner) visitTerm(st *scanState, b int, term mir.Term) {
	st.count++
	if lhs := term.Lhs(); lhs != nil {
		v := lhs.Var
		switch {
		case isSurfaceLocal(v):
			s.abandon(st, b, -1, "surface local "+v.Name+" assigned by terminator")
			return
		case v.Kind == mir.KindReturn:
			s.abandon(st, b, -1, "return variable assigned by terminator")
			return
		}
		s.define(st, b, -1, v, false)
		if !st.open {
			return
		}
	}
	for _, op := range term.Rhs() {
		s.use(st, op.Var)
	}
}

func (s *scanner) define(st *scanState, b, i int, v *mir.VarDecl, fromError bool) {
	st.inside[v]++
	switch {
	case v.Ignored:
		st.defs.Add(v)
	case v.Kind == mir.KindReturn:
		if !fromError {
			s.abandon(st, b, i, "return variable assigned a non-error value")
			return
		}
		st.returnAssigned = true
		st.returnBlocks.Add(b)
	case v.Kind == mir.KindSelf:
		st.needed.Add(v)
	case v.Kind == mir.KindArg:
		s.abandon(st, b, i, "argument "+v.Name+" assigned")
	case v.Kind.IsTempOrSynthetic():
		st.needed.Remove(v)
		st.defs.Add(v)
	}
}

func (s *scanner) use(st *scanState, v *mir.VarDecl) {
	st.inside[v]++
	if v.Ignored || v.Kind.IsModuleLevel() {
		return
	}
	st.needed.Add(v)
}

func (s *scanner) abandon(st *scanState, b, i int, reason string) {
	st.open = false
	s.log.Trace("Split candidate abandoned", "function", s.fn.Name, "block", b, "instr", i, "reason", reason)
}

func (s *scanner) close(st *scanState, b, i int) *Split {
	split := &Split{
		StartBlock:     b,
		FirstInstr:     i,
		EndBlock:       st.endBlock,
		LastInstr:      st.endInstr,
		Instructions:   st.count,
		ReturnAssigned: st.returnAssigned,
		Array:          st.array,
	}
	if reason := s.check(st, split); reason != "" {
		s.log.Trace("Split candidate rejected", "function", s.fn.Name,
			"start", b, "end", st.endBlock, "instructions", st.count, "reason", reason)
		return nil
	}
	split.Args = st.needed.Slice()
	split.Defs = st.defs.Slice()
	split.SplitFurther = st.count >= s.cfg.FunctionInstructionThreshold
	return split
}

// check applies the size policy and the safety rules to a closed candidate
// and returns the reason for rejecting it, or "".
func (s *scanner) check(st *scanState, split *Split) string {
	if reason := s.classifyErrors(st, split); reason != "" {
		return reason
	}
	if st.needed.Len() > s.cfg.MaxSplitArgs {
		return "too many arguments"
	}
	if st.count < s.cfg.MinSplitInstructions {
		return "too few instructions"
	}
	if reason := s.checkReturn(st, split); reason != "" {
		return reason
	}
	if reason := s.checkControlFlow(st, split); reason != "" {
		return reason
	}
	for _, v := range st.defs.Slice() {
		if st.needed.Contains(v) {
			return v.Name + " read before it is defined"
		}
		if s.refs[v] != st.inside[v] {
			return v.Name + " used outside the range"
		}
	}
	return ""
}

// classifyErrors sorts the error entries relative to the range. Entries
// outside it or covering all of it stay with the parent; entries strictly
// inside move with the range, and their error variable becomes defined
// there. Any other overlap cannot be expressed after the split.
func (s *scanner) classifyErrors(st *scanState, split *Split) string {
	start, end := split.StartBlock, split.EndBlock
	moved := func(idx int) bool { return idx > start && idx <= end }

	for _, entry := range s.fn.ErrorTable {
		es, ee, et := s.index[entry.Start], s.index[entry.End], s.index[entry.Target]
		switch {
		case ee < start || es > end, es <= start && ee >= end:
			if moved(et) {
				return "error handler of an outer region inside the range"
			}
		case es > start && ee < end && et > start && et < end:
			v := entry.ErrOp.Var
			if !v.Kind.IsTempOrSynthetic() {
				return "error variable " + v.Name + " is not a temporary"
			}
			st.needed.Remove(v)
			st.defs.Add(v)
			st.inside[v]++
			split.Errors = append(split.Errors, entry)
		default:
			return "error region crosses the range boundary"
		}
	}
	return ""
}

// checkReturn restricts early returns to blocks that jump straight to the
// exit, in a cross-block range whose end block is not the exit.
func (s *scanner) checkReturn(st *scanState, split *Split) string {
	if !st.returnAssigned {
		return ""
	}
	switch {
	case split.SameBlock():
		return "return variable assigned in a single-block range"
	case split.EndBlock == len(s.fn.Blocks)-1:
		return "range ends in the exit block"
	case st.returnBlocks.Contains(split.EndBlock):
		return "return variable assigned in the end block"
	}
	for _, b := range st.returnBlocks.ToSlice() {
		g, ok := s.fn.Blocks[b].Term.(*mir.Goto)
		if !ok || g.Target != s.exitID {
			return "early return does not jump to the exit"
		}
	}
	return ""
}

// checkControlFlow requires the moved blocks to form a region entered only
// through the start block and left only through the end block.
func (s *scanner) checkControlFlow(st *scanState, split *Split) string {
	start, end := split.StartBlock, split.EndBlock
	for k := start + 1; k <= end; k++ {
		for _, p := range s.preds[s.fn.Blocks[k].ID] {
			if p < start || p >= end {
				return "block entered from outside the range"
			}
		}
	}
	for k := start; k < end; k++ {
		term := s.fn.Blocks[k].Term
		if _, isReturn := term.(*mir.Return); isReturn {
			return "return inside the range"
		}
		for _, succ := range term.Successors() {
			if idx := s.index[succ]; idx > start && idx <= end {
				continue
			}
			if succ == s.exitID && st.returnBlocks.Contains(k) {
				continue
			}
			return "control leaves the range"
		}
	}
	return ""
}

// returnFromError reports whether instr writes an error-typed value.
func returnFromError(instr mir.Instr) bool {
	switch i := instr.(type) {
	case *mir.Move:
		return types.IsError(i.Src.Type())
	case *mir.TypeCast:
		return types.IsError(i.Type)
	default:
		return false
	}
}

func isSurfaceLocal(v *mir.VarDecl) bool {
	return v.Kind == mir.KindLocal && !v.Ignored
}

// countRefs counts every operand reference of fn, error variables included.
func countRefs(fn *mir.Function) map[*mir.VarDecl]int {
	refs := make(map[*mir.VarDecl]int)
	for _, blk := range fn.Blocks {
		for _, op := range blk.Operands() {
			refs[op.Var]++
		}
	}
	for _, entry := range fn.ErrorTable {
		refs[entry.ErrOp.Var]++
	}
	return refs
}
