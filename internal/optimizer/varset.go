package optimizer

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"methodsplit/internal/mir"
)

// varSet is a set of declarations that remembers insertion order. A removed
// declaration that is added again moves to the end.
type varSet struct {
	seq   int
	order map[*mir.VarDecl]int
}

func newVarSet() *varSet {
	return &varSet{order: make(map[*mir.VarDecl]int)}
}

func (s *varSet) Add(v *mir.VarDecl) {
	if _, ok := s.order[v]; ok {
		return
	}
	s.order[v] = s.seq
	s.seq++
}

func (s *varSet) Remove(v *mir.VarDecl) {
	delete(s.order, v)
}

func (s *varSet) Contains(v *mir.VarDecl) bool {
	_, ok := s.order[v]
	return ok
}

func (s *varSet) Len() int {
	return len(s.order)
}

// Slice returns the members in insertion order.
func (s *varSet) Slice() []*mir.VarDecl {
	vars := maps.Keys(s.order)
	slices.SortFunc(vars, func(a, b *mir.VarDecl) int {
		return s.order[a] - s.order[b]
	})
	return vars
}
