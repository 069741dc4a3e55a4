package mir

import "methodsplit/internal/source"

// Term is the base interface for block terminators.
//
// Successors lists every block control may continue in. Remap rewrites each
// successor through fn; it is the single place where block references held
// by terminators are changed.
type Term interface {
	mirTerm()
	Loc() *source.Location
	Lhs() *Operand
	Rhs() []*Operand
	Successors() []BlockID
	Remap(fn func(BlockID) BlockID)
}

// Goto jumps unconditionally to Target.
type Goto struct {
	Target   BlockID
	Location source.Location
}

func (g *Goto) mirTerm()                       {}
func (g *Goto) Loc() *source.Location          { return &g.Location }
func (g *Goto) Lhs() *Operand                  { return nil }
func (g *Goto) Rhs() []*Operand                { return nil }
func (g *Goto) Successors() []BlockID          { return []BlockID{g.Target} }
func (g *Goto) Remap(fn func(BlockID) BlockID) { g.Target = fn(g.Target) }

// Branch jumps to Then when Cond is true and to Else otherwise.
type Branch struct {
	Cond     Operand
	Then     BlockID
	Else     BlockID
	Location source.Location
}

func (b *Branch) mirTerm()              {}
func (b *Branch) Loc() *source.Location { return &b.Location }
func (b *Branch) Lhs() *Operand         { return nil }
func (b *Branch) Rhs() []*Operand       { return []*Operand{&b.Cond} }
func (b *Branch) Successors() []BlockID { return []BlockID{b.Then, b.Else} }
func (b *Branch) Remap(fn func(BlockID) BlockID) {
	b.Then = fn(b.Then)
	b.Else = fn(b.Else)
}

// Call invokes a module function and continues in Next. Dest is optional.
type Call struct {
	Callee   string
	Args     []Operand
	Dest     Operand
	Next     BlockID
	Location source.Location
}

func (c *Call) mirTerm()              {}
func (c *Call) Loc() *source.Location { return &c.Location }
func (c *Call) Lhs() *Operand {
	if !c.Dest.Valid() {
		return nil
	}
	return &c.Dest
}
func (c *Call) Rhs() []*Operand {
	ops := make([]*Operand, len(c.Args))
	for i := range c.Args {
		ops[i] = &c.Args[i]
	}
	return ops
}
func (c *Call) Successors() []BlockID          { return []BlockID{c.Next} }
func (c *Call) Remap(fn func(BlockID) BlockID) { c.Next = fn(c.Next) }

// Return exits the function with the value of its return variable.
type Return struct {
	Location source.Location
}

func (r *Return) mirTerm()                       {}
func (r *Return) Loc() *source.Location          { return &r.Location }
func (r *Return) Lhs() *Operand                  { return nil }
func (r *Return) Rhs() []*Operand                { return nil }
func (r *Return) Successors() []BlockID          { return nil }
func (r *Return) Remap(fn func(BlockID) BlockID) {}

// Panic raises Err. Control resumes in the handler of the innermost error
// entry covering the block, or unwinds to the caller.
type Panic struct {
	Err      Operand
	Location source.Location
}

func (p *Panic) mirTerm()                       {}
func (p *Panic) Loc() *source.Location          { return &p.Location }
func (p *Panic) Lhs() *Operand                  { return nil }
func (p *Panic) Rhs() []*Operand                { return []*Operand{&p.Err} }
func (p *Panic) Successors() []BlockID          { return nil }
func (p *Panic) Remap(fn func(BlockID) BlockID) {}

// Lock enters a lock region and continues in Next.
type Lock struct {
	Name     string
	Next     BlockID
	Location source.Location
}

func (l *Lock) mirTerm()                       {}
func (l *Lock) Loc() *source.Location          { return &l.Location }
func (l *Lock) Lhs() *Operand                  { return nil }
func (l *Lock) Rhs() []*Operand                { return nil }
func (l *Lock) Successors() []BlockID          { return []BlockID{l.Next} }
func (l *Lock) Remap(fn func(BlockID) BlockID) { l.Next = fn(l.Next) }

// Unlock leaves a lock region and continues in Next.
type Unlock struct {
	Name     string
	Next     BlockID
	Location source.Location
}

func (u *Unlock) mirTerm()                       {}
func (u *Unlock) Loc() *source.Location          { return &u.Location }
func (u *Unlock) Lhs() *Operand                  { return nil }
func (u *Unlock) Rhs() []*Operand                { return nil }
func (u *Unlock) Successors() []BlockID          { return []BlockID{u.Next} }
func (u *Unlock) Remap(fn func(BlockID) BlockID) { u.Next = fn(u.Next) }
