package optimizer

import (
	"fmt"

	"github.com/pkg/errors"

	"methodsplit/internal/mir"
	"methodsplit/internal/source"
)

// InternalError reports a broken invariant found while rewriting a
// function. It means a candidate was accepted that cannot be materialized;
// the function must not be emitted.
type InternalError struct {
	Function string
	Block    int // layout index, -1 when unknown
	Instr    int // instruction index in Block, -1 when unknown
	Location *source.Location
	Msg      string
}

func (e *InternalError) Error() string {
	switch {
	case e.Block < 0:
		return fmt.Sprintf("%s: %s", e.Function, e.Msg)
	case e.Instr < 0:
		return fmt.Sprintf("%s: block %d: %s", e.Function, e.Block, e.Msg)
	default:
		return fmt.Sprintf("%s: block %d instruction %d: %s", e.Function, e.Block, e.Instr, e.Msg)
	}
}

// internalErrorf builds an InternalError with a stack trace attached.
func internalErrorf(fn *mir.Function, block, instr int, format string, args ...any) error {
	e := &InternalError{
		Function: fn.Name,
		Block:    block,
		Instr:    instr,
		Msg:      fmt.Sprintf(format, args...),
	}
	if block >= 0 && block < len(fn.Blocks) {
		blk := fn.Blocks[block]
		if instr >= 0 && instr < len(blk.Instrs) {
			e.Location = blk.Instrs[instr].Loc()
		} else if blk.Term != nil {
			e.Location = blk.Term.Loc()
		}
	}
	return errors.WithStack(e)
}

// wrapInternal turns a verifier or renumbering failure into an InternalError.
func wrapInternal(fn *mir.Function, err error, what string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&InternalError{
		Function: fn.Name,
		Block:    -1,
		Instr:    -1,
		Msg:      what + ": " + err.Error(),
	})
}

// AsInternal extracts an InternalError from err.
func AsInternal(err error) (*InternalError, bool) {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
