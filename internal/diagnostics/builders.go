package diagnostics

import (
	"fmt"

	"methodsplit/internal/source"
)

// Common diagnostic builders for the optimizer pipeline

// InternalError reports a broken invariant inside the optimizer.
func InternalError(module, function string, loc *source.Location, err error) *Diagnostic {
	d := NewError("internal optimizer error: "+err.Error()).
		WithCode(ErrInternal).
		In(module, function).
		WithHelp("this is a bug in the optimizer; please report it with the IR dump")
	if loc != nil && !loc.IsSynthetic() {
		d.WithPrimaryLabel(loc, "while splitting this instruction")
	}
	return d
}

// InvalidIR reports a function rejected by the verifier.
func InvalidIR(module, function, stage string, err error) *Diagnostic {
	return NewError(fmt.Sprintf("invalid IR %s splitting: %v", stage, err)).
		WithCode(ErrInvalidIR).
		In(module, function)
}

// RenumberFailed reports a dangling block reference found while renumbering.
func RenumberFailed(module, function string, err error) *Diagnostic {
	return NewError("cannot renumber blocks: "+err.Error()).
		WithCode(ErrRenumber).
		In(module, function)
}

// DumpFailed reports an IR dump that could not be written.
func DumpFailed(module, path string, err error) *Diagnostic {
	return NewError("cannot write IR dump "+path+": "+err.Error()).
		WithCode(ErrDumpFailed).
		In(module, "")
}

// StillOversized warns about a function the optimizer could not bring
// under the threshold.
func StillOversized(module, function string, size, threshold int) *Diagnostic {
	return NewWarning(fmt.Sprintf("function has %d instructions after splitting, threshold is %d", size, threshold)).
		WithCode(WarnStillOversized).
		In(module, function).
		WithNote("only aggregate constructor ranges are extracted").
		WithHelp("lower PeriodicSplitInterval or MinSplitInstructions")
}

// NoCandidate warns about an oversized function that has no aggregate
// constructor range to extract.
func NoCandidate(module, function string, size, threshold int) *Diagnostic {
	return NewWarning(fmt.Sprintf("function has %d instructions and no split candidate, threshold is %d", size, threshold)).
		WithCode(WarnNoCandidate).
		In(module, function).
		WithNote("only ranges ending at a list or record constructor are extracted")
}
