package diagnostics

// Diagnostic codes for the function-size optimizer
const (
	// Optimizer errors (O prefix)
	ErrInternal      = "O0001" // invariant violated while rewriting
	ErrInvalidIR     = "O0002" // verifier rejected the input or output
	ErrRenumber      = "O0003" // block renumbering found a dangling reference
	ErrDumpFailed    = "O0004" // IR dump could not be written
	ErrInvalidConfig = "O0005"

	// Warnings (W prefix)
	WarnStillOversized = "W0001" // function above the threshold after splitting
	WarnNoCandidate    = "W0002" // oversized function without a split candidate
)
