package phase

// ModulePhase tracks how far an individual IR module has progressed
// through the optimizer pipeline.
//
// Phase progression is sequential:
// - NotStarted -> Lowered -> Verified -> Split -> Renumbered -> Ready
//
// Phase transitions are validated by AdvanceModulePhase() using the
// PhasePrerequisites map.
type ModulePhase int

const (
	PhaseNotStarted ModulePhase = iota // Module registered but not processed
	PhaseLowered                       // IR handed over by the front end
	PhaseVerified                      // Input IR accepted by the verifier
	PhaseSplit                         // Oversized functions split
	PhaseRenumbered                    // Block ids dense in layout order
	PhaseReady                         // Output verified, ready for the backend
)

// PhasePrerequisites maps each phase to its required predecessor phase
var PhasePrerequisites = map[ModulePhase]ModulePhase{
	PhaseLowered:    PhaseNotStarted,
	PhaseVerified:   PhaseLowered,
	PhaseSplit:      PhaseVerified,
	PhaseRenumbered: PhaseSplit,
	PhaseReady:      PhaseRenumbered,
}

func (p ModulePhase) String() string {
	switch p {
	case PhaseNotStarted:
		return "NotStarted"
	case PhaseLowered:
		return "Lowered"
	case PhaseVerified:
		return "Verified"
	case PhaseSplit:
		return "Split"
	case PhaseRenumbered:
		return "Renumbered"
	case PhaseReady:
		return "Ready"
	default:
		return "Unknown"
	}
}
