package lifecycle

// Phase is the controller's position in the session state machine.
type Phase int

const (
	// PhaseIdle means no monitoring is running.
	PhaseIdle Phase = iota
	// PhaseMonitoring is the normal authenticated state.
	PhaseMonitoring
	// PhaseWarning means idle time has entered the warning window.
	PhaseWarning
	// PhaseTerminating means a logout or forced logout is in progress.
	// It always resolves back to PhaseIdle once cleanup completes.
	PhaseTerminating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMonitoring:
		return "monitoring"
	case PhaseWarning:
		return "warning"
	case PhaseTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}
