package engine

// State is the interaction state of the current trial.
type State string

const (
	StateIdle             State = "idle"               // Trial shown, waiting for a grab
	StateGrabbed          State = "grabbed"            // Pointer down outside the tunnel, drag threshold not reached
	StateDraggingPreEntry State = "dragging_pre_entry" // Dragging toward the start line
	StateDraggingInTunnel State = "dragging_in_tunnel" // Entered across the start line
	StateExited           State = "exited"             // Left across the end line, awaiting release
	StateMissed           State = "missed"             // Re-crossed the start line or released inside
	StateError            State = "error"              // Interaction error, awaiting release
)

// Terminal reports whether s ends the current trial attempt.
func (s State) Terminal() bool {
	switch s {
	case StateExited, StateMissed, StateError:
		return true
	default:
		return false
	}
}

// SamplerMode tells the host which periodic sampling the engine needs.
type SamplerMode string

const (
	// SamplerOff: no ticks are consumed.
	SamplerOff SamplerMode = "off"
	// SamplerDragStart: poll the cursor until it leaves the drag threshold.
	SamplerDragStart SamplerMode = "drag_start"
	// SamplerDrag: continuous per-tick sampling of the drag path.
	SamplerDrag SamplerMode = "drag"
)

// samplerFor maps each state to the sampling it requires. Only the two
// dragging states and the grab poll consume ticks.
var samplerFor = map[State]SamplerMode{
	StateIdle:             SamplerOff,
	StateGrabbed:          SamplerDragStart,
	StateDraggingPreEntry: SamplerDrag,
	StateDraggingInTunnel: SamplerDrag,
	StateExited:           SamplerOff,
	StateMissed:           SamplerOff,
	StateError:            SamplerOff,
}
