package engine

import (
	"fmt"
	"time"

	"github.com/banshee-data/steering.lab/internal/geom"
	"github.com/banshee-data/steering.lab/internal/trial"
)

// Result is the recorded result of a trial attempt.
type Result string

const (
	ResultHit    Result = "hit"
	ResultMissed Result = "missed"
	ResultError  Result = "error"
)

// ErrorCause explains an interaction error.
type ErrorCause string

const (
	CauseNone          ErrorCause = ""
	CauseGrabInside    ErrorCause = "grab_inside"    // Grabbed inside the protected corridor
	CauseWallContact   ErrorCause = "wall_contact"   // Touched a wall or the end line before entering
	CauseReleasedEarly ErrorCause = "released_early" // Released before entering the tunnel
)

// MissCause explains a miss.
type MissCause string

const (
	MissNone           MissCause = ""
	MissStartRecrossed MissCause = "start_recrossed" // Path crossed back over the start line
	MissReleasedInside MissCause = "released_inside" // Released before reaching the end line
)

// InstantInfo holds the key instants of one trial. Each instant is set at
// most once; later attempts to set it are ignored.
type InstantInfo struct {
	Grab        time.Time `json:"grab"`
	DragStart   time.Time `json:"drag_start"`
	TunnelEntry time.Time `json:"tunnel_entry"`
	TunnelExit  time.Time `json:"tunnel_exit"`
}

func setOnce(field *time.Time, t time.Time) bool {
	if !field.IsZero() {
		return false
	}
	*field = t
	return true
}

// MovementTime is the time spent between tunnel entry and exit, or zero
// when either instant is missing.
func (i InstantInfo) MovementTime() time.Duration {
	if i.TunnelEntry.IsZero() || i.TunnelExit.IsZero() {
		return 0
	}
	return i.TunnelExit.Sub(i.TunnelEntry)
}

// ReactionTime is the time from grab to the drag threshold being passed.
func (i InstantInfo) ReactionTime() time.Duration {
	if i.Grab.IsZero() || i.DragStart.IsZero() {
		return 0
	}
	return i.DragStart.Sub(i.Grab)
}

// Outcome is handed to the sequencer when a trial attempt ends.
type Outcome struct {
	Result     Result      `json:"result"`
	Cause      ErrorCause  `json:"cause,omitempty"`
	MissCause  MissCause   `json:"miss_cause,omitempty"`
	Info       InstantInfo `json:"info"`
	GrabPos    geom.Point  `json:"grab_pos"`
	ReleasePos geom.Point  `json:"release_pos"`

	// Accuracy and Coverage are percentages, set for hits only.
	Accuracy float64 `json:"accuracy"`
	Coverage float64 `json:"coverage"`

	// TrialPoints and InTunnelPoints are the sample counts behind Accuracy.
	TrialPoints    int `json:"trial_points"`
	InTunnelPoints int `json:"in_tunnel_points"`

	// PathLengthPx is the length of the sampled path between entry and
	// exit, set for hits only.
	PathLengthPx float64 `json:"path_length_px"`

	Geometry *trial.Geometry `json:"geometry,omitempty"`
}

func (o Outcome) String() string {
	switch o.Result {
	case ResultHit:
		return fmt.Sprintf("hit accuracy=%.1f%% mt=%s", o.Accuracy, o.Info.MovementTime())
	case ResultError:
		return fmt.Sprintf("error cause=%s", o.Cause)
	case ResultMissed:
		return fmt.Sprintf("missed cause=%s", o.MissCause)
	default:
		return string(o.Result)
	}
}

// Transition records one state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}
