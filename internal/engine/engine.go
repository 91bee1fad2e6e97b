// Package engine implements the per-trial interaction state machine of a
// tunnel steering task: it consumes pointer press/release events and
// periodic cursor samples, maintains the pointer traces, decides between
// hit, miss and error, and computes the trial accuracy.
//
// Engine is synchronous and single-threaded. Runner wraps it in one
// goroutine that owns the sampler ticker.
package engine

import (
	"fmt"
	"time"

	"github.com/banshee-data/steering.lab/internal/geom"
	"github.com/banshee-data/steering.lab/internal/monitoring"
	"github.com/banshee-data/steering.lab/internal/timeutil"
	"github.com/banshee-data/steering.lab/internal/trace"
	"github.com/banshee-data/steering.lab/internal/trial"
	"github.com/banshee-data/steering.lab/internal/units"
)

// DefaultTickInterval is the drag sampling period.
const DefaultTickInterval = 5 * time.Millisecond

// traceCapacity is the initial sample capacity of each trace. A few
// seconds of dragging at the default tick fits without growing.
const traceCapacity = 1024

// Config holds the engine parameters in pixels.
type Config struct {
	// DragThresholdPx is the distance from the grab position the cursor
	// must exceed before dragging starts.
	DragThresholdPx float64
}

// Engine runs one trial at a time. Call StartTrial before each trial.
type Engine struct {
	cfg   Config
	clock timeutil.Clock
	logf  func(format string, v ...interface{})

	geometry *trial.Geometry
	tunnel   *trial.Tunnel

	state    State
	info     InstantInfo
	grabPos  geom.Point
	release  geom.Point
	accuracy float64
	coverage float64
	outcome  *Outcome

	raw      *trace.Trace // path since drag start, reset at entry
	path     *trace.Trace // every sample sorted after entry
	inTunnel *trace.Trace // samples sorted after entry that lie inside InRect
	visual   *trace.Trace // every drag sample, for display

	// OnTransition and OnOutcome are optional hooks fired synchronously
	// from inside the call that caused them.
	OnTransition func(Transition)
	OnOutcome    func(Outcome)
}

// New returns an idle engine with no trial loaded. A nil clock uses the
// real clock.
func New(cfg Config, clock timeutil.Clock) *Engine {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Engine{
		cfg:      cfg,
		clock:    clock,
		logf:     monitoring.Component("TunnelEngine"),
		state:    StateIdle,
		raw:      trace.New(traceCapacity),
		path:     trace.New(traceCapacity),
		inTunnel: trace.New(traceCapacity),
		visual:   trace.New(traceCapacity),
	}
}

// StartTrial loads g and resets every trace, the instants and the
// accuracy. The engine is idle afterwards.
func (e *Engine) StartTrial(g *trial.Geometry) error {
	if g == nil {
		return &trial.ConfigurationError{Field: "geometry", Reason: "no trial geometry"}
	}
	if g.Tunnel == nil {
		return &trial.ConfigurationError{
			Field:  "direction",
			Reason: fmt.Sprintf("%s trial has no tunnel corridor", g.Direction),
		}
	}

	e.geometry = g
	e.tunnel = g.Tunnel
	e.info = InstantInfo{}
	e.grabPos = geom.Point{}
	e.release = geom.Point{}
	e.accuracy = 0
	e.coverage = 0
	e.outcome = nil
	e.resetTraces()
	e.setState(StateIdle)
	return nil
}

// Grab handles a pointer press at p. Only an idle engine reacts.
func (e *Engine) Grab(p geom.Point) {
	if e.tunnel == nil || e.state != StateIdle {
		return
	}

	now := e.clock.Now()
	setOnce(&e.info.Grab, now)
	e.grabPos = p

	if !e.tunnel.IsPointOutside(p) {
		e.logf("grab inside corridor at %s", p)
		e.fail(CauseGrabInside)
		return
	}
	e.setState(StateGrabbed)
}

// Tick processes one periodic sample of the cursor at p.
func (e *Engine) Tick(p geom.Point) {
	switch e.state {
	case StateGrabbed:
		e.pollDragStart(p)
	case StateDraggingPreEntry:
		e.dragPreEntry(p)
	case StateDraggingInTunnel:
		e.dragInTunnel(p)
	}
}

func (e *Engine) pollDragStart(p geom.Point) {
	if p.DistanceTo(e.grabPos) <= e.cfg.DragThresholdPx {
		return
	}
	setOnce(&e.info.DragStart, e.clock.Now())
	e.setState(StateDraggingPreEntry)
}

func (e *Engine) dragPreEntry(p geom.Point) {
	e.visual.AddPoint(p)
	e.raw.AddIfNew(p)

	t := e.tunnel
	if e.raw.IntersectsRect(t.Walls[0]) || e.raw.IntersectsRect(t.Walls[1]) || e.raw.Intersects(t.EndLine) {
		e.fail(CauseWallContact)
		return
	}

	last, _ := e.raw.LastPoint()
	if t.Entered(last) {
		e.raw.Reset()
		setOnce(&e.info.TunnelEntry, e.clock.Now())
		e.setState(StateDraggingInTunnel)
	}
}

func (e *Engine) dragInTunnel(p geom.Point) {
	e.visual.AddPoint(p)
	e.raw.AddIfNew(p)

	t := e.tunnel
	if e.raw.CrossesLine(t.StartLine) {
		e.miss(MissStartRecrossed)
		return
	}

	inside := t.InRect.Contains(p)
	if !inside && e.raw.Intersects(t.EndLine) {
		e.exit()
		return
	}

	e.path.AddPoint(p)
	if inside {
		e.inTunnel.AddPoint(p)
	}
}

// Release handles a pointer release at p. It returns the outcome that the
// release finalized, if any.
func (e *Engine) Release(p geom.Point) (Outcome, bool) {
	switch e.state {
	case StateExited:
		e.release = p
		o := e.finalize(ResultHit)
		e.emit(o)
		return o, true
	case StateDraggingInTunnel:
		e.release = p
		return e.miss(MissReleasedInside), true
	case StateGrabbed, StateDraggingPreEntry:
		e.release = p
		o := e.fail(CauseReleasedEarly)
		e.setState(StateIdle)
		return o, true
	case StateError:
		e.setState(StateIdle)
	}
	return Outcome{}, false
}

// exit closes a successful pass. The outcome is emitted on release.
func (e *Engine) exit() {
	e.accuracy = Accuracy(e.path, e.inTunnel)
	e.coverage = Coverage(e.path, e.tunnel)
	setOnce(&e.info.TunnelExit, e.clock.Now())
	e.setState(StateExited)
}

func (e *Engine) miss(cause MissCause) Outcome {
	e.setState(StateMissed)
	o := e.finalize(ResultMissed)
	o.MissCause = cause
	e.emit(o)
	return o
}

// fail enters the error state. Samples are ignored until release.
func (e *Engine) fail(cause ErrorCause) Outcome {
	e.resetTraces()
	e.setState(StateError)
	o := e.finalize(ResultError)
	o.Cause = cause
	e.emit(o)
	return o
}

func (e *Engine) finalize(r Result) Outcome {
	o := Outcome{
		Result:     r,
		Info:       e.info,
		GrabPos:    e.grabPos,
		ReleasePos: e.release,
		Geometry:   e.geometry,
	}
	if r == ResultHit {
		o.Accuracy = e.accuracy
		o.Coverage = e.coverage
		o.TrialPoints = e.path.PointCount()
		o.InTunnelPoints = e.inTunnel.PointCount()
		o.PathLengthPx = e.path.Length()
	}
	return o
}

func (e *Engine) emit(o Outcome) {
	e.outcome = &o
	if o.Result == ResultHit {
		e.logf("%s %s", e.geometry.Direction, o)
	} else {
		e.logf("%s %s (state=%s)", e.geometry.Direction, o, e.state)
	}
	if e.OnOutcome != nil {
		e.OnOutcome(o)
	}
}

func (e *Engine) setState(to State) {
	from := e.state
	e.state = to
	if from == to || e.OnTransition == nil {
		return
	}
	e.OnTransition(Transition{From: from, To: to, At: e.clock.Now()})
}

func (e *Engine) resetTraces() {
	e.raw.Reset()
	e.path.Reset()
	e.inTunnel.Reset()
	e.visual.Reset()
}

// State returns the current interaction state.
func (e *Engine) State() State { return e.state }

// Sampling returns the sampler the current state requires.
func (e *Engine) Sampling() SamplerMode { return samplerFor[e.state] }

// Info returns the instants recorded so far.
func (e *Engine) Info() InstantInfo { return e.info }

// Accuracy returns the accuracy computed at exit, or 0 before.
func (e *Engine) Accuracy() float64 { return e.accuracy }

// Geometry returns the loaded trial geometry.
func (e *Engine) Geometry() *trial.Geometry { return e.geometry }

// Outcome returns the last emitted outcome of the current trial.
func (e *Engine) Outcome() (Outcome, bool) {
	if e.outcome == nil {
		return Outcome{}, false
	}
	return *e.outcome, true
}

// RawTrace returns a copy of the raw drag path.
func (e *Engine) RawTrace() []geom.Point { return e.raw.Points() }

// TrialTrace returns a copy of the samples sorted after tunnel entry.
func (e *Engine) TrialTrace() []geom.Point { return e.path.Points() }

// InTunnelTrace returns a copy of the sorted samples inside the corridor.
func (e *Engine) InTunnelTrace() []geom.Point { return e.inTunnel.Points() }

// VisualTrace returns a copy of every drag sample.
func (e *Engine) VisualTrace() []geom.Point { return e.visual.Points() }

// ConfigFromMM builds a Config from a drag threshold in millimetres.
func ConfigFromMM(conv units.Converter, dragThresholdMm float64) Config {
	return Config{DragThresholdPx: float64(conv.MMToPx(dragThresholdMm))}
}
