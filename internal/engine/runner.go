package engine

import (
	"context"
	"time"

	"github.com/banshee-data/steering.lab/internal/geom"
	"github.com/banshee-data/steering.lab/internal/timeutil"
	"github.com/banshee-data/steering.lab/internal/trial"
)

// EventKind identifies a pointer event.
type EventKind string

const (
	EventMove    EventKind = "move"
	EventPress   EventKind = "press"
	EventRelease EventKind = "release"
)

// PointerEvent is one pointer event delivered by the host UI.
type PointerEvent struct {
	Kind EventKind
	Pos  geom.Point
}

type startRequest struct {
	geometry *trial.Geometry
	reply    chan error
}

// Runner owns an Engine on a single goroutine. It feeds pointer events to
// the engine in arrival order, runs the sampler ticker while the engine
// asks for sampling and delivers outcomes on a channel. Ticks never
// overlap and pointer events queued before a tick are handled first.
type Runner struct {
	engine   *Engine
	clock    timeutil.Clock
	interval time.Duration

	events   chan PointerEvent
	starts   chan startRequest
	outcomes chan Outcome

	ticker  timeutil.Ticker
	cursor  geom.Point
	pending []Outcome
}

// NewRunner wraps e. The runner installs its own OnOutcome hook; callers
// read outcomes from Outcomes instead. A non-positive interval uses
// DefaultTickInterval.
func NewRunner(e *Engine, clock timeutil.Clock, interval time.Duration) *Runner {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	r := &Runner{
		engine:   e,
		clock:    clock,
		interval: interval,
		events:   make(chan PointerEvent),
		starts:   make(chan startRequest),
		outcomes: make(chan Outcome, 16),
	}
	e.OnOutcome = func(o Outcome) { r.pending = append(r.pending, o) }
	return r
}

// Events returns the channel pointer events are sent on. A send returns
// once the runner has taken the event.
func (r *Runner) Events() chan<- PointerEvent { return r.events }

// Outcomes returns the channel trial outcomes are delivered on.
func (r *Runner) Outcomes() <-chan Outcome { return r.outcomes }

// StartTrial loads g on the runner goroutine and waits for the result.
func (r *Runner) StartTrial(ctx context.Context, g *trial.Geometry) error {
	req := startRequest{geometry: g, reply: make(chan error, 1)}
	select {
	case r.starts <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	defer r.stopTicker()

	for {
		var tickC <-chan time.Time
		if r.ticker != nil {
			tickC = r.ticker.C()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-r.starts:
			req.reply <- r.engine.StartTrial(req.geometry)
		case ev := <-r.events:
			r.handle(ev)
		case <-tickC:
			r.drainEvents()
			if r.ticker != nil {
				r.engine.Tick(r.cursor)
			}
		}

		r.syncSampler()
		if err := r.flush(ctx); err != nil {
			return err
		}
	}
}

func (r *Runner) handle(ev PointerEvent) {
	r.cursor = ev.Pos
	switch ev.Kind {
	case EventPress:
		r.engine.Grab(ev.Pos)
	case EventRelease:
		r.engine.Release(ev.Pos)
	}
	r.syncSampler()
}

// drainEvents handles every event already waiting, so a release that
// raced a tick stops the sampler before the tick touches the traces.
func (r *Runner) drainEvents() {
	for {
		select {
		case ev := <-r.events:
			r.handle(ev)
		default:
			return
		}
	}
}

// syncSampler starts or stops the ticker to match the engine state.
func (r *Runner) syncSampler() {
	want := r.engine.Sampling() != SamplerOff
	switch {
	case want && r.ticker == nil:
		r.ticker = r.clock.NewTicker(r.interval)
	case !want && r.ticker != nil:
		r.stopTicker()
	}
}

func (r *Runner) stopTicker() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}

func (r *Runner) flush(ctx context.Context) error {
	for len(r.pending) > 0 {
		select {
		case r.outcomes <- r.pending[0]:
			r.pending = r.pending[1:]
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
