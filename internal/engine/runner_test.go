package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/steering.lab/internal/geom"
	"github.com/banshee-data/steering.lab/internal/timeutil"
	"github.com/banshee-data/steering.lab/internal/units"
)

type runnerHarness struct {
	t      *testing.T
	clock  *timeutil.MockClock
	runner *Runner
	ticker *timeutil.MockTicker
	cancel context.CancelFunc
	done   chan error
}

func startRunner(t *testing.T) *runnerHarness {
	t.Helper()

	clock := timeutil.NewMockClock(t0)
	e := New(ConfigFromMM(units.NewConverter(96), 1), clock)
	r := NewRunner(e, clock, DefaultTickInterval)

	ctx, cancel := context.WithCancel(context.Background())
	h := &runnerHarness{t: t, clock: clock, runner: r, cancel: cancel, done: make(chan error, 1)}
	go func() { h.done <- r.Run(ctx) }()
	t.Cleanup(cancel)

	require.NoError(t, r.StartTrial(ctx, eastGeometry(t)))
	return h
}

func (h *runnerHarness) send(kind EventKind, p geom.Point) {
	h.runner.Events() <- PointerEvent{Kind: kind, Pos: p}
}

func (h *runnerHarness) press(p geom.Point) {
	h.send(EventPress, p)
	require.Eventually(h.t, func() bool { return len(h.clock.ActiveTickers()) == 1 }, time.Second, time.Millisecond)
	h.ticker = h.clock.ActiveTickers()[0]
}

// step moves the cursor to p and fires one tick, waiting until the runner
// has taken it.
func (h *runnerHarness) step(pts ...geom.Point) {
	for _, p := range pts {
		h.send(EventMove, p)
		h.clock.Advance(DefaultTickInterval)
		require.Eventually(h.t, func() bool { return h.ticker.Pending() == 0 }, time.Second, time.Millisecond)
	}
}

func (h *runnerHarness) outcome() Outcome {
	select {
	case o := <-h.runner.Outcomes():
		return o
	case <-time.After(time.Second):
		h.t.Fatal("no outcome delivered")
		return Outcome{}
	}
}

func (h *runnerHarness) samplerStopped() {
	require.Eventually(h.t, func() bool { return len(h.clock.ActiveTickers()) == 0 }, time.Second, time.Millisecond)
}

func TestRunner_Hit(t *testing.T) {
	t.Parallel()

	h := startRunner(t)
	h.press(geom.Pt(18, 18))
	assert.Equal(t, DefaultTickInterval, h.ticker.Interval())

	h.step(geom.Pt(25, 18))
	h.step(straightPass()...)
	h.step(geom.Pt(230, 18))
	h.samplerStopped()

	h.send(EventRelease, geom.Pt(230, 18))
	o := h.outcome()
	assert.Equal(t, ResultHit, o.Result)
	assert.Equal(t, 100.0, o.Accuracy)
	assert.Equal(t, 18, o.TrialPoints)

	h.cancel()
	assert.ErrorIs(t, <-h.done, context.Canceled)
}

func TestRunner_ReleaseStopsSampler(t *testing.T) {
	t.Parallel()

	h := startRunner(t)
	h.press(geom.Pt(18, 18))
	h.step(geom.Pt(25, 18), geom.Pt(30, 18))

	h.send(EventRelease, geom.Pt(30, 18))
	o := h.outcome()
	assert.Equal(t, ResultError, o.Result)
	assert.Equal(t, CauseReleasedEarly, o.Cause)
	h.samplerStopped()
	assert.True(t, h.ticker.Stopped())
}

func TestRunner_MissIsDeliveredBeforeRelease(t *testing.T) {
	t.Parallel()

	h := startRunner(t)
	h.press(geom.Pt(18, 18))
	h.step(geom.Pt(25, 18), geom.Pt(30, 18), geom.Pt(40, 18), geom.Pt(60, 18), geom.Pt(30, 18))

	o := h.outcome()
	assert.Equal(t, ResultMissed, o.Result)
	h.samplerStopped()

	// release after a miss reports nothing more
	h.send(EventRelease, geom.Pt(30, 18))
	select {
	case extra := <-h.runner.Outcomes():
		t.Fatalf("unexpected outcome %v", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRunner_NextTrialAfterError(t *testing.T) {
	t.Parallel()

	h := startRunner(t)
	h.send(EventPress, geom.Pt(100, 18))
	o := h.outcome()
	assert.Equal(t, CauseGrabInside, o.Cause)
	assert.Empty(t, h.clock.ActiveTickers(), "no sampling in error")

	h.send(EventRelease, geom.Pt(100, 18))
	require.NoError(t, h.runner.StartTrial(context.Background(), eastGeometry(t)))

	h.press(geom.Pt(18, 18))
	h.step(geom.Pt(25, 18))
	assert.Len(t, h.clock.ActiveTickers(), 1)
}

func TestRunner_StartTrialHonoursContext(t *testing.T) {
	t.Parallel()

	e := New(Config{}, timeutil.NewMockClock(t0))
	r := NewRunner(e, nil, 0)
	assert.Equal(t, DefaultTickInterval, r.interval)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.StartTrial(ctx, nil), context.Canceled)
}
