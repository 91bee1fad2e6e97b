package sim

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/monitoring"
	"github.com/banshee-data/steering.lab/internal/timeutil"
	"github.com/banshee-data/steering.lab/internal/trial"
	"github.com/banshee-data/steering.lab/internal/units"
)

// Participant plays planned pointer paths through a runner. It satisfies
// session.Driver. Each StartTrial cancels the playback of the previous
// attempt before loading the next geometry, so no stale event reaches the
// new trial.
type Participant struct {
	runner  *engine.Runner
	clock   timeutil.Clock
	conv    units.Converter
	profile Profile
	rng     *rand.Rand
	logf    func(format string, v ...interface{})

	cancel context.CancelFunc
	done   chan struct{}
}

// NewParticipant returns a participant moving with profile p. The same
// seed and geometry sequence always yield the same pointer paths.
func NewParticipant(r *engine.Runner, clock timeutil.Clock, conv units.Converter, p Profile, seed uint64) *Participant {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if p.StepInterval <= 0 {
		p.StepInterval = DefaultProfile().StepInterval
	}
	return &Participant{
		runner:  r,
		clock:   clock,
		conv:    conv,
		profile: p,
		rng:     rand.New(rand.NewPCG(seed, seed^0x5eed)),
		logf:    monitoring.Component("Participant"),
	}
}

// StartTrial loads g on the runner and starts playing an attempt at it.
func (p *Participant) StartTrial(ctx context.Context, g *trial.Geometry) error {
	p.Stop()
	if err := p.runner.StartTrial(ctx, g); err != nil {
		return err
	}

	events := Plan(g, p.conv, p.profile, p.rng)
	playCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.play(playCtx, events, p.profile.StepInterval, p.done)
	return nil
}

// Outcomes returns the runner's outcome channel.
func (p *Participant) Outcomes() <-chan engine.Outcome {
	return p.runner.Outcomes()
}

// Stop cancels the current playback and waits for it to return.
func (p *Participant) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel, p.done = nil, nil
}

func (p *Participant) play(ctx context.Context, events []engine.PointerEvent, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for i, ev := range events {
		select {
		case p.runner.Events() <- ev:
		case <-ctx.Done():
			if i > 0 {
				p.logf("playback cancelled after %d/%d events", i, len(events))
			}
			return
		}
		if ev.Kind == engine.EventRelease {
			return
		}
		select {
		case <-ticker.C():
		case <-ctx.Done():
			return
		}
	}
}
