// Package sim generates synthetic pointer input for steering trials and
// plays it through an engine runner in place of a human participant.
package sim

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/geom"
	"github.com/banshee-data/steering.lab/internal/trial"
	"github.com/banshee-data/steering.lab/internal/units"
)

// Profile describes how a simulated participant moves.
type Profile struct {
	// SpeedMmPerSec is the travel speed from object to target.
	SpeedMmPerSec float64
	// JitterMm is the standard deviation of the sideways wander.
	JitterMm float64
	// Smoothing in [0,1) correlates successive wander offsets.
	Smoothing float64
	// StepInterval is the time between pointer events.
	StepInterval time.Duration
	// Dwell is how long the pointer rests on the target before release.
	Dwell time.Duration

	// ErrorRate is the chance of grabbing inside the corridor.
	ErrorRate float64
	// MissRate is the chance of letting go halfway along the corridor.
	MissRate float64
}

// DefaultProfile is a steady participant with occasional slips.
func DefaultProfile() Profile {
	return Profile{
		SpeedMmPerSec: 120,
		JitterMm:      0.8,
		Smoothing:     0.85,
		StepInterval:  2 * time.Millisecond,
		Dwell:         25 * time.Millisecond,
		ErrorRate:     0.03,
		MissRate:      0.03,
	}
}

// maxSmoothing keeps the wander innovation non-zero.
const maxSmoothing = 0.99

// Validate reports the first out-of-range field of p.
func (p Profile) Validate() error {
	switch {
	case p.SpeedMmPerSec <= 0:
		return fmt.Errorf("speed must be positive, got %g mm/s", p.SpeedMmPerSec)
	case p.JitterMm < 0:
		return fmt.Errorf("jitter must be non-negative, got %g mm", p.JitterMm)
	case p.Smoothing < 0 || p.Smoothing >= 1:
		return fmt.Errorf("smoothing must be in [0,1), got %g", p.Smoothing)
	case p.StepInterval <= 0:
		return fmt.Errorf("step interval must be positive, got %s", p.StepInterval)
	case p.Dwell < 0:
		return fmt.Errorf("dwell must be non-negative, got %s", p.Dwell)
	case p.ErrorRate < 0 || p.ErrorRate > 1:
		return fmt.Errorf("error rate must be in [0,1], got %g", p.ErrorRate)
	case p.MissRate < 0 || p.MissRate > 1:
		return fmt.Errorf("miss rate must be in [0,1], got %g", p.MissRate)
	}
	return nil
}

// IdealProfile moves dead straight and never slips.
func IdealProfile() Profile {
	p := DefaultProfile()
	p.JitterMm = 0
	p.ErrorRate = 0
	p.MissRate = 0
	return p
}

// Plan returns the pointer events of one attempt at g: a press on the
// object, moves along the travel axis with sideways wander, and a release.
// Events are meant to be delivered one StepInterval apart. Smoothing
// outside [0,1) is clamped into it.
func Plan(g *trial.Geometry, conv units.Converter, p Profile, rng *rand.Rand) []engine.PointerEvent {
	if g.Tunnel != nil && rng.Float64() < p.ErrorRate {
		c := g.Tunnel.InRect.Center()
		return []engine.PointerEvent{
			{Kind: engine.EventPress, Pos: c},
			{Kind: engine.EventRelease, Pos: c},
		}
	}

	start, end := g.ObjectRect.Center(), g.EndPoint()
	lengthMm := conv.PxToMM(start.DistanceTo(end))
	steps := 2
	if p.SpeedMmPerSec > 0 && p.StepInterval > 0 {
		travel := time.Duration(lengthMm / p.SpeedMmPerSec * float64(time.Second))
		steps = max(steps, int(travel/p.StepInterval))
	}
	last := steps
	if rng.Float64() < p.MissRate {
		last = steps / 2
	}

	smoothing := min(max(p.Smoothing, 0), maxSmoothing)
	sigma := p.JitterMm / conv.PxToMM(1)
	innov := sigma * math.Sqrt(1-smoothing*smoothing)
	horizontal := g.Axis() == trial.AxisHorizontal

	events := make([]engine.PointerEvent, 0, last+2)
	events = append(events, engine.PointerEvent{Kind: engine.EventPress, Pos: start})

	pos := start
	var offset float64
	for i := 1; i <= last; i++ {
		frac := float64(i) / float64(steps)
		offset = smoothing*offset + innov*rng.NormFloat64()
		x := float64(start.X) + float64(end.X-start.X)*frac
		y := float64(start.Y) + float64(end.Y-start.Y)*frac
		if horizontal {
			y += offset
		} else {
			x += offset
		}
		pos = geom.Pt(int(math.Round(x)), int(math.Round(y)))
		events = append(events, engine.PointerEvent{Kind: engine.EventMove, Pos: pos})
	}

	if last == steps {
		// Land on the target centre and rest there so the sampler sees
		// the exit before the release.
		pos = end
		for i := 0; i <= int(p.Dwell/max(p.StepInterval, time.Millisecond)); i++ {
			events = append(events, engine.PointerEvent{Kind: engine.EventMove, Pos: pos})
		}
	}
	return append(events, engine.PointerEvent{Kind: engine.EventRelease, Pos: pos})
}
