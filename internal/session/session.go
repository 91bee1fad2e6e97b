// Package session sequences the trials of a steering experiment: it crosses
// the configured factor levels into shuffled blocks, builds each trial's
// geometry, applies the retry rules to errored and missed attempts, and
// writes one record per finished attempt.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/steering.lab/internal/config"
	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/monitoring"
	"github.com/banshee-data/steering.lab/internal/timeutil"
	"github.com/banshee-data/steering.lab/internal/trial"
	"github.com/banshee-data/steering.lab/internal/units"
)

// ErrDone is returned by Next once every trial has been run.
var ErrDone = errors.New("session complete")

// Trial is one scheduled trial attempt.
type Trial struct {
	ID       string
	Block    int // from 1
	Number   int // planned position in the block, from 1
	Attempt  int // from 1
	Factors  trial.Factors
	Geometry *trial.Geometry
}

type queued struct {
	id      string
	number  int
	attempt int
	misses  int
	factors trial.Factors
}

// Options carries the optional collaborators of a Session.
type Options struct {
	Recorder Recorder
	Clock    timeutil.Clock
	// Picker overrides the seeded direction picker.
	Picker trial.DirectionPicker
}

// Stats counts finished attempts by result.
type Stats struct {
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
	Errors  int `json:"errors"`
	Skipped int `json:"skipped"` // trials abandoned after too many errors or misses
}

// Session runs one participant through the configured design. It is not
// safe for concurrent use.
type Session struct {
	ID string

	cfg      *config.ExperimentConfig
	seed     uint64
	conv     units.Converter
	builder  *trial.Builder
	recorder Recorder
	clock    timeutil.Clock
	logf     func(format string, v ...interface{})

	blocks  [][]queued
	block   int
	current *Trial
	misses  int // earlier misses of the current trial
	retries int
	seq     int
	planned int
	stats   Stats
}

// New plans a session from cfg. Only straight trials have a tunnel, so
// any other straightness category is a configuration error.
func New(cfg *config.ExperimentConfig, opts Options) (*Session, error) {
	if cfg == nil {
		cfg = config.EmptyExperimentConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	for _, st := range cfg.GetStraightness() {
		if st != trial.Straight {
			return nil, &trial.ConfigurationError{
				Field:  "straightness",
				Reason: fmt.Sprintf("tunnel trials need %q, got %q", trial.Straight, st),
			}
		}
	}

	seed, ok := cfg.GetSeed()
	if !ok {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, ^seed))

	combos, dropped := crossFactors(cfg)
	if len(combos) == 0 {
		return nil, &trial.ConfigurationError{Field: "factors", Reason: "no valid factor combination"}
	}

	picker := opts.Picker
	if picker == nil {
		picker = trial.NewRandomPicker(seed)
	}
	conv := units.NewConverter(cfg.GetDPI())
	builder := trial.NewBuilder(conv, picker)
	builder.WallWidthMm = cfg.GetWallWidthMm()

	s := &Session{
		ID:       fmt.Sprintf("ses_%s", uuid.NewString()),
		cfg:      cfg,
		seed:     seed,
		conv:     conv,
		builder:  builder,
		recorder: opts.Recorder,
		clock:    opts.Clock,
		logf:     monitoring.Component("Session"),
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.clock == nil {
		s.clock = timeutil.RealClock{}
	}

	for _, block := range buildBlocks(combos, cfg.GetBlocks(), cfg.GetRepetitions(), rng) {
		q := make([]queued, len(block))
		for i, f := range block {
			q[i] = queued{id: fmt.Sprintf("trl_%s", uuid.NewString()), number: i + 1, attempt: 1, factors: f}
		}
		s.blocks = append(s.blocks, q)
		s.planned += len(q)
	}

	s.logf("%s planned %d blocks x %d trials (seed=%d, %d combinations dropped)",
		s.ID, len(s.blocks), len(combos)*cfg.GetRepetitions(), seed, dropped)
	return s, nil
}

// EngineConfig returns the engine parameters for this session's display.
func (s *Session) EngineConfig() engine.Config {
	return engine.ConfigFromMM(s.conv, s.cfg.GetDragThresholdMm())
}

// TickInterval returns the configured sampling period.
func (s *Session) TickInterval() time.Duration {
	return s.cfg.GetTickInterval()
}

// Seed returns the seed the plan and directions were drawn from. It is
// random when the configuration leaves it unset.
func (s *Session) Seed() uint64 { return s.seed }

// Planned returns the number of trials planned, excluding repeats.
func (s *Session) Planned() int { return s.planned }

// Stats returns the counts of finished attempts.
func (s *Session) Stats() Stats { return s.stats }

// Next returns the trial to run. The same trial is returned until its
// outcome is reported. It returns ErrDone after the last trial.
func (s *Session) Next() (*Trial, error) {
	if s.current != nil {
		return s.current, nil
	}

	for s.block < len(s.blocks) && len(s.blocks[s.block]) == 0 {
		s.block++
	}
	if s.block >= len(s.blocks) {
		return nil, ErrDone
	}

	q := s.blocks[s.block][0]
	s.blocks[s.block] = s.blocks[s.block][1:]

	g, err := s.builder.Build(q.factors)
	if err != nil {
		return nil, fmt.Errorf("build trial %d/%d: %w", s.block+1, q.number, err)
	}
	s.current = &Trial{
		ID:       q.id,
		Block:    s.block + 1,
		Number:   q.number,
		Attempt:  q.attempt,
		Factors:  q.factors,
		Geometry: g,
	}
	s.misses = q.misses
	s.retries = 0
	return s.current, nil
}

// Report records the outcome of the current trial and applies the retry
// rules: an error repeats the same trial up to max_error_retries times, a
// miss is re-queued at the end of its block up to max_miss_repeats times
// when repeat_missed is set.
func (s *Session) Report(ctx context.Context, o engine.Outcome) (*Record, error) {
	cur := s.current
	if cur == nil {
		return nil, errors.New("no trial in progress")
	}

	s.seq++
	rec := &Record{
		SessionID:  s.ID,
		TrialID:    cur.ID,
		Seq:        s.seq,
		Block:      cur.Block,
		Number:     cur.Number,
		Attempt:    cur.Attempt,
		Factors:    cur.Factors,
		Direction:  cur.Geometry.Direction,
		Axis:       cur.Geometry.Axis(),
		Outcome:    o,
		RecordedAt: s.clock.Now(),
	}
	if err := s.recorder.RecordTrial(ctx, rec); err != nil {
		return nil, fmt.Errorf("record trial %s: %w", cur.ID, err)
	}

	switch o.Result {
	case engine.ResultHit:
		s.stats.Hits++
		s.current = nil
	case engine.ResultError:
		s.stats.Errors++
		if s.retries < s.cfg.GetMaxErrorRetries() {
			s.retries++
			cur.Attempt++
		} else {
			s.logf("%s trial %s abandoned after %d errors", s.ID, cur.ID, s.retries+1)
			s.stats.Skipped++
			s.current = nil
		}
	case engine.ResultMissed:
		s.stats.Misses++
		switch {
		case !s.cfg.GetRepeatMissed():
		case s.misses < s.cfg.GetMaxMissRepeats():
			b := cur.Block - 1
			s.blocks[b] = append(s.blocks[b], queued{
				id:      cur.ID,
				number:  cur.Number,
				attempt: cur.Attempt + 1,
				misses:  s.misses + 1,
				factors: cur.Factors,
			})
		default:
			s.logf("%s trial %s abandoned after %d misses", s.ID, cur.ID, s.misses+1)
			s.stats.Skipped++
		}
		s.current = nil
	default:
		return nil, fmt.Errorf("unknown result %q", o.Result)
	}
	return rec, nil
}

// Driver runs trials on an interaction engine. *engine.Runner satisfies it.
type Driver interface {
	StartTrial(ctx context.Context, g *trial.Geometry) error
	Outcomes() <-chan engine.Outcome
}

// Run drives every remaining trial through d until the session is done or
// ctx is cancelled.
func (s *Session) Run(ctx context.Context, d Driver) error {
	start := s.clock.Now()
	for {
		t, err := s.Next()
		if errors.Is(err, ErrDone) {
			s.logf("%s complete in %s: %+v", s.ID, s.clock.Since(start).Round(time.Millisecond), s.stats)
			return nil
		}
		if err != nil {
			return err
		}

		if err := d.StartTrial(ctx, t.Geometry); err != nil {
			return fmt.Errorf("start trial %s: %w", t.ID, err)
		}

		select {
		case o := <-d.Outcomes():
			if _, err := s.Report(ctx, o); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
