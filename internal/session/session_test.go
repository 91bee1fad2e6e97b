package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/steering.lab/internal/config"
	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/monitoring"
	"github.com/banshee-data/steering.lab/internal/timeutil"
	"github.com/banshee-data/steering.lab/internal/trial"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func ptr[T any](v T) *T { return &v }

func testConfig() *config.ExperimentConfig {
	return &config.ExperimentConfig{
		DPI:            ptr(96.0),
		ObjectWidthsMm: []float64{5, 10},
		TargetWidthsMm: []float64{8, 10},
		DistancesMm:    []float64{50},
		Blocks:         ptr(2),
		Repetitions:    ptr(2),
		Seed:           ptr(uint64(1234)),
	}
}

type memRecorder struct {
	records []*Record
}

func (m *memRecorder) RecordTrial(_ context.Context, rec *Record) error {
	m.records = append(m.records, rec)
	return nil
}

func outcome(r engine.Result) engine.Outcome {
	return engine.Outcome{Result: r}
}

func TestNew_PlansCrossedBlocks(t *testing.T) {
	t.Parallel()

	rec := &memRecorder{}
	s, err := New(testConfig(), Options{Recorder: rec})
	require.NoError(t, err)

	// 5/8, 5/10 and 10/10 remain; 10/8 cannot be laid out
	assert.Equal(t, 2*3*2, s.Planned())

	perBlock := map[int]map[trial.Factors]int{}
	for {
		tr, err := s.Next()
		if errors.Is(err, ErrDone) {
			break
		}
		require.NoError(t, err)
		require.NotNil(t, tr.Geometry.Tunnel)
		assert.NotEqual(t, trial.AxisDiagonal, tr.Geometry.Axis())

		if perBlock[tr.Block] == nil {
			perBlock[tr.Block] = map[trial.Factors]int{}
		}
		perBlock[tr.Block][tr.Factors]++

		_, err = s.Report(context.Background(), outcome(engine.ResultHit))
		require.NoError(t, err)
	}

	require.Len(t, perBlock, 2)
	for block, counts := range perBlock {
		assert.Len(t, counts, 3, "block %d", block)
		for f, n := range counts {
			assert.Equal(t, 2, n, "block %d %s", block, f)
		}
	}
	assert.Len(t, rec.records, 12)
	assert.Equal(t, Stats{Hits: 12}, s.Stats())

	for i, r := range rec.records {
		assert.Equal(t, i+1, r.Seq)
		assert.Equal(t, s.ID, r.SessionID)
		assert.Equal(t, 1, r.Attempt)
	}
}

func TestNew_SeedIsReproducible(t *testing.T) {
	t.Parallel()

	sequence := func() []string {
		s, err := New(testConfig(), Options{})
		require.NoError(t, err)
		var out []string
		for {
			tr, err := s.Next()
			if errors.Is(err, ErrDone) {
				return out
			}
			require.NoError(t, err)
			out = append(out, tr.Factors.String()+" "+string(tr.Geometry.Direction))
			_, err = s.Report(context.Background(), outcome(engine.ResultHit))
			require.NoError(t, err)
		}
	}

	assert.Equal(t, sequence(), sequence())

	s, err := New(testConfig(), Options{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), s.Seed())
}

func TestNew_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	t.Run("diagonal", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Straightness = []string{"straight", "diagonal"}
		_, err := New(cfg, Options{})
		assert.ErrorIs(t, err, trial.ErrConfiguration)
	})

	t.Run("no valid combination", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.ObjectWidthsMm = []float64{20}
		_, err := New(cfg, Options{})
		var cfgErr *trial.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "factors", cfgErr.Field)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Blocks = ptr(0)
		_, err := New(cfg, Options{})
		assert.ErrorContains(t, err, "blocks")
	})
}

func singleTrialConfig() *config.ExperimentConfig {
	cfg := testConfig()
	cfg.ObjectWidthsMm = []float64{5}
	cfg.TargetWidthsMm = []float64{10}
	cfg.Blocks = ptr(1)
	cfg.Repetitions = ptr(1)
	return cfg
}

func TestReport_ErrorRetriesThenSkips(t *testing.T) {
	t.Parallel()

	cfg := singleTrialConfig()
	cfg.MaxErrorRetries = ptr(2)
	rec := &memRecorder{}
	s, err := New(cfg, Options{Recorder: rec})
	require.NoError(t, err)

	first, err := s.Next()
	require.NoError(t, err)
	g := first.Geometry

	for attempt := 1; attempt <= 3; attempt++ {
		tr, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, first.ID, tr.ID)
		assert.Equal(t, attempt, tr.Attempt)
		assert.Same(t, g, tr.Geometry, "retries reuse the geometry")

		r, err := s.Report(context.Background(), outcome(engine.ResultError))
		require.NoError(t, err)
		assert.Equal(t, attempt, r.Attempt)
	}

	_, err = s.Next()
	assert.ErrorIs(t, err, ErrDone)
	assert.Equal(t, Stats{Errors: 3, Skipped: 1}, s.Stats())
	assert.Len(t, rec.records, 3)
}

func TestReport_RepeatMissed(t *testing.T) {
	t.Parallel()

	cfg := singleTrialConfig()
	cfg.RepeatMissed = ptr(true)
	s, err := New(cfg, Options{})
	require.NoError(t, err)

	first, err := s.Next()
	require.NoError(t, err)
	_, err = s.Report(context.Background(), outcome(engine.ResultMissed))
	require.NoError(t, err)

	again, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 2, again.Attempt)
	assert.Equal(t, first.Factors, again.Factors)

	_, err = s.Report(context.Background(), outcome(engine.ResultHit))
	require.NoError(t, err)
	_, err = s.Next()
	assert.ErrorIs(t, err, ErrDone)
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, s.Stats())
}

func TestReport_RepeatMissedIsBounded(t *testing.T) {
	t.Parallel()

	cfg := singleTrialConfig()
	cfg.RepeatMissed = ptr(true)
	cfg.MaxMissRepeats = ptr(2)
	rec := &memRecorder{}
	s, err := New(cfg, Options{Recorder: rec})
	require.NoError(t, err)

	var id string
	for attempt := 1; attempt <= 3; attempt++ {
		tr, err := s.Next()
		require.NoError(t, err)
		if id == "" {
			id = tr.ID
		}
		assert.Equal(t, id, tr.ID)
		assert.Equal(t, attempt, tr.Attempt)
		_, err = s.Report(context.Background(), outcome(engine.ResultMissed))
		require.NoError(t, err)
	}

	_, err = s.Next()
	assert.ErrorIs(t, err, ErrDone, "a trial that keeps missing ends the block")
	assert.Equal(t, Stats{Misses: 3, Skipped: 1}, s.Stats())
	assert.Len(t, rec.records, 3)
}

func TestReport_ErrorsDoNotResetMissCount(t *testing.T) {
	t.Parallel()

	cfg := singleTrialConfig()
	cfg.RepeatMissed = ptr(true)
	cfg.MaxMissRepeats = ptr(1)
	s, err := New(cfg, Options{})
	require.NoError(t, err)

	for _, r := range []engine.Result{engine.ResultMissed, engine.ResultError, engine.ResultMissed} {
		_, err = s.Next()
		require.NoError(t, err)
		_, err = s.Report(context.Background(), outcome(r))
		require.NoError(t, err)
	}

	_, err = s.Next()
	assert.ErrorIs(t, err, ErrDone)
	assert.Equal(t, Stats{Misses: 2, Errors: 1, Skipped: 1}, s.Stats())
}

func TestReport_MissWithoutRepeat(t *testing.T) {
	t.Parallel()

	s, err := New(singleTrialConfig(), Options{})
	require.NoError(t, err)
	_, err = s.Next()
	require.NoError(t, err)
	_, err = s.Report(context.Background(), outcome(engine.ResultMissed))
	require.NoError(t, err)

	_, err = s.Next()
	assert.ErrorIs(t, err, ErrDone)
}

func TestReport_Failures(t *testing.T) {
	t.Parallel()

	s, err := New(singleTrialConfig(), Options{})
	require.NoError(t, err)
	_, err = s.Report(context.Background(), outcome(engine.ResultHit))
	assert.Error(t, err, "nothing started")

	boom := errors.New("disk full")
	clock := timeutil.NewMockClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	s, err = New(singleTrialConfig(), Options{
		Clock:    clock,
		Recorder: RecorderFunc(func(context.Context, *Record) error { return boom }),
	})
	require.NoError(t, err)
	_, err = s.Next()
	require.NoError(t, err)
	_, err = s.Report(context.Background(), outcome(engine.ResultHit))
	assert.ErrorIs(t, err, boom)
}

func TestRecord_Fields(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(now)
	picker := trial.PickerFunc(func([]trial.Direction) trial.Direction { return trial.South })
	s, err := New(singleTrialConfig(), Options{Clock: clock, Picker: picker})
	require.NoError(t, err)

	tr, err := s.Next()
	require.NoError(t, err)

	o := engine.Outcome{
		Result:   engine.ResultHit,
		Accuracy: 87.5,
		Info: engine.InstantInfo{
			TunnelEntry: now,
			TunnelExit:  now.Add(640 * time.Millisecond),
		},
	}
	r, err := s.Report(context.Background(), o)
	require.NoError(t, err)

	assert.Equal(t, tr.ID, r.TrialID)
	assert.Equal(t, trial.South, r.Direction)
	assert.Equal(t, trial.AxisVertical, r.Axis)
	assert.Equal(t, now, r.RecordedAt)
	assert.Equal(t, 640*time.Millisecond, r.MovementTime())
	assert.Equal(t, 1, r.Block)
	assert.Equal(t, 1, r.Number)
}

func TestEngineSettings(t *testing.T) {
	t.Parallel()

	cfg := singleTrialConfig()
	cfg.DragThresholdMm = ptr(1.0)
	cfg.TickInterval = ptr("8ms")
	s, err := New(cfg, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3.0, s.EngineConfig().DragThresholdPx)
	assert.Equal(t, 8*time.Millisecond, s.TickInterval())
}

// scriptedDriver answers every StartTrial with the next scripted outcome.
type scriptedDriver struct {
	script   []engine.Result
	started  []*trial.Geometry
	outcomes chan engine.Outcome
}

func newScriptedDriver(results ...engine.Result) *scriptedDriver {
	return &scriptedDriver{script: results, outcomes: make(chan engine.Outcome, 1)}
}

func (d *scriptedDriver) StartTrial(_ context.Context, g *trial.Geometry) error {
	d.started = append(d.started, g)
	r := engine.ResultHit
	if len(d.script) > 0 {
		r, d.script = d.script[0], d.script[1:]
	}
	d.outcomes <- outcome(r)
	return nil
}

func (d *scriptedDriver) Outcomes() <-chan engine.Outcome { return d.outcomes }

func TestRun(t *testing.T) {
	t.Parallel()

	rec := &memRecorder{}
	s, err := New(testConfig(), Options{Recorder: rec})
	require.NoError(t, err)

	d := newScriptedDriver(engine.ResultError, engine.ResultMissed)
	require.NoError(t, s.Run(context.Background(), d))

	assert.Len(t, d.started, s.Planned()+1, "one retry for the error")
	assert.Len(t, rec.records, s.Planned()+1)
	assert.Equal(t, Stats{Hits: s.Planned() - 1, Misses: 1, Errors: 1}, s.Stats())
}

// stalledDriver never produces an outcome.
type stalledDriver struct{}

func (stalledDriver) StartTrial(context.Context, *trial.Geometry) error { return nil }
func (stalledDriver) Outcomes() <-chan engine.Outcome                  { return nil }

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	s, err := New(testConfig(), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Run(ctx, stalledDriver{}), context.DeadlineExceeded)
}
