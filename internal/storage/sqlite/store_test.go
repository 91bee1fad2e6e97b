package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/geom"
	"github.com/banshee-data/steering.lab/internal/monitoring"
	"github.com/banshee-data/steering.lab/internal/session"
	"github.com/banshee-data/steering.lab/internal/trial"
	"github.com/banshee-data/steering.lab/internal/units"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func hitRecord(t *testing.T, sessionID string, seq int) *session.Record {
	t.Helper()
	f := trial.Factors{ObjectWidthMm: 5, TargetWidthMm: 10, Straightness: trial.Straight, DistanceMm: 50}
	g, err := trial.NewBuilder(units.NewConverter(96), nil).BuildWithDirection(f, trial.West)
	require.NoError(t, err)

	return &session.Record{
		SessionID: sessionID,
		TrialID:   "trl_test",
		Seq:       seq,
		Block:     1,
		Number:    seq,
		Attempt:   1,
		Factors:   f,
		Direction: g.Direction,
		Axis:      g.Axis(),
		Outcome: engine.Outcome{
			Result:         engine.ResultHit,
			Accuracy:       93.75,
			Coverage:       98.5,
			TrialPoints:    32,
			InTunnelPoints: 30,
			PathLengthPx:   412.5,
			GrabPos:        geom.Pt(240, 18),
			ReleasePos:     geom.Pt(10, 20),
			Geometry:       g,
			Info: engine.InstantInfo{
				Grab:        t0,
				DragStart:   t0.Add(120 * time.Millisecond),
				TunnelEntry: t0.Add(300 * time.Millisecond),
				TunnelExit:  t0.Add(900 * time.Millisecond),
			},
		},
		RecordedAt: t0.Add(time.Second),
	}
}

func TestOpen_Migrates(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
	assert.False(t, dirty)

	// reopening is a no-op migration
	require.NoError(t, db.MigrateUp())

	// every down migration applies cleanly
	m, err := db.newMigrate()
	require.NoError(t, err)
	require.NoError(t, m.Steps(-2))
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='trial_records'`).Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionStore(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	store := NewSessionStore(db.DB)

	seed := uint64(42)
	row := &SessionRow{
		Participant: "P07",
		Seed:        &seed,
		DPI:         109,
		Planned:     24,
		ConfigJSON:  json.RawMessage(`{"dpi":109}`),
		StartedAt:   t0.UnixNano(),
	}
	require.NoError(t, store.Insert(row))
	assert.Contains(t, row.SessionID, "ses_")

	got, err := store.Get(row.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "P07", got.Participant)
	require.NotNil(t, got.Seed)
	assert.Equal(t, seed, *got.Seed)
	assert.JSONEq(t, `{"dpi":109}`, string(got.ConfigJSON))
	assert.Nil(t, got.FinishedAt)

	require.NoError(t, store.Finish(row.SessionID, t0.Add(time.Hour)))
	got, err = store.Get(row.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, t0.Add(time.Hour).UnixNano(), *got.FinishedAt)

	assert.Error(t, store.Finish("ses_missing", t0))
	_, err = store.Get("ses_missing")
	assert.ErrorContains(t, err, "not found")

	later := &SessionRow{DPI: 96, StartedAt: t0.Add(time.Minute).UnixNano()}
	require.NoError(t, store.Insert(later))
	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, later.SessionID, all[0].SessionID, "most recent first")
	assert.Nil(t, all[0].Seed)
}

func TestTrialStore_RoundTrip(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	sessions := NewSessionStore(db.DB)
	trials := NewTrialStore(db.DB)
	ctx := context.Background()

	row := &SessionRow{DPI: 96}
	require.NoError(t, sessions.Insert(row))

	rec := hitRecord(t, row.SessionID, 1)
	id, err := trials.Insert(ctx, rec)
	require.NoError(t, err)

	got, err := trials.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.RecordID)
	if diff := cmp.Diff(*rec, got.Record); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 600*time.Millisecond, got.MovementTime())

	_, err = trials.Get(ctx, "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestTrialStore_ListBySession(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	sessions := NewSessionStore(db.DB)
	trials := NewTrialStore(db.DB)
	ctx := context.Background()

	a := &SessionRow{DPI: 96}
	b := &SessionRow{DPI: 96}
	require.NoError(t, sessions.Insert(a))
	require.NoError(t, sessions.Insert(b))

	var recorder session.Recorder = trials
	for _, seq := range []int{3, 1, 2} {
		require.NoError(t, recorder.RecordTrial(ctx, hitRecord(t, a.SessionID, seq)))
	}
	errored := hitRecord(t, b.SessionID, 1)
	errored.Outcome = engine.Outcome{Result: engine.ResultError, Cause: engine.CauseGrabInside}
	require.NoError(t, recorder.RecordTrial(ctx, errored))

	list, err := trials.ListBySession(ctx, a.SessionID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, r := range list {
		assert.Equal(t, i+1, r.Seq)
	}

	list, err = trials.ListBySession(ctx, b.SessionID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, engine.CauseGrabInside, list[0].Outcome.Cause)
	assert.True(t, list[0].Outcome.Info.Grab.IsZero(), "unset instants stay zero")
	assert.Nil(t, list[0].Outcome.Geometry)
}

func TestTrialStore_RequiresSession(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	_, err := NewTrialStore(db.DB).Insert(context.Background(), hitRecord(t, "ses_unknown", 1))
	assert.Error(t, err, "foreign key on session_id")
}
