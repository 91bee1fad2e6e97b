package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/geom"
	"github.com/banshee-data/steering.lab/internal/session"
	"github.com/banshee-data/steering.lab/internal/trial"
)

// TrialRecord is a persisted trial attempt.
type TrialRecord struct {
	RecordID string `json:"record_id"`
	session.Record
}

// TrialStore persists trial records. It satisfies session.Recorder.
type TrialStore struct {
	db *sql.DB
}

// NewTrialStore creates a new TrialStore.
func NewTrialStore(db *sql.DB) *TrialStore {
	return &TrialStore{db: db}
}

// RecordTrial inserts rec under a fresh record ID.
func (s *TrialStore) RecordTrial(ctx context.Context, rec *session.Record) error {
	_, err := s.Insert(ctx, rec)
	return err
}

func nanosOrNil(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UnixNano()
}

func timeFromNanos(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(0, v.Int64).UTC()
}

// Insert persists rec and returns its record ID.
func (s *TrialStore) Insert(ctx context.Context, rec *session.Record) (string, error) {
	id := uuid.NewString()
	o := rec.Outcome

	var geometry interface{}
	if o.Geometry != nil {
		b, err := json.Marshal(o.Geometry)
		if err != nil {
			return "", fmt.Errorf("marshal geometry: %w", err)
		}
		geometry = string(b)
	}
	recordedAt := rec.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	err := retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO trial_records (
				record_id, session_id, trial_id, seq, block, number, attempt,
				object_width_mm, target_width_mm, distance_mm, straightness, direction, axis,
				result, cause, miss_cause, accuracy, coverage, trial_points, in_tunnel_points, path_length_px,
				grab_x, grab_y, release_x, release_y,
				grab_ns, drag_start_ns, tunnel_entry_ns, tunnel_exit_ns,
				geometry_json, recorded_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, rec.SessionID, rec.TrialID, rec.Seq, rec.Block, rec.Number, rec.Attempt,
			rec.Factors.ObjectWidthMm, rec.Factors.TargetWidthMm, rec.Factors.DistanceMm,
			string(rec.Factors.Straightness), string(rec.Direction), string(rec.Axis),
			string(o.Result), string(o.Cause), string(o.MissCause), o.Accuracy, o.Coverage,
			o.TrialPoints, o.InTunnelPoints, o.PathLengthPx,
			o.GrabPos.X, o.GrabPos.Y, o.ReleasePos.X, o.ReleasePos.Y,
			nanosOrNil(o.Info.Grab), nanosOrNil(o.Info.DragStart),
			nanosOrNil(o.Info.TunnelEntry), nanosOrNil(o.Info.TunnelExit),
			geometry, recordedAt.UnixNano(),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert trial record: %w", err)
	}
	return id, nil
}

const trialColumns = `
	record_id, session_id, trial_id, seq, block, number, attempt,
	object_width_mm, target_width_mm, distance_mm, straightness, direction, axis,
	result, cause, miss_cause, accuracy, coverage, trial_points, in_tunnel_points, path_length_px,
	grab_x, grab_y, release_x, release_y,
	grab_ns, drag_start_ns, tunnel_entry_ns, tunnel_exit_ns,
	geometry_json, recorded_at`

func scanTrialRecord(sc interface{ Scan(...any) error }) (*TrialRecord, error) {
	var (
		r                                TrialRecord
		straightness, direction, axis    string
		result, cause, missCause         string
		grabX, grabY, releaseX, releaseY int
		grabNs, dragNs, entryNs, exitNs  sql.NullInt64
		geometry                         sql.NullString
		recordedAt                       int64
	)
	err := sc.Scan(
		&r.RecordID, &r.SessionID, &r.TrialID, &r.Seq, &r.Block, &r.Number, &r.Attempt,
		&r.Factors.ObjectWidthMm, &r.Factors.TargetWidthMm, &r.Factors.DistanceMm,
		&straightness, &direction, &axis,
		&result, &cause, &missCause, &r.Outcome.Accuracy, &r.Outcome.Coverage,
		&r.Outcome.TrialPoints, &r.Outcome.InTunnelPoints, &r.Outcome.PathLengthPx,
		&grabX, &grabY, &releaseX, &releaseY,
		&grabNs, &dragNs, &entryNs, &exitNs,
		&geometry, &recordedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Factors.Straightness = trial.Straightness(straightness)
	r.Direction = trial.Direction(direction)
	r.Axis = trial.Axis(axis)
	r.Outcome.Result = engine.Result(result)
	r.Outcome.Cause = engine.ErrorCause(cause)
	r.Outcome.MissCause = engine.MissCause(missCause)
	r.Outcome.GrabPos = geom.Pt(grabX, grabY)
	r.Outcome.ReleasePos = geom.Pt(releaseX, releaseY)
	r.Outcome.Info = engine.InstantInfo{
		Grab:        timeFromNanos(grabNs),
		DragStart:   timeFromNanos(dragNs),
		TunnelEntry: timeFromNanos(entryNs),
		TunnelExit:  timeFromNanos(exitNs),
	}
	r.RecordedAt = time.Unix(0, recordedAt).UTC()

	if geometry.Valid {
		var g trial.Geometry
		if err := json.Unmarshal([]byte(geometry.String), &g); err != nil {
			return nil, fmt.Errorf("decode geometry of %s: %w", r.RecordID, err)
		}
		r.Outcome.Geometry = &g
	}
	return &r, nil
}

// Get returns a single trial record by ID.
func (s *TrialStore) Get(ctx context.Context, recordID string) (*TrialRecord, error) {
	r, err := scanTrialRecord(s.db.QueryRowContext(ctx, `SELECT `+trialColumns+` FROM trial_records WHERE record_id = ?`, recordID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("trial record %s not found", recordID)
		}
		return nil, fmt.Errorf("scan trial record: %w", err)
	}
	return r, nil
}

// ListBySession returns every attempt of a session in attempt order.
func (s *TrialStore) ListBySession(ctx context.Context, sessionID string) ([]*TrialRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+trialColumns+`
		FROM trial_records
		WHERE session_id = ?
		ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query trial records: %w", err)
	}
	defer rows.Close()

	var out []*TrialRecord
	for rows.Next() {
		r, err := scanTrialRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trial record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
