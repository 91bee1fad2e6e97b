package session

import (
	"context"
	"time"

	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/trial"
)

// Record is the log entry written for every finished trial attempt.
type Record struct {
	SessionID string `json:"session_id"`
	TrialID   string `json:"trial_id"`
	Seq       int    `json:"seq"`     // attempt order within the session, from 1
	Block     int    `json:"block"`   // from 1
	Number    int    `json:"number"`  // planned position in the block, from 1
	Attempt   int    `json:"attempt"` // from 1

	Factors   trial.Factors   `json:"factors"`
	Direction trial.Direction `json:"direction"`
	Axis      trial.Axis      `json:"axis"`

	Outcome    engine.Outcome `json:"outcome"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// MovementTime is the time spent inside the tunnel.
func (r *Record) MovementTime() time.Duration {
	return r.Outcome.Info.MovementTime()
}

// Recorder persists trial records.
type Recorder interface {
	RecordTrial(ctx context.Context, rec *Record) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, rec *Record) error

func (f RecorderFunc) RecordTrial(ctx context.Context, rec *Record) error {
	return f(ctx, rec)
}

type nopRecorder struct{}

func (nopRecorder) RecordTrial(context.Context, *Record) error { return nil }
