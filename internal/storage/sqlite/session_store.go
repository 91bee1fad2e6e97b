package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionRow is one experiment session.
type SessionRow struct {
	SessionID   string          `json:"session_id"`
	Participant string          `json:"participant"`
	Seed        *uint64         `json:"seed,omitempty"`
	DPI         float64         `json:"dpi"`
	Planned     int             `json:"planned"`
	ConfigJSON  json.RawMessage `json:"config_json,omitempty"`
	StartedAt   int64           `json:"started_at"`
	FinishedAt  *int64          `json:"finished_at,omitempty"`
}

// SessionStore provides persistence for experiment sessions.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Insert persists a new session. If SessionID is empty, one is generated.
func (s *SessionStore) Insert(row *SessionRow) error {
	if row.SessionID == "" {
		row.SessionID = fmt.Sprintf("ses_%s", uuid.NewString())
	}
	if row.StartedAt == 0 {
		row.StartedAt = time.Now().UnixNano()
	}

	var cfg interface{}
	if len(row.ConfigJSON) > 0 {
		cfg = string(row.ConfigJSON)
	}
	var seed interface{}
	if row.Seed != nil {
		seed = int64(*row.Seed)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO sessions (session_id, participant, seed, dpi, planned, config_json, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			row.SessionID, row.Participant, seed, row.DPI, row.Planned, cfg, row.StartedAt,
		)
		return err
	})
}

// Finish stamps the session's finish time.
func (s *SessionStore) Finish(sessionID string, at time.Time) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`UPDATE sessions SET finished_at = ? WHERE session_id = ?`, at.UnixNano(), sessionID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("session %s not found", sessionID)
		}
		return nil
	})
}

const sessionColumns = `session_id, participant, seed, dpi, planned, config_json, started_at, finished_at`

func scanSession(sc interface{ Scan(...any) error }) (*SessionRow, error) {
	var (
		row      SessionRow
		seed     sql.NullInt64
		cfg      sql.NullString
		finished sql.NullInt64
	)
	if err := sc.Scan(&row.SessionID, &row.Participant, &seed, &row.DPI, &row.Planned, &cfg, &row.StartedAt, &finished); err != nil {
		return nil, err
	}
	if seed.Valid {
		v := uint64(seed.Int64)
		row.Seed = &v
	}
	if cfg.Valid {
		row.ConfigJSON = json.RawMessage(cfg.String)
	}
	if finished.Valid {
		row.FinishedAt = &finished.Int64
	}
	return &row, nil
}

// Get returns a single session by ID.
func (s *SessionStore) Get(sessionID string) (*SessionRow, error) {
	row, err := scanSession(s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s not found", sessionID)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return row, nil
}

// List returns all sessions, most recent first.
func (s *SessionStore) List() ([]*SessionRow, error) {
	rows, err := s.db.Query(`SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*SessionRow
	for rows.Next() {
		row, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
