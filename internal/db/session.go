package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session describes one capture run: a contiguous stream of frames from a
// single source.
type Session struct {
	ID         string   `json:"id"`
	Source     string   `json:"source"`
	Notes      string   `json:"notes"`
	StartedAt  float64  `json:"started_at"`
	EndedAt    *float64 `json:"ended_at,omitempty"`
	FrameCount int64    `json:"frame_count"`
}

// StartSession creates a new session record for the given source and returns
// its id.
func (db *DB) StartSession(ctx context.Context, source, notes string) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO sessions (id, source, notes) VALUES (?, ?, ?)`,
		id, source, notes,
	)
	if err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}
	return id, nil
}

// EndSession closes a session, stamping its end time and final frame count.
func (db *DB) EndSession(ctx context.Context, id string, frameCount int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE sessions
		 SET ended_at = UNIXEPOCH('subsec'), frame_count = ?
		 WHERE id = ?`,
		frameCount, id,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Session returns a single session by id.
func (db *DB) Session(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := db.QueryRowContext(ctx,
		`SELECT id, source, notes, started_at, ended_at, frame_count
		 FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.Source, &s.Notes, &s.StartedAt, &s.EndedAt, &s.FrameCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Sessions returns the most recent sessions, newest first.
func (db *DB) Sessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, source, notes, started_at, ended_at, frame_count
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Source, &s.Notes, &s.StartedAt, &s.EndedAt, &s.FrameCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
