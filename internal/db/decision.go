package db

import (
	"context"
	"fmt"

	"github.com/meridian-data/lanewatch/internal/vision"
)

// DecisionRecord is one stored lane decision, tied to the session and frame
// that produced it.
type DecisionRecord struct {
	ID            int64   `json:"id"`
	SessionID     string  `json:"session_id"`
	FrameIndex    int64   `json:"frame_index"`
	LaneCount     int     `json:"lane_count"`
	CurrentLane   int     `json:"current_lane"`
	LeftBoundary  int     `json:"left_boundary"`
	RightBoundary int     `json:"right_boundary"`
	RecordedAt    float64 `json:"recorded_at"`
}

// NewDecisionRecord pairs a pipeline decision with its session and frame.
func NewDecisionRecord(sessionID string, frameIndex int64, dec vision.Decision) DecisionRecord {
	return DecisionRecord{
		SessionID:     sessionID,
		FrameIndex:    frameIndex,
		LaneCount:     dec.LaneCount,
		CurrentLane:   dec.CurrentLane,
		LeftBoundary:  dec.LeftBoundary,
		RightBoundary: dec.RightBoundary,
	}
}

// RecordDecision inserts a single decision row.
func (db *DB) RecordDecision(ctx context.Context, rec DecisionRecord) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO decisions (
			session_id, frame_index, lane_count, current_lane,
			left_boundary, right_boundary
		) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.FrameIndex, rec.LaneCount, rec.CurrentLane,
		rec.LeftBoundary, rec.RightBoundary,
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// RecordDecisions inserts a batch of decisions in one transaction.
func (db *DB) RecordDecisions(ctx context.Context, recs []DecisionRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO decisions (
			session_id, frame_index, lane_count, current_lane,
			left_boundary, right_boundary
		) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx,
			rec.SessionID, rec.FrameIndex, rec.LaneCount, rec.CurrentLane,
			rec.LeftBoundary, rec.RightBoundary,
		); err != nil {
			return fmt.Errorf("failed to insert decision for frame %d: %w", rec.FrameIndex, err)
		}
	}
	return tx.Commit()
}

// RecentDecisions returns the newest decisions, optionally filtered to one
// session, newest first.
func (db *DB) RecentDecisions(ctx context.Context, sessionID string, limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, session_id, frame_index, lane_count, current_lane,
			left_boundary, right_boundary, recorded_at
		FROM decisions`
	args := []interface{}{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.FrameIndex, &rec.LaneCount, &rec.CurrentLane,
			&rec.LeftBoundary, &rec.RightBoundary, &rec.RecordedAt,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DecisionHistory returns a session's decisions in frame order, for plotting
// lane boundaries over time.
func (db *DB) DecisionHistory(ctx context.Context, sessionID string) ([]DecisionRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, session_id, frame_index, lane_count, current_lane,
			left_boundary, right_boundary, recorded_at
		FROM decisions
		WHERE session_id = ?
		ORDER BY frame_index ASC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.FrameIndex, &rec.LaneCount, &rec.CurrentLane,
			&rec.LeftBoundary, &rec.RightBoundary, &rec.RecordedAt,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
