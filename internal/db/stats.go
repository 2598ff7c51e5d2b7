package db

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// LaneStats summarizes a session's decisions: the distribution of the
// current-lane width and how often each lane count was observed. Widths are
// in image columns.
type LaneStats struct {
	SessionID      string      `json:"session_id"`
	DecisionCount  int         `json:"decision_count"`
	LaneCountHist  map[int]int `json:"lane_count_hist"`
	MeanWidth      float64     `json:"mean_width"`
	StdDevWidth    float64     `json:"stddev_width"`
	MedianWidth    float64     `json:"median_width"`
	P90Width       float64     `json:"p90_width"`
	MinWidth       float64     `json:"min_width"`
	MaxWidth       float64     `json:"max_width"`
	MeanLaneCount  float64     `json:"mean_lane_count"`
	ModalLaneCount int         `json:"modal_lane_count"`
}

// ComputeLaneStats aggregates all decisions of a session. Decisions whose
// boundaries are degenerate (right <= left) are excluded from the width
// distribution but still counted in the lane-count histogram.
func (db *DB) ComputeLaneStats(ctx context.Context, sessionID string) (*LaneStats, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT lane_count, left_boundary, right_boundary
		 FROM decisions WHERE session_id = ?`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &LaneStats{
		SessionID:     sessionID,
		LaneCountHist: make(map[int]int),
	}

	var widths []float64
	var laneCounts []float64
	for rows.Next() {
		var laneCount, left, right int
		if err := rows.Scan(&laneCount, &left, &right); err != nil {
			return nil, err
		}
		stats.DecisionCount++
		stats.LaneCountHist[laneCount]++
		laneCounts = append(laneCounts, float64(laneCount))
		if right > left {
			widths = append(widths, float64(right-left))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(laneCounts) > 0 {
		stats.MeanLaneCount = stat.Mean(laneCounts, nil)
	}
	best := -1
	for count, hits := range stats.LaneCountHist {
		if hits > best || (hits == best && count < stats.ModalLaneCount) {
			best = hits
			stats.ModalLaneCount = count
		}
	}

	if len(widths) > 0 {
		sort.Float64s(widths)
		stats.MeanWidth = stat.Mean(widths, nil)
		if len(widths) > 1 {
			// StdDev of a single sample is NaN, which JSON cannot encode.
			stats.StdDevWidth = stat.StdDev(widths, nil)
		}
		stats.MedianWidth = stat.Quantile(0.5, stat.Empirical, widths, nil)
		stats.P90Width = stat.Quantile(0.9, stat.Empirical, widths, nil)
		stats.MinWidth = widths[0]
		stats.MaxWidth = widths[len(widths)-1]
	}

	return stats, nil
}
