package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/meridian-data/lanewatch/internal/httputil"
)

// laneHistoryChart renders an HTML line chart of a session's lane boundaries
// over frame index using go-echarts. This is a debugging-only endpoint to
// eyeball boundary stability without a frontend.
func (s *Server) laneHistoryChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session' parameter")
		return
	}

	history, err := s.db.DecisionHistory(r.Context(), sessionID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve decision history: %v", err))
		return
	}
	if len(history) == 0 {
		httputil.NotFound(w, "no decisions for session")
		return
	}

	frames := make([]string, 0, len(history))
	left := make([]opts.LineData, 0, len(history))
	right := make([]opts.LineData, 0, len(history))
	laneCounts := make([]opts.LineData, 0, len(history))
	for _, rec := range history {
		frames = append(frames, fmt.Sprintf("%d", rec.FrameIndex))
		left = append(left, opts.LineData{Value: rec.LeftBoundary})
		right = append(right, opts.LineData{Value: rec.RightBoundary})
		laneCounts = append(laneCounts, opts.LineData{Value: rec.LaneCount})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Lane History", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Lane Boundaries",
			Subtitle: fmt.Sprintf("session=%s frames=%d", sessionID, len(history)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "column"}),
	)
	line.SetXAxis(frames).
		AddSeries("left boundary", left).
		AddSeries("right boundary", right).
		AddSeries("lane count", laneCounts)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
