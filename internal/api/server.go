// Package api exposes the lane decision store over HTTP: recent decisions,
// sessions, lane statistics, the active tuning config and debug charts.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/meridian-data/lanewatch/internal/config"
	"github.com/meridian-data/lanewatch/internal/db"
	"github.com/meridian-data/lanewatch/internal/httputil"
	"github.com/meridian-data/lanewatch/internal/monitoring"
	"github.com/meridian-data/lanewatch/internal/units"
	"github.com/meridian-data/lanewatch/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db  *db.DB
	cfg *config.TuningConfig
}

func NewServer(database *db.DB, cfg *config.TuningConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Server{
		db:  database,
		cfg: cfg,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/decisions", s.listDecisions)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/session", s.showSession)
	mux.HandleFunc("/api/lane_stats", s.showLaneStats)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/healthz", s.healthz)
	mux.HandleFunc("/charts/lanes", s.laneHistoryChart)
	return mux
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"git_sha": version.GitSHA,
	})
}

// parseLimit reads an optional positive ?limit= query parameter.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("invalid 'limit' parameter %q", raw)
	}
	return limit, nil
}

func (s *Server) listDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	recs, err := s.db.RecentDecisions(r.Context(), r.URL.Query().Get("session"), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve decisions: %v", err))
		return
	}
	if recs == nil {
		recs = []db.DecisionRecord{}
	}
	httputil.WriteJSONOK(w, recs)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	sessions, err := s.db.Sessions(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	httputil.WriteJSONOK(w, sessions)
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.BadRequest(w, "missing 'id' parameter")
		return
	}

	session, err := s.db.Session(r.Context(), id)
	if errors.Is(err, db.ErrSessionNotFound) {
		httputil.NotFound(w, "no such session")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve session: %v", err))
		return
	}
	httputil.WriteJSONOK(w, session)
}

// laneStatsResponse wraps db.LaneStats with the widths converted to the
// requested units.
type laneStatsResponse struct {
	*db.LaneStats
	Units string `json:"units"`
}

func (s *Server) showLaneStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session' parameter")
		return
	}

	targetUnits := s.cfg.GetUnits()
	if u := r.URL.Query().Get("units"); u != "" {
		if !units.IsValid(u) {
			httputil.BadRequest(w, "invalid 'units' parameter, must be one of: "+units.GetValidUnitsString())
			return
		}
		targetUnits = u
	}

	stats, err := s.db.ComputeLaneStats(r.Context(), sessionID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to compute lane stats: %v", err))
		return
	}

	mpp := s.cfg.GetMetersPerPixel()
	stats.MeanWidth = units.ConvertWidth(stats.MeanWidth, mpp, targetUnits)
	stats.StdDevWidth = units.ConvertWidth(stats.StdDevWidth, mpp, targetUnits)
	stats.MedianWidth = units.ConvertWidth(stats.MedianWidth, mpp, targetUnits)
	stats.P90Width = units.ConvertWidth(stats.P90Width, mpp, targetUnits)
	stats.MinWidth = units.ConvertWidth(stats.MinWidth, mpp, targetUnits)
	stats.MaxWidth = units.ConvertWidth(stats.MaxWidth, mpp, targetUnits)

	httputil.WriteJSONOK(w, laneStatsResponse{LaneStats: stats, Units: targetUnits})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	params := s.cfg.VisionParams()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"pixel_width":      params.PixelWidth,
		"image_width":      params.ImageWidth,
		"image_height":     params.ImageHeight,
		"edge_threshold":   params.EdgeThreshold,
		"gap_threshold":    params.GapThreshold,
		"legacy_smoothing": params.LegacySmoothing,
		"meters_per_pixel": s.cfg.GetMetersPerPixel(),
		"units":            s.cfg.GetUnits(),
	})
}
