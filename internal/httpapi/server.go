// Package httpapi exposes the scanner's state over a read-only HTTP API
// with Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"niftyscan/internal/config"
	"niftyscan/internal/nse"
	"niftyscan/internal/persistence"
	"niftyscan/internal/scanner"
)

// StateProvider supplies the current scan state. Implemented by
// *scanner.Scanner.
type StateProvider interface {
	Snapshot() scanner.Snapshot
}

// SnapshotReader reads the latest cached index snapshot. Implemented by
// *cache.SnapshotCache.
type SnapshotReader interface {
	GetSnapshot(ctx context.Context) ([]nse.IndexQuote, bool, error)
}

// Deps wires the API's collaborators. Snapshots and History may be nil;
// the handlers treat them as disabled.
type Deps struct {
	State     StateProvider
	Gatherer  prometheus.Gatherer
	Snapshots SnapshotReader
	History   persistence.ShiftsRepo
}

// Server is the read-only HTTP API.
type Server struct {
	router    *mux.Router
	server    *http.Server
	state     StateProvider
	snapshots SnapshotReader
	history   persistence.ShiftsRepo
	log       zerolog.Logger
}

// NewServer builds the API around a state provider and a metrics gatherer.
func NewServer(cfg config.ServerConfig, deps Deps, log zerolog.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		state:     deps.State,
		snapshots: deps.Snapshots,
		history:   deps.History,
		log:       log,
	}

	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/universe", s.handleUniverse).Methods(http.MethodGet)
	s.router.HandleFunc("/shifts", s.handleShifts).Methods(http.MethodGet)
	s.router.HandleFunc("/rankings", s.handleRankings).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"run_id":       snap.RunID,
		"iterations":   snap.Iterations,
		"total_shifts": snap.TotalShifts,
		"updated_at":   snap.UpdatedAt,
	})
}

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Snapshot()
	quotes := snap.Quotes
	source := "live"

	// Before the first fetch completes the scanner holds nothing; fall
	// back to the Redis snapshot left by a previous or concurrent run.
	if len(quotes) == 0 && s.snapshots != nil {
		cached, ok, err := s.snapshots.GetSnapshot(r.Context())
		if err != nil {
			s.log.Warn().Err(err).Msg("Snapshot cache read failed")
		} else if ok {
			quotes = cached
			source = "cache"
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated_at": snap.UpdatedAt,
		"count":      len(quotes),
		"source":     source,
		"quotes":     quotes,
	})
}

func (s *Server) handleShifts(w http.ResponseWriter, r *http.Request) {
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		s.handleShiftHistory(w, r, symbol)
		return
	}

	snap := s.state.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":  snap.TotalShifts,
		"recent": snap.RecentShifts,
	})
}

// handleShiftHistory serves persisted shifts for one symbol, newest
// first. Requires Postgres persistence; accepts RFC3339 from/to bounds
// and a limit, defaulting to the last 24 hours and 50 rows.
func (s *Server) handleShiftHistory(w http.ResponseWriter, r *http.Request, symbol string) {
	if s.history == nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "shift history requires postgres persistence",
		})
		return
	}

	now := time.Now()
	tr := persistence.TimeRange{From: now.Add(-24 * time.Hour), To: now}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from must be RFC3339"})
			return
		}
		tr.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to must be RFC3339"})
			return
		}
		tr.To = t
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	shifts, err := s.history.ListBySymbol(r.Context(), symbol, tr, limit)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Shift history query failed")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "shift history query failed"})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"count":  len(shifts),
		"shifts": shifts,
	})
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated_at": snap.UpdatedAt,
		"rankings":   snap.Rankings,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
