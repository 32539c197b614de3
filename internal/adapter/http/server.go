package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the batch has produced anything yet.
type ReadinessChecker = sharedobs.ReadinessChecker

// ProgressReporter exposes the running batch summary.
type ProgressReporter interface {
	Snapshot() domain.Summary
}

// Server exposes health, readiness, progress and metrics HTTP endpoints
// while a batch runs.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /progress and /metrics routes.
func NewServer(addr string, ready ReadinessChecker, progress ProgressReporter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.HandleFunc("GET /progress", handleProgress(progress))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// progressBody is the /progress response.
type progressBody struct {
	RunID     string                                 `json:"run_id"`
	StartedAt time.Time                              `json:"started_at"`
	Finished  bool                                   `json:"finished"`
	Stages    map[domain.Stage]map[domain.Status]int `json:"stages"`
}

func handleProgress(progress ProgressReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s := progress.Snapshot()
		body := progressBody{
			RunID:     s.RunID,
			StartedAt: s.StartedAt,
			Finished:  !s.FinishedAt.IsZero(),
			Stages:    make(map[domain.Stage]map[domain.Status]int),
		}
		for _, r := range s.Results {
			counts := body.Stages[r.Stage]
			if counts == nil {
				counts = make(map[domain.Status]int)
				body.Stages[r.Stage] = counts
			}
			counts[r.Status]++
		}
		sharedobs.WriteJSON(w, http.StatusOK, body)
	}
}
