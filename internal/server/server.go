// Package server exposes stored health data over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/verte-zerg/healthdash/internal/health"
	"github.com/verte-zerg/healthdash/internal/insights"
	"github.com/verte-zerg/healthdash/internal/store"
)

const (
	defaultMaxUploadBytes = 512 << 20
	shutdownTimeout       = 10 * time.Second
)

// Commentator writes a free-text note about a parsed export and reads
// uploaded medical reports.
type Commentator interface {
	Comment(ctx context.Context, result health.Result) (string, error)
	AnalyzeReport(ctx context.Context, path, mediaType string) (*insights.MedicalReport, error)
}

// Config controls a Server.
type Config struct {
	// UploadDir receives uploaded files before parsing.
	UploadDir string
	// HistoryDays caps the history kept per Apple Health upload.
	HistoryDays int
	// MaxUploadBytes limits the request body of /api/upload.
	MaxUploadBytes int64
	// AccessLog receives Apache-style request lines; nil disables them.
	AccessLog io.Writer
	// Commentator is optional; without it /api/insights?ai=1 and report
	// uploads answer 503.
	Commentator Commentator
}

// Server wires the store to HTTP handlers.
type Server struct {
	store   store.Store
	cfg     Config
	log     *slog.Logger
	metrics *Metrics
}

// New returns a server. A nil logger discards records; nil metrics creates a
// fresh registry.
func New(st store.Store, cfg Config, log *slog.Logger, m *Metrics) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m == nil {
		m = NewMetrics()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = health.DefaultHistoryLimit
	}
	return &Server{store: st, cfg: cfg, log: log, metrics: m}
}

// Router registers every route on a fresh gorilla router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	s.route(api, "/health-check", "health_check", s.healthCheck, http.MethodGet)
	s.route(api, "/upload", "upload", s.upload, http.MethodPost)
	s.route(api, "/data", "data", s.listData, http.MethodGet)
	s.route(api, "/notes", "notes_list", s.listNotes, http.MethodGet)
	s.route(api, "/notes", "notes_add", s.addNote, http.MethodPost)
	s.route(api, "/timeline", "timeline_list", s.listTimeline, http.MethodGet)
	s.route(api, "/timeline", "timeline_add", s.addTimelineEvent, http.MethodPost)
	s.route(api, "/insights", "insights", s.insights, http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	return r
}

func (s *Server) route(r *mux.Router, path, name string, h http.HandlerFunc, method string) {
	r.Handle(path, s.metrics.WrapHandler(name, h)).Methods(method)
}

// Handler returns the router behind CORS and, when configured, the access log.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	if s.cfg.AccessLog != nil {
		h = handlers.LoggingHandler(s.cfg.AccessLog, h)
	}
	return h
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("healthdash API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	s.log.Info("healthdash API stopped")
	return nil
}
