// Package httpapi serves sync status, change history and reversals over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ersonp/lore-sync/internal/application/handlers"
	"github.com/ersonp/lore-sync/internal/domain/entities"
)

const (
	readHeaderTimeout = 5 * time.Second
	requestTimeout    = 30 * time.Second
	maxBodyBytes      = 1 << 16
)

// Server exposes the dashboard and admin endpoints.
type Server struct {
	status   *handlers.StatusHandler
	changes  *handlers.ChangeLogHandler
	gatherer prometheus.Gatherer
	health   func(ctx context.Context) error
	logger   *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithHealthCheck makes /healthz report the result of check.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.health = check
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new API server.
func NewServer(status *handlers.StatusHandler, changes *handlers.ChangeLogHandler, opts ...Option) *Server {
	s := &Server{
		status:   status,
		changes:  changes,
		gatherer: prometheus.DefaultGatherer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/status", s.handleStatusAll)
		r.Get("/status/{entityType}", s.handleStatusType)
		r.Get("/changes/{entityType}/{entityID}", s.handleHistory)
		r.Post("/changes/{entryID}/reverse", s.handleReverse)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatusAll(w http.ResponseWriter, r *http.Request) {
	counts, err := s.status.HandleAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleStatusType(w http.ResponseWriter, r *http.Request) {
	counts, err := s.status.HandleType(r.Context(), chi.URLParam(r, "entityType"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.changes.HandleHistory(r.Context(), chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []entities.ChangeLogEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

type reverseRequest struct {
	ReversedBy string `json:"reversed_by"`
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	var req reverseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Description: "invalid JSON body"})
		return
	}
	if req.ReversedBy == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Description: "reversed_by is required"})
		return
	}

	entry, err := s.changes.HandleReverse(r.Context(), chi.URLParam(r, "entryID"), req.ReversedBy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
