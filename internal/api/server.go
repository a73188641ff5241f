// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api exposes the search service over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/search-aggregator/internal/metrics"
	"github.com/pdiddy/search-aggregator/internal/provider"
	"github.com/pdiddy/search-aggregator/internal/search"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

// Searcher is the part of *search.Service the API needs.
type Searcher interface {
	Search(ctx context.Context, req types.SearchRequest) (*types.ResultSet, error)
	GetByID(ctx context.Context, id, providerName string) (*search.DocumentResult, error)
	Providers() []provider.Info
}

// Pinger is a dependency checked by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server.
type Server struct {
	config   types.ServerConfig
	svc      Searcher
	checks   map[string]Pinger
	logger   *slog.Logger
	metrics  *metrics.Metrics
	features FeatureStore

	mu      sync.Mutex
	httpSrv *http.Server
}

// NewServer creates a server. checks are pinged by /health; m may be nil,
// in which case /metrics is not served.
func NewServer(cfg types.ServerConfig, svc Searcher, checks map[string]Pinger, logger *slog.Logger, m *metrics.Metrics) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{config: cfg, svc: svc, checks: checks, logger: logger, metrics: m}
}

// Start listens and serves until Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	s.logger.Info("search API listening", "addr", addr)
	return srv.ListenAndServe()
}

// Stop shuts the server down gracefully. It returns once in-flight
// requests have finished or ctx is done, whichever comes first.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/providers", s.handleProviders)
		r.Get("/search/doc/{id}", s.handleGetByID)
		r.Get("/search/{vertical}", s.handleSearch)
		if s.features != nil {
			s.registerSessionRoutes(r)
		}
	})
	return r
}

// requestLogger logs each request and counts it by route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.HTTPRequest(route, strconv.Itoa(status))
		s.logger.Info("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	healthy := true
	for name, c := range s.checks {
		if err := c.Ping(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		status["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Providers())
}
