// Package server exposes the plan engine over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rgehrsitz/bufferplan/internal/blob"
	"github.com/rgehrsitz/bufferplan/internal/cache"
	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/rgehrsitz/bufferplan/internal/planner"
	"github.com/rgehrsitz/bufferplan/internal/server/middleware"
	"github.com/rgehrsitz/bufferplan/internal/server/ws"
	"github.com/rgehrsitz/bufferplan/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr string
	// MaxConcurrent bounds simultaneous engine runs; further requests queue.
	MaxConcurrent int
	ExportPrefix  string
}

// Deps are the collaborators the handlers use. Cache, Runs and Exporter are optional.
type Deps struct {
	Engine   *planner.Engine
	Cache    cache.ResponseCache
	Runs     store.RunStore
	Exporter blob.Exporter
	Logger   *slog.Logger
}

// Server is the plan HTTP + WebSocket API.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	deps       Deps
	cfg        Config
	sem        chan struct{}
	logger     *slog.Logger
	now        func() time.Time
}

// NewServer registers every route and wraps the mux in logging and recovery middleware.
func NewServer(cfg Config, deps Deps) *Server {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
		logger: logger,
		now:    time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.health)
	mux.HandleFunc("POST /api/simulate", s.simulateHandler)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)
	mux.HandleFunc("POST /api/runs/{id}/export", s.exportRun)
	mux.HandleFunc("GET /ws/simulate", ws.NewStreamer(s.simulate, logger).HandleWS)

	var h http.Handler = mux
	h = middleware.Recover(logger)(h)
	h = middleware.Logging(logger)(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:        cfg.Addr,
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Handler returns the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens until the server fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// simulate runs a plan through the cache and archives it. It is shared by the HTTP
// and WebSocket endpoints.
func (s *Server) simulate(ctx context.Context, name string, req domain.PlanRequest, progress calculation.ProgressFunc) (*ws.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	eng := s.deps.Engine
	if progress != nil {
		eng = eng.WithProgress(progress)
	}
	opts := eng.Options
	resp, hit, err := cache.Run(ctx, s.deps.Cache, req, opts, func(ctx context.Context) (*domain.PlanResponse, error) {
		return eng.Run(ctx, req)
	}, func(err error) {
		s.logger.Warn("cache unavailable", slog.String("error", err.Error()))
	})
	if err != nil {
		return nil, err
	}
	if hit {
		progress.Emit(calculation.ProgressEvent{Stage: calculation.StageDone, SuccessPct: resp.SuccessPct})
	}

	result := &ws.Result{Cached: hit, Response: resp}
	if s.deps.Runs != nil {
		fp, _ := cache.Fingerprint(req, opts)
		run := &store.Run{Name: name, Fingerprint: fp, Request: req, Response: resp, Market: opts.Market}
		if err := s.deps.Runs.Save(ctx, run); err != nil {
			s.logger.Error("archive run failed", slog.String("error", err.Error()))
		} else {
			result.RunID = run.ID.String()
		}
	}
	return result, nil
}
