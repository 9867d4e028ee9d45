// Package web serves the theme discovery HTTP API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr     string
	Engine   Discoverer
	Gatherer prometheus.Gatherer // nil disables /metrics
}

// Server is the HTTP server for the theme API.
type Server struct {
	router   chi.Router
	server   *http.Server
	runner   *Runner
	handlers *Handlers
	gatherer prometheus.Gatherer
	stop     context.CancelFunc
	log      *zap.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig, log *zap.Logger) *Server {
	log = log.Named("web")
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	base, stop := context.WithCancel(context.Background())
	runner := NewRunner(base, cfg.Engine, log)

	s := &Server{
		router:   chi.NewRouter(),
		runner:   runner,
		handlers: NewHandlers(cfg.Engine, runner, log),
		gatherer: cfg.Gatherer,
		stop:     stop,
		log:      log,
	}

	s.setupMiddleware()
	s.setupRoutes()

	// WriteTimeout is left at zero for long-polling clients; discovery itself
	// never runs on a request goroutine.
	s.server = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handlers.Health)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/themes", func(r chi.Router) {
		r.Get("/", s.handlers.Themes)
		r.Delete("/cache", s.handlers.ClearCache)
		r.Post("/discover", s.handlers.StartDiscovery)
		r.Get("/discover", s.handlers.DiscoveryStatus)
		r.Delete("/discover", s.handlers.CancelDiscovery)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("url", "http://"+s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown cancels any running discovery and gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	if err := s.runner.Wait(ctx); err != nil {
		s.log.Warn("discovery did not stop in time", zap.Error(err))
	}
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.log.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}
