package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/malbeclabs/orders-dashboard/api/handlers"
	"github.com/malbeclabs/orders-dashboard/api/metrics"
)

const readyTimeout = 5 * time.Second

type Server struct {
	log     *slog.Logger
	cfg     Config
	router  *chi.Mux
	httpSrv *http.Server
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		log:    cfg.Logger,
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	return s, nil
}

// Handler returns the root handler, for serving without Run.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(sentryHandler.Handle)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok\n")); err != nil {
			s.log.Error("failed to write healthz response", "error", err)
		}
	})
	s.router.Get("/readyz", s.readyzHandler)
	s.router.Get("/version", s.versionHandler)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
		r.Use(metrics.Middleware)
		handlers.Routes(r)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	serveErrCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server: http server error", "error", err)
			serveErrCh <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	s.log.Info("server: http listening", "address", listener.Addr().String())

	select {
	case <-ctx.Done():
		s.log.Info("server: stopping", "reason", ctx.Err(), "address", listener.Addr().String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		s.log.Info("server: http server shutdown complete")
		return nil
	case err := <-serveErrCh:
		s.log.Error("server: http server error causing shutdown", "error", err, "address", listener.Addr().String())
		return err
	}
}

func (s *Server) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.cfg.Ready(ctx); err != nil {
			s.log.Debug("readyz: warehouse not ready", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte("warehouse not ready\n")); err != nil {
				s.log.Error("failed to write readyz response", "error", err)
			}
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok\n")); err != nil {
		s.log.Error("failed to write readyz response", "error", err)
	}
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(s.cfg.VersionInfo); err != nil {
		s.log.Error("failed to write version response", "error", err)
	}
}
