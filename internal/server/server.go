// Package server is the composition root: it opens the database, builds the
// services and handlers, and mounts them on a chi router.
//
//	config → sqlite.DB → services → handlers → routes
//
// Nothing below this package knows how the others are constructed.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/codesync/internal/auth"
	"github.com/sakif/codesync/internal/config"
	"github.com/sakif/codesync/internal/handler"
	"github.com/sakif/codesync/internal/metrics"
	"github.com/sakif/codesync/internal/middleware"
	sqliteRepo "github.com/sakif/codesync/internal/repository/sqlite"
	"github.com/sakif/codesync/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the database handle and closes it on shutdown.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	registry *prometheus.Registry
}

// New wires the whole application from cfg. The caller must call Close (or
// Start, which closes on return).
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.DBPath != ":memory:" {
		// Create the data directory on first run
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes mounts:
//
//	GET  /healthz                   liveness + database ping
//	GET  /metrics                   Prometheus exposition
//	GET  /auth/github/login         (GitHub configured only)
//	GET  /auth/github/callback      (GitHub configured only)
//	POST /api/auth/signup
//	POST /api/auth/login
//	POST /api/auth/logout
//	GET  /api/me                    (auth)
//	POST /api/upload/{userID}       (auth, own user only)
//	GET  /api/submissions/{userID}  (auth)
//	GET  /api/dashboard/{userID}    (auth)
//	GET  /api/peers                 (auth)
//
// Middleware order: RequestID first so the logger can print it, Recoverer
// inside the logger and metrics so a panic is recorded as a 500.
func (s *Server) setupRoutes() error {
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(s.registry)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(m))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWT, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// *sqlite.DB implements both repository interfaces.
	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), m, s.logger)
	submissionService := service.NewSubmissionService(s.db, s.db, m, s.logger)
	profileService := service.NewProfileService(s.db, s.db, m, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	} else {
		s.logger.Info("GitHub OAuth not configured, /auth/github routes disabled")
	}

	authHandler := handler.NewAuthHandler(authService, github, tokens.TTL(), s.logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(authService))

			r.Get("/me", authHandler.HandleMe)
			r.Post("/upload/{userID}", submissionHandler.HandleUpload)
			r.Get("/submissions/{userID}", submissionHandler.HandleList)
			r.Get("/dashboard/{userID}", profileHandler.HandleDashboard)
			r.Get("/peers", profileHandler.HandlePeers)
		})
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30s and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.Addr),
			slog.String("database", s.config.DBPath),
			slog.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
