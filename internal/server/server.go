// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the composition root — the one place where handlers,
// services, repositories, and middleware are wired together:
//
//	config.Config → sqlite.DB → AuthService/LogService → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handler layer
// ever sees HTTP.
//
// CONFIGURATION-ERROR MODE:
// When the deployment has no real JWT secret, the server still starts and
// listens, but every /api route answers 503 with a configuration_error
// body. Nothing else is wired in that mode — no database, no sessions.
// The operator fixes the environment and restarts; there is no runtime
// recovery path.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/daily-log/internal/auth"
	"github.com/sakif/daily-log/internal/config"
	"github.com/sakif/daily-log/internal/handler"
	"github.com/sakif/daily-log/internal/middleware"
	"github.com/sakif/daily-log/internal/realtime"
	sqliteRepo "github.com/sakif/daily-log/internal/repository/sqlite"
	"github.com/sakif/daily-log/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The server owns the database connection, the realtime hub, and the
// auth rate limiter; all three are released during graceful shutdown.
// db and rateLimiter are nil in configuration-error mode.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger

	db          *sqliteRepo.DB
	hub         *realtime.Hub
	rateLimiter *middleware.RateLimiter
}

// New creates a Server and assembles the full dependency chain.
//
// If cfg.Configured() is false, New succeeds anyway and returns a server
// whose API surface is entirely the 503 configuration-error responder —
// starting in a degraded state beats crash-looping under a supervisor.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		hub:    realtime.NewHub(),
	}

	// === Global Middleware ===
	// Order matters: RequestID and RealIP first so the logger and rate
	// limiter see them, Recoverer before anything that can panic.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	metrics := middleware.NewMetrics(s.hub.SubscriberCount)
	s.router.Use(metrics.Middleware())
	s.router.Handle("/metrics", metrics.Handler())

	if !cfg.Configured() {
		logger.Error("JWT_SECRET is missing or still the placeholder — API disabled until configured")
		s.router.Route("/api", func(r chi.Router) {
			r.HandleFunc("/*", handler.HandleConfigurationError)
		})
		return s, nil
	}

	if err := s.setupRoutes(); err != nil {
		if s.db != nil {
			s.db.Close()
		}
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires the real API: opens the database, builds the service
// and handler layers, and registers every route with its middleware.
//
// ROUTE STRUCTURE:
//
//	POST /api/auth/signup          → register (rate limited, allow-list gated)
//	POST /api/auth/login           → sign in (rate limited)
//	POST /api/auth/logout          → clear session cookie
//	GET  /api/auth/me              → current session + admin flag  [auth]
//	POST /api/logs                 → submit today's entry          [auth]
//	GET  /api/logs                 → own history, newest first     [auth]
//	GET  /api/logs/stream          → SSE change notifications      [auth]
//	GET  /api/admin/logs           → paginated all-user table      [auth+admin]
//	GET  /api/admin/users          → distinct submitters           [auth+admin]
//	GET  /auth/github/login        → OAuth redirect   (only when configured)
//	GET  /auth/github/callback     → OAuth completion (only when configured)
func (s *Server) setupRoutes() error {
	db, err := sqliteRepo.New(s.config.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	policy := auth.NewPolicy(s.config.AdminEmails, s.config.AllowedEmails)

	authService := service.NewAuthService(db, tokens, passwords, policy, s.logger)
	logService := service.NewLogService(db, s.hub, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	logHandler := handler.NewLogHandler(logService, authService, s.logger)
	streamHandler := handler.NewStreamHandler(s.hub, s.logger)

	// Credential endpoints get a per-IP token bucket; bcrypt makes each
	// attempt expensive, and they are the only brute-forceable surface.
	s.rateLimiter = middleware.NewRateLimiter(10, 5)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimiter.Middleware())
			r.Post("/auth/signup", authHandler.HandleSignUp)
			r.Post("/auth/login", authHandler.HandleSignIn)
		})
		r.Post("/auth/logout", authHandler.HandleSignOut)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/auth/me", authHandler.HandleMe)
			r.Post("/logs", logHandler.HandleSubmit)
			r.Get("/logs", logHandler.HandleHistory)
			r.Get("/logs/stream", streamHandler.HandleStream)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin(authService))
				r.Get("/admin/logs", logHandler.HandleAdminList)
				r.Get("/admin/users", logHandler.HandleAdminSubmitters)
			})
		})
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	return nil
}

// Router exposes the assembled handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the server's resources: the rate limiter's cleanup
// goroutine and the database connection. Start defers this; tests that
// never call Start use it directly.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.rateLimiter = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
}

// Start runs the HTTP server and blocks until shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Give in-flight requests (including open SSE streams, which end when
//     their request contexts are cancelled) 30 seconds to finish
//  3. Stop the rate limiter's cleanup goroutine
//  4. Close the database (flushes the WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
		// No WriteTimeout: /api/logs/stream is a long-lived SSE response
		// and a server-wide write deadline would sever it. Slow-client
		// protection comes from ReadTimeout plus the proxy in front.
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("configured", s.config.Configured()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
