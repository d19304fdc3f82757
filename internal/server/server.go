// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and routes.
// It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go creates:
//
//	config → storage.Store → services → server.New
//
// server.New creates the handlers from the services and wires them to routes.
// The server never opens the store itself; main owns its lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/expense-tracker/internal/auth"
	"github.com/sakif/expense-tracker/internal/handler"
	"github.com/sakif/expense-tracker/internal/middleware"
)

// Name is reported by GET /.
const Name = "Expense Tracker API"

// Config holds server configuration.
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the timeouts used in production.
func DefaultConfig(port int) Config {
	return Config{
		Port:            port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// AuthService is what the auth routes and the RequireAuth middleware need.
// *service.AuthService satisfies it.
type AuthService interface {
	handler.Authenticator
	auth.IdentityResolver
}

// Services groups the business layer the routes are built on.
type Services struct {
	Auth     AuthService
	Expenses handler.ExpenseManager
	Reports  handler.Reporter
	Store    handler.Pinger
}

// Server represents the HTTP server and all its routes.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
}

// New creates a Server and wires every route.
func New(cfg Config, svc Services, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(svc)
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                   → status banner
// GET    /healthz            → store ping
// POST   /auth/signup        → register
// POST   /auth/login         → issue a bearer token
// GET    /auth/me            → current user           [bearer]
// POST   /expenses           → create expense         [bearer]
// GET    /expenses           → list expenses          [bearer]
// GET    /expenses/{id}      → get expense            [bearer]
// PUT    /expenses/{id}      → partial update         [bearer]
// DELETE /expenses/{id}      → delete expense         [bearer]
// GET    /reports/monthly    → monthly totals         [bearer]
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info and the request ID
// 4. Recoverer: catches panics and returns 500 instead of crashing
func (s *Server) setupRoutes(svc Services) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	statusHandler := handler.NewStatusHandler(Name, svc.Store, s.logger)
	authHandler := handler.NewAuthHandler(svc.Auth, s.logger)
	expenseHandler := handler.NewExpenseHandler(svc.Expenses, s.logger)
	reportHandler := handler.NewReportHandler(svc.Reports, s.logger)
	requireAuth := auth.RequireAuth(svc.Auth, s.logger)

	s.router.Get("/", statusHandler.HandleRoot)
	s.router.Get("/healthz", statusHandler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)
	})

	// === Protected Routes ===
	// Every route in this group runs RequireAuth first; the handlers read the
	// resolved user from the context and scope every store call by its ID.
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", expenseHandler.HandleCreate)
			r.Get("/", expenseHandler.HandleList)
			r.Get("/{id}", expenseHandler.HandleGet)
			r.Put("/{id}", expenseHandler.HandleUpdate)
			r.Delete("/{id}", expenseHandler.HandleDelete)
		})

		r.Get("/reports/monthly", reportHandler.HandleMonthly)
	})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
// Two goroutines run under one errgroup:
//  1. ListenAndServe, which returns http.ErrServerClosed after Shutdown
//  2. a watcher that waits for ctx (SIGINT/SIGTERM in main) and calls
//     Shutdown, giving in-flight requests ShutdownTimeout to finish
//
// Whichever fails first cancels the other; Run returns that error.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
