// Package main is the entry point for the expense tracker API server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (environment variables, optional .env file)
// 2. Create dependencies (logger, store, services)
// 3. Start the application and wait for a shutdown signal
//
// All actual logic lives in imported packages (internal/server, internal/service, etc.).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/expense-tracker/internal/auth"
	"github.com/sakif/expense-tracker/internal/config"
	"github.com/sakif/expense-tracker/internal/server"
	"github.com/sakif/expense-tracker/internal/service"
	"github.com/sakif/expense-tracker/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// === 2. SET UP LOGGING ===
	// Log levels (from least to most severe): Debug → Info → Warn → Error.
	// LOG_LEVEL=debug also shows why individual logins and tokens were rejected.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// SIGINT (Ctrl+C) and SIGTERM (docker stop, systemd) cancel ctx, which
	// starts the graceful shutdown in server.Run.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === 3. OPEN THE STORE ===
	// One handle for the whole process, migrated before the first request.
	store, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	// === 4. BUILD THE SERVICES ===
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService(cfg.Auth.BcryptCost)

	services := server.Services{
		Auth:     service.NewAuthService(store.Users, tokens, passwords, logger),
		Expenses: service.NewExpenseService(store.Expenses, logger),
		Reports:  service.NewReportService(store.Expenses, logger),
		Store:    store,
	}

	// === 5. RUN ===
	// Run blocks until ctx is cancelled and in-flight requests have drained.
	srv := server.New(server.DefaultConfig(cfg.Port), services, logger)
	return srv.Run(ctx)
}
