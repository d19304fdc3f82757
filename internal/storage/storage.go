// Package storage opens the configured store backend once at startup and
// exposes it through the repository interfaces.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/expense-tracker/internal/config"
	"github.com/sakif/expense-tracker/internal/repository"
	"github.com/sakif/expense-tracker/internal/repository/postgres"
	"github.com/sakif/expense-tracker/internal/repository/sqlite"
)

// Store is the process-wide store handle. Close releases the pool.
type Store struct {
	Users    repository.UserRepository
	Expenses repository.ExpenseRepository

	pinger interface{ Ping(context.Context) error }
	closer io.Closer
}

// Open connects to the backend named by cfg.Driver and applies migrations.
func Open(ctx context.Context, cfg config.Database, logger *slog.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			dir := filepath.Dir(cfg.Path)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("storage: creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqlite.New(cfg.Path, cfg.Timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		logger.Info("store opened", slog.String("driver", cfg.Driver), slog.String("path", cfg.Path))
		return &Store{Users: db.Users(), Expenses: db.Expenses(), pinger: db, closer: db}, nil

	case config.DriverPostgres:
		conn, err := postgres.NewConnection(ctx, cfg.DSN, cfg.Timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		logger.Info("store opened", slog.String("driver", cfg.Driver))
		return &Store{Users: conn.Users(), Expenses: conn.Expenses(), pinger: conn, closer: conn}, nil

	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// Ping reports whether the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pinger.Ping(ctx)
}

func (s *Store) Close() error {
	return s.closer.Close()
}
