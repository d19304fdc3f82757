// Package postgres implements the repository interfaces on PostgreSQL using
// a pgx connection pool. It is selected with DATABASE_DRIVER=postgres.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sakif/expense-tracker/internal/repository/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

type Connection struct {
	*pgxpool.Pool
	timeout time.Duration
	logger  *slog.Logger
}

// NewConnection opens a pool for dsn, verifies it and applies migrations.
// timeout is both the connect timeout and the per-operation deadline.
func NewConnection(ctx context.Context, dsn string, timeout time.Duration, logger *slog.Logger) (*Connection, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing dsn: %w", err)
	}
	conf.ConnConfig.ConnectTimeout = timeout

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	if err := runMigrations(dsn, logger); err != nil {
		pool.Close()
		return nil, err
	}

	return &Connection{Pool: pool, timeout: timeout, logger: logger}, nil
}

// runMigrations goes through database/sql because goose works on *sql.DB.
func runMigrations(dsn string, logger *slog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("postgres: opening migration connection: %w", err)
	}
	defer db.Close()

	if err := migrate.Up(db, "postgres", migrations, "migrations", logger); err != nil {
		return fmt.Errorf("postgres: running migrations: %w", err)
	}
	return nil
}

func (c *Connection) Close() error {
	if c.Pool != nil {
		c.Pool.Close()
	}
	return nil
}

func (c *Connection) Ping(ctx context.Context) error {
	if c.Pool == nil {
		return fmt.Errorf("postgres: connection pool is nil")
	}
	return c.Pool.Ping(ctx)
}

func (c *Connection) Users() *UserRepository {
	return &UserRepository{db: c}
}

func (c *Connection) Expenses() *ExpenseRepository {
	return &ExpenseRepository{db: c}
}

func (c *Connection) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
