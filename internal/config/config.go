// Package config loads server configuration from the environment.
//
// An optional .env file in the working directory is read first; variables
// already set in the process environment win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	minSecretLength = 16
	minBcryptCost   = 4
	maxBcryptCost   = 31
)

// Config contains server configuration parameters.
type Config struct {
	Port     int        `env:"PORT" envDefault:"8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	Database Database   `envPrefix:"DATABASE_"`
	Auth     Auth
}

// Database selects and configures the store backend.
type Database struct {
	Driver  string        `env:"DRIVER" envDefault:"sqlite"`
	Path    string        `env:"PATH" envDefault:"data/expenses.db"`
	DSN     string        `env:"DSN"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Auth contains token and password hashing parameters.
type Auth struct {
	JWTSecret                string `env:"JWT_SECRET"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"60"`
	BcryptCost               int    `env:"BCRYPT_COST" envDefault:"12"`
}

func (a Auth) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenExpireMinutes) * time.Minute
}

// Load reads .env (if present), parses the environment and validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return NewConfig()
}

// NewConfig parses and validates configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Admin is the subset of Config that offline tools such as cmd/adduser
// need. It does not require JWT_SECRET.
type Admin struct {
	Database   Database `envPrefix:"DATABASE_"`
	BcryptCost int      `env:"BCRYPT_COST" envDefault:"12"`
}

// LoadAdmin reads .env (if present) and parses the Admin subset.
func LoadAdmin() (*Admin, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := env.ParseAs[Admin]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := errors.Join(cfg.Database.validate(), validateBcryptCost(cfg.BcryptCost)); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem at once so a misconfigured deployment can
// be fixed in one pass.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	if err := c.Database.validate(); err != nil {
		errs = append(errs, err)
	}

	if len(c.Auth.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength))
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.Auth.AccessTokenExpireMinutes))
	}
	if err := validateBcryptCost(c.Auth.BcryptCost); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (d Database) validate() error {
	var errs []error
	switch d.Driver {
	case DriverSQLite:
		if d.Path == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if d.DSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, d.Driver))
	}
	if d.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("DATABASE_TIMEOUT must be positive, got %s", d.Timeout))
	}
	return errors.Join(errs...)
}

func validateBcryptCost(cost int) error {
	if cost < minBcryptCost || cost > maxBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", minBcryptCost, maxBcryptCost, cost)
	}
	return nil
}
