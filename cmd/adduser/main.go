// Command adduser creates an account directly in the store, for bootstrapping
// a deployment before anyone can reach /auth/signup.
//
//	adduser -email alice@example.com -name "Alice" [-password secret] [-db data/expenses.db]
//
// Without -password it prompts, hiding the input when stdin is a terminal.
// The store is selected by the same DATABASE_* variables as the server.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/auth"
	"github.com/sakif/expense-tracker/internal/config"
	"github.com/sakif/expense-tracker/internal/service"
	"github.com/sakif/expense-tracker/internal/storage"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address (login name)")
	fullName := fs.String("name", "", "Full name")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "", "SQLite database file (overrides DATABASE_PATH)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" || *fullName == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> -name <full name> [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return errors.New("missing required flags: email, name")
	}

	cfg, err := config.LoadAdmin()
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = *dbPath
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	// Signup is reused for its validation and email normalisation. No tokens
	// are issued, so no token service is needed.
	users := service.NewAuthService(store.Users, nil, auth.NewPasswordService(cfg.BcryptCost), logger)

	user, err := users.Signup(ctx, service.SignupInput{
		Email:    *email,
		FullName: *fullName,
		Password: password,
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.Is(err, apperror.ErrConflict) {
			return fmt.Errorf("user %s already exists", service.NormalizeEmail(*email))
		}
		if errors.As(err, &appErr) {
			return fmt.Errorf("invalid %s: %s", appErr.Field, appErr.Message)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", user.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal input (pipes, tests).
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
