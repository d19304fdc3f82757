// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY SQLITE BY DEFAULT?
// SQLite is an embedded database: a single file next to the binary, no server
// to run. For a personal expense tracker that is the whole deployment story.
// The postgres package implements the same interfaces for larger setups.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary builds without CGo and
// cross-compiles like any other Go program.
//
// CONNECTION SETTINGS:
// PRAGMAs are per connection, and sql.DB is a pool. Setting them with Exec
// after Open would only configure whichever connection ran the statement, so
// they go into the DSN as _pragma parameters and apply to every connection.
//
// STORED FORMATS:
// Dates are TEXT "YYYY-MM-DD" and timestamps are fixed-width UTC TEXT, so
// ORDER BY and range comparisons on the raw column follow time order.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/expense-tracker/internal/repository/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timestampLayout is fixed width so lexical order equals time order.
const timestampLayout = "2006-01-02 15:04:05.000000"

// DB wraps the sql.DB pool. Users() and Expenses() hand out the
// repository views that share it.
type DB struct {
	conn    *sql.DB
	timeout time.Duration
	logger  *slog.Logger
}

// New opens (creating if needed) the database at dbPath and applies
// migrations. timeout bounds every individual repository operation.
//
// dbPath examples:
//   - "data/expenses.db" → file database in WAL mode
//   - ":memory:"         → private in-memory database, pool pinned to one connection
func New(dbPath string, timeout time.Duration, logger *slog.Logger) (*DB, error) {
	memory := dbPath == ":memory:"

	conn, err := sql.Open("sqlite", dsn(dbPath, memory))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a different, empty database.
	if memory {
		conn.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if err := migrate.Up(conn, "sqlite3", migrations, "migrations", logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return newWithConn(conn, timeout, logger), nil
}

// newWithConn wraps an already configured pool without migrating it.
// Tests use it to put a sqlmock connection behind the repositories.
func newWithConn(conn *sql.DB, timeout time.Duration, logger *slog.Logger) *DB {
	return &DB{conn: conn, timeout: timeout, logger: logger}
}

func dsn(dbPath string, memory bool) string {
	pragmas := []string{
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
	}
	if memory {
		return "file::memory:?" + strings.Join(pragmas, "&")
	}
	pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	return "file:" + dbPath + "?" + strings.Join(pragmas, "&")
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() *UserDB {
	return &UserDB{db: db}
}

func (db *DB) Expenses() *ExpenseDB {
	return &ExpenseDB{db: db}
}

// withTimeout derives the per-operation context. A store that stops
// answering fails the request instead of hanging it.
func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.timeout)
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// now is the repository clock, truncated to the stored precision so that
// values returned from Create equal values read back later.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// timestamp scans a stored timestamp. The driver may hand back TEXT or, when
// it recognises the value, an already parsed time.Time.
type timestamp struct {
	dst *time.Time
}

func (ts timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts.dst = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("sqlite: cannot scan %T into timestamp", src)
	}
}

func (ts timestamp) parse(s string) error {
	t, err := time.ParseInLocation(timestampLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return fmt.Errorf("sqlite: parsing timestamp %q: %w", s, err)
	}
	*ts.dst = t
	return nil
}
