// Package migrate applies the embedded goose migrations of a SQL backend.
//
// goose keeps its base filesystem, dialect and logger in package-level state,
// so Up serialises callers. Each backend embeds its own migrations/ directory
// and passes it in.
package migrate

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

var mu sync.Mutex

// Up runs every pending migration found in fsys under dir.
// dialect is a goose dialect name such as "sqlite3" or "postgres".
func Up(db *sql.DB, dialect string, fsys fs.FS, dir string, logger *slog.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(slogAdapter{logger: logger.With(slog.String("component", "migrate"))})

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrate: setting dialect %s: %w", dialect, err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migrate: applying migrations: %w", err)
	}
	return nil
}

// slogAdapter satisfies goose.Logger. goose formats its own messages, so
// they are logged as a single message string.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Printf(format string, v ...any) {
	a.logger.Info(fmt.Sprintf(format, v...))
}

func (a slogAdapter) Print(v ...any) {
	a.logger.Info(fmt.Sprint(v...))
}

func (a slogAdapter) Println(v ...any) {
	a.logger.Info(fmt.Sprint(v...))
}

// Fatalf is called by goose for unrecoverable errors. It logs instead of
// exiting; goose returns the error to Up as well.
func (a slogAdapter) Fatalf(format string, v ...any) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

func (a slogAdapter) Fatal(v ...any) {
	a.logger.Error(fmt.Sprint(v...))
}
