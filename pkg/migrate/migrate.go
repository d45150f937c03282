package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the migrations directory inside the embedded filesystem.
const DefaultDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

// Run executes a goose command against the embedded cart migrations.
func Run(ctx context.Context, db *sql.DB, dialect string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dialect == "" {
		return fmt.Errorf("dialect is required")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, DefaultDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	return Run(ctx, db, dialect, "up")
}
