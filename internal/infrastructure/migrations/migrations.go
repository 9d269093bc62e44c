// Package migrations embeds the schema for each supported database and
// applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/hszk-dev/vidlib/internal/config"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Status is the schema version of a database.
type Status struct {
	Version uint
	Dirty   bool
	// None is set when no migration has ever been applied.
	None bool
}

// Up applies all pending migrations. A database that is already current is not an error.
func Up(cfg config.DatabaseConfig) error {
	m, err := open(cfg)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Down rolls back the given number of migrations.
func Down(cfg config.DatabaseConfig, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	m, err := open(cfg)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// Version reports the current schema version.
func Version(cfg config.DatabaseConfig) (Status, error) {
	m, err := open(cfg)
	if err != nil {
		return Status{}, err
	}
	defer closeMigrate(m)

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{None: true}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return Status{Version: v, Dirty: dirty}, nil
}

func open(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	dir, dbURL, err := target(cfg)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(files, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrator: %w", err)
	}
	return m, nil
}

// target returns the embedded directory and migrate database URL for cfg.
func target(cfg config.DatabaseConfig) (dir, dbURL string, err error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return "postgres", "pgx5://" + strings.TrimPrefix(cfg.DSN(), "postgres://"), nil
	case config.DriverSQLite:
		if cfg.SQLitePath == "" {
			return "", "", errors.New("sqlite path is required")
		}
		path, err := filepath.Abs(cfg.SQLitePath)
		if err != nil {
			return "", "", fmt.Errorf("failed to resolve sqlite path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", "", fmt.Errorf("failed to create sqlite dir: %w", err)
		}
		return "sqlite", "sqlite://" + path, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func closeMigrate(m *migrate.Migrate) {
	// Close errors on a finished migrator carry nothing actionable.
	_, _ = m.Close()
}
