package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	"github.com/albedo-dev/albedo/internal/config"
)

// MigrateUp applies all pending migrations from the given directory.
// A database that is already up to date is not an error.
func MigrateUp(cfg config.DatabaseConfig, dir string) error {
	m, err := newMigrator(cfg, dir)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading migration version: %w", err)
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Database migrations applied")
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(cfg config.DatabaseConfig, dir string) error {
	m, err := newMigrator(cfg, dir)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	log.Info().Msg("Rolled back one migration")
	return nil
}

func newMigrator(cfg config.DatabaseConfig, dir string) (*migrate.Migrate, error) {
	// The scheme selects the registered migrate driver; pgx/v5 is
	// registered as pgx5.
	dsn := strings.Replace(cfg.DSN(), "postgres://", "pgx5://", 1)
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return nil, fmt.Errorf("initializing migrator: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		log.Warn().Err(sourceErr).Msg("Closing migration source")
	}
	if dbErr != nil {
		log.Warn().Err(dbErr).Msg("Closing migration database connection")
	}
}
