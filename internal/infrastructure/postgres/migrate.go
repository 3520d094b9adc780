package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/assets"
	"github.com/fastygo/studytracker/internal/config"
)

// RunMigrations applies pending migrations when enabled. The embedded set is used
// unless cfg.Migrations.Path names a directory.
func RunMigrations(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil || !cfg.Migrations.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := retry(ctx, cfg.Database.ConnectAttempts, cfg.Database.ConnectBackoff, logger, sqlDB.PingContext); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, origin, err := newMigrator(cfg.Migrations.Path, cfg.Database.Name, driver)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations from %s: %w", origin, err)
	}

	version, dirty, _ := m.Version()
	logger.Info("database migrations applied",
		zap.String("source", origin),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

func newMigrator(path, dbName string, driver database.Driver) (*migrate.Migrate, string, error) {
	if path != "" {
		sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(path))
		m, err := migrate.NewWithDatabaseInstance(sourceURL, dbName, driver)
		return m, sourceURL, err
	}

	src, err := iofs.New(assets.Migrations, "migrations")
	if err != nil {
		return nil, "", err
	}
	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	return m, "embedded", err
}
