package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"spesebot/internal/core"
	"spesebot/internal/log"
)

//go:embed migrations
var migrationsFS embed.FS

// RunMigrations brings the schema up to date. It uses its own handle because
// the migrate drivers close the instance they are given.
func RunMigrations(ctx context.Context, open Opener, driver Driver) error {
	migrateDB, err := open(ctx)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	var dbDriver database.Driver
	switch driver {
	case MySQL:
		dbDriver, err = migratemysql.WithInstance(migrateDB, &migratemysql.Config{})
	case SQLite:
		dbDriver, err = sqlite.WithInstance(migrateDB, &sqlite.Config{})
	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", driver, err)
	}

	d, err := iofs.New(migrationsFS, "migrations/"+driver.String())
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, driver.String(), dbDriver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Open connects, migrates the schema and makes sure the budget row exists.
// Any failure here is a startup failure.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Manager, error) {
	if !cfg.Driver.IsValid() {
		return nil, fmt.Errorf("invalid database driver: %s", cfg.Driver)
	}

	opener, err := NewOpener(cfg)
	if err != nil {
		return nil, err
	}

	m := NewManager(cfg.Driver, opener, cfg.Timeout, logger)
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, opener, cfg.Driver); err != nil {
		m.Close()
		return nil, err
	}
	m.logger.InfoContext(ctx, "Schema is up to date",
		log.FieldOperation, log.OpMigrate,
		log.FieldDriver, cfg.Driver)

	if err := NewRepository(m).EnsureBudget(ctx, core.DefaultBudget); err != nil {
		m.Close()
		return nil, err
	}

	return m, nil
}
