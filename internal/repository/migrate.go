package repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration for the handle's dialect. It uses its
// own connection because the migrate drivers close the handle they are given.
func (d *DB) Migrate() error {
	var (
		dir     string
		drvName string
		open    string
	)
	switch d.dialect {
	case dialect.Postgres:
		dir, drvName, open = "migrations/postgres", "pgx5", "pgx"
	case dialect.SQLite:
		dir, drvName, open = "migrations/sqlite", "sqlite", "sqlite"
	default:
		return fmt.Errorf("no migrations for dialect %q", d.dialect)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	mdb, err := sql.Open(open, d.dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	var driver database.Driver
	if d.dialect == dialect.Postgres {
		driver, err = pgxmigrate.WithInstance(mdb, &pgxmigrate.Config{})
	} else {
		driver, err = sqlitemigrate.WithInstance(mdb, &sqlitemigrate.Config{})
	}
	if err != nil {
		_ = mdb.Close()
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, drvName, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			d.logger.Warn("closing migrator", "source_error", srcErr, "db_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	version, dirty, _ := m.Version()
	d.logger.Info("database migrated", "version", version, "dirty", dirty)
	return nil
}
