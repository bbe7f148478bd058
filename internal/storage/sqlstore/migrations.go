package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrationsFS holds one directory of schema migrations per dialect.
//
//go:embed migrations
var migrationsFS embed.FS

// NewMigrator returns a golang-migrate instance over the embedded
// migrations for cfg's dialect. It owns a dedicated connection pool which
// is released by calling Close on the returned Migrate.
func NewMigrator(cfg Config) (*migrate.Migrate, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := d.migrationDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration database: %w", err)
	}

	driver, err := migrationDriver(d, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+d.name)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, d.name, driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

func migrationDriver(d dialect, db *sql.DB) (database.Driver, error) {
	switch d.name {
	case DriverMySQL:
		return migratemysql.WithInstance(db, &migratemysql.Config{})
	case DriverPostgres:
		return migratepostgres.WithInstance(db, &migratepostgres.Config{})
	default:
		return migratesqlite.WithInstance(db, &migratesqlite.Config{})
	}
}

// runMigrations applies every pending migration.
func runMigrations(cfg Config) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	slog.Info("Database schema ready", "driver", cfg.Driver, "version", version, "dirty", dirty)
	return nil
}

// migrateLogger adapts golang-migrate's logger to slog.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "migrate")
}

func (migrateLogger) Verbose() bool { return false }
