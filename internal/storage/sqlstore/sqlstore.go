// Package sqlstore implements storage.Store on database/sql for SQLite,
// MySQL and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/dormmess/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Config selects and tunes the database backend.
type Config struct {
	// Driver is one of DriverSQLite (default), DriverMySQL or DriverPostgres.
	Driver string

	// Path is the SQLite database file.
	Path string

	// DSN is the MySQL or PostgreSQL connection string.
	DSN string

	// MaxOpenConns caps the pool. Ignored for SQLite, which always uses one
	// connection so writers never contend for the file lock.
	MaxOpenConns int

	// QueryTimeout bounds every store method. Zero means no timeout.
	QueryTimeout time.Duration

	// Hooks observe every statement.
	Hooks []Hook
}

// Store implements storage.Store on a SQL database.
type Store struct {
	db      *sql.DB
	dialect dialect
	hooks   []Hook
	timeout time.Duration
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open applies pending migrations and connects to the database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	cfg.Driver = d.name

	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dsn, err := d.dsn(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d.name == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &Store{
		db:      db,
		dialect: d,
		hooks:   cfg.Hooks,
		timeout: cfg.QueryTimeout,
	}

	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Database connected", "driver", d.name)
	return s, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the normalized driver name.
func (s *Store) Driver() string {
	return s.dialect.name
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) observe(ctx context.Context, query string, start time.Time, err error) {
	d := time.Since(start)
	for _, h := range s.hooks {
		h.AfterQuery(ctx, query, d, err)
	}
}

func (s *Store) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	query = s.dialect.rebind(query)
	start := time.Now()
	res, err := q.ExecContext(ctx, query, args...)
	err = mapError(err)
	s.observe(ctx, query, start, err)
	return res, err
}

// query runs a statement returning rows. Only the time to first row is
// reported to hooks.
func (s *Store) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	query = s.dialect.rebind(query)
	start := time.Now()
	rows, err := q.QueryContext(ctx, query, args...)
	err = mapError(err)
	s.observe(ctx, query, start, err)
	return rows, err
}

// scanRow runs a single-row query and scans it into dest.
// A missing row is reported as storage.ErrNotFound.
func (s *Store) scanRow(ctx context.Context, q querier, query string, args []any, dest ...any) error {
	query = s.dialect.rebind(query)
	start := time.Now()
	err := mapError(q.QueryRowContext(ctx, query, args...).Scan(dest...))
	s.observe(ctx, query, start, err)
	return err
}

// insert runs an INSERT and returns the generated id.
func (s *Store) insert(ctx context.Context, q querier, query string, args ...any) (int64, error) {
	if s.dialect.returning {
		var id int64
		err := s.scanRow(ctx, q, query+" RETURNING id", args, &id)
		return id, err
	}

	res, err := s.exec(ctx, q, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// mustAffect turns a zero-row UPDATE or DELETE into storage.ErrNotFound.
func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
