package sqlstore

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// Supported values for Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// dialect captures the SQL differences between the supported databases.
type dialect struct {
	// name selects the migrations directory and the golang-migrate driver.
	name string

	// driverName is the name registered with database/sql.
	driverName string

	// numbered means placeholders are $1, $2, ... instead of ?.
	numbered bool

	// returning means inserted ids are read with RETURNING instead of LastInsertId.
	returning bool
}

func lookupDialect(name string) (dialect, error) {
	switch strings.ToLower(name) {
	case "", DriverSQLite, "sqlite3":
		return dialect{name: DriverSQLite, driverName: "sqlite"}, nil
	case DriverMySQL:
		return dialect{name: DriverMySQL, driverName: "mysql"}, nil
	case DriverPostgres, "postgresql", "pgsql":
		return dialect{name: DriverPostgres, driverName: "postgres", numbered: true, returning: true}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver: %q", name)
	}
}

// rebind rewrites ? placeholders for dialects with numbered parameters.
// Queries in this package never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// upsert builds an INSERT that overwrites every non-key column when a row
// with the same key already exists.
func (d dialect) upsert(table, key string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)

	var sets []string
	for _, c := range columns {
		if c == key {
			continue
		}
		if d.name == DriverMySQL {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		} else {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}

	if d.name == DriverMySQL {
		return insert + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return insert + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET ", key) + strings.Join(sets, ", ")
}

// dsn builds the connection string for the main pool.
func (d dialect) dsn(cfg Config) (string, error) {
	switch d.name {
	case DriverSQLite:
		return sqliteDSN(cfg.Path)
	case DriverMySQL:
		return mysqlDSN(cfg.DSN, false)
	default:
		if cfg.DSN == "" {
			return "", fmt.Errorf("DSN is required for %s", d.name)
		}
		return cfg.DSN, nil
	}
}

// migrationDSN builds the connection string used while applying migrations.
// MySQL needs multi-statement support for the schema files.
func (d dialect) migrationDSN(cfg Config) (string, error) {
	if d.name == DriverMySQL {
		return mysqlDSN(cfg.DSN, true)
	}
	return d.dsn(cfg)
}

// sqliteDSN creates the parent directory and enables foreign keys and a
// busy timeout on every pooled connection.
func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("database path is required for sqlite")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}

	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	return path + "?" + params.Encode(), nil
}

func mysqlDSN(dsn string, multiStatements bool) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("DSN is required for mysql")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql DSN: %w", err)
	}
	// DATE columns are scanned as text by models.Date.
	cfg.ParseTime = false
	// UPDATE reports matched rows so an unchanged row is not mistaken for a missing one.
	cfg.ClientFoundRows = true
	cfg.MultiStatements = multiStatements
	return cfg.FormatDSN(), nil
}
