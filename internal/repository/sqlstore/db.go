package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/egannguyen/printshop-backend/internal/repository/sqlstore/migrations"
)

// Dialect selects the driver and SQL flavour.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect validates a configured driver name.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(name)) {
	case Postgres:
		return Postgres, nil
	case SQLite, "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// DB is the storage handle shared by the repositories. Each repository
// operation acquires a connection (and, for writes, a transaction) for its
// own duration only.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Dialect returns the SQL flavour of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// InitDB opens the database, verifies it is reachable and applies pending
// migrations.
func InitDB(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	var (
		sqlDB *sql.DB
		err   error
	)
	switch dialect {
	case Postgres:
		sqlDB, err = sql.Open("postgres", dsn)
	case SQLite:
		sqlDB, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err == nil {
			// A single connection serializes writers; WAL keeps readers off the lock.
			sqlDB.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: sqlDB, dialect: dialect}
	if err := db.migrate(ctx, migrations.FS); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated", "driver", string(dialect))
	return db, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// migrate applies every <version>_<name>.up.sql of the dialect directory
// that is newer than the recorded schema version.
func (db *DB) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	dir := string(db.dialect)
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		err = db.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, db.rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"), version, name)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		slog.Debug("Applied migration", "name", name)
	}
	return nil
}

// withTx runs fn inside a transaction. The transaction is rolled back unless
// fn returns nil and the commit succeeds.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
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

// rebind rewrites ? placeholders into the dialect's positional form.
func (db *DB) rebind(query string) string {
	if db.dialect != Postgres {
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
