// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlite "github.com/mattn/go-sqlite3"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/config"
	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const defaultBusyTimeoutMS = 5000

// DB is an explicit handle to the booking datastore. Components receive it
// through their constructors; nothing in the module reaches for a global.
type DB struct {
	*sql.DB
	Queries *dbgen.Queries
	dsn     string
}

// New opens a SQLite database for the given data source name, applies the
// connection parameters the booking engine depends on, runs embedded
// migrations, and returns a DB with generated queries bound to the connection.
func New(dataSourceName string) (*DB, error) {
	return Open(context.Background(), dataSourceName, defaultBusyTimeoutMS)
}

// NewFromConfig creates a DB from cfg, creating the database directory if needed.
func NewFromConfig(cfg *config.Config) (*DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Filename), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
		return Open(context.Background(), cfg.Database.Filename, cfg.Database.BusyTimeoutMS)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// Open connects, verifies the connection, and migrates.
func Open(ctx context.Context, dataSourceName string, busyTimeoutMS int) (*DB, error) {
	dsn := buildDSN(dataSourceName, busyTimeoutMS)
	sqlDB, err := connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	return &DB{
		DB:      sqlDB,
		Queries: dbgen.New(sqlDB),
		dsn:     dsn,
	}, nil
}

// Reconnect replaces the underlying connection pool with a fresh one for the
// same DSN. The old pool is closed only after the new one answers a ping.
// Callers must not run queries on db concurrently with Reconnect.
func (db *DB) Reconnect(ctx context.Context) error {
	if db == nil || db.dsn == "" {
		return fmt.Errorf("database was not opened with a DSN")
	}
	fresh, err := connect(ctx, db.dsn)
	if err != nil {
		return err
	}
	old := db.DB
	db.DB = fresh
	db.Queries = dbgen.New(fresh)
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Close releases the connection pool. It is safe to call on a nil DB.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

func connect(ctx context.Context, dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return sqlDB, nil
}

// buildDSN enables foreign keys, makes every transaction BEGIN IMMEDIATE so the
// write lock is taken before the first capacity read, and sets a busy timeout
// so contending writers wait instead of failing with SQLITE_BUSY.
func buildDSN(dataSourceName string, busyTimeoutMS int) string {
	if busyTimeoutMS <= 0 {
		busyTimeoutMS = defaultBusyTimeoutMS
	}
	params := []struct{ key, value string }{
		{"_fk", "1"},
		{"_txlock", "immediate"},
		{"_busy_timeout", strconv.Itoa(busyTimeoutMS)},
		{"_journal_mode", "WAL"},
	}
	dsn := dataSourceName
	for _, p := range params {
		if strings.Contains(dsn, p.key+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.key + "=" + p.value
	}
	return dsn
}

// NewMigrator returns a migrate instance over the embedded SQL migrations.
// The caller owns sqlDB; closing the migrator also closes it.
func NewMigrator(sqlDB *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not create source: %w", err)
	}

	m, err := migrate.NewWithInstance(
		"iofs", source,
		"sqlite3", driver,
	)
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}

// runMigrations applies the embedded SQL migrations to the provided database.
// A "no change" result is not treated as an error.
func runMigrations(db *sql.DB) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// WithTx creates a new DB instance with the given transaction
func (db *DB) WithTx(tx *sql.Tx) *DB {
	return &DB{
		DB:      db.DB,
		Queries: dbgen.New(tx),
		dsn:     db.dsn,
	}
}

// BeginTx starts a transaction
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	return tx, nil
}

// RunInTx runs the given function in a transaction
func (db *DB) RunInTx(ctx context.Context, fn func(*DB) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	txDB := db.WithTx(tx)
	if err := fn(txDB); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("error rolling back: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite.ErrConstraintPrimaryKey
}

// IsBusy reports whether err is SQLite reporting a locked database after the busy timeout.
func IsBusy(err error) bool {
	var sqliteErr sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite.ErrBusy || sqliteErr.Code == sqlite.ErrLocked
}
