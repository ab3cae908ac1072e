package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SchemaVersion is the newest migration version this build understands.
// Export documents are stamped with it.
const SchemaVersion = 2

// DB wraps the SQL database connection
type DB struct {
	*sql.DB

	// mu serializes every mutation on this store instance
	mu        sync.Mutex
	log       logrus.FieldLogger
	backupDir string
	now       func() time.Time
}

// DefaultDataDir returns the default data directory path
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tabshelf"
	}
	return filepath.Join(home, ".local", "share", "tabshelf")
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "tabshelf.db")
}

// Open opens a database connection and runs pending migrations.
// It fails with SchemaVersionMismatch if the file was written by a newer build.
func Open(dbPath string, logger logrus.FieldLogger) (*DB, error) {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	log := logger.WithField("component", "db")

	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, ioFailure("open", fmt.Errorf("failed to create data directory: %w", err))
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dbPath)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, ioFailure("open", fmt.Errorf("failed to open database: %w", err))
	}

	// SQLite only supports one writer. Callers must close rows before issuing
	// another query or they deadlock on this single connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, ioFailure("open", fmt.Errorf("failed to connect to database: %w", err))
	}

	db := &DB{
		DB:        sqlDB,
		log:       log,
		backupDir: filepath.Join(dir, "backups"),
		now:       func() time.Time { return time.Now().UTC() },
	}

	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	log.WithField("path", dbPath).Info("store opened")
	return db, nil
}

// migrate runs database migrations using embedded SQL files
func (db *DB) migrate() error {
	goose.SetLogger(db.log)
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return ioFailure("migrate", fmt.Errorf("failed to set dialect: %w", err))
	}

	current, err := goose.GetDBVersion(db.DB)
	if err != nil {
		return ioFailure("migrate", fmt.Errorf("failed to read schema version: %w", err))
	}
	if current > SchemaVersion {
		return &StorageError{
			Kind: KindSchemaVersionMismatch,
			Op:   "migrate",
			Err:  fmt.Errorf("database is at version %d, this build understands up to %d", current, SchemaVersion),
		}
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return ioFailure("migrate", fmt.Errorf("failed to run migrations: %w", err))
	}

	if current < SchemaVersion {
		db.log.WithFields(logrus.Fields{"from": current, "to": SchemaVersion}).Info("schema migrated")
	}
	return nil
}

// Version returns the schema version recorded in the database
func (db *DB) Version() (int64, error) {
	v, err := goose.GetDBVersion(db.DB)
	if err != nil {
		return 0, ioFailure("version", err)
	}
	return v, nil
}

// BackupDir returns the directory used for safety exports
func (db *DB) BackupDir() string {
	return db.backupDir
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Transaction executes fn within a transaction while holding the write lock.
// Any error rolls the whole unit back.
func (db *DB) Transaction(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.runTx(ctx, op, fn)
}

// runTx is Transaction for callers already holding the write lock
func (db *DB) runTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ioFailure(op, err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return ioFailure(op, err)
	}

	if err := tx.Commit(); err != nil {
		return ioFailure(op, err)
	}
	return nil
}

// stamp returns a write timestamp that never goes below prev
func (db *DB) stamp(prev time.Time) time.Time {
	now := db.now()
	if now.Before(prev) {
		return prev
	}
	return now
}
