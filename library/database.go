package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"book-management/internal/logging"
	"book-management/library/migrations"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// Database is the SQLite-backed credential store and inventory.
type Database struct {
	db  *sql.DB
	log logging.Logger

	authStmt *sql.Stmt
}

// DBTX is the part of database/sql shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
//
// Every transaction is started with BEGIN IMMEDIATE so a check-then-write
// sequence holds the write lock from its first statement.
func NewDatabase(ctx context.Context, dbPath string, log logging.Logger) (*Database, error) {
	if log == nil {
		log = logging.Discard()
	}
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageErr("create db dir", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, storageErr("open sqlite", err)
	}

	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, storageErr("apply migrations", err)
	}

	database := &Database{db: db, log: log}
	if err := database.prepareStatements(ctx); err != nil {
		db.Close()
		return nil, storageErr("prepare statements", err)
	}
	log.Debug(ctx, "database opened", "path", dbPath)
	return database, nil
}

// NewReadOnlyDatabase opens an existing database without migrating it. Used by
// diagnostics that must not change the file.
func NewReadOnlyDatabase(ctx context.Context, dbPath string, log logging.Logger) (*Database, error) {
	if log == nil {
		log = logging.Discard()
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, storageErr("open sqlite", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storageErr("open sqlite", err)
	}
	return &Database{db: db, log: log}, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.authStmt != nil {
		d.authStmt.Close()
	}
	return d.db.Close()
}

// Ping reports whether the underlying handle can still reach the file.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

func applyMigrations(ctx context.Context, db *sql.DB) error {
	// WAL lets the dump utility read while a session writes.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUp(ctx, db, ".")
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements(ctx context.Context) error {
	var err error
	if d.authStmt, err = d.db.PrepareContext(ctx, `SELECT role FROM users WHERE username = ? AND secret = ?`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// withTx runs fn inside a transaction, committing on success and rolling back
// on error or panic. Panics are rethrown.
func (d *Database) withTx(ctx context.Context, fn func(tx DBTX) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = storageErr("commit", cerr)
		}
	}()

	return fn(tx)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
