package library

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"book-management/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func tempDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(context.Background(), tempDBPath(t), logging.Discard())
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *Database, username, secret string, role Role) {
	t.Helper()
	require.NoError(t, db.AddUser(context.Background(), User{Username: username, Secret: secret, Role: role}))
}

func TestNewDatabase_CreatesSchema(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	tables, err := db.tableNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "users")
	assert.Contains(t, tables, "books")
	assert.NotContains(t, tables, "loans", "loans is created on first borrow")
}

func TestNewDatabase_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)

	db, err := NewDatabase(ctx, path, nil)
	require.NoError(t, err)
	_, err = db.AddBook(ctx, "Dune", "Frank Herbert", 1965, "111")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDatabase(ctx, path, nil)
	require.NoError(t, err)
	defer db.Close()

	n, err := db.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewDatabase_CreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "lib.db")
	db, err := NewDatabase(context.Background(), path, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestNewDatabase_MigrationFailureIsStorageUnavailable(t *testing.T) {
	orig := gooseUp
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		return errors.New("boom")
	}
	defer func() { gooseUp = orig }()

	_, err := NewDatabase(context.Background(), tempDBPath(t), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "boom")
}

func TestClosedDatabase_ReportsStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	db, err := NewDatabase(ctx, tempDBPath(t), nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.SearchBooks(ctx, BookFilter{})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = db.AddBook(ctx, "T", "A", 2000, "1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = db.Authenticate(ctx, "alice", "pw")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	assert.ErrorIs(t, db.Ping(ctx), ErrStorageUnavailable)
}

func TestNewReadOnlyDatabase_MissingFile(t *testing.T) {
	_, err := NewReadOnlyDatabase(context.Background(), tempDBPath(t), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestNewReadOnlyDatabase_RejectsWrites(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)
	rw, err := NewDatabase(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	ro, err := NewReadOnlyDatabase(ctx, path, nil)
	require.NoError(t, err)
	defer ro.Close()

	_, err = ro.AddBook(ctx, "T", "A", 2000, "1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	sentinel := errors.New("stop")

	err := db.withTx(ctx, func(tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO books(title, author, year, isbn) VALUES('T','A',1,'x')`); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	n, err := db.CountBooks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithTx_RollsBackAndRethrowsPanic(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	require.PanicsWithValue(t, "kaboom", func() {
		_ = db.withTx(ctx, func(tx DBTX) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO books(title, author, year, isbn) VALUES('T','A',1,'x')`)
			panic("kaboom")
		})
	})

	n, err := db.CountBooks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
