package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"book-management/internal/logging"
)

// LibraryManager is a thin façade over the Database, keeping CLI code simple.
type LibraryManager struct {
	db  *Database
	log logging.Logger
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(ctx context.Context, dbPath string, log logging.Logger) (*LibraryManager, error) {
	if log == nil {
		log = logging.Discard()
	}
	db, err := NewDatabase(ctx, dbPath, log)
	if err != nil {
		return nil, err
	}
	return &LibraryManager{db: db, log: log}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// Ping checks that the store is still reachable.
func (lm *LibraryManager) Ping(ctx context.Context) error { return lm.db.Ping(ctx) }

// Database exposes the store for callers that need it directly.
func (lm *LibraryManager) Database() *Database { return lm.db }

// NewSession starts a logged-out session over this manager's store.
func (lm *LibraryManager) NewSession() *Session {
	return NewSession(lm.db, lm.db, lm.log)
}

// ------------------ Bulk loading ------------------

// ImportUsersFromFile loads users from path. A missing file is not an error;
// ok reports whether the file was found.
func (lm *LibraryManager) ImportUsersFromFile(ctx context.Context, path string) (rep ImportReport, ok bool, err error) {
	return lm.importFile(ctx, path, lm.db.ImportUsers)
}

// ImportBooksFromFile loads books from path. A missing file is not an error;
// ok reports whether the file was found.
func (lm *LibraryManager) ImportBooksFromFile(ctx context.Context, path string) (rep ImportReport, ok bool, err error) {
	return lm.importFile(ctx, path, lm.db.ImportBooks)
}

func (lm *LibraryManager) importFile(ctx context.Context, path string,
	load func(context.Context, io.Reader) (ImportReport, error)) (ImportReport, bool, error) {
	f, err := os.Open(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		lm.log.Debug(ctx, "seed file not found", "path", path)
		return ImportReport{}, false, nil
	}
	if err != nil {
		return ImportReport{}, false, err
	}
	defer f.Close()

	rep, err := load(ctx, f)
	lm.log.Info(ctx, "seed file loaded", "path", path, "loaded", rep.Loaded, "skipped", rep.Skipped)
	return rep, true, err
}

// ImportSeedFiles loads users then books and writes a short report for each
// file to w. A missing file is reported and skipped.
func (lm *LibraryManager) ImportSeedFiles(ctx context.Context, usersPath, booksPath string, w io.Writer) error {
	steps := []struct {
		kind string
		path string
		load func(context.Context, string) (ImportReport, bool, error)
	}{
		{"users", usersPath, lm.ImportUsersFromFile},
		{"books", booksPath, lm.ImportBooksFromFile},
	}
	for _, s := range steps {
		rep, ok, err := s.load(ctx, s.path)
		if !ok && err == nil {
			fmt.Fprintf(w, "Skipping %s: %s not found.\n", s.kind, s.path)
			continue
		}
		for _, warn := range rep.Warnings {
			fmt.Fprintln(w, warn)
		}
		fmt.Fprintf(w, "Loaded %d %s from %s (%d skipped).\n", rep.Loaded, s.kind, s.path, rep.Skipped)
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(w, "Database setup complete.")
	return nil
}

// ------------------ Diagnostics ------------------

// DumpFile writes the contents of the database at dbPath to w without
// migrating or otherwise changing it.
func DumpFile(ctx context.Context, dbPath string, w io.Writer, log logging.Logger) error {
	db, err := NewReadOnlyDatabase(ctx, dbPath, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Dump(ctx, w)
}
