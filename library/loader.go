package library

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ImportReport summarises a bulk load. Warnings are human-readable and in
// input order.
type ImportReport struct {
	Loaded   int
	Skipped  int
	Warnings []string
}

func (r *ImportReport) skip(ctx context.Context, d *Database, msg string) {
	r.Skipped++
	r.Warnings = append(r.Warnings, msg)
	d.log.Warn(ctx, "import row skipped", "reason", msg)
}

// ImportUsers reads "username, secret, role" lines and stores each user.
// Malformed lines and existing usernames are skipped with a warning; only a
// storage or read failure stops the load.
func (d *Database) ImportUsers(ctx context.Context, r io.Reader) (ImportReport, error) {
	var rep ImportReport
	err := readSeedRecords(r, func(line int, fields []string, perr error) error {
		if perr != nil {
			rep.skip(ctx, d, fmt.Sprintf("line %d: %v", line, perr))
			return nil
		}
		if len(fields) != 3 {
			rep.skip(ctx, d, fmt.Sprintf("line %d: want 3 fields (username, password, role), got %d", line, len(fields)))
			return nil
		}
		role, err := ParseRole(fields[2])
		if err != nil {
			rep.skip(ctx, d, fmt.Sprintf("line %d: %v", line, err))
			return nil
		}
		u := User{Username: fields[0], Secret: fields[1], Role: role}
		switch err := d.AddUser(ctx, u); {
		case errors.Is(err, ErrDuplicateUsername):
			rep.skip(ctx, d, fmt.Sprintf("User %s already exists.", u.Username))
		case err != nil:
			return err
		default:
			rep.Loaded++
		}
		return nil
	})
	return rep, err
}

// ImportBooks reads "title, author, year, isbn" lines and stores each book.
// Malformed lines and taken ISBNs are skipped with a warning.
func (d *Database) ImportBooks(ctx context.Context, r io.Reader) (ImportReport, error) {
	var rep ImportReport
	err := readSeedRecords(r, func(line int, fields []string, perr error) error {
		if perr != nil {
			rep.skip(ctx, d, fmt.Sprintf("line %d: %v", line, perr))
			return nil
		}
		if len(fields) != 4 {
			rep.skip(ctx, d, fmt.Sprintf("line %d: want 4 fields (title, author, year, isbn), got %d", line, len(fields)))
			return nil
		}
		year, err := strconv.Atoi(fields[2])
		if err != nil {
			rep.skip(ctx, d, fmt.Sprintf("line %d: year %q is not a number", line, fields[2]))
			return nil
		}
		title := fields[0]
		switch _, err := d.AddBook(ctx, title, fields[1], year, fields[3]); {
		case errors.Is(err, ErrDuplicateISBN):
			rep.skip(ctx, d, fmt.Sprintf("Book %s already exists.", title))
		case err != nil:
			return err
		default:
			rep.Loaded++
		}
		return nil
	})
	return rep, err
}

// readSeedRecords feeds each comma-separated record of r to fn with its
// fields trimmed. Blank lines are skipped. Quoted fields may contain commas.
// A record that cannot be parsed is passed with a non-nil perr so fn can
// report it; reading then continues with the next line.
func readSeedRecords(r io.Reader, fn func(line int, fields []string, perr error) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			if ferr := fn(perr.StartLine, nil, perr.Err); ferr != nil {
				return ferr
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("read seed data: %w", err)
		}

		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		line, _ := cr.FieldPos(0)
		fields := make([]string, len(rec))
		for i, f := range rec {
			fields[i] = strings.TrimSpace(f)
		}
		if err := fn(line, fields, nil); err != nil {
			return err
		}
	}
}
