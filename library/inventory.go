package library

import (
	"context"
	"database/sql"
	"errors"
)

const bookColumnsSQL = `id, title, author, COALESCE(year, 0), COALESCE(isbn, '')`

// AddBook inserts a book and returns its id. The ISBN check and the insert run
// in one transaction; a taken ISBN leaves the store unchanged.
func (d *Database) AddBook(ctx context.Context, title, author string, year int, isbn string) (int64, error) {
	var id int64
	err := d.withTx(ctx, func(tx DBTX) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE isbn = ?)`, isbn).Scan(&exists); err != nil {
			return storageErr("add book", err)
		}
		if exists {
			return ErrDuplicateISBN
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO books(title, author, year, isbn) VALUES(?, ?, ?, ?)`,
			title, author, year, isbn)
		if isUniqueViolation(err) {
			return ErrDuplicateISBN
		}
		if err != nil {
			return storageErr("add book", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return storageErr("add book", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	d.log.Info(ctx, "book added", "id", id, "isbn", isbn)
	return id, nil
}

// DeleteBook removes the book with the given ISBN and returns how many rows
// went away. Zero means there was no such book; that is not an error.
func (d *Database) DeleteBook(ctx context.Context, isbn string) (int64, error) {
	var n int64
	err := d.withTx(ctx, func(tx DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE isbn = ?`, isbn)
		if err != nil {
			return storageErr("delete book", err)
		}
		if n, err = res.RowsAffected(); err != nil {
			return storageErr("delete book", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	d.log.Info(ctx, "book deleted", "isbn", isbn, "rows", n)
	return n, nil
}

// SearchBooks returns the books matching every constraint in f, ordered by id.
func (d *Database) SearchBooks(ctx context.Context, f BookFilter) ([]Book, error) {
	where, args := f.whereClause()
	rows, err := d.db.QueryContext(ctx, `SELECT `+bookColumnsSQL+` FROM books`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, storageErr("search books", err)
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.ISBN); err != nil {
			return nil, storageErr("search books", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("search books", err)
	}
	return books, nil
}

// GetBookByISBN fetches a single book.
func (d *Database) GetBookByISBN(ctx context.Context, isbn string) (*Book, error) {
	return getBookByISBN(ctx, d.db, isbn)
}

func getBookByISBN(ctx context.Context, q DBTX, isbn string) (*Book, error) {
	var b Book
	err := q.QueryRowContext(ctx, `SELECT `+bookColumnsSQL+` FROM books WHERE isbn = ?`, isbn).
		Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.ISBN)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, storageErr("get book", err)
	}
	return &b, nil
}

// CountBooks returns the number of books in the catalog.
func (d *Database) CountBooks(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, storageErr("count books", err)
	}
	return n, nil
}

// BorrowBook records a loan of the book with the given ISBN and returns the
// title it was recorded under. The loan keeps the title, not the book id, and
// there is no availability check: a book may be on loan to several users.
func (d *Database) BorrowBook(ctx context.Context, borrower, isbn string) (string, error) {
	var title string
	err := d.withTx(ctx, func(tx DBTX) error {
		b, err := getBookByISBN(ctx, tx, isbn)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS loans (
            borrower   TEXT NOT NULL,
            book_title TEXT NOT NULL
        )`); err != nil {
			return storageErr("borrow book", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO loans(borrower, book_title) VALUES(?, ?)`, borrower, b.Title); err != nil {
			return storageErr("borrow book", err)
		}
		title = b.Title
		return nil
	})
	if err != nil {
		return "", err
	}
	d.log.Info(ctx, "book borrowed", "borrower", borrower, "isbn", isbn)
	return title, nil
}

// ListBorrowed returns every loan in the order it was recorded. Before the
// first borrow the loans table does not exist and the list is empty.
func (d *Database) ListBorrowed(ctx context.Context) ([]Loan, error) {
	loans := []Loan{}

	var exists bool
	if err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'loans')`).Scan(&exists); err != nil {
		return nil, storageErr("list borrowed", err)
	}
	if !exists {
		return loans, nil
	}

	rows, err := d.db.QueryContext(ctx, `SELECT borrower, book_title FROM loans ORDER BY rowid`)
	if err != nil {
		return nil, storageErr("list borrowed", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Loan
		if err := rows.Scan(&l.Borrower, &l.BookTitle); err != nil {
			return nil, storageErr("list borrowed", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list borrowed", err)
	}
	return loans, nil
}
