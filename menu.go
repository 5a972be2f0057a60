package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"book-management/library"
)

// errInputClosed ends the loop when stdin runs out mid-prompt.
var errInputClosed = errors.New("input closed")

// errExit is returned by the Exit handler to stop the loop cleanly.
var errExit = errors.New("exit")

// menu is the interactive front-end over a single Session. It owns no
// business rules: every choice becomes a Request for Session.Dispatch.
type menu struct {
	sc   *bufio.Scanner
	out  io.Writer
	sess *library.Session
	ping func(context.Context) error

	// readSecret reads a secret without echo. When nil the secret is read
	// as a plain line, which is what piped input and tests need.
	readSecret func(prompt string) (string, error)
}

func newMenu(sc *bufio.Scanner, out io.Writer, sess *library.Session, ping func(context.Context) error) *menu {
	return &menu{sc: sc, out: out, sess: sess, ping: ping}
}

// run shows the menu for the current state until the user exits or input
// ends. It returns an error only when the store has become unusable.
func (m *menu) run(ctx context.Context) error {
	for {
		ops := m.sess.PermittedOperations()
		m.show(ops)

		line, err := m.ask("Enter your choice: ")
		if err != nil {
			return nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(ops) {
			fmt.Fprintln(m.out, "Invalid choice. Please try again.")
			continue
		}

		err = m.handle(ctx, ops[n-1])
		switch {
		case err == nil:
		case errors.Is(err, errExit), errors.Is(err, errInputClosed):
			return nil
		default:
			if fatal := m.report(ctx, err); fatal != nil {
				return fatal
			}
		}
	}
}

func (m *menu) show(ops []library.Operation) {
	header := "Main Menu:"
	if p, ok := m.sess.Principal(); ok {
		switch p.Role {
		case library.RoleAdmin:
			header = "Admin Menu:"
		case library.RoleMember:
			header = "Member Menu:"
		}
	}
	fmt.Fprintf(m.out, "\n%s\n", header)
	for i, op := range ops {
		fmt.Fprintf(m.out, "%d. %s\n", i+1, op)
	}
}

// report prints an operation failure. Storage failures are followed by a
// ping; a dead handle is returned as fatal.
func (m *menu) report(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, library.ErrInvalidCredentials):
		fmt.Fprintln(m.out, "Invalid username or password.")
	case errors.Is(err, library.ErrDuplicateISBN):
		fmt.Fprintln(m.out, "Book with this ISBN already exists.")
	case errors.Is(err, library.ErrBookNotFound):
		fmt.Fprintln(m.out, "Book not found.")
	case errors.Is(err, library.ErrUnauthorized):
		fmt.Fprintln(m.out, "You are not allowed to do that.")
	case errors.Is(err, library.ErrStorageUnavailable):
		fmt.Fprintf(m.out, "Storage error: %v\n", err)
		if perr := m.ping(ctx); perr != nil {
			return fmt.Errorf("database unavailable: %w", perr)
		}
	default:
		fmt.Fprintf(m.out, "Error: %v\n", err)
	}
	return nil
}

func (m *menu) handle(ctx context.Context, op library.Operation) error {
	switch op {
	case library.OpLogin:
		return m.handleLogin(ctx)
	case library.OpExit:
		if _, err := m.sess.Dispatch(ctx, library.Request{Op: op}); err != nil {
			return err
		}
		fmt.Fprintln(m.out, "Exiting system. Goodbye!")
		return errExit
	case library.OpLogout:
		res, err := m.sess.Dispatch(ctx, library.Request{Op: op})
		if err != nil {
			return err
		}
		fmt.Fprintf(m.out, "Goodbye, %s!\n", res.Principal.Username)
		return nil
	case library.OpAddBook:
		return m.handleAddBook(ctx)
	case library.OpDeleteBook:
		return m.handleDeleteBook(ctx)
	case library.OpSearch:
		return m.handleSearchBooks(ctx)
	case library.OpBorrow:
		return m.handleBorrow(ctx)
	}
	return fmt.Errorf("%s: %w", op, library.ErrUnauthorized)
}

func (m *menu) handleLogin(ctx context.Context) error {
	username, err := m.ask("Enter username: ")
	if err != nil {
		return err
	}
	secret, err := m.askSecret("Enter password: ")
	if err != nil {
		return err
	}

	res, err := m.sess.Dispatch(ctx, library.Request{Op: library.OpLogin, Username: username, Secret: secret})
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Login successful! Welcome, %s (%s).\n", res.Principal.Username, res.Principal.Role)
	return nil
}

func (m *menu) handleAddBook(ctx context.Context) error {
	var b library.Book
	var err error
	if b.Title, err = m.ask("Enter book title: "); err != nil {
		return err
	}
	if b.Author, err = m.ask("Enter author name: "); err != nil {
		return err
	}
	year, err := m.askYear("Enter publication year: ", false)
	if err != nil {
		return err
	}
	b.Year = *year
	if b.ISBN, err = m.ask("Enter ISBN: "); err != nil {
		return err
	}

	if _, err := m.sess.Dispatch(ctx, library.Request{Op: library.OpAddBook, Book: b}); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Book '%s' added successfully!\n", b.Title)
	return nil
}

func (m *menu) handleDeleteBook(ctx context.Context) error {
	isbn, err := m.ask("Enter the ISBN of the book to delete: ")
	if err != nil {
		return err
	}
	res, err := m.sess.Dispatch(ctx, library.Request{Op: library.OpDeleteBook, ISBN: isbn})
	if err != nil {
		return err
	}
	if res.Deleted == 0 {
		fmt.Fprintf(m.out, "No book found with ISBN %s.\n", isbn)
		return nil
	}
	fmt.Fprintf(m.out, "Book with ISBN %s deleted successfully.\n", isbn)
	return nil
}

func (m *menu) handleSearchBooks(ctx context.Context) error {
	fmt.Fprintln(m.out, "\nEnter search criteria (leave blank if not applicable):")
	var f library.BookFilter
	var err error
	if f.Title, err = m.ask("Title: "); err != nil {
		return err
	}
	if f.Author, err = m.ask("Author: "); err != nil {
		return err
	}
	if f.Year, err = m.askYear("Year: ", true); err != nil {
		return err
	}
	if f.ISBN, err = m.ask("ISBN: "); err != nil {
		return err
	}

	res, err := m.sess.Dispatch(ctx, library.Request{Op: library.OpSearch, Filter: f})
	if err != nil {
		return err
	}
	if len(res.Books) == 0 {
		fmt.Fprintln(m.out, "No books match your criteria.")
		return nil
	}

	fmt.Fprintf(m.out, "\nFound %d book(s):\n", len(res.Books))
	fmt.Fprintf(m.out, "%-30s %-25s %-6s %s\n", "Title", "Author", "Year", "ISBN")
	fmt.Fprintln(m.out, strings.Repeat("-", 80))
	for _, b := range res.Books {
		fmt.Fprintf(m.out, "%-30s %-25s %-6d %s\n",
			truncateString(b.Title, 30),
			truncateString(b.Author, 25),
			b.Year,
			b.ISBN)
	}
	return nil
}

func (m *menu) handleBorrow(ctx context.Context) error {
	isbn, err := m.ask("Enter the ISBN of the book to borrow: ")
	if err != nil {
		return err
	}
	res, err := m.sess.Dispatch(ctx, library.Request{Op: library.OpBorrow, ISBN: isbn})
	if err != nil {
		return err
	}
	p, _ := m.sess.Principal()
	fmt.Fprintf(m.out, "%s has borrowed '%s'.\n", p.Username, res.Title)
	return nil
}

// ask prints prompt and returns the next trimmed line.
func (m *menu) ask(prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	if !m.sc.Scan() {
		return "", errInputClosed
	}
	return strings.TrimSpace(m.sc.Text()), nil
}

func (m *menu) askSecret(prompt string) (string, error) {
	if m.readSecret != nil {
		return m.readSecret(prompt)
	}
	fmt.Fprint(m.out, prompt)
	if !m.sc.Scan() {
		return "", errInputClosed
	}
	return strings.TrimRight(m.sc.Text(), "\r"), nil
}

// askYear keeps prompting until it gets a whole number. With optional set a
// blank answer returns nil.
func (m *menu) askYear(prompt string, optional bool) (*int, error) {
	for {
		s, err := m.ask(prompt)
		if err != nil {
			return nil, err
		}
		if s == "" && optional {
			return nil, nil
		}
		year, err := parseYear(s)
		if err == nil {
			return &year, nil
		}
		fmt.Fprintf(m.out, "%v. Please enter a whole number.\n", err)
	}
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: year %q", library.ErrInvalidInput, s)
	}
	return year, nil
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
