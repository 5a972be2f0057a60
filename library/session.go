package library

import (
	"context"
	"fmt"
	"slices"

	"book-management/internal/logging"

	"github.com/google/uuid"
)

// Operation is an action a session can be asked to perform.
type Operation int

const (
	OpLogin Operation = iota + 1
	OpExit
	OpAddBook
	OpDeleteBook
	OpSearch
	OpBorrow
	OpLogout
)

func (op Operation) String() string {
	switch op {
	case OpLogin:
		return "Login"
	case OpExit:
		return "Exit"
	case OpAddBook:
		return "Add Book"
	case OpDeleteBook:
		return "Delete Book"
	case OpSearch:
		return "Search Books"
	case OpBorrow:
		return "Borrow Book"
	case OpLogout:
		return "Logout"
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

// CredentialStore resolves login attempts.
type CredentialStore interface {
	Authenticate(ctx context.Context, username, secret string) (Role, error)
}

// Inventory is the book and loan store a session works against.
type Inventory interface {
	AddBook(ctx context.Context, title, author string, year int, isbn string) (int64, error)
	DeleteBook(ctx context.Context, isbn string) (int64, error)
	SearchBooks(ctx context.Context, f BookFilter) ([]Book, error)
	BorrowBook(ctx context.Context, borrower, isbn string) (string, error)
}

// Session tracks who is logged in and gates every operation on the active
// role. The zero state is logged out. A Session is not safe for concurrent
// use; create one per interactive actor.
type Session struct {
	creds   CredentialStore
	inv     Inventory
	baseLog logging.Logger
	log     logging.Logger

	id     string
	active *Principal
}

func NewSession(creds CredentialStore, inv Inventory, log logging.Logger) *Session {
	if log == nil {
		log = logging.Discard()
	}
	return &Session{creds: creds, inv: inv, baseLog: log, log: log}
}

// Principal returns the logged-in identity, if any.
func (s *Session) Principal() (Principal, bool) {
	if s.active == nil {
		return Principal{}, false
	}
	return *s.active, true
}

// ID is the correlation id of the current login, empty when logged out.
func (s *Session) ID() string { return s.id }

// PermittedOperations lists what the current state allows, in menu order.
func (s *Session) PermittedOperations() []Operation {
	if s.active == nil {
		return []Operation{OpLogin, OpExit}
	}
	switch s.active.Role {
	case RoleAdmin:
		return []Operation{OpAddBook, OpDeleteBook, OpSearch, OpLogout}
	case RoleMember:
		return []Operation{OpSearch, OpBorrow, OpLogout}
	}
	return nil
}

// Permits reports whether op is allowed in the current state.
func (s *Session) Permits(op Operation) bool {
	return slices.Contains(s.PermittedOperations(), op)
}

func (s *Session) authorize(ctx context.Context, op Operation) error {
	if s.Permits(op) {
		return nil
	}
	s.log.Warn(ctx, "operation rejected", "op", op.String())
	return fmt.Errorf("%s: %w", op, ErrUnauthorized)
}

// Login authenticates and, on success, moves the session to logged in.
// A failed attempt leaves the session logged out.
func (s *Session) Login(ctx context.Context, username, secret string) (Principal, error) {
	if err := s.authorize(ctx, OpLogin); err != nil {
		return Principal{}, err
	}
	role, err := s.creds.Authenticate(ctx, username, secret)
	if err != nil {
		s.log.Info(ctx, "login failed", "user", username)
		return Principal{}, err
	}
	switch role {
	case RoleAdmin, RoleMember:
	default:
		return Principal{}, fmt.Errorf("%w: %q", ErrUnknownRole, string(role))
	}

	s.active = &Principal{Username: username, Role: role}
	s.id = uuid.NewString()
	s.log = s.baseLog.With("session", s.id, "user", username)
	s.log.Info(ctx, "logged in", "role", role.String())
	return *s.active, nil
}

// Logout clears the session. It is only permitted while logged in.
func (s *Session) Logout(ctx context.Context) (Principal, error) {
	if err := s.authorize(ctx, OpLogout); err != nil {
		return Principal{}, err
	}
	prev := *s.active
	s.log.Info(ctx, "logged out")
	s.active = nil
	s.id = ""
	s.log = s.baseLog
	return prev, nil
}

func (s *Session) AddBook(ctx context.Context, title, author string, year int, isbn string) (int64, error) {
	if err := s.authorize(ctx, OpAddBook); err != nil {
		return 0, err
	}
	return s.inv.AddBook(ctx, title, author, year, isbn)
}

func (s *Session) DeleteBook(ctx context.Context, isbn string) (int64, error) {
	if err := s.authorize(ctx, OpDeleteBook); err != nil {
		return 0, err
	}
	return s.inv.DeleteBook(ctx, isbn)
}

func (s *Session) SearchBooks(ctx context.Context, f BookFilter) ([]Book, error) {
	if err := s.authorize(ctx, OpSearch); err != nil {
		return nil, err
	}
	return s.inv.SearchBooks(ctx, f)
}

// Borrow records a loan for the logged-in user. The borrower is always the
// session's own username.
func (s *Session) Borrow(ctx context.Context, isbn string) (string, error) {
	if err := s.authorize(ctx, OpBorrow); err != nil {
		return "", err
	}
	return s.inv.BorrowBook(ctx, s.active.Username, isbn)
}

// Request carries an operation and the arguments it uses. Fields that an
// operation does not use are ignored.
type Request struct {
	Op Operation

	Username string // Login
	Secret   string // Login

	Book   Book       // AddBook: Title, Author, Year, ISBN
	ISBN   string     // DeleteBook, Borrow
	Filter BookFilter // Search
}

// Result holds what an operation produced.
type Result struct {
	Principal Principal // Login, Logout
	BookID    int64     // AddBook
	Deleted   int64     // DeleteBook
	Books     []Book    // Search
	Title     string    // Borrow
}

// Dispatch routes req to the matching operation. Anything outside the current
// permitted set fails with ErrUnauthorized before any store is touched.
func (s *Session) Dispatch(ctx context.Context, req Request) (Result, error) {
	if err := s.authorize(ctx, req.Op); err != nil {
		return Result{}, err
	}

	var (
		res Result
		err error
	)
	switch req.Op {
	case OpLogin:
		res.Principal, err = s.Login(ctx, req.Username, req.Secret)
	case OpLogout:
		res.Principal, err = s.Logout(ctx)
	case OpExit:
	case OpAddBook:
		res.BookID, err = s.AddBook(ctx, req.Book.Title, req.Book.Author, req.Book.Year, req.Book.ISBN)
	case OpDeleteBook:
		res.Deleted, err = s.DeleteBook(ctx, req.ISBN)
	case OpSearch:
		res.Books, err = s.SearchBooks(ctx, req.Filter)
	case OpBorrow:
		res.Title, err = s.Borrow(ctx, req.ISBN)
	default:
		err = fmt.Errorf("%s: %w", req.Op, ErrUnauthorized)
	}
	return res, err
}
