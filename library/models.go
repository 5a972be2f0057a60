package library

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles a user can hold. The string values are the
// ones stored in the users table and used in seed files.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "user"
)

// ParseRole accepts "admin", "user" or "member" in any case.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "user", "member":
		return RoleMember, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleMember:
		return "member"
	}
	return "unknown(" + string(r) + ")"
}

// User is a credential record. Secrets are stored and compared as-is.
type User struct {
	Username string `json:"username"`
	Secret   string `json:"-"`
	Role     Role   `json:"role"`
}

// Book is a catalog entry. ISBN is unique across all books.
type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
	ISBN   string `json:"isbn"`
}

// Loan records a borrowing. It keeps a copy of the title rather than a
// reference to the book, so it outlives the book's deletion.
type Loan struct {
	Borrower  string `json:"borrower"`
	BookTitle string `json:"book_title"`
}

// BookFilter selects books by exact match. Empty strings and a nil Year
// impose no constraint; an empty filter matches every book.
type BookFilter struct {
	Title  string
	Author string
	Year   *int
	ISBN   string
}

// Principal is the authenticated identity of a session.
type Principal struct {
	Username string
	Role     Role
}
