package library

import "strings"

// bookField enumerates the columns a BookFilter can constrain. Column names
// come only from bookColumns; callers never supply them.
type bookField int

const (
	fieldTitle bookField = iota
	fieldAuthor
	fieldYear
	fieldISBN
)

var bookColumns = [...]string{
	fieldTitle:  "title",
	fieldAuthor: "author",
	fieldYear:   "year",
	fieldISBN:   "isbn",
}

func (f bookField) column() string { return bookColumns[f] }

type predicate struct {
	field bookField
	value any
}

// predicates lists the constraints present in f, in column order.
func (f BookFilter) predicates() []predicate {
	var ps []predicate
	if f.Title != "" {
		ps = append(ps, predicate{fieldTitle, f.Title})
	}
	if f.Author != "" {
		ps = append(ps, predicate{fieldAuthor, f.Author})
	}
	if f.Year != nil {
		ps = append(ps, predicate{fieldYear, *f.Year})
	}
	if f.ISBN != "" {
		ps = append(ps, predicate{fieldISBN, f.ISBN})
	}
	return ps
}

// IsEmpty reports whether f matches every book.
func (f BookFilter) IsEmpty() bool { return len(f.predicates()) == 0 }

// whereClause renders the filter as " WHERE col = ? AND ..." with one
// placeholder per value, or "" for an empty filter.
func (f BookFilter) whereClause() (string, []any) {
	ps := f.predicates()
	if len(ps) == 0 {
		return "", nil
	}
	conds := make([]string, 0, len(ps))
	args := make([]any, 0, len(ps))
	for _, p := range ps {
		conds = append(conds, p.field.column()+" = ?")
		args = append(args, p.value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
