package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookFilter_WhereClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    BookFilter
		wantWhere string
		wantArgs  []any
	}{
		{"empty", BookFilter{}, "", nil},
		{"title", BookFilter{Title: "Dune"}, " WHERE title = ?", []any{"Dune"}},
		{"year only", BookFilter{Year: intPtr(1965)}, " WHERE year = ?", []any{1965}},
		{
			"all in column order",
			BookFilter{ISBN: "111", Year: intPtr(1965), Author: "Frank Herbert", Title: "Dune"},
			" WHERE title = ? AND author = ? AND year = ? AND isbn = ?",
			[]any{"Dune", "Frank Herbert", 1965, "111"},
		},
		{
			"values never reach the sql text",
			BookFilter{Author: "x; DROP TABLE books; --"},
			" WHERE author = ?",
			[]any{"x; DROP TABLE books; --"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.whereClause()
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBookFilter_IsEmpty(t *testing.T) {
	assert.True(t, BookFilter{}.IsEmpty())
	assert.False(t, BookFilter{Year: intPtr(0)}.IsEmpty())
	assert.False(t, BookFilter{ISBN: "1"}.IsEmpty())
}

func TestBookColumns_CoverEveryField(t *testing.T) {
	for f := fieldTitle; f <= fieldISBN; f++ {
		assert.NotEmpty(t, f.column(), "field %d has no column", f)
	}
}
