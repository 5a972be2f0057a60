package library

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportUsers(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	input := strings.Join([]string{
		"root, toor, admin",
		"alice,s3cret,user",
		"",
		"bob, hunter2 , member",
		"alice, other, admin",
		"carol, pw",
		"dave, pw, librarian",
	}, "\n")

	rep, err := db.ImportUsers(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Loaded)
	assert.Equal(t, 3, rep.Skipped)
	require.Len(t, rep.Warnings, 3)
	assert.Equal(t, "User alice already exists.", rep.Warnings[0])
	assert.Contains(t, rep.Warnings[1], "line 6")
	assert.Contains(t, rep.Warnings[2], "line 7")

	role, err := db.Authenticate(ctx, "bob", "hunter2")
	require.NoError(t, err, "fields are trimmed")
	assert.Equal(t, RoleMember, role)

	role, err = db.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, RoleMember, role, "duplicate line must not replace the first")
}

func TestImportBooks(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	input := strings.Join([]string{
		"Dune, Frank Herbert, 1965, 111",
		`"Good Omens, or the Nice and Accurate Prophecies", Terry Pratchett, 1990, 555`,
		"Dune Again, Someone, 2000, 111",
		"Emma, Jane Austen, eighteen-fifteen, 333",
		"Only, Three, Fields",
	}, "\n")

	rep, err := db.ImportBooks(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Loaded)
	assert.Equal(t, 3, rep.Skipped)
	assert.Equal(t, "Book Dune Again already exists.", rep.Warnings[0])
	assert.Contains(t, rep.Warnings[1], "not a number")
	assert.Contains(t, rep.Warnings[2], "want 4 fields")

	b, err := db.GetBookByISBN(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, "Good Omens, or the Nice and Accurate Prophecies", b.Title)
	assert.Equal(t, 1990, b.Year)
}

func TestImportBooks_RerunSkipsEverything(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	input := "Dune, Frank Herbert, 1965, 111\nEmma, Jane Austen, 1815, 333\n"

	_, err := db.ImportBooks(ctx, strings.NewReader(input))
	require.NoError(t, err)
	rep, err := db.ImportBooks(ctx, strings.NewReader(input))
	require.NoError(t, err)

	assert.Zero(t, rep.Loaded)
	assert.Equal(t, 2, rep.Skipped)
	n, err := db.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportBooks_StorageFailureStops(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, db.Close())

	_, err := db.ImportBooks(context.Background(), strings.NewReader("Dune, Frank Herbert, 1965, 111\n"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
