package postgres

import (
	"testing"

	"library/storage"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountQuery(t *testing.T) {
	sql, _, err := countQuery("books")
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "books"`, sql)
}

func TestFindBooksQuery(t *testing.T) {
	tests := []struct {
		name        string
		filter      storage.BookFilter
		contains    []string
		notContains []string
	}{
		{
			name:        "no filter",
			filter:      storage.BookFilter{},
			contains:    []string{`INNER JOIN "authors" AS "a"`, `ORDER BY "b"."seq" ASC`},
			notContains: []string{"WHERE"},
		},
		{
			name:     "genre",
			filter:   storage.BookFilter{Genre: lo.ToPtr("crime")},
			contains: []string{`'crime' = ANY("b"."genres")`},
		},
		{
			name:     "author",
			filter:   storage.BookFilter{Author: lo.ToPtr("Robert Martin")},
			contains: []string{`"a"."name" = 'Robert Martin'`},
		},
		{
			name:     "quotes are escaped",
			filter:   storage.BookFilter{Author: lo.ToPtr("O'Brien")},
			contains: []string{`'O''Brien'`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := findBooksQuery(tt.filter)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, sql, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, sql, s)
			}
		})
	}
}

func TestInsertBookQueryEncodesGenresAsArray(t *testing.T) {
	sql, _, err := insertBookQuery(bookRow{
		ID:        "b1",
		Title:     "Dune",
		Published: 1965,
		Genres:    []string{"classic", "science fiction"},
		AuthorID:  "a1",
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `CAST('{"classic","science fiction"}' AS text[])`)
}

func TestInsertBookQueryEmptyGenres(t *testing.T) {
	sql, _, err := insertBookQuery(bookRow{ID: "b1", Title: "Dune", Genres: []string{}, AuthorID: "a1"})
	require.NoError(t, err)
	assert.Contains(t, sql, `CAST('{}' AS text[])`)
}

func TestUpsertAuthorQuery(t *testing.T) {
	sql, _, err := upsertAuthorQuery(authorRow{ID: "a1", Name: "Robert Martin"})
	require.NoError(t, err)
	assert.Contains(t, sql, `INSERT INTO "authors"`)
	assert.Contains(t, sql, `ON CONFLICT (id) DO UPDATE SET`)
	assert.Contains(t, sql, "NULL")
}

func TestCountBooksByAuthorsQuery(t *testing.T) {
	sql, _, err := countBooksByAuthorsQuery([]string{"a1", "a2"})
	require.NoError(t, err)
	assert.Contains(t, sql, `"author_id" IN ('a1', 'a2')`)
	assert.Contains(t, sql, `GROUP BY "author_id"`)
}
