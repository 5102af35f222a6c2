package postgres

import (
	"strings"

	"library/storage"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

var dialect = goqu.Dialect("postgres")

type authorRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	Born *int   `db:"born"`
}

type bookRow struct {
	ID         string   `db:"id"`
	Title      string   `db:"title"`
	Published  int      `db:"published"`
	Genres     []string `db:"genres"`
	AuthorID   string   `db:"author_id"`
	AuthorName string   `db:"author_name"`
	AuthorBorn *int     `db:"author_born"`
}

type userRow struct {
	ID            string `db:"id"`
	Username      string `db:"username"`
	FavoriteGenre string `db:"favorite_genre"`
}

// textArray кодирует срез строк как литерал массива Postgres.
// goqu разворачивает срезы в списки, поэтому массив передается строкой с приведением типа.
func textArray(values []string) goqu.Expression {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		b.WriteString(v)
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return goqu.Cast(goqu.V(b.String()), "text[]")
}

// findBooksQuery joins every book with its author. The inner join drops
// books whose author row is gone.
func findBooksQuery(filter storage.BookFilter) (string, []interface{}, error) {
	qb := dialect.From(goqu.T("books").As("b")).
		Join(goqu.T("authors").As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("b.author_id")))).
		Select(
			goqu.I("b.id"),
			goqu.I("b.title"),
			goqu.I("b.published"),
			goqu.I("b.genres"),
			goqu.I("b.author_id"),
			goqu.I("a.name").As("author_name"),
			goqu.I("a.born").As("author_born"),
		).
		Order(goqu.I("b.seq").Asc())

	if filter.Author != nil {
		qb = qb.Where(goqu.I("a.name").Eq(*filter.Author))
	}
	if filter.Genre != nil {
		qb = qb.Where(goqu.L("? = ANY(?)", *filter.Genre, goqu.I("b.genres")))
	}

	return qb.ToSQL()
}

func countQuery(table string) (string, []interface{}, error) {
	return dialect.From(table).Select(goqu.COUNT(goqu.Star())).ToSQL()
}

func allAuthorsQuery() (string, []interface{}, error) {
	return dialect.From("authors").
		Select("id", "name", "born").
		Order(goqu.C("seq").Asc()).
		ToSQL()
}

func authorQuery(column, value string) (string, []interface{}, error) {
	return dialect.From("authors").
		Select("id", "name", "born").
		Where(goqu.C(column).Eq(value)).
		ToSQL()
}

func countBooksByAuthorsQuery(authorIDs []string) (string, []interface{}, error) {
	return dialect.From("books").
		Select(goqu.C("author_id"), goqu.COUNT(goqu.Star()).As("count")).
		Where(goqu.C("author_id").In(authorIDs)).
		GroupBy("author_id").
		ToSQL()
}

func upsertAuthorQuery(row authorRow) (string, []interface{}, error) {
	return dialect.Insert("authors").
		Rows(row).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"name": goqu.L("excluded.name"),
			"born": goqu.L("excluded.born"),
		})).
		ToSQL()
}

func insertBookQuery(row bookRow) (string, []interface{}, error) {
	return dialect.Insert("books").
		Rows(goqu.Record{
			"id":        row.ID,
			"title":     row.Title,
			"published": row.Published,
			"genres":    textArray(row.Genres),
			"author_id": row.AuthorID,
		}).
		ToSQL()
}

func insertUserQuery(row userRow) (string, []interface{}, error) {
	return dialect.Insert("users").Rows(row).ToSQL()
}

func userQuery(column, value string) (string, []interface{}, error) {
	return dialect.From("users").
		Select("id", "username", "favorite_genre").
		Where(goqu.C(column).Eq(value)).
		ToSQL()
}
