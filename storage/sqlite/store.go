// Package sqlite stores the catalog in a SQLite file (or in memory).
// Genres are kept as a JSON array and filtered with json_each.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"library/models"
	"library/storage"
	"library/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const migrate = `
	create table if not exists authors (
		seq  integer primary key autoincrement,
		id   text not null unique,
		name text not null unique,
		born integer
	);
	create table if not exists books (
		seq       integer primary key autoincrement,
		id        text not null unique,
		title     text not null,
		published integer not null,
		genres    text not null default '[]',
		author_id text not null
	);
	create index if not exists books_author_id_idx on books (author_id);
	create table if not exists users (
		id             text primary key,
		username       text not null unique,
		favorite_genre text not null
	);
`

// Store implements storage.Store over database/sql
type Store struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

var _ storage.Store = (*Store)(nil)

// Open opens the database at dsn and creates missing tables.
// "file::memory:" gives a private in-memory database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", dsn, err)
	}
	// SQLite пишет в один поток; одно соединение еще и сохраняет базу в памяти
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, migrate); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}

	utils.Logger.Debug("SQLite store opened", zap.String("dsn", dsn))
	return &Store{db: db, sq: squirrel.StatementBuilder.RunWith(db)}, nil
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.sq.Select("COUNT(*)").From(table).QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (s *Store) CountBooks(ctx context.Context) (int, error) {
	return s.count(ctx, "books")
}

func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	return s.count(ctx, "authors")
}

func findBooksQuery(filter storage.BookFilter) squirrel.SelectBuilder {
	q := squirrel.Select("b.id", "b.title", "b.published", "b.genres", "b.author_id", "a.name", "a.born").
		From("books b").
		Join("authors a ON a.id = b.author_id").
		OrderBy("b.seq")

	if filter.Author != nil {
		q = q.Where(squirrel.Eq{"a.name": *filter.Author})
	}
	if filter.Genre != nil {
		q = q.Where("EXISTS (SELECT 1 FROM json_each(b.genres) WHERE json_each.value = ?)", *filter.Genre)
	}
	return q
}

func (s *Store) FindBooks(ctx context.Context, filter storage.BookFilter) ([]*models.Book, error) {
	rows, err := findBooksQuery(filter).RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	defer rows.Close()

	books := []*models.Book{}
	for rows.Next() {
		var (
			b      models.Book
			a      models.Author
			genres string
			born   sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.Published, &genres, &b.AuthorID, &a.Name, &born); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		if err := json.Unmarshal([]byte(genres), &b.Genres); err != nil {
			return nil, fmt.Errorf("decode genres of %s: %w", b.ID, err)
		}
		if b.Genres == nil {
			b.Genres = []string{}
		}
		a.ID = b.AuthorID
		a.Born = nullableInt(born)
		b.Author = &a
		books = append(books, &b)
	}
	return books, rows.Err()
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return lo.ToPtr(int(v.Int64))
}

func (s *Store) FindAllAuthors(ctx context.Context) ([]*models.Author, error) {
	rows, err := s.sq.Select("id", "name", "born").From("authors").OrderBy("seq").QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("find authors: %w", err)
	}
	defer rows.Close()

	authors := []*models.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

func scanAuthor(row squirrel.RowScanner) (*models.Author, error) {
	var (
		a    models.Author
		born sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.Name, &born); err != nil {
		return nil, err
	}
	a.Born = nullableInt(born)
	return &a, nil
}

func (s *Store) findAuthor(ctx context.Context, where squirrel.Eq) (*models.Author, error) {
	a, err := scanAuthor(s.sq.Select("id", "name", "born").From("authors").Where(where).QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find author: %w", err)
	}
	return a, nil
}

func (s *Store) FindAuthorByName(ctx context.Context, name string) (*models.Author, error) {
	return s.findAuthor(ctx, squirrel.Eq{"name": name})
}

func (s *Store) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	err := s.sq.Select("COUNT(*)").From("books").
		Where(squirrel.Eq{"author_id": authorID}).
		QueryRowContext(ctx).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count books of %s: %w", authorID, err)
	}
	return n, nil
}

func (s *Store) CountBooksByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error) {
	counts := lo.SliceToMap(authorIDs, func(id string) (string, int) { return id, 0 })
	if len(authorIDs) == 0 {
		return counts, nil
	}

	rows, err := s.sq.Select("author_id", "COUNT(*)").From("books").
		Where(squirrel.Eq{"author_id": authorIDs}).
		GroupBy("author_id").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("count books by authors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (s *Store) SaveAuthor(ctx context.Context, author *models.Author) (*models.Author, error) {
	if err := author.Validate(); err != nil {
		return nil, err
	}

	stored := author.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	_, err := s.sq.Insert("authors").
		Columns("id", "name", "born").
		Values(stored.ID, stored.Name, stored.Born).
		Suffix("ON CONFLICT(id) DO UPDATE SET name = excluded.name, born = excluded.born").
		ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.NewDuplicateError("Author", "name", stored.Name)
		}
		return nil, fmt.Errorf("save author: %w", err)
	}
	return stored, nil
}

func (s *Store) SaveBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := book.Validate(); err != nil {
		return nil, err
	}

	stored := book.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	genres, err := json.Marshal(stored.Genres)
	if err != nil {
		return nil, err
	}

	_, err = s.sq.Insert("books").
		Columns("id", "title", "published", "genres", "author_id").
		Values(stored.ID, stored.Title, stored.Published, string(genres), stored.AuthorID).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}

	stored.Author, err = s.findAuthor(ctx, squirrel.Eq{"id": stored.AuthorID})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	stored := user.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	_, err := s.sq.Insert("users").
		Columns("id", "username", "favorite_genre").
		Values(stored.ID, stored.Username, stored.FavoriteGenre).
		ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.NewDuplicateError("User", "username", stored.Username)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return stored, nil
}

func (s *Store) findUser(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	var u models.User
	err := s.sq.Select("id", "username", "favorite_genre").From("users").
		Where(where).
		QueryRowContext(ctx).
		Scan(&u.ID, &u.Username, &u.FavoriteGenre)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, squirrel.Eq{"username": username})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, squirrel.Eq{"id": id})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
