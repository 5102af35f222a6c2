// Package postgres stores the catalog in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"library/models"
	"library/storage"
	"library/utils"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// Store implements storage.Store. It owns the pool and closes it in Close.
type Store struct {
	pg *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

func New(pg *pgxpool.Pool) *Store {
	return &Store{pg: pg}
}

// EnsureSchema creates the tables when they are missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pg.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	utils.Logger.Debug("Postgres schema is up to date")
	return nil
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	sql, params, err := countQuery(table)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.pg.QueryRow(ctx, sql, params...).Scan(&n); err != nil {
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

func (s *Store) FindBooks(ctx context.Context, filter storage.BookFilter) ([]*models.Book, error) {
	sql, params, err := findBooksQuery(filter)
	if err != nil {
		return nil, err
	}

	var rows []bookRow
	if err := pgxscan.Select(ctx, s.pg, &rows, sql, params...); err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}

	return lo.Map(rows, func(row bookRow, _ int) *models.Book {
		genres := row.Genres
		if genres == nil {
			genres = []string{}
		}
		return &models.Book{
			ID:        row.ID,
			Title:     row.Title,
			Published: row.Published,
			Genres:    genres,
			AuthorID:  row.AuthorID,
			Author:    &models.Author{ID: row.AuthorID, Name: row.AuthorName, Born: row.AuthorBorn},
		}
	}), nil
}

func (s *Store) FindAllAuthors(ctx context.Context) ([]*models.Author, error) {
	sql, params, err := allAuthorsQuery()
	if err != nil {
		return nil, err
	}

	var rows []authorRow
	if err := pgxscan.Select(ctx, s.pg, &rows, sql, params...); err != nil {
		return nil, fmt.Errorf("find authors: %w", err)
	}
	return lo.Map(rows, func(row authorRow, _ int) *models.Author { return row.model() }), nil
}

func (r authorRow) model() *models.Author {
	return &models.Author{ID: r.ID, Name: r.Name, Born: r.Born}
}

func (s *Store) findAuthor(ctx context.Context, column, value string) (*models.Author, error) {
	sql, params, err := authorQuery(column, value)
	if err != nil {
		return nil, err
	}

	var row authorRow
	if err := pgxscan.Get(ctx, s.pg, &row, sql, params...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find author: %w", err)
	}
	return row.model(), nil
}

func (s *Store) FindAuthorByName(ctx context.Context, name string) (*models.Author, error) {
	return s.findAuthor(ctx, "name", name)
}

func (s *Store) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	counts, err := s.CountBooksByAuthors(ctx, []string{authorID})
	if err != nil {
		return 0, err
	}
	return counts[authorID], nil
}

func (s *Store) CountBooksByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error) {
	counts := lo.SliceToMap(authorIDs, func(id string) (string, int) { return id, 0 })
	if len(authorIDs) == 0 {
		return counts, nil
	}

	sql, params, err := countBooksByAuthorsQuery(authorIDs)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		AuthorID string `db:"author_id"`
		Count    int    `db:"count"`
	}
	if err := pgxscan.Select(ctx, s.pg, &rows, sql, params...); err != nil {
		return nil, fmt.Errorf("count books by authors: %w", err)
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Count
	}
	return counts, nil
}

func (s *Store) SaveAuthor(ctx context.Context, author *models.Author) (*models.Author, error) {
	if err := author.Validate(); err != nil {
		return nil, err
	}

	stored := author.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	sql, params, err := upsertAuthorQuery(authorRow{ID: stored.ID, Name: stored.Name, Born: stored.Born})
	if err != nil {
		return nil, err
	}
	if _, err := s.pg.Exec(ctx, sql, params...); err != nil {
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

	sql, params, err := insertBookQuery(bookRow{
		ID:        stored.ID,
		Title:     stored.Title,
		Published: stored.Published,
		Genres:    stored.Genres,
		AuthorID:  stored.AuthorID,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.pg.Exec(ctx, sql, params...); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}

	stored.Author, err = s.findAuthor(ctx, "id", stored.AuthorID)
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

	sql, params, err := insertUserQuery(userRow{ID: stored.ID, Username: stored.Username, FavoriteGenre: stored.FavoriteGenre})
	if err != nil {
		return nil, err
	}
	if _, err := s.pg.Exec(ctx, sql, params...); err != nil {
		if isUniqueViolation(err) {
			return nil, models.NewDuplicateError("User", "username", stored.Username)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return stored, nil
}

func (s *Store) findUser(ctx context.Context, column, value string) (*models.User, error) {
	sql, params, err := userQuery(column, value)
	if err != nil {
		return nil, err
	}

	var row userRow
	if err := pgxscan.Get(ctx, s.pg, &row, sql, params...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &models.User{ID: row.ID, Username: row.Username, FavoriteGenre: row.FavoriteGenre}, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "username", username)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "id", id)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pg.Ping(ctx)
}

func (s *Store) Close() error {
	s.pg.Close()
	utils.Logger.Info("Postgres pool closed")
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		utils.Logger.Debug("Unique constraint violated", zap.String("constraint", pgErr.ConstraintName))
		return true
	}
	return false
}
