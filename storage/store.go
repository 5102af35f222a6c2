// Package storage describes the document store used by the resolvers.
// Backends live in sub-packages: memory, redisstore, postgres, sqlite.
package storage

import (
	"context"

	"library/models"

	"github.com/samber/lo"
)

// BookFilter ограничивает выборку книг. Пустые поля не фильтруют.
type BookFilter struct {
	// Author is compared with the resolved author's name, exact match.
	Author *string
	// Genre must be one of the book's genres, case-sensitive.
	Genre *string
}

// Store is the document store gateway.
//
// Find* methods return (nil, nil) when a record is absent. Save* methods
// return a *models.ValidationError when the data is rejected, including
// unique index violations (errors.Is(err, models.ErrDuplicate)).
type Store interface {
	CountBooks(ctx context.Context) (int, error)
	CountAuthors(ctx context.Context) (int, error)

	// FindBooks returns books in insertion order with Author resolved.
	// Books whose author cannot be resolved are left out.
	FindBooks(ctx context.Context, filter BookFilter) ([]*models.Book, error)
	FindAllAuthors(ctx context.Context) ([]*models.Author, error)
	FindAuthorByName(ctx context.Context, name string) (*models.Author, error)
	CountBooksByAuthor(ctx context.Context, authorID string) (int, error)
	// CountBooksByAuthors counts books for several authors at once.
	// Every requested id is present in the result.
	CountBooksByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error)

	// SaveAuthor inserts the author when ID is empty and updates it otherwise.
	SaveAuthor(ctx context.Context, author *models.Author) (*models.Author, error)
	SaveBook(ctx context.Context, book *models.Book) (*models.Book, error)
	SaveUser(ctx context.Context, user *models.User) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)

	Ping(ctx context.Context) error
	Close() error
}

// MatchesGenre reports whether genre is one of genres (exact, case-sensitive)
func MatchesGenre(genres []string, genre string) bool {
	return lo.Contains(genres, genre)
}
