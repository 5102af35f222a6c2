// Package memory is an in-process document store. It backs local
// development and the resolver tests.
package memory

import (
	"context"
	"sync"

	"library/models"
	"library/storage"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Store хранит копии документов; вызывающий код никогда не получает внутренние указатели.
type Store struct {
	mu sync.RWMutex

	books   []*models.Book // порядок вставки
	authors []*models.Author

	authorsByID   map[string]*models.Author
	authorsByName map[string]*models.Author
	usersByID     map[string]*models.User
	usersByName   map[string]*models.User
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		authorsByID:   make(map[string]*models.Author),
		authorsByName: make(map[string]*models.Author),
		usersByID:     make(map[string]*models.User),
		usersByName:   make(map[string]*models.User),
	}
}

func (s *Store) CountBooks(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books), ctx.Err()
}

func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.authors), ctx.Err()
}

func (s *Store) FindBooks(ctx context.Context, filter storage.BookFilter) ([]*models.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	books := lo.FilterMap(s.books, func(b *models.Book, _ int) (*models.Book, bool) {
		if filter.Genre != nil && !storage.MatchesGenre(b.Genres, *filter.Genre) {
			return nil, false
		}
		author, ok := s.authorsByID[b.AuthorID]
		if !ok {
			return nil, false
		}
		if filter.Author != nil && author.Name != *filter.Author {
			return nil, false
		}
		out := b.Clone()
		out.Author = author.Clone()
		return out, true
	})
	return books, nil
}

func (s *Store) FindAllAuthors(ctx context.Context) ([]*models.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.authors, func(a *models.Author, _ int) *models.Author { return a.Clone() }), nil
}

func (s *Store) FindAuthorByName(ctx context.Context, name string) (*models.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authorsByName[name].Clone(), nil
}

func (s *Store) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	counts, err := s.CountBooksByAuthors(ctx, []string{authorID})
	if err != nil {
		return 0, err
	}
	return counts[authorID], nil
}

func (s *Store) CountBooksByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := lo.SliceToMap(authorIDs, func(id string) (string, int) { return id, 0 })
	for _, b := range s.books {
		if _, ok := counts[b.AuthorID]; ok {
			counts[b.AuthorID]++
		}
	}
	return counts, nil
}

func (s *Store) SaveAuthor(ctx context.Context, author *models.Author) (*models.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := author.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if other, ok := s.authorsByName[author.Name]; ok && other.ID != author.ID {
		return nil, models.NewDuplicateError("Author", "name", author.Name)
	}

	stored := author.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
		s.authors = append(s.authors, stored)
	} else {
		existing, ok := s.authorsByID[stored.ID]
		if !ok {
			s.authors = append(s.authors, stored)
		} else {
			delete(s.authorsByName, existing.Name)
			*existing = *stored
			stored = existing
		}
	}
	s.authorsByID[stored.ID] = stored
	s.authorsByName[stored.Name] = stored

	return stored.Clone(), nil
}

func (s *Store) SaveBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := book.Clone()
	stored.Author = nil
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.books = append(s.books, stored)

	out := stored.Clone()
	out.Author = s.authorsByID[stored.AuthorID].Clone()
	return out, nil
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByName[user.Username]; ok {
		return nil, models.NewDuplicateError("User", "username", user.Username)
	}

	stored := user.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.usersByID[stored.ID] = stored
	s.usersByName[stored.Username] = stored

	return stored.Clone(), nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersByName[username].Clone(), nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersByID[id].Clone(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}
