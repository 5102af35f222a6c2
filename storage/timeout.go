package storage

import (
	"context"
	"time"

	"library/models"
)

// DefaultTimeout bounds a single store call when no STORE_TIMEOUT is configured.
const DefaultTimeout = 5 * time.Second

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout wraps a store so that every call gets its own deadline.
// A non-positive timeout returns the store unchanged.
func WithTimeout(next Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return next
	}
	return &timeoutStore{next: next, timeout: timeout}
}

func (s *timeoutStore) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *timeoutStore) CountBooks(ctx context.Context) (int, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.CountBooks(ctx)
}

func (s *timeoutStore) CountAuthors(ctx context.Context) (int, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.CountAuthors(ctx)
}

func (s *timeoutStore) FindBooks(ctx context.Context, filter BookFilter) ([]*models.Book, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.FindBooks(ctx, filter)
}

func (s *timeoutStore) FindAllAuthors(ctx context.Context) ([]*models.Author, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.FindAllAuthors(ctx)
}

func (s *timeoutStore) FindAuthorByName(ctx context.Context, name string) (*models.Author, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.FindAuthorByName(ctx, name)
}

func (s *timeoutStore) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.CountBooksByAuthor(ctx, authorID)
}

func (s *timeoutStore) CountBooksByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.CountBooksByAuthors(ctx, authorIDs)
}

func (s *timeoutStore) SaveAuthor(ctx context.Context, author *models.Author) (*models.Author, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.SaveAuthor(ctx, author)
}

func (s *timeoutStore) SaveBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.SaveBook(ctx, book)
}

func (s *timeoutStore) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.SaveUser(ctx, user)
}

func (s *timeoutStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.FindUserByUsername(ctx, username)
}

func (s *timeoutStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.FindUserByID(ctx, id)
}

func (s *timeoutStore) Ping(ctx context.Context) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.Ping(ctx)
}

func (s *timeoutStore) Close() error {
	return s.next.Close()
}
