// Package storagetest holds the behaviour every storage.Store backend must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"library/models"
	"library/storage"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

// Suite runs the shared store checks against a fresh store per test.
//
//	suite.Run(t, &storagetest.Suite{NewStore: func(t *testing.T) storage.Store { ... }})
type Suite struct {
	suite.Suite

	// NewStore must return an empty store
	NewStore func(t *testing.T) storage.Store

	store storage.Store
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore(s.T())
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		s.NoError(s.store.Close())
	}
}

func (s *Suite) saveAuthor(name string) *models.Author {
	author, err := s.store.SaveAuthor(s.ctx, &models.Author{Name: name})
	s.Require().NoError(err)
	return author
}

func (s *Suite) saveBook(title string, author *models.Author, genres ...string) *models.Book {
	if genres == nil {
		genres = []string{}
	}
	book, err := s.store.SaveBook(s.ctx, &models.Book{
		Title:     title,
		Published: 2000,
		Genres:    genres,
		AuthorID:  author.ID,
	})
	s.Require().NoError(err)
	return book
}

func titles(books []*models.Book) []string {
	return lo.Map(books, func(b *models.Book, _ int) string { return b.Title })
}

func (s *Suite) TestEmptyStore() {
	books, err := s.store.CountBooks(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, books)

	authors, err := s.store.CountAuthors(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, authors)

	all, err := s.store.FindBooks(s.ctx, storage.BookFilter{})
	s.Require().NoError(err)
	s.Empty(all)

	s.NoError(s.store.Ping(s.ctx))
}

func (s *Suite) TestSaveAuthor() {
	author := s.saveAuthor("Robert Martin")
	s.NotEmpty(author.ID)
	s.Nil(author.Born)

	found, err := s.store.FindAuthorByName(s.ctx, "Robert Martin")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(author.ID, found.ID)

	missing, err := s.store.FindAuthorByName(s.ctx, "robert martin")
	s.Require().NoError(err)
	s.Nil(missing)

	count, err := s.store.CountAuthors(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestSaveAuthorRejectsDuplicatesAndEmptyNames() {
	s.saveAuthor("Martin Fowler")

	_, err := s.store.SaveAuthor(s.ctx, &models.Author{Name: "Martin Fowler"})
	s.Require().Error(err)
	s.True(models.IsValidationError(err))
	s.True(errors.Is(err, models.ErrDuplicate))

	_, err = s.store.SaveAuthor(s.ctx, &models.Author{Name: ""})
	s.Require().Error(err)
	s.True(models.IsValidationError(err))

	count, err := s.store.CountAuthors(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestUpdateAuthorBorn() {
	author := s.saveAuthor("Joshua Kerievsky")
	born := 1958
	author.Born = &born

	updated, err := s.store.SaveAuthor(s.ctx, author)
	s.Require().NoError(err)
	s.Equal(author.ID, updated.ID)
	s.Require().NotNil(updated.Born)
	s.Equal(1958, *updated.Born)

	all, err := s.store.FindAllAuthors(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Require().NotNil(all[0].Born)
	s.Equal(1958, *all[0].Born)

	count, err := s.store.CountAuthors(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestRenameAuthorMovesNameIndex() {
	author := s.saveAuthor("Sandi Metz")
	author.Name = "Sandi M."
	_, err := s.store.SaveAuthor(s.ctx, author)
	s.Require().NoError(err)

	old, err := s.store.FindAuthorByName(s.ctx, "Sandi Metz")
	s.Require().NoError(err)
	s.Nil(old)

	renamed, err := s.store.FindAuthorByName(s.ctx, "Sandi M.")
	s.Require().NoError(err)
	s.Require().NotNil(renamed)
	s.Equal(author.ID, renamed.ID)

	// старое имя снова свободно
	s.saveAuthor("Sandi Metz")
}

func (s *Suite) TestFindAllAuthorsInInsertionOrder() {
	s.saveAuthor("Robert Martin")
	s.saveAuthor("Martin Fowler")
	s.saveAuthor("Fyodor Dostoevsky")

	all, err := s.store.FindAllAuthors(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Robert Martin", "Martin Fowler", "Fyodor Dostoevsky"},
		lo.Map(all, func(a *models.Author, _ int) string { return a.Name }))
}

func (s *Suite) TestSaveBook() {
	author := s.saveAuthor("Robert Martin")
	book := s.saveBook("Clean Code", author, "refactoring")

	s.NotEmpty(book.ID)
	s.Equal("Clean Code", book.Title)
	s.Equal(2000, book.Published)
	s.Equal([]string{"refactoring"}, book.Genres)
	s.Equal(author.ID, book.AuthorID)
	s.Require().NotNil(book.Author)
	s.Equal("Robert Martin", book.Author.Name)

	count, err := s.store.CountBooks(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestSaveBookRejectsMissingFields() {
	author := s.saveAuthor("Robert Martin")

	_, err := s.store.SaveBook(s.ctx, &models.Book{Title: "", Published: 2008, Genres: []string{}, AuthorID: author.ID})
	s.Require().Error(err)
	s.True(models.IsValidationError(err))

	_, err = s.store.SaveBook(s.ctx, &models.Book{Title: "Clean Code", Published: 2008, Genres: []string{}})
	s.Require().Error(err)
	s.True(models.IsValidationError(err))

	count, err := s.store.CountBooks(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *Suite) TestFindBooksFilters() {
	martin := s.saveAuthor("Robert Martin")
	fowler := s.saveAuthor("Martin Fowler")
	dostoevsky := s.saveAuthor("Fyodor Dostoevsky")

	s.saveBook("Clean Code", martin, "refactoring")
	s.saveBook("Agile software development", martin, "agile", "patterns", "design")
	s.saveBook("Refactoring", fowler, "refactoring")
	s.saveBook("Crime and punishment", dostoevsky, "classic", "Crime")
	s.saveBook("Demons", dostoevsky, "classic", "revolution")

	tests := []struct {
		name   string
		filter storage.BookFilter
		want   []string
	}{
		{
			name: "no filter",
			want: []string{"Clean Code", "Agile software development", "Refactoring", "Crime and punishment", "Demons"},
		},
		{
			name:   "genre",
			filter: storage.BookFilter{Genre: lo.ToPtr("refactoring")},
			want:   []string{"Clean Code", "Refactoring"},
		},
		{
			name:   "genre is case sensitive",
			filter: storage.BookFilter{Genre: lo.ToPtr("crime")},
			want:   []string{},
		},
		{
			name:   "genre is not a substring match",
			filter: storage.BookFilter{Genre: lo.ToPtr("refactor")},
			want:   []string{},
		},
		{
			name:   "author",
			filter: storage.BookFilter{Author: lo.ToPtr("Robert Martin")},
			want:   []string{"Clean Code", "Agile software development"},
		},
		{
			name:   "unknown author",
			filter: storage.BookFilter{Author: lo.ToPtr("Nobody")},
			want:   []string{},
		},
		{
			name:   "author and genre",
			filter: storage.BookFilter{Author: lo.ToPtr("Fyodor Dostoevsky"), Genre: lo.ToPtr("Crime")},
			want:   []string{"Crime and punishment"},
		},
		{
			name:   "author and genre without overlap",
			filter: storage.BookFilter{Author: lo.ToPtr("Martin Fowler"), Genre: lo.ToPtr("classic")},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			books, err := s.store.FindBooks(s.ctx, tt.filter)
			s.Require().NoError(err)
			s.Equal(tt.want, append([]string{}, titles(books)...))
			for _, b := range books {
				s.Require().NotNil(b.Author, b.Title)
				if tt.filter.Author != nil {
					s.Equal(*tt.filter.Author, b.Author.Name)
				}
			}
		})
	}
}

func (s *Suite) TestFindBooksSkipsUnresolvedAuthors() {
	author := s.saveAuthor("Robert Martin")
	s.saveBook("Clean Code", author)
	s.saveBook("Ghost book", &models.Author{ID: "00000000-0000-0000-0000-000000000000"})

	books, err := s.store.FindBooks(s.ctx, storage.BookFilter{})
	s.Require().NoError(err)
	s.Equal([]string{"Clean Code"}, titles(books))
	s.NotNil(books[0].Genres)
}

func (s *Suite) TestCountBooksByAuthor() {
	martin := s.saveAuthor("Robert Martin")
	fowler := s.saveAuthor("Martin Fowler")
	lonely := s.saveAuthor("Kent Beck")

	s.saveBook("Clean Code", martin)
	s.saveBook("Clean Architecture", martin)
	s.saveBook("The Clean Coder", martin)
	s.saveBook("Refactoring", fowler)

	count, err := s.store.CountBooksByAuthor(s.ctx, martin.ID)
	s.Require().NoError(err)
	s.Equal(3, count)

	s.saveBook("Clean Agile", martin)
	count, err = s.store.CountBooksByAuthor(s.ctx, martin.ID)
	s.Require().NoError(err)
	s.Equal(4, count)

	counts, err := s.store.CountBooksByAuthors(s.ctx, []string{martin.ID, fowler.ID, lonely.ID})
	s.Require().NoError(err)
	s.Equal(map[string]int{martin.ID: 4, fowler.ID: 1, lonely.ID: 0}, counts)

	counts, err = s.store.CountBooksByAuthors(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(counts)
}

func (s *Suite) TestSaveUser() {
	user, err := s.store.SaveUser(s.ctx, &models.User{Username: "alice", FavoriteGenre: "crime"})
	s.Require().NoError(err)
	s.NotEmpty(user.ID)

	byName, err := s.store.FindUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NotNil(byName)
	s.Equal(user.ID, byName.ID)
	s.Equal("crime", byName.FavoriteGenre)

	byID, err := s.store.FindUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Require().NotNil(byID)
	s.Equal("alice", byID.Username)

	missing, err := s.store.FindUserByUsername(s.ctx, "bob")
	s.Require().NoError(err)
	s.Nil(missing)

	missing, err = s.store.FindUserByID(s.ctx, "00000000-0000-0000-0000-000000000000")
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *Suite) TestSaveUserValidation() {
	_, err := s.store.SaveUser(s.ctx, &models.User{Username: "al", FavoriteGenre: "crime"})
	s.Require().Error(err)
	s.True(models.IsValidationError(err))

	_, err = s.store.SaveUser(s.ctx, &models.User{Username: "alice", FavoriteGenre: "crime"})
	s.Require().NoError(err)

	_, err = s.store.SaveUser(s.ctx, &models.User{Username: "alice", FavoriteGenre: "horror"})
	s.Require().Error(err)
	s.True(models.IsValidationError(err))
	s.True(errors.Is(err, models.ErrDuplicate))
}

func (s *Suite) TestReturnedRecordsAreCopies() {
	author := s.saveAuthor("Robert Martin")
	book := s.saveBook("Clean Code", author, "refactoring")
	book.Genres[0] = "changed"
	book.Author.Name = "changed"
	author.Name = "changed"

	books, err := s.store.FindBooks(s.ctx, storage.BookFilter{})
	s.Require().NoError(err)
	s.Require().Len(books, 1)
	s.Equal([]string{"refactoring"}, books[0].Genres)
	s.Equal("Robert Martin", books[0].Author.Name)
}
