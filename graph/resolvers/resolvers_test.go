package resolvers_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"library/apperrors"
	"library/ctxkeys"
	"library/graph"
	"library/graph/dataloader"
	"library/graph/resolvers"
	"library/models"
	"library/services/auth"
	"library/storage"
	"library/storage/memory"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type publishedEvent struct {
	Action   string
	Type     string
	EntityID string
	Metadata map[string]any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishEntityCreated(_ context.Context, entityType, entityID string, metadata map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{"created", entityType, entityID, metadata})
	return f.err
}

func (f *fakePublisher) PublishEntityUpdated(_ context.Context, entityType, entityID string, metadata map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{"updated", entityType, entityID, metadata})
	return f.err
}

// countingStore считает батчевые запросы bookCount
type countingStore struct {
	storage.Store
	mu          sync.Mutex
	batchCalls  int
	singleCalls int
}

func (s *countingStore) CountBooksByAuthors(ctx context.Context, ids []string) (map[string]int, error) {
	s.mu.Lock()
	s.batchCalls++
	s.mu.Unlock()
	return s.Store.CountBooksByAuthors(ctx, ids)
}

func (s *countingStore) CountBooksByAuthor(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	s.singleCalls++
	s.mu.Unlock()
	return s.Store.CountBooksByAuthor(ctx, id)
}

type ResolverSuite struct {
	suite.Suite

	store     *countingStore
	auth      *auth.Service
	publisher *fakePublisher
	schema    graphql.Schema
	user      *models.User
}

func TestResolvers(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.store = &countingStore{Store: memory.New()}
	s.publisher = &fakePublisher{}

	var err error
	s.auth, err = auth.NewService("test-secret", s.store)
	s.Require().NoError(err)

	s.schema, err = graph.NewSchema(resolvers.NewResolver(s.store, s.auth, s.publisher))
	s.Require().NoError(err)

	s.user, err = s.store.SaveUser(context.Background(), &models.User{Username: "alice", FavoriteGenre: "crime"})
	s.Require().NoError(err)
}

func (s *ResolverSuite) anonymous() context.Context {
	return dataloader.WithLoaders(context.Background(), dataloader.NewLoaders(s.store))
}

func (s *ResolverSuite) signedIn() context.Context {
	return ctxkeys.WithCurrentUser(s.anonymous(), s.user)
}

func (s *ResolverSuite) exec(ctx context.Context, query string, vars map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        ctx,
	})
}

// mustExec выполняет запрос без ошибок и раскладывает data в out
func (s *ResolverSuite) mustExec(ctx context.Context, query string, vars map[string]interface{}, out interface{}) {
	result := s.exec(ctx, query, vars)
	s.Require().Empty(result.Errors)
	data, err := json.Marshal(result.Data)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(data, out))
}

func (s *ResolverSuite) errorCode(result *graphql.Result) string {
	s.Require().Len(result.Errors, 1)
	code, _ := result.Errors[0].Extensions["code"].(string)
	return code
}

const addBookMutation = `
mutation AddBook($title: String!, $author: String!, $published: Int!, $genres: [String!]!) {
  addBook(title: $title, author: $author, published: $published, genres: $genres) {
    id
    title
    published
    genres
    author { id name born }
  }
}`

type bookResult struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Published int      `json:"published"`
	Genres    []string `json:"genres"`
	Author    struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Born *int   `json:"born"`
	} `json:"author"`
}

func (s *ResolverSuite) addBook(title, author string, genres ...string) bookResult {
	var out struct {
		AddBook bookResult `json:"addBook"`
	}
	if genres == nil {
		genres = []string{}
	}
	s.mustExec(s.signedIn(), addBookMutation, map[string]interface{}{
		"title":     title,
		"author":    author,
		"published": 2008,
		"genres":    genres,
	}, &out)
	return out.AddBook
}

func (s *ResolverSuite) authorCount() int {
	var out struct {
		AuthorCount int `json:"authorCount"`
	}
	s.mustExec(s.anonymous(), `{ authorCount }`, nil, &out)
	return out.AuthorCount
}

func (s *ResolverSuite) TestAddBookCreatesUnknownAuthorOnce() {
	s.Equal(0, s.authorCount())

	first := s.addBook("Clean Code", "Robert Martin", "refactoring")
	s.Equal(1, s.authorCount())
	s.Equal("Robert Martin", first.Author.Name)
	s.Nil(first.Author.Born)
	s.Equal([]string{"refactoring"}, first.Genres)
	s.Equal(2008, first.Published)

	second := s.addBook("Agile software development", "Robert Martin", "agile")
	s.Equal(1, s.authorCount())
	s.Equal(first.Author.ID, second.Author.ID)

	var out struct {
		BookCount int `json:"bookCount"`
	}
	s.mustExec(s.anonymous(), `{ bookCount }`, nil, &out)
	s.Equal(2, out.BookCount)
}

func (s *ResolverSuite) TestAddBookPublishesEvent() {
	book := s.addBook("Clean Code", "Robert Martin", "refactoring")

	s.Require().Len(s.publisher.events, 1)
	event := s.publisher.events[0]
	s.Equal("created", event.Action)
	s.Equal("book", event.Type)
	s.Equal(book.ID, event.EntityID)
	s.Equal("Clean Code", event.Metadata["title"])
}

func (s *ResolverSuite) TestPublishFailureDoesNotFailMutation() {
	s.publisher.err = errors.New("redis is down")
	book := s.addBook("Clean Code", "Robert Martin")
	s.NotEmpty(book.ID)
}

func (s *ResolverSuite) TestAllBooksFilters() {
	s.addBook("Clean Code", "Robert Martin", "refactoring")
	s.addBook("Refactoring", "Martin Fowler", "refactoring", "patterns")
	s.addBook("The Demon", "Fyodor Dostoevsky", "classic", "revolution")
	s.addBook("Crime", "Fyodor Dostoevsky", "Classic")

	titles := func(vars map[string]interface{}) []string {
		var out struct {
			AllBooks []bookResult `json:"allBooks"`
		}
		s.mustExec(s.anonymous(), `query ($author: String, $genre: String) {
			allBooks(author: $author, genre: $genre) { title author { name } }
		}`, vars, &out)
		var titles []string
		for _, b := range out.AllBooks {
			titles = append(titles, b.Title)
		}
		return titles
	}

	s.Equal([]string{"Clean Code", "Refactoring", "The Demon", "Crime"}, titles(nil))
	s.Equal([]string{"Clean Code", "Refactoring"}, titles(map[string]interface{}{"genre": "refactoring"}))
	s.Equal([]string{"The Demon"}, titles(map[string]interface{}{"genre": "classic"}))
	s.Equal([]string{"Crime"}, titles(map[string]interface{}{"genre": "Classic"}))
	s.Empty(titles(map[string]interface{}{"genre": "class"}))
	s.Equal([]string{"The Demon", "Crime"}, titles(map[string]interface{}{"author": "Fyodor Dostoevsky"}))
	s.Equal([]string{"Crime"}, titles(map[string]interface{}{"author": "Fyodor Dostoevsky", "genre": "Classic"}))
	s.Empty(titles(map[string]interface{}{"author": "Nobody"}))
}

func (s *ResolverSuite) TestEditAuthor() {
	s.addBook("Clean Code", "Robert Martin")

	const edit = `mutation ($name: String!, $born: Int!) { editAuthor(name: $name, setBornTo: $born) { name born } }`

	result := s.exec(s.signedIn(), edit, map[string]interface{}{"name": "Nobody", "born": 1900})
	s.Empty(result.Errors)
	s.Nil(result.Data.(map[string]interface{})["editAuthor"])

	var out struct {
		EditAuthor struct {
			Name string `json:"name"`
			Born int    `json:"born"`
		} `json:"editAuthor"`
	}
	s.mustExec(s.signedIn(), edit, map[string]interface{}{"name": "Robert Martin", "born": 1952}, &out)
	s.Equal("Robert Martin", out.EditAuthor.Name)
	s.Equal(1952, out.EditAuthor.Born)

	var authors struct {
		AllAuthors []struct {
			Name string `json:"name"`
			Born *int   `json:"born"`
		} `json:"allAuthors"`
	}
	s.mustExec(s.anonymous(), `{ allAuthors { name born } }`, nil, &authors)
	s.Require().Len(authors.AllAuthors, 1)
	s.Require().NotNil(authors.AllAuthors[0].Born)
	s.Equal(1952, *authors.AllAuthors[0].Born)

	s.Require().Len(s.publisher.events, 2)
	s.Equal("updated", s.publisher.events[1].Action)
	s.Equal("author", s.publisher.events[1].Type)
}

func (s *ResolverSuite) TestMutationsRequireAuthentication() {
	result := s.exec(s.anonymous(), addBookMutation, map[string]interface{}{
		"title": "Clean Code", "author": "Robert Martin", "published": 2008, "genres": []string{},
	})
	s.Equal(apperrors.CodeUnauthenticated, s.errorCode(result))
	s.Nil(result.Data.(map[string]interface{})["addBook"])
	s.Equal(0, s.authorCount())

	result = s.exec(s.anonymous(), `mutation { editAuthor(name: "Robert Martin", setBornTo: 1952) { name } }`, nil)
	s.Equal(apperrors.CodeUnauthenticated, s.errorCode(result))
}

func (s *ResolverSuite) TestAddBookValidationKeepsAuthor() {
	result := s.exec(s.signedIn(), addBookMutation, map[string]interface{}{
		"title": "", "author": "Robert Martin", "published": 2008, "genres": []string{"refactoring"},
	})
	s.Equal(apperrors.CodeBadUserInput, s.errorCode(result))

	invalidArgs, ok := result.Errors[0].Extensions["invalidArgs"].(map[string]interface{})
	s.Require().True(ok)
	s.Equal("Robert Martin", invalidArgs["author"])
	s.Contains(result.Errors[0].Message, "title")

	// автор уже сохранен, книга нет
	s.Equal(1, s.authorCount())
	var out struct {
		BookCount int `json:"bookCount"`
	}
	s.mustExec(s.anonymous(), `{ bookCount }`, nil, &out)
	s.Equal(0, out.BookCount)
}

func (s *ResolverSuite) TestAddBookAcceptsBlankGenre() {
	book := s.addBook("   ", "Robert Martin", "")
	s.Equal("   ", book.Title)
	s.Equal([]string{""}, book.Genres)

	var out struct {
		AllBooks []bookResult `json:"allBooks"`
	}
	s.mustExec(s.anonymous(), `{ allBooks(genre: "") { title } }`, nil, &out)
	s.Len(out.AllBooks, 1)
}

func (s *ResolverSuite) TestLogin() {
	const login = `mutation ($u: String!, $p: String!) { login(username: $u, password: $p) { value } }`

	var out struct {
		Login struct {
			Value string `json:"value"`
		} `json:"login"`
	}
	s.mustExec(s.anonymous(), login, map[string]interface{}{"u": "alice", "p": "secret"}, &out)
	user, err := s.auth.CurrentUser(context.Background(), out.Login.Value)
	s.Require().NoError(err)
	s.Equal("alice", user.Username)

	wrong := s.exec(s.anonymous(), login, map[string]interface{}{"u": "alice", "p": "wrong"})
	nobody := s.exec(s.anonymous(), login, map[string]interface{}{"u": "nobody", "p": "secret"})
	s.Equal(apperrors.CodeBadUserInput, s.errorCode(wrong))
	s.Equal(apperrors.CodeBadUserInput, s.errorCode(nobody))
	s.Equal(wrong.Errors[0].Message, nobody.Errors[0].Message)
}

func (s *ResolverSuite) TestCreateUser() {
	const create = `mutation ($u: String!, $g: String!) { createUser(username: $u, favoriteGenre: $g) { id username favoriteGenre } }`

	var out struct {
		CreateUser struct {
			ID            string `json:"id"`
			Username      string `json:"username"`
			FavoriteGenre string `json:"favoriteGenre"`
		} `json:"createUser"`
	}
	s.mustExec(s.anonymous(), create, map[string]interface{}{"u": "bob", "g": "poetry"}, &out)
	s.NotEmpty(out.CreateUser.ID)
	s.Equal("poetry", out.CreateUser.FavoriteGenre)

	short := s.exec(s.anonymous(), create, map[string]interface{}{"u": "al", "g": "poetry"})
	s.Equal(apperrors.CodeBadUserInput, s.errorCode(short))
	s.Contains(short.Errors[0].Message, "shorter than the minimum allowed length (3)")

	duplicate := s.exec(s.anonymous(), create, map[string]interface{}{"u": "bob", "g": "crime"})
	s.Equal(apperrors.CodeBadUserInput, s.errorCode(duplicate))
	s.Contains(duplicate.Errors[0].Message, "to be unique")
}

func (s *ResolverSuite) TestMe() {
	result := s.exec(s.anonymous(), `{ me { username } }`, nil)
	s.Empty(result.Errors)
	s.Nil(result.Data.(map[string]interface{})["me"])

	var out struct {
		Me struct {
			Username      string `json:"username"`
			FavoriteGenre string `json:"favoriteGenre"`
		} `json:"me"`
	}
	s.mustExec(s.signedIn(), `{ me { username favoriteGenre } }`, nil, &out)
	s.Equal("alice", out.Me.Username)
	s.Equal("crime", out.Me.FavoriteGenre)
}

func (s *ResolverSuite) TestAuthorBookCountIsFresh() {
	for _, title := range []string{"Clean Code", "Clean Architecture", "The Clean Coder"} {
		s.addBook(title, "Robert Martin")
	}
	s.addBook("Refactoring", "Martin Fowler")

	type countOut struct {
		AllAuthors []struct {
			Name      string `json:"name"`
			BookCount int    `json:"bookCount"`
		} `json:"allAuthors"`
	}

	var before countOut
	s.mustExec(s.anonymous(), `{ allAuthors { name bookCount } }`, nil, &before)
	s.Require().Len(before.AllAuthors, 2)
	s.Equal(3, before.AllAuthors[0].BookCount)
	s.Equal(1, before.AllAuthors[1].BookCount)

	s.addBook("Agile software development", "Robert Martin")

	var after countOut
	s.mustExec(s.anonymous(), `{ allAuthors { name bookCount } }`, nil, &after)
	s.Equal(4, after.AllAuthors[0].BookCount)
}

func (s *ResolverSuite) TestBookCountIsBatched() {
	s.addBook("Clean Code", "Robert Martin")
	s.addBook("Refactoring", "Martin Fowler")
	s.addBook("Crime", "Fyodor Dostoevsky")

	var out struct {
		AllAuthors []struct {
			BookCount int `json:"bookCount"`
		} `json:"allAuthors"`
	}
	s.mustExec(s.anonymous(), `{ allAuthors { bookCount } }`, nil, &out)
	s.Len(out.AllAuthors, 3)
	s.Equal(1, s.store.batchCalls)
	s.Zero(s.store.singleCalls)
}

type failingStore struct {
	storage.Store
}

func (failingStore) CountBooks(context.Context) (int, error) {
	return 0, errors.New("connection refused")
}

func TestStoreFailureIsInternalError(t *testing.T) {
	store := failingStore{Store: memory.New()}
	authService, err := auth.NewService("test-secret", store)
	require.NoError(t, err)
	schema, err := graph.NewSchema(resolvers.NewResolver(store, authService, nil))
	require.NoError(t, err)

	result := graphql.Do(graphql.Params{Schema: schema, RequestString: `{ bookCount }`, Context: context.Background()})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, apperrors.CodeInternal, result.Errors[0].Extensions["code"])
	assert.NotContains(t, result.Errors[0].Message, "connection refused")
}

type failingCountStore struct {
	storage.Store
}

func (failingCountStore) CountBooksByAuthor(context.Context, string) (int, error) {
	return 0, errors.New("connection refused")
}

func TestBookCountFailureKeepsCodeWithoutLoaders(t *testing.T) {
	store := failingCountStore{Store: memory.New()}
	_, err := store.SaveAuthor(context.Background(), &models.Author{Name: "Robert Martin"})
	require.NoError(t, err)

	authService, err := auth.NewService("test-secret", store)
	require.NoError(t, err)
	schema, err := graph.NewSchema(resolvers.NewResolver(store, authService, nil))
	require.NoError(t, err)

	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ allAuthors { name bookCount } }`,
		Context:       context.Background(),
	})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, apperrors.CodeInternal, result.Errors[0].Extensions["code"])
}
