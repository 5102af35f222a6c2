package resolvers

import (
	"errors"

	"library/apperrors"
	"library/models"
	"library/utils"
	"library/websocket"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

// AddBook is the resolver for the addBook field. The author is created on
// first use; it is not removed when the book itself is rejected.
func (r *MutationResolver) AddBook(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	title, _ := p.Args["title"].(string)
	authorName, _ := p.Args["author"].(string)
	published, _ := p.Args["published"].(int)
	genres := stringList(p.Args["genres"])

	author, err := r.store.FindAuthorByName(ctx, authorName)
	if err != nil {
		return nil, internalError(ctx, err)
	}
	if author == nil {
		author, err = r.store.SaveAuthor(ctx, &models.Author{Name: authorName})
		if err != nil {
			return nil, storeError(ctx, err, p.Args)
		}
		utils.Logger.Debug("Author created", zap.String("name", author.Name), zap.String("id", author.ID))
	}

	book, err := r.store.SaveBook(ctx, &models.Book{
		Title:     title,
		Published: published,
		Genres:    genres,
		AuthorID:  author.ID,
	})
	if err != nil {
		return nil, storeError(ctx, err, p.Args)
	}
	if book.Author == nil {
		book.Author = author
	}

	r.publish(ctx, func(pub EventPublisher) error {
		return pub.PublishEntityCreated(ctx, websocket.EntityTypeBook, book.ID, map[string]any{
			"title":  book.Title,
			"author": book.Author.Name,
			"genres": book.Genres,
		})
	})

	return book, nil
}

// EditAuthor is the resolver for the editAuthor field. An unknown name
// gives null without an error.
func (r *MutationResolver) EditAuthor(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	name, _ := p.Args["name"].(string)
	born, _ := p.Args["setBornTo"].(int)

	author, err := r.store.FindAuthorByName(ctx, name)
	if err != nil {
		return nil, internalError(ctx, err)
	}
	if author == nil {
		return nil, nil
	}

	author.Born = &born
	saved, err := r.store.SaveAuthor(ctx, author)
	if err != nil {
		return nil, storeError(ctx, err, p.Args)
	}

	r.publish(ctx, func(pub EventPublisher) error {
		return pub.PublishEntityUpdated(ctx, websocket.EntityTypeAuthor, saved.ID, map[string]any{
			"name": saved.Name,
			"born": born,
		})
	})

	return saved, nil
}

// CreateUser is the resolver for the createUser field.
func (r *MutationResolver) CreateUser(p graphql.ResolveParams) (interface{}, error) {
	username, _ := p.Args["username"].(string)
	favoriteGenre, _ := p.Args["favoriteGenre"].(string)

	user, err := r.store.SaveUser(p.Context, &models.User{
		Username:      username,
		FavoriteGenre: favoriteGenre,
	})
	if err != nil {
		return nil, storeError(p.Context, err, p.Args)
	}
	return user, nil
}

// Login is the resolver for the login field.
func (r *MutationResolver) Login(p graphql.ResolveParams) (interface{}, error) {
	username, _ := p.Args["username"].(string)
	password, _ := p.Args["password"].(string)

	token, err := r.auth.Login(p.Context, username, password)
	if err != nil {
		var credentials *apperrors.InvalidCredentialsError
		if errors.As(err, &credentials) {
			return nil, credentials
		}
		return nil, internalError(p.Context, err)
	}
	return token, nil
}

// stringList converts a [String!]! argument to []string
func stringList(v interface{}) []string {
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
