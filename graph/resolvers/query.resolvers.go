package resolvers

import (
	"library/ctxkeys"
	"library/storage"

	"github.com/graphql-go/graphql"
)

// BookCount is the resolver for the bookCount field.
func (r *QueryResolver) BookCount(p graphql.ResolveParams) (interface{}, error) {
	n, err := r.store.CountBooks(p.Context)
	if err != nil {
		return nil, internalError(p.Context, err)
	}
	return n, nil
}

// AuthorCount is the resolver for the authorCount field.
func (r *QueryResolver) AuthorCount(p graphql.ResolveParams) (interface{}, error) {
	n, err := r.store.CountAuthors(p.Context)
	if err != nil {
		return nil, internalError(p.Context, err)
	}
	return n, nil
}

// AllBooks is the resolver for the allBooks field.
func (r *QueryResolver) AllBooks(p graphql.ResolveParams) (interface{}, error) {
	var filter storage.BookFilter
	if author, ok := p.Args["author"].(string); ok {
		filter.Author = &author
	}
	if genre, ok := p.Args["genre"].(string); ok {
		filter.Genre = &genre
	}

	books, err := r.store.FindBooks(p.Context, filter)
	if err != nil {
		return nil, internalError(p.Context, err)
	}
	return books, nil
}

// AllAuthors is the resolver for the allAuthors field.
func (r *QueryResolver) AllAuthors(p graphql.ResolveParams) (interface{}, error) {
	authors, err := r.store.FindAllAuthors(p.Context)
	if err != nil {
		return nil, internalError(p.Context, err)
	}
	return authors, nil
}

// Me is the resolver for the me field.
func (r *QueryResolver) Me(p graphql.ResolveParams) (interface{}, error) {
	user := ctxkeys.GetCurrentUser(p.Context)
	if user == nil {
		return nil, nil
	}
	return user, nil
}
