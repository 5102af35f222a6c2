package resolvers

import (
	"fmt"

	"library/graph/dataloader"
	"library/models"

	"github.com/graphql-go/graphql"
)

// BookCount is the resolver for Author.bookCount. With loaders in the
// context it returns a thunk so that all authors of a list are counted in
// one batch; without them it counts right away.
func (r *AuthorResolver) BookCount(p graphql.ResolveParams) (interface{}, error) {
	author, ok := p.Source.(*models.Author)
	if !ok || author == nil {
		return nil, fmt.Errorf("bookCount: unexpected source %T", p.Source)
	}

	loaders := dataloader.For(p.Context)
	if loaders == nil {
		n, err := r.store.CountBooksByAuthor(p.Context, author.ID)
		if err != nil {
			return nil, internalError(p.Context, err)
		}
		return n, nil
	}

	load := loaders.BookCountLoader.LoadThunk(p.Context, author.ID)
	return func() (interface{}, error) {
		n, err := load()
		if err != nil {
			// graphql-go теряет extensions у ошибок из thunk, клиент получит только сообщение
			return nil, internalError(p.Context, err)
		}
		return n, nil
	}, nil
}
