package dataloader

import (
	"context"
	"net/http"
	"time"

	"library/storage"
)

type ctxKey string

const (
	LoadersKey = ctxKey("dataloaders")
)

// Loaders holds the per-request data loaders
type Loaders struct {
	// BookCountLoader counts books of many authors with one store call
	BookCountLoader *BatchLoader[string, int]
}

// NewLoaders creates new data loaders
func NewLoaders(store storage.Store) *Loaders {
	reader := &bookCountReader{store: store}

	return &Loaders{
		BookCountLoader: NewBatchLoader(reader.GetBookCounts, 2*time.Millisecond, 100),
	}
}

// For returns the loaders from context or nil
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(LoadersKey).(*Loaders)
	return loaders
}

// WithLoaders stores the loaders in the context
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, LoadersKey, loaders)
}

// Middleware gives every request its own loaders
func Middleware(store storage.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(store))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type bookCountReader struct {
	store storage.Store
}

// GetBookCounts is the batch function of BookCountLoader
func (r *bookCountReader) GetBookCounts(ctx context.Context, authorIDs []string) ([]int, []error) {
	counts, err := r.store.CountBooksByAuthors(ctx, authorIDs)
	if err != nil {
		return nil, []error{err}
	}

	result := make([]int, len(authorIDs))
	for i, id := range authorIDs {
		result[i] = counts[id]
	}
	return result, nil
}
