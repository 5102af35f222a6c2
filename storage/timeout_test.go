package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// blockingStore ждет отмены контекста, остальные методы не нужны
type blockingStore struct {
	Store
	deadlineSet bool
}

func (s *blockingStore) CountBooks(ctx context.Context) (int, error) {
	_, s.deadlineSet = ctx.Deadline()
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestWithTimeoutBoundsCalls(t *testing.T) {
	inner := &blockingStore{}
	store := WithTimeout(inner, 20*time.Millisecond)

	start := time.Now()
	_, err := store.CountBooks(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, inner.deadlineSet)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWithTimeoutDisabled(t *testing.T) {
	inner := &blockingStore{}
	assert.Same(t, Store(inner), WithTimeout(inner, 0))
}

func TestMatchesGenre(t *testing.T) {
	genres := []string{"Crime", "refactoring"}
	assert.True(t, MatchesGenre(genres, "Crime"))
	assert.False(t, MatchesGenre(genres, "crime"))
	assert.False(t, MatchesGenre(genres, "refactor"))
	assert.False(t, MatchesGenre(nil, "crime"))
}
