package memory

import (
	"context"
	"sync"
	"testing"

	"library/models"
	"library/storage"
	"library/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStore: func(t *testing.T) storage.Store { return New() },
	})
}

// TestConcurrentAuthorUpsert проверяет, что уникальность имени держится при гонке
func TestConcurrentAuthorUpsert(t *testing.T) {
	store := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.SaveAuthor(ctx, &models.Author{Name: "Robert Martin"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	count, err := store.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCancelledContext(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.FindBooks(ctx, storage.BookFilter{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.SaveUser(ctx, &models.User{Username: "alice", FavoriteGenre: "crime"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUsersAreIndexedByIDAndName(t *testing.T) {
	store := New()
	ctx := context.Background()

	saved, err := store.SaveUser(ctx, &models.User{Username: "alice", FavoriteGenre: "crime"})
	require.NoError(t, err)

	byID, err := store.FindUserByID(ctx, saved.ID)
	require.NoError(t, err)
	byName, err := store.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, saved, byID)
	assert.Equal(t, saved, byName)

	byID.FavoriteGenre = "poetry"
	again, err := store.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "crime", again.FavoriteGenre)
	assert.Len(t, store.usersByID, 1)
	assert.Len(t, store.usersByName, 1)
}
