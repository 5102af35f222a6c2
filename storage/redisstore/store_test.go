package redisstore

import (
	"context"
	"testing"

	"library/models"
	"library/storage"
	"library/storage/storagetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "test"), mr
}

func TestRedisStore(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStore: func(t *testing.T) storage.Store {
			store, _ := newTestStore(t)
			return store
		},
	})
}

func TestKeyLayout(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	author, err := store.SaveAuthor(ctx, &models.Author{Name: "Robert Martin"})
	require.NoError(t, err)
	book, err := store.SaveBook(ctx, &models.Book{
		Title:    "Clean Code",
		Genres:   []string{"refactoring"},
		AuthorID: author.ID,
	})
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:author:"+author.ID))
	assert.True(t, mr.Exists("test:book:"+book.ID))
	assert.Equal(t, author.ID, mr.HGet("test:authors:by_name", "Robert Martin"))

	members, err := mr.SMembers("test:books:genre:refactoring")
	require.NoError(t, err)
	assert.Equal(t, []string{book.ID}, members)

	// Автор хранится отдельно от книги
	raw, err := mr.Get("test:book:" + book.ID)
	require.NoError(t, err)
	assert.NotContains(t, raw, "Robert Martin")
}

func TestRenameReleasesOldName(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	author, err := store.SaveAuthor(ctx, &models.Author{Name: "Bob"})
	require.NoError(t, err)

	author.Name = "Robert Martin"
	_, err = store.SaveAuthor(ctx, author)
	require.NoError(t, err)

	assert.Empty(t, mr.HGet("test:authors:by_name", "Bob"))

	_, err = store.SaveAuthor(ctx, &models.Author{Name: "Bob"})
	assert.NoError(t, err)
}

func TestRedisDown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.CountBooks(context.Background())
	assert.Error(t, err)
	assert.False(t, models.IsValidationError(err))
	assert.Error(t, store.Ping(context.Background()))
}
