package dataloader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"library/models"
	"library/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadThunkBatchesKeys(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var seen [][]int

	loader := NewBatchLoader(func(_ context.Context, keys []int) ([]int, []error) {
		calls.Add(1)
		mu.Lock()
		seen = append(seen, keys)
		mu.Unlock()
		out := make([]int, len(keys))
		for i, k := range keys {
			out[i] = k * 10
		}
		return out, nil
	}, 20*time.Millisecond, 100)

	ctx := context.Background()
	thunks := make([]func() (int, error), 5)
	for i := range thunks {
		thunks[i] = loader.LoadThunk(ctx, i)
	}
	for i, thunk := range thunks {
		v, err := thunk()
		require.NoError(t, err)
		assert.Equal(t, i*10, v)
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, [][]int{{0, 1, 2, 3, 4}}, seen)
}

func TestFullBatchIsDispatchedImmediately(t *testing.T) {
	var calls atomic.Int32
	loader := NewBatchLoader(func(_ context.Context, keys []string) ([]string, []error) {
		calls.Add(1)
		return keys, nil
	}, time.Hour, 2)

	ctx := context.Background()
	a := loader.LoadThunk(ctx, "a")
	b := loader.LoadThunk(ctx, "b")

	v, err := a()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	v, err = b()
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSharedErrorReachesEveryKey(t *testing.T) {
	boom := errors.New("boom")
	loader := NewBatchLoader(func(_ context.Context, keys []string) ([]int, []error) {
		return nil, []error{boom}
	}, time.Millisecond, 10)

	ctx := context.Background()
	a := loader.LoadThunk(ctx, "a")
	b := loader.LoadThunk(ctx, "b")

	_, err := a()
	assert.ErrorIs(t, err, boom)
	_, err = b()
	assert.ErrorIs(t, err, boom)
}

func TestLoadHonoursContext(t *testing.T) {
	loader := NewBatchLoader(func(_ context.Context, keys []string) ([]int, []error) {
		return make([]int, len(keys)), nil
	}, time.Hour, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := loader.Load(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBookCountLoader(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	author, err := store.SaveAuthor(ctx, &models.Author{Name: "Robert Martin"})
	require.NoError(t, err)
	for _, title := range []string{"Clean Code", "Agile software development"} {
		_, err := store.SaveBook(ctx, &models.Book{Title: title, Genres: []string{}, AuthorID: author.ID})
		require.NoError(t, err)
	}

	assert.Nil(t, For(ctx))

	ctx = WithLoaders(ctx, NewLoaders(store))
	loader := For(ctx).BookCountLoader
	withLoader := loader.LoadThunk(ctx, author.ID)
	nobody := loader.LoadThunk(ctx, "nobody")

	n, err := withLoader()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = nobody()
	require.NoError(t, err)
	assert.Zero(t, n)
}
