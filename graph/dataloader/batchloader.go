package dataloader

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BatchLoader collects keys requested within a short window and fetches
// them with a single call. Results are not cached between batches.
type BatchLoader[K comparable, V any] struct {
	fetch    func(context.Context, []K) ([]V, []error)
	wait     time.Duration
	maxBatch int

	mu    sync.Mutex
	batch []batchRequest[K, V]
	timer *time.Timer
}

type batchRequest[K comparable, V any] struct {
	key    K
	result chan result[V]
}

type result[V any] struct {
	value V
	err   error
}

// NewBatchLoader creates a loader. fetch must return values in key order;
// errors may be nil, one shared error, or one per key.
func NewBatchLoader[K comparable, V any](
	fetch func(context.Context, []K) ([]V, []error),
	wait time.Duration,
	maxBatch int,
) *BatchLoader[K, V] {
	if maxBatch <= 0 {
		maxBatch = 100
	}
	if wait <= 0 {
		wait = 2 * time.Millisecond
	}

	return &BatchLoader[K, V]{
		fetch:    fetch,
		wait:     wait,
		maxBatch: maxBatch,
	}
}

// Load loads a single value, waiting for its batch
func (l *BatchLoader[K, V]) Load(ctx context.Context, key K) (V, error) {
	ch := l.enqueue(ctx, key)

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// LoadThunk enqueues key right away and returns a function that waits for
// the value. Resolvers of a list return thunks so every key of the list
// lands in the same batch.
func (l *BatchLoader[K, V]) LoadThunk(ctx context.Context, key K) func() (V, error) {
	ch := l.enqueue(ctx, key)

	return func() (V, error) {
		select {
		case r := <-ch:
			return r.value, r.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}
}

func (l *BatchLoader[K, V]) enqueue(ctx context.Context, key K) chan result[V] {
	ch := make(chan result[V], 1)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.batch = append(l.batch, batchRequest[K, V]{key: key, result: ch})

	// Полный батч уходит сразу, не дожидаясь таймера
	if len(l.batch) >= l.maxBatch {
		batch := l.takeLocked()
		go l.executeBatch(ctx, batch)
		return ch
	}

	if l.timer == nil {
		l.timer = time.AfterFunc(l.wait, func() {
			l.mu.Lock()
			batch := l.takeLocked()
			l.mu.Unlock()

			l.executeBatch(ctx, batch)
		})
	}
	return ch
}

// takeLocked detaches the pending batch; l.mu must be held
func (l *BatchLoader[K, V]) takeLocked() []batchRequest[K, V] {
	batch := l.batch
	l.batch = nil
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	return batch
}

func (l *BatchLoader[K, V]) executeBatch(ctx context.Context, batch []batchRequest[K, V]) {
	if len(batch) == 0 {
		return
	}

	keys := make([]K, len(batch))
	for i, req := range batch {
		keys[i] = req.key
	}

	values, errs := l.fetch(ctx, keys)

	for i, req := range batch {
		var r result[V]
		switch {
		case len(errs) == 1 && errs[0] != nil:
			r.err = errs[0]
		case i < len(errs) && errs[i] != nil:
			r.err = errs[i]
		case i < len(values):
			r.value = values[i]
		default:
			r.err = fmt.Errorf("dataloader: no value for key %v", req.key)
		}

		// Канал буферизован, отправка не блокирует даже если вызывающий ушел
		req.result <- r
		close(req.result)
	}
}
