package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"library/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*redis.Service, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	svc := redis.NewServiceWithClient(client, &redis.RedisConfig{KeyPrefix: "test"})
	t.Cleanup(func() { _ = svc.Close() })
	return svc, mr
}

// TestPublisherEventSerialization проверяет корректность сериализации событий
func TestPublisherEventSerialization(t *testing.T) {
	tests := []struct {
		name     string
		event    EntityEvent
		expected string
	}{
		{
			name: "Created event",
			event: EntityEvent{
				Action:   EntityActionCreated,
				EntityID: "12345678-1234-1234-1234-123456789012",
				Type:     EntityTypeBook,
				Metadata: map[string]any{"title": "Clean Code"},
			},
			expected: `{"action":"created","entity_id":"12345678-1234-1234-1234-123456789012","type":"book","metadata":{"title":"Clean Code"}}`,
		},
		{
			name: "Updated event without metadata",
			event: EntityEvent{
				Action:   EntityActionUpdated,
				EntityID: "12345678-1234-1234-1234-123456789012",
				Type:     EntityTypeAuthor,
			},
			expected: `{"action":"updated","entity_id":"12345678-1234-1234-1234-123456789012","type":"author"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

// TestSubscriptionServiceChannelNames проверяет формирование имен каналов
func TestSubscriptionServiceChannelNames(t *testing.T) {
	svc, _ := newTestService(t)
	service := New(svc)
	id := "87654321-4321-4321-4321-210987654321"

	assert.Equal(t, "test:book:updates", service.BuildChannelName(EntityTypeBook, nil))
	assert.Equal(t, "test:author_"+id, service.BuildChannelName(EntityTypeAuthor, &id))
	assert.Equal(t, "library:book:updates", New(nil).BuildChannelName(EntityTypeBook, nil))
}

func TestPublishAndSubscribe(t *testing.T) {
	svc, _ := newTestService(t)
	subscriptions := New(svc)
	publisher := NewPublisher(subscriptions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan EntityEvent, 4)
	err := subscriptions.Subscribe(ctx, func(_ context.Context, payload []byte) error {
		var event EntityEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return err
		}
		received <- event
		return nil
	}, subscriptions.BuildChannelName(EntityTypeBook, nil))
	require.NoError(t, err)

	require.NoError(t, publisher.PublishEntityCreated(ctx, EntityTypeBook, "b1", map[string]any{"title": "Dune"}))

	select {
	case event := <-received:
		assert.Equal(t, EntityActionCreated, event.Action)
		assert.Equal(t, "b1", event.EntityID)
		assert.Equal(t, "Dune", event.Metadata["title"])
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestPublishEntityUpdatedUsesBothChannels(t *testing.T) {
	svc, _ := newTestService(t)
	subscriptions := New(svc)
	publisher := NewPublisher(subscriptions)
	ctx := context.Background()

	id := "a1"
	pubsub := svc.GetClient().Subscribe(ctx,
		subscriptions.BuildChannelName(EntityTypeAuthor, nil),
		subscriptions.BuildChannelName(EntityTypeAuthor, &id))
	defer pubsub.Close()
	// две подтвержденные подписки
	for i := 0; i < 2; i++ {
		_, err := pubsub.Receive(ctx)
		require.NoError(t, err)
	}

	require.NoError(t, publisher.PublishEntityUpdated(ctx, EntityTypeAuthor, id, nil))

	channels := map[string]bool{}
	for i := 0; i < 2; i++ {
		msg, err := pubsub.ReceiveMessage(ctx)
		require.NoError(t, err)
		channels[msg.Channel] = true
	}
	assert.True(t, channels["test:author:updates"])
	assert.True(t, channels["test:author_a1"])
}

// TestPublisherErrorHandling проверяет обработку ошибок в Publisher
func TestPublisherErrorHandling(t *testing.T) {
	t.Run("No redis", func(t *testing.T) {
		publisher := NewPublisher(New(nil))
		err := publisher.PublishEntityCreated(context.Background(), EntityTypeBook, "b1", nil)
		assert.Error(t, err)
	})

	t.Run("Closed redis", func(t *testing.T) {
		svc, _ := newTestService(t)
		publisher := NewPublisher(New(svc))
		require.NoError(t, svc.Close())

		err := publisher.PublishEntityCreated(context.Background(), EntityTypeBook, "b1", nil)
		assert.Error(t, err)
	})
}
