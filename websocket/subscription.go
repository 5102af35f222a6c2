package websocket

import (
	"context"
	"errors"

	"library/redis"
	"library/utils"

	"go.uber.org/zap"
)

// EventHandler получает сырой payload события
type EventHandler func(ctx context.Context, payload []byte) error

// SubscriptionService builds channel names and subscribes to Redis Pub/Sub
type SubscriptionService struct {
	redis *redis.Service
}

// New создает новый экземпляр сервиса подписок.
func New(svc *redis.Service) *SubscriptionService {
	return &SubscriptionService{redis: svc}
}

// Subscribe listens on channels until ctx is done and calls handler for every
// message. It returns once the subscription is confirmed by Redis.
func (s *SubscriptionService) Subscribe(ctx context.Context, handler EventHandler, channels ...string) error {
	if s.redis == nil || s.redis.GetClient() == nil {
		utils.Logger.Error("Redis unavailable for subscription")
		return errors.New(utils.T(ctx, "error.internal.events_unavailable"))
	}

	pubsub := s.redis.GetClient().Subscribe(ctx, channels...)
	// Receive ждет подтверждения подписки, иначе ранние публикации теряются
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		utils.Logger.Error("Failed to subscribe to Redis channels",
			zap.Strings("channels", channels),
			zap.Error(err))
		return &redis.RedisUnavailableError{Err: err}
	}
	chEvents := pubsub.Channel()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				utils.Logger.Error("Panic in subscription handler",
					zap.Strings("channels", channels),
					zap.Any("panic", r))
			}
			if err := pubsub.Close(); err != nil {
				utils.Logger.Error("Error closing Redis pubsub",
					zap.Strings("channels", channels),
					zap.Error(err))
			}
			utils.Logger.Debug("Subscription ended and cleaned up", zap.Strings("channels", channels))
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-chEvents:
				// Канал закрывается вместе с клиентом Redis
				if !ok {
					utils.Logger.Info("Redis channel closed, ending subscription", zap.Strings("channels", channels))
					return
				}
				if err := handler(ctx, []byte(msg.Payload)); err != nil {
					utils.Logger.Warn("Error handling event",
						zap.String("channel", msg.Channel),
						zap.Error(err))
				}
			}
		}
	}()

	return nil
}

// BuildChannelName формирует имя канала: <prefix>:<type>:updates для
// списка сущностей и <prefix>:<type>_<id> для конкретной сущности
func (s *SubscriptionService) BuildChannelName(entityType string, entityID *string) string {
	prefix := "library"
	if s.redis != nil && s.redis.KeyPrefix() != "" {
		prefix = s.redis.KeyPrefix()
	}

	if entityID != nil {
		return prefix + ":" + entityType + "_" + *entityID
	}
	return prefix + ":" + entityType + ":updates"
}
