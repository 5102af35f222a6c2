package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"library/utils"

	"go.uber.org/zap"
)

// Publisher публикует события сущностей в Redis Pub/Sub
type Publisher struct {
	subscriptionService *SubscriptionService
}

// NewPublisher создает новый экземпляр публикатора событий
func NewPublisher(subscriptions *SubscriptionService) *Publisher {
	return &Publisher{subscriptionService: subscriptions}
}

// PublishEntityCreated публикует событие создания в глобальный канал типа
func (p *Publisher) PublishEntityCreated(ctx context.Context, entityType, entityID string, metadata map[string]any) error {
	channel := p.subscriptionService.BuildChannelName(entityType, nil)

	return p.publishEvent(ctx, channel, EntityEvent{
		Action:   EntityActionCreated,
		EntityID: entityID,
		Type:     entityType,
		Metadata: metadata,
	})
}

// PublishEntityUpdated публикует событие обновления в глобальный канал
// и в канал конкретной сущности
func (p *Publisher) PublishEntityUpdated(ctx context.Context, entityType, entityID string, metadata map[string]any) error {
	event := EntityEvent{
		Action:   EntityActionUpdated,
		EntityID: entityID,
		Type:     entityType,
		Metadata: metadata,
	}

	channels := []string{
		p.subscriptionService.BuildChannelName(entityType, nil),
		p.subscriptionService.BuildChannelName(entityType, &entityID),
	}
	for _, ch := range channels {
		if err := p.publishEvent(ctx, ch, event); err != nil {
			return err
		}
	}
	return nil
}

// publishEvent приватный метод для публикации события в Redis
func (p *Publisher) publishEvent(ctx context.Context, channel string, event EntityEvent) error {
	redisService := p.subscriptionService.redis
	if redisService == nil || redisService.GetClient() == nil {
		utils.Logger.Error("Redis unavailable for event publishing")
		return errors.New(utils.T(ctx, "error.internal.events_unavailable"))
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		utils.Logger.Error("Failed to marshal event", zap.Error(err), zap.Any("event", event))
		return err
	}

	if err := redisService.GetClient().Publish(ctx, channel, eventJSON).Err(); err != nil {
		utils.Logger.Error("Failed to publish event",
			zap.Error(err),
			zap.String("channel", channel),
			zap.Any("event", event))
		return err
	}

	utils.Logger.Debug("Successfully published event to Redis",
		zap.String("channel", channel),
		zap.String("eventJSON", string(eventJSON)))

	return nil
}
