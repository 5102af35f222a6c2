// Package resolvers holds the field resolvers of the library schema.
//
// Resolver serves as dependency injection for the schema; add any
// dependencies the resolvers require here.
package resolvers

import (
	"context"

	"library/apperrors"
	"library/models"
	"library/services/auth"
	"library/storage"
	"library/utils"

	"go.uber.org/zap"
)

// EventPublisher получает события о созданных и измененных сущностях.
// Реализован websocket.Publisher.
type EventPublisher interface {
	PublishEntityCreated(ctx context.Context, entityType, entityID string, metadata map[string]any) error
	PublishEntityUpdated(ctx context.Context, entityType, entityID string, metadata map[string]any) error
}

// Resolver is the resolver root
type Resolver struct {
	store     storage.Store
	auth      *auth.Service
	publisher EventPublisher
}

// NewResolver creates the resolver root. publisher may be nil.
func NewResolver(store storage.Store, authService *auth.Service, publisher EventPublisher) *Resolver {
	return &Resolver{
		store:     store,
		auth:      authService,
		publisher: publisher,
	}
}

// Query returns the Query field resolvers.
func (r *Resolver) Query() *QueryResolver { return &QueryResolver{r} }

// Mutation returns the Mutation field resolvers.
func (r *Resolver) Mutation() *MutationResolver { return &MutationResolver{r} }

// Author returns the resolvers of derived Author fields.
func (r *Resolver) Author() *AuthorResolver { return &AuthorResolver{r} }

type QueryResolver struct{ *Resolver }
type MutationResolver struct{ *Resolver }
type AuthorResolver struct{ *Resolver }

// storeError превращает ошибку хранилища в ошибку для клиента.
// Отклоненные данные возвращаются как ValidationError с аргументами мутации.
func storeError(ctx context.Context, err error, args map[string]interface{}) error {
	if models.IsValidationError(err) {
		return apperrors.NewValidationError(err, args)
	}
	return internalError(ctx, err)
}

func internalError(ctx context.Context, err error) error {
	utils.Logger.Error("Store operation failed", zap.Error(err))
	return apperrors.NewInternalError(ctx, err)
}

// publish не дает ошибке публикации сорвать мутацию
func (r *Resolver) publish(ctx context.Context, fn func(EventPublisher) error) {
	if r.publisher == nil {
		return
	}
	if err := fn(r.publisher); err != nil {
		utils.Logger.Warn("Failed to publish event", zap.Error(err))
	}
}
