package ctxkeys

import (
	"context"

	"library/models"
)

type currentUserKey struct{}

type languageKey struct{}

// WithCurrentUser кладет пользователя запроса в контекст. nil означает анонимный запрос.
func WithCurrentUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey{}, user.Clone())
}

// GetCurrentUser возвращает копию пользователя запроса или nil
func GetCurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(currentUserKey{}).(*models.User)
	return user.Clone()
}

// WithLanguage stores the preferred language of the request
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// GetLanguage returns the request language, empty when unknown
func GetLanguage(ctx context.Context) string {
	lang, _ := ctx.Value(languageKey{}).(string)
	return lang
}
