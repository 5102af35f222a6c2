package security

import (
	"context"

	"library/apperrors"
	"library/ctxkeys"
	"library/models"
)

// ValidateAuthAccess проверяет, что в запросе есть аутентифицированный пользователь
func ValidateAuthAccess(ctx context.Context) (*models.User, error) {
	user := ctxkeys.GetCurrentUser(ctx)
	if user == nil {
		return nil, apperrors.NewAuthenticationError(ctx)
	}
	return user, nil
}
