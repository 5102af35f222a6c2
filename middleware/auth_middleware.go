package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"library/apperrors"
	"library/ctxkeys"
	"library/models"
	"library/utils"

	"go.uber.org/zap"
)

// UserResolver resolves the user behind a bearer token.
// Implemented by auth.Service.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware кладет текущего пользователя в контекст запроса.
//
// Without an Authorization header, or with a scheme other than Bearer, the
// request continues anonymously. A bearer token that fails verification
// ends the request with 401 and a GraphQL error.
func AuthMiddleware(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r.WithContext(ctxkeys.WithCurrentUser(ctx, nil)))
				return
			}

			user, err := users.CurrentUser(ctx, token)
			if err != nil {
				var invalid *apperrors.InvalidTokenError
				if errors.As(err, &invalid) {
					utils.Logger.Debug("Rejected bearer token",
						zap.String("path", r.URL.Path),
						zap.Error(invalid.Cause),
					)
					WriteGraphQLError(w, http.StatusUnauthorized, invalid.Error(), apperrors.CodeUnauthenticated)
					return
				}

				utils.Logger.Error("Failed to load current user", zap.Error(err))
				WriteGraphQLError(w, http.StatusInternalServerError,
					utils.T(ctx, "error.internal.unexpected"), apperrors.CodeInternal)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxkeys.WithCurrentUser(ctx, user)))
		})
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
