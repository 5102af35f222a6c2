package apperrors

import (
	"context"

	"library/utils"
)

// Error codes reported in the "extensions.code" field of a GraphQL error
const (
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// ValidationError is returned when a store rejects the data of a mutation.
// It carries the mutation arguments so clients can see what was refused.
type ValidationError struct {
	Message     string
	InvalidArgs map[string]interface{}
	Cause       error
}

// NewValidationError wraps a store validation failure for the client
func NewValidationError(cause error, args map[string]interface{}) *ValidationError {
	return &ValidationError{
		Message:     cause.Error(),
		InvalidArgs: args,
		Cause:       cause,
	}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Cause }

// Extensions реализует gqlerrors.ExtendedError
func (e *ValidationError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":        CodeBadUserInput,
		"invalidArgs": e.InvalidArgs,
	}
}

// AuthenticationError is returned when a mutation needs a signed-in user.
type AuthenticationError struct {
	Message string
}

// NewAuthenticationError создает ошибку аутентификации с локализованным сообщением
func NewAuthenticationError(ctx context.Context) *AuthenticationError {
	return &AuthenticationError{Message: utils.T(ctx, "error.auth.not_authenticated")}
}

func (e *AuthenticationError) Error() string { return e.Message }

func (e *AuthenticationError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": CodeUnauthenticated}
}

// InvalidCredentialsError is returned by login. The message never says
// whether the username or the password was wrong.
type InvalidCredentialsError struct {
	Message string
}

func NewInvalidCredentialsError(ctx context.Context) *InvalidCredentialsError {
	return &InvalidCredentialsError{Message: utils.T(ctx, "error.auth.wrong_credentials")}
}

func (e *InvalidCredentialsError) Error() string { return e.Message }

func (e *InvalidCredentialsError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": CodeBadUserInput}
}

// InvalidTokenError is returned when a bearer token fails verification.
type InvalidTokenError struct {
	Message string
	Cause   error
}

func NewInvalidTokenError(ctx context.Context, cause error) *InvalidTokenError {
	return &InvalidTokenError{Message: utils.T(ctx, "error.auth.invalid_token"), Cause: cause}
}

func (e *InvalidTokenError) Error() string { return e.Message }

func (e *InvalidTokenError) Unwrap() error { return e.Cause }

func (e *InvalidTokenError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": CodeUnauthenticated}
}

// InternalError hides store and infrastructure failures from the client.
type InternalError struct {
	Message string
	Cause   error
}

func NewInternalError(ctx context.Context, cause error) *InternalError {
	return &InternalError{Message: utils.T(ctx, "error.internal.unexpected"), Cause: cause}
}

func (e *InternalError) Error() string { return e.Message }

func (e *InternalError) Unwrap() error { return e.Cause }

func (e *InternalError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": CodeInternal}
}
