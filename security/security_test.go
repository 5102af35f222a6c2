package security

import (
	"context"
	"errors"
	"testing"

	"library/apperrors"
	"library/ctxkeys"
	"library/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAuthAccess(t *testing.T) {
	_, err := ValidateAuthAccess(context.Background())
	var target *apperrors.AuthenticationError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, apperrors.CodeUnauthenticated, target.Extensions()["code"])

	ctx := ctxkeys.WithCurrentUser(context.Background(), &models.User{ID: "u1", Username: "alice"})
	user, err := ValidateAuthAccess(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}
