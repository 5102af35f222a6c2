package ctxkeys

import (
	"context"
	"testing"

	"library/models"

	"github.com/stretchr/testify/assert"
)

func TestCurrentUserIsImmutable(t *testing.T) {
	user := &models.User{ID: "u1", Username: "alice", FavoriteGenre: "crime"}
	ctx := WithCurrentUser(context.Background(), user)

	user.Username = "mallory"
	got := GetCurrentUser(ctx)
	assert.Equal(t, "alice", got.Username)

	got.Username = "eve"
	assert.Equal(t, "alice", GetCurrentUser(ctx).Username)
}

func TestMissingValues(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetCurrentUser(ctx))
	assert.Nil(t, GetCurrentUser(WithCurrentUser(ctx, nil)))
	assert.Equal(t, "", GetLanguage(ctx))
	assert.Equal(t, "ru", GetLanguage(WithLanguage(ctx, "ru")))
}
