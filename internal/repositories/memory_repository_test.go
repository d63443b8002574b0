package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/anonto42/faith-connect/functions/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RemoveFCMTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: []string{"a", "b", "c", "d"}})

	require.NoError(t, store.RemoveFCMTokens(ctx, "u1", []string{"d", "b", "missing"}))

	user, err := store.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, user.FCMTokens)

	assert.ErrorIs(t, store.RemoveFCMTokens(ctx, "nobody", []string{"a"}), ErrNotFound)
}

func TestMemoryStore_GetUserByID_NotFound(t *testing.T) {
	_, err := NewMemoryStore().GetUserByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateDeliveryStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.PutNotification(&models.PushNotification{ID: "n1", UserID: "u1", Title: "hi"})

	require.NoError(t, store.UpdateDeliveryStatus(ctx, "n1", models.StatusDelivered(models.DeliveryCounts{
		SuccessCount: 1, TotalTokens: 2, InvalidTokensRemoved: 1,
	})))

	n, err := store.GetNotificationByID(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, n.Sent)
	require.NotNil(t, n.SentAt)
	assert.Equal(t, 1, *n.SuccessCount)
	assert.Equal(t, 2, *n.TotalTokens)
	assert.Equal(t, 1, *n.InvalidTokensRemoved)
	assert.Equal(t, "hi", n.Title, "other fields are preserved")

	require.NoError(t, store.UpdateDeliveryStatus(ctx, "n1", models.StatusFailed("boom")))
	n, _ = store.GetNotificationByID(ctx, "n1")
	assert.False(t, n.Sent)
	assert.Equal(t, "boom", n.Error)
	assert.NotNil(t, n.ErrorAt)

	assert.ErrorIs(t, store.UpdateDeliveryStatus(ctx, "nope", models.StatusRejected("x")), ErrNotFound)
}

func TestMemoryStore_ListCreatedBeforeAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		store.PutNotification(&models.PushNotification{
			ID:        fmt.Sprintf("n%02d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	ids, err := store.ListCreatedBefore(ctx, base.Add(5*time.Hour), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"n00", "n01", "n02"}, ids)

	ids, err = store.ListCreatedBefore(ctx, base.Add(5*time.Hour), 100)
	require.NoError(t, err)
	assert.Len(t, ids, 5)

	require.NoError(t, store.DeleteNotifications(ctx, ids))
	assert.Equal(t, 5, store.NotificationCount())
}
