package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/anonto42/faith-connect/functions/internal/models"
	"github.com/anonto42/faith-connect/functions/internal/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher(t *testing.T, store *flakyStore, sender *fakeSender, opts ...DispatcherOption) *Dispatcher {
	t.Helper()
	builder, err := push.NewBuilder(push.DefaultPresentation())
	require.NoError(t, err)
	return NewDispatcher(store, store, sender, builder, fakeClassifier{}, zap.NewNop(), opts...)
}

func putRequest(store *flakyStore, n models.PushNotification) *models.PushNotification {
	store.PutNotification(&n)
	return &n
}

func TestDispatch_MissingRequiredFields(t *testing.T) {
	cases := map[string]models.PushNotification{
		"no user":  {ID: "n1", Title: "hello"},
		"no title": {ID: "n1", UserID: "u1"},
		"neither":  {ID: "n1"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			store := newFlakyStore()
			store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: []string{"t1"}})
			sender := &fakeSender{}
			n := putRequest(store, req)

			result := newTestDispatcher(t, store, sender).Dispatch(context.Background(), "n1", n)

			assert.False(t, result.Success)
			assert.Equal(t, models.ErrMsgMissingFields, result.Error)
			assert.Zero(t, sender.calls())

			stored, err := store.GetNotificationByID(context.Background(), "n1")
			require.NoError(t, err)
			assert.False(t, stored.Sent)
			assert.Equal(t, models.ErrMsgMissingFields, stored.Error)
			assert.Nil(t, stored.ErrorAt)
		})
	}
}

func TestDispatch_UserNotFound(t *testing.T) {
	store := newFlakyStore()
	sender := &fakeSender{}
	n := putRequest(store, models.PushNotification{ID: "n1", UserID: "ghost", Title: "hi"})

	result := newTestDispatcher(t, store, sender).Dispatch(context.Background(), "n1", n)

	assert.Equal(t, models.ErrMsgUserNotFound, result.Error)
	assert.Zero(t, sender.calls())
	stored, _ := store.GetNotificationByID(context.Background(), "n1")
	assert.False(t, stored.Sent)
	assert.Equal(t, models.ErrMsgUserNotFound, stored.Error)
}

func TestDispatch_NoTokens(t *testing.T) {
	store := newFlakyStore()
	store.PutUser(&models.UserProfile{ID: "u1"})
	sender := &fakeSender{}
	n := putRequest(store, models.PushNotification{ID: "n1", UserID: "u1", Title: "hi"})

	result := newTestDispatcher(t, store, sender).Dispatch(context.Background(), "n1", n)

	assert.Equal(t, models.ErrMsgNoTokens, result.Error)
	assert.Zero(t, sender.calls())
	stored, _ := store.GetNotificationByID(context.Background(), "n1")
	assert.Equal(t, models.ErrMsgNoTokens, stored.Error)
}

func TestDispatch_PartialFailurePrunesInvalidTokens(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			store := newFlakyStore()
			store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: []string{"ok-1", "dead-1", "ok-2", "bad-1", "flaky-1"}})
			sender := &fakeSender{failures: map[string]error{
				"dead-1":  fmt.Errorf("send: %w", errUnregistered),
				"bad-1":   errMalformed,
				"flaky-1": errUnavailable,
			}}
			n := putRequest(store, models.PushNotification{ID: "n1", UserID: "u1", Title: "hi", Type: models.TypeNewPost})

			result := newTestDispatcher(t, store, sender, WithConcurrency(concurrency)).Dispatch(context.Background(), "n1", n)

			assert.True(t, result.Success)
			assert.Equal(t, 2, result.SentCount)
			assert.Equal(t, 5, result.TotalTokens)
			assert.Equal(t, 5, sender.calls())

			stored, err := store.GetNotificationByID(context.Background(), "n1")
			require.NoError(t, err)
			assert.True(t, stored.Sent)
			assert.NotNil(t, stored.SentAt)
			assert.Equal(t, 2, *stored.SuccessCount)
			assert.Equal(t, 5, *stored.TotalTokens)
			assert.Equal(t, 2, *stored.InvalidTokensRemoved)

			user, err := store.GetUserByID(context.Background(), "u1")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"ok-1", "ok-2", "flaky-1"}, user.FCMTokens)
			assert.Equal(t, 1, store.removeCalls, "cleanup is a single write")
		})
	}
}

func TestDispatch_AllSendsFailStillRecordsSent(t *testing.T) {
	store := newFlakyStore()
	store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: []string{"a", "b"}})
	sender := &fakeSender{failures: map[string]error{"a": errUnavailable, "b": errUnavailable}}
	n := putRequest(store, models.PushNotification{ID: "n1", UserID: "u1", Title: "hi"})

	result := newTestDispatcher(t, store, sender).Dispatch(context.Background(), "n1", n)

	assert.True(t, result.Success)
	assert.Zero(t, result.SentCount)
	assert.Zero(t, store.removeCalls, "no invalid tokens, no cleanup write")
	stored, _ := store.GetNotificationByID(context.Background(), "n1")
	assert.True(t, stored.Sent)
	assert.Equal(t, 0, *stored.SuccessCount)
	assert.Equal(t, 2, *stored.TotalTokens)
	assert.Equal(t, 0, *stored.InvalidTokensRemoved)
}

func TestDispatch_MessageAddressedPerToken(t *testing.T) {
	store := newFlakyStore()
	store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: []string{"a", "b"}})
	sender := &fakeSender{}
	n := putRequest(store, models.PushNotification{ID: "n1", UserID: "u1", Title: "hi", Type: models.TypeLike, ChatID: "c1"})

	newTestDispatcher(t, store, sender).Dispatch(context.Background(), "n1", n)

	require.Len(t, sender.sent, 2)
	tokens := []string{sender.sent[0].Token, sender.sent[1].Token}
	assert.ElementsMatch(t, []string{"a", "b"}, tokens)
	for _, msg := range sender.sent {
		assert.Equal(t, "liked your content", msg.Notification.Body)
		assert.Equal(t, "c1", msg.Data["chatId"])
	}
}

func TestDispatch_LookupErrorIsRecorded(t *testing.T) {
	store := newFlakyStore()
	store.getUserErr = errors.New("deadline exceeded")
	sender := &fakeSender{}
	n := putRequest(store, models.PushNotification{ID: "n1", UserID: "u1", Title: "hi"})

	result := newTestDispatcher(t, store, sender).Dispatch(context.Background(), "n1", n)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "deadline exceeded")
	assert.Zero(t, sender.calls())
	stored, _ := store.GetNotificationByID(context.Background(), "n1")
	assert.False(t, stored.Sent)
	assert.Contains(t, stored.Error, "deadline exceeded")
	assert.NotNil(t, stored.ErrorAt)
}

func TestDispatch_CleanupErrorIsRecorded(t *testing.T) {
	store := newFlakyStore()
	store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: []string{"dead"}})
	store.removeErr = errors.New("permission denied")
	sender := &fakeSender{failures: map[string]error{"dead": errUnregistered}}
	n := putRequest(store, models.PushNotification{ID: "n1", UserID: "u1", Title: "hi"})

	result := newTestDispatcher(t, store, sender).Dispatch(context.Background(), "n1", n)

	assert.False(t, result.Success)
	stored, _ := store.GetNotificationByID(context.Background(), "n1")
	assert.False(t, stored.Sent)
	assert.Contains(t, stored.Error, "permission denied")
	assert.NotNil(t, stored.ErrorAt)
}

func TestDispatch_RejectionWriteFailureFallsBackToErrorWrite(t *testing.T) {
	store := newFlakyStore()
	store.updateErr = errors.New("unavailable")
	n := putRequest(store, models.PushNotification{ID: "n1"})

	result := newTestDispatcher(t, store, &fakeSender{}).Dispatch(context.Background(), "n1", n)

	assert.False(t, result.Success)
	require.Len(t, store.statusWrites, 2)
	assert.False(t, store.statusWrites[0].StampError)
	assert.True(t, store.statusWrites[1].StampError)
}

func TestDispatch_LoadsRequestWhenPayloadMissing(t *testing.T) {
	store := newFlakyStore()
	store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: []string{"a"}})
	putRequest(store, models.PushNotification{ID: "n1", UserID: "u1", Title: "hi"})
	sender := &fakeSender{}

	result := newTestDispatcher(t, store, sender).Dispatch(context.Background(), "n1", nil)

	assert.True(t, result.Success)
	assert.Equal(t, 1, sender.calls())
}

func TestDispatch_DeletedRequestIsNotWritten(t *testing.T) {
	store := newFlakyStore()

	result := newTestDispatcher(t, store, &fakeSender{}).Dispatch(context.Background(), "gone", nil)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, store.statusWrites)
}

func TestDispatch_RedeliveryGuard(t *testing.T) {
	store := newFlakyStore()
	store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: []string{"a"}})
	n := putRequest(store, models.PushNotification{ID: "n1", UserID: "u1", Title: "hi"})
	sender := &fakeSender{}
	d := newTestDispatcher(t, store, sender, WithRedeliveryGuard(&memoryGuard{}))

	first := d.Dispatch(context.Background(), "n1", n)
	second := d.Dispatch(context.Background(), "n1", n)

	assert.True(t, first.Success)
	assert.True(t, second.Skipped)
	assert.Equal(t, 1, sender.calls())
	assert.Len(t, store.statusWrites, 1)
}

func TestDispatch_GuardErrorFailsOpen(t *testing.T) {
	store := newFlakyStore()
	store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: []string{"a"}})
	n := putRequest(store, models.PushNotification{ID: "n1", UserID: "u1", Title: "hi"})
	sender := &fakeSender{}
	d := newTestDispatcher(t, store, sender, WithRedeliveryGuard(&memoryGuard{err: errors.New("redis down")}))

	result := d.Dispatch(context.Background(), "n1", n)

	assert.True(t, result.Success)
	assert.Equal(t, 1, sender.calls())
}

func TestDispatch_BoundedConcurrency(t *testing.T) {
	store := newFlakyStore()
	tokens := make([]string, 12)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%d", i)
	}
	store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: tokens})
	n := putRequest(store, models.PushNotification{ID: "n1", UserID: "u1", Title: "hi"})
	sender := &fakeSender{delay: 5 * time.Millisecond}

	result := newTestDispatcher(t, store, sender, WithConcurrency(3)).Dispatch(context.Background(), "n1", n)

	assert.Equal(t, 12, result.SentCount)
	assert.LessOrEqual(t, sender.peak, 3)
}
