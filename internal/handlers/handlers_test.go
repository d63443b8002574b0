package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/faith-connect/functions/internal/models"
	"github.com/anonto42/faith-connect/functions/internal/push"
	"github.com/anonto42/faith-connect/functions/internal/repositories"
	"github.com/anonto42/faith-connect/functions/internal/services"
	"github.com/anonto42/faith-connect/functions/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	echo  *echo.Echo
	store *repositories.MemoryStore
	sent  []*messaging.Message
}

func newTestEnv(t *testing.T, caller *services.Caller) *testEnv {
	t.Helper()
	env := &testEnv{echo: echo.New(), store: repositories.NewMemoryStore()}
	env.echo.Validator = validators.NewValidator()

	builder, err := push.NewBuilder(push.DefaultPresentation())
	require.NoError(t, err)
	classifier, err := push.NewTokenErrorClassifier(push.DefaultInvalidTokenCodes)
	require.NoError(t, err)
	sender := push.SenderFunc(func(_ context.Context, msg *messaging.Message) (string, error) {
		env.sent = append(env.sent, msg)
		if msg.Topic == "broken" {
			return "", errors.New("fcm unavailable")
		}
		return "msg-" + msg.Token + msg.Topic, nil
	})

	logger := zap.NewNop()
	dispatcher := services.NewDispatcher(env.store, env.store, sender, builder, classifier, logger)
	sweeper := services.NewSweeper(env.store, 0, 0, logger)
	broadcaster := services.NewBroadcaster(sender, builder, validators.New(), logger)

	NewTriggerHandler(dispatcher).RegisterTriggerRoutes(env.echo.Group("/triggers"))
	NewCleanupHandler(sweeper).RegisterCleanupRoutes(env.echo.Group("/tasks"))

	calls := env.echo.Group("/callable", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if caller != nil {
				c.Set("caller", caller)
			}
			return next(c)
		}
	})
	NewTopicHandler(broadcaster).RegisterTopicRoutes(calls)
	env.echo.GET("/health", HealthCheck)
	return env
}

func (env *testEnv) post(path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func TestPushNotificationCreated_WithDocument(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.PutUser(&models.UserProfile{ID: "u1", FCMTokens: []string{"device-1", "device-2"}})
	env.store.PutNotification(&models.PushNotification{ID: "n1", UserID: "u1", Title: "Hello"})

	rec := env.post("/triggers/push-notifications",
		`{"id":"n1","document":{"userId":"u1","title":"Hello","type":"newFollower"}}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var result models.DispatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.SentCount)
	require.Len(t, env.sent, 2)
	assert.Equal(t, "started following you", env.sent[0].Notification.Body)
}

func TestPushNotificationCreated_IDFromCloudEventSubject(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.PutNotification(&models.PushNotification{ID: "n7", Title: "no user"})

	rec := env.post("/triggers/push-notifications", `{}`, map[string]string{
		"Ce-Subject": "documents/push_notifications/n7",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := env.store.GetNotificationByID(context.Background(), "n7")
	require.NoError(t, err)
	assert.Equal(t, models.ErrMsgMissingFields, stored.Error)
	assert.Empty(t, env.sent)
}

func TestPushNotificationCreated_MissingID(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.post("/triggers/push-notifications", `{"document":{"title":"x"}}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationIDFromSubject(t *testing.T) {
	assert.Equal(t, "abc", notificationIDFromSubject("documents/push_notifications/abc"))
	assert.Empty(t, notificationIDFromSubject("documents/users/abc"))
	assert.Empty(t, notificationIDFromSubject("documents/push_notifications/"))
	assert.Empty(t, notificationIDFromSubject("documents/push_notifications/abc/replies/1"))
	assert.Empty(t, notificationIDFromSubject(""))
}

func TestCleanupOldNotifications(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.PutNotification(&models.PushNotification{ID: "old", CreatedAt: time.Now().Add(-10 * 24 * time.Hour)})
	env.store.PutNotification(&models.PushNotification{ID: "new", CreatedAt: time.Now()})

	rec := env.post("/tasks/cleanup-old-notifications", ``, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())
	assert.Equal(t, 1, env.store.NotificationCount())
}

func TestSendTopicNotification_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.post("/callable/sendTopicNotification", `{"data":{"topic":"all","title":"hi"}}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"status":"UNAUTHENTICATED","message":"User must be authenticated"}}`, rec.Body.String())
	assert.Empty(t, env.sent)
}

func TestSendTopicNotification_UnauthenticatedBeatsMalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.post("/callable/sendTopicNotification", `not json`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendTopicNotification_InvalidArgument(t *testing.T) {
	env := newTestEnv(t, &services.Caller{UID: "leader"})
	rec := env.post("/callable/sendTopicNotification", `{"data":{"topic":"all"}}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":{"status":"INVALID_ARGUMENT","message":"Topic and title are required"}}`, rec.Body.String())

	rec = env.post("/callable/sendTopicNotification", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.sent)
}

func TestSendTopicNotification_Success(t *testing.T) {
	env := newTestEnv(t, &services.Caller{UID: "leader"})
	rec := env.post("/callable/sendTopicNotification", `{"data":{"topic":"all","title":"Service","body":"Starts at 10"}}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":{"success":true,"messageId":"msg-all"}}`, rec.Body.String())
	require.Len(t, env.sent, 1)
	assert.Equal(t, "Starts at 10", env.sent[0].Notification.Body)
}

func TestSendTopicNotification_ProviderFailure(t *testing.T) {
	env := newTestEnv(t, &services.Caller{UID: "leader"})
	rec := env.post("/callable/sendTopicNotification", `{"data":{"topic":"broken","title":"x"}}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"status":"INTERNAL","message":"fcm unavailable"}}`, rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
