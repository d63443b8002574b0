package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/faith-connect/functions/internal/models"
	"github.com/anonto42/faith-connect/functions/internal/repositories"
	"github.com/anonto42/faith-connect/functions/internal/services"
	"github.com/labstack/echo/v4"
)

// TriggerHandler receives document-created events for push_notifications
type TriggerHandler struct {
	dispatcher *services.Dispatcher
}

// NewTriggerHandler creates a new TriggerHandler
func NewTriggerHandler(dispatcher *services.Dispatcher) *TriggerHandler {
	return &TriggerHandler{dispatcher: dispatcher}
}

// RegisterTriggerRoutes registers the dispatch trigger route
func (h *TriggerHandler) RegisterTriggerRoutes(g *echo.Group) {
	g.POST("/push-notifications", h.PushNotificationCreated)
}

// NotificationCreatedEvent is the trigger payload. Document may be omitted,
// in which case the request is read from the store.
type NotificationCreatedEvent struct {
	ID       string                   `json:"id" validate:"required"`
	Document *models.PushNotification `json:"document,omitempty"`
}

// PushNotificationCreated dispatches the created request.
// It answers 200 whatever the outcome so the trigger never retries.
func (h *TriggerHandler) PushNotificationCreated(c echo.Context) error {
	var event NotificationCreatedEvent
	if err := c.Bind(&event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event payload")
	}
	if event.ID == "" {
		event.ID = notificationIDFromSubject(c.Request().Header.Get("Ce-Subject"))
	}
	if err := c.Validate(&event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Notification id is required")
	}

	result := h.dispatcher.Dispatch(c.Request().Context(), event.ID, event.Document)
	return c.JSON(http.StatusOK, result)
}

// notificationIDFromSubject extracts the id from a CloudEvent subject like
// "documents/push_notifications/abc123".
func notificationIDFromSubject(subject string) string {
	prefix := "documents/" + repositories.NotificationsCollection + "/"
	if !strings.HasPrefix(subject, prefix) {
		return ""
	}
	id := strings.TrimPrefix(subject, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
