package handlers

import (
	"github.com/anonto42/faith-connect/functions/internal/callable"
	"github.com/anonto42/faith-connect/functions/internal/middleware"
	"github.com/anonto42/faith-connect/functions/internal/models"
	"github.com/anonto42/faith-connect/functions/internal/services"
	"github.com/labstack/echo/v4"
)

// TopicHandler serves the sendTopicNotification callable
type TopicHandler struct {
	broadcaster *services.Broadcaster
}

// NewTopicHandler creates a new TopicHandler
func NewTopicHandler(broadcaster *services.Broadcaster) *TopicHandler {
	return &TopicHandler{broadcaster: broadcaster}
}

// RegisterTopicRoutes registers the callable route
func (h *TopicHandler) RegisterTopicRoutes(g *echo.Group) {
	g.POST("/sendTopicNotification", h.SendTopicNotification)
}

// SendTopicNotification handles {"data": {...}} and answers {"result": ...} or {"error": ...}
func (h *TopicHandler) SendTopicNotification(c echo.Context) error {
	caller := middleware.CallerFromContext(c)

	var req callable.Request[models.TopicNotificationRequest]
	if err := c.Bind(&req); err != nil && caller != nil {
		return callable.WriteError(c, callable.NewError(callable.InvalidArgument, "Request body must be a JSON object with a data field"))
	}

	result, err := h.broadcaster.SendTopicNotification(c.Request().Context(), caller, req.Data)
	if err != nil {
		return callable.WriteError(c, err)
	}
	return callable.WriteResult(c, result)
}
