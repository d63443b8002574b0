package handlers

import (
	"net/http"

	"github.com/anonto42/faith-connect/functions/internal/services"
	"github.com/labstack/echo/v4"
)

// CleanupHandler runs the retention sweep when the scheduler calls in
type CleanupHandler struct {
	sweeper *services.Sweeper
}

// NewCleanupHandler creates a new CleanupHandler
func NewCleanupHandler(sweeper *services.Sweeper) *CleanupHandler {
	return &CleanupHandler{sweeper: sweeper}
}

// RegisterCleanupRoutes registers the scheduled cleanup route
func (h *CleanupHandler) RegisterCleanupRoutes(g *echo.Group) {
	g.POST("/cleanup-old-notifications", h.CleanupOldNotifications)
}

// CleanupOldNotifications reports {"deleted": n} or {"error": msg}; failures are not retried
func (h *CleanupHandler) CleanupOldNotifications(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sweeper.Result(c.Request().Context()))
}
