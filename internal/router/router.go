package router

import (
	"github.com/anonto42/faith-connect/functions/internal/handlers"
	"github.com/anonto42/faith-connect/functions/internal/metrics"
	"github.com/anonto42/faith-connect/functions/internal/middleware"
	"github.com/anonto42/faith-connect/functions/internal/services"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Dependencies are the services and settings the routes are built from
type Dependencies struct {
	Dispatcher    *services.Dispatcher
	Sweeper       *services.Sweeper
	Broadcaster   *services.Broadcaster
	TokenVerifier middleware.IDTokenVerifier
	// TriggerSecret guards the trigger routes; empty disables the guard.
	TriggerSecret string
	// BroadcastLimit and BroadcastBurst bound callable requests per caller.
	BroadcastLimit rate.Limit
	BroadcastBurst int
	Logger         *zap.Logger
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *zap.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestID())
	e.Use(middleware.MetricsMiddleware())
	logger.Info("global middleware configured")
}

// SetupRoutes configures all routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// --- Event triggers (database and scheduler) ---
	var triggerAuth []echo.MiddlewareFunc
	if deps.TriggerSecret != "" {
		triggerAuth = append(triggerAuth, middleware.TriggerAuthMiddleware(deps.TriggerSecret))
	} else {
		deps.Logger.Warn("TRIGGER_JWT_SECRET not set, trigger routes are unauthenticated")
	}

	triggers := e.Group("/triggers", triggerAuth...)
	handlers.NewTriggerHandler(deps.Dispatcher).RegisterTriggerRoutes(triggers)
	deps.Logger.Info("dispatch trigger route configured")

	tasks := e.Group("/tasks", triggerAuth...)
	handlers.NewCleanupHandler(deps.Sweeper).RegisterCleanupRoutes(tasks)
	deps.Logger.Info("cleanup task route configured")

	// --- Callable functions ---
	burst := deps.BroadcastBurst
	if burst <= 0 {
		burst = 1
	}
	limiter := middleware.NewRateLimiter(deps.BroadcastLimit, burst)
	calls := e.Group("/callable",
		middleware.FirebaseCallerMiddleware(deps.TokenVerifier),
		limiter.Middleware(),
	)
	handlers.NewTopicHandler(deps.Broadcaster).RegisterTopicRoutes(calls)
	deps.Logger.Info("callable routes configured")
}
