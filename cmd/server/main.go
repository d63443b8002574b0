package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/faith-connect/functions/internal/app"
	"github.com/anonto42/faith-connect/functions/internal/metrics"
	"github.com/anonto42/faith-connect/functions/internal/router"
	"github.com/anonto42/faith-connect/functions/pkg/config"
	"github.com/anonto42/faith-connect/functions/pkg/logger"
	"github.com/anonto42/faith-connect/functions/validators"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Firebase, stores and services
	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer a.Close() // Ensure backend connections are closed when main exits

	metrics.Register(prometheus.DefaultRegisterer)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e, zl)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Dependencies{
		Dispatcher:     a.Dispatcher,
		Sweeper:        a.Sweeper,
		Broadcaster:    a.Broadcaster,
		TokenVerifier:  a.Firebase.AuthClient,
		TriggerSecret:  cfg.TriggerJWTSecret,
		BroadcastLimit: rate.Every(time.Minute / time.Duration(cfg.BroadcastRatePerMinute)),
		BroadcastBurst: cfg.BroadcastRatePerMinute,
		Logger:         zl,
	})

	if cfg.SweepInterval > 0 {
		go a.Sweeper.Run(ctx, cfg.SweepInterval)
	}

	// Start server
	go func() {
		zl.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
