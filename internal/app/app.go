package app

import (
	"context"
	"fmt"

	"github.com/anonto42/faith-connect/functions/internal/push"
	"github.com/anonto42/faith-connect/functions/internal/services"
	"github.com/anonto42/faith-connect/functions/pkg/config"
	"github.com/anonto42/faith-connect/functions/pkg/firebase"
	"github.com/anonto42/faith-connect/functions/validators"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App is the wired set of services shared by the server and pushctl
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Firebase *firebase.App
	Stores   *config.Stores
	Redis    *redis.Client

	Dispatcher  *services.Dispatcher
	Sweeper     *services.Sweeper
	Broadcaster *services.Broadcaster
}

// New connects the backends selected by cfg and builds the services on top of them
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	presentation, err := config.LoadPresentation(cfg.PresentationFile)
	if err != nil {
		return nil, err
	}
	builder, err := push.NewBuilder(presentation)
	if err != nil {
		return nil, err
	}
	classifier, err := push.NewTokenErrorClassifier(cfg.InvalidTokenCodes)
	if err != nil {
		return nil, fmt.Errorf("INVALID_TOKEN_CODES: %w", err)
	}

	fb, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseProjectID, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}

	stores, err := config.InitStores(ctx, cfg, fb.Firestore, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Firebase: fb, Stores: stores}

	opts := []services.DispatcherOption{services.WithConcurrency(cfg.DispatchConcurrency)}
	a.Redis, err = config.InitRedis(ctx, cfg.RedisAddr, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.Redis != nil {
		opts = append(opts, services.WithRedeliveryGuard(services.NewRedisGuard(a.Redis, cfg.RedisClaimTTL)))
		logger.Info("redelivery guard enabled", zap.Duration("ttl", cfg.RedisClaimTTL))
	}

	a.Dispatcher = services.NewDispatcher(stores.Notifications, stores.Users, fb.Messaging, builder, classifier, logger, opts...)
	a.Sweeper = services.NewSweeper(stores.Notifications, cfg.Retention, cfg.SweepBatchSize, logger)
	a.Broadcaster = services.NewBroadcaster(fb.Messaging, builder, validators.New(), logger)

	logger.Info("services initialized",
		zap.String("store_backend", cfg.StoreBackend),
		zap.Strings("invalid_token_codes", classifier.Codes()),
		zap.Int("dispatch_concurrency", cfg.DispatchConcurrency))
	return a, nil
}

// Close releases the backend connections
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("error closing Redis connection", zap.Error(err))
		}
	}
	a.Stores.Close()
}
