package config

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/faith-connect/functions/internal/repositories"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// FirestoreOpener lazily creates the Firestore client, so other backends never dial it
type FirestoreOpener func(ctx context.Context) (*firestore.Client, error)

// Stores holds the repositories of the selected backend
type Stores struct {
	Notifications repositories.NotificationRepository
	Users         repositories.UserRepository
	closers       []func()
}

// InitStores opens the backend named by cfg.StoreBackend
func InitStores(ctx context.Context, cfg *Config, openFirestore FirestoreOpener, logger *zap.Logger) (*Stores, error) {
	s := &Stores{}
	switch cfg.StoreBackend {
	case BackendFirestore:
		client, err := openFirestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open Firestore: %w", err)
		}
		s.Notifications = repositories.NewFirestoreNotificationRepository(client)
		s.Users = repositories.NewFirestoreUserRepository(client)
		s.closers = append(s.closers, func() {
			if err := client.Close(); err != nil {
				logger.Error("error closing Firestore client", zap.Error(err))
			}
		})
		logger.Info("Using Firestore document store.")

	case BackendMongo:
		client, err := initMongo(ctx, cfg.MongoURI, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db := client.Database(cfg.MongoDatabase)
		s.Notifications = repositories.NewMongoNotificationRepository(db)
		s.Users = repositories.NewMongoUserRepository(db)
		s.closers = append(s.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				logger.Error("error closing MongoDB connection", zap.Error(err))
			} else {
				logger.Info("MongoDB connection closed.")
			}
		})

	case BackendPostgres:
		db, err := initPostgres(cfg.PostgresConnStr, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := repositories.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to auto migrate: %w", err)
		}
		s.Notifications = repositories.NewPostgresNotificationRepository(db)
		s.Users = repositories.NewPostgresUserRepository(db)
		s.closers = append(s.closers, func() {
			sqlDB, err := db.DB()
			if err != nil {
				logger.Error("error getting SQL DB from GORM", zap.Error(err))
				return
			}
			if err := sqlDB.Close(); err != nil {
				logger.Error("error closing PostgreSQL connection", zap.Error(err))
			} else {
				logger.Info("PostgreSQL connection closed.")
			}
		})

	case BackendMemory:
		store := repositories.NewMemoryStore()
		s.Notifications = store
		s.Users = store
		logger.Info("Using in-memory store, data is lost on exit.")

	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}
	return s, nil
}

// Close releases the backend connections
func (s *Stores) Close() {
	for _, closeFn := range s.closers {
		closeFn()
	}
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to PostgreSQL!")
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(ctx context.Context, uri string, logger *zap.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to MongoDB!")
	return client, nil
}

// InitRedis connects to Redis when addr is set; an empty addr returns nil
func InitRedis(ctx context.Context, addr string, logger *zap.Logger) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("Successfully connected to Redis!")
	return rdb, nil
}
