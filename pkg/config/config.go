package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	FirebaseProjectID       string

	StoreBackend    string
	MongoURI        string
	MongoDatabase   string
	PostgresConnStr string
	RedisAddr       string
	RedisClaimTTL   time.Duration

	TriggerJWTSecret string

	Retention           time.Duration
	SweepBatchSize      int
	SweepInterval       time.Duration
	DispatchConcurrency int
	InvalidTokenCodes   []string

	BroadcastRatePerMinute int
	PresentationFile       string
}

// Load reads configuration from the environment, after an optional .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		StoreBackend:            getEnv("STORE_BACKEND", BackendFirestore),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "faithconnect"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		TriggerJWTSecret:        getEnv("TRIGGER_JWT_SECRET", ""),
		InvalidTokenCodes: splitList(getEnv("INVALID_TOKEN_CODES",
			"registration-token-not-registered,invalid-registration-token")),
		PresentationFile: getEnv("PRESENTATION_FILE", ""),
	}

	var err error
	if cfg.RedisClaimTTL, err = getDuration("REDIS_CLAIM_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	retentionDays, err := getInt("RETENTION_DAYS", 7)
	if err != nil {
		return nil, err
	}
	cfg.Retention = time.Duration(retentionDays) * 24 * time.Hour
	if cfg.SweepBatchSize, err = getInt("SWEEP_BATCH_SIZE", 500); err != nil {
		return nil, err
	}
	if cfg.DispatchConcurrency, err = getInt("DISPATCH_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.BroadcastRatePerMinute, err = getInt("BROADCAST_RATE_PER_MINUTE", 30); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether ENV is development
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendFirestore, BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable not set")
		}
	case BackendPostgres:
		if c.PostgresConnStr == "" {
			return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}

	if c.Env == "production" && c.TriggerJWTSecret == "" {
		return fmt.Errorf("TRIGGER_JWT_SECRET must be set in production")
	}
	if c.Retention <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive")
	}
	if c.SweepBatchSize <= 0 || c.SweepBatchSize > 500 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be between 1 and 500")
	}
	if c.DispatchConcurrency <= 0 {
		return fmt.Errorf("DISPATCH_CONCURRENCY must be positive")
	}
	if c.BroadcastRatePerMinute <= 0 {
		return fmt.Errorf("BROADCAST_RATE_PER_MINUTE must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
