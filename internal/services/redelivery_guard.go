package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedeliveryGuard claims a notification id so that a repeated trigger
// delivery of the same creation event is not sent twice.
type RedeliveryGuard interface {
	// Claim returns true only for the first caller of a given id.
	Claim(ctx context.Context, id string) (bool, error)
}

// RedisGuard implements RedeliveryGuard with SET NX and a TTL
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisGuard creates a RedisGuard. Claims expire after ttl.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl, prefix: "push_notifications:claimed:"}
}

// Claim sets the claim key if it does not exist yet
func (g *RedisGuard) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+id, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", id, err)
	}
	return ok, nil
}
