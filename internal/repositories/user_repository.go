package repositories

import (
	"context"

	"github.com/anonto42/faith-connect/functions/internal/models"
)

// UsersCollection holds user profiles and their device tokens
const UsersCollection = "users"

// UserRepository defines the profile operations the dispatcher needs
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.UserProfile, error)
	// RemoveFCMTokens drops only the given tokens, so tokens registered concurrently survive.
	RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error
}
