package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/faith-connect/functions/internal/models"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = errors.New("document not found")

// NotificationsCollection is the collection the dispatch trigger watches
const NotificationsCollection = "push_notifications"

// NotificationRepository defines the operations on notification requests
type NotificationRepository interface {
	GetNotificationByID(ctx context.Context, id string) (*models.PushNotification, error)
	// UpdateDeliveryStatus merges the outcome fields into the document; other fields are left untouched.
	UpdateDeliveryStatus(ctx context.Context, id string, status models.DeliveryStatus) error
	// ListCreatedBefore returns at most limit ids of requests created before cutoff.
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	// DeleteNotifications removes all given ids in one batch.
	DeleteNotifications(ctx context.Context, ids []string) error
}
