package repositories

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/faith-connect/functions/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreNotificationRepository implements NotificationRepository for Firestore
type FirestoreNotificationRepository struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
}

// NewFirestoreNotificationRepository creates a new FirestoreNotificationRepository
func NewFirestoreNotificationRepository(client *firestore.Client) *FirestoreNotificationRepository {
	return &FirestoreNotificationRepository{client: client, collection: client.Collection(NotificationsCollection)}
}

// GetNotificationByID reads a notification request
func (r *FirestoreNotificationRepository) GetNotificationByID(ctx context.Context, id string) (*models.PushNotification, error) {
	snap, err := r.collection.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}

	var notification models.PushNotification
	if err := snap.DataTo(&notification); err != nil {
		return nil, fmt.Errorf("decode notification %s: %w", id, err)
	}
	notification.ID = snap.Ref.ID
	return &notification, nil
}

// UpdateDeliveryStatus writes the dispatch outcome with server timestamps
func (r *FirestoreNotificationRepository) UpdateDeliveryStatus(ctx context.Context, id string, s models.DeliveryStatus) error {
	if _, err := r.collection.Doc(id).Update(ctx, firestoreStatusUpdates(s)); err != nil {
		return firestoreErr(err, "update notification %s", id)
	}
	return nil
}

func firestoreStatusUpdates(s models.DeliveryStatus) []firestore.Update {
	if s.Sent {
		updates := []firestore.Update{
			{Path: "sent", Value: true},
			{Path: "sentAt", Value: firestore.ServerTimestamp},
		}
		if s.Counts != nil {
			updates = append(updates,
				firestore.Update{Path: "successCount", Value: s.Counts.SuccessCount},
				firestore.Update{Path: "totalTokens", Value: s.Counts.TotalTokens},
				firestore.Update{Path: "invalidTokensRemoved", Value: s.Counts.InvalidTokensRemoved},
			)
		}
		return updates
	}

	updates := []firestore.Update{
		{Path: "sent", Value: false},
		{Path: "error", Value: s.Error},
	}
	if s.StampError {
		updates = append(updates, firestore.Update{Path: "errorAt", Value: firestore.ServerTimestamp})
	}
	return updates
}

// ListCreatedBefore queries createdAt < cutoff with a limit
func (r *FirestoreNotificationRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	docs, err := r.collection.Where("createdAt", "<", cutoff).Limit(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

// DeleteNotifications commits one atomic write batch
func (r *FirestoreNotificationRepository) DeleteNotifications(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	batch := r.client.Batch()
	for _, id := range ids {
		batch.Delete(r.collection.Doc(id))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete batch of %d: %w", len(ids), err)
	}
	return nil
}

// FirestoreUserRepository implements UserRepository for Firestore
type FirestoreUserRepository struct {
	collection *firestore.CollectionRef
}

// NewFirestoreUserRepository creates a new FirestoreUserRepository
func NewFirestoreUserRepository(client *firestore.Client) *FirestoreUserRepository {
	return &FirestoreUserRepository{collection: client.Collection(UsersCollection)}
}

// GetUserByID reads a user profile
func (r *FirestoreUserRepository) GetUserByID(ctx context.Context, id string) (*models.UserProfile, error) {
	snap, err := r.collection.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	var user models.UserProfile
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	user.ID = snap.Ref.ID
	return &user, nil
}

// RemoveFCMTokens applies arrayRemove on fcmTokens
func (r *FirestoreUserRepository) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	values := make([]interface{}, len(tokens))
	for i, token := range tokens {
		values[i] = token
	}
	_, err := r.collection.Doc(userID).Update(ctx, []firestore.Update{
		{Path: "fcmTokens", Value: firestore.ArrayRemove(values...)},
	})
	if err != nil {
		return firestoreErr(err, "remove tokens from user %s", userID)
	}
	return nil
}

// firestoreErr maps a missing document to ErrNotFound and wraps anything else
func firestoreErr(err error, format string, id string) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", id, err)
}
