package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/faith-connect/functions/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection(NotificationsCollection)}
}

// GetNotificationByID retrieves a notification request by its string id
func (r *MongoNotificationRepository) GetNotificationByID(ctx context.Context, id string) (*models.PushNotification, error) {
	var notification models.PushNotification
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notification)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find notification %s: %w", id, err)
	}
	return &notification, nil
}

// UpdateDeliveryStatus uses $currentDate for the server-assigned timestamps
func (r *MongoNotificationRepository) UpdateDeliveryStatus(ctx context.Context, id string, s models.DeliveryStatus) error {
	set := bson.M{"sent": s.Sent}
	currentDate := bson.M{}
	if s.Sent {
		currentDate["sentAt"] = true
		if s.Counts != nil {
			set["successCount"] = s.Counts.SuccessCount
			set["totalTokens"] = s.Counts.TotalTokens
			set["invalidTokensRemoved"] = s.Counts.InvalidTokensRemoved
		}
	} else {
		set["error"] = s.Error
		if s.StampError {
			currentDate["errorAt"] = true
		}
	}

	update := bson.M{"$set": set}
	if len(currentDate) > 0 {
		update["$currentDate"] = currentDate
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update notification %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCreatedBefore returns ids only
func (r *MongoNotificationRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	opts := options.Find().SetLimit(int64(limit)).SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// DeleteNotifications removes the ids with a single DeleteMany
func (r *MongoNotificationRepository) DeleteNotifications(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("delete %d notifications: %w", len(ids), err)
	}
	return nil
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection(UsersCollection)}
}

// GetUserByID retrieves the profile's id and tokens
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var user models.UserProfile
	opts := options.FindOne().SetProjection(bson.M{"fcmTokens": 1})
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &user, nil
}

// RemoveFCMTokens pulls the given tokens from fcmTokens
func (r *MongoUserRepository) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	update := bson.M{"$pull": bson.M{"fcmTokens": bson.M{"$in": tokens}}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return fmt.Errorf("pull tokens from user %s: %w", userID, err)
	}
	return nil
}
