package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/faith-connect/functions/internal/models"
	"gorm.io/gorm"
)

// PostgresNotificationRepository implements NotificationRepository with GORM
type PostgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) GetNotificationByID(ctx context.Context, id string) (*models.PushNotification, error) {
	var notification models.PushNotification
	if err := r.db.WithContext(ctx).First(&notification, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	return &notification, nil
}

func (r *PostgresNotificationRepository) UpdateDeliveryStatus(ctx context.Context, id string, s models.DeliveryStatus) error {
	fields := map[string]interface{}{"sent": s.Sent}
	if s.Sent {
		fields["sent_at"] = gorm.Expr("NOW()")
		if s.Counts != nil {
			fields["success_count"] = s.Counts.SuccessCount
			fields["total_tokens"] = s.Counts.TotalTokens
			fields["invalid_tokens_removed"] = s.Counts.InvalidTokensRemoved
		}
	} else {
		fields["error"] = s.Error
		if s.StampError {
			fields["error_at"] = gorm.Expr("NOW()")
		}
	}

	res := r.db.WithContext(ctx).Model(&models.PushNotification{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update notification %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.PushNotification{}).
		Where("created_at < ?", cutoff).
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return ids, nil
}

// DeleteNotifications runs the delete in a transaction
func (r *PostgresNotificationRepository) DeleteNotifications(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("id IN ?", ids).Delete(&models.PushNotification{}).Error
	})
}

// PostgresUserRepository implements UserRepository with GORM
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	var tokens []string
	if err := r.db.WithContext(ctx).Model(&models.FCMToken{}).Where("user_id = ?", id).Pluck("token", &tokens).Error; err != nil {
		return nil, fmt.Errorf("get tokens for user %s: %w", id, err)
	}
	return &models.UserProfile{ID: user.ID, FCMTokens: tokens}, nil
}

func (r *PostgresUserRepository) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Where("user_id = ? AND token IN ?", userID, tokens).Delete(&models.FCMToken{}).Error
	if err != nil {
		return fmt.Errorf("delete tokens for user %s: %w", userID, err)
	}
	return nil
}

// AutoMigrate creates the tables used by the relational backend
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.PushNotification{}, &models.User{}, &models.FCMToken{})
}
