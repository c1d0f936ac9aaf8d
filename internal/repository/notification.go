package repository

import (
	"context"
	"errors"

	"ripple/internal/cache"
	"ripple/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	WithTx(tx *gorm.DB) NotificationRepository
	Create(ctx context.Context, notification *models.Notification) error
	GetByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error)
	GetByIDForRecipient(ctx context.Context, id, recipientID uint) (*models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uint) (bool, error)
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
}

// notificationRepository implements NotificationRepository
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	return &notificationRepository{db: tx}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUnreadCount(ctx, notification.RecipientID)
	return nil
}

func (r *notificationRepository) GetByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error) {
	var notifications []*models.Notification
	if err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return notifications, nil
}

// GetByIDForRecipient scopes the lookup to the recipient so another user's
// notification reads as not found, not forbidden.
func (r *notificationRepository) GetByIDForRecipient(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Notification", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &notification, nil
}

// MarkRead flips is_read on the recipient's notification. Reports whether a
// row was updated.
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidateUnreadCount(ctx, recipientID)
	}
	return result.RowsAffected > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	cache.InvalidateUnreadCount(ctx, recipientID)
	return result.RowsAffected, nil
}

// CountUnread reads through the short-lived unread-count cache entry that
// Create/MarkRead/MarkAllRead invalidate.
func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := cache.Aside(ctx, cache.UnreadCountKey(recipientID), &count, cache.UnreadCountTTL, func() error {
		if err := r.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("recipient_id = ? AND is_read = ?", recipientID, false).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	return count, err
}
