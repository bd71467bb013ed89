package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shelfaware/internal/models"
)

type NotificationRepository interface {
	CreateIfAbsent(ctx context.Context, notification *models.Notification) (bool, error)
	GetUnreadByUser(ctx context.Context, userID string) ([]models.Notification, error)
	ListNotifiedProductIDs(ctx context.Context, userID string) ([]string, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, notificationID int64) error
	MarkAllAsRead(ctx context.Context, userID string) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateIfAbsent inserts the notification unless one already exists for the
// same (product_id, type). Overlapping check runs race on this insert; the
// conflict clause makes the second writer a no-op and reports whether this
// call actually created the row.
func (r *notificationRepository) CreateIfAbsent(ctx context.Context, notification *models.Notification) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "type"}},
			DoNothing: true,
		}).
		Create(notification)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *notificationRepository) GetUnreadByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND read = false AND notified = true", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

// ListNotifiedProductIDs returns the dedup keys: products that already have
// a delivered notification on record for this user.
func (r *notificationRepository) ListNotifiedProductIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND notified = true", userID).
		Pluck("product_id", &ids).Error
	return ids, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = false AND notified = true", userID).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, notificationID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Update("read", true).Error
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Update("read", true).Error
}
