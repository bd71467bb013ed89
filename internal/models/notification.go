package models

import "time"

// NotificationType classifies an expiry alert.
type NotificationType string

const (
	NotificationReminder NotificationType = "reminder"
	NotificationExpired  NotificationType = "expired"
)

// Notification is created exclusively by the expiry checker. The unique
// index on (product_id, type) enforces the invariant that at most one
// notified record exists per expiry event, even when checks overlap.
type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string           `gorm:"type:uuid;not null;index" json:"user_id"`
	ProductID string           `gorm:"type:uuid;not null;uniqueIndex:idx_notifications_product_type" json:"product_id"`
	Type      NotificationType `gorm:"not null;uniqueIndex:idx_notifications_product_type" json:"type"`
	Message   string           `json:"message"`
	Read      bool             `gorm:"default:false" json:"read"`
	Notified  bool             `gorm:"default:false" json:"notified"`
	CreatedAt time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Associations
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
