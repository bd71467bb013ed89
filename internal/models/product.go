package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a tracked grocery item. ExpiryDate is nil when date extraction
// failed and the user has not set one by hand; ReminderDays is how many days
// before expiry the owner wants to be alerted.
type Product struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string     `gorm:"not null" json:"name"`
	Category     string     `json:"category"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	ReminderDays int        `gorm:"not null;default:3" json:"reminder_days"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a Product
func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	return
}

func (Product) TableName() string {
	return "products"
}
