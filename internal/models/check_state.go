package models

import "time"

// CheckState is the bookkeeping row for the background expiry sweep. Each
// run updates it so operators can see when the last sweep ran and whether
// it succeeded.
type CheckState struct {
	ID            int    `gorm:"primaryKey"`
	CheckType     string `gorm:"unique;not null"`
	LastRunAt     *time.Time
	LastSuccessAt *time.Time
	Status        string
	ErrorMessage  string
	UpdatedAt     time.Time
}

func (CheckState) TableName() string {
	return "check_state"
}
