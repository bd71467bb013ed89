package dto

import "time"

type CreateProductRequest struct {
	Name         string     `json:"name" binding:"required"`
	Category     string     `json:"category"`
	ExpiryDate   *time.Time `json:"expiry_date"`
	ReminderDays *int       `json:"reminder_days"`
	// ScanText is raw OCR output from the label scanner; when no explicit
	// expiry date is given the server extracts one from it.
	ScanText string `json:"scan_text"`
}

type UpdateProductRequest struct {
	Name         *string    `json:"name"`
	Category     *string    `json:"category"`
	ExpiryDate   *time.Time `json:"expiry_date"`
	ReminderDays *int       `json:"reminder_days"`
}

type ExtractDateRequest struct {
	Text string `json:"text" binding:"required"`
}

type ExtractDateResponse struct {
	ExpiryDate *time.Time `json:"expiry_date"`
}
