package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shelfaware/internal/models"
)

type CheckStateRepository interface {
	RecordRun(ctx context.Context, checkType, status string, runErr error) error
	Get(ctx context.Context, checkType string) (*models.CheckState, error)
}

type checkStateRepository struct {
	db *gorm.DB
}

func NewCheckStateRepository(db *gorm.DB) CheckStateRepository {
	return &checkStateRepository{db: db}
}

// RecordRun upserts the bookmark row for one sweep.
func (r *checkStateRepository) RecordRun(ctx context.Context, checkType, status string, runErr error) error {
	now := time.Now()
	state := models.CheckState{
		CheckType: checkType,
		LastRunAt: &now,
		Status:    status,
		UpdatedAt: now,
	}
	if status == "completed" {
		state.LastSuccessAt = &now
	}
	if runErr != nil {
		state.ErrorMessage = runErr.Error()
	}

	assignments := map[string]interface{}{
		"last_run_at":   state.LastRunAt,
		"status":        state.Status,
		"error_message": state.ErrorMessage,
		"updated_at":    state.UpdatedAt,
	}
	if state.LastSuccessAt != nil {
		assignments["last_success_at"] = state.LastSuccessAt
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "check_type"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(&state).Error
}

func (r *checkStateRepository) Get(ctx context.Context, checkType string) (*models.CheckState, error) {
	var state models.CheckState
	err := r.db.WithContext(ctx).Where("check_type = ?", checkType).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}
