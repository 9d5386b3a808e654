package repository

import (
	"context"
	"signalrouter/src/model"

	"gorm.io/gorm"
)

type DispatchLogRepository struct {
	db *gorm.DB
}

func NewDispatchLogRepositoryWithDB(db *gorm.DB) *DispatchLogRepository {
	return &DispatchLogRepository{db: db}
}

// CreateBatch stores the per-target records of one dispatch.
func (r *DispatchLogRepository) CreateBatch(ctx context.Context, logs []model.DispatchLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&logs).Error
}
