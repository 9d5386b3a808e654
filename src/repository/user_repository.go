package repository

import (
	"context"
	"errors"
	"signalrouter/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepositoryWithDB(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByID returns the user or (nil, nil) when it does not exist.
func (r *GormUserRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":   "UserRepository",
			"op":     "GetByID",
			"userID": userID,
		}).WithError(err).Error("Failed to fetch user")
		return nil, err
	}

	return &u, nil
}

// GetOrCreate returns the user, creating it with column defaults on first contact.
func (r *GormUserRepository) GetOrCreate(ctx context.Context, userID int64) (*model.User, error) {
	u := model.User{ID: userID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&u).Error
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, userID)
}

// UpdateFields applies a partial update on the user row.
func (r *GormUserRepository) UpdateFields(ctx context.Context, userID int64, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Delete hard-deletes the user together with all owned settings and credentials.
func (r *GormUserRepository) Delete(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.StrategySetting{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserCredential{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.User{}, "id = ?", userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		logger.WithFields(map[string]interface{}{
			"repo":   "UserRepository",
			"op":     "Delete",
			"userID": userID,
		}).Warn("User and owned settings deleted")

		return nil
	})
}
