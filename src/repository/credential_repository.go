package repository

import (
	"context"
	"signalrouter/src/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormCredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepositoryWithDB(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// FindByUser returns every credential row of the user, ordered by exchange and account type.
func (r *GormCredentialRepository) FindByUser(ctx context.Context, userID int64) ([]model.UserCredential, error) {
	var creds []model.UserCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("exchange, account_type").
		Find(&creds).Error
	if err != nil {
		return nil, err
	}

	return creds, nil
}

// Upsert creates a credential row or replaces the secrets if the
// (user_id, exchange, account_type) combination already exists.
func (r *GormCredentialRepository) Upsert(ctx context.Context, cred *model.UserCredential) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "exchange"},
				{Name: "account_type"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"api_key",
				"api_secret",
				"private_key",
				"wallet_address",
				"testnet",
				"updated_at",
			}),
		}).
		Create(cred).Error
}
