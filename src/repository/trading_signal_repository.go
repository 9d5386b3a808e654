package repository

import (
	"context"
	"database/sql"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signalrouter/src/database"
	"signalrouter/src/externalmodel"
)

// TradingSignalRepository reads inbound trading signals from the read-only database.
type TradingSignalRepository struct {
	db *gorm.DB
}

// NewTradingSignalRepository uses the ReadOnlyDB connection.
func NewTradingSignalRepository() *TradingSignalRepository {
	logger.WithField("component", "TradingSignalRepository").
		Info("Creating new TradingSignalRepository with ReadOnlyDB")

	return &TradingSignalRepository{
		db: database.ReadOnlyDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *TradingSignalRepository) WithDB(db *gorm.DB) *TradingSignalRepository {
	return &TradingSignalRepository{db: db}
}

// FindByID returns (nil, nil) if the signal does not exist.
func (r *TradingSignalRepository) FindByID(ctx context.Context, id uint) (*externalmodel.TradingSignal, error) {
	var signal externalmodel.TradingSignal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&signal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &signal, nil
}

// LatestID returns the highest signal id, or 0 for an empty table.
// The dispatcher starts after it so old signals are not replayed on restart.
func (r *TradingSignalRepository) LatestID(ctx context.Context) (uint, error) {
	var id sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&externalmodel.TradingSignal{}).
		Select("MAX(id)").
		Row().
		Scan(&id)
	if err != nil {
		return 0, err
	}
	if !id.Valid {
		return 0, nil
	}
	return uint(id.Int64), nil
}

// FindAfterID fetches signals with id > lastID in ascending order, for incremental polling.
func (r *TradingSignalRepository) FindAfterID(
	ctx context.Context,
	lastID uint,
	limit int,
) ([]externalmodel.TradingSignal, error) {

	if limit <= 0 {
		limit = 100
	}

	var signals []externalmodel.TradingSignal
	err := r.db.WithContext(ctx).
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(limit).
		Find(&signals).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TradingSignalRepository",
			"op":     "FindAfterID",
			"lastID": lastID,
			"limit":  limit,
		}).WithError(err).Error("Failed to fetch trading signals after ID")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "TradingSignalRepository",
		"op":          "FindAfterID",
		"lastID":      lastID,
		"rows_return": len(signals),
	}).Debug("Trading signals after ID fetched")

	return signals, nil
}
