package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signalrouter/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownColumn is returned when a write targets a column the live schema does not have.
var ErrUnknownColumn = errors.New("column does not exist in schema")

// SettingKey is the unique key of a strategy setting row.
type SettingKey struct {
	UserID   int64
	Strategy string
	Side     model.Side
	Exchange model.Exchange
}

type GormStrategySettingRepository struct {
	db     *gorm.DB
	schema *ColumnInspector
}

func NewStrategySettingRepositoryWithDB(db *gorm.DB, schema *ColumnInspector) *GormStrategySettingRepository {
	return &GormStrategySettingRepository{db: db, schema: schema}
}

// FindForExchange returns every stored slot (long, short, all) of a strategy on one exchange.
func (r *GormStrategySettingRepository) FindForExchange(
	ctx context.Context,
	userID int64,
	strategy string,
	exchange model.Exchange,
) ([]model.StrategySetting, error) {

	var rows []model.StrategySetting
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND strategy = ? AND exchange = ?", userID, strategy, exchange).
		Find(&rows).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "StrategySettingRepository",
			"op":       "FindForExchange",
			"userID":   userID,
			"strategy": strategy,
			"exchange": exchange,
		}).WithError(err).Error("Failed to fetch strategy settings")
		return nil, err
	}

	return rows, nil
}

// Find returns one row or (nil, nil) if the key has never been written.
func (r *GormStrategySettingRepository) Find(ctx context.Context, key SettingKey) (*model.StrategySetting, error) {
	var row model.StrategySetting
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND strategy = ? AND side = ? AND exchange = ?", key.UserID, key.Strategy, key.Side, key.Exchange).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}

// UpsertColumn inserts row or, when its key already exists, updates only column.
// The unique index on (user_id, strategy, side, exchange) keeps concurrent writers
// from creating duplicates.
func (r *GormStrategySettingRepository) UpsertColumn(ctx context.Context, row *model.StrategySetting, column string) error {
	if r.schema != nil {
		ok, err := r.schema.HasColumn(ctx, row.TableName(), column)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, row.TableName(), column)
		}
	}

	row.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "strategy"},
				{Name: "side"},
				{Name: "exchange"},
			},
			DoUpdates: clause.AssignmentColumns([]string{column, "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "StrategySettingRepository",
			"op":       "UpsertColumn",
			"userID":   row.UserID,
			"strategy": row.Strategy,
			"side":     row.Side,
			"exchange": row.Exchange,
			"column":   column,
		}).WithError(err).Error("Failed to upsert strategy setting")
		return err
	}

	return nil
}

// UserIDsForStrategy lists the users that have stored anything for strategy.
func (r *GormStrategySettingRepository) UserIDsForStrategy(ctx context.Context, strategy string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.StrategySetting{}).
		Distinct().
		Where("strategy = ?", strategy).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}
