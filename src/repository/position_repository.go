package repository

import (
	"context"
	"time"

	"signalrouter/src/accounts"
	"signalrouter/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PositionRepository is the position store. Positions are tagged with the
// normalized paper/live env so they can be grouped across exchanges.
type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepositoryWithDB(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// OpenPosition normalizes the account type for the exchange, stamps env and stores the position.
func (r *PositionRepository) OpenPosition(ctx context.Context, p *model.Position) error {
	p.AccountType = accounts.Normalize(p.AccountType, p.Exchange)
	p.Env = accounts.EnvOf(p.Exchange, p.AccountType)
	p.Status = model.PositionStatusOpen
	if p.OpenedAt.IsZero() {
		p.OpenedAt = time.Now()
	}

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "PositionRepository",
			"op":       "OpenPosition",
			"userID":   p.UserID,
			"exchange": p.Exchange,
			"env":      p.Env,
			"symbol":   p.Symbol,
		}).WithError(err).Error("Failed to open position")
		return err
	}

	return nil
}

// ClosePosition marks one of the user's open positions closed at exitPrice.
// gorm.ErrRecordNotFound is returned when no such open position exists.
func (r *PositionRepository) ClosePosition(ctx context.Context, userID int64, id uint, exitPrice float64) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Position{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, model.PositionStatusOpen).
		Updates(map[string]interface{}{
			"status":     model.PositionStatusClosed,
			"exit_price": exitPrice,
			"closed_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindOpen lists open positions of a user in one environment, across exchanges.
// An empty env lists every environment.
func (r *PositionRepository) FindOpen(ctx context.Context, userID int64, env model.Environment) ([]model.Position, error) {
	var positions []model.Position
	q := r.db.WithContext(ctx).Where("user_id = ? AND status = ?", userID, model.PositionStatusOpen)
	if env != "" {
		q = q.Where("env = ?", env)
	}
	err := q.Order("opened_at").Find(&positions).Error
	if err != nil {
		return nil, err
	}
	return positions, nil
}

// CountOpenByEnv groups the user's open positions by environment.
func (r *PositionRepository) CountOpenByEnv(ctx context.Context, userID int64) (map[model.Environment]int64, error) {
	type envCount struct {
		Env   model.Environment
		Total int64
	}

	var rows []envCount
	err := r.db.WithContext(ctx).
		Model(&model.Position{}).
		Select("env, COUNT(*) AS total").
		Where("user_id = ? AND status = ?", userID, model.PositionStatusOpen).
		Group("env").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[model.Environment]int64, len(rows))
	for _, row := range rows {
		out[row.Env] = row.Total
	}
	return out, nil
}
