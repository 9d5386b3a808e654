package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signalrouter/src/model"
)

// ExceptionRepository handles persistence of dispatch exceptions.
type ExceptionRepository struct {
	db *gorm.DB
}

func NewExceptionRepositoryWithDB(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// Create persists a new exception in the database.
func (r *ExceptionRepository) Create(
	ctx context.Context,
	exc *model.Exception,
) error {

	logger.WithFields(map[string]interface{}{
		"service":  exc.Service,
		"module":   exc.Module,
		"method":   exc.Method,
		"level":    exc.Level,
		"strategy": exc.Strategy,
	}).Debug("Persisting exception")

	return r.db.WithContext(ctx).Create(exc).Error
}
