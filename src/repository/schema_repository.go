package repository

import (
	"context"

	"signalrouter/src/cache"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ColumnInspector answers column existence questions against the live schema,
// caching the answers for the schema cache TTL.
type ColumnInspector struct {
	db    *gorm.DB
	cache *cache.SchemaCache
}

func NewColumnInspector(db *gorm.DB, c *cache.SchemaCache) *ColumnInspector {
	return &ColumnInspector{db: db, cache: c}
}

func (i *ColumnInspector) HasColumn(ctx context.Context, table, column string) (bool, error) {
	key := cache.SchemaKey{Table: table, Column: column}
	if i.cache != nil {
		if ok, found := i.cache.Get(key); found {
			return ok, nil
		}
	}

	ok := i.db.WithContext(ctx).Migrator().HasColumn(table, column)
	if !ok {
		logger.WithFields(map[string]interface{}{
			"table":  table,
			"column": column,
		}).Warn("Column missing from schema")
	}

	if i.cache != nil {
		i.cache.Set(key, ok)
	}

	return ok, nil
}
