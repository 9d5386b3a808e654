package settings

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"signalrouter/src/cache"
	"signalrouter/src/database/dbtest"
	"signalrouter/src/repository"
)

var testCacheConfig = cache.Config{
	UserTTL:     time.Minute,
	SettingsTTL: time.Minute,
	SchemaTTL:   time.Minute,
	Size:        100,
}

func newTestStore(t *testing.T) (*Store, *Resolver, *gorm.DB) {
	t.Helper()

	db := dbtest.SQLite(t)
	schema := repository.NewColumnInspector(db, cache.NewSchemaCache(testCacheConfig, nil))
	settingsCache := NewSettingsCache(testCacheConfig, nil)

	store := NewStore(
		repository.NewStrategySettingRepositoryWithDB(db, schema),
		repository.NewUserRepositoryWithDB(db),
		cache.NewUserConfigCache(testCacheConfig, nil),
		settingsCache,
		nil,
		nil,
	)

	return store, NewResolver(store, settingsCache, nil, nil), db
}
