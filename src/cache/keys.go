package cache

import (
	"signalrouter/src/metrics"
	"signalrouter/src/model"
)

// SettingsKey identifies one resolved settings view.
type SettingsKey struct {
	UserID      int64
	Strategy    string
	Exchange    model.Exchange
	AccountType model.AccountType
}

// SchemaKey identifies one column existence check.
type SchemaKey struct {
	Table  string
	Column string
}

// UserConfigCache caches user rows by id.
type UserConfigCache = TTLCache[int64, *model.User]

// SchemaCache caches column existence checks.
type SchemaCache = TTLCache[SchemaKey, bool]

func NewUserConfigCache(cfg Config, m *metrics.Metrics) *UserConfigCache {
	return New[int64, *model.User]("user_config", cfg.Size, cfg.UserTTL, m)
}

func NewSchemaCache(cfg Config, m *metrics.Metrics) *SchemaCache {
	return New[SchemaKey, bool]("schema", 256, cfg.SchemaTTL, m)
}

// ForUser matches every settings key that belongs to userID.
func ForUser(userID int64) func(SettingsKey) bool {
	return func(k SettingsKey) bool {
		return k.UserID == userID
	}
}
