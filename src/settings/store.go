package settings

import (
	"context"
	"fmt"

	"signalrouter/src/cache"
	"signalrouter/src/metrics"
	"signalrouter/src/model"
	"signalrouter/src/repository"

	logger "github.com/sirupsen/logrus"
)

// SettingRepository is the persistence the store and resolver need.
type SettingRepository interface {
	FindForExchange(ctx context.Context, userID int64, strategy string, exchange model.Exchange) ([]model.StrategySetting, error)
	Find(ctx context.Context, key repository.SettingKey) (*model.StrategySetting, error)
	UpsertColumn(ctx context.Context, row *model.StrategySetting, column string) error
}

// UserRepository loads and mutates user rows.
type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*model.User, error)
	GetOrCreate(ctx context.Context, userID int64) (*model.User, error)
	UpdateFields(ctx context.Context, userID int64, updates map[string]interface{}) error
	Delete(ctx context.Context, userID int64) error
}

// SettingsCache holds resolved views keyed by (user, strategy, exchange, account type).
type SettingsCache = cache.TTLCache[cache.SettingsKey, *Effective]

func NewSettingsCache(cfg cache.Config, m *metrics.Metrics) *SettingsCache {
	return cache.New[cache.SettingsKey, *Effective]("strategy_settings", cfg.Size, cfg.SettingsTTL, m)
}

// Store is the validated entry point for every strategy setting and user field write.
type Store struct {
	settings      SettingRepository
	users         UserRepository
	userCache     *cache.UserConfigCache
	settingsCache *SettingsCache
	metrics       *metrics.Metrics
	log           *logger.Entry
}

func NewStore(
	settings SettingRepository,
	users UserRepository,
	userCache *cache.UserConfigCache,
	settingsCache *SettingsCache,
	m *metrics.Metrics,
	log *logger.Entry,
) *Store {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Store{
		settings:      settings,
		users:         users,
		userCache:     userCache,
		settingsCache: settingsCache,
		metrics:       m,
		log:           log.WithField("component", "SettingsStore"),
	}
}

// DefaultUser is what a user that has never been seen looks like.
func DefaultUser(userID int64) *model.User {
	return &model.User{
		ID:             userID,
		ActiveExchange: model.ExchangeBybit,
		TradingMode:    model.ModeDemo,
		BybitEnabled:   true,
	}
}

// LoadUser returns the cached user config. An unknown user yields DefaultUser.
// The returned value is shared and must not be modified.
func (s *Store) LoadUser(ctx context.Context, userID int64) (*model.User, error) {
	if s.userCache != nil {
		if u, ok := s.userCache.Get(userID); ok {
			return u, nil
		}
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if u == nil {
		u = DefaultUser(userID)
	}

	if s.userCache != nil {
		s.userCache.Set(userID, u)
	}
	return u, nil
}

// Rows returns every stored slot of a strategy on one exchange.
func (s *Store) Rows(ctx context.Context, userID int64, strategy string, exchange model.Exchange) ([]model.StrategySetting, error) {
	rows, err := s.settings.FindForExchange(ctx, userID, strategy, exchange)
	if err != nil {
		return nil, fmt.Errorf("load settings %d/%s/%s: %w", userID, strategy, exchange, err)
	}
	return rows, nil
}

// GetSetting returns the stored value of one field, or nil when it inherits.
// An empty exchange means the user's active exchange and an empty side the
// side-agnostic slot.
func (s *Store) GetSetting(
	ctx context.Context,
	userID int64,
	strategy string,
	field Field,
	exchange model.Exchange,
	side model.Side,
) (any, error) {

	spec, err := s.allowed(strategy, field)
	if err != nil {
		return nil, err
	}
	side, err = normalizeSide(side)
	if err != nil {
		return nil, err
	}
	exchange, err = s.exchangeOrActive(ctx, userID, exchange)
	if err != nil {
		return nil, err
	}

	row, err := s.settings.Find(ctx, repository.SettingKey{
		UserID:   userID,
		Strategy: strategy,
		Side:     side,
		Exchange: exchange,
	})
	if err != nil {
		return nil, fmt.Errorf("get %s.%s: %w", strategy, field, err)
	}
	if row == nil {
		return nil, nil
	}

	return spec.get(row), nil
}

// SetSetting validates and stores one field. Only that column is written so
// concurrent writers of other fields on the same key do not clobber each other.
func (s *Store) SetSetting(
	ctx context.Context,
	userID int64,
	strategy string,
	field Field,
	value any,
	exchange model.Exchange,
	side model.Side,
) error {

	spec, err := s.allowed(strategy, field)
	if err != nil {
		return err
	}
	side, err = normalizeSide(side)
	if err != nil {
		return err
	}

	v, err := coerce(field, spec, value)
	if err == nil {
		err = check(field, spec, v)
	}
	if err != nil {
		s.metrics.ObserveValidationFailure()
		s.log.WithFields(map[string]interface{}{
			"userID":   userID,
			"strategy": strategy,
			"field":    field,
			"value":    value,
		}).WithError(err).Info("Rejected setting value")
		return err
	}

	u, err := s.users.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	if exchange == "" {
		exchange = activeExchange(u)
	}
	if !exchange.Valid() {
		return fmt.Errorf("%w: exchange %q", ErrInvalidEnum, exchange)
	}

	row := &model.StrategySetting{
		UserID:   userID,
		Strategy: strategy,
		Side:     side,
		Exchange: exchange,
	}
	spec.set(row, v)

	if err := s.settings.UpsertColumn(ctx, row, string(field)); err != nil {
		return fmt.Errorf("set %s.%s: %w", strategy, field, err)
	}

	s.invalidateSettings(userID)
	s.metrics.ObserveSettingWrite(strategy)

	s.log.WithFields(map[string]interface{}{
		"userID":   userID,
		"strategy": strategy,
		"field":    field,
		"side":     side,
		"exchange": exchange,
	}).Debug("Strategy setting stored")

	return nil
}

// ClearSetting writes NULL, returning the field to "inherit".
func (s *Store) ClearSetting(
	ctx context.Context,
	userID int64,
	strategy string,
	field Field,
	exchange model.Exchange,
	side model.Side,
) error {
	return s.SetSetting(ctx, userID, strategy, field, nil, exchange, side)
}

// SetUserField updates one whitelisted user column and drops every cached
// view that depends on it.
func (s *Store) SetUserField(ctx context.Context, userID int64, field UserField, value any) error {
	v, err := coerceUserField(field, value)
	if err != nil {
		if IsRecoverable(err) {
			s.metrics.ObserveValidationFailure()
		}
		return err
	}

	if _, err := s.users.GetOrCreate(ctx, userID); err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{string(field): v}); err != nil {
		return fmt.Errorf("set user field %s: %w", field, err)
	}

	if s.userCache != nil {
		s.userCache.Invalidate(userID)
	}
	s.invalidateSettings(userID)

	s.log.WithFields(map[string]interface{}{
		"userID": userID,
		"field":  field,
	}).Info("User field updated")

	return nil
}

// DeleteUser removes the user with its settings and credentials and drops every
// cached view of it. The repository's not-found error is returned unchanged.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	if s.userCache != nil {
		s.userCache.Invalidate(userID)
	}
	s.invalidateSettings(userID)

	s.log.WithField("userID", userID).Warn("User deleted")
	return nil
}

func (s *Store) allowed(strategy string, field Field) (fieldSpec, error) {
	def, ok := Lookup(strategy)
	if !ok {
		return fieldSpec{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	spec, ok := fieldSpecs[field]
	if !ok || !def.Allows(field) {
		return fieldSpec{}, fmt.Errorf("%w: %q for strategy %q", ErrUnsupportedField, field, strategy)
	}
	return spec, nil
}

func (s *Store) exchangeOrActive(ctx context.Context, userID int64, exchange model.Exchange) (model.Exchange, error) {
	if exchange == "" {
		u, err := s.LoadUser(ctx, userID)
		if err != nil {
			return "", err
		}
		return activeExchange(u), nil
	}
	if !exchange.Valid() {
		return "", fmt.Errorf("%w: exchange %q", ErrInvalidEnum, exchange)
	}
	return exchange, nil
}

func (s *Store) invalidateSettings(userID int64) {
	if s.settingsCache == nil {
		return
	}
	n := s.settingsCache.InvalidateWhere(cache.ForUser(userID))
	if n > 0 {
		s.log.WithFields(map[string]interface{}{
			"userID":  userID,
			"entries": n,
		}).Debug("Invalidated resolved settings")
	}
}

func activeExchange(u *model.User) model.Exchange {
	if u != nil && u.ActiveExchange.Valid() {
		return u.ActiveExchange
	}
	return model.ExchangeBybit
}
