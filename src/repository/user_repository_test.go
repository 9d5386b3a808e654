package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"signalrouter/src/database/dbtest"
	"signalrouter/src/model"
	"signalrouter/src/repository"
)

func TestUserGetOrCreateAppliesDefaults(t *testing.T) {
	db := dbtest.SQLite(t)
	repo := repository.NewUserRepositoryWithDB(db)
	ctx := context.Background()

	u, err := repo.GetByID(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.GetOrCreate(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(100), u.ID)
	assert.Equal(t, model.ExchangeBybit, u.ActiveExchange)
	assert.Equal(t, model.ModeDemo, u.TradingMode)
	assert.True(t, u.BybitEnabled)
	assert.False(t, u.HyperliquidEnabled)
	assert.False(t, u.LiveEnabled)
	assert.Equal(t, model.DefaultRoutingPolicy, u.EffectiveRoutingPolicy(""))
	assert.Equal(t, model.PolicyActiveOnly, u.EffectiveRoutingPolicy(model.PolicyActiveOnly))

	require.NoError(t, repo.UpdateFields(ctx, 100, map[string]interface{}{"live_enabled": true}))

	again, err := repo.GetOrCreate(ctx, 100)
	require.NoError(t, err)
	assert.True(t, again.LiveEnabled, "existing users are not reset")
}

func TestUserUpdateFieldsMissingUser(t *testing.T) {
	db := dbtest.SQLite(t)
	repo := repository.NewUserRepositoryWithDB(db)

	err := repo.UpdateFields(context.Background(), 404, map[string]interface{}{"live_enabled": true})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserDeleteCascades(t *testing.T) {
	db := dbtest.SQLite(t)
	users := repository.NewUserRepositoryWithDB(db)
	settings := repository.NewStrategySettingRepositoryWithDB(db, nil)
	creds := repository.NewCredentialRepositoryWithDB(db)
	ctx := context.Background()

	_, err := users.GetOrCreate(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, settings.UpsertColumn(ctx, &model.StrategySetting{
		UserID: 5, Strategy: "oi", Side: model.SideLong, Exchange: model.ExchangeBybit, Percent: f64(1),
	}, "percent"))
	require.NoError(t, creds.Upsert(ctx, &model.UserCredential{
		UserID: 5, Exchange: model.ExchangeBybit, AccountType: model.AccountDemo, APIKeyHash: "k", APISecretHash: "s",
	}))

	require.NoError(t, users.Delete(ctx, 5))

	var n int64
	require.NoError(t, db.Model(&model.StrategySetting{}).Where("user_id = ?", 5).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&model.UserCredential{}).Where("user_id = ?", 5).Count(&n).Error)
	assert.Zero(t, n)

	assert.ErrorIs(t, users.Delete(ctx, 5), gorm.ErrRecordNotFound)
}
