package migrations

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"signalrouter/src/model"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.UserCredential{}))
	return db
}

func TestRunOnce_RecordsAndSkips(t *testing.T) {
	db := openDB(t)

	calls := 0
	fn := func(*gorm.DB) error { calls++; return nil }

	require.NoError(t, RunOnce(db, "test_once", fn))
	require.NoError(t, RunOnce(db, "test_once", fn))
	assert.Equal(t, 1, calls)

	var count int64
	require.NoError(t, db.Model(&DataMigration{}).Where("id = ?", "test_once").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunOnce_FailureIsNotRecorded(t *testing.T) {
	db := openDB(t)

	err := RunOnce(db, "test_fail", func(*gorm.DB) error { return errors.New("boom") })
	assert.ErrorContains(t, err, `run migration "test_fail": boom`)

	var count int64
	require.NoError(t, db.Model(&DataMigration{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.Error(t, RunOnce(db, "", func(*gorm.DB) error { return nil }))
	assert.Error(t, RunOnce(db, "x", nil))
	assert.NoError(t, RunOnce(nil, "x", nil))
}

func TestSplitLegacyHyperliquidCredentials(t *testing.T) {
	db := openDB(t)

	rows := []model.UserCredential{
		{UserID: 1, Exchange: model.ExchangeHyperliquid, AccountType: model.AccountLegacy, PrivateKeyHash: "pk1", WalletAddress: "0xa", Testnet: true},
		{UserID: 2, Exchange: model.ExchangeHyperliquid, AccountType: model.AccountLegacy, PrivateKeyHash: "pk2"},
		// user 3 already has a mainnet key; the legacy one must not overwrite it
		{UserID: 3, Exchange: model.ExchangeHyperliquid, AccountType: model.AccountLegacy, PrivateKeyHash: "old"},
		{UserID: 3, Exchange: model.ExchangeHyperliquid, AccountType: model.AccountMainnet, PrivateKeyHash: "new"},
		{UserID: 4, Exchange: model.ExchangeHyperliquid, AccountType: model.AccountLegacy},
	}
	require.NoError(t, db.Create(&rows).Error)

	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	find := func(userID int64, at model.AccountType) *model.UserCredential {
		var c model.UserCredential
		err := db.Where("user_id = ? AND exchange = ? AND account_type = ?", userID, model.ExchangeHyperliquid, at).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		require.NoError(t, err)
		return &c
	}

	u1 := find(1, model.AccountTestnet)
	require.NotNil(t, u1)
	assert.Equal(t, "pk1", u1.PrivateKeyHash)
	assert.Equal(t, "0xa", u1.WalletAddress)
	assert.Nil(t, find(1, model.AccountMainnet))

	u2 := find(2, model.AccountMainnet)
	require.NotNil(t, u2)
	assert.Equal(t, "pk2", u2.PrivateKeyHash)

	assert.Equal(t, "new", find(3, model.AccountMainnet).PrivateKeyHash)
	assert.Nil(t, find(4, model.AccountMainnet))
	assert.NotNil(t, find(1, model.AccountLegacy))
}
