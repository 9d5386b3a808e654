package settings

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"signalrouter/src/model"
)

func TestStoreRoundTrip(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		strategy string
		field    Field
		in       any
		want     any
	}{
		{"oi", FieldEnabled, "on", true},
		{"oi", FieldPercent, "2.5", 2.5},
		{"oi", FieldSLPercent, 1.5, 1.5},
		{"oi", FieldTPPercent, "7,5", 7.5},
		{"oi", FieldLeverage, "25", 25},
		{"oi", FieldUseATR, 1, true},
		{"oi", FieldATRPeriods, 14, 14},
		{"oi", FieldATRMultiplierSL, 1.2, 1.2},
		{"oi", FieldBEEnabled, false, false},
		{"oi", FieldPartialTPClosePct, 40, 40.0},
		{"oi", FieldOrderType, "LIMIT", "limit"},
		{"oi", FieldCoinsGroup, "top10", "top10"},
		{"oi", FieldDirection, "long", "long"},
		{"oi", FieldTradingMode, "both", "both"},
		{"elcaro", FieldMinQuality, 70, 70},
	}

	for _, tt := range tests {
		t.Run(tt.strategy+"/"+string(tt.field), func(t *testing.T) {
			err := store.SetSetting(ctx, 1, tt.strategy, tt.field, tt.in, model.ExchangeBybit, model.SideAll)
			require.NoError(t, err)

			got, err := store.GetSetting(ctx, 1, tt.strategy, tt.field, model.ExchangeBybit, model.SideAll)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStoreWholeNumbersAreDecimal(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		strategy string
		field    Field
		in       string
		want     int
	}{
		{"oi", FieldLeverage, "010", 10},
		{"oi", FieldLeverage, "08", 8},
		{"oi", FieldLeverage, " 12 ", 12},
		{"oi", FieldATRPeriods, "014", 14},
		{"elcaro", FieldMinQuality, "+070", 70},
	}

	for _, tt := range tests {
		t.Run(string(tt.field)+"="+tt.in, func(t *testing.T) {
			require.NoError(t, store.SetSetting(ctx, 1, tt.strategy, tt.field, tt.in, model.ExchangeBybit, model.SideAll))

			got, err := store.GetSetting(ctx, 1, tt.strategy, tt.field, model.ExchangeBybit, model.SideAll)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, in := range []string{"0x10", "0b11", "1e1", "7.5", "1_0"} {
		t.Run("reject "+in, func(t *testing.T) {
			err := store.SetSetting(ctx, 2, "oi", FieldLeverage, in, model.ExchangeBybit, model.SideAll)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}

	got, err := store.GetSetting(ctx, 2, "oi", FieldLeverage, model.ExchangeBybit, model.SideAll)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreGetUnsetIsNil(t *testing.T) {
	store, _, _ := newTestStore(t)

	got, err := store.GetSetting(context.Background(), 1, "oi", FieldPercent, model.ExchangeBybit, model.SideLong)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStorePartialColumnUpsert(t *testing.T) {
	store, _, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSetting(ctx, 7, "oi", FieldPercent, 2, model.ExchangeBybit, model.SideLong))
	require.NoError(t, store.SetSetting(ctx, 7, "oi", FieldSLPercent, 4, model.ExchangeBybit, model.SideLong))
	require.NoError(t, store.SetSetting(ctx, 7, "oi", FieldPercent, 3, model.ExchangeBybit, model.SideLong))

	var rows []model.StrategySetting
	require.NoError(t, db.Where("user_id = ?", 7).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Percent)
	require.NotNil(t, rows[0].SLPercent)
	assert.Equal(t, 3.0, *rows[0].Percent)
	assert.Equal(t, 4.0, *rows[0].SLPercent)
	assert.Nil(t, rows[0].TPPercent)
}

func TestStoreOneRowPerKey(t *testing.T) {
	store, _, db := newTestStore(t)
	ctx := context.Background()

	for _, side := range []model.Side{model.SideLong, model.SideShort, model.SideAll} {
		for _, ex := range model.Exchanges {
			require.NoError(t, store.SetSetting(ctx, 3, "rsi_bb", FieldLeverage, 5, ex, side))
			require.NoError(t, store.SetSetting(ctx, 3, "rsi_bb", FieldLeverage, 6, ex, side))
		}
	}

	var count int64
	require.NoError(t, db.Model(&model.StrategySetting{}).Where("user_id = ?", 3).Count(&count).Error)
	assert.Equal(t, int64(6), count)
}

// The test database has a single connection, so these writers are serialized.
// The ON CONFLICT statement itself is covered in the repository package.
func TestStoreInterleavedFieldWritersShareOneRow(t *testing.T) {
	store, _, db := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SetUserField(ctx, 9, UserLiveEnabled, false))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			field := FieldPercent
			if i%2 == 0 {
				field = FieldLeverage
			}
			errs <- store.SetSetting(ctx, 9, "scalper", field, 1+i%5, model.ExchangeBybit, model.SideShort)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&model.StrategySetting{}).Where("user_id = ?", 9).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStoreSideAliases(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSetting(ctx, 1, "oi", FieldSLPercent, 2.5, model.ExchangeBybit, "Buy"))

	got, err := store.GetSetting(ctx, 1, "oi", FieldSLPercent, model.ExchangeBybit, model.SideLong)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)

	err = store.SetSetting(ctx, 1, "oi", FieldSLPercent, 2.5, model.ExchangeBybit, "sideways")
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestStoreEmptyExchangeUsesActive(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetUserField(ctx, 4, UserActiveExchange, "hyperliquid"))
	require.NoError(t, store.SetSetting(ctx, 4, "oi", FieldPercent, 2, "", model.SideAll))

	got, err := store.GetSetting(ctx, 4, "oi", FieldPercent, model.ExchangeHyperliquid, model.SideAll)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = store.GetSetting(ctx, 4, "oi", FieldPercent, model.ExchangeBybit, model.SideAll)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreWhitelist(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	err := store.SetSetting(ctx, 1, "oi", FieldMinQuality, 50, model.ExchangeBybit, model.SideAll)
	assert.ErrorIs(t, err, ErrUnsupportedField)
	assert.Contains(t, err.Error(), "min_quality")

	_, err = store.GetSetting(ctx, 1, "oi", Field("api_key; DROP TABLE users"), model.ExchangeBybit, model.SideAll)
	assert.ErrorIs(t, err, ErrUnsupportedField)

	err = store.SetSetting(ctx, 1, "no_such_strategy", FieldPercent, 1, model.ExchangeBybit, model.SideAll)
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	err = store.SetSetting(ctx, 1, "oi", FieldPercent, 1, "binance", model.SideAll)
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestStoreValidation(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	t.Run("leverage out of range", func(t *testing.T) {
		for _, v := range []any{0, 101, "250"} {
			err := store.SetSetting(ctx, 1, "oi", FieldLeverage, v, model.ExchangeBybit, model.SideAll)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, 1.0, ve.Min)
			assert.Equal(t, 100.0, ve.Max)
			assert.Equal(t, "leverage: enter a value between 1 and 100", err.Error())
			assert.True(t, IsRecoverable(err))
		}
	})

	t.Run("percent bounds", func(t *testing.T) {
		err := store.SetSetting(ctx, 1, "oi", FieldSLPercent, 75, model.ExchangeBybit, model.SideAll)
		assert.EqualError(t, err, "sl_percent: enter a value between 0.1 and 50")
	})

	t.Run("not a number", func(t *testing.T) {
		err := store.SetSetting(ctx, 1, "oi", FieldPercent, "lots", model.ExchangeBybit, model.SideAll)
		assert.ErrorIs(t, err, ErrInvalidValue)

		err = store.SetSetting(ctx, 1, "oi", FieldLeverage, 2.5, model.ExchangeBybit, model.SideAll)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("enum", func(t *testing.T) {
		err := store.SetSetting(ctx, 1, "oi", FieldTradingMode, "paper", model.ExchangeBybit, model.SideAll)
		assert.ErrorIs(t, err, ErrInvalidEnum)
		assert.False(t, IsRecoverable(err))
	})

	got, err := store.GetSetting(ctx, 1, "oi", FieldLeverage, model.ExchangeBybit, model.SideAll)
	require.NoError(t, err)
	assert.Nil(t, got, "rejected writes must not be stored")
}

func TestStoreClearSetting(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSetting(ctx, 1, "oi", FieldUseATR, false, model.ExchangeBybit, model.SideAll))
	got, err := store.GetSetting(ctx, 1, "oi", FieldUseATR, model.ExchangeBybit, model.SideAll)
	require.NoError(t, err)
	assert.Equal(t, false, got)

	require.NoError(t, store.ClearSetting(ctx, 1, "oi", FieldUseATR, model.ExchangeBybit, model.SideAll))
	got, err = store.GetSetting(ctx, 1, "oi", FieldUseATR, model.ExchangeBybit, model.SideAll)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreSetUserField(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	u, err := store.LoadUser(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, model.ModeDemo, u.TradingMode)

	require.NoError(t, store.SetUserField(ctx, 11, UserTradingMode, "Both"))
	require.NoError(t, store.SetUserField(ctx, 11, UserRoutingPolicy, "all_enabled"))
	require.NoError(t, store.SetUserField(ctx, 11, "sl_percent", "4.5"))
	require.NoError(t, store.SetUserField(ctx, 11, UserLiveEnabled, "yes"))

	u, err = store.LoadUser(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, model.ModeBoth, u.TradingMode)
	assert.Equal(t, model.PolicyAllEnabled, u.RoutingPolicy)
	assert.True(t, u.LiveEnabled)
	require.NotNil(t, u.SLPercent)
	assert.Equal(t, 4.5, *u.SLPercent)

	require.NoError(t, store.SetUserField(ctx, 11, "sl_percent", nil))
	u, err = store.LoadUser(ctx, 11)
	require.NoError(t, err)
	assert.Nil(t, u.SLPercent)
}

func TestStoreSetUserFieldRejects(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		field UserField
		value any
		want  error
	}{
		{UserRoutingPolicy, "round_robin", ErrInvalidEnum},
		{UserTradingMode, "global", ErrInvalidEnum},
		{UserActiveExchange, "kraken", ErrInvalidEnum},
		{UserViewAccountType, "both", ErrInvalidEnum},
		{UserLiveEnabled, nil, ErrInvalidValue},
		{"api_secret", "x", ErrUnsupportedField},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			assert.ErrorIs(t, store.SetUserField(ctx, 12, tt.field, tt.value), tt.want)
		})
	}

	var ve *ValidationError
	assert.ErrorAs(t, store.SetUserField(ctx, 12, "leverage", 500), &ve)
}

func TestUserFieldsListsWhatSetUserFieldAccepts(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	fields := UserFields()
	assert.Equal(t, fields, UserFields())
	assert.Len(t, fields, 7+len(userFallbackFields))
	assert.Equal(t, UserActiveExchange, fields[0])
	assert.Equal(t, UserField("atr_multiplier_sl"), fields[7])

	for _, f := range fields {
		err := store.SetUserField(ctx, 13, f, "not-a-valid-value-anywhere")
		assert.NotErrorIs(t, err, ErrUnsupportedField, f)
	}

	err := store.SetUserField(ctx, 13, "is_admin", true)
	require.ErrorIs(t, err, ErrUnsupportedField)
	assert.Contains(t, err.Error(), "allowed: active_exchange, trading_mode")
	assert.Contains(t, err.Error(), UserFieldNames())
}

func TestStoreDeleteUserDropsCachedViews(t *testing.T) {
	store, resolver, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetUserField(ctx, 40, UserActiveExchange, "hyperliquid"))
	eff, err := resolver.Resolve(ctx, 40, "oi", "", "")
	require.NoError(t, err)
	require.Equal(t, model.ExchangeHyperliquid, eff.Exchange)
	require.Equal(t, 1, resolver.cache.Len())

	require.NoError(t, store.DeleteUser(ctx, 40))
	assert.Equal(t, 0, resolver.cache.Len())

	u, err := store.LoadUser(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, model.ExchangeBybit, u.ActiveExchange)

	assert.ErrorIs(t, store.DeleteUser(ctx, 40), gorm.ErrRecordNotFound)
}
