package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"signalrouter/src/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in       model.AccountType
		exchange model.Exchange
		want     model.AccountType
	}{
		{model.AccountDemo, model.ExchangeBybit, model.AccountDemo},
		{model.AccountTestnet, model.ExchangeBybit, model.AccountDemo},
		{model.AccountReal, model.ExchangeBybit, model.AccountReal},
		{model.AccountMainnet, model.ExchangeBybit, model.AccountReal},
		{model.AccountBoth, model.ExchangeBybit, model.AccountDemo},
		{model.AccountDemo, model.ExchangeHyperliquid, model.AccountTestnet},
		{model.AccountTestnet, model.ExchangeHyperliquid, model.AccountTestnet},
		{model.AccountReal, model.ExchangeHyperliquid, model.AccountMainnet},
		{model.AccountMainnet, model.ExchangeHyperliquid, model.AccountMainnet},
		{model.AccountBoth, model.ExchangeHyperliquid, model.AccountTestnet},
		{"paper", model.ExchangeBybit, "paper"},
		{model.AccountReal, "binance", model.AccountReal},
	}

	for _, tt := range tests {
		t.Run(string(tt.exchange)+"/"+string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, tt.exchange))
		})
	}
}

func TestNormalizeSymmetry(t *testing.T) {
	for _, x := range []model.AccountType{model.AccountDemo, model.AccountReal, model.AccountTestnet, model.AccountMainnet, model.AccountBoth} {
		assert.Equal(t,
			Normalize(x, model.ExchangeBybit),
			Normalize(Normalize(x, model.ExchangeHyperliquid), model.ExchangeBybit),
			"account type %s", x)
		assert.Equal(t,
			Normalize(x, model.ExchangeHyperliquid),
			Normalize(Normalize(x, model.ExchangeBybit), model.ExchangeHyperliquid),
			"account type %s", x)
	}
}

func TestEnvOf(t *testing.T) {
	assert.Equal(t, model.EnvPaper, EnvOf(model.ExchangeBybit, model.AccountDemo))
	assert.Equal(t, model.EnvPaper, EnvOf(model.ExchangeHyperliquid, model.AccountTestnet))
	assert.Equal(t, model.EnvLive, EnvOf(model.ExchangeBybit, model.AccountReal))
	assert.Equal(t, model.EnvLive, EnvOf(model.ExchangeHyperliquid, model.AccountMainnet))
	assert.Equal(t, model.EnvPaper, EnvOf(model.ExchangeBybit, "garbage"))
}

func TestForEnvRoundTrip(t *testing.T) {
	for _, ex := range model.Exchanges {
		for _, at := range AccountTypesFor(ex) {
			assert.Equal(t, at, ForEnv(ex, EnvOf(ex, at)))
		}
	}
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports(model.ExchangeBybit, model.AccountReal))
	assert.True(t, Supports(model.ExchangeHyperliquid, model.AccountTestnet))
	assert.False(t, Supports(model.ExchangeBybit, model.AccountMainnet))
	assert.False(t, Supports(model.ExchangeHyperliquid, model.AccountBoth))
	assert.False(t, Supports("binance", model.AccountDemo))
}

func TestTarget(t *testing.T) {
	target := Target(model.ExchangeHyperliquid, model.AccountReal)
	assert.Equal(t, model.ExecutionTarget{
		Exchange:    model.ExchangeHyperliquid,
		Env:         model.EnvLive,
		AccountType: model.AccountMainnet,
	}, target)
}

func TestModeAccountType(t *testing.T) {
	at, ok := ModeAccountType(model.ModeMainnet, model.ExchangeBybit)
	assert.True(t, ok)
	assert.Equal(t, model.AccountReal, at)

	at, ok = ModeAccountType(model.ModeBoth, model.ExchangeHyperliquid)
	assert.True(t, ok)
	assert.Equal(t, model.AccountBoth, at)

	_, ok = ModeAccountType(model.ModeGlobal, model.ExchangeBybit)
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	at, ok := ParseAccountType(" Mainnet ")
	assert.True(t, ok)
	assert.Equal(t, model.AccountMainnet, at)

	_, ok = ParseAccountType("live")
	assert.False(t, ok)

	ex, ok := ParseExchange("ByBit")
	assert.True(t, ok)
	assert.Equal(t, model.ExchangeBybit, ex)
}
