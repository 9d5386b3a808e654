package model

// Exchange identifies one of the supported trading venues.
type Exchange string

const (
	ExchangeBybit       Exchange = "bybit"
	ExchangeHyperliquid Exchange = "hyperliquid"
)

// Exchanges lists the supported venues in routing order.
var Exchanges = []Exchange{ExchangeBybit, ExchangeHyperliquid}

func (e Exchange) Valid() bool {
	return e == ExchangeBybit || e == ExchangeHyperliquid
}

// AccountType is the exchange specific environment vocabulary.
// Bybit speaks demo/real, Hyperliquid speaks testnet/mainnet.
type AccountType string

const (
	AccountDemo    AccountType = "demo"
	AccountReal    AccountType = "real"
	AccountTestnet AccountType = "testnet"
	AccountMainnet AccountType = "mainnet"
	AccountBoth    AccountType = "both"
)

// Environment is the venue independent paper/live abstraction.
type Environment string

const (
	EnvPaper Environment = "paper"
	EnvLive  Environment = "live"
)

// Side selects which stored settings slot applies.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
	// SideAll is the side-agnostic slot used as the strategy-general fallback.
	SideAll Side = "all"
)

// RoutingPolicy decides how many execution targets a signal fans out to.
type RoutingPolicy string

const (
	PolicyActiveOnly          RoutingPolicy = "active_only"
	PolicySameExchangeAllEnvs RoutingPolicy = "same_exchange_all_envs"
	PolicyAllEnabled          RoutingPolicy = "all_enabled"
	PolicyCustom              RoutingPolicy = "custom"
)

const DefaultRoutingPolicy = PolicySameExchangeAllEnvs

func (p RoutingPolicy) Valid() bool {
	switch p {
	case PolicyActiveOnly, PolicySameExchangeAllEnvs, PolicyAllEnabled, PolicyCustom:
		return true
	}
	return false
}

// TradingMode is the user or strategy level environment selection.
// Hyperliquid equivalents (testnet/mainnet) are accepted as aliases.
type TradingMode string

const (
	ModeGlobal  TradingMode = "global"
	ModeDemo    TradingMode = "demo"
	ModeReal    TradingMode = "real"
	ModeBoth    TradingMode = "both"
	ModeTestnet TradingMode = "testnet"
	ModeMainnet TradingMode = "mainnet"
)

func (m TradingMode) Valid() bool {
	switch m {
	case ModeGlobal, ModeDemo, ModeReal, ModeBoth, ModeTestnet, ModeMainnet:
		return true
	}
	return false
}
