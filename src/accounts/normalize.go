// Package accounts maps between the Bybit (demo/real) and Hyperliquid
// (testnet/mainnet) account vocabularies and the unified paper/live environment.
package accounts

import (
	"strings"

	"signalrouter/src/model"
)

// Normalize converts an account type into the vocabulary of the given exchange.
// It never fails: unknown account types or exchanges are returned unchanged.
func Normalize(accountType model.AccountType, exchange model.Exchange) model.AccountType {
	switch exchange {
	case model.ExchangeBybit:
		switch accountType {
		case model.AccountDemo, model.AccountTestnet, model.AccountBoth:
			return model.AccountDemo
		case model.AccountReal, model.AccountMainnet:
			return model.AccountReal
		}
	case model.ExchangeHyperliquid:
		switch accountType {
		case model.AccountDemo, model.AccountTestnet, model.AccountBoth:
			return model.AccountTestnet
		case model.AccountReal, model.AccountMainnet:
			return model.AccountMainnet
		}
	}
	return accountType
}

// EnvOf maps an account type to paper or live, the same way on every exchange.
// Anything that is not recognisably live is paper.
func EnvOf(_ model.Exchange, accountType model.AccountType) model.Environment {
	switch accountType {
	case model.AccountReal, model.AccountMainnet:
		return model.EnvLive
	default:
		return model.EnvPaper
	}
}

// ForEnv is the inverse of EnvOf for a known exchange.
func ForEnv(exchange model.Exchange, env model.Environment) model.AccountType {
	if env == model.EnvLive {
		return Normalize(model.AccountReal, exchange)
	}
	return Normalize(model.AccountDemo, exchange)
}

// AccountTypesFor returns the two account types of an exchange, paper first.
func AccountTypesFor(exchange model.Exchange) []model.AccountType {
	switch exchange {
	case model.ExchangeBybit:
		return []model.AccountType{model.AccountDemo, model.AccountReal}
	case model.ExchangeHyperliquid:
		return []model.AccountType{model.AccountTestnet, model.AccountMainnet}
	}
	return nil
}

// Supports reports whether accountType is one of the exchange's own account types.
func Supports(exchange model.Exchange, accountType model.AccountType) bool {
	for _, at := range AccountTypesFor(exchange) {
		if at == accountType {
			return true
		}
	}
	return false
}

// Target builds an execution target with a normalized account type and matching env.
func Target(exchange model.Exchange, accountType model.AccountType) model.ExecutionTarget {
	at := Normalize(accountType, exchange)
	return model.ExecutionTarget{
		Exchange:    exchange,
		Env:         EnvOf(exchange, at),
		AccountType: at,
	}
}

// ParseAccountType accepts user input in either vocabulary, case-insensitively.
func ParseAccountType(s string) (model.AccountType, bool) {
	at := model.AccountType(strings.ToLower(strings.TrimSpace(s)))
	switch at {
	case model.AccountDemo, model.AccountReal, model.AccountTestnet, model.AccountMainnet, model.AccountBoth:
		return at, true
	}
	return at, false
}

// ParseExchange accepts exchange names case-insensitively.
func ParseExchange(s string) (model.Exchange, bool) {
	e := model.Exchange(strings.ToLower(strings.TrimSpace(s)))
	return e, e.Valid()
}

// ModeAccountType converts a trading mode into an account type on the exchange.
// "global" and unknown modes report ok=false so the caller can fall back.
func ModeAccountType(mode model.TradingMode, exchange model.Exchange) (model.AccountType, bool) {
	switch mode {
	case model.ModeBoth:
		return model.AccountBoth, true
	case model.ModeDemo, model.ModeTestnet, model.ModeReal, model.ModeMainnet:
		return Normalize(model.AccountType(mode), exchange), true
	}
	return "", false
}
