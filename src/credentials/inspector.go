// Package credentials answers which exchange accounts a user can trade on.
// Only the presence of encrypted secrets is checked; nothing is decrypted here.
package credentials

import (
	"context"
	"fmt"

	"signalrouter/src/accounts"
	"signalrouter/src/model"
	"signalrouter/src/settings"

	logger "github.com/sirupsen/logrus"
)

// Repository lists the stored credential rows of a user.
type Repository interface {
	FindByUser(ctx context.Context, userID int64) ([]model.UserCredential, error)
}

// SettingsResolver provides the user config and the strategy trading mode.
type SettingsResolver interface {
	User(ctx context.Context, userID int64) (*model.User, error)
	Resolve(ctx context.Context, userID int64, strategy string, exchange model.Exchange, accountType model.AccountType) (*settings.Effective, error)
}

// Inspector is read only and does not cache.
type Inspector struct {
	creds    Repository
	resolver SettingsResolver
	log      *logger.Entry
}

func NewInspector(creds Repository, resolver SettingsResolver, log *logger.Entry) *Inspector {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Inspector{
		creds:    creds,
		resolver: resolver,
		log:      log.WithField("component", "CredentialInspector"),
	}
}

// Available returns the account types on exchange that have usable
// credentials, paper first.
//
// Hyperliquid testnet and mainnet keys are independent. The legacy single key
// is only consulted when neither per-environment key is present, and its
// testnet flag selects the account type.
func Available(creds []model.UserCredential, exchange model.Exchange) []model.AccountType {
	have := make(map[model.AccountType]bool, 2)
	var legacy *model.UserCredential

	for i := range creds {
		c := &creds[i]
		if c.Exchange != exchange || !c.Usable() {
			continue
		}
		if c.AccountType == model.AccountLegacy {
			legacy = c
			continue
		}
		have[accounts.Normalize(c.AccountType, exchange)] = true
	}

	if exchange == model.ExchangeHyperliquid && len(have) == 0 && legacy != nil {
		if legacy.Testnet {
			have[model.AccountTestnet] = true
		} else {
			have[model.AccountMainnet] = true
		}
	}

	var out []model.AccountType
	for _, at := range accounts.AccountTypesFor(exchange) {
		if have[at] {
			out = append(out, at)
		}
	}
	return out
}

// FilterByMode keeps the account types the trading mode allows on exchange.
// "both" keeps everything; an unrecognised mode keeps nothing.
func FilterByMode(types []model.AccountType, mode model.TradingMode, exchange model.Exchange) []model.AccountType {
	want, ok := accounts.ModeAccountType(mode, exchange)
	if !ok {
		return nil
	}
	if want == model.AccountBoth {
		return types
	}

	var out []model.AccountType
	for _, at := range types {
		if at == want {
			out = append(out, at)
		}
	}
	return out
}

// AccountTypesOn lists the configured account types of a user on exchange.
func (i *Inspector) AccountTypesOn(ctx context.Context, userID int64, exchange model.Exchange) ([]model.AccountType, error) {
	creds, err := i.creds.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load credentials of user %d: %w", userID, err)
	}
	return Available(creds, exchange), nil
}

// GetActiveAccountTypes lists the configured account types on the user's active exchange.
func (i *Inspector) GetActiveAccountTypes(ctx context.Context, userID int64) ([]model.AccountType, error) {
	exchange, err := i.activeExchange(ctx, userID)
	if err != nil {
		return nil, err
	}
	return i.AccountTypesOn(ctx, userID, exchange)
}

// StrategyAccountTypesOn intersects the configured account types on exchange
// with the strategy's effective trading mode. A strategy set to real with
// only demo keys yields an empty list.
func (i *Inspector) StrategyAccountTypesOn(
	ctx context.Context,
	userID int64,
	strategy string,
	exchange model.Exchange,
) ([]model.AccountType, error) {

	available, err := i.AccountTypesOn(ctx, userID, exchange)
	if err != nil {
		return nil, err
	}
	if len(available) == 0 {
		return nil, nil
	}

	eff, err := i.resolver.Resolve(ctx, userID, strategy, exchange, "")
	if err != nil {
		return nil, err
	}

	out := FilterByMode(available, eff.TradingMode(), exchange)

	i.log.WithFields(map[string]interface{}{
		"userID":    userID,
		"strategy":  strategy,
		"exchange":  exchange,
		"mode":      eff.TradingMode(),
		"available": available,
		"selected":  out,
	}).Debug("Strategy account types")

	return out, nil
}

// GetStrategyAccountTypes is StrategyAccountTypesOn for the active exchange.
func (i *Inspector) GetStrategyAccountTypes(ctx context.Context, userID int64, strategy string) ([]model.AccountType, error) {
	exchange, err := i.activeExchange(ctx, userID)
	if err != nil {
		return nil, err
	}
	return i.StrategyAccountTypesOn(ctx, userID, strategy, exchange)
}

func (i *Inspector) activeExchange(ctx context.Context, userID int64) (model.Exchange, error) {
	u, err := i.resolver.User(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil || !u.ActiveExchange.Valid() {
		return model.ExchangeBybit, nil
	}
	return u.ActiveExchange, nil
}
