// Package operator holds the one-shot commands support staff run against the
// settings and credential stores.
package operator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"

	"signalrouter/src/accounts"
	"signalrouter/src/app"
	"signalrouter/src/model"
	"signalrouter/src/settings"
)

// Encrypter seals secrets before they are stored.
type Encrypter func(plaintext string) (string, error)

type Operator struct {
	App     *app.App
	Out     io.Writer
	Encrypt Encrypter
}

// CredentialInput carries plaintext secrets for SetCredential.
type CredentialInput struct {
	UserID        int64
	Exchange      string
	AccountType   string
	APIKey        string
	APISecret     string
	PrivateKey    string
	WalletAddress string
}

// Targets prints where a signal of strategy would be executed for the user.
func (o *Operator) Targets(ctx context.Context, userID int64, strategy, policy string) error {
	var override *model.RoutingPolicy
	if policy != "" {
		p := model.RoutingPolicy(strings.ToLower(policy))
		override = &p
	}
	targets, err := o.App.Engine.GetExecutionTargets(ctx, userID, strings.ToLower(strategy), override)
	if err != nil {
		return err
	}
	if targets == nil {
		targets = []model.ExecutionTarget{}
	}
	return o.print(targets)
}

// Params prints the trade parameters a signal would be placed with.
func (o *Operator) Params(ctx context.Context, userID int64, strategy, symbol, side, exchange string) error {
	strategy = strings.ToLower(strategy)
	if _, err := settings.ParseSide(side); err != nil {
		return err
	}

	ex, err := optionalExchange(exchange)
	if err != nil {
		return err
	}

	user, err := o.App.Resolver.User(ctx, userID)
	if err != nil {
		return err
	}
	eff, err := o.App.Resolver.Resolve(ctx, userID, strategy, ex, "")
	if err != nil {
		return err
	}
	return o.print(o.App.Builder.GetTradeParams(user, eff, strings.ToUpper(symbol), strategy, side, eff.Exchange, eff.AccountType))
}

// SetSetting stores one strategy field. The literal value "null" clears it.
func (o *Operator) SetSetting(ctx context.Context, userID int64, strategy, field, value, exchange, side string) error {
	f, ok := settings.ParseField(strings.ToLower(field))
	if !ok {
		return fmt.Errorf("%w: %q", settings.ErrUnsupportedField, field)
	}

	ex, err := optionalExchange(exchange)
	if err != nil {
		return err
	}

	var v any = value
	if strings.EqualFold(value, "null") {
		v = nil
	}

	err = o.App.Store.SetSetting(ctx, userID, strings.ToLower(strategy), f, v, ex, model.Side(side))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(o.Out, "%s.%s updated for user %d\n", strings.ToLower(strategy), f, userID)
	return err
}

func (o *Operator) SetUserField(ctx context.Context, userID int64, field, value string) error {
	var v any = value
	if strings.EqualFold(value, "null") {
		v = nil
	}
	if err := o.App.Store.SetUserField(ctx, userID, settings.UserField(strings.ToLower(field)), v); err != nil {
		return err
	}
	_, err := fmt.Fprintf(o.Out, "%s updated for user %d\n", strings.ToLower(field), userID)
	return err
}

// SetCredential encrypts and stores one credential row. The account type is
// normalized for the exchange; "both" is rejected.
func (o *Operator) SetCredential(ctx context.Context, in CredentialInput) error {
	exchange, ok := accounts.ParseExchange(in.Exchange)
	if !ok {
		return fmt.Errorf("%w: exchange %q", settings.ErrInvalidEnum, in.Exchange)
	}
	raw, ok := accounts.ParseAccountType(in.AccountType)
	if !ok {
		return fmt.Errorf("%w: account type %q", settings.ErrInvalidEnum, in.AccountType)
	}
	if raw == model.AccountBoth {
		return fmt.Errorf("%w: credentials need a concrete account type", settings.ErrInvalidEnum)
	}
	at := accounts.Normalize(raw, exchange)

	cred := &model.UserCredential{
		UserID:        in.UserID,
		Exchange:      exchange,
		AccountType:   at,
		WalletAddress: in.WalletAddress,
		Testnet:       at == model.AccountTestnet,
	}

	var err error
	if cred.APIKeyHash, err = o.seal(in.APIKey); err != nil {
		return err
	}
	if cred.APISecretHash, err = o.seal(in.APISecret); err != nil {
		return err
	}
	if cred.PrivateKeyHash, err = o.seal(in.PrivateKey); err != nil {
		return err
	}
	if !cred.Usable() {
		return fmt.Errorf("%w: missing secrets for %s", settings.ErrInvalidValue, exchange)
	}

	if _, err := o.App.Users.GetOrCreate(ctx, in.UserID); err != nil {
		return err
	}
	if err := o.App.Credentials.Upsert(ctx, cred); err != nil {
		return err
	}
	_, err = fmt.Fprintf(o.Out, "%s/%s credentials stored for user %d\n", exchange, at, in.UserID)
	return err
}

// DeleteUser removes the user with every setting and credential row.
func (o *Operator) DeleteUser(ctx context.Context, userID int64) error {
	err := o.App.Store.DeleteUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user %d not found", userID)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(o.Out, "user %d deleted\n", userID)
	return err
}

func (o *Operator) seal(secret string) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", nil
	}
	return o.Encrypt(secret)
}

func (o *Operator) print(v interface{}) error {
	enc := json.NewEncoder(o.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// optionalExchange parses an --exchange flag. Empty means the active exchange.
func optionalExchange(s string) (model.Exchange, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	ex, ok := accounts.ParseExchange(s)
	if !ok {
		return "", fmt.Errorf("%w: exchange %q", settings.ErrInvalidEnum, s)
	}
	return ex, nil
}
