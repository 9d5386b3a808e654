package model

import "time"

// AccountLegacy marks the pre-split Hyperliquid credential row, disambiguated by Testnet.
const AccountLegacy AccountType = "legacy"

// UserCredential stores encrypted secrets for one (user, exchange, account type).
// Bybit rows use APIKey/APISecret, Hyperliquid rows use PrivateKey/WalletAddress.
type UserCredential struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      int64       `gorm:"not null;uniqueIndex:idx_user_credential,priority:1" json:"user_id"`
	Exchange    Exchange    `gorm:"size:20;not null;uniqueIndex:idx_user_credential,priority:2" json:"exchange"`
	AccountType AccountType `gorm:"size:20;not null;uniqueIndex:idx_user_credential,priority:3" json:"account_type"`

	APIKeyHash     string `gorm:"column:api_key;type:text" json:"-"`
	APISecretHash  string `gorm:"column:api_secret;type:text" json:"-"`
	PrivateKeyHash string `gorm:"column:private_key;type:text" json:"-"`
	WalletAddress  string `gorm:"column:wallet_address;size:64" json:"wallet_address,omitempty"`
	Testnet        bool   `gorm:"column:testnet;not null;default:false" json:"testnet"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Usable reports whether the row carries the secrets its exchange needs.
// Only presence is checked; values stay encrypted.
func (c *UserCredential) Usable() bool {
	if c == nil {
		return false
	}
	switch c.Exchange {
	case ExchangeBybit:
		return c.APIKeyHash != "" && c.APISecretHash != ""
	case ExchangeHyperliquid:
		return c.PrivateKeyHash != ""
	}
	return false
}
