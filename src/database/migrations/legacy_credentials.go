package migrations

import (
	"fmt"

	"signalrouter/src/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// splitLegacyHyperliquidCredentials copies each legacy single-key Hyperliquid row
// into the per-environment row selected by its testnet flag. Existing
// per-environment rows are left alone; the legacy row itself is kept.
func splitLegacyHyperliquidCredentials(db *gorm.DB) error {
	var legacy []model.UserCredential
	if err := db.
		Where("exchange = ? AND account_type = ?", model.ExchangeHyperliquid, model.AccountLegacy).
		Find(&legacy).Error; err != nil {
		return fmt.Errorf("load legacy hyperliquid credentials: %w", err)
	}

	for _, row := range legacy {
		if row.PrivateKeyHash == "" {
			continue
		}

		target := model.AccountMainnet
		if row.Testnet {
			target = model.AccountTestnet
		}

		split := model.UserCredential{
			UserID:         row.UserID,
			Exchange:       model.ExchangeHyperliquid,
			AccountType:    target,
			PrivateKeyHash: row.PrivateKeyHash,
			WalletAddress:  row.WalletAddress,
			Testnet:        row.Testnet,
		}

		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&split).Error; err != nil {
			return fmt.Errorf("split legacy credential for user %d: %w", row.UserID, err)
		}
	}

	return nil
}
