package tradeparams

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"signalrouter/src/settings"
)

// CoinDefaults are the per symbol fallbacks consulted after the user's global values.
type CoinDefaults struct {
	Percent   *float64 `yaml:"percent"`
	SLPercent *float64 `yaml:"slPercent"`
	TPPercent *float64 `yaml:"tpPercent"`
	Leverage  *int     `yaml:"leverage"`
}

// CoinTable is the parsed coin defaults file:
//
//	default:
//	  slPercent: 3
//	symbolConfig:
//	  BTC:
//	    slPercent: 1.5
//	    tpPercent: 4
type CoinTable struct {
	Default      CoinDefaults            `yaml:"default"`
	SymbolConfig map[string]CoinDefaults `yaml:"symbolConfig"`
}

// LoadCoinTable reads path. An empty path yields an empty table.
func LoadCoinTable(path string) (*CoinTable, error) {
	table := &CoinTable{}
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read coin defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("failed to parse coin defaults: %w", err)
	}

	normalized := make(map[string]CoinDefaults, len(table.SymbolConfig))
	for symbol, d := range table.SymbolConfig {
		normalized[BaseAsset(symbol)] = d
	}
	table.SymbolConfig = normalized

	return table, nil
}

// For returns the overrides for symbol, filling gaps from the table default.
func (t *CoinTable) For(symbol string) settings.Overrides {
	if t == nil {
		return settings.Overrides{}
	}

	d, ok := t.SymbolConfig[BaseAsset(symbol)]
	if !ok {
		d = CoinDefaults{}
	}

	return settings.Overrides{
		Percent:   settings.First(settings.FromPtr(d.Percent), settings.FromPtr(t.Default.Percent)),
		SLPercent: settings.First(settings.FromPtr(d.SLPercent), settings.FromPtr(t.Default.SLPercent)),
		TPPercent: settings.First(settings.FromPtr(d.TPPercent), settings.FromPtr(t.Default.TPPercent)),
		Leverage:  settings.First(settings.FromPtr(d.Leverage), settings.FromPtr(t.Default.Leverage)),
	}
}

var quoteSuffixes = []string{"USDT", "USDC", "PERP", "USD"}

// BaseAsset strips separators and quote currencies: "btc/usdt", "BTCUSDT"
// and "BTC-PERP" all map to "BTC".
func BaseAsset(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.NewReplacer("/", "", "-", "", "_", "", ":", "").Replace(s)
	for _, q := range quoteSuffixes {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			return strings.TrimSuffix(s, q)
		}
	}
	return s
}
