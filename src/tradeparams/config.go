package tradeparams

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CoinDefaultsFile points to an optional YAML table of per coin defaults.
	CoinDefaultsFile string `envconfig:"COIN_DEFAULTS_FILE"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
