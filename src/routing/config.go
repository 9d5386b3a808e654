package routing

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// LiveTradingAllowed is the process wide safety switch. Without it no
	// live target is ever emitted, whatever the user's own flag says.
	LiveTradingAllowed bool   `envconfig:"LIVE_TRADING_ALLOWED" default:"false"`
	DefaultPolicy      string `envconfig:"DEFAULT_ROUTING_POLICY" default:"same_exchange_all_envs"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
