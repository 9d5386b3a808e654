package dispatcher

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// MetricsPort exposes /metrics and /healthcheck while dispatching. Empty disables it.
	MetricsPort string `envconfig:"DISPATCHER_METRICS_PORT"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
