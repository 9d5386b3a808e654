package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LoopPeriod       time.Duration `envconfig:"LOOP_PERIOD" default:"5s"`
	SignalBatch      int           `envconfig:"SIGNAL_BATCH" default:"100"`
	StartFromID      uint          `envconfig:"START_FROM_ID"` // 0 means "after the latest signal"
	OrderSinkURL     string        `envconfig:"ORDER_SINK_URL"`
	OrderSinkTimeout time.Duration `envconfig:"ORDER_SINK_TIMEOUT" default:"10s"`
	OrderSinkRetries int           `envconfig:"ORDER_SINK_RETRIES" default:"2"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
