package cache

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	UserTTL     time.Duration `envconfig:"USER_CACHE_TTL" default:"30s"`
	SettingsTTL time.Duration `envconfig:"SETTINGS_CACHE_TTL" default:"15s"`
	SchemaTTL   time.Duration `envconfig:"SCHEMA_CACHE_TTL" default:"10m"`
	Size        int           `envconfig:"CACHE_SIZE" default:"10000"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
